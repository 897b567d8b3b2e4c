package inventory

import (
	"fmt"

	"github.com/bmatcuk/doublestar/v4"
	gitignore "github.com/sabhiram/go-gitignore"
)

// LockFileName is the advisory lock dirsync keeps in a destination root.
// It is never part of a snapshot.
const LockFileName = ".dirsync.lock"

var defaultExcludeLines = []string{
	"/" + LockFileName,
}

// Filter decides which paths under a root take part in a snapshot.
// Exclude lines use gitignore syntax; include patterns are doublestar
// globs and, when present, a file must match at least one of them.
type Filter struct {
	ignore   *gitignore.GitIgnore
	includes []string
}

// NewFilter compiles exclude lines and include globs. The dirsync lock
// file is always excluded.
func NewFilter(exclude, include []string) (*Filter, error) {
	for _, pattern := range include {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid include pattern %q", pattern)
		}
	}

	lines := make([]string, 0, len(defaultExcludeLines)+len(exclude))
	lines = append(lines, defaultExcludeLines...)
	for _, line := range exclude {
		if line != "" {
			lines = append(lines, line)
		}
	}

	return &Filter{
		ignore:   gitignore.CompileIgnoreLines(lines...),
		includes: append([]string(nil), include...),
	}, nil
}

// SkipDir reports whether the directory at rel should not be descended.
func (f *Filter) SkipDir(rel string) bool {
	if f == nil || rel == "." {
		return false
	}
	return f.ignore.MatchesPath(rel) || f.ignore.MatchesPath(rel+"/")
}

// Keep reports whether the file at rel belongs in the snapshot.
func (f *Filter) Keep(rel string) bool {
	if f == nil {
		return true
	}
	if f.ignore.MatchesPath(rel) {
		return false
	}
	if len(f.includes) == 0 {
		return true
	}
	for _, pattern := range f.includes {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}
