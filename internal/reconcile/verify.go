package reconcile

import (
	"slices"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/bianoble/dirsync/internal/inventory"
)

// Divergence lists the names by which a simulated replay of a plan misses
// the source tree. Both lists are sorted.
type Divergence struct {
	Missing []string // in source, absent after replay
	Extra   []string // present after replay, not in source
}

// Converges reports whether the replay ends with exactly the source names.
func (d Divergence) Converges() bool {
	return len(d.Missing) == 0 && len(d.Extra) == 0
}

// Verify replays actions against the name set of dest and compares the
// result with the name set of source. Only names are tracked, not content.
//
// Plans that overwrite a name whose old content is also deleted (a file
// modified in place, or a move onto a name that is deleted afterwards)
// show up here as Missing.
func Verify(source, dest *inventory.Snapshot, actions []Action) Divergence {
	names := mapset.NewThreadUnsafeSet(dest.Names()...)

	for _, a := range actions {
		switch a.Kind {
		case KindCopy:
			names.Add(a.Dst)
		case KindMove:
			names.Remove(a.Src)
			names.Add(a.Dst)
		case KindDelete:
			names.Remove(a.Dst)
		}
	}

	want := mapset.NewThreadUnsafeSet(source.Names()...)

	missing := want.Difference(names).ToSlice()
	extra := names.Difference(want).ToSlice()
	slices.Sort(missing)
	slices.Sort(extra)

	return Divergence{Missing: missing, Extra: extra}
}
