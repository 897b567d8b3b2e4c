// Package sandbox performs file mutations that are guaranteed to stay
// inside a root directory.
package sandbox

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ValidatePath checks if targetPath is safely within root.
// It resolves symlinks, normalizes paths, and verifies containment.
// Returns the resolved absolute path or an error.
func ValidatePath(root, targetPath string) (string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolving root: %w", err)
	}
	realRoot, err := filepath.EvalSymlinks(absRoot)
	if err != nil {
		return "", fmt.Errorf("resolving root symlinks: %w", err)
	}

	candidate := filepath.Clean(filepath.Join(realRoot, targetPath))

	// The path may not exist yet, so resolve as much as we can.
	resolved, err := resolveExistingPath(candidate)
	if err != nil {
		return "", fmt.Errorf("resolving target path: %w", err)
	}

	// Trailing separator keeps "root2" from matching "root".
	rootPrefix := realRoot + string(filepath.Separator)
	if resolved != realRoot && !strings.HasPrefix(resolved, rootPrefix) {
		return "", fmt.Errorf("path '%s' resolves to '%s' which is outside the root '%s'", targetPath, resolved, realRoot)
	}

	return resolved, nil
}

// resolveExistingPath resolves symlinks for the longest existing prefix of the path,
// then appends the non-existing suffix.
func resolveExistingPath(path string) (string, error) {
	resolved, err := filepath.EvalSymlinks(path)
	if err == nil {
		return resolved, nil
	}

	dir := filepath.Dir(path)
	base := filepath.Base(path)
	if dir == path {
		return path, nil
	}

	resolvedDir, err := resolveExistingPath(dir)
	if err != nil {
		return "", err
	}
	return filepath.Join(resolvedDir, base), nil
}

// SafeCopy streams the file at srcPath to relPath inside root. The copy
// lands atomically: content goes to a temp file in the target directory
// which is renamed over the target once complete. The source mode bits
// are preserved.
func SafeCopy(srcPath, root, relPath string) (int64, error) {
	resolved, err := ValidatePath(root, relPath)
	if err != nil {
		return 0, err
	}

	src, err := os.Open(srcPath)
	if err != nil {
		return 0, err
	}
	defer func() {
		_ = src.Close()
	}()
	info, err := src.Stat()
	if err != nil {
		return 0, err
	}
	if !info.Mode().IsRegular() {
		return 0, fmt.Errorf("%s is not a regular file", srcPath)
	}

	dir := filepath.Dir(resolved)
	if err := SafeMkdirAll(root, filepath.Dir(relPath), 0755); err != nil {
		return 0, fmt.Errorf("creating directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".dirsync-*.tmp")
	if err != nil {
		return 0, fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	n, err := io.Copy(tmp, src)
	if err != nil {
		return n, fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return n, fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return n, fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, info.Mode().Perm()); err != nil {
		return n, fmt.Errorf("setting permissions: %w", err)
	}

	if err := os.Rename(tmpPath, resolved); err != nil {
		return n, fmt.Errorf("renaming temp file to %s: %w", resolved, err)
	}

	success = true
	return n, nil
}

// SafeRename moves oldRel to newRel, both inside root, creating parent
// directories of the target as needed. Directories left empty by the move
// are removed.
func SafeRename(root, oldRel, newRel string) error {
	oldPath, err := ValidatePath(root, oldRel)
	if err != nil {
		return err
	}
	newPath, err := ValidatePath(root, newRel)
	if err != nil {
		return err
	}

	if err := SafeMkdirAll(root, filepath.Dir(newRel), 0755); err != nil {
		return fmt.Errorf("creating directory %s: %w", filepath.Dir(newPath), err)
	}
	if err := os.Rename(oldPath, newPath); err != nil {
		return err
	}

	pruneEmptyParents(root, oldPath)
	return nil
}

// SafeRemove removes a file within the root sandbox, then removes any
// parent directories it leaves empty. The root itself is never removed.
func SafeRemove(root, relPath string) error {
	resolved, err := ValidatePath(root, relPath)
	if err != nil {
		return err
	}
	if err := os.Remove(resolved); err != nil {
		return err
	}

	pruneEmptyParents(root, resolved)
	return nil
}

// SafeMkdirAll creates directories within the sandbox.
func SafeMkdirAll(root, relPath string, perm os.FileMode) error {
	resolved, err := ValidatePath(root, relPath)
	if err != nil {
		return err
	}
	return os.MkdirAll(resolved, perm)
}

func pruneEmptyParents(root, path string) {
	realRoot, err := ValidatePath(root, ".")
	if err != nil {
		return
	}
	for dir := filepath.Dir(path); dir != realRoot && strings.HasPrefix(dir, realRoot); dir = filepath.Dir(dir) {
		// os.Remove refuses non-empty directories, which ends the walk.
		if os.Remove(dir) != nil {
			return
		}
	}
}
