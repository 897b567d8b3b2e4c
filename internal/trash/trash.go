// Package trash keeps the content of files dirsync deletes or overwrites,
// addressed by content hash, so they can be restored later.
package trash

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"

	"github.com/bianoble/dirsync/internal/inventory"
)

// Store is a content-addressed object directory. Objects are immutable and
// verified against their hash when read back.
type Store struct {
	dir string
}

// New creates a Store at the given directory.
// The directory is created if it does not exist.
func New(dir string) (*Store, error) {
	objDir := filepath.Join(dir, "objects")
	if err := os.MkdirAll(objDir, 0755); err != nil {
		return nil, fmt.Errorf("creating trash directory %s: %w", objDir, err)
	}
	return &Store{dir: dir}, nil
}

// DefaultDir returns the default trash directory.
// Uses XDG_DATA_HOME if set, otherwise ~/.local/share/dirsync/trash.
func DefaultDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "dirsync", "trash")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		if runtime.GOOS == "windows" {
			return filepath.Join(os.TempDir(), "dirsync-trash")
		}
		return filepath.Join("/tmp", "dirsync-trash")
	}
	return filepath.Join(home, ".local", "share", "dirsync", "trash")
}

// Open returns the Store at dir without creating anything on disk. A
// missing directory reads as an empty store.
func Open(dir string) *Store {
	return &Store{dir: dir}
}

// PutFile stores the content of the file at path and returns its hash and
// size. The file is streamed; hashing and writing happen in one pass.
// No-op if the content is already stored.
func (s *Store) PutFile(path string) (inventory.ContentHash, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return inventory.ContentHash{}, 0, fmt.Errorf("opening %s: %w", path, err)
	}
	defer func() {
		_ = f.Close()
	}()

	tmp, err := os.CreateTemp(filepath.Join(s.dir, "objects"), ".tmp-*")
	if err != nil {
		return inventory.ContentHash{}, 0, fmt.Errorf("creating trash temp file: %w", err)
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	hash, err := inventory.HashReader(io.TeeReader(f, tmp), 0)
	if err != nil {
		return hash, 0, fmt.Errorf("writing trash temp file: %w", err)
	}

	info, err := tmp.Stat()
	if err != nil {
		return hash, 0, fmt.Errorf("stat trash temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return hash, 0, fmt.Errorf("syncing trash temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return hash, 0, fmt.Errorf("closing trash temp file: %w", err)
	}

	// Already stored; objects are immutable.
	if s.Has(hash) {
		_ = os.Remove(tmpPath)
		success = true
		return hash, info.Size(), nil
	}

	obj := s.objectPath(hash)
	if err := os.MkdirAll(filepath.Dir(obj), 0755); err != nil {
		return hash, 0, fmt.Errorf("creating trash subdirectory: %w", err)
	}
	if err := os.Rename(tmpPath, obj); err != nil {
		return hash, 0, fmt.Errorf("renaming trash temp file: %w", err)
	}

	success = true
	return hash, info.Size(), nil
}

// Restore writes the object for hash to target, creating parent
// directories. The object is verified while it is copied and the target is
// only replaced once verification succeeds. A replaced target keeps its
// mode; a new one gets 0644.
func (s *Store) Restore(hash inventory.ContentHash, target string) error {
	if !s.Has(hash) {
		return fmt.Errorf("object %s not in trash %s", hash, s.dir)
	}
	src, err := os.Open(s.objectPath(hash))
	if err != nil {
		return fmt.Errorf("opening trash object %s: %w", hash, err)
	}
	defer func() {
		_ = src.Close()
	}()

	mode := os.FileMode(0644)
	if info, err := os.Stat(target); err == nil && info.Mode().IsRegular() {
		mode = info.Mode().Perm()
	}

	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".dirsync-restore-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	got, err := inventory.HashReader(io.TeeReader(src, tmp), 0)
	if err != nil {
		return fmt.Errorf("restoring %s: %w", hash, err)
	}
	if got != hash {
		return fmt.Errorf("trash object %s is corrupt (content hash %s)", hash, got)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, mode); err != nil {
		return fmt.Errorf("setting permissions: %w", err)
	}
	if err := os.Rename(tmpPath, target); err != nil {
		return fmt.Errorf("renaming temp file to %s: %w", target, err)
	}

	success = true
	return nil
}

// Has checks if a hash exists in the store without reading content.
func (s *Store) Has(hash inventory.ContentHash) bool {
	_, err := os.Stat(s.objectPath(hash))
	return err == nil
}

// Size returns the total size of stored objects in bytes. A store whose
// directory does not exist has size 0.
func (s *Store) Size() (int64, error) {
	var total int64
	err := filepath.WalkDir(s.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == s.dir && errors.Is(err, fs.ErrNotExist) {
				return fs.SkipAll
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		total += info.Size()
		return nil
	})
	return total, err
}

// Path returns the store directory path.
func (s *Store) Path() string {
	return s.dir
}

func (s *Store) objectPath(hash inventory.ContentHash) string {
	hex := hash.String()
	return filepath.Join(s.dir, "objects", hex[:2], hex)
}
