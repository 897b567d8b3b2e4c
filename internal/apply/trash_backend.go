package apply

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/dustin/go-humanize"

	"github.com/bianoble/dirsync/internal/trash"
)

// TrashBackend saves destination content into a trash store before the
// wrapped backend deletes or overwrites it.
type TrashBackend struct {
	Backend Backend
	Store   *trash.Store
	Logger  *slog.Logger
}

func (t *TrashBackend) Copy(src, dst string) error {
	if err := t.save(dst); err != nil {
		return err
	}
	return t.Backend.Copy(src, dst)
}

func (t *TrashBackend) Move(oldPath, newPath string) error {
	if err := t.save(newPath); err != nil {
		return err
	}
	return t.Backend.Move(oldPath, newPath)
}

func (t *TrashBackend) Delete(path string) error {
	if err := t.save(path); err != nil {
		return err
	}
	return t.Backend.Delete(path)
}

// save stores the regular file at path, if there is one. Missing files are
// left for the wrapped backend to judge.
func (t *TrashBackend) save(path string) error {
	info, err := os.Lstat(path)
	if err != nil || !info.Mode().IsRegular() {
		return nil
	}

	hash, size, err := t.Store.PutFile(path)
	if err != nil {
		return fmt.Errorf("trashing %s: %w", path, err)
	}
	t.logger().Info("trashed file", "path", path, "hash", hash.Short(), "size", humanize.Bytes(uint64(size)))
	return nil
}

func (t *TrashBackend) logger() *slog.Logger {
	if t.Logger != nil {
		return t.Logger
	}
	return slog.Default()
}
