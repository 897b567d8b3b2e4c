package apply

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/bianoble/dirsync/internal/reconcile"
	"github.com/bianoble/dirsync/internal/sandbox"
	"github.com/bianoble/dirsync/internal/syncerr"
)

// Backend performs the three storage primitives an Action needs. Paths
// are absolute.
type Backend interface {
	Copy(src, dst string) error
	Move(oldPath, newPath string) error
	Delete(path string) error
}

// OSBackend mutates the real filesystem. Every path it writes, moves or
// removes must resolve inside Root.
type OSBackend struct {
	Root string

	// Strict turns unexpected destination state into a *syncerr.ConflictError:
	// a copy onto an existing file, a move whose source is gone or whose
	// target exists, a delete of a missing file.
	Strict bool

	Logger *slog.Logger
}

// NewOSBackend returns an OSBackend confined to root.
func NewOSBackend(root string, strict bool, logger *slog.Logger) *OSBackend {
	return &OSBackend{Root: root, Strict: strict, Logger: logger}
}

func (b *OSBackend) Copy(src, dst string) error {
	rel, err := b.rel("copy", dst)
	if err != nil {
		return err
	}
	if b.Strict && exists(dst) {
		return &syncerr.ConflictError{Op: "copy", Path: dst, Reason: "target already exists"}
	}

	n, err := sandbox.SafeCopy(src, b.Root, rel)
	if err != nil {
		return &syncerr.IOError{Op: "copy", Path: dst, Err: err}
	}
	b.logger().Debug("copied file", "src", src, "dst", dst, "size", humanize.Bytes(uint64(n)))
	return nil
}

func (b *OSBackend) Move(oldPath, newPath string) error {
	oldRel, err := b.rel("move", oldPath)
	if err != nil {
		return err
	}
	newRel, err := b.rel("move", newPath)
	if err != nil {
		return err
	}
	if b.Strict {
		if !exists(oldPath) {
			return &syncerr.ConflictError{Op: "move", Path: oldPath, Reason: "source no longer exists"}
		}
		if exists(newPath) {
			return &syncerr.ConflictError{Op: "move", Path: newPath, Reason: "target already exists"}
		}
	}

	if err := sandbox.SafeRename(b.Root, oldRel, newRel); err != nil {
		return &syncerr.IOError{Op: "move", Path: oldPath, Err: err}
	}
	b.logger().Debug("moved file", "from", oldPath, "to", newPath)
	return nil
}

func (b *OSBackend) Delete(path string) error {
	rel, err := b.rel("delete", path)
	if err != nil {
		return err
	}

	if err := sandbox.SafeRemove(b.Root, rel); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			if b.Strict {
				return &syncerr.ConflictError{Op: "delete", Path: path, Reason: "file no longer exists"}
			}
			b.logger().Warn("file already gone", "path", path)
			return nil
		}
		return &syncerr.IOError{Op: "delete", Path: path, Err: err}
	}
	b.logger().Debug("deleted file", "path", path)
	return nil
}

// rel expresses path relative to the backend root, rejecting paths that
// are lexically outside of it. Symlink escapes are caught by the sandbox.
func (b *OSBackend) rel(op, path string) (string, error) {
	if b.Root == "" {
		return "", &syncerr.IOError{Op: op, Path: path, Err: fmt.Errorf("backend root not set")}
	}
	rel, err := filepath.Rel(b.Root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", &syncerr.IOError{Op: op, Path: path, Err: fmt.Errorf("outside root %s", b.Root)}
	}
	return rel, nil
}

func (b *OSBackend) logger() *slog.Logger {
	if b.Logger != nil {
		return b.Logger
	}
	return slog.Default()
}

func exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

// Call is one primitive recorded by a RecordingBackend.
type Call struct {
	Op  reconcile.Kind
	Src string
	Dst string
}

// RecordingBackend records every call and performs no I/O. It backs dry
// runs and tests of the whole pipeline.
type RecordingBackend struct {
	Calls []Call
}

func (r *RecordingBackend) Copy(src, dst string) error {
	r.Calls = append(r.Calls, Call{Op: reconcile.KindCopy, Src: src, Dst: dst})
	return nil
}

func (r *RecordingBackend) Move(oldPath, newPath string) error {
	r.Calls = append(r.Calls, Call{Op: reconcile.KindMove, Src: oldPath, Dst: newPath})
	return nil
}

func (r *RecordingBackend) Delete(path string) error {
	r.Calls = append(r.Calls, Call{Op: reconcile.KindDelete, Dst: path})
	return nil
}
