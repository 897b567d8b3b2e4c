// Package inventory builds content-addressed snapshots of directory trees.
package inventory

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"hash"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/bianoble/dirsync/internal/syncerr"
)

// DefaultBlockSize is the read size used when hashing file content.
const DefaultBlockSize = 64 * 1024

// Reader walks a directory tree and records one entry per distinct
// content. A zero Reader is ready to use.
type Reader struct {
	// BlockSize bounds the memory used to hash a single file.
	BlockSize int

	// Filter restricts which files are considered. Nil keeps everything
	// except the dirsync lock file.
	Filter *Filter

	// NewHash returns the digest used for content hashes. It must produce
	// HashSize byte sums. Nil means SHA-256.
	NewHash func() hash.Hash

	Logger *slog.Logger
}

// Read snapshots the tree rooted at root.
func (r *Reader) Read(ctx context.Context, root string) (*Snapshot, error) {
	info, err := os.Stat(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &syncerr.NotFoundError{Path: root, Err: err}
		}
		return nil, &syncerr.IOError{Op: "stat", Path: root, Err: err}
	}
	if !info.IsDir() {
		return nil, &syncerr.NotFoundError{Path: root, Err: fmt.Errorf("not a directory")}
	}

	snap, err := r.ReadFS(ctx, os.DirFS(root))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", root, err)
	}
	r.logger().Debug("snapshot complete", "root", root, "entries", snap.Len())
	return snap, nil
}

// ReadFS snapshots fsys. Only regular files are entries; symlinks and
// other special files are skipped. Any read failure aborts the walk and no
// snapshot is returned.
func (r *Reader) ReadFS(ctx context.Context, fsys fs.FS) (*Snapshot, error) {
	filter := r.Filter
	if filter == nil {
		var err error
		if filter, err = NewFilter(nil, nil); err != nil {
			return nil, err
		}
	}

	newHash := r.NewHash
	if newHash == nil {
		newHash = sha256.New
	}
	if size := newHash().Size(); size != HashSize {
		return nil, fmt.Errorf("hash function produces %d byte sums, want %d", size, HashSize)
	}

	buf := make([]byte, r.blockSize())
	b := NewBuilder()

	err := fs.WalkDir(fsys, ".", func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return &syncerr.IOError{Op: "walk", Path: path, Err: walkErr}
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if filter.SkipDir(path) {
				return fs.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || !filter.Keep(path) {
			return nil
		}

		sum, err := hashFile(fsys, path, newHash(), buf)
		if err != nil {
			return err
		}
		b.Put(sum, path)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return b.Snapshot(), nil
}

func (r *Reader) blockSize() int {
	if r.BlockSize > 0 {
		return r.BlockSize
	}
	return DefaultBlockSize
}

func (r *Reader) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

// hashFile streams the file through h using buf as the block buffer.
func hashFile(fsys fs.FS, path string, h hash.Hash, buf []byte) (ContentHash, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return ContentHash{}, &syncerr.IOError{Op: "open", Path: path, Err: err}
	}
	defer func() {
		_ = f.Close()
	}()

	sum, err := hashStream(f, h, buf)
	if err != nil {
		return ContentHash{}, &syncerr.IOError{Op: "read", Path: path, Err: err}
	}
	return sum, nil
}

// HashReader streams r through SHA-256 in blocks of blockSize bytes.
func HashReader(r io.Reader, blockSize int) (ContentHash, error) {
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}
	return hashStream(r, sha256.New(), make([]byte, blockSize))
}

func hashStream(r io.Reader, h hash.Hash, buf []byte) (ContentHash, error) {
	var sum ContentHash
	for {
		n, err := r.Read(buf)
		if n > 0 {
			h.Write(buf[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return sum, err
		}
	}
	copy(sum[:], h.Sum(nil))
	return sum, nil
}
