package inventory

import (
	"context"
	"crypto/md5"
	"crypto/sha512"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/bianoble/dirsync/internal/syncerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadFSRecordsRegularFiles(t *testing.T) {
	fsys := fstest.MapFS{
		"a.txt":         {Data: []byte("alpha")},
		"sub/b.txt":     {Data: []byte("beta")},
		"sub/deep/c.md": {Data: []byte("gamma")},
		"link":          {Data: []byte("a.txt"), Mode: fs.ModeSymlink},
	}

	r := &Reader{}
	snap, err := r.ReadFS(context.Background(), fsys)
	require.NoError(t, err)

	assert.Equal(t, 3, snap.Len())
	for name, content := range map[string]string{
		"a.txt":         "alpha",
		"sub/b.txt":     "beta",
		"sub/deep/c.md": "gamma",
	} {
		got, ok := snap.Lookup(HashOf([]byte(content)))
		require.True(t, ok, "missing %s", name)
		assert.Equal(t, name, got)
	}
}

func TestReadFSDuplicateContentKeepsLaterName(t *testing.T) {
	fsys := fstest.MapFS{
		"a.txt": {Data: []byte("same")},
		"b.txt": {Data: []byte("same")},
	}

	snap, err := (&Reader{}).ReadFS(context.Background(), fsys)
	require.NoError(t, err)

	assert.Equal(t, 1, snap.Len())
	name, ok := snap.Lookup(HashOf([]byte("same")))
	require.True(t, ok)
	// fs.WalkDir visits in lexical order, so b.txt is visited last.
	assert.Equal(t, "b.txt", name)
}

func TestReadFSSmallBlockSize(t *testing.T) {
	content := strings.Repeat("0123456789", 1000)
	fsys := fstest.MapFS{"big.bin": {Data: []byte(content)}}

	snap, err := (&Reader{BlockSize: 7}).ReadFS(context.Background(), fsys)
	require.NoError(t, err)

	assert.True(t, snap.Has(HashOf([]byte(content))))
}

func TestReadFSAppliesFilter(t *testing.T) {
	fsys := fstest.MapFS{
		"keep.md":              {Data: []byte("1")},
		"skip.log":             {Data: []byte("2")},
		"build/out.md":         {Data: []byte("3")},
		"docs/guide.md":        {Data: []byte("4")},
		"docs/image.png":       {Data: []byte("5")},
		LockFileName:           {Data: []byte("")},
		"nested/.dirsync.lock": {Data: []byte("6")},
	}

	filter, err := NewFilter([]string{"*.log", "build/"}, []string{"**/*.md", "**/*.lock"})
	require.NoError(t, err)

	snap, err := (&Reader{Filter: filter}).ReadFS(context.Background(), fsys)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"keep.md", "docs/guide.md", "nested/.dirsync.lock"}, snap.Names())
}

type failingFS struct {
	fstest.MapFS
	fail string
}

func (f failingFS) Open(name string) (fs.File, error) {
	if name == f.fail {
		return nil, fs.ErrPermission
	}
	return f.MapFS.Open(name)
}

func TestReadFSAbortsOnUnreadableFile(t *testing.T) {
	fsys := failingFS{
		MapFS: fstest.MapFS{
			"a.txt": {Data: []byte("a")},
			"b.txt": {Data: []byte("b")},
		},
		fail: "b.txt",
	}

	snap, err := (&Reader{}).ReadFS(context.Background(), fsys)
	require.Error(t, err)
	assert.Nil(t, snap)

	var ioErr *syncerr.IOError
	require.ErrorAs(t, err, &ioErr)
	assert.Equal(t, "b.txt", ioErr.Path)
	assert.True(t, errors.Is(err, fs.ErrPermission))
}

func TestReadFSHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := (&Reader{}).ReadFS(ctx, fstest.MapFS{"a": {Data: []byte("a")}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReadMissingRoot(t *testing.T) {
	_, err := (&Reader{}).Read(context.Background(), filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	assert.True(t, syncerr.IsNotFound(err))
}

func TestReadRootIsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))

	_, err := (&Reader{}).Read(context.Background(), path)
	assert.True(t, syncerr.IsNotFound(err))
}

func TestReadRealTree(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "sub"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "one.txt"), []byte("one"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "sub", "two.txt"), []byte("two"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, LockFileName), nil, 0644))

	if runtime.GOOS != "windows" {
		require.NoError(t, os.Symlink(filepath.Join(root, "one.txt"), filepath.Join(root, "alias.txt")))
	}

	snap, err := (&Reader{}).Read(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, []string{"one.txt", "sub/two.txt"}, snap.Names())
}

func TestReadUnreadableFile(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("permission bits not enforced")
	}

	root := t.TempDir()
	path := filepath.Join(root, "secret")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0000))

	_, err := (&Reader{}).Read(context.Background(), root)
	var ioErr *syncerr.IOError
	assert.ErrorAs(t, err, &ioErr)
}

func TestHashReaderMatchesHashOf(t *testing.T) {
	content := []byte(strings.Repeat("abc", 5000))
	got, err := HashReader(strings.NewReader(string(content)), 100)
	require.NoError(t, err)
	assert.Equal(t, HashOf(content), got)
}

func TestReadFSCustomHash(t *testing.T) {
	fsys := fstest.MapFS{"a.txt": {Data: []byte("a")}}

	snap, err := (&Reader{NewHash: sha512.New512_256}).ReadFS(context.Background(), fsys)
	require.NoError(t, err)

	want := ContentHash(sha512.Sum512_256([]byte("a")))
	name, ok := snap.Lookup(want)
	assert.True(t, ok)
	assert.Equal(t, "a.txt", name)
	assert.False(t, snap.Has(HashOf([]byte("a"))))
}

func TestReadFSRejectsShortHash(t *testing.T) {
	fsys := fstest.MapFS{"a.txt": {Data: []byte("a")}}

	_, err := (&Reader{NewHash: md5.New}).ReadFS(context.Background(), fsys)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "16 byte sums")
}
