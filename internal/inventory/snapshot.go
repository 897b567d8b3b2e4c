package inventory

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"iter"
)

// HashSize is the length in bytes of a ContentHash.
const HashSize = sha256.Size

// ContentHash identifies a file by the SHA-256 digest of its full content.
type ContentHash [HashSize]byte

// String returns the lowercase hex form of the hash.
func (h ContentHash) String() string {
	return hex.EncodeToString(h[:])
}

// Short returns the first 12 hex characters, for log output.
func (h ContentHash) Short() string {
	return h.String()[:12]
}

// ParseHash decodes a hex encoded ContentHash.
func ParseHash(s string) (ContentHash, error) {
	var h ContentHash
	b, err := hex.DecodeString(s)
	if err != nil {
		return h, fmt.Errorf("invalid content hash %q: %w", s, err)
	}
	if len(b) != HashSize {
		return h, fmt.Errorf("invalid content hash %q: want %d bytes, got %d", s, HashSize, len(b))
	}
	copy(h[:], b)
	return h, nil
}

// HashOf returns the ContentHash of an in-memory byte slice.
func HashOf(content []byte) ContentHash {
	return ContentHash(sha256.Sum256(content))
}

// Entry is one (hash, name) pair of a Snapshot.
type Entry struct {
	Hash ContentHash
	Name string // slash separated, relative to the snapshot root
}

// Snapshot is a point-in-time, content-addressed view of a directory tree.
// Each distinct content hash maps to exactly one relative name. Iteration
// follows insertion order, which for snapshots produced by a Reader is the
// order files were discovered.
//
// A Snapshot is immutable once built; use a Builder to construct one.
type Snapshot struct {
	entries []Entry
	index   map[ContentHash]int
}

// Len returns the number of entries.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.entries)
}

// Lookup returns the name recorded for hash.
func (s *Snapshot) Lookup(hash ContentHash) (string, bool) {
	if s == nil {
		return "", false
	}
	i, ok := s.index[hash]
	if !ok {
		return "", false
	}
	return s.entries[i].Name, true
}

// Has reports whether the snapshot contains hash.
func (s *Snapshot) Has(hash ContentHash) bool {
	_, ok := s.Lookup(hash)
	return ok
}

// All iterates over the entries in insertion order.
func (s *Snapshot) All() iter.Seq2[ContentHash, string] {
	return func(yield func(ContentHash, string) bool) {
		if s == nil {
			return
		}
		for _, e := range s.entries {
			if !yield(e.Hash, e.Name) {
				return
			}
		}
	}
}

// Entries returns a copy of the entries in insertion order.
func (s *Snapshot) Entries() []Entry {
	if s == nil {
		return nil
	}
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Names returns the recorded names in insertion order.
func (s *Snapshot) Names() []string {
	if s == nil {
		return nil
	}
	names := make([]string, 0, len(s.entries))
	for _, e := range s.entries {
		names = append(names, e.Name)
	}
	return names
}

// Builder accumulates entries for a Snapshot.
type Builder struct {
	entries []Entry
	index   map[ContentHash]int
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{index: make(map[ContentHash]int)}
}

// Put records name for hash. When hash was already recorded the new name
// replaces the old one and the entry keeps its original position.
func (b *Builder) Put(hash ContentHash, name string) {
	if i, ok := b.index[hash]; ok {
		b.entries[i].Name = name
		return
	}
	b.index[hash] = len(b.entries)
	b.entries = append(b.entries, Entry{Hash: hash, Name: name})
}

// Snapshot returns the accumulated entries as an immutable Snapshot. The
// builder may keep being used; later puts do not affect the result.
func (b *Builder) Snapshot() *Snapshot {
	entries := make([]Entry, len(b.entries))
	copy(entries, b.entries)
	index := make(map[ContentHash]int, len(b.index))
	for h, i := range b.index {
		index[h] = i
	}
	return &Snapshot{entries: entries, index: index}
}

// NewSnapshot builds a Snapshot from entries, applying Builder.Put
// semantics in order.
func NewSnapshot(entries ...Entry) *Snapshot {
	b := NewBuilder()
	for _, e := range entries {
		b.Put(e.Hash, e.Name)
	}
	return b.Snapshot()
}
