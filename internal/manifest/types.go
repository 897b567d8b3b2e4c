// Package manifest reads and writes snapshot manifests: YAML records of a
// tree's content hashes in snapshot order.
package manifest

import (
	"fmt"
	"time"

	"github.com/bianoble/dirsync/internal/inventory"
)

// Version is the only manifest format version understood.
const Version = 1

// Manifest is the on-disk form of a Snapshot.
type Manifest struct {
	Version   int       `yaml:"version"`
	Root      string    `yaml:"root,omitempty"`
	CreatedAt time.Time `yaml:"created_at"`
	Entries   []Entry   `yaml:"entries"`
}

// Entry records one distinct content and the name that holds it.
type Entry struct {
	Hash string `yaml:"hash"`
	Name string `yaml:"name"`
}

// FromSnapshot records snap, taken from root at the given time.
func FromSnapshot(root string, snap *inventory.Snapshot, at time.Time) *Manifest {
	m := &Manifest{
		Version:   Version,
		Root:      root,
		CreatedAt: at.UTC(),
		Entries:   make([]Entry, 0, snap.Len()),
	}
	for hash, name := range snap.All() {
		m.Entries = append(m.Entries, Entry{Hash: hash.String(), Name: name})
	}
	return m
}

// Snapshot rebuilds the snapshot the manifest records, in entry order.
func (m *Manifest) Snapshot() (*inventory.Snapshot, error) {
	b := inventory.NewBuilder()
	for i, e := range m.Entries {
		hash, err := inventory.ParseHash(e.Hash)
		if err != nil {
			return nil, fmt.Errorf("entry[%d]: %w", i, err)
		}
		b.Put(hash, e.Name)
	}
	return b.Snapshot(), nil
}
