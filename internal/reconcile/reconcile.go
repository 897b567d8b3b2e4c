// Package reconcile computes the actions that turn one snapshot into
// another. It performs no I/O.
package reconcile

import (
	"iter"
	"slices"

	"github.com/bianoble/dirsync/internal/inventory"
)

// Actions yields the steps that make dest match source.
//
// Every copy and move, in source order, is yielded before any delete, in
// dest order. Content present in dest under another name is moved rather
// than copied again; content already at the right name is left alone.
// Applying the actions out of order is not safe: a later delete may target
// a name an earlier copy or move just wrote.
func Actions(source, dest *inventory.Snapshot) iter.Seq[Action] {
	return func(yield func(Action) bool) {
		for hash, name := range source.All() {
			destName, ok := dest.Lookup(hash)
			switch {
			case !ok:
				if !yield(Copy(name, name)) {
					return
				}
			case destName != name:
				if !yield(Move(destName, name)) {
					return
				}
			}
		}

		for hash, name := range dest.All() {
			if source.Has(hash) {
				continue
			}
			if !yield(Delete(name)) {
				return
			}
		}
	}
}

// Plan returns the Actions for source and dest as a slice.
func Plan(source, dest *inventory.Snapshot) []Action {
	return slices.Collect(Actions(source, dest))
}
