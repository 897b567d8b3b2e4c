package reconcile

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bianoble/dirsync/internal/inventory"
)

func h(s string) inventory.ContentHash {
	return inventory.HashOf([]byte(s))
}

func snap(pairs ...string) *inventory.Snapshot {
	b := inventory.NewBuilder()
	for i := 0; i+1 < len(pairs); i += 2 {
		b.Put(h(pairs[i]), pairs[i+1])
	}
	return b.Snapshot()
}

func TestPlanScenarios(t *testing.T) {
	tests := []struct {
		name   string
		source *inventory.Snapshot
		dest   *inventory.Snapshot
		want   []Action
	}{
		{
			name:   "new file is copied",
			source: snap("h1", "fn1"),
			dest:   snap(),
			want:   []Action{Copy("fn1", "fn1")},
		},
		{
			name:   "renamed file is moved",
			source: snap("h1", "fn1"),
			dest:   snap("h1", "fn2"),
			want:   []Action{Move("fn2", "fn1")},
		},
		{
			name:   "removed file is deleted",
			source: snap(),
			dest:   snap("h1", "fn1"),
			want:   []Action{Delete("fn1")},
		},
		{
			name:   "identical trees need nothing",
			source: snap("h1", "fn1"),
			dest:   snap("h1", "fn1"),
			want:   nil,
		},
		{
			name:   "existing match is left alone",
			source: snap("h1", "a", "h2", "b"),
			dest:   snap("h2", "b"),
			want:   []Action{Copy("a", "a")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Plan(tt.source, tt.dest)
			if len(tt.want) == 0 {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPlanOrdersCopiesAndMovesBeforeDeletes(t *testing.T) {
	source := snap("new", "new.txt", "moved", "b.txt", "new2", "c.txt")
	dest := snap("gone", "old.txt", "moved", "a.txt", "gone2", "older.txt")

	got := Plan(source, dest)

	assert.Equal(t, []Action{
		Copy("new.txt", "new.txt"),
		Move("a.txt", "b.txt"),
		Copy("c.txt", "c.txt"),
		Delete("old.txt"),
		Delete("older.txt"),
	}, got)
}

func TestPlanFollowsInsertionOrderNotNameOrder(t *testing.T) {
	source := snap("z", "z.txt", "a", "a.txt", "m", "m.txt")

	got := Plan(source, snap())

	assert.Equal(t, []Action{
		Copy("z.txt", "z.txt"),
		Copy("a.txt", "a.txt"),
		Copy("m.txt", "m.txt"),
	}, got)
}

func TestActionsStopsWhenConsumerStops(t *testing.T) {
	source := snap("1", "a", "2", "b", "3", "c")

	var got []Action
	for a := range Actions(source, snap("4", "d")) {
		got = append(got, a)
		if len(got) == 2 {
			break
		}
	}

	assert.Equal(t, []Action{Copy("a", "a"), Copy("b", "b")}, got)
}

func TestModifiedFileCopiesThenDeletesSameName(t *testing.T) {
	// Same name, new content: the copy overwrites the name and the delete of
	// the stale content then removes it again. Kept as-is; Verify flags it.
	source := snap("v2", "notes.txt")
	dest := snap("v1", "notes.txt")

	got := Plan(source, dest)
	assert.Equal(t, []Action{Copy("notes.txt", "notes.txt"), Delete("notes.txt")}, got)

	d := Verify(source, dest, got)
	assert.False(t, d.Converges())
	assert.Equal(t, []string{"notes.txt"}, d.Missing)
	assert.Empty(t, d.Extra)
}

func TestMoveOntoNameThatIsDeleted(t *testing.T) {
	// "b" is renamed onto "a", whose old content is not in the source and is
	// deleted afterwards, removing the freshly moved file.
	source := snap("keep", "a")
	dest := snap("stale", "a", "keep", "b")

	got := Plan(source, dest)
	assert.Equal(t, []Action{Move("b", "a"), Delete("a")}, got)

	d := Verify(source, dest, got)
	assert.Equal(t, []string{"a"}, d.Missing)
}

func TestSwappedNamesCollide(t *testing.T) {
	// Two renames whose targets are each other's sources: the first move
	// overwrites "a" before the second one reads it.
	source := snap("x", "a", "y", "b")
	dest := snap("x", "b", "y", "a")

	got := Plan(source, dest)
	assert.Equal(t, []Action{Move("b", "a"), Move("a", "b")}, got)

	d := Verify(source, dest, got)
	assert.Equal(t, []string{"a"}, d.Missing)
	assert.Empty(t, d.Extra)
}

func TestSummarize(t *testing.T) {
	s := Summarize([]Action{Copy("a", "a"), Move("b", "c"), Delete("d"), Delete("e")})
	assert.Equal(t, Summary{Copies: 1, Moves: 1, Deletes: 2}, s)
	assert.Equal(t, 4, s.Total())
}

func TestActionString(t *testing.T) {
	assert.Equal(t, "copy a -> b", Copy("a", "b").String())
	assert.Equal(t, "move a -> b", Move("a", "b").String())
	assert.Equal(t, "delete a", Delete("a").String())
}

// randomPair builds a source/dest pair whose names never collide across
// different contents, the precondition under which a plan converges.
type randomPair struct {
	source, dest *inventory.Snapshot
	shared       map[inventory.ContentHash]bool
	sourceOnly   map[inventory.ContentHash]string
	destOnly     map[inventory.ContentHash]string
	renamed      map[inventory.ContentHash][2]string
}

func newRandomPair(r *rand.Rand) randomPair {
	p := randomPair{
		shared:     make(map[inventory.ContentHash]bool),
		sourceOnly: make(map[inventory.ContentHash]string),
		destOnly:   make(map[inventory.ContentHash]string),
		renamed:    make(map[inventory.ContentHash][2]string),
	}
	src := inventory.NewBuilder()
	dst := inventory.NewBuilder()

	for i := range r.Intn(8) {
		hash := h(fmt.Sprintf("shared-%d-%d", i, r.Int()))
		name := fmt.Sprintf("f%d", i)
		src.Put(hash, name)
		if r.Intn(2) == 0 {
			dst.Put(hash, name)
			p.shared[hash] = true
		} else {
			old := fmt.Sprintf("old/f%d", i)
			dst.Put(hash, old)
			p.renamed[hash] = [2]string{old, name}
		}
	}
	for i := range r.Intn(8) {
		hash := h(fmt.Sprintf("new-%d-%d", i, r.Int()))
		name := fmt.Sprintf("new/%d", i)
		src.Put(hash, name)
		p.sourceOnly[hash] = name
	}
	for i := range r.Intn(8) {
		hash := h(fmt.Sprintf("gone-%d-%d", i, r.Int()))
		name := fmt.Sprintf("gone/%d", i)
		dst.Put(hash, name)
		p.destOnly[hash] = name
	}

	p.source = src.Snapshot()
	p.dest = dst.Snapshot()
	return p
}

func count(actions []Action, want Action) int {
	n := 0
	for _, a := range actions {
		if a == want {
			n++
		}
	}
	return n
}

func TestPlanProperties(t *testing.T) {
	r := rand.New(rand.NewSource(42))

	for i := range 200 {
		p := newRandomPair(r)
		actions := Plan(p.source, p.dest)

		// No-op idempotence.
		require.Empty(t, Plan(p.source, p.source), "iteration %d", i)
		require.Empty(t, Plan(p.dest, p.dest), "iteration %d", i)

		// Copy completeness.
		for _, name := range p.sourceOnly {
			require.Equal(t, 1, count(actions, Copy(name, name)), "iteration %d: copy %s", i, name)
		}

		// Rename over copy.
		for _, names := range p.renamed {
			require.Equal(t, 1, count(actions, Move(names[0], names[1])), "iteration %d", i)
			require.Zero(t, count(actions, Copy(names[1], names[1])), "iteration %d", i)
		}

		// Deletion completeness.
		for _, name := range p.destOnly {
			require.Equal(t, 1, count(actions, Delete(name)), "iteration %d: delete %s", i, name)
		}

		// Nothing else is touched.
		require.Equal(t, len(p.sourceOnly)+len(p.renamed)+len(p.destOnly), len(actions), "iteration %d", i)

		// Ordering.
		seenDelete := false
		for _, a := range actions {
			if a.Kind == KindDelete {
				seenDelete = true
				continue
			}
			require.False(t, seenDelete, "iteration %d: %s after a delete", i, a)
		}

		// Convergence.
		d := Verify(p.source, p.dest, actions)
		require.True(t, d.Converges(), "iteration %d: %+v", i, d)
	}
}
