package apply

import (
	"context"
	"errors"
	"path/filepath"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bianoble/dirsync/internal/reconcile"
)

// failingBackend records calls like RecordingBackend but fails any call
// whose destination is in failOn.
type failingBackend struct {
	RecordingBackend
	failOn map[string]bool
}

var errInjected = errors.New("injected failure")

func (f *failingBackend) Copy(src, dst string) error {
	_ = f.RecordingBackend.Copy(src, dst)
	if f.failOn[dst] {
		return errInjected
	}
	return nil
}

func (f *failingBackend) Move(oldPath, newPath string) error {
	_ = f.RecordingBackend.Move(oldPath, newPath)
	if f.failOn[newPath] {
		return errInjected
	}
	return nil
}

func (f *failingBackend) Delete(path string) error {
	_ = f.RecordingBackend.Delete(path)
	if f.failOn[path] {
		return errInjected
	}
	return nil
}

func TestApplyMapsNamesOntoRoots(t *testing.T) {
	src := filepath.Join("/", "src")
	dst := filepath.Join("/", "dst")
	rec := &RecordingBackend{}
	a := &Applier{Backend: rec}

	actions := []reconcile.Action{
		reconcile.Copy("docs/a.txt", "docs/a.txt"),
		reconcile.Move("old.txt", "new.txt"),
		reconcile.Delete("gone.txt"),
	}
	result, err := a.Apply(context.Background(), slices.Values(actions), src, dst)
	require.NoError(t, err)

	assert.Equal(t, actions, result.Applied)
	assert.Empty(t, result.Failed)
	assert.Equal(t, []Call{
		{Op: reconcile.KindCopy, Src: filepath.Join(src, "docs", "a.txt"), Dst: filepath.Join(dst, "docs", "a.txt")},
		{Op: reconcile.KindMove, Src: filepath.Join(dst, "old.txt"), Dst: filepath.Join(dst, "new.txt")},
		{Op: reconcile.KindDelete, Dst: filepath.Join(dst, "gone.txt")},
	}, rec.Calls)
}

func TestApplyFailFastStopsAtFirstFailure(t *testing.T) {
	dst := t.TempDir()
	fb := &failingBackend{failOn: map[string]bool{filepath.Join(dst, "b"): true}}
	a := &Applier{Backend: fb}

	actions := []reconcile.Action{
		reconcile.Copy("a", "a"),
		reconcile.Copy("b", "b"),
		reconcile.Delete("c"),
	}
	result, err := a.Apply(context.Background(), slices.Values(actions), t.TempDir(), dst)
	require.Error(t, err)
	assert.ErrorIs(t, err, errInjected)

	var ae ActionError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, reconcile.Copy("b", "b"), ae.Action)

	assert.Equal(t, []reconcile.Action{reconcile.Copy("a", "a")}, result.Applied)
	assert.Len(t, result.Failed, 1)
	assert.Len(t, fb.Calls, 2, "nothing after the failure may run")
}

func TestApplyContinueOnErrorRunsEverything(t *testing.T) {
	dst := t.TempDir()
	fb := &failingBackend{failOn: map[string]bool{
		filepath.Join(dst, "a"): true,
		filepath.Join(dst, "c"): true,
	}}
	a := &Applier{Backend: fb, Policy: ContinueOnError}

	actions := []reconcile.Action{
		reconcile.Copy("a", "a"),
		reconcile.Move("x", "b"),
		reconcile.Delete("c"),
	}
	result, err := a.Apply(context.Background(), slices.Values(actions), t.TempDir(), dst)
	require.Error(t, err)

	var applyErr *ApplyError
	require.ErrorAs(t, err, &applyErr)
	assert.Len(t, applyErr.Failures, 2)
	assert.ErrorIs(t, err, errInjected)
	assert.Contains(t, err.Error(), "2 action(s) failed")

	assert.Equal(t, []reconcile.Action{reconcile.Move("x", "b")}, result.Applied)
	assert.Len(t, fb.Calls, 3)
}

func TestApplyStopsOnCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	rec := &RecordingBackend{}
	a := &Applier{Backend: rec}

	seq := func(yield func(reconcile.Action) bool) {
		if !yield(reconcile.Copy("a", "a")) {
			return
		}
		cancel()
		yield(reconcile.Copy("b", "b"))
	}

	result, err := a.Apply(ctx, seq, "/src", "/dst")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, result.Applied, 1)
	assert.Len(t, rec.Calls, 1)
}

func TestApplyRejectsNonLocalNames(t *testing.T) {
	for _, name := range []string{"../escape", "/etc/passwd", ""} {
		t.Run(name, func(t *testing.T) {
			rec := &RecordingBackend{}
			a := &Applier{Backend: rec}

			_, err := a.Apply(context.Background(), slices.Values([]reconcile.Action{reconcile.Delete(name)}), "/src", "/dst")
			require.Error(t, err)
			assert.Contains(t, err.Error(), "not local")
			assert.Empty(t, rec.Calls)
		})
	}
}

func TestApplyUnknownKind(t *testing.T) {
	a := &Applier{Backend: &RecordingBackend{}}
	bad := reconcile.Action{Kind: "chmod", Dst: "x"}

	_, err := a.Apply(context.Background(), slices.Values([]reconcile.Action{bad}), "/src", "/dst")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown action kind")
}

func TestParsePolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    Policy
		wantErr bool
	}{
		{"", FailFast, false},
		{"fail-fast", FailFast, false},
		{"continue", ContinueOnError, false},
		{"retry", FailFast, true},
	}
	for _, tt := range tests {
		got, err := ParsePolicy(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
		assert.NotEmpty(t, got.String())
	}
}
