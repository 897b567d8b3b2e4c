package engine

import (
	"errors"
	"time"

	"github.com/bianoble/dirsync/internal/apply"
	"github.com/bianoble/dirsync/internal/inventory"
	"github.com/bianoble/dirsync/internal/reconcile"
)

// ErrDestLocked is returned when another dirsync process holds the
// destination lock.
var ErrDestLocked = errors.New("destination is locked by another dirsync process")

// RootError reports a source or destination root the engine refuses to
// work with.
type RootError struct {
	Source string
	Dest   string
	Reason string
}

func (e *RootError) Error() string {
	return "roots " + e.Source + " and " + e.Dest + ": " + e.Reason
}

// PlanOptions configures a plan.
type PlanOptions struct {
	// SourceManifest, when set, is loaded in place of reading the source
	// tree.
	SourceManifest string
}

// SyncOptions configures a sync.
type SyncOptions struct {
	DryRun bool
	Policy apply.Policy

	// Strict makes the OS backend report unexpected destination state as
	// a conflict instead of working around it.
	Strict bool

	// TrashDir, when set, keeps every deleted or overwritten destination
	// file in a trash store at that directory. Only the OS backend is
	// wrapped; an injected Backend is used as is.
	TrashDir string

	// Manifest, when set, receives the source snapshot after a successful
	// sync to the real destination.
	Manifest string

	// NoLock skips the destination lock.
	NoLock bool
}

// PlanResult holds the two snapshots and the actions that reconcile them.
type PlanResult struct {
	RunID      string
	Source     *inventory.Snapshot
	Dest       *inventory.Snapshot
	Actions    []reconcile.Action
	Summary    reconcile.Summary
	Divergence reconcile.Divergence
}

// InSync reports whether the destination already matches the source.
func (p *PlanResult) InSync() bool {
	return len(p.Actions) == 0
}

// SyncResult holds the outcome of a sync.
type SyncResult struct {
	Plan     *PlanResult
	Applied  []reconcile.Action
	Failed   []apply.ActionError
	DryRun   bool
	Calls    []apply.Call // backend calls a dry run would have made
	Manifest string       // path written, if any
	Duration time.Duration
}

// CheckResult holds the outcome of a check.
type CheckResult struct {
	Clean bool
	Plan  *PlanResult
}
