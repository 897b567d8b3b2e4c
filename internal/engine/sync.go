package engine

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"github.com/bianoble/dirsync/internal/apply"
	"github.com/bianoble/dirsync/internal/inventory"
	"github.com/bianoble/dirsync/internal/manifest"
	"github.com/bianoble/dirsync/internal/syncerr"
	"github.com/bianoble/dirsync/internal/trash"
)

// Sync makes Dest match Source. A dry run computes the plan and records
// the backend calls it would make without touching the destination.
//
// Outside a dry run, and when no Backend is injected, the destination is
// created if missing and locked for the duration of the run, and the
// manifest is written on success. An injected backend owns all storage:
// the engine then only reads the trees. When the applier fails the
// returned result still describes what was applied.
func (e *Engine) Sync(ctx context.Context, opts SyncOptions) (*SyncResult, error) {
	start := time.Now()
	runID := uuid.NewString()
	logger := e.logger().With("run_id", runID)

	src, dst, err := e.roots()
	if err != nil {
		return nil, err
	}
	if opts.TrashDir != "" {
		if trashDir, err := filepath.Abs(opts.TrashDir); err == nil && (within(src, trashDir) || within(dst, trashDir)) {
			return nil, &RootError{Source: src, Dest: dst, Reason: "trash directory " + opts.TrashDir + " is inside a root"}
		}
	}

	local := !opts.DryRun && e.Backend == nil
	if local {
		if err := os.MkdirAll(dst, 0755); err != nil {
			return nil, &syncerr.IOError{Op: "mkdir", Path: dst, Err: err}
		}
		if !opts.NoLock {
			unlock, err := lockDest(dst)
			if err != nil {
				return nil, err
			}
			defer unlock()
		}
	}

	plan, err := e.plan(ctx, runID, PlanOptions{})
	if err != nil {
		return nil, err
	}

	result := &SyncResult{Plan: plan, DryRun: opts.DryRun}

	backend, recorder, err := e.backend(dst, opts, logger)
	if err != nil {
		return nil, err
	}
	applier := &apply.Applier{Backend: backend, Policy: opts.Policy, Logger: logger}

	applied, applyErr := applier.Apply(ctx, slices.Values(plan.Actions), src, dst)
	result.Applied = applied.Applied
	result.Failed = applied.Failed
	if recorder != nil {
		result.Calls = recorder.Calls
	}
	result.Duration = time.Since(start)

	if applyErr != nil {
		logger.Error("sync failed",
			"applied", len(result.Applied),
			"failed", len(result.Failed),
			"error", applyErr,
		)
		return result, fmt.Errorf("applying plan: %w", applyErr)
	}

	if opts.Manifest != "" && local {
		if err := manifest.Save(opts.Manifest, manifest.FromSnapshot(src, plan.Source, e.now())); err != nil {
			return result, err
		}
		result.Manifest = opts.Manifest
	}

	logger.Info("sync complete",
		"dry_run", opts.DryRun,
		"applied", len(result.Applied),
		"duration", result.Duration.Round(time.Millisecond),
	)
	return result, nil
}

// backend picks the backend for a run. The recording backend is returned
// separately for dry runs so its calls can be reported.
func (e *Engine) backend(dst string, opts SyncOptions, logger *slog.Logger) (apply.Backend, *apply.RecordingBackend, error) {
	if opts.DryRun {
		rec := &apply.RecordingBackend{}
		return rec, rec, nil
	}

	if e.Backend != nil {
		return e.Backend, nil, nil
	}

	var backend apply.Backend = apply.NewOSBackend(dst, opts.Strict, logger)
	if opts.TrashDir != "" {
		store, err := trash.New(opts.TrashDir)
		if err != nil {
			return nil, nil, err
		}
		backend = &apply.TrashBackend{Backend: backend, Store: store, Logger: logger}
	}
	return backend, nil, nil
}

// lockDest takes the advisory lock in dst without blocking.
func lockDest(dst string) (func(), error) {
	fl := flock.New(filepath.Join(dst, inventory.LockFileName))
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("locking destination: %w", err)
	}
	if !ok {
		return nil, ErrDestLocked
	}
	return func() {
		_ = fl.Unlock()
	}, nil
}
