// Package engine composes the inventory reader, the reconciler and the
// action applier into plan and sync runs over a pair of roots.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bianoble/dirsync/internal/apply"
	"github.com/bianoble/dirsync/internal/inventory"
	"github.com/bianoble/dirsync/internal/manifest"
	"github.com/bianoble/dirsync/internal/reconcile"
	"github.com/bianoble/dirsync/internal/syncerr"
)

// Engine reconciles Dest with Source.
type Engine struct {
	Source string
	Dest   string

	// Reader snapshots both roots. Nil means a default Reader.
	Reader *inventory.Reader

	// Backend overrides the OS backend for non-dry-run syncs. With a
	// Backend set, Sync leaves the filesystem alone: no destination
	// directory, lock file or manifest is created.
	Backend apply.Backend

	Logger *slog.Logger

	// Now stamps written manifests. Nil means time.Now.
	Now func() time.Time
}

// Plan snapshots both roots and computes the actions that would make Dest
// match Source. Nothing is modified.
func (e *Engine) Plan(ctx context.Context, opts PlanOptions) (*PlanResult, error) {
	return e.plan(ctx, uuid.NewString(), opts)
}

// Check reports whether Dest already matches Source.
func (e *Engine) Check(ctx context.Context) (*CheckResult, error) {
	plan, err := e.Plan(ctx, PlanOptions{})
	if err != nil {
		return nil, err
	}
	return &CheckResult{Clean: plan.InSync(), Plan: plan}, nil
}

// Snapshot reads root and returns its manifest.
func (e *Engine) Snapshot(ctx context.Context, root string) (*manifest.Manifest, error) {
	snap, err := e.reader().Read(ctx, root)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving root: %w", err)
	}
	return manifest.FromSnapshot(abs, snap, e.now()), nil
}

// plan does the work of Plan. A destination that does not exist yet reads
// as empty.
func (e *Engine) plan(ctx context.Context, runID string, opts PlanOptions) (*PlanResult, error) {
	src, dst, err := e.roots()
	if err != nil {
		return nil, err
	}
	logger := e.logger().With("run_id", runID)

	var source *inventory.Snapshot
	if opts.SourceManifest != "" {
		source, err = loadManifest(opts.SourceManifest)
	} else {
		source, err = e.reader().Read(ctx, src)
	}
	if err != nil {
		return nil, fmt.Errorf("source: %w", err)
	}

	dest, err := e.reader().Read(ctx, dst)
	if err != nil {
		if !syncerr.IsNotFound(err) || exists(dst) {
			return nil, fmt.Errorf("destination: %w", err)
		}
		logger.Info("destination does not exist yet", "dest", dst)
		dest = inventory.NewSnapshot()
	}

	actions := reconcile.Plan(source, dest)
	result := &PlanResult{
		RunID:      runID,
		Source:     source,
		Dest:       dest,
		Actions:    actions,
		Summary:    reconcile.Summarize(actions),
		Divergence: reconcile.Verify(source, dest, actions),
	}

	logger.Info("plan ready",
		"source_entries", source.Len(),
		"dest_entries", dest.Len(),
		"copies", result.Summary.Copies,
		"moves", result.Summary.Moves,
		"deletes", result.Summary.Deletes,
	)
	if !result.Divergence.Converges() {
		logger.Warn("plan does not converge",
			"missing", result.Divergence.Missing,
			"extra", result.Divergence.Extra,
		)
	}
	return result, nil
}

func loadManifest(path string) (*inventory.Snapshot, error) {
	m, err := manifest.Load(path)
	if err != nil {
		return nil, err
	}
	return m.Snapshot()
}

// roots returns the absolute source and destination roots. Empty,
// identical and nested roots are rejected: a nested destination would
// show up in the source snapshot and the other way around.
func (e *Engine) roots() (string, string, error) {
	if e.Source == "" || e.Dest == "" {
		return "", "", &RootError{Source: e.Source, Dest: e.Dest, Reason: "both a source and a destination root are required"}
	}
	src, err := filepath.Abs(e.Source)
	if err != nil {
		return "", "", fmt.Errorf("resolving source root: %w", err)
	}
	dst, err := filepath.Abs(e.Dest)
	if err != nil {
		return "", "", fmt.Errorf("resolving destination root: %w", err)
	}
	if src == dst {
		return "", "", &RootError{Source: e.Source, Dest: e.Dest, Reason: "source and destination are the same directory"}
	}
	if within(src, dst) || within(dst, src) {
		return "", "", &RootError{Source: e.Source, Dest: e.Dest, Reason: "one root is nested inside the other"}
	}
	return src, dst, nil
}

func within(parent, child string) bool {
	rel, err := filepath.Rel(parent, child)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return !errors.Is(err, os.ErrNotExist)
}

func (e *Engine) reader() *inventory.Reader {
	if e.Reader != nil {
		return e.Reader
	}
	return &inventory.Reader{Logger: e.logger()}
}

func (e *Engine) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.Default()
}

func (e *Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}
