// Package dirsync provides the public Go library API for dirsync.
//
// dirsync makes a destination directory tree match a source tree. Files
// are identified by content hash, so renamed files are moved in place
// instead of copied again.
//
// # Basic Usage
//
//	client, err := dirsync.New(dirsync.Options{
//	    Source: "/path/to/source",
//	    Dest:   "/path/to/mirror",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Preview the actions
//	plan, err := client.Plan(ctx)
//
//	// Apply them
//	result, err := client.Sync(ctx)
package dirsync

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bianoble/dirsync/internal/apply"
	"github.com/bianoble/dirsync/internal/config"
	"github.com/bianoble/dirsync/internal/engine"
	"github.com/bianoble/dirsync/internal/inventory"
)

// Planner computes the actions that would reconcile two trees.
type Planner interface {
	Plan(ctx context.Context) (*PlanResult, error)
}

// Syncer applies those actions.
type Syncer interface {
	Sync(ctx context.Context) (*SyncResult, error)
}

// Checker reports whether the destination already matches the source.
type Checker interface {
	Check(ctx context.Context) (*CheckResult, error)
}

// Options configures a dirsync client.
type Options struct {
	Source string
	Dest   string

	// Include restricts both trees to files matching a doublestar glob.
	// Exclude lines use gitignore syntax.
	Include []string
	Exclude []string

	// BlockSize is the hashing read size. Zero means 64 KiB.
	BlockSize int

	Policy   Policy
	Strict   bool
	DryRun   bool
	TrashDir string
	Manifest string
	NoLock   bool

	// Backend replaces the filesystem backend for non-dry-run syncs.
	Backend Backend

	Logger *slog.Logger
}

// Client is the main entry point for the dirsync library.
// It implements Planner, Syncer and Checker.
type Client struct {
	engine *engine.Engine
	opts   Options
}

// New creates a Client.
func New(opts Options) (*Client, error) {
	filter, err := inventory.NewFilter(opts.Exclude, opts.Include)
	if err != nil {
		return nil, fmt.Errorf("building filter: %w", err)
	}

	return &Client{
		engine: &engine.Engine{
			Source:  opts.Source,
			Dest:    opts.Dest,
			Reader:  &inventory.Reader{BlockSize: opts.BlockSize, Filter: filter, Logger: opts.Logger},
			Backend: opts.Backend,
			Logger:  opts.Logger,
		},
		opts: opts,
	}, nil
}

// LoadOptions reads a dirsync.yaml file into Options.
func LoadOptions(path string) (Options, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return Options{}, err
	}
	policy, err := apply.ParsePolicy(cfg.OnError)
	if err != nil {
		return Options{}, err
	}
	return Options{
		Source:    cfg.Source,
		Dest:      cfg.Dest,
		Include:   cfg.Include,
		Exclude:   cfg.Exclude,
		BlockSize: cfg.BlockSize,
		Policy:    policy,
		Strict:    cfg.StrictMode(),
		TrashDir:  cfg.TrashDir,
		Manifest:  cfg.Manifest,
		NoLock:    !cfg.LockEnabled(),
	}, nil
}

// Plan snapshots both trees and returns the actions that reconcile them.
func (c *Client) Plan(ctx context.Context) (*PlanResult, error) {
	return c.engine.Plan(ctx, engine.PlanOptions{})
}

// Sync makes the destination match the source.
func (c *Client) Sync(ctx context.Context) (*SyncResult, error) {
	return c.engine.Sync(ctx, engine.SyncOptions{
		DryRun:   c.opts.DryRun,
		Policy:   c.opts.Policy,
		Strict:   c.opts.Strict,
		TrashDir: c.opts.TrashDir,
		Manifest: c.opts.Manifest,
		NoLock:   c.opts.NoLock,
	})
}

// Check reports whether the destination already matches the source.
func (c *Client) Check(ctx context.Context) (*CheckResult, error) {
	return c.engine.Check(ctx)
}

var (
	_ Planner = (*Client)(nil)
	_ Syncer  = (*Client)(nil)
	_ Checker = (*Client)(nil)
)
