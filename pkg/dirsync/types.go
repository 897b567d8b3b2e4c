package dirsync

import (
	"github.com/bianoble/dirsync/internal/apply"
	"github.com/bianoble/dirsync/internal/engine"
	"github.com/bianoble/dirsync/internal/reconcile"
)

// Type aliases re-export internal types as the public API.
// Users import "github.com/bianoble/dirsync/pkg/dirsync" and use
// dirsync.Action, dirsync.SyncResult, etc.

type Action = reconcile.Action
type Kind = reconcile.Kind
type Summary = reconcile.Summary
type Divergence = reconcile.Divergence

type Backend = apply.Backend
type RecordingBackend = apply.RecordingBackend
type Call = apply.Call
type Policy = apply.Policy
type ActionError = apply.ActionError
type ApplyError = apply.ApplyError

type PlanResult = engine.PlanResult
type SyncResult = engine.SyncResult
type CheckResult = engine.CheckResult
type RootError = engine.RootError

const (
	KindCopy   = reconcile.KindCopy
	KindMove   = reconcile.KindMove
	KindDelete = reconcile.KindDelete

	FailFast        = apply.FailFast
	ContinueOnError = apply.ContinueOnError
)

// ErrDestLocked is returned by Sync when another process holds the
// destination lock.
var ErrDestLocked = engine.ErrDestLocked
