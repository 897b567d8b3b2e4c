// Package apply executes reconciliation plans against a storage backend.
package apply

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/bianoble/dirsync/internal/reconcile"
)

// Policy selects what the Applier does when an action fails.
type Policy int

const (
	// FailFast stops at the first failed action. Later actions may depend
	// on the state earlier ones leave behind, so this is the default.
	FailFast Policy = iota

	// ContinueOnError keeps going and reports every failure at the end.
	ContinueOnError
)

// ParsePolicy maps the configuration spelling of a policy to a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "", "fail-fast":
		return FailFast, nil
	case "continue":
		return ContinueOnError, nil
	default:
		return FailFast, fmt.Errorf("unknown failure policy '%s' — must be one of: fail-fast, continue", s)
	}
}

func (p Policy) String() string {
	if p == ContinueOnError {
		return "continue"
	}
	return "fail-fast"
}

// ActionError records the failure of a single action.
type ActionError struct {
	Action reconcile.Action
	Err    error
}

func (e ActionError) Error() string {
	return e.Action.String() + ": " + e.Err.Error()
}

func (e ActionError) Unwrap() error {
	return e.Err
}

// ApplyError aggregates the failures collected under ContinueOnError.
type ApplyError struct {
	Failures []ActionError
}

func (e *ApplyError) Error() string {
	msgs := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		msgs = append(msgs, f.Error())
	}
	return fmt.Sprintf("%d action(s) failed:\n  - %s", len(e.Failures), strings.Join(msgs, "\n  - "))
}

func (e *ApplyError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures))
	for _, f := range e.Failures {
		errs = append(errs, f)
	}
	return errs
}

// Result holds the outcome of applying a plan.
type Result struct {
	Applied []reconcile.Action
	Failed  []ActionError
}

// Applier runs actions one at a time, in the order given.
type Applier struct {
	Backend Backend
	Policy  Policy
	Logger  *slog.Logger
}

// Apply executes actions against the backend. Copies read from sourceRoot
// and write to destRoot; moves and deletes only touch destRoot.
//
// Actions are never reordered, batched or run concurrently. The context is
// checked between actions; cancellation stops the run with ctx.Err().
func (a *Applier) Apply(ctx context.Context, actions iter.Seq[reconcile.Action], sourceRoot, destRoot string) (*Result, error) {
	result := &Result{}
	logger := a.logger()

	for action := range actions {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		if err := a.apply(action, sourceRoot, destRoot); err != nil {
			failure := ActionError{Action: action, Err: err}
			result.Failed = append(result.Failed, failure)
			logger.Error("action failed", "op", action.Kind, "path", action.Dst, "error", err)

			if a.Policy == FailFast {
				return result, failure
			}
			continue
		}

		result.Applied = append(result.Applied, action)
		logger.Debug("action applied", "op", action.Kind, "src", action.Src, "dst", action.Dst)
	}

	if len(result.Failed) > 0 {
		return result, &ApplyError{Failures: result.Failed}
	}
	return result, nil
}

func (a *Applier) apply(action reconcile.Action, sourceRoot, destRoot string) error {
	switch action.Kind {
	case reconcile.KindCopy:
		src, err := resolve(sourceRoot, action.Src)
		if err != nil {
			return err
		}
		dst, err := resolve(destRoot, action.Dst)
		if err != nil {
			return err
		}
		return a.Backend.Copy(src, dst)

	case reconcile.KindMove:
		oldPath, err := resolve(destRoot, action.Src)
		if err != nil {
			return err
		}
		newPath, err := resolve(destRoot, action.Dst)
		if err != nil {
			return err
		}
		return a.Backend.Move(oldPath, newPath)

	case reconcile.KindDelete:
		path, err := resolve(destRoot, action.Dst)
		if err != nil {
			return err
		}
		return a.Backend.Delete(path)

	default:
		return fmt.Errorf("unknown action kind '%s'", action.Kind)
	}
}

// resolve joins a slash separated relative name onto root. Names that are
// absolute or climb out of the root are rejected.
func resolve(root, name string) (string, error) {
	local := filepath.FromSlash(name)
	if !filepath.IsLocal(local) {
		return "", fmt.Errorf("path '%s' is not local to the root", name)
	}
	return filepath.Join(root, local), nil
}

func (a *Applier) logger() *slog.Logger {
	if a.Logger != nil {
		return a.Logger
	}
	return slog.Default()
}
