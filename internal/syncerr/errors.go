// Package syncerr defines the error kinds shared by the inventory reader
// and the action applier.
package syncerr

import (
	"errors"
	"fmt"
)

// NotFoundError reports a root path that does not exist or cannot be
// enumerated as a directory.
type NotFoundError struct {
	Path string
	Err  error
}

func (e *NotFoundError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: not found: %s", e.Path, e.Err)
	}
	return fmt.Sprintf("%s: not found", e.Path)
}

func (e *NotFoundError) Unwrap() error {
	return e.Err
}

// IOError reports a read or write failure while snapshotting or applying.
type IOError struct {
	Op   string // "read", "hash", "copy", "move", "delete", ...
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// ConflictError is returned by a strict backend when the destination does
// not look the way the plan assumed, e.g. a copy target already exists.
type ConflictError struct {
	Op     string
	Path   string
	Reason string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s %s: conflict: %s", e.Op, e.Path, e.Reason)
}

// IsNotFound reports whether err or anything it wraps is a *NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsConflict reports whether err or anything it wraps is a *ConflictError.
func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}
