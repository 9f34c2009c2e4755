package matching

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrEmptyQuery rejects whitespace-only query input before any
	// collaborator is called.
	ErrEmptyQuery = errors.New("query text is empty")

	// ErrNoRoles rejects a role-based match request with an empty role list.
	ErrNoRoles = errors.New("at least one role is required")

	// ErrCollaborator marks failures of an external collaborator (embedder,
	// vector store). Matched via errors.Is through CollaboratorError.
	ErrCollaborator = errors.New("collaborator call failed")
)

// CollaboratorError wraps a collaborator failure with the operation that
// produced it. It never masquerades as an empty-but-successful result.
type CollaboratorError struct {
	Op  string
	Err error
}

func (e *CollaboratorError) Error() string {
	return fmt.Sprintf("collaborator %s: %v", e.Op, e.Err)
}

func (e *CollaboratorError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrCollaborator) match any CollaboratorError while
// the wrapped cause stays reachable through Unwrap.
func (e *CollaboratorError) Is(target error) bool {
	return target == ErrCollaborator
}

func wrapCollaborator(op string, err error) error {
	return &CollaboratorError{Op: op, Err: err}
}

// IsTimeout reports whether err stems from a collaborator deadline.
func IsTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}
