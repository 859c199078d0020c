package action

import (
	"fmt"

	"github.com/ankittk/tasktalk/internal/intent"
	"github.com/ankittk/tasktalk/internal/resolve"
)

// EntityNotFoundError reports that the referenced task does not exist for the user.
// Exactly one of ID or Title is set: the reference as the user gave it.
type EntityNotFoundError struct {
	Kind  intent.Kind
	ID    string
	Title string
}

func (e *EntityNotFoundError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s: task with ID %s not found", e.Kind, e.ID)
	}
	return fmt.Sprintf("%s: task with title similar to %q not found", e.Kind, e.Title)
}

// AmbiguousEntityError reports several equally plausible tasks for a title fragment.
type AmbiguousEntityError struct {
	Kind       intent.Kind
	Query      string
	Candidates []resolve.Candidate
}

func (e *AmbiguousEntityError) Error() string {
	return fmt.Sprintf("%s: %d tasks match %q", e.Kind, len(e.Candidates), e.Query)
}

// StorageError wraps a persistence failure. The transaction has been rolled back.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string { return fmt.Sprintf("storage: %s: %v", e.Op, e.Err) }
func (e *StorageError) Unwrap() error { return e.Err }

// InvalidReason says what a request was missing.
type InvalidReason int

const (
	MissingTaskRef InvalidReason = iota + 1
	MissingTitle
	NothingToChange
)

// InvalidRequestError reports parameters that cannot drive the intent.
type InvalidRequestError struct {
	Kind   intent.Kind
	Reason InvalidReason
	// Title is the resolved task for NothingToChange.
	Title string
}

func (e *InvalidRequestError) Error() string {
	switch e.Reason {
	case MissingTaskRef:
		return fmt.Sprintf("%s: task ID or title is required", e.Kind)
	case MissingTitle:
		return fmt.Sprintf("%s: title is required", e.Kind)
	case NothingToChange:
		return fmt.Sprintf("%s: no fields to change on %q", e.Kind, e.Title)
	}
	return fmt.Sprintf("%s: invalid request", e.Kind)
}
