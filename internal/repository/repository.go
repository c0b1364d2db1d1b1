package repository

import (
	"context"

	"fitcoach/internal/domain"
)

// Error constants for repository layer
var (
	ErrRemoteUnavailable = RepositoryError("remote store unavailable")
	ErrInvalidDocumentID = RepositoryError("document id is required")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// SnapshotHandler receives the full remote collection on every change.
type SnapshotHandler func(students []domain.Student)

// ErrorHandler receives subscription errors. The subscription may keep
// running after an error is reported.
type ErrorHandler func(err error)

// Subscription is the handle of an attached listener.
type Subscription interface {
	// Unsubscribe detaches the listener and waits until no more handler
	// calls can happen.
	Unsubscribe()
}

// StudentRemote is the remote document collection mirroring the students.
// Documents are keyed by student id.
type StudentRemote interface {
	// MergeWrite sets only the given fields on the document, creating it if
	// needed. Other fields are left untouched.
	MergeWrite(ctx context.Context, id string, fields map[string]any) error
	Subscribe(ctx context.Context, onSnapshot SnapshotHandler, onError ErrorHandler) (Subscription, error)
}
