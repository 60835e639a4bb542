// Package service defines the task data model and the backend contracts.
package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Service defines the task operations offered by the remote backend.
// Each call is a single exchange: no retries, no caching, no de-duplication.
// Every failure is returned as a *RemoteError.
type Service interface {
	// ListAll returns every task visible to the session.
	ListAll(ctx context.Context) ([]Task, error)

	// ListByStatus returns tasks with the given status.
	ListByStatus(ctx context.Context, status Status) ([]Task, error)

	// ListByPriority returns tasks with the given priority.
	ListByPriority(ctx context.Context, priority Priority) ([]Task, error)

	// Search returns tasks whose title contains text.
	Search(ctx context.Context, text string) ([]Task, error)

	// Get returns one task by ID.
	Get(ctx context.Context, id TaskID) (Task, error)

	// Create stores a new task and returns it with server-assigned fields.
	Create(ctx context.Context, d Draft) (Task, error)

	// Update replaces the editable fields of a task.
	Update(ctx context.Context, id TaskID, d Draft) (Task, error)

	// Delete removes a task.
	Delete(ctx context.Context, id TaskID) error
}

// Authenticator exchanges user credentials for a bearer token.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (Credentials, error)
	Register(ctx context.Context, username, email, password string) (Credentials, error)
}

// Backend is a remote service offering both task operations and login.
type Backend interface {
	Service
	Authenticator
}

// RemoteError is the only error kind returned by a Service or Authenticator.
// StatusCode is 0 when no HTTP response was received.
type RemoteError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *RemoteError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *RemoteError) Unwrap() error { return e.Err }

// IsUnauthorized reports whether err is a remote rejection of the credential.
func IsUnauthorized(err error) bool {
	var re *RemoteError
	if !errors.As(err, &re) {
		return false
	}
	return re.StatusCode == http.StatusUnauthorized || re.StatusCode == http.StatusForbidden
}

// IsNotFound reports whether err is a remote 404.
func IsNotFound(err error) bool {
	var re *RemoteError
	return errors.As(err, &re) && re.StatusCode == http.StatusNotFound
}
