package service

import (
	"context"
	"errors"
)

// Service defines the interface for Task Magic backend operations.
// All remote API calls go through this interface.
// Commands never build HTTP requests directly.
type Service interface {
	// Login exchanges credentials for a bearer token.
	// Returns ErrLoginFailed if the response carries no token.
	Login(ctx context.Context, email, password string) (string, error)

	// ListTasks returns every task of the authenticated user in server order.
	ListTasks(ctx context.Context) ([]Task, error)

	// CreateTask creates a task and returns it as stored by the server.
	CreateTask(ctx context.Context, t NewTask) (Task, error)

	// GenerateTasks asks the server to create tasks from a prompt.
	GenerateTasks(ctx context.Context, prompt string) ([]Task, error)

	// UpdateStatus sets the status of a task and returns the full updated task.
	UpdateStatus(ctx context.Context, id string, status Status) (Task, error)

	// DeleteTask deletes a task.
	DeleteTask(ctx context.Context, id string) error
}

// Error classes shared by every backend. Backends wrap one of these with %w
// so callers can branch with errors.Is.
var (
	// ErrLoginFailed means the login response did not contain a token.
	ErrLoginFailed = errors.New("login failed")

	// ErrNotLoggedIn means a task operation was attempted without a session.
	ErrNotLoggedIn = errors.New("not logged in")

	// ErrUnauthorized means the server rejected the credential.
	ErrUnauthorized = errors.New("token expired or revoked")

	// ErrValidation means the request was rejected as malformed.
	ErrValidation = errors.New("invalid request")

	// ErrNotFound means the server answered 404 for the addressed resource.
	ErrNotFound = errors.New("not found")

	// ErrTransient covers network failures, timeouts and overloaded servers.
	ErrTransient = errors.New("temporary failure")
)
