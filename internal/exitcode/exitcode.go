// Package exitcode defines exit codes for the CLI.
package exitcode

const (
	// Success indicates successful completion.
	Success = 0

	// UserError indicates bad input: unknown command or flag, blank title,
	// task reference out of range, a rejected payload.
	UserError = 1

	// AuthError indicates a failed login or a missing, expired or revoked session.
	AuthError = 2

	// BackendError indicates an unexpected API response.
	BackendError = 3

	// NetworkError indicates a transient failure worth retrying:
	// connection errors, timeouts, 429 and 5xx responses.
	NetworkError = 4
)
