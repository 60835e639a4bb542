// Package exitcode defines the process exit codes of taskctl.
package exitcode

const (
	// Success means the command did what was asked.
	Success = 0

	// UserError covers bad arguments, unknown tasks and declined prompts.
	UserError = 1

	// AuthError means no session is stored or the server rejected it.
	AuthError = 2

	// BackendError covers transport failures and non-auth server errors.
	BackendError = 3
)
