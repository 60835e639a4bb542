// Package commands provides the command interface and implementations.
package commands

import (
	"context"
	"flag"
	"io"
	"log/slog"

	"taskctl/internal/app"
	"taskctl/internal/config"
	"taskctl/internal/service"
	"taskctl/internal/session"
)

// Command defines the interface for CLI commands.
type Command interface {
	// Name returns the primary command name.
	Name() string

	// Aliases returns alternative names for the command.
	Aliases() []string

	// Synopsis returns a short description for help output.
	Synopsis() string

	// Usage returns the usage string for help output.
	Usage() string

	// NeedsAuth returns true if the command requires a stored session.
	// Commands like help, version, login, register, logout return false.
	NeedsAuth() bool

	// RegisterFlags registers command-specific flags.
	RegisterFlags(fs *flag.FlagSet)

	// Run executes the command with positional args and returns an exit code.
	Run(ctx context.Context, env *Env, args []string) int
}

// Env is everything a command runs against.
type Env struct {
	Config  *config.Config
	Service service.Service       // task backend
	Auth    service.Authenticator // login/registration exchange
	Session *session.Store
	In      io.Reader
	Out     io.Writer
	ErrOut  io.Writer
}

// Logger returns the debug logger for this run.
func (e *Env) Logger() *slog.Logger {
	return e.Config.Logger(e.ErrOut)
}

// Controller wires a task controller over the backend and stored session.
func (e *Env) Controller() *app.Controller {
	return app.NewController(e.Service, e.Session, nil, e.Logger())
}

// Quiet reports whether informational output is suppressed.
func (e *Env) Quiet() bool {
	return e.Config.Quiet
}
