package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strings"

	"taskctl/internal/exitcode"
	"taskctl/internal/service"
)

func init() {
	Register(&LoginCmd{})
	Register(&RegisterCmd{})
}

// LoginCmd implements the login command.
// Missing credentials are read from stdin, one per line.
type LoginCmd struct {
	username string
	password string
}

// SetCredentials sets the flags (for testing).
func (c *LoginCmd) SetCredentials(username, password string) {
	c.username = username
	c.password = password
}

func (c *LoginCmd) Name() string      { return "login" }
func (c *LoginCmd) Aliases() []string { return nil }
func (c *LoginCmd) Synopsis() string  { return "Sign in and store the session" }
func (c *LoginCmd) Usage() string {
	return "taskctl login [--username <name>] [--password <password>]\n" + passwordFlagNote
}
func (c *LoginCmd) NeedsAuth() bool { return false }

// passwordFlagNote is appended to usage; flag values show in the process list.
const passwordFlagNote = "      --password is visible to other processes; omit it to be prompted"

func (c *LoginCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.username, "username", "", "")
	fs.StringVar(&c.username, "u", "", "")
	fs.StringVar(&c.password, "password", "", "")
}

func (c *LoginCmd) Run(ctx context.Context, env *Env, args []string) int {
	if sess := env.Session.Current(); sess.Authenticated() {
		if !env.Quiet() {
			fmt.Fprintf(env.Out, "already logged in as %s\n", sess.DisplayName)
		}
		return exitcode.Success
	}

	lines := newLineReader(env.In)
	username, ok := promptIfEmpty(lines, env, c.username, "Username: ", false)
	if !ok {
		fmt.Fprintln(env.ErrOut, "error: username required")
		return exitcode.UserError
	}
	password, ok := promptIfEmpty(lines, env, c.password, "Password: ", true)
	if !ok {
		fmt.Fprintln(env.ErrOut, "error: password required")
		return exitcode.UserError
	}

	creds, err := env.Auth.Login(ctx, username, password)
	if err != nil {
		return reportAuthError(env, "login failed", err)
	}
	return storeCredentials(env, creds, username)
}

// RegisterCmd implements the register command.
type RegisterCmd struct {
	username string
	email    string
	password string
}

// SetCredentials sets the flags (for testing).
func (c *RegisterCmd) SetCredentials(username, email, password string) {
	c.username = username
	c.email = email
	c.password = password
}

func (c *RegisterCmd) Name() string      { return "register" }
func (c *RegisterCmd) Aliases() []string { return []string{"signup"} }
func (c *RegisterCmd) Synopsis() string  { return "Create an account and store the session" }
func (c *RegisterCmd) Usage() string {
	return "taskctl register [--username <name>] [--email <email>] [--password <password>]\n" + passwordFlagNote
}
func (c *RegisterCmd) NeedsAuth() bool { return false }

func (c *RegisterCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.username, "username", "", "")
	fs.StringVar(&c.username, "u", "", "")
	fs.StringVar(&c.email, "email", "", "")
	fs.StringVar(&c.password, "password", "", "")
}

func (c *RegisterCmd) Run(ctx context.Context, env *Env, args []string) int {
	lines := newLineReader(env.In)
	username, ok := promptIfEmpty(lines, env, c.username, "Username: ", false)
	if !ok {
		fmt.Fprintln(env.ErrOut, "error: username required")
		return exitcode.UserError
	}
	email, ok := promptIfEmpty(lines, env, c.email, "Email: ", false)
	if !ok {
		fmt.Fprintln(env.ErrOut, "error: email required")
		return exitcode.UserError
	}
	password, ok := promptIfEmpty(lines, env, c.password, "Password: ", true)
	if !ok {
		fmt.Fprintln(env.ErrOut, "error: password required")
		return exitcode.UserError
	}

	creds, err := env.Auth.Register(ctx, username, email, password)
	if err != nil {
		return reportAuthError(env, "registration failed", err)
	}
	return storeCredentials(env, creds, username)
}

// promptIfEmpty returns value, or asks for it when empty. A secret answer is
// not echoed on a terminal.
func promptIfEmpty(lines *lineReader, env *Env, value, question string, secret bool) (string, bool) {
	if strings.TrimSpace(value) != "" {
		return value, true
	}
	ask := lines.Prompt
	if secret {
		ask = lines.PromptSecret
	}
	answer, ok := ask(env.ErrOut, question)
	if !ok || answer == "" {
		return "", false
	}
	return answer, true
}

func storeCredentials(env *Env, creds service.Credentials, username string) int {
	name := creds.Username
	if name == "" {
		name = username
	}

	if err := env.Config.EnsureDir(); err != nil {
		fmt.Fprintf(env.ErrOut, "error: failed to create config directory: %v\n", err)
		return exitcode.AuthError
	}
	if err := env.Session.Set(creds.Token, name); err != nil {
		fmt.Fprintf(env.ErrOut, "error: failed to save session: %v\n", err)
		return exitcode.AuthError
	}
	env.Logger().Debug("session saved", "path", env.Session.Path(), "user", name, "message", creds.Message)

	if !env.Quiet() {
		fmt.Fprintf(env.Out, "logged in as %s\n", name)
	}
	return exitcode.Success
}

func reportAuthError(env *Env, what string, err error) int {
	var re *service.RemoteError
	if errors.As(err, &re) && re.StatusCode != 0 {
		fmt.Fprintf(env.ErrOut, "error: %s: %v\n", what, err)
		return exitcode.AuthError
	}
	fmt.Fprintf(env.ErrOut, "error: backend error: %v\n", err)
	return exitcode.BackendError
}
