package commands_test

import (
	"bytes"
	"context"
	"os"
	"strings"
	"testing"

	"taskctl/internal/commands"
	"taskctl/internal/exitcode"
	"taskctl/internal/service"
	"taskctl/internal/testutil"
)

// TestLoginCommand_Flags verifies login stores the token and display name.
func TestLoginCommand_Flags(t *testing.T) {
	backend := testutil.NewFakeBackend()
	backend.AddUser("alice", "alice@example.com", "s3cret")
	env := newEnv(t, backend, "", false)
	cmd := &commands.LoginCmd{}
	cmd.SetCredentials("alice", "s3cret")

	stdout, stderr, code := runCommand(t, cmd, env, nil, "")

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d: %s", exitcode.Success, code, stderr)
	}
	if stdout != "logged in as alice\n" {
		t.Errorf("expected %q, got %q", "logged in as alice\n", stdout)
	}
	sess := env.Session.Current()
	if sess.Token != "token-alice" || sess.DisplayName != "alice" {
		t.Errorf("unexpected stored session %+v", sess)
	}
}

// TestLoginCommand_Prompts verifies missing credentials are read from stdin.
func TestLoginCommand_Prompts(t *testing.T) {
	backend := testutil.NewFakeBackend()
	backend.AddUser("bob", "bob@example.com", "hunter2")
	env := newEnv(t, backend, "", false)

	stdout, stderr, code := runCommand(t, &commands.LoginCmd{}, env, nil, "bob\nhunter2\n")

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d: %s", exitcode.Success, code, stderr)
	}
	if stderr != "Username: Password: " {
		t.Errorf("unexpected prompts %q", stderr)
	}
	if stdout != "logged in as bob\n" {
		t.Errorf("unexpected stdout %q", stdout)
	}
}

// TestLoginCommand_PromptsFromPipe verifies a non-terminal file still reads
// the password as a plain line.
func TestLoginCommand_PromptsFromPipe(t *testing.T) {
	backend := testutil.NewFakeBackend()
	backend.AddUser("bob", "bob@example.com", "hunter2")
	env := newEnv(t, backend, "", false)

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	defer r.Close()
	if _, err := w.WriteString("bob\nhunter2\n"); err != nil {
		t.Fatalf("write: %v", err)
	}
	w.Close()

	var outBuf, errBuf bytes.Buffer
	env.In = r
	env.Out = &outBuf
	env.ErrOut = &errBuf

	code := (&commands.LoginCmd{}).Run(context.Background(), env, nil)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d: %s", exitcode.Success, code, errBuf.String())
	}
	if errBuf.String() != "Username: Password: " {
		t.Errorf("unexpected prompts %q", errBuf.String())
	}
	if outBuf.String() != "logged in as bob\n" {
		t.Errorf("unexpected stdout %q", outBuf.String())
	}
}

// TestLoginCommand_UsageWarnsAboutPasswordFlag verifies help mentions the
// exposure of --password.
func TestLoginCommand_UsageWarnsAboutPasswordFlag(t *testing.T) {
	for _, cmd := range []commands.Command{&commands.LoginCmd{}, &commands.RegisterCmd{}} {
		if !strings.Contains(cmd.Usage(), "--password is visible to other processes") {
			t.Errorf("%s usage should warn about --password, got %q", cmd.Name(), cmd.Usage())
		}
	}
}

// TestLoginCommand_BadPassword verifies a rejected login leaves no session.
func TestLoginCommand_BadPassword(t *testing.T) {
	backend := testutil.NewFakeBackend()
	backend.AddUser("alice", "alice@example.com", "s3cret")
	env := newEnv(t, backend, "", false)
	cmd := &commands.LoginCmd{}
	cmd.SetCredentials("alice", "wrong")

	_, stderr, code := runCommand(t, cmd, env, nil, "")

	if code != exitcode.AuthError {
		t.Errorf("expected exit code %d, got %d", exitcode.AuthError, code)
	}
	if !strings.HasPrefix(stderr, "error: login failed: ") {
		t.Errorf("unexpected stderr %q", stderr)
	}
	if env.Session.Exists() {
		t.Error("expected no session file after failed login")
	}
}

// TestLoginCommand_Unreachable verifies transport failures are backend errors.
func TestLoginCommand_Unreachable(t *testing.T) {
	backend := testutil.NewFakeBackend()
	backend.LoginErr = &service.RemoteError{Op: "login", Err: testutil.ErrBackend.Err}
	env := newEnv(t, backend, "", false)
	cmd := &commands.LoginCmd{}
	cmd.SetCredentials("alice", "s3cret")

	_, _, code := runCommand(t, cmd, env, nil, "")

	if code != exitcode.BackendError {
		t.Errorf("expected exit code %d, got %d", exitcode.BackendError, code)
	}
}

// TestLoginCommand_MissingUsername verifies empty stdin is a user error.
func TestLoginCommand_MissingUsername(t *testing.T) {
	env := newEnv(t, testutil.NewFakeBackend(), "", false)

	_, stderr, code := runCommand(t, &commands.LoginCmd{}, env, nil, "")

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if !strings.HasSuffix(stderr, "error: username required\n") {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

// TestLoginCommand_AlreadyLoggedIn verifies login does nothing with a session.
func TestLoginCommand_AlreadyLoggedIn(t *testing.T) {
	env := newEnv(t, testutil.NewFakeBackend(), "alice", false)

	stdout, _, code := runCommand(t, &commands.LoginCmd{}, env, nil, "")

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stdout != "already logged in as alice\n" {
		t.Errorf("unexpected stdout %q", stdout)
	}
}

// TestRegisterCommand verifies registration signs the new user in.
func TestRegisterCommand(t *testing.T) {
	backend := testutil.NewFakeBackend()
	env := newEnv(t, backend, "", false)
	cmd := &commands.RegisterCmd{}
	cmd.SetCredentials("carol", "carol@example.com", "pw")

	stdout, stderr, code := runCommand(t, cmd, env, nil, "")

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d: %s", exitcode.Success, code, stderr)
	}
	if stdout != "logged in as carol\n" {
		t.Errorf("unexpected stdout %q", stdout)
	}
	if env.Session.Token() != "token-carol" {
		t.Errorf("expected stored token, got %q", env.Session.Token())
	}
}

// TestRegisterCommand_Duplicate verifies a taken username is reported.
func TestRegisterCommand_Duplicate(t *testing.T) {
	backend := testutil.NewFakeBackend()
	backend.AddUser("carol", "carol@example.com", "pw")
	env := newEnv(t, backend, "", false)
	cmd := &commands.RegisterCmd{}
	cmd.SetCredentials("carol", "other@example.com", "pw")

	_, stderr, code := runCommand(t, cmd, env, nil, "")

	if code != exitcode.AuthError {
		t.Errorf("expected exit code %d, got %d", exitcode.AuthError, code)
	}
	if !strings.Contains(stderr, "Username already exists") {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

// TestLogoutCommand verifies logout removes the session file.
func TestLogoutCommand(t *testing.T) {
	env := newEnv(t, testutil.NewFakeBackend(), "alice", false)

	stdout, stderr, code := runCommand(t, &commands.LogoutCmd{}, env, nil, "")

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stdout != "ok\n" {
		t.Errorf("expected %q, got %q", "ok\n", stdout)
	}
	if stderr != "" {
		t.Errorf("expected no stderr, got %q", stderr)
	}
	if env.Session.Exists() {
		t.Error("session file should have been deleted")
	}
}

// TestLogoutCommand_NotLoggedIn verifies logout without a session succeeds.
func TestLogoutCommand_NotLoggedIn(t *testing.T) {
	env := newEnv(t, testutil.NewFakeBackend(), "", false)

	stdout, _, code := runCommand(t, &commands.LogoutCmd{}, env, nil, "")

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stdout != "not logged in\n" {
		t.Errorf("expected %q, got %q", "not logged in\n", stdout)
	}
}

// TestWhoamiCommand verifies the display name is printed.
func TestWhoamiCommand(t *testing.T) {
	env := newEnv(t, testutil.NewFakeBackend(), "alice", false)

	stdout, _, code := runCommand(t, &commands.WhoamiCmd{}, env, nil, "")

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stdout != "alice\n" {
		t.Errorf("expected %q, got %q", "alice\n", stdout)
	}

	env = newEnv(t, testutil.NewFakeBackend(), "", false)
	_, stderr, code := runCommand(t, &commands.WhoamiCmd{}, env, nil, "")
	if code != exitcode.AuthError {
		t.Errorf("expected exit code %d, got %d", exitcode.AuthError, code)
	}
	if stderr != "error: not logged in (run: taskctl login)\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
}
