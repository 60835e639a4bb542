package commands

import (
	"context"
	"flag"
	"fmt"

	"taskctl/internal/app"
	"taskctl/internal/exitcode"
)

func init() {
	Register(&RmCmd{})
}

// RmCmd implements the rm command. Deletion is irreversible, so it asks for
// confirmation on stdin unless --yes is given.
type RmCmd struct {
	yes bool
}

// SetYes skips the confirmation prompt (for testing).
func (c *RmCmd) SetYes(yes bool) {
	c.yes = yes
}

func (c *RmCmd) Name() string      { return "rm" }
func (c *RmCmd) Aliases() []string { return []string{"delete"} }
func (c *RmCmd) Synopsis() string  { return "Delete a task" }
func (c *RmCmd) Usage() string     { return "taskctl rm [--yes] <id>" }
func (c *RmCmd) NeedsAuth() bool   { return true }

func (c *RmCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.BoolVar(&c.yes, "yes", false, "")
	fs.BoolVar(&c.yes, "y", false, "")
}

func (c *RmCmd) Run(ctx context.Context, env *Env, args []string) int {
	id, err := parseTaskID(args)
	if err != nil {
		fmt.Fprintf(env.ErrOut, "error: %v\n", err)
		return exitcode.UserError
	}

	var confirm app.Confirmer = newLineReader(env.In).confirmer(env.ErrOut)
	if c.yes {
		confirm = app.ConfirmFunc(func(string) bool { return true })
	}

	ctrl := env.Controller()
	if !ctrl.Delete(ctx, id, confirm) {
		st := ctrl.State()
		if st.Err == "" {
			fmt.Fprintln(env.ErrOut, "error: delete not confirmed")
			return exitcode.UserError
		}
		return reportFailure(env.ErrOut, st)
	}

	if !env.Quiet() {
		fmt.Fprintln(env.Out, "ok")
	}
	return exitcode.Success
}
