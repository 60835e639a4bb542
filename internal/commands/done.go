package commands

import (
	"context"
	"flag"
	"fmt"

	"taskctl/internal/app"
	"taskctl/internal/exitcode"
	"taskctl/internal/service"
)

func init() {
	Register(&DoneCmd{})
}

// DoneCmd implements the done command: it moves a task to COMPLETED, keeping
// its other fields.
type DoneCmd struct{}

func (c *DoneCmd) Name() string      { return "done" }
func (c *DoneCmd) Aliases() []string { return nil }
func (c *DoneCmd) Synopsis() string  { return "Mark a task completed" }
func (c *DoneCmd) Usage() string     { return "taskctl done <id>" }
func (c *DoneCmd) NeedsAuth() bool   { return true }

func (c *DoneCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *DoneCmd) Run(ctx context.Context, env *Env, args []string) int {
	id, err := parseTaskID(args)
	if err != nil {
		fmt.Fprintf(env.ErrOut, "error: %v\n", err)
		return exitcode.UserError
	}

	return runEdit(ctx, env, id, func(form *app.Form) {
		form.SetStatus(service.StatusCompleted)
	})
}
