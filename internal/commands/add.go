package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strings"

	"taskctl/internal/app"
	"taskctl/internal/exitcode"
)

func init() {
	Register(&AddCmd{})
	Register(&CreateCmd{})
}

// taskFields are the flags shared by add and create.
type taskFields struct {
	description string
	status      string
	priority    string
}

func (f *taskFields) register(fs *flag.FlagSet) {
	fs.StringVar(&f.description, "description", "", "")
	fs.StringVar(&f.description, "d", "", "")
	fs.StringVar(&f.status, "status", "", "")
	fs.StringVar(&f.status, "s", "", "")
	fs.StringVar(&f.priority, "priority", "", "")
	fs.StringVar(&f.priority, "p", "", "")
}

// AddCmd implements the add command.
type AddCmd struct {
	fields taskFields
}

// SetFields sets the optional fields (for testing).
func (c *AddCmd) SetFields(description, status, priority string) {
	c.fields = taskFields{description: description, status: status, priority: priority}
}

func (c *AddCmd) Name() string      { return "add" }
func (c *AddCmd) Aliases() []string { return nil }
func (c *AddCmd) Synopsis() string  { return "Create a task" }
func (c *AddCmd) Usage() string {
	return "taskctl add [--description <text>] [--status <s>] [--priority <p>] <title...>"
}
func (c *AddCmd) NeedsAuth() bool { return true }

func (c *AddCmd) RegisterFlags(fs *flag.FlagSet) { c.fields.register(fs) }

func (c *AddCmd) Run(ctx context.Context, env *Env, args []string) int {
	return runAdd(ctx, env, c.fields, args)
}

// CreateCmd is an alias for AddCmd.
type CreateCmd struct {
	fields taskFields
}

func (c *CreateCmd) Name() string      { return "create" }
func (c *CreateCmd) Aliases() []string { return nil }
func (c *CreateCmd) Synopsis() string  { return "Create a task (alias for add)" }
func (c *CreateCmd) Usage() string {
	return "taskctl create [--description <text>] [--status <s>] [--priority <p>] <title...>"
}
func (c *CreateCmd) NeedsAuth() bool { return true }

func (c *CreateCmd) RegisterFlags(fs *flag.FlagSet) { c.fields.register(fs) }

func (c *CreateCmd) Run(ctx context.Context, env *Env, args []string) int {
	return runAdd(ctx, env, c.fields, args)
}

// runAdd is the shared implementation for add and create commands.
// It fills a blank form and submits it.
func runAdd(ctx context.Context, env *Env, fields taskFields, args []string) int {
	status, priority, err := parseEnums(fields.status, fields.priority)
	if err != nil {
		fmt.Fprintf(env.ErrOut, "error: %v\n", err)
		return exitcode.UserError
	}

	ctrl := env.Controller()
	form := app.NewForm(ctrl)
	defer form.Close()

	form.SetTitle(strings.Join(args, " "))
	form.SetDescription(fields.description)
	if status != "" {
		form.SetStatus(status)
	}
	if priority != "" {
		form.SetPriority(priority)
	}

	ok, err := form.Submit(ctx)
	if errors.Is(err, app.ErrTitleRequired) {
		fmt.Fprintln(env.ErrOut, "error: title required")
		return exitcode.UserError
	}
	if !ok {
		return reportFailure(env.ErrOut, ctrl.State())
	}

	if !env.Quiet() {
		fmt.Fprintln(env.Out, "ok")
	}
	return exitcode.Success
}
