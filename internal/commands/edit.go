package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"

	"taskctl/internal/app"
	"taskctl/internal/exitcode"
	"taskctl/internal/service"
)

func init() {
	Register(&EditCmd{})
}

// EditCmd implements the edit command. Only the given flags change; the
// other fields keep the task's current values.
type EditCmd struct {
	title       optionalString
	description optionalString
	status      optionalString
	priority    optionalString
}

// SetTitle, SetDescription, SetStatus and SetPriority set flags (for testing).
func (c *EditCmd) SetTitle(v string)       { c.title.Set(v) }
func (c *EditCmd) SetDescription(v string) { c.description.Set(v) }
func (c *EditCmd) SetStatus(v string)      { c.status.Set(v) }
func (c *EditCmd) SetPriority(v string)    { c.priority.Set(v) }

func (c *EditCmd) Name() string      { return "edit" }
func (c *EditCmd) Aliases() []string { return []string{"update"} }
func (c *EditCmd) Synopsis() string  { return "Change a task" }
func (c *EditCmd) Usage() string {
	return "taskctl edit [--title <t>] [--description <d>] [--status <s>] [--priority <p>] <id>"
}
func (c *EditCmd) NeedsAuth() bool { return true }

func (c *EditCmd) RegisterFlags(fs *flag.FlagSet) {
	*c = EditCmd{}
	fs.Var(&c.title, "title", "")
	fs.Var(&c.title, "t", "")
	fs.Var(&c.description, "description", "")
	fs.Var(&c.description, "d", "")
	fs.Var(&c.status, "status", "")
	fs.Var(&c.status, "s", "")
	fs.Var(&c.priority, "priority", "")
	fs.Var(&c.priority, "p", "")
}

func (c *EditCmd) Run(ctx context.Context, env *Env, args []string) int {
	id, err := parseTaskID(args)
	if err != nil {
		fmt.Fprintf(env.ErrOut, "error: %v\n", err)
		return exitcode.UserError
	}
	if !c.title.set && !c.description.set && !c.status.set && !c.priority.set {
		fmt.Fprintln(env.ErrOut, "error: nothing to change")
		return exitcode.UserError
	}

	var status service.Status
	var priority service.Priority
	if c.status.set {
		if status, err = service.ParseStatus(c.status.value); err != nil {
			fmt.Fprintf(env.ErrOut, "error: %v\n", err)
			return exitcode.UserError
		}
	}
	if c.priority.set {
		if priority, err = service.ParsePriority(c.priority.value); err != nil {
			fmt.Fprintf(env.ErrOut, "error: %v\n", err)
			return exitcode.UserError
		}
	}

	return runEdit(ctx, env, id, func(form *app.Form) {
		if c.title.set {
			form.SetTitle(c.title.value)
		}
		if c.description.set {
			form.SetDescription(c.description.value)
		}
		if c.status.set {
			form.SetStatus(status)
		}
		if c.priority.set {
			form.SetPriority(priority)
		}
	})
}

// runEdit fetches task id, selects it for editing so the form mirrors it,
// applies change and submits. Shared by edit and done.
func runEdit(ctx context.Context, env *Env, id service.TaskID, change func(*app.Form)) int {
	task, err := env.Service.Get(ctx, id)
	if err != nil {
		return reportRemoteError(env.ErrOut, err, id)
	}

	ctrl := env.Controller()
	form := app.NewForm(ctrl)
	defer form.Close()

	ctrl.BeginEdit(task)
	change(form)

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
