package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"taskctl/internal/app"
	"taskctl/internal/exitcode"
	"taskctl/internal/output"
	"taskctl/internal/service"
)

func init() {
	Register(&ShellCmd{})
}

// ShellCmd runs an interactive session over one controller and one form.
// The view is redrawn after every input that changes it.
type ShellCmd struct{}

func (c *ShellCmd) Name() string      { return "shell" }
func (c *ShellCmd) Aliases() []string { return []string{"sh"} }
func (c *ShellCmd) Synopsis() string  { return "Interactive task session" }
func (c *ShellCmd) Usage() string     { return "taskctl shell" }
func (c *ShellCmd) NeedsAuth() bool   { return true }

func (c *ShellCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *ShellCmd) Run(ctx context.Context, env *Env, args []string) int {
	if len(args) > 0 {
		fmt.Fprintf(env.ErrOut, "error: too many arguments: %s\n", strings.Join(args, " "))
		return exitcode.UserError
	}

	ctrl := env.Controller()
	form := app.NewForm(ctrl)
	defer form.Close()

	// The form's own hook is registered first, so the draft already mirrors t.
	unsub := ctrl.OnEdit(func(t service.Task) {
		output.FormatForm(env.Out, form.Draft(), &t)
	})
	defer unsub()

	ctrl.Start(ctx)
	defer ctrl.Stop()

	s := &shell{ctx: ctx, env: env, ctrl: ctrl, form: form, lines: newLineReader(env.In)}
	s.render()
	for {
		line, ok := s.lines.Prompt(env.Out, "> ")
		if !ok || ctx.Err() != nil {
			fmt.Fprintln(env.Out)
			return exitcode.Success
		}
		if line == "" {
			continue
		}
		if done := s.exec(line); done {
			return exitcode.Success
		}
	}
}

type shell struct {
	ctx   context.Context
	env   *Env
	ctrl  *app.Controller
	form  *app.Form
	lines *lineReader
}

func (s *shell) out() io.Writer { return s.env.Out }

func (s *shell) render() {
	output.FormatView(s.out(), s.ctrl.State())
}

func (s *shell) showForm() {
	output.FormatForm(s.out(), s.form.Draft(), s.form.Editing())
}

// exec runs one input line and reports whether the session should end.
func (s *shell) exec(line string) bool {
	word, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)

	switch strings.ToLower(word) {
	case "quit", "exit", "q":
		return true
	case "help", "?":
		fmt.Fprint(s.out(), shellHelpText)
	case "ls", "list", "refresh":
		s.ctrl.Refresh(s.ctx)
		s.render()
	case "show":
		s.render()
	case "filter":
		s.filter(rest)
	case "clear":
		s.ctrl.Filters().Clear()
		s.render()
	case "new":
		s.form.Cancel()
		s.showForm()
	case "edit":
		s.edit(rest)
	case "set":
		s.set(rest)
	case "form":
		s.showForm()
	case "save":
		s.save()
	case "cancel":
		s.form.Cancel()
		fmt.Fprintln(s.out(), "cancelled")
	case "rm", "delete":
		s.remove(rest)
	case "dismiss":
		s.ctrl.DismissError()
		s.render()
	case "whoami":
		if st := s.ctrl.State(); st.Authenticated {
			fmt.Fprintln(s.out(), st.DisplayName)
		} else {
			fmt.Fprintln(s.out(), "not logged in")
		}
	case "logout":
		if err := s.ctrl.Logout(); err != nil {
			fmt.Fprintf(s.env.ErrOut, "error: %v\n", err)
		}
		fmt.Fprintln(s.out(), "logged out")
		return true
	default:
		fmt.Fprintf(s.out(), "unknown command: %s (try: help)\n", word)
	}
	return false
}

// filter handles "filter key=value". An empty value clears that field.
func (s *shell) filter(arg string) {
	key, value, ok := strings.Cut(arg, "=")
	if !ok {
		fmt.Fprintln(s.out(), "usage: filter status=<s> | priority=<p> | search=<text>")
		return
	}
	value = strings.TrimSpace(value)

	var u app.FilterUpdate
	switch strings.ToLower(strings.TrimSpace(key)) {
	case "status":
		var st service.Status
		if value != "" {
			var err error
			if st, err = service.ParseStatus(value); err != nil {
				fmt.Fprintf(s.out(), "error: %v\n", err)
				return
			}
		}
		u.Status = app.StatusPtr(st)
	case "priority":
		var pr service.Priority
		if value != "" {
			var err error
			if pr, err = service.ParsePriority(value); err != nil {
				fmt.Fprintf(s.out(), "error: %v\n", err)
				return
			}
		}
		u.Priority = app.PriorityPtr(pr)
	case "search":
		u.Search = app.StringPtr(value)
	default:
		fmt.Fprintf(s.out(), "error: unknown filter: %s\n", key)
		return
	}

	s.ctrl.Filters().Set(u)
	s.render()
}

func (s *shell) edit(arg string) {
	id, err := parseTaskID(strings.Fields(arg))
	if err != nil {
		fmt.Fprintf(s.out(), "error: %v\n", err)
		return
	}
	task, ok := s.ctrl.Task(id)
	if !ok {
		if task, err = s.env.Service.Get(s.ctx, id); err != nil {
			reportRemoteError(s.out(), err, id)
			return
		}
	}
	s.ctrl.BeginEdit(task)
}

// set handles "set <field> <value>".
func (s *shell) set(arg string) {
	field, value, _ := strings.Cut(arg, " ")
	value = strings.TrimSpace(value)

	switch strings.ToLower(field) {
	case "title":
		s.form.SetTitle(value)
	case "description", "desc":
		s.form.SetDescription(value)
	case "status":
		st, err := service.ParseStatus(value)
		if err != nil {
			fmt.Fprintf(s.out(), "error: %v\n", err)
			return
		}
		s.form.SetStatus(st)
	case "priority":
		pr, err := service.ParsePriority(value)
		if err != nil {
			fmt.Fprintf(s.out(), "error: %v\n", err)
			return
		}
		s.form.SetPriority(pr)
	default:
		fmt.Fprintln(s.out(), "usage: set title|description|status|priority <value>")
		return
	}
	s.showForm()
}

func (s *shell) save() {
	ok, err := s.form.Submit(s.ctx)
	if errors.Is(err, app.ErrTitleRequired) {
		fmt.Fprintln(s.out(), "error: title required")
		return
	}
	if ok {
		fmt.Fprintln(s.out(), "saved")
	}
	s.render()
}

func (s *shell) remove(arg string) {
	id, err := parseTaskID(strings.Fields(arg))
	if err != nil {
		fmt.Fprintf(s.out(), "error: %v\n", err)
		return
	}
	if !s.ctrl.Delete(s.ctx, id, s.lines.confirmer(s.out())) && s.ctrl.State().Err == "" {
		fmt.Fprintln(s.out(), "not deleted")
		return
	}
	s.render()
}

const shellHelpText = `Commands:
  ls                    Refresh the task list
  show                  Redraw the current view
  filter <key>=<value>  Filter by status, priority or search (empty value clears)
  clear                 Clear all filters
  new                   Start a new task
  edit <id>             Edit a task
  set <field> <value>   Set title, description, status or priority on the form
  form                  Show the form
  save                  Create or update from the form
  cancel                Discard the form
  rm <id>               Delete a task (asks first)
  dismiss               Clear the error banner
  whoami                Print the signed-in user
  logout                Sign out and leave the shell
  quit                  Leave the shell
`
