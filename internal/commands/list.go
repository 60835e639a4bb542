package commands

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"taskctl/internal/app"
	"taskctl/internal/exitcode"
	"taskctl/internal/output"
)

func init() {
	Register(&ListCmd{})
}

// ListCmd implements the list command.
// Handles both `taskctl` (no args) and `taskctl list [filters]`.
type ListCmd struct {
	status   string
	priority string
	search   string
}

// SetFilter sets the filter flags (for testing).
func (c *ListCmd) SetFilter(status, priority, search string) {
	c.status = status
	c.priority = priority
	c.search = search
}

func (c *ListCmd) Name() string      { return "list" }
func (c *ListCmd) Aliases() []string { return []string{"ls"} }
func (c *ListCmd) Synopsis() string  { return "List tasks" }
func (c *ListCmd) Usage() string {
	return "taskctl list [--status <s>] [--priority <p>] [--search <text...>]"
}
func (c *ListCmd) NeedsAuth() bool { return true }

func (c *ListCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.status, "status", "", "")
	fs.StringVar(&c.status, "s", "", "")
	fs.StringVar(&c.priority, "priority", "", "")
	fs.StringVar(&c.priority, "p", "", "")
	fs.StringVar(&c.search, "search", "", "")
	fs.StringVar(&c.search, "q", "", "")
}

func (c *ListCmd) Run(ctx context.Context, env *Env, args []string) int {
	status, priority, err := parseEnums(c.status, c.priority)
	if err != nil {
		fmt.Fprintf(env.ErrOut, "error: %v\n", err)
		return exitcode.UserError
	}

	// Positional words are a search, as in `taskctl list groceries`.
	search := c.search
	if len(args) > 0 {
		if search != "" {
			fmt.Fprintln(env.ErrOut, "error: cannot use both --search and search words")
			return exitcode.UserError
		}
		search = strings.Join(args, " ")
	}

	ctrl := env.Controller()
	ctrl.Filters().Set(app.FilterUpdate{
		Status:   app.StatusPtr(status),
		Priority: app.PriorityPtr(priority),
		Search:   app.StringPtr(search),
	})
	ctrl.Start(ctx)
	defer ctrl.Stop()

	st := ctrl.State()
	if st.Err != "" {
		return reportFailure(env.ErrOut, st)
	}

	if !env.Quiet() {
		output.FormatFilter(env.Out, st.Filter)
	}
	output.FormatTaskList(env.Out, st.Tasks, env.Quiet())
	return exitcode.Success
}
