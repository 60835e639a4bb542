package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"taskctl/internal/config"
	"taskctl/internal/exitcode"
	"taskctl/internal/service"
)

// Version is the application version. Set at build time with
// -ldflags "-X taskctl/internal/commands.Version=...".
var Version = "0.1.0"

func init() {
	Register(&HelpCmd{registry: DefaultRegistry})
	Register(&VersionCmd{})
}

// HelpCmd prints usage for every command, or for the one named.
type HelpCmd struct {
	registry *Registry
}

// NewHelpCmd returns a help command listing the commands of r.
func NewHelpCmd(r *Registry) *HelpCmd {
	return &HelpCmd{registry: r}
}

func (c *HelpCmd) Name() string      { return "help" }
func (c *HelpCmd) Aliases() []string { return nil }
func (c *HelpCmd) Synopsis() string  { return "Print usage" }
func (c *HelpCmd) Usage() string     { return "taskctl help [command]" }
func (c *HelpCmd) NeedsAuth() bool   { return false }

func (c *HelpCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *HelpCmd) Run(ctx context.Context, env *Env, args []string) int {
	switch len(args) {
	case 0:
		writeHelp(env.Out, c.registry)
		return exitcode.Success
	case 1:
		cmd, ok := c.registry.Find(args[0])
		if !ok {
			fmt.Fprintf(env.ErrOut, "error: unknown command: %s\n", args[0])
			return exitcode.UserError
		}
		writeCommandHelp(env.Out, cmd)
		return exitcode.Success
	default:
		fmt.Fprintf(env.ErrOut, "error: too many arguments: %s\n", strings.Join(args[1:], " "))
		return exitcode.UserError
	}
}

func writeHelp(w io.Writer, r *Registry) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  taskctl                 List tasks (same as: taskctl list)")
	for _, cmd := range r.All() {
		writeCommandHelp(w, cmd)
	}

	statuses := make([]string, len(service.Statuses))
	for i, s := range service.Statuses {
		statuses[i] = string(s)
	}
	priorities := make([]string, len(service.Priorities))
	for i, p := range service.Priorities {
		priorities[i] = string(p)
	}
	fmt.Fprintf(w, "\nStatuses:   %s\n", strings.Join(statuses, ", "))
	fmt.Fprintf(w, "Priorities: %s\n", strings.Join(priorities, ", "))
	fmt.Fprint(w, commonFlagsText)
}

func writeCommandHelp(w io.Writer, cmd Command) {
	fmt.Fprintf(w, "  %s\n", cmd.Usage())
	line := "      " + cmd.Synopsis()
	if aliases := cmd.Aliases(); len(aliases) > 0 {
		line += " (aliases: " + strings.Join(aliases, ", ") + ")"
	}
	fmt.Fprintln(w, line)
}

const commonFlagsText = `
Common flags:
  --config <dir>   Override config directory
  --quiet          Suppress informational output
  --debug          Print debug logs to stderr
`

// VersionCmd prints the version.
type VersionCmd struct{}

func (c *VersionCmd) Name() string      { return "version" }
func (c *VersionCmd) Aliases() []string { return nil }
func (c *VersionCmd) Synopsis() string  { return "Print version" }
func (c *VersionCmd) Usage() string     { return "taskctl version" }
func (c *VersionCmd) NeedsAuth() bool   { return false }

func (c *VersionCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *VersionCmd) Run(ctx context.Context, env *Env, args []string) int {
	fmt.Fprintf(env.Out, "%s %s\n", config.AppName, Version)
	return exitcode.Success
}
