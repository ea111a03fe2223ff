package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"taskmagic/internal/config"
	"taskmagic/internal/exitcode"
	"taskmagic/internal/service"
	"taskmagic/internal/tasklist"
)

func init() {
	Register(&AddCmd{})
	Register(&AICmd{})
}

// AddCmd implements the add command.
type AddCmd struct {
	priority string
}

// SetPriority sets the --priority flag (for testing).
func (c *AddCmd) SetPriority(p string) {
	c.priority = p
}

func (c *AddCmd) Name() string      { return "add" }
func (c *AddCmd) Aliases() []string { return []string{"create"} }
func (c *AddCmd) Synopsis() string  { return "Create a task" }
func (c *AddCmd) Usage() string {
	return "taskmagic add [common flags] [--priority High|Medium|Low] <title...>"
}
func (c *AddCmd) NeedsAuth() bool { return true }

func (c *AddCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.priority, "priority", "", "")
	fs.StringVar(&c.priority, "p", "", "")
}

func (c *AddCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	// Checked before loading so a blank title never reaches the network.
	title := strings.Join(args, " ")
	if strings.TrimSpace(title) == "" {
		fmt.Fprintln(errOut, "error: title required")
		return exitcode.UserError
	}
	priority, ok := service.ParsePriority(c.priority)
	if !ok {
		fmt.Fprintf(errOut, "error: invalid priority: %s (want High, Medium or Low)\n", c.priority)
		return exitcode.UserError
	}

	s, err := loadTasks(ctx, cfg, svc)
	if err != nil {
		return reportError(cfg, errOut, err)
	}
	if _, err := s.Create(ctx, title, priority); err != nil {
		return reportError(cfg, errOut, err)
	}

	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}

// AICmd implements the ai command.
type AICmd struct {
	prompt string
}

func (c *AICmd) Name() string      { return "ai" }
func (c *AICmd) Aliases() []string { return []string{"generate"} }
func (c *AICmd) Synopsis() string  { return "Let the server generate tasks" }
func (c *AICmd) Usage() string     { return "taskmagic ai [common flags] [--prompt <text>]" }
func (c *AICmd) NeedsAuth() bool   { return true }

func (c *AICmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.prompt, "prompt", tasklist.DefaultPrompt, "")
}

func (c *AICmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}

	s, err := loadTasks(ctx, cfg, svc)
	if err != nil {
		return reportError(cfg, errOut, err)
	}
	tasks, err := s.Generate(ctx, c.prompt)
	if err != nil {
		return reportError(cfg, errOut, err)
	}

	if cfg.Quiet {
		return exitcode.Success
	}
	if len(tasks) == 0 {
		fmt.Fprintln(out, "no tasks generated")
		return exitcode.Success
	}
	// Generated tasks are prepended, so these numbers match `taskmagic list`.
	for i, t := range tasks {
		fmt.Fprintf(out, "%4d  %s\n", i+1, t.Title)
	}
	return exitcode.Success
}
