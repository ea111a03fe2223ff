package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"taskmagic/internal/config"
	"taskmagic/internal/exitcode"
	"taskmagic/internal/output"
	"taskmagic/internal/service"
)

func init() {
	Register(&ListCmd{})
	Register(&StatsCmd{})
}

// ListCmd implements the list command. `taskmagic` with no args runs it.
type ListCmd struct {
	showIDs bool
}

// SetShowIDs sets the --ids flag (for testing).
func (c *ListCmd) SetShowIDs(v bool) {
	c.showIDs = v
}

func (c *ListCmd) Name() string      { return "list" }
func (c *ListCmd) Aliases() []string { return []string{"ls"} }
func (c *ListCmd) Synopsis() string  { return "List tasks" }
func (c *ListCmd) Usage() string     { return "taskmagic list [common flags] [--ids]" }
func (c *ListCmd) NeedsAuth() bool   { return true }

func (c *ListCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.BoolVar(&c.showIDs, "ids", false, "")
}

func (c *ListCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}

	s, err := loadTasks(ctx, cfg, svc)
	if err != nil {
		return reportError(cfg, errOut, err)
	}

	tasks := s.Tasks()
	if len(tasks) == 0 {
		if !cfg.Quiet {
			fmt.Fprintln(out, "no tasks found")
		}
		return exitcode.Success
	}

	output.FormatList(out, tasks, c.showIDs)
	return exitcode.Success
}

// StatsCmd implements the stats command.
type StatsCmd struct{}

func (c *StatsCmd) Name() string      { return "stats" }
func (c *StatsCmd) Aliases() []string { return nil }
func (c *StatsCmd) Synopsis() string  { return "Print active, completed and high-priority counts" }
func (c *StatsCmd) Usage() string     { return "taskmagic stats [common flags]" }
func (c *StatsCmd) NeedsAuth() bool   { return true }

func (c *StatsCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *StatsCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	s, err := loadTasks(ctx, cfg, svc)
	if err != nil {
		return reportError(cfg, errOut, err)
	}
	output.FormatStats(out, s.Stats())
	return exitcode.Success
}
