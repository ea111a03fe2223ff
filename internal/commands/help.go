package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"taskmagic/internal/config"
	"taskmagic/internal/exitcode"
	"taskmagic/internal/service"
)

func init() {
	Register(&HelpCmd{})
}

// HelpCmd implements the help command.
type HelpCmd struct{}

func (c *HelpCmd) Name() string      { return "help" }
func (c *HelpCmd) Aliases() []string { return nil }
func (c *HelpCmd) Synopsis() string  { return "Print usage" }
func (c *HelpCmd) Usage() string     { return "taskmagic help" }
func (c *HelpCmd) NeedsAuth() bool   { return false }

func (c *HelpCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *HelpCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	fmt.Fprint(out, helpText)
	return exitcode.Success
}

const helpText = `Usage:
  taskmagic                                         List tasks
  taskmagic list [common flags] [--ids]             List tasks (alias: ls)
  taskmagic add [common flags] [--priority <p>] <title...>
  taskmagic ai [common flags] [--prompt <text>]     Generate tasks (alias: generate)
  taskmagic toggle [common flags] <ref>             To-Do -> In Progress -> Done (alias: tick)
  taskmagic rm [common flags] <ref>                 Delete a task (alias: delete)
  taskmagic stats [common flags]
  taskmagic login [common flags] [--email <email>] [--password <password>]
  taskmagic logout [common flags]
  taskmagic help
  taskmagic version

<ref> is a task number from "taskmagic list" or a task id.
<p> is High, Medium (default) or Low.

Common flags:
  --config <dir>   Override config directory
  --quiet          Suppress informational output
  --debug          Print debug logs to stderr

Environment:
  TASKMAGIC_API_URL    API base URL (default http://localhost:8000/api)
  TASKMAGIC_TIMEOUT    Per-request timeout (default 10s)
  TASKMAGIC_EMAIL      Default login email
  TASKMAGIC_PASSWORD   Login password
`
