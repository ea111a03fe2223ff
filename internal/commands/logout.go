package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"taskmagic/internal/config"
	"taskmagic/internal/exitcode"
	"taskmagic/internal/service"
	"taskmagic/internal/session"
)

func init() {
	Register(&LogoutCmd{})
}

// LogoutCmd implements the logout command.
type LogoutCmd struct{}

func (c *LogoutCmd) Name() string      { return "logout" }
func (c *LogoutCmd) Aliases() []string { return nil }
func (c *LogoutCmd) Synopsis() string  { return "Forget the stored session" }
func (c *LogoutCmd) Usage() string     { return "taskmagic logout [common flags]" }
func (c *LogoutCmd) NeedsAuth() bool   { return false }

func (c *LogoutCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *LogoutCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	removed, err := session.NewStore(cfg.TokenPath()).Clear()
	if err != nil {
		fmt.Fprintf(errOut, "error: failed to remove token: %v\n", err)
		return exitcode.AuthError
	}

	if !cfg.Quiet {
		if removed {
			fmt.Fprintln(out, "ok")
		} else {
			fmt.Fprintln(out, "not logged in")
		}
	}
	return exitcode.Success
}
