package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"taskmagic/internal/config"
	"taskmagic/internal/exitcode"
	"taskmagic/internal/service"
	"taskmagic/internal/session"
)

func init() {
	Register(&LoginCmd{})
}

// LoginCmd implements the login command.
type LoginCmd struct {
	email    string
	password string
}

// SetCredentials sets the email and password flags (for testing).
func (c *LoginCmd) SetCredentials(email, password string) {
	c.email = email
	c.password = password
}

func (c *LoginCmd) Name() string      { return "login" }
func (c *LoginCmd) Aliases() []string { return nil }
func (c *LoginCmd) Synopsis() string  { return "Sign in to Task Magic" }
func (c *LoginCmd) Usage() string {
	return "taskmagic login [common flags] [--email <email>] [--password <password>]"
}
func (c *LoginCmd) NeedsAuth() bool { return false }

func (c *LoginCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.email, "email", "", "")
	fs.StringVar(&c.email, "e", "", "")
	fs.StringVar(&c.password, "password", "", "")
}

func (c *LoginCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}

	email := strings.TrimSpace(c.email)
	if email == "" {
		email = strings.TrimSpace(cfg.Email)
	}
	if email == "" {
		fmt.Fprintln(errOut, "error: email required (use --email or set email in config.yaml)")
		return exitcode.UserError
	}

	password := c.password
	if password == "" {
		password = cfg.Password
	}
	if password == "" {
		fmt.Fprintln(errOut, "error: password required (use --password or TASKMAGIC_PASSWORD)")
		return exitcode.UserError
	}

	if svc == nil {
		fmt.Fprintln(errOut, "error: backend error: no backend configured")
		return exitcode.BackendError
	}

	store := session.NewStore(cfg.TokenPath())
	if _, err := session.Login(ctx, svc, store, email, password); err != nil {
		switch {
		case errors.Is(err, service.ErrLoginFailed):
			fmt.Fprintln(errOut, "error: login failed")
			return exitcode.AuthError
		case errors.Is(err, service.ErrTransient), errors.Is(err, context.Canceled):
			return reportError(cfg, errOut, err)
		default:
			fmt.Fprintf(errOut, "error: %v\n", err)
			return exitcode.AuthError
		}
	}

	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}
