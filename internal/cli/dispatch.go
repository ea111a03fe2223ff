// Package cli parses the command line and dispatches to commands.
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"taskmagic/internal/commands"
	"taskmagic/internal/config"
	"taskmagic/internal/exitcode"
	"taskmagic/internal/logging"
	"taskmagic/internal/service"
	"taskmagic/internal/session"
)

// ServiceFactory creates a Service from config and the stored session.
// sess is nil when nobody is logged in. Used to inject the backend during
// dispatch.
type ServiceFactory func(ctx context.Context, cfg *config.Config, sess *session.Session) (service.Service, error)

// Dispatcher handles command-line parsing and dispatch.
type Dispatcher struct {
	registry *commands.Registry
	factory  ServiceFactory
}

// NewDispatcher creates a new dispatcher with the given registry and service factory.
func NewDispatcher(registry *commands.Registry, factory ServiceFactory) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		factory:  factory,
	}
}

// Run parses arguments and dispatches to the appropriate command.
// Returns the exit code.
func (d *Dispatcher) Run(ctx context.Context, args []string, out, errOut io.Writer) int {
	// No args -> dispatch to "list" command with no args
	if len(args) == 0 {
		return d.dispatch(ctx, "list", nil, out, errOut)
	}

	cmdName := args[0]

	// Flags require a command
	if strings.HasPrefix(cmdName, "-") {
		fmt.Fprintf(errOut, "error: unknown command: %s\n", cmdName)
		return exitcode.UserError
	}

	return d.dispatch(ctx, cmdName, args[1:], out, errOut)
}

func (d *Dispatcher) dispatch(ctx context.Context, cmdName string, args []string, out, errOut io.Writer) int {
	cmd, ok := d.registry.Find(cmdName)
	if !ok {
		fmt.Fprintf(errOut, "error: unknown command: %s\n", cmdName)
		return exitcode.UserError
	}
	return d.dispatchCommand(ctx, cmd, args, out, errOut)
}

func (d *Dispatcher) dispatchCommand(ctx context.Context, cmd commands.Command, args []string, out, errOut io.Writer) int {
	fs := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
	fs.SetOutput(io.Discard) // We handle errors ourselves

	// Common flags
	var configDir string
	var quiet bool
	var debug bool

	fs.StringVar(&configDir, "config", "", "")
	fs.BoolVar(&quiet, "quiet", false, "")
	fs.BoolVar(&debug, "debug", false, "")

	cmd.RegisterFlags(fs)

	if err := fs.Parse(args); err != nil {
		return reportFlagError(errOut, err)
	}

	// A positional arg starting with - would have been parsed as a flag
	positionalArgs := fs.Args()
	if len(positionalArgs) > 0 && strings.HasPrefix(positionalArgs[0], "-") && positionalArgs[0] != "-" {
		fmt.Fprintf(errOut, "error: unknown flag: %s\n", positionalArgs[0])
		return exitcode.UserError
	}

	cfg, err := config.New(configDir)
	if err != nil {
		fmt.Fprintf(errOut, "error: %s\n", err)
		return exitcode.UserError
	}
	cfg.Quiet = quiet
	cfg.Debug = debug
	cfg.Logger = logging.New(errOut, debug)
	defer func() { _ = cfg.Logger.Sync() }()

	// Load the session; commands needing auth stop here without one.
	sess, err := session.NewStore(cfg.TokenPath()).Load()
	switch {
	case err == nil:
	case errors.Is(err, session.ErrNoSession):
		sess = nil
	default:
		cfg.Logger.Debug("unreadable session", zap.Error(err))
		if cmd.NeedsAuth() {
			fmt.Fprintf(errOut, "error: %v (run: taskmagic login)\n", err)
			return exitcode.AuthError
		}
		sess = nil
	}
	if cmd.NeedsAuth() && sess == nil {
		fmt.Fprintln(errOut, "error: not logged in (run: taskmagic login)")
		return exitcode.AuthError
	}

	var svc service.Service
	if d.factory != nil {
		svc, err = d.factory(ctx, cfg, sess)
		if err != nil {
			fmt.Fprintf(errOut, "error: backend error: %v\n", err)
			return exitcode.BackendError
		}
	}

	return cmd.Run(ctx, cfg, svc, positionalArgs, out, errOut)
}

// reportFlagError turns flag package errors into the CLI's messages.
func reportFlagError(errOut io.Writer, err error) int {
	errStr := err.Error()

	switch {
	case strings.HasPrefix(errStr, "flag needs an argument:"):
		flagName := strings.TrimSpace(strings.TrimPrefix(errStr, "flag needs an argument:"))
		fmt.Fprintf(errOut, "error: flag needs an argument: %s\n", flagName)
	case strings.HasPrefix(errStr, "flag provided but not defined:"):
		flagName := strings.TrimPrefix(errStr, "flag provided but not defined: ")
		fmt.Fprintf(errOut, "error: unknown flag: %s\n", flagName)
	default:
		fmt.Fprintf(errOut, "error: %s\n", errStr)
	}
	return exitcode.UserError
}
