package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"taskmagic/internal/config"
	"taskmagic/internal/exitcode"
	"taskmagic/internal/service"
	"taskmagic/internal/tasklist"
)

func init() {
	Register(&RmCmd{})
	Register(&ToggleCmd{})
}

// RmCmd implements the rm command.
type RmCmd struct{}

func (c *RmCmd) Name() string      { return "rm" }
func (c *RmCmd) Aliases() []string { return []string{"delete"} }
func (c *RmCmd) Synopsis() string  { return "Delete a task" }
func (c *RmCmd) Usage() string     { return "taskmagic rm [common flags] <ref>" }
func (c *RmCmd) NeedsAuth() bool   { return true }

func (c *RmCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *RmCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	s, task, code := resolveRef(ctx, cfg, svc, args, errOut)
	if s == nil {
		return code
	}

	if err := s.Delete(ctx, task.ID); err != nil {
		return reportError(cfg, errOut, err)
	}

	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}

// ToggleCmd implements the toggle command.
type ToggleCmd struct{}

func (c *ToggleCmd) Name() string      { return "toggle" }
func (c *ToggleCmd) Aliases() []string { return []string{"tick"} }
func (c *ToggleCmd) Synopsis() string  { return "Advance a task: To-Do, In Progress, Done, To-Do" }
func (c *ToggleCmd) Usage() string     { return "taskmagic toggle [common flags] <ref>" }
func (c *ToggleCmd) NeedsAuth() bool   { return true }

func (c *ToggleCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *ToggleCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	s, task, code := resolveRef(ctx, cfg, svc, args, errOut)
	if s == nil {
		return code
	}

	updated, err := s.Toggle(ctx, task.ID)
	if err != nil {
		return reportError(cfg, errOut, err)
	}

	if !cfg.Quiet {
		fmt.Fprintln(out, updated.Status)
	}
	return exitcode.Success
}

// resolveRef parses args, loads the list and finds the referenced task.
// On failure the synchronizer is nil and code is the exit code to return.
func resolveRef(ctx context.Context, cfg *config.Config, svc service.Service, args []string, errOut io.Writer) (*tasklist.Synchronizer, service.Task, int) {
	ref, err := ParseTaskRef(args)
	if err != nil {
		if errors.Is(err, ErrTaskRefRequired) {
			fmt.Fprintln(errOut, "error: task reference required")
		} else {
			fmt.Fprintf(errOut, "error: %v\n", err)
		}
		return nil, service.Task{}, exitcode.UserError
	}

	s, err := loadTasks(ctx, cfg, svc)
	if err != nil {
		return nil, service.Task{}, reportError(cfg, errOut, err)
	}

	task, err := ResolveTaskRef(s, ref)
	if err != nil {
		return nil, service.Task{}, reportError(cfg, errOut, err)
	}
	return s, task, exitcode.Success
}
