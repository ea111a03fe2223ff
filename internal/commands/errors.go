package commands

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"taskmagic/internal/config"
	"taskmagic/internal/exitcode"
	"taskmagic/internal/service"
	"taskmagic/internal/session"
	"taskmagic/internal/tasklist"
)

// reportError prints err the way users see it and returns the exit code for
// its class. A rejected credential is removed so the next run starts at login.
func reportError(cfg *config.Config, errOut io.Writer, err error) int {
	switch {
	case errors.Is(err, context.Canceled):
		fmt.Fprintln(errOut, "error: cancelled")
		return exitcode.UserError

	case errors.Is(err, service.ErrNotLoggedIn):
		fmt.Fprintln(errOut, "error: not logged in (run: taskmagic login)")
		return exitcode.AuthError

	case errors.Is(err, service.ErrUnauthorized):
		if _, cerr := session.NewStore(cfg.TokenPath()).Clear(); cerr != nil {
			cfg.Log().Warn("failed to remove rejected token", zap.Error(cerr))
		}
		fmt.Fprintf(errOut, "error: %v (run: taskmagic login)\n", service.ErrUnauthorized)
		return exitcode.AuthError

	case errors.Is(err, tasklist.ErrEmptyTitle):
		fmt.Fprintln(errOut, "error: title required")
		return exitcode.UserError

	case errors.Is(err, tasklist.ErrTaskGone):
		fmt.Fprintln(errOut, "error: task no longer exists (list refreshed)")
		return exitcode.UserError

	case errors.Is(err, service.ErrValidation),
		errors.Is(err, tasklist.ErrInFlight),
		errors.Is(err, tasklist.ErrUnknownTask),
		errors.Is(err, ErrTaskNumOutOfRange):
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError

	case errors.Is(err, service.ErrTransient):
		fmt.Fprintf(errOut, "error: %v (try again)\n", err)
		return exitcode.NetworkError

	default:
		fmt.Fprintf(errOut, "error: backend error: %v\n", err)
		return exitcode.BackendError
	}
}

// loadTasks builds a synchronizer over svc and loads it.
func loadTasks(ctx context.Context, cfg *config.Config, svc service.Service) (*tasklist.Synchronizer, error) {
	if svc == nil {
		return nil, service.ErrNotLoggedIn
	}
	s := tasklist.New(svc, cfg.Log())
	if err := s.Load(ctx); err != nil {
		return nil, err
	}
	return s, nil
}
