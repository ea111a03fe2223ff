package cli_test

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"taskmagic/internal/backend/taskapi"
	"taskmagic/internal/cli"
	"taskmagic/internal/commands"
	"taskmagic/internal/config"
	"taskmagic/internal/exitcode"
	"taskmagic/internal/service"
	"taskmagic/internal/session"
	"taskmagic/internal/testutil"
)

// testFactory creates a service factory that returns the given FakeService
// and counts how often it was called.
func testFactory(svc *testutil.FakeService, calls *int) cli.ServiceFactory {
	return func(ctx context.Context, cfg *config.Config, sess *session.Session) (service.Service, error) {
		if calls != nil {
			*calls++
		}
		return svc, nil
	}
}

// apiFactory wires the real HTTP client, as main does.
func apiFactory(ctx context.Context, cfg *config.Config, sess *session.Session) (service.Service, error) {
	return taskapi.New(ctx, cfg, sess)
}

func run(d *cli.Dispatcher, args ...string) (stdout, stderr string, code int) {
	var outBuf, errBuf bytes.Buffer
	code = d.Run(context.Background(), args, &outBuf, &errBuf)
	return outBuf.String(), errBuf.String(), code
}

func writeToken(t *testing.T, dir string) {
	t.Helper()
	if err := session.NewStore(filepath.Join(dir, config.TokenFile)).Save(session.New("tok")); err != nil {
		t.Fatalf("failed to save token: %v", err)
	}
}

func TestDispatcher_UnknownCommand(t *testing.T) {
	svc := testutil.NewFakeService()
	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, testFactory(svc, nil))

	_, stderr, code := run(dispatcher, "unknowncmd")

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	expected := "error: unknown command: unknowncmd\n"
	if stderr != expected {
		t.Errorf("expected %q, got %q", expected, stderr)
	}
}

func TestDispatcher_FlagBeforeCommand(t *testing.T) {
	svc := testutil.NewFakeService()
	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, testFactory(svc, nil))

	_, stderr, code := run(dispatcher, "--quiet")

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	expected := "error: unknown command: --quiet\n"
	if stderr != expected {
		t.Errorf("expected %q, got %q", expected, stderr)
	}
}

func TestDispatcher_HelpCommand(t *testing.T) {
	svc := testutil.NewFakeService()
	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, testFactory(svc, nil))

	stdout, stderr, code := run(dispatcher, "help", "--config", t.TempDir())

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stderr != "" {
		t.Errorf("expected no stderr, got %q", stderr)
	}
	if !bytes.Contains([]byte(stdout), []byte("Usage:")) {
		t.Error("expected help output to contain 'Usage:'")
	}
}

func TestDispatcher_VersionCommand(t *testing.T) {
	svc := testutil.NewFakeService()
	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, testFactory(svc, nil))

	stdout, stderr, code := run(dispatcher, "version", "--config", t.TempDir())

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stderr != "" {
		t.Errorf("expected no stderr, got %q", stderr)
	}
	if stdout != "taskmagic 0.1.0\n" {
		t.Errorf("expected 'taskmagic 0.1.0\\n', got %q", stdout)
	}
}

func TestDispatcher_UnknownFlag(t *testing.T) {
	svc := testutil.NewFakeService()
	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, testFactory(svc, nil))

	_, stderr, code := run(dispatcher, "help", "--unknown")

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	expected := "error: unknown flag: -unknown\n"
	if stderr != expected {
		t.Errorf("expected %q, got %q", expected, stderr)
	}
}

func TestDispatcher_FlagNeedsArgument(t *testing.T) {
	svc := testutil.NewFakeService()
	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, testFactory(svc, nil))

	_, stderr, code := run(dispatcher, "add", "--priority")

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	expected := "error: flag needs an argument: -priority\n"
	if stderr != expected {
		t.Errorf("expected %q, got %q", expected, stderr)
	}
}

func TestDispatcher_NotLoggedIn(t *testing.T) {
	svc := testutil.NewFakeService()
	var calls int
	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, testFactory(svc, &calls))

	for _, args := range [][]string{
		{"list", "--config", t.TempDir()},
		{"add", "--config", t.TempDir(), "Buy milk"},
		{"toggle", "--config", t.TempDir(), "1"},
	} {
		_, stderr, code := run(dispatcher, args...)

		if code != exitcode.AuthError {
			t.Errorf("%v: expected exit code %d, got %d", args, exitcode.AuthError, code)
		}
		if stderr != "error: not logged in (run: taskmagic login)\n" {
			t.Errorf("%v: unexpected stderr %q", args, stderr)
		}
	}
	if calls != 0 {
		t.Errorf("expected no backend to be built, got %d", calls)
	}
	if n := len(svc.Calls()); n != 0 {
		t.Errorf("expected no service calls, got %v", svc.Calls())
	}
}

func TestDispatcher_CorruptSession(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, config.TokenFile), []byte("{not json"), 0600); err != nil {
		t.Fatalf("failed to write token.json: %v", err)
	}
	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, testFactory(testutil.NewFakeService(), nil))

	_, _, code := run(dispatcher, "list", "--config", dir)

	if code != exitcode.AuthError {
		t.Errorf("expected exit code %d, got %d", exitcode.AuthError, code)
	}
}

func TestDispatcher_FactoryError(t *testing.T) {
	dir := t.TempDir()
	writeToken(t, dir)
	factory := func(ctx context.Context, cfg *config.Config, sess *session.Session) (service.Service, error) {
		return nil, errors.New("invalid api_url")
	}
	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, factory)

	_, stderr, code := run(dispatcher, "list", "--config", dir)

	if code != exitcode.BackendError {
		t.Errorf("expected exit code %d, got %d", exitcode.BackendError, code)
	}
	if stderr != "error: backend error: invalid api_url\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

func TestDispatcher_NoArgsLists(t *testing.T) {
	svc := testutil.NewFakeService()
	home := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", home)
	writeToken(t, filepath.Join(home, config.AppName))

	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, testFactory(svc, nil))

	stdout, stderr, code := run(dispatcher)

	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d (stderr %q)", exitcode.Success, code, stderr)
	}
	if stdout != "no tasks found\n" {
		t.Errorf("expected 'no tasks found\\n', got %q", stdout)
	}
}

func TestDispatcher_EndToEnd(t *testing.T) {
	api := testutil.NewFakeAPI(t)
	api.AddUser("ada@example.com", "secret")
	t.Setenv("TASKMAGIC_API_URL", api.URL())

	dir := t.TempDir()
	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, apiFactory)

	stdout, stderr, code := run(dispatcher, "login", "--config", dir, "--email", "ada@example.com", "--password", "secret")
	if code != exitcode.Success {
		t.Fatalf("login: expected exit code %d, got %d (stderr %q)", exitcode.Success, code, stderr)
	}
	if stdout != "ok\n" {
		t.Errorf("login: expected 'ok\\n', got %q", stdout)
	}

	if _, stderr, code = run(dispatcher, "add", "--config", dir, "-p", "high", "Buy", "milk"); code != exitcode.Success {
		t.Fatalf("add: expected exit code %d, got %d (stderr %q)", exitcode.Success, code, stderr)
	}
	if _, stderr, code = run(dispatcher, "add", "--config", dir, "Call mom"); code != exitcode.Success {
		t.Fatalf("add: expected exit code %d, got %d (stderr %q)", exitcode.Success, code, stderr)
	}

	stdout, stderr, code = run(dispatcher, "toggle", "--config", dir, "1")
	if code != exitcode.Success {
		t.Fatalf("toggle: expected exit code %d, got %d (stderr %q)", exitcode.Success, code, stderr)
	}
	if stdout != "In Progress\n" {
		t.Errorf("toggle: expected 'In Progress\\n', got %q", stdout)
	}

	// The server keeps insertion order: Buy milk first, Call mom second.
	stdout, stderr, code = run(dispatcher, "ls", "--config", dir)
	if code != exitcode.Success {
		t.Fatalf("list: expected exit code %d, got %d (stderr %q)", exitcode.Success, code, stderr)
	}
	want := "   1  [~] Buy milk  (High, 1h)\n" +
		"   2  [ ] Call mom  (Medium, 1h)\n" +
		"------------\n" +
		"active 2  completed 0  high priority 1\n"
	if stdout != want {
		t.Errorf("list: expected %q, got %q", want, stdout)
	}

	if _, stderr, code = run(dispatcher, "rm", "--config", dir, "2"); code != exitcode.Success {
		t.Fatalf("rm: expected exit code %d, got %d (stderr %q)", exitcode.Success, code, stderr)
	}
	if n := len(api.Tasks()); n != 1 {
		t.Errorf("expected 1 task left on the server, got %d", n)
	}
}

func TestDispatcher_RevokedTokenForcesLogin(t *testing.T) {
	api := testutil.NewFakeAPI(t)
	api.IssueToken("tok")
	t.Setenv("TASKMAGIC_API_URL", api.URL())

	dir := t.TempDir()
	writeToken(t, dir)
	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, apiFactory)

	if _, stderr, code := run(dispatcher, "list", "--config", dir); code != exitcode.Success {
		t.Fatalf("list: expected exit code %d, got %d (stderr %q)", exitcode.Success, code, stderr)
	}

	api.RevokeTokens()
	_, stderr, code := run(dispatcher, "list", "--config", dir)
	if code != exitcode.AuthError {
		t.Errorf("expected exit code %d, got %d", exitcode.AuthError, code)
	}
	if stderr != "error: token expired or revoked (run: taskmagic login)\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
	if _, err := os.Stat(filepath.Join(dir, config.TokenFile)); !os.IsNotExist(err) {
		t.Error("expected token.json to be removed")
	}

	_, stderr, code = run(dispatcher, "list", "--config", dir)
	if code != exitcode.AuthError || stderr != "error: not logged in (run: taskmagic login)\n" {
		t.Errorf("expected not-logged-in after revocation, got %d %q", code, stderr)
	}
}

func TestDispatcher_NotFoundOutsideTaskIsBackendError(t *testing.T) {
	api := testutil.NewFakeAPI(t)
	api.IssueToken("tok")
	t.Setenv("TASKMAGIC_API_URL", api.URL())

	dir := t.TempDir()
	writeToken(t, dir)
	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, apiFactory)

	api.FailNext("GET /tasks", http.StatusNotFound)
	_, stderr, code := run(dispatcher, "list", "--config", dir)
	if code != exitcode.BackendError {
		t.Errorf("list: expected exit code %d, got %d", exitcode.BackendError, code)
	}
	if stderr != "error: backend error: not found: server returned 404: injected failure\n" {
		t.Errorf("list: unexpected stderr %q", stderr)
	}

	api.FailNext("POST /tasks", http.StatusNotFound)
	_, stderr, code = run(dispatcher, "add", "--config", dir, "x")
	if code != exitcode.BackendError {
		t.Errorf("add: expected exit code %d, got %d", exitcode.BackendError, code)
	}
	if stderr != "error: backend error: not found: server returned 404: injected failure\n" {
		t.Errorf("add: unexpected stderr %q", stderr)
	}
	if n := len(api.Tasks()); n != 0 {
		t.Errorf("expected no tasks on the server, got %d", n)
	}
}

func TestDispatcher_ToggleVanishedTask(t *testing.T) {
	api := testutil.NewFakeAPI(t)
	api.IssueToken("tok")
	api.Seed("Buy milk", service.StatusTodo, service.PriorityMedium)
	t.Setenv("TASKMAGIC_API_URL", api.URL())

	dir := t.TempDir()
	writeToken(t, dir)
	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, apiFactory)

	api.FailNext("PUT /tasks/"+api.Tasks()[0].ID, http.StatusNotFound)
	_, stderr, code := run(dispatcher, "toggle", "--config", dir, "1")
	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if stderr != "error: task no longer exists (list refreshed)\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
}
