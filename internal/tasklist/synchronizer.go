// Package tasklist keeps a local, ordered copy of the user's tasks in step
// with the server.
//
// Every mutation is request-then-reconcile: the remote call is made first and
// the local collection only changes once the server has answered, using the
// server's task as the authoritative value. Nothing is applied optimistically.
package tasklist

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"taskmagic/internal/service"
)

// DefaultPrompt is sent to the generator when the caller has none.
const DefaultPrompt = "anything"

// DefaultEstimatedHours is the effort attached to tasks created here.
const DefaultEstimatedHours = 1

var (
	// ErrNotLoaded is returned by every operation before the first Load.
	ErrNotLoaded = errors.New("task list not loaded")

	// ErrEmptyTitle is returned by Create for blank titles. No request is made.
	ErrEmptyTitle = errors.New("title required")

	// ErrInFlight is returned when the same operation is already running.
	ErrInFlight = errors.New("operation already in progress")

	// ErrUnknownTask is returned for ids that are not in the local collection.
	ErrUnknownTask = errors.New("task not in list")

	// ErrTaskGone is returned by Toggle when the server no longer has the
	// task. The list has been reloaded by then. It also matches
	// service.ErrNotFound.
	ErrTaskGone = errors.New("task no longer exists")
)

// Remote is the subset of service.Service the synchronizer drives.
type Remote interface {
	ListTasks(ctx context.Context) ([]service.Task, error)
	CreateTask(ctx context.Context, t service.NewTask) (service.Task, error)
	GenerateTasks(ctx context.Context, prompt string) ([]service.Task, error)
	UpdateStatus(ctx context.Context, id string, status service.Status) (service.Task, error)
	DeleteTask(ctx context.Context, id string) error
}

// Stats are counts derived from the current collection.
type Stats struct {
	Total     int
	Active    int // status is anything but Done
	Completed int
	High      int
}

// Synchronizer owns the local task collection. It is safe for concurrent use;
// overlapping calls for the same operation are refused with ErrInFlight
// rather than raced. Load runs alone: it is refused while any mutation is in
// flight, and mutations are refused while it runs.
type Synchronizer struct {
	remote Remote
	logger *zap.Logger

	mu       sync.Mutex
	loaded   bool
	tasks    []service.Task // newest client-created first
	gen      uint64         // bumped on every local mutation
	inflight map[string]struct{}
}

// New creates an empty, unloaded synchronizer.
func New(remote Remote, logger *zap.Logger) *Synchronizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Synchronizer{
		remote:   remote,
		logger:   logger,
		inflight: make(map[string]struct{}),
	}
}

const (
	keyLoad     = "load"
	keyCreate   = "create"
	keyGenerate = "generate"
)

func taskKey(id string) string { return "task:" + id }

// begin claims an in-flight key. needLoaded guards against use before Load.
func (s *Synchronizer) begin(key string, needLoaded bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if needLoaded && !s.loaded {
		return ErrNotLoaded
	}
	if _, busy := s.inflight[key]; busy {
		return ErrInFlight
	}
	if _, loading := s.inflight[keyLoad]; loading {
		return ErrInFlight
	}
	if key == keyLoad && len(s.inflight) > 0 {
		return ErrInFlight
	}
	s.inflight[key] = struct{}{}
	return nil
}

func (s *Synchronizer) end(key string) {
	s.mu.Lock()
	delete(s.inflight, key)
	s.mu.Unlock()
}

// Load fetches the full collection and replaces local state with it.
func (s *Synchronizer) Load(ctx context.Context) error {
	if err := s.begin(keyLoad, false); err != nil {
		return err
	}
	defer s.end(keyLoad)
	return s.reload(ctx)
}

// reload replaces the collection with the server's. A listing that was
// requested before a local mutation landed is stale and is dropped.
func (s *Synchronizer) reload(ctx context.Context) error {
	s.mu.Lock()
	start := s.gen
	s.mu.Unlock()

	tasks, err := s.remote.ListTasks(ctx)
	if err != nil {
		return err
	}

	seen := make(map[string]struct{}, len(tasks))
	fresh := make([]service.Task, 0, len(tasks))
	for _, t := range tasks {
		if _, dup := seen[t.ID]; dup {
			s.logger.Warn("server listed task twice", zap.String("id", t.ID))
			continue
		}
		seen[t.ID] = struct{}{}
		fresh = append(fresh, t)
	}

	s.mu.Lock()
	if s.loaded && s.gen != start {
		s.mu.Unlock()
		s.logger.Debug("dropping stale task list", zap.Int("count", len(fresh)))
		return nil
	}
	s.tasks = fresh
	s.loaded = true
	s.mu.Unlock()

	s.logger.Debug("task list loaded", zap.Int("count", len(fresh)))
	return nil
}

// Create adds a task with the given title and priority once the server has
// confirmed it. An empty priority means Medium.
func (s *Synchronizer) Create(ctx context.Context, title string, priority service.Priority) (service.Task, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return service.Task{}, ErrEmptyTitle
	}
	p, ok := service.ParsePriority(string(priority))
	if !ok {
		return service.Task{}, fmt.Errorf("%w: unknown priority %q", service.ErrValidation, priority)
	}

	if err := s.begin(keyCreate, true); err != nil {
		return service.Task{}, err
	}
	defer s.end(keyCreate)

	task, err := s.remote.CreateTask(ctx, service.NewTask{
		Title:          title,
		Description:    "",
		Status:         service.StatusTodo,
		Priority:       p,
		EstimatedHours: DefaultEstimatedHours,
	})
	if err != nil {
		return service.Task{}, err
	}
	if err := checkID(task); err != nil {
		return service.Task{}, err
	}

	s.mu.Lock()
	s.prepend(task)
	s.mu.Unlock()
	return task, nil
}

// Generate asks the server for generated tasks and prepends them in the order
// received. An empty prompt means DefaultPrompt.
func (s *Synchronizer) Generate(ctx context.Context, prompt string) ([]service.Task, error) {
	if strings.TrimSpace(prompt) == "" {
		prompt = DefaultPrompt
	}
	if err := s.begin(keyGenerate, true); err != nil {
		return nil, err
	}
	defer s.end(keyGenerate)

	tasks, err := s.remote.GenerateTasks(ctx, prompt)
	if err != nil {
		return nil, err
	}
	for _, t := range tasks {
		if err := checkID(t); err != nil {
			return nil, err
		}
	}

	s.mu.Lock()
	for i := len(tasks) - 1; i >= 0; i-- {
		s.prepend(tasks[i])
	}
	s.mu.Unlock()
	return tasks, nil
}

// Delete removes a task on the server, then locally. A task the server no
// longer knows counts as deleted; the list is reloaded to pick up whatever
// else changed.
func (s *Synchronizer) Delete(ctx context.Context, id string) error {
	if err := s.begin(taskKey(id), true); err != nil {
		return err
	}
	defer s.end(taskKey(id))

	if _, ok := s.Find(id); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTask, id)
	}

	err := s.remote.DeleteTask(ctx, id)
	switch {
	case err == nil:
		s.mu.Lock()
		s.remove(id)
		s.mu.Unlock()
		return nil
	case errors.Is(err, service.ErrNotFound):
		s.logger.Debug("task already gone on server", zap.String("id", id))
		s.mu.Lock()
		s.remove(id)
		s.mu.Unlock()
		return s.reload(ctx)
	default:
		return err
	}
}

// Toggle advances a task's status one step and replaces the local entry with
// the task the server returns. If the server no longer has the task the list
// is reloaded and an error wrapping ErrTaskGone is returned.
func (s *Synchronizer) Toggle(ctx context.Context, id string) (service.Task, error) {
	if err := s.begin(taskKey(id), true); err != nil {
		return service.Task{}, err
	}
	defer s.end(taskKey(id))

	current, ok := s.Find(id)
	if !ok {
		return service.Task{}, fmt.Errorf("%w: %s", ErrUnknownTask, id)
	}
	if !current.Status.Known() {
		// Unknown states share Done's successor.
		s.logger.Warn("unknown task status, cycling to To-Do",
			zap.String("id", id), zap.String("status", string(current.Status)))
	}
	next := service.NextStatus(current.Status)

	task, err := s.remote.UpdateStatus(ctx, id, next)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			s.mu.Lock()
			s.remove(id)
			s.mu.Unlock()
			if rerr := s.reload(ctx); rerr != nil {
				return service.Task{}, rerr
			}
			return service.Task{}, fmt.Errorf("%w: %s: %w", ErrTaskGone, id, err)
		}
		return service.Task{}, err
	}
	if err := checkID(task); err != nil {
		return service.Task{}, err
	}

	s.mu.Lock()
	s.replace(id, task)
	s.mu.Unlock()
	return task, nil
}

// Tasks returns a copy of the collection in display order.
func (s *Synchronizer) Tasks() []service.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]service.Task, len(s.tasks))
	copy(out, s.tasks)
	return out
}

// Find returns the task with the given id.
func (s *Synchronizer) Find(id string) (service.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.index(id); i >= 0 {
		return s.tasks[i], true
	}
	return service.Task{}, false
}

// Stats recomputes the derived counts from the current collection.
func (s *Synchronizer) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Count(s.tasks)
}

// Count derives Stats from tasks.
func Count(tasks []service.Task) Stats {
	st := Stats{Total: len(tasks)}
	for _, t := range tasks {
		if t.Status == service.StatusDone {
			st.Completed++
		} else {
			st.Active++
		}
		if t.Priority == service.PriorityHigh {
			st.High++
		}
	}
	return st
}

// checkID rejects server tasks without an identifier; ids are never invented
// client-side.
func checkID(t service.Task) error {
	if t.ID == "" {
		return fmt.Errorf("server returned task %q without an id", t.Title)
	}
	return nil
}

// The helpers below expect s.mu to be held.

func (s *Synchronizer) index(id string) int {
	for i, t := range s.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// prepend puts t first, dropping any existing entry with the same id.
func (s *Synchronizer) prepend(t service.Task) {
	s.gen++
	s.remove(t.ID)
	s.tasks = append([]service.Task{t}, s.tasks...)
}

func (s *Synchronizer) remove(id string) {
	if i := s.index(id); i >= 0 {
		s.gen++
		s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
	}
}

// replace swaps the entry for id with t, keeping its position.
func (s *Synchronizer) replace(id string, t service.Task) {
	if i := s.index(id); i >= 0 {
		s.gen++
		s.tasks[i] = t
		return
	}
	s.prepend(t)
}
