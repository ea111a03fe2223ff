// Package testutil provides testing utilities.
package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"taskmagic/internal/service"
)

// FakeService is an in-memory implementation of service.Service for testing.
// It behaves like the server: it assigns IDs and is the source of truth.
type FakeService struct {
	mu     sync.RWMutex
	tasks  []service.Task
	nextID int
	users  map[string]string // email -> password
	calls  []string

	// Generated is what GenerateTasks creates, in order.
	Generated []service.NewTask

	// Error injection for testing
	LoginErr         error
	ListTasksErr     error
	CreateTaskErr    error
	GenerateTasksErr error
	UpdateStatusErr  error
	DeleteTaskErr    error

	// MissingToken makes Login succeed at the transport level but return no token.
	MissingToken bool
}

// NewFakeService creates an empty FakeService.
func NewFakeService() *FakeService {
	return &FakeService{
		users: make(map[string]string),
		Generated: []service.NewTask{
			{Title: "Plan the week", Status: service.StatusTodo, Priority: service.PriorityHigh, EstimatedHours: 2},
			{Title: "Tidy the inbox", Status: service.StatusTodo, Priority: service.PriorityLow, EstimatedHours: 1},
		},
	}
}

// AddUser registers credentials accepted by Login.
func (f *FakeService) AddUser(email, password string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[email] = password
}

// AddTask stores a task in server order and returns its assigned ID.
func (f *FakeService) AddTask(title string, status service.Status, priority service.Priority) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := f.insert(service.NewTask{Title: title, Status: status, Priority: priority, EstimatedHours: 1})
	return t.ID
}

// Tasks returns a copy of the server-side tasks.
func (f *FakeService) Tasks() []service.Task {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]service.Task, len(f.tasks))
	copy(out, f.tasks)
	return out
}

// Calls returns the names of the methods called so far.
func (f *FakeService) Calls() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}

// Remove deletes a task behind the client's back, as another client would.
func (f *FakeService) Remove(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if i := f.index(id); i >= 0 {
		f.tasks = append(f.tasks[:i], f.tasks[i+1:]...)
	}
}

func (f *FakeService) insert(nt service.NewTask) service.Task {
	f.nextID++
	t := service.Task{
		ID:             fmt.Sprintf("t%d", f.nextID),
		Title:          nt.Title,
		Description:    nt.Description,
		Status:         nt.Status,
		Priority:       nt.Priority,
		EstimatedHours: nt.EstimatedHours,
	}
	f.tasks = append(f.tasks, t)
	return t
}

func (f *FakeService) index(id string) int {
	for i, t := range f.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func (f *FakeService) record(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, name)
}

// Login implements service.Service.
func (f *FakeService) Login(ctx context.Context, email, password string) (string, error) {
	f.record("Login")
	if f.LoginErr != nil {
		return "", f.LoginErr
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.MissingToken {
		return "", service.ErrLoginFailed
	}
	if pw, ok := f.users[email]; !ok || pw != password {
		return "", service.ErrLoginFailed
	}
	return "token-" + strings.ToLower(email), nil
}

// ListTasks implements service.Service.
func (f *FakeService) ListTasks(ctx context.Context) ([]service.Task, error) {
	f.record("ListTasks")
	if f.ListTasksErr != nil {
		return nil, f.ListTasksErr
	}
	return f.Tasks(), nil
}

// CreateTask implements service.Service.
func (f *FakeService) CreateTask(ctx context.Context, nt service.NewTask) (service.Task, error) {
	f.record("CreateTask")
	if f.CreateTaskErr != nil {
		return service.Task{}, f.CreateTaskErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.insert(nt), nil
}

// GenerateTasks implements service.Service.
func (f *FakeService) GenerateTasks(ctx context.Context, prompt string) ([]service.Task, error) {
	f.record("GenerateTasks")
	if f.GenerateTasksErr != nil {
		return nil, f.GenerateTasksErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []service.Task
	for _, nt := range f.Generated {
		out = append(out, f.insert(nt))
	}
	return out, nil
}

// UpdateStatus implements service.Service.
func (f *FakeService) UpdateStatus(ctx context.Context, id string, status service.Status) (service.Task, error) {
	f.record("UpdateStatus")
	if f.UpdateStatusErr != nil {
		return service.Task{}, f.UpdateStatusErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.index(id)
	if i < 0 {
		return service.Task{}, service.ErrNotFound
	}
	f.tasks[i].Status = status
	return f.tasks[i], nil
}

// DeleteTask implements service.Service.
func (f *FakeService) DeleteTask(ctx context.Context, id string) error {
	f.record("DeleteTask")
	if f.DeleteTaskErr != nil {
		return f.DeleteTaskErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.index(id)
	if i < 0 {
		return service.ErrNotFound
	}
	f.tasks = append(f.tasks[:i], f.tasks[i+1:]...)
	return nil
}
