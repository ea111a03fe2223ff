package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"

	"taskmagic/internal/service"
)

// FakeAPI is an HTTP server speaking the Task Magic API, backed by memory.
// Routes live under /api like the real server.
type FakeAPI struct {
	server *httptest.Server

	mu       sync.Mutex
	users    map[string]string // email -> password
	tokens   map[string]bool
	tasks    []service.Task
	nextID   int
	calls    []string
	headers  []http.Header
	failNext map[string]int // "METHOD /path" -> status
}

// NewFakeAPI starts a FakeAPI that is shut down when the test ends.
func NewFakeAPI(t testing.TB) *FakeAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	f := &FakeAPI{
		users:    make(map[string]string),
		tokens:   make(map[string]bool),
		failNext: make(map[string]int),
	}

	r := gin.New()
	api := r.Group("/api")
	api.Use(f.recordRequest, f.injectFailure)
	{
		api.POST("/auth/login", f.login)

		tasks := api.Group("/tasks")
		tasks.Use(f.requireBearer)
		tasks.GET("", f.listTasks)
		tasks.POST("", f.createTask)
		tasks.POST("/ai", f.generateTasks)
		tasks.PUT("/:id", f.updateTask)
		tasks.DELETE("/:id", f.deleteTask)
	}

	f.server = httptest.NewServer(r)
	t.Cleanup(f.server.Close)
	return f
}

// URL returns the API base URL, e.g. http://127.0.0.1:1234/api.
func (f *FakeAPI) URL() string {
	return f.server.URL + "/api"
}

// AddUser registers credentials accepted by POST /auth/login.
func (f *FakeAPI) AddUser(email, password string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[email] = password
}

// IssueToken makes token valid without a login round trip.
func (f *FakeAPI) IssueToken(token string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens[token] = true
}

// RevokeTokens invalidates every issued token.
func (f *FakeAPI) RevokeTokens() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens = make(map[string]bool)
}

// Seed stores a task and returns it with its assigned ID.
func (f *FakeAPI) Seed(title string, status service.Status, priority service.Priority) service.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.insert(service.NewTask{Title: title, Status: status, Priority: priority, EstimatedHours: 1})
}

// Tasks returns a copy of the stored tasks.
func (f *FakeAPI) Tasks() []service.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]service.Task, len(f.tasks))
	copy(out, f.tasks)
	return out
}

// Calls returns "METHOD /path" for every request received, /api stripped.
func (f *FakeAPI) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}

// LastHeader returns the headers of the most recent request.
func (f *FakeAPI) LastHeader() http.Header {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.headers) == 0 {
		return nil
	}
	return f.headers[len(f.headers)-1]
}

// FailNext makes the next request to "METHOD /path" answer with status.
func (f *FakeAPI) FailNext(call string, status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failNext[call] = status
}

func (f *FakeAPI) insert(nt service.NewTask) service.Task {
	f.nextID++
	t := service.Task{
		ID:             fmt.Sprintf("%024x", f.nextID),
		Title:          nt.Title,
		Description:    nt.Description,
		Status:         nt.Status,
		Priority:       nt.Priority,
		EstimatedHours: nt.EstimatedHours,
	}
	f.tasks = append(f.tasks, t)
	return t
}

func (f *FakeAPI) index(id string) int {
	for i, t := range f.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func callKey(c *gin.Context) string {
	return c.Request.Method + " " + strings.TrimPrefix(c.Request.URL.Path, "/api")
}

func (f *FakeAPI) recordRequest(c *gin.Context) {
	f.mu.Lock()
	f.calls = append(f.calls, callKey(c))
	f.headers = append(f.headers, c.Request.Header.Clone())
	f.mu.Unlock()
	c.Next()
}

func (f *FakeAPI) injectFailure(c *gin.Context) {
	key := callKey(c)
	f.mu.Lock()
	status, ok := f.failNext[key]
	delete(f.failNext, key)
	f.mu.Unlock()
	if ok {
		c.AbortWithStatusJSON(status, errorBody(status, "injected failure"))
		return
	}
	c.Next()
}

func (f *FakeAPI) requireBearer(c *gin.Context) {
	token, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
	f.mu.Lock()
	valid := ok && f.tokens[token]
	f.mu.Unlock()
	if !valid {
		c.AbortWithStatusJSON(http.StatusUnauthorized, errorBody(http.StatusUnauthorized, "invalid token"))
		return
	}
	c.Next()
}

func errorBody(code int, msg string) gin.H {
	return gin.H{"error": gin.H{"code": code, "message": msg}}
}

func (f *FakeAPI) login(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid payload"})
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if pw, ok := f.users[req.Email]; !ok || pw != req.Password {
		// No token field; that is the only failure signal clients get.
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid credentials"})
		return
	}
	token := fmt.Sprintf("tok-%d", len(f.tokens)+1)
	f.tokens[token] = true
	c.JSON(http.StatusOK, gin.H{"token": token})
}

func (f *FakeAPI) listTasks(c *gin.Context) {
	c.JSON(http.StatusOK, f.Tasks())
}

func (f *FakeAPI) createTask(c *gin.Context) {
	var req service.NewTask
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Title) == "" {
		c.JSON(http.StatusBadRequest, errorBody(http.StatusBadRequest, "title is required"))
		return
	}
	f.mu.Lock()
	t := f.insert(req)
	f.mu.Unlock()
	c.JSON(http.StatusCreated, t)
}

func (f *FakeAPI) generateTasks(c *gin.Context) {
	var req struct {
		Prompt string `json:"prompt"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody(http.StatusBadRequest, "prompt is required"))
		return
	}
	f.mu.Lock()
	out := []service.Task{
		f.insert(service.NewTask{Title: "Plan the week", Status: service.StatusTodo, Priority: service.PriorityHigh, EstimatedHours: 2}),
		f.insert(service.NewTask{Title: "Tidy the inbox", Status: service.StatusTodo, Priority: service.PriorityLow, EstimatedHours: 1}),
	}
	f.mu.Unlock()
	c.JSON(http.StatusCreated, out)
}

func (f *FakeAPI) updateTask(c *gin.Context) {
	var req struct {
		Status service.Status `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody(http.StatusBadRequest, "status is required"))
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.index(c.Param("id"))
	if i < 0 {
		c.JSON(http.StatusNotFound, errorBody(http.StatusNotFound, "task not found"))
		return
	}
	f.tasks[i].Status = req.Status
	c.JSON(http.StatusOK, f.tasks[i])
}

func (f *FakeAPI) deleteTask(c *gin.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.index(c.Param("id"))
	if i < 0 {
		c.JSON(http.StatusNotFound, errorBody(http.StatusNotFound, "task not found"))
		return
	}
	f.tasks = append(f.tasks[:i], f.tasks[i+1:]...)
	c.JSON(http.StatusOK, gin.H{"message": "Task deleted"})
}
