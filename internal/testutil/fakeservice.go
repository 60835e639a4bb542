// Package testutil provides testing utilities.
package testutil

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"taskctl/internal/service"
)

// ErrNotFound is returned when a task does not exist.
var ErrNotFound = &service.RemoteError{Op: "fake", StatusCode: 404, Err: errors.New("not found")}

// ErrBackend is a generic injected failure.
var ErrBackend = &service.RemoteError{Op: "fake", StatusCode: 500, Err: errors.New("internal server error")}

// Call records one invocation of the fake.
type Call struct {
	Op  string // "ListAll", "ListByStatus", "ListByPriority", "Search", "Get", "Create", "Update", "Delete"
	Arg string // filter value or task ID
}

// FakeService is an in-memory implementation of service.Service for testing.
// Filtering mirrors the server: exact status/priority match, case-insensitive
// title substring for search.
type FakeService struct {
	mu     sync.Mutex
	tasks  []service.Task
	nextID int
	calls  []Call
	now    time.Time

	// Error injection for testing
	ListErr   error
	GetErr    error
	CreateErr error
	UpdateErr error
	DeleteErr error

	// ListHook, when set, runs before every list call returns. It may block
	// to hold a call in flight.
	ListHook func(call Call)
}

// NewFakeService creates an empty FakeService.
func NewFakeService() *FakeService {
	return &FakeService{
		nextID: 1,
		now:    time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC),
	}
}

// AddTask seeds a task and returns it.
func (f *FakeService) AddTask(title string, status service.Status, priority service.Priority) service.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.insert(service.Draft{Title: title, Status: status, Priority: priority})
}

func (f *FakeService) insert(d service.Draft) service.Task {
	ts := service.Timestamp{Time: f.now.Add(time.Duration(f.nextID) * time.Minute)}
	t := service.Task{
		ID:          service.TaskID(strconv.Itoa(f.nextID)),
		Title:       d.Title,
		Description: d.Description,
		Status:      d.Status,
		Priority:    d.Priority,
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}
	if t.Status == "" {
		t.Status = service.StatusPending
	}
	if t.Priority == "" {
		t.Priority = service.PriorityMedium
	}
	f.nextID++
	f.tasks = append(f.tasks, t)
	return t
}

// Tasks returns a copy of every stored task.
func (f *FakeService) Tasks() []service.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]service.Task(nil), f.tasks...)
}

// Calls returns the calls made so far.
func (f *FakeService) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// ListCalls returns only the list-style calls.
func (f *FakeService) ListCalls() []Call {
	var out []Call
	for _, c := range f.Calls() {
		switch c.Op {
		case "ListAll", "ListByStatus", "ListByPriority", "Search":
			out = append(out, c)
		}
	}
	return out
}

// ResetCalls forgets recorded calls.
func (f *FakeService) ResetCalls() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
}

func (f *FakeService) record(op, arg string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, Call{Op: op, Arg: arg})
}

func (f *FakeService) list(call Call, keep func(service.Task) bool) ([]service.Task, error) {
	f.record(call.Op, call.Arg)
	if f.ListHook != nil {
		f.ListHook(call)
	}
	if f.ListErr != nil {
		return nil, f.ListErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []service.Task{}
	for _, t := range f.tasks {
		if keep(t) {
			out = append(out, t)
		}
	}
	return out, nil
}

// ListAll implements service.Service.
func (f *FakeService) ListAll(ctx context.Context) ([]service.Task, error) {
	return f.list(Call{Op: "ListAll"}, func(service.Task) bool { return true })
}

// ListByStatus implements service.Service.
func (f *FakeService) ListByStatus(ctx context.Context, status service.Status) ([]service.Task, error) {
	return f.list(Call{Op: "ListByStatus", Arg: string(status)}, func(t service.Task) bool {
		return t.Status == status
	})
}

// ListByPriority implements service.Service.
func (f *FakeService) ListByPriority(ctx context.Context, priority service.Priority) ([]service.Task, error) {
	return f.list(Call{Op: "ListByPriority", Arg: string(priority)}, func(t service.Task) bool {
		return t.Priority == priority
	})
}

// Search implements service.Service.
func (f *FakeService) Search(ctx context.Context, text string) ([]service.Task, error) {
	needle := strings.ToLower(text)
	return f.list(Call{Op: "Search", Arg: text}, func(t service.Task) bool {
		return strings.Contains(strings.ToLower(t.Title), needle)
	})
}

// Get implements service.Service.
func (f *FakeService) Get(ctx context.Context, id service.TaskID) (service.Task, error) {
	f.record("Get", string(id))
	if f.GetErr != nil {
		return service.Task{}, f.GetErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.tasks {
		if t.ID == id {
			return t, nil
		}
	}
	return service.Task{}, ErrNotFound
}

// Create implements service.Service.
func (f *FakeService) Create(ctx context.Context, d service.Draft) (service.Task, error) {
	f.record("Create", d.Title)
	if f.CreateErr != nil {
		return service.Task{}, f.CreateErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.insert(d), nil
}

// Update implements service.Service.
func (f *FakeService) Update(ctx context.Context, id service.TaskID, d service.Draft) (service.Task, error) {
	f.record("Update", string(id))
	if f.UpdateErr != nil {
		return service.Task{}, f.UpdateErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, t := range f.tasks {
		if t.ID == id {
			t.Title = d.Title
			t.Description = d.Description
			t.Status = d.Status
			t.Priority = d.Priority
			t.UpdatedAt = service.Timestamp{Time: t.UpdatedAt.Add(time.Hour)}
			f.tasks[i] = t
			return t, nil
		}
	}
	return service.Task{}, ErrNotFound
}

// Delete implements service.Service.
func (f *FakeService) Delete(ctx context.Context, id service.TaskID) error {
	f.record("Delete", string(id))
	if f.DeleteErr != nil {
		return f.DeleteErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, t := range f.tasks {
		if t.ID == id {
			f.tasks = append(f.tasks[:i], f.tasks[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

// FakeAuth is an in-memory service.Authenticator.
type FakeAuth struct {
	mu    sync.Mutex
	users map[string]fakeUser

	LoginErr    error
	RegisterErr error
}

type fakeUser struct {
	email    string
	password string
}

// NewFakeAuth creates a FakeAuth with no accounts.
func NewFakeAuth() *FakeAuth {
	return &FakeAuth{users: make(map[string]fakeUser)}
}

// AddUser seeds an account.
func (a *FakeAuth) AddUser(username, email, password string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.users[username] = fakeUser{email: email, password: password}
}

// Login implements service.Authenticator.
func (a *FakeAuth) Login(ctx context.Context, username, password string) (service.Credentials, error) {
	if a.LoginErr != nil {
		return service.Credentials{}, a.LoginErr
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	u, ok := a.users[username]
	if !ok || u.password != password {
		return service.Credentials{}, &service.RemoteError{Op: "login", StatusCode: 401, Err: errors.New("Invalid username or password")}
	}
	return service.Credentials{Token: "token-" + username, Username: username, Email: u.email}, nil
}

// Register implements service.Authenticator.
func (a *FakeAuth) Register(ctx context.Context, username, email, password string) (service.Credentials, error) {
	if a.RegisterErr != nil {
		return service.Credentials{}, a.RegisterErr
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.users[username]; ok {
		return service.Credentials{}, &service.RemoteError{Op: "register", StatusCode: 500, Err: fmt.Errorf("Username already exists")}
	}
	a.users[username] = fakeUser{email: email, password: password}
	return service.Credentials{Token: "token-" + username, Username: username, Email: email}, nil
}

// FakeBackend combines FakeService and FakeAuth into a service.Backend.
type FakeBackend struct {
	*FakeService
	*FakeAuth
}

// NewFakeBackend creates an empty FakeBackend.
func NewFakeBackend() *FakeBackend {
	return &FakeBackend{FakeService: NewFakeService(), FakeAuth: NewFakeAuth()}
}
