package app

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"taskctl/internal/service"
	"taskctl/internal/session"
)

// User-facing messages recorded when a remote call fails.
const (
	MsgFetchFailed  = "Failed to fetch tasks. Please try again."
	MsgCreateFailed = "Failed to create task. Please try again."
	MsgUpdateFailed = "Failed to update task. Please try again."
	MsgDeleteFailed = "Failed to delete task. Please try again."
)

// DeletePrompt is the question put to the Confirmer before a delete.
const DeletePrompt = "Are you sure you want to delete this task?"

// Confirmer approves irreversible actions.
type Confirmer interface {
	Confirm(prompt string) bool
}

// ConfirmFunc adapts a func to Confirmer.
type ConfirmFunc func(prompt string) bool

// Confirm implements Confirmer.
func (f ConfirmFunc) Confirm(prompt string) bool { return f(prompt) }

// State is a snapshot of the controller.
type State struct {
	Tasks         []service.Task
	Loading       bool
	Err           string
	Cause         error // failure behind Err, for diagnostics
	Editing       *service.Task
	Filter        Filter
	Authenticated bool
	DisplayName   string
}

// Controller owns the task collection, the loading and error flags and the
// edit selection. Every change in the filter re-queries the backend; every
// successful mutation is followed by a full refresh under the current filter.
//
// Methods are safe for concurrent use. The lock is never held across a
// backend call or while observers run.
type Controller struct {
	svc     service.Service
	sess    session.Manager
	filters *FilterState
	logger  *slog.Logger

	mu          sync.Mutex
	tasks       []service.Task
	loading     bool
	errMsg      string
	cause       error
	editing     *service.Task
	seq         uint64
	unsubscribe func()
	nextID      int
	listeners   map[int]func(State)
	editHooks   map[int]func(service.Task)
}

// NewController creates a controller. A nil sess is never authenticated.
// A nil filters gets a fresh FilterState; a nil logger discards.
func NewController(svc service.Service, sess session.Manager, filters *FilterState, logger *slog.Logger) *Controller {
	if filters == nil {
		filters = NewFilterState()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Controller{
		svc:       svc,
		sess:      sess,
		filters:   filters,
		logger:    logger,
		tasks:     []service.Task{},
		listeners: make(map[int]func(State)),
		editHooks: make(map[int]func(service.Task)),
	}
}

// Filters returns the filter state driving this controller.
func (c *Controller) Filters() *FilterState {
	return c.filters
}

// Start subscribes to filter changes and performs the startup refresh when
// the session is authenticated. Later filter changes refresh with ctx.
// Calling Start twice does not subscribe twice.
func (c *Controller) Start(ctx context.Context) {
	c.mu.Lock()
	if c.unsubscribe == nil {
		c.unsubscribe = c.filters.Subscribe(func(Filter) {
			c.Refresh(ctx)
		})
	}
	c.mu.Unlock()

	c.Refresh(ctx)
}

// Stop detaches the controller from filter changes.
func (c *Controller) Stop() {
	c.mu.Lock()
	unsub := c.unsubscribe
	c.unsubscribe = nil
	c.mu.Unlock()
	if unsub != nil {
		unsub()
	}
}

// State returns a snapshot. Tasks and Editing are copies.
func (c *Controller) State() State {
	sess := c.current()

	c.mu.Lock()
	defer c.mu.Unlock()

	st := State{
		Tasks:         append([]service.Task(nil), c.tasks...),
		Loading:       c.loading,
		Err:           c.errMsg,
		Cause:         c.cause,
		Filter:        c.filters.Get(),
		Authenticated: sess.Authenticated(),
	}
	if st.Tasks == nil {
		st.Tasks = []service.Task{}
	}
	if st.Authenticated {
		st.DisplayName = sess.DisplayName
	}
	if c.editing != nil {
		t := *c.editing
		st.Editing = &t
	}
	return st
}

// Task looks up id in the current collection.
func (c *Controller) Task(id service.TaskID) (service.Task, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, t := range c.tasks {
		if t.ID == id {
			return t, true
		}
	}
	return service.Task{}, false
}

// Refresh replaces the collection with the result of the one list call the
// current filter resolves to. It does nothing when unauthenticated.
// On failure the previous collection is kept and the fetch error recorded.
//
// Each refresh takes a sequence number; a refresh that resolves after a
// newer one was issued is discarded. Only the latest refresh clears Loading.
// Reports whether the fetch succeeded.
func (c *Controller) Refresh(ctx context.Context) bool {
	if !c.current().Authenticated() {
		return false
	}

	c.mu.Lock()
	c.seq++
	seq := c.seq
	c.loading = true
	c.errMsg = ""
	c.cause = nil
	q := c.filters.Get().Query()
	c.mu.Unlock()
	c.emit()

	tasks, err := q.Run(ctx, c.svc)

	c.mu.Lock()
	if seq != c.seq {
		c.mu.Unlock()
		c.logger.Debug("discarding stale refresh", "seq", seq, "query", q.Kind.String())
		return err == nil
	}
	c.loading = false
	if err != nil {
		c.errMsg = MsgFetchFailed
		c.cause = err
	} else {
		if tasks == nil {
			tasks = []service.Task{}
		}
		c.tasks = tasks
	}
	c.mu.Unlock()

	if err != nil {
		c.logger.Warn("error fetching tasks", "query", q.Kind.String(), "err", err)
	}
	c.emit()
	return err == nil
}

// reconcile re-fetches the current view after a successful mutation.
func (c *Controller) reconcile(ctx context.Context) {
	c.Refresh(ctx)
}

// Create stores d remotely and then refreshes. The form is reset by the
// caller only when this reports true.
func (c *Controller) Create(ctx context.Context, d service.Draft) bool {
	c.clearError()
	if _, err := c.svc.Create(ctx, d); err != nil {
		c.fail(MsgCreateFailed, "error creating task", err)
		return false
	}
	c.reconcile(ctx)
	return true
}

// Update replaces task id with d. On success the edit selection is cleared
// before the refresh; on failure it is kept so the form stays open.
func (c *Controller) Update(ctx context.Context, id service.TaskID, d service.Draft) bool {
	c.clearError()
	if _, err := c.svc.Update(ctx, id, d); err != nil {
		c.fail(MsgUpdateFailed, "error updating task", err)
		return false
	}

	c.mu.Lock()
	c.editing = nil
	c.mu.Unlock()
	c.emit()

	c.reconcile(ctx)
	return true
}

// Delete removes task id after confirm approves. A nil or declining
// Confirmer means no remote call. Reports whether the task was deleted.
func (c *Controller) Delete(ctx context.Context, id service.TaskID, confirm Confirmer) bool {
	if confirm == nil || !confirm.Confirm(DeletePrompt) {
		return false
	}

	c.clearError()
	if err := c.svc.Delete(ctx, id); err != nil {
		c.fail(MsgDeleteFailed, "error deleting task", err)
		return false
	}
	c.reconcile(ctx)
	return true
}

// BeginEdit selects t for editing and signals OnEdit hooks so the form can
// be brought forward.
func (c *Controller) BeginEdit(t service.Task) {
	c.mu.Lock()
	sel := t
	c.editing = &sel
	hooks := make([]func(service.Task), 0, len(c.editHooks))
	for _, id := range sortedKeys(c.editHooks) {
		hooks = append(hooks, c.editHooks[id])
	}
	c.mu.Unlock()

	c.emit()
	for _, fn := range hooks {
		fn(t)
	}
}

// CancelEdit clears the edit selection without any remote call.
// It is a no-op when nothing is selected.
func (c *Controller) CancelEdit() {
	c.mu.Lock()
	if c.editing == nil {
		c.mu.Unlock()
		return
	}
	c.editing = nil
	c.mu.Unlock()
	c.emit()
}

// DismissError clears the recorded error.
func (c *Controller) DismissError() {
	c.mu.Lock()
	if c.errMsg == "" {
		c.mu.Unlock()
		return
	}
	c.errMsg = ""
	c.cause = nil
	c.mu.Unlock()
	c.emit()
}

// Logout clears the stored session, empties the collection and drops the
// edit selection. Any refresh still in flight is discarded when it resolves.
func (c *Controller) Logout() error {
	var err error
	if c.sess != nil {
		err = c.sess.Clear()
	}

	c.mu.Lock()
	c.seq++
	c.tasks = []service.Task{}
	c.editing = nil
	c.loading = false
	c.errMsg = ""
	c.cause = nil
	c.mu.Unlock()

	c.emit()
	return err
}

// OnChange registers fn to receive a State after every transition.
// It returns a func that removes fn.
func (c *Controller) OnChange(fn func(State)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.listeners, id)
	}
}

// OnEdit registers fn to be called on every BeginEdit.
func (c *Controller) OnEdit(fn func(service.Task)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextID
	c.nextID++
	c.editHooks[id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.editHooks, id)
	}
}

func (c *Controller) current() session.Session {
	if c.sess == nil {
		return session.Session{}
	}
	return c.sess.Current()
}

func (c *Controller) clearError() {
	c.mu.Lock()
	had := c.errMsg != ""
	c.errMsg = ""
	c.cause = nil
	c.mu.Unlock()
	if had {
		c.emit()
	}
}

func (c *Controller) fail(msg, logMsg string, err error) {
	c.logger.Warn(logMsg, "err", err)
	c.mu.Lock()
	c.errMsg = msg
	c.cause = err
	c.mu.Unlock()
	c.emit()
}

func (c *Controller) emit() {
	c.mu.Lock()
	fns := make([]func(State), 0, len(c.listeners))
	for _, id := range sortedKeys(c.listeners) {
		fns = append(fns, c.listeners[id])
	}
	c.mu.Unlock()
	if len(fns) == 0 {
		return
	}

	st := c.State()
	for _, fn := range fns {
		fn(st)
	}
}

func sortedKeys[V any](m map[int]V) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
