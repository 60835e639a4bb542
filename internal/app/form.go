package app

import (
	"context"
	"errors"
	"strings"
	"sync"

	"taskctl/internal/service"
)

// ErrTitleRequired is returned by Submit when the title is blank.
var ErrTitleRequired = errors.New("title required")

// Form holds the draft being edited. It starts blank, mirrors the task
// selected for editing, and resets to blank whenever the selection goes away.
type Form struct {
	ctrl *Controller

	mu      sync.Mutex
	draft   service.Draft
	editing bool
	unsubs  []func()
}

// NewForm attaches a form to ctrl.
func NewForm(ctrl *Controller) *Form {
	f := &Form{ctrl: ctrl, draft: service.NewDraft()}
	if sel := ctrl.State().Editing; sel != nil {
		f.mirror(*sel)
	}
	f.unsubs = append(f.unsubs,
		ctrl.OnEdit(f.mirror),
		ctrl.OnChange(func(st State) {
			if st.Editing == nil {
				f.release()
			}
		}),
	)
	return f
}

// Close detaches the form from its controller.
func (f *Form) Close() {
	f.mu.Lock()
	unsubs := f.unsubs
	f.unsubs = nil
	f.mu.Unlock()
	for _, unsub := range unsubs {
		unsub()
	}
}

func (f *Form) mirror(t service.Task) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.draft = service.DraftFrom(t)
	f.editing = true
}

// release resets the draft once the selection it mirrored is gone.
func (f *Form) release() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.editing {
		return
	}
	f.draft = service.NewDraft()
	f.editing = false
}

func (f *Form) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.draft = service.NewDraft()
}

// Draft returns the current draft.
func (f *Form) Draft() service.Draft {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.draft
}

// Editing returns the task being edited, or nil in create mode.
func (f *Form) Editing() *service.Task {
	return f.ctrl.State().Editing
}

func (f *Form) SetTitle(title string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.draft.Title = title
}

func (f *Form) SetDescription(description string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.draft.Description = description
}

func (f *Form) SetStatus(status service.Status) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.draft.Status = status
}

func (f *Form) SetPriority(priority service.Priority) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.draft.Priority = priority
}

// Submit sends the draft: an update when a task is selected, a create
// otherwise. The draft is reset only on success, so a failed submission
// keeps what was typed. A blank title is rejected before any remote call.
func (f *Form) Submit(ctx context.Context) (bool, error) {
	d := f.Draft()
	if strings.TrimSpace(d.Title) == "" {
		return false, ErrTitleRequired
	}

	var ok bool
	if sel := f.ctrl.State().Editing; sel != nil {
		ok = f.ctrl.Update(ctx, sel.ID, d)
	} else {
		ok = f.ctrl.Create(ctx, d)
	}
	if ok {
		f.reset()
	}
	return ok, nil
}

// Cancel resets the draft and clears the edit selection.
func (f *Form) Cancel() {
	f.reset()
	f.mu.Lock()
	f.editing = false
	f.mu.Unlock()
	f.ctrl.CancelEdit()
}
