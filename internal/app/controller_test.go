package app_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskctl/internal/app"
	"taskctl/internal/service"
	"taskctl/internal/testutil"
)

func newController(t *testing.T) (*app.Controller, *testutil.FakeService, *testutil.MemSession) {
	t.Helper()
	svc := testutil.NewFakeService()
	sess := testutil.NewMemSession("token-alice", "alice")
	ctrl := app.NewController(svc, sess, nil, nil)
	t.Cleanup(ctrl.Stop)
	return ctrl, svc, sess
}

func approve() app.Confirmer {
	return app.ConfirmFunc(func(string) bool { return true })
}

func titles(tasks []service.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.Title
	}
	return out
}

func TestControllerStartLoadsAllTasks(t *testing.T) {
	ctrl, svc, _ := newController(t)
	svc.AddTask("Buy milk", service.StatusPending, service.PriorityMedium)
	svc.AddTask("Write report", service.StatusInProgress, service.PriorityHigh)

	ctrl.Start(context.Background())

	st := ctrl.State()
	assert.Equal(t, []string{"Buy milk", "Write report"}, titles(st.Tasks))
	assert.False(t, st.Loading)
	assert.Empty(t, st.Err)
	assert.True(t, st.Authenticated)
	assert.Equal(t, "alice", st.DisplayName)
	assert.Equal(t, []testutil.Call{{Op: "ListAll"}}, svc.ListCalls())
}

func TestControllerUnauthenticatedDoesNotFetch(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask("Buy milk", service.StatusPending, service.PriorityMedium)
	ctrl := app.NewController(svc, testutil.NewMemSession("", ""), nil, nil)
	defer ctrl.Stop()

	ctrl.Start(context.Background())

	assert.False(t, ctrl.Refresh(context.Background()))
	assert.Empty(t, svc.Calls())
	st := ctrl.State()
	assert.Empty(t, st.Tasks)
	assert.False(t, st.Authenticated)
	assert.Empty(t, st.DisplayName)
}

func TestControllerFilterChangeRefreshesOnce(t *testing.T) {
	ctrl, svc, _ := newController(t)
	svc.AddTask("Buy milk", service.StatusPending, service.PriorityMedium)
	svc.AddTask("Write report", service.StatusCompleted, service.PriorityHigh)
	svc.AddTask("Call plumber", service.StatusPending, service.PriorityUrgent)

	ctrl.Start(context.Background())
	svc.ResetCalls()

	ctrl.Filters().Set(app.FilterUpdate{
		Status:   app.StatusPtr(service.StatusPending),
		Priority: app.PriorityPtr(service.PriorityUrgent),
	})

	// Status outranks priority; the priority is not sent.
	assert.Equal(t, []testutil.Call{{Op: "ListByStatus", Arg: "PENDING"}}, svc.ListCalls())
	assert.Equal(t, []string{"Buy milk", "Call plumber"}, titles(ctrl.State().Tasks))

	svc.ResetCalls()
	ctrl.Filters().Set(app.FilterUpdate{Search: app.StringPtr("report")})

	assert.Equal(t, []testutil.Call{{Op: "Search", Arg: "report"}}, svc.ListCalls())
	assert.Equal(t, []string{"Write report"}, titles(ctrl.State().Tasks))
}

func TestControllerStopDetachesFromFilter(t *testing.T) {
	ctrl, svc, _ := newController(t)
	ctrl.Start(context.Background())
	ctrl.Stop()
	svc.ResetCalls()

	ctrl.Filters().Set(app.FilterUpdate{Search: app.StringPtr("x")})

	assert.Empty(t, svc.Calls())
}

func TestControllerFetchFailureKeepsCollection(t *testing.T) {
	ctrl, svc, _ := newController(t)
	svc.AddTask("Buy milk", service.StatusPending, service.PriorityMedium)
	ctrl.Start(context.Background())

	svc.ListErr = testutil.ErrBackend
	assert.False(t, ctrl.Refresh(context.Background()))

	st := ctrl.State()
	assert.Equal(t, app.MsgFetchFailed, st.Err)
	assert.ErrorIs(t, st.Cause, testutil.ErrBackend)
	assert.False(t, st.Loading)
	assert.Equal(t, []string{"Buy milk"}, titles(st.Tasks))

	svc.ListErr = nil
	assert.True(t, ctrl.Refresh(context.Background()))
	assert.Empty(t, ctrl.State().Err)
}

func TestControllerStaleRefreshIsDiscarded(t *testing.T) {
	ctrl, svc, _ := newController(t)
	svc.AddTask("Buy milk", service.StatusPending, service.PriorityMedium)
	svc.AddTask("Write report", service.StatusCompleted, service.PriorityHigh)

	entered := make(chan struct{})
	release := make(chan struct{})
	svc.ListHook = func(call testutil.Call) {
		if call.Op == "ListAll" {
			close(entered)
			<-release
		}
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		ctrl.Refresh(context.Background())
	}()
	<-entered

	// Issued later, resolves first.
	ctrl.Filters().Set(app.FilterUpdate{Status: app.StatusPtr(service.StatusCompleted)})
	require.True(t, ctrl.Refresh(context.Background()))
	assert.False(t, ctrl.State().Loading)

	close(release)
	<-done

	st := ctrl.State()
	assert.Equal(t, []string{"Write report"}, titles(st.Tasks))
	assert.False(t, st.Loading)
	assert.Empty(t, st.Err)
}

func TestControllerLoadingWhileInFlight(t *testing.T) {
	ctrl, svc, _ := newController(t)

	var during app.State
	svc.ListHook = func(testutil.Call) { during = ctrl.State() }

	ctrl.Refresh(context.Background())

	assert.True(t, during.Loading)
	assert.False(t, ctrl.State().Loading)
}

func TestControllerCreateRefreshes(t *testing.T) {
	ctrl, svc, _ := newController(t)
	ctrl.Start(context.Background())
	svc.ResetCalls()

	ok := ctrl.Create(context.Background(), service.Draft{Title: "Buy milk", Status: service.StatusPending, Priority: service.PriorityLow})
	require.True(t, ok)

	assert.Equal(t, []testutil.Call{{Op: "Create", Arg: "Buy milk"}, {Op: "ListAll"}}, svc.Calls())
	assert.Equal(t, []string{"Buy milk"}, titles(ctrl.State().Tasks))
}

func TestControllerCreateFailure(t *testing.T) {
	ctrl, svc, _ := newController(t)
	svc.AddTask("Buy milk", service.StatusPending, service.PriorityMedium)
	ctrl.Start(context.Background())
	svc.ResetCalls()
	svc.CreateErr = testutil.ErrBackend

	ok := ctrl.Create(context.Background(), service.Draft{Title: "Write report"})

	assert.False(t, ok)
	st := ctrl.State()
	assert.Equal(t, app.MsgCreateFailed, st.Err)
	assert.Equal(t, []string{"Buy milk"}, titles(st.Tasks))
	assert.Empty(t, svc.ListCalls())
}

func TestControllerMutationClearsPreviousError(t *testing.T) {
	ctrl, svc, _ := newController(t)
	svc.ListErr = testutil.ErrBackend
	ctrl.Start(context.Background())
	require.Equal(t, app.MsgFetchFailed, ctrl.State().Err)

	svc.ListErr = nil
	require.True(t, ctrl.Create(context.Background(), service.Draft{Title: "Buy milk"}))

	assert.Empty(t, ctrl.State().Err)
}

func TestControllerMutationEmitsClearedError(t *testing.T) {
	ctrl, svc, _ := newController(t)
	task := svc.AddTask("Buy milk", service.StatusPending, service.PriorityMedium)
	ctrl.Start(context.Background())
	svc.CreateErr = testutil.ErrBackend
	require.False(t, ctrl.Create(context.Background(), service.Draft{Title: "Write report"}))

	var banners []string
	unsub := ctrl.OnChange(func(st app.State) { banners = append(banners, st.Err) })
	defer unsub()

	svc.DeleteErr = testutil.ErrBackend
	require.False(t, ctrl.Delete(context.Background(), task.ID, approve()))

	assert.Equal(t, []string{"", app.MsgDeleteFailed}, banners)
}

func TestControllerDeleteRequiresConfirmation(t *testing.T) {
	ctrl, svc, _ := newController(t)
	task := svc.AddTask("Buy milk", service.StatusPending, service.PriorityMedium)
	ctrl.Start(context.Background())
	svc.ResetCalls()

	var asked string
	decline := app.ConfirmFunc(func(prompt string) bool {
		asked = prompt
		return false
	})

	assert.False(t, ctrl.Delete(context.Background(), task.ID, nil))
	assert.False(t, ctrl.Delete(context.Background(), task.ID, decline))
	assert.Equal(t, app.DeletePrompt, asked)
	assert.Empty(t, svc.Calls())
	assert.Len(t, ctrl.State().Tasks, 1)

	assert.True(t, ctrl.Delete(context.Background(), task.ID, approve()))
	assert.Equal(t, []testutil.Call{{Op: "Delete", Arg: "1"}, {Op: "ListAll"}}, svc.Calls())
	assert.Empty(t, ctrl.State().Tasks)
}

func TestControllerDeleteFailure(t *testing.T) {
	ctrl, svc, _ := newController(t)
	task := svc.AddTask("Buy milk", service.StatusPending, service.PriorityMedium)
	ctrl.Start(context.Background())
	svc.DeleteErr = testutil.ErrBackend

	assert.False(t, ctrl.Delete(context.Background(), task.ID, approve()))

	st := ctrl.State()
	assert.Equal(t, app.MsgDeleteFailed, st.Err)
	assert.Len(t, st.Tasks, 1)
}

func TestControllerUpdateClearsSelection(t *testing.T) {
	ctrl, svc, _ := newController(t)
	task := svc.AddTask("Buy milk", service.StatusPending, service.PriorityMedium)
	ctrl.Start(context.Background())

	ctrl.BeginEdit(task)
	require.NotNil(t, ctrl.State().Editing)

	d := service.DraftFrom(task)
	d.Status = service.StatusCompleted
	require.True(t, ctrl.Update(context.Background(), task.ID, d))

	st := ctrl.State()
	assert.Nil(t, st.Editing)
	require.Len(t, st.Tasks, 1)
	assert.Equal(t, service.StatusCompleted, st.Tasks[0].Status)
}

func TestControllerUpdateFailureKeepsSelection(t *testing.T) {
	ctrl, svc, _ := newController(t)
	task := svc.AddTask("Buy milk", service.StatusPending, service.PriorityMedium)
	ctrl.Start(context.Background())
	ctrl.BeginEdit(task)
	svc.UpdateErr = testutil.ErrBackend

	assert.False(t, ctrl.Update(context.Background(), task.ID, service.DraftFrom(task)))

	st := ctrl.State()
	assert.Equal(t, app.MsgUpdateFailed, st.Err)
	require.NotNil(t, st.Editing)
	assert.Equal(t, task.ID, st.Editing.ID)
}

func TestControllerCancelEditWithoutSelectionIsNoop(t *testing.T) {
	ctrl, _, _ := newController(t)

	changes := 0
	unsub := ctrl.OnChange(func(app.State) { changes++ })
	defer unsub()

	ctrl.CancelEdit()

	assert.Zero(t, changes)
	assert.Nil(t, ctrl.State().Editing)
}

func TestControllerDismissError(t *testing.T) {
	ctrl, svc, _ := newController(t)
	svc.ListErr = testutil.ErrBackend
	ctrl.Start(context.Background())
	require.NotEmpty(t, ctrl.State().Err)

	ctrl.DismissError()

	st := ctrl.State()
	assert.Empty(t, st.Err)
	assert.NoError(t, st.Cause)
}

func TestControllerLogout(t *testing.T) {
	ctrl, svc, sess := newController(t)
	task := svc.AddTask("Buy milk", service.StatusPending, service.PriorityMedium)
	ctrl.Start(context.Background())
	ctrl.BeginEdit(task)

	require.NoError(t, ctrl.Logout())

	st := ctrl.State()
	assert.Equal(t, 1, sess.Cleared)
	assert.Empty(t, st.Tasks)
	assert.Nil(t, st.Editing)
	assert.False(t, st.Authenticated)

	svc.ResetCalls()
	assert.False(t, ctrl.Refresh(context.Background()))
	assert.Empty(t, svc.Calls())
}

func TestControllerLogoutDiscardsInFlightRefresh(t *testing.T) {
	ctrl, svc, _ := newController(t)
	svc.AddTask("Buy milk", service.StatusPending, service.PriorityMedium)

	entered := make(chan struct{})
	release := make(chan struct{})
	svc.ListHook = func(testutil.Call) {
		close(entered)
		<-release
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		ctrl.Refresh(context.Background())
	}()
	<-entered

	require.NoError(t, ctrl.Logout())
	close(release)
	<-done

	st := ctrl.State()
	assert.Empty(t, st.Tasks)
	assert.False(t, st.Loading)
}

func TestControllerTaskLookup(t *testing.T) {
	ctrl, svc, _ := newController(t)
	task := svc.AddTask("Buy milk", service.StatusPending, service.PriorityMedium)
	ctrl.Start(context.Background())

	got, ok := ctrl.Task(task.ID)
	assert.True(t, ok)
	assert.Equal(t, "Buy milk", got.Title)

	_, ok = ctrl.Task("99")
	assert.False(t, ok)
}

func TestControllerWithoutSession(t *testing.T) {
	svc := testutil.NewFakeService()
	ctrl := app.NewController(svc, nil, nil, nil)

	assert.False(t, ctrl.Refresh(context.Background()))
	assert.NoError(t, ctrl.Logout())
	assert.False(t, ctrl.State().Authenticated)
	assert.Empty(t, svc.Calls())
}
