package admin

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/nhle/taskweb/internal/service"
	"github.com/nhle/taskweb/internal/store"
	"github.com/nhle/taskweb/internal/ui/detail"
	"github.com/nhle/taskweb/internal/ui/taskform"
	"github.com/nhle/taskweb/internal/ui/tasklist"
	"github.com/nhle/taskweb/internal/ui/userlist"
	"github.com/nhle/taskweb/tests/testutil"
)

// harness drives the root model synchronously, feeding back the messages
// its commands produce.
type harness struct {
	t    *testing.T
	m    Model
	quit bool
}

func newHarness(t *testing.T, svc Service) *harness {
	t.Helper()
	logger, _ := test.NewNullLogger()
	h := &harness{t: t, m: New(svc, logger)}
	h.send(tea.WindowSizeMsg{Width: 120, Height: 40})
	h.run(h.m.Init())
	return h
}

func (h *harness) send(msg tea.Msg) {
	h.t.Helper()
	next, cmd := h.m.Update(msg)
	h.m = next.(Model)
	h.run(cmd)
}

func (h *harness) run(cmd tea.Cmd) {
	h.t.Helper()
	for _, msg := range collect(cmd) {
		switch msg.(type) {
		case tea.QuitMsg:
			h.quit = true
		case userlist.UsersLoadedMsg, userlist.SelectedUserMsg,
			tasklist.TasksLoadedMsg, tasklist.SelectedTaskMsg,
			detail.BackMsg, taskform.TaskSubmittedMsg, taskform.CancelMsg,
			taskSavedMsg, taskToggledMsg, taskDeletedMsg:
			h.send(msg)
		}
	}
}

// collect runs cmd and flattens batches. Commands that block (cursor blink
// timers) are dropped.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	ch := make(chan tea.Msg, 1)
	go func() { ch <- cmd() }()

	select {
	case msg := <-ch:
		if batch, ok := msg.(tea.BatchMsg); ok {
			var out []tea.Msg
			for _, c := range batch {
				out = append(out, collect(c)...)
			}
			return out
		}
		return []tea.Msg{msg}
	case <-time.After(100 * time.Millisecond):
		return nil
	}
}

func (h *harness) press(keys ...string) {
	h.t.Helper()
	for _, k := range keys {
		switch k {
		case "enter":
			h.send(tea.KeyMsg{Type: tea.KeyEnter})
		case "esc":
			h.send(tea.KeyMsg{Type: tea.KeyEsc})
		case "down":
			h.send(tea.KeyMsg{Type: tea.KeyDown})
		default:
			h.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)})
		}
	}
}

func newConsole(t *testing.T) (*harness, store.Store, int64) {
	t.Helper()
	s := testutil.NewTestStore(t)
	logger, _ := test.NewNullLogger()
	svc := service.NewTaskService(s, logger)

	alice := testutil.CreateUser(t, s, "alice", "correct horse battery")
	testutil.CreateUser(t, s, "bob", "correct horse battery")
	testutil.CreateTask(t, s, alice.ID, "BUY OAT MILK", 1)
	testutil.CreateTask(t, s, alice.ID, "FILE TAXES", 2)

	return newHarness(t, svc), s, alice.ID
}

func TestOpenUserListsTasks(t *testing.T) {
	h, _, _ := newConsole(t)
	if h.m.CurrentView() != ViewUsers {
		t.Fatalf("expected users view, got %v", h.m.CurrentView())
	}
	if !strings.Contains(h.m.View(), "alice") {
		t.Fatalf("expected alice in user list:\n%s", h.m.View())
	}

	h.press("enter")
	if h.m.CurrentView() != ViewTasks {
		t.Fatalf("expected tasks view, got %v", h.m.CurrentView())
	}
	task, ok := h.m.taskList.SelectedTask()
	if !ok || task.Title != "BUY OAT MILK" {
		t.Fatalf("expected first task selected, got %+v", task)
	}
	view := h.m.View()
	if !strings.Contains(view, "FILE TAXES") || !strings.Contains(view, "users › alice") {
		t.Fatalf("unexpected view:\n%s", view)
	}
}

func TestCreateFromConsoleReindexes(t *testing.T) {
	h, s, aliceID := newConsole(t)
	h.press("enter", "n")
	if h.m.CurrentView() != ViewForm {
		t.Fatalf("expected form view, got %v", h.m.CurrentView())
	}

	h.send(taskform.TaskSubmittedMsg{Input: service.TaskInput{Title: "call the bank", Priority: 1}})
	if h.m.CurrentView() != ViewTasks {
		t.Fatalf("expected to return to tasks, got %v", h.m.CurrentView())
	}
	if status, failed := h.m.Status(); failed || !strings.Contains(status, `created`) {
		t.Fatalf("unexpected status %q (failed=%v)", status, failed)
	}

	got := testutil.Priorities(t, s, aliceID)
	want := map[string]int{"CALL THE BANK": 1, "BUY OAT MILK": 2, "FILE TAXES": 3}
	for title, p := range want {
		if got[title] != p {
			t.Fatalf("priorities = %v, want %v", got, want)
		}
	}
}

func TestCreateValidationFailureIsReported(t *testing.T) {
	h, s, aliceID := newConsole(t)
	h.press("enter", "n")
	h.send(taskform.TaskSubmittedMsg{Input: service.TaskInput{Title: "tiny", Priority: 1}})

	status, failed := h.m.Status()
	if !failed || !strings.Contains(status, service.MsgTitleTooSmall) {
		t.Fatalf("expected validation failure, got %q (failed=%v)", status, failed)
	}
	if n := len(testutil.Priorities(t, s, aliceID)); n != 2 {
		t.Fatalf("expected no new task, got %d active", n)
	}
}

func TestToggleAndDeleteFromList(t *testing.T) {
	h, s, aliceID := newConsole(t)
	h.press("enter", "x")

	status, failed := h.m.Status()
	if failed || !strings.Contains(status, "done") {
		t.Fatalf("unexpected toggle status %q", status)
	}
	if _, ok := testutil.Priorities(t, s, aliceID)["BUY OAT MILK"]; ok {
		t.Fatalf("completed task still active")
	}

	// Completed tasks stay listed in the console.
	task, ok := h.m.taskList.SelectedTask()
	if !ok || task.Title != "BUY OAT MILK" || !task.Completed {
		t.Fatalf("expected completed task to stay selected, got %+v", task)
	}

	h.press("down", "d")
	if status, failed := h.m.Status(); failed || !strings.Contains(status, "deleted") {
		t.Fatalf("unexpected delete status %q", status)
	}
	if n := len(testutil.Priorities(t, s, aliceID)); n != 0 {
		t.Fatalf("expected no active tasks, got %d", n)
	}
}

func TestDeletedTaskRefusesActions(t *testing.T) {
	s := testutil.NewTestStore(t)
	logger, _ := test.NewNullLogger()
	svc := service.NewTaskService(s, logger)
	u := testutil.CreateUser(t, s, "carol", "correct horse battery")
	testutil.CreateTask(t, s, u.ID, "ARCHIVE MAIL", 1)

	h := newHarness(t, svc)
	h.press("enter", "d")
	task, ok := h.m.taskList.SelectedTask()
	if !ok || !task.Deleted {
		t.Fatalf("expected deleted task to stay listed, got %+v", task)
	}

	for _, k := range []string{"x", "d", "e"} {
		h.press(k)
		if _, failed := h.m.Status(); !failed {
			t.Fatalf("expected %q on a deleted task to fail", k)
		}
		if h.m.CurrentView() != ViewTasks {
			t.Fatalf("expected to stay on tasks after %q", k)
		}
	}
}

func TestDetailViewAndBack(t *testing.T) {
	h, _, _ := newConsole(t)
	h.press("enter", "enter")
	if h.m.CurrentView() != ViewDetail {
		t.Fatalf("expected detail view, got %v", h.m.CurrentView())
	}
	if !strings.Contains(h.m.View(), "BUY OAT MILK") {
		t.Fatalf("expected task title in detail:\n%s", h.m.View())
	}

	h.press("x")
	task, _ := h.m.detail.Task()
	if !task.Completed {
		t.Fatalf("expected detail to show toggled task")
	}

	h.press("esc")
	if h.m.CurrentView() != ViewTasks {
		t.Fatalf("expected tasks view after esc, got %v", h.m.CurrentView())
	}
}

func TestSearchFiltersTitles(t *testing.T) {
	h, _, _ := newConsole(t)
	h.press("enter", "/", "taxes", "enter")

	if h.m.taskList.Query() != "taxes" {
		t.Fatalf("expected query to be kept, got %q", h.m.taskList.Query())
	}
	task, ok := h.m.taskList.SelectedTask()
	if !ok || task.Title != "FILE TAXES" {
		t.Fatalf("expected only FILE TAXES, got %+v", task)
	}
	if strings.Contains(h.m.View(), "BUY OAT MILK") {
		t.Fatalf("search should hide other tasks:\n%s", h.m.View())
	}
}

func TestNavigationKeys(t *testing.T) {
	h, _, _ := newConsole(t)

	h.press("?")
	if h.m.CurrentView() != ViewHelp {
		t.Fatalf("expected help view")
	}
	h.press("?")
	if h.m.CurrentView() != ViewUsers {
		t.Fatalf("expected help to close back to users")
	}

	h.press("enter", "esc")
	if h.m.CurrentView() != ViewUsers {
		t.Fatalf("expected esc to return to users, got %v", h.m.CurrentView())
	}

	h.press("q")
	if !h.quit {
		t.Fatalf("expected q to quit")
	}
}
