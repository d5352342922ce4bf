// Package admin is the operator's terminal console. It lists accounts and
// works on any user's tasks through the same service as the web app.
package admin

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	log "github.com/sirupsen/logrus"

	"github.com/nhle/taskweb/internal/keys"
	"github.com/nhle/taskweb/internal/model"
	"github.com/nhle/taskweb/internal/service"
	"github.com/nhle/taskweb/internal/theme"
	"github.com/nhle/taskweb/internal/ui"
	"github.com/nhle/taskweb/internal/ui/detail"
	helpview "github.com/nhle/taskweb/internal/ui/help"
	"github.com/nhle/taskweb/internal/ui/taskform"
	"github.com/nhle/taskweb/internal/ui/tasklist"
	"github.com/nhle/taskweb/internal/ui/userlist"
)

// Service is the subset of the task service the console drives.
// *service.TaskService satisfies it.
type Service interface {
	Users(ctx context.Context) ([]model.UserOverview, error)
	AllTasks(ctx context.Context, userID int64, query string) ([]model.Task, error)
	Create(ctx context.Context, userID int64, in service.TaskInput) (*model.Task, error)
	Update(ctx context.Context, userID, id int64, in service.TaskInput) (*model.Task, error)
	ToggleComplete(ctx context.Context, userID, id int64) (*model.Task, error)
	Delete(ctx context.Context, userID, id int64) error
}

// ViewState represents the current active view.
type ViewState int

const (
	ViewUsers ViewState = iota
	ViewTasks
	ViewDetail
	ViewForm
	ViewHelp
)

// Model is the root Bubble Tea model that routes between the sub-views.
type Model struct {
	currentView  ViewState
	previousView ViewState
	layout       ui.Layout
	svc          Service
	logger       *log.Logger
	keys         *keys.KeyMap
	userList     userlist.Model
	taskList     tasklist.Model
	detail       detail.Model
	formView     taskform.Model
	helpView     helpview.Model
	status       string
	failed       bool
	ready        bool
}

// New creates the console backed by svc.
func New(svc Service, logger *log.Logger) Model {
	if logger == nil {
		logger = log.StandardLogger()
	}
	k := keys.DefaultKeyMap()
	return Model{
		currentView: ViewUsers,
		svc:         svc,
		logger:      logger,
		keys:        k,
		userList:    userlist.New(svc, k, 80, 24),
		taskList:    tasklist.New(svc, k, 80, 24),
		detail:      detail.New(k, 80, 24),
		formView:    taskform.New(80, 24),
		helpView:    helpview.New(k, 80, 24),
	}
}

// Init loads the user overview.
func (m Model) Init() tea.Cmd {
	return m.userList.Init()
}

// CurrentView returns the active view.
func (m Model) CurrentView() ViewState {
	return m.currentView
}

// Status returns the status bar message and whether it reports a failure.
func (m Model) Status() (string, bool) {
	return m.status, m.failed
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		w, h := m.layout.ContentWidth(), m.layout.ContentHeight()
		m.userList.SetSize(w, h)
		m.taskList.SetSize(w, h)
		m.detail.SetSize(w, h)
		m.formView.SetSize(w, h)
		m.helpView.SetSize(w, h)
		// Forward to the active view so huh forms can calculate their layout.
		return m.updateActiveView(msg)

	case userlist.UsersLoadedMsg:
		if msg.Err != nil {
			m.setError("loading users", msg.Err)
		}
		var cmd tea.Cmd
		m.userList, cmd = m.userList.Update(msg)
		return m, cmd

	case tasklist.TasksLoadedMsg:
		if msg.Err != nil {
			m.setError("loading tasks", msg.Err)
		}
		var cmd tea.Cmd
		m.taskList, cmd = m.taskList.Update(msg)
		return m, cmd

	case userlist.SelectedUserMsg:
		m.currentView = ViewTasks
		m.clearStatus()
		return m, m.taskList.SetUser(msg.User)

	case tasklist.SelectedTaskMsg:
		m.currentView = ViewDetail
		m.detail.SetTask(msg.Task, m.taskList.User().Username)
		return m, nil

	case detail.BackMsg:
		m.currentView = ViewTasks
		return m, nil

	case taskform.TaskSubmittedMsg:
		m.currentView = m.previousView
		return m, m.saveTask(msg.TaskID, msg.Input)

	case taskform.CancelMsg:
		m.currentView = m.previousView
		return m, nil

	case taskSavedMsg:
		if msg.err != nil {
			m.setError("saving task", msg.err)
			return m, nil
		}
		verb := "updated"
		if msg.created {
			verb = "created"
		}
		m.setStatus(fmt.Sprintf("%s #%d %q at priority %d", verb, msg.task.ID, msg.task.Title, msg.task.Priority))
		if m.currentView == ViewDetail {
			m.detail.SetTask(*msg.task, m.taskList.User().Username)
		}
		return m, m.reload()

	case taskToggledMsg:
		if msg.err != nil {
			m.setError("toggling task", msg.err)
			return m, nil
		}
		m.setStatus(fmt.Sprintf("#%d is now %s", msg.task.ID, theme.TaskState(*msg.task)))
		if m.currentView == ViewDetail {
			m.detail.SetTask(*msg.task, m.taskList.User().Username)
		}
		return m, m.reload()

	case taskDeletedMsg:
		if msg.err != nil {
			m.setError("deleting task", msg.err)
			return m, nil
		}
		m.setStatus(fmt.Sprintf("deleted #%d", msg.id))
		if m.currentView == ViewDetail {
			m.currentView = ViewTasks
		}
		return m, m.reload()

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		// Forms and the search box own every other key.
		if m.currentView == ViewForm || (m.currentView == ViewTasks && m.taskList.Searching()) {
			return m.updateActiveView(msg)
		}
		if next, cmd, handled := m.handleKey(msg); handled {
			return next, cmd
		}
	}

	return m.updateActiveView(msg)
}

// handleKey processes the console-wide shortcuts.
func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd, bool) {
	switch {
	case key.Matches(msg, m.keys.Help):
		if m.currentView == ViewHelp {
			m.currentView = m.previousView
		} else {
			m.previousView = m.currentView
			m.currentView = ViewHelp
		}
		return m, nil, true

	case key.Matches(msg, m.keys.Quit):
		if m.currentView == ViewUsers || m.currentView == ViewTasks {
			return m, tea.Quit, true
		}

	case key.Matches(msg, m.keys.Back):
		switch m.currentView {
		case ViewHelp:
			m.currentView = m.previousView
			return m, nil, true
		case ViewTasks:
			m.currentView = ViewUsers
			m.clearStatus()
			return m, m.userList.LoadUsers(), true
		}

	case key.Matches(msg, m.keys.Refresh):
		if m.currentView == ViewUsers || m.currentView == ViewTasks {
			return m, m.reload(), true
		}

	case key.Matches(msg, m.keys.New):
		if m.currentView == ViewTasks {
			m.previousView = m.currentView
			m.currentView = ViewForm
			return m, m.formView.StartCreate(m.taskList.User().Username), true
		}

	case key.Matches(msg, m.keys.Edit):
		if task, ok := m.focusedTask(); ok {
			if task.Deleted {
				m.setFailure(fmt.Sprintf("#%d is deleted", task.ID))
				return m, nil, true
			}
			m.previousView = m.currentView
			m.currentView = ViewForm
			return m, m.formView.StartEdit(m.taskList.User().Username, task), true
		}

	case key.Matches(msg, m.keys.Toggle):
		if task, ok := m.focusedTask(); ok {
			if task.Deleted {
				m.setFailure(fmt.Sprintf("#%d is deleted", task.ID))
				return m, nil, true
			}
			return m, m.toggleTask(task.ID), true
		}

	case key.Matches(msg, m.keys.Delete):
		if task, ok := m.focusedTask(); ok {
			if task.Deleted {
				m.setFailure(fmt.Sprintf("#%d is already deleted", task.ID))
				return m, nil, true
			}
			return m, m.deleteTask(task.ID), true
		}
	}
	return m, nil, false
}

// focusedTask returns the task under the cursor in the list or detail view.
func (m Model) focusedTask() (model.Task, bool) {
	switch m.currentView {
	case ViewTasks:
		return m.taskList.SelectedTask()
	case ViewDetail:
		return m.detail.Task()
	}
	return model.Task{}, false
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewUsers:
		m.userList, cmd = m.userList.Update(msg)
	case ViewTasks:
		m.taskList, cmd = m.taskList.Update(msg)
	case ViewDetail:
		m.detail, cmd = m.detail.Update(msg)
	case ViewForm:
		m.formView, cmd = m.formView.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	}

	return m, cmd
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := m.layout.RenderHeader("taskweb admin", m.breadcrumb())
	statusBar := m.layout.RenderStatusBar(m.statusLine(), m.failed)
	return m.layout.RenderWithFrame(header, m.renderContent(), statusBar)
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewUsers:
		return m.userList.View()
	case ViewTasks:
		return m.taskList.View()
	case ViewDetail:
		return m.detail.View()
	case ViewForm:
		return m.formView.View()
	case ViewHelp:
		return m.helpView.View()
	default:
		return ""
	}
}

func (m Model) breadcrumb() string {
	switch m.currentView {
	case ViewUsers:
		return "users"
	case ViewHelp:
		return "help"
	}
	crumb := "users › " + m.taskList.User().Username
	if q := m.taskList.Query(); q != "" {
		crumb += fmt.Sprintf(" › /%s", q)
	}
	return crumb
}

// statusLine shows the last action result, or key hints when there is none.
func (m Model) statusLine() string {
	if m.status != "" {
		return m.status
	}
	return m.keyHints()
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	switch m.currentView {
	case ViewHelp:
		return "? close help | esc back"
	case ViewDetail:
		return "esc back | e edit | x toggle | d delete | j/k scroll"
	case ViewForm:
		return "enter submit | esc cancel"
	case ViewTasks:
		if m.taskList.Searching() {
			return "enter search | esc clear"
		}
		return "esc users | n new | e edit | x toggle | d delete | / search | q quit"
	default:
		return "enter open | r refresh | ? help | q quit"
	}
}

func (m *Model) setStatus(s string) {
	m.status = s
	m.failed = false
}

func (m *Model) setFailure(s string) {
	m.status = s
	m.failed = true
}

func (m *Model) clearStatus() {
	m.status = ""
	m.failed = false
}
