package tasklist

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/taskweb/internal/keys"
	"github.com/nhle/taskweb/internal/model"
	"github.com/nhle/taskweb/internal/theme"
)

// Source lists every stored task of one user, including completed and
// deleted ones.
type Source interface {
	AllTasks(ctx context.Context, userID int64, query string) ([]model.Task, error)
}

// TasksLoadedMsg is sent when a user's tasks have been loaded.
type TasksLoadedMsg struct {
	UserID int64
	Tasks  []model.Task
	Err    error
}

// SelectedTaskMsg is sent when a task is opened.
type SelectedTaskMsg struct {
	Task model.Task
}

// Model is the per-user task list view.
type Model struct {
	list        list.Model
	source      Source
	keys        *keys.KeyMap
	user        model.UserOverview
	query       string
	searchMode  bool
	searchInput textinput.Model
	width       int
	height      int
}

// New creates a new task list model.
func New(s Source, k *keys.KeyMap, width, height int) Model {
	l := list.New([]list.Item{}, TaskDelegate{}, width, height-2)
	l.Title = "Tasks"
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	si := textinput.New()
	si.Placeholder = "search titles..."
	si.Prompt = "/ "
	si.Width = width - 4

	return Model{
		list:        l,
		source:      s,
		keys:        k,
		searchInput: si,
		width:       width,
		height:      height,
	}
}

// SetUser switches the list to another owner and clears the search.
func (m *Model) SetUser(u model.UserOverview) tea.Cmd {
	m.user = u
	m.query = ""
	m.searchMode = false
	m.searchInput.Reset()
	m.list.Title = u.Username
	m.list.ResetSelected()
	return m.LoadTasks()
}

// User returns the owner whose tasks are listed.
func (m Model) User() model.UserOverview {
	return m.user
}

// Searching reports whether the search input has focus.
func (m Model) Searching() bool {
	return m.searchMode
}

// Query returns the active title search.
func (m Model) Query() string {
	return m.query
}

// SelectedTask returns the highlighted task, if any.
func (m Model) SelectedTask() (model.Task, bool) {
	item, ok := m.list.SelectedItem().(TaskItem)
	if !ok {
		return model.Task{}, false
	}
	return item.Task, true
}

// Update handles messages for the task list view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case TasksLoadedMsg:
		if msg.UserID != m.user.ID || msg.Err != nil {
			return m, nil
		}
		items := make([]list.Item, len(msg.Tasks))
		for i, task := range msg.Tasks {
			items[i] = TaskItem{Task: task}
		}
		return m, m.list.SetItems(items)

	case tea.KeyMsg:
		if m.searchMode {
			return m.handleSearchKeys(msg)
		}
		return m.handleNormalKeys(msg)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// handleSearchKeys processes key input while the search box is focused.
func (m Model) handleSearchKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		m.searchMode = false
		m.searchInput.Blur()
		m.query = m.searchInput.Value()
		return m, m.LoadTasks()

	case tea.KeyEsc:
		m.searchMode = false
		m.searchInput.Blur()
		m.searchInput.Reset()
		m.query = ""
		return m, m.LoadTasks()
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	return m, cmd
}

// handleNormalKeys processes key input outside of search mode.
func (m Model) handleNormalKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Select):
		task, ok := m.SelectedTask()
		if !ok {
			return m, nil
		}
		return m, func() tea.Msg {
			return SelectedTaskMsg{Task: task}
		}

	case key.Matches(msg, m.keys.Search):
		m.searchMode = true
		m.searchInput.SetValue(m.query)
		return m, m.searchInput.Focus()
	}

	// Delegate to the list for navigation keys (up/down/pgup/pgdn)
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View renders the task list view.
func (m Model) View() string {
	if m.searchMode {
		searchBar := lipgloss.NewStyle().
			Foreground(theme.ColorWhite).
			Padding(0, 1).
			Render(m.searchInput.View())
		return lipgloss.JoinVertical(lipgloss.Left, searchBar, m.list.View())
	}

	if len(m.list.Items()) == 0 {
		return m.renderEmptyState()
	}
	return m.list.View()
}

func (m Model) renderEmptyState() string {
	style := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray)

	if m.query != "" {
		return style.Render(fmt.Sprintf("No task titles match %q.\nPress / to change the search.", m.query))
	}
	return style.Render("No tasks for " + m.user.Username + ".\n\nPress n to add one.")
}

// LoadTasks returns a tea.Cmd that reloads the current user's tasks.
func (m Model) LoadTasks() tea.Cmd {
	src := m.source
	userID := m.user.ID
	query := m.query
	return func() tea.Msg {
		tasks, err := src.AllTasks(context.Background(), userID, query)
		return TasksLoadedMsg{UserID: userID, Tasks: tasks, Err: err}
	}
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-2)
	m.searchInput.Width = width - 4
}
