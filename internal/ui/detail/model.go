package detail

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/taskweb/internal/keys"
	"github.com/nhle/taskweb/internal/model"
	"github.com/nhle/taskweb/internal/theme"
)

// BackMsg signals the parent to navigate back to the task list.
type BackMsg struct{}

// Model is the read-only task detail view.
type Model struct {
	task     *model.Task
	owner    string
	viewport viewport.Model
	keys     *keys.KeyMap
	width    int
	height   int
}

// New creates a new detail view model.
func New(keys *keys.KeyMap, width, height int) Model {
	vp := viewport.New(width, height-2)
	vp.Style = lipgloss.NewStyle()

	return Model{
		viewport: vp,
		keys:     keys,
		width:    width,
		height:   height,
	}
}

// Update handles messages for the detail view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && key.Matches(msg, m.keys.Back) {
		return m, func() tea.Msg { return BackMsg{} }
	}

	// Delegate to viewport for scrolling (j/k, up/down, pgup/pgdn)
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the detail view.
func (m Model) View() string {
	if m.task == nil {
		return lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray).
			Render("No task selected")
	}
	return m.viewport.View()
}

// renderContent builds the full detail content string for the viewport.
func (m Model) renderContent() string {
	if m.task == nil {
		return ""
	}
	task := m.task
	state := theme.TaskState(*task)

	var sections []string
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
	sections = append(sections, titleStyle.Render(task.Title))

	badgeLine := lipgloss.JoinHorizontal(
		lipgloss.Top,
		theme.StateStyle(state).Render(theme.StateMarker(state)+" "+state),
		"  ",
		theme.PriorityStyle(task.Priority).Render(fmt.Sprintf("priority %d", task.Priority)),
	)
	sections = append(sections, badgeLine, "")

	valStyle := lipgloss.NewStyle().Foreground(theme.ColorWhite)
	meta := [][2]string{
		{"ID:", fmt.Sprintf("%d", task.ID)},
		{"Owner:", m.owner},
		{"Created:", task.CreatedAt.Format("2006-01-02 15:04")},
		{"Updated:", task.UpdatedAt.Format("2006-01-02 15:04")},
	}
	for _, row := range meta {
		sections = append(sections, fmt.Sprintf(
			"%-10s %s",
			theme.MetaStyle.Render(row[0]),
			valStyle.Render(row[1]),
		))
	}

	sepStyle := lipgloss.NewStyle().Foreground(theme.ColorSubtle)
	separator := sepStyle.Render(strings.Repeat("─", max(min(m.width-4, 80), 0)))
	sections = append(sections, "", separator, "")

	descHeaderStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)
	sections = append(sections, descHeaderStyle.Render("Description"))

	body := task.Description
	if strings.TrimSpace(body) == "" {
		body = lipgloss.NewStyle().
			Foreground(theme.ColorGray).
			Italic(true).
			Render("No description")
	}
	sections = append(sections, body)

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetTask replaces the displayed task and re-renders the content.
func (m *Model) SetTask(task model.Task, owner string) {
	m.task = &task
	m.owner = owner
	m.viewport.SetContent(m.renderContent())
	m.viewport.GotoTop()
}

// Task returns the displayed task.
func (m Model) Task() (model.Task, bool) {
	if m.task == nil {
		return model.Task{}, false
	}
	return *m.task, true
}

// SetSize updates the detail view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height - 2
	m.viewport.SetContent(m.renderContent())
}
