// Package userlist is the admin console's account overview.
package userlist

import (
	"context"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/taskweb/internal/keys"
	"github.com/nhle/taskweb/internal/model"
	"github.com/nhle/taskweb/internal/theme"
)

// Source lists accounts with their task counts.
type Source interface {
	Users(ctx context.Context) ([]model.UserOverview, error)
}

// UsersLoadedMsg is sent when the user overview has been loaded.
type UsersLoadedMsg struct {
	Users []model.UserOverview
	Err   error
}

// SelectedUserMsg is sent when a user is opened.
type SelectedUserMsg struct {
	User model.UserOverview
}

// Model is the user overview list.
type Model struct {
	list   list.Model
	source Source
	keys   *keys.KeyMap
	width  int
	height int
}

// New creates a new user list model.
func New(s Source, k *keys.KeyMap, width, height int) Model {
	l := list.New([]list.Item{}, UserDelegate{}, width, height-2)
	l.Title = "Users"
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	return Model{list: l, source: s, keys: k, width: width, height: height}
}

// Init loads the overview.
func (m Model) Init() tea.Cmd {
	return m.LoadUsers()
}

// Update handles messages for the user list.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case UsersLoadedMsg:
		if msg.Err != nil {
			return m, nil
		}
		items := make([]list.Item, len(msg.Users))
		for i, u := range msg.Users {
			items[i] = UserItem{User: u}
		}
		return m, m.list.SetItems(items)

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Select) {
			item, ok := m.list.SelectedItem().(UserItem)
			if !ok {
				return m, nil
			}
			return m, func() tea.Msg { return SelectedUserMsg{User: item.User} }
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View renders the list or an empty-state hint.
func (m Model) View() string {
	if len(m.list.Items()) == 0 {
		return lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray).
			Render("No accounts yet.\nSign up through the web app first.")
	}
	return m.list.View()
}

// LoadUsers returns a tea.Cmd that reloads the overview.
func (m Model) LoadUsers() tea.Cmd {
	src := m.source
	return func() tea.Msg {
		users, err := src.Users(context.Background())
		return UsersLoadedMsg{Users: users, Err: err}
	}
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-2)
}
