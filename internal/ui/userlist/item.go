package userlist

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/taskweb/internal/model"
	"github.com/nhle/taskweb/internal/theme"
)

// UserItem wraps a user overview row for a bubbles/list.
type UserItem struct {
	User model.UserOverview
}

// FilterValue returns the string used for filtering.
func (i UserItem) FilterValue() string { return i.User.Username }

// UserDelegate renders one user per line.
type UserDelegate struct{}

// Height returns the number of lines each item takes.
func (d UserDelegate) Height() int { return 1 }

// Spacing returns the number of blank lines between items.
func (d UserDelegate) Spacing() int { return 0 }

// Update handles per-item messages (unused).
func (d UserDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

// Render draws username, join date and task counts.
func (d UserDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	ui, ok := item.(UserItem)
	if !ok {
		return
	}
	fmt.Fprint(w, renderRow(ui.User, index == m.Index()))
}

func renderRow(u model.UserOverview, selected bool) string {
	line := fmt.Sprintf(
		"%-20s %s  %s",
		u.Username,
		theme.MetaStyle.Render("joined "+u.DateJoined.Format("2006-01-02")),
		theme.StateStyle(theme.StateActive).Render(
			fmt.Sprintf("%d active / %d total", u.ActiveTasks, u.TotalTasks),
		),
	)
	if selected {
		return theme.SelectedItemStyle.Render(line)
	}
	return theme.ListItemStyle.Render(line)
}
