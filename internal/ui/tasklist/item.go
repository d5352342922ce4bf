package tasklist

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/taskweb/internal/model"
	"github.com/nhle/taskweb/internal/theme"
)

// TaskItem wraps a model.Task so it can be used in a bubbles/list.
type TaskItem struct {
	Task model.Task
}

// FilterValue returns the string used for filtering.
func (i TaskItem) FilterValue() string { return i.Task.Title }

// Title returns the task title for the list.
func (i TaskItem) Title() string { return i.Task.Title }

// Description returns a short summary line for the list.
func (i TaskItem) Description() string {
	parts := []string{
		theme.TaskState(i.Task),
		priorityLabel(i.Task),
		relativeTime(i.Task.UpdatedAt),
	}
	return strings.Join(parts, " | ")
}

// TaskDelegate implements list.ItemDelegate for task rows.
type TaskDelegate struct{}

// Height returns the number of lines each item takes.
func (d TaskDelegate) Height() int { return 1 }

// Spacing returns the number of blank lines between items.
func (d TaskDelegate) Spacing() int { return 0 }

// Update handles per-item messages (unused).
func (d TaskDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a single task row: marker, state, priority, title, age.
func (d TaskDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	ti, ok := item.(TaskItem)
	if !ok {
		return
	}
	fmt.Fprint(w, renderRow(ti.Task, index == m.Index()))
}

func renderRow(t model.Task, selected bool) string {
	state := theme.TaskState(t)

	priBadge := theme.MetaStyle.Render(priorityLabel(t))
	if state == theme.StateActive {
		priBadge = theme.PriorityStyle(t.Priority).Render(priorityLabel(t))
	}

	line := fmt.Sprintf(
		"%s %s %s %s  %s",
		theme.StateMarker(state),
		theme.StateStyle(state).Render(fmt.Sprintf("%-7s", state)),
		priBadge,
		t.Title,
		theme.MetaStyle.Render(relativeTime(t.UpdatedAt)),
	)

	if state != theme.StateActive {
		line = theme.DimmedStyle.Render(line)
	}
	if selected {
		return theme.SelectedItemStyle.Render(line)
	}
	return theme.ListItemStyle.Render(line)
}

// priorityLabel shows the stored rank; inactive tasks keep their last value.
func priorityLabel(t model.Task) string {
	return fmt.Sprintf("P%-3d", t.Priority)
}

// relativeTime returns a human-friendly relative time string.
func relativeTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}

	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	default:
		return t.Format("2006-01-02")
	}
}
