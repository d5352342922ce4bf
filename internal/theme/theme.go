package theme

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/taskweb/internal/model"
)

// Adaptive color pairs (dark terminal value, light terminal value).
var (
	ColorBlue    = lipgloss.AdaptiveColor{Dark: "#5B9BD5", Light: "#2B6CB0"}
	ColorGreen   = lipgloss.AdaptiveColor{Dark: "#6BCB77", Light: "#2F855A"}
	ColorYellow  = lipgloss.AdaptiveColor{Dark: "#FFD93D", Light: "#B7791F"}
	ColorRed     = lipgloss.AdaptiveColor{Dark: "#FF6B6B", Light: "#C53030"}
	ColorOrange  = lipgloss.AdaptiveColor{Dark: "#FFA94D", Light: "#C05621"}
	ColorMagenta = lipgloss.AdaptiveColor{Dark: "#CC5DE8", Light: "#805AD5"}
	ColorGray    = lipgloss.AdaptiveColor{Dark: "#868E96", Light: "#718096"}
	ColorWhite   = lipgloss.AdaptiveColor{Dark: "#F8F9FA", Light: "#1A202C"}
	ColorSubtle  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#CBD5E0"}
	ColorBorder  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#E2E8F0"}
)

// HeaderStyle is used for top-level section headers and the application title.
var HeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite).
	Background(ColorBlue).
	Padding(0, 1)

// StatusBarStyle is used for the bottom status bar.
var StatusBarStyle = lipgloss.NewStyle().
	Foreground(ColorWhite).
	Background(ColorSubtle).
	Padding(0, 1)

// ErrorBarStyle replaces the status bar when the last action failed.
var ErrorBarStyle = StatusBarStyle.
	Background(ColorRed)

// DetailPanelStyle wraps the detail and help content areas.
var DetailPanelStyle = lipgloss.NewStyle().
	Padding(1, 2).
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorBorder)

// ListItemStyle is the base style for items in a list.
var ListItemStyle = lipgloss.NewStyle().
	PaddingLeft(2)

// SelectedItemStyle highlights the currently focused list item.
var SelectedItemStyle = lipgloss.NewStyle().
	PaddingLeft(1).
	Bold(true).
	Foreground(ColorBlue).
	Border(lipgloss.NormalBorder(), false, false, false, true).
	BorderForeground(ColorBlue)

// DimmedStyle fades completed and deleted rows.
var DimmedStyle = lipgloss.NewStyle().
	Foreground(ColorGray)

// MetaStyle is used for labels and secondary columns.
var MetaStyle = lipgloss.NewStyle().
	Foreground(ColorGray)

// State labels shown next to each task.
const (
	StateActive    = "active"
	StateCompleted = "done"
	StateDeleted   = "deleted"
)

// TaskState returns the display state of a task. Deletion wins over completion.
func TaskState(t model.Task) string {
	switch {
	case t.Deleted:
		return StateDeleted
	case t.Completed:
		return StateCompleted
	default:
		return StateActive
	}
}

// StateMarker returns the single-rune marker drawn at the start of a task row.
func StateMarker(state string) string {
	switch state {
	case StateCompleted:
		return "✓"
	case StateDeleted:
		return "✗"
	default:
		return "○"
	}
}

// StateStyle returns a color-coded style for the given task state.
func StateStyle(state string) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true).Padding(0, 1)

	switch state {
	case StateActive:
		return base.Foreground(ColorBlue)
	case StateCompleted:
		return base.Foreground(ColorGreen)
	case StateDeleted:
		return base.Foreground(ColorRed)
	default:
		return base.Foreground(ColorGray)
	}
}

// PriorityStyle colors the top ranks; everything past the third is plain.
func PriorityStyle(priority int) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true)

	switch priority {
	case 1:
		return base.Foreground(ColorRed)
	case 2:
		return base.Foreground(ColorOrange)
	case 3:
		return base.Foreground(ColorYellow)
	default:
		return base.Foreground(ColorBlue)
	}
}
