// Package ui holds the admin console's shared layout and its sub-views.
package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/taskweb/internal/theme"
)

// Layout manages the header / content / status bar split of the terminal.
type Layout struct {
	Width           int
	Height          int
	HeaderHeight    int
	StatusBarHeight int
}

// NewLayout creates a Layout with the given terminal dimensions.
// HeaderHeight and StatusBarHeight default to 1.
func NewLayout(width, height int) Layout {
	return Layout{
		Width:           width,
		Height:          height,
		HeaderHeight:    1,
		StatusBarHeight: 1,
	}
}

// ContentWidth returns the full available width.
func (l Layout) ContentWidth() int {
	return l.Width
}

// ContentHeight returns the height available for the main content area.
func (l Layout) ContentHeight() int {
	h := l.Height - l.HeaderHeight - l.StatusBarHeight
	if h < 0 {
		return 0
	}
	return h
}

// RenderHeader renders the top bar: title on the left, breadcrumb on the right.
func (l Layout) RenderHeader(title, breadcrumb string) string {
	left := theme.HeaderStyle.Render(title)
	right := theme.HeaderStyle.Align(lipgloss.Right).Render(breadcrumb)
	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		left,
		l.filler(theme.HeaderStyle, left, right),
		right,
	)
}

// RenderStatusBar renders the bottom bar. A failed status is drawn in the
// error style.
func (l Layout) RenderStatusBar(text string, failed bool) string {
	style := theme.StatusBarStyle
	if failed {
		style = theme.ErrorBarStyle
	}
	rendered := style.Render(text)
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered, l.filler(style, rendered))
}

// RenderWithFrame joins header, content and status bar vertically.
func (l Layout) RenderWithFrame(header, content, statusBar string) string {
	content = lipgloss.NewStyle().
		Height(l.ContentHeight()).
		MaxHeight(l.ContentHeight()).
		Render(content)
	return lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
}

// filler pads the remaining width of a bar with its background.
func (l Layout) filler(style lipgloss.Style, parts ...string) string {
	gap := l.Width
	for _, p := range parts {
		gap -= lipgloss.Width(p)
	}
	if gap <= 0 {
		return ""
	}
	return lipgloss.NewStyle().
		Width(gap).
		Background(style.GetBackground()).
		Render("")
}
