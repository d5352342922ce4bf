// Package taskform is the huh-based create/edit form of the admin console.
package taskform

import (
	"errors"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/go-playground/validator/v10"

	"github.com/nhle/taskweb/internal/model"
	"github.com/nhle/taskweb/internal/service"
	"github.com/nhle/taskweb/internal/theme"
)

// TaskSubmittedMsg is dispatched when the form is completed. TaskID is zero
// for a new task.
type TaskSubmittedMsg struct {
	TaskID int64
	Input  service.TaskInput
}

// CancelMsg is dispatched when the user aborts the form.
type CancelMsg struct{}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	title       string
	description string
	priority    string
	completed   bool
}

// Model is the Bubble Tea model for the task create/edit form.
type Model struct {
	form     *huh.Form
	fb       *formBindings
	validate *validator.Validate
	editID   int64
	owner    string
	width    int
	height   int
}

// New creates a new task form model.
func New(width, height int) Model {
	return Model{
		fb:       &formBindings{},
		validate: service.NewValidator(),
		width:    width,
		height:   height,
	}
}

// StartCreate initializes the form for a new task owned by owner.
func (m *Model) StartCreate(owner string) tea.Cmd {
	m.editID = 0
	m.owner = owner
	*m.fb = formBindings{priority: "1"}
	m.form = m.buildForm(false)
	return m.form.Init()
}

// StartEdit initializes the form with an existing task.
func (m *Model) StartEdit(owner string, task model.Task) tea.Cmd {
	m.editID = task.ID
	m.owner = owner
	*m.fb = formBindings{
		title:       task.Title,
		description: task.Description,
		priority:    strconv.Itoa(task.Priority),
		completed:   task.Completed,
	}
	m.form = m.buildForm(true)
	return m.form.Init()
}

// Editing reports whether the form edits an existing task.
func (m Model) Editing() bool {
	return m.editID != 0
}

// Update handles messages for the task form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		m.form = nil
		return m, m.submit()
	case huh.StateAborted:
		m.form = nil
		return m, func() tea.Msg { return CancelMsg{} }
	}
	return m, cmd
}

// View renders the task form.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}

	heading := "New task for " + m.owner
	if m.Editing() {
		heading = "Edit task #" + strconv.FormatInt(m.editID, 10)
	}
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(titleStyle.Render(heading) + "\n" + m.form.View())
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *Model) buildForm(edit bool) *huh.Form {
	fields := []huh.Field{
		huh.NewInput().
			Title("Title").
			Placeholder("At least five characters").
			Value(&m.fb.title).
			Validate(m.validateTitle),
		huh.NewText().
			Title("Description").
			Placeholder("Optional details...").
			Value(&m.fb.description),
		huh.NewInput().
			Title("Priority").
			Description("1 is the most urgent; taken slots shift down").
			Value(&m.fb.priority).
			Validate(m.validatePriority),
	}
	if edit {
		fields = append(fields,
			huh.NewConfirm().
				Title("Completed").
				Value(&m.fb.completed),
		)
	}

	return huh.NewForm(
		huh.NewGroup(fields...),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func (m Model) submit() tea.Cmd {
	in, err := m.input()
	if err != nil {
		return func() tea.Msg { return CancelMsg{} }
	}
	id := m.editID
	return func() tea.Msg { return TaskSubmittedMsg{TaskID: id, Input: in} }
}

// input converts the bound values into a service input.
func (m Model) input() (service.TaskInput, error) {
	p, err := parsePriority(m.fb.priority)
	if err != nil {
		return service.TaskInput{}, err
	}
	return service.TaskInput{
		Title:       m.fb.title,
		Description: m.fb.description,
		Priority:    p,
		Completed:   m.fb.completed,
	}, nil
}

func (m Model) validateTitle(s string) error {
	err := m.validate.Var(strings.TrimSpace(s), "required,min=5,max=255")
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		switch fieldErrs[0].Tag() {
		case "required":
			return errors.New(service.MsgRequired)
		case "max":
			return errors.New(service.MsgTitleTooLong)
		}
		return errors.New(service.MsgTitleTooSmall)
	}
	return err
}

func (m Model) validatePriority(s string) error {
	_, err := parsePriority(s)
	return err
}

func parsePriority(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.New(service.MsgRequired)
	}
	p, err := strconv.Atoi(s)
	if err != nil {
		return 0, errors.New(service.MsgWholeNumber)
	}
	if p <= 0 {
		return 0, errors.New(service.MsgPriorityPositive)
	}
	if p > model.MaxPriority {
		return 0, errors.New(service.MsgPriorityTooLarge)
	}
	return p, nil
}

func (m Model) formWidth() int {
	return min(max(m.width-4, 40), 100)
}

func (m Model) formHeight() int {
	return max(m.height-4, 10)
}
