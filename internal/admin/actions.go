package admin

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/taskweb/internal/model"
	"github.com/nhle/taskweb/internal/service"
)

// taskSavedMsg is sent after a create or update went through the service.
type taskSavedMsg struct {
	task    *model.Task
	created bool
	err     error
}

// taskToggledMsg is sent after a completion toggle.
type taskToggledMsg struct {
	task *model.Task
	err  error
}

// taskDeletedMsg is sent after a soft delete.
type taskDeletedMsg struct {
	id  int64
	err error
}

// saveTask creates (id == 0) or updates a task of the listed user. Both go
// through the service so collisions are reindexed as in the web app.
func (m Model) saveTask(id int64, in service.TaskInput) tea.Cmd {
	svc := m.svc
	userID := m.taskList.User().ID
	return func() tea.Msg {
		ctx := context.Background()
		if id == 0 {
			task, err := svc.Create(ctx, userID, in)
			return taskSavedMsg{task: task, created: true, err: err}
		}
		task, err := svc.Update(ctx, userID, id, in)
		return taskSavedMsg{task: task, err: err}
	}
}

func (m Model) toggleTask(id int64) tea.Cmd {
	svc := m.svc
	userID := m.taskList.User().ID
	return func() tea.Msg {
		task, err := svc.ToggleComplete(context.Background(), userID, id)
		return taskToggledMsg{task: task, err: err}
	}
}

func (m Model) deleteTask(id int64) tea.Cmd {
	svc := m.svc
	userID := m.taskList.User().ID
	return func() tea.Msg {
		err := svc.Delete(context.Background(), userID, id)
		return taskDeletedMsg{id: id, err: err}
	}
}

// reload refreshes the visible list and the user counts.
func (m Model) reload() tea.Cmd {
	if m.currentView == ViewUsers {
		return m.userList.LoadUsers()
	}
	return tea.Batch(m.taskList.LoadTasks(), m.userList.LoadUsers())
}

// setError reports a failed action in the status bar.
func (m *Model) setError(action string, err error) {
	m.logger.WithError(err).WithField("action", action).Warn("admin.action.failed")

	if ve, ok := service.AsValidationError(err); ok {
		m.setFailure(fmt.Sprintf("%s: %s", action, ve.Error()))
		return
	}
	if errors.Is(err, service.ErrNotFound) {
		m.setFailure(action + ": task not found")
		return
	}
	m.setFailure(fmt.Sprintf("%s: %v", action, err))
}
