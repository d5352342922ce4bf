package web

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/nhle/taskweb/internal/model"
	"github.com/nhle/taskweb/internal/service"
)

// taskForm holds the raw form values so invalid input can be redisplayed.
type taskForm struct {
	Title       string
	Description string
	Priority    string
	Completed   bool
}

func formFromTask(t *model.Task) taskForm {
	return taskForm{
		Title:       t.Title,
		Description: t.Description,
		Priority:    strconv.Itoa(t.Priority),
		Completed:   t.Completed,
	}
}

// readTaskForm parses the posted task form. Priority parse problems are
// returned as field errors; the rest is validated by the service.
func readTaskForm(c echo.Context) (taskForm, service.TaskInput, *service.ValidationError) {
	form := taskForm{
		Title:       c.FormValue("title"),
		Description: c.FormValue("description"),
		Priority:    strings.TrimSpace(c.FormValue("priority")),
		Completed:   isChecked(c.FormValue("completed")),
	}
	in := service.TaskInput{
		Title:       form.Title,
		Description: form.Description,
		Completed:   form.Completed,
	}

	ve := service.NewValidationError()
	switch p, err := strconv.Atoi(form.Priority); {
	case form.Priority == "":
		ve.Add("priority", service.MsgRequired)
	case err != nil:
		ve.Add("priority", service.MsgWholeNumber)
	default:
		in.Priority = p
	}
	return form, in, ve
}

func isChecked(v string) bool {
	switch strings.ToLower(v) {
	case "on", "true", "1", "yes":
		return true
	}
	return false
}

func taskID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.ErrNotFound
	}
	return id, nil
}

func (s *Server) listPending(c echo.Context) error {
	search := strings.TrimSpace(c.QueryParam("search"))
	tasks, err := s.tasks.ActiveTasks(c.Request().Context(), currentUser(c).ID, search)
	if err != nil {
		return err
	}
	return c.Render(http.StatusOK, "tasks", page{"Tasks": tasks, "Search": search})
}

func (s *Server) listCompleted(c echo.Context) error {
	tasks, err := s.tasks.CompletedTasks(c.Request().Context(), currentUser(c).ID)
	if err != nil {
		return err
	}
	return c.Render(http.StatusOK, "completed", page{"Tasks": tasks})
}

func (s *Server) listAll(c echo.Context) error {
	summary, err := s.tasks.Summary(c.Request().Context(), currentUser(c).ID)
	if err != nil {
		return err
	}
	return c.Render(http.StatusOK, "all", page{"Summary": summary})
}

func (s *Server) detail(c echo.Context) error {
	id, err := taskID(c)
	if err != nil {
		return err
	}
	task, err := s.tasks.Get(c.Request().Context(), currentUser(c).ID, id)
	if err != nil {
		return err
	}
	return c.Render(http.StatusOK, "task_detail", page{"Task": task})
}

func (s *Server) create(c echo.Context) error {
	if c.Request().Method != http.MethodPost {
		return s.renderTaskForm(c, "/create-task/", nil, taskForm{}, nil)
	}

	form, in, ve := readTaskForm(c)
	if !ve.Empty() {
		ve.Merge(validateOnly(s.tasks, in))
		return s.renderTaskForm(c, "/create-task/", nil, form, ve)
	}
	_, err := s.tasks.Create(c.Request().Context(), currentUser(c).ID, in)
	if fe, ok := service.AsValidationError(err); ok {
		return s.renderTaskForm(c, "/create-task/", nil, form, fe)
	}
	if err != nil {
		return err
	}
	return c.Redirect(http.StatusFound, homePath)
}

func (s *Server) update(c echo.Context) error {
	id, err := taskID(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	user := currentUser(c)
	task, err := s.tasks.Get(ctx, user.ID, id)
	if err != nil {
		return err
	}
	action := "/update-task/" + strconv.FormatInt(id, 10)

	if c.Request().Method != http.MethodPost {
		return s.renderTaskForm(c, action, task, formFromTask(task), nil)
	}

	form, in, ve := readTaskForm(c)
	if !ve.Empty() {
		ve.Merge(validateOnly(s.tasks, in))
		return s.renderTaskForm(c, action, task, form, ve)
	}
	_, err = s.tasks.Update(ctx, user.ID, id, in)
	if fe, ok := service.AsValidationError(err); ok {
		return s.renderTaskForm(c, action, task, form, fe)
	}
	if err != nil {
		return err
	}
	return c.Redirect(http.StatusFound, homePath)
}

func (s *Server) delete(c echo.Context) error {
	return s.confirm(c, "Delete task", "Delete", "/delete-task/%d/", s.tasks.Delete)
}

func (s *Server) complete(c echo.Context) error {
	return s.confirm(c, "Complete task", "Toggle completion of", "/complete_task/%d/",
		func(ctx context.Context, userID, id int64) error {
			_, err := s.tasks.ToggleComplete(ctx, userID, id)
			return err
		})
}

// confirm shows a confirmation page on GET and runs act on POST.
func (s *Server) confirm(
	c echo.Context,
	heading, question, actionFmt string,
	act func(ctx context.Context, userID, id int64) error,
) error {
	id, err := taskID(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	user := currentUser(c)

	if c.Request().Method == http.MethodPost {
		if err := act(ctx, user.ID, id); err != nil {
			return err
		}
		return c.Redirect(http.StatusFound, homePath)
	}

	task, err := s.tasks.Get(ctx, user.ID, id)
	if err != nil {
		return err
	}
	return c.Render(http.StatusOK, "task_confirm", page{
		"Heading":  heading,
		"Question": question,
		"Task":     task,
		"Action":   fmt.Sprintf(actionFmt, id),
	})
}

func (s *Server) renderTaskForm(c echo.Context, action string, task *model.Task, form taskForm, ve *service.ValidationError) error {
	errs := map[string]string{}
	if ve != nil {
		errs = ve.Fields
	}
	p := page{"Action": action, "Form": form, "Errors": errs}
	if task != nil {
		p["Task"] = task
	}
	return c.Render(http.StatusOK, "task_form", p)
}

// validateOnly runs the service rules without saving so that every field
// error is shown at once.
func validateOnly(svc *service.TaskService, in service.TaskInput) *service.ValidationError {
	in.Priority = 1 // already reported by the form parser
	if ve, ok := service.AsValidationError(svc.ValidateTask(&in)); ok {
		return ve
	}
	return nil
}
