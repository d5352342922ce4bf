// Package service holds the task use cases shared by the web application and
// the admin console: validation, owner-scoped reads and mutations that
// trigger priority reindexing.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/nhle/taskweb/internal/model"
	"github.com/nhle/taskweb/internal/priority"
	"github.com/nhle/taskweb/internal/store"
)

const tracerName = "github.com/nhle/taskweb/internal/service"

// TaskService implements task queries and mutations for a single owner at a time.
type TaskService struct {
	store    store.Store
	logger   *log.Logger
	validate *validator.Validate
}

// NewTaskService creates a TaskService. A nil logger uses the logrus standard logger.
func NewTaskService(s store.Store, logger *log.Logger) *TaskService {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &TaskService{
		store:    s,
		logger:   logger,
		validate: NewValidator(),
	}
}

// ActiveTasks lists the owner's pending tasks by priority, optionally
// filtered by a case-insensitive title substring.
func (s *TaskService) ActiveTasks(ctx context.Context, userID int64, query string) ([]model.Task, error) {
	pending := false
	tasks, err := s.store.GetTasks(ctx, store.TaskFilter{
		UserID:    userID,
		Completed: &pending,
		Query:     query,
	})
	if err != nil {
		return nil, fmt.Errorf("listing active tasks: %w", err)
	}
	return tasks, nil
}

// CompletedTasks lists the owner's completed, non-deleted tasks.
func (s *TaskService) CompletedTasks(ctx context.Context, userID int64) ([]model.Task, error) {
	completed := true
	tasks, err := s.store.GetTasks(ctx, store.TaskFilter{
		UserID:    userID,
		Completed: &completed,
	})
	if err != nil {
		return nil, fmt.Errorf("listing completed tasks: %w", err)
	}
	return tasks, nil
}

// AllTasks lists every task of the owner, including completed and
// soft-deleted ones. Used by the admin console.
func (s *TaskService) AllTasks(ctx context.Context, userID int64, query string) ([]model.Task, error) {
	tasks, err := s.store.GetTasks(ctx, store.TaskFilter{
		UserID:         userID,
		IncludeDeleted: true,
		Query:          query,
	})
	if err != nil {
		return nil, fmt.Errorf("listing all tasks: %w", err)
	}
	return tasks, nil
}

// Summary returns the combined pending/completed view with counts.
func (s *TaskService) Summary(ctx context.Context, userID int64) (*model.TaskSummary, error) {
	pending, err := s.ActiveTasks(ctx, userID, "")
	if err != nil {
		return nil, err
	}
	completed, err := s.CompletedTasks(ctx, userID)
	if err != nil {
		return nil, err
	}
	total, err := s.store.GetTaskCount(ctx, store.TaskFilter{UserID: userID})
	if err != nil {
		return nil, fmt.Errorf("counting tasks: %w", err)
	}
	return &model.TaskSummary{
		Pending:     pending,
		Completed:   completed,
		ActiveCount: len(pending),
		TotalCount:  total,
	}, nil
}

// Get returns one of the owner's non-deleted tasks.
func (s *TaskService) Get(ctx context.Context, userID, id int64) (*model.Task, error) {
	task, err := s.store.GetTask(ctx, userID, id)
	if err != nil {
		return nil, translate(err)
	}
	return task, nil
}

// Create validates in and stores a new active task, shifting colliding
// priorities in the same transaction.
func (s *TaskService) Create(ctx context.Context, userID int64, in TaskInput) (*model.Task, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "tasks.create",
		trace.WithAttributes(attribute.Int64("user.id", userID)))
	defer span.End()

	if err := s.ValidateTask(&in); err != nil {
		span.SetStatus(codes.Error, "validation failed")
		return nil, err
	}

	task := &model.Task{
		UserID:      userID,
		Title:       in.Title,
		Description: in.Description,
		Priority:    in.Priority,
	}
	moves, err := s.store.SaveTask(ctx, task, true)
	if err != nil {
		recordError(span, err)
		if ve := overflowError(err); ve != nil {
			return nil, ve
		}
		return nil, fmt.Errorf("creating task: %w", err)
	}
	s.logMoves(span, task, moves)
	return task, nil
}

// Update validates in and applies it to an existing task. Reindexing runs
// when the task ends up active and either its priority changed or it was
// previously completed.
func (s *TaskService) Update(ctx context.Context, userID, id int64, in TaskInput) (*model.Task, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "tasks.update",
		trace.WithAttributes(
			attribute.Int64("user.id", userID),
			attribute.Int64("task.id", id),
		))
	defer span.End()

	if err := s.ValidateTask(&in); err != nil {
		span.SetStatus(codes.Error, "validation failed")
		return nil, err
	}

	existing, err := s.store.GetTask(ctx, userID, id)
	if err != nil {
		recordError(span, err)
		return nil, translate(err)
	}

	reindex := !in.Completed && (existing.Priority != in.Priority || existing.Completed)

	task := *existing
	task.Title = in.Title
	task.Description = in.Description
	task.Priority = in.Priority
	task.Completed = in.Completed

	moves, err := s.store.SaveTask(ctx, &task, reindex)
	if err != nil {
		recordError(span, err)
		if ve := overflowError(err); ve != nil {
			return nil, ve
		}
		return nil, translate(err)
	}
	span.SetAttributes(attribute.Bool("tasks.reindexed", reindex))
	s.logMoves(span, &task, moves)
	return &task, nil
}

// ToggleComplete flips the completed flag. Priorities are not touched.
func (s *TaskService) ToggleComplete(ctx context.Context, userID, id int64) (*model.Task, error) {
	if err := s.store.ToggleTaskCompleted(ctx, userID, id); err != nil {
		return nil, translate(err)
	}
	return s.Get(ctx, userID, id)
}

// Delete soft-deletes a task.
func (s *TaskService) Delete(ctx context.Context, userID, id int64) error {
	if err := s.store.SoftDeleteTask(ctx, userID, id); err != nil {
		return translate(err)
	}
	s.logger.WithFields(log.Fields{"user_id": userID, "task_id": id}).Debug("tasks.deleted")
	return nil
}

// Users lists accounts with task counts for the admin console.
func (s *TaskService) Users(ctx context.Context) ([]model.UserOverview, error) {
	users, err := s.store.GetUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	return users, nil
}

func (s *TaskService) logMoves(span trace.Span, task *model.Task, moves []priority.Move) {
	span.SetAttributes(
		attribute.Int64("task.id", task.ID),
		attribute.Int("task.priority", task.Priority),
		attribute.Int("tasks.moved", len(moves)),
	)
	if len(moves) == 0 {
		return
	}
	s.logger.WithFields(log.Fields{
		"user_id":  task.UserID,
		"task_id":  task.ID,
		"priority": task.Priority,
		"moved":    len(moves),
		"last_to":  moves[len(moves)-1].To,
	}).Debug("tasks.reindexed")
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// overflowError reports a reindex that ran out of priorities as a field error.
func overflowError(err error) *ValidationError {
	if !errors.Is(err, store.ErrPriorityOverflow) {
		return nil
	}
	ve := NewValidationError()
	ve.Add("priority", MsgPriorityNoRoom)
	return ve
}

// translate maps store lookups that miss into ErrNotFound.
func translate(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	return err
}
