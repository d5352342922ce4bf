package service_test

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/nhle/taskweb/internal/model"
	"github.com/nhle/taskweb/internal/service"
	"github.com/nhle/taskweb/internal/store"
	"github.com/nhle/taskweb/tests/testutil"
)

func newService(t *testing.T) (*service.TaskService, store.Store, *model.User) {
	t.Helper()
	s := testutil.NewTestStore(t)
	logger, _ := test.NewNullLogger()
	u := testutil.CreateUser(t, s, "alice", "s3cret-pass")
	return service.NewTaskService(s, logger), s, u
}

func mustCreate(t *testing.T, svc *service.TaskService, userID int64, title string, p int) *model.Task {
	t.Helper()
	task, err := svc.Create(context.Background(), userID, service.TaskInput{Title: title, Priority: p})
	if err != nil {
		t.Fatalf("create %q: %v", title, err)
	}
	return task
}

func assertUniquePriorities(t *testing.T, s store.Store, userID int64) {
	t.Helper()
	pending := false
	tasks, err := s.GetTasks(context.Background(), store.TaskFilter{UserID: userID, Completed: &pending})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	seen := map[int]int64{}
	for _, task := range tasks {
		if other, ok := seen[task.Priority]; ok {
			t.Fatalf("tasks %d and %d share priority %d", other, task.ID, task.Priority)
		}
		seen[task.Priority] = task.ID
	}
}

func TestCreateShiftsCollidingChain(t *testing.T) {
	svc, s, u := newService(t)
	ctx := context.Background()

	mustCreate(t, svc, u.ID, "first task", 1)
	mustCreate(t, svc, u.ID, "second task", 2)
	mustCreate(t, svc, u.ID, "third task", 3)

	created, err := svc.Create(ctx, u.ID, service.TaskInput{Title: "  newcomer  ", Priority: 2})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Title != "NEWCOMER" || created.Priority != 2 || created.Completed || created.Deleted {
		t.Fatalf("unexpected created task: %+v", created)
	}

	got := testutil.Priorities(t, s, u.ID)
	want := map[string]int{"FIRST TASK": 1, "NEWCOMER": 2, "SECOND TASK": 3, "THIRD TASK": 4}
	for title, p := range want {
		if got[title] != p {
			t.Fatalf("%s: got %d want %d", title, got[title], p)
		}
	}
}

func TestCreateValidation(t *testing.T) {
	svc, s, u := newService(t)

	tests := []struct {
		name string
		in   service.TaskInput
		want map[string]string
	}{
		{"short title", service.TaskInput{Title: "abcd", Priority: 1}, map[string]string{"title": service.MsgTitleTooSmall}},
		{"padded short title", service.TaskInput{Title: "  ab  ", Priority: 1}, map[string]string{"title": service.MsgTitleTooSmall}},
		{"missing title", service.TaskInput{Title: "   ", Priority: 1}, map[string]string{"title": service.MsgRequired}},
		{"zero priority", service.TaskInput{Title: "valid title", Priority: 0}, map[string]string{"priority": service.MsgPriorityPositive}},
		{"negative priority", service.TaskInput{Title: "valid title", Priority: -3}, map[string]string{"priority": service.MsgPriorityPositive}},
		{"priority above column range", service.TaskInput{Title: "valid title", Priority: math.MaxInt64}, map[string]string{"priority": service.MsgPriorityTooLarge}},
		{"long title", service.TaskInput{Title: strings.Repeat("a", model.MaxTitleLength+1), Priority: 1}, map[string]string{"title": service.MsgTitleTooLong}},
		{"both", service.TaskInput{Title: "x", Priority: 0}, map[string]string{"title": service.MsgTitleTooSmall, "priority": service.MsgPriorityPositive}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), u.ID, tt.in)
			ve, ok := service.AsValidationError(err)
			if !ok {
				t.Fatalf("expected validation error, got %v", err)
			}
			if len(ve.Fields) != len(tt.want) {
				t.Fatalf("unexpected fields: %v", ve.Fields)
			}
			for field, msg := range tt.want {
				if ve.Fields[field] != msg {
					t.Fatalf("%s: got %q want %q", field, ve.Fields[field], msg)
				}
			}
		})
	}

	count, err := s.GetTaskCount(context.Background(), store.TaskFilter{UserID: u.ID, IncludeDeleted: true})
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Fatalf("invalid input was persisted: %d rows", count)
	}
}

func TestCreateAtMaxPriorityReportsNoRoom(t *testing.T) {
	svc, s, u := newService(t)
	ctx := context.Background()

	mustCreate(t, svc, u.ID, "almost top", model.MaxPriority-1)
	mustCreate(t, svc, u.ID, "top task", model.MaxPriority)
	mustCreate(t, svc, u.ID, strings.Repeat("b", model.MaxTitleLength), 1)

	_, err := svc.Create(ctx, u.ID, service.TaskInput{Title: "one more", Priority: model.MaxPriority - 1})
	ve, ok := service.AsValidationError(err)
	if !ok {
		t.Fatalf("expected validation error, got %v", err)
	}
	if ve.Fields["priority"] != service.MsgPriorityNoRoom {
		t.Fatalf("priority message = %q", ve.Fields["priority"])
	}

	got := testutil.Priorities(t, s, u.ID)
	if got["ALMOST TOP"] != model.MaxPriority-1 || got["TOP TASK"] != model.MaxPriority {
		t.Fatalf("priorities changed after failed create: %v", got)
	}
	if len(got) != 3 {
		t.Fatalf("failed create was persisted: %v", got)
	}
}

func TestUpdateSamePriorityDoesNotReindex(t *testing.T) {
	svc, s, u := newService(t)
	ctx := context.Background()

	a := mustCreate(t, svc, u.ID, "alpha task", 1)
	mustCreate(t, svc, u.ID, "bravo task", 2)

	if _, err := svc.Update(ctx, u.ID, a.ID, service.TaskInput{Title: "alpha renamed", Priority: 1}); err != nil {
		t.Fatalf("update: %v", err)
	}
	got := testutil.Priorities(t, s, u.ID)
	if got["ALPHA RENAMED"] != 1 || got["BRAVO TASK"] != 2 {
		t.Fatalf("unexpected priorities: %v", got)
	}
}

func TestUpdateMovesIntoOccupiedSlot(t *testing.T) {
	svc, s, u := newService(t)
	ctx := context.Background()

	a := mustCreate(t, svc, u.ID, "alpha task", 1)
	mustCreate(t, svc, u.ID, "bravo task", 2)
	mustCreate(t, svc, u.ID, "charlie task", 3)

	if _, err := svc.Update(ctx, u.ID, a.ID, service.TaskInput{Title: "alpha task", Priority: 2}); err != nil {
		t.Fatalf("update: %v", err)
	}
	got := testutil.Priorities(t, s, u.ID)
	want := map[string]int{"ALPHA TASK": 2, "BRAVO TASK": 3, "CHARLIE TASK": 4}
	for title, p := range want {
		if got[title] != p {
			t.Fatalf("%s: got %d want %d", title, got[title], p)
		}
	}
}

func TestToggleDoesNotReindexButReactivationOnUpdateDoes(t *testing.T) {
	svc, s, u := newService(t)
	ctx := context.Background()

	a := mustCreate(t, svc, u.ID, "alpha task", 1)
	toggled, err := svc.ToggleComplete(ctx, u.ID, a.ID)
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if !toggled.Completed || toggled.Priority != 1 {
		t.Fatalf("unexpected toggled task: %+v", toggled)
	}

	b := mustCreate(t, svc, u.ID, "bravo task", 1)

	// Toggling back leaves a duplicate; toggle never reindexes.
	if _, err := svc.ToggleComplete(ctx, u.ID, a.ID); err != nil {
		t.Fatalf("toggle back: %v", err)
	}
	got := testutil.Priorities(t, s, u.ID)
	if got["ALPHA TASK"] != 1 || got["BRAVO TASK"] != 1 {
		t.Fatalf("toggle changed priorities: %v", got)
	}

	// Reactivating through the update form reindexes.
	if _, err := svc.ToggleComplete(ctx, u.ID, a.ID); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if _, err := svc.Update(ctx, u.ID, a.ID, service.TaskInput{Title: "alpha task", Priority: 1, Completed: false}); err != nil {
		t.Fatalf("update: %v", err)
	}
	assertUniquePriorities(t, s, u.ID)
	reloaded, err := svc.Get(ctx, u.ID, b.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if reloaded.Priority != 2 {
		t.Fatalf("expected bravo to move to 2, got %d", reloaded.Priority)
	}
}

func TestCrossUserAccessIsNotFound(t *testing.T) {
	svc, s, alice := newService(t)
	ctx := context.Background()
	bob := testutil.CreateUser(t, s, "bob", "s3cret-pass")

	task := mustCreate(t, svc, alice.ID, "alice private", 1)

	checks := map[string]func() error{
		"get": func() error { _, err := svc.Get(ctx, bob.ID, task.ID); return err },
		"update": func() error {
			_, err := svc.Update(ctx, bob.ID, task.ID, service.TaskInput{Title: "hijacked", Priority: 1})
			return err
		},
		"toggle": func() error { _, err := svc.ToggleComplete(ctx, bob.ID, task.ID); return err },
		"delete": func() error { return svc.Delete(ctx, bob.ID, task.ID) },
	}
	for name, fn := range checks {
		if err := fn(); !errors.Is(err, service.ErrNotFound) {
			t.Fatalf("%s: expected ErrNotFound, got %v", name, err)
		}
	}

	reloaded, err := svc.Get(ctx, alice.ID, task.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if reloaded.Title != "ALICE PRIVATE" || reloaded.Completed {
		t.Fatalf("task was modified: %+v", reloaded)
	}
}

func TestDeleteHidesTaskAndFreesPriority(t *testing.T) {
	svc, s, u := newService(t)
	ctx := context.Background()

	a := mustCreate(t, svc, u.ID, "alpha task", 1)
	if err := svc.Delete(ctx, u.ID, a.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.Get(ctx, u.ID, a.ID); !errors.Is(err, service.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := svc.Update(ctx, u.ID, a.ID, service.TaskInput{Title: "alpha task", Priority: 1}); !errors.Is(err, service.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on update, got %v", err)
	}

	mustCreate(t, svc, u.ID, "bravo task", 1)
	got := testutil.Priorities(t, s, u.ID)
	if len(got) != 1 || got["BRAVO TASK"] != 1 {
		t.Fatalf("unexpected active tasks: %v", got)
	}
}

func TestSummaryAndSearch(t *testing.T) {
	svc, _, u := newService(t)
	ctx := context.Background()

	mustCreate(t, svc, u.ID, "buy groceries", 1)
	mustCreate(t, svc, u.ID, "call plumber", 2)
	done := mustCreate(t, svc, u.ID, "buy stamps", 3)
	gone := mustCreate(t, svc, u.ID, "old chore", 4)
	if _, err := svc.ToggleComplete(ctx, u.ID, done.ID); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if err := svc.Delete(ctx, u.ID, gone.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	summary, err := svc.Summary(ctx, u.ID)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if summary.ActiveCount != 2 || summary.TotalCount != 3 {
		t.Fatalf("unexpected counts: active=%d total=%d", summary.ActiveCount, summary.TotalCount)
	}
	if len(summary.Completed) != 1 || summary.Completed[0].ID != done.ID {
		t.Fatalf("unexpected completed list: %+v", summary.Completed)
	}

	found, err := svc.ActiveTasks(ctx, u.ID, "Buy")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(found) != 1 || found[0].Title != "BUY GROCERIES" {
		t.Fatalf("unexpected search result: %+v", found)
	}

	all, err := svc.AllTasks(ctx, u.ID, "")
	if err != nil {
		t.Fatalf("all tasks: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("expected 4 tasks including deleted, got %d", len(all))
	}
}

func TestConcurrentCreatesKeepPrioritiesUnique(t *testing.T) {
	svc, s, u := newService(t)
	ctx := context.Background()

	const workers = 12
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.Create(ctx, u.ID, service.TaskInput{
				Title:    fmt.Sprintf("parallel %02d", i),
				Priority: 1 + i%3,
			})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	if got := testutil.Priorities(t, s, u.ID); len(got) != workers {
		t.Fatalf("expected %d tasks, got %d", workers, len(got))
	}
	assertUniquePriorities(t, s, u.ID)
}

func TestCreateRecordsSpanAndLogsReindex(t *testing.T) {
	s := testutil.NewTestStore(t)
	u := testutil.CreateUser(t, s, "alice", "s3cret-pass")
	logger, hook := test.NewNullLogger()
	logger.SetLevel(log.DebugLevel)
	svc := service.NewTaskService(s, logger)

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sdktrace.NewSimpleSpanProcessor(exporter)))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		otel.SetTracerProvider(prev)
	})

	mustCreate(t, svc, u.ID, "first task", 1)
	mustCreate(t, svc, u.ID, "second task", 1)

	spans := exporter.GetSpans()
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(spans))
	}
	last := spans[1]
	if last.Name != "tasks.create" {
		t.Fatalf("unexpected span name %q", last.Name)
	}
	attrs := map[string]any{}
	for _, kv := range last.Attributes {
		attrs[string(kv.Key)] = kv.Value.AsInterface()
	}
	if attrs["tasks.moved"] != int64(1) {
		t.Fatalf("unexpected tasks.moved attribute: %#v", attrs["tasks.moved"])
	}

	entry := hook.LastEntry()
	if entry == nil || entry.Message != "tasks.reindexed" {
		t.Fatalf("expected tasks.reindexed log entry, got %+v", entry)
	}
	if entry.Data["moved"] != 1 {
		t.Fatalf("unexpected moved field: %#v", entry.Data["moved"])
	}
}
