package priority

import (
	"math/rand"
	"reflect"
	"testing"

	"github.com/nhle/taskweb/internal/model"
)

func tasksAt(priorities ...int) []model.Task {
	out := make([]model.Task, len(priorities))
	for i, p := range priorities {
		out[i] = model.Task{ID: int64(i + 1), Priority: p}
	}
	return out
}

func applyMoves(tasks []model.Task, moves []Move) []model.Task {
	to := make(map[int64]int, len(moves))
	for _, m := range moves {
		to[m.TaskID] = m.To
	}
	out := make([]model.Task, len(tasks))
	for i, t := range tasks {
		if p, ok := to[t.ID]; ok {
			t.Priority = p
		}
		out[i] = t
	}
	return out
}

func TestPlan(t *testing.T) {
	tests := []struct {
		name      string
		existing  []int
		candidate int
		want      []Move
	}{
		{
			name:      "no collision",
			existing:  []int{1, 3},
			candidate: 2,
			want:      nil,
		},
		{
			name:      "contiguous chain shifts",
			existing:  []int{1, 2, 3},
			candidate: 2,
			want: []Move{
				{TaskID: 2, From: 2, To: 3},
				{TaskID: 3, From: 3, To: 4},
			},
		},
		{
			name:      "stops at first gap",
			existing:  []int{2, 4, 5},
			candidate: 2,
			want:      []Move{{TaskID: 1, From: 2, To: 3}},
		},
		{
			name:      "unordered input",
			existing:  []int{3, 1, 2},
			candidate: 1,
			want: []Move{
				{TaskID: 2, From: 1, To: 2},
				{TaskID: 3, From: 2, To: 3},
				{TaskID: 1, From: 3, To: 4},
			},
		},
		{
			name:      "candidate above everything",
			existing:  []int{1, 2},
			candidate: 10,
			want:      nil,
		},
		{
			name:      "duplicates in the run are pushed along",
			existing:  []int{2, 2, 3},
			candidate: 2,
			want: []Move{
				{TaskID: 1, From: 2, To: 3},
				{TaskID: 2, From: 2, To: 4},
				{TaskID: 3, From: 3, To: 5},
			},
		},
		{
			name:      "run ending at the column limit",
			existing:  []int{model.MaxPriority - 1, model.MaxPriority},
			candidate: model.MaxPriority - 1,
			want: []Move{
				{TaskID: 1, From: model.MaxPriority - 1, To: model.MaxPriority},
				{TaskID: 2, From: model.MaxPriority, To: model.MaxPriority + 1},
			},
		},
		{
			name:      "empty",
			existing:  nil,
			candidate: 1,
			want:      nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Plan(tasksAt(tt.existing...), tt.candidate)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("Plan(%v, %d) = %+v, want %+v", tt.existing, tt.candidate, got, tt.want)
			}
		})
	}
}

func TestPlanDoesNotMutateInput(t *testing.T) {
	in := tasksAt(3, 1, 2)
	_ = Plan(in, 1)
	if in[0].Priority != 3 || in[1].Priority != 1 || in[2].Priority != 2 {
		t.Fatalf("input was modified: %+v", in)
	}
}

func TestPlanKeepsPrioritiesUnique(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 500; i++ {
		used := map[int]bool{}
		var existing []int
		n := rng.Intn(12)
		for len(existing) < n {
			p := rng.Intn(15) + 1
			if !used[p] {
				used[p] = true
				existing = append(existing, p)
			}
		}
		candidate := rng.Intn(16) + 1
		tasks := tasksAt(existing...)

		after := applyMoves(tasks, Plan(tasks, candidate))

		seen := map[int]bool{candidate: true}
		for j, task := range after {
			if seen[task.Priority] {
				t.Fatalf("existing=%v candidate=%d: duplicate priority %d", existing, candidate, task.Priority)
			}
			seen[task.Priority] = true
			if task.Priority != tasks[j].Priority && task.Priority != tasks[j].Priority+1 {
				t.Fatalf("task moved by more than one: %d -> %d", tasks[j].Priority, task.Priority)
			}
		}
	}
}
