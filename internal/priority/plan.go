// Package priority computes the shifts needed to keep a user's active task
// priorities unique when a task claims a priority slot.
package priority

import (
	"sort"

	"github.com/nhle/taskweb/internal/model"
)

// Move relocates one task to a new priority.
type Move struct {
	TaskID int64
	From   int
	To     int
}

// Plan returns the moves that free slot candidate among active.
//
// Starting at candidate, every task sitting on the current slot is pushed to
// the next one and the scan continues with that slot. The scan ends at the
// first gap, so only a contiguous run above candidate is shifted. Tasks below
// candidate are never touched. The caller must exclude the claiming task.
func Plan(active []model.Task, candidate int) []Move {
	ordered := make([]model.Task, len(active))
	copy(ordered, active)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority < ordered[j].Priority
	})

	var moves []Move
	slot := candidate
	for _, t := range ordered {
		if t.Priority < candidate {
			continue
		}
		// Duplicates already inside the run are pushed along with it.
		if t.Priority > slot {
			break
		}
		moves = append(moves, Move{TaskID: t.ID, From: t.Priority, To: slot + 1})
		slot++
	}
	return moves
}
