package domain

import (
	"fmt"
	"time"
)

// Rollups maps a cut key to summed hours.
type Rollups map[string]float64

// Add accumulates hours into every given cut.
func (r Rollups) Add(hours float64, cuts ...string) {
	for _, cut := range cuts {
		r[cut] += hours
	}
}

// SprintCut is the whole-sprint planned hours key.
const SprintCut = "sprint"

func EpicCut(epicID int64) string {
	return fmt.Sprintf("epic:%d", epicID)
}

func EpicStatusCut(epicID int64, status TaskStatus) string {
	return fmt.Sprintf("epic:%d:%s", epicID, status)
}

func StoryCut(storyID int64) string {
	return fmt.Sprintf("story:%d", storyID)
}

func StoryStatusCut(storyID int64, status TaskStatus) string {
	return fmt.Sprintf("story:%d:%s", storyID, status)
}

func DayCut(day time.Time) string {
	return "day:" + DateKey(day)
}

// GridDay is one calendar row of a sprint board.
type GridDay struct {
	Index int       `json:"index"`
	Date  time.Time `json:"date"`
	Hours []int     `json:"hours"`
}

// Summary aggregates the member tasks of a story or epic.
type Summary struct {
	Estimate          float64 `json:"estimate"`
	Tasks             int     `json:"tasks"`
	ActiveTasks       int     `json:"active_tasks"`
	UnestimatedTasks  int     `json:"unestimated_tasks"`
	RemainingEstimate float64 `json:"rem_estimate"`
}

// Include folds one task into the summary.
func (s *Summary) Include(t *Task) {
	s.Tasks++
	s.Estimate += t.EstimateOrZero()
	if t.Estimate == nil {
		s.UnestimatedTasks++
	}
	if !t.IsDone() {
		s.ActiveTasks++
		s.RemainingEstimate += t.EstimateOrZero() - t.ActualOrZero()
	}
}

type StorySummary struct {
	Story
	Summary
}

type EpicSummary struct {
	Epic
	Summary
}

// BoardSlot is a schedule row as shown on a board.
type BoardSlot struct {
	ScheduleTask
	// WorkedHours is the work logged for the slot's task on the slot's day.
	WorkedHours float64 `json:"schedule_work"`
	// Recurring is set when the slot was projected from a recurring row.
	Recurring bool `json:"recurring"`
}

// Board is the renderable view of one sprint.
type Board struct {
	Sprint    Sprint                 `json:"sprint"`
	Number    int                    `json:"sprint_number"`
	Grid      []GridDay              `json:"schedule"`
	Tasks     map[int64]MemberTask   `json:"tasks"`
	Order     []int64                `json:"task_order"`
	Stories   map[int64]StorySummary `json:"stories"`
	Epics     map[int64]EpicSummary  `json:"epics"`
	Rollups   Rollups                `json:"totals"`
	Slots     []BoardSlot            `json:"schedule_records"`
	Unplanned []Task                 `json:"unplanned_tasks"`
	Statuses  []TaskStatus           `json:"statuses"`
}
