package domain

import (
	"fmt"
	"strings"
	"time"
)

// TaskStatus is the workflow state of a task.
type TaskStatus string

const (
	StatusToDo       TaskStatus = "To-Do"
	StatusInProgress TaskStatus = "In Progress"
	StatusDone       TaskStatus = "Done"
)

// Statuses lists the workflow states in board order.
var Statuses = []TaskStatus{StatusToDo, StatusInProgress, StatusDone}

// Rank returns the position of the status in board order; unknown values sort last.
func (s TaskStatus) Rank() int {
	for i, status := range Statuses {
		if s == status {
			return i
		}
	}
	return len(Statuses)
}

// ParseTaskStatus validates a status value.
func ParseTaskStatus(value string) (TaskStatus, error) {
	for _, status := range Statuses {
		if strings.EqualFold(strings.TrimSpace(value), string(status)) {
			return status, nil
		}
	}
	return "", Invalid(fmt.Sprintf("invalid status %q", value))
}

// Task represents a user-owned unit of work inside a story.
type Task struct {
	ID        int64      `json:"id"`
	OwnerID   int64      `json:"owner_id"`
	StoryID   int64      `json:"story_id"`
	EpicID    int64      `json:"epic_id"`
	SprintID  *int64     `json:"sprint_id,omitempty"`
	Title     string     `json:"task"`
	Estimate  *float64   `json:"estimate,omitempty"`
	Actual    *float64   `json:"actual,omitempty"`
	Deadline  *time.Time `json:"deadline,omitempty"`
	Recurring bool       `json:"recurring"`
	Status    TaskStatus `json:"status"`
}

func (t *Task) IsDone() bool {
	return t != nil && t.Status == StatusDone
}

// InSprint reports whether the task is explicitly assigned to sprintID.
func (t *Task) InSprint(sprintID int64) bool {
	return t != nil && t.SprintID != nil && *t.SprintID == sprintID
}

// EstimateOrZero treats a missing estimate as zero hours.
func (t *Task) EstimateOrZero() float64 {
	if t == nil || t.Estimate == nil {
		return 0
	}
	return *t.Estimate
}

func (t *Task) ActualOrZero() float64 {
	if t == nil || t.Actual == nil {
		return 0
	}
	return *t.Actual
}

// SortDeadline maps a missing deadline to FarFutureDate.
func (t *Task) SortDeadline() time.Time {
	if t == nil || t.Deadline == nil {
		return FarFutureDate
	}
	return DateOf(*t.Deadline)
}

// CompareTasks is the single total order used for task listings: status in
// board order, then deadline ascending with undated tasks last, then id.
func CompareTasks(a, b *Task) int {
	if ra, rb := a.Status.Rank(), b.Status.Rank(); ra != rb {
		return ra - rb
	}
	if c := a.SortDeadline().Compare(b.SortDeadline()); c != 0 {
		return c
	}
	switch {
	case a.ID < b.ID:
		return -1
	case a.ID > b.ID:
		return 1
	}
	return 0
}

// MemberTask is a task as shown on a sprint board.
type MemberTask struct {
	Task
	HoursWorked  float64 `json:"hours_worked"`
	PlannedSlots int     `json:"planned_slots"`
	PlannedHours float64 `json:"planned_hours"`
	// SingleSprint is set when the task is assigned to the board's sprint itself.
	SingleSprint bool `json:"single_sprint_task"`
}
