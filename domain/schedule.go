package domain

import (
	"fmt"
	"time"
)

// ScheduleTask assigns a task to one (day, hour) slot.
type ScheduleTask struct {
	ID           int64       `json:"id"`
	OwnerID      int64       `json:"owner_id"`
	TaskID       int64       `json:"task_id"`
	Scope        SprintScope `json:"scope"`
	Day          time.Time   `json:"sprint_day"`
	Hour         int         `json:"sprint_hour"`
	PlannedHours *float64    `json:"planned_hours,omitempty"`
	Note         string      `json:"note,omitempty"`
}

// SlotKey identifies a (day, hour) coordinate.
type SlotKey struct {
	Day  string
	Hour int
}

func (k SlotKey) String() string {
	return fmt.Sprintf("%sT%d:00", k.Day, k.Hour)
}

func (s *ScheduleTask) Key() SlotKey {
	return SlotKey{Day: DateKey(s.Day), Hour: s.Hour}
}

func (s *ScheduleTask) PlannedOrZero() float64 {
	if s == nil || s.PlannedHours == nil {
		return 0
	}
	return *s.PlannedHours
}

// ScheduleRequest carries one scheduling action. Hour and PlannedHours are
// pointers so an omitted value is distinguishable from zero.
type ScheduleRequest struct {
	SprintID     int64     `json:"sprint_id"`
	TaskID       int64     `json:"task_id"`
	Day          time.Time `json:"sprint_day"`
	Hour         *int      `json:"sprint_hour"`
	PlannedHours *float64  `json:"planned_hours"`
	Note         string    `json:"note"`
	Recurring    bool      `json:"recurring"`
	ScheduleID   int64     `json:"schedule_id"`
}

// Unscheduled identifies a removed schedule row.
type Unscheduled struct {
	TaskID     int64 `json:"task_id"`
	ScheduleID int64 `json:"schedule_id"`
}

// SlotFilter narrows a schedule lookup; nil fields match everything.
type SlotFilter struct {
	TaskID *int64
	Day    *time.Time
	Hour   *int
}
