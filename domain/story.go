package domain

import "time"

// Story groups tasks under an epic.
type Story struct {
	ID             int64      `json:"id"`
	OwnerID        int64      `json:"owner_id"`
	EpicID         int64      `json:"epic_id"`
	Title          string     `json:"story"`
	Prioritization int        `json:"prioritization"`
	Deadline       *time.Time `json:"deadline,omitempty"`
}

// Epic is the top level of project planning.
type Epic struct {
	ID       int64      `json:"id"`
	OwnerID  int64      `json:"owner_id"`
	Title    string     `json:"epic"`
	Color    string     `json:"color,omitempty"`
	Deadline *time.Time `json:"deadline,omitempty"`
}

// Work records hours logged against a task on a date.
type Work struct {
	ID      int64     `json:"id"`
	OwnerID int64     `json:"owner_id"`
	TaskID  int64     `json:"task_id"`
	Date    time.Time `json:"work_date"`
	Hours   float64   `json:"hours_worked"`
}
