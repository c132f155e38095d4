package transport

import (
	"fmt"
	"time"

	"github.com/fastygo/sprintboard/domain"
)

// SprintRequest creates or moves a sprint. Dates are YYYY-MM-DD.
type SprintRequest struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Force     bool   `json:"force"`
}

// Dates parses both bounds.
func (r SprintRequest) Dates() (time.Time, time.Time, error) {
	if r.StartDate == "" {
		return time.Time{}, time.Time{}, domain.MissingField("start_date")
	}
	if r.EndDate == "" {
		return time.Time{}, time.Time{}, domain.MissingField("end_date")
	}
	start, err := parseDate("start_date", r.StartDate)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := parseDate("end_date", r.EndDate)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}

type ScheduleRequest struct {
	TaskID       int64    `json:"task_id"`
	Day          string   `json:"sprint_day"`
	Hour         *int     `json:"sprint_hour"`
	PlannedHours *float64 `json:"planned_hours"`
	Note         string   `json:"note"`
	Recurring    bool     `json:"recurring"`
	ScheduleID   int64    `json:"schedule_id"`
}

// ToDomain binds the request to the sprint named in the path.
func (r ScheduleRequest) ToDomain(sprintID int64) (domain.ScheduleRequest, error) {
	req := domain.ScheduleRequest{
		SprintID:     sprintID,
		TaskID:       r.TaskID,
		Hour:         r.Hour,
		PlannedHours: r.PlannedHours,
		Note:         r.Note,
		Recurring:    r.Recurring,
		ScheduleID:   r.ScheduleID,
	}
	if r.Day != "" {
		day, err := parseDate("sprint_day", r.Day)
		if err != nil {
			return req, err
		}
		req.Day = day
	}
	return req, nil
}

func parseDate(field, value string) (time.Time, error) {
	day, err := domain.ParseDate(value)
	if err != nil {
		return time.Time{}, domain.WrapError(domain.ErrCodeInvalid, fmt.Sprintf("%s must be YYYY-MM-DD", field), err)
	}
	return day, nil
}
