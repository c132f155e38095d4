package domain

import (
	"fmt"
	"time"
)

// Sprint is a fixed date range tasks are scheduled into. Both dates are inclusive.
type Sprint struct {
	ID        int64     `json:"id"`
	OwnerID   int64     `json:"owner_id"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
}

// IsPlaceholder reports whether s is the legacy "no sprint" record.
func (s *Sprint) IsPlaceholder() bool {
	return s != nil && DateOf(s.StartDate).Equal(PlaceholderSprintStart)
}

// Contains reports whether day falls within the sprint, bounds included.
func (s *Sprint) Contains(day time.Time) bool {
	if s == nil {
		return false
	}
	d := DateOf(day)
	return !d.Before(DateOf(s.StartDate)) && !d.After(DateOf(s.EndDate))
}

// Days lists every calendar day of the sprint in order.
func (s *Sprint) Days() []time.Time {
	if s == nil {
		return nil
	}
	var days []time.Time
	for d := DateOf(s.StartDate); !d.After(DateOf(s.EndDate)); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// ValidateRange checks the start < end invariant.
func ValidateRange(start, end time.Time) error {
	if start.IsZero() {
		return MissingField("start_date")
	}
	if end.IsZero() {
		return MissingField("end_date")
	}
	if !DateOf(start).Before(DateOf(end)) {
		return Invalid("sprint start date must be before its end date")
	}
	if DateOf(start).Equal(PlaceholderSprintStart) {
		return Invalid(fmt.Sprintf("%s is reserved and cannot start a sprint", DateKey(PlaceholderSprintStart)))
	}
	return nil
}

// SprintScope tells whether a schedule row belongs to one sprint or recurs
// across every sprint of its owner.
type SprintScope struct {
	sprintID  int64
	recurring bool
}

// ForSprint scopes a schedule row to one sprint.
func ForSprint(id int64) SprintScope {
	return SprintScope{sprintID: id}
}

// RecurringScope scopes a schedule row to every sprint.
func RecurringScope() SprintScope {
	return SprintScope{recurring: true}
}

func (s SprintScope) IsRecurring() bool {
	return s.recurring
}

// SprintID returns the sprint the scope is bound to; ok is false for recurring scopes.
func (s SprintScope) SprintID() (int64, bool) {
	if s.recurring {
		return 0, false
	}
	return s.sprintID, true
}

// StoreID is the persistence encoding of the scope: recurring rows are stored
// with sprint id 0.
func (s SprintScope) StoreID() int64 {
	if s.recurring {
		return 0
	}
	return s.sprintID
}

// ScopeFromStore decodes a persisted sprint id.
func ScopeFromStore(id int64) SprintScope {
	if id == 0 {
		return RecurringScope()
	}
	return ForSprint(id)
}

func (s SprintScope) String() string {
	if s.recurring {
		return "recurring"
	}
	return fmt.Sprintf("sprint:%d", s.sprintID)
}

func (s SprintScope) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *SprintScope) UnmarshalText(text []byte) error {
	value := string(text)
	if value == "recurring" {
		*s = RecurringScope()
		return nil
	}
	var id int64
	if _, err := fmt.Sscanf(value, "sprint:%d", &id); err != nil {
		return fmt.Errorf("invalid sprint scope %q", value)
	}
	*s = ForSprint(id)
	return nil
}
