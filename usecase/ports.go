package usecase

import (
	"context"
	"time"

	"github.com/fastygo/sprintboard/domain"
)

// Settings carries the planner constants shared by the use cases.
type Settings struct {
	// SlotUnitHours converts a planned slot count into hours.
	SlotUnitHours float64
	// DefaultSlotHour seeds the grid of a day with no scheduled slot.
	DefaultSlotHour int
	MinHour         int
	MaxHour         int
	// NextSprintDays is how far past the last sprint's end a next sprint ends.
	NextSprintDays int
}

// DefaultSettings returns the planner constants used when none are configured.
func DefaultSettings() Settings {
	return Settings{
		SlotUnitHours:   2,
		DefaultSlotHour: 1,
		MinHour:         0,
		MaxHour:         23,
		NextSprintDays:  8,
	}
}

// Normalize fills zero values with defaults.
func (s Settings) Normalize() Settings {
	def := DefaultSettings()
	if s.SlotUnitHours <= 0 {
		s.SlotUnitHours = def.SlotUnitHours
	}
	if s.MaxHour <= 0 || s.MaxHour < s.MinHour {
		s.MinHour, s.MaxHour = def.MinHour, def.MaxHour
	}
	if s.DefaultSlotHour < s.MinHour || s.DefaultSlotHour > s.MaxHour {
		s.DefaultSlotHour = s.MinHour
		if def.DefaultSlotHour >= s.MinHour && def.DefaultSlotHour <= s.MaxHour {
			s.DefaultSlotHour = def.DefaultSlotHour
		}
	}
	if s.NextSprintDays <= 1 {
		s.NextSprintDays = def.NextSprintDays
	}
	return s
}

// BoardCache stores built boards. Implementations must tolerate concurrent use.
type BoardCache interface {
	Get(ctx context.Context, ownerID, sprintID int64) (*domain.Board, bool, error)
	Set(ctx context.Context, ownerID int64, board *domain.Board) error
	// InvalidateOwner drops every cached board of the owner.
	InvalidateOwner(ctx context.Context, ownerID int64) error
}

// Observer receives planner events, typically for metrics.
type Observer interface {
	ScheduleOperation(op string, code domain.ErrorCode)
	SlotEvicted(scope domain.SprintScope)
	BoardBuilt(elapsed time.Duration, cached bool)
}

// Operation names reported to Observer.ScheduleOperation.
const (
	OpSchedule   = "schedule"
	OpUnschedule = "unschedule"
)

// OutcomeOK is reported for operations that did not fail.
const OutcomeOK domain.ErrorCode = "OK"

// Outcome classifies err for observers.
func Outcome(err error) domain.ErrorCode {
	if err == nil {
		return OutcomeOK
	}
	return domain.CodeOf(err)
}

type nopObserver struct{}

func (nopObserver) ScheduleOperation(string, domain.ErrorCode) {}
func (nopObserver) SlotEvicted(domain.SprintScope)             {}
func (nopObserver) BoardBuilt(time.Duration, bool)             {}

// NopObserver discards every event.
func NopObserver() Observer { return nopObserver{} }
