// Package schedule assigns tasks to (day, hour) slots of a sprint.
package schedule

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/sprintboard/domain"
	"github.com/fastygo/sprintboard/pkg/logger"
	"github.com/fastygo/sprintboard/repository"
	"github.com/fastygo/sprintboard/usecase"
)

type UseCase struct {
	schedules repository.ScheduleRepository
	tasks     repository.TaskRepository
	sprints   repository.SprintRepository
	tx        repository.Transactor
	cache     usecase.BoardCache
	observer  usecase.Observer
	settings  usecase.Settings
	logger    *zap.Logger
}

// Deps groups the collaborators of the slot manager. Cache and Observer are optional.
type Deps struct {
	Schedules repository.ScheduleRepository
	Tasks     repository.TaskRepository
	Sprints   repository.SprintRepository
	Tx        repository.Transactor
	Cache     usecase.BoardCache
	Observer  usecase.Observer
}

func New(deps Deps, settings usecase.Settings, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	observer := deps.Observer
	if observer == nil {
		observer = usecase.NopObserver()
	}
	return &UseCase{
		schedules: deps.Schedules,
		tasks:     deps.Tasks,
		sprints:   deps.Sprints,
		tx:        deps.Tx,
		cache:     deps.Cache,
		observer:  observer,
		settings:  settings.Normalize(),
		logger:    logger,
	}
}

// Schedule places a task in a slot. Whatever occupied the slot before is
// removed; with ScheduleID set the existing row is moved instead of a new
// row being inserted.
func (uc *UseCase) Schedule(ctx context.Context, ownerID int64, req domain.ScheduleRequest) (slot *domain.ScheduleTask, err error) {
	defer func() { uc.observer.ScheduleOperation(usecase.OpSchedule, usecase.Outcome(err)) }()
	log := logger.WithRequestID(ctx, uc.logger)

	if req.TaskID == 0 {
		return nil, domain.MissingField("task_id")
	}
	task, err := uc.tasks.Get(ctx, ownerID, req.TaskID)
	if err != nil {
		return nil, err
	}
	scope := domain.ForSprint(req.SprintID)
	if req.Recurring {
		if !task.Recurring {
			return nil, domain.InvalidRecurrence(fmt.Sprintf("task %d is not recurring", task.ID))
		}
		scope = domain.RecurringScope()
	}

	if req.Day.IsZero() {
		return nil, domain.MissingField("sprint_day")
	}
	if req.Hour == nil {
		return nil, domain.MissingField("sprint_hour")
	}
	day := domain.DateOf(req.Day)
	hour := *req.Hour

	sprint, err := uc.sprints.Get(ctx, ownerID, req.SprintID)
	if err != nil {
		return nil, err
	}
	if day.After(domain.DateOf(sprint.EndDate)) {
		return nil, domain.OutOfRange("scheduled day is after sprint end")
	}
	if day.Before(domain.DateOf(sprint.StartDate)) {
		return nil, domain.OutOfRange("scheduled day is before sprint start")
	}
	if hour < uc.settings.MinHour || hour > uc.settings.MaxHour {
		return nil, domain.OutOfRange(fmt.Sprintf("hour %d is outside %d-%d", hour, uc.settings.MinHour, uc.settings.MaxHour))
	}

	err = uc.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := uc.evict(ctx, ownerID, scope, day, hour, req.ScheduleID); err != nil {
			return err
		}
		if req.ScheduleID != 0 {
			slot, err = uc.update(ctx, ownerID, scope, day, hour, req)
			return err
		}
		slot, err = uc.insert(ctx, ownerID, scope, day, hour, req)
		return err
	})
	if err != nil {
		return nil, err
	}

	uc.invalidate(ctx, ownerID)
	log.Info("task scheduled",
		zap.Int64("owner_id", ownerID),
		zap.Int64("schedule_id", slot.ID),
		zap.Int64("task_id", slot.TaskID),
		zap.Stringer("scope", slot.Scope),
		zap.Stringer("slot", slot.Key()),
	)
	return slot, nil
}

// evict removes the row occupying (scope, day, hour) unless it is keepID.
func (uc *UseCase) evict(ctx context.Context, ownerID int64, scope domain.SprintScope, day time.Time, hour int, keepID int64) error {
	occupants, err := uc.schedules.List(ctx, ownerID, repository.ScheduleFilter{
		Scope:      scope,
		SlotFilter: domain.SlotFilter{Day: &day, Hour: &hour},
		ExcludeID:  keepID,
	})
	if err != nil {
		return err
	}
	for _, occupant := range occupants {
		if err := uc.schedules.Delete(ctx, ownerID, occupant.ID); err != nil {
			return err
		}
		uc.observer.SlotEvicted(scope)
		logger.WithRequestID(ctx, uc.logger).Debug("slot evicted",
			zap.Int64("schedule_id", occupant.ID),
			zap.Int64("task_id", occupant.TaskID),
			zap.Stringer("slot", occupant.Key()),
		)
	}
	return nil
}

func (uc *UseCase) update(ctx context.Context, ownerID int64, scope domain.SprintScope, day time.Time, hour int, req domain.ScheduleRequest) (*domain.ScheduleTask, error) {
	existing, err := uc.schedules.Get(ctx, ownerID, req.ScheduleID)
	if err != nil {
		return nil, err
	}
	if existing.Scope != scope {
		return nil, domain.ScopeMismatch(fmt.Sprintf("schedule %d belongs to %s, not %s", existing.ID, existing.Scope, scope))
	}
	existing.TaskID = req.TaskID
	existing.Day = day
	existing.Hour = hour
	existing.Note = req.Note
	if req.PlannedHours != nil && *req.PlannedHours > 0 {
		planned := *req.PlannedHours
		existing.PlannedHours = &planned
	}
	if err := uc.schedules.Update(ctx, existing); err != nil {
		return nil, err
	}
	return existing, nil
}

func (uc *UseCase) insert(ctx context.Context, ownerID int64, scope domain.SprintScope, day time.Time, hour int, req domain.ScheduleRequest) (*domain.ScheduleTask, error) {
	if req.PlannedHours == nil || *req.PlannedHours <= 0 {
		return nil, domain.Invalid("cannot schedule 0 time")
	}
	planned := *req.PlannedHours
	slot := &domain.ScheduleTask{
		OwnerID:      ownerID,
		TaskID:       req.TaskID,
		Scope:        scope,
		Day:          day,
		Hour:         hour,
		PlannedHours: &planned,
		Note:         req.Note,
	}
	if err := uc.schedules.Create(ctx, slot); err != nil {
		return nil, err
	}
	return slot, nil
}

// Unschedule deletes a slot row of the sprint, or of the recurring set when
// recurring is set.
func (uc *UseCase) Unschedule(ctx context.Context, ownerID, sprintID, scheduleID int64, recurring bool) (removed *domain.Unscheduled, err error) {
	defer func() { uc.observer.ScheduleOperation(usecase.OpUnschedule, usecase.Outcome(err)) }()

	scope := domain.ForSprint(sprintID)
	if recurring {
		scope = domain.RecurringScope()
	}
	err = uc.tx.WithinTx(ctx, func(ctx context.Context) error {
		existing, err := uc.schedules.Get(ctx, ownerID, scheduleID)
		if err != nil {
			return err
		}
		if existing.Scope != scope {
			return domain.ScopeMismatch(fmt.Sprintf("schedule %d belongs to %s, not %s", existing.ID, existing.Scope, scope))
		}
		if err := uc.schedules.Delete(ctx, ownerID, scheduleID); err != nil {
			return err
		}
		removed = &domain.Unscheduled{TaskID: existing.TaskID, ScheduleID: existing.ID}
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.invalidate(ctx, ownerID)
	logger.WithRequestID(ctx, uc.logger).Info("task unscheduled",
		zap.Int64("owner_id", ownerID),
		zap.Int64("schedule_id", removed.ScheduleID),
		zap.Int64("task_id", removed.TaskID),
		zap.Stringer("scope", scope),
	)
	return removed, nil
}

// Filtered lists the rows of a scope matching every set filter. No match is
// an empty slice, not an error.
func (uc *UseCase) Filtered(ctx context.Context, ownerID int64, scope domain.SprintScope, filter domain.SlotFilter) ([]domain.ScheduleTask, error) {
	slots, err := uc.schedules.List(ctx, ownerID, repository.ScheduleFilter{Scope: scope, SlotFilter: filter})
	if err != nil {
		return nil, err
	}
	if slots == nil {
		slots = []domain.ScheduleTask{}
	}
	return slots, nil
}

func (uc *UseCase) invalidate(ctx context.Context, ownerID int64) {
	if uc.cache == nil {
		return
	}
	if err := uc.cache.InvalidateOwner(ctx, ownerID); err != nil {
		logger.WithRequestID(ctx, uc.logger).Warn("board cache invalidation failed",
			zap.Int64("owner_id", ownerID),
			zap.Error(err),
		)
	}
}
