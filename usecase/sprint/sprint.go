// Package sprint resolves and maintains an owner's sprints.
package sprint

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/sprintboard/domain"
	"github.com/fastygo/sprintboard/pkg/logger"
	"github.com/fastygo/sprintboard/repository"
	"github.com/fastygo/sprintboard/usecase"
)

type UseCase struct {
	sprints   repository.SprintRepository
	tasks     repository.TaskRepository
	schedules repository.ScheduleRepository
	tx        repository.Transactor
	cache     usecase.BoardCache
	settings  usecase.Settings
	now       func() time.Time
	logger    *zap.Logger
}

// Deps groups the collaborators of the sprint registry. Cache is optional.
type Deps struct {
	Sprints   repository.SprintRepository
	Tasks     repository.TaskRepository
	Schedules repository.ScheduleRepository
	Tx        repository.Transactor
	Cache     usecase.BoardCache
}

func New(deps Deps, settings usecase.Settings, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		sprints:   deps.Sprints,
		tasks:     deps.Tasks,
		schedules: deps.Schedules,
		tx:        deps.Tx,
		cache:     deps.Cache,
		settings:  settings.Normalize(),
		now:       time.Now,
		logger:    logger,
	}
}

// WithClock replaces the source of "today".
func (uc *UseCase) WithClock(now func() time.Time) *UseCase {
	if now != nil {
		uc.now = now
	}
	return uc
}

// Today returns the current civil date.
func (uc *UseCase) Today() time.Time {
	return domain.DateOf(uc.now())
}

func (uc *UseCase) Get(ctx context.Context, ownerID, id int64) (*domain.Sprint, error) {
	return uc.sprints.Get(ctx, ownerID, id)
}

// List returns the owner's sprints, newest start first.
func (uc *UseCase) List(ctx context.Context, ownerID int64) ([]domain.Sprint, error) {
	return uc.sprints.List(ctx, ownerID)
}

// FindByDate returns the first real sprint matching every supplied criterion.
func (uc *UseCase) FindByDate(ctx context.Context, ownerID int64, query repository.SprintDateFilter) (*domain.Sprint, error) {
	if query.IsEmpty() {
		return nil, domain.InvalidQuery("no criteria supplied for sprint date search")
	}
	return uc.sprints.FindByDate(ctx, ownerID, query)
}

// Current returns the sprint containing today, or nil.
func (uc *UseCase) Current(ctx context.Context, ownerID int64) (*domain.Sprint, error) {
	today := uc.Today()
	return uc.FindByDate(ctx, ownerID, repository.SprintDateFilter{Containing: &today})
}

// Last returns the sprint with the latest end date, or nil.
func (uc *UseCase) Last(ctx context.Context, ownerID int64) (*domain.Sprint, error) {
	return uc.sprints.Last(ctx, ownerID)
}

// Number returns the 1-based position of the sprint among the owner's
// sprints ordered by id.
func (uc *UseCase) Number(ctx context.Context, ownerID, sprintID int64) (int, error) {
	sprints, err := uc.sprints.List(ctx, ownerID)
	if err != nil {
		return 0, err
	}
	ids := make([]int64, 0, len(sprints))
	for _, s := range sprints {
		ids = append(ids, s.ID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for i, id := range ids {
		if id == sprintID {
			return i + 1, nil
		}
	}
	return 0, domain.NotFound("sprint", sprintID)
}

// ValidateNoOverlap rejects a range that shares a start or end date with a
// real sprint. Unless force is set it also rejects ranges that start or end
// inside an existing sprint or enclose one.
func (uc *UseCase) ValidateNoOverlap(ctx context.Context, ownerID int64, start, end time.Time, force bool) error {
	return uc.validateNoOverlap(ctx, ownerID, start, end, force, 0)
}

func (uc *UseCase) validateNoOverlap(ctx context.Context, ownerID int64, start, end time.Time, force bool, excludeID int64) error {
	start, end = domain.DateOf(start), domain.DateOf(end)

	for _, query := range []repository.SprintDateFilter{{Start: &start}, {End: &end}} {
		existing, err := uc.sprints.FindByDate(ctx, ownerID, query)
		if err != nil {
			return err
		}
		if existing != nil && existing.ID != excludeID {
			return domain.SprintConflict(fmt.Sprintf("sprint %d already uses %s - %s",
				existing.ID, domain.DateKey(existing.StartDate), domain.DateKey(existing.EndDate)))
		}
	}
	if force {
		return nil
	}

	for _, day := range []time.Time{start, end} {
		day := day
		existing, err := uc.sprints.FindByDate(ctx, ownerID, repository.SprintDateFilter{Containing: &day})
		if err != nil {
			return err
		}
		if existing != nil && existing.ID != excludeID {
			return domain.SprintConflict(fmt.Sprintf("%s falls inside sprint %d (%s - %s)",
				domain.DateKey(day), existing.ID, domain.DateKey(existing.StartDate), domain.DateKey(existing.EndDate)))
		}
	}

	sprints, err := uc.sprints.List(ctx, ownerID)
	if err != nil {
		return err
	}
	for _, existing := range sprints {
		if existing.ID == excludeID || existing.IsPlaceholder() {
			continue
		}
		if !existing.StartDate.Before(start) && !existing.EndDate.After(end) {
			return domain.SprintConflict(fmt.Sprintf("range %s - %s encloses sprint %d",
				domain.DateKey(start), domain.DateKey(end), existing.ID))
		}
	}
	return nil
}

// Create validates and stores a sprint, then returns the stored record.
// The overlap check and the insert run in one transaction.
func (uc *UseCase) Create(ctx context.Context, ownerID int64, start, end time.Time, force bool) (*domain.Sprint, error) {
	if err := domain.ValidateRange(start, end); err != nil {
		return nil, err
	}
	var stored *domain.Sprint
	err := uc.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		stored, err = uc.create(ctx, ownerID, start, end, force)
		return err
	})
	if err != nil {
		return nil, err
	}
	uc.invalidate(ctx, ownerID)
	uc.logCreated(ctx, stored, force)
	return stored, nil
}

func (uc *UseCase) create(ctx context.Context, ownerID int64, start, end time.Time, force bool) (*domain.Sprint, error) {
	start, end = domain.DateOf(start), domain.DateOf(end)
	if err := uc.validateNoOverlap(ctx, ownerID, start, end, force, 0); err != nil {
		return nil, err
	}

	sprint := &domain.Sprint{OwnerID: ownerID, StartDate: start, EndDate: end}
	if err := uc.sprints.Create(ctx, sprint); err != nil {
		return nil, err
	}

	stored, err := uc.sprints.FindByDate(ctx, ownerID, repository.SprintDateFilter{Start: &start, End: &end})
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, domain.WrapError(domain.ErrCodeInternal, "created sprint could not be resolved",
			fmt.Errorf("sprint %d missing after insert", sprint.ID))
	}
	return stored, nil
}

func (uc *UseCase) logCreated(ctx context.Context, sprint *domain.Sprint, force bool) {
	logger.WithRequestID(ctx, uc.logger).Info("sprint created",
		zap.Int64("owner_id", sprint.OwnerID),
		zap.Int64("sprint_id", sprint.ID),
		zap.String("start", domain.DateKey(sprint.StartDate)),
		zap.String("end", domain.DateKey(sprint.EndDate)),
		zap.Bool("force", force),
	)
}

// CreateNext creates the sprint following the owner's last sprint.
func (uc *UseCase) CreateNext(ctx context.Context, ownerID int64) (*domain.Sprint, error) {
	last, err := uc.sprints.Last(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if last == nil {
		return nil, domain.NewError(domain.ErrCodeNotFound, "no previous sprint to continue from")
	}
	start := domain.AddDays(last.EndDate, 1)
	end := domain.AddDays(last.EndDate, uc.settings.NextSprintDays)
	return uc.Create(ctx, ownerID, start, end, false)
}

// EnsureCurrent returns the sprint containing today, creating the
// Monday-Sunday sprint of the current week when there is none. The lookup
// and the insert share a transaction, so concurrent callers end up with the
// same sprint.
func (uc *UseCase) EnsureCurrent(ctx context.Context, ownerID int64) (*domain.Sprint, bool, error) {
	var (
		sprint  *domain.Sprint
		created bool
	)
	err := uc.tx.WithinTx(ctx, func(ctx context.Context) error {
		current, err := uc.Current(ctx, ownerID)
		if err != nil || current != nil {
			sprint = current
			return err
		}
		start := domain.StartOfWeek(uc.Today())
		sprint, err = uc.create(ctx, ownerID, start, domain.AddDays(start, 6), true)
		created = err == nil
		return err
	})
	if domain.IsDomainError(err, domain.ErrCodeSprintConflict) || domain.IsDomainError(err, domain.ErrCodeConflict) {
		// Another request created the week's sprint first.
		current, lookupErr := uc.Current(ctx, ownerID)
		if lookupErr == nil && current != nil {
			return current, false, nil
		}
	}
	if err != nil {
		return nil, false, err
	}
	if created {
		uc.invalidate(ctx, ownerID)
		uc.logCreated(ctx, sprint, true)
	}
	return sprint, created, nil
}

// Update changes a sprint's dates. The new dates must not be shared by
// another sprint.
func (uc *UseCase) Update(ctx context.Context, ownerID, id int64, start, end time.Time) (*domain.Sprint, error) {
	var sprint *domain.Sprint
	err := uc.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		sprint, err = uc.sprints.Get(ctx, ownerID, id)
		if err != nil {
			return err
		}
		if err := domain.ValidateRange(start, end); err != nil {
			return err
		}
		if err := uc.validateNoOverlap(ctx, ownerID, start, end, true, id); err != nil {
			return err
		}
		sprint.StartDate = domain.DateOf(start)
		sprint.EndDate = domain.DateOf(end)
		return uc.sprints.Update(ctx, sprint)
	})
	if err != nil {
		return nil, err
	}
	uc.invalidate(ctx, ownerID)
	return sprint, nil
}

// Delete removes a sprint that has no tasks assigned to it, along with the
// sprint's own schedule rows. Recurring rows stay.
func (uc *UseCase) Delete(ctx context.Context, ownerID, id int64) error {
	var slots int64
	err := uc.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := uc.sprints.Get(ctx, ownerID, id); err != nil {
			return err
		}
		count, err := uc.tasks.CountInSprint(ctx, ownerID, id)
		if err != nil {
			return err
		}
		if count > 0 {
			return domain.Invalid(fmt.Sprintf("sprint %d still has %d assigned tasks", id, count))
		}
		if uc.schedules != nil {
			if slots, err = uc.schedules.DeleteBySprint(ctx, ownerID, id); err != nil {
				return err
			}
		}
		return uc.sprints.Delete(ctx, ownerID, id)
	})
	if err != nil {
		return err
	}
	uc.invalidate(ctx, ownerID)
	logger.WithRequestID(ctx, uc.logger).Info("sprint deleted",
		zap.Int64("owner_id", ownerID),
		zap.Int64("sprint_id", id),
		zap.Int64("schedule_rows", slots),
	)
	return nil
}

// invalidate drops cached boards so the next read reflects the new dates.
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
