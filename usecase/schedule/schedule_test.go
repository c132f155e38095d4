package schedule

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/sprintboard/domain"
	"github.com/fastygo/sprintboard/repository/memory"
	"github.com/fastygo/sprintboard/usecase"
)

const owner int64 = 11

func hours(v float64) *float64 { return &v }
func hourOf(v int) *int        { return &v }

func day(value string) time.Time {
	d, err := domain.ParseDate(value)
	if err != nil {
		panic(err)
	}
	return d
}

type recordingCache struct {
	mu          sync.Mutex
	invalidated []int64
}

func (c *recordingCache) Get(context.Context, int64, int64) (*domain.Board, bool, error) {
	return nil, false, nil
}

func (c *recordingCache) Set(context.Context, int64, *domain.Board) error { return nil }

func (c *recordingCache) InvalidateOwner(_ context.Context, ownerID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidated = append(c.invalidated, ownerID)
	return nil
}

type recordingObserver struct {
	mu       sync.Mutex
	outcomes map[string][]domain.ErrorCode
	evicted  int
}

func (o *recordingObserver) ScheduleOperation(op string, code domain.ErrorCode) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.outcomes == nil {
		o.outcomes = make(map[string][]domain.ErrorCode)
	}
	o.outcomes[op] = append(o.outcomes[op], code)
}

func (o *recordingObserver) SlotEvicted(domain.SprintScope) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.evicted++
}

func (o *recordingObserver) BoardBuilt(time.Duration, bool) {}

type fixture struct {
	store     *memory.Store
	uc        *UseCase
	cache     *recordingCache
	observer  *recordingObserver
	sprint    domain.Sprint
	t1, t2    domain.Task
	recurring domain.Task
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	f := &fixture{
		store:    store,
		cache:    &recordingCache{},
		observer: &recordingObserver{},
	}
	f.sprint = store.AddSprint(domain.Sprint{OwnerID: owner, StartDate: day("2022-07-18"), EndDate: day("2022-07-24")})
	f.t1 = store.AddTask(domain.Task{OwnerID: owner, Title: "T1", Estimate: hours(3)})
	f.t2 = store.AddTask(domain.Task{OwnerID: owner, Title: "T2"})
	f.recurring = store.AddTask(domain.Task{OwnerID: owner, Title: "standup", Recurring: true})
	f.uc = New(Deps{
		Schedules: store.Schedules(),
		Tasks:     store.Tasks(),
		Sprints:   store.Sprints(),
		Tx:        store,
		Cache:     f.cache,
		Observer:  f.observer,
	}, usecase.DefaultSettings(), nil)
	return f
}

func (f *fixture) request(taskID int64, d string, hour int, planned float64) domain.ScheduleRequest {
	return domain.ScheduleRequest{
		SprintID:     f.sprint.ID,
		TaskID:       taskID,
		Day:          day(d),
		Hour:         hourOf(hour),
		PlannedHours: hours(planned),
	}
}

func TestScheduleReplacesOccupant(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	first, err := f.uc.Schedule(ctx, owner, f.request(f.t1.ID, "2022-07-19", 9, 2))
	require.NoError(t, err)
	assert.Equal(t, domain.ForSprint(f.sprint.ID), first.Scope)

	second, err := f.uc.Schedule(ctx, owner, f.request(f.t2.ID, "2022-07-19", 9, 1))
	require.NoError(t, err)

	_, err = f.store.Schedules().Get(ctx, owner, first.ID)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeNotFound))

	d, h := day("2022-07-19"), 9
	rows, err := f.uc.Filtered(ctx, owner, domain.ForSprint(f.sprint.ID), domain.SlotFilter{Day: &d, Hour: &h})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, f.t2.ID, rows[0].TaskID)
	assert.Equal(t, second.ID, rows[0].ID)
	assert.Equal(t, 1, f.observer.evicted)
	assert.Equal(t, []domain.ErrorCode{usecase.OutcomeOK, usecase.OutcomeOK}, f.observer.outcomes[usecase.OpSchedule])
	assert.Equal(t, []int64{owner, owner}, f.cache.invalidated)
}

func TestScheduleRejectsDayAfterSprintEnd(t *testing.T) {
	f := newFixture(t)

	_, err := f.uc.Schedule(context.Background(), owner, f.request(f.t1.ID, "2022-07-25", 9, 2))
	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))
	assert.Contains(t, err.Error(), "after sprint end")
	assert.Equal(t, []domain.ErrorCode{domain.ErrCodeInvalid}, f.observer.outcomes[usecase.OpSchedule])
}

func TestScheduleValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	cases := []struct {
		name string
		req  domain.ScheduleRequest
		code domain.ErrorCode
	}{
		{"missing task", domain.ScheduleRequest{SprintID: f.sprint.ID, Day: day("2022-07-19"), Hour: hourOf(9)}, domain.ErrCodeInvalid},
		{"missing day", domain.ScheduleRequest{SprintID: f.sprint.ID, TaskID: f.t1.ID, Hour: hourOf(9)}, domain.ErrCodeInvalid},
		{"missing hour", domain.ScheduleRequest{SprintID: f.sprint.ID, TaskID: f.t1.ID, Day: day("2022-07-19")}, domain.ErrCodeInvalid},
		{"unknown task", f.request(999, "2022-07-19", 9, 1), domain.ErrCodeNotFound},
		{"unknown task without hour", domain.ScheduleRequest{SprintID: f.sprint.ID, TaskID: 999, Day: day("2022-07-19")}, domain.ErrCodeNotFound},
		{"non-recurring task without day", domain.ScheduleRequest{SprintID: f.sprint.ID, TaskID: f.t1.ID, Hour: hourOf(9), Recurring: true}, domain.ErrCodeInvalidRecurrence},
		{"unknown sprint", domain.ScheduleRequest{SprintID: 999, TaskID: f.t1.ID, Day: day("2022-07-19"), Hour: hourOf(9), PlannedHours: hours(1)}, domain.ErrCodeNotFound},
		{"before start", f.request(f.t1.ID, "2022-07-17", 9, 1), domain.ErrCodeInvalid},
		{"hour out of range", f.request(f.t1.ID, "2022-07-19", 24, 1), domain.ErrCodeInvalid},
		{"zero time", f.request(f.t1.ID, "2022-07-19", 9, 0), domain.ErrCodeInvalid},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.uc.Schedule(ctx, owner, tc.req)
			require.Error(t, err)
			assert.Equal(t, tc.code, domain.CodeOf(err))
		})
	}

	rows, err := f.uc.Filtered(ctx, owner, domain.ForSprint(f.sprint.ID), domain.SlotFilter{})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestScheduleRecurringRequiresRecurringTask(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	for _, hour := range []int{0, 9, 23} {
		req := f.request(f.t1.ID, "2022-07-20", hour, 1)
		req.Recurring = true
		_, err := f.uc.Schedule(ctx, owner, req)
		assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalidRecurrence), "hour %d", hour)
	}

	req := f.request(f.recurring.ID, "2022-07-20", 8, 0.5)
	req.Recurring = true
	slot, err := f.uc.Schedule(ctx, owner, req)
	require.NoError(t, err)
	assert.True(t, slot.Scope.IsRecurring())

	standard, err := f.uc.Filtered(ctx, owner, domain.ForSprint(f.sprint.ID), domain.SlotFilter{})
	require.NoError(t, err)
	assert.Empty(t, standard)
}

func TestScheduleUpdateInPlaceIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	created, err := f.uc.Schedule(ctx, owner, f.request(f.t1.ID, "2022-07-19", 9, 2))
	require.NoError(t, err)

	move := f.request(f.t1.ID, "2022-07-20", 10, 0)
	move.ScheduleID = created.ID
	move.Note = "moved"
	for i := 0; i < 2; i++ {
		moved, err := f.uc.Schedule(ctx, owner, move)
		require.NoError(t, err)
		assert.Equal(t, created.ID, moved.ID)
		assert.Equal(t, day("2022-07-20"), moved.Day)
		assert.Equal(t, 10, moved.Hour)
		require.NotNil(t, moved.PlannedHours)
		assert.Equal(t, 2.0, *moved.PlannedHours, "zero planned hours keeps the stored value")
	}

	rows, err := f.uc.Filtered(ctx, owner, domain.ForSprint(f.sprint.ID), domain.SlotFilter{TaskID: &f.t1.ID})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "moved", rows[0].Note)
}

func TestScheduleUpdateEvictsTargetOccupant(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	a, err := f.uc.Schedule(ctx, owner, f.request(f.t1.ID, "2022-07-19", 9, 2))
	require.NoError(t, err)
	b, err := f.uc.Schedule(ctx, owner, f.request(f.t2.ID, "2022-07-19", 10, 1))
	require.NoError(t, err)

	move := f.request(f.t1.ID, "2022-07-19", 10, 3)
	move.ScheduleID = a.ID
	moved, err := f.uc.Schedule(ctx, owner, move)
	require.NoError(t, err)
	assert.Equal(t, 3.0, *moved.PlannedHours)

	_, err = f.store.Schedules().Get(ctx, owner, b.ID)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeNotFound))

	all, err := f.uc.Filtered(ctx, owner, domain.ForSprint(f.sprint.ID), domain.SlotFilter{})
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, a.ID, all[0].ID)
}

func TestScheduleUpdateScopeMismatch(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	created, err := f.uc.Schedule(ctx, owner, f.request(f.recurring.ID, "2022-07-19", 9, 1))
	require.NoError(t, err)

	move := f.request(f.recurring.ID, "2022-07-19", 11, 1)
	move.ScheduleID = created.ID
	move.Recurring = true
	_, err = f.uc.Schedule(ctx, owner, move)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeScopeMismatch))

	missing := f.request(f.t1.ID, "2022-07-19", 12, 1)
	missing.ScheduleID = 999
	_, err = f.uc.Schedule(ctx, owner, missing)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeNotFound))
}

func TestSlotUniquenessUnderConcurrency(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			taskID := f.t1.ID
			if i%2 == 0 {
				taskID = f.t2.ID
			}
			_, err := f.uc.Schedule(ctx, owner, f.request(taskID, "2022-07-21", 14, 1))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	d, h := day("2022-07-21"), 14
	rows, err := f.uc.Filtered(ctx, owner, domain.ForSprint(f.sprint.ID), domain.SlotFilter{Day: &d, Hour: &h})
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestUnschedule(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	standard, err := f.uc.Schedule(ctx, owner, f.request(f.t1.ID, "2022-07-19", 9, 2))
	require.NoError(t, err)
	req := f.request(f.recurring.ID, "2022-07-19", 9, 1)
	req.Recurring = true
	recurring, err := f.uc.Schedule(ctx, owner, req)
	require.NoError(t, err)

	_, err = f.uc.Unschedule(ctx, owner, f.sprint.ID, recurring.ID, false)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeScopeMismatch))

	_, err = f.uc.Unschedule(ctx, owner, f.sprint.ID, standard.ID, true)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeScopeMismatch))

	removed, err := f.uc.Unschedule(ctx, owner, f.sprint.ID, recurring.ID, true)
	require.NoError(t, err)
	assert.Equal(t, domain.Unscheduled{TaskID: f.recurring.ID, ScheduleID: recurring.ID}, *removed)

	removed, err = f.uc.Unschedule(ctx, owner, f.sprint.ID, standard.ID, false)
	require.NoError(t, err)
	assert.Equal(t, f.t1.ID, removed.TaskID)

	_, err = f.uc.Unschedule(ctx, owner, f.sprint.ID, standard.ID, false)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeNotFound))

	_, err = f.uc.Unschedule(ctx, owner+1, f.sprint.ID, recurring.ID, true)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeNotFound))
}
