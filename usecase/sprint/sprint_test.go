package sprint

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/sprintboard/domain"
	"github.com/fastygo/sprintboard/repository"
	"github.com/fastygo/sprintboard/repository/memory"
	"github.com/fastygo/sprintboard/usecase"
)

const owner int64 = 7

func date(t *testing.T, value string) time.Time {
	t.Helper()
	d, err := domain.ParseDate(value)
	require.NoError(t, err)
	return d
}

func newUseCase(store *memory.Store, today string) *UseCase {
	uc := New(Deps{
		Sprints:   store.Sprints(),
		Tasks:     store.Tasks(),
		Schedules: store.Schedules(),
		Tx:        store,
	}, usecase.DefaultSettings(), nil)
	if today != "" {
		day, _ := domain.ParseDate(today)
		uc.WithClock(func() time.Time { return day.Add(15 * time.Hour) })
	}
	return uc
}

func TestCreateAdjacentThenInteriorOverlap(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	uc := newUseCase(store, "")

	_, err := uc.Create(ctx, owner, date(t, "2022-07-11"), date(t, "2022-07-17"), false)
	require.NoError(t, err)

	second, err := uc.Create(ctx, owner, date(t, "2022-07-18"), date(t, "2022-07-24"), false)
	require.NoError(t, err)
	assert.Equal(t, date(t, "2022-07-18"), second.StartDate)
	assert.Equal(t, date(t, "2022-07-24"), second.EndDate)
	assert.NotZero(t, second.ID)

	_, err = uc.Create(ctx, owner, date(t, "2022-07-20"), date(t, "2022-07-27"), false)
	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeSprintConflict))
}

func TestCreateForceAllowsOverlapButNotSharedDates(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	uc := newUseCase(store, "")

	_, err := uc.Create(ctx, owner, date(t, "2022-07-18"), date(t, "2022-07-24"), false)
	require.NoError(t, err)

	_, err = uc.Create(ctx, owner, date(t, "2022-07-20"), date(t, "2022-07-27"), true)
	require.NoError(t, err)

	_, err = uc.Create(ctx, owner, date(t, "2022-07-18"), date(t, "2022-07-30"), true)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeSprintConflict))

	_, err = uc.Create(ctx, owner, date(t, "2022-07-01"), date(t, "2022-07-27"), true)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeSprintConflict))
}

func TestCreateRejectsEnclosingRange(t *testing.T) {
	ctx := context.Background()
	uc := newUseCase(memory.NewStore(), "")

	_, err := uc.Create(ctx, owner, date(t, "2022-07-18"), date(t, "2022-07-24"), false)
	require.NoError(t, err)

	_, err = uc.Create(ctx, owner, date(t, "2022-07-15"), date(t, "2022-07-30"), false)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeSprintConflict))
}

func TestCreateValidatesRange(t *testing.T) {
	ctx := context.Background()
	uc := newUseCase(memory.NewStore(), "")

	_, err := uc.Create(ctx, owner, date(t, "2022-07-24"), date(t, "2022-07-18"), false)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))

	_, err = uc.Create(ctx, owner, date(t, "2022-07-18"), date(t, "2022-07-18"), false)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))

	_, err = uc.Create(ctx, owner, time.Time{}, date(t, "2022-07-18"), false)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))
}

func TestCreateNextFollowsLastSprint(t *testing.T) {
	ctx := context.Background()
	uc := newUseCase(memory.NewStore(), "")

	_, err := uc.CreateNext(ctx, owner)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeNotFound))

	_, err = uc.Create(ctx, owner, date(t, "2022-07-18"), date(t, "2022-07-24"), false)
	require.NoError(t, err)

	next, err := uc.CreateNext(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, date(t, "2022-07-25"), next.StartDate)
	assert.Equal(t, date(t, "2022-08-01"), next.EndDate)

	last, err := uc.Last(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, next.ID, last.ID)
}

func TestFindByDate(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	uc := newUseCase(store, "")

	store.AddSprint(domain.Sprint{OwnerID: owner, StartDate: domain.PlaceholderSprintStart, EndDate: date(t, "2030-01-01")})
	created, err := uc.Create(ctx, owner, date(t, "2022-07-18"), date(t, "2022-07-24"), false)
	require.NoError(t, err)

	_, err = uc.FindByDate(ctx, owner, repository.SprintDateFilter{})
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalidQuery))

	inside := date(t, "2022-07-20")
	found, err := uc.FindByDate(ctx, owner, repository.SprintDateFilter{Containing: &inside})
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, created.ID, found.ID)

	later := date(t, "2025-05-05")
	found, err = uc.FindByDate(ctx, owner, repository.SprintDateFilter{Containing: &later})
	require.NoError(t, err)
	assert.Nil(t, found, "the placeholder sprint must never match")

	found, err = uc.FindByDate(ctx, owner+1, repository.SprintDateFilter{Containing: &inside})
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestCurrentAndEnsureCurrent(t *testing.T) {
	ctx := context.Background()
	uc := newUseCase(memory.NewStore(), "2022-07-20")

	current, err := uc.Current(ctx, owner)
	require.NoError(t, err)
	assert.Nil(t, current)

	ensured, created, err := uc.EnsureCurrent(ctx, owner)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, date(t, "2022-07-18"), ensured.StartDate)
	assert.Equal(t, date(t, "2022-07-24"), ensured.EndDate)

	again, created, err := uc.EnsureCurrent(ctx, owner)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, ensured.ID, again.ID)

	current, err = uc.Current(ctx, owner)
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, ensured.ID, current.ID)
}

func TestNumberAndList(t *testing.T) {
	ctx := context.Background()
	uc := newUseCase(memory.NewStore(), "")

	first, err := uc.Create(ctx, owner, date(t, "2022-07-18"), date(t, "2022-07-24"), false)
	require.NoError(t, err)
	second, err := uc.CreateNext(ctx, owner)
	require.NoError(t, err)

	n, err := uc.Number(ctx, owner, second.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = uc.Number(ctx, owner, first.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = uc.Number(ctx, owner, 999)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeNotFound))

	sprints, err := uc.List(ctx, owner)
	require.NoError(t, err)
	require.Len(t, sprints, 2)
	assert.Equal(t, second.ID, sprints[0].ID)
}

func TestUpdateRejectsSharedDates(t *testing.T) {
	ctx := context.Background()
	uc := newUseCase(memory.NewStore(), "")

	first, err := uc.Create(ctx, owner, date(t, "2022-07-18"), date(t, "2022-07-24"), false)
	require.NoError(t, err)
	second, err := uc.CreateNext(ctx, owner)
	require.NoError(t, err)

	_, err = uc.Update(ctx, owner, second.ID, date(t, "2022-07-18"), date(t, "2022-08-03"))
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeSprintConflict))

	updated, err := uc.Update(ctx, owner, first.ID, date(t, "2022-07-18"), date(t, "2022-07-23"))
	require.NoError(t, err)
	assert.Equal(t, date(t, "2022-07-23"), updated.EndDate)
}

func TestDeleteRefusesSprintWithTasks(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	uc := newUseCase(store, "")

	sprint, err := uc.Create(ctx, owner, date(t, "2022-07-18"), date(t, "2022-07-24"), false)
	require.NoError(t, err)
	task := store.AddTask(domain.Task{OwnerID: owner, Title: "write report", SprintID: &sprint.ID})

	err = uc.Delete(ctx, owner, sprint.ID)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))

	empty, err := uc.CreateNext(ctx, owner)
	require.NoError(t, err)
	require.NoError(t, uc.Delete(ctx, owner, empty.ID))

	_, err = uc.Get(ctx, owner, empty.ID)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeNotFound))
	assert.NotZero(t, task.ID)
}

func TestEnsureCurrentConcurrentCallersShareSprint(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	uc := newUseCase(store, "2022-07-20")

	const callers = 8
	var (
		wg      sync.WaitGroup
		ids     = make([]int64, callers)
		created = make([]bool, callers)
		errs    = make([]error, callers)
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sprint, fresh, err := uc.EnsureCurrent(ctx, owner)
			errs[i], created[i] = err, fresh
			if sprint != nil {
				ids[i] = sprint.ID
			}
		}(i)
	}
	wg.Wait()

	creators := 0
	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, ids[0], ids[i])
		if created[i] {
			creators++
		}
	}
	assert.Equal(t, 1, creators)

	sprints, err := uc.List(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, sprints, 1)
}

func TestDeleteRemovesSprintScheduleRows(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	uc := newUseCase(store, "")

	sprint, err := uc.Create(ctx, owner, date(t, "2022-07-18"), date(t, "2022-07-24"), false)
	require.NoError(t, err)
	task := store.AddTask(domain.Task{OwnerID: owner, Title: "standup", Recurring: true})

	slots := store.Schedules()
	for _, scope := range []domain.SprintScope{domain.ForSprint(sprint.ID), domain.RecurringScope()} {
		require.NoError(t, slots.Create(ctx, &domain.ScheduleTask{
			OwnerID: owner, TaskID: task.ID, Scope: scope, Day: date(t, "2022-07-19"), Hour: 9,
		}))
	}

	require.NoError(t, uc.Delete(ctx, owner, sprint.ID))

	left, err := slots.List(ctx, owner, repository.ScheduleFilter{Scope: domain.ForSprint(sprint.ID)})
	require.NoError(t, err)
	assert.Empty(t, left)

	recurring, err := slots.List(ctx, owner, repository.ScheduleFilter{Scope: domain.RecurringScope()})
	require.NoError(t, err)
	assert.Len(t, recurring, 1)
}
