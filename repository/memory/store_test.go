package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/sprintboard/domain"
	"github.com/fastygo/sprintboard/repository"
)

func mustDate(t *testing.T, value string) time.Time {
	t.Helper()
	d, err := domain.ParseDate(value)
	require.NoError(t, err)
	return d
}

func TestFindByDateSkipsPlaceholder(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	store.AddSprint(domain.Sprint{OwnerID: 1, StartDate: domain.PlaceholderSprintStart, EndDate: mustDate(t, "2222-01-01")})
	active := store.AddSprint(domain.Sprint{OwnerID: 1, StartDate: mustDate(t, "2022-07-18"), EndDate: mustDate(t, "2022-07-24")})
	store.AddSprint(domain.Sprint{OwnerID: 2, StartDate: mustDate(t, "2022-07-18"), EndDate: mustDate(t, "2022-07-24")})

	day := mustDate(t, "2022-07-20")
	found, err := store.Sprints().FindByDate(ctx, 1, repository.SprintDateFilter{Containing: &day})
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, active.ID, found.ID)

	outside := mustDate(t, "2030-01-01")
	found, err = store.Sprints().FindByDate(ctx, 1, repository.SprintDateFilter{Containing: &outside})
	require.NoError(t, err)
	assert.Nil(t, found)

	_, err = store.Sprints().FindByDate(ctx, 1, repository.SprintDateFilter{})
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalidQuery))
}

func TestScheduleSlotIsUnique(t *testing.T) {
	ctx := context.Background()
	slots := NewStore().Schedules()
	row := func() *domain.ScheduleTask {
		return &domain.ScheduleTask{OwnerID: 1, TaskID: 3, Scope: domain.ForSprint(2), Day: mustDate(t, "2022-07-19"), Hour: 9}
	}

	require.NoError(t, slots.Create(ctx, row()))
	assert.ErrorIs(t, slots.Create(ctx, row()), domain.ErrSlotTaken)

	recurring := row()
	recurring.Scope = domain.RecurringScope()
	assert.NoError(t, slots.Create(ctx, recurring), "the recurring scope is a separate slot space")
}

func TestWithinTxNests(t *testing.T) {
	store := NewStore()
	calls := 0
	err := store.WithinTx(context.Background(), func(ctx context.Context) error {
		return store.WithinTx(ctx, func(context.Context) error {
			calls++
			return nil
		})
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestOwnersSorted(t *testing.T) {
	store := NewStore()
	for _, owner := range []int64{5, 2, 5, 9} {
		store.AddSprint(domain.Sprint{OwnerID: owner, StartDate: mustDate(t, "2022-07-18"), EndDate: mustDate(t, "2022-07-24")})
	}
	owners, err := store.Sprints().Owners(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 5, 9}, owners)
}

func TestSprintDatesAreUniquePerOwner(t *testing.T) {
	ctx := context.Background()
	sprints := NewStore().Sprints()
	week := func(owner int64, start, end string) *domain.Sprint {
		return &domain.Sprint{OwnerID: owner, StartDate: mustDate(t, start), EndDate: mustDate(t, end)}
	}

	first := week(1, "2022-07-18", "2022-07-24")
	require.NoError(t, sprints.Create(ctx, first))

	err := sprints.Create(ctx, week(1, "2022-07-18", "2022-07-31"))
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeSprintConflict))
	err = sprints.Create(ctx, week(1, "2022-07-10", "2022-07-24"))
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeSprintConflict))

	assert.NoError(t, sprints.Create(ctx, week(2, "2022-07-18", "2022-07-24")), "other owners keep their own dates")

	second := week(1, "2022-07-25", "2022-07-31")
	require.NoError(t, sprints.Create(ctx, second))
	second.EndDate = first.EndDate
	assert.True(t, domain.IsDomainError(sprints.Update(ctx, second), domain.ErrCodeSprintConflict))

	placeholder := &domain.Sprint{OwnerID: 1, StartDate: domain.PlaceholderSprintStart, EndDate: mustDate(t, "2222-01-01")}
	require.NoError(t, sprints.Create(ctx, placeholder))
	other := &domain.Sprint{OwnerID: 1, StartDate: domain.PlaceholderSprintStart, EndDate: mustDate(t, "2222-01-01")}
	assert.NoError(t, sprints.Create(ctx, other))
}

func TestDeleteBySprintKeepsOtherScopes(t *testing.T) {
	ctx := context.Background()
	slots := NewStore().Schedules()
	for i, scope := range []domain.SprintScope{domain.ForSprint(2), domain.ForSprint(2), domain.ForSprint(3), domain.RecurringScope()} {
		require.NoError(t, slots.Create(ctx, &domain.ScheduleTask{OwnerID: 1, TaskID: 4, Scope: scope, Day: mustDate(t, "2022-07-19"), Hour: 8 + i}))
	}

	removed, err := slots.DeleteBySprint(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	left, err := slots.List(ctx, 1, repository.ScheduleFilter{Scope: domain.ForSprint(3)})
	require.NoError(t, err)
	assert.Len(t, left, 1)
	left, err = slots.List(ctx, 1, repository.ScheduleFilter{Scope: domain.RecurringScope()})
	require.NoError(t, err)
	assert.Len(t, left, 1)
}
