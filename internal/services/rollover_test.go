package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/sprintboard/domain"
	"github.com/fastygo/sprintboard/repository/memory"
	"github.com/fastygo/sprintboard/usecase"
	"github.com/fastygo/sprintboard/usecase/sprint"
)

func mustDate(t *testing.T, value string) time.Time {
	t.Helper()
	d, err := domain.ParseDate(value)
	require.NoError(t, err)
	return d
}

func TestRolloverCreatesMissingSprints(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	// Owner 1 already has this week's sprint, owner 2 only an old one.
	store.AddSprint(domain.Sprint{OwnerID: 1, StartDate: mustDate(t, "2022-07-18"), EndDate: mustDate(t, "2022-07-24")})
	store.AddSprint(domain.Sprint{OwnerID: 2, StartDate: mustDate(t, "2022-07-04"), EndDate: mustDate(t, "2022-07-10")})

	today := mustDate(t, "2022-07-20")
	sprints := sprint.New(sprint.Deps{
		Sprints: store.Sprints(),
		Tasks:   store.Tasks(),
		Tx:      store,
	}, usecase.DefaultSettings(), nil).
		WithClock(func() time.Time { return today })

	r, err := NewRollover(store.Sprints(), sprints, nil, RolloverConfig{})
	require.NoError(t, err)

	report, err := r.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, RolloverReport{Owners: 2, Created: 1}, report)

	current, err := sprints.Current(ctx, 2)
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, mustDate(t, "2022-07-18"), current.StartDate)

	report, err = r.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Created)
}

type failingEnsurer struct{ failFor int64 }

func (f failingEnsurer) EnsureCurrent(_ context.Context, ownerID int64) (*domain.Sprint, bool, error) {
	if ownerID == f.failFor {
		return nil, false, errors.New("boom")
	}
	return &domain.Sprint{ID: ownerID, OwnerID: ownerID}, true, nil
}

type staticOwners []int64

func (o staticOwners) Owners(context.Context) ([]int64, error) { return o, nil }

func TestRolloverContinuesPastFailures(t *testing.T) {
	r, err := NewRollover(staticOwners{1, 2, 3}, failingEnsurer{failFor: 2}, nil, RolloverConfig{})
	require.NoError(t, err)

	report, err := r.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, RolloverReport{Owners: 3, Created: 2, Failed: 1}, report)
}

func TestRolloverRejectsBadSchedule(t *testing.T) {
	_, err := NewRollover(staticOwners{}, failingEnsurer{}, nil, RolloverConfig{Schedule: "every tuesday"})
	assert.Error(t, err)
}
