package repository

import (
	"context"
	"time"

	"github.com/fastygo/sprintboard/domain"
)

// SprintDateFilter selects real sprints by date. Nil fields are ignored.
type SprintDateFilter struct {
	Start      *time.Time
	End        *time.Time
	Containing *time.Time
}

// IsEmpty reports whether no criterion is set.
func (f SprintDateFilter) IsEmpty() bool {
	return f.Start == nil && f.End == nil && f.Containing == nil
}

type SprintRepository interface {
	Get(ctx context.Context, ownerID, id int64) (*domain.Sprint, error)
	List(ctx context.Context, ownerID int64) ([]domain.Sprint, error)
	// FindByDate returns the first real sprint matching every criterion, or
	// nil when none does. The placeholder sprint never matches.
	FindByDate(ctx context.Context, ownerID int64, filter SprintDateFilter) (*domain.Sprint, error)
	// Last returns the sprint with the greatest end date, or nil.
	Last(ctx context.Context, ownerID int64) (*domain.Sprint, error)
	Create(ctx context.Context, sprint *domain.Sprint) error
	Update(ctx context.Context, sprint *domain.Sprint) error
	Delete(ctx context.Context, ownerID, id int64) error
	// Owners lists every owner that has at least one sprint.
	Owners(ctx context.Context) ([]int64, error)
}
