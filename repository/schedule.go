package repository

import (
	"context"

	"github.com/fastygo/sprintboard/domain"
)

// ScheduleFilter selects schedule rows of one scope.
type ScheduleFilter struct {
	Scope domain.SprintScope
	domain.SlotFilter
	// ExcludeID skips one row, used when looking for a conflicting slot.
	ExcludeID int64
}

type ScheduleRepository interface {
	Get(ctx context.Context, ownerID, id int64) (*domain.ScheduleTask, error)
	List(ctx context.Context, ownerID int64, filter ScheduleFilter) ([]domain.ScheduleTask, error)
	// CountByTask counts rows per task within a scope.
	CountByTask(ctx context.Context, ownerID int64, scope domain.SprintScope) (map[int64]int, error)
	Create(ctx context.Context, slot *domain.ScheduleTask) error
	Update(ctx context.Context, slot *domain.ScheduleTask) error
	Delete(ctx context.Context, ownerID, id int64) error
	// DeleteBySprint removes every row of one sprint and reports how many
	// were removed. Recurring rows are never touched.
	DeleteBySprint(ctx context.Context, ownerID, sprintID int64) (int64, error)
}

// Transactor runs fn atomically. Repositories called with the context passed
// to fn take part in the same transaction.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
