package repository

import (
	"context"
	"time"

	"github.com/fastygo/sprintboard/domain"
)

// TaskFilter narrows a task listing. Set fields combine with AND; OwnerID is
// always applied by the repository.
type TaskFilter struct {
	SprintID *int64
	// OutsideSprint matches tasks with no sprint or a different sprint.
	OutsideSprint *int64
	RecurringOnly bool
	IDs           []int64
	Status        domain.TaskStatus
}

type TaskRepository interface {
	Get(ctx context.Context, ownerID, id int64) (*domain.Task, error)
	List(ctx context.Context, ownerID int64, filter TaskFilter) ([]domain.Task, error)
	CountInSprint(ctx context.Context, ownerID, sprintID int64) (int, error)
}

type StoryRepository interface {
	Get(ctx context.Context, ownerID, id int64) (*domain.Story, error)
	List(ctx context.Context, ownerID int64, ids []int64) ([]domain.Story, error)
}

type EpicRepository interface {
	Get(ctx context.Context, ownerID, id int64) (*domain.Epic, error)
	List(ctx context.Context, ownerID int64, ids []int64) ([]domain.Epic, error)
}

type WorkRepository interface {
	// SumHours totals the work logged against a task.
	SumHours(ctx context.Context, ownerID, taskID int64) (float64, error)
	// SumHoursByTask totals work for many tasks in one round-trip.
	SumHoursByTask(ctx context.Context, ownerID int64, taskIDs []int64) (map[int64]float64, error)
	// ListBetween returns work logged between two dates, bounds included.
	ListBetween(ctx context.Context, ownerID int64, from, to time.Time) ([]domain.Work, error)
}
