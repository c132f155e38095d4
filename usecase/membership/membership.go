// Package membership resolves which tasks belong to a sprint.
package membership

import (
	"context"
	"slices"

	"go.uber.org/zap"

	"github.com/fastygo/sprintboard/domain"
	"github.com/fastygo/sprintboard/pkg/logger"
	"github.com/fastygo/sprintboard/repository"
	"github.com/fastygo/sprintboard/usecase"
)

type UseCase struct {
	tasks     repository.TaskRepository
	work      repository.WorkRepository
	schedules repository.ScheduleRepository
	settings  usecase.Settings
	logger    *zap.Logger
}

func New(
	tasks repository.TaskRepository,
	work repository.WorkRepository,
	schedules repository.ScheduleRepository,
	settings usecase.Settings,
	logger *zap.Logger,
) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		tasks:     tasks,
		work:      work,
		schedules: schedules,
		settings:  settings.Normalize(),
		logger:    logger,
	}
}

// MembersOf returns the tasks assigned to the sprint, every recurring task,
// and every task with a slot in the sprint, each once, in board order.
func (uc *UseCase) MembersOf(ctx context.Context, ownerID, sprintID int64) ([]domain.MemberTask, error) {
	assigned, err := uc.tasks.List(ctx, ownerID, repository.TaskFilter{SprintID: &sprintID})
	if err != nil {
		return nil, err
	}
	recurring, err := uc.tasks.List(ctx, ownerID, repository.TaskFilter{RecurringOnly: true})
	if err != nil {
		return nil, err
	}
	slotCounts, err := uc.schedules.CountByTask(ctx, ownerID, domain.ForSprint(sprintID))
	if err != nil {
		return nil, err
	}

	byID := make(map[int64]domain.Task, len(assigned)+len(recurring))
	for _, group := range [][]domain.Task{assigned, recurring} {
		for _, task := range group {
			byID[task.ID] = task
		}
	}

	var missing []int64
	for taskID := range slotCounts {
		if _, ok := byID[taskID]; !ok {
			missing = append(missing, taskID)
		}
	}
	if len(missing) > 0 {
		scheduled, err := uc.tasks.List(ctx, ownerID, repository.TaskFilter{IDs: missing})
		if err != nil {
			return nil, err
		}
		for _, task := range scheduled {
			byID[task.ID] = task
		}
	}

	ids := make([]int64, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	worked, err := uc.work.SumHoursByTask(ctx, ownerID, ids)
	if err != nil {
		return nil, err
	}

	members := make([]domain.MemberTask, 0, len(byID))
	for _, task := range byID {
		slots := slotCounts[task.ID]
		members = append(members, domain.MemberTask{
			Task:         task,
			HoursWorked:  worked[task.ID],
			PlannedSlots: slots,
			PlannedHours: float64(slots) * uc.settings.SlotUnitHours,
			SingleSprint: task.InSprint(sprintID),
		})
	}
	slices.SortFunc(members, func(a, b domain.MemberTask) int {
		return domain.CompareTasks(&a.Task, &b.Task)
	})
	return members, nil
}

// Unplanned lists the owner's tasks not assigned to the sprint. A failed
// lookup yields an empty list.
func (uc *UseCase) Unplanned(ctx context.Context, ownerID, sprintID int64) []domain.Task {
	tasks, err := uc.tasks.List(ctx, ownerID, repository.TaskFilter{OutsideSprint: &sprintID})
	if err != nil {
		logger.WithRequestID(ctx, uc.logger).Warn("unplanned task lookup failed",
			zap.Int64("owner_id", ownerID),
			zap.Int64("sprint_id", sprintID),
			zap.Error(err),
		)
		return []domain.Task{}
	}
	slices.SortFunc(tasks, func(a, b domain.Task) int {
		return domain.CompareTasks(&a, &b)
	})
	return tasks
}
