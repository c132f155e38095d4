// Package board assembles the renderable view of a sprint.
package board

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/sprintboard/domain"
	"github.com/fastygo/sprintboard/pkg/logger"
	"github.com/fastygo/sprintboard/repository"
	"github.com/fastygo/sprintboard/usecase"
)

// SprintSource resolves the sprint of a board.
type SprintSource interface {
	Get(ctx context.Context, ownerID, id int64) (*domain.Sprint, error)
	Number(ctx context.Context, ownerID, sprintID int64) (int, error)
}

// MemberSource resolves the task working set of a sprint.
type MemberSource interface {
	MembersOf(ctx context.Context, ownerID, sprintID int64) ([]domain.MemberTask, error)
	Unplanned(ctx context.Context, ownerID, sprintID int64) []domain.Task
}

type UseCase struct {
	sprints   SprintSource
	members   MemberSource
	schedules repository.ScheduleRepository
	stories   repository.StoryRepository
	epics     repository.EpicRepository
	work      repository.WorkRepository
	cache     usecase.BoardCache
	observer  usecase.Observer
	settings  usecase.Settings
	logger    *zap.Logger
}

// Deps groups the collaborators of the aggregator. Cache and Observer are optional.
type Deps struct {
	Sprints   SprintSource
	Members   MemberSource
	Schedules repository.ScheduleRepository
	Stories   repository.StoryRepository
	Epics     repository.EpicRepository
	Work      repository.WorkRepository
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
		sprints:   deps.Sprints,
		members:   deps.Members,
		schedules: deps.Schedules,
		stories:   deps.Stories,
		epics:     deps.Epics,
		work:      deps.Work,
		cache:     deps.Cache,
		observer:  observer,
		settings:  settings.Normalize(),
		logger:    logger,
	}
}

// Build returns the board of one sprint.
func (uc *UseCase) Build(ctx context.Context, ownerID, sprintID int64) (*domain.Board, error) {
	started := time.Now()
	log := logger.WithRequestID(ctx, uc.logger)

	if cached := uc.cached(ctx, ownerID, sprintID); cached != nil {
		uc.observer.BoardBuilt(time.Since(started), true)
		return cached, nil
	}

	sprint, err := uc.sprints.Get(ctx, ownerID, sprintID)
	if err != nil {
		return nil, err
	}
	number, err := uc.sprints.Number(ctx, ownerID, sprintID)
	if err != nil {
		return nil, err
	}
	members, err := uc.members.MembersOf(ctx, ownerID, sprintID)
	if err != nil {
		return nil, err
	}
	slots, err := uc.slots(ctx, sprint)
	if err != nil {
		return nil, err
	}

	board := &domain.Board{
		Sprint:    *sprint,
		Number:    number,
		Grid:      Grid(sprint, slots, uc.settings),
		Tasks:     make(map[int64]domain.MemberTask, len(members)),
		Order:     make([]int64, 0, len(members)),
		Rollups:   Rollups(members, slots),
		Slots:     slots,
		Unplanned: uc.members.Unplanned(ctx, ownerID, sprintID),
		Statuses:  domain.Statuses,
	}
	for _, member := range members {
		board.Tasks[member.ID] = member
		board.Order = append(board.Order, member.ID)
	}
	if board.Stories, board.Epics, err = uc.summaries(ctx, ownerID, members); err != nil {
		return nil, err
	}

	if uc.cache != nil {
		if err := uc.cache.Set(ctx, ownerID, board); err != nil {
			log.Warn("board cache write failed", zap.Int64("sprint_id", sprintID), zap.Error(err))
		}
	}
	uc.observer.BoardBuilt(time.Since(started), false)
	log.Debug("board built",
		zap.Int64("owner_id", ownerID),
		zap.Int64("sprint_id", sprintID),
		zap.Int("tasks", len(members)),
		zap.Int("slots", len(slots)),
	)
	return board, nil
}

func (uc *UseCase) cached(ctx context.Context, ownerID, sprintID int64) *domain.Board {
	if uc.cache == nil {
		return nil
	}
	board, ok, err := uc.cache.Get(ctx, ownerID, sprintID)
	if err != nil {
		logger.WithRequestID(ctx, uc.logger).Warn("board cache read failed", zap.Int64("sprint_id", sprintID), zap.Error(err))
		return nil
	}
	if !ok {
		return nil
	}
	return board
}

// slots merges the sprint's own rows with the recurring rows projected onto
// it. A sprint row wins over a recurring row at the same (day, hour).
func (uc *UseCase) slots(ctx context.Context, sprint *domain.Sprint) ([]domain.BoardSlot, error) {
	standard, err := uc.schedules.List(ctx, sprint.OwnerID, repository.ScheduleFilter{Scope: domain.ForSprint(sprint.ID)})
	if err != nil {
		return nil, err
	}
	recurring, err := uc.schedules.List(ctx, sprint.OwnerID, repository.ScheduleFilter{Scope: domain.RecurringScope()})
	if err != nil {
		return nil, err
	}
	work, err := uc.work.ListBetween(ctx, sprint.OwnerID, sprint.StartDate, sprint.EndDate)
	if err != nil {
		return nil, err
	}

	merged := make(map[domain.SlotKey]domain.BoardSlot)
	for _, row := range ProjectRecurring(sprint, recurring) {
		merged[row.Key()] = domain.BoardSlot{ScheduleTask: row, Recurring: true}
	}
	for _, row := range standard {
		merged[row.Key()] = domain.BoardSlot{ScheduleTask: row}
	}

	worked := make(map[workKey]float64, len(work))
	for _, w := range work {
		worked[workKey{taskID: w.TaskID, day: domain.DateKey(w.Date)}] += w.Hours
	}

	slots := make([]domain.BoardSlot, 0, len(merged))
	for _, slot := range merged {
		slot.WorkedHours = worked[workKey{taskID: slot.TaskID, day: domain.DateKey(slot.Day)}]
		slots = append(slots, slot)
	}
	sort.Slice(slots, func(i, j int) bool {
		if !slots[i].Day.Equal(slots[j].Day) {
			return slots[i].Day.Before(slots[j].Day)
		}
		return slots[i].Hour < slots[j].Hour
	})
	return slots, nil
}

type workKey struct {
	taskID int64
	day    string
}

func (uc *UseCase) summaries(ctx context.Context, ownerID int64, members []domain.MemberTask) (map[int64]domain.StorySummary, map[int64]domain.EpicSummary, error) {
	storyIDs := make([]int64, 0)
	epicIDs := make([]int64, 0)
	seenStory := make(map[int64]bool)
	seenEpic := make(map[int64]bool)
	for _, member := range members {
		if !seenStory[member.StoryID] {
			seenStory[member.StoryID] = true
			storyIDs = append(storyIDs, member.StoryID)
		}
		if !seenEpic[member.EpicID] {
			seenEpic[member.EpicID] = true
			epicIDs = append(epicIDs, member.EpicID)
		}
	}

	stories := make(map[int64]domain.StorySummary, len(storyIDs))
	epics := make(map[int64]domain.EpicSummary, len(epicIDs))
	if len(members) == 0 {
		return stories, epics, nil
	}

	storyRows, err := uc.stories.List(ctx, ownerID, storyIDs)
	if err != nil {
		return nil, nil, err
	}
	for _, story := range storyRows {
		stories[story.ID] = domain.StorySummary{Story: story}
	}
	epicRows, err := uc.epics.List(ctx, ownerID, epicIDs)
	if err != nil {
		return nil, nil, err
	}
	for _, epic := range epicRows {
		epics[epic.ID] = domain.EpicSummary{Epic: epic}
	}

	for i := range members {
		task := &members[i].Task
		if story, ok := stories[task.StoryID]; ok {
			story.Include(task)
			stories[task.StoryID] = story
		}
		if epic, ok := epics[task.EpicID]; ok {
			epic.Include(task)
			epics[task.EpicID] = epic
		}
	}
	return stories, epics, nil
}
