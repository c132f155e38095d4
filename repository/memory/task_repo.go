package memory

import (
	"context"
	"sort"
	"time"

	"github.com/fastygo/sprintboard/domain"
	"github.com/fastygo/sprintboard/repository"
)

type taskRepository struct {
	s *Store
}

func (r *taskRepository) Get(ctx context.Context, ownerID, id int64) (*domain.Task, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	task, ok := r.s.tasks[id]
	if !ok || task.OwnerID != ownerID {
		return nil, domain.NotFound("task", id)
	}
	return &task, nil
}

func (r *taskRepository) List(ctx context.Context, ownerID int64, filter repository.TaskFilter) ([]domain.Task, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var tasks []domain.Task
	for _, task := range r.s.tasks {
		if task.OwnerID != ownerID {
			continue
		}
		if filter.SprintID != nil && !task.InSprint(*filter.SprintID) {
			continue
		}
		if filter.OutsideSprint != nil && task.InSprint(*filter.OutsideSprint) {
			continue
		}
		if filter.RecurringOnly && !task.Recurring {
			continue
		}
		if filter.IDs != nil && !containsID(filter.IDs, task.ID) {
			continue
		}
		if filter.Status != "" && task.Status != filter.Status {
			continue
		}
		tasks = append(tasks, task)
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].ID < tasks[j].ID })
	return tasks, nil
}

func (r *taskRepository) CountInSprint(ctx context.Context, ownerID, sprintID int64) (int, error) {
	tasks, err := r.List(ctx, ownerID, repository.TaskFilter{SprintID: &sprintID})
	if err != nil {
		return 0, err
	}
	return len(tasks), nil
}

type storyRepository struct {
	s *Store
}

func (r *storyRepository) Get(ctx context.Context, ownerID, id int64) (*domain.Story, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	story, ok := r.s.stories[id]
	if !ok || story.OwnerID != ownerID {
		return nil, domain.NotFound("story", id)
	}
	return &story, nil
}

func (r *storyRepository) List(ctx context.Context, ownerID int64, ids []int64) ([]domain.Story, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var stories []domain.Story
	for _, story := range r.s.stories {
		if story.OwnerID == ownerID && (ids == nil || containsID(ids, story.ID)) {
			stories = append(stories, story)
		}
	}
	sort.Slice(stories, func(i, j int) bool { return stories[i].ID < stories[j].ID })
	return stories, nil
}

type epicRepository struct {
	s *Store
}

func (r *epicRepository) Get(ctx context.Context, ownerID, id int64) (*domain.Epic, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	epic, ok := r.s.epics[id]
	if !ok || epic.OwnerID != ownerID {
		return nil, domain.NotFound("epic", id)
	}
	return &epic, nil
}

func (r *epicRepository) List(ctx context.Context, ownerID int64, ids []int64) ([]domain.Epic, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var epics []domain.Epic
	for _, epic := range r.s.epics {
		if epic.OwnerID == ownerID && (ids == nil || containsID(ids, epic.ID)) {
			epics = append(epics, epic)
		}
	}
	sort.Slice(epics, func(i, j int) bool { return epics[i].ID < epics[j].ID })
	return epics, nil
}

type workRepository struct {
	s *Store
}

func (r *workRepository) SumHours(ctx context.Context, ownerID, taskID int64) (float64, error) {
	sums, err := r.SumHoursByTask(ctx, ownerID, []int64{taskID})
	if err != nil {
		return 0, err
	}
	return sums[taskID], nil
}

func (r *workRepository) SumHoursByTask(ctx context.Context, ownerID int64, taskIDs []int64) (map[int64]float64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	sums := make(map[int64]float64)
	for _, work := range r.s.work {
		if work.OwnerID == ownerID && containsID(taskIDs, work.TaskID) {
			sums[work.TaskID] += work.Hours
		}
	}
	return sums, nil
}

func (r *workRepository) ListBetween(ctx context.Context, ownerID int64, from, to time.Time) ([]domain.Work, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	from, to = domain.DateOf(from), domain.DateOf(to)
	var items []domain.Work
	for _, work := range r.s.work {
		if work.OwnerID != ownerID || work.Date.Before(from) || work.Date.After(to) {
			continue
		}
		items = append(items, work)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}
