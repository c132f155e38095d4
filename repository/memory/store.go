// Package memory provides process-local repositories. They back the
// "memory" storage driver and the use case tests.
package memory

import (
	"context"
	"sync"

	"github.com/fastygo/sprintboard/domain"
	"github.com/fastygo/sprintboard/repository"
)

type txKey struct{}

// Store holds every entity the planner reads or writes.
type Store struct {
	mu   sync.RWMutex
	txMu sync.Mutex

	nextID    int64
	sprints   map[int64]domain.Sprint
	tasks     map[int64]domain.Task
	stories   map[int64]domain.Story
	epics     map[int64]domain.Epic
	work      map[int64]domain.Work
	schedules map[int64]domain.ScheduleTask
}

func NewStore() *Store {
	return &Store{
		sprints:   make(map[int64]domain.Sprint),
		tasks:     make(map[int64]domain.Task),
		stories:   make(map[int64]domain.Story),
		epics:     make(map[int64]domain.Epic),
		work:      make(map[int64]domain.Work),
		schedules: make(map[int64]domain.ScheduleTask),
	}
}

func (s *Store) Sprints() repository.SprintRepository { return &sprintRepository{s} }

func (s *Store) Tasks() repository.TaskRepository { return &taskRepository{s} }

func (s *Store) Stories() repository.StoryRepository { return &storyRepository{s} }

func (s *Store) Epics() repository.EpicRepository { return &epicRepository{s} }

func (s *Store) Work() repository.WorkRepository { return &workRepository{s} }

func (s *Store) Schedules() repository.ScheduleRepository { return &scheduleRepository{s} }

// WithinTx serializes fn against every other transaction on the store.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(bool); ok {
		return fn(ctx)
	}
	s.txMu.Lock()
	defer s.txMu.Unlock()
	return fn(context.WithValue(ctx, txKey{}, true))
}

var _ repository.Transactor = (*Store)(nil)

func (s *Store) allocID() int64 {
	s.nextID++
	return s.nextID
}

// AddEpic seeds an epic and returns it with its assigned id.
func (s *Store) AddEpic(epic domain.Epic) domain.Epic {
	s.mu.Lock()
	defer s.mu.Unlock()
	if epic.ID == 0 {
		epic.ID = s.allocID()
	}
	s.epics[epic.ID] = epic
	return epic
}

func (s *Store) AddStory(story domain.Story) domain.Story {
	s.mu.Lock()
	defer s.mu.Unlock()
	if story.ID == 0 {
		story.ID = s.allocID()
	}
	s.stories[story.ID] = story
	return story
}

// AddTask seeds a task. EpicID is taken from the task's story when known.
func (s *Store) AddTask(task domain.Task) domain.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	if task.ID == 0 {
		task.ID = s.allocID()
	}
	if task.Status == "" {
		task.Status = domain.StatusToDo
	}
	if story, ok := s.stories[task.StoryID]; ok {
		task.EpicID = story.EpicID
	}
	s.tasks[task.ID] = task
	return task
}

func (s *Store) AddWork(work domain.Work) domain.Work {
	s.mu.Lock()
	defer s.mu.Unlock()
	if work.ID == 0 {
		work.ID = s.allocID()
	}
	work.Date = domain.DateOf(work.Date)
	s.work[work.ID] = work
	return work
}

func (s *Store) AddSprint(sprint domain.Sprint) domain.Sprint {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.putSprint(sprint)
}

func (s *Store) putSprint(sprint domain.Sprint) domain.Sprint {
	if sprint.ID == 0 {
		sprint.ID = s.allocID()
	}
	sprint.StartDate = domain.DateOf(sprint.StartDate)
	sprint.EndDate = domain.DateOf(sprint.EndDate)
	s.sprints[sprint.ID] = sprint
	return sprint
}

func containsID(ids []int64, id int64) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
