package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/fastygo/sprintboard/domain"
	"github.com/fastygo/sprintboard/repository"
)

type sprintRepository struct {
	s *Store
}

func (r *sprintRepository) Get(ctx context.Context, ownerID, id int64) (*domain.Sprint, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	sprint, ok := r.s.sprints[id]
	if !ok || sprint.OwnerID != ownerID {
		return nil, domain.NotFound("sprint", id)
	}
	return &sprint, nil
}

func (r *sprintRepository) List(ctx context.Context, ownerID int64) ([]domain.Sprint, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var sprints []domain.Sprint
	for _, sprint := range r.s.sprints {
		if sprint.OwnerID == ownerID {
			sprints = append(sprints, sprint)
		}
	}
	sort.Slice(sprints, func(i, j int) bool {
		if !sprints[i].StartDate.Equal(sprints[j].StartDate) {
			return sprints[i].StartDate.After(sprints[j].StartDate)
		}
		return sprints[i].ID > sprints[j].ID
	})
	return sprints, nil
}

func (r *sprintRepository) FindByDate(ctx context.Context, ownerID int64, filter repository.SprintDateFilter) (*domain.Sprint, error) {
	if filter.IsEmpty() {
		return nil, domain.InvalidQuery("no criteria supplied for sprint date search")
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var match *domain.Sprint
	for _, sprint := range r.s.sprints {
		sprint := sprint
		if sprint.OwnerID != ownerID || sprint.IsPlaceholder() {
			continue
		}
		if filter.Start != nil && !sprint.StartDate.Equal(domain.DateOf(*filter.Start)) {
			continue
		}
		if filter.End != nil && !sprint.EndDate.Equal(domain.DateOf(*filter.End)) {
			continue
		}
		if filter.Containing != nil && !sprint.Contains(*filter.Containing) {
			continue
		}
		if match == nil || sprint.ID < match.ID {
			match = &sprint
		}
	}
	return match, nil
}

func (r *sprintRepository) Last(ctx context.Context, ownerID int64) (*domain.Sprint, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var last *domain.Sprint
	for _, sprint := range r.s.sprints {
		sprint := sprint
		if sprint.OwnerID != ownerID {
			continue
		}
		if last == nil || sprint.EndDate.After(last.EndDate) ||
			(sprint.EndDate.Equal(last.EndDate) && sprint.ID > last.ID) {
			last = &sprint
		}
	}
	return last, nil
}

func (r *sprintRepository) Create(ctx context.Context, sprint *domain.Sprint) error {
	if sprint == nil {
		return domain.ErrInvalidPayload
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sprint.ID = 0
	sprint.StartDate = domain.DateOf(sprint.StartDate)
	sprint.EndDate = domain.DateOf(sprint.EndDate)
	if err := r.datesTaken(sprint); err != nil {
		return err
	}
	*sprint = r.s.putSprint(*sprint)
	return nil
}

func (r *sprintRepository) Update(ctx context.Context, sprint *domain.Sprint) error {
	if sprint == nil {
		return domain.ErrInvalidPayload
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.sprints[sprint.ID]
	if !ok || existing.OwnerID != sprint.OwnerID {
		return domain.NotFound("sprint", sprint.ID)
	}
	sprint.StartDate = domain.DateOf(sprint.StartDate)
	sprint.EndDate = domain.DateOf(sprint.EndDate)
	if err := r.datesTaken(sprint); err != nil {
		return err
	}
	r.s.sprints[sprint.ID] = *sprint
	return nil
}

// datesTaken mirrors the unique start and end date indexes of the relational
// schema. The caller holds the write lock.
func (r *sprintRepository) datesTaken(sprint *domain.Sprint) error {
	if sprint.IsPlaceholder() {
		return nil
	}
	for _, other := range r.s.sprints {
		if other.ID == sprint.ID || other.OwnerID != sprint.OwnerID || other.IsPlaceholder() {
			continue
		}
		if other.StartDate.Equal(sprint.StartDate) || other.EndDate.Equal(sprint.EndDate) {
			return domain.SprintConflict(fmt.Sprintf("sprint %d already uses %s - %s",
				other.ID, domain.DateKey(other.StartDate), domain.DateKey(other.EndDate)))
		}
	}
	return nil
}

func (r *sprintRepository) Delete(ctx context.Context, ownerID, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.sprints[id]
	if !ok || existing.OwnerID != ownerID {
		return domain.NotFound("sprint", id)
	}
	delete(r.s.sprints, id)
	return nil
}

func (r *sprintRepository) Owners(ctx context.Context) ([]int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	seen := make(map[int64]struct{})
	var owners []int64
	for _, sprint := range r.s.sprints {
		if _, ok := seen[sprint.OwnerID]; ok {
			continue
		}
		seen[sprint.OwnerID] = struct{}{}
		owners = append(owners, sprint.OwnerID)
	}
	sort.Slice(owners, func(i, j int) bool { return owners[i] < owners[j] })
	return owners, nil
}
