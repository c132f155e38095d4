package memory

import (
	"context"
	"sort"

	"github.com/fastygo/sprintboard/domain"
	"github.com/fastygo/sprintboard/repository"
)

type scheduleRepository struct {
	s *Store
}

func (r *scheduleRepository) Get(ctx context.Context, ownerID, id int64) (*domain.ScheduleTask, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	slot, ok := r.s.schedules[id]
	if !ok || slot.OwnerID != ownerID {
		return nil, domain.NotFound("schedule", id)
	}
	return &slot, nil
}

func (r *scheduleRepository) List(ctx context.Context, ownerID int64, filter repository.ScheduleFilter) ([]domain.ScheduleTask, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var slots []domain.ScheduleTask
	for _, slot := range r.s.schedules {
		if slot.OwnerID != ownerID || slot.Scope != filter.Scope {
			continue
		}
		if filter.ExcludeID != 0 && slot.ID == filter.ExcludeID {
			continue
		}
		if filter.TaskID != nil && slot.TaskID != *filter.TaskID {
			continue
		}
		if filter.Day != nil && !slot.Day.Equal(domain.DateOf(*filter.Day)) {
			continue
		}
		if filter.Hour != nil && slot.Hour != *filter.Hour {
			continue
		}
		slots = append(slots, slot)
	}
	sort.Slice(slots, func(i, j int) bool {
		if !slots[i].Day.Equal(slots[j].Day) {
			return slots[i].Day.Before(slots[j].Day)
		}
		if slots[i].Hour != slots[j].Hour {
			return slots[i].Hour < slots[j].Hour
		}
		return slots[i].ID < slots[j].ID
	})
	return slots, nil
}

func (r *scheduleRepository) CountByTask(ctx context.Context, ownerID int64, scope domain.SprintScope) (map[int64]int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	counts := make(map[int64]int)
	for _, slot := range r.s.schedules {
		if slot.OwnerID == ownerID && slot.Scope == scope {
			counts[slot.TaskID]++
		}
	}
	return counts, nil
}

func (r *scheduleRepository) Create(ctx context.Context, slot *domain.ScheduleTask) error {
	if slot == nil {
		return domain.ErrInvalidPayload
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	slot.Day = domain.DateOf(slot.Day)
	if r.occupied(slot) {
		return domain.ErrSlotTaken
	}
	slot.ID = r.s.allocID()
	r.s.schedules[slot.ID] = *slot
	return nil
}

func (r *scheduleRepository) Update(ctx context.Context, slot *domain.ScheduleTask) error {
	if slot == nil {
		return domain.ErrInvalidPayload
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.schedules[slot.ID]
	if !ok || existing.OwnerID != slot.OwnerID {
		return domain.NotFound("schedule", slot.ID)
	}
	slot.Day = domain.DateOf(slot.Day)
	if r.occupied(slot) {
		return domain.ErrSlotTaken
	}
	r.s.schedules[slot.ID] = *slot
	return nil
}

func (r *scheduleRepository) Delete(ctx context.Context, ownerID, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.schedules[id]
	if !ok || existing.OwnerID != ownerID {
		return domain.NotFound("schedule", id)
	}
	delete(r.s.schedules, id)
	return nil
}

func (r *scheduleRepository) DeleteBySprint(ctx context.Context, ownerID, sprintID int64) (int64, error) {
	if sprintID == 0 {
		return 0, nil
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	scope := domain.ForSprint(sprintID)
	var removed int64
	for id, slot := range r.s.schedules {
		if slot.OwnerID == ownerID && slot.Scope == scope {
			delete(r.s.schedules, id)
			removed++
		}
	}
	return removed, nil
}

// occupied mirrors the unique slot index of the relational schema.
func (r *scheduleRepository) occupied(slot *domain.ScheduleTask) bool {
	for _, other := range r.s.schedules {
		if other.ID == slot.ID || other.OwnerID != slot.OwnerID || other.Scope != slot.Scope {
			continue
		}
		if other.Day.Equal(slot.Day) && other.Hour == slot.Hour {
			return true
		}
	}
	return false
}
