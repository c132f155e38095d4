package board

import (
	"sort"
	"time"

	"github.com/fastygo/sprintboard/domain"
	"github.com/fastygo/sprintboard/usecase"
)

// ProjectRecurring places recurring rows on every sprint day sharing their
// weekday. When several rows compete for one (weekday, hour) the one with
// the latest day wins.
func ProjectRecurring(sprint *domain.Sprint, recurring []domain.ScheduleTask) []domain.ScheduleTask {
	type weekSlot struct {
		weekday time.Weekday
		hour    int
	}
	winners := make(map[weekSlot]domain.ScheduleTask)
	for _, row := range recurring {
		key := weekSlot{weekday: row.Day.Weekday(), hour: row.Hour}
		current, ok := winners[key]
		if !ok || row.Day.After(current.Day) || (row.Day.Equal(current.Day) && row.ID > current.ID) {
			winners[key] = row
		}
	}

	var projected []domain.ScheduleTask
	for _, day := range sprint.Days() {
		for key, row := range winners {
			if key.weekday != day.Weekday() {
				continue
			}
			row.Day = day
			projected = append(projected, row)
		}
	}
	return projected
}

// Grid lays out one row per sprint day with the hours in use, plus the next
// free hour as a hint. A day with nothing scheduled gets the default hour.
func Grid(sprint *domain.Sprint, slots []domain.BoardSlot, settings usecase.Settings) []domain.GridDay {
	used := make(map[string][]int)
	for _, slot := range slots {
		key := domain.DateKey(slot.Day)
		used[key] = append(used[key], slot.Hour)
	}

	days := sprint.Days()
	grid := make([]domain.GridDay, 0, len(days))
	for i, day := range days {
		hours := uniqueSorted(used[domain.DateKey(day)])
		if len(hours) == 0 {
			hours = []int{settings.DefaultSlotHour}
		} else if next := hours[len(hours)-1] + 1; next <= settings.MaxHour {
			hours = append(hours, next)
		}
		grid = append(grid, domain.GridDay{Index: i, Date: day, Hours: hours})
	}
	return grid
}

func uniqueSorted(hours []int) []int {
	if len(hours) == 0 {
		return nil
	}
	sorted := append([]int(nil), hours...)
	sort.Ints(sorted)
	out := sorted[:1]
	for _, h := range sorted[1:] {
		if h != out[len(out)-1] {
			out = append(out, h)
		}
	}
	return out
}

// Rollups folds member estimates into status, epic and story cuts, and slot
// planned hours into day and sprint cuts.
func Rollups(members []domain.MemberTask, slots []domain.BoardSlot) domain.Rollups {
	rollups := make(domain.Rollups)
	for i := range members {
		task := &members[i].Task
		rollups.Add(task.EstimateOrZero(),
			string(task.Status),
			domain.EpicCut(task.EpicID),
			domain.EpicStatusCut(task.EpicID, task.Status),
			domain.StoryCut(task.StoryID),
			domain.StoryStatusCut(task.StoryID, task.Status),
		)
	}
	for _, slot := range slots {
		if slot.PlannedHours == nil {
			continue
		}
		rollups.Add(*slot.PlannedHours, domain.DayCut(slot.Day), domain.SprintCut)
	}
	return rollups
}
