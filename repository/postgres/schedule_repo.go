package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/sprintboard/domain"
	"github.com/fastygo/sprintboard/repository"
)

type scheduleRepository struct {
	pool *pgxpool.Pool
}

// NewScheduleRepository returns a Postgres-backed implementation of
// ScheduleRepository. Slot uniqueness is enforced by uq_schedule_slot.
func NewScheduleRepository(pool *pgxpool.Pool) repository.ScheduleRepository {
	return &scheduleRepository{pool: pool}
}

const scheduleColumns = `id, owner_id, task_id, sprint_id, sprint_day, sprint_hour, planned_hours, note`

func (r *scheduleRepository) Get(ctx context.Context, ownerID, id int64) (*domain.ScheduleTask, error) {
	const query = `SELECT ` + scheduleColumns + ` FROM schedule_tasks WHERE owner_id = $1 AND id = $2`
	slot, err := scanSchedule(conn(ctx, r.pool).QueryRow(ctx, query, ownerID, id))
	if err != nil {
		return nil, notFound(err, "schedule", id)
	}
	return slot, nil
}

func (r *scheduleRepository) List(ctx context.Context, ownerID int64, filter repository.ScheduleFilter) ([]domain.ScheduleTask, error) {
	const query = `
	SELECT ` + scheduleColumns + `
	FROM schedule_tasks
	WHERE owner_id = $1
	  AND sprint_id = $2
	  AND ($3::bigint IS NULL OR task_id = $3)
	  AND ($4::date IS NULL OR sprint_day = $4)
	  AND ($5::int IS NULL OR sprint_hour = $5)
	  AND ($6 = 0 OR id <> $6)
	ORDER BY sprint_day, sprint_hour, id
	`
	rows, err := conn(ctx, r.pool).Query(ctx, query,
		ownerID,
		filter.Scope.StoreID(),
		filter.TaskID,
		nullDate(filter.Day),
		filter.Hour,
		filter.ExcludeID,
	)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanSchedule)
}

func (r *scheduleRepository) CountByTask(ctx context.Context, ownerID int64, scope domain.SprintScope) (map[int64]int, error) {
	const query = `
	SELECT task_id, COUNT(*)
	FROM schedule_tasks
	WHERE owner_id = $1 AND sprint_id = $2
	GROUP BY task_id
	`
	rows, err := conn(ctx, r.pool).Query(ctx, query, ownerID, scope.StoreID())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[int64]int)
	for rows.Next() {
		var (
			taskID int64
			count  int
		)
		if err := rows.Scan(&taskID, &count); err != nil {
			return nil, err
		}
		counts[taskID] = count
	}
	return counts, rows.Err()
}

func (r *scheduleRepository) Create(ctx context.Context, slot *domain.ScheduleTask) error {
	if slot == nil {
		return domain.ErrInvalidPayload
	}
	const query = `
	INSERT INTO schedule_tasks (owner_id, task_id, sprint_id, sprint_day, sprint_hour, planned_hours, note)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	RETURNING id
	`
	slot.Day = domain.DateOf(slot.Day)
	err := conn(ctx, r.pool).QueryRow(ctx, query,
		slot.OwnerID,
		slot.TaskID,
		slot.Scope.StoreID(),
		slot.Day,
		slot.Hour,
		slot.PlannedHours,
		slot.Note,
	).Scan(&slot.ID)
	if isUniqueViolation(err) {
		return domain.ErrSlotTaken
	}
	return err
}

func (r *scheduleRepository) Update(ctx context.Context, slot *domain.ScheduleTask) error {
	if slot == nil {
		return domain.ErrInvalidPayload
	}
	const query = `
	UPDATE schedule_tasks
	SET task_id = $3,
		sprint_id = $4,
		sprint_day = $5,
		sprint_hour = $6,
		planned_hours = $7,
		note = $8
	WHERE owner_id = $1 AND id = $2
	`
	slot.Day = domain.DateOf(slot.Day)
	tag, err := conn(ctx, r.pool).Exec(ctx, query,
		slot.OwnerID,
		slot.ID,
		slot.TaskID,
		slot.Scope.StoreID(),
		slot.Day,
		slot.Hour,
		slot.PlannedHours,
		slot.Note,
	)
	if isUniqueViolation(err) {
		return domain.ErrSlotTaken
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFound("schedule", slot.ID)
	}
	return nil
}

func (r *scheduleRepository) Delete(ctx context.Context, ownerID, id int64) error {
	const query = `DELETE FROM schedule_tasks WHERE owner_id = $1 AND id = $2`
	tag, err := conn(ctx, r.pool).Exec(ctx, query, ownerID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFound("schedule", id)
	}
	return nil
}

func (r *scheduleRepository) DeleteBySprint(ctx context.Context, ownerID, sprintID int64) (int64, error) {
	const query = `DELETE FROM schedule_tasks WHERE owner_id = $1 AND sprint_id = $2`
	tag, err := conn(ctx, r.pool).Exec(ctx, query, ownerID, sprintID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func scanSchedule(row scanner) (*domain.ScheduleTask, error) {
	var (
		slot     domain.ScheduleTask
		sprintID int64
	)
	if err := row.Scan(
		&slot.ID,
		&slot.OwnerID,
		&slot.TaskID,
		&sprintID,
		&slot.Day,
		&slot.Hour,
		&slot.PlannedHours,
		&slot.Note,
	); err != nil {
		return nil, err
	}
	slot.Scope = domain.ScopeFromStore(sprintID)
	return &slot, nil
}
