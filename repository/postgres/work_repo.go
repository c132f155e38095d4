package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/sprintboard/domain"
	"github.com/fastygo/sprintboard/repository"
)

type workRepository struct {
	pool *pgxpool.Pool
}

func NewWorkRepository(pool *pgxpool.Pool) repository.WorkRepository {
	return &workRepository{pool: pool}
}

func (r *workRepository) SumHours(ctx context.Context, ownerID, taskID int64) (float64, error) {
	const query = `SELECT COALESCE(SUM(hours_worked), 0) FROM work WHERE owner_id = $1 AND task_id = $2`
	var total float64
	err := conn(ctx, r.pool).QueryRow(ctx, query, ownerID, taskID).Scan(&total)
	return total, err
}

func (r *workRepository) SumHoursByTask(ctx context.Context, ownerID int64, taskIDs []int64) (map[int64]float64, error) {
	sums := make(map[int64]float64, len(taskIDs))
	if len(taskIDs) == 0 {
		return sums, nil
	}
	const query = `
	SELECT task_id, COALESCE(SUM(hours_worked), 0)
	FROM work
	WHERE owner_id = $1 AND task_id = ANY($2)
	GROUP BY task_id
	`
	rows, err := conn(ctx, r.pool).Query(ctx, query, ownerID, taskIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			taskID int64
			total  float64
		)
		if err := rows.Scan(&taskID, &total); err != nil {
			return nil, err
		}
		sums[taskID] = total
	}
	return sums, rows.Err()
}

func (r *workRepository) ListBetween(ctx context.Context, ownerID int64, from, to time.Time) ([]domain.Work, error) {
	const query = `
	SELECT id, owner_id, task_id, work_date, hours_worked
	FROM work
	WHERE owner_id = $1 AND work_date BETWEEN $2 AND $3
	ORDER BY id
	`
	rows, err := conn(ctx, r.pool).Query(ctx, query, ownerID, domain.DateOf(from), domain.DateOf(to))
	if err != nil {
		return nil, err
	}
	return collect(rows, func(row scanner) (*domain.Work, error) {
		var work domain.Work
		if err := row.Scan(&work.ID, &work.OwnerID, &work.TaskID, &work.Date, &work.Hours); err != nil {
			return nil, err
		}
		return &work, nil
	})
}
