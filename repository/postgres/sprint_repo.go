package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/sprintboard/domain"
	"github.com/fastygo/sprintboard/repository"
)

type sprintRepository struct {
	pool *pgxpool.Pool
}

// NewSprintRepository returns a Postgres-backed implementation of SprintRepository.
func NewSprintRepository(pool *pgxpool.Pool) repository.SprintRepository {
	return &sprintRepository{pool: pool}
}

const sprintColumns = `id, owner_id, start_date, end_date`

func (r *sprintRepository) Get(ctx context.Context, ownerID, id int64) (*domain.Sprint, error) {
	const query = `SELECT ` + sprintColumns + ` FROM sprints WHERE owner_id = $1 AND id = $2`
	sprint, err := scanSprint(conn(ctx, r.pool).QueryRow(ctx, query, ownerID, id))
	if err != nil {
		return nil, notFound(err, "sprint", id)
	}
	return sprint, nil
}

func (r *sprintRepository) List(ctx context.Context, ownerID int64) ([]domain.Sprint, error) {
	const query = `
	SELECT ` + sprintColumns + `
	FROM sprints
	WHERE owner_id = $1
	ORDER BY start_date DESC, id DESC
	`
	rows, err := conn(ctx, r.pool).Query(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanSprint)
}

func (r *sprintRepository) FindByDate(ctx context.Context, ownerID int64, filter repository.SprintDateFilter) (*domain.Sprint, error) {
	if filter.IsEmpty() {
		return nil, domain.InvalidQuery("no criteria supplied for sprint date search")
	}
	const query = `
	SELECT ` + sprintColumns + `
	FROM sprints
	WHERE owner_id = $1
	  AND start_date <> $2
	  AND ($3::date IS NULL OR start_date = $3)
	  AND ($4::date IS NULL OR end_date = $4)
	  AND ($5::date IS NULL OR (start_date <= $5 AND end_date >= $5))
	ORDER BY id
	LIMIT 1
	`
	sprint, err := scanSprint(conn(ctx, r.pool).QueryRow(ctx, query,
		ownerID,
		domain.PlaceholderSprintStart,
		nullDate(filter.Start),
		nullDate(filter.End),
		nullDate(filter.Containing),
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return sprint, err
}

func (r *sprintRepository) Last(ctx context.Context, ownerID int64) (*domain.Sprint, error) {
	const query = `
	SELECT ` + sprintColumns + `
	FROM sprints
	WHERE owner_id = $1
	ORDER BY end_date DESC, id DESC
	LIMIT 1
	`
	sprint, err := scanSprint(conn(ctx, r.pool).QueryRow(ctx, query, ownerID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return sprint, err
}

func (r *sprintRepository) Create(ctx context.Context, sprint *domain.Sprint) error {
	if sprint == nil {
		return domain.ErrInvalidPayload
	}
	const query = `
	INSERT INTO sprints (owner_id, start_date, end_date)
	VALUES ($1, $2, $3)
	RETURNING id
	`
	sprint.StartDate = domain.DateOf(sprint.StartDate)
	sprint.EndDate = domain.DateOf(sprint.EndDate)
	err := conn(ctx, r.pool).QueryRow(ctx, query, sprint.OwnerID, sprint.StartDate, sprint.EndDate).Scan(&sprint.ID)
	return sprintWriteError(err, sprint)
}

func (r *sprintRepository) Update(ctx context.Context, sprint *domain.Sprint) error {
	if sprint == nil {
		return domain.ErrInvalidPayload
	}
	const query = `
	UPDATE sprints
	SET start_date = $3,
		end_date = $4
	WHERE owner_id = $1 AND id = $2
	`
	sprint.StartDate = domain.DateOf(sprint.StartDate)
	sprint.EndDate = domain.DateOf(sprint.EndDate)
	tag, err := conn(ctx, r.pool).Exec(ctx, query, sprint.OwnerID, sprint.ID, sprint.StartDate, sprint.EndDate)
	if err != nil {
		return sprintWriteError(err, sprint)
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFound("sprint", sprint.ID)
	}
	return nil
}

func (r *sprintRepository) Delete(ctx context.Context, ownerID, id int64) error {
	const query = `DELETE FROM sprints WHERE owner_id = $1 AND id = $2`
	tag, err := conn(ctx, r.pool).Exec(ctx, query, ownerID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFound("sprint", id)
	}
	return nil
}

func (r *sprintRepository) Owners(ctx context.Context) ([]int64, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `SELECT DISTINCT owner_id FROM sprints ORDER BY owner_id`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[int64])
}

func scanSprint(row scanner) (*domain.Sprint, error) {
	var sprint domain.Sprint
	if err := row.Scan(&sprint.ID, &sprint.OwnerID, &sprint.StartDate, &sprint.EndDate); err != nil {
		return nil, err
	}
	return &sprint, nil
}

// sprintWriteError maps a hit on uq_sprints_owner_start or uq_sprints_owner_end
// to a sprint conflict.
func sprintWriteError(err error, sprint *domain.Sprint) error {
	if err == nil || !isUniqueViolation(err) {
		return err
	}
	return domain.WrapError(domain.ErrCodeSprintConflict,
		fmt.Sprintf("another sprint already uses %s - %s", domain.DateKey(sprint.StartDate), domain.DateKey(sprint.EndDate)), err)
}
