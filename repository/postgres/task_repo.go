package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/sprintboard/domain"
	"github.com/fastygo/sprintboard/repository"
)

type taskRepository struct {
	pool *pgxpool.Pool
}

// NewTaskRepository returns a Postgres-backed implementation of TaskRepository.
func NewTaskRepository(pool *pgxpool.Pool) repository.TaskRepository {
	return &taskRepository{pool: pool}
}

// Tasks carry the epic of their story so rollups need no extra lookups.
const taskSelect = `
	SELECT t.id, t.owner_id, t.story_id, s.epic_id, t.sprint_id, t.task,
		t.estimate, t.actual, t.deadline, t.recurring, t.status
	FROM tasks t
	JOIN stories s ON s.id = t.story_id
	`

func (r *taskRepository) Get(ctx context.Context, ownerID, id int64) (*domain.Task, error) {
	query := taskSelect + `WHERE t.owner_id = $1 AND t.id = $2`
	task, err := scanTask(conn(ctx, r.pool).QueryRow(ctx, query, ownerID, id))
	if err != nil {
		return nil, notFound(err, "task", id)
	}
	return task, nil
}

func (r *taskRepository) List(ctx context.Context, ownerID int64, filter repository.TaskFilter) ([]domain.Task, error) {
	query := taskSelect + `
	WHERE t.owner_id = $1
	  AND ($2::bigint IS NULL OR t.sprint_id = $2)
	  AND ($3::bigint IS NULL OR t.sprint_id IS NULL OR t.sprint_id <> $3)
	  AND (NOT $4 OR t.recurring)
	  AND ($5::bigint[] IS NULL OR t.id = ANY($5))
	  AND ($6 = '' OR t.status = $6)
	ORDER BY t.id
	`
	rows, err := conn(ctx, r.pool).Query(ctx, query,
		ownerID,
		filter.SprintID,
		filter.OutsideSprint,
		filter.RecurringOnly,
		filter.IDs,
		string(filter.Status),
	)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanTask)
}

func (r *taskRepository) CountInSprint(ctx context.Context, ownerID, sprintID int64) (int, error) {
	const query = `SELECT COUNT(*) FROM tasks WHERE owner_id = $1 AND sprint_id = $2`
	var count int
	err := conn(ctx, r.pool).QueryRow(ctx, query, ownerID, sprintID).Scan(&count)
	return count, err
}

func scanTask(row scanner) (*domain.Task, error) {
	var (
		task   domain.Task
		due    *time.Time
		status string
	)
	if err := row.Scan(
		&task.ID,
		&task.OwnerID,
		&task.StoryID,
		&task.EpicID,
		&task.SprintID,
		&task.Title,
		&task.Estimate,
		&task.Actual,
		&due,
		&task.Recurring,
		&status,
	); err != nil {
		return nil, err
	}
	task.Deadline = datePtr(due)
	task.Status = domain.TaskStatus(status)
	return &task, nil
}

type storyRepository struct {
	pool *pgxpool.Pool
}

func NewStoryRepository(pool *pgxpool.Pool) repository.StoryRepository {
	return &storyRepository{pool: pool}
}

func (r *storyRepository) Get(ctx context.Context, ownerID, id int64) (*domain.Story, error) {
	const query = `
	SELECT id, owner_id, epic_id, story, prioritization, deadline
	FROM stories
	WHERE owner_id = $1 AND id = $2
	`
	story, err := scanStory(conn(ctx, r.pool).QueryRow(ctx, query, ownerID, id))
	if err != nil {
		return nil, notFound(err, "story", id)
	}
	return story, nil
}

func (r *storyRepository) List(ctx context.Context, ownerID int64, ids []int64) ([]domain.Story, error) {
	const query = `
	SELECT id, owner_id, epic_id, story, prioritization, deadline
	FROM stories
	WHERE owner_id = $1 AND ($2::bigint[] IS NULL OR id = ANY($2))
	ORDER BY id
	`
	rows, err := conn(ctx, r.pool).Query(ctx, query, ownerID, ids)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanStory)
}

func scanStory(row scanner) (*domain.Story, error) {
	var (
		story domain.Story
		due   *time.Time
	)
	if err := row.Scan(&story.ID, &story.OwnerID, &story.EpicID, &story.Title, &story.Prioritization, &due); err != nil {
		return nil, err
	}
	story.Deadline = datePtr(due)
	return &story, nil
}

type epicRepository struct {
	pool *pgxpool.Pool
}

func NewEpicRepository(pool *pgxpool.Pool) repository.EpicRepository {
	return &epicRepository{pool: pool}
}

func (r *epicRepository) Get(ctx context.Context, ownerID, id int64) (*domain.Epic, error) {
	const query = `SELECT id, owner_id, epic, color, deadline FROM epics WHERE owner_id = $1 AND id = $2`
	epic, err := scanEpic(conn(ctx, r.pool).QueryRow(ctx, query, ownerID, id))
	if err != nil {
		return nil, notFound(err, "epic", id)
	}
	return epic, nil
}

func (r *epicRepository) List(ctx context.Context, ownerID int64, ids []int64) ([]domain.Epic, error) {
	const query = `
	SELECT id, owner_id, epic, color, deadline
	FROM epics
	WHERE owner_id = $1 AND ($2::bigint[] IS NULL OR id = ANY($2))
	ORDER BY id
	`
	rows, err := conn(ctx, r.pool).Query(ctx, query, ownerID, ids)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanEpic)
}

func scanEpic(row scanner) (*domain.Epic, error) {
	var (
		epic domain.Epic
		due  *time.Time
	)
	if err := row.Scan(&epic.ID, &epic.OwnerID, &epic.Title, &epic.Color, &due); err != nil {
		return nil, err
	}
	epic.Deadline = datePtr(due)
	return &epic, nil
}
