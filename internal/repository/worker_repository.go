package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/complaint-service/internal/domain"
)

// WorkerRepository handles persistence for team workers.
type WorkerRepository interface {
	Create(ctx context.Context, worker *domain.TeamWorker) error
	GetByID(ctx context.Context, id string) (*domain.TeamWorker, error)
	ListAvailable(ctx context.Context, teamID string) ([]domain.TeamWorker, error)
	UpdateStatus(ctx context.Context, id string, status domain.WorkerStatus) error
}

type workerRepository struct {
	pool *pgxpool.Pool
}

// NewWorkerRepository instantiates the repository.
func NewWorkerRepository(pool *pgxpool.Pool) WorkerRepository {
	return &workerRepository{pool: pool}
}

func (r *workerRepository) Create(ctx context.Context, worker *domain.TeamWorker) error {
	const query = `
        INSERT INTO team_workers (user_id, team_id, status, joined_at)
        VALUES ($1,$2,$3,NOW())
        RETURNING id, joined_at`
	return r.pool.QueryRow(ctx, query,
		worker.UserID,
		worker.TeamID,
		worker.Status,
	).Scan(&worker.ID, &worker.JoinedAt)
}

// GetByID loads a worker with its current active-assignment count.
func (r *workerRepository) GetByID(ctx context.Context, id string) (*domain.TeamWorker, error) {
	const query = `
        SELECT w.id, w.user_id, w.team_id, w.status, w.joined_at,
               (SELECT COUNT(*) FROM complaints c WHERE c.assignee_worker_id=w.id AND c.status <> $2)
        FROM team_workers w WHERE w.id=$1`
	var worker domain.TeamWorker
	if err := r.pool.QueryRow(ctx, query, id, domain.StatusClosed).Scan(
		&worker.ID,
		&worker.UserID,
		&worker.TeamID,
		&worker.Status,
		&worker.JoinedAt,
		&worker.ActiveAssignments,
	); err != nil {
		return nil, err
	}
	return &worker, nil
}

// ListAvailable returns AVAILABLE workers of a team with active counts, ordered
// by seniority so resolver tie-breaks are stable.
func (r *workerRepository) ListAvailable(ctx context.Context, teamID string) ([]domain.TeamWorker, error) {
	const query = `
        SELECT w.id, w.user_id, w.team_id, w.status, w.joined_at,
               (SELECT COUNT(*) FROM complaints c WHERE c.assignee_worker_id=w.id AND c.status <> $3)
        FROM team_workers w
        WHERE w.team_id=$1 AND w.status=$2
        ORDER BY w.joined_at ASC`
	rows, err := r.pool.Query(ctx, query, teamID, domain.WorkerAvailable, domain.StatusClosed)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TeamWorker
	for rows.Next() {
		var worker domain.TeamWorker
		if err := rows.Scan(
			&worker.ID,
			&worker.UserID,
			&worker.TeamID,
			&worker.Status,
			&worker.JoinedAt,
			&worker.ActiveAssignments,
		); err != nil {
			return nil, err
		}
		result = append(result, worker)
	}
	return result, rows.Err()
}

func (r *workerRepository) UpdateStatus(ctx context.Context, id string, status domain.WorkerStatus) error {
	const query = `UPDATE team_workers SET status=$1 WHERE id=$2`
	cmd, err := r.pool.Exec(ctx, query, status, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
