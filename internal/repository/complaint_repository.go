package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/complaint-service/internal/domain"
)

// Sentinel errors surfaced by atomic writes. The service layer maps them onto
// the domain error taxonomy.
var (
	// ErrVersionConflict means the expected complaint version no longer matches;
	// the caller must re-read and recompute the transition.
	ErrVersionConflict = errors.New("complaint version conflict")

	// ErrWorkerCapacity means the assignee reached its active-assignment limit,
	// detected inside the same transaction as the assignment write.
	ErrWorkerCapacity = errors.New("worker capacity exhausted")
)

// ComplaintRepository encapsulates complaint persistence. Mutations pair the
// complaint row update with an audit log insert in one transaction, guarded by
// an optimistic version check.
type ComplaintRepository interface {
	Create(ctx context.Context, complaint *domain.Complaint) error
	GetByID(ctx context.Context, id string) (*domain.Complaint, error)
	SaveWithLog(ctx context.Context, complaint *domain.Complaint, entry *domain.ComplaintLog, expectedVersion int64) error
	AssignWithLog(ctx context.Context, complaint *domain.Complaint, entry *domain.ComplaintLog, expectedVersion int64, maxActive int) error
	ListIdle(ctx context.Context, statuses []domain.ComplaintStatus, olderThan time.Time) ([]domain.Complaint, error)
}

type complaintRepository struct {
	pool *pgxpool.Pool
}

// NewComplaintRepository instantiates the repository.
func NewComplaintRepository(pool *pgxpool.Pool) ComplaintRepository {
	return &complaintRepository{pool: pool}
}

func (r *complaintRepository) Create(ctx context.Context, complaint *domain.Complaint) error {
	const query = `
        INSERT INTO complaints (category_id, reporter_user_id, team_id, assignee_worker_id, status, version, last_status_change_at)
        VALUES ($1,$2,$3,$4,$5,1,NOW())
        RETURNING id, version, created_at, updated_at, last_status_change_at`
	return r.pool.QueryRow(ctx, query,
		complaint.CategoryID,
		complaint.ReporterID,
		complaint.TeamID,
		complaint.AssigneeID,
		complaint.Status,
	).Scan(&complaint.ID, &complaint.Version, &complaint.CreatedAt, &complaint.UpdatedAt, &complaint.LastStatusChangeAt)
}

func (r *complaintRepository) GetByID(ctx context.Context, id string) (*domain.Complaint, error) {
	const query = `
        SELECT id, category_id, reporter_user_id, team_id, assignee_worker_id,
               status, version, created_at, updated_at, last_status_change_at
        FROM complaints WHERE id=$1`
	var complaint domain.Complaint
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&complaint.ID,
		&complaint.CategoryID,
		&complaint.ReporterID,
		&complaint.TeamID,
		&complaint.AssigneeID,
		&complaint.Status,
		&complaint.Version,
		&complaint.CreatedAt,
		&complaint.UpdatedAt,
		&complaint.LastStatusChangeAt,
	); err != nil {
		return nil, err
	}
	return &complaint, nil
}

// SaveWithLog updates complaint state and appends the log entry atomically.
// A stale expectedVersion leaves the row untouched and returns ErrVersionConflict.
func (r *complaintRepository) SaveWithLog(ctx context.Context, complaint *domain.Complaint, entry *domain.ComplaintLog, expectedVersion int64) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		return r.writeWithLog(ctx, tx, complaint, entry, expectedVersion)
	})
}

// AssignWithLog is SaveWithLog plus a capacity check on the assignee, executed
// inside the same transaction. The worker row is locked first so two
// concurrent assigns cannot both pass the count.
func (r *complaintRepository) AssignWithLog(ctx context.Context, complaint *domain.Complaint, entry *domain.ComplaintLog, expectedVersion int64, maxActive int) error {
	if complaint.AssigneeID == nil {
		return errors.New("assignee required")
	}
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		var lockedID string
		if err := tx.QueryRow(ctx,
			`SELECT id FROM team_workers WHERE id=$1 FOR UPDATE`,
			*complaint.AssigneeID,
		).Scan(&lockedID); err != nil {
			return err
		}

		var active int
		if err := tx.QueryRow(ctx,
			`SELECT COUNT(*) FROM complaints WHERE assignee_worker_id=$1 AND status <> $2`,
			*complaint.AssigneeID, domain.StatusClosed,
		).Scan(&active); err != nil {
			return err
		}
		if active >= maxActive {
			return ErrWorkerCapacity
		}

		return r.writeWithLog(ctx, tx, complaint, entry, expectedVersion)
	})
}

func (r *complaintRepository) writeWithLog(ctx context.Context, tx pgx.Tx, complaint *domain.Complaint, entry *domain.ComplaintLog, expectedVersion int64) error {
	const update = `
        UPDATE complaints
        SET assignee_worker_id=$1, status=$2, last_status_change_at=$3, version=version+1, updated_at=NOW()
        WHERE id=$4 AND version=$5`
	cmd, err := tx.Exec(ctx, update,
		complaint.AssigneeID,
		complaint.Status,
		complaint.LastStatusChangeAt,
		complaint.ID,
		expectedVersion,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrVersionConflict
	}
	complaint.Version = expectedVersion + 1

	const insert = `
        INSERT INTO complaint_logs (complaint_id, status, actor_type, actor_id, comment)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	return tx.QueryRow(ctx, insert,
		entry.ComplaintID,
		entry.Status,
		entry.ActorType,
		entry.ActorID,
		entry.Comment,
	).Scan(&entry.ID, &entry.CreatedAt)
}

func (r *complaintRepository) ListIdle(ctx context.Context, statuses []domain.ComplaintStatus, olderThan time.Time) ([]domain.Complaint, error) {
	if len(statuses) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(statuses))
	args := []any{olderThan}
	for i, status := range statuses {
		args = append(args, status)
		placeholders[i] = fmt.Sprintf("$%d", len(args))
	}
	query := fmt.Sprintf(`
        SELECT id, category_id, reporter_user_id, team_id, assignee_worker_id,
               status, version, created_at, updated_at, last_status_change_at
        FROM complaints
        WHERE last_status_change_at < $1 AND status IN (%s)
        ORDER BY last_status_change_at ASC`, strings.Join(placeholders, ","))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Complaint
	for rows.Next() {
		var complaint domain.Complaint
		if err := rows.Scan(
			&complaint.ID,
			&complaint.CategoryID,
			&complaint.ReporterID,
			&complaint.TeamID,
			&complaint.AssigneeID,
			&complaint.Status,
			&complaint.Version,
			&complaint.CreatedAt,
			&complaint.UpdatedAt,
			&complaint.LastStatusChangeAt,
		); err != nil {
			return nil, err
		}
		result = append(result, complaint)
	}
	return result, rows.Err()
}
