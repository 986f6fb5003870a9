package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/complaint-service/internal/domain"
)

// ComplaintLogRepository reads the append-only audit trail. Writes happen only
// through ComplaintRepository's transactional methods.
type ComplaintLogRepository interface {
	ListByComplaint(ctx context.Context, complaintID string) ([]domain.ComplaintLog, error)
}

type complaintLogRepository struct {
	pool *pgxpool.Pool
}

// NewComplaintLogRepository builds the repository.
func NewComplaintLogRepository(pool *pgxpool.Pool) ComplaintLogRepository {
	return &complaintLogRepository{pool: pool}
}

func (r *complaintLogRepository) ListByComplaint(ctx context.Context, complaintID string) ([]domain.ComplaintLog, error) {
	const query = `
        SELECT id, complaint_id, status, actor_type, actor_id, comment, created_at
        FROM complaint_logs WHERE complaint_id=$1 ORDER BY created_at ASC, id ASC`
	rows, err := r.pool.Query(ctx, query, complaintID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.ComplaintLog
	for rows.Next() {
		var entry domain.ComplaintLog
		if err := rows.Scan(
			&entry.ID,
			&entry.ComplaintID,
			&entry.Status,
			&entry.ActorType,
			&entry.ActorID,
			&entry.Comment,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}
