package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/complaint-service/internal/domain"
)

// NotificationRepository stores notification records. The engine creates them
// PENDING; the notifier pipeline owns them afterwards.
type NotificationRepository interface {
	Create(ctx context.Context, notification *domain.Notification) error
	UpdateDelivery(ctx context.Context, id string, status domain.NotificationStatus, attempts int) error
	ListPending(ctx context.Context, limit int) ([]domain.Notification, error)
}

type notificationRepository struct {
	pool *pgxpool.Pool
}

// NewNotificationRepository builds the repository.
func NewNotificationRepository(pool *pgxpool.Pool) NotificationRepository {
	return &notificationRepository{pool: pool}
}

func (r *notificationRepository) Create(ctx context.Context, notification *domain.Notification) error {
	const query = `
        INSERT INTO notifications (recipient_user_id, complaint_id, message, status, attempts)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		notification.RecipientID,
		notification.ComplaintID,
		notification.Message,
		notification.Status,
		notification.Attempts,
	).Scan(&notification.ID, &notification.CreatedAt)
}

func (r *notificationRepository) UpdateDelivery(ctx context.Context, id string, status domain.NotificationStatus, attempts int) error {
	const query = `UPDATE notifications SET status=$1, attempts=$2 WHERE id=$3`
	cmd, err := r.pool.Exec(ctx, query, status, attempts, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *notificationRepository) ListPending(ctx context.Context, limit int) ([]domain.Notification, error) {
	if limit <= 0 {
		limit = 100
	}
	const query = `
        SELECT id, recipient_user_id, complaint_id, message, status, attempts, created_at
        FROM notifications WHERE status=$1 ORDER BY created_at ASC LIMIT $2`
	rows, err := r.pool.Query(ctx, query, domain.NotificationPending, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Notification
	for rows.Next() {
		var notification domain.Notification
		if err := rows.Scan(
			&notification.ID,
			&notification.RecipientID,
			&notification.ComplaintID,
			&notification.Message,
			&notification.Status,
			&notification.Attempts,
			&notification.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, notification)
	}
	return result, rows.Err()
}
