// Package notify decouples notification dispatch from the lifecycle engine.
// Enqueue failures are logged and retried by the pipeline; they never abort a
// committed state transition.
package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/complaint-service/internal/domain"
)

// Notifier accepts outbound notification records for asynchronous delivery.
type Notifier interface {
	Enqueue(ctx context.Context, notification domain.Notification) error
}

// DeliveryQueue is the consumer-side contract of the notification queue.
type DeliveryQueue interface {
	Notifier
	Dequeue(ctx context.Context, wait time.Duration) (*domain.Notification, error)
}

// queuedNotification is the wire shape pushed onto the delivery queue.
type queuedNotification struct {
	ID          string `json:"id"`
	RecipientID string `json:"recipient_user_id"`
	ComplaintID string `json:"complaint_id"`
	Message     string `json:"message"`
	Attempts    int    `json:"attempts"`
}

// RedisQueue is a redis-list backed Notifier.
type RedisQueue struct {
	client  *redis.Client
	key     string
	timeout time.Duration
	logger  *zap.Logger
}

// NewRedisQueue builds the queue against an existing client.
func NewRedisQueue(client *redis.Client, key string, timeout time.Duration, logger *zap.Logger) *RedisQueue {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &RedisQueue{client: client, key: key, timeout: timeout, logger: logger}
}

// Enqueue pushes the notification onto the queue. A timeout here is a
// retryable delivery failure, not an engine failure.
func (q *RedisQueue) Enqueue(ctx context.Context, notification domain.Notification) error {
	payload, err := json.Marshal(queuedNotification{
		ID:          notification.ID,
		RecipientID: notification.RecipientID,
		ComplaintID: notification.ComplaintID,
		Message:     notification.Message,
		Attempts:    notification.Attempts,
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, q.timeout)
	defer cancel()
	if err := q.client.LPush(ctx, q.key, payload).Err(); err != nil {
		q.logger.Warn("notification enqueue failed",
			zap.String("notification_id", notification.ID),
			zap.Error(err))
		return err
	}
	return nil
}

// Dequeue pops the oldest queued notification, blocking up to wait. A nil
// result with nil error means the queue was empty.
func (q *RedisQueue) Dequeue(ctx context.Context, wait time.Duration) (*domain.Notification, error) {
	values, err := q.client.BRPop(ctx, wait, q.key).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}
	if len(values) < 2 {
		return nil, nil
	}

	var queued queuedNotification
	if err := json.Unmarshal([]byte(values[1]), &queued); err != nil {
		q.logger.Warn("dropping malformed queued notification", zap.Error(err))
		return nil, nil
	}
	return &domain.Notification{
		ID:          queued.ID,
		RecipientID: queued.RecipientID,
		ComplaintID: queued.ComplaintID,
		Message:     queued.Message,
		Status:      domain.NotificationPending,
		Attempts:    queued.Attempts,
	}, nil
}
