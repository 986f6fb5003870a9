package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/complaint-service/internal/config"
	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/notify"
	"github.com/spec-kit/complaint-service/internal/observability"
	"github.com/spec-kit/complaint-service/internal/repository"
)

// Sender performs the actual delivery of one notification.
type Sender interface {
	Send(ctx context.Context, notification domain.Notification) error
}

// LogSender is the default delivery backend; it writes the notification to the
// structured log. Real channels (email, webhook) plug in behind Sender.
type LogSender struct {
	Logger *zap.Logger
}

// Send logs the notification.
func (s *LogSender) Send(_ context.Context, notification domain.Notification) error {
	s.Logger.Info("notification delivered",
		zap.String("notification_id", notification.ID),
		zap.String("recipient_user_id", notification.RecipientID),
		zap.String("complaint_id", notification.ComplaintID),
		zap.String("message", notification.Message))
	return nil
}

// NotificationWorker drains the delivery queue with bounded retry. Delivery is
// best effort and fully decoupled from the engine: a failure here only affects
// the notification record, never complaint state.
type NotificationWorker struct {
	queue         notify.DeliveryQueue
	notifications repository.NotificationRepository
	sender        Sender
	cfg           config.NotifierConfig
	logger        *zap.Logger
	metrics       *observability.Metrics
}

// NewNotificationWorker constructs the worker.
func NewNotificationWorker(queue notify.DeliveryQueue, notifications repository.NotificationRepository, sender Sender, cfg config.NotifierConfig, logger *zap.Logger, metrics *observability.Metrics) *NotificationWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationWorker{
		queue:         queue,
		notifications: notifications,
		sender:        sender,
		cfg:           cfg,
		logger:        logger,
		metrics:       metrics,
	}
}

// Run blocks, consuming the queue until ctx is cancelled. A periodic requeue
// pass re-enqueues PENDING records whose original enqueue was lost.
func (w *NotificationWorker) Run(ctx context.Context) {
	requeueEvery := w.cfg.RetryBackoff
	if requeueEvery <= 0 {
		requeueEvery = 10 * time.Second
	}
	ticker := time.NewTicker(requeueEvery)
	defer ticker.Stop()

	w.logger.Info("notification worker started")
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("notification worker stopped")
			return
		case <-ticker.C:
			w.requeuePending(ctx)
		default:
		}

		notification, err := w.queue.Dequeue(ctx, w.pollInterval())
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			w.logger.Warn("queue dequeue failed", zap.Error(err))
			sleepCtx(ctx, w.pollInterval())
			continue
		}
		if notification == nil {
			continue
		}
		w.Deliver(ctx, *notification)
	}
}

// Deliver attempts one delivery, applying the bounded-retry policy.
func (w *NotificationWorker) Deliver(ctx context.Context, notification domain.Notification) {
	sendCtx := ctx
	if w.cfg.DispatchTimeout > 0 {
		var cancel context.CancelFunc
		sendCtx, cancel = context.WithTimeout(ctx, w.cfg.DispatchTimeout)
		defer cancel()
	}

	attempts := notification.Attempts + 1
	if err := w.sender.Send(sendCtx, notification); err != nil {
		w.handleFailure(ctx, notification, attempts, err)
		return
	}
	if err := w.notifications.UpdateDelivery(ctx, notification.ID, domain.NotificationSent, attempts); err != nil {
		w.logger.Warn("delivered notification not marked sent",
			zap.String("notification_id", notification.ID), zap.Error(err))
	}
	if w.metrics != nil {
		w.metrics.RecordDelivery(string(domain.NotificationSent))
	}
}

func (w *NotificationWorker) handleFailure(ctx context.Context, notification domain.Notification, attempts int, cause error) {
	if attempts >= w.maxAttempts() {
		w.logger.Warn("notification delivery abandoned",
			zap.String("notification_id", notification.ID),
			zap.Int("attempts", attempts),
			zap.Error(cause))
		if err := w.notifications.UpdateDelivery(ctx, notification.ID, domain.NotificationFailed, attempts); err != nil {
			w.logger.Warn("notification not marked failed",
				zap.String("notification_id", notification.ID), zap.Error(err))
		}
		if w.metrics != nil {
			w.metrics.RecordDelivery(string(domain.NotificationFailed))
		}
		return
	}

	w.logger.Debug("notification delivery retry scheduled",
		zap.String("notification_id", notification.ID),
		zap.Int("attempts", attempts),
		zap.Error(cause))
	if err := w.notifications.UpdateDelivery(ctx, notification.ID, domain.NotificationPending, attempts); err != nil {
		w.logger.Warn("notification attempt count not persisted",
			zap.String("notification_id", notification.ID), zap.Error(err))
	}
	notification.Attempts = attempts
	if err := w.queue.Enqueue(ctx, notification); err != nil {
		// Row stays PENDING; the requeue pass will recover it.
		w.logger.Warn("notification re-enqueue failed",
			zap.String("notification_id", notification.ID), zap.Error(err))
	}
}

// requeuePending re-enqueues PENDING rows, recovering notifications whose
// enqueue never reached the queue. Delivery is at-least-once: a row that is
// both queued and requeued may be sent twice.
func (w *NotificationWorker) requeuePending(ctx context.Context) {
	pending, err := w.notifications.ListPending(ctx, 100)
	if err != nil {
		w.logger.Warn("pending notification scan failed", zap.Error(err))
		return
	}
	for _, notification := range pending {
		if err := w.queue.Enqueue(ctx, notification); err != nil {
			w.logger.Warn("pending notification requeue failed",
				zap.String("notification_id", notification.ID), zap.Error(err))
			return
		}
	}
}

func (w *NotificationWorker) maxAttempts() int {
	if w.cfg.MaxAttempts <= 0 {
		return 5
	}
	return w.cfg.MaxAttempts
}

func (w *NotificationWorker) pollInterval() time.Duration {
	if w.cfg.PollInterval <= 0 {
		return time.Second
	}
	return w.cfg.PollInterval
}

func sleepCtx(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
