package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/events"
	"github.com/spec-kit/complaint-service/internal/notify"
	"github.com/spec-kit/complaint-service/internal/repository"
)

// NotificationService turns domain events into Notification records and hands
// them to the notifier queue. It runs strictly after the transition committed;
// any failure here is logged and retried by the delivery pipeline, never
// propagated back to the engine.
type NotificationService struct {
	dispatcher    events.Dispatcher
	notifications repository.NotificationRepository
	workers       repository.WorkerRepository
	notifier      notify.Notifier
	logger        *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, notifications repository.NotificationRepository, workers repository.WorkerRepository, notifier notify.Notifier, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		dispatcher:    dispatcher,
		notifications: notifications,
		workers:       workers,
		notifier:      notifier,
		logger:        logger,
	}
}

// RegisterHandlers subscribes to engine events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventComplaintAssigned, n.handleAssigned)
	n.dispatcher.Subscribe(events.EventComplaintStatusChanged, n.handleStatusChanged)
	n.dispatcher.Subscribe(events.EventComplaintEscalated, n.handleEscalated)
	n.dispatcher.Subscribe(events.EventComplaintRated, n.handleRated)
}

func (n *NotificationService) handleAssigned(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.ComplaintAssignedPayload)
	if !ok {
		return nil
	}
	n.emit(ctx, payload.ReporterID, event.ComplaintID,
		"Your complaint has been assigned to a team worker.")
	if userID, found := n.workerUser(ctx, payload.WorkerID); found {
		n.emit(ctx, userID, event.ComplaintID,
			"A complaint has been assigned to you.")
	}
	return nil
}

func (n *NotificationService) handleStatusChanged(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.ComplaintStatusChangedPayload)
	if !ok {
		return nil
	}
	n.emit(ctx, payload.ReporterID, event.ComplaintID,
		fmt.Sprintf("Your complaint status changed to %s.", payload.NewStatus))
	return nil
}

func (n *NotificationService) handleEscalated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.ComplaintEscalatedPayload)
	if !ok {
		return nil
	}
	n.emit(ctx, payload.ReporterID, event.ComplaintID,
		fmt.Sprintf("Your complaint was escalated to %s due to inactivity.", payload.NewStatus))
	if payload.AssigneeID != nil {
		if userID, found := n.workerUser(ctx, *payload.AssigneeID); found {
			n.emit(ctx, userID, event.ComplaintID,
				"A complaint assigned to you has been escalated.")
		}
	}
	return nil
}

func (n *NotificationService) handleRated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.ComplaintRatedPayload)
	if !ok {
		return nil
	}
	if userID, found := n.workerUser(ctx, payload.WorkerID); found {
		n.emit(ctx, userID, event.ComplaintID,
			fmt.Sprintf("You received a %d/5 rating.", payload.Score))
	}
	return nil
}

// emit persists the record and enqueues it. An enqueue failure leaves the row
// PENDING; the delivery worker's requeue sweep picks it up later.
func (n *NotificationService) emit(ctx context.Context, recipientID, complaintID, message string) {
	notification := &domain.Notification{
		RecipientID: recipientID,
		ComplaintID: complaintID,
		Message:     message,
		Status:      domain.NotificationPending,
	}
	if err := n.notifications.Create(ctx, notification); err != nil {
		n.logger.Warn("notification record not persisted",
			zap.String("complaint_id", complaintID), zap.Error(err))
		return
	}
	if err := n.notifier.Enqueue(ctx, *notification); err != nil {
		n.logger.Warn("notification enqueue deferred to requeue sweep",
			zap.String("notification_id", notification.ID), zap.Error(err))
	}
}

func (n *NotificationService) workerUser(ctx context.Context, workerID string) (string, bool) {
	worker, err := n.workers.GetByID(ctx, workerID)
	if err != nil {
		n.logger.Warn("worker lookup for notification failed",
			zap.String("worker_id", workerID), zap.Error(err))
		return "", false
	}
	return worker.UserID, true
}
