package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/complaint-service/internal/domain"
)

type memNotifications struct {
	mu      sync.Mutex
	created []domain.Notification
	seq     int
	failAll bool
}

func (r *memNotifications) Create(_ context.Context, notification *domain.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAll {
		return errors.New("store down")
	}
	r.seq++
	notification.ID = "n-" + strconv.Itoa(r.seq)
	r.created = append(r.created, *notification)
	return nil
}

func (r *memNotifications) UpdateDelivery(context.Context, string, domain.NotificationStatus, int) error {
	return nil
}

func (r *memNotifications) ListPending(context.Context, int) ([]domain.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Notification{}, r.created...), nil
}

type captureNotifier struct {
	mu       sync.Mutex
	enqueued []domain.Notification
	fail     bool
}

func (n *captureNotifier) Enqueue(_ context.Context, notification domain.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.fail {
		return errors.New("queue down")
	}
	n.enqueued = append(n.enqueued, notification)
	return nil
}

type notifyFixture struct {
	engine   *engineFixture
	repo     *memNotifications
	notifier *captureNotifier
}

func newNotifyFixture(t *testing.T) *notifyFixture {
	t.Helper()
	f := newEngineFixture(testEngineConfig())
	repo := &memNotifications{}
	notifier := &captureNotifier{}
	svc := NewNotificationService(f.engine.dispatcher, repo, &memWorkers{s: f.state}, notifier, zap.NewNop())
	svc.RegisterHandlers()
	return &notifyFixture{engine: f, repo: repo, notifier: notifier}
}

func TestAssignNotifiesReporterAndWorker(t *testing.T) {
	nf := newNotifyFixture(t)
	f := nf.engine
	f.addWorker("w1", "team-1", domain.WorkerAvailable, f.clock.Now())
	f.addComplaint("c1", "team-1", domain.StatusWaitingAssignment)

	if _, err := f.engine.Assign(context.Background(), "c1", "w1", domain.UserActor("admin")); err != nil {
		t.Fatalf("assign failed: %v", err)
	}

	if len(nf.repo.created) != 2 {
		t.Fatalf("expected 2 notification records, got %d", len(nf.repo.created))
	}
	recipients := map[string]bool{}
	for _, notification := range nf.repo.created {
		recipients[notification.RecipientID] = true
		if notification.ComplaintID != "c1" {
			t.Fatalf("wrong complaint on notification: %s", notification.ComplaintID)
		}
		if notification.Status != domain.NotificationPending {
			t.Fatalf("new record must be PENDING, got %s", notification.Status)
		}
	}
	if !recipients["reporter-1"] || !recipients["user-w1"] {
		t.Fatalf("expected reporter and worker user notified, got %v", recipients)
	}
	if len(nf.notifier.enqueued) != 2 {
		t.Fatalf("expected 2 enqueued notifications, got %d", len(nf.notifier.enqueued))
	}
}

func TestEscalationNotificationMentionsLevel(t *testing.T) {
	nf := newNotifyFixture(t)
	f := nf.engine
	f.addComplaint("c1", "team-1", domain.StatusInProgress)
	f.clock.Advance(25 * time.Hour)

	if err := f.engine.Escalate(context.Background(), "c1"); err != nil {
		t.Fatalf("escalate failed: %v", err)
	}

	if len(nf.repo.created) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(nf.repo.created))
	}
	message := nf.repo.created[0].Message
	if !strings.Contains(message, string(domain.StatusEscalatedLevel1)) {
		t.Fatalf("escalation message missing level: %q", message)
	}
	if nf.repo.created[0].RecipientID != "reporter-1" {
		t.Fatalf("expected reporter notified, got %s", nf.repo.created[0].RecipientID)
	}
}

func TestEnqueueFailureLeavesRecordPending(t *testing.T) {
	nf := newNotifyFixture(t)
	nf.notifier.fail = true
	f := nf.engine
	f.addComplaint("c1", "team-1", domain.StatusAssigned)

	if _, err := f.engine.Advance(context.Background(), "c1", domain.StatusInProgress, domain.WorkerActor("w1"), nil); err != nil {
		t.Fatalf("advance failed: %v", err)
	}

	// The record exists for the requeue sweep even though the enqueue failed,
	// and the transition itself committed.
	if len(nf.repo.created) != 1 {
		t.Fatalf("expected 1 persisted record, got %d", len(nf.repo.created))
	}
	if nf.repo.created[0].Status != domain.NotificationPending {
		t.Fatalf("expected PENDING record, got %s", nf.repo.created[0].Status)
	}
	if got := f.stored("c1").Status; got != domain.StatusInProgress {
		t.Fatalf("transition rolled back by notification failure: %s", got)
	}
}

func TestNotificationStoreOutageDoesNotBlockEngine(t *testing.T) {
	nf := newNotifyFixture(t)
	nf.repo.failAll = true
	f := nf.engine
	f.addComplaint("c1", "team-1", domain.StatusAssigned)

	if _, err := f.engine.Advance(context.Background(), "c1", domain.StatusInProgress, domain.WorkerActor("w1"), nil); err != nil {
		t.Fatalf("advance must succeed despite notification outage: %v", err)
	}
	if len(nf.notifier.enqueued) != 0 {
		t.Fatalf("nothing should be enqueued without a persisted record")
	}
}

func TestRatingNotifiesWorker(t *testing.T) {
	nf := newNotifyFixture(t)
	f := nf.engine
	f.addWorker("w1", "team-1", domain.WorkerAvailable, f.clock.Now())
	f.addComplaint("c1", "team-1", domain.StatusResolved)

	if _, err := f.engine.Rate(context.Background(), "c1", "w1", 4, nil, domain.UserActor("u1")); err != nil {
		t.Fatalf("rate failed: %v", err)
	}

	if len(nf.repo.created) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(nf.repo.created))
	}
	notification := nf.repo.created[0]
	if notification.RecipientID != "user-w1" {
		t.Fatalf("expected worker user notified, got %s", notification.RecipientID)
	}
	if !strings.Contains(notification.Message, "4/5") {
		t.Fatalf("rating message missing score: %q", notification.Message)
	}
}
