package worker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/complaint-service/internal/config"
	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/repository"
	"github.com/spec-kit/complaint-service/internal/service"
)

// sweepStore is a minimal in-memory ComplaintRepository for sweep tests.
type sweepStore struct {
	mu         sync.Mutex
	complaints map[string]*domain.Complaint
	listGate   chan struct{} // when set, ListIdle blocks until the gate closes
}

func newSweepStore() *sweepStore {
	return &sweepStore{complaints: make(map[string]*domain.Complaint)}
}

func (s *sweepStore) add(id string, status domain.ComplaintStatus, lastChange time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.complaints[id] = &domain.Complaint{
		ID:                 id,
		CategoryID:         "cat-1",
		ReporterID:         "reporter-1",
		TeamID:             "team-1",
		Status:             status,
		Version:            1,
		LastStatusChangeAt: lastChange,
	}
}

func (s *sweepStore) status(id string) domain.ComplaintStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.complaints[id].Status
}

func (s *sweepStore) Create(_ context.Context, complaint *domain.Complaint) error {
	s.add(complaint.ID, complaint.Status, complaint.LastStatusChangeAt)
	return nil
}

func (s *sweepStore) GetByID(_ context.Context, id string) (*domain.Complaint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.complaints[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *stored
	return &clone, nil
}

func (s *sweepStore) SaveWithLog(_ context.Context, complaint *domain.Complaint, _ *domain.ComplaintLog, expectedVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.complaints[complaint.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	if stored.Version != expectedVersion {
		return repository.ErrVersionConflict
	}
	stored.Status = complaint.Status
	stored.LastStatusChangeAt = complaint.LastStatusChangeAt
	stored.Version = expectedVersion + 1
	complaint.Version = stored.Version
	return nil
}

func (s *sweepStore) AssignWithLog(ctx context.Context, complaint *domain.Complaint, entry *domain.ComplaintLog, expectedVersion int64, _ int) error {
	return s.SaveWithLog(ctx, complaint, entry, expectedVersion)
}

func (s *sweepStore) ListIdle(_ context.Context, statuses []domain.ComplaintStatus, olderThan time.Time) ([]domain.Complaint, error) {
	s.mu.Lock()
	gate := s.listGate
	s.mu.Unlock()
	if gate != nil {
		<-gate
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	allowed := make(map[domain.ComplaintStatus]bool, len(statuses))
	for _, status := range statuses {
		allowed[status] = true
	}
	var result []domain.Complaint
	for _, complaint := range s.complaints {
		if allowed[complaint.Status] && complaint.LastStatusChangeAt.Before(olderThan) {
			result = append(result, *complaint)
		}
	}
	return result, nil
}

type nopLogs struct{}

func (nopLogs) ListByComplaint(context.Context, string) ([]domain.ComplaintLog, error) {
	return nil, nil
}

func sweepEngineConfig() config.EngineConfig {
	return config.EngineConfig{
		MaxAssignmentsPerWorker:   3,
		EscalationLevel1Threshold: 24 * time.Hour,
		EscalationLevel2Threshold: 48 * time.Hour,
		SweepInterval:             time.Minute,
		ConflictRetryAttempts:     3,
	}
}

func newSweepFixture(store *sweepStore, now func() time.Time) *EscalationWorker {
	cfg := sweepEngineConfig()
	engine := service.NewLifecycleService(cfg, service.LifecycleDependencies{
		ComplaintRepo: store,
		LogRepo:       nopLogs{},
		Now:           now,
	})
	return NewEscalationWorker(store, engine, cfg, nil, now)
}

func TestSweepEscalatesIdleComplaints(t *testing.T) {
	base := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	now := func() time.Time { return base.Add(25 * time.Hour) }
	store := newSweepStore()
	store.add("stale-assigned", domain.StatusAssigned, base)
	store.add("stale-progress", domain.StatusInProgress, base)
	store.add("fresh", domain.StatusAssigned, base.Add(24*time.Hour))
	store.add("resolved", domain.StatusResolved, base)

	worker := newSweepFixture(store, now)
	attempted := worker.Sweep(context.Background())
	if attempted != 2 {
		t.Fatalf("expected 2 escalation attempts, got %d", attempted)
	}
	if got := store.status("stale-assigned"); got != domain.StatusEscalatedLevel1 {
		t.Fatalf("stale-assigned: expected ESCALATED_LEVEL_1, got %s", got)
	}
	if got := store.status("stale-progress"); got != domain.StatusEscalatedLevel1 {
		t.Fatalf("stale-progress: expected ESCALATED_LEVEL_1, got %s", got)
	}
	if got := store.status("fresh"); got != domain.StatusAssigned {
		t.Fatalf("fresh complaint escalated to %s", got)
	}
	if got := store.status("resolved"); got != domain.StatusResolved {
		t.Fatalf("resolved complaint escalated to %s", got)
	}
}

func TestSweepLevelTwoUsesOwnThreshold(t *testing.T) {
	base := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	now := func() time.Time { return base.Add(49 * time.Hour) }
	store := newSweepStore()
	store.add("old-l1", domain.StatusEscalatedLevel1, base)
	store.add("recent-l1", domain.StatusEscalatedLevel1, base.Add(25*time.Hour))

	worker := newSweepFixture(store, now)
	worker.Sweep(context.Background())

	if got := store.status("old-l1"); got != domain.StatusEscalatedLevel2 {
		t.Fatalf("old-l1: expected ESCALATED_LEVEL_2, got %s", got)
	}
	if got := store.status("recent-l1"); got != domain.StatusEscalatedLevel1 {
		t.Fatalf("recent-l1 escalated early to %s", got)
	}
}

func TestSweepSingleComplaintClimbsOneLevelPerPass(t *testing.T) {
	base := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	current := base.Add(72 * time.Hour)
	now := func() time.Time { return current }
	store := newSweepStore()
	store.add("c1", domain.StatusAssigned, base)

	worker := newSweepFixture(store, now)
	worker.Sweep(context.Background())
	if got := store.status("c1"); got != domain.StatusEscalatedLevel1 {
		t.Fatalf("first pass: expected ESCALATED_LEVEL_1, got %s", got)
	}

	// The first escalation reset the idle clock, so an immediate second pass
	// must not climb again.
	worker.Sweep(context.Background())
	if got := store.status("c1"); got != domain.StatusEscalatedLevel1 {
		t.Fatalf("second pass escalated early to %s", got)
	}

	current = current.Add(49 * time.Hour)
	worker.Sweep(context.Background())
	if got := store.status("c1"); got != domain.StatusEscalatedLevel2 {
		t.Fatalf("third pass: expected ESCALATED_LEVEL_2, got %s", got)
	}
}

func TestSweepSingleFlight(t *testing.T) {
	base := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	now := func() time.Time { return base.Add(25 * time.Hour) }
	store := newSweepStore()
	store.add("c1", domain.StatusAssigned, base)

	gate := make(chan struct{})
	store.mu.Lock()
	store.listGate = gate
	store.mu.Unlock()

	worker := newSweepFixture(store, now)

	firstDone := make(chan int, 1)
	go func() {
		firstDone <- worker.Sweep(context.Background())
	}()

	// Wait until the first sweep is parked inside ListIdle.
	deadline := time.After(2 * time.Second)
	for !worker.sweeping.Load() {
		select {
		case <-deadline:
			t.Fatal("first sweep never started")
		default:
			time.Sleep(time.Millisecond)
		}
	}

	if attempted := worker.Sweep(context.Background()); attempted != 0 {
		t.Fatalf("overlapping sweep must be skipped, attempted %d", attempted)
	}

	store.mu.Lock()
	store.listGate = nil
	store.mu.Unlock()
	close(gate)

	if attempted := <-firstDone; attempted != 1 {
		t.Fatalf("first sweep expected 1 attempt, got %d", attempted)
	}
	if got := store.status("c1"); got != domain.StatusEscalatedLevel1 {
		t.Fatalf("expected ESCALATED_LEVEL_1, got %s", got)
	}
}

func TestSweepStopsOnCancelledContext(t *testing.T) {
	base := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	now := func() time.Time { return base.Add(25 * time.Hour) }
	store := newSweepStore()
	store.add("c1", domain.StatusAssigned, base)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	worker := newSweepFixture(store, now)
	if attempted := worker.Sweep(ctx); attempted != 0 {
		t.Fatalf("cancelled sweep attempted %d escalations", attempted)
	}
	if got := store.status("c1"); got != domain.StatusAssigned {
		t.Fatalf("cancelled sweep escalated to %s", got)
	}
}
