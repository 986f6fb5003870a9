package service

import (
	"context"
	"testing"
	"time"

	"github.com/spec-kit/complaint-service/internal/domain"
)

func TestResolvePicksLeastLoaded(t *testing.T) {
	f := newEngineFixture(testEngineConfig())
	base := f.clock.Now()
	f.addWorker("w1", "team-1", domain.WorkerAvailable, base)
	f.addWorker("w2", "team-1", domain.WorkerAvailable, base.Add(time.Hour))
	f.addComplaint("busy-1", "team-1", domain.StatusAssigned)
	f.assignDirect("busy-1", "w1")

	resolver := NewAssignmentResolver(&memWorkers{s: f.state}, 3)
	worker, err := resolver.Resolve(context.Background(), "team-1", "cat-1")
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if worker.ID != "w2" {
		t.Fatalf("expected least-loaded w2, got %s", worker.ID)
	}
}

func TestResolveTieBreaksOnSeniority(t *testing.T) {
	f := newEngineFixture(testEngineConfig())
	base := f.clock.Now()
	f.addWorker("junior", "team-1", domain.WorkerAvailable, base.Add(48*time.Hour))
	f.addWorker("senior", "team-1", domain.WorkerAvailable, base)
	f.addWorker("mid", "team-1", domain.WorkerAvailable, base.Add(24*time.Hour))

	resolver := NewAssignmentResolver(&memWorkers{s: f.state}, 3)
	worker, err := resolver.Resolve(context.Background(), "team-1", "cat-1")
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if worker.ID != "senior" {
		t.Fatalf("expected earliest-joined worker on tie, got %s", worker.ID)
	}
}

func TestResolveSkipsWorkersAtCapacity(t *testing.T) {
	f := newEngineFixture(testEngineConfig())
	base := f.clock.Now()
	f.addWorker("full", "team-1", domain.WorkerAvailable, base)
	f.addWorker("spare", "team-1", domain.WorkerAvailable, base.Add(time.Hour))
	f.addComplaint("busy-1", "team-1", domain.StatusAssigned)
	f.addComplaint("busy-2", "team-1", domain.StatusInProgress)
	f.assignDirect("busy-1", "full")
	f.assignDirect("busy-2", "full")

	resolver := NewAssignmentResolver(&memWorkers{s: f.state}, 2)
	worker, err := resolver.Resolve(context.Background(), "team-1", "cat-1")
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if worker.ID != "spare" {
		t.Fatalf("expected spare worker, got %s", worker.ID)
	}
}

func TestResolveIgnoresClosedAssignments(t *testing.T) {
	f := newEngineFixture(testEngineConfig())
	base := f.clock.Now()
	f.addWorker("w1", "team-1", domain.WorkerAvailable, base)
	f.addComplaint("done", "team-1", domain.StatusClosed)
	f.assignDirect("done", "w1")
	f.state.mu.Lock()
	f.state.complaints["done"].Status = domain.StatusClosed
	f.state.mu.Unlock()

	resolver := NewAssignmentResolver(&memWorkers{s: f.state}, 1)
	worker, err := resolver.Resolve(context.Background(), "team-1", "cat-1")
	if err != nil {
		t.Fatalf("closed assignments must not count toward capacity: %v", err)
	}
	if worker.ID != "w1" {
		t.Fatalf("expected w1, got %s", worker.ID)
	}
}

func TestResolveNoEligibleWorker(t *testing.T) {
	f := newEngineFixture(testEngineConfig())
	base := f.clock.Now()
	f.addWorker("offline", "team-1", domain.WorkerOffline, base)
	f.addWorker("busy", "team-1", domain.WorkerBusy, base)
	f.addWorker("other-team", "team-2", domain.WorkerAvailable, base)

	resolver := NewAssignmentResolver(&memWorkers{s: f.state}, 3)
	_, err := resolver.Resolve(context.Background(), "team-1", "cat-1")
	requireCode(t, err, "NO_ELIGIBLE_WORKER")
}

func TestResolveAllWorkersSaturated(t *testing.T) {
	f := newEngineFixture(testEngineConfig())
	f.addWorker("w1", "team-1", domain.WorkerAvailable, f.clock.Now())
	f.addComplaint("busy-1", "team-1", domain.StatusAssigned)
	f.assignDirect("busy-1", "w1")

	resolver := NewAssignmentResolver(&memWorkers{s: f.state}, 1)
	_, err := resolver.Resolve(context.Background(), "team-1", "cat-1")
	requireCode(t, err, "NO_ELIGIBLE_WORKER")
}
