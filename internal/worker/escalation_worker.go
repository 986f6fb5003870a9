package worker

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/complaint-service/internal/config"
	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/repository"
	"github.com/spec-kit/complaint-service/internal/service"
)

// EscalationWorker periodically sweeps for idle complaints and drives them
// through the engine's escalate operation. Sweeps are single-flight: a tick
// that fires while a sweep is still running is skipped.
type EscalationWorker struct {
	complaints repository.ComplaintRepository
	engine     *service.LifecycleService
	cfg        config.EngineConfig
	logger     *zap.Logger
	now        func() time.Time
	sweeping   atomic.Bool
}

// NewEscalationWorker constructs the worker.
func NewEscalationWorker(complaints repository.ComplaintRepository, engine *service.LifecycleService, cfg config.EngineConfig, logger *zap.Logger, now func() time.Time) *EscalationWorker {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EscalationWorker{
		complaints: complaints,
		engine:     engine,
		cfg:        cfg,
		logger:     logger,
		now:        now,
	}
}

// Run blocks, sweeping at the configured interval until ctx is cancelled.
func (w *EscalationWorker) Run(ctx context.Context) {
	interval := w.cfg.SweepInterval
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	w.logger.Info("escalation worker started", zap.Duration("interval", interval))
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("escalation worker stopped")
			return
		case <-ticker.C:
			w.Sweep(ctx)
		}
	}
}

// Sweep runs one escalation pass and returns the number of complaints it
// attempted to escalate. A concurrent sweep in progress makes this a no-op.
func (w *EscalationWorker) Sweep(ctx context.Context) int {
	if !w.sweeping.CompareAndSwap(false, true) {
		w.logger.Debug("sweep skipped: previous sweep still running")
		return 0
	}
	defer w.sweeping.Store(false)

	now := w.now()
	attempted := 0
	attempted += w.sweepLevel(ctx,
		[]domain.ComplaintStatus{domain.StatusAssigned, domain.StatusInProgress},
		now.Add(-w.cfg.EscalationLevel1Threshold))
	attempted += w.sweepLevel(ctx,
		[]domain.ComplaintStatus{domain.StatusEscalatedLevel1},
		now.Add(-w.cfg.EscalationLevel2Threshold))

	if attempted > 0 {
		w.logger.Info("escalation sweep complete", zap.Int("attempted", attempted))
	}
	return attempted
}

func (w *EscalationWorker) sweepLevel(ctx context.Context, statuses []domain.ComplaintStatus, cutoff time.Time) int {
	idle, err := w.complaints.ListIdle(ctx, statuses, cutoff)
	if err != nil {
		w.logger.Warn("idle complaint query failed", zap.Error(err))
		return 0
	}
	for i := range idle {
		if ctx.Err() != nil {
			return i
		}
		// Escalate re-validates eligibility; a complaint advanced since the
		// query is silently skipped.
		_ = w.engine.Escalate(ctx, idle[i].ID)
	}
	return len(idle)
}
