package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/complaint-service/internal/config"
	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/events"
	"github.com/spec-kit/complaint-service/internal/observability"
	"github.com/spec-kit/complaint-service/internal/repository"
	apperrors "github.com/spec-kit/complaint-service/pkg/util"
)

// allowedTransitions is the legal edge set of the complaint lifecycle.
var allowedTransitions = map[domain.ComplaintStatus][]domain.ComplaintStatus{
	domain.StatusWaitingAssignment: {domain.StatusAssigned},
	domain.StatusAssigned:          {domain.StatusInProgress, domain.StatusEscalatedLevel1},
	domain.StatusInProgress:        {domain.StatusResolved, domain.StatusEscalatedLevel1},
	domain.StatusEscalatedLevel1:   {domain.StatusInProgress, domain.StatusEscalatedLevel2},
	domain.StatusEscalatedLevel2:   {domain.StatusInProgress, domain.StatusClosed},
	domain.StatusResolved:          {domain.StatusClosed},
	domain.StatusClosed:            {},
}

func isValidTransition(current, next domain.ComplaintStatus) bool {
	for _, candidate := range allowedTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

// nextEscalation returns the escalation target for a status, or StatusUnknown
// when the status is not escalation-eligible.
func nextEscalation(current domain.ComplaintStatus) domain.ComplaintStatus {
	switch current {
	case domain.StatusAssigned, domain.StatusInProgress:
		return domain.StatusEscalatedLevel1
	case domain.StatusEscalatedLevel1:
		return domain.StatusEscalatedLevel2
	default:
		return domain.StatusUnknown
	}
}

// EscalationEligible lists statuses the idle sweep considers.
var EscalationEligible = []domain.ComplaintStatus{
	domain.StatusAssigned,
	domain.StatusInProgress,
	domain.StatusEscalatedLevel1,
}

// LifecycleService is the complaint state machine. It validates transitions,
// pairs every state change with an audit log append in one optimistic
// read-modify-write, and publishes events after commit.
type LifecycleService struct {
	complaints repository.ComplaintRepository
	logs       repository.ComplaintLogRepository
	workers    repository.WorkerRepository
	ratings    repository.RatingRepository
	resolver   *AssignmentResolver
	dispatcher events.Dispatcher
	logger     *zap.Logger
	metrics    *observability.Metrics
	cfg        config.EngineConfig
	now        func() time.Time
}

// LifecycleDependencies bundles collaborators for the engine.
type LifecycleDependencies struct {
	ComplaintRepo repository.ComplaintRepository
	LogRepo       repository.ComplaintLogRepository
	WorkerRepo    repository.WorkerRepository
	RatingRepo    repository.RatingRepository
	Resolver      *AssignmentResolver
	Dispatcher    events.Dispatcher
	Logger        *zap.Logger
	Metrics       *observability.Metrics
	Now           func() time.Time
}

// NewLifecycleService constructs the engine.
func NewLifecycleService(cfg config.EngineConfig, deps LifecycleDependencies) *LifecycleService {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LifecycleService{
		complaints: deps.ComplaintRepo,
		logs:       deps.LogRepo,
		workers:    deps.WorkerRepo,
		ratings:    deps.RatingRepo,
		resolver:   deps.Resolver,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		metrics:    deps.Metrics,
		cfg:        cfg,
		now:        now,
	}
}

// Assign moves a WAITING_ASSIGNMENT complaint to ASSIGNED for the given
// worker. Capacity is pre-checked for a fast failure and revalidated inside
// the transactional write.
func (s *LifecycleService) Assign(ctx context.Context, complaintID, workerID string, actor domain.Actor) (*domain.Complaint, error) {
	worker, err := s.workers.GetByID(ctx, workerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("worker", map[string]any{"worker_id": workerID})
		}
		return nil, apperrors.MapError(err)
	}
	if worker.Status != domain.WorkerAvailable || worker.ActiveAssignments >= s.cfg.MaxAssignmentsPerWorker {
		return nil, apperrors.NewWorkerUnavailable(workerID)
	}
	return s.assignTo(ctx, complaintID, worker, actor)
}

// AutoAssign picks an eligible worker via the resolver and assigns. The
// complaint stays WAITING_ASSIGNMENT when no worker qualifies.
func (s *LifecycleService) AutoAssign(ctx context.Context, complaintID string, actor domain.Actor) (*domain.Complaint, error) {
	complaint, err := s.getComplaint(ctx, complaintID)
	if err != nil {
		return nil, err
	}
	if complaint.Status != domain.StatusWaitingAssignment {
		return nil, apperrors.NewInvalidTransition(string(complaint.Status), string(domain.StatusAssigned))
	}
	worker, err := s.resolver.Resolve(ctx, complaint.TeamID, complaint.CategoryID)
	if err != nil {
		return nil, err
	}
	return s.assignTo(ctx, complaintID, worker, actor)
}

func (s *LifecycleService) assignTo(ctx context.Context, complaintID string, worker *domain.TeamWorker, actor domain.Actor) (*domain.Complaint, error) {
	for attempt := 0; attempt < s.retryAttempts(); attempt++ {
		complaint, err := s.getComplaint(ctx, complaintID)
		if err != nil {
			return nil, err
		}
		if complaint.Status != domain.StatusWaitingAssignment {
			return nil, apperrors.NewInvalidTransition(string(complaint.Status), string(domain.StatusAssigned))
		}

		workerID := worker.ID
		complaint.AssigneeID = &workerID
		complaint.Status = domain.StatusAssigned
		complaint.LastStatusChangeAt = s.now()
		entry := s.logEntry(complaint, actor, nil)

		err = s.complaints.AssignWithLog(ctx, complaint, entry, complaint.Version, s.cfg.MaxAssignmentsPerWorker)
		switch {
		case err == nil:
			s.afterCommit(ctx, events.Event{
				Type:        events.EventComplaintAssigned,
				ComplaintID: complaint.ID,
				Actor:       actor,
				Payload: events.ComplaintAssignedPayload{
					WorkerID:   worker.ID,
					ReporterID: complaint.ReporterID,
					TeamID:     complaint.TeamID,
				},
			})
			return complaint, nil
		case errors.Is(err, repository.ErrVersionConflict):
			s.noteConflict("assign")
			continue
		case errors.Is(err, repository.ErrWorkerCapacity):
			return nil, apperrors.NewWorkerUnavailable(worker.ID)
		case errors.Is(err, pgx.ErrNoRows):
			return nil, apperrors.NewNotFound("worker", map[string]any{"worker_id": worker.ID})
		default:
			return nil, apperrors.NewDependencyUnavailable("store", err)
		}
	}
	return nil, apperrors.NewConcurrencyConflict(complaintID)
}

// Advance applies a table-validated status transition. Every transition
// appends a log entry, comment or not.
func (s *LifecycleService) Advance(ctx context.Context, complaintID string, toStatus domain.ComplaintStatus, actor domain.Actor, comment *string) (*domain.Complaint, error) {
	if domain.ParseStatus(string(toStatus)) == domain.StatusUnknown {
		return nil, apperrors.NewValidationError("unknown target status", map[string]any{"to_status": string(toStatus)})
	}
	for attempt := 0; attempt < s.retryAttempts(); attempt++ {
		complaint, err := s.getComplaint(ctx, complaintID)
		if err != nil {
			return nil, err
		}
		if !isValidTransition(complaint.Status, toStatus) {
			return nil, apperrors.NewInvalidTransition(string(complaint.Status), string(toStatus))
		}

		oldStatus := complaint.Status
		complaint.Status = toStatus
		// Stamping last_status_change_at also resets the escalation timer,
		// which is what clears escalation state on RESOLVED.
		complaint.LastStatusChangeAt = s.now()
		entry := s.logEntry(complaint, actor, comment)

		err = s.complaints.SaveWithLog(ctx, complaint, entry, complaint.Version)
		switch {
		case err == nil:
			s.afterCommit(ctx, events.Event{
				Type:        events.EventComplaintStatusChanged,
				ComplaintID: complaint.ID,
				Actor:       actor,
				Payload: events.ComplaintStatusChangedPayload{
					OldStatus:  oldStatus,
					NewStatus:  toStatus,
					ReporterID: complaint.ReporterID,
					Comment:    derefOrEmpty(comment),
				},
			})
			return complaint, nil
		case errors.Is(err, repository.ErrVersionConflict):
			s.noteConflict("advance")
			continue
		default:
			return nil, apperrors.NewDependencyUnavailable("store", err)
		}
	}
	return nil, apperrors.NewConcurrencyConflict(complaintID)
}

// Escalate bumps an idle complaint one escalation level. It is the scheduler's
// entry point and is race-tolerant: a complaint advanced by a human between
// the sweep query and this call is a logged no-op, never an error.
func (s *LifecycleService) Escalate(ctx context.Context, complaintID string) error {
	actor := domain.SystemActor()
	for attempt := 0; attempt < s.retryAttempts(); attempt++ {
		complaint, err := s.getComplaint(ctx, complaintID)
		if err != nil {
			s.logger.Warn("escalation target unavailable",
				zap.String("complaint_id", complaintID), zap.Error(err))
			return nil
		}

		target := nextEscalation(complaint.Status)
		if target == domain.StatusUnknown {
			s.logger.Debug("escalation skipped: status not eligible",
				zap.String("complaint_id", complaintID),
				zap.String("status", string(complaint.Status)))
			return nil
		}
		if idle := s.now().Sub(complaint.LastStatusChangeAt); idle < s.thresholdFor(complaint.Status) {
			s.logger.Debug("escalation skipped: complaint no longer idle",
				zap.String("complaint_id", complaintID),
				zap.Duration("idle", idle))
			return nil
		}

		oldStatus := complaint.Status
		complaint.Status = target
		complaint.LastStatusChangeAt = s.now()
		entry := s.logEntry(complaint, actor, nil)

		err = s.complaints.SaveWithLog(ctx, complaint, entry, complaint.Version)
		switch {
		case err == nil:
			if s.metrics != nil {
				s.metrics.RecordEscalation(string(target))
			}
			s.afterCommit(ctx, events.Event{
				Type:        events.EventComplaintEscalated,
				ComplaintID: complaint.ID,
				Actor:       actor,
				Payload: events.ComplaintEscalatedPayload{
					OldStatus:  oldStatus,
					NewStatus:  target,
					ReporterID: complaint.ReporterID,
					AssigneeID: complaint.AssigneeID,
				},
			})
			return nil
		case errors.Is(err, repository.ErrVersionConflict):
			// A human raced the sweep; re-read and re-evaluate eligibility.
			s.noteConflict("escalate")
			continue
		default:
			s.logger.Warn("escalation write failed",
				zap.String("complaint_id", complaintID), zap.Error(err))
			return nil
		}
	}
	s.logger.Warn("escalation abandoned after repeated conflicts",
		zap.String("complaint_id", complaintID))
	return nil
}

// Rate records a 1-5 score against a resolved or closed complaint. A second
// rating is rejected, never overwritten.
func (s *LifecycleService) Rate(ctx context.Context, complaintID, workerID string, score int, feedback *string, actor domain.Actor) (*domain.Rating, error) {
	if score < domain.RatingScoreMin || score > domain.RatingScoreMax {
		return nil, apperrors.NewValidationError("score must be between 1 and 5", map[string]any{"score": score})
	}
	complaint, err := s.getComplaint(ctx, complaintID)
	if err != nil {
		return nil, err
	}
	if complaint.Status != domain.StatusResolved && complaint.Status != domain.StatusClosed {
		return nil, apperrors.NewInvalidState("complaint cannot be rated in current status",
			map[string]any{"status": string(complaint.Status)})
	}
	if _, err := s.ratings.GetByComplaint(ctx, complaintID); err == nil {
		return nil, apperrors.NewDuplicateRating(complaintID)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}

	rating := &domain.Rating{
		ComplaintID: complaintID,
		WorkerID:    workerID,
		Score:       score,
		Feedback:    feedback,
	}
	if err := s.ratings.Create(ctx, rating); err != nil {
		if errors.Is(err, repository.ErrRatingExists) {
			return nil, apperrors.NewDuplicateRating(complaintID)
		}
		return nil, apperrors.MapError(err)
	}

	s.afterCommit(ctx, events.Event{
		Type:        events.EventComplaintRated,
		ComplaintID: complaintID,
		Actor:       actor,
		Payload: events.ComplaintRatedPayload{
			RatingID: rating.ID,
			WorkerID: workerID,
			Score:    score,
		},
	})
	return rating, nil
}

// GetComplaint returns a complaint with its ordered status history.
func (s *LifecycleService) GetComplaint(ctx context.Context, complaintID string) (*domain.Complaint, []domain.ComplaintLog, error) {
	complaint, err := s.getComplaint(ctx, complaintID)
	if err != nil {
		return nil, nil, err
	}
	history, err := s.logs.ListByComplaint(ctx, complaintID)
	if err != nil {
		return nil, nil, apperrors.MapError(err)
	}
	return complaint, history, nil
}

func (s *LifecycleService) getComplaint(ctx context.Context, complaintID string) (*domain.Complaint, error) {
	complaint, err := s.complaints.GetByID(ctx, complaintID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("complaint", map[string]any{"complaint_id": complaintID})
		}
		return nil, apperrors.NewDependencyUnavailable("store", err)
	}
	return complaint, nil
}

func (s *LifecycleService) logEntry(complaint *domain.Complaint, actor domain.Actor, comment *string) *domain.ComplaintLog {
	return &domain.ComplaintLog{
		ComplaintID: complaint.ID,
		Status:      complaint.Status,
		ActorType:   actor.Type,
		ActorID:     actor.ID,
		Comment:     comment,
	}
}

// thresholdFor maps a status to the idle duration that makes it
// escalation-eligible.
func (s *LifecycleService) thresholdFor(status domain.ComplaintStatus) time.Duration {
	if status == domain.StatusEscalatedLevel1 {
		return s.cfg.EscalationLevel2Threshold
	}
	return s.cfg.EscalationLevel1Threshold
}

func (s *LifecycleService) retryAttempts() int {
	if s.cfg.ConflictRetryAttempts <= 0 {
		return 3
	}
	return s.cfg.ConflictRetryAttempts
}

func (s *LifecycleService) noteConflict(operation string) {
	if s.metrics != nil {
		s.metrics.RecordConflictRetry(operation)
	}
}

// afterCommit publishes the event once the transition is durable. Dispatch is
// best effort; the committed state change stands regardless.
func (s *LifecycleService) afterCommit(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func derefOrEmpty(val *string) string {
	if val == nil {
		return ""
	}
	return *val
}
