package service

import (
	"context"

	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/repository"
	apperrors "github.com/spec-kit/complaint-service/pkg/util"
)

// AssignmentResolver picks an eligible worker for a complaint. Selection is
// least-loaded first with seniority (earliest JoinedAt) as the tie-break.
type AssignmentResolver struct {
	workers   repository.WorkerRepository
	maxActive int
}

// NewAssignmentResolver constructs the resolver.
func NewAssignmentResolver(workers repository.WorkerRepository, maxActive int) *AssignmentResolver {
	if maxActive < 1 {
		maxActive = 1
	}
	return &AssignmentResolver{workers: workers, maxActive: maxActive}
}

// Resolve returns the team's eligible worker for the category, or
// NoEligibleWorker when no AVAILABLE worker has spare capacity. The category
// parameter is part of the contract for category-based routing; selection is
// currently load-based only.
//
// The resolver's capacity view is advisory. The engine revalidates it inside
// the assignment transaction, so two racing resolves cannot overload a worker.
func (r *AssignmentResolver) Resolve(ctx context.Context, teamID, categoryID string) (*domain.TeamWorker, error) {
	candidates, err := r.workers.ListAvailable(ctx, teamID)
	if err != nil {
		return nil, apperrors.NewDependencyUnavailable("store", err)
	}

	var best *domain.TeamWorker
	for i := range candidates {
		worker := &candidates[i]
		if worker.ActiveAssignments >= r.maxActive {
			continue
		}
		// Candidates arrive ordered by JoinedAt, so a strict comparison keeps
		// the most senior worker among equals.
		if best == nil || worker.ActiveAssignments < best.ActiveAssignments {
			best = worker
		}
	}
	if best == nil {
		return nil, apperrors.NewNoEligibleWorker(teamID)
	}
	return best, nil
}
