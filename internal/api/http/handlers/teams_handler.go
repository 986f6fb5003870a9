package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/complaint-service/internal/api/dto"
	"github.com/spec-kit/complaint-service/internal/auth"
	"github.com/spec-kit/complaint-service/internal/repository"
	apperrors "github.com/spec-kit/complaint-service/pkg/util"
)

// TeamsHandler serves team worker availability.
type TeamsHandler struct {
	teams   repository.TeamRepository
	workers repository.WorkerRepository
}

// NewTeamsHandler constructs the handler.
func NewTeamsHandler(teams repository.TeamRepository, workers repository.WorkerRepository) *TeamsHandler {
	return &TeamsHandler{teams: teams, workers: workers}
}

// ListWorkers GET /teams/:id/workers.
func (h *TeamsHandler) ListWorkers(c *fiber.Ctx) error {
	if _, ok := auth.ActorFromContext(c); !ok {
		return apperrors.NewUnauthorized("actor required")
	}
	teamID := c.Params("id")
	if _, err := h.teams.GetByID(c.UserContext(), teamID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("team", map[string]any{"team_id": teamID})
		}
		return apperrors.MapError(err)
	}

	workers, err := h.workers.ListAvailable(c.UserContext(), teamID)
	if err != nil {
		return apperrors.MapError(err)
	}
	items := make([]dto.WorkerResponse, 0, len(workers))
	for _, worker := range workers {
		items = append(items, dto.WorkerResponse{
			ID:                worker.ID,
			UserID:            worker.UserID,
			TeamID:            worker.TeamID,
			Status:            worker.Status,
			JoinedAt:          worker.JoinedAt,
			ActiveAssignments: worker.ActiveAssignments,
		})
	}
	return c.JSON(dto.OK("team workers", items))
}
