package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/complaint-service/internal/api/dto"
	"github.com/spec-kit/complaint-service/internal/auth"
	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/service"
	apperrors "github.com/spec-kit/complaint-service/pkg/util"
)

// ComplaintsHandler exposes the lifecycle engine operations.
type ComplaintsHandler struct {
	engine *service.LifecycleService
}

// NewComplaintsHandler constructs the handler.
func NewComplaintsHandler(engine *service.LifecycleService) *ComplaintsHandler {
	return &ComplaintsHandler{engine: engine}
}

// Assign POST /complaints/:id/assign.
func (h *ComplaintsHandler) Assign(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("actor required")
	}
	var req dto.AssignRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	var (
		complaint *domain.Complaint
		err       error
	)
	if req.WorkerID == nil || strings.TrimSpace(*req.WorkerID) == "" {
		complaint, err = h.engine.AutoAssign(c.UserContext(), c.Params("id"), actor)
	} else {
		complaint, err = h.engine.Assign(c.UserContext(), c.Params("id"), *req.WorkerID, actor)
	}
	if err != nil {
		return err
	}
	return c.JSON(dto.OK("complaint assigned", complaintResponse(complaint)))
}

// Advance POST /complaints/:id/advance.
func (h *ComplaintsHandler) Advance(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("actor required")
	}
	var req dto.AdvanceRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.ToStatus) == "" {
		return apperrors.NewValidationError("to_status required", nil)
	}

	complaint, err := h.engine.Advance(c.UserContext(), c.Params("id"),
		domain.ComplaintStatus(req.ToStatus), actor, req.Comment)
	if err != nil {
		return err
	}
	return c.JSON(dto.OK("complaint status updated", complaintResponse(complaint)))
}

// Rate POST /complaints/:id/rating.
func (h *ComplaintsHandler) Rate(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("actor required")
	}
	var req dto.RateRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.WorkerID) == "" {
		return apperrors.NewValidationError("worker_id required", nil)
	}

	rating, err := h.engine.Rate(c.UserContext(), c.Params("id"), req.WorkerID, req.Score, req.Feedback, actor)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(dto.OK("rating recorded", ratingResponse(rating)))
}

// Get GET /complaints/:id.
func (h *ComplaintsHandler) Get(c *fiber.Ctx) error {
	if _, ok := auth.ActorFromContext(c); !ok {
		return apperrors.NewUnauthorized("actor required")
	}
	complaint, logs, err := h.engine.GetComplaint(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(dto.OK("complaint", complaintDetail(complaint, logs)))
}

func complaintResponse(complaint *domain.Complaint) dto.ComplaintResponse {
	return dto.ComplaintResponse{
		ID:                 complaint.ID,
		CategoryID:         complaint.CategoryID,
		ReporterID:         complaint.ReporterID,
		TeamID:             complaint.TeamID,
		AssigneeID:         complaint.AssigneeID,
		Status:             complaint.Status,
		CreatedAt:          complaint.CreatedAt,
		UpdatedAt:          complaint.UpdatedAt,
		LastStatusChangeAt: complaint.LastStatusChangeAt,
	}
}

func complaintDetail(complaint *domain.Complaint, logs []domain.ComplaintLog) dto.ComplaintDetailResponse {
	entries := make([]dto.ComplaintLogResponse, 0, len(logs))
	for _, entry := range logs {
		entries = append(entries, dto.ComplaintLogResponse{
			ID:        entry.ID,
			Status:    entry.Status,
			ActorType: entry.ActorType,
			ActorID:   entry.ActorID,
			Comment:   entry.Comment,
			CreatedAt: entry.CreatedAt,
		})
	}
	return dto.ComplaintDetailResponse{
		Complaint: complaintResponse(complaint),
		Logs:      entries,
	}
}

func ratingResponse(rating *domain.Rating) dto.RatingResponse {
	return dto.RatingResponse{
		ID:          rating.ID,
		ComplaintID: rating.ComplaintID,
		WorkerID:    rating.WorkerID,
		Score:       rating.Score,
		Feedback:    rating.Feedback,
		CreatedAt:   rating.CreatedAt,
	}
}
