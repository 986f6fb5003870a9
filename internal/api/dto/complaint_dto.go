package dto

import (
	"time"

	"github.com/spec-kit/complaint-service/internal/domain"
)

// Envelope is the uniform response shape consumed by the presentation layer.
type Envelope struct {
	Message string `json:"message"`
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
}

// OK builds a success envelope.
func OK(message string, data any) Envelope {
	return Envelope{Message: message, Success: true, Data: data}
}

// AssignRequest payload. An absent worker_id requests auto-assignment.
type AssignRequest struct {
	WorkerID *string `json:"worker_id"`
}

// AdvanceRequest payload.
type AdvanceRequest struct {
	ToStatus string  `json:"to_status"`
	Comment  *string `json:"comment,omitempty"`
}

// RateRequest payload.
type RateRequest struct {
	WorkerID string  `json:"worker_id"`
	Score    int     `json:"score"`
	Feedback *string `json:"feedback,omitempty"`
}

// ComplaintResponse mirrors the persisted entity shape; presentation code keys
// off the status values verbatim.
type ComplaintResponse struct {
	ID                 string                 `json:"id"`
	CategoryID         string                 `json:"category_id"`
	ReporterID         string                 `json:"reporter_id"`
	TeamID             string                 `json:"team_id"`
	AssigneeID         *string                `json:"assignee_id"`
	Status             domain.ComplaintStatus `json:"status"`
	CreatedAt          time.Time              `json:"created_at"`
	UpdatedAt          time.Time              `json:"updated_at"`
	LastStatusChangeAt time.Time              `json:"last_status_change_at"`
}

// ComplaintLogResponse is one audit trail entry.
type ComplaintLogResponse struct {
	ID        string                 `json:"id"`
	Status    domain.ComplaintStatus `json:"status"`
	ActorType domain.ActorType       `json:"actor_type"`
	ActorID   *string                `json:"actor_id"`
	Comment   *string                `json:"comment"`
	CreatedAt time.Time              `json:"created_at"`
}

// ComplaintDetailResponse bundles a complaint with its status history.
type ComplaintDetailResponse struct {
	Complaint ComplaintResponse      `json:"complaint"`
	Logs      []ComplaintLogResponse `json:"logs"`
}

// RatingResponse payload.
type RatingResponse struct {
	ID          string    `json:"id"`
	ComplaintID string    `json:"complaint_id"`
	WorkerID    string    `json:"worker_id"`
	Score       int       `json:"score"`
	Feedback    *string   `json:"feedback"`
	CreatedAt   time.Time `json:"created_at"`
}

// WorkerResponse is the availability snapshot for a team worker.
type WorkerResponse struct {
	ID                string              `json:"id"`
	UserID            string              `json:"user_id"`
	TeamID            string              `json:"team_id"`
	Status            domain.WorkerStatus `json:"status"`
	JoinedAt          time.Time           `json:"joined_at"`
	ActiveAssignments int                 `json:"active_assignments"`
}
