package events

import (
	"time"

	"github.com/spec-kit/complaint-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventComplaintAssigned      EventType = "complaint_assigned"
	EventComplaintStatusChanged EventType = "complaint_status_changed"
	EventComplaintEscalated     EventType = "complaint_escalated"
	EventComplaintRated         EventType = "complaint_rated"
)

// Event represents a domain event emitted after a committed transition.
type Event struct {
	ID          string       `json:"id"`
	Type        EventType    `json:"type"`
	ComplaintID string       `json:"complaint_id"`
	Actor       domain.Actor `json:"actor"`
	Timestamp   time.Time    `json:"timestamp"`
	Payload     interface{}  `json:"payload"`
}

// ComplaintAssignedPayload payload.
type ComplaintAssignedPayload struct {
	WorkerID   string `json:"worker_id"`
	ReporterID string `json:"reporter_id"`
	TeamID     string `json:"team_id"`
}

// ComplaintStatusChangedPayload payload.
type ComplaintStatusChangedPayload struct {
	OldStatus  domain.ComplaintStatus `json:"old_status"`
	NewStatus  domain.ComplaintStatus `json:"new_status"`
	ReporterID string                 `json:"reporter_id"`
	Comment    string                 `json:"comment,omitempty"`
}

// ComplaintEscalatedPayload payload.
type ComplaintEscalatedPayload struct {
	OldStatus  domain.ComplaintStatus `json:"old_status"`
	NewStatus  domain.ComplaintStatus `json:"new_status"`
	ReporterID string                 `json:"reporter_id"`
	AssigneeID *string                `json:"assignee_id,omitempty"`
}

// ComplaintRatedPayload payload.
type ComplaintRatedPayload struct {
	RatingID string `json:"rating_id"`
	WorkerID string `json:"worker_id"`
	Score    int    `json:"score"`
}
