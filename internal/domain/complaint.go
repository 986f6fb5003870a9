package domain

import "time"

// ComplaintStatus enumerates lifecycle states for complaints.
type ComplaintStatus string

const (
	StatusWaitingAssignment ComplaintStatus = "WAITING_ASSIGNMENT"
	StatusAssigned          ComplaintStatus = "ASSIGNED"
	StatusInProgress        ComplaintStatus = "IN_PROGRESS"
	StatusResolved          ComplaintStatus = "RESOLVED"
	StatusClosed            ComplaintStatus = "CLOSED"
	StatusEscalatedLevel1   ComplaintStatus = "ESCALATED_LEVEL_1"
	StatusEscalatedLevel2   ComplaintStatus = "ESCALATED_LEVEL_2"

	// StatusUnknown marks values outside the closed set. Unrecognized input is
	// mapped here explicitly rather than coerced, so data-model drift surfaces.
	StatusUnknown ComplaintStatus = "UNKNOWN"
)

// ParseStatus maps raw input to a member of the closed status set.
func ParseStatus(raw string) ComplaintStatus {
	switch ComplaintStatus(raw) {
	case StatusWaitingAssignment, StatusAssigned, StatusInProgress,
		StatusResolved, StatusClosed, StatusEscalatedLevel1, StatusEscalatedLevel2:
		return ComplaintStatus(raw)
	default:
		return StatusUnknown
	}
}

// IsTerminal reports whether no further transition is possible.
func (s ComplaintStatus) IsTerminal() bool {
	return s == StatusClosed
}

// Complaint is the aggregate tracked through the status lifecycle.
type Complaint struct {
	ID                 string
	CategoryID         string
	ReporterID         string
	TeamID             string
	AssigneeID         *string
	Status             ComplaintStatus
	Version            int64
	CreatedAt          time.Time
	UpdatedAt          time.Time
	LastStatusChangeAt time.Time
}
