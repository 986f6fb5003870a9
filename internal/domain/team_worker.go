package domain

import "time"

// WorkerStatus enumerates availability states for team workers.
type WorkerStatus string

const (
	WorkerAvailable WorkerStatus = "AVAILABLE"
	WorkerBusy      WorkerStatus = "BUSY"
	WorkerOffline   WorkerStatus = "OFFLINE"
)

// TeamWorker models a user authorized to handle complaints for one team.
type TeamWorker struct {
	ID       string
	UserID   string
	TeamID   string
	Status   WorkerStatus
	JoinedAt time.Time

	// ActiveAssignments is the count of non-terminal complaints currently
	// assigned to the worker, populated on load.
	ActiveAssignments int
}
