package domain

import "time"

// ActorType indicates who drove a status change.
type ActorType string

const (
	ActorTypeUser   ActorType = "USER"
	ActorTypeWorker ActorType = "WORKER"
	ActorTypeSystem ActorType = "SYSTEM"
)

// Actor identifies the caller of an engine operation.
type Actor struct {
	Type ActorType
	ID   *string
}

// SystemActor is the identity used for scheduler-driven transitions.
func SystemActor() Actor {
	return Actor{Type: ActorTypeSystem}
}

// UserActor builds an actor for an end-user identity.
func UserActor(id string) Actor {
	return Actor{Type: ActorTypeUser, ID: &id}
}

// WorkerActor builds an actor for a team-worker identity.
func WorkerActor(id string) Actor {
	return Actor{Type: ActorTypeWorker, ID: &id}
}

// ComplaintLog is an immutable audit entry. The ordered sequence of entries for
// a complaint reconstructs its full status history.
type ComplaintLog struct {
	ID          string
	ComplaintID string
	Status      ComplaintStatus
	ActorType   ActorType
	ActorID     *string
	Comment     *string
	CreatedAt   time.Time
}
