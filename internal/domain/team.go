package domain

import "time"

// Team is the routing target for complaints; workers belong to exactly one team.
type Team struct {
	ID          string
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
