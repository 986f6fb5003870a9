package domain

import "time"

// Rating score bounds.
const (
	RatingScoreMin = 1
	RatingScoreMax = 5
)

// Rating captures post-resolution feedback. At most one rating exists per
// complaint.
type Rating struct {
	ID          string
	ComplaintID string
	WorkerID    string
	Score       int
	Feedback    *string
	CreatedAt   time.Time
}
