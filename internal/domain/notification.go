package domain

import "time"

// NotificationStatus enumerates delivery states.
type NotificationStatus string

const (
	NotificationPending NotificationStatus = "PENDING"
	NotificationSent    NotificationStatus = "SENT"
	NotificationFailed  NotificationStatus = "FAILED"
)

// Notification is created by the engine as a transition side effect and owned
// by the notifier pipeline afterwards.
type Notification struct {
	ID          string
	RecipientID string
	ComplaintID string
	Message     string
	Status      NotificationStatus
	Attempts    int
	CreatedAt   time.Time
}
