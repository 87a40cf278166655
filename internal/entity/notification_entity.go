package entity

import "time"

type NotificationSeverity string

const (
	SeveritySuccess NotificationSeverity = "success"
	SeverityInfo    NotificationSeverity = "info"
	SeverityWarning NotificationSeverity = "warning"
	SeverityError   NotificationSeverity = "error"
)

// Notification is a transient, user-facing message. It is never persisted.
type Notification struct {
	Id        string               `json:"id"`
	Severity  NotificationSeverity `json:"severity"`
	Message   string               `json:"message"`
	CreatedAt time.Time            `json:"created_at"`
}
