package model

import "time"

// NotificationType tags the kind of a real-time notification.
type NotificationType string

const (
	NotificationTipReceived NotificationType = "TIP_RECEIVED"
	NotificationSystem      NotificationType = "SYSTEM"
)

// Notification is a transient event delivered over WebSocket.
// Notifications are not persisted; a recipient with no live session
// never sees the event.
type Notification struct {
	ID        string           `json:"id"`
	Type      NotificationType `json:"type"`
	Data      interface{}      `json:"data,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
}
