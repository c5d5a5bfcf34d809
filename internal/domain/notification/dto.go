package notification

import (
	"fmt"
	"time"
)

// Real-time event types pushed over the websocket channel.
const (
	EventNotification         = "notification"
	EventNotificationRead     = "notification_read"
	EventNotificationsReadAll = "notifications_read_all"
)

// Event is the envelope written to live connections.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// NotificationResponse for API responses and push payloads
type NotificationResponse struct {
	ID          int64   `json:"id"`
	RecipientID int64   `json:"recipient_id"`
	Kind        string  `json:"kind"`
	Category    string  `json:"category"`
	Target      Target  `json:"target"`
	Link        string  `json:"link,omitempty"`
	Title       string  `json:"title"`
	Body        string  `json:"body"`
	IsRead      bool    `json:"is_read"`
	ReadAt      *string `json:"read_at,omitempty"`
	CreatedAt   string  `json:"created_at"`
}

// NotificationResponseFromEntity converts entity to response DTO
func NotificationResponseFromEntity(n *Notification) *NotificationResponse {
	resp := &NotificationResponse{
		ID:          n.ID,
		RecipientID: n.RecipientID,
		Kind:        string(n.Kind),
		Category:    categoryFor(n.Kind),
		Target:      n.Target,
		Link:        linkFor(n.Target),
		Title:       n.Title,
		Body:        n.Body,
		IsRead:      n.Read,
		CreatedAt:   n.CreatedAt.Format(time.RFC3339),
	}

	if n.ReadAt != nil {
		readAt := n.ReadAt.Format(time.RFC3339)
		resp.ReadAt = &readAt
	}

	return resp
}

// BuildEvent wraps a notification for the real-time channel.
func BuildEvent(n *Notification) Event {
	return Event{Type: EventNotification, Payload: NotificationResponseFromEntity(n)}
}

func readEvent(id int64) Event {
	return Event{Type: EventNotificationRead, Payload: map[string]any{"id": id, "is_read": true}}
}

func readAllEvent(count int64) Event {
	return Event{Type: EventNotificationsReadAll, Payload: map[string]any{"count": count}}
}

// categoryFor groups kinds for client-side filtering and icons.
func categoryFor(k Kind) string {
	switch k {
	case KindSavedSearchMatch:
		return "search"
	case KindAppointmentRequest,
		KindAppointmentConfirmed,
		KindAppointmentRejected,
		KindAppointmentCancelled,
		KindAppointmentReminder:
		return "appointment"
	case KindListingExpiringSoon, KindListingExpired:
		return "listing"
	}
	return "other"
}

func linkFor(t Target) string {
	switch t.Type() {
	case TargetListing:
		return fmt.Sprintf("/listings/%d", t.ID())
	case TargetSavedSearch:
		return fmt.Sprintf("/saved-searches/%d", t.ID())
	case TargetAppointment:
		return fmt.Sprintf("/appointments/%d", t.ID())
	case TargetNone:
		return ""
	}
	return ""
}

// NotificationListResponse for list endpoint
type NotificationListResponse struct {
	Notifications []*NotificationResponse `json:"notifications"`
	UnreadCount   int64                   `json:"unread_count"`
	Total         int64                   `json:"total"`
}

// UnreadCountResponse for unread count endpoint
type UnreadCountResponse struct {
	UnreadCount int64 `json:"unread_count"`
}
