package model

import "time"

// NotificationType classifies feed notifications.
type NotificationType string

const (
	NotificationDeal      NotificationType = "deal"
	NotificationMilestone NotificationType = "milestone"
	NotificationBattle    NotificationType = "battle"
	NotificationWinner    NotificationType = "winner"
)

// UnknownAgentName stands in for an agent that could not be resolved.
const UnknownAgentName = "Unknown agent"

// Notification is one entry of the outbound feed.
type Notification struct {
	ID        string           `json:"id"`
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	AgentID   string           `json:"agent_id,omitempty"`
	ContestID string           `json:"contest_id,omitempty"`
	IsRead    bool             `json:"is_read"`
	CreatedAt time.Time        `json:"created_at"`
}
