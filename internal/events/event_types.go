package events

import (
	"time"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketOpened               EventType = "ticket_opened"
	EventTicketClosed               EventType = "ticket_closed"
	EventTicketReopened             EventType = "ticket_reopened"
	EventTicketDeleted              EventType = "ticket_deleted"
	EventAdminRoleAdded             EventType = "admin_role_added"
	EventAdminRoleRemoved           EventType = "admin_role_removed"
	EventTranscriptDeliveryDegraded EventType = "transcript_delivery_degraded"
)

// Event represents a lifecycle event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	GuildID   string      `json:"guild_id"`
	ChannelID string      `json:"channel_id,omitempty"`
	ActorID   string      `json:"actor_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketOpenedPayload payload.
type TicketOpenedPayload struct {
	OwnerID        string `json:"owner_id"`
	ChannelName    string `json:"channel_name"`
	SequenceNumber int    `json:"sequence_number"`
}

// TicketClosedPayload payload.
type TicketClosedPayload struct {
	OwnerID string `json:"owner_id"`
}

// TicketReopenedPayload payload.
type TicketReopenedPayload struct {
	OwnerID string `json:"owner_id"`
}

// TicketDeletedPayload payload.
type TicketDeletedPayload struct {
	OwnerID         string   `json:"owner_id"`
	TranscriptName  string   `json:"transcript_name"`
	DegradedTargets []string `json:"degraded_targets,omitempty"`
}

// AdminRoleChangedPayload payload for role add/remove.
type AdminRoleChangedPayload struct {
	RoleID string `json:"role_id"`
}

// TranscriptDeliveryDegradedPayload payload.
type TranscriptDeliveryDegradedPayload struct {
	TranscriptName string   `json:"transcript_name"`
	Targets        []string `json:"targets"`
}
