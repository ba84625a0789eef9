/*
Package chat contains the core logic for real-time presence tracking and direct
message delivery over live WebSocket connections.

This file defines the wire-level event envelope pushed to connected clients.
*/
package chat

import (
	"encoding/json"
	"time"
)

// EventType identifies the kind of event pushed over a connection.
type EventType string

const (
	// EventPresence carries the full snapshot of currently online user ids.
	EventPresence EventType = "presence"

	// EventMessage carries one direct message addressed to the connection's user.
	EventMessage EventType = "message"
)

// Event is the JSON envelope for everything the server pushes over a WebSocket.
type Event struct {
	Type    EventType `json:"type"`
	Payload any       `json:"payload"`
}

// PresencePayload is the payload of an EventPresence event.
type PresencePayload struct {
	OnlineUserIDs []string `json:"onlineUserIds"`
}

// MessagePayload is the payload of an EventMessage event. It mirrors the persisted
// message record; Image is a resolved public URL, not a raw storage key.
type MessagePayload struct {
	ID         string    `json:"id"`
	SenderID   string    `json:"senderId"`
	ReceiverID string    `json:"receiverId"`
	Text       string    `json:"text,omitempty"`
	Image      string    `json:"image,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// NewEvent marshals an event envelope with the given type and payload.
func NewEvent(eventType EventType, payload any) ([]byte, error) {
	return json.Marshal(Event{
		Type:    eventType,
		Payload: payload,
	})
}
