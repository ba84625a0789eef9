package chat

import (
	"encoding/json"
	"testing"
	"time"

	"sidechat/internal/app/user"
)

func newTestClient(reg *Registry, id string) *Client {
	return NewClient(reg, nil, user.User{ID: id, FullName: "User " + id})
}

// mustEvent drains the client's outbound queue until an event of the wanted type
// arrives, failing the test after a timeout.
func mustEvent(t *testing.T, c *Client, eventType EventType) json.RawMessage {
	t.Helper()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case raw, ok := <-c.send:
			if !ok {
				t.Fatalf("send queue closed while waiting for %q event", eventType)
			}

			var ev struct {
				Type    EventType       `json:"type"`
				Payload json.RawMessage `json:"payload"`
			}
			if err := json.Unmarshal(raw, &ev); err != nil {
				t.Fatalf("failed to decode event: %v", err)
			}

			if ev.Type == eventType {
				return ev.Payload
			}

		case <-deadline:
			t.Fatalf("expected %q event not received", eventType)
		}
	}
}

// mustPresence waits for the next presence event and returns its online user ids.
func mustPresence(t *testing.T, c *Client) []string {
	t.Helper()

	payload := mustEvent(t, c, EventPresence)

	var p PresencePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		t.Fatalf("failed to decode presence payload: %v", err)
	}
	return p.OnlineUserIDs
}

// mustMessage waits for the next message event and returns its payload.
func mustMessage(t *testing.T, c *Client) MessagePayload {
	t.Helper()

	payload := mustEvent(t, c, EventMessage)

	var m MessagePayload
	if err := json.Unmarshal(payload, &m); err != nil {
		t.Fatalf("failed to decode message payload: %v", err)
	}
	return m
}

// assertNoEvent verifies the client's outbound queue is empty. Registry pushes are
// synchronous, so queue state is deterministic by the time a mutation returns.
func assertNoEvent(t *testing.T, c *Client) {
	t.Helper()

	select {
	case raw := <-c.send:
		t.Fatalf("expected no queued event, got: %s", raw)
	default:
	}
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
