/*
Package chat contains the core logic for real-time presence tracking and direct
message delivery over live WebSocket connections.

This file defines the Registry, the single process-wide mapping from authenticated
user id to live connection handle. Every mutation that changes the online set
broadcasts a fresh presence snapshot to all registered connections.
*/
package chat

import (
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"sidechat/internal/pkg/logx"
)

// Registry tracks which users are reachable for push delivery right now.
// At most one connection handle is registered per user id; a newer connection
// for the same user replaces the older entry (last connection wins).
//
// All mutations are serialized by a single mutex, and presence snapshots are
// computed under that mutex at mutation time, so every connected client observes
// presence updates in mutation order.
type Registry struct {
	// mu guards clients. Pushes happen while holding mu; they are non-blocking
	// channel sends, never network writes, so the critical section stays short.
	mu sync.Mutex

	// clients maps user id to the currently addressed connection handle.
	clients map[string]*Client

	// structured logger with Registry context.
	logger zerolog.Logger
}

// NewRegistry constructs an empty connection registry.
func NewRegistry() *Registry {
	return &Registry{
		clients: make(map[string]*Client),
		logger:  logx.Logger().With().Str("component", "Registry").Logger(),
	}
}

// Register inserts or replaces the connection handle for the client's user id and
// broadcasts the updated presence snapshot. A replaced handle is not closed here;
// it simply stops being addressed, and its own disconnect later becomes a no-op.
func (reg *Registry) Register(c *Client) {
	reg.mu.Lock()

	if old, ok := reg.clients[c.user.ID]; ok && old != c {
		reg.logger.Info().
			Str("user_id", c.user.ID).
			Msg("User already connected. Replacing registry entry with newer connection.")
	}

	reg.clients[c.user.ID] = c

	reg.logger.Info().
		Str("user_id", c.user.ID).
		Int("online", len(reg.clients)).
		Msg("Connection registered.")

	stale := reg.broadcastPresenceLocked()
	reg.mu.Unlock()

	reg.dropStale(stale)
}

// Unregister removes the mapping whose current handle equals c, closes the handle's
// outbound queue, and broadcasts the updated presence snapshot. If the user id is
// mapped to a different (newer) handle, or not mapped at all, the call is a no-op:
// a stale disconnect must never evict a live connection. It reports whether a
// mapping was actually removed.
func (reg *Registry) Unregister(c *Client) bool {
	reg.mu.Lock()

	current, ok := reg.clients[c.user.ID]
	if !ok || current != c {
		reg.mu.Unlock()

		if ok {
			reg.logger.Info().
				Str("user_id", c.user.ID).
				Msg("Ignoring unregister for stale connection.")
		}
		return false
	}

	delete(reg.clients, c.user.ID)
	c.closeSend()

	reg.logger.Info().
		Str("user_id", c.user.ID).
		Int("online", len(reg.clients)).
		Msg("Connection unregistered.")

	stale := reg.broadcastPresenceLocked()
	reg.mu.Unlock()

	reg.dropStale(stale)
	return true
}

// Lookup returns the currently registered connection handle for the user id,
// or nil when the user is offline.
func (reg *Registry) Lookup(userID string) *Client {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	return reg.clients[userID]
}

// OnlineUserIDs returns a sorted snapshot of the user ids with a live connection.
func (reg *Registry) OnlineUserIDs() []string {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	return reg.onlineUserIDsLocked()
}

func (reg *Registry) onlineUserIDsLocked() []string {
	ids := make([]string, 0, len(reg.clients))
	for id := range reg.clients {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// PushTo attempts to deliver one marshaled event to the user's registered connection.
// It reports whether the event was enqueued. A full queue marks the connection stale
// and unregisters it; an offline user is simply a miss, not an error.
func (reg *Registry) PushTo(userID string, event []byte) bool {
	reg.mu.Lock()

	c, ok := reg.clients[userID]
	if !ok {
		reg.mu.Unlock()
		return false
	}

	delivered := c.enqueue(event)
	reg.mu.Unlock()

	if !delivered {
		reg.Unregister(c)
	}
	return delivered
}

// broadcastPresenceLocked computes the post-mutation presence snapshot once and
// enqueues it on every registered connection. Callers must hold reg.mu. It returns
// the connections whose queues were full; the caller unregisters them after
// releasing the lock (push failures never propagate to the triggering operation).
func (reg *Registry) broadcastPresenceLocked() []*Client {
	event, err := NewEvent(EventPresence, PresencePayload{
		OnlineUserIDs: reg.onlineUserIDsLocked(),
	})
	if err != nil {
		reg.logger.Error().Err(err).Msg("Failed to marshal presence event, skipping broadcast.")
		return nil
	}

	var stale []*Client
	for _, c := range reg.clients {
		if !c.enqueue(event) {
			stale = append(stale, c)
		}
	}
	return stale
}

// dropStale unregisters connections that failed a presence push. Unregister
// re-checks handle identity, so a connection replaced in the meantime is left alone.
func (reg *Registry) dropStale(stale []*Client) {
	for _, c := range stale {
		reg.logger.Warn().
			Str("user_id", c.user.ID).
			Msg("Presence push failed, unregistering stale connection.")
		reg.Unregister(c)
	}
}

// Shutdown closes the outbound queue of every registered connection and empties
// the registry. No presence broadcast is sent; the server is going away.
func (reg *Registry) Shutdown() {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	for id, c := range reg.clients {
		c.closeSend()
		delete(reg.clients, id)
	}

	reg.logger.Info().Msg("Registry shutdown complete.")
}
