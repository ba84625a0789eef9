/*
Package chat contains the core logic for real-time presence tracking and direct
message delivery over live WebSocket connections.

This file defines the Client struct, representing an active WebSocket connection.
It manages the connection's lifecycle and its read/write loops (ReadPump and WritePump).
*/
package chat

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"sidechat/internal/app/user"
	"sidechat/internal/pkg/logx"
)

const (
	// timeout duration for writing to the WebSocket connection.
	writeWait = 10 * time.Second

	// maximum time allowed for the server to wait for a Pong message from the client.
	pongWait = 60 * time.Second

	// frequency at which the server sends a Ping message.
	pingPeriod = (pongWait * 9) / 10

	// maximum allowed size (in bytes) of a frame sent by the client.
	maxMessageSize = 1024

	// capacity of the per-connection outbound queue. A client that cannot drain
	// this queue is considered stale and gets unregistered.
	sendQueueSize = 256
)

// Client represents one live WebSocket connection bound to an authenticated user.
// A Client is the connection handle stored in the Registry; a user reconnecting
// produces a new Client, and the old one becomes stale.
type Client struct {
	// the registry this connection registers with on connect.
	registry *Registry

	// underlying WebSocket connection object.
	conn *websocket.Conn

	// identity of the authenticated user, resolved before the upgrade.
	user user.User

	// a buffered channel used to queue events waiting to be sent to the client.
	send chan []byte

	// closeOnce guards the send channel against double close.
	closeOnce sync.Once

	// structured logger with client context.
	logger zerolog.Logger
}

// NewClient constructs and returns a new Client instance.
func NewClient(registry *Registry, wsConn *websocket.Conn, u user.User) *Client {
	clientLogger := logx.Logger().With().
		Str("user_id", u.ID).
		Logger()

	return &Client{
		registry: registry,
		conn:     wsConn,
		user:     u,
		send:     make(chan []byte, sendQueueSize),
		logger:   clientLogger,
	}
}

// UserID returns the id of the user this connection belongs to.
func (c *Client) UserID() string {
	return c.user.ID
}

// ReadPump reads from the WebSocket connection until it closes.
// Clients do not send chat data over the socket (messages go through the HTTP API);
// the read loop exists to service pongs and to detect disconnects.
// On exit it unconditionally attempts to unregister this handle.
func (c *Client) ReadPump() {
	defer c.cleanupOnDisconnect()

	c.conn.SetReadLimit(maxMessageSize)

	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set read deadline")
		return
	}

	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Info().Err(err).Msg("Error reading from connection (client close/going away)")
			}
			break
		}

		// Inbound frames carry no meaning; log and drop.
		c.logger.Debug().Int("bytes", len(payload)).Msg("Ignoring inbound WebSocket frame")
	}
}

// cleanupOnDisconnect handles the necessary cleanup steps when the client's ReadPump terminates.
// Unregister is handle-based: if this connection was already replaced by a newer one
// for the same user, the call is a no-op and the newer connection stays registered.
func (c *Client) cleanupOnDisconnect() {
	c.logger.Info().Msg("Client connection cleanup starting.")

	c.registry.Unregister(c)

	if err := c.conn.Close(); err != nil {
		c.logger.Debug().Err(err).Msg("Client connection close error")
	}
}

// WritePump writes events from the Client.send channel to the WebSocket connection
// and keeps the connection alive with periodic pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()

		if err := c.conn.Close(); err != nil {
			c.logger.Debug().Err(err).Msg("Client connection close error in WritePump")
		}
	}()

	for {
		select {
		case event, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.logger.Error().Err(err).Msg("Failed to set write deadline")
				return
			}

			if !ok {
				// Registry closed the queue: the handle was unregistered or replaced.
				if err := c.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
					c.logger.Debug().Err(err).Msg("Error writing close message")
				}
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, event); err != nil {
				c.logger.Info().Err(err).Msg("Error writing event")
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.logger.Error().Err(err).Msg("Failed to set write deadline on ping")
				return
			}

			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.Info().Err(err).Msg("Error writing ping")
				return
			}
		}
	}
}

// enqueue attempts a non-blocking push of one marshaled event onto the outbound queue.
// It returns false when the queue is full, which the registry treats as a stale connection.
func (c *Client) enqueue(event []byte) bool {
	select {
	case c.send <- event:
		return true
	default:
		c.logger.Warn().Int("queue_len", len(c.send)).Msg("Client send queue full, dropping event")
		return false
	}
}

// closeSend closes the outbound queue exactly once, terminating WritePump.
func (c *Client) closeSend() {
	c.closeOnce.Do(func() {
		close(c.send)
	})
}
