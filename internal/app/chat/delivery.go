/*
Package chat contains the core logic for real-time presence tracking and direct
message delivery over live WebSocket connections.

This file defines the Delivery service: it accepts a new direct message, persists it,
and then attempts a best-effort push to the recipient's live connection. The store is
the source of truth; the push is a latency optimization only.
*/
package chat

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"sidechat/internal/app/store"
	"sidechat/internal/pkg/errs"
	"sidechat/internal/pkg/logx"
)

// MaxTextBytes is the maximum allowed size of a message's text payload.
const MaxTextBytes = 5000

// AssetURLFunc resolves a storage key to a public URL for client consumption.
type AssetURLFunc func(key string) string

// Delivery accepts message sends, persists them, and pushes them to online recipients.
type Delivery struct {
	store    store.Store
	registry *Registry

	// assetURL resolves image storage keys for pushed payloads.
	assetURL AssetURLFunc

	logger zerolog.Logger
}

// NewDelivery constructs the message delivery service. assetURL may be nil, in which
// case image keys are pushed as-is.
func NewDelivery(st store.Store, registry *Registry, assetURL AssetURLFunc) *Delivery {
	if assetURL == nil {
		assetURL = func(key string) string { return key }
	}

	return &Delivery{
		store:    st,
		registry: registry,
		assetURL: assetURL,
		logger:   logx.Logger().With().Str("component", "Delivery").Logger(),
	}
}

// Send validates and persists one direct message, then attempts an immediate push to
// the recipient's connection. Success is defined solely by successful persistence:
// an offline recipient or failed push is expected steady-state behavior, and the
// recipient retrieves the message from the store on its next fetch.
func (d *Delivery) Send(ctx context.Context, senderID, receiverID, text, imageKey string) (store.Message, *errs.CustomError) {
	if text == "" && imageKey == "" {
		return store.Message{}, errs.NewError(errs.ErrEmptyMessage)
	}

	if len(text) > MaxTextBytes {
		return store.Message{}, errs.NewError(errs.ErrMessageContentTooLong)
	}

	if _, err := d.store.GetUserByID(ctx, receiverID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.Message{}, errs.NewError(errs.ErrRecipientNotFound)
		}
		d.logger.Error().Err(err).Str("receiver_id", receiverID).Msg("Recipient lookup failed.")
		return store.Message{}, errs.NewError(errs.ErrMessageStoreFailed)
	}

	// Persist first. The push below notifies about an already-durable fact and is
	// never the sole record of the message.
	msg, err := d.store.CreateMessage(ctx, senderID, receiverID, text, imageKey)
	if err != nil {
		d.logger.Error().Err(err).
			Str("sender_id", senderID).
			Str("receiver_id", receiverID).
			Msg("Failed to persist message.")
		return store.Message{}, errs.NewError(errs.ErrMessageStoreFailed)
	}

	d.pushMessage(msg)

	return msg, nil
}

// pushMessage performs the best-effort push of a persisted message to the recipient.
func (d *Delivery) pushMessage(msg store.Message) {
	payload := MessagePayload{
		ID:         msg.ID,
		SenderID:   msg.SenderID,
		ReceiverID: msg.ReceiverID,
		Text:       msg.Text,
		CreatedAt:  msg.CreatedAt,
	}
	if msg.ImageKey != "" {
		payload.Image = d.assetURL(msg.ImageKey)
	}

	event, err := NewEvent(EventMessage, payload)
	if err != nil {
		d.logger.Error().Err(err).Str("message_id", msg.ID).Msg("Failed to marshal message event.")
		return
	}

	if !d.registry.PushTo(msg.ReceiverID, event) {
		d.logger.Debug().
			Str("message_id", msg.ID).
			Str("receiver_id", msg.ReceiverID).
			Msg("Recipient has no live connection, message waits in store.")
	}
}

// Conversation returns every message exchanged between the two users, both
// directions, ordered by creation time ascending.
func (d *Delivery) Conversation(ctx context.Context, userA, userB string) ([]store.Message, *errs.CustomError) {
	messages, err := d.store.ListConversation(ctx, userA, userB)
	if err != nil {
		d.logger.Error().Err(err).Msg("Failed to read conversation.")
		return nil, errs.NewError(errs.ErrMessageStoreFailed)
	}
	return messages, nil
}
