/*
Package handler provides the HTTP handlers and routing setup for the chat server.

This file contains the direct message send and conversation fetch handlers. Both
delegate to the chat.Delivery service: persistence defines success, and real-time
push is a best-effort follow-up invisible to the sender.
*/
package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"sidechat/internal/app/storage"
	"sidechat/internal/app/store"
	"sidechat/internal/pkg/auth/jwt"
	"sidechat/internal/pkg/errs"
	"sidechat/internal/pkg/randx"
	"sidechat/internal/pkg/req"
	"sidechat/internal/pkg/resp"
)

// messageJSON builds the client-facing representation of a persisted message.
func messageJSON(deps *AppDeps, m store.Message) map[string]any {
	out := map[string]any{
		"id":         m.ID,
		"senderId":   m.SenderID,
		"receiverId": m.ReceiverID,
		"createdAt":  m.CreatedAt.Format(time.RFC3339Nano),
	}
	if m.Text != "" {
		out["text"] = m.Text
	}
	if m.ImageKey != "" {
		out["image"] = deps.FullAssetURL(m.ImageKey)
	}
	return out
}

type SendMessageInput struct {
	Text     string `json:"text"`
	ImageKey string `json:"imageKey"`
}

// HandleSendMessage accepts one direct message addressed to the user in the URL.
// An attached image must already be uploaded through the presign flow.
func HandleSendMessage(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := jwt.GetPayloadFromContext(r)
		if identity == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		receiverID := chi.URLParam(r, "id")
		if _, err := uuid.Parse(receiverID); err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		var input SendMessageInput
		if customErr := req.BindJSON(w, r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if input.ImageKey != "" && !randx.IsValidAssetKey(input.ImageKey, storage.MessageImageKeyPrefix) {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		msg, customErr := deps.Delivery.Send(r.Context(), identity.ID, receiverID, input.Text, input.ImageKey)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		resp.RespondSuccess(w, r, map[string]any{
			"message": messageJSON(deps, msg),
		})
	}
}

// HandleGetConversation returns the full message history between the caller and
// the user in the URL, ordered by creation time ascending.
func HandleGetConversation(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := jwt.GetPayloadFromContext(r)
		if identity == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		otherID := chi.URLParam(r, "id")
		if _, err := uuid.Parse(otherID); err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		messages, customErr := deps.Delivery.Conversation(r.Context(), identity.ID, otherID)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		out := make([]map[string]any, 0, len(messages))
		for _, m := range messages {
			out = append(out, messageJSON(deps, m))
		}

		resp.RespondSuccess(w, r, map[string]any{
			"messages": out,
		})
	}
}
