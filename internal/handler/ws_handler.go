/*
Package handler provides the HTTP handlers and routing setup for the chat server.

This file contains the WebSocket upgrade handler. The connect handshake resolves
the authenticated identity, upgrades the connection, and immediately registers the
new connection handle with the presence registry.
*/
package handler

import (
	"net"
	"net/http"

	"github.com/gorilla/websocket"

	"sidechat/internal/app/chat"
	"sidechat/internal/app/user"
	"sidechat/internal/pkg/auth/jwt"
	"sidechat/internal/pkg/errs"
	"sidechat/internal/pkg/limiter"
	"sidechat/internal/pkg/logx"
	"sidechat/internal/pkg/resp"
)

// HandleWebSocket creates an HTTP HandlerFunc to process WebSocket connection requests.
// The session token is taken from the "token" query parameter, falling back to the
// Authorization header or session cookie.
func HandleWebSocket(upgrader websocket.Upgrader, rateLimiter *limiter.IPRateLimiter, deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}

		if ip == "" {
			ip = "unknown_ip"
		}

		if !rateLimiter.GetLimiter(ip).Allow() {
			logx.Warn("WebSocket connection rejected: Rate limit exceeded.", "ip", ip)
			resp.RespondError(w, r, errs.NewError(errs.ErrRateLimitExceeded))
			return
		}

		tokenString := r.URL.Query().Get("token")
		if tokenString == "" {
			tokenString = jwt.TokenFromRequest(r)
		}

		if tokenString == "" {
			logx.Warn("WebSocket request rejected: Missing session token")
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		payload, err := jwt.ParseToken(tokenString, deps.Config.JWTSecret)
		if err != nil {
			logx.Warn("WebSocket request rejected: Invalid session token", "error", err)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		dbUser, err := deps.Store.GetUserByID(r.Context(), payload.ID)
		if err != nil {
			logx.Warn("WebSocket request rejected: Unknown user", "user_id", payload.ID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		currentUser := user.User{
			ID:       dbUser.ID,
			FullName: dbUser.FullName,
			Avatar:   deps.FullAssetURL(dbUser.AvatarKey),
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logx.Error(err, "Failed to upgrade connection to WebSocket")
			return
		}

		client := chat.NewClient(deps.Registry, conn, currentUser)

		go client.WritePump()

		deps.Registry.Register(client)

		logx.Info("WebSocket connection established and registered", "user_id", currentUser.ID)

		client.ReadPump()
	}
}
