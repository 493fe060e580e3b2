/*
Package handler provides the HTTP handler function for WebSocket connection upgrading and initialization.

This file contains the HandleWebSocket function, which is responsible for rate limiting,
verifying the connection credential, upgrading the HTTP connection to WebSocket, and
initiating the client lifecycle.
*/
package handler

import (
	"net"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/userDoffy/Kura/internal/app/chat"
	"github.com/userDoffy/Kura/internal/pkg/errs"
	"github.com/userDoffy/Kura/internal/pkg/limiter"
	"github.com/userDoffy/Kura/internal/pkg/logx"
	"github.com/userDoffy/Kura/internal/pkg/resp"
)

// HandleWebSocket creates an HTTP HandlerFunc to process WebSocket connection requests.
// The credential is verified before the upgrade: a failed verification produces an
// error response and no session state of any kind.
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
			rateLimitErr := errs.NewError(errs.ErrRateLimitExceeded)
			resp.RespondError(w, r, rateLimitErr)
			return
		}

		// Browsers cannot set headers on WebSocket requests, so the
		// credential travels in the query string.
		credential := r.URL.Query().Get("token")

		userID, customErr := deps.Verifier.Verify(r.Context(), credential)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		logx.Info("Attempting to upgrade connection", "user_id", userID)

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logx.Error(err, "Failed to upgrade connection to WebSocket")
			return
		}

		client := chat.NewClient(deps.Hub, conn, userID)

		go client.WritePump()

		deps.Hub.Connect(client)

		logx.Info("WebSocket connection established and client registered", "user_id", userID, "conn_id", client.ID())

		client.ReadPump()
	}
}
