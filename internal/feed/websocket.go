package feed

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/coder/websocket"
	"github.com/ovasilenko/synchro/internal/session"
)

// WebSocketHandler upgrades dashboard connections and keeps them subscribed
// to the hub until the client disconnects.
type WebSocketHandler struct {
	hub           *Hub
	allowedOrigin string
	isDev         bool
}

// NewWebSocketHandler creates a new WebSocket handler.
func NewWebSocketHandler(hub *Hub, allowedOrigin string, isDev bool) *WebSocketHandler {
	return &WebSocketHandler{hub: hub, allowedOrigin: allowedOrigin, isDev: isDev}
}

// ServeHTTP implements http.Handler for the WebSocket upgrade.
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	deviceID := session.DeviceIDFromContext(r.Context())
	slog.Info("Feed connection request", "device_id", deviceID, "ip", r.RemoteAddr)

	if !h.checkOrigin(r) {
		http.Error(w, "origin not allowed", http.StatusForbidden)
		return
	}

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Error("Failed to accept WebSocket", "error", err, "device_id", deviceID)
		return
	}
	defer func() {
		if closeErr := ws.Close(websocket.StatusNormalClosure, "feed closed"); closeErr != nil {
			slog.Debug("Feed close error", "error", closeErr)
		}
	}()

	h.hub.Register(ws)
	defer h.hub.Unregister(ws)

	// The feed is one-way; drain client frames until the connection ends.
	for {
		if _, _, err := ws.Read(context.Background()); err != nil {
			if !errors.Is(err, io.EOF) && websocket.CloseStatus(err) == -1 {
				slog.Debug("Feed read ended", "device_id", deviceID, "error", err)
			}
			return
		}
	}
}

func (h *WebSocketHandler) checkOrigin(r *http.Request) bool {
	if h.isDev || h.allowedOrigin == "" {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	return strings.HasPrefix(origin, h.allowedOrigin)
}
