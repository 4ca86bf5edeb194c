// Package feed provides WebSocket-based live delivery of switch and
// accomplishment events to connected dashboards.
package feed

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/ovasilenko/synchro/internal/domain"
)

const writeTimeout = 5 * time.Second

// Hub tracks active WebSocket connections and fans events out to them.
type Hub struct {
	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{conns: make(map[*websocket.Conn]struct{})}
}

// Register adds a connection to the broadcast set.
func (h *Hub) Register(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[conn] = struct{}{}
	slog.Info("Feed connection registered", "active", len(h.conns))
}

// Unregister removes a connection from the broadcast set.
func (h *Hub) Unregister(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.conns[conn]; ok {
		delete(h.conns, conn)
		slog.Info("Feed connection unregistered", "active", len(h.conns))
	}
}

// Count returns the number of active connections.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

// Broadcast sends the event to every connected client. Connections that
// fail to accept the write are closed and dropped.
func (h *Hub) Broadcast(ev domain.Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		slog.Error("Failed to marshal feed event", "kind", ev.Kind, "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.conns {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		err := conn.Write(ctx, websocket.MessageText, payload)
		cancel()
		if err != nil {
			slog.Debug("Feed write failed, dropping connection", "error", err)
			_ = conn.Close(websocket.StatusNormalClosure, "write failed")
			delete(h.conns, conn)
		}
	}
}

// BroadcastSwitch wraps a switch event in the tagged union and broadcasts it.
func (h *Hub) BroadcastSwitch(ev domain.SwitchEvent) {
	h.Broadcast(domain.Event{Kind: domain.KindSwitch, Switch: &ev})
}

// BroadcastAccomplishment wraps an accomplishment event and broadcasts it.
// A nil event (open-policy claims emit none) is ignored.
func (h *Hub) BroadcastAccomplishment(ev *domain.AccomplishmentEvent) {
	if ev == nil {
		return
	}
	h.Broadcast(domain.Event{Kind: domain.KindAccomplishment, Accomplishment: ev})
}
