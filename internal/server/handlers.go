// Package server exposes HTTP handlers, including WebSocket upgrades, health
// checks, and the read-only room occupancy queries.
package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

// Handlers serves the HTTP surface of a Hub.
type Handlers struct {
	hub      *Hub
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewHandlers builds the handlers for hub, checking upgrade origins against
// the hub's configured allow-list.
func NewHandlers(hub *Hub) *Handlers {
	policy := newOriginPolicy(hub.cfg.AllowedOrigins, hub.logger)
	return &Handlers{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     policy.checkOrigin,
		},
		logger: hub.logger,
	}
}

// WebSocket upgrades the request, creates a Client for the connection and
// registers it with the hub, which starts its pumps.
func (h *Handlers) WebSocket(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. WebSocket endpoint only accepts GET requests.", http.StatusMethodNotAllowed)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", "addr", r.RemoteAddr, "error", err)
		return
	}

	client := NewClient(conn, h.hub, r.RemoteAddr)
	if err := h.hub.Register(client); err != nil {
		h.logger.Warn("rejecting connection", "addr", r.RemoteAddr, "error", err)
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
		_ = conn.Close()
	}
}

// HealthHandler provides a simple health check endpoint that returns server status.
func HealthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = fmt.Fprint(w, "Chat relay is running!")
}

// RoomOccupancy reports {room, online} for the room named in the path.
// Unknown rooms report zero and are not created.
func (h *Handlers) RoomOccupancy(w http.ResponseWriter, r *http.Request) {
	room := chi.URLParam(r, "room")
	if unescaped, err := url.PathUnescape(room); err == nil {
		room = unescaped
	}
	h.writeJSON(w, http.StatusOK, h.hub.chat.Registry().Occupancy(room))
}

// RoomDirectory reports the occupancy of every known room, the same
// projection broadcast as roomList.
func (h *Handlers) RoomDirectory(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, h.hub.chat.Registry().Snapshot())
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Warn("error writing JSON response", "error", err)
	}
}
