// Package server wires HTTP handlers into a chi router for the chat relay.
package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// SetupRoutes configures and returns the router with all application routes:
// health check, WebSocket endpoint, and room occupancy queries.
func SetupRoutes(h *Handlers) http.Handler {
	r := chi.NewRouter()
	r.Get("/", HealthHandler)
	r.Get("/ws", h.WebSocket)
	r.Route("/api", func(r chi.Router) {
		r.Get("/rooms", h.RoomDirectory)
		r.Get("/room/{room}", h.RoomOccupancy)
	})
	return r
}
