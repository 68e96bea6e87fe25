// Package api exposes the relay's HTTP surface: health, the named
// channel roster, and runtime stats. No business logic lives here, only
// HTTP handling and JSON serialization.
package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"chatrelay/internal/catalog"
	"chatrelay/internal/presence"
	"chatrelay/internal/room"
	"chatrelay/pkg/interfaces"
)

// Server routes the admin API.
type Server struct {
	catalog  interfaces.ChannelStore
	presence *presence.Registry
	registry interfaces.ConnectionRegistry
	rooms    *room.Table
	router   *mux.Router
}

// NewServer wires the API over the relay's components.
func NewServer(store interfaces.ChannelStore, pres *presence.Registry, registry interfaces.ConnectionRegistry, rooms *room.Table) *Server {
	s := &Server{
		catalog:  store,
		presence: pres,
		registry: registry,
		rooms:    rooms,
		router:   mux.NewRouter(),
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(s.corsMiddleware, s.jsonMiddleware)
	s.router.HandleFunc("/health", s.healthCheck).Methods(http.MethodGet)
	s.router.HandleFunc("/api/channels", s.listChannels).Methods(http.MethodGet)
	s.router.HandleFunc("/api/channels", s.createChannel).Methods(http.MethodPost)
	s.router.HandleFunc("/api/stats", s.getStats).Methods(http.MethodGet)

	// Preflight requests must match a route for the middleware chain to
	// run; the CORS middleware answers them.
	s.router.Methods(http.MethodOptions).HandlerFunc(func(http.ResponseWriter, *http.Request) {})
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

type createChannelRequest struct {
	Name string `json:"name"`
}

type channelsResponse struct {
	Channels []string `json:"channels"`
}

type statsResponse struct {
	Connections int      `json:"connections"`
	OnlineUsers []string `json:"online_users"`
	ActiveRooms int      `json:"active_rooms"`
}

func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) listChannels(w http.ResponseWriter, r *http.Request) {
	channels, err := s.catalog.List(r.Context())
	if err != nil {
		log.Printf("Failed to list channels: %v", err)
		s.sendError(w, "Failed to list channels", http.StatusInternalServerError)
		return
	}

	s.writeJSON(w, http.StatusOK, channelsResponse{Channels: channels})
}

func (s *Server) createChannel(w http.ResponseWriter, r *http.Request) {
	var req createChannelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}

	err := s.catalog.Create(r.Context(), req.Name)
	switch {
	case errors.Is(err, catalog.ErrInvalidChannelName):
		s.sendError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, catalog.ErrChannelExists):
		s.sendError(w, err.Error(), http.StatusConflict)
	case err != nil:
		log.Printf("Failed to create channel %q: %v", req.Name, err)
		s.sendError(w, "Failed to create channel", http.StatusInternalServerError)
	default:
		s.writeJSON(w, http.StatusCreated, map[string]string{"name": req.Name})
	}
}

func (s *Server) getStats(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, statsResponse{
		Connections: s.registry.Count(),
		OnlineUsers: s.presence.OnlineUsernames(),
		ActiveRooms: s.rooms.RoomCount(),
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

func (s *Server) sendError(w http.ResponseWriter, message string, status int) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) jsonMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}
