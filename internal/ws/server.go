package ws

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/studyarena/backend/internal/game"
)

// Server exposes the command protocol over WebSocket and read-only state
// over HTTP. All mutation flows through game.Service.Dispatch; this layer
// only translates frames.
type Server struct {
	svc *game.Service
	hub *Hub
	log zerolog.Logger
}

func NewServer(svc *game.Service, hub *Hub, log zerolog.Logger) *Server {
	return &Server{svc: svc, hub: hub, log: log}
}

func (s *Server) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/api/progress/", s.handleProgress)
	mux.HandleFunc("/api/lootboxes/", s.handleLootboxes)
	mux.HandleFunc("/api/achievements", s.handleAchievements)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	playerID := r.URL.Query().Get("player")
	if playerID == "" {
		http.Error(w, "missing player query parameter", http.StatusBadRequest)
		return
	}

	upgrader := websocket.Upgrader{}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("ws upgrade failed")
		return
	}
	s.log.Info().Str("player", playerID).Str("remote", r.RemoteAddr).Msg("ws client connected")

	c := s.hub.addClient(playerID, conn)
	go s.readPump(c)
}

// readPump parses command envelopes from the client and answers each with
// a snapshot or an error frame on the same connection.
func (s *Server) readPump(c *client) {
	defer s.hub.removeClient(c)
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		cmd, err := decodeCommand(data)
		if err != nil {
			s.hub.sendTo(c.playerID, Message{
				Type:    MsgError,
				Payload: ErrorPayload{Code: "bad_frame", Message: err.Error()},
			})
			continue
		}

		snap, err := s.svc.Dispatch(c.playerID, cmd)
		if err != nil {
			s.hub.sendTo(c.playerID, Message{
				Type:    MsgError,
				Payload: ErrorPayload{Code: errorCode(err), Message: err.Error()},
			})
			continue
		}
		s.hub.sendTo(c.playerID, Message{Type: MsgSnapshot, Payload: snap})
	}
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	playerID := strings.TrimPrefix(r.URL.Path, "/api/progress/")
	if playerID == "" {
		http.Error(w, "missing player id", http.StatusBadRequest)
		return
	}

	snap, err := s.svc.Progress(playerID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, snap)
}

func (s *Server) handleLootboxes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	playerID := strings.TrimPrefix(r.URL.Path, "/api/lootboxes/")
	if playerID == "" {
		http.Error(w, "missing player id", http.StatusBadRequest)
		return
	}

	boxes, err := s.svc.Lootboxes(playerID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, boxes)
}

func (s *Server) handleAchievements(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.writeJSON(w, s.svc.Achievements())
}

func (s *Server) writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error().Err(err).Msg("encoding response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := errorCode(err)
	status := http.StatusBadRequest
	switch code {
	case "not_found":
		status = http.StatusNotFound
	case "sync_error", "internal":
		status = http.StatusInternalServerError
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorPayload{Code: code, Message: err.Error()})
}

// ListenAndServe starts the HTTP server on host:port.
func ListenAndServe(host string, port int, mux *http.ServeMux, log zerolog.Logger) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	log.Info().Str("addr", addr).Msg("server listening")
	return http.ListenAndServe(addr, mux)
}
