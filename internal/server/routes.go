// Package server exposes the HTTP surface: the websocket endpoint, a
// health check, and a read-only room directory.
package server

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/sketchparty/sketchparty-backend/internal/game"
)

type Server struct {
	game *game.Game
	log  zerolog.Logger
}

func New(g *game.Game, log zerolog.Logger) *Server {
	return &Server{game: g, log: log}
}

func (s *Server) RegisterRoutes() http.Handler {
	r := mux.NewRouter()

	r.Use(s.corsMiddleware)

	r.HandleFunc("/", s.HealthHandler).Methods(http.MethodGet)
	r.HandleFunc("/rooms", s.RoomsHandler).Methods(http.MethodGet)
	r.HandleFunc("/ws", s.game.HandleWebSocket)

	return r
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type")

		// Websocket upgrades pass straight through.
		if strings.ToLower(r.Header.Get("Upgrade")) == "websocket" {
			next.ServeHTTP(w, r)
			return
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Response is the envelope for plain HTTP endpoints, with coarse
// server-side timing.
type Response struct {
	StatusCode    int   `json:"status_code"`
	RespStartTime int64 `json:"resp_time_start_ms"`
	RespEndTime   int64 `json:"resp_time_end_ms"`
	NetRespTime   int64 `json:"net_resp_time_ms"`
	Data          any   `json:"data"`
}

func (s *Server) writeResponse(w http.ResponseWriter, status int, startMs int64, data any) {
	endMs := time.Now().UnixMilli()
	resp := Response{
		StatusCode:    status,
		RespStartTime: startMs,
		RespEndTime:   endMs,
		NetRespTime:   endMs - startMs,
		Data:          data,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.log.Error().Err(err).Msg("encode response")
	}
}

func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now().UnixMilli()
	s.writeResponse(w, http.StatusOK, start, map[string]any{
		"status": "ok",
		"rooms":  s.game.Registry().Count(),
	})
}

// RoomsHandler lists active rooms so a lobby browser can offer codes to
// join.
func (s *Server) RoomsHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now().UnixMilli()
	s.writeResponse(w, http.StatusOK, start, s.game.Registry().Directory())
}
