// Package httpapi exposes the synthesis engine over HTTP: one synchronous
// POST /tts endpoint returning WAV bytes, plus a readiness probe.
package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/book-expert/logger"

	"github.com/book-expert/voice-bridge/internal/engine"
)

// Server routes HTTP requests to the synthesis engine.
type Server struct {
	engine *engine.Engine
	log    *logger.Logger
	mux    *http.ServeMux
}

// NewServer creates the HTTP surface over an already-constructed engine.
func NewServer(eng *engine.Engine, log *logger.Logger) *Server {
	s := &Server{
		engine: eng,
		log:    log,
		mux:    http.NewServeMux(),
	}
	s.routes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.mux.HandleFunc("POST /tts", s.handleSynthesize)
	s.mux.HandleFunc("GET /healthz", s.handleHealthz)
}

// handleHealthz reports service and model status. Readiness is informational
// only: the synthesis endpoint answers regardless.
func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	err := json.NewEncoder(w).Encode(map[string]any{
		"status":       "ok",
		"model_loaded": s.engine.Ready(),
	})
	if err != nil {
		s.log.Error("Failed to encode healthz response: %v", err)
	}
}
