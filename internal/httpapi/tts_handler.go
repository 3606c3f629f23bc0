package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/book-expert/voice-bridge/internal/audio"
	"github.com/book-expert/voice-bridge/internal/core"
)

// handleSynthesize serves one synchronous synthesis request. The engine never
// fails outward, so the only non-200 response here is transport-level JSON
// validation; a missing model or a generation error still yields 200 with a
// silent WAV body.
func (s *Server) handleSynthesize(w http.ResponseWriter, r *http.Request) {
	var req core.SynthesisRequest

	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte("invalid json"))

		return
	}

	result := s.engine.Synthesize(r.Context(), req)

	payload := audio.EncodeWAV(result.Buffer)

	w.Header().Set("Content-Type", audio.ContentTypeWAV)
	w.WriteHeader(http.StatusOK)

	_, writeErr := w.Write(payload)
	if writeErr != nil {
		s.log.Error("Failed to write audio response: %v", writeErr)
	}
}
