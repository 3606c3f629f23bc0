package model_test

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/book-expert/voice-bridge/internal/core"
	"github.com/book-expert/voice-bridge/internal/model"
)

// newUpstream fakes the remote inference server: a healthy /health plus a
// scripted /v1/generate/speech handler.
func newUpstream(t *testing.T, generate http.HandlerFunc) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("POST /v1/generate/speech", generate)

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return server
}

func loadRemoteModel(t *testing.T, baseURL string) core.Model {
	t.Helper()

	loader := &model.RemoteLoader{
		BaseURL: baseURL,
		Timeout: 5 * time.Second,
	}

	loaded, err := loader.Load(context.Background(), "test-model")
	require.NoError(t, err)

	return loaded
}

func pcmBytes(samples []float32) []byte {
	data := make([]byte, len(samples)*4)
	for i, sample := range samples {
		binary.LittleEndian.PutUint32(data[i*4:], math.Float32bits(sample))
	}

	return data
}

func TestRemoteLoader_LoadChecksHealth(t *testing.T) {
	t.Parallel()

	server := newUpstream(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	loaded := loadRemoteModel(t, server.URL)
	assert.NotNil(t, loaded)
}

func TestRemoteLoader_UnhealthyUpstreamFailsLoad(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	loader := &model.RemoteLoader{BaseURL: server.URL, Timeout: 5 * time.Second}

	_, err := loader.Load(context.Background(), "test-model")
	require.Error(t, err)
}

func TestRemoteLoader_UnreachableUpstreamFailsLoad(t *testing.T) {
	t.Parallel()

	loader := &model.RemoteLoader{
		BaseURL: "http://127.0.0.1:1",
		Timeout: time.Second,
	}

	_, err := loader.Load(context.Background(), "test-model")
	require.Error(t, err)
}

func TestRemoteModel_StructuredResponseBecomesPair(t *testing.T) {
	t.Parallel()

	var gotRequest struct {
		Model string `json:"model"`
		Text  string `json:"text"`
		Voice string `json:"voice"`
	}

	server := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotRequest))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"samples":     []float32{0.1, -0.1},
			"sample_rate": 16000,
		})
	})

	loaded := loadRemoteModel(t, server.URL)

	output, err := loaded.Generate(context.Background(), "hello", "Carter")
	require.NoError(t, err)

	pair, ok := output.(core.Output)
	require.True(t, ok, "JSON responses surface as a samples/rate pair")
	assert.Equal(t, []float32{0.1, -0.1}, pair.Audio)
	assert.Equal(t, 16000, pair.SampleRate)

	assert.Equal(t, "test-model", gotRequest.Model)
	assert.Equal(t, "hello", gotRequest.Text)
	assert.Equal(t, "Carter", gotRequest.Voice)
}

func TestRemoteModel_RawBodyBecomesBareSamples(t *testing.T) {
	t.Parallel()

	want := []float32{0.5, -0.5, 0.25}

	server := newUpstream(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write(pcmBytes(want))
	})

	loaded := loadRemoteModel(t, server.URL)

	output, err := loaded.Generate(context.Background(), "hello", "")
	require.NoError(t, err)

	samples, ok := output.([]float32)
	require.True(t, ok, "raw bodies surface as bare samples")
	assert.Equal(t, want, samples)
}

func TestRemoteModel_NonOKStatusIsAnError(t *testing.T) {
	t.Parallel()

	server := newUpstream(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model overloaded", http.StatusInternalServerError)
	})

	loaded := loadRemoteModel(t, server.URL)

	_, err := loaded.Generate(context.Background(), "hello", "")
	require.Error(t, err)
}

func TestRemoteModel_EmptyBodyIsAnError(t *testing.T) {
	t.Parallel()

	server := newUpstream(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	loaded := loadRemoteModel(t, server.URL)

	_, err := loaded.Generate(context.Background(), "hello", "")
	require.Error(t, err)
	require.ErrorIs(t, err, model.ErrEmptyRemoteAudio)
}
