package model

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/book-expert/voice-bridge/internal/core"
)

// API endpoints of the upstream inference server.
const (
	apiGenerateSpeech = "/v1/generate/speech"
	apiHealth         = "/health"
)

// HTTP headers and content types.
const (
	headerContentType = "Content-Type"
	headerAccept      = "Accept"
	contentTypeJSON   = "application/json"
)

// ErrEmptyRemoteAudio is returned when the upstream answers 200 with no body.
var ErrEmptyRemoteAudio = errors.New("received empty audio data")

// RemoteLoader loads a model hosted by an upstream inference server. Load is
// a health check; generation is one POST per request.
type RemoteLoader struct {
	BaseURL string
	Timeout time.Duration
}

// remoteRequest is the JSON payload sent to the upstream server.
type remoteRequest struct {
	Model string `json:"model"`
	Text  string `json:"text"`
	Voice string `json:"voice,omitempty"`
}

// remoteResponse is the structured upstream response shape: samples paired
// with the rate they were generated at.
type remoteResponse struct {
	Samples    []float32 `json:"samples"`
	SampleRate int       `json:"sample_rate"`
}

// Load verifies the upstream server is reachable and healthy. An unreachable
// server is a load failure the engine recovers from.
func (l *RemoteLoader) Load(ctx context.Context, name string) (core.Model, error) {
	client := &http.Client{Timeout: l.Timeout}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.BaseURL+apiHealth, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create health check request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("health check failed for service at %s: %w", l.BaseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("health check failed with status: %s", resp.Status)
	}

	return &remoteModel{
		client:  client,
		baseURL: l.BaseURL,
		name:    name,
	}, nil
}

// remoteModel generates speech through the upstream HTTP API. The upstream
// answers with either a structured JSON pair (samples plus sample rate) or a
// raw little-endian float32 stream; both shapes are surfaced to the decoder
// as-is.
type remoteModel struct {
	client  *http.Client
	baseURL string
	name    string
}

// Generate sends one generation request and returns the upstream output in
// whichever shape it arrived.
func (m *remoteModel) Generate(ctx context.Context, text, voice string) (any, error) {
	requestBody, err := json.Marshal(remoteRequest{
		Model: m.name,
		Text:  text,
		Voice: voice,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		m.baseURL+apiGenerateSpeech,
		bytes.NewBuffer(requestBody),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set(headerContentType, contentTypeJSON)

	resp, err := m.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request to inference server at %s: %w", m.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)

		return nil, fmt.Errorf("inference server returned non-OK status: %s, body: %s",
			resp.Status, string(body))
	}

	return decodeRemoteBody(resp)
}

// decodeRemoteBody extracts the upstream output. A JSON body yields the
// structured pair; anything else is treated as raw float32 PCM.
func decodeRemoteBody(resp *http.Response) (any, error) {
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio data: %w", err)
	}

	if len(data) == 0 {
		return nil, ErrEmptyRemoteAudio
	}

	if resp.Header.Get(headerContentType) == contentTypeJSON {
		var structured remoteResponse

		unmarshalErr := json.Unmarshal(data, &structured)
		if unmarshalErr != nil {
			return nil, fmt.Errorf("failed to unmarshal structured audio response: %w", unmarshalErr)
		}

		return core.Output{Audio: structured.Samples, SampleRate: structured.SampleRate}, nil
	}

	return samplesFromPCM(data)
}
