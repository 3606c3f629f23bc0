// Package worker provides an optional NATS request-reply ingress for the
// synthesis engine: the same synchronous operation as POST /tts, carried over
// a subject, with the same fail-silent semantics.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/book-expert/logger"
	"github.com/nats-io/nats.go"

	"github.com/book-expert/voice-bridge/internal/audio"
	"github.com/book-expert/voice-bridge/internal/core"
	"github.com/book-expert/voice-bridge/internal/engine"
)

const handleMessageTimeout = 30 * time.Second

// NatsWorker listens for synthesis requests on a NATS subject and replies
// with WAV bytes.
type NatsWorker struct {
	natsConnection *nats.Conn
	subject        string
	engine         *engine.Engine
	log            *logger.Logger
}

// NewNatsWorker creates a new instance of a NATS ingress worker.
func NewNatsWorker(
	natsConnection *nats.Conn,
	subject string,
	eng *engine.Engine,
	log *logger.Logger,
) (*NatsWorker, error) {
	return &NatsWorker{
		natsConnection: natsConnection,
		subject:        subject,
		engine:         eng,
		log:            log,
	}, nil
}

// Run starts the worker and begins listening for messages until the context
// is cancelled.
func (w *NatsWorker) Run(ctx context.Context) error {
	sub, err := w.natsConnection.Subscribe(w.subject, w.handleMessage)
	if err != nil {
		return fmt.Errorf("failed to subscribe to subject %s: %w", w.subject, err)
	}

	<-ctx.Done()

	drainErr := sub.Drain()
	if drainErr != nil {
		return fmt.Errorf("failed to drain subscription: %w", drainErr)
	}

	return nil
}

// handleMessage mirrors the HTTP handler: a malformed payload is the only
// rejected case; everything else yields audio, silent or not.
func (w *NatsWorker) handleMessage(msg *nats.Msg) {
	ctx, cancel := context.WithTimeout(context.Background(), handleMessageTimeout)
	defer cancel()

	var req core.SynthesisRequest

	err := json.Unmarshal(msg.Data, &req)
	if err != nil {
		w.log.Error("Failed to unmarshal synthesis request: %v", err)

		return
	}

	result := w.engine.Synthesize(ctx, req)

	respondErr := msg.Respond(audio.EncodeWAV(result.Buffer))
	if respondErr != nil {
		w.log.Error("Failed to publish synthesis reply: %v", respondErr)
	}
}
