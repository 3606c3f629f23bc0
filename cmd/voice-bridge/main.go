// main package for the voice-bridge service.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/book-expert/logger"
	"github.com/nats-io/nats.go"

	"github.com/book-expert/voice-bridge/internal/config"
	"github.com/book-expert/voice-bridge/internal/core"
	"github.com/book-expert/voice-bridge/internal/engine"
	"github.com/book-expert/voice-bridge/internal/httpapi"
	"github.com/book-expert/voice-bridge/internal/model"
	"github.com/book-expert/voice-bridge/internal/worker"
)

const (
	logFileName           = "voice-bridge.log"
	readHeaderTimeout     = 10 * time.Second
	shutdownGracePeriod   = 5 * time.Second
	logFmtListening       = "voice-bridge listening on %s (model loaded: %t)"
	logFmtNATSIngress     = "NATS synthesis ingress enabled on subject %s"
	errFmtUnknownLoader   = "unknown loader %q"
	errFmtConnectNATS     = "failed to connect to NATS at %s: %w"
	errFmtCreateWorker    = "failed to create NATS worker: %w"
	errFmtCreateLogger    = "failed to create logger: %w"
	errFmtLoadConfig      = "failed to load configuration: %w"
	errFmtServeHTTP       = "http server: %w"
)

func setupLogger(logPath string) (*logger.Logger, error) {
	log, err := logger.New(logPath, logFileName)
	if err != nil {
		return nil, fmt.Errorf(errFmtCreateLogger, err)
	}

	return log, nil
}

// buildLoader selects the configured model acquisition strategy.
func buildLoader(cfg *config.Config, log *logger.Logger) (core.Loader, error) {
	switch cfg.TTS.Loader {
	case config.LoaderRunner:
		return &model.RunnerLoader{
			BinaryPath: cfg.TTS.RunnerBinary,
			Log:        log,
		}, nil
	case config.LoaderRemote:
		return &model.RemoteLoader{
			BaseURL: cfg.TTS.ServiceURL,
			Timeout: time.Duration(cfg.TTS.TimeoutSeconds) * time.Second,
		}, nil
	default:
		return nil, fmt.Errorf(errFmtUnknownLoader, cfg.TTS.Loader)
	}
}

// startNATSIngress wires the optional second transport when a NATS URL is
// configured.
func startNATSIngress(
	ctx context.Context,
	cfg *config.Config,
	eng *engine.Engine,
	log *logger.Logger,
) (*nats.Conn, error) {
	natsConnection, err := nats.Connect(cfg.NATS.URL)
	if err != nil {
		return nil, fmt.Errorf(errFmtConnectNATS, cfg.NATS.URL, err)
	}

	natsWorker, err := worker.NewNatsWorker(natsConnection, cfg.NATS.SynthesizeSubject, eng, log)
	if err != nil {
		natsConnection.Close()

		return nil, fmt.Errorf(errFmtCreateWorker, err)
	}

	go func() {
		runErr := natsWorker.Run(ctx)
		if runErr != nil {
			log.Error("NATS worker stopped: %v", runErr)
		}
	}()

	log.System(logFmtNATSIngress, cfg.NATS.SynthesizeSubject)

	return natsConnection, nil
}

func run() error {
	bootstrapLog, err := setupLogger(os.TempDir())
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to create bootstrap logger: %v\n", err)

		return err
	}

	cfg, err := config.Load(bootstrapLog)
	if err != nil {
		bootstrapLog.Error("Failed to load configuration: %v", err)

		return fmt.Errorf(errFmtLoadConfig, err)
	}

	finalLog, err := setupLogger(cfg.Paths.BaseLogsDir)
	if err != nil {
		bootstrapLog.Error("Failed to create final logger: %v", err)

		return err
	}

	defer func() {
		closeErr := finalLog.Close()
		if closeErr != nil {
			fmt.Fprintf(os.Stderr, "error closing final logger: %v\n", closeErr)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loader, err := buildLoader(cfg, finalLog)
	if err != nil {
		finalLog.Error("Failed to build model loader: %v", err)

		return err
	}

	eng := engine.New(cfg.TTS.Model, cfg.TTS.DefaultVoice, loader, finalLog)

	// A load failure leaves the engine degraded; the service stays up and
	// answers with silence.
	eng.Initialize(ctx)

	if cfg.NATS.URL != "" {
		natsConnection, natsErr := startNATSIngress(ctx, cfg, eng, finalLog)
		if natsErr != nil {
			finalLog.Error("Failed to start NATS ingress: %v", natsErr)

			return natsErr
		}

		defer natsConnection.Close()
	}

	return serveHTTP(ctx, cfg, eng, finalLog)
}

func serveHTTP(
	ctx context.Context,
	cfg *config.Config,
	eng *engine.Engine,
	log *logger.Logger,
) error {
	httpServer := &http.Server{
		Addr:              cfg.ListenAddr(),
		Handler:           httpapi.NewServer(eng, log),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErr := make(chan error, 1)

	go func() {
		serveErr <- httpServer.ListenAndServe()
	}()

	log.System(logFmtListening, cfg.ListenAddr(), eng.Ready())

	select {
	case err := <-serveErr:
		return fmt.Errorf(errFmtServeHTTP, err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGracePeriod)
		defer cancel()

		shutdownErr := httpServer.Shutdown(shutdownCtx)
		if shutdownErr != nil && !errors.Is(shutdownErr, context.DeadlineExceeded) {
			return fmt.Errorf("http server shutdown: %w", shutdownErr)
		}

		return nil
	}
}

func main() {
	err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Service exited with error: %v\n", err)
		os.Exit(1)
	}
}
