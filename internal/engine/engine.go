// Package engine owns the model lifecycle and the per-request synthesis path
// for the voice-bridge service.
//
// The engine is constructed once at startup and shared read-only across
// request handlers. Model loading is attempted exactly once; a failed load
// leaves the engine in degraded mode, where every request is answered with
// one second of silence instead of an error.
package engine

import (
	"context"
	"fmt"
	"os/exec"
	"sync"

	"github.com/book-expert/logger"
	"github.com/google/uuid"

	"github.com/book-expert/voice-bridge/internal/audio"
	"github.com/book-expert/voice-bridge/internal/core"
)

// Path identifies which branch produced a synthesis result.
type Path string

// Synthesis paths.
const (
	// PathNormal is a successful model generation.
	PathNormal Path = "normal"
	// PathDegraded means no model is loaded; the designed silent fallback.
	PathDegraded Path = "degraded"
	// PathFallback means generation or output decoding failed and silence
	// was substituted.
	PathFallback Path = "fallback"
)

// Log formats.
const (
	logFmtDeviceSelected  = "Using device: %s"
	logFmtNoGPU           = "No GPU runtime detected, falling back to CPU. Generation will be slow."
	logFmtModelLoaded     = "Model '%s' loaded on %s."
	logFmtLoadFailed      = "Failed to load model '%s': %v"
	logFmtLoadCauses      = "Likely causes: missing weights for '%s', no network access to download them, or an incompatible accelerated runtime."
	logFmtDegraded        = "[%s] Degraded (model not loaded): text=%q voice=%q"
	logFmtFallback        = "[%s] Generation failed, substituting silence: text=%q voice=%q error=%v"
	logFmtGenerated       = "[%s] Generated %d samples at %d Hz: text=%q voice=%q"
	errFmtGenerate        = "model generation: %w"
	errFmtDecode          = "decode model output: %w"
	errFmtDevicePlacement = "device placement on %s: %w"
)

// Engine holds the process-wide model reference. The model is written once by
// Initialize, before the first request is served, and only read afterwards.
type Engine struct {
	modelName    string
	defaultVoice string
	loader       core.Loader
	log          *logger.Logger

	// gpuAvailable reports whether an accelerated runtime is present.
	// Overridable in tests.
	gpuAvailable func() bool

	// generateMu serializes model invocations: the generation capability
	// is not documented as safe for concurrent use.
	generateMu sync.Mutex

	model  core.Model
	device string
}

// Result is the outcome of one synthesis call. There is no error variant:
// every request yields a playable buffer.
type Result struct {
	Buffer core.AudioBuffer
	Path   Path
}

// New creates an engine for the named model. The engine serves requests in
// degraded mode until Initialize succeeds.
func New(modelName, defaultVoice string, loader core.Loader, log *logger.Logger) *Engine {
	return &Engine{
		modelName:    modelName,
		defaultVoice: defaultVoice,
		loader:       loader,
		log:          log,
		gpuAvailable: detectGPU,
	}
}

// Initialize selects a compute device, loads the model, and places it on the
// selected device. It runs exactly once, before the first request. On any
// failure the error is logged with enough context to diagnose it and the
// model reference is left unset; the service must keep answering requests.
func (e *Engine) Initialize(ctx context.Context) {
	device := core.DeviceCUDA
	if !e.gpuAvailable() {
		e.log.Warn(logFmtNoGPU)

		device = core.DeviceCPU
	}

	e.log.Info(logFmtDeviceSelected, device)

	model, err := e.loadAndPlace(ctx, device)
	if err != nil {
		e.log.Error(logFmtLoadFailed, e.modelName, err)
		e.log.Error(logFmtLoadCauses, e.modelName)

		return
	}

	e.model = model
	e.device = device
	e.log.System(logFmtModelLoaded, e.modelName, device)
}

// Ready reports whether a model reference is currently set.
func (e *Engine) Ready() bool {
	return e.model != nil
}

// Synthesize turns one request into one audio buffer. It never fails past its
// own boundary: a missing model or any generation error yields one second of
// silence at the default rate, and each invocation writes one diagnostic line
// identifying the path taken.
func (e *Engine) Synthesize(ctx context.Context, req core.SynthesisRequest) Result {
	requestID := uuid.NewString()

	voice := req.Voice
	if voice == "" {
		voice = e.defaultVoice
	}

	if e.model == nil {
		e.log.Warn(logFmtDegraded, requestID, req.Text, voice)

		return Result{Buffer: audio.Silence(audio.DefaultSampleRate), Path: PathDegraded}
	}

	buf, err := e.generate(ctx, req.Text, voice)
	if err != nil {
		// Silence at the default rate, never a partially-obtained one.
		e.log.Error(logFmtFallback, requestID, req.Text, voice, err)

		return Result{Buffer: audio.Silence(audio.DefaultSampleRate), Path: PathFallback}
	}

	e.log.Info(logFmtGenerated, requestID, len(buf.Samples), buf.SampleRate, req.Text, voice)

	return Result{Buffer: buf, Path: PathNormal}
}

func (e *Engine) loadAndPlace(ctx context.Context, device string) (core.Model, error) {
	model, err := e.loader.Load(ctx, e.modelName)
	if err != nil {
		return nil, fmt.Errorf("load model: %w", err)
	}

	if device == core.DeviceCUDA {
		if placeable, ok := model.(core.Placeable); ok {
			placeErr := placeable.To(device)
			if placeErr != nil {
				return nil, fmt.Errorf(errFmtDevicePlacement, device, placeErr)
			}
		}
	}

	return model, nil
}

func (e *Engine) generate(ctx context.Context, text, voice string) (core.AudioBuffer, error) {
	e.generateMu.Lock()
	output, err := e.model.Generate(ctx, text, voice)
	e.generateMu.Unlock()

	if err != nil {
		return core.AudioBuffer{}, fmt.Errorf(errFmtGenerate, err)
	}

	buf, err := audio.Decode(output, audio.DefaultSampleRate)
	if err != nil {
		return core.AudioBuffer{}, fmt.Errorf(errFmtDecode, err)
	}

	return buf, nil
}

// detectGPU checks for the NVIDIA management tool as a proxy for a usable
// accelerated runtime.
func detectGPU() bool {
	_, err := exec.LookPath("nvidia-smi")

	return err == nil
}
