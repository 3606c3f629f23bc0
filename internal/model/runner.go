// Package model provides the concrete Loader implementations behind the
// voice-bridge synthesis engine: a subprocess-based runner and an HTTP client
// to a remote inference server.
package model

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strconv"

	"github.com/book-expert/logger"

	"github.com/book-expert/voice-bridge/internal/core"
)

// Number of layers offloaded to the GPU when the model is placed on CUDA.
const gpuLayerCount = 99

// Static errors.
var (
	ErrTruncatedPCM = errors.New("truncated float32 PCM stream")
	ErrEmptyAudio   = errors.New("runner produced no audio")
)

// RunnerLoader loads a model served by a local inference runner binary. Load
// verifies the binary is on PATH and resolves the model weights; the returned
// model shells out once per generation.
type RunnerLoader struct {
	BinaryPath string
	Log        *logger.Logger
}

// Load verifies the runner binary and the model weights. No inference
// happens here; a missing binary or missing weights is a load failure the
// engine recovers from.
func (l *RunnerLoader) Load(_ context.Context, name string) (core.Model, error) {
	binary, err := exec.LookPath(l.BinaryPath)
	if err != nil {
		return nil, fmt.Errorf("inference runner %q not found: %w", l.BinaryPath, err)
	}

	modelPath, err := ResolveModelPath(name)
	if err != nil {
		return nil, fmt.Errorf("resolve model weights: %w", err)
	}

	return &runnerModel{
		binary:    binary,
		modelPath: modelPath,
		gpuLayers: 0,
		log:       l.Log,
	}, nil
}

// runnerModel invokes the inference runner per request. Its output is raw
// little-endian float32 PCM on stdout, a bare audio value with no rate, so
// the engine's default sample rate applies.
type runnerModel struct {
	binary    string
	modelPath string
	gpuLayers int
	log       *logger.Logger
}

// To enables GPU offload when the engine selected a CUDA device.
func (m *runnerModel) To(device string) error {
	if device == core.DeviceCUDA {
		m.gpuLayers = gpuLayerCount
	}

	return nil
}

// Generate runs the inference binary and parses its PCM output.
func (m *runnerModel) Generate(ctx context.Context, text, voice string) (any, error) {
	args := []string{
		"-m", m.modelPath,
		"-p", fmt.Sprintf("{%s}: %s", voice, text),
		"--tts_pcm_out",
		"-ngl", strconv.Itoa(m.gpuLayers),
	}

	// #nosec G204 -- binary and model path are resolved at load time from
	// trusted configuration.
	cmd := exec.CommandContext(ctx, m.binary, args...)

	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("inference runner execution failed: %w", err)
	}

	samples, err := samplesFromPCM(output)
	if err != nil {
		return nil, err
	}

	if len(samples) == 0 {
		return nil, ErrEmptyAudio
	}

	return samples, nil
}

// samplesFromPCM reinterprets a raw little-endian float32 byte stream as
// samples.
func samplesFromPCM(data []byte) ([]float32, error) {
	const sampleWidth = 4

	if len(data)%sampleWidth != 0 {
		return nil, fmt.Errorf("%w: %d bytes", ErrTruncatedPCM, len(data))
	}

	samples := make([]float32, len(data)/sampleWidth)
	for i := range samples {
		bits := binary.LittleEndian.Uint32(data[i*sampleWidth:])
		samples[i] = math.Float32frombits(bits)
	}

	return samples, nil
}
