// Package audio normalizes the polymorphic output of a TTS model into a mono
// float32 buffer and encodes buffers as in-memory WAV payloads.
//
// This package isolates the duck-typed fragility of the model boundary to one
// decoding step with an explicit contract: structured extraction is attempted
// first, and a bare value is treated as the audio payload itself.
package audio

import (
	"errors"
	"fmt"

	"github.com/book-expert/voice-bridge/internal/core"
)

// DefaultSampleRate is used whenever the model is absent or does not supply
// its own rate.
const DefaultSampleRate = 24000

// Static errors.
var (
	ErrUnsupportedOutput = errors.New("unsupported model output type")
	ErrHostTransfer      = errors.New("host transfer failed")
)

// Decode normalizes a model output value into an AudioBuffer.
//
// Shape detection, in order:
//   - a core.Output pair supplies its own sample rate (when non-zero) and its
//     Audio field is decoded recursively;
//   - a device-resident value (core.HostTensor) is moved to host memory;
//   - a shaped value (core.Shaped) yields its row-major data, flattened;
//   - [][]float32 is flattened row-major with no channel-aware downmixing;
//   - []float32 and []float64 are taken as-is.
//
// Anything else is an ErrUnsupportedOutput; callers substitute silence.
func Decode(output any, defaultRate int) (core.AudioBuffer, error) {
	rate := defaultRate

	if pair, ok := output.(core.Output); ok {
		if pair.SampleRate > 0 {
			rate = pair.SampleRate
		}

		output = pair.Audio
	}

	samples, err := extractSamples(output)
	if err != nil {
		return core.AudioBuffer{}, err
	}

	return core.AudioBuffer{Samples: samples, SampleRate: rate}, nil
}

// Silence returns exactly one second of silence: rate zero-valued samples.
func Silence(rate int) core.AudioBuffer {
	return core.AudioBuffer{Samples: make([]float32, rate), SampleRate: rate}
}

func extractSamples(value any) ([]float32, error) {
	// Device-resident values must be moved to host memory before any
	// further processing.
	if tensor, ok := value.(core.HostTensor); ok {
		samples, err := tensor.ToHost()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrHostTransfer, err)
		}

		return samples, nil
	}

	switch audio := value.(type) {
	case core.Shaped:
		// Data is row-major; flattening a multi-dimensional buffer is
		// a pure reshape, so taking it whole is the flatten.
		return audio.Data(), nil
	case [][]float32:
		return flattenRows(audio), nil
	case []float32:
		return audio, nil
	case []float64:
		samples := make([]float32, len(audio))
		for i, s := range audio {
			samples[i] = float32(s)
		}

		return samples, nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedOutput, value)
	}
}

func flattenRows(rows [][]float32) []float32 {
	total := 0
	for _, row := range rows {
		total += len(row)
	}

	flat := make([]float32, 0, total)
	for _, row := range rows {
		flat = append(flat, row...)
	}

	return flat
}
