// Package core defines the core contracts between the synthesis engine and
// the model collaborator for the voice-bridge service.
package core

import "context"

// Compute device identifiers for model placement.
const (
	DeviceCUDA = "cuda"
	DeviceCPU  = "cpu"
)

// SynthesisRequest is one text-to-speech request. Voice is optional; an empty
// value means the engine's configured default speaker is used. Text is not
// validated here: an empty text is passed to the model as-is.
type SynthesisRequest struct {
	Text  string `json:"text"`
	Voice string `json:"voice,omitempty"`
}

// AudioBuffer holds mono float32 samples, semantically in [-1, 1], and the
// rate they were generated at. Samples are always 1-D by the time a buffer
// reaches the encoder.
type AudioBuffer struct {
	Samples    []float32
	SampleRate int
}

// Model is the generation capability of a loaded TTS model. The returned
// value is deliberately polymorphic: it may be a bare audio value or an
// Output pair, and the audio value itself may be a plain sample slice, a
// multi-dimensional buffer, or a device-resident tensor. The audio package
// owns decoding it.
type Model interface {
	Generate(ctx context.Context, text, voice string) (any, error)
}

// Loader acquires a model by name. It is invoked exactly once per process
// lifetime, at service startup; there is no reload operation.
type Loader interface {
	Load(ctx context.Context, name string) (Model, error)
}

// Output is the structured shape a model may return: audio paired with the
// sample rate it was generated at. A zero SampleRate means the model did not
// supply one and the caller's default applies.
type Output struct {
	Audio      any
	SampleRate int
}

// Placeable is implemented by models that support device placement. The
// engine transfers a model only when a GPU device was selected.
type Placeable interface {
	To(device string) error
}

// HostTensor is implemented by audio values that live in device memory and
// must be moved to host memory before further processing.
type HostTensor interface {
	ToHost() ([]float32, error)
}

// Shaped is implemented by audio values that carry an explicit shape. Data
// returns the samples in row-major order; buffers with more than one
// dimension are flattened by taking Data as-is.
type Shaped interface {
	Shape() []int
	Data() []float32
}
