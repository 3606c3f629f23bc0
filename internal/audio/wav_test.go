package audio_test

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/book-expert/voice-bridge/internal/audio"
	"github.com/book-expert/voice-bridge/internal/core"
)

const wavHeaderSize = 44

// wavHeader holds the fields a decoder reads back out of the container.
type wavHeader struct {
	riff        string
	wave        string
	format      uint16
	channels    uint16
	sampleRate  uint32
	byteRate    uint32
	bitsPerSamp uint16
	dataSize    uint32
}

func parseWAVHeader(t *testing.T, data []byte) wavHeader {
	t.Helper()

	require.GreaterOrEqual(t, len(data), wavHeaderSize)

	return wavHeader{
		riff:        string(data[0:4]),
		wave:        string(data[8:12]),
		format:      binary.LittleEndian.Uint16(data[20:22]),
		channels:    binary.LittleEndian.Uint16(data[22:24]),
		sampleRate:  binary.LittleEndian.Uint32(data[24:28]),
		byteRate:    binary.LittleEndian.Uint32(data[28:32]),
		bitsPerSamp: binary.LittleEndian.Uint16(data[34:36]),
		dataSize:    binary.LittleEndian.Uint32(data[40:44]),
	}
}

func TestEncodeWAV_HeaderRoundTrip(t *testing.T) {
	t.Parallel()

	buf := core.AudioBuffer{
		Samples:    []float32{0, 0.5, -0.5, 1.0},
		SampleRate: 22050,
	}

	data := audio.EncodeWAV(buf)
	header := parseWAVHeader(t, data)

	assert.Equal(t, "RIFF", header.riff)
	assert.Equal(t, "WAVE", header.wave)
	assert.Equal(t, uint16(1), header.format, "PCM format tag")
	assert.Equal(t, uint16(1), header.channels, "mono")
	assert.Equal(t, uint32(22050), header.sampleRate)
	assert.Equal(t, uint32(22050*2), header.byteRate)
	assert.Equal(t, uint16(16), header.bitsPerSamp)
	assert.Equal(t, uint32(len(buf.Samples)*2), header.dataSize)
	assert.Len(t, data, wavHeaderSize+len(buf.Samples)*2)
}

func TestEncodeWAV_SilenceIsAllZeroData(t *testing.T) {
	t.Parallel()

	data := audio.EncodeWAV(audio.Silence(audio.DefaultSampleRate))

	header := parseWAVHeader(t, data)
	assert.Equal(t, uint32(audio.DefaultSampleRate), header.sampleRate)
	assert.Equal(t, uint32(audio.DefaultSampleRate*2), header.dataSize)

	for i := wavHeaderSize; i < len(data); i++ {
		require.Zero(t, data[i])
	}
}

func TestEncodeWAV_SampleValuesRoundTrip(t *testing.T) {
	t.Parallel()

	buf := core.AudioBuffer{
		Samples:    []float32{1.0, -1.0},
		SampleRate: 8000,
	}

	data := audio.EncodeWAV(buf)

	first := int16(binary.LittleEndian.Uint16(data[wavHeaderSize : wavHeaderSize+2]))
	second := int16(binary.LittleEndian.Uint16(data[wavHeaderSize+2 : wavHeaderSize+4]))

	assert.Equal(t, int16(32767), first)
	assert.Equal(t, int16(-32767), second)
}

func TestEncodeWAV_ClipsOutOfRangeSamples(t *testing.T) {
	t.Parallel()

	buf := core.AudioBuffer{
		Samples:    []float32{2.0, -3.0},
		SampleRate: 8000,
	}

	data := audio.EncodeWAV(buf)

	first := int16(binary.LittleEndian.Uint16(data[wavHeaderSize : wavHeaderSize+2]))
	second := int16(binary.LittleEndian.Uint16(data[wavHeaderSize+2 : wavHeaderSize+4]))

	assert.Equal(t, int16(32767), first)
	assert.Equal(t, int16(-32767), second)
}

func TestEncodeWAV_Deterministic(t *testing.T) {
	t.Parallel()

	buf := core.AudioBuffer{
		Samples:    []float32{0.1, 0.2, 0.3},
		SampleRate: 24000,
	}

	assert.Equal(t, audio.EncodeWAV(buf), audio.EncodeWAV(buf))
}
