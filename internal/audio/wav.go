package audio

import (
	"bytes"
	"encoding/binary"
	"math"

	"github.com/book-expert/voice-bridge/internal/core"
)

// ContentTypeWAV is the media type of the encoded payload.
const ContentTypeWAV = "audio/wav"

// WAV container layout constants (RIFF, PCM).
const (
	wavHeaderSize   = 44
	fmtChunkSize    = 16
	pcmFormatTag    = 1
	monoChannels    = 1
	bitsPerSample   = 16
	bytesPerSample  = bitsPerSample / 8
	riffSizeTrailer = 8
)

// EncodeWAV serializes a buffer into an uncompressed 16-bit PCM mono WAV
// container held fully in memory. Samples are clipped to [-1, 1] at encode
// time only; the buffer itself is never mutated.
func EncodeWAV(buf core.AudioBuffer) []byte {
	dataSize := len(buf.Samples) * bytesPerSample

	out := bytes.NewBuffer(make([]byte, 0, wavHeaderSize+dataSize))

	out.WriteString("RIFF")
	writeUint32(out, uint32(wavHeaderSize+dataSize-riffSizeTrailer))
	out.WriteString("WAVE")

	out.WriteString("fmt ")
	writeUint32(out, fmtChunkSize)
	writeUint16(out, pcmFormatTag)
	writeUint16(out, monoChannels)
	writeUint32(out, uint32(buf.SampleRate))
	writeUint32(out, uint32(buf.SampleRate*monoChannels*bytesPerSample))
	writeUint16(out, monoChannels*bytesPerSample)
	writeUint16(out, bitsPerSample)

	out.WriteString("data")
	writeUint32(out, uint32(dataSize))

	for _, sample := range buf.Samples {
		writeUint16(out, uint16(sampleToPCM16(sample)))
	}

	return out.Bytes()
}

func sampleToPCM16(sample float32) int16 {
	clipped := float64(sample)
	if clipped > 1.0 {
		clipped = 1.0
	} else if clipped < -1.0 {
		clipped = -1.0
	}

	return int16(math.Round(clipped * math.MaxInt16))
}

func writeUint32(out *bytes.Buffer, v uint32) {
	var b [4]byte

	binary.LittleEndian.PutUint32(b[:], v)
	out.Write(b[:])
}

func writeUint16(out *bytes.Buffer, v uint16) {
	var b [2]byte

	binary.LittleEndian.PutUint16(b[:], v)
	out.Write(b[:])
}
