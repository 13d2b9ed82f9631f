package testutil

import (
	"encoding/binary"
	"errors"
	"testing"
)

// WAV format codes.
const (
	FormatPCM       = 1
	FormatIEEEFloat = 3
)

// WAVHeader is the subset of the fmt chunk the assertions inspect.
type WAVHeader struct {
	AudioFormat uint16
	Channels    uint16
	SampleRate  uint32
	BitDepth    uint16
	DataBytes   uint32
}

// Samples returns the number of frames in the data chunk.
func (h WAVHeader) Samples() int {
	frame := int(h.Channels) * int(h.BitDepth) / 8
	if frame == 0 {
		return 0
	}
	return int(h.DataBytes) / frame
}

// ParseWAVHeader reads the RIFF, fmt and data chunk headers.
func ParseWAVHeader(data []byte) (WAVHeader, error) {
	if len(data) < 44 {
		return WAVHeader{}, errors.New("WAV data too short")
	}
	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return WAVHeader{}, errors.New("missing RIFF/WAVE header")
	}
	if string(data[12:16]) != "fmt " {
		return WAVHeader{}, errors.New("missing fmt chunk")
	}

	h := WAVHeader{
		AudioFormat: binary.LittleEndian.Uint16(data[20:22]),
		Channels:    binary.LittleEndian.Uint16(data[22:24]),
		SampleRate:  binary.LittleEndian.Uint32(data[24:28]),
		BitDepth:    binary.LittleEndian.Uint16(data[34:36]),
	}

	size, err := findDataChunkSize(data)
	if err != nil {
		return WAVHeader{}, err
	}
	h.DataBytes = size
	return h, nil
}

// AssertValidWAV checks that data is a mono WAV file at sampleRate in the
// given format code (FormatPCM implies 16-bit, FormatIEEEFloat 32-bit) with
// at least one sample.
func AssertValidWAV(tb testing.TB, data []byte, sampleRate int, format uint16) WAVHeader {
	tb.Helper()

	h, err := ParseWAVHeader(data)
	if err != nil {
		tb.Fatalf("WAV: %v", err)
	}
	if h.AudioFormat != format {
		tb.Fatalf("WAV: format code = %d; want %d", h.AudioFormat, format)
	}
	if h.Channels != 1 {
		tb.Fatalf("WAV: expected mono, got %d channels", h.Channels)
	}
	if int(h.SampleRate) != sampleRate {
		tb.Fatalf("WAV: sample rate = %d; want %d", h.SampleRate, sampleRate)
	}

	wantBits := uint16(16)
	if format == FormatIEEEFloat {
		wantBits = 32
	}
	if h.BitDepth != wantBits {
		tb.Fatalf("WAV: bit depth = %d; want %d", h.BitDepth, wantBits)
	}
	if h.Samples() == 0 {
		tb.Fatal("WAV: data chunk contains zero samples")
	}
	return h
}

// AssertWAVDurationApprox asserts that the duration falls within [minSec, maxSec].
func AssertWAVDurationApprox(tb testing.TB, data []byte, minSec, maxSec float64) {
	tb.Helper()

	h, err := ParseWAVHeader(data)
	if err != nil {
		tb.Fatalf("WAV duration check: %v", err)
	}
	if h.SampleRate == 0 {
		tb.Fatal("WAV duration check: zero sample rate")
	}

	durationSec := float64(h.Samples()) / float64(h.SampleRate)
	if durationSec < minSec || durationSec > maxSec {
		tb.Fatalf("WAV duration %.3fs out of expected range [%.3fs, %.3fs]", durationSec, minSec, maxSec)
	}
}

// findDataChunkSize walks the chunk list after the RIFF header to the data chunk.
func findDataChunkSize(data []byte) (uint32, error) {
	offset := 12
	for offset+8 <= len(data) {
		id := string(data[offset : offset+4])
		size := binary.LittleEndian.Uint32(data[offset+4 : offset+8])
		if id == "data" {
			return size, nil
		}

		offset += 8 + int(size)
		if size%2 != 0 {
			offset++
		}
	}

	return 0, errors.New("data chunk not found in WAV")
}
