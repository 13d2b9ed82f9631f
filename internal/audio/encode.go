package audio

import (
	"bytes"
	"fmt"

	"github.com/cwbudde/wav"
	goaudio "github.com/go-audio/audio"
)

const (
	pcmBitDepth   = 16
	floatBitDepth = 32
	monoChannels  = 1

	wavFormatPCM       = 1
	wavFormatIEEEFloat = 3
)

// EncodeWAV encodes float32 samples as a mono 16-bit PCM WAV byte slice.
func EncodeWAV(samples []float32, sampleRate int) ([]byte, error) {
	return encodeMono(samples, sampleRate, pcmBitDepth, wavFormatPCM)
}

// EncodeWAVFloat32 writes a mono IEEE float WAV (format tag 3). The encoder
// clamps samples to [-1, 1].
func EncodeWAVFloat32(samples []float32, sampleRate int) ([]byte, error) {
	return encodeMono(samples, sampleRate, floatBitDepth, wavFormatIEEEFloat)
}

func encodeMono(samples []float32, sampleRate, bitDepth, audioFormat int) ([]byte, error) {
	if sampleRate < 1 {
		return nil, fmt.Errorf("invalid sample rate: %d", sampleRate)
	}

	var buf bytes.Buffer

	// wav.NewEncoder requires an io.WriteSeeker; bytes.Buffer is not one.
	sw := &seekBuffer{buf: &buf}
	enc := wav.NewEncoder(sw, sampleRate, bitDepth, monoChannels, audioFormat)

	pcmBuf := &goaudio.Float32Buffer{
		Data:           samples,
		Format:         &goaudio.Format{SampleRate: sampleRate, NumChannels: monoChannels},
		SourceBitDepth: bitDepth,
	}

	if err := enc.Write(pcmBuf); err != nil {
		return nil, fmt.Errorf("writing samples: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("closing encoder: %w", err)
	}

	return buf.Bytes(), nil
}

// seekBuffer wraps a bytes.Buffer to satisfy io.WriteSeeker.
type seekBuffer struct {
	buf *bytes.Buffer
	pos int
}

func (s *seekBuffer) Write(p []byte) (int, error) {
	if s.pos == s.buf.Len() {
		n, err := s.buf.Write(p)
		s.pos += n
		return n, err
	}

	// Writing in the middle: overwrite existing bytes.
	data := s.buf.Bytes()
	n := copy(data[s.pos:], p)
	if n < len(p) {
		data = append(data, p[n:]...)
		s.buf.Reset()
		s.buf.Write(data)
		n = len(p)
	}
	s.pos += n
	return n, nil
}

func (s *seekBuffer) Seek(offset int64, whence int) (int64, error) {
	var newPos int
	switch whence {
	case 0: // io.SeekStart
		newPos = int(offset)
	case 1: // io.SeekCurrent
		newPos = s.pos + int(offset)
	case 2: // io.SeekEnd
		newPos = s.buf.Len() + int(offset)
	}
	if newPos < 0 {
		return 0, fmt.Errorf("seek before start")
	}
	s.pos = newPos
	return int64(newPos), nil
}
