package audio

import (
	"fmt"
	"strings"
)

// Format selects the sample encoding of a written WAV file.
type Format string

const (
	FormatFloat32 Format = "float32"
	FormatPCM16   Format = "pcm16"
)

// ParseFormat normalizes a format name. An empty string selects FormatFloat32.
func ParseFormat(raw string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "float32", "f32", "float":
		return FormatFloat32, nil
	case "pcm16", "s16", "int16":
		return FormatPCM16, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want float32|pcm16)", raw)
	}
}

// Encode writes w as a mono WAV file in the requested format.
func Encode(w Waveform, format Format) ([]byte, error) {
	switch format {
	case FormatFloat32, "":
		return EncodeWAVFloat32(w.Samples, w.SampleRate)
	case FormatPCM16:
		return EncodeWAV(w.Samples, w.SampleRate)
	default:
		return nil, fmt.Errorf("unsupported output format %q", format)
	}
}
