package audio

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"
)

// --- EncodeWAVFloat32 ---

func TestEncodeWAVFloat32_InvalidSampleRate(t *testing.T) {
	for _, rate := range []int{0, -1} {
		if _, err := EncodeWAVFloat32([]float32{0.1}, rate); err == nil {
			t.Errorf("EncodeWAVFloat32(rate=%d) = nil; want error", rate)
		}
	}
}

func TestEncodeWAVFloat32_Header(t *testing.T) {
	samples := []float32{0.0, 0.5, -0.5, 1.5}

	data, err := EncodeWAVFloat32(samples, 16000)
	if err != nil {
		t.Fatalf("EncodeWAVFloat32 error = %v", err)
	}

	if !bytes.HasPrefix(data, []byte("RIFF")) || string(data[8:12]) != "WAVE" {
		t.Fatal("missing RIFF/WAVE markers")
	}
	if got := binary.LittleEndian.Uint32(data[4:8]); int(got) != len(data)-8 {
		t.Errorf("RIFF size = %d; want %d", got, len(data)-8)
	}
	if got := binary.LittleEndian.Uint16(data[20:22]); got != 3 {
		t.Errorf("format tag = %d; want 3 (IEEE float)", got)
	}
	if got := binary.LittleEndian.Uint32(data[24:28]); got != 16000 {
		t.Errorf("sample rate = %d; want 16000", got)
	}
	if got := binary.LittleEndian.Uint16(data[34:36]); got != 32 {
		t.Errorf("bits per sample = %d; want 32", got)
	}
	if string(data[36:40]) != "data" {
		t.Errorf("data marker = %q; want data at offset 36", data[36:40])
	}
	if got := binary.LittleEndian.Uint32(data[40:44]); got != uint32(len(samples)*4) {
		t.Errorf("data size = %d; want %d", got, len(samples)*4)
	}
	if len(data) != 44+len(samples)*4 {
		t.Errorf("len = %d; want %d", len(data), 44+len(samples)*4)
	}
}

func TestEncodeWAVFloat32_SamplesClamped(t *testing.T) {
	samples := []float32{0.25, -1.5, 2, -0.75}
	want := []float32{0.25, -1, 1, -0.75}

	data, err := EncodeWAVFloat32(samples, 8000)
	if err != nil {
		t.Fatal(err)
	}

	const dataStart = 44
	for i := range want {
		got := math.Float32frombits(binary.LittleEndian.Uint32(data[dataStart+i*4:]))
		if got != want[i] {
			t.Errorf("sample[%d] = %v; want %v", i, got, want[i])
		}
	}
}

func TestEncodeWAVFloat32_DecodeRoundTrip(t *testing.T) {
	samples := []float32{0, 0.125, -0.5, 0.999}

	data, err := EncodeWAVFloat32(samples, 24000)
	if err != nil {
		t.Fatal(err)
	}
	w, err := DecodeWAV(data)
	if err != nil {
		t.Fatalf("DecodeWAV error = %v", err)
	}
	if w.SampleRate != 24000 {
		t.Errorf("SampleRate = %d; want 24000", w.SampleRate)
	}
	if w.Len() != len(samples) {
		t.Fatalf("Len = %d; want %d", w.Len(), len(samples))
	}
	for i, want := range samples {
		if w.Samples[i] != want {
			t.Errorf("sample[%d] = %v; want %v", i, w.Samples[i], want)
		}
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatFloat32, false},
		{"float32", FormatFloat32, false},
		{"PCM16", FormatPCM16, false},
		{"mp3", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFormat(%q) err = %v; wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %q; want %q", tt.in, got, tt.want)
		}
	}
}

func TestEncode_DispatchesOnFormat(t *testing.T) {
	w := Waveform{Samples: []float32{0, 0.1}, SampleRate: 16000}

	f32, err := Encode(w, FormatFloat32)
	if err != nil {
		t.Fatal(err)
	}
	if got := binary.LittleEndian.Uint16(f32[20:22]); got != 3 {
		t.Errorf("float32 format tag = %d; want 3", got)
	}

	pcm, err := Encode(w, FormatPCM16)
	if err != nil {
		t.Fatal(err)
	}
	if got := binary.LittleEndian.Uint16(pcm[20:22]); got != 1 {
		t.Errorf("pcm16 format tag = %d; want 1", got)
	}
}
