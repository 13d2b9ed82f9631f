package vocoder

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/example/go-voice-clone/internal/model"
	"github.com/example/go-voice-clone/internal/model/modeltest"
	"github.com/example/go-voice-clone/internal/onnx/onnxtest"
	"github.com/example/go-voice-clone/internal/voice"
)

type recordingSink struct {
	reports []Progress
}

func (r *recordingSink) Progress(p Progress) { r.reports = append(r.reports, p) }

func constantMel(t *testing.T, channels, frames int, v float32) voice.MelSpectrogram {
	t.Helper()
	data := make([]float32, channels*frames)
	for i := range data {
		data[i] = v
	}
	mel, err := voice.NewMelSpectrogram(channels, frames, data)
	if err != nil {
		t.Fatalf("NewMelSpectrogram: %v", err)
	}
	return mel
}

func newTestVocoder(t *testing.T) (*Vocoder, *modeltest.Fakes) {
	t.Helper()
	reg, fakes := modeltest.NewRegistry(t, false)
	return New(reg.Vocoder(), reg.Metadata().Vocoder), fakes
}

func TestInferLength(t *testing.T) {
	v, _ := newTestVocoder(t)
	meta := modeltest.Metadata().Vocoder

	tests := []struct {
		frames          int
		target, overlap int
	}{
		{1, DefaultTarget, DefaultOverlap},
		{7, 200, 50},
		{37, 200, 50},
		{100, 200, 50},
		{250, DefaultTarget, DefaultOverlap},
		{13, 10, 0},
	}

	for _, tt := range tests {
		mel := constantMel(t, meta.MelChannels, tt.frames, 1)
		w, err := v.Infer(context.Background(), mel, tt.target, tt.overlap, NopProgress{})
		if err != nil {
			t.Fatalf("Infer(%d frames): %v", tt.frames, err)
		}
		if want := tt.frames * meta.HopSize; w.Len() != want {
			t.Errorf("Infer(%d frames, %d/%d) len = %d; want %d", tt.frames, tt.target, tt.overlap, w.Len(), want)
		}
		if w.SampleRate != meta.SampleRate {
			t.Errorf("SampleRate = %d; want %d", w.SampleRate, meta.SampleRate)
		}
	}
}

func TestInferConcatenationLength(t *testing.T) {
	v, _ := newTestVocoder(t)
	meta := modeltest.Metadata().Vocoder

	a := constantMel(t, meta.MelChannels, 18, 2)
	b := constantMel(t, meta.MelChannels, 11, -1)
	joined, err := voice.ConcatMels(a, b)
	if err != nil {
		t.Fatalf("ConcatMels: %v", err)
	}

	var total int
	for _, m := range []voice.MelSpectrogram{a, b} {
		w, err := v.Infer(context.Background(), m, 200, 50, nil)
		if err != nil {
			t.Fatalf("Infer: %v", err)
		}
		total += w.Len()
	}
	w, err := v.Infer(context.Background(), joined, 200, 50, nil)
	if err != nil {
		t.Fatalf("Infer: %v", err)
	}
	if w.Len() != total {
		t.Errorf("joined len = %d; want %d", w.Len(), total)
	}
}

func TestInferScalesAndFadesTail(t *testing.T) {
	v, _ := newTestVocoder(t)
	meta := modeltest.Metadata().Vocoder

	mel := constantMel(t, meta.MelChannels, 40, 2)
	w, err := v.Infer(context.Background(), mel, DefaultTarget, DefaultOverlap, nil)
	if err != nil {
		t.Fatalf("Infer: %v", err)
	}

	// One chunk covers everything; the fake echoes the scaled mel.
	want := float32(2 / meta.MaxAbsValue)
	if w.Samples[0] != want {
		t.Errorf("first sample = %v; want %v", w.Samples[0], want)
	}
	if last := w.Samples[w.Len()-1]; last != 0 {
		t.Errorf("last sample = %v; want 0 after fade-out", last)
	}
	fadeStart := w.Len() - tailFadeHops*meta.HopSize
	if w.Samples[fadeStart-1] != want {
		t.Errorf("sample before fade = %v; want %v", w.Samples[fadeStart-1], want)
	}
}

func TestInferProgress(t *testing.T) {
	v, fakes := newTestVocoder(t)
	meta := modeltest.Metadata().Vocoder

	sink := &recordingSink{}
	mel := constantMel(t, meta.MelChannels, 30, 1)
	if _, err := v.Infer(context.Background(), mel, 200, 50, sink); err != nil {
		t.Fatalf("Infer: %v", err)
	}

	calls := len(fakes.Vocoder.Calls())
	if calls < 2 {
		t.Fatalf("graph calls = %d; want the spectrogram split into several chunks", calls)
	}
	if len(sink.reports) != calls {
		t.Fatalf("reports = %d; want one per chunk (%d)", len(sink.reports), calls)
	}
	for i, p := range sink.reports {
		if p.Chunk != i+1 || p.Chunks != calls {
			t.Errorf("report %d = %d/%d; want %d/%d", i, p.Chunk, p.Chunks, i+1, calls)
		}
		if i > 0 && p.Samples <= sink.reports[i-1].Samples {
			t.Errorf("report %d samples did not grow: %d", i, p.Samples)
		}
	}
}

func TestInferErrors(t *testing.T) {
	meta := modeltest.Metadata().Vocoder
	boom := errors.New("boom")

	t.Run("channel mismatch", func(t *testing.T) {
		v, _ := newTestVocoder(t)
		mel := constantMel(t, meta.MelChannels+1, 4, 1)
		if _, err := v.Infer(context.Background(), mel, 200, 50, nil); !errors.Is(err, voice.ErrShapeMismatch) {
			t.Errorf("err = %v; want ErrShapeMismatch", err)
		}
	})

	t.Run("bad chunking", func(t *testing.T) {
		v, _ := newTestVocoder(t)
		mel := constantMel(t, meta.MelChannels, 4, 1)
		if _, err := v.Infer(context.Background(), mel, 0, 50, nil); err == nil {
			t.Error("target 0 accepted")
		}
		if _, err := v.Infer(context.Background(), mel, 200, -1, nil); err == nil {
			t.Error("negative overlap accepted")
		}
	})

	t.Run("graph failure", func(t *testing.T) {
		h := model.NewHandle(onnxtest.NewRunner(model.VocoderName, onnxtest.Failing(boom)), nil, false)
		v := New(h, meta)
		mel := constantMel(t, meta.MelChannels, 4, 1)
		if _, err := v.Infer(context.Background(), mel, 200, 50, nil); !errors.Is(err, boom) {
			t.Errorf("err = %v; want boom", err)
		}
	})

	t.Run("wrong output length", func(t *testing.T) {
		h := model.NewHandle(onnxtest.NewRunner(model.VocoderName, onnxtest.Vocoder(meta.HopSize+1)), nil, false)
		v := New(h, meta)
		mel := constantMel(t, meta.MelChannels, 4, 1)
		if _, err := v.Infer(context.Background(), mel, 200, 50, nil); err == nil {
			t.Error("Infer succeeded; want error")
		}
	})
}

func TestProgressRate(t *testing.T) {
	p := Progress{Samples: 16000, Elapsed: 2 * time.Second}
	if got := p.Rate(); got != 8 {
		t.Errorf("Rate = %v; want 8", got)
	}
	if got := (Progress{Samples: 10}).Rate(); got != 0 {
		t.Errorf("zero elapsed Rate = %v; want 0", got)
	}
}

func TestTerminalProgress(t *testing.T) {
	var buf bytes.Buffer
	sink := TerminalProgress{W: &buf, Width: 4}

	sink.Progress(Progress{Chunk: 1, Chunks: 2, Samples: 1000, Elapsed: time.Second})
	first := buf.String()
	if !strings.HasPrefix(first, "\r| ██░░ 1/2 |") {
		t.Errorf("first line = %q", first)
	}
	if !strings.Contains(first, "Gen Rate: 1.0kHz") {
		t.Errorf("rate missing from %q", first)
	}
	if strings.HasSuffix(first, "\n") {
		t.Error("line ended before the last chunk")
	}

	sink.Progress(Progress{Chunk: 2, Chunks: 2, Samples: 2000, Elapsed: time.Second})
	if !strings.HasSuffix(buf.String(), "\n") {
		t.Error("line not ended after the last chunk")
	}

	TerminalProgress{}.Progress(Progress{Chunk: 1, Chunks: 1})
}

func TestLogProgress(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	LogProgress{Logger: logger}.Progress(Progress{Chunk: 3, Chunks: 5, Samples: 900})
	out := buf.String()
	for _, want := range []string{"vocoder progress", "chunk=3", "chunks=5", "samples=900"} {
		if !strings.Contains(out, want) {
			t.Errorf("log %q missing %q", out, want)
		}
	}
}
