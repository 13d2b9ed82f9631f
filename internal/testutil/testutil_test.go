package testutil_test

import (
	"path/filepath"
	"testing"

	"github.com/example/go-voice-clone/internal/audio"
	"github.com/example/go-voice-clone/internal/testutil"
)

func TestRequireONNXRuntime_SkipsWhenAbsent(t *testing.T) {
	t.Setenv("VOICECLONE_ORT_LIB", "/nonexistent/libonnxruntime.so")

	skipped := false
	fakeT := &skipTracker{TB: t, onSkip: func() { skipped = true }}
	testutil.RequireONNXRuntime(fakeT)
	if !skipped {
		t.Error("expected RequireONNXRuntime to skip when library is absent")
	}
}

func TestRequireModels_SkipsWhenUnset(t *testing.T) {
	t.Setenv(testutil.ModelsDirEnv, "")

	skipped := false
	fakeT := &skipTracker{TB: t, onSkip: func() { skipped = true }}
	testutil.RequireModels(fakeT)
	if !skipped {
		t.Error("expected RequireModels to skip when env is unset")
	}
}

func TestRequireModels_SkipsWhenIncomplete(t *testing.T) {
	t.Setenv(testutil.ModelsDirEnv, filepath.Join(t.TempDir(), "models"))

	skipped := false
	fakeT := &skipTracker{TB: t, onSkip: func() { skipped = true }}
	testutil.RequireModels(fakeT)
	if !skipped {
		t.Error("expected RequireModels to skip when files are missing")
	}
}

func TestAssertValidWAV(t *testing.T) {
	w := audio.Waveform{Samples: make([]float32, 160), SampleRate: 16000}

	tests := []struct {
		format audio.Format
		code   uint16
	}{
		{audio.FormatFloat32, testutil.FormatIEEEFloat},
		{audio.FormatPCM16, testutil.FormatPCM},
	}
	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			data, err := audio.Encode(w, tt.format)
			if err != nil {
				t.Fatalf("Encode: %v", err)
			}
			h := testutil.AssertValidWAV(t, data, 16000, tt.code)
			if h.Samples() != 160 {
				t.Errorf("Samples = %d; want 160", h.Samples())
			}
			testutil.AssertWAVDurationApprox(t, data, 0.009, 0.011)
		})
	}
}

func TestParseWAVHeader_Rejects(t *testing.T) {
	for _, data := range [][]byte{nil, make([]byte, 44), []byte("RIFF\x00\x00\x00\x00WAVEjunk" + string(make([]byte, 40)))} {
		if _, err := testutil.ParseWAVHeader(data); err == nil {
			t.Errorf("ParseWAVHeader(%d bytes) = nil error", len(data))
		}
	}
}

// skipTracker is a minimal testing.TB implementation that intercepts Skip calls.
type skipTracker struct {
	testing.TB
	onSkip func()
}

func (s *skipTracker) Helper() {}

func (s *skipTracker) Skip(_ ...any) { s.onSkip() }

func (s *skipTracker) Skipf(_ string, _ ...any) { s.onSkip() }
