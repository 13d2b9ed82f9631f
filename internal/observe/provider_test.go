package observe

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestProviderHandlerExposesMetrics(t *testing.T) {
	p, err := InitProvider(context.Background(), ProviderConfig{})
	if err != nil {
		t.Fatalf("InitProvider: %v", err)
	}
	t.Cleanup(func() { _ = p.Shutdown(context.Background()) })

	if p.Addr() != "" {
		t.Errorf("Addr = %q; want empty without a listen address", p.Addr())
	}

	p.Metrics.RecordStage(context.Background(), "vocode", 2*time.Second)
	p.Metrics.RecordCycle(context.Background(), "")

	rec := httptest.NewRecorder()
	p.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()

	for _, want := range []string{"voiceclone_stage_duration", "voiceclone_cycles", `stage="vocode"`} {
		if !strings.Contains(body, want) {
			t.Errorf("exposition missing %q", want)
		}
	}
}

func TestProviderServesMetrics(t *testing.T) {
	p, err := InitProvider(context.Background(), ProviderConfig{ListenAddr: "127.0.0.1:0"})
	if err != nil {
		t.Fatalf("InitProvider: %v", err)
	}

	p.Metrics.RecordCycle(context.Background(), "Vocode")

	resp, err := http.Get("http://" + p.Addr() + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d; want 200", resp.StatusCode)
	}
	if !strings.Contains(string(body), "voiceclone_stage_failures") {
		t.Errorf("body missing stage failures:\n%s", body)
	}

	if err := p.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if _, err := http.Get("http://" + p.Addr() + "/metrics"); err == nil {
		t.Error("server still answering after Shutdown")
	}
}

func TestProviderBadListenAddr(t *testing.T) {
	if _, err := InitProvider(context.Background(), ProviderConfig{ListenAddr: "not-an-addr"}); err == nil {
		t.Error("InitProvider succeeded; want listen error")
	}
}
