package observe

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.30.0"
)

type ProviderConfig struct {
	// ServiceName reported in telemetry. Default: "voiceclone".
	ServiceName    string
	ServiceVersion string
	// ListenAddr serves /metrics when set, e.g. ":9464" or "127.0.0.1:0".
	ListenAddr string
}

// Provider owns the meter provider and the optional /metrics server.
type Provider struct {
	MeterProvider *sdkmetric.MeterProvider
	Metrics       *Metrics

	handler  http.Handler
	server   *http.Server
	listener net.Listener
	served   chan struct{}
}

// InitProvider sets up a meter provider exporting to a private Prometheus
// registry, registers it as the global provider and starts the metrics
// server when cfg.ListenAddr is set.
func InitProvider(ctx context.Context, cfg ProviderConfig) (*Provider, error) {
	if cfg.ServiceName == "" {
		cfg.ServiceName = "voiceclone"
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
		),
	)
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	exporter, err := promexporter.New(promexporter.WithRegisterer(registry))
	if err != nil {
		return nil, err
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)
	otel.SetMeterProvider(mp)

	metrics, err := NewMetrics(mp)
	if err != nil {
		_ = mp.Shutdown(ctx)
		return nil, err
	}

	p := &Provider{
		MeterProvider: mp,
		Metrics:       metrics,
		handler:       promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	}

	if cfg.ListenAddr != "" {
		if err := p.serve(cfg.ListenAddr); err != nil {
			_ = mp.Shutdown(ctx)
			return nil, err
		}
	}
	return p, nil
}

// Handler serves the Prometheus exposition of all recorded metrics.
func (p *Provider) Handler() http.Handler { return p.handler }

// Addr returns the metrics server address, or "" when not serving.
func (p *Provider) Addr() string {
	if p.listener == nil {
		return ""
	}
	return p.listener.Addr().String()
}

func (p *Provider) serve(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", p.handler)
	p.server = &http.Server{Handler: mux}
	p.listener = ln
	p.served = make(chan struct{})

	go func() {
		defer close(p.served)
		if err := p.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server stopped", "error", err)
		}
	}()
	slog.Info("serving metrics", "addr", ln.Addr().String())
	return nil
}

// Shutdown stops the metrics server and flushes the meter provider.
func (p *Provider) Shutdown(ctx context.Context) error {
	var errs []error
	if p.server != nil {
		if err := p.server.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
		<-p.served
	}
	if err := p.MeterProvider.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
