// Package observe holds the OpenTelemetry metric instruments for the cloning
// pipeline and the Prometheus bridge that exposes them.
//
// Tests should build Metrics with [NewMetrics] over their own
// [metric.MeterProvider]; [Nop] returns instruments that record nothing.
package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const meterName = "github.com/example/go-voice-clone"

// Metrics holds the pipeline's instruments. Safe for concurrent use.
type Metrics struct {
	// StageDuration tracks per-stage latency. Attribute: stage.
	StageDuration metric.Float64Histogram

	// Cycles counts finished session cycles. Attribute: status (ok|failed).
	Cycles metric.Int64Counter

	// StageFailures counts failed cycles by the stage that failed.
	StageFailures metric.Int64Counter

	// AudioSeconds accumulates the duration of generated audio.
	AudioSeconds metric.Float64Counter
}

// latencyBuckets in seconds; inference on CPU can take tens of seconds.
var latencyBuckets = []float64{
	0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60,
}

// NewMetrics creates the instruments on mp.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.StageDuration, err = m.Float64Histogram("voiceclone.stage.duration",
		metric.WithDescription("Latency of a pipeline stage."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.Cycles, err = m.Int64Counter("voiceclone.cycles",
		metric.WithDescription("Session cycles by outcome."),
	); err != nil {
		return nil, err
	}
	if met.StageFailures, err = m.Int64Counter("voiceclone.stage.failures",
		metric.WithDescription("Failed cycles by failing stage."),
	); err != nil {
		return nil, err
	}
	if met.AudioSeconds, err = m.Float64Counter("voiceclone.audio.generated",
		metric.WithDescription("Seconds of audio generated."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}
	return met, nil
}

// Nop returns metrics that discard every measurement.
func Nop() *Metrics {
	m, err := NewMetrics(noop.NewMeterProvider())
	if err != nil {
		panic("observe: noop metrics: " + err.Error())
	}
	return m
}

// RecordStage records how long stage took.
func (m *Metrics) RecordStage(ctx context.Context, stage string, d time.Duration) {
	m.StageDuration.Record(ctx, d.Seconds(), metric.WithAttributes(attribute.String("stage", stage)))
}

// RecordCycle counts a finished cycle. failedStage is empty for a success.
func (m *Metrics) RecordCycle(ctx context.Context, failedStage string) {
	status := "ok"
	if failedStage != "" {
		status = "failed"
		m.StageFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("stage", failedStage)))
	}
	m.Cycles.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}

// RecordAudio adds d of generated audio.
func (m *Metrics) RecordAudio(ctx context.Context, d time.Duration) {
	m.AudioSeconds.Add(ctx, d.Seconds())
}
