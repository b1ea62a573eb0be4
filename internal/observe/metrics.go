// Package observe holds the OpenTelemetry instruments recorded by the
// interview loop. Nothing is exported unless the caller installs a
// MeterProvider; the global provider is a no-op by default.
package observe

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/berth-dev/intake"

// Judge call purposes.
const (
	PurposeEvaluate = "evaluate"
	PurposeClassify = "classify"
)

// Topic transition kinds.
const (
	TransitionAdvance = "advance"
	TransitionSkip    = "skip"
	TransitionRepeat  = "repeat"
)

// Metrics holds the instruments. A nil *Metrics is valid and records nothing.
type Metrics struct {
	// JudgeCalls counts judge calls by purpose and status (ok|error).
	JudgeCalls metric.Int64Counter

	// JudgeDuration tracks judge call latency by purpose.
	JudgeDuration metric.Float64Histogram

	// TopicTransitions counts controller decisions by kind.
	TopicTransitions metric.Int64Counter
}

// latencyBuckets are in seconds; judge calls range from sub-second API calls
// to CLI round trips of tens of seconds.
var latencyBuckets = []float64{
	0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 40, 60,
}

// NewMetrics creates the instruments from mp.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.JudgeCalls, err = m.Int64Counter("intake.judge.calls",
		metric.WithDescription("Total judge calls by purpose and status."),
	); err != nil {
		return nil, err
	}
	if met.JudgeDuration, err = m.Float64Histogram("intake.judge.duration",
		metric.WithDescription("Latency of judge calls."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.TopicTransitions, err = m.Int64Counter("intake.topic.transitions",
		metric.WithDescription("Interview turns by outcome."),
	); err != nil {
		return nil, err
	}

	return met, nil
}

var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns a package-level Metrics built from the global
// provider.
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// RecordJudgeCall records one judge call and its latency.
func (m *Metrics) RecordJudgeCall(ctx context.Context, purpose string, d time.Duration, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.JudgeCalls.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("purpose", purpose),
			attribute.String("status", status),
		),
	)
	m.JudgeDuration.Record(ctx, d.Seconds(),
		metric.WithAttributes(attribute.String("purpose", purpose)),
	)
}

// RecordTransition records a controller decision.
func (m *Metrics) RecordTransition(ctx context.Context, kind string) {
	if m == nil {
		return
	}
	m.TopicTransitions.Add(ctx, 1,
		metric.WithAttributes(attribute.String("kind", kind)),
	)
}
