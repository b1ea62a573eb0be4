package observe

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestMetrics(t *testing.T) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	return m, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	return rm
}

func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func TestRecordJudgeCall(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordJudgeCall(ctx, PurposeEvaluate, 2*time.Second, nil)
	m.RecordJudgeCall(ctx, PurposeEvaluate, time.Second, errors.New("timeout"))
	m.RecordJudgeCall(ctx, PurposeClassify, time.Second, nil)

	rm := collect(t, reader)

	calls := findMetric(rm, "intake.judge.calls")
	if calls == nil {
		t.Fatal("intake.judge.calls not found")
	}
	sum, ok := calls.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("unexpected data type %T", calls.Data)
	}

	counts := map[[2]string]int64{}
	for _, dp := range sum.DataPoints {
		purpose, _ := dp.Attributes.Value(attribute.Key("purpose"))
		status, _ := dp.Attributes.Value(attribute.Key("status"))
		counts[[2]string{purpose.AsString(), status.AsString()}] = dp.Value
	}

	want := map[[2]string]int64{
		{PurposeEvaluate, "ok"}:    1,
		{PurposeEvaluate, "error"}: 1,
		{PurposeClassify, "ok"}:    1,
	}
	for k, v := range want {
		if counts[k] != v {
			t.Errorf("calls%v = %d, want %d", k, counts[k], v)
		}
	}

	dur := findMetric(rm, "intake.judge.duration")
	if dur == nil {
		t.Fatal("intake.judge.duration not found")
	}
	hist, ok := dur.Data.(metricdata.Histogram[float64])
	if !ok {
		t.Fatalf("unexpected data type %T", dur.Data)
	}
	var total uint64
	for _, dp := range hist.DataPoints {
		total += dp.Count
	}
	if total != 3 {
		t.Errorf("duration observations = %d, want 3", total)
	}
}

func TestRecordTransition(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordTransition(ctx, TransitionSkip)
	m.RecordTransition(ctx, TransitionRepeat)
	m.RecordTransition(ctx, TransitionRepeat)

	rm := collect(t, reader)
	tr := findMetric(rm, "intake.topic.transitions")
	if tr == nil {
		t.Fatal("intake.topic.transitions not found")
	}
	sum := tr.Data.(metricdata.Sum[int64])

	got := map[string]int64{}
	for _, dp := range sum.DataPoints {
		kind, _ := dp.Attributes.Value(attribute.Key("kind"))
		got[kind.AsString()] = dp.Value
	}
	if got[TransitionSkip] != 1 || got[TransitionRepeat] != 2 {
		t.Errorf("transitions = %v, want skip=1 repeat=2", got)
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.RecordJudgeCall(context.Background(), PurposeEvaluate, time.Second, nil)
	m.RecordTransition(context.Background(), TransitionAdvance)
}

func TestNewMetricsWithNoopProvider(t *testing.T) {
	m, err := NewMetrics(noop.NewMeterProvider())
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	m.RecordTransition(context.Background(), TransitionAdvance)
}
