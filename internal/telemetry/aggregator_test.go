package telemetry

import (
	"math"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/WilmerZL/Modelamiento-de-celdas/internal/observability"
)

func TestAggregator_SinrSampleConvertsToDb(t *testing.T) {
	a := NewAggregator()

	// Linear 100 → 20 dB, linear 10 → 10 dB.
	a.OnSinrSample(1, 100)
	a.OnSinrSample(1, 10)

	m, ok := a.Channel(1)
	if !ok {
		t.Fatalf("expected channel metrics for imsi 1")
	}
	if m.Samples != 2 {
		t.Fatalf("samples = %d, want 2", m.Samples)
	}
	if math.Abs(m.SumSinrDb-30) > 1e-9 {
		t.Errorf("sum sinr = %g dB, want 30", m.SumSinrDb)
	}
	if math.Abs(m.MaxSinrDb-20) > 1e-9 || math.Abs(m.MinSinrDb-10) > 1e-9 {
		t.Errorf("min/max = %g/%g dB, want 10/20", m.MinSinrDb, m.MaxSinrDb)
	}
}

func TestAggregator_NonPositiveSinrIgnored(t *testing.T) {
	a := NewAggregator()

	a.OnSinrSample(1, 0)
	a.OnSinrSample(1, -3.5)

	if _, ok := a.Channel(1); ok {
		t.Fatalf("non-positive samples must not create channel state")
	}
	if got := a.SinrHistory(1); got != nil {
		t.Fatalf("history = %v, want nil", got)
	}
}

func TestAggregator_HistoryCapEviction(t *testing.T) {
	a := NewAggregator()

	// 1005 samples of increasing linear SINR; the history keeps the
	// most recent 1000, but the running sums still cover all of them.
	for i := 0; i < 1005; i++ {
		a.OnSinrSample(7, float64(i+1))
	}

	hist := a.SinrHistory(7)
	if len(hist) != SinrHistoryCap {
		t.Fatalf("history length = %d, want %d", len(hist), SinrHistoryCap)
	}
	// Oldest retained sample is the 6th: 10·log10(6).
	if want := 10 * math.Log10(6); math.Abs(hist[0]-want) > 1e-9 {
		t.Errorf("oldest retained sample = %g, want %g", hist[0], want)
	}

	m, _ := a.Channel(7)
	if m.Samples != 1005 {
		t.Errorf("samples = %d, want 1005 (running sums are not windowed)", m.Samples)
	}
}

func TestAggregator_RsrpRsrqSums(t *testing.T) {
	a := NewAggregator()

	a.OnRsrpSample(3, 1, -95.5)
	a.OnRsrpSample(3, 2, -100.5) // reporting cell is irrelevant
	a.OnRsrqSample(3, 1, -10.25)

	m, ok := a.Channel(3)
	if !ok {
		t.Fatalf("expected channel metrics for imsi 3")
	}
	if math.Abs(m.SumRsrpDbm-(-196.0)) > 1e-9 {
		t.Errorf("sum rsrp = %g, want -196", m.SumRsrpDbm)
	}
	if math.Abs(m.SumRsrqDb-(-10.25)) > 1e-9 {
		t.Errorf("sum rsrq = %g, want -10.25", m.SumRsrqDb)
	}
	if m.Samples != 0 {
		t.Errorf("RSRP/RSRQ must not advance the SINR sample count, got %d", m.Samples)
	}
}

func TestAggregator_HandoverCounters(t *testing.T) {
	a := NewAggregator()

	a.OnHandoverStart(1, 0, 1)
	a.OnHandoverStart(2, 1, 0)
	a.OnHandoverStart(3, 0, 2)
	a.OnHandoverSuccess(1, 0, 1)
	a.OnHandoverSuccess(2, 1, 0)
	a.OnHandoverFailure(3, 0, 2)

	ho := a.Handover()
	if ho.Attempts != 3 || ho.Successes != 2 || ho.Failures != 1 {
		t.Fatalf("handover counters = %+v, want attempts=3 successes=2 failures=1", ho)
	}
}

func TestAggregator_UnknownImsiIsEmpty(t *testing.T) {
	a := NewAggregator()
	if _, ok := a.Channel(99); ok {
		t.Fatalf("expected no metrics for unknown imsi")
	}
}

func TestAggregator_MirrorsIntoCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := observability.NewRunCollector(reg)
	if err != nil {
		t.Fatalf("NewRunCollector: %v", err)
	}
	a := NewAggregator(WithCollector(collector))

	a.OnSinrSample(1, 100)
	a.OnSinrSample(1, -1) // discarded
	a.OnRsrpSample(1, 0, -90)
	a.OnHandoverStart(1, 0, 1)

	if got := testutil.ToFloat64(collector.TelemetrySamples.WithLabelValues(observability.SampleSinr)); got != 1 {
		t.Errorf("sinr counter = %v, want 1", got)
	}
	if got := testutil.ToFloat64(collector.TelemetryDiscarded); got != 1 {
		t.Errorf("discarded counter = %v, want 1", got)
	}
	if got := testutil.ToFloat64(collector.TelemetrySamples.WithLabelValues(observability.SampleRsrp)); got != 1 {
		t.Errorf("rsrp counter = %v, want 1", got)
	}
	if got := testutil.ToFloat64(collector.HandoverEvents.WithLabelValues(observability.HandoverAttempt)); got != 1 {
		t.Errorf("handover attempt counter = %v, want 1", got)
	}
}
