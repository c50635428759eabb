package observability

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Telemetry sample kinds, used as the label value on TelemetrySamples.
const (
	SampleSinr = "sinr"
	SampleRsrp = "rsrp"
	SampleRsrq = "rsrq"
)

// Handover event kinds, used as the label value on HandoverEvents.
const (
	HandoverAttempt = "attempt"
	HandoverSuccess = "success"
	HandoverFailure = "failure"
)

// RunCollector bundles Prometheus metrics for one simulation run and
// provides an HTTP handler to expose them.
type RunCollector struct {
	gatherer prometheus.Gatherer

	TelemetrySamples   *prometheus.CounterVec
	TelemetryDiscarded prometheus.Counter
	HandoverEvents     *prometheus.CounterVec

	ScenarioCells prometheus.Gauge
	ScenarioUEs   prometheus.Gauge
	FlowsScored   prometheus.Gauge

	ScoringDuration prometheus.Histogram
}

// NewRunCollector registers run metrics against the provided registerer,
// defaulting to the global Prometheus registry when nil.
func NewRunCollector(reg prometheus.Registerer) (*RunCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	samples := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "nrsim_telemetry_samples_total",
		Help: "Total telemetry samples accepted by the aggregator, labeled by sample kind.",
	}, []string{"kind"})
	samples, err := registerCounterVec(reg, samples, "nrsim_telemetry_samples_total")
	if err != nil {
		return nil, err
	}

	discarded := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "nrsim_telemetry_samples_discarded_total",
		Help: "SINR samples discarded because the reported linear value was not positive.",
	})
	discarded, err = registerCounter(reg, discarded, "nrsim_telemetry_samples_discarded_total")
	if err != nil {
		return nil, err
	}

	handovers := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "nrsim_handover_events_total",
		Help: "Handover events reported by the radio engine, labeled by event kind.",
	}, []string{"event"})
	handovers, err = registerCounterVec(reg, handovers, "nrsim_handover_events_total")
	if err != nil {
		return nil, err
	}

	cells, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "nrsim_scenario_cells",
		Help: "Number of cells in the active scenario.",
	}), "nrsim_scenario_cells")
	if err != nil {
		return nil, err
	}
	ues, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "nrsim_scenario_ues",
		Help: "Number of user equipments in the active scenario.",
	}), "nrsim_scenario_ues")
	if err != nil {
		return nil, err
	}
	flows, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "nrsim_flows_scored",
		Help: "Number of flows matched to a traffic class and scored in the statistics pass.",
	}), "nrsim_flows_scored")
	if err != nil {
		return nil, err
	}

	scoring := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "nrsim_scoring_duration_seconds",
		Help:    "Duration of the post-run statistics and scoring pass.",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	})
	scoring, err = registerHistogram(reg, scoring, "nrsim_scoring_duration_seconds")
	if err != nil {
		return nil, err
	}

	return &RunCollector{
		gatherer:           gatherer,
		TelemetrySamples:   samples,
		TelemetryDiscarded: discarded,
		HandoverEvents:     handovers,
		ScenarioCells:      cells,
		ScenarioUEs:        ues,
		FlowsScored:        flows,
		ScoringDuration:    scoring,
	}, nil
}

// Handler exposes a ready-to-use /metrics handler.
func (c *RunCollector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// IncSample counts one accepted telemetry sample of the given kind.
func (c *RunCollector) IncSample(kind string) {
	if c == nil || c.TelemetrySamples == nil {
		return
	}
	c.TelemetrySamples.WithLabelValues(kind).Inc()
}

// IncDiscarded counts one rejected SINR sample.
func (c *RunCollector) IncDiscarded() {
	if c == nil || c.TelemetryDiscarded == nil {
		return
	}
	c.TelemetryDiscarded.Inc()
}

// IncHandover counts one handover event of the given kind.
func (c *RunCollector) IncHandover(event string) {
	if c == nil || c.HandoverEvents == nil {
		return
	}
	c.HandoverEvents.WithLabelValues(event).Inc()
}

// SetScenarioCounts records the size of the active scenario.
func (c *RunCollector) SetScenarioCounts(cells, ues int) {
	if c == nil {
		return
	}
	if c.ScenarioCells != nil {
		c.ScenarioCells.Set(float64(cells))
	}
	if c.ScenarioUEs != nil {
		c.ScenarioUEs.Set(float64(ues))
	}
}

// SetFlowsScored records how many flows the scoring pass matched.
func (c *RunCollector) SetFlowsScored(n int) {
	if c == nil || c.FlowsScored == nil {
		return
	}
	c.FlowsScored.Set(float64(n))
}

// ObserveScoring records the duration of one scoring pass.
func (c *RunCollector) ObserveScoring(d time.Duration) {
	if c == nil || c.ScoringDuration == nil {
		return
	}
	c.ScoringDuration.Observe(d.Seconds())
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}

func registerHistogram(reg prometheus.Registerer, hist prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(hist); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return hist, nil
}
