// Package telemetry accumulates the per-UE channel-quality samples and
// handover events the radio engine delivers while a run executes.
package telemetry

import (
	"math"

	"github.com/WilmerZL/Modelamiento-de-celdas/internal/observability"
)

// SinrHistoryCap bounds the per-UE SINR history used for the post-run
// standard-deviation figure. Oldest samples are evicted first.
const SinrHistoryCap = 1000

// ChannelMetrics is the running accumulator of one UE's channel
// quality. Sums are never reset mid-run; averages are computed by the
// statistics pass, which guards the samples == 0 case.
type ChannelMetrics struct {
	SumSinrDb  float64
	Samples    uint32
	MaxSinrDb  float64
	MinSinrDb  float64
	SumRsrpDbm float64
	SumRsrqDb  float64
}

// HandoverCounters tracks handover outcomes across the whole run. They
// are process-wide totals, not per-UE.
type HandoverCounters struct {
	Attempts  uint32
	Successes uint32
	Failures  uint32
}

// Aggregator receives the engine's telemetry callbacks and keeps the
// per-UE accumulators plus the run-wide handover counters. One
// Aggregator is scoped to one run and torn down with it.
//
// The engine drives a single-threaded event loop and invokes every
// handler synchronously on that loop, strictly ordered by simulated
// time, so the Aggregator holds no locks. Handlers are fire-and-forget
// and must stay cheap: the engine may call them thousands of times per
// simulated second.
type Aggregator struct {
	metrics  map[uint64]*ChannelMetrics
	history  map[uint64]*ring
	handover HandoverCounters

	collector *observability.RunCollector
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithCollector mirrors accepted/discarded sample counts and handover
// events into Prometheus metrics.
func WithCollector(c *observability.RunCollector) Option {
	return func(a *Aggregator) { a.collector = c }
}

// NewAggregator returns an empty aggregator for one run.
func NewAggregator(opts ...Option) *Aggregator {
	a := &Aggregator{
		metrics: make(map[uint64]*ChannelMetrics),
		history: make(map[uint64]*ring),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Aggregator) channelFor(imsi uint64) *ChannelMetrics {
	m, ok := a.metrics[imsi]
	if !ok {
		// Extreme sentinels so the first sample wins both comparisons.
		m = &ChannelMetrics{MaxSinrDb: -1000.0, MinSinrDb: 1000.0}
		a.metrics[imsi] = m
	}
	return m
}

// OnSinrSample records one SINR measurement, given in linear units.
// Non-positive values cannot be converted to dB and are discarded.
func (a *Aggregator) OnSinrSample(imsi uint64, linearSinr float64) {
	if linearSinr <= 0 {
		a.collector.IncDiscarded()
		return
	}
	sinrDb := 10.0 * math.Log10(linearSinr)

	m := a.channelFor(imsi)
	m.SumSinrDb += sinrDb
	m.Samples++
	if sinrDb > m.MaxSinrDb {
		m.MaxSinrDb = sinrDb
	}
	if sinrDb < m.MinSinrDb {
		m.MinSinrDb = sinrDb
	}

	h, ok := a.history[imsi]
	if !ok {
		h = newRing(SinrHistoryCap)
		a.history[imsi] = h
	}
	h.Push(sinrDb)

	a.collector.IncSample(observability.SampleSinr)
}

// OnRsrpSample records one RSRP measurement in dBm. The reporting cell
// is accepted for interface compatibility but not aggregated per cell.
func (a *Aggregator) OnRsrpSample(imsi uint64, _ uint16, rsrpDbm float64) {
	a.channelFor(imsi).SumRsrpDbm += rsrpDbm
	a.collector.IncSample(observability.SampleRsrp)
}

// OnRsrqSample records one RSRQ measurement in dB.
func (a *Aggregator) OnRsrqSample(imsi uint64, _ uint16, rsrqDb float64) {
	a.channelFor(imsi).SumRsrqDb += rsrqDb
	a.collector.IncSample(observability.SampleRsrq)
}

// OnHandoverStart counts a handover attempt. The UE and cell identities
// are not retained.
func (a *Aggregator) OnHandoverStart(_ uint64, _, _ uint16) {
	a.handover.Attempts++
	a.collector.IncHandover(observability.HandoverAttempt)
}

// OnHandoverSuccess counts a completed handover.
func (a *Aggregator) OnHandoverSuccess(_ uint64, _, _ uint16) {
	a.handover.Successes++
	a.collector.IncHandover(observability.HandoverSuccess)
}

// OnHandoverFailure counts a failed handover.
func (a *Aggregator) OnHandoverFailure(_ uint64, _, _ uint16) {
	a.handover.Failures++
	a.collector.IncHandover(observability.HandoverFailure)
}

// Channel returns a copy of the accumulated channel metrics for the
// given UE, and whether any telemetry was seen for it.
func (a *Aggregator) Channel(imsi uint64) (ChannelMetrics, bool) {
	m, ok := a.metrics[imsi]
	if !ok {
		return ChannelMetrics{}, false
	}
	return *m, true
}

// SinrHistory returns the retained SINR samples (dB, oldest first) for
// the given UE. At most SinrHistoryCap entries.
func (a *Aggregator) SinrHistory(imsi uint64) []float64 {
	h, ok := a.history[imsi]
	if !ok {
		return nil
	}
	return h.Values()
}

// Handover returns the run-wide handover counters.
func (a *Aggregator) Handover() HandoverCounters {
	return a.handover
}
