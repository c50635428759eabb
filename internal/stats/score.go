package stats

import (
	"github.com/WilmerZL/Modelamiento-de-celdas/core"
	"github.com/WilmerZL/Modelamiento-de-celdas/internal/telemetry"
)

// Per-class QoE targets. A flow that meets every target of its class
// keeps the full score of 100; each missed target applies a
// multiplicative penalty proportional to how far the figure is from
// the target.
const (
	embbMinThroughputMbps = 25.0
	embbMaxDelayMs        = 20.0
	embbMaxLossPct        = 1.0

	urllcMaxDelayMs  = 5.0
	urllcMaxLossPct  = 0.1
	urllcMaxJitterMs = 2.0
)

// Reliability targets, shared by both classes.
const (
	maxSinrRangeDb = 20.0
	minAvgSinrDb   = 10.0
)

func clampScore(s float64) float64 {
	if s < 0 {
		return 0
	}
	if s > 100 {
		return 100
	}
	return s
}

// QoeScore grades one flow against its class targets. All penalties
// are multiplicative, so a flow missing several targets at once is
// punished harder than one missing a single target badly.
func QoeScore(class core.TrafficClass, throughputMbps, meanDelayMs, lossPct, meanJitterMs float64) float64 {
	score := 100.0
	switch class {
	case core.TrafficEmbb:
		if throughputMbps < embbMinThroughputMbps {
			score *= throughputMbps / embbMinThroughputMbps
		}
		if meanDelayMs > embbMaxDelayMs {
			score *= embbMaxDelayMs / meanDelayMs
		}
		if lossPct > embbMaxLossPct {
			score *= embbMaxLossPct / lossPct
		}
	case core.TrafficUrllc:
		if meanDelayMs > urllcMaxDelayMs {
			score *= urllcMaxDelayMs / meanDelayMs
		}
		if lossPct > urllcMaxLossPct {
			score *= urllcMaxLossPct / lossPct
		}
		if meanJitterMs > urllcMaxJitterMs {
			score *= urllcMaxJitterMs / meanJitterMs
		}
	}
	return clampScore(score)
}

// ReliabilityScore grades channel stability: a wide SINR swing or a
// weak average both cut into the score. A flow whose UE produced no
// SINR telemetry keeps the full score, as there is no evidence of an
// unstable channel.
func ReliabilityScore(m telemetry.ChannelMetrics) float64 {
	score := 100.0
	if m.Samples == 0 {
		return score
	}
	avg := m.SumSinrDb / float64(m.Samples)
	if r := m.MaxSinrDb - m.MinSinrDb; r > maxSinrRangeDb {
		score *= maxSinrRangeDb / r
	}
	if avg < minAvgSinrDb {
		score *= avg / minAvgSinrDb
	}
	return clampScore(score)
}
