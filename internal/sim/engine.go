// Package sim is a deterministic stand-in for a full radio-stack
// engine. It replays the run on a coarse fixed-step clock: channel
// quality follows a distance-based path-loss curve with a seeded
// ripple, handovers fire for cell-edge users, and the final flow
// counters are derived from the same curve. Same seed, same inputs,
// same output, byte for byte.
package sim

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/WilmerZL/Modelamiento-de-celdas/core"
	"github.com/WilmerZL/Modelamiento-de-celdas/internal/logging"
	"github.com/WilmerZL/Modelamiento-de-celdas/internal/stats"
)

// sampleInterval is the simulated-time spacing of channel samples.
const sampleInterval = 100 * time.Millisecond

// TelemetryHandlers receives the engine's measurement and mobility
// callbacks. Nil handlers are skipped. All callbacks run synchronously
// on the engine's event loop, ordered by simulated time.
type TelemetryHandlers struct {
	OnSinrSample func(imsi uint64, linearSinr float64)
	OnRsrpSample func(imsi uint64, cell uint16, rsrpDbm float64)
	OnRsrqSample func(imsi uint64, cell uint16, rsrqDb float64)

	OnHandoverStart   func(imsi uint64, src, dst uint16)
	OnHandoverSuccess func(imsi uint64, src, dst uint16)
	OnHandoverFailure func(imsi uint64, src, dst uint16)
}

// Result is what the engine hands the statistics pass once simulated
// time runs out.
type Result struct {
	Flows      []stats.FlowCounters
	ImsiByAddr map[string]uint64
}

// Engine drives one run.
type Engine struct {
	cfg      core.Config
	cells    []core.Position
	ues      []core.UEInfo
	profiles map[uint64]core.AppProfile
	handlers TelemetryHandlers
	log      logging.Logger
	rng      *rand.Rand
}

// AssignImsi maps a UE creation index to its subscriber identity.
// IMSIs are dense and one-based, matching attach order.
func AssignImsi(index int) uint64 { return uint64(index) + 1 }

// AddrOf returns the downlink destination address of the UE at the
// given creation index.
func AddrOf(index int) string { return fmt.Sprintf("7.0.0.%d", index+2) }

// New builds an engine for one run. profiles maps each UE's IMSI to
// its application profile; UEs without one generate no flow but still
// produce channel telemetry.
func New(cfg core.Config, cells []core.Position, ues []core.UEInfo,
	profiles map[uint64]core.AppProfile, handlers TelemetryHandlers, log logging.Logger) *Engine {
	if log == nil {
		log = logging.Noop()
	}
	return &Engine{
		cfg:      cfg,
		cells:    cells,
		ues:      ues,
		profiles: profiles,
		handlers: handlers,
		log:      log,
		rng:      rand.New(rand.NewSource(cfg.RngSeed)),
	}
}

// Run replays the whole run and returns the final flow counters. It
// checks ctx between simulated ticks so a cancelled run stops early.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	start, stop := e.cfg.AppStartTime, e.cfg.SimTime
	ticks := 0
	for now := start; now < stop; now += sampleInterval {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("run aborted at t=%s: %w", now, err)
		}
		e.tick(now, ticks)
		ticks++
	}

	res := &Result{ImsiByAddr: make(map[string]uint64, len(e.ues))}
	for _, ue := range e.ues {
		res.ImsiByAddr[AddrOf(ue.Index)] = ue.Imsi
		if fc, ok := e.flowFor(ue); ok {
			res.Flows = append(res.Flows, fc)
		}
	}
	e.log.Info(ctx, "engine finished",
		logging.Int("ticks", ticks),
		logging.Int("flows", len(res.Flows)))
	return res, nil
}

func (e *Engine) tick(now time.Duration, tickIndex int) {
	for _, ue := range e.ues {
		sinrDb := e.sinrDb(ue) + e.ripple()
		if e.handlers.OnSinrSample != nil {
			e.handlers.OnSinrSample(ue.Imsi, math.Pow(10, sinrDb/10))
		}
		// RSRP/RSRQ are reported on a slower measurement cycle.
		if tickIndex%5 == 0 {
			cell := uint16(ue.ServingCell)
			if e.handlers.OnRsrpSample != nil {
				e.handlers.OnRsrpSample(ue.Imsi, cell, -60-20*math.Log10(math.Max(ue.DistanceM, 1))+e.ripple())
			}
			if e.handlers.OnRsrqSample != nil {
				e.handlers.OnRsrqSample(ue.Imsi, cell, -10+e.ripple()/2)
			}
		}
	}

	// Cell-edge users attempt one handover halfway through the run.
	halfway := e.cfg.AppStartTime + (e.cfg.SimTime-e.cfg.AppStartTime)/2
	if now <= halfway && halfway < now+sampleInterval {
		e.emitHandovers()
	}
}

// sinrDb is the mean SINR of a UE on the run's path-loss curve.
func (e *Engine) sinrDb(ue core.UEInfo) float64 {
	return 60 - 20*math.Log10(math.Max(ue.DistanceM, 1))
}

// ripple draws a ±2 dB fading term from the engine's seeded stream.
func (e *Engine) ripple() float64 {
	return (e.rng.Float64() - 0.5) * 4
}

// emitHandovers fires one attempt per cell-edge UE: users whose
// second-nearest site is within 10% of the serving distance. The
// attempt succeeds unless the channel is already poor.
func (e *Engine) emitHandovers() {
	if len(e.cells) < 2 {
		return
	}
	for _, ue := range e.ues {
		target, margin := e.neighbor(ue)
		if target < 0 || margin > 1.1 {
			continue
		}
		src, dst := uint16(ue.ServingCell), uint16(target)
		if e.handlers.OnHandoverStart != nil {
			e.handlers.OnHandoverStart(ue.Imsi, src, dst)
		}
		if e.sinrDb(ue) > 5 {
			if e.handlers.OnHandoverSuccess != nil {
				e.handlers.OnHandoverSuccess(ue.Imsi, src, dst)
			}
		} else if e.handlers.OnHandoverFailure != nil {
			e.handlers.OnHandoverFailure(ue.Imsi, src, dst)
		}
	}
}

// neighbor returns the second-nearest cell and the ratio of its
// distance to the serving distance.
func (e *Engine) neighbor(ue core.UEInfo) (int, float64) {
	best, bestDist := -1, math.Inf(1)
	for i, c := range e.cells {
		if i == ue.ServingCell {
			continue
		}
		if d := ue.Position.DistanceTo(c); d < bestDist {
			best, bestDist = i, d
		}
	}
	if best < 0 || ue.DistanceM <= 0 {
		return -1, math.Inf(1)
	}
	return best, bestDist / ue.DistanceM
}

// flowFor derives the final counters of a UE's downlink flow from the
// same path-loss curve the telemetry came from.
func (e *Engine) flowFor(ue core.UEInfo) (stats.FlowCounters, bool) {
	profile, ok := e.profiles[ue.Imsi]
	if !ok {
		return stats.FlowCounters{}, false
	}
	start := e.cfg.AppStartTime + profile.StartOffset
	duration := e.cfg.SimTime - start
	if duration <= 0 {
		return stats.FlowCounters{}, false
	}
	durSec := duration.Seconds()

	var tx uint64
	switch profile.Class {
	case core.TrafficEmbb:
		tx = uint64(float64(profile.RateBps) * durSec / float64(profile.PacketSizeBytes*8))
	case core.TrafficUrllc:
		if profile.Interval > 0 {
			tx = uint64(duration / profile.Interval)
		}
	}
	if tx == 0 {
		return stats.FlowCounters{}, false
	}

	sinr := e.sinrDb(ue)
	lossFrac := (20 - sinr) * 0.002
	if lossFrac < 0.0005 {
		lossFrac = 0.0005
	}
	if lossFrac > 0.08 {
		lossFrac = 0.08
	}
	lost := uint64(float64(tx) * lossFrac)
	rx := tx - lost

	var perPacketDelay time.Duration
	switch profile.Class {
	case core.TrafficEmbb:
		perPacketDelay = time.Duration((8 + ue.DistanceM*0.01) * float64(time.Millisecond))
	case core.TrafficUrllc:
		perPacketDelay = time.Duration((1 + ue.DistanceM*0.005) * float64(time.Millisecond))
	}

	return stats.FlowCounters{
		FlowID:      uint32(ue.Index) + 1,
		DstAddr:     AddrOf(ue.Index),
		DstPort:     profile.Port,
		TxPackets:   tx,
		RxPackets:   rx,
		RxBytes:     rx * uint64(profile.PacketSizeBytes),
		DelaySum:    time.Duration(rx) * perPacketDelay,
		JitterSum:   time.Duration(rx) * (perPacketDelay * 15 / 100),
		TimeFirstTx: start,
		TimeLastRx:  e.cfg.SimTime,
	}, true
}
