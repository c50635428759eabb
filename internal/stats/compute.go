package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/WilmerZL/Modelamiento-de-celdas/core"
	"github.com/WilmerZL/Modelamiento-de-celdas/internal/telemetry"
)

// Compute runs the full post-run scoring pass: per-flow derivation,
// the per-cell fold, and the system-wide summary. Flows on ports the
// experiment does not use, or whose destination address resolves to no
// attached UE, are dropped silently.
func Compute(in Inputs) *Report {
	flows := deriveFlows(in)
	cells := foldCells(in, flows)
	system := summarize(in, flows)
	return &Report{Flows: flows, Cells: cells, System: system}
}

func deriveFlows(in Inputs) []FlowRecord {
	out := make([]FlowRecord, 0, len(in.Flows))
	for _, fc := range in.Flows {
		class, ok := core.ClassForPort(fc.DstPort)
		if !ok {
			continue
		}
		imsi, ok := in.ImsiByAddr[fc.DstAddr]
		if !ok {
			continue
		}
		ue, ok := in.UEs[imsi]
		if !ok {
			continue
		}

		ch, seen := in.Telemetry.Channel(imsi)
		if !seen {
			// Keep the untouched sentinels so the output makes the
			// missing telemetry visible rather than faking a 0..0 range.
			ch = telemetry.ChannelMetrics{MaxSinrDb: -1000.0, MinSinrDb: 1000.0}
		}
		avgSinr := 0.0
		if ch.Samples > 0 {
			avgSinr = ch.SumSinrDb / float64(ch.Samples)
		}

		rec := FlowRecord{
			FlowID:       fc.FlowID,
			Class:        class,
			Imsi:         imsi,
			ServingCell:  ue.ServingCell,
			DistanceM:    ue.DistanceM,
			DstAddr:      fc.DstAddr,
			AvgSinrDb:    avgSinr,
			MinSinrDb:    ch.MinSinrDb,
			MaxSinrDb:    ch.MaxSinrDb,
			SinrStdDevDb: sinrStdDev(in.Telemetry.SinrHistory(imsi), avgSinr),
			TxPackets:    fc.TxPackets,
			RxPackets:    fc.RxPackets,
			Numerology:   core.Numerology,
		}

		if fc.TxPackets >= fc.RxPackets {
			rec.LostPackets = fc.TxPackets - fc.RxPackets
		}
		if fc.TxPackets > 0 {
			rec.LossRatioPct = 100.0 * float64(rec.LostPackets) / float64(fc.TxPackets)
		}

		if fc.RxPackets > 0 {
			if d := fc.TimeLastRx - fc.TimeFirstTx; d > 0 {
				rec.ThroughputMbps = float64(fc.RxBytes) * 8.0 / d.Seconds() / 1e6
			}
			rec.MeanDelayMs = fc.DelaySum.Seconds() * 1000.0 / float64(fc.RxPackets)
		}
		// Jitter is defined over inter-arrival deltas, one fewer than
		// the received packets.
		if fc.RxPackets > 1 {
			rec.MeanJitterMs = fc.JitterSum.Seconds() * 1000.0 / float64(fc.RxPackets-1)
		}

		rec.QoeScore = QoeScore(class, rec.ThroughputMbps, rec.MeanDelayMs, rec.LossRatioPct, rec.MeanJitterMs)
		rec.ReliabilityScore = ReliabilityScore(ch)
		out = append(out, rec)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].FlowID < out[j].FlowID })
	return out
}

// sinrStdDev is the sample standard deviation of the retained SINR
// history, taken about the flow's running average rather than the
// history's own mean (the running sums cover samples the capped
// history may have evicted).
func sinrStdDev(hist []float64, avgSinrDb float64) float64 {
	n := len(hist)
	if n <= 1 {
		return 0
	}
	biased := stat.MomentAbout(2, hist, avgSinrDb, nil)
	return math.Sqrt(biased * float64(n) / float64(n-1))
}

type cellAccum struct {
	throughputMbps float64
	tx, rx, lost   uint64
	sumSinr        float64
	sumDelay       float64
	sumJitter      float64
	flows          int
}

func foldCells(in Inputs, flows []FlowRecord) []CellRecord {
	accums := make([]cellAccum, in.NumCells)
	for _, f := range flows {
		if f.ServingCell < 0 || f.ServingCell >= in.NumCells {
			continue
		}
		a := &accums[f.ServingCell]
		a.throughputMbps += f.ThroughputMbps
		a.tx += f.TxPackets
		a.rx += f.RxPackets
		a.lost += f.LostPackets
		a.sumSinr += f.AvgSinrDb
		a.sumDelay += f.MeanDelayMs
		a.sumJitter += f.MeanJitterMs
		a.flows++
	}

	maxThroughput := 0.0
	for _, a := range accums {
		if a.throughputMbps > maxThroughput {
			maxThroughput = a.throughputMbps
		}
	}

	out := make([]CellRecord, in.NumCells)
	for i, a := range accums {
		rec := CellRecord{
			CellID:           i,
			ThroughputMbps:   a.throughputMbps,
			SpectralEffBpsHz: a.throughputMbps * 1e6 / core.BandwidthHz,
			TxPackets:        a.tx,
			RxPackets:        a.rx,
			LostPackets:      a.lost,
		}
		if i < len(in.CellUECounts) {
			rec.NumUEs = in.CellUECounts[i]
		}
		if a.tx > 0 {
			rec.LossRatioPct = 100.0 * float64(a.lost) / float64(a.tx)
		}
		if a.flows > 0 {
			rec.AvgSinrDb = a.sumSinr / float64(a.flows)
			rec.AvgDelayMs = a.sumDelay / float64(a.flows)
			rec.AvgJitterMs = a.sumJitter / float64(a.flows)
		}

		rec.QoeScore = cellQoe(rec)
		rec.ReliabilityPct = cellReliability(rec)
		if maxThroughput > 0 {
			rec.LoadBalancePct = 100.0 * rec.ThroughputMbps / maxThroughput
		}
		out[i] = rec
	}
	return out
}

// Cell-level quality targets are looser than the flow-level ones: the
// figures are averages over every flow the cell serves.
const (
	cellMaxDelayMs = 10.0
	cellMaxLossPct = 1.0
	cellMinSinrDb  = 15.0
)

func cellQoe(c CellRecord) float64 {
	score := 100.0
	if c.AvgDelayMs > cellMaxDelayMs {
		score *= cellMaxDelayMs / c.AvgDelayMs
	}
	if c.LossRatioPct > cellMaxLossPct {
		score *= cellMaxLossPct / c.LossRatioPct
	}
	if c.AvgSinrDb < cellMinSinrDb {
		score *= c.AvgSinrDb / cellMinSinrDb
	}
	return clampScore(score)
}

func cellReliability(c CellRecord) float64 {
	score := 100.0 - 10.0*c.LossRatioPct
	if c.AvgSinrDb < minAvgSinrDb {
		score *= c.AvgSinrDb / minAvgSinrDb
	}
	return clampScore(score)
}

func summarize(in Inputs, flows []FlowRecord) SystemRecord {
	var rec SystemRecord

	var embbDelays, urllcDelays []float64
	for _, f := range flows {
		rec.TotalThroughputMbps += f.ThroughputMbps
		switch f.Class {
		case core.TrafficEmbb:
			embbDelays = append(embbDelays, f.MeanDelayMs)
		case core.TrafficUrllc:
			urllcDelays = append(urllcDelays, f.MeanDelayMs)
		}
	}
	if len(embbDelays) > 0 {
		rec.AvgEmbbDelayMs = stat.Mean(embbDelays, nil)
	}
	if len(urllcDelays) > 0 {
		rec.AvgUrllcDelayMs = stat.Mean(urllcDelays, nil)
	}

	if in.NumCells > 0 {
		rec.AvgThroughputPerCellMbps = rec.TotalThroughputMbps / float64(in.NumCells)
		rec.SpectralEffBpsHzCell = rec.TotalThroughputMbps * 1e6 / (core.BandwidthHz * float64(in.NumCells))

		// Served area approximated as numCells disks of radius 1.2·ISD.
		areaM2 := math.Pi * math.Pow(1.2*in.ISDMeters, 2) * float64(in.NumCells)
		if areaM2 > 0 {
			rec.UserDensityPerKm2 = float64(in.NumUEs) / (areaM2 * 1e-6)
		}
	}
	if in.NumUEs > 0 {
		rec.AvgThroughputPerUEMbps = rec.TotalThroughputMbps / float64(in.NumUEs)
	}

	ho := in.Telemetry.Handover()
	rec.HandoverAttempts = ho.Attempts
	rec.HandoverSuccesses = ho.Successes
	rec.HandoverFailures = ho.Failures
	if ho.Attempts > 0 {
		rec.HandoverSuccessRatePct = 100.0 * float64(ho.Successes) / float64(ho.Attempts)
	}

	return rec
}
