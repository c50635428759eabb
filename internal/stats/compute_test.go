package stats

import (
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/WilmerZL/Modelamiento-de-celdas/core"
	"github.com/WilmerZL/Modelamiento-de-celdas/internal/telemetry"
)

type fakeTelemetry struct {
	channels map[uint64]telemetry.ChannelMetrics
	history  map[uint64][]float64
	handover telemetry.HandoverCounters
}

func (f *fakeTelemetry) Channel(imsi uint64) (telemetry.ChannelMetrics, bool) {
	m, ok := f.channels[imsi]
	return m, ok
}

func (f *fakeTelemetry) SinrHistory(imsi uint64) []float64 { return f.history[imsi] }

func (f *fakeTelemetry) Handover() telemetry.HandoverCounters { return f.handover }

func baseInputs() Inputs {
	return Inputs{
		NumCells:  2,
		NumUEs:    2,
		ISDMeters: 200,
		UEs: map[uint64]core.UEInfo{
			1: {Imsi: 1, Index: 0, ServingCell: 0, DistanceM: 55.5, Class: core.TrafficEmbb},
			2: {Imsi: 2, Index: 1, ServingCell: 1, DistanceM: 120.25, Class: core.TrafficUrllc},
		},
		ImsiByAddr:   map[string]uint64{"7.0.0.2": 1, "7.0.0.3": 2},
		CellUECounts: []int{1, 1},
		Telemetry: &fakeTelemetry{
			channels: map[uint64]telemetry.ChannelMetrics{
				1: {SumSinrDb: 200, Samples: 10, MaxSinrDb: 25, MinSinrDb: 15},
				2: {SumSinrDb: 120, Samples: 10, MaxSinrDb: 14, MinSinrDb: 10},
			},
			history: map[uint64][]float64{
				1: {10, 20},
			},
			handover: telemetry.HandoverCounters{Attempts: 4, Successes: 3, Failures: 1},
		},
	}
}

func TestCompute_FlowDerivation(t *testing.T) {
	in := baseInputs()
	in.Flows = []FlowCounters{
		{
			FlowID: 1, DstAddr: "7.0.0.2", DstPort: core.EmbbPort,
			TxPackets: 1000, RxPackets: 990, RxBytes: 12_375_000,
			DelaySum:    990 * 10 * time.Millisecond,
			JitterSum:   989 * time.Millisecond,
			TimeFirstTx: 1 * time.Second,
			TimeLastRx:  11 * time.Second,
		},
	}

	rep := Compute(in)
	if len(rep.Flows) != 1 {
		t.Fatalf("flows = %d, want 1", len(rep.Flows))
	}
	f := rep.Flows[0]

	if f.Class != core.TrafficEmbb || f.Imsi != 1 || f.ServingCell != 0 {
		t.Fatalf("flow identity = %+v", f)
	}
	if f.LostPackets != 10 {
		t.Errorf("lost packets = %d, want 10", f.LostPackets)
	}
	if math.Abs(f.LossRatioPct-1.0) > 1e-9 {
		t.Errorf("loss = %g%%, want 1", f.LossRatioPct)
	}
	// 12 375 000 B × 8 over the 10 s between first tx and last rx.
	if math.Abs(f.ThroughputMbps-9.9) > 1e-9 {
		t.Errorf("throughput = %g Mbps, want 9.9", f.ThroughputMbps)
	}
	// Jitter averages over the 989 inter-arrival deltas, not packets.
	if math.Abs(f.MeanDelayMs-10) > 1e-9 || math.Abs(f.MeanJitterMs-1) > 1e-9 {
		t.Errorf("delay/jitter = %g/%g ms, want 10/1", f.MeanDelayMs, f.MeanJitterMs)
	}
	if math.Abs(f.AvgSinrDb-20) > 1e-9 {
		t.Errorf("avg sinr = %g dB, want 20", f.AvgSinrDb)
	}
	// History {10, 20} about the running average 20:
	// biased moment (100+0)/2 = 50, Bessel ×2/1 = 100, sqrt = 10.
	if math.Abs(f.SinrStdDevDb-10) > 1e-9 {
		t.Errorf("sinr stddev = %g dB, want 10", f.SinrStdDevDb)
	}
	// Throughput 9.9 < 25 is the only missed eMBB target.
	if math.Abs(f.QoeScore-100*9.9/25) > 1e-9 {
		t.Errorf("qoe = %g, want %g", f.QoeScore, 100*9.9/25)
	}
	if math.Abs(f.ReliabilityScore-100) > 1e-9 {
		t.Errorf("reliability = %g, want 100", f.ReliabilityScore)
	}
	if f.Numerology != core.Numerology {
		t.Errorf("numerology = %d, want %d", f.Numerology, core.Numerology)
	}
}

func TestCompute_DropsForeignAndUnresolvedFlows(t *testing.T) {
	in := baseInputs()
	in.Flows = []FlowCounters{
		{FlowID: 1, DstAddr: "7.0.0.2", DstPort: 9999, TxPackets: 10, RxPackets: 10},
		{FlowID: 2, DstAddr: "10.0.0.99", DstPort: core.EmbbPort, TxPackets: 10, RxPackets: 10},
		{FlowID: 3, DstAddr: "7.0.0.3", DstPort: core.UrllcPort, TxPackets: 10, RxPackets: 10},
	}

	rep := Compute(in)
	if len(rep.Flows) != 1 {
		t.Fatalf("flows = %d, want only the resolvable experiment flow", len(rep.Flows))
	}
	if rep.Flows[0].FlowID != 3 {
		t.Errorf("kept flow = %d, want 3", rep.Flows[0].FlowID)
	}
}

func TestCompute_FlowWithoutTelemetryKeepsSentinels(t *testing.T) {
	in := baseInputs()
	in.Telemetry = &fakeTelemetry{}
	in.Flows = []FlowCounters{
		{FlowID: 1, DstAddr: "7.0.0.2", DstPort: core.EmbbPort, TxPackets: 5, RxPackets: 5},
	}

	f := Compute(in).Flows[0]
	if f.AvgSinrDb != 0 || f.MinSinrDb != 1000 || f.MaxSinrDb != -1000 {
		t.Errorf("sinr figures = avg %g min %g max %g, want 0/1000/-1000", f.AvgSinrDb, f.MinSinrDb, f.MaxSinrDb)
	}
	if f.ReliabilityScore != 100 {
		t.Errorf("reliability = %g, want 100 with no telemetry", f.ReliabilityScore)
	}
}

func TestCompute_CellFold(t *testing.T) {
	in := baseInputs()
	// Two synthetic flows per cell 0, one for cell 1; durations chosen
	// for round throughput figures (Mbps = bytes×8/seconds/1e6).
	in.Flows = []FlowCounters{
		{FlowID: 1, DstAddr: "7.0.0.2", DstPort: core.EmbbPort,
			TxPackets: 100, RxPackets: 100, RxBytes: 50_000_000,
			DelaySum: 100 * 4 * time.Millisecond, TimeLastRx: 10 * time.Second},
		{FlowID: 2, DstAddr: "7.0.0.3", DstPort: core.UrllcPort,
			TxPackets: 200, RxPackets: 198, RxBytes: 25_000_000,
			DelaySum: 198 * 2 * time.Millisecond, TimeLastRx: 10 * time.Second},
	}

	rep := Compute(in)
	if len(rep.Cells) != 2 {
		t.Fatalf("cells = %d, want 2", len(rep.Cells))
	}
	c0, c1 := rep.Cells[0], rep.Cells[1]

	if math.Abs(c0.ThroughputMbps-40) > 1e-9 || math.Abs(c1.ThroughputMbps-20) > 1e-9 {
		t.Fatalf("cell throughputs = %g/%g Mbps, want 40/20", c0.ThroughputMbps, c1.ThroughputMbps)
	}
	// 40 Mbps over the 100 MHz carrier.
	if math.Abs(c0.SpectralEffBpsHz-0.4) > 1e-9 {
		t.Errorf("cell 0 spectral efficiency = %g, want 0.4", c0.SpectralEffBpsHz)
	}
	if math.Abs(c0.LoadBalancePct-100) > 1e-9 {
		t.Errorf("busiest cell load balance = %g, want 100", c0.LoadBalancePct)
	}
	if math.Abs(c1.LoadBalancePct-50) > 1e-9 {
		t.Errorf("cell 1 load balance = %g, want 50", c1.LoadBalancePct)
	}
	if c0.NumUEs != 1 || c1.NumUEs != 1 {
		t.Errorf("cell populations = %d/%d, want 1/1", c0.NumUEs, c1.NumUEs)
	}
	if math.Abs(c1.LossRatioPct-1.0) > 1e-9 {
		t.Errorf("cell 1 loss = %g%%, want 1", c1.LossRatioPct)
	}
	// Cell 0: delay 4 ms, loss 0, avg sinr 20 — every cell target met.
	if math.Abs(c0.QoeScore-100) > 1e-9 {
		t.Errorf("cell 0 qoe = %g, want 100", c0.QoeScore)
	}
	// Cell 1: avg sinr 12 < 15 → qoe ×12/15; reliability 100−10×1 = 90.
	if want := 100.0 * 12 / 15; math.Abs(c1.QoeScore-want) > 1e-9 {
		t.Errorf("cell 1 qoe = %g, want %g", c1.QoeScore, want)
	}
	if math.Abs(c1.ReliabilityPct-90) > 1e-9 {
		t.Errorf("cell 1 reliability = %g, want 90", c1.ReliabilityPct)
	}
}

func TestCompute_EmptyCellProducesZeroRow(t *testing.T) {
	in := baseInputs()
	in.NumCells = 3
	in.CellUECounts = []int{1, 1, 0}
	in.Flows = nil

	rep := Compute(in)
	if len(rep.Cells) != 3 {
		t.Fatalf("cells = %d, want 3", len(rep.Cells))
	}
	// With no flows the cell's average SINR is 0, which zeroes both
	// scores through the weak-channel penalties.
	want := CellRecord{CellID: 2}
	if diff := cmp.Diff(want, rep.Cells[2]); diff != "" {
		t.Errorf("empty cell row mismatch (-want +got):\n%s", diff)
	}
}

func TestCompute_SystemSummary(t *testing.T) {
	in := baseInputs()
	in.Flows = []FlowCounters{
		{FlowID: 1, DstAddr: "7.0.0.2", DstPort: core.EmbbPort,
			TxPackets: 100, RxPackets: 100, RxBytes: 50_000_000,
			DelaySum: 100 * 8 * time.Millisecond, TimeLastRx: 10 * time.Second},
		{FlowID: 2, DstAddr: "7.0.0.3", DstPort: core.UrllcPort,
			TxPackets: 100, RxPackets: 100, RxBytes: 25_000_000,
			DelaySum: 100 * 2 * time.Millisecond, TimeLastRx: 10 * time.Second},
	}

	sys := Compute(in).System

	if math.Abs(sys.TotalThroughputMbps-60) > 1e-9 {
		t.Fatalf("total throughput = %g Mbps, want 60", sys.TotalThroughputMbps)
	}
	if math.Abs(sys.AvgThroughputPerCellMbps-30) > 1e-9 {
		t.Errorf("per-cell throughput = %g, want 30", sys.AvgThroughputPerCellMbps)
	}
	if math.Abs(sys.AvgThroughputPerUEMbps-30) > 1e-9 {
		t.Errorf("per-ue throughput = %g, want 30", sys.AvgThroughputPerUEMbps)
	}
	if math.Abs(sys.AvgEmbbDelayMs-8) > 1e-9 || math.Abs(sys.AvgUrllcDelayMs-2) > 1e-9 {
		t.Errorf("class delays = %g/%g ms, want 8/2", sys.AvgEmbbDelayMs, sys.AvgUrllcDelayMs)
	}
	if sys.HandoverAttempts != 4 || sys.HandoverSuccesses != 3 || sys.HandoverFailures != 1 {
		t.Errorf("handover counters = %d/%d/%d, want 4/3/1",
			sys.HandoverAttempts, sys.HandoverSuccesses, sys.HandoverFailures)
	}
	if math.Abs(sys.HandoverSuccessRatePct-75) > 1e-9 {
		t.Errorf("handover success rate = %g%%, want 75", sys.HandoverSuccessRatePct)
	}
	// 60 Mbps across two 100 MHz carriers.
	if math.Abs(sys.SpectralEffBpsHzCell-0.3) > 1e-9 {
		t.Errorf("spectral efficiency = %g, want 0.3", sys.SpectralEffBpsHzCell)
	}
	wantDensity := 2.0 / (math.Pi * math.Pow(1.2*200, 2) * 2 * 1e-6)
	if math.Abs(sys.UserDensityPerKm2-wantDensity) > 1e-6 {
		t.Errorf("user density = %g, want %g", sys.UserDensityPerKm2, wantDensity)
	}
}

func TestCompute_RoundTripWithAggregator(t *testing.T) {
	agg := telemetry.NewAggregator()
	// Linear 10 → 10 dB, linear 100 → 20 dB: average 15 dB.
	agg.OnSinrSample(1, 10)
	agg.OnSinrSample(1, 100)

	in := baseInputs()
	in.Telemetry = agg
	in.Flows = []FlowCounters{
		{FlowID: 1, DstAddr: "7.0.0.2", DstPort: core.EmbbPort, TxPackets: 10, RxPackets: 10},
	}

	f := Compute(in).Flows[0]
	if math.Abs(f.AvgSinrDb-15) > 1e-9 {
		t.Errorf("avg sinr = %g dB, want 15", f.AvgSinrDb)
	}
	if math.Abs(f.MinSinrDb-10) > 1e-9 || math.Abs(f.MaxSinrDb-20) > 1e-9 {
		t.Errorf("min/max = %g/%g dB, want 10/20", f.MinSinrDb, f.MaxSinrDb)
	}
	// Bessel-corrected deviation of {10, 20} about the mean 15:
	// variance (25+25)/(2−1) = 50.
	if want := math.Sqrt(50); math.Abs(f.SinrStdDevDb-want) > 1e-9 {
		t.Errorf("sinr stddev = %g dB, want %g", f.SinrStdDevDb, want)
	}
}

func TestCompute_FlowsSortedByID(t *testing.T) {
	in := baseInputs()
	in.Flows = []FlowCounters{
		{FlowID: 9, DstAddr: "7.0.0.3", DstPort: core.UrllcPort, TxPackets: 1, RxPackets: 1},
		{FlowID: 2, DstAddr: "7.0.0.2", DstPort: core.EmbbPort, TxPackets: 1, RxPackets: 1},
	}

	rep := Compute(in)
	if len(rep.Flows) != 2 || rep.Flows[0].FlowID != 2 || rep.Flows[1].FlowID != 9 {
		t.Fatalf("flow order = %+v, want ascending flow ids", rep.Flows)
	}
}
