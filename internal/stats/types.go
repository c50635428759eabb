// Package stats turns the engine's final flow counters and the run's
// accumulated telemetry into flow-, cell- and system-level records
// with derived quality scores. It runs exactly once, after the event
// loop has drained.
package stats

import (
	"time"

	"github.com/WilmerZL/Modelamiento-de-celdas/core"
	"github.com/WilmerZL/Modelamiento-de-celdas/internal/telemetry"
)

// FlowCounters is one row of the flow-monitor table the radio engine
// reports when the run halts. Times are offsets into simulated time.
type FlowCounters struct {
	FlowID      uint32
	DstAddr     string
	DstPort     uint16
	TxPackets   uint64
	RxPackets   uint64
	RxBytes     uint64
	DelaySum    time.Duration
	JitterSum   time.Duration
	TimeFirstTx time.Duration
	TimeLastRx  time.Duration
}

// FlowRecord is the scored, per-flow output row. Immutable once the
// scoring pass has produced it.
type FlowRecord struct {
	FlowID      uint32
	Class       core.TrafficClass
	Imsi        uint64
	ServingCell int
	DistanceM   float64
	DstAddr     string

	AvgSinrDb    float64
	MinSinrDb    float64
	MaxSinrDb    float64
	SinrStdDevDb float64

	TxPackets    uint64
	RxPackets    uint64
	LostPackets  uint64
	LossRatioPct float64

	ThroughputMbps float64
	MeanDelayMs    float64
	MeanJitterMs   float64

	QoeScore         float64
	ReliabilityScore float64
	Numerology       int
}

// CellRecord aggregates the flows whose UE is served by one cell.
type CellRecord struct {
	CellID int
	NumUEs int

	ThroughputMbps   float64
	SpectralEffBpsHz float64

	TxPackets    uint64
	RxPackets    uint64
	LostPackets  uint64
	LossRatioPct float64

	AvgSinrDb   float64
	AvgDelayMs  float64
	AvgJitterMs float64

	QoeScore       float64
	ReliabilityPct float64
	LoadBalancePct float64
}

// SystemRecord is the run-wide summary.
type SystemRecord struct {
	TotalThroughputMbps      float64
	AvgThroughputPerCellMbps float64
	AvgThroughputPerUEMbps   float64

	AvgUrllcDelayMs float64
	AvgEmbbDelayMs  float64

	HandoverAttempts       uint32
	HandoverSuccesses      uint32
	HandoverFailures       uint32
	HandoverSuccessRatePct float64

	SpectralEffBpsHzCell float64
	UserDensityPerKm2    float64
}

// Report bundles the three aggregation levels of one run.
type Report struct {
	Flows  []FlowRecord
	Cells  []CellRecord
	System SystemRecord
}

// ChannelReader is the view of the telemetry aggregator the scoring
// pass consumes. *telemetry.Aggregator satisfies it.
type ChannelReader interface {
	Channel(imsi uint64) (telemetry.ChannelMetrics, bool)
	SinrHistory(imsi uint64) []float64
	Handover() telemetry.HandoverCounters
}

// Inputs collects everything the scoring pass joins together: the
// engine's flow table, the address→subscriber lookup, the fixed UE
// attachment registry, and the run's telemetry.
type Inputs struct {
	NumCells  int
	NumUEs    int
	ISDMeters float64

	// UEs maps the engine-assigned IMSI to the attachment record
	// fixed at attach time.
	UEs map[uint64]core.UEInfo
	// ImsiByAddr resolves a flow's destination address to a UE.
	ImsiByAddr map[string]uint64
	// CellUECounts holds the attached-UE population per cell index.
	CellUECounts []int

	Flows     []FlowCounters
	Telemetry ChannelReader
}
