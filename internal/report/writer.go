// Package report renders a scored run into the four output artifacts:
// flow, cell and system CSV tables plus a plain-text echo of the run
// configuration. File names embed the cell count so runs of different
// topologies can share one output directory.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/WilmerZL/Modelamiento-de-celdas/core"
	"github.com/WilmerZL/Modelamiento-de-celdas/internal/stats"
)

// FlowStatsPath returns the per-flow CSV path for a run of numCells.
func FlowStatsPath(dir string, numCells int) string {
	return filepath.Join(dir, fmt.Sprintf("flow_stats_optimized_%dcell.csv", numCells))
}

// CellStatsPath returns the per-cell CSV path.
func CellStatsPath(dir string, numCells int) string {
	return filepath.Join(dir, fmt.Sprintf("cell_stats_optimized_%dcell.csv", numCells))
}

// SystemStatsPath returns the system summary CSV path.
func SystemStatsPath(dir string, numCells int) string {
	return filepath.Join(dir, fmt.Sprintf("system_stats_optimized_%dcell.csv", numCells))
}

// ConfigEchoPath returns the configuration echo path.
func ConfigEchoPath(dir string, numCells int) string {
	return filepath.Join(dir, fmt.Sprintf("simulation_config_optimized_%dcell.txt", numCells))
}

// Writer renders run reports under a fixed output directory.
type Writer struct {
	Dir string
}

// WriteAll writes the four artifacts and returns their paths in the
// order flow, cell, system, config. The output directory is created if
// missing; that is the only failure mode that leaves nothing behind.
func (w Writer) WriteAll(cfg core.Config, rep *stats.Report) ([]string, error) {
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	paths := []string{
		FlowStatsPath(w.Dir, cfg.NumCells),
		CellStatsPath(w.Dir, cfg.NumCells),
		SystemStatsPath(w.Dir, cfg.NumCells),
		ConfigEchoPath(w.Dir, cfg.NumCells),
	}
	contents := [][]byte{
		renderFlowCSV(rep.Flows),
		renderCellCSV(rep.Cells),
		renderSystemCSV(cfg, rep.System),
		renderConfigEcho(cfg),
	}
	for i, path := range paths {
		if err := os.WriteFile(path, contents[i], 0o644); err != nil {
			return nil, fmt.Errorf("write %s: %w", filepath.Base(path), err)
		}
	}
	return paths, nil
}

const flowHeader = "FlowId,TrafficType,UeImsi,ServingCell,Distance(m),DstAddr," +
	"AvgSinr(dB),MinSinr(dB),MaxSinr(dB),SinrStdDev(dB)," +
	"TxPackets,RxPackets,LostPackets,PacketLossRatio(%)," +
	"Throughput(Mbps),MeanDelay(ms),MeanJitter(ms)," +
	"QoEScore,ReliabilityScore,Numerology\n"

func renderFlowCSV(flows []stats.FlowRecord) []byte {
	var b strings.Builder
	b.WriteString(flowHeader)
	for _, f := range flows {
		fmt.Fprintf(&b, "%d,%s,%d,%d,%.2f,%s,%.2f,%.2f,%.2f,%.2f,%d,%d,%d,%.4f,%.3f,%.3f,%.3f,%.1f,%.1f,%d\n",
			f.FlowID, f.Class, f.Imsi, f.ServingCell, f.DistanceM, f.DstAddr,
			f.AvgSinrDb, f.MinSinrDb, f.MaxSinrDb, f.SinrStdDevDb,
			f.TxPackets, f.RxPackets, f.LostPackets, f.LossRatioPct,
			f.ThroughputMbps, f.MeanDelayMs, f.MeanJitterMs,
			f.QoeScore, f.ReliabilityScore, f.Numerology)
	}
	return []byte(b.String())
}

const cellHeader = "CellId,NumUEs,TotalThroughput(Mbps),SpectralEfficiency(bps/Hz)," +
	"TxPackets,RxPackets,LostPackets,PacketLossRatio(%)," +
	"AvgSINR(dB),AvgDelay(ms),AvgJitter(ms)," +
	"CellQoEScore,CellReliability(%),LoadBalance(%)\n"

func renderCellCSV(cells []stats.CellRecord) []byte {
	var b strings.Builder
	b.WriteString(cellHeader)
	for _, c := range cells {
		fmt.Fprintf(&b, "%d,%d,%.3f,%.2f,%d,%d,%d,%.4f,%.2f,%.3f,%.3f,%.1f,%.1f,%.1f\n",
			c.CellID, c.NumUEs, c.ThroughputMbps, c.SpectralEffBpsHz,
			c.TxPackets, c.RxPackets, c.LostPackets, c.LossRatioPct,
			c.AvgSinrDb, c.AvgDelayMs, c.AvgJitterMs,
			c.QoeScore, c.ReliabilityPct, c.LoadBalancePct)
	}
	return []byte(b.String())
}

func renderSystemCSV(cfg core.Config, s stats.SystemRecord) []byte {
	var b strings.Builder
	b.WriteString("Metric,Value,Unit\n")
	fmt.Fprintf(&b, "TotalSystemThroughput,%.3f,Mbps\n", s.TotalThroughputMbps)
	fmt.Fprintf(&b, "AvgThroughputPerCell,%.3f,Mbps\n", s.AvgThroughputPerCellMbps)
	fmt.Fprintf(&b, "AvgThroughputPerUE,%.3f,Mbps\n", s.AvgThroughputPerUEMbps)
	fmt.Fprintf(&b, "AvgURLLCDelay,%.3f,ms\n", s.AvgUrllcDelayMs)
	fmt.Fprintf(&b, "AvgEmbbDelay,%.3f,ms\n", s.AvgEmbbDelayMs)
	fmt.Fprintf(&b, "HandoverAttempts,%d,count\n", s.HandoverAttempts)
	fmt.Fprintf(&b, "HandoverSuccess,%d,count\n", s.HandoverSuccesses)
	fmt.Fprintf(&b, "HandoverFailures,%d,count\n", s.HandoverFailures)
	fmt.Fprintf(&b, "HandoverSuccessRate,%.2f,%%\n", s.HandoverSuccessRatePct)
	fmt.Fprintf(&b, "SystemSpectralEfficiency,%.3f,bps/Hz/cell\n", s.SpectralEffBpsHzCell)
	fmt.Fprintf(&b, "UserDensity,%.1f,UE/km2\n", s.UserDensityPerKm2)
	fmt.Fprintf(&b, "ScenarioType,%s,type\n", cfg.Scenario)
	fmt.Fprintf(&b, "NumCells,%d,count\n", cfg.NumCells)
	fmt.Fprintf(&b, "NumUEs,%d,count\n", cfg.NumUEs)
	fmt.Fprintf(&b, "InterSiteDistance,%.1f,m\n", cfg.ISDMeters)
	fmt.Fprintf(&b, "SimulationTime,%.1f,s\n", cfg.SimTime.Seconds())
	fmt.Fprintf(&b, "Numerology,%d,30kHz_SCS\n", core.Numerology)
	fmt.Fprintf(&b, "UeTxPower,%.1f,dBm\n", cfg.UeTxPowerDbm)
	fmt.Fprintf(&b, "PropagationModel,%s,type\n", cfg.Scenario.PropagationModel())
	return []byte(b.String())
}

func renderConfigEcho(cfg core.Config) []byte {
	scenarioName := "sparse suburban"
	if cfg.Scenario == core.ScenarioDenseUrban {
		scenarioName = "dense urban"
	}

	var b strings.Builder
	b.WriteString("=== RUN CONFIGURATION ===\n")
	fmt.Fprintf(&b, "Cells: %d\n", cfg.NumCells)
	fmt.Fprintf(&b, "UEs: %d\n", cfg.NumUEs)
	fmt.Fprintf(&b, "eMBB ratio: %.2f\n", cfg.EmbbRatio)
	fmt.Fprintf(&b, "URLLC ratio: %.2f\n", 1.0-cfg.EmbbRatio)
	fmt.Fprintf(&b, "Scenario: %s\n", scenarioName)
	fmt.Fprintf(&b, "Inter-site distance: %.1f m\n", cfg.ISDMeters)
	fmt.Fprintf(&b, "gNB height: %.1f m\n", cfg.GnbHeightM)
	fmt.Fprintf(&b, "UE height: %.1f m\n", cfg.UeHeightM)
	fmt.Fprintf(&b, "gNB Tx power: %.1f dBm\n", cfg.GnbTxPowerDbm)
	fmt.Fprintf(&b, "UE Tx power: %.1f dBm\n", cfg.UeTxPowerDbm)
	fmt.Fprintf(&b, "Carrier frequency: %.1f GHz (FR1)\n", core.CarrierFrequencyHz/1e9)
	fmt.Fprintf(&b, "Bandwidth: %.0f MHz\n", core.BandwidthHz/1e6)
	fmt.Fprintf(&b, "Numerology: %d (30 kHz SCS)\n", core.Numerology)
	fmt.Fprintf(&b, "Scheduler: %s\n", cfg.Scheduler)
	fmt.Fprintf(&b, "Handover algorithm: %s (threshold 15 dB, offset 3 dB)\n", cfg.HandoverAlgorithm)
	fmt.Fprintf(&b, "Propagation model: %s\n", cfg.Scenario.PropagationModel())
	fmt.Fprintf(&b, "Simulation time: %.1f s\n", cfg.SimTime.Seconds())
	fmt.Fprintf(&b, "Application start: %.1f s\n", cfg.AppStartTime.Seconds())
	fmt.Fprintf(&b, "RNG seed: %d\n", cfg.RngSeed)
	return []byte(b.String())
}
