// Package core holds the deterministic experiment model: scenario
// parameters, cell layout, user placement and traffic allocation. It
// has no dependency on the radio engine or the output layer so the
// model can be exercised in isolation.
package core

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidConfig wraps every validation failure so callers can test
// for the class without matching message text.
var ErrInvalidConfig = errors.New("invalid config")

// Radio parameters fixed for every run.
const (
	CarrierFrequencyHz = 3.5e9
	BandwidthHz        = 100e6
	Numerology         = 2

	EmbbPort  uint16 = 7000
	UrllcPort uint16 = 7001
)

// ScenarioType selects one of the two deployment profiles. Everything
// scenario-dependent (spacing, clustering, traffic budget, cadence,
// propagation) hangs off this value.
type ScenarioType int

const (
	ScenarioSparseSuburban ScenarioType = iota
	ScenarioDenseUrban
)

func (s ScenarioType) String() string {
	if s == ScenarioDenseUrban {
		return "dense"
	}
	return "sparse"
}

// ISDScale is the factor applied to the configured inter-site distance
// when generating the cell layout: dense deployments pull the sites
// closer together, sparse ones push them apart.
func (s ScenarioType) ISDScale() float64 {
	if s == ScenarioDenseUrban {
		return 0.7
	}
	return 1.3
}

// EmbbBudgetBps is the aggregate downlink budget shared by all eMBB
// users of the scenario.
func (s ScenarioType) EmbbBudgetBps() float64 {
	if s == ScenarioDenseUrban {
		return 3e8
	}
	return 2e8
}

// UrllcInterval is the fixed packet cadence of the URLLC control
// traffic. The dense scenario doubles the cadence to exploit the
// shorter slots of numerology 2.
func (s ScenarioType) UrllcInterval() time.Duration {
	if s == ScenarioDenseUrban {
		return 500 * time.Microsecond
	}
	return time.Millisecond
}

// PropagationModel names the channel model the radio engine applies.
func (s ScenarioType) PropagationModel() string {
	if s == ScenarioDenseUrban {
		return "UMa"
	}
	return "RMa"
}

// Config is the full parameter set of one run.
type Config struct {
	NumCells  int
	NumUEs    int
	EmbbRatio float64
	ISDMeters float64
	Scenario  ScenarioType

	SimTime      time.Duration
	AppStartTime time.Duration
	RngSeed      int64

	GnbTxPowerDbm float64
	UeTxPowerDbm  float64
	GnbHeightM    float64
	UeHeightM     float64

	Scheduler         string
	HandoverAlgorithm string

	OutputDir string
}

// DefaultConfig returns the baseline single-cell run.
func DefaultConfig() Config {
	return Config{
		NumCells:          1,
		NumUEs:            30,
		EmbbRatio:         0.6,
		ISDMeters:         200,
		Scenario:          ScenarioSparseSuburban,
		SimTime:           15 * time.Second,
		AppStartTime:      5 * time.Second,
		RngSeed:           1,
		GnbTxPowerDbm:     46,
		UeTxPowerDbm:      26,
		GnbHeightM:        25,
		UeHeightM:         1.5,
		Scheduler:         "TdmaQos",
		HandoverAlgorithm: "A2A4",
		OutputDir:         "./results",
	}
}

// Validate rejects parameter combinations the experiment cannot run
// with. A cell count without a layout template of its own is still
// valid; layout generation substitutes the largest template for it.
func (c Config) Validate() error {
	if c.NumCells < 1 {
		return fmt.Errorf("%w: num-cells must be at least 1, got %d", ErrInvalidConfig, c.NumCells)
	}
	if c.NumUEs < 1 {
		return fmt.Errorf("%w: num-ues must be at least 1, got %d", ErrInvalidConfig, c.NumUEs)
	}
	if c.EmbbRatio < 0 || c.EmbbRatio > 1 {
		return fmt.Errorf("%w: embb-ratio must be within [0, 1], got %g", ErrInvalidConfig, c.EmbbRatio)
	}
	if c.ISDMeters <= 0 {
		return fmt.Errorf("%w: inter-site distance must be positive, got %g", ErrInvalidConfig, c.ISDMeters)
	}
	if c.SimTime <= 0 {
		return fmt.Errorf("%w: sim-time must be positive, got %s", ErrInvalidConfig, c.SimTime)
	}
	if c.AppStartTime < 0 || c.AppStartTime >= c.SimTime {
		return fmt.Errorf("%w: app-start-time must fall inside the run, got %s of %s", ErrInvalidConfig, c.AppStartTime, c.SimTime)
	}
	switch c.Scheduler {
	case "TdmaQos", "OfdmaQos":
	default:
		return fmt.Errorf("%w: scheduler must be TdmaQos or OfdmaQos, got %q", ErrInvalidConfig, c.Scheduler)
	}
	if c.OutputDir == "" {
		return fmt.Errorf("%w: output-dir must not be empty", ErrInvalidConfig)
	}
	return nil
}
