package report

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/WilmerZL/Modelamiento-de-celdas/core"
	"github.com/WilmerZL/Modelamiento-de-celdas/internal/stats"
)

// Store persists scored runs into a SQLite database so parameter
// sweeps can be compared with plain SQL instead of stitching CSV files
// together. It is an optional sink next to the CSV artifacts, never a
// replacement for them.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	created_at  TEXT NOT NULL,
	scenario    TEXT NOT NULL,
	num_cells   INTEGER NOT NULL,
	num_ues     INTEGER NOT NULL,
	isd_m       REAL NOT NULL,
	sim_time_s  REAL NOT NULL,
	rng_seed    INTEGER NOT NULL,
	total_throughput_mbps REAL NOT NULL,
	handover_success_rate_pct REAL NOT NULL,
	spectral_eff_bps_hz_cell REAL NOT NULL,
	user_density_per_km2 REAL NOT NULL
);
CREATE TABLE IF NOT EXISTS flows (
	run_id          INTEGER NOT NULL REFERENCES runs(id),
	flow_id         INTEGER NOT NULL,
	class           TEXT NOT NULL,
	imsi            INTEGER NOT NULL,
	serving_cell    INTEGER NOT NULL,
	throughput_mbps REAL NOT NULL,
	mean_delay_ms   REAL NOT NULL,
	loss_pct        REAL NOT NULL,
	avg_sinr_db     REAL NOT NULL,
	qoe_score       REAL NOT NULL,
	reliability     REAL NOT NULL
);
CREATE TABLE IF NOT EXISTS cells (
	run_id           INTEGER NOT NULL REFERENCES runs(id),
	cell_id          INTEGER NOT NULL,
	num_ues          INTEGER NOT NULL,
	throughput_mbps  REAL NOT NULL,
	loss_pct         REAL NOT NULL,
	qoe_score        REAL NOT NULL,
	reliability_pct  REAL NOT NULL,
	load_balance_pct REAL NOT NULL
);
`

// OpenStore opens (creating if needed) the results database at path.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open results db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply results schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// SaveRun stores one scored run and returns its row id. The whole run
// is written in a single transaction.
func (s *Store) SaveRun(ctx context.Context, cfg core.Config, rep *stats.Report) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin results tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `INSERT INTO runs
		(created_at, scenario, num_cells, num_ues, isd_m, sim_time_s, rng_seed,
		 total_throughput_mbps, handover_success_rate_pct, spectral_eff_bps_hz_cell, user_density_per_km2)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		time.Now().UTC().Format(time.RFC3339), cfg.Scenario.String(),
		cfg.NumCells, cfg.NumUEs, cfg.ISDMeters, cfg.SimTime.Seconds(), cfg.RngSeed,
		rep.System.TotalThroughputMbps, rep.System.HandoverSuccessRatePct,
		rep.System.SpectralEffBpsHzCell, rep.System.UserDensityPerKm2)
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("run id: %w", err)
	}

	for _, f := range rep.Flows {
		if _, err := tx.ExecContext(ctx, `INSERT INTO flows
			(run_id, flow_id, class, imsi, serving_cell, throughput_mbps,
			 mean_delay_ms, loss_pct, avg_sinr_db, qoe_score, reliability)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, f.FlowID, f.Class.String(), f.Imsi, f.ServingCell,
			f.ThroughputMbps, f.MeanDelayMs, f.LossRatioPct,
			f.AvgSinrDb, f.QoeScore, f.ReliabilityScore); err != nil {
			return 0, fmt.Errorf("insert flow %d: %w", f.FlowID, err)
		}
	}
	for _, c := range rep.Cells {
		if _, err := tx.ExecContext(ctx, `INSERT INTO cells
			(run_id, cell_id, num_ues, throughput_mbps, loss_pct,
			 qoe_score, reliability_pct, load_balance_pct)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, c.CellID, c.NumUEs, c.ThroughputMbps, c.LossRatioPct,
			c.QoeScore, c.ReliabilityPct, c.LoadBalancePct); err != nil {
			return 0, fmt.Errorf("insert cell %d: %w", c.CellID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit results tx: %w", err)
	}
	return runID, nil
}
