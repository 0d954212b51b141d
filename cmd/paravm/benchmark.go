package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/eth2030/paravm/chain"
	"github.com/eth2030/paravm/executor"
	"github.com/eth2030/paravm/genblock"
	"github.com/eth2030/paravm/metrics"
	"github.com/eth2030/paravm/store"
	"github.com/spf13/cobra"
)

var benchFlags struct {
	preset  string
	input   string
	output  string
	workers int
}

var presets = map[string]genblock.Config{
	"small":  {NumTx: 100, KeySpace: 20, ConflictRatio: 0.1, ColdRatio: 0.5, Seed: 1},
	"medium": {NumTx: 1000, KeySpace: 100, ConflictRatio: 0.15, ColdRatio: 0.5, Seed: 1},
	"large":  {NumTx: 5000, KeySpace: 500, ConflictRatio: 0.2, ColdRatio: 0.5, Seed: 1},
}

var benchmarkCmd = &cobra.Command{
	Use:   "benchmark",
	Short: "Run serial and parallel execution, compare, and report metrics",
	Long: `benchmark runs a block (generated fresh from --preset, or loaded from
--input) through both the serial reference executor and the full
parallel pipeline, asserts the two produce identical final state, and
writes a JSON metrics report to --output.`,
	RunE: runBenchmark,
}

func init() {
	f := benchmarkCmd.Flags()
	f.StringVar(&benchFlags.preset, "preset", "small", "size preset when --input is not given: small, medium or large")
	f.StringVar(&benchFlags.input, "input", "", "path to a block JSON file (overrides --preset)")
	f.StringVar(&benchFlags.output, "output", "", "path to write the metrics JSON report (required)")
	f.IntVar(&benchFlags.workers, "workers", 0, "worker pool size for parallel mode (0 = GOMAXPROCS)")
	benchmarkCmd.MarkFlagRequired("output")
}

// metricsReport is the JSON object written by `benchmark`.
type metricsReport struct {
	Scenario         string  `json:"scenario"`
	NTx              int     `json:"n_tx"`
	Speedup          float64 `json:"speedup"`
	SerialTimeMs     float64 `json:"serial_time_ms"`
	ParallelTimeMs   float64 `json:"parallel_time_ms"`
	Waves            int     `json:"waves"`
	AvgWaveSize      float64 `json:"avg_wave_size"`
	ConflictRate     float64 `json:"conflict_rate"`
	ConflictRateWW   float64 `json:"conflict_rate_ww"`
	ConflictRateWRRW float64 `json:"conflict_rate_wr_rw"`
	RuntimeConflicts uint64  `json:"runtime_conflicts"`
	PreexecPrecision float64 `json:"preexec_precision"`
	PreexecRecall    float64 `json:"preexec_recall"`
	TxLatencyP50Ms   float64 `json:"tx_latency_p50_ms"`
	TxLatencyP99Ms   float64 `json:"tx_latency_p99_ms"`
	TotalGas         uint64  `json:"total_gas"`

	// ProcessMetrics is a snapshot of metrics.DefaultRegistry: cumulative
	// counters and histograms across every block this process has run,
	// as opposed to the per-run fields above.
	ProcessMetrics map[string]interface{} `json:"process_metrics"`
}

func runBenchmark(cmd *cobra.Command, args []string) error {
	block, scenario, err := loadOrGenerateBenchmarkBlock()
	if err != nil {
		return err
	}
	if err := block.Validate(); err != nil {
		return err
	}

	serialStore := store.New()
	serialStart := time.Now()
	if _, err := executor.ExecuteSerial(block, executor.DefaultRunner, serialStore); err != nil {
		return err
	}
	serialDur := time.Since(serialStart)

	parallelStart := time.Now()
	pr, err := runParallel(block, benchFlags.workers, false)
	if err != nil {
		return err
	}
	parallelDur := time.Since(parallelStart)

	serialDigest := serialStore.Digest()
	parallelDigest := pr.committed.Digest()
	if serialDigest != parallelDigest {
		panic(fmt.Sprintf("paravm: serial-equivalence violation: serial digest %s != parallel digest %s on a %d-tx block",
			serialDigest, parallelDigest, len(block.Transactions)))
	}

	report := buildMetricsReport(scenario, block, pr, serialDur, parallelDur)

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("paravm: marshaling metrics report: %w", err)
	}
	if err := os.WriteFile(benchFlags.output, data, 0o644); err != nil {
		return fmt.Errorf("paravm: writing metrics report %q: %w", benchFlags.output, err)
	}
	fmt.Printf("serial-equivalence confirmed; wrote metrics to %s\n", benchFlags.output)
	return nil
}

func loadOrGenerateBenchmarkBlock() (chain.Block, string, error) {
	if benchFlags.input != "" {
		block, err := chain.LoadBlock(benchFlags.input)
		if err != nil {
			return chain.Block{}, "", err
		}
		base := filepath.Base(benchFlags.input)
		return block, strings.TrimSuffix(base, filepath.Ext(base)), nil
	}

	cfg, ok := presets[benchFlags.preset]
	if !ok {
		return chain.Block{}, "", fmt.Errorf("paravm: unknown preset %q (want small, medium or large)", benchFlags.preset)
	}
	return genblock.Generate(cfg), benchFlags.preset, nil
}

func buildMetricsReport(scenario string, block chain.Block, pr *pipelineResult, serialDur, parallelDur time.Duration) metricsReport {
	n := len(block.Transactions)

	precision, recall := pr.oracle.PrecisionRecall()
	graphMetrics := pr.graph.Metrics().Snapshot()
	execMetrics := pr.exec.Metrics().Snapshot()

	possible := float64(n) * float64(n-1) / 2
	conflictRateWW, conflictRateWRRW := 0.0, 0.0
	if possible > 0 {
		conflictRateWW = float64(graphMetrics.WW) / possible
		conflictRateWRRW = float64(graphMetrics.WR) / possible
	}

	serialMs := float64(serialDur.Microseconds()) / 1000.0
	parallelMs := float64(parallelDur.Microseconds()) / 1000.0
	speedup := 0.0
	if parallelMs > 0 {
		speedup = serialMs / parallelMs
	}

	return metricsReport{
		Scenario:         scenario,
		NTx:              n,
		Speedup:          speedup,
		SerialTimeMs:     serialMs,
		ParallelTimeMs:   parallelMs,
		Waves:            len(pr.waves),
		AvgWaveSize:      pr.scheduler.Metrics().ParallelismRatio(),
		ConflictRate:     pr.graph.ConflictRate(n),
		ConflictRateWW:   conflictRateWW,
		ConflictRateWRRW: conflictRateWRRW,
		RuntimeConflicts: execMetrics.RuntimeConflicts,
		PreexecPrecision: precision,
		PreexecRecall:    recall,
		TxLatencyP50Ms:   float64(execMetrics.LatencyP50.Microseconds()) / 1000.0,
		TxLatencyP99Ms:   float64(execMetrics.LatencyP99.Microseconds()) / 1000.0,
		TotalGas:         execMetrics.TotalGas,
		ProcessMetrics:   metrics.DefaultRegistry.Snapshot(),
	}
}
