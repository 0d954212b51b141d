package metrics

// Pre-defined metrics for the paravm scheduler/executor. All metrics live
// in DefaultRegistry so they are globally accessible without passing a
// registry around.

var (
	// ---- Scheduling metrics ----

	// WavesFormed counts waves produced by the MIS scheduler, across all
	// blocks processed by this process.
	WavesFormed = DefaultRegistry.Counter("schedule.waves_formed")
	// WaveSize records the size of each wave as it is formed.
	WaveSize = DefaultRegistry.Histogram("schedule.wave_size")

	// ---- Execution metrics ----

	// TxExecutions counts transaction executions, including speculative
	// attempts that were later requeued.
	TxExecutions = DefaultRegistry.Counter("executor.tx_executions")
	// TxGasUsed counts total gas consumed across all transaction
	// executions, including speculative attempts that were later requeued.
	TxGasUsed = DefaultRegistry.Counter("executor.gas_used")
	// TxLatency records per-transaction execution duration in
	// milliseconds.
	TxLatency = DefaultRegistry.Histogram("executor.tx_latency_ms")
	// RuntimeConflicts counts transactions requeued because their
	// actual access sets conflicted with an already-committed result in
	// the same wave.
	RuntimeConflicts = DefaultRegistry.Counter("executor.runtime_conflicts")

	// ---- Oracle metrics ----

	// OracleEstimates counts AccessOracle.Estimate calls.
	OracleEstimates = DefaultRegistry.Counter("oracle.estimates")

	// ---- Conflict graph metrics ----

	// ConflictEdges counts conflict-graph edges added across every Build
	// call in this process.
	ConflictEdges = DefaultRegistry.Counter("conflictgraph.edges")
)
