// Package executor implements the parallel executor: it consumes a
// Schedule and a committed Store, executes each wave speculatively in
// parallel from a shared pre-wave snapshot, linearizes commits in
// ascending TxId order, detects runtime conflicts the AccessOracle
// missed, and requeues the conflicting suffix of a wave for retry. It is
// the heart of the system.
//
// The outer pending-wave loop and the parallel-map primitive are
// grounded on BALScheduler.ExecuteSpeculative (bal/scheduler.go): one
// goroutine per task, a WaitGroup barrier, and results written into a
// pre-sized slice indexed by position rather than collected off a
// channel -- adapted here to a semaphore-bounded worker pool and real
// per-tx execution instead of a simulated constant-gas stub.
package executor

import (
	"context"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/eth2030/paravm/chain"
	"github.com/eth2030/paravm/log"
	"github.com/eth2030/paravm/metrics"
	"github.com/eth2030/paravm/microvm"
	"github.com/eth2030/paravm/schedule"
	"github.com/eth2030/paravm/store"
)

var logger = log.Default().Module("executor")

// Runner executes one transaction against its private working copy and
// reports the outcome. It is injected so the scheduler/executor stays
// testable with a mock runner.
type Runner func(tx chain.Transaction, wc *store.WorkingCopy) chain.ExecutionResult

// DefaultRunner executes a transaction's micro-op program with the
// microvm interpreter -- the concrete (non-mock) runner used by the CLI.
func DefaultRunner(tx chain.Transaction, wc *store.WorkingCopy) chain.ExecutionResult {
	res := microvm.Run(tx.Program, tx.Limit(), wc)
	return chain.ExecutionResult{
		ID:           tx.ID,
		GasUsed:      res.GasUsed,
		ActualReads:  res.ActualReads,
		ActualWrites: res.ActualWrites,
		WriteBuffer:  res.WriteBuffer,
		Success:      res.Success,
		Err:          res.Err,
	}
}

// RequeuePolicy names a conflict resolution strategy. Only Retry is ever
// implemented or selected: serial equivalence forbids permanently
// aborting or serializing a transaction instead of giving it a chance to
// re-execute against corrected state. The other constants exist for
// documentation parity with ResolutionStrategy (bal/conflict_detector.go)
// and are never selected.
type RequeuePolicy uint8

const (
	// Retry re-executes a requeued transaction once its dependency has
	// committed. The only policy this executor implements.
	Retry RequeuePolicy = iota
	// Serialize would force conflicting transactions onto a single
	// thread in block order. Unimplemented.
	Serialize
	// Abort would drop the later transaction for re-inclusion in a
	// future block. Unimplemented.
	Abort
)

// Metrics tracks runtime-conflict feedback for the AccessOracle
// and per-tx latency samples
// for the benchmark's p50/p99 fields.
type Metrics struct {
	RuntimeConflicts atomic.Uint64

	mu         sync.Mutex
	latencies  []time.Duration
	totalGas   uint64
}

// Snapshot is an immutable copy of the executor's metrics.
type Snapshot struct {
	RuntimeConflicts uint64
	LatencyP50       time.Duration
	LatencyP99       time.Duration
	TotalGas         uint64
}

// Snapshot computes percentile latencies from the recorded samples.
func (m *Metrics) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	sorted := append([]time.Duration(nil), m.latencies...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	pick := func(p float64) time.Duration {
		if len(sorted) == 0 {
			return 0
		}
		idx := int(p * float64(len(sorted)-1))
		return sorted[idx]
	}

	return Snapshot{
		RuntimeConflicts: m.RuntimeConflicts.Load(),
		LatencyP50:       pick(0.50),
		LatencyP99:       pick(0.99),
		TotalGas:         m.totalGas,
	}
}

func (m *Metrics) record(d time.Duration, gas uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latencies = append(m.latencies, d)
	m.totalGas += gas
}

// Executor runs a Schedule against a committed Store. The outer
// pending-wave loop is strictly single-threaded and is the Store's
// exclusive owner while a block is in flight.
type Executor struct {
	committed *store.Store
	run       Runner
	workers   int
	metrics   Metrics
}

// New creates an Executor. workers <= 0 defaults to GOMAXPROCS, sizing
// the inner wave's worker pool to available cores.
func New(committed *store.Store, run Runner, workers int) *Executor {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if run == nil {
		run = DefaultRunner
	}
	return &Executor{committed: committed, run: run, workers: workers}
}

// Metrics returns the executor's runtime-conflict and latency metrics.
func (e *Executor) Metrics() *Metrics { return &e.metrics }

// Execute runs schedule's waves against the committed store in order,
// returning every ExecutionResult grouped by the wave it ultimately
// committed in, sorted by TxId within each group (commit-order
// determinism).
func (e *Executor) Execute(ctx context.Context, block chain.Block, sched []schedule.Wave) ([]chain.ExecutionResult, error) {
	txByID := make(map[chain.TxId]chain.Transaction, len(block.Transactions))
	for _, tx := range block.Transactions {
		txByID[tx.ID] = tx
	}

	pending := make([]schedule.Wave, len(sched))
	copy(pending, sched)

	var out []chain.ExecutionResult

	for len(pending) > 0 {
		wave := pending[0]
		pending = pending[1:]

		if len(wave) == 0 {
			continue
		}

		if len(wave) == 1 {
			// Serial short-circuit: bypass the snapshot/clone machinery
			// entirely and execute in place against the committed store.
			result := e.executeOne(txByID[wave[0]], store.WorkingCopyFromStore(e.committed))
			e.commit(result)
			out = append(out, result)
			continue
		}

		select {
		case <-ctx.Done():
			return out, ctx.Err()
		default:
		}

		snapshot := e.committed.Snapshot()
		results := e.parallelMap(wave, txByID, snapshot)

		sort.Slice(results, func(i, j int) bool { return results[i].ID < results[j].ID })

		commitPrefix, requeue := linearizeAndDetect(results)

		for _, r := range commitPrefix {
			e.commit(r)
		}
		out = append(out, commitPrefix...)

		if len(requeue) > 0 {
			e.metrics.RuntimeConflicts.Add(uint64(len(requeue)))
			metrics.RuntimeConflicts.Add(int64(len(requeue)))

			logger.Debug("requeue", "wave_size", len(wave), "requeued", len(requeue))
			if len(requeue)*2 > len(wave) {
				logger.Warn("requeue storm: oracle underestimated access sets for most of the wave",
					"wave_size", len(wave), "requeued", len(requeue))
			}

			next := make(schedule.Wave, len(requeue))
			for i, r := range requeue {
				next[i] = r.ID
			}
			pending = append([]schedule.Wave{next}, pending...)
		}
	}

	logger.Info("block executed", "n_tx", len(out), "waves", len(sched))

	return out, nil
}

// executeOne runs a single transaction's program and records its
// latency/gas for the metrics snapshot.
func (e *Executor) executeOne(tx chain.Transaction, wc *store.WorkingCopy) chain.ExecutionResult {
	start := time.Now()
	result := e.run(tx, wc)
	d := time.Since(start)
	e.metrics.record(d, result.GasUsed)

	metrics.TxExecutions.Inc()
	metrics.TxGasUsed.Add(int64(result.GasUsed))
	metrics.TxLatency.Observe(float64(d.Milliseconds()))

	return result
}

// commit applies a result's write buffer to the committed store in
// order. Not a conflict: a failed transaction commits with an empty
// write buffer, so this is a no-op for it.
func (e *Executor) commit(r chain.ExecutionResult) {
	for _, kv := range r.WriteBuffer {
		e.committed.Set(kv.Key, kv.Value)
	}
}

// parallelMap executes wave's transactions concurrently against
// independent working copies of snapshot, bounded by e.workers; the
// outer loop blocks only at this barrier.
func (e *Executor) parallelMap(wave schedule.Wave, txByID map[chain.TxId]chain.Transaction, snapshot *store.Snapshot) []chain.ExecutionResult {
	results := make([]chain.ExecutionResult, len(wave))
	sem := make(chan struct{}, e.workers)
	var wg sync.WaitGroup

	for i, id := range wave {
		wg.Add(1)
		sem <- struct{}{}
		go func(idx int, id chain.TxId) {
			defer wg.Done()
			defer func() { <-sem }()
			wc := store.NewWorkingCopy(snapshot)
			results[idx] = e.executeOne(txByID[id], wc)
		}(i, id)
	}
	wg.Wait()

	return results
}

// linearizeAndDetect is the core commit-validation algorithm. It walks
// results (already sorted by ascending TxId) maintaining the set of keys
// written by previously committed results in this wave. The first result
// whose actual reads or writes intersect that set is stale -- it and
// every subsequent result in id order move to the requeue list, since any
// of them may depend on the conflicting predecessor's actual writes.
func linearizeAndDetect(results []chain.ExecutionResult) (commitPrefix, requeue []chain.ExecutionResult) {
	committedWrites := make(map[store.Key]struct{})

	for i, r := range results {
		conflict := false
		for k := range r.ActualReads {
			if _, ok := committedWrites[k]; ok {
				conflict = true
				break
			}
		}
		if !conflict {
			for k := range r.ActualWrites {
				if _, ok := committedWrites[k]; ok {
					conflict = true
					break
				}
			}
		}
		if conflict {
			return results[:i], results[i:]
		}
		for k := range r.ActualWrites {
			committedWrites[k] = struct{}{}
		}
	}
	return results, nil
}

// ExecuteSerial runs block's transactions sequentially in ascending
// TxId order directly against committed, with no scheduling and no
// speculative execution. This is the canonical reference mode
// (`execute --mode serial`) that the parallel path's final state must
// match bit-for-bit.
func ExecuteSerial(block chain.Block, run Runner, committed *store.Store) ([]chain.ExecutionResult, error) {
	if err := block.Validate(); err != nil {
		return nil, err
	}
	if run == nil {
		run = DefaultRunner
	}

	results := make([]chain.ExecutionResult, 0, len(block.Transactions))
	for _, tx := range block.Transactions {
		wc := store.WorkingCopyFromStore(committed)
		result := run(tx, wc)
		for _, kv := range result.WriteBuffer {
			committed.Set(kv.Key, kv.Value)
		}
		results = append(results, result)
	}
	return results, nil
}
