// Package oracle implements the AccessOracle: a pre-execution estimator
// that predicts each transaction's read/write key sets so the scheduler
// can partition a block into conflict-free waves before anything runs.
package oracle

import (
	"sync/atomic"

	"github.com/eth2030/paravm/chain"
	"github.com/eth2030/paravm/metrics"
	"github.com/eth2030/paravm/microvm"
	"github.com/eth2030/paravm/store"
)

// Oracle estimates access sets and tracks aggregate precision/recall
// metrics across a block.
type Oracle struct {
	reads  sampleStats
	writes sampleStats

	// unsound, when set, makes Estimate return empty sets unconditionally.
	// It exists only to exercise oracle-soundness-under-recovery: even a
	// deliberately unsound oracle must still produce a serially-equivalent
	// final state via the executor's runtime conflict detection, at the
	// cost of many requeues.
	unsound bool
}

// NewUnsound creates an Oracle that always estimates empty access sets,
// for testing the executor's runtime-detection recovery path.
func NewUnsound() *Oracle {
	return &Oracle{unsound: true}
}

type sampleStats struct {
	estimatedTotal atomic.Uint64
	actualTotal    atomic.Uint64
	intersection   atomic.Uint64
}

// New creates an Oracle with zeroed metrics.
func New() *Oracle {
	return &Oracle{}
}

// Estimate returns an over-approximating (reads, writes) pair for tx,
// built as the union of three sources in order: declared hints, the
// access list (treated as a hint, not authoritative), and a static scan
// of the program's storage-load/storage-store ops. The oracle is total:
// malformed input yields empty sets rather than an error.
func (o *Oracle) Estimate(tx chain.Transaction) chain.AccessSets {
	metrics.OracleEstimates.Inc()

	sets := chain.NewAccessSets()
	if o.unsound {
		return sets
	}

	for _, k := range tx.DeclaredReads {
		sets.AddRead(k)
	}
	for _, k := range tx.DeclaredWrites {
		sets.AddWrite(k)
	}

	for _, entry := range tx.AccessList {
		if entry.IsWrite {
			sets.AddWrite(entry.Key)
		} else {
			sets.AddRead(entry.Key)
		}
	}

	for _, op := range tx.Program {
		if !op.TouchesStorage() {
			continue
		}
		switch op.Op {
		case microvm.OpLoad:
			sets.AddRead(op.Key)
		case microvm.OpStore:
			sets.AddWrite(op.Key)
		}
	}

	return sets
}

// Observe folds a transaction's actual access sets (recorded during
// execution) against its estimate into the oracle's running precision and
// recall accumulators.
func (o *Oracle) Observe(estimated, actual chain.AccessSets) {
	observe(&o.reads, estimated.Reads, actual.Reads)
	observe(&o.writes, estimated.Writes, actual.Writes)
}

func observe(s *sampleStats, estimated, actual map[store.Key]struct{}) {
	var hit uint64
	for k := range estimated {
		if _, ok := actual[k]; ok {
			hit++
		}
	}
	s.estimatedTotal.Add(uint64(len(estimated)))
	s.actualTotal.Add(uint64(len(actual)))
	s.intersection.Add(hit)
}

// PrecisionRecall reports the oracle's aggregate (precision, recall)
// across every Observe call so far, combining both reads and writes:
// precision = |estimated ∩ actual| / |estimated|, recall =
// |estimated ∩ actual| / |actual|. Returns (1, 1) if nothing has been
// observed yet.
func (o *Oracle) PrecisionRecall() (precision, recall float64) {
	estTotal := o.reads.estimatedTotal.Load() + o.writes.estimatedTotal.Load()
	actTotal := o.reads.actualTotal.Load() + o.writes.actualTotal.Load()
	hit := o.reads.intersection.Load() + o.writes.intersection.Load()

	precision, recall = 1.0, 1.0
	if estTotal > 0 {
		precision = float64(hit) / float64(estTotal)
	}
	if actTotal > 0 {
		recall = float64(hit) / float64(actTotal)
	}
	return precision, recall
}
