// Package schedule implements the MIS (maximal-independent-set) wave
// scheduler: a greedy minimum-degree partitioner that splits a block's
// transaction ids into ordered, conflict-free waves.
//
// It is grounded on BALScheduler (bal/scheduler.go) for its shape -- a
// struct holding atomic metrics, a constructor and a Metrics accessor,
// with the conflict graph passed to each Schedule call -- but scheduler.go's own algorithm (Kahn's
// algorithm topological layering, bal/scheduler.go's
// topoSort/buildWaves) does not produce independent-set waves, so the
// partitioning body below is a fresh greedy minimum-degree
// implementation instead.
package schedule

import (
	"sort"
	"sync/atomic"

	"github.com/eth2030/paravm/chain"
	"github.com/eth2030/paravm/conflictgraph"
	"github.com/eth2030/paravm/log"
	"github.com/eth2030/paravm/metrics"
)

var logger = log.Default().Module("schedule")

// Wave is an ordered (ascending TxId) subsequence of ids that forms an
// independent set in the ConflictGraph -- the executor's commit rule
// depends on this ascending order.
type Wave []chain.TxId

// Metrics records scheduling statistics, mirroring SchedulerMetrics
// (bal/scheduler.go).
type Metrics struct {
	WavesFormed  atomic.Uint64
	TxsScheduled atomic.Uint64
	MaxWaveSize  atomic.Uint64
}

// Scheduler partitions a block's transaction ids into waves using a
// greedy minimum-degree algorithm.
type Scheduler struct {
	metrics Metrics
}

// New creates a Scheduler.
func New() *Scheduler {
	return &Scheduler{}
}

// Metrics returns the scheduler's running metrics.
func (s *Scheduler) Metrics() *Metrics { return &s.metrics }

// Schedule partitions ids into an ordered sequence of waves such that:
// every id appears in exactly one wave (coverage); no two ids in the same
// wave share an edge in g (independence); and the output is a pure
// function of (ids, g's edge set), ties broken by ascending TxId
// (determinism).
func (s *Scheduler) Schedule(ids []chain.TxId, g *conflictgraph.Graph) []Wave {
	if len(ids) == 0 {
		return nil
	}

	remaining := make(map[chain.TxId]struct{}, len(ids))
	for _, id := range ids {
		remaining[id] = struct{}{}
	}

	var waves []Wave
	for len(remaining) > 0 {
		available := make(map[chain.TxId]struct{}, len(remaining))
		for id := range remaining {
			available[id] = struct{}{}
		}

		var wave []chain.TxId
		for len(available) > 0 {
			pick := minDegreePick(available, g)
			wave = append(wave, pick)
			delete(available, pick)
			for _, n := range g.Neighbors(pick) {
				delete(available, n)
			}
		}

		sort.Slice(wave, func(i, j int) bool { return wave[i] < wave[j] })
		waves = append(waves, Wave(wave))

		s.metrics.WavesFormed.Add(1)
		s.metrics.TxsScheduled.Add(uint64(len(wave)))
		bumpMax(&s.metrics.MaxWaveSize, uint64(len(wave)))

		metrics.WavesFormed.Inc()
		metrics.WaveSize.Observe(float64(len(wave)))
		logger.Debug("wave formed", "wave", len(waves), "size", len(wave))

		for _, id := range wave {
			delete(remaining, id)
		}
	}

	return waves
}

// minDegreePick selects the available vertex minimizing
// (degree restricted to available, id), breaking ties by ascending id as
// required for determinism.
func minDegreePick(available map[chain.TxId]struct{}, g *conflictgraph.Graph) chain.TxId {
	var best chain.TxId
	bestDegree := -1
	first := true

	ids := make([]chain.TxId, 0, len(available))
	for id := range available {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		degree := 0
		for _, n := range g.Neighbors(id) {
			if _, ok := available[n]; ok {
				degree++
			}
		}
		if first || degree < bestDegree {
			best, bestDegree, first = id, degree, false
		}
	}
	return best
}

func bumpMax(counter *atomic.Uint64, v uint64) {
	for {
		cur := counter.Load()
		if v <= cur {
			return
		}
		if counter.CompareAndSwap(cur, v) {
			return
		}
	}
}

// ParallelismRatio returns tx-count / wave-count, mirroring
// BALScheduler.ParallelismRatio (bal/scheduler.go) and feeding the
// avg_wave_size metrics field. Returns 1.0 if nothing has been scheduled.
func (m *Metrics) ParallelismRatio() float64 {
	waves := m.WavesFormed.Load()
	txs := m.TxsScheduled.Load()
	if waves == 0 {
		return 1.0
	}
	return float64(txs) / float64(waves)
}
