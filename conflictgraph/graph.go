// Package conflictgraph builds the undirected conflict graph over a
// block's transaction ids: the same key-indexed construction and atomic
// conflict-taxonomy metrics as BALConflictDetector (bal/conflict_detector.go),
// adapted from an (address, slot) access model down to a flat Key model,
// and narrowed to build a single undirected Graph rather than a directed
// dependency graph, since the MIS scheduler needs conflict symmetry, not
// a DAG.
package conflictgraph

import (
	"sort"
	"sync/atomic"

	"github.com/eth2030/paravm/chain"
	"github.com/eth2030/paravm/log"
	"github.com/eth2030/paravm/metrics"
	"github.com/eth2030/paravm/store"
)

var logger = log.Default().Module("conflictgraph")

// Metrics counts conflict edges by cause, mirroring ConflictMetrics
// (bal/conflict_detector.go) and feeding the conflict_rate* fields of the
// benchmark metrics output.
type Metrics struct {
	WW    atomic.Uint64 // write-write key collisions observed
	WR    atomic.Uint64 // write-read / read-write key collisions observed
	Total atomic.Uint64 // distinct edges in the graph (deduplicated)
}

// Snapshot is an immutable copy of Metrics' counters.
type Snapshot struct {
	WW, WR, Total uint64
}

// Snapshot returns a copy of the current metric values.
func (m *Metrics) Snapshot() Snapshot {
	return Snapshot{
		WW:    m.WW.Load(),
		WR:    m.WR.Load(),
		Total: m.Total.Load(),
	}
}

// Graph is the undirected conflict graph: an edge {u,v} means the
// estimated access sets of u and v conflict (WW, WR or RW). Self-loops
// are forbidden; the edge set is immutable once built.
type Graph struct {
	adjacency map[chain.TxId]map[chain.TxId]struct{}
	metrics   Metrics
}

// Metrics returns the graph's conflict-taxonomy metrics.
func (g *Graph) Metrics() *Metrics { return &g.metrics }

// HasEdge reports whether u and v are connected.
func (g *Graph) HasEdge(u, v chain.TxId) bool {
	if u == v {
		return false
	}
	if nb, ok := g.adjacency[u]; ok {
		_, has := nb[v]
		return has
	}
	return false
}

// Neighbors returns v's neighbors in ascending TxId order.
func (g *Graph) Neighbors(v chain.TxId) []chain.TxId {
	nb := g.adjacency[v]
	out := make([]chain.TxId, 0, len(nb))
	for u := range nb {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Degree returns the number of neighbors of v.
func (g *Graph) Degree(v chain.TxId) int { return len(g.adjacency[v]) }

// EdgeCount returns the total number of undirected edges.
func (g *Graph) EdgeCount() int {
	total := 0
	for _, nb := range g.adjacency {
		total += len(nb)
	}
	return total / 2
}

func (g *Graph) addEdge(u, v chain.TxId) {
	if u == v {
		return
	}
	if g.adjacency[u] == nil {
		g.adjacency[u] = make(map[chain.TxId]struct{})
	}
	if g.adjacency[v] == nil {
		g.adjacency[v] = make(map[chain.TxId]struct{})
	}
	if _, exists := g.adjacency[u][v]; exists {
		return
	}
	g.adjacency[u][v] = struct{}{}
	g.adjacency[v][u] = struct{}{}
	g.metrics.Total.Add(1)
}

// Build constructs the conflict graph for ids given each id's estimated
// AccessSets, using a key-indexed construction: a single
// pass builds per-key reader/writer indices, then conflicts are only
// considered between transactions that share a key, giving O(n*k)
// behavior for realistic blocks instead of the O(n^2) all-pairs scan.
func Build(ids []chain.TxId, estimated map[chain.TxId]chain.AccessSets) *Graph {
	g := &Graph{adjacency: make(map[chain.TxId]map[chain.TxId]struct{})}
	for _, id := range ids {
		if _, ok := g.adjacency[id]; !ok {
			g.adjacency[id] = make(map[chain.TxId]struct{})
		}
	}

	readers := make(map[store.Key][]chain.TxId)
	writers := make(map[store.Key][]chain.TxId)

	sortedIds := append([]chain.TxId(nil), ids...)
	sort.Slice(sortedIds, func(i, j int) bool { return sortedIds[i] < sortedIds[j] })

	for _, id := range sortedIds {
		sets, ok := estimated[id]
		if !ok {
			continue
		}
		for k := range sets.Reads {
			readers[k] = append(readers[k], id)
		}
		for k := range sets.Writes {
			writers[k] = append(writers[k], id)
		}
	}

	for k, wList := range writers {
		// Write-write: every pair of writers of the same key conflicts.
		for i := 0; i < len(wList); i++ {
			for j := i + 1; j < len(wList); j++ {
				g.metrics.WW.Add(1)
				g.addEdge(wList[i], wList[j])
			}
		}
		// Write-read / read-write: every writer conflicts with every
		// other reader of the same key.
		for _, r := range readers[k] {
			for _, w := range wList {
				if r == w {
					continue
				}
				g.metrics.WR.Add(1)
				g.addEdge(r, w)
			}
		}
	}

	metrics.ConflictEdges.Add(int64(g.EdgeCount()))
	logger.Debug("conflict graph built", "n_tx", len(ids), "edges", g.EdgeCount(), "ww", g.metrics.WW.Load(), "wr", g.metrics.WR.Load())

	return g
}

// ConflictRate returns the fraction of all possible transaction pairs
// (n choose 2) that are connected by an edge in the graph, feeding the
// conflict_rate metrics field reported by the benchmark verb.
func (g *Graph) ConflictRate(n int) float64 {
	if n < 2 {
		return 0
	}
	possible := float64(n) * float64(n-1) / 2
	return float64(g.EdgeCount()) / possible
}
