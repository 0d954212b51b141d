package main

import (
	"context"

	"github.com/eth2030/paravm/chain"
	"github.com/eth2030/paravm/conflictgraph"
	"github.com/eth2030/paravm/executor"
	"github.com/eth2030/paravm/oracle"
	"github.com/eth2030/paravm/schedule"
	"github.com/eth2030/paravm/store"
)

// pipelineResult bundles every intermediate artifact of a parallel run,
// since the benchmark verb needs to report metrics from each stage.
type pipelineResult struct {
	committed *store.Store
	results   []chain.ExecutionResult
	oracle    *oracle.Oracle
	graph     *conflictgraph.Graph
	scheduler *schedule.Scheduler
	exec      *executor.Executor
	waves     []schedule.Wave
}

// runParallel drives a block through the full AccessOracle -> ConflictGraph
// -> MISScheduler -> ParallelExecutor pipeline.
func runParallel(block chain.Block, workers int, unsoundOracle bool) (*pipelineResult, error) {
	if err := block.Validate(); err != nil {
		return nil, err
	}

	var o *oracle.Oracle
	if unsoundOracle {
		o = oracle.NewUnsound()
	} else {
		o = oracle.New()
	}

	ids := block.Ids()
	estimated := make(map[chain.TxId]chain.AccessSets, len(block.Transactions))
	for _, tx := range block.Transactions {
		estimated[tx.ID] = o.Estimate(tx)
	}

	graph := conflictgraph.Build(ids, estimated)
	sched := schedule.New()
	waves := sched.Schedule(ids, graph)

	committed := store.New()
	exec := executor.New(committed, executor.DefaultRunner, workers)

	results, err := exec.Execute(context.Background(), block, waves)
	if err != nil {
		return nil, err
	}

	for _, r := range results {
		o.Observe(estimated[r.ID], chain.AccessSets{Reads: r.ActualReads, Writes: r.ActualWrites})
	}

	return &pipelineResult{
		committed: committed,
		results:   results,
		oracle:    o,
		graph:     graph,
		scheduler: sched,
		exec:      exec,
		waves:     waves,
	}, nil
}
