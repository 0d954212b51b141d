package executor

import (
	"context"
	"testing"

	"github.com/eth2030/paravm/chain"
	"github.com/eth2030/paravm/microvm"
	"github.com/eth2030/paravm/schedule"
	"github.com/eth2030/paravm/store"
)

func writeTx(id chain.TxId, k store.Key, v uint64) chain.Transaction {
	return chain.Transaction{
		ID:      id,
		Program: []microvm.MicroOp{microvm.Store(k, store.ValueFromUint64(v))},
	}
}

func readThenWriteTx(id chain.TxId, readKey, writeKey store.Key) chain.Transaction {
	return chain.Transaction{
		ID: id,
		Program: []microvm.MicroOp{
			microvm.Load(readKey),
			microvm.Push(store.ValueFromUint64(1)),
			{Op: microvm.OpAdd},
			microvm.Store(writeKey, store.Value{}),
		},
	}
}

func TestExecute_IndependentWave_MatchesSerial(t *testing.T) {
	kA := store.BytesToKey([]byte{1})
	kB := store.BytesToKey([]byte{2})
	kC := store.BytesToKey([]byte{3})
	block := chain.Block{Transactions: []chain.Transaction{
		writeTx(1, kA, 10),
		writeTx(2, kB, 20),
		writeTx(3, kC, 30),
	}}

	waves := []schedule.Wave{{1, 2, 3}}
	parCommitted := store.New()
	exec := New(parCommitted, DefaultRunner, 4)
	if _, err := exec.Execute(context.Background(), block, waves); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	serialCommitted := store.New()
	if _, err := ExecuteSerial(block, DefaultRunner, serialCommitted); err != nil {
		t.Fatalf("ExecuteSerial: %v", err)
	}

	if parCommitted.Digest() != serialCommitted.Digest() {
		t.Fatalf("parallel digest %s != serial digest %s", parCommitted.Digest(), serialCommitted.Digest())
	}
}

func TestExecute_RuntimeConflict_RequeuesAndMatchesSerial(t *testing.T) {
	kA := store.BytesToKey([]byte{1})
	kB := store.BytesToKey([]byte{2})
	// tx1 writes A; tx2 reads A and writes B. A scheduler informed by a sound
	// oracle would never place these in the same wave, but a missed or
	// unsound estimate can -- the executor must still detect and recover.
	block := chain.Block{Transactions: []chain.Transaction{
		writeTx(1, kA, 7),
		readThenWriteTx(2, kA, kB),
	}}

	waves := []schedule.Wave{{1, 2}}
	parCommitted := store.New()
	exec := New(parCommitted, DefaultRunner, 4)
	results, err := exec.Execute(context.Background(), block, waves)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("len(results) = %d, want 2", len(results))
	}
	if exec.Metrics().Snapshot().RuntimeConflicts == 0 {
		t.Error("expected at least one recorded runtime conflict")
	}

	serialCommitted := store.New()
	if _, err := ExecuteSerial(block, DefaultRunner, serialCommitted); err != nil {
		t.Fatalf("ExecuteSerial: %v", err)
	}

	if parCommitted.Digest() != serialCommitted.Digest() {
		t.Fatalf("parallel digest %s != serial digest %s after requeue recovery", parCommitted.Digest(), serialCommitted.Digest())
	}
	// tx2 must observe tx1's committed write (7+1=8), not a stale read of 0.
	if got := parCommitted.Get(kB); got != store.ValueFromUint64(8) {
		t.Fatalf("B = %v, want 8 (tx2 must re-read tx1's committed write after requeue)", got)
	}
}

func TestExecute_AllConflicting_MakesProgressEveryRound(t *testing.T) {
	k := store.BytesToKey([]byte{1})
	block := chain.Block{Transactions: []chain.Transaction{
		writeTx(1, k, 1),
		writeTx(2, k, 2),
		writeTx(3, k, 3),
	}}

	// Every transaction writes the same key, so dumping them all into one
	// wave forces one requeue round per transaction.
	waves := []schedule.Wave{{1, 2, 3}}
	committed := store.New()
	exec := New(committed, DefaultRunner, 4)
	results, err := exec.Execute(context.Background(), block, waves)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("len(results) = %d, want 3", len(results))
	}
	// Ascending-id serial order means key ends at the last writer's value.
	if got := committed.Get(k); got != store.ValueFromUint64(3) {
		t.Fatalf("final value = %v, want 3 (last writer in ascending id order)", got)
	}
}

func TestExecute_SizeOneWave_SerialShortCircuit(t *testing.T) {
	k := store.BytesToKey([]byte{9})
	block := chain.Block{Transactions: []chain.Transaction{writeTx(1, k, 42)}}
	waves := []schedule.Wave{{1}}
	committed := store.New()
	exec := New(committed, DefaultRunner, 4)
	results, err := exec.Execute(context.Background(), block, waves)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(results) != 1 || !results[0].Success {
		t.Fatalf("results = %+v, want one successful result", results)
	}
	if got := committed.Get(k); got != store.ValueFromUint64(42) {
		t.Fatalf("committed value = %v, want 42", got)
	}
}

func TestExecuteSerial_OrdersByAscendingId(t *testing.T) {
	k := store.BytesToKey([]byte{1})
	// Constructed already in ascending-id order per Block's invariant.
	block := chain.Block{Transactions: []chain.Transaction{
		writeTx(1, k, 100),
		writeTx(2, k, 200),
	}}
	committed := store.New()
	if _, err := ExecuteSerial(block, DefaultRunner, committed); err != nil {
		t.Fatalf("ExecuteSerial: %v", err)
	}
	if got := committed.Get(k); got != store.ValueFromUint64(200) {
		t.Fatalf("final value = %v, want 200 (last tx in ascending order wins)", got)
	}
}

func TestExecuteSerial_RejectsUnorderedBlock(t *testing.T) {
	block := chain.Block{Transactions: []chain.Transaction{
		{ID: 2}, {ID: 1},
	}}
	committed := store.New()
	if _, err := ExecuteSerial(block, DefaultRunner, committed); err == nil {
		t.Fatal("expected ExecuteSerial to reject a block with non-ascending ids")
	}
}
