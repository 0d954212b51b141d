package oracle

import (
	"testing"

	"github.com/eth2030/paravm/chain"
	"github.com/eth2030/paravm/microvm"
	"github.com/eth2030/paravm/store"
)

func TestEstimate_UnionsAllThreeSources(t *testing.T) {
	declaredRead := store.BytesToKey([]byte{1})
	declaredWrite := store.BytesToKey([]byte{2})
	accessListRead := store.BytesToKey([]byte{3})
	accessListWrite := store.BytesToKey([]byte{4})
	programRead := store.BytesToKey([]byte{5})
	programWrite := store.BytesToKey([]byte{6})

	tx := chain.Transaction{
		ID:             1,
		DeclaredReads:  []store.Key{declaredRead},
		DeclaredWrites: []store.Key{declaredWrite},
		AccessList: []chain.AccessListEntry{
			{Key: accessListRead, IsWrite: false},
			{Key: accessListWrite, IsWrite: true},
		},
		Program: []microvm.MicroOp{
			microvm.Load(programRead),
			microvm.Store(programWrite, store.ValueFromUint64(1)),
		},
	}

	o := New()
	got := o.Estimate(tx)

	for _, k := range []store.Key{declaredRead, accessListRead, programRead} {
		if _, ok := got.Reads[k]; !ok {
			t.Errorf("Reads missing expected key %x", k)
		}
	}
	for _, k := range []store.Key{declaredWrite, accessListWrite, programWrite} {
		if _, ok := got.Writes[k]; !ok {
			t.Errorf("Writes missing expected key %x", k)
		}
	}
}

func TestEstimate_EmptyTransaction(t *testing.T) {
	o := New()
	got := o.Estimate(chain.Transaction{ID: 1})
	if len(got.Reads) != 0 || len(got.Writes) != 0 {
		t.Fatalf("expected empty access sets for empty transaction, got %+v", got)
	}
}

func TestNewUnsound_AlwaysEmpty(t *testing.T) {
	o := NewUnsound()
	k := store.BytesToKey([]byte{1})
	tx := chain.Transaction{
		ID:            1,
		DeclaredReads: []store.Key{k},
		Program:       []microvm.MicroOp{microvm.Load(k)},
	}
	got := o.Estimate(tx)
	if len(got.Reads) != 0 || len(got.Writes) != 0 {
		t.Fatalf("unsound oracle must always estimate empty sets, got %+v", got)
	}
}

func TestPrecisionRecall_NoObservations(t *testing.T) {
	o := New()
	p, r := o.PrecisionRecall()
	if p != 1.0 || r != 1.0 {
		t.Fatalf("PrecisionRecall() with no Observe calls = (%v, %v), want (1, 1)", p, r)
	}
}

func TestPrecisionRecall_PerfectEstimate(t *testing.T) {
	o := New()
	k1 := store.BytesToKey([]byte{1})
	k2 := store.BytesToKey([]byte{2})
	estimated := chain.AccessSets{
		Reads:  map[store.Key]struct{}{k1: {}},
		Writes: map[store.Key]struct{}{k2: {}},
	}
	actual := chain.AccessSets{
		Reads:  map[store.Key]struct{}{k1: {}},
		Writes: map[store.Key]struct{}{k2: {}},
	}
	o.Observe(estimated, actual)
	p, r := o.PrecisionRecall()
	if p != 1.0 || r != 1.0 {
		t.Fatalf("perfect estimate => (precision, recall) = (%v, %v), want (1, 1)", p, r)
	}
}

func TestPrecisionRecall_OverApproximation(t *testing.T) {
	o := New()
	k1 := store.BytesToKey([]byte{1})
	k2 := store.BytesToKey([]byte{2})
	// estimated {k1, k2} but only k1 is actually touched: precision < 1, recall = 1.
	estimated := chain.AccessSets{
		Reads:  map[store.Key]struct{}{k1: {}, k2: {}},
		Writes: map[store.Key]struct{}{},
	}
	actual := chain.AccessSets{
		Reads:  map[store.Key]struct{}{k1: {}},
		Writes: map[store.Key]struct{}{},
	}
	o.Observe(estimated, actual)
	p, r := o.PrecisionRecall()
	if p != 0.5 {
		t.Fatalf("precision = %v, want 0.5", p)
	}
	if r != 1.0 {
		t.Fatalf("recall = %v, want 1.0", r)
	}
}
