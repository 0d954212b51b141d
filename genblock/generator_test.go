package genblock

import "testing"

func TestGenerate_RespectsNumTx(t *testing.T) {
	block := Generate(Config{NumTx: 25, KeySpace: 10, ConflictRatio: 0.2, ColdRatio: 0.5, Seed: 1})
	if len(block.Transactions) != 25 {
		t.Fatalf("len(Transactions) = %d, want 25", len(block.Transactions))
	}
}

func TestGenerate_AscendingIds(t *testing.T) {
	block := Generate(Config{NumTx: 50, KeySpace: 10, ConflictRatio: 0.1, ColdRatio: 0.5, Seed: 2})
	if err := block.Validate(); err != nil {
		t.Fatalf("generated block failed Validate(): %v", err)
	}
}

func TestGenerate_DeterministicGivenSeed(t *testing.T) {
	cfg := Config{NumTx: 100, KeySpace: 20, ConflictRatio: 0.15, ColdRatio: 0.4, Seed: 42, OpsPerTx: 5}
	a := Generate(cfg)
	b := Generate(cfg)

	if len(a.Transactions) != len(b.Transactions) {
		t.Fatalf("len mismatch: %d vs %d", len(a.Transactions), len(b.Transactions))
	}
	for i := range a.Transactions {
		ta, tb := a.Transactions[i], b.Transactions[i]
		if ta.ID != tb.ID {
			t.Fatalf("tx %d: id mismatch %d vs %d", i, ta.ID, tb.ID)
		}
		if len(ta.Program) != len(tb.Program) {
			t.Fatalf("tx %d: program length mismatch %d vs %d", i, len(ta.Program), len(tb.Program))
		}
		for j := range ta.Program {
			if ta.Program[j] != tb.Program[j] {
				t.Fatalf("tx %d op %d: mismatch %+v vs %+v", i, j, ta.Program[j], tb.Program[j])
			}
		}
	}
}

func TestGenerate_DifferentSeedsDiffer(t *testing.T) {
	cfg1 := Config{NumTx: 50, KeySpace: 20, ConflictRatio: 0.3, ColdRatio: 0.5, Seed: 1}
	cfg2 := cfg1
	cfg2.Seed = 2

	a := Generate(cfg1)
	b := Generate(cfg2)

	same := true
	for i := range a.Transactions {
		if len(a.Transactions[i].Program) != len(b.Transactions[i].Program) {
			same = false
			break
		}
		for j := range a.Transactions[i].Program {
			if a.Transactions[i].Program[j] != b.Transactions[i].Program[j] {
				same = false
				break
			}
		}
	}
	if same {
		t.Fatal("different seeds produced identical programs across the whole block; expected at least one difference")
	}
}

func TestGenerate_ZeroNumTx(t *testing.T) {
	block := Generate(Config{NumTx: 0, KeySpace: 10, Seed: 1})
	if len(block.Transactions) != 0 {
		t.Fatalf("len(Transactions) = %d, want 0", len(block.Transactions))
	}
}

func TestGenerate_EveryProgramNonEmpty(t *testing.T) {
	block := Generate(Config{NumTx: 30, KeySpace: 10, ConflictRatio: 0.2, ColdRatio: 0.5, Seed: 7})
	for _, tx := range block.Transactions {
		if len(tx.Program) == 0 {
			t.Fatalf("tx %d has an empty program", tx.ID)
		}
	}
}
