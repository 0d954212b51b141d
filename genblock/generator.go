// Package genblock is the synthetic block generator: an external
// collaborator that produces benchmark blocks with a
// controllable conflict rate, used by the `generate` and `benchmark` CLI
// verbs.
package genblock

import (
	"math/rand"

	"github.com/eth2030/paravm/chain"
	"github.com/eth2030/paravm/microvm"
	"github.com/eth2030/paravm/store"
)

// Config controls synthetic block generation.
type Config struct {
	NumTx int // number of transactions to generate

	// KeySpace is the size of the shared "hot" key pool every
	// transaction can draw from; its size is the scheduler's main
	// conflict-inducing knob alongside ConflictRatio.
	KeySpace int

	// ConflictRatio is the probability [0,1] that a given storage access
	// in a transaction's program targets the shared hot pool rather
	// than that transaction's own private "cold" pool of keys unique to
	// it.
	ConflictRatio float64

	// ColdRatio is the probability [0,1] that a storage access within a
	// transaction's own program targets a key the transaction has not
	// yet touched (a genuinely cold access) rather than re-accessing a
	// key it already loaded or stored earlier in the same program (a
	// warm access), exercising the microvm interpreter's per-tx
	// warm/cold gas split.
	ColdRatio float64

	Seed int64

	// OpsPerTx bounds the number of storage accesses in each
	// transaction's program (1..OpsPerTx); each access emits one, two or
	// four micro-ops. Defaults to 6 if zero.
	OpsPerTx int
}

// Generate produces a deterministic (given Config.Seed) synthetic Block.
func Generate(cfg Config) chain.Block {
	if cfg.OpsPerTx <= 0 {
		cfg.OpsPerTx = 6
	}
	if cfg.KeySpace <= 0 {
		cfg.KeySpace = 1
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	hotPool := make([]store.Key, cfg.KeySpace)
	for i := range hotPool {
		hotPool[i] = syntheticKey(0, uint64(i))
	}

	txs := make([]chain.Transaction, cfg.NumTx)
	for i := 0; i < cfg.NumTx; i++ {
		txs[i] = generateTx(rng, chain.TxId(i), hotPool, cfg)
	}

	return chain.Block{Transactions: txs}
}

// generateTx builds one transaction's program. It interleaves loads,
// stores and arithmetic so that the block exercises genuine read-after-
// write dependencies (the source of the conflicts AccessOracle must
// predict and the executor must validate at runtime).
func generateTx(rng *rand.Rand, id chain.TxId, hotPool []store.Key, cfg Config) chain.Transaction {
	var (
		program []microvm.MicroOp
		touched []store.Key // keys this tx has accessed so far, for warm re-access
	)

	pickKey := func() store.Key {
		warmReuse := len(touched) > 0 && rng.Float64() >= cfg.ColdRatio
		if warmReuse {
			return touched[rng.Intn(len(touched))]
		}
		if rng.Float64() < cfg.ConflictRatio {
			return hotPool[rng.Intn(len(hotPool))]
		}
		return syntheticKey(uint64(id)+1, uint64(len(touched)))
	}

	nOps := 1 + rng.Intn(cfg.OpsPerTx)
	for i := 0; i < nOps; i++ {
		k := pickKey()
		touched = append(touched, k)

		switch rng.Intn(3) {
		case 0:
			program = append(program, microvm.Load(k))
		case 1:
			program = append(program, microvm.Push(store.ValueFromUint64(uint64(rng.Intn(1000)))))
			program = append(program, microvm.Store(k, store.Value{}))
		default:
			program = append(program, microvm.Load(k))
			program = append(program, microvm.Push(store.ValueFromUint64(uint64(rng.Intn(10)))))
			program = append(program, microvm.MicroOp{Op: microvm.OpAdd})
			program = append(program, microvm.Store(k, store.Value{}))
		}
	}

	return chain.Transaction{ID: id, Program: program}
}

// syntheticKey derives a deterministic Key from two integers so that the
// same (namespace, index) pair always maps to the same key, without
// colliding with keys from a different namespace.
func syntheticKey(namespace, index uint64) store.Key {
	var b [16]byte
	for i := 0; i < 8; i++ {
		b[i] = byte(namespace >> (8 * (7 - i)))
		b[8+i] = byte(index >> (8 * (7 - i)))
	}
	return store.BytesToKey(b[:])
}
