package main

import (
	"fmt"

	"github.com/eth2030/paravm/chain"
	"github.com/eth2030/paravm/genblock"
	"github.com/spf13/cobra"
)

var genFlags struct {
	nTx           int
	keySpace      int
	conflictRatio float64
	coldRatio     float64
	seed          int64
	opsPerTx      int
	output        string
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a synthetic benchmark block",
	Long: `generate produces a deterministic block of transactions whose storage
accesses are drawn from a shared "hot" key pool and per-transaction
"cold" keys, with the conflict rate controlled by --conflict-ratio.`,
	RunE: runGenerate,
}

func init() {
	f := generateCmd.Flags()
	f.IntVar(&genFlags.nTx, "n-tx", 1000, "number of transactions to generate")
	f.IntVar(&genFlags.keySpace, "key-space", 100, "size of the shared hot key pool")
	f.Float64Var(&genFlags.conflictRatio, "conflict-ratio", 0.1, "probability a storage access targets the hot pool")
	f.Float64Var(&genFlags.coldRatio, "cold-ratio", 0.5, "probability a storage access within a tx targets a key not yet touched")
	f.Int64Var(&genFlags.seed, "seed", 1, "random seed for deterministic generation")
	f.IntVar(&genFlags.opsPerTx, "ops-per-tx", 6, "maximum storage accesses per transaction")
	f.StringVar(&genFlags.output, "output", "", "path to write the generated block JSON (required)")
	generateCmd.MarkFlagRequired("output")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	block := genblock.Generate(genblock.Config{
		NumTx:         genFlags.nTx,
		KeySpace:      genFlags.keySpace,
		ConflictRatio: genFlags.conflictRatio,
		ColdRatio:     genFlags.coldRatio,
		Seed:          genFlags.seed,
		OpsPerTx:      genFlags.opsPerTx,
	})

	if err := chain.SaveBlock(genFlags.output, block); err != nil {
		return err
	}
	fmt.Printf("wrote %d transactions to %s\n", len(block.Transactions), genFlags.output)
	return nil
}
