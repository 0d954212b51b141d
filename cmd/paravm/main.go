// Command paravm drives the parallel transaction scheduler and executor
// from the command line: generating synthetic benchmark blocks, running
// them serially or in parallel, and comparing the two to confirm serial
// equivalence.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "paravm",
	Short: "Parallel transaction scheduler and executor",
	Long: `paravm schedules and executes blocks of key-value transactions in
parallel, using access-set estimation, conflict-graph construction and
a maximal-independent-set wave scheduler, while guaranteeing the final
state matches strict ascending-id sequential execution.`,
}

func init() {
	rootCmd.AddCommand(generateCmd, executeCmd, benchmarkCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "paravm: %v\n", err)
		os.Exit(1)
	}
}
