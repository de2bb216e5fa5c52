// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "vmtally",
	Short: "Deterministic election/plebiscite tabulation engine",
	Long: `vmtally loads a division registry, a ballot tally and a parameter set,
runs the fixed S1-S9 tabulation pipeline and emits a Result, a RunRecord and,
when frontier mapping applies, a FrontierMap - all as canonical JSON artifacts
with a reproducible Formula ID.`,
}

func main() {
	rootCmd.AddCommand(runCmd(), validateCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
