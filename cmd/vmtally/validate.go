package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/luxfi/vmtally/internal/load"
)

// validateCmd runs S1 alone, without tabulating anything - useful for
// checking a registry/tally/parameter-set triple while authoring fixtures.
func validateCmd() *cobra.Command {
	var registryPath, tallyPath, paramsPath string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Run structural validation (S1) without tabulating",
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := loadInputs(registryPath, tallyPath, paramsPath)
			if err != nil {
				fmt.Fprintf(os.Stderr, "input error: %v\n", err)
				os.Exit(pipelineExitIOError)
			}

			issues := load.Validate(in.Registry, in.Tally, in.Params)
			if issues.Empty() {
				fmt.Println("ok: no structural issues found")
				return nil
			}
			for _, i := range issues.Sort() {
				fmt.Fprintln(os.Stderr, i.Error())
			}
			os.Exit(2)
			return nil
		},
	}

	cmd.Flags().StringVar(&registryPath, "registry", "", "path to the division registry JSON file")
	cmd.Flags().StringVar(&tallyPath, "tally", "", "path to the ballot tally JSON file")
	cmd.Flags().StringVar(&paramsPath, "params", "", "path to the parameter set JSON file")
	_ = cmd.MarkFlagRequired("registry")
	_ = cmd.MarkFlagRequired("tally")
	_ = cmd.MarkFlagRequired("params")

	return cmd
}
