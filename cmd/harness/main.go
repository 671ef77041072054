package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:   "harness",
		Short: "Run guardrail scenario batches against the validation engine",
		Long: `harness replays fixed scenario batches (YAML fixtures) through the
validation engine in-process and reports pass rates. Scenarios whose
classification is ambiguous or mismatched land in a separate needs-review
bucket rather than being folded into pass/fail.`,
		SilenceUsage: true,
	}
	root.AddCommand(newRunCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRunCmd() *cobra.Command {
	var policyFile string
	var verbose bool

	cmd := &cobra.Command{
		Use:   "run <fixture.yaml> [more fixtures...]",
		Short: "Run one or more scenario fixture files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFixtures(cmd.OutOrStdout(), args, policyFile, verbose)
		},
	}
	cmd.Flags().StringVar(&policyFile, "policy", "", "YAML per-domain strict/warn policy file")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "print every scenario result, not only failures")
	return cmd
}
