package cli

import (
	"github.com/spf13/cobra"

	"listing-insights-go/internal/dataset"
)

func newEstimateCmd(a *app) *cobra.Command {
	var input, output string

	cmd := &cobra.Command{
		Use:   "estimate",
		Short: "Estimate annual and monthly insurance for one normalized record",
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := dataset.LoadRecord(input)
			if err != nil {
				return err
			}
			est, err := a.estimator()
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), output, est.Estimate(rec))
		},
	}

	cmd.Flags().StringVar(&input, "input", "", "normalized record JSON file [REQUIRED]")
	cmd.Flags().StringVar(&output, "output", "", "output JSON file (default: stdout)")
	cmd.MarkFlagRequired("input")
	return cmd
}
