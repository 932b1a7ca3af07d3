package cli

import (
	"github.com/spf13/cobra"

	"listing-insights-go/internal/aggregator"
	"listing-insights-go/internal/dataset"
)

func newFacetsCmd(a *app) *cobra.Command {
	var input, output string

	cmd := &cobra.Command{
		Use:   "facets",
		Short: "Derive filter facets from normalized records",
		Long:  "Accepts a VIN-keyed record map or a normalize response and prints its filter facets.",
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := dataset.LoadRecords(input)
			if err != nil {
				return err
			}
			a.log.WithField("records", len(records)).Debug("aggregating facets")
			return writeJSON(cmd.OutOrStdout(), output, aggregator.Aggregate(records))
		},
	}

	cmd.Flags().StringVar(&input, "input", "", "records JSON file [REQUIRED]")
	cmd.Flags().StringVar(&output, "output", "", "output JSON file (default: stdout)")
	cmd.MarkFlagRequired("input")
	return cmd
}
