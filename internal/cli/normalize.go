package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"listing-insights-go/internal/aggregator"
	"listing-insights-go/internal/dataset"
	"listing-insights-go/internal/normalizer"
	"listing-insights-go/internal/pipeline"
	"listing-insights-go/internal/types"
)

func newNormalizeCmd(a *app) *cobra.Command {
	var (
		input    string
		output   string
		xlsx     string
		makeName string
		model    string
		year     int
		maxPrice float64
	)

	cmd := &cobra.Command{
		Use:   "normalize",
		Short: "Normalize a raw listing batch into VIN-keyed records and facets",
		Long: "Reads a raw marketplace batch, deduplicates listings by VIN, attaches ratings\n" +
			"and insurance estimates and prints {items, listings, filters}. Selection flags\n" +
			"narrow the listings; the facets always describe the whole batch.",
		RunE: func(cmd *cobra.Command, args []string) error {
			batch, err := dataset.LoadBatch(input)
			if err != nil {
				return err
			}
			est, err := a.estimator()
			if err != nil {
				return err
			}

			n := normalizer.New(a.cfg.NewRater(a.log), est, a.log,
				normalizer.WithRatingConcurrency(a.cfg.RatingConcurrency))
			res := pipeline.New(n, a.log).Run(cmd.Context(), batch)

			sel := aggregator.Selection{Make: makeName, Model: model}
			if cmd.Flags().Changed("year") {
				sel.Year = &year
			}
			if cmd.Flags().Changed("max-price") {
				sel.MaxPrice = &maxPrice
			}
			if sel != (aggregator.Selection{}) {
				matched := aggregator.Filter(res.Listings, sel)
				res.Listings = make(map[string]types.VehicleRecord, len(matched))
				for _, rec := range matched {
					res.Listings[rec.Vehicle.VIN] = rec
				}
				res.Items = len(matched)
			}

			if xlsx != "" {
				if err := dataset.ExportWorkbook(xlsx, res, a.log); err != nil {
					return fmt.Errorf("failed to export workbook: %w", err)
				}
			}
			return writeJSON(cmd.OutOrStdout(), output, res)
		},
	}

	f := cmd.Flags()
	f.StringVar(&input, "input", "", "raw batch JSON file [REQUIRED]")
	f.StringVar(&output, "output", "", "output JSON file (default: stdout)")
	f.StringVar(&xlsx, "xlsx", "", "also write an xlsx workbook to this path")
	f.StringVar(&makeName, "make", "", "keep listings whose make contains this text")
	f.StringVar(&model, "model", "", "keep listings whose model contains this text")
	f.IntVar(&year, "year", 0, "keep listings of this model year")
	f.Float64Var(&maxPrice, "max-price", 0, "keep listings priced at or below this")
	cmd.MarkFlagRequired("input")

	return cmd
}
