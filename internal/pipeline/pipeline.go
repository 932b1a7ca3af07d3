// Package pipeline runs a raw batch through normalization and facet
// aggregation and shapes the response.
package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"

	"listing-insights-go/internal/aggregator"
	"listing-insights-go/internal/logger"
	"listing-insights-go/internal/normalizer"
	"listing-insights-go/internal/types"
)

// Result is the response contract: item count, VIN-keyed listings and the
// facets derived from them.
type Result struct {
	RunID    string                         `json:"-"`
	Items    int                            `json:"items"`
	Listings map[string]types.VehicleRecord `json:"listings"`
	Filters  types.FilterFacets             `json:"filters"`
	Stats    normalizer.Stats               `json:"-"`
}

type Pipeline struct {
	normalizer *normalizer.Normalizer
	log        *logger.Logger
}

func New(n *normalizer.Normalizer, log *logger.Logger) *Pipeline {
	return &Pipeline{normalizer: n, log: log.Component("pipeline")}
}

// Run never fails; malformed input yields an empty result.
func (p *Pipeline) Run(ctx context.Context, batch types.RawBatch) Result {
	runID := uuid.New().String()
	log := p.log.With("run_id", runID)
	start := time.Now()
	log.Info("pipeline started")

	norm := p.normalizer.Normalize(ctx, batch)
	filters := aggregator.Aggregate(norm.Records)

	listings := norm.Records
	if listings == nil {
		listings = map[string]types.VehicleRecord{}
	}

	log.WithField("items", norm.UniqueCount).
		WithField("duration_ms", time.Since(start).Milliseconds()).
		Info("pipeline finished")

	return Result{
		RunID:    runID,
		Items:    norm.UniqueCount,
		Listings: listings,
		Filters:  filters,
		Stats:    norm.Stats,
	}
}
