// Package normalizer turns raw marketplace batches into deduplicated,
// VIN-keyed vehicle records carrying ratings and an insurance estimate.
package normalizer

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"golang.org/x/sync/errgroup"

	"listing-insights-go/internal/insurance"
	"listing-insights-go/internal/logger"
	"listing-insights-go/internal/rating"
	"listing-insights-go/internal/types"
)

const defaultRatingConcurrency = 4

// Stats counts what happened to each part of the batch.
type Stats struct {
	Groups         int `json:"groups"`
	SkippedGroups  int `json:"skippedGroups"`
	Listings       int `json:"listings"`
	MissingVIN     int `json:"missingVin"`
	Duplicates     int `json:"duplicates"`
	Failed         int `json:"failed"`
	RatingFailures int `json:"ratingFailures"`
}

type Result struct {
	UniqueCount int
	Records     map[string]types.VehicleRecord
	Stats       Stats
}

type Normalizer struct {
	rater       rating.Rater
	estimator   *insurance.Estimator
	concurrency int
	log         *logger.Logger
}

type Option func(*Normalizer)

// WithRatingConcurrency bounds the number of in-flight rating calls.
func WithRatingConcurrency(n int) Option {
	return func(nz *Normalizer) {
		if n > 0 {
			nz.concurrency = n
		}
	}
}

// New builds a Normalizer. A nil rater leaves every record with empty
// ratings; a nil estimator uses the stock tables.
func New(rater rating.Rater, estimator *insurance.Estimator, log *logger.Logger, opts ...Option) *Normalizer {
	if estimator == nil {
		estimator = insurance.NewEstimator(insurance.DefaultConfig())
	}
	n := &Normalizer{
		rater:       rater,
		estimator:   estimator,
		concurrency: defaultRatingConcurrency,
		log:         log.Component("normalizer"),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize never fails. Malformed groups and listings are skipped with a
// diagnostic; the first listing seen for a VIN wins.
func (n *Normalizer) Normalize(ctx context.Context, batch types.RawBatch) Result {
	var stats Stats
	records := n.collect(batch, &stats)

	failed := n.rateAll(ctx, records)
	for _, f := range failed {
		if f {
			stats.RatingFailures++
		}
	}

	out := make(map[string]types.VehicleRecord, len(records))
	for _, rec := range records {
		est := n.estimator.Estimate(*rec)
		rec.Insurance = &est
		out[rec.Vehicle.VIN] = *rec
	}

	n.log.WithFields(map[string]any{
		"unique_vins":     len(out),
		"listings":        stats.Listings,
		"duplicates":      stats.Duplicates,
		"missing_vin":     stats.MissingVIN,
		"failed":          stats.Failed,
		"skipped_groups":  stats.SkippedGroups,
		"rating_failures": stats.RatingFailures,
	}).Info("normalization complete")

	return Result{UniqueCount: len(out), Records: out, Stats: stats}
}

// collect walks groups and listings in input order and keeps the first
// record per VIN.
func (n *Normalizer) collect(batch types.RawBatch, stats *Stats) []*types.VehicleRecord {
	raw, present := batch["results"]
	groups, ok := asList(raw)
	if present && !ok {
		n.log.WithField("type", fmt.Sprintf("%T", raw)).Warn("results is not a list, nothing to normalize")
	}

	seen := make(map[string]struct{})
	var records []*types.VehicleRecord

	for gi, g := range groups {
		stats.Groups++
		log := n.log.With("group", gi)

		group, ok := asMap(g)
		if !ok {
			stats.SkippedGroups++
			log.WithField("type", fmt.Sprintf("%T", g)).Warn("group is not an object, skipped")
			continue
		}
		listings, _ := asList(group["listings"])
		if len(listings) == 0 {
			stats.SkippedGroups++
			entry := log.WithField("keys", slices.Sorted(maps.Keys(group)))
			if upstream, ok := group["error"]; ok {
				entry = entry.WithField("upstream_error", upstream)
			}
			entry.Warn("no listings in group, skipped")
			continue
		}

		for li, l := range listings {
			stats.Listings++
			rec, err := n.extract(l)
			if err != nil {
				stats.Failed++
				log.With("listing", li).WithError(err).Error("listing extraction failed, skipped")
				continue
			}
			if rec == nil {
				stats.MissingVIN++
				log.With("listing", li).Warn("missing VIN, listing skipped")
				continue
			}
			if _, dup := seen[rec.Vehicle.VIN]; dup {
				stats.Duplicates++
				log.With("vin", rec.Vehicle.VIN).Info("duplicate VIN skipped")
				continue
			}
			seen[rec.Vehicle.VIN] = struct{}{}
			records = append(records, rec)
		}
	}
	return records
}

// extract returns nil, nil when the listing has no usable VIN.
func (n *Normalizer) extract(l any) (rec *types.VehicleRecord, err error) {
	defer func() {
		if r := recover(); r != nil {
			rec, err = nil, fmt.Errorf("panic while extracting listing: %v", r)
		}
	}()

	listing, ok := asMap(l)
	if !ok {
		return nil, fmt.Errorf("listing is %T, not an object", l)
	}
	vin := vinOf(listing)
	if vin == "" {
		return nil, nil
	}
	built := buildRecord(vin, listing)
	return &built, nil
}

// rateAll attaches ratings to every record with at most n.concurrency calls
// in flight. Each goroutine owns its slot, so completion order is irrelevant.
// The returned slice flags the records whose rating degraded to empty.
func (n *Normalizer) rateAll(ctx context.Context, records []*types.VehicleRecord) []bool {
	failed := make([]bool, len(records))
	if n.rater == nil {
		for _, rec := range records {
			rec.Ratings = types.Ratings{}
		}
		return failed
	}

	var g errgroup.Group
	g.SetLimit(n.concurrency)
	for i, rec := range records {
		g.Go(func() error {
			rec.Ratings, failed[i] = n.rate(ctx, *rec)
			return nil
		})
	}
	_ = g.Wait()
	return failed
}

func (n *Normalizer) rate(ctx context.Context, rec types.VehicleRecord) (r types.Ratings, failed bool) {
	log := n.log.With("vin", rec.Vehicle.VIN)
	defer func() {
		if p := recover(); p != nil {
			log.WithField("panic", p).Error("rating panicked, using empty ratings")
			r, failed = types.Ratings{}, true
		}
	}()

	r, err := n.rater.Rate(ctx, rec)
	if err == nil {
		err = rating.CheckPayload(r)
	}
	if err != nil {
		log.WithError(err).Warn("rating failed, using empty ratings")
		return types.Ratings{}, true
	}
	return r, false
}
