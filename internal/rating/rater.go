// Package rating is the boundary to the external vehicle quality scoring
// service. The core only sees the Rater interface.
package rating

import (
	"context"
	"errors"
	"fmt"

	"listing-insights-go/internal/types"
)

// ErrRatingUnavailable marks a response that carried an error payload
// instead of scores.
var ErrRatingUnavailable = errors.New("rating unavailable")

// Rater scores a partially built record. Implementations must be safe for
// concurrent use.
type Rater interface {
	Rate(ctx context.Context, rec types.VehicleRecord) (types.Ratings, error)
}

// Func adapts a plain function to Rater.
type Func func(ctx context.Context, rec types.VehicleRecord) (types.Ratings, error)

func (f Func) Rate(ctx context.Context, rec types.VehicleRecord) (types.Ratings, error) {
	return f(ctx, rec)
}

// Static returns the same scores for every vehicle. Used for offline runs
// (USE_MOCK_RATING=true) and tests.
type Static types.Ratings

func (s Static) Rate(ctx context.Context, rec types.VehicleRecord) (types.Ratings, error) {
	out := make(types.Ratings, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out, nil
}

// MockRatings are the deterministic scores served in mock mode.
func MockRatings() Static {
	return Static{
		"dealRating":              3.45,
		"fuelEconomyRating":       3.80,
		"maintenanceRating":       3.10,
		"safetyRating":            4.20,
		"ownerSatisfactionRating": 3.90,
		"overallRating":           3.69,
	}
}

// CheckPayload rejects payloads that report a failure in-band, the way the
// upstream service answers {"error": "..."} with a success status.
func CheckPayload(r types.Ratings) error {
	if r == nil {
		return fmt.Errorf("%w: empty payload", ErrRatingUnavailable)
	}
	if msg, ok := r["error"]; ok {
		return fmt.Errorf("%w: %v", ErrRatingUnavailable, msg)
	}
	return nil
}
