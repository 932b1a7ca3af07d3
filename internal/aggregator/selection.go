package aggregator

import (
	"cmp"
	"slices"
	"strings"

	"listing-insights-go/internal/types"
)

// Selection is a set of user-chosen filter values. Empty fields match
// everything.
type Selection struct {
	Make     string
	Model    string
	Year     *int
	MaxPrice *float64
}

// Matches applies case-insensitive substring matching to make and model, an
// exact year match and an inclusive price ceiling. A record with an unknown
// year or price never matches a selection that constrains it.
func (s Selection) Matches(r types.VehicleRecord) bool {
	if s.Make != "" && !containsFold(r.Vehicle.Make, s.Make) {
		return false
	}
	if s.Model != "" && !containsFold(r.Vehicle.Model, s.Model) {
		return false
	}
	if s.Year != nil && (r.Vehicle.Year == nil || *r.Vehicle.Year != *s.Year) {
		return false
	}
	if s.MaxPrice != nil && (r.RetailListing.Price == nil || *r.RetailListing.Price > *s.MaxPrice) {
		return false
	}
	return true
}

// Filter returns the matching records ordered by VIN.
func Filter(records map[string]types.VehicleRecord, sel Selection) []types.VehicleRecord {
	out := make([]types.VehicleRecord, 0, len(records))
	for _, r := range records {
		if sel.Matches(r) {
			out = append(out, r)
		}
	}
	slices.SortFunc(out, func(a, b types.VehicleRecord) int {
		return cmp.Compare(a.Vehicle.VIN, b.Vehicle.VIN)
	})
	return out
}

func containsFold(v *string, sub string) bool {
	if v == nil {
		return false
	}
	return strings.Contains(strings.ToLower(*v), strings.ToLower(sub))
}
