// Package aggregator derives filter facets from a normalized record set.
package aggregator

import (
	"cmp"
	"slices"

	"listing-insights-go/internal/types"
)

// Aggregate makes a single pass over records. Only known numeric values feed
// the ranges; every collection in the result is sorted.
func Aggregate(records map[string]types.VehicleRecord) types.FilterFacets {
	facets := types.EmptyFacets()
	if len(records) == 0 {
		return facets
	}

	var mileage, price rangeAcc
	years := map[int]struct{}{}
	colors := map[string]struct{}{}
	models := map[string]map[string]struct{}{}

	for _, r := range records {
		mileage.add(r.RetailListing.Miles)
		price.add(r.RetailListing.Price)
		if r.Vehicle.Year != nil {
			years[*r.Vehicle.Year] = struct{}{}
		}

		if mk := r.Vehicle.Make; mk != nil {
			if _, ok := models[*mk]; !ok {
				models[*mk] = map[string]struct{}{}
			}
			if md := r.Vehicle.Model; md != nil {
				models[*mk][*md] = struct{}{}
			}
		}
		if c := r.Vehicle.ExteriorColor; c != nil {
			colors[*c] = struct{}{}
		}
	}

	facets.MileageRange = mileage.result()
	facets.PriceRange = price.result()
	for mk, set := range models {
		facets.Makes = append(facets.Makes, mk)
		facets.Models[mk] = sortedKeys(set)
	}
	slices.Sort(facets.Makes)
	facets.Years = sortedKeys(years)
	facets.ExteriorColors = sortedKeys(colors)
	return facets
}

type rangeAcc struct {
	min, max float64
	seen     bool
}

func (a *rangeAcc) add(v *float64) {
	if v == nil {
		return
	}
	if !a.seen {
		a.min, a.max, a.seen = *v, *v, true
		return
	}
	a.min = min(a.min, *v)
	a.max = max(a.max, *v)
}

func (a rangeAcc) result() types.Range {
	if !a.seen {
		return types.Range{}
	}
	lo, hi := a.min, a.max
	return types.Range{Min: &lo, Max: &hi}
}

func sortedKeys[K cmp.Ordered](set map[K]struct{}) []K {
	out := make([]K, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}
