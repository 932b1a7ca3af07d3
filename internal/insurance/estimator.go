// Package insurance computes an explainable annual insurance estimate for a
// normalized vehicle record using a multiplicative factor model.
package insurance

import (
	"maps"
	"math"
	"slices"
	"strings"

	"listing-insights-go/internal/types"
)

// Estimator is safe for concurrent use; it never mutates its configuration.
type Estimator struct {
	cfg   Config
	usage map[string]struct{}
	fuel  map[string]struct{}
}

// NewEstimator copies cfg so later changes by the caller have no effect.
func NewEstimator(cfg Config) *Estimator {
	cfg.States = maps.Clone(cfg.States)
	cfg.Makes = maps.Clone(cfg.Makes)
	cfg.BodyStyles = maps.Clone(cfg.BodyStyles)
	cfg.Cylinders = maps.Clone(cfg.Cylinders)
	cfg.AgeBands = slices.Clone(cfg.AgeBands)
	cfg.MileageBands = slices.Clone(cfg.MileageBands)

	return &Estimator{
		cfg:   cfg,
		usage: toSet(cfg.ElevatedUsageTypes),
		fuel:  toSet(cfg.ElevatedFuelTypes),
	}
}

// Config returns the configuration the estimator was built with.
func (e *Estimator) Config() Config {
	return e.cfg
}

// Estimate never fails: every missing input resolves through a configured default.
func (e *Estimator) Estimate(rec types.VehicleRecord) types.InsuranceEstimate {
	cfg := e.cfg
	v := rec.Vehicle
	r := rec.RetailListing

	basePrice := cfg.DefaultPrice
	switch {
	case r.Price != nil && *r.Price != 0:
		basePrice = *r.Price
	case v.BaseMsrp != nil && *v.BaseMsrp != 0:
		basePrice = *v.BaseMsrp
	}
	baseCost := basePrice * cfg.BaseRate

	state, stateKey := e.resolveState(r)
	locationMult := cfg.UnknownStateMultiplier
	if stateKey != "" {
		if m, ok := cfg.States[stateKey]; ok {
			locationMult = m
		}
	}

	makeMult := cfg.DefaultMultiplier
	if v.Make != nil {
		makeMult = lookup(cfg.Makes, *v.Make, cfg.DefaultMultiplier)
	}

	bodyStyle := cfg.DefaultBodyStyle
	if v.BodyStyle != nil {
		bodyStyle = *v.BodyStyle
	}
	bodyMult := lookup(cfg.BodyStyles, bodyStyle, cfg.DefaultMultiplier)

	cylinderMult := cfg.DefaultMultiplier
	if v.Cylinders != nil {
		cylinderMult = lookup(cfg.Cylinders, *v.Cylinders, cfg.DefaultMultiplier)
	}

	year := cfg.DefaultYear
	if v.Year != nil {
		year = *v.Year
	}
	age := max(0, cfg.ReferenceYear-year)
	ageMult := bandInclusive(cfg.AgeBands, float64(age))

	miles := cfg.DefaultMiles
	if r.Miles != nil {
		miles = *r.Miles
	}
	mileageMult := bandExclusive(cfg.MileageBands, miles)

	accidents, owners, usage := 0, 1, cfg.DefaultUsageType
	if h := rec.History; h != nil {
		if h.AccidentCount != nil {
			accidents = *h.AccidentCount
		}
		if h.OwnerCount != nil {
			owners = *h.OwnerCount
		}
		if h.UsageType != nil {
			usage = *h.UsageType
		}
	}

	accidentMult := cfg.CleanHistoryMultiplier
	if accidents != 0 {
		accidentMult = 1.0 + float64(accidents)*cfg.PerAccidentPenalty
	}
	ownerMult := 1.0 + float64(max(0, owners-1))*cfg.PerExtraOwnerPenalty

	usageMult := 1.0
	if _, ok := e.usage[usage]; ok {
		usageMult = cfg.ElevatedUsageMultiplier
	}

	fuel := cfg.DefaultFuel
	if v.Fuel != nil {
		fuel = *v.Fuel
	}
	fuelMult := 1.0
	if _, ok := e.fuel[fuel]; ok {
		fuelMult = cfg.ElevatedFuelMultiplier
	}

	total := locationMult * makeMult * bodyMult * cylinderMult * ageMult *
		mileageMult * accidentMult * ownerMult * usageMult * fuelMult

	annual := baseCost * total

	return types.InsuranceEstimate{
		AnnualEstimate:  round(annual, 2),
		MonthlyEstimate: round(annual/12, 2),
		Breakdown: types.Breakdown{
			BaseCost:            round(baseCost, 2),
			LocationMultiplier:  round(locationMult, 3),
			MakeMultiplier:      round(makeMult, 3),
			BodyStyleMultiplier: round(bodyMult, 3),
			EngineMultiplier:    round(cylinderMult, 3),
			AgeMultiplier:       round(ageMult, 3),
			MileageMultiplier:   round(mileageMult, 3),
			AccidentMultiplier:  round(accidentMult, 3),
			OwnerMultiplier:     round(ownerMult, 3),
			UsageMultiplier:     round(usageMult, 3),
			FuelMultiplier:      round(fuelMult, 3),
			TotalMultiplier:     round(total, 3),
		},
		Factors: types.Factors{
			State:         state,
			Make:          v.Make,
			BodyStyle:     bodyStyle,
			Cylinders:     v.Cylinders,
			Age:           age,
			Miles:         miles,
			AccidentCount: accidents,
			OwnerCount:    owners,
			UsageType:     usage,
			Fuel:          fuel,
		},
	}
}

// resolveState returns the state as reported (the listing's own value, or
// one inferred from the zip when enabled) and the upper-cased key used for
// the table lookup. A nil state means unknown.
func (e *Estimator) resolveState(r types.RetailListing) (*string, string) {
	if r.State != nil {
		if key := strings.ToUpper(strings.TrimSpace(*r.State)); key != "" {
			raw := *r.State
			return &raw, key
		}
	}
	if e.cfg.InferStateFromZip && r.Zip != nil {
		if s, ok := StateFromZip(*r.Zip); ok {
			return &s, s
		}
	}
	return nil, ""
}

func lookup[K comparable](table map[K]float64, key K, def float64) float64 {
	if m, ok := table[key]; ok {
		return m
	}
	return def
}

func bandInclusive(bands []Band, v float64) float64 {
	for i, b := range bands {
		if i == len(bands)-1 || v <= b.Limit {
			return b.Multiplier
		}
	}
	return 1.0
}

func bandExclusive(bands []Band, v float64) float64 {
	for i, b := range bands {
		if i == len(bands)-1 || v < b.Limit {
			return b.Multiplier
		}
	}
	return 1.0
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
