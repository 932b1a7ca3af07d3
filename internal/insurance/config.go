package insurance

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidReferenceYear = errors.New("reference_year must be positive")
	ErrInvalidBaseRate      = errors.New("base_rate must be positive")
	ErrInvalidDefaultPrice  = errors.New("default_price must be positive")
	ErrEmptyBands           = errors.New("age_bands and mileage_bands must not be empty")
	ErrUnorderedBands       = errors.New("bands must be in ascending order")
)

// Band maps every value up to Limit onto Multiplier. The last band of a
// table is open-ended and its Limit is ignored.
type Band struct {
	Limit      float64 `yaml:"limit"`
	Multiplier float64 `yaml:"multiplier"`
}

// Config holds every constant and lookup table the estimator reads.
type Config struct {
	ReferenceYear int     `yaml:"reference_year"`
	DefaultPrice  float64 `yaml:"default_price"`
	BaseRate      float64 `yaml:"base_rate"`

	DefaultYear      int     `yaml:"default_year"`
	DefaultMiles     float64 `yaml:"default_miles"`
	DefaultBodyStyle string  `yaml:"default_body_style"`
	DefaultUsageType string  `yaml:"default_usage_type"`
	DefaultFuel      string  `yaml:"default_fuel"`

	DefaultMultiplier      float64 `yaml:"default_multiplier"`
	UnknownStateMultiplier float64 `yaml:"unknown_state_multiplier"`
	InferStateFromZip      bool    `yaml:"infer_state_from_zip"`

	States     map[string]float64 `yaml:"states"`
	Makes      map[string]float64 `yaml:"makes"`
	BodyStyles map[string]float64 `yaml:"body_styles"`
	Cylinders  map[int]float64    `yaml:"cylinders"`

	// AgeBands limits are inclusive (age <= limit).
	AgeBands []Band `yaml:"age_bands"`
	// MileageBands limits are exclusive (miles < limit).
	MileageBands []Band `yaml:"mileage_bands"`

	CleanHistoryMultiplier float64 `yaml:"clean_history_multiplier"`
	PerAccidentPenalty     float64 `yaml:"per_accident_penalty"`
	PerExtraOwnerPenalty   float64 `yaml:"per_extra_owner_penalty"`

	ElevatedUsageTypes      []string `yaml:"elevated_usage_types"`
	ElevatedUsageMultiplier float64  `yaml:"elevated_usage_multiplier"`
	ElevatedFuelTypes       []string `yaml:"elevated_fuel_types"`
	ElevatedFuelMultiplier  float64  `yaml:"elevated_fuel_multiplier"`
}

// DefaultConfig returns a fresh copy of the stock tables.
func DefaultConfig() Config {
	return Config{
		ReferenceYear: 2025,
		DefaultPrice:  25000,
		BaseRate:      0.06,

		DefaultYear:      2020,
		DefaultMiles:     50000,
		DefaultBodyStyle: "Sedan",
		DefaultUsageType: "Personal",
		DefaultFuel:      "Gasoline",

		DefaultMultiplier:      1.00,
		UnknownStateMultiplier: 1.15,

		States: map[string]float64{
			"NJ": 1.35,
			"NY": 1.40,
			"CA": 1.25,
			"FL": 1.30,
			"TX": 1.10,
			"PA": 1.15,
			"OH": 0.95,
			"MI": 1.45,
			"MA": 1.20,
			"VA": 1.05,
			"NC": 0.90,
			"GA": 1.08,
			"IL": 1.18,
		},
		Makes: map[string]float64{
			"Tesla":         1.30,
			"BMW":           1.35,
			"Mercedes-Benz": 1.40,
			"Audi":          1.32,
			"Porsche":       1.60,
			"Jaguar":        1.45,
			"Land Rover":    1.38,
			"Dodge":         1.20,
			"Chevrolet":     1.05,
			"Ford":          1.00,
			"Toyota":        0.85,
			"Honda":         0.88,
			"Mazda":         0.92,
			"Subaru":        0.95,
			"Hyundai":       0.90,
			"Kia":           0.88,
			"Nissan":        0.98,
			"Volkswagen":    1.10,
		},
		BodyStyles: map[string]float64{
			"Sedan":       0.95,
			"SUV":         1.05,
			"Truck":       1.08,
			"Coupe":       1.20,
			"Convertible": 1.25,
			"Hatchback":   0.93,
			"Wagon":       0.97,
			"Van":         1.00,
			"Minivan":     0.90,
		},
		Cylinders: map[int]float64{
			3:  0.85,
			4:  0.90,
			6:  1.10,
			8:  1.30,
			10: 1.50,
			12: 1.70,
		},

		// Newer cars carry a higher replacement value.
		AgeBands: []Band{
			{Limit: 2, Multiplier: 1.15},
			{Limit: 5, Multiplier: 1.05},
			{Limit: 8, Multiplier: 0.95},
			{Limit: 12, Multiplier: 0.85},
			{Multiplier: 0.75},
		},
		MileageBands: []Band{
			{Limit: 20000, Multiplier: 1.10},
			{Limit: 50000, Multiplier: 1.05},
			{Limit: 80000, Multiplier: 0.95},
			{Limit: 120000, Multiplier: 0.85},
			{Multiplier: 0.75},
		},

		CleanHistoryMultiplier: 0.90,
		PerAccidentPenalty:     0.20,
		PerExtraOwnerPenalty:   0.05,

		ElevatedUsageTypes:      []string{"Commercial", "Rental", "Lease"},
		ElevatedUsageMultiplier: 1.30,
		ElevatedFuelTypes:       []string{"Electric", "Hybrid"},
		ElevatedFuelMultiplier:  1.15,
	}
}

// Validate checks the invariants the estimator relies on.
func (c Config) Validate() error {
	if c.ReferenceYear <= 0 {
		return ErrInvalidReferenceYear
	}
	if c.BaseRate <= 0 {
		return ErrInvalidBaseRate
	}
	if c.DefaultPrice <= 0 {
		return ErrInvalidDefaultPrice
	}
	if len(c.AgeBands) == 0 || len(c.MileageBands) == 0 {
		return ErrEmptyBands
	}
	if err := checkAscending(c.AgeBands); err != nil {
		return fmt.Errorf("age_bands: %w", err)
	}
	if err := checkAscending(c.MileageBands); err != nil {
		return fmt.Errorf("mileage_bands: %w", err)
	}
	return nil
}

func checkAscending(bands []Band) error {
	for i := 1; i < len(bands)-1; i++ {
		if bands[i].Limit <= bands[i-1].Limit {
			return ErrUnorderedBands
		}
	}
	return nil
}
