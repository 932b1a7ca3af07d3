package types

// Range is a numeric min/max pair; both are null when no value was observed.
type Range struct {
	Min *float64 `json:"min"`
	Max *float64 `json:"max"`
}

// FilterFacets is recomputed from a record set on every call.
type FilterFacets struct {
	MileageRange   Range               `json:"mileageRange"`
	PriceRange     Range               `json:"priceRange"`
	Makes          []string            `json:"makes"`
	Models         map[string][]string `json:"models"`
	Years          []int               `json:"years"`
	ExteriorColors []string            `json:"exteriorColors"`
}

// EmptyFacets returns facets with null ranges and empty, non-nil collections.
func EmptyFacets() FilterFacets {
	return FilterFacets{
		Makes:          []string{},
		Models:         map[string][]string{},
		Years:          []int{},
		ExteriorColors: []string{},
	}
}
