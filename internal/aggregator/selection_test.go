package aggregator

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"listing-insights-go/internal/types"
)

func vins(records []types.VehicleRecord) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.Vehicle.VIN)
	}
	return out
}

func TestFilter(t *testing.T) {
	records := map[string]types.VehicleRecord{
		"C": rec("C", "Toyota", "Camry", 2020, f(24000), nil, ""),
		"A": rec("A", "Toyota", "RAV4", 2021, f(31000), nil, ""),
		"B": rec("B", "Honda", "Civic", 2020, nil, nil, ""),
		"D": rec("D", "BMW", "3 Series", 2020, f(32999), nil, ""),
	}

	tests := []struct {
		name string
		sel  Selection
		want []string
	}{
		{"everything", Selection{}, []string{"A", "B", "C", "D"}},
		{"make substring", Selection{Make: "toy"}, []string{"A", "C"}},
		{"model", Selection{Model: "series"}, []string{"D"}},
		{"year", Selection{Year: types.Ptr(2020)}, []string{"B", "C", "D"}},
		{"max price excludes unknown", Selection{MaxPrice: types.Ptr(32999.0)}, []string{"A", "C", "D"}},
		{"combined", Selection{Make: "Toyota", Year: types.Ptr(2020), MaxPrice: types.Ptr(25000.0)}, []string{"C"}},
		{"no match", Selection{Make: "Tesla"}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, vins(Filter(records, tt.sel)))
		})
	}
}
