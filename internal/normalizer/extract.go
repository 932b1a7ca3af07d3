package normalizer

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"listing-insights-go/internal/types"
)

// The helpers below read one field from a loosely typed payload. Each returns
// nil when the field is absent or has the wrong type, so unknown values are
// never mistaken for zero.

func asMap(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}

func asList(v any) ([]any, bool) {
	l, ok := v.([]any)
	return l, ok
}

// child returns the nested object under key, or nil.
func child(m map[string]any, key string) map[string]any {
	c, _ := asMap(m[key])
	return c
}

func stringField(m map[string]any, key string) *string {
	switch v := m[key].(type) {
	case string:
		if s := strings.TrimSpace(v); s != "" {
			return &s
		}
	case json.Number:
		s := v.String()
		return &s
	case float64:
		if v == math.Trunc(v) && !math.IsInf(v, 0) {
			s := strconv.FormatFloat(v, 'f', -1, 64)
			return &s
		}
	}
	return nil
}

func numberField(m map[string]any, key string) *float64 {
	var f float64
	switch v := m[key].(type) {
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int64:
		f = float64(v)
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return nil
		}
		f = parsed
	default:
		return nil
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

// intField accepts only integral numbers within the int32 range.
func intField(m map[string]any, key string) *int {
	f := numberField(m, key)
	if f == nil || *f != math.Trunc(*f) || *f < math.MinInt32 || *f > math.MaxInt32 {
		return nil
	}
	i := int(*f)
	return &i
}

func boolField(m map[string]any, key string) *bool {
	if b, ok := m[key].(bool); ok {
		return &b
	}
	return nil
}

func objectList(m map[string]any, key string) []map[string]any {
	items, ok := asList(m[key])
	if !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(items))
	for _, it := range items {
		if obj, ok := asMap(it); ok {
			out = append(out, obj)
		}
	}
	return out
}

// vinOf returns the listing's VIN, or "" when it cannot be recovered.
func vinOf(listing map[string]any) string {
	if v := stringField(child(listing, "vehicle"), "vin"); v != nil {
		return *v
	}
	return ""
}

// buildRecord projects one raw listing into the normalized schema. Ratings
// and insurance are attached later.
func buildRecord(vin string, listing map[string]any) types.VehicleRecord {
	vehicle := child(listing, "vehicle")
	retail := child(listing, "retailListing")

	rec := types.VehicleRecord{
		Vehicle: types.Vehicle{
			BaseMsrp:      numberField(vehicle, "baseMsrp"),
			BodyStyle:     stringField(vehicle, "bodyStyle"),
			Cylinders:     intField(vehicle, "cylinders"),
			Doors:         intField(vehicle, "doors"),
			Drivetrain:    stringField(vehicle, "drivetrain"),
			Engine:        stringField(vehicle, "engine"),
			ExteriorColor: stringField(vehicle, "exteriorColor"),
			Fuel:          stringField(vehicle, "fuel"),
			InteriorColor: stringField(vehicle, "interiorColor"),
			Make:          stringField(vehicle, "make"),
			Model:         stringField(vehicle, "model"),
			Seats:         intField(vehicle, "seats"),
			Transmission:  stringField(vehicle, "transmission"),
			Trim:          stringField(vehicle, "trim"),
			Type:          stringField(vehicle, "type"),
			VIN:           vin,
			Year:          intField(vehicle, "year"),
		},
		RetailListing: types.RetailListing{
			CarfaxURL: stringField(retail, "carfaxUrl"),
			City:      stringField(retail, "city"),
			CPO:       boolField(retail, "cpo"),
			Dealer:    stringField(retail, "dealer"),
			Miles:     numberField(retail, "miles"),
			Price:     numberField(retail, "price"),
			Images:    stringField(retail, "primaryImage"),
			State:     stringField(retail, "state"),
			Used:      boolField(retail, "used"),
			Listing:   stringField(retail, "vdp"),
			Zip:       stringField(retail, "zip"),
		},
	}

	if history := child(listing, "history"); len(history) > 0 {
		rec.History = &types.History{
			AccidentCount: intField(history, "accidentCount"),
			Accidents:     objectList(history, "accidents"),
			OneOwner:      boolField(history, "oneOwner"),
			OwnerCount:    intField(history, "ownerCount"),
			PersonalUse:   boolField(history, "personalUse"),
			UsageType:     stringField(history, "usageType"),
		}
	}
	return rec
}
