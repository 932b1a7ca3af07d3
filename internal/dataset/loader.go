package dataset

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"listing-insights-go/internal/types"
)

var ErrNotObject = errors.New("batch must be a JSON object")

// LoadBatch reads a raw listing batch from a JSON file.
func LoadBatch(path string) (types.RawBatch, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open batch: %w", err)
	}
	defer f.Close()

	b, err := DecodeBatch(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return b, nil
}

// DecodeBatch decodes a single JSON object. Anything else at the top level
// (an array, a scalar, trailing garbage) is rejected.
func DecodeBatch(r io.Reader) (types.RawBatch, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read batch: %w", err)
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return nil, ErrNotObject
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	var b types.RawBatch
	if err := dec.Decode(&b); err != nil {
		return nil, fmt.Errorf("decode batch: %w", err)
	}
	if dec.More() {
		return nil, fmt.Errorf("decode batch: trailing data after object")
	}
	return b, nil
}

// LoadRecords reads already-normalized records, either a VIN-keyed object
// or the "listings" member of a pipeline response.
func LoadRecords(path string) (map[string]types.VehicleRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open records: %w", err)
	}

	var wrapped struct {
		Listings map[string]types.VehicleRecord `json:"listings"`
	}
	if err := json.Unmarshal(data, &wrapped); err == nil && wrapped.Listings != nil {
		return wrapped.Listings, nil
	}

	var records map[string]types.VehicleRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode records: %w", err)
	}
	return records, nil
}

// LoadRecord reads one normalized record.
func LoadRecord(path string) (types.VehicleRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.VehicleRecord{}, fmt.Errorf("open record: %w", err)
	}
	var rec types.VehicleRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return types.VehicleRecord{}, fmt.Errorf("decode record: %w", err)
	}
	return rec, nil
}
