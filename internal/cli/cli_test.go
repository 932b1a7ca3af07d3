package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"listing-insights-go/internal/types"
)

const batchJSON = `{
  "results": [{
    "listings": [
      {"vehicle": {"vin": "ABC123", "make": "Honda", "model": "Civic", "year": 2021, "bodyStyle": "Sedan"},
       "retailListing": {"price": 20000, "miles": 30000, "state": "NJ"}},
      {"vehicle": {"vin": "ABC123", "make": "Honda", "model": "Civic", "year": 2021},
       "retailListing": {"price": 22000, "miles": 30000, "state": "NJ"}},
      {"vehicle": {"vin": "XYZ999", "make": "Toyota", "model": "RAV4", "year": 2019},
       "retailListing": {"price": 30000, "state": "CA"}}
    ]
  }]
}`

func isolateEnv(t *testing.T) {
	for _, k := range []string{"RATING_API_URL", "USE_MOCK_RATING", "RISK_TABLES_PATH", "RISK_INFER_STATE_FROM_ZIP", "LOG_LEVEL"} {
		t.Setenv(k, "")
	}
	t.Chdir(t.TempDir())
}

func writeTemp(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestNewRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	assert.Equal(t, "listingctl", cmd.Use)

	names := []string{}
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"normalize", "estimate", "facets"})
}

func TestNormalizeCommand(t *testing.T) {
	isolateEnv(t)
	in := writeTemp(t, "batch.json", batchJSON)

	out, err := run(t, "normalize", "--input", in, "--mock-rating")
	require.NoError(t, err)

	var res struct {
		Items    int                            `json:"items"`
		Listings map[string]types.VehicleRecord `json:"listings"`
		Filters  types.FilterFacets             `json:"filters"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, 2, res.Items)
	assert.Equal(t, 20000.0, *res.Listings["ABC123"].RetailListing.Price)
	assert.Equal(t, 3.69, res.Listings["ABC123"].Ratings["overallRating"])
	require.NotNil(t, res.Listings["ABC123"].Insurance)
	assert.Equal(t, []string{"Honda", "Toyota"}, res.Filters.Makes)
}

func TestNormalizeCommandSelection(t *testing.T) {
	isolateEnv(t)
	in := writeTemp(t, "batch.json", batchJSON)

	out, err := run(t, "normalize", "--input", in, "--make", "toyota", "--max-price", "30000")
	require.NoError(t, err)

	var res struct {
		Items    int                            `json:"items"`
		Listings map[string]types.VehicleRecord `json:"listings"`
		Filters  types.FilterFacets             `json:"filters"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, 1, res.Items)
	assert.Contains(t, res.Listings, "XYZ999")
	assert.Equal(t, types.Ratings{}, res.Listings["XYZ999"].Ratings)
	assert.Equal(t, []string{"Honda", "Toyota"}, res.Filters.Makes, "facets describe the whole batch")
}

func TestNormalizeCommandWritesFiles(t *testing.T) {
	isolateEnv(t)
	in := writeTemp(t, "batch.json", batchJSON)
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "out.json")
	xlsxPath := filepath.Join(dir, "out.xlsx")

	out, err := run(t, "normalize", "--input", in, "--output", jsonPath, "--xlsx", xlsxPath)
	require.NoError(t, err)
	assert.Empty(t, out)

	data, err := os.ReadFile(jsonPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"items": 2`)

	f, err := excelize.OpenFile(xlsxPath)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Listings")
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestNormalizeCommandXLSXKeepsStdoutJSON(t *testing.T) {
	isolateEnv(t)
	in := writeTemp(t, "batch.json", batchJSON)
	xlsxPath := filepath.Join(t.TempDir(), "out.xlsx")

	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs([]string{"normalize", "--input", in, "--xlsx", xlsxPath})
	require.NoError(t, cmd.Execute())

	var res map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(out.Bytes(), &res), "stdout must hold only JSON: %s", out.String())
	assert.Contains(t, res, "items")
	assert.Contains(t, errOut.String(), "workbook written")
	assert.FileExists(t, xlsxPath)
}

func TestNormalizeCommandErrors(t *testing.T) {
	isolateEnv(t)

	_, err := run(t, "normalize")
	assert.Error(t, err, "input is required")

	_, err = run(t, "normalize", "--input", writeTemp(t, "bad.json", `[1, 2]`))
	assert.Error(t, err)

	_, err = run(t, "normalize", "--input", writeTemp(t, "b.json", batchJSON),
		"--risk-tables", writeTemp(t, "risk.yaml", "base_rate: -1"))
	assert.Error(t, err)
}

func TestEstimateCommand(t *testing.T) {
	isolateEnv(t)
	in := writeTemp(t, "rec.json", `{
		"vehicle": {"vin": "4T1B11HK5LU", "make": "Toyota", "bodyStyle": "Sedan", "cylinders": 4, "year": 2020, "fuel": "Gasoline"},
		"retailListing": {"price": 24000, "miles": 35000, "state": "NJ"},
		"history": {"accidentCount": 0, "ownerCount": 1}
	}`)

	out, err := run(t, "estimate", "--input", in)
	require.NoError(t, err)

	var est types.InsuranceEstimate
	require.NoError(t, json.Unmarshal([]byte(out), &est))
	assert.Equal(t, 1401.85, est.AnnualEstimate)
	assert.Equal(t, 116.82, est.MonthlyEstimate)
}

func TestEstimateCommandRiskTables(t *testing.T) {
	isolateEnv(t)
	in := writeTemp(t, "rec.json", `{"vehicle": {"vin": "X"}, "retailListing": {}}`)
	risk := writeTemp(t, "risk.yaml", "base_rate: 0.12\n")

	base, err := run(t, "estimate", "--input", in)
	require.NoError(t, err)
	doubled, err := run(t, "estimate", "--input", in, "--risk-tables", risk)
	require.NoError(t, err)

	var a, b types.InsuranceEstimate
	require.NoError(t, json.Unmarshal([]byte(base), &a))
	require.NoError(t, json.Unmarshal([]byte(doubled), &b))
	assert.InDelta(t, a.AnnualEstimate*2, b.AnnualEstimate, 0.02)
}

func TestFacetsCommand(t *testing.T) {
	isolateEnv(t)
	in := writeTemp(t, "records.json", `{
		"V1": {"vehicle": {"vin": "V1", "make": "Kia", "model": "Soul", "year": 2020}, "retailListing": {"price": 15000}},
		"V2": {"vehicle": {"vin": "V2", "make": "Kia", "model": "Rio", "year": 2018}, "retailListing": {"price": 11000, "miles": 42000}}
	}`)

	out, err := run(t, "facets", "--input", in)
	require.NoError(t, err)

	var ff types.FilterFacets
	require.NoError(t, json.Unmarshal([]byte(out), &ff))
	assert.Equal(t, []string{"Kia"}, ff.Makes)
	assert.Equal(t, []string{"Rio", "Soul"}, ff.Models["Kia"])
	assert.Equal(t, []int{2018, 2020}, ff.Years)
	assert.Equal(t, 11000.0, *ff.PriceRange.Min)
	assert.Equal(t, 42000.0, *ff.MileageRange.Max)
}
