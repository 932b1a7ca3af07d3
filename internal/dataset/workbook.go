package dataset

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/xuri/excelize/v2"

	"listing-insights-go/internal/logger"
	"listing-insights-go/internal/pipeline"
	"listing-insights-go/internal/types"
)

const (
	ListingsSheet = "Listings"
	FiltersSheet  = "Filters"
)

var listingHeader = []any{
	"VIN", "Year", "Make", "Model", "Trim", "Body Style", "Exterior Color",
	"Price", "Miles", "City", "State", "Zip", "Dealer",
	"Annual Insurance", "Monthly Insurance", "Listing",
}

// ExportWorkbook writes the pipeline result to an xlsx file, logging through
// the caller's logger.
func ExportWorkbook(path string, res pipeline.Result, log *logger.Logger) error {
	log = log.Component("dataset.workbook").With("path", path)

	f, err := buildWorkbook(res)
	if err != nil {
		log.WithError(err).Error("build workbook failed")
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		log.WithError(err).Error("save failed")
		return fmt.Errorf("save workbook: %w", err)
	}
	log.WithField("rows", len(res.Listings)).Info("workbook written")
	return nil
}

// WriteWorkbook streams the xlsx bytes to w.
func WriteWorkbook(w io.Writer, res pipeline.Result) error {
	f, err := buildWorkbook(res)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func buildWorkbook(res pipeline.Result) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", ListingsSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(FiltersSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("add sheet: %w", err)
	}

	if err := writeRows(f, ListingsSheet, listingRows(res.Listings)); err != nil {
		f.Close()
		return nil, err
	}
	if err := writeRows(f, FiltersSheet, filterRows(res.Filters)); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("%s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

// listingRows returns the header plus one row per VIN in VIN order.
func listingRows(listings map[string]types.VehicleRecord) [][]any {
	vins := make([]string, 0, len(listings))
	for vin := range listings {
		vins = append(vins, vin)
	}
	slices.Sort(vins)

	rows := [][]any{listingHeader}
	for _, vin := range vins {
		rec := listings[vin]
		v, rl := rec.Vehicle, rec.RetailListing
		var annual, monthly any = "", ""
		if rec.Insurance != nil {
			annual, monthly = rec.Insurance.AnnualEstimate, rec.Insurance.MonthlyEstimate
		}
		rows = append(rows, []any{
			vin, cell(v.Year), cell(v.Make), cell(v.Model), cell(v.Trim), cell(v.BodyStyle), cell(v.ExteriorColor),
			cell(rl.Price), cell(rl.Miles), cell(rl.City), cell(rl.State), cell(rl.Zip), cell(rl.Dealer),
			annual, monthly, cell(rl.Listing),
		})
	}
	return rows
}

func filterRows(ff types.FilterFacets) [][]any {
	rows := [][]any{
		{"Facet", "Value"},
		{"Price Min", cell(ff.PriceRange.Min)},
		{"Price Max", cell(ff.PriceRange.Max)},
		{"Mileage Min", cell(ff.MileageRange.Min)},
		{"Mileage Max", cell(ff.MileageRange.Max)},
		{"Makes", strings.Join(ff.Makes, ", ")},
		{"Years", joinInts(ff.Years)},
		{"Exterior Colors", strings.Join(ff.ExteriorColors, ", ")},
	}
	for _, mk := range ff.Makes {
		rows = append(rows, []any{"Models: " + mk, strings.Join(ff.Models[mk], ", ")})
	}
	return rows
}

// cell renders an unknown value as an empty cell.
func cell[T any](p *T) any {
	if p == nil {
		return ""
	}
	return *p
}

func joinInts(xs []int) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = fmt.Sprint(x)
	}
	return strings.Join(parts, ", ")
}
