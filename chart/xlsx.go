// Package chart writes non-mesh scalar time series as xlsx workbooks with
// an embedded scatter chart.
package chart

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

const sheet = "Sheet1"

// WriteSeries dumps aligned (time, value) columns to an xlsx file and plots
// them as a straight-line scatter chart
func WriteSeries(filename, name, unit string, times, values []float64) error {
	if len(times) != len(values) {
		return fmt.Errorf("%s: %d times for %d values", name, len(times), len(values))
	}
	label := fmt.Sprintf("%s (%s)", name, unit)

	f := excelize.NewFile()
	defer f.Close()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if err = f.SetSheetRow(sheet, "A1", &[]interface{}{"Time (s)", label}); err != nil {
		return err
	}
	if err = f.SetCellStyle(sheet, "A1", "B1", bold); err != nil {
		return err
	}
	for i := range times {
		cell := fmt.Sprintf("A%d", i+2)
		if err = f.SetSheetRow(sheet, cell, &[]interface{}{times[i], values[i]}); err != nil {
			return err
		}
	}

	n := len(times)
	err = f.AddChart(sheet, "E2", &excelize.Chart{
		Type: excelize.Scatter,
		Series: []excelize.ChartSeries{{
			Name:       fmt.Sprintf("%s!$B$1", sheet),
			Categories: fmt.Sprintf("%s!$A$2:$A$%d", sheet, n+1),
			Values:     fmt.Sprintf("%s!$B$2:$B$%d", sheet, n+1),
			Marker:     excelize.ChartMarker{Symbol: "none"},
		}},
		XAxis: excelize.ChartAxis{
			Title:          []excelize.RichTextRun{{Text: "Time (s)"}},
			MajorGridLines: true,
		},
		YAxis: excelize.ChartAxis{
			Title: []excelize.RichTextRun{{Text: label}},
		},
		Legend:    excelize.ChartLegend{Position: "none"},
		Dimension: excelize.ChartDimension{Width: 960, Height: 520},
	})
	if err != nil {
		return err
	}
	return f.SaveAs(filename)
}
