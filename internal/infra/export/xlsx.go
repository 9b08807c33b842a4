package export

import (
	"fmt"
	"io"

	"github.com/360EntSecGroup-Skylar/excelize"

	"github.com/xavierca1/dental-funnel/internal/entity"
	"github.com/xavierca1/dental-funnel/internal/usecase"
)

const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var cohortHeaders = []string{
	"Name", "Phone", "Status", "Post-visit status", "Stage", "Phase",
	"Next callback", "Call-in date", "Region", "Channel", "Amount",
}

// WriteCohort writes one row per patient of a cohort result.
func WriteCohort(w io.Writer, result *usecase.CohortResult) error {
	file := excelize.NewFile()
	sheet := "Patients"
	file.NewSheet(sheet)
	file.DeleteSheet("Sheet1")

	writeRow(file, sheet, 1, toCells(cohortHeaders))
	for i, p := range result.Patients {
		writeRow(file, sheet, i+2, []interface{}{
			p.Name,
			p.Phone,
			string(p.Status),
			string(p.PostVisitStatus),
			string(p.Stage),
			string(p.Phase),
			p.NextCallbackDate.String(),
			p.CallInDate.String(),
			p.Region,
			p.Channel,
			p.Amount,
		})
	}

	info := "Info"
	file.NewSheet(info)
	writeRow(file, info, 1, []interface{}{"Cohort", string(result.Cohort)})
	writeRow(file, info, 2, []interface{}{"Date", result.Date.String()})
	writeRow(file, info, 3, []interface{}{"Mode", string(result.Mode)})
	writeRow(file, info, 4, []interface{}{"Total", result.Total})
	writeRow(file, info, 5, []interface{}{"Skipped", result.Skipped})

	if err := file.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// WriteRollup writes a summary sheet plus region and channel breakdowns.
func WriteRollup(w io.Writer, r *entity.Rollup) error {
	file := excelize.NewFile()
	sheet := "Summary"
	file.NewSheet(sheet)
	file.DeleteSheet("Sheet1")

	rows := [][]interface{}{
		{"Period", r.Period.Key},
		{"As of", r.AsOf.String()},
		{"Total inquiries", r.TotalInquiries},
		{"Reservations", r.Counts.Reservations},
		{"Visits", r.Counts.Visits},
		{"Treatments started", r.Counts.TreatmentsStarted},
		{"Absent", r.Counts.Absent},
		{"Closed", r.Counts.Closed},
		{"Average age", r.Counts.AverageAge},
		{"Reservation rate (%)", r.Rates.Reservation},
		{"Visit rate (%)", r.Rates.Visit},
		{"Treatment rate (%)", r.Rates.Treatment},
		{"Achieved revenue", r.Revenue.Achieved.Amount},
		{"Potential revenue", r.Revenue.Potential.Amount},
		{"Lost revenue", r.Revenue.Lost.Amount},
		{"Total revenue", r.Revenue.Total},
	}
	for i, row := range rows {
		writeRow(file, sheet, i+1, row)
	}

	writeBreakdown(file, "Regions", r.Regions)
	writeBreakdown(file, "Channels", r.Channels)

	if err := file.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeBreakdown(file *excelize.File, sheet string, items []entity.Breakdown) {
	file.NewSheet(sheet)
	writeRow(file, sheet, 1, []interface{}{"Key", "Count", "Percentage"})
	for i, b := range items {
		writeRow(file, sheet, i+2, []interface{}{b.Key, b.Count, b.Percentage})
	}
}

func writeRow(file *excelize.File, sheet string, row int, values []interface{}) {
	for col, v := range values {
		file.SetCellValue(sheet, fmt.Sprintf("%s%d", columnName(col), row), v)
	}
}

// columnName maps a 0-based column index to its letters (0 -> A, 26 -> AA).
func columnName(col int) string {
	name := ""
	for col >= 0 {
		name = string(rune('A'+col%26)) + name
		col = col/26 - 1
	}
	return name
}

func toCells(values []string) []interface{} {
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return cells
}
