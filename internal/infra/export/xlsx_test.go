package export

import (
	"bytes"
	"testing"

	"github.com/360EntSecGroup-Skylar/excelize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xavierca1/dental-funnel/internal/entity"
	"github.com/xavierca1/dental-funnel/internal/pipeline"
	"github.com/xavierca1/dental-funnel/internal/usecase"
)

func TestWriteCohort(t *testing.T) {
	var buf bytes.Buffer
	err := WriteCohort(&buf, &usecase.CohortResult{
		Cohort:  pipeline.Cohort("overdue"),
		Date:    "2024-03-15",
		Mode:    usecase.ModeLive,
		Total:   1,
		Skipped: 2,
		Patients: []usecase.PatientSummary{
			{Name: "김민수", Phone: "010-1234-5678", NextCallbackDate: "2024-03-14", Region: "서울", Amount: 1200000},
		},
	})
	require.NoError(t, err)

	file, err := excelize.OpenReader(&buf)
	require.NoError(t, err)

	assert.Equal(t, "Name", file.GetCellValue("Patients", "A1"))
	assert.Equal(t, "Amount", file.GetCellValue("Patients", "K1"))
	assert.Equal(t, "김민수", file.GetCellValue("Patients", "A2"))
	assert.Equal(t, "2024-03-14", file.GetCellValue("Patients", "G2"))
	assert.Equal(t, "overdue", file.GetCellValue("Info", "B1"))
	assert.Equal(t, "2", file.GetCellValue("Info", "B5"))
}

func TestWriteRollup(t *testing.T) {
	var buf bytes.Buffer
	err := WriteRollup(&buf, &entity.Rollup{
		Period:         entity.Period{Kind: entity.PeriodMonthly, Key: "2024-02"},
		TotalInquiries: 10,
		Regions:        []entity.Breakdown{{Key: "서울", Count: 6, Percentage: 60}},
	})
	require.NoError(t, err)

	file, err := excelize.OpenReader(&buf)
	require.NoError(t, err)

	assert.Equal(t, "2024-02", file.GetCellValue("Summary", "B1"))
	assert.Equal(t, "10", file.GetCellValue("Summary", "B3"))
	assert.Equal(t, "서울", file.GetCellValue("Regions", "A2"))
	assert.Equal(t, "6", file.GetCellValue("Regions", "B2"))
}

func TestColumnName(t *testing.T) {
	assert.Equal(t, "A", columnName(0))
	assert.Equal(t, "Z", columnName(25))
	assert.Equal(t, "AA", columnName(26))
	assert.Equal(t, "AZ", columnName(51))
}
