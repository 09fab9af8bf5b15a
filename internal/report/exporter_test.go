package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hrapps/leave-workflow/internal/models"
)

func TestExport(t *testing.T) {
	exporter := NewExporter(zap.NewNop())

	approver := "Alice"
	requests := []*models.LeaveRequest{
		{
			ID:              "req-1",
			ApplicantName:   "Bob",
			Department:      "Engineering",
			LeaveType:       "annual",
			StartDate:       "2026-09-01",
			EndDate:         "2026-09-03",
			DurationDays:    3,
			Status:          models.StatusPending,
			CurrentApprover: &approver,
			WorkflowName:    "Standard leave approval",
			CreatedAt:       time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC),
		},
		{
			ID:            "req-2",
			ApplicantName: "Carol",
			Department:    "Sales",
			LeaveType:     "sick",
			StartDate:     "2026-09-02",
			EndDate:       "2026-09-02",
			DurationDays:  1,
			Status:        models.StatusApproved,
			WorkflowName:  "Standard leave approval",
			CreatedAt:     time.Date(2026, 8, 30, 11, 30, 0, 0, time.UTC),
		},
	}

	f, err := exporter.Export(requests)
	require.NoError(t, err)
	defer f.Close()

	sheet := f.GetSheetName(0)

	header, err := f.GetCellValue(sheet, "A1")
	require.NoError(t, err)
	assert.Equal(t, "Request ID", header)

	id, err := f.GetCellValue(sheet, "A2")
	require.NoError(t, err)
	assert.Equal(t, "req-1", id)

	status, err := f.GetCellValue(sheet, "H2")
	require.NoError(t, err)
	assert.Equal(t, "pending", status)

	approverCell, err := f.GetCellValue(sheet, "I2")
	require.NoError(t, err)
	assert.Equal(t, "Alice", approverCell)

	// Cleared approver renders as an empty cell.
	approverCell, err = f.GetCellValue(sheet, "I3")
	require.NoError(t, err)
	assert.Equal(t, "", approverCell)

	rows, err := f.GetRows(sheet)
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestExport_EmptyReport(t *testing.T) {
	exporter := NewExporter(zap.NewNop())

	f, err := exporter.Export(nil)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	require.NoError(t, err)
	assert.Len(t, rows, 1, "only the header row")
}
