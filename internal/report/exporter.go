package report

import (
	"fmt"

	"github.com/hrapps/leave-workflow/internal/models"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// Exporter renders leave requests as an Excel workbook for HR reporting
type Exporter struct {
	logger *zap.Logger
}

// NewExporter creates a new exporter
func NewExporter(logger *zap.Logger) *Exporter {
	return &Exporter{logger: logger}
}

var reportHeader = []interface{}{
	"Request ID", "Applicant", "Department", "Leave Type", "Start Date",
	"End Date", "Days", "Status", "Current Approver", "Workflow", "Created At",
}

// Export builds a workbook with one row per request. The caller owns the
// returned file and must Close it.
func (e *Exporter) Export(requests []*models.LeaveRequest) (*excelize.File, error) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)

	if err := f.SetSheetRow(sheet, "A1", &reportHeader); err != nil {
		return nil, fmt.Errorf("failed to write header row: %w", err)
	}

	for i, req := range requests {
		approver := ""
		if req.CurrentApprover != nil {
			approver = *req.CurrentApprover
		}

		row := []interface{}{
			req.ID,
			req.ApplicantName,
			req.Department,
			req.LeaveType,
			req.StartDate,
			req.EndDate,
			req.DurationDays,
			req.Status.String(),
			approver,
			req.WorkflowName,
			req.CreatedAt.Format("2006-01-02 15:04:05"),
		}

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	e.logger.Info("Exported leave request report", zap.Int("rows", len(requests)))
	return f, nil
}
