package models

import "time"

// PayrollExportFormat selects the rendered output type.
type PayrollExportFormat string

const (
	PayrollFormatCSV PayrollExportFormat = "csv"
	PayrollFormatPDF PayrollExportFormat = "pdf"
)

// PayrollExportStatus tracks an export job through the worker queue.
type PayrollExportStatus string

const (
	PayrollStatusPending   PayrollExportStatus = "PENDING"
	PayrollStatusCompleted PayrollExportStatus = "COMPLETED"
	PayrollStatusFailed    PayrollExportStatus = "FAILED"
)

// PayrollExport is an asynchronous payroll export job. FilePath and the
// download token are populated once generation completes.
type PayrollExport struct {
	ID            string              `db:"id" json:"id"`
	CompanyID     string              `db:"company_id" json:"company_id"`
	RequestedByID string              `db:"requested_by_id" json:"requested_by_id"`
	Format        PayrollExportFormat `db:"format" json:"format"`
	PeriodStart   time.Time           `db:"period_start" json:"period_start"`
	PeriodEnd     time.Time           `db:"period_end" json:"period_end"`
	ProjectID     *string             `db:"project_id" json:"project_id,omitempty"`
	Status        PayrollExportStatus `db:"status" json:"status"`
	FilePath      *string             `db:"file_path" json:"-"`
	FailureReason *string             `db:"failure_reason" json:"failure_reason,omitempty"`
	CreatedAt     time.Time           `db:"created_at" json:"created_at"`
	CompletedAt   *time.Time          `db:"completed_at" json:"completed_at,omitempty"`
}
