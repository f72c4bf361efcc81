package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/crewflow-hq/crewflow-api/internal/models"
)

// PayrollRepository tracks payroll export jobs.
type PayrollRepository struct {
	db *sqlx.DB
}

// NewPayrollRepository creates a new instance of PayrollRepository.
func NewPayrollRepository(db *sqlx.DB) *PayrollRepository {
	return &PayrollRepository{db: db}
}

// Create inserts a new export job in PENDING state.
func (r *PayrollRepository) Create(ctx context.Context, export *models.PayrollExport) error {
	if export.ID == "" {
		export.ID = uuid.NewString()
	}
	if export.CreatedAt.IsZero() {
		export.CreatedAt = time.Now().UTC()
	}
	if export.Status == "" {
		export.Status = models.PayrollStatusPending
	}

	const query = `INSERT INTO payroll_exports (id, company_id, requested_by_id, format, period_start, period_end, project_id, status, created_at) VALUES (:id, :company_id, :requested_by_id, :format, :period_start, :period_end, :project_id, :status, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, export); err != nil {
		return fmt.Errorf("create payroll export: %w", err)
	}
	return nil
}

// FindByID returns an export job by identifier within a company.
func (r *PayrollRepository) FindByID(ctx context.Context, companyID, id string) (*models.PayrollExport, error) {
	const query = `SELECT id, company_id, requested_by_id, format, period_start, period_end, project_id, status, file_path, failure_reason, created_at, completed_at FROM payroll_exports WHERE id = $1 AND company_id = $2 LIMIT 1`
	var export models.PayrollExport
	if err := r.db.GetContext(ctx, &export, query, id, companyID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find payroll export: %w", err)
	}
	return &export, nil
}

// MarkCompleted records the generated file path and completion time.
func (r *PayrollRepository) MarkCompleted(ctx context.Context, id, filePath string) error {
	const query = `UPDATE payroll_exports SET status = $2, file_path = $3, completed_at = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, models.PayrollStatusCompleted, filePath, time.Now().UTC()); err != nil {
		return fmt.Errorf("complete payroll export: %w", err)
	}
	return nil
}

// MarkFailed records the failure reason.
func (r *PayrollRepository) MarkFailed(ctx context.Context, id, reason string) error {
	const query = `UPDATE payroll_exports SET status = $2, failure_reason = $3, completed_at = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, models.PayrollStatusFailed, reason, time.Now().UTC()); err != nil {
		return fmt.Errorf("fail payroll export: %w", err)
	}
	return nil
}
