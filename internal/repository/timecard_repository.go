package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/crewflow-hq/crewflow-api/internal/models"
)

const timecardColumns = `t.id, t.company_id, t.worker_id, t.project_id, t.cost_code_id, t.clock_in, t.clock_in_latitude, t.clock_in_longitude, t.clock_out, t.clock_out_latitude, t.clock_out_longitude, t.break_minutes, t.notes, t.status, t.created_at, t.updated_at, t.deleted_at`

// timecardJoinedColumns adds the display names used by list responses and
// payroll exports.
const timecardJoinedColumns = timecardColumns + `, u.name AS worker_name, p.name AS project_name, c.code AS cost_code`

const timecardJoins = ` JOIN users u ON u.id = t.worker_id JOIN projects p ON p.id = t.project_id JOIN cost_codes c ON c.id = t.cost_code_id`

// TimecardRepository provides database access for timecards. All queries are
// company scoped and exclude soft-deleted rows.
type TimecardRepository struct {
	db *sqlx.DB
}

// NewTimecardRepository creates a new instance of TimecardRepository.
func NewTimecardRepository(db *sqlx.DB) *TimecardRepository {
	return &TimecardRepository{db: db}
}

// FindByID returns a timecard by identifier within a company, with joined
// worker, project and cost code names.
func (r *TimecardRepository) FindByID(ctx context.Context, companyID, id string) (*models.Timecard, error) {
	query := fmt.Sprintf(`SELECT %s FROM timecards t%s WHERE t.id = $1 AND t.company_id = $2 AND t.deleted_at IS NULL LIMIT 1`, timecardJoinedColumns, timecardJoins)
	var tc models.Timecard
	if err := r.db.GetContext(ctx, &tc, query, id, companyID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find timecard by id: %w", err)
	}
	return &tc, nil
}

// FindOpenForWorker returns the worker's open shift, if any.
func (r *TimecardRepository) FindOpenForWorker(ctx context.Context, companyID, workerID string) (*models.Timecard, error) {
	query := fmt.Sprintf(`SELECT %s FROM timecards t%s WHERE t.worker_id = $1 AND t.company_id = $2 AND t.clock_out IS NULL AND t.deleted_at IS NULL ORDER BY t.clock_in DESC LIMIT 1`, timecardJoinedColumns, timecardJoins)
	var tc models.Timecard
	if err := r.db.GetContext(ctx, &tc, query, workerID, companyID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find open timecard: %w", err)
	}
	return &tc, nil
}

// List returns a company's timecards based on filters with total count.
func (r *TimecardRepository) List(ctx context.Context, companyID string, filter models.TimecardFilter) ([]models.Timecard, int, error) {
	baseQuery := fmt.Sprintf(`FROM timecards t%s WHERE t.company_id = $1 AND t.deleted_at IS NULL`, timecardJoins)
	args := []interface{}{companyID}
	var conditions []string

	if filter.WorkerID != "" {
		conditions = append(conditions, fmt.Sprintf("t.worker_id = $%d", len(args)+1))
		args = append(args, filter.WorkerID)
	}
	if filter.ProjectID != "" {
		conditions = append(conditions, fmt.Sprintf("t.project_id = $%d", len(args)+1))
		args = append(args, filter.ProjectID)
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("t.status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.StartDate != nil {
		conditions = append(conditions, fmt.Sprintf("t.clock_in >= $%d", len(args)+1))
		args = append(args, *filter.StartDate)
	}
	if filter.EndDate != nil {
		conditions = append(conditions, fmt.Sprintf("t.clock_in <= $%d", len(args)+1))
		args = append(args, *filter.EndDate)
	}

	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY t.clock_in DESC LIMIT %d OFFSET %d", timecardJoinedColumns, baseQuery, pageSize, offset)

	var timecards []models.Timecard
	if err := r.db.SelectContext(ctx, &timecards, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list timecards: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count timecards: %w", err)
	}

	return timecards, total, nil
}

// ListForExport returns approved timecards in a date range, oldest first,
// without pagination.
func (r *TimecardRepository) ListForExport(ctx context.Context, companyID string, start, end time.Time) ([]models.Timecard, error) {
	query := fmt.Sprintf(`SELECT %s FROM timecards t%s WHERE t.company_id = $1 AND t.status = $2 AND t.clock_in >= $3 AND t.clock_in <= $4 AND t.deleted_at IS NULL ORDER BY t.clock_in ASC`, timecardJoinedColumns, timecardJoins)
	var timecards []models.Timecard
	if err := r.db.SelectContext(ctx, &timecards, query, companyID, models.TimecardStatusApproved, start, end); err != nil {
		return nil, fmt.Errorf("list timecards for export: %w", err)
	}
	return timecards, nil
}

// Create inserts a new timecard.
func (r *TimecardRepository) Create(ctx context.Context, tc *models.Timecard) error {
	if tc.ID == "" {
		tc.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if tc.CreatedAt.IsZero() {
		tc.CreatedAt = now
	}
	tc.UpdatedAt = now

	const query = `INSERT INTO timecards (id, company_id, worker_id, project_id, cost_code_id, clock_in, clock_in_latitude, clock_in_longitude, clock_out, clock_out_latitude, clock_out_longitude, break_minutes, notes, status, created_at, updated_at) VALUES (:id, :company_id, :worker_id, :project_id, :cost_code_id, :clock_in, :clock_in_latitude, :clock_in_longitude, :clock_out, :clock_out_latitude, :clock_out_longitude, :break_minutes, :notes, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, tc); err != nil {
		return fmt.Errorf("create timecard: %w", err)
	}
	return nil
}

// Update updates mutable fields of a timecard.
func (r *TimecardRepository) Update(ctx context.Context, tc *models.Timecard) error {
	tc.UpdatedAt = time.Now().UTC()
	const query = `UPDATE timecards SET project_id = :project_id, cost_code_id = :cost_code_id, clock_in = :clock_in, clock_in_latitude = :clock_in_latitude, clock_in_longitude = :clock_in_longitude, clock_out = :clock_out, clock_out_latitude = :clock_out_latitude, clock_out_longitude = :clock_out_longitude, break_minutes = :break_minutes, notes = :notes, status = :status, updated_at = :updated_at WHERE id = :id AND company_id = :company_id AND deleted_at IS NULL`
	if _, err := r.db.NamedExecContext(ctx, query, tc); err != nil {
		return fmt.Errorf("update timecard: %w", err)
	}
	return nil
}

// UpdateStatus moves a set of timecards to a new status.
func (r *TimecardRepository) UpdateStatus(ctx context.Context, companyID string, ids []string, status models.TimecardStatus) error {
	if len(ids) == 0 {
		return nil
	}
	query, args, err := sqlx.In(`UPDATE timecards SET status = ?, updated_at = ? WHERE company_id = ? AND id IN (?) AND deleted_at IS NULL`, status, time.Now().UTC(), companyID, ids)
	if err != nil {
		return fmt.Errorf("build status update: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, r.db.Rebind(query), args...); err != nil {
		return fmt.Errorf("update timecard status: %w", err)
	}
	return nil
}

// SoftDelete marks a timecard as deleted without removing the row.
func (r *TimecardRepository) SoftDelete(ctx context.Context, companyID, id string) error {
	const query = `UPDATE timecards SET deleted_at = $3, updated_at = $3 WHERE id = $1 AND company_id = $2 AND deleted_at IS NULL`
	if _, err := r.db.ExecContext(ctx, query, id, companyID, time.Now().UTC()); err != nil {
		return fmt.Errorf("delete timecard: %w", err)
	}
	return nil
}
