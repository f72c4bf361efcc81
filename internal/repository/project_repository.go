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

const projectColumns = `id, company_id, name, project_number, client_name, address, latitude, longitude, geofence_radius, status, start_date, end_date, budget_hours, budget_amount, created_by_id, created_at, updated_at, deleted_at`

// ProjectRepository provides database access for projects. All queries are
// company scoped and exclude soft-deleted rows.
type ProjectRepository struct {
	db *sqlx.DB
}

// NewProjectRepository creates a new instance of ProjectRepository.
func NewProjectRepository(db *sqlx.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// FindByID returns a project by identifier within a company.
func (r *ProjectRepository) FindByID(ctx context.Context, companyID, id string) (*models.Project, error) {
	query := fmt.Sprintf(`SELECT %s FROM projects WHERE id = $1 AND company_id = $2 AND deleted_at IS NULL LIMIT 1`, projectColumns)
	var project models.Project
	if err := r.db.GetContext(ctx, &project, query, id, companyID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find project by id: %w", err)
	}
	return &project, nil
}

// List returns a company's projects based on filters with total count.
func (r *ProjectRepository) List(ctx context.Context, companyID string, filter models.ProjectFilter) ([]models.Project, int, error) {
	baseQuery := `FROM projects WHERE company_id = $1 AND deleted_at IS NULL`
	args := []interface{}{companyID}
	var conditions []string

	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(name) LIKE $%d OR LOWER(COALESCE(project_number, '')) LIKE $%d OR LOWER(COALESCE(client_name, '')) LIKE $%d)", len(args)+1, len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
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

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY created_at DESC LIMIT %d OFFSET %d", projectColumns, baseQuery, pageSize, offset)

	var projects []models.Project
	if err := r.db.SelectContext(ctx, &projects, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list projects: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count projects: %w", err)
	}

	return projects, total, nil
}

// Create inserts a new project.
func (r *ProjectRepository) Create(ctx context.Context, project *models.Project) error {
	if project.ID == "" {
		project.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if project.CreatedAt.IsZero() {
		project.CreatedAt = now
	}
	project.UpdatedAt = now

	const query = `INSERT INTO projects (id, company_id, name, project_number, client_name, address, latitude, longitude, geofence_radius, status, start_date, end_date, budget_hours, budget_amount, created_by_id, created_at, updated_at) VALUES (:id, :company_id, :name, :project_number, :client_name, :address, :latitude, :longitude, :geofence_radius, :status, :start_date, :end_date, :budget_hours, :budget_amount, :created_by_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, project); err != nil {
		return fmt.Errorf("create project: %w", err)
	}
	return nil
}

// Update updates mutable fields of a project.
func (r *ProjectRepository) Update(ctx context.Context, project *models.Project) error {
	project.UpdatedAt = time.Now().UTC()
	const query = `UPDATE projects SET name = :name, project_number = :project_number, client_name = :client_name, address = :address, latitude = :latitude, longitude = :longitude, geofence_radius = :geofence_radius, status = :status, start_date = :start_date, end_date = :end_date, budget_hours = :budget_hours, budget_amount = :budget_amount, updated_at = :updated_at WHERE id = :id AND company_id = :company_id AND deleted_at IS NULL`
	if _, err := r.db.NamedExecContext(ctx, query, project); err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	return nil
}

// SoftDelete marks a project as deleted without removing the row.
func (r *ProjectRepository) SoftDelete(ctx context.Context, companyID, id string) error {
	const query = `UPDATE projects SET deleted_at = $3, updated_at = $3 WHERE id = $1 AND company_id = $2 AND deleted_at IS NULL`
	if _, err := r.db.ExecContext(ctx, query, id, companyID, time.Now().UTC()); err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	return nil
}
