package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/crewflow-hq/crewflow-api/internal/models"
)

// CompanyRepository provides database access for companies and their cost
// codes.
type CompanyRepository struct {
	db *sqlx.DB
}

// NewCompanyRepository creates a new instance of CompanyRepository.
func NewCompanyRepository(db *sqlx.DB) *CompanyRepository {
	return &CompanyRepository{db: db}
}

// FindByID returns a company by identifier.
func (r *CompanyRepository) FindByID(ctx context.Context, id string) (*models.Company, error) {
	const query = `SELECT id, name, subscription_tier, settings, created_at, updated_at, deleted_at FROM companies WHERE id = $1 AND deleted_at IS NULL LIMIT 1`
	var company models.Company
	if err := r.db.GetContext(ctx, &company, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find company by id: %w", err)
	}
	return &company, nil
}

// Update updates a company's name and subscription tier.
func (r *CompanyRepository) Update(ctx context.Context, company *models.Company) error {
	company.UpdatedAt = time.Now().UTC()
	const query = `UPDATE companies SET name = :name, subscription_tier = :subscription_tier, updated_at = :updated_at WHERE id = :id AND deleted_at IS NULL`
	if _, err := r.db.NamedExecContext(ctx, query, company); err != nil {
		return fmt.Errorf("update company: %w", err)
	}
	return nil
}

// UpdateSettings replaces the company's settings blob.
func (r *CompanyRepository) UpdateSettings(ctx context.Context, id string, settings json.RawMessage) error {
	const query = `UPDATE companies SET settings = $2, updated_at = $3 WHERE id = $1 AND deleted_at IS NULL`
	if _, err := r.db.ExecContext(ctx, query, id, settings, time.Now().UTC()); err != nil {
		return fmt.Errorf("update company settings: %w", err)
	}
	return nil
}

// ListCostCodes returns a company's cost codes. Pass activeOnly to hide
// retired codes.
func (r *CompanyRepository) ListCostCodes(ctx context.Context, companyID string, activeOnly bool) ([]models.CostCode, error) {
	query := `SELECT id, company_id, code, description, category, is_active, created_at, updated_at FROM cost_codes WHERE company_id = $1`
	if activeOnly {
		query += ` AND is_active = TRUE`
	}
	query += ` ORDER BY code ASC`

	var codes []models.CostCode
	if err := r.db.SelectContext(ctx, &codes, query, companyID); err != nil {
		return nil, fmt.Errorf("list cost codes: %w", err)
	}
	return codes, nil
}

// FindCostCode returns a cost code by identifier within a company.
func (r *CompanyRepository) FindCostCode(ctx context.Context, companyID, id string) (*models.CostCode, error) {
	const query = `SELECT id, company_id, code, description, category, is_active, created_at, updated_at FROM cost_codes WHERE id = $1 AND company_id = $2 LIMIT 1`
	var code models.CostCode
	if err := r.db.GetContext(ctx, &code, query, id, companyID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find cost code: %w", err)
	}
	return &code, nil
}

// CreateCostCode inserts a new cost code.
func (r *CompanyRepository) CreateCostCode(ctx context.Context, code *models.CostCode) error {
	if code.ID == "" {
		code.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if code.CreatedAt.IsZero() {
		code.CreatedAt = now
	}
	code.UpdatedAt = now

	const query = `INSERT INTO cost_codes (id, company_id, code, description, category, is_active, created_at, updated_at) VALUES (:id, :company_id, :code, :description, :category, :is_active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, code); err != nil {
		return fmt.Errorf("create cost code: %w", err)
	}
	return nil
}

// UpdateCostCode updates mutable fields of a cost code.
func (r *CompanyRepository) UpdateCostCode(ctx context.Context, code *models.CostCode) error {
	code.UpdatedAt = time.Now().UTC()
	const query = `UPDATE cost_codes SET code = :code, description = :description, category = :category, is_active = :is_active, updated_at = :updated_at WHERE id = :id AND company_id = :company_id`
	if _, err := r.db.NamedExecContext(ctx, query, code); err != nil {
		return fmt.Errorf("update cost code: %w", err)
	}
	return nil
}
