package service

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/crewflow-hq/crewflow-api/internal/models"
	appErrors "github.com/crewflow-hq/crewflow-api/pkg/errors"
)

type companyRepository interface {
	FindByID(ctx context.Context, id string) (*models.Company, error)
	Update(ctx context.Context, company *models.Company) error
	UpdateSettings(ctx context.Context, id string, settings json.RawMessage) error
	ListCostCodes(ctx context.Context, companyID string, activeOnly bool) ([]models.CostCode, error)
	FindCostCode(ctx context.Context, companyID, id string) (*models.CostCode, error)
	CreateCostCode(ctx context.Context, code *models.CostCode) error
	UpdateCostCode(ctx context.Context, code *models.CostCode) error
}

// UpdateCompanyRequest holds payload for updating company details.
type UpdateCompanyRequest struct {
	Name string `json:"name" validate:"required"`
}

// CreateCostCodeRequest holds payload for creating cost codes.
type CreateCostCodeRequest struct {
	Code        string  `json:"code" validate:"required"`
	Description string  `json:"description" validate:"required"`
	Category    *string `json:"category"`
}

// UpdateCostCodeRequest holds payload for updating cost codes.
type UpdateCostCodeRequest struct {
	Code        string  `json:"code" validate:"required"`
	Description string  `json:"description" validate:"required"`
	Category    *string `json:"category"`
	IsActive    bool    `json:"is_active"`
}

// CompanyService handles the tenant's own record, settings blob and cost
// codes.
type CompanyService struct {
	repo      companyRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCompanyService constructs the company service.
func NewCompanyService(repo companyRepository, validate *validator.Validate, logger *zap.Logger) *CompanyService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CompanyService{repo: repo, validator: validate, logger: logger}
}

// Get returns the caller's company.
func (s *CompanyService) Get(ctx context.Context, id string) (*models.Company, error) {
	company, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "company not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load company")
	}
	return company, nil
}

// Update changes the company's display name.
func (s *CompanyService) Update(ctx context.Context, id string, req UpdateCompanyRequest) (*models.Company, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid company payload")
	}
	company, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	company.Name = req.Name
	if err := s.repo.Update(ctx, company); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update company")
	}
	return company, nil
}

// UpdateSettings replaces the company's settings blob. The blob only has to
// be valid JSON; its shape is owned by clients.
func (s *CompanyService) UpdateSettings(ctx context.Context, id string, settings json.RawMessage) (*models.Company, error) {
	if !json.Valid(settings) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "settings must be valid JSON")
	}
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateSettings(ctx, id, settings); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update settings")
	}
	return s.Get(ctx, id)
}

// ListCostCodes returns the company's cost codes.
func (s *CompanyService) ListCostCodes(ctx context.Context, companyID string, activeOnly bool) ([]models.CostCode, error) {
	codes, err := s.repo.ListCostCodes(ctx, companyID, activeOnly)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list cost codes")
	}
	return codes, nil
}

// CreateCostCode registers a new cost code.
func (s *CompanyService) CreateCostCode(ctx context.Context, companyID string, req CreateCostCodeRequest) (*models.CostCode, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid cost code payload")
	}
	code := &models.CostCode{
		CompanyID:   companyID,
		Code:        req.Code,
		Description: req.Description,
		Category:    req.Category,
		IsActive:    true,
	}
	if err := s.repo.CreateCostCode(ctx, code); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create cost code")
	}
	return code, nil
}

// UpdateCostCode updates a cost code, including retiring it.
func (s *CompanyService) UpdateCostCode(ctx context.Context, companyID, id string, req UpdateCostCodeRequest) (*models.CostCode, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid cost code payload")
	}
	code, err := s.repo.FindCostCode(ctx, companyID, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "cost code not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load cost code")
	}
	code.Code = req.Code
	code.Description = req.Description
	code.Category = req.Category
	code.IsActive = req.IsActive
	if err := s.repo.UpdateCostCode(ctx, code); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update cost code")
	}
	return code, nil
}
