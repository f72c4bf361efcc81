package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/crewflow-hq/crewflow-api/internal/models"
	appErrors "github.com/crewflow-hq/crewflow-api/pkg/errors"
)

type projectRepository interface {
	FindByID(ctx context.Context, companyID, id string) (*models.Project, error)
	List(ctx context.Context, companyID string, filter models.ProjectFilter) ([]models.Project, int, error)
	Create(ctx context.Context, project *models.Project) error
	Update(ctx context.Context, project *models.Project) error
	SoftDelete(ctx context.Context, companyID, id string) error
}

// CreateProjectRequest holds payload for creating projects.
type CreateProjectRequest struct {
	Name           string     `json:"name" validate:"required"`
	ProjectNumber  *string    `json:"project_number"`
	ClientName     *string    `json:"client_name"`
	Address        *string    `json:"address"`
	Latitude       *float64   `json:"latitude" validate:"omitempty,gte=-90,lte=90"`
	Longitude      *float64   `json:"longitude" validate:"omitempty,gte=-180,lte=180"`
	GeofenceRadius *float64   `json:"geofence_radius" validate:"omitempty,gt=0"`
	StartDate      *time.Time `json:"start_date"`
	EndDate        *time.Time `json:"end_date"`
	BudgetHours    *float64   `json:"budget_hours" validate:"omitempty,gte=0"`
	BudgetAmount   *float64   `json:"budget_amount" validate:"omitempty,gte=0"`
}

// UpdateProjectRequest holds payload for updating projects.
type UpdateProjectRequest struct {
	Name           string               `json:"name" validate:"required"`
	ProjectNumber  *string              `json:"project_number"`
	ClientName     *string              `json:"client_name"`
	Address        *string              `json:"address"`
	Latitude       *float64             `json:"latitude" validate:"omitempty,gte=-90,lte=90"`
	Longitude      *float64             `json:"longitude" validate:"omitempty,gte=-180,lte=180"`
	GeofenceRadius *float64             `json:"geofence_radius" validate:"omitempty,gt=0"`
	Status         models.ProjectStatus `json:"status" validate:"required"`
	StartDate      *time.Time           `json:"start_date"`
	EndDate        *time.Time           `json:"end_date"`
	BudgetHours    *float64             `json:"budget_hours" validate:"omitempty,gte=0"`
	BudgetAmount   *float64             `json:"budget_amount" validate:"omitempty,gte=0"`
}

// ProjectService handles project use-cases.
type ProjectService struct {
	repo      projectRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewProjectService constructs the project service.
func NewProjectService(repo projectRepository, validate *validator.Validate, logger *zap.Logger) *ProjectService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProjectService{repo: repo, validator: validate, logger: logger}
}

// List returns a company's projects and pagination metadata.
func (s *ProjectService) List(ctx context.Context, companyID string, filter models.ProjectFilter) ([]models.Project, *models.Pagination, error) {
	projects, total, err := s.repo.List(ctx, companyID, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list projects")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return projects, pagination, nil
}

// Get returns a project within the caller's company.
func (s *ProjectService) Get(ctx context.Context, companyID, id string) (*models.Project, error) {
	project, err := s.repo.FindByID(ctx, companyID, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "project not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load project")
	}
	return project, nil
}

// Create registers a new project.
func (s *ProjectService) Create(ctx context.Context, companyID, createdByID string, req CreateProjectRequest) (*models.Project, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid project payload")
	}
	if req.StartDate != nil && req.EndDate != nil && req.EndDate.Before(*req.StartDate) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end date before start date")
	}
	project := &models.Project{
		CompanyID:      companyID,
		Name:           req.Name,
		ProjectNumber:  req.ProjectNumber,
		ClientName:     req.ClientName,
		Address:        req.Address,
		Latitude:       req.Latitude,
		Longitude:      req.Longitude,
		GeofenceRadius: req.GeofenceRadius,
		Status:         models.ProjectStatusActive,
		StartDate:      req.StartDate,
		EndDate:        req.EndDate,
		BudgetHours:    req.BudgetHours,
		BudgetAmount:   req.BudgetAmount,
		CreatedByID:    &createdByID,
	}
	if err := s.repo.Create(ctx, project); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create project")
	}
	s.logger.Info("project created", zap.String("project_id", project.ID), zap.String("company_id", companyID))
	return project, nil
}

// Update changes a project's details or lifecycle status.
func (s *ProjectService) Update(ctx context.Context, companyID, id string, req UpdateProjectRequest) (*models.Project, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid project payload")
	}
	switch req.Status {
	case models.ProjectStatusActive, models.ProjectStatusOnHold, models.ProjectStatusCompleted, models.ProjectStatusArchived:
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown project status")
	}
	project, err := s.repo.FindByID(ctx, companyID, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "project not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load project")
	}
	project.Name = req.Name
	project.ProjectNumber = req.ProjectNumber
	project.ClientName = req.ClientName
	project.Address = req.Address
	project.Latitude = req.Latitude
	project.Longitude = req.Longitude
	project.GeofenceRadius = req.GeofenceRadius
	project.Status = req.Status
	project.StartDate = req.StartDate
	project.EndDate = req.EndDate
	project.BudgetHours = req.BudgetHours
	project.BudgetAmount = req.BudgetAmount
	if err := s.repo.Update(ctx, project); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update project")
	}
	return project, nil
}

// Delete soft deletes a project.
func (s *ProjectService) Delete(ctx context.Context, companyID, id string) error {
	if _, err := s.repo.FindByID(ctx, companyID, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "project not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load project")
	}
	if err := s.repo.SoftDelete(ctx, companyID, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete project")
	}
	return nil
}
