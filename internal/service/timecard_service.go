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

type timecardRepository interface {
	FindByID(ctx context.Context, companyID, id string) (*models.Timecard, error)
	FindOpenForWorker(ctx context.Context, companyID, workerID string) (*models.Timecard, error)
	List(ctx context.Context, companyID string, filter models.TimecardFilter) ([]models.Timecard, int, error)
	Create(ctx context.Context, tc *models.Timecard) error
	Update(ctx context.Context, tc *models.Timecard) error
	UpdateStatus(ctx context.Context, companyID string, ids []string, status models.TimecardStatus) error
	SoftDelete(ctx context.Context, companyID, id string) error
}

type projectFinder interface {
	FindByID(ctx context.Context, companyID, id string) (*models.Project, error)
}

type workerFinder interface {
	FindInCompany(ctx context.Context, companyID, id string) (*models.User, error)
}

type costCodeFinder interface {
	FindCostCode(ctx context.Context, companyID, id string) (*models.CostCode, error)
}

// ClockInRequest starts a shift.
type ClockInRequest struct {
	ProjectID  string   `json:"project_id" validate:"required"`
	CostCodeID string   `json:"cost_code_id" validate:"required"`
	Latitude   *float64 `json:"latitude" validate:"omitempty,gte=-90,lte=90"`
	Longitude  *float64 `json:"longitude" validate:"omitempty,gte=-180,lte=180"`
	Notes      *string  `json:"notes"`
}

// ClockOutRequest closes the worker's open shift.
type ClockOutRequest struct {
	Latitude     *float64 `json:"latitude" validate:"omitempty,gte=-90,lte=90"`
	Longitude    *float64 `json:"longitude" validate:"omitempty,gte=-180,lte=180"`
	BreakMinutes int      `json:"break_minutes" validate:"gte=0"`
	Notes        *string  `json:"notes"`
}

// UpdateTimecardRequest edits a timecard's recorded times and references.
type UpdateTimecardRequest struct {
	ProjectID    string     `json:"project_id" validate:"required"`
	CostCodeID   string     `json:"cost_code_id" validate:"required"`
	ClockIn      time.Time  `json:"clock_in" validate:"required"`
	ClockOut     *time.Time `json:"clock_out"`
	BreakMinutes int        `json:"break_minutes" validate:"gte=0"`
	Notes        *string    `json:"notes"`
}

// StatusChangeRequest moves a batch of timecards through the approval flow.
type StatusChangeRequest struct {
	TimecardIDs []string              `json:"timecard_ids" validate:"required,min=1"`
	Status      models.TimecardStatus `json:"status" validate:"required"`
}

// TimecardService handles shift recording and the approval workflow.
type TimecardService struct {
	repo      timecardRepository
	projects  projectFinder
	workers   workerFinder
	costCodes costCodeFinder
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTimecardService constructs the timecard service.
func NewTimecardService(repo timecardRepository, projects projectFinder, workers workerFinder, costCodes costCodeFinder, validate *validator.Validate, logger *zap.Logger) *TimecardService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimecardService{
		repo:      repo,
		projects:  projects,
		workers:   workers,
		costCodes: costCodes,
		validator: validate,
		logger:    logger,
	}
}

// List returns a company's timecards and pagination metadata.
func (s *TimecardService) List(ctx context.Context, companyID string, filter models.TimecardFilter) ([]models.Timecard, *models.Pagination, error) {
	timecards, total, err := s.repo.List(ctx, companyID, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list timecards")
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
	return timecards, pagination, nil
}

// Get returns a timecard within the caller's company.
func (s *TimecardService) Get(ctx context.Context, companyID, id string) (*models.Timecard, error) {
	tc, err := s.repo.FindByID(ctx, companyID, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "timecard not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timecard")
	}
	return tc, nil
}

// ClockIn opens a shift for the worker. The referenced project and cost code
// must belong to the same company, the project must be active and the worker
// may hold only one open shift at a time.
func (s *TimecardService) ClockIn(ctx context.Context, companyID, workerID string, req ClockInRequest) (*models.Timecard, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid clock-in payload")
	}
	if err := s.checkReferences(ctx, companyID, req.ProjectID, req.CostCodeID); err != nil {
		return nil, err
	}
	if _, err := s.repo.FindOpenForWorker(ctx, companyID, workerID); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "worker already has an open shift")
	} else if err != sql.ErrNoRows {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check open shifts")
	}

	tc := &models.Timecard{
		CompanyID:        companyID,
		WorkerID:         workerID,
		ProjectID:        req.ProjectID,
		CostCodeID:       req.CostCodeID,
		ClockIn:          time.Now().UTC(),
		ClockInLatitude:  req.Latitude,
		ClockInLongitude: req.Longitude,
		Notes:            req.Notes,
		Status:           models.TimecardStatusDraft,
	}
	if err := s.repo.Create(ctx, tc); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create timecard")
	}
	return tc, nil
}

// ClockOut closes the worker's open shift.
func (s *TimecardService) ClockOut(ctx context.Context, companyID, workerID string, req ClockOutRequest) (*models.Timecard, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid clock-out payload")
	}
	tc, err := s.repo.FindOpenForWorker(ctx, companyID, workerID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no open shift")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load open shift")
	}

	now := time.Now().UTC()
	tc.ClockOut = &now
	tc.ClockOutLatitude = req.Latitude
	tc.ClockOutLongitude = req.Longitude
	tc.BreakMinutes = req.BreakMinutes
	if req.Notes != nil {
		tc.Notes = req.Notes
	}
	if err := s.repo.Update(ctx, tc); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to close timecard")
	}
	return tc, nil
}

// CreateManualRequest adds a completed shift on a worker's behalf.
type CreateManualRequest struct {
	WorkerID     string     `json:"worker_id" validate:"required"`
	ProjectID    string     `json:"project_id" validate:"required"`
	CostCodeID   string     `json:"cost_code_id" validate:"required"`
	ClockIn      time.Time  `json:"clock_in" validate:"required"`
	ClockOut     *time.Time `json:"clock_out"`
	BreakMinutes int        `json:"break_minutes" validate:"gte=0"`
	Notes        *string    `json:"notes"`
}

// CreateManual records a shift entered by a manager rather than the worker's
// own clock-in. The worker must belong to the same company.
func (s *TimecardService) CreateManual(ctx context.Context, companyID string, req CreateManualRequest) (*models.Timecard, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid timecard payload")
	}
	if req.ClockOut != nil && !req.ClockOut.After(req.ClockIn) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "clock-out must be after clock-in")
	}
	if _, err := s.workers.FindInCompany(ctx, companyID, req.WorkerID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrValidation, "worker not found in company")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load worker")
	}
	if err := s.checkReferences(ctx, companyID, req.ProjectID, req.CostCodeID); err != nil {
		return nil, err
	}

	tc := &models.Timecard{
		CompanyID:    companyID,
		WorkerID:     req.WorkerID,
		ProjectID:    req.ProjectID,
		CostCodeID:   req.CostCodeID,
		ClockIn:      req.ClockIn,
		ClockOut:     req.ClockOut,
		BreakMinutes: req.BreakMinutes,
		Notes:        req.Notes,
		Status:       models.TimecardStatusDraft,
	}
	if err := s.repo.Create(ctx, tc); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create timecard")
	}
	return tc, nil
}

// Update edits a timecard. Approved and exported timecards are immutable.
func (s *TimecardService) Update(ctx context.Context, companyID, id string, req UpdateTimecardRequest) (*models.Timecard, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid timecard payload")
	}
	if req.ClockOut != nil && !req.ClockOut.After(req.ClockIn) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "clock-out must be after clock-in")
	}
	tc, err := s.repo.FindByID(ctx, companyID, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "timecard not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timecard")
	}
	if tc.Status == models.TimecardStatusApproved || tc.Status == models.TimecardStatusExported {
		return nil, appErrors.Clone(appErrors.ErrConflict, "timecard is locked")
	}
	if err := s.checkReferences(ctx, companyID, req.ProjectID, req.CostCodeID); err != nil {
		return nil, err
	}

	tc.ProjectID = req.ProjectID
	tc.CostCodeID = req.CostCodeID
	tc.ClockIn = req.ClockIn
	tc.ClockOut = req.ClockOut
	tc.BreakMinutes = req.BreakMinutes
	tc.Notes = req.Notes
	if err := s.repo.Update(ctx, tc); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update timecard")
	}
	return tc, nil
}

// ChangeStatus moves a batch of timecards through the approval flow. Only the
// forward transitions DRAFT to SUBMITTED and SUBMITTED to APPROVED are open to
// callers; EXPORTED is set by the payroll worker.
func (s *TimecardService) ChangeStatus(ctx context.Context, companyID string, req StatusChangeRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid status payload")
	}
	if req.Status != models.TimecardStatusSubmitted && req.Status != models.TimecardStatusApproved {
		return appErrors.Clone(appErrors.ErrValidation, "unsupported status transition")
	}
	if err := s.repo.UpdateStatus(ctx, companyID, req.TimecardIDs, req.Status); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to change timecard status")
	}
	return nil
}

// Delete soft deletes a timecard. Locked timecards cannot be removed.
func (s *TimecardService) Delete(ctx context.Context, companyID, id string) error {
	tc, err := s.repo.FindByID(ctx, companyID, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "timecard not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timecard")
	}
	if tc.Status == models.TimecardStatusApproved || tc.Status == models.TimecardStatusExported {
		return appErrors.Clone(appErrors.ErrConflict, "timecard is locked")
	}
	if err := s.repo.SoftDelete(ctx, companyID, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete timecard")
	}
	return nil
}

func (s *TimecardService) checkReferences(ctx context.Context, companyID, projectID, costCodeID string) error {
	project, err := s.projects.FindByID(ctx, companyID, projectID)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrValidation, "project not found in company")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load project")
	}
	if project.Status != models.ProjectStatusActive {
		return appErrors.Clone(appErrors.ErrValidation, "project is not active")
	}
	code, err := s.costCodes.FindCostCode(ctx, companyID, costCodeID)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrValidation, "cost code not found in company")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load cost code")
	}
	if !code.IsActive {
		return appErrors.Clone(appErrors.ErrValidation, "cost code is retired")
	}
	return nil
}
