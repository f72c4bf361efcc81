package service

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/crewflow-hq/crewflow-api/internal/models"
	appErrors "github.com/crewflow-hq/crewflow-api/pkg/errors"
	"github.com/crewflow-hq/crewflow-api/pkg/export"
	"github.com/crewflow-hq/crewflow-api/pkg/jobs"
	"github.com/crewflow-hq/crewflow-api/pkg/storage"
)

type payrollExportRepository interface {
	Create(ctx context.Context, export *models.PayrollExport) error
	FindByID(ctx context.Context, companyID, id string) (*models.PayrollExport, error)
	MarkCompleted(ctx context.Context, id, filePath string) error
	MarkFailed(ctx context.Context, id, reason string) error
}

type exportTimecardLister interface {
	ListForExport(ctx context.Context, companyID string, start, end time.Time) ([]models.Timecard, error)
	UpdateStatus(ctx context.Context, companyID string, ids []string, status models.TimecardStatus) error
}

// RequestExportRequest asks for an asynchronous payroll export.
type RequestExportRequest struct {
	Format      models.PayrollExportFormat `json:"format" validate:"required"`
	PeriodStart time.Time                  `json:"period_start" validate:"required"`
	PeriodEnd   time.Time                  `json:"period_end" validate:"required"`
	ProjectID   *string                    `json:"project_id"`
}

type exportJobPayload struct {
	ExportID  string
	CompanyID string
}

// PayrollService generates payroll exports through a background worker queue.
// Approved timecards in the period are rendered to CSV or PDF, stored on
// disk and marked EXPORTED.
type PayrollService struct {
	exports   payrollExportRepository
	timecards exportTimecardLister
	files     *storage.LocalStorage
	signer    *storage.Signer
	queue     *jobs.Queue
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPayrollService constructs the payroll service and its worker queue. Call
// Start before accepting requests and Stop on shutdown.
func NewPayrollService(exports payrollExportRepository, timecards exportTimecardLister, files *storage.LocalStorage, signer *storage.Signer, queueCfg jobs.QueueConfig, validate *validator.Validate, logger *zap.Logger) *PayrollService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &PayrollService{
		exports:   exports,
		timecards: timecards,
		files:     files,
		signer:    signer,
		validator: validate,
		logger:    logger,
	}
	if queueCfg.Logger == nil {
		queueCfg.Logger = logger
	}
	s.queue = jobs.NewQueue("payroll-export", s.process, queueCfg)
	return s
}

// Start launches the export workers.
func (s *PayrollService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the export workers.
func (s *PayrollService) Stop() {
	s.queue.Stop()
}

// Request records an export job and queues it for generation.
func (s *PayrollService) Request(ctx context.Context, companyID, requestedByID string, req RequestExportRequest) (*models.PayrollExport, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid export payload")
	}
	if req.Format != models.PayrollFormatCSV && req.Format != models.PayrollFormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported export format")
	}
	if !req.PeriodEnd.After(req.PeriodStart) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "period end must be after period start")
	}

	job := &models.PayrollExport{
		CompanyID:     companyID,
		RequestedByID: requestedByID,
		Format:        req.Format,
		PeriodStart:   req.PeriodStart,
		PeriodEnd:     req.PeriodEnd,
		ProjectID:     req.ProjectID,
		Status:        models.PayrollStatusPending,
	}
	if err := s.exports.Create(ctx, job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create export")
	}
	if err := s.queue.Enqueue(jobs.Job{
		ID:      uuid.NewString(),
		Type:    "payroll_export",
		Payload: exportJobPayload{ExportID: job.ID, CompanyID: companyID},
	}); err != nil {
		if ferr := s.exports.MarkFailed(ctx, job.ID, "queue unavailable"); ferr != nil {
			s.logger.Error("failed to mark export failed", zap.String("export_id", job.ID), zap.Error(ferr))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to queue export")
	}
	return job, nil
}

// Status returns the export job and, once completed, a signed download token.
func (s *PayrollService) Status(ctx context.Context, companyID, id string) (*models.PayrollExport, string, error) {
	job, err := s.exports.FindByID(ctx, companyID, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, "", appErrors.Clone(appErrors.ErrNotFound, "export not found")
		}
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load export")
	}
	var token string
	if job.Status == models.PayrollStatusCompleted && job.FilePath != nil {
		token, _, err = s.signer.Generate(job.ID, *job.FilePath)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download")
		}
	}
	return job, token, nil
}

// OpenDownload validates a signed token and opens the export file. The token
// alone grants access, so download links can be handed to payroll providers.
func (s *PayrollService) OpenDownload(token string) (*os.File, string, error) {
	_, relPath, _, err := s.signer.Parse(token)
	if err != nil {
		return nil, "", appErrors.Clone(appErrors.ErrInvalidToken, "invalid download token")
	}
	file, err := s.files.Open(relPath)
	if err != nil {
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "export file not found")
	}
	return file, relPath, nil
}

func (s *PayrollService) process(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(exportJobPayload)
	if !ok {
		s.logger.Error("unexpected export payload", zap.String("job_id", job.ID))
		return nil
	}

	exp, err := s.exports.FindByID(ctx, payload.CompanyID, payload.ExportID)
	if err != nil {
		return fmt.Errorf("load export %s: %w", payload.ExportID, err)
	}

	cards, err := s.timecards.ListForExport(ctx, exp.CompanyID, exp.PeriodStart, exp.PeriodEnd)
	if err != nil {
		return fmt.Errorf("list timecards: %w", err)
	}
	if exp.ProjectID != nil {
		filtered := cards[:0]
		for _, c := range cards {
			if c.ProjectID == *exp.ProjectID {
				filtered = append(filtered, c)
			}
		}
		cards = filtered
	}

	table := buildPayrollTable(cards)

	var data []byte
	var ext string
	switch exp.Format {
	case models.PayrollFormatPDF:
		title := fmt.Sprintf("Payroll %s to %s", exp.PeriodStart.Format("2006-01-02"), exp.PeriodEnd.Format("2006-01-02"))
		data, err = export.PDF(table, title)
		ext = "pdf"
	default:
		data, err = export.CSV(table)
		ext = "csv"
	}
	if err != nil {
		if ferr := s.exports.MarkFailed(ctx, exp.ID, err.Error()); ferr != nil {
			s.logger.Error("failed to mark export failed", zap.String("export_id", exp.ID), zap.Error(ferr))
		}
		return nil
	}

	filename := fmt.Sprintf("%s/%s.%s", exp.CompanyID, exp.ID, ext)
	path, err := s.files.Save(filename, data)
	if err != nil {
		return fmt.Errorf("save export file: %w", err)
	}
	if err := s.exports.MarkCompleted(ctx, exp.ID, path); err != nil {
		return fmt.Errorf("complete export: %w", err)
	}

	ids := make([]string, 0, len(cards))
	for _, c := range cards {
		ids = append(ids, c.ID)
	}
	if err := s.timecards.UpdateStatus(ctx, exp.CompanyID, ids, models.TimecardStatusExported); err != nil {
		s.logger.Error("failed to mark timecards exported", zap.String("export_id", exp.ID), zap.Error(err))
	}

	s.logger.Info("payroll export completed",
		zap.String("export_id", exp.ID),
		zap.String("company_id", exp.CompanyID),
		zap.Int("timecards", len(cards)))
	return nil
}

func buildPayrollTable(cards []models.Timecard) export.Table {
	table := export.Table{
		Headers: []string{"Date", "Worker", "Project", "Cost Code", "Clock In", "Clock Out", "Break (min)", "Hours"},
	}
	for _, c := range cards {
		clockOut := ""
		if c.ClockOut != nil {
			clockOut = c.ClockOut.Format("15:04")
		}
		table.Rows = append(table.Rows, map[string]string{
			"Date":        c.ClockIn.Format("2006-01-02"),
			"Worker":      c.WorkerName,
			"Project":     c.ProjectName,
			"Cost Code":   c.CostCode,
			"Clock In":    c.ClockIn.Format("15:04"),
			"Clock Out":   clockOut,
			"Break (min)": strconv.Itoa(c.BreakMinutes),
			"Hours":       strconv.FormatFloat(c.Hours(), 'f', 2, 64),
		})
	}
	return table
}
