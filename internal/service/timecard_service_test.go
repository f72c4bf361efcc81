package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crewflow-hq/crewflow-api/internal/models"
	appErrors "github.com/crewflow-hq/crewflow-api/pkg/errors"
)

type mockTimecardRepo struct {
	cards   map[string]*models.Timecard
	open    *models.Timecard
	created *models.Timecard
	updated *models.Timecard
}

func (m *mockTimecardRepo) FindByID(ctx context.Context, companyID, id string) (*models.Timecard, error) {
	if tc, ok := m.cards[id]; ok && tc.CompanyID == companyID {
		return tc, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockTimecardRepo) FindOpenForWorker(ctx context.Context, companyID, workerID string) (*models.Timecard, error) {
	if m.open != nil && m.open.WorkerID == workerID {
		return m.open, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockTimecardRepo) List(ctx context.Context, companyID string, filter models.TimecardFilter) ([]models.Timecard, int, error) {
	return nil, 0, nil
}

func (m *mockTimecardRepo) Create(ctx context.Context, tc *models.Timecard) error {
	tc.ID = "generated"
	m.created = tc
	return nil
}

func (m *mockTimecardRepo) Update(ctx context.Context, tc *models.Timecard) error {
	m.updated = tc
	return nil
}

func (m *mockTimecardRepo) UpdateStatus(ctx context.Context, companyID string, ids []string, status models.TimecardStatus) error {
	return nil
}

func (m *mockTimecardRepo) SoftDelete(ctx context.Context, companyID, id string) error { return nil }

type mockProjectFinder struct {
	projects map[string]*models.Project
}

func (m *mockProjectFinder) FindByID(ctx context.Context, companyID, id string) (*models.Project, error) {
	if p, ok := m.projects[id]; ok && p.CompanyID == companyID {
		return p, nil
	}
	return nil, sql.ErrNoRows
}

type mockWorkerFinder struct {
	workers map[string]*models.User
}

func (m *mockWorkerFinder) FindInCompany(ctx context.Context, companyID, id string) (*models.User, error) {
	if u, ok := m.workers[id]; ok && u.CompanyID == companyID {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

type mockCostCodeFinder struct {
	codes map[string]*models.CostCode
}

func (m *mockCostCodeFinder) FindCostCode(ctx context.Context, companyID, id string) (*models.CostCode, error) {
	if c, ok := m.codes[id]; ok && c.CompanyID == companyID {
		return c, nil
	}
	return nil, sql.ErrNoRows
}

func newTimecardFixture() (*TimecardService, *mockTimecardRepo) {
	repo := &mockTimecardRepo{cards: map[string]*models.Timecard{}}
	projects := &mockProjectFinder{projects: map[string]*models.Project{
		"p1": {ID: "p1", CompanyID: "c1", Status: models.ProjectStatusActive},
		"p2": {ID: "p2", CompanyID: "c1", Status: models.ProjectStatusArchived},
		"p3": {ID: "p3", CompanyID: "other"},
	}}
	workers := &mockWorkerFinder{workers: map[string]*models.User{
		"u1": {ID: "u1", CompanyID: "c1"},
	}}
	codes := &mockCostCodeFinder{codes: map[string]*models.CostCode{
		"cc1": {ID: "cc1", CompanyID: "c1", IsActive: true},
		"cc2": {ID: "cc2", CompanyID: "c1", IsActive: false},
	}}
	return NewTimecardService(repo, projects, workers, codes, nil, nil), repo
}

func TestClockInCreatesDraft(t *testing.T) {
	svc, repo := newTimecardFixture()

	tc, err := svc.ClockIn(context.Background(), "c1", "u1", ClockInRequest{ProjectID: "p1", CostCodeID: "cc1"})
	require.NoError(t, err)
	assert.Equal(t, models.TimecardStatusDraft, tc.Status)
	assert.Equal(t, "u1", tc.WorkerID)
	assert.NotNil(t, repo.created)
}

func TestClockInRejectsForeignProject(t *testing.T) {
	svc, _ := newTimecardFixture()

	_, err := svc.ClockIn(context.Background(), "c1", "u1", ClockInRequest{ProjectID: "p3", CostCodeID: "cc1"})
	require.Error(t, err)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrValidation))
}

func TestClockInRejectsInactiveProject(t *testing.T) {
	svc, _ := newTimecardFixture()

	_, err := svc.ClockIn(context.Background(), "c1", "u1", ClockInRequest{ProjectID: "p2", CostCodeID: "cc1"})
	require.Error(t, err)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrValidation))
}

func TestClockInRejectsRetiredCostCode(t *testing.T) {
	svc, _ := newTimecardFixture()

	_, err := svc.ClockIn(context.Background(), "c1", "u1", ClockInRequest{ProjectID: "p1", CostCodeID: "cc2"})
	require.Error(t, err)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrValidation))
}

func TestClockInRejectsSecondOpenShift(t *testing.T) {
	svc, repo := newTimecardFixture()
	repo.open = &models.Timecard{ID: "t0", CompanyID: "c1", WorkerID: "u1"}

	_, err := svc.ClockIn(context.Background(), "c1", "u1", ClockInRequest{ProjectID: "p1", CostCodeID: "cc1"})
	require.Error(t, err)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrConflict))
}

func TestClockOutClosesOpenShift(t *testing.T) {
	svc, repo := newTimecardFixture()
	repo.open = &models.Timecard{ID: "t0", CompanyID: "c1", WorkerID: "u1", ClockIn: time.Now().Add(-8 * time.Hour)}

	tc, err := svc.ClockOut(context.Background(), "c1", "u1", ClockOutRequest{BreakMinutes: 30})
	require.NoError(t, err)
	require.NotNil(t, tc.ClockOut)
	assert.Equal(t, 30, tc.BreakMinutes)
	assert.NotNil(t, repo.updated)
}

func TestClockOutWithoutOpenShift(t *testing.T) {
	svc, _ := newTimecardFixture()

	_, err := svc.ClockOut(context.Background(), "c1", "u1", ClockOutRequest{})
	require.Error(t, err)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrNotFound))
}

func TestUpdateRejectsLockedTimecard(t *testing.T) {
	svc, repo := newTimecardFixture()
	repo.cards["t1"] = &models.Timecard{ID: "t1", CompanyID: "c1", Status: models.TimecardStatusApproved}

	_, err := svc.Update(context.Background(), "c1", "t1", UpdateTimecardRequest{
		ProjectID:  "p1",
		CostCodeID: "cc1",
		ClockIn:    time.Now(),
	})
	require.Error(t, err)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrConflict))
}

func TestCreateManualRejectsForeignWorker(t *testing.T) {
	svc, _ := newTimecardFixture()

	_, err := svc.CreateManual(context.Background(), "c1", CreateManualRequest{
		WorkerID:   "stranger",
		ProjectID:  "p1",
		CostCodeID: "cc1",
		ClockIn:    time.Now(),
	})
	require.Error(t, err)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrValidation))
}

func TestChangeStatusRejectsExportedTransition(t *testing.T) {
	svc, _ := newTimecardFixture()

	err := svc.ChangeStatus(context.Background(), "c1", StatusChangeRequest{
		TimecardIDs: []string{"t1"},
		Status:      models.TimecardStatusExported,
	})
	require.Error(t, err)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrValidation))
}
