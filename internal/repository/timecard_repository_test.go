package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crewflow-hq/crewflow-api/internal/models"
)

func TestCreateTimecard(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTimecardRepository(db)

	mock.ExpectExec("INSERT INTO timecards").WillReturnResult(sqlmock.NewResult(1, 1))

	tc := &models.Timecard{
		CompanyID:  "c1",
		WorkerID:   "u1",
		ProjectID:  "p1",
		CostCodeID: "cc1",
		ClockIn:    time.Now(),
		Status:     models.TimecardStatusDraft,
	}
	err := repo.Create(context.Background(), tc)
	require.NoError(t, err)
	assert.NotEmpty(t, tc.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatusBatch(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTimecardRepository(db)

	mock.ExpectExec("UPDATE timecards SET status").
		WillReturnResult(sqlmock.NewResult(0, 2))

	err := repo.UpdateStatus(context.Background(), "c1", []string{"t1", "t2"}, models.TimecardStatusApproved)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatusEmptySetIsNoop(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTimecardRepository(db)

	err := repo.UpdateStatus(context.Background(), "c1", nil, models.TimecardStatusApproved)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListForExportFiltersApproved(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTimecardRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{
		"id", "company_id", "worker_id", "project_id", "cost_code_id",
		"clock_in", "clock_in_latitude", "clock_in_longitude",
		"clock_out", "clock_out_latitude", "clock_out_longitude",
		"break_minutes", "notes", "status", "created_at", "updated_at", "deleted_at",
		"worker_name", "project_name", "cost_code",
	}).AddRow(
		"t1", "c1", "u1", "p1", "cc1",
		now.Add(-9*time.Hour), nil, nil,
		now, nil, nil,
		30, nil, string(models.TimecardStatusApproved), now, now, nil,
		"Maria Lopez", "Main St Build", "100-LAB",
	)
	mock.ExpectQuery("FROM timecards t").
		WithArgs("c1", string(models.TimecardStatusApproved), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(rows)

	cards, err := repo.ListForExport(context.Background(), "c1", now.Add(-24*time.Hour), now)
	require.NoError(t, err)
	require.Len(t, cards, 1)
	assert.Equal(t, "Maria Lopez", cards[0].WorkerName)
	assert.InDelta(t, 8.5, cards[0].Hours(), 0.01)
	assert.NoError(t, mock.ExpectationsWereMet())
}
