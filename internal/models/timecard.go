package models

import "time"

// TimecardStatus captures a timecard's approval state.
type TimecardStatus string

const (
	TimecardStatusDraft     TimecardStatus = "DRAFT"
	TimecardStatusSubmitted TimecardStatus = "SUBMITTED"
	TimecardStatusApproved  TimecardStatus = "APPROVED"
	TimecardStatusExported  TimecardStatus = "EXPORTED"
)

// Timecard records a worker's shift on a project. Clock-out is nil while the
// shift is open.
type Timecard struct {
	ID                string         `db:"id" json:"id"`
	CompanyID         string         `db:"company_id" json:"company_id"`
	WorkerID          string         `db:"worker_id" json:"worker_id"`
	ProjectID         string         `db:"project_id" json:"project_id"`
	CostCodeID        string         `db:"cost_code_id" json:"cost_code_id"`
	ClockIn           time.Time      `db:"clock_in" json:"clock_in"`
	ClockInLatitude   *float64       `db:"clock_in_latitude" json:"clock_in_latitude,omitempty"`
	ClockInLongitude  *float64       `db:"clock_in_longitude" json:"clock_in_longitude,omitempty"`
	ClockOut          *time.Time     `db:"clock_out" json:"clock_out,omitempty"`
	ClockOutLatitude  *float64       `db:"clock_out_latitude" json:"clock_out_latitude,omitempty"`
	ClockOutLongitude *float64       `db:"clock_out_longitude" json:"clock_out_longitude,omitempty"`
	BreakMinutes      int            `db:"break_minutes" json:"break_minutes"`
	Notes             *string        `db:"notes" json:"notes,omitempty"`
	Status            TimecardStatus `db:"status" json:"status"`
	WorkerName        string         `db:"worker_name" json:"worker_name,omitempty"`
	ProjectName       string         `db:"project_name" json:"project_name,omitempty"`
	CostCode          string         `db:"cost_code" json:"cost_code,omitempty"`
	CreatedAt         time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time      `db:"updated_at" json:"updated_at"`
	DeletedAt         *time.Time     `db:"deleted_at" json:"-"`
}

// Hours returns worked hours net of breaks, zero while the shift is open.
func (t *Timecard) Hours() float64 {
	if t.ClockOut == nil {
		return 0
	}
	worked := t.ClockOut.Sub(t.ClockIn) - time.Duration(t.BreakMinutes)*time.Minute
	if worked < 0 {
		return 0
	}
	return worked.Hours()
}

// TimecardFilter captures filtering criteria for listing timecards.
type TimecardFilter struct {
	WorkerID  string
	ProjectID string
	Status    *TimecardStatus
	StartDate *time.Time
	EndDate   *time.Time
	Page      int
	PageSize  int
}
