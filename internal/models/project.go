package models

import "time"

// ProjectStatus captures a project's lifecycle state.
type ProjectStatus string

const (
	ProjectStatusActive    ProjectStatus = "ACTIVE"
	ProjectStatusOnHold    ProjectStatus = "ON_HOLD"
	ProjectStatusCompleted ProjectStatus = "COMPLETED"
	ProjectStatusArchived  ProjectStatus = "ARCHIVED"
)

// Project represents a job site. Latitude/longitude plus geofence radius let
// mobile clients validate clock-ins against the site location.
type Project struct {
	ID             string        `db:"id" json:"id"`
	CompanyID      string        `db:"company_id" json:"company_id"`
	Name           string        `db:"name" json:"name"`
	ProjectNumber  *string       `db:"project_number" json:"project_number,omitempty"`
	ClientName     *string       `db:"client_name" json:"client_name,omitempty"`
	Address        *string       `db:"address" json:"address,omitempty"`
	Latitude       *float64      `db:"latitude" json:"latitude,omitempty"`
	Longitude      *float64      `db:"longitude" json:"longitude,omitempty"`
	GeofenceRadius *float64      `db:"geofence_radius" json:"geofence_radius,omitempty"`
	Status         ProjectStatus `db:"status" json:"status"`
	StartDate      *time.Time    `db:"start_date" json:"start_date,omitempty"`
	EndDate        *time.Time    `db:"end_date" json:"end_date,omitempty"`
	BudgetHours    *float64      `db:"budget_hours" json:"budget_hours,omitempty"`
	BudgetAmount   *float64      `db:"budget_amount" json:"budget_amount,omitempty"`
	CreatedByID    *string       `db:"created_by_id" json:"created_by_id,omitempty"`
	CreatedAt      time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time     `db:"updated_at" json:"updated_at"`
	DeletedAt      *time.Time    `db:"deleted_at" json:"-"`
}

// ProjectFilter captures filtering criteria for listing projects.
type ProjectFilter struct {
	Status   *ProjectStatus
	Search   string
	Page     int
	PageSize int
}
