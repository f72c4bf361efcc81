package models

import (
	"encoding/json"
	"time"
)

// Company is the tenant root. Settings is an opaque JSON blob owned by the
// client (timezone, currency, overtime threshold and the like).
type Company struct {
	ID               string          `db:"id" json:"id"`
	Name             string          `db:"name" json:"name"`
	SubscriptionTier string          `db:"subscription_tier" json:"subscription_tier"`
	Settings         json.RawMessage `db:"settings" json:"settings,omitempty"`
	CreatedAt        time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time       `db:"updated_at" json:"updated_at"`
	DeletedAt        *time.Time      `db:"deleted_at" json:"-"`
}

// CostCode labels work for payroll and job costing. Timecards must reference
// an active cost code belonging to the same company.
type CostCode struct {
	ID          string    `db:"id" json:"id"`
	CompanyID   string    `db:"company_id" json:"company_id"`
	Code        string    `db:"code" json:"code"`
	Description string    `db:"description" json:"description"`
	Category    *string   `db:"category" json:"category,omitempty"`
	IsActive    bool      `db:"is_active" json:"is_active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}
