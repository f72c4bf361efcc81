package models

import "time"

// UserRole represents the available roles. Roles are not a simple hierarchy;
// each role carries a fixed permission set (see permission.go).
type UserRole string

const (
	RoleFieldWorker    UserRole = "FIELD_WORKER"
	RoleForeman        UserRole = "FOREMAN"
	RoleProjectManager UserRole = "PROJECT_MANAGER"
	RoleAdmin          UserRole = "ADMIN"
	RoleOwner          UserRole = "OWNER"
)

// AllRoles lists every role known to the system.
func AllRoles() []UserRole {
	return []UserRole{RoleFieldWorker, RoleForeman, RoleProjectManager, RoleAdmin, RoleOwner}
}

// ValidRole reports whether the given value names a known role.
func ValidRole(role UserRole) bool {
	switch role {
	case RoleFieldWorker, RoleForeman, RoleProjectManager, RoleAdmin, RoleOwner:
		return true
	}
	return false
}

// UserStatus captures an account's lifecycle state. Only ACTIVE accounts may
// log in.
type UserStatus string

const (
	UserStatusActive    UserStatus = "ACTIVE"
	UserStatusInvited   UserStatus = "INVITED"
	UserStatusSuspended UserStatus = "SUSPENDED"
)

// User represents an account stored in the users table. Every user belongs to
// exactly one company.
type User struct {
	ID           string     `db:"id" json:"id"`
	CompanyID    string     `db:"company_id" json:"company_id"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	Name         string     `db:"name" json:"name"`
	Phone        *string    `db:"phone" json:"phone,omitempty"`
	Role         UserRole   `db:"role" json:"role"`
	Status       UserStatus `db:"status" json:"status"`
	LastLoginAt  *time.Time `db:"last_login_at" json:"last_login_at,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
	DeletedAt    *time.Time `db:"deleted_at" json:"-"`
}

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	Role      *UserRole
	Status    *UserStatus
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
