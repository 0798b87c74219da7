package domain

import "time"

// Provider is an organization account that owns services and events.
type Provider struct {
	ID               int64     `gorm:"primaryKey" json:"id,string"`
	Email            string    `gorm:"uniqueIndex;size:255" json:"email"`
	PasswordHash     string    `gorm:"size:255" json:"-"`
	OrganizationName string    `gorm:"index;size:255" json:"organization_name"`
	FirstName        string    `gorm:"size:100" json:"first_name"`
	LastName         string    `gorm:"size:100" json:"last_name"`
	Phone            string    `gorm:"size:50" json:"phone"`
	Verified         bool      `gorm:"default:false" json:"verified"`
	CreatedByAdminID *int64    `gorm:"index" json:"created_by_admin_id,string,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Admin is a platform operator with unrestricted management access.
type Admin struct {
	ID           int64     `gorm:"primaryKey" json:"id,string"`
	Email        string    `gorm:"uniqueIndex;size:255" json:"email"`
	PasswordHash string    `gorm:"size:255" json:"-"`
	FirstName    string    `gorm:"size:100" json:"first_name"`
	LastName     string    `gorm:"size:100" json:"last_name"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
