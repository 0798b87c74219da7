package domain

import (
	"time"

	"github.com/communitycompass/compass/pkg/geo"
)

// Service status values. New services always start pending and become
// visible to the public listing only once an admin activates them.
const (
	ServiceStatusPending  = "pending"
	ServiceStatusActive   = "active"
	ServiceStatusInactive = "inactive"
)

// ServiceStatuses is the closed status vocabulary; nothing else is accepted
// by the filter or persisted.
var ServiceStatuses = []string{ServiceStatusPending, ServiceStatusActive, ServiceStatusInactive}

// Service is a provider-listed social service location.
type Service struct {
	ID                      int64     `gorm:"primaryKey" json:"id,string"`
	ProviderID              int64     `gorm:"index" json:"provider_id,string"`
	Name                    string    `gorm:"index;size:255" json:"name"`
	Description             string    `gorm:"type:text" json:"description"`
	Category                string    `gorm:"index;size:50" json:"category"`
	Subcategory             string    `gorm:"index;size:50" json:"subcategory"`
	Address                 string    `gorm:"size:255" json:"address"`
	City                    string    `gorm:"size:100" json:"city"`
	State                   string    `gorm:"size:50" json:"state"`
	Zip                     string    `gorm:"size:20" json:"zip"`
	Phone                   string    `gorm:"size:50" json:"phone"`
	Email                   string    `gorm:"size:255" json:"email"`
	Website                 string    `gorm:"size:512" json:"website"`
	HoursOfOperation        string    `gorm:"size:255" json:"hours_of_operation"`
	EligibilityRequirements string    `gorm:"type:text" json:"eligibility_requirements"`
	Latitude                *float64  `json:"latitude"`
	Longitude               *float64  `json:"longitude"`
	Status                  string    `gorm:"size:20;index;default:'pending'" json:"status"`
	ViewCount               int64     `gorm:"default:0" json:"view_count"`
	CreatedAt               time.Time `json:"created_at"`
	UpdatedAt               time.Time `json:"updated_at"`
}

// Location implements the query engine's locatable contract. Persisted rows
// may lack coordinates; those records keep an undefined distance.
func (s Service) Location() (geo.Point, bool) {
	if s.Latitude == nil || s.Longitude == nil {
		return geo.Point{}, false
	}
	return geo.Point{Latitude: *s.Latitude, Longitude: *s.Longitude}, true
}

// ValidServiceStatus reports whether v belongs to the service status set.
func ValidServiceStatus(v string) bool {
	for _, s := range ServiceStatuses {
		if s == v {
			return true
		}
	}
	return false
}
