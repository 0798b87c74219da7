package domain

import "time"

// Event status values.
const (
	EventStatusUpcoming  = "upcoming"
	EventStatusOngoing   = "ongoing"
	EventStatusCompleted = "completed"
	EventStatusCancelled = "cancelled"
)

var EventStatuses = []string{EventStatusUpcoming, EventStatusOngoing, EventStatusCompleted, EventStatusCancelled}

// DefaultEventStatuses is the status set applied to event listings when the
// caller does not filter by status.
var DefaultEventStatuses = []string{EventStatusUpcoming, EventStatusOngoing}

// Event location types.
const (
	EventLocationInPerson = "in_person"
	EventLocationVirtual  = "virtual"
	EventLocationHybrid   = "hybrid"
)

var EventLocationTypes = []string{EventLocationInPerson, EventLocationVirtual, EventLocationHybrid}

// Event is a provider-hosted happening, optionally attached to a service.
// There is no approval gate: events are visible as soon as they are created.
type Event struct {
	ID                   int64      `gorm:"primaryKey" json:"id,string"`
	ProviderID           int64      `gorm:"index" json:"provider_id,string"`
	ServiceID            *int64     `gorm:"index" json:"service_id,string,omitempty"`
	Title                string     `gorm:"size:255" json:"title"`
	Description          string     `gorm:"type:text" json:"description"`
	EventType            string     `gorm:"size:50" json:"event_type"`
	StartDate            time.Time  `gorm:"index" json:"start_date"`
	EndDate              *time.Time `json:"end_date"`
	Status               string     `gorm:"size:20;index;default:'upcoming'" json:"status"`
	LocationType         string     `gorm:"size:20;default:'in_person'" json:"location_type"`
	Address              string     `gorm:"size:255" json:"address"`
	VirtualLink          string     `gorm:"size:512" json:"virtual_link"`
	Capacity             *int       `json:"capacity"`
	RegistrationRequired bool       `gorm:"default:false" json:"registration_required"`
	RegistrationURL      string     `gorm:"size:512" json:"registration_url"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

// ValidEventStatus reports whether v belongs to the event status set.
func ValidEventStatus(v string) bool {
	for _, s := range EventStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// ValidEventLocationType reports whether v is a known location type.
func ValidEventLocationType(v string) bool {
	for _, s := range EventLocationTypes {
		if s == v {
			return true
		}
	}
	return false
}
