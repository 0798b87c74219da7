package domain

import "time"

// DirectoryEntry is an offline snapshot of one normalized open-data record,
// refreshed by the feed sync job. The live directory endpoints rebuild their
// collections from the feeds on every call; this table only backs admin
// reporting and keeps the last known state when the portal is down.
type DirectoryEntry struct {
	ID          int64     `gorm:"primaryKey" json:"id,string"`
	SourceKey   string    `gorm:"index;size:100;uniqueIndex:idx_source_entry" json:"source_key"`
	EntryID     string    `gorm:"size:255;uniqueIndex:idx_source_entry" json:"entry_id"`
	Name        string    `gorm:"size:255" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	Category    string    `gorm:"index;size:50" json:"category"`
	Subcategory string    `gorm:"index;size:50" json:"subcategory"`
	Address     string    `gorm:"size:255" json:"address"`
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
	Hours       string    `gorm:"size:255" json:"hours"`
	Phone       string    `gorm:"size:50" json:"phone"`
	Website     *string   `gorm:"size:512" json:"website"`
	LastSeenAt  time.Time `json:"last_seen_at"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
