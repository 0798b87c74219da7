package domain

import "time"

// AuditLog records provider and admin mutations, written asynchronously by
// the event bus subscriber.
type AuditLog struct {
	ID        int64     `gorm:"primaryKey" json:"id,string"`
	ActorType string    `gorm:"size:20;index" json:"actor_type"` // provider|admin|system
	ActorID   int64     `gorm:"index" json:"actor_id,string"`
	Action    string    `gorm:"size:50" json:"action"`
	Entity    string    `gorm:"size:50" json:"entity"`
	EntityID  int64     `json:"entity_id,string"`
	Detail    string    `gorm:"type:text" json:"detail"`
	OptTime   time.Time `gorm:"index" json:"opt_time"`
}

// TableName Specify table name
func (AuditLog) TableName() string {
	return "sys_audit_log"
}
