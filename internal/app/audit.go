package app

import (
	"time"

	"go.uber.org/zap"

	"github.com/communitycompass/compass/internal/domain"
	"github.com/communitycompass/compass/pkg/common"
)

// TopicAudit is the event bus topic carrying mutation audit events.
const TopicAudit = "compass:audit"

// AuditEvent is published by the web handlers after every successful
// mutation and persisted asynchronously by the bus subscriber.
type AuditEvent struct {
	ActorType string
	ActorID   int64
	Action    string // create|update|delete|verify
	Entity    string // service|event|provider
	EntityID  int64
	Detail    string
}

func (a *Application) initAuditSubscriber() {
	err := a.bus.SubscribeAsync(TopicAudit, func(evt AuditEvent) {
		record := domain.AuditLog{
			ID:        common.UUIDint64(),
			ActorType: evt.ActorType,
			ActorID:   evt.ActorID,
			Action:    evt.Action,
			Entity:    evt.Entity,
			EntityID:  evt.EntityID,
			Detail:    evt.Detail,
			OptTime:   time.Now(),
		}
		if err := a.gormDB.Create(&record).Error; err != nil {
			zap.L().Error("failed to write audit log", zap.Error(err))
		}
	}, false)
	if err != nil {
		zap.L().Error("failed to subscribe audit handler", zap.Error(err))
	}
}
