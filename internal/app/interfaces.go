package app

import (
	"github.com/asaskevich/EventBus"
	"gorm.io/gorm"

	"github.com/communitycompass/compass/config"
	"github.com/communitycompass/compass/internal/opendata"
	"github.com/communitycompass/compass/pkg/mailer"
)

// DBProvider provides database access
type DBProvider interface {
	DB() *gorm.DB
}

// ConfigProvider provides application configuration
type ConfigProvider interface {
	Config() *config.AppConfig
}

// BusProvider provides the internal event bus
type BusProvider interface {
	Bus() EventBus.Bus
}

// MailProvider provides the outbound notification mailer
type MailProvider interface {
	Mailer() *mailer.Mailer
}

// OpenDataProvider provides the feed registry and fetch orchestrator
type OpenDataProvider interface {
	Registry() *opendata.Registry
	Fetcher() *opendata.Fetcher
}

// AppContext combines all provider interfaces for full application context.
// Handlers should depend on specific providers or this combined interface.
type AppContext interface {
	DBProvider
	ConfigProvider
	BusProvider
	MailProvider
	OpenDataProvider

	MigrateDB() error
	DropAll()
	// SyncDirectory refreshes the directory snapshot table from the feeds.
	SyncDirectory() error
}
