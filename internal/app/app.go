package app

import (
	"errors"
	"os"
	"time"
	_ "time/tzdata"

	"github.com/asaskevich/EventBus"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/natefinch/lumberjack.v2"
	"gorm.io/gorm"

	"github.com/communitycompass/compass/config"
	"github.com/communitycompass/compass/internal/domain"
	"github.com/communitycompass/compass/internal/opendata"
	"github.com/communitycompass/compass/pkg/common"
	"github.com/communitycompass/compass/pkg/mailer"
	"github.com/communitycompass/compass/pkg/metrics"
)

type Application struct {
	appConfig *config.AppConfig
	gormDB    *gorm.DB
	sched     *cron.Cron
	bus       EventBus.Bus
	registry  *opendata.Registry
	fetcher   *opendata.Fetcher
	mailSvc   *mailer.Mailer
}

// Ensure Application implements all interfaces
var (
	_ DBProvider       = (*Application)(nil)
	_ ConfigProvider   = (*Application)(nil)
	_ BusProvider      = (*Application)(nil)
	_ MailProvider     = (*Application)(nil)
	_ OpenDataProvider = (*Application)(nil)
	_ AppContext       = (*Application)(nil)
)

func NewApplication(appConfig *config.AppConfig) *Application {
	return &Application{appConfig: appConfig}
}

func (a *Application) Config() *config.AppConfig {
	return a.appConfig
}

func (a *Application) DB() *gorm.DB {
	return a.gormDB
}

// OverrideDB replaces the application's database handle (used in tests).
func (a *Application) OverrideDB(db *gorm.DB) {
	a.gormDB = db
}

func (a *Application) Bus() EventBus.Bus {
	return a.bus
}

func (a *Application) Registry() *opendata.Registry {
	return a.registry
}

func (a *Application) Fetcher() *opendata.Fetcher {
	return a.fetcher
}

func (a *Application) Mailer() *mailer.Mailer {
	return a.mailSvc
}

func (a *Application) Init(cfg *config.AppConfig) {
	loc, err := time.LoadLocation(cfg.System.Location)
	if err != nil {
		zap.S().Error("timezone config error")
	} else {
		time.Local = loc
	}

	a.initLogger(cfg)

	if err := metrics.InitMetrics(cfg.System.Workdir); err != nil {
		zap.S().Warn("Failed to initialize metrics:", err)
	}

	if cfg.Database.Type == "" {
		cfg.Database.Type = "postgres"
	}
	a.gormDB = getDatabase(cfg.Database, cfg.System.Workdir)
	zap.S().Infof("Database connection successful, type: %s", cfg.Database.Type)

	if err := a.MigrateDB(); err != nil {
		zap.S().Errorf("database migration failed: %v", err)
	}

	a.checkAdmin()

	a.registry = opendata.DefaultRegistry()
	a.fetcher = opendata.NewFetcher(a.registry, cfg.OpenData.FetchTimeout)
	a.mailSvc = mailer.New(cfg.Smtp)

	a.bus = EventBus.New()
	a.initAuditSubscriber()

	a.initJob()
}

func (a *Application) initLogger(cfg *config.AppConfig) {
	var zapConfig zap.Config
	if cfg.Logger.Mode == "production" {
		zapConfig = zap.NewProductionConfig()
	} else {
		zapConfig = zap.NewDevelopmentConfig()
	}
	zapConfig.OutputPaths = []string{"stdout"}

	var logger *zap.Logger
	if cfg.Logger.FileEnable {
		lumberJackLogger := &lumberjack.Logger{
			Filename:   cfg.Logger.Filename,
			MaxSize:    64,
			MaxBackups: 7,
			MaxAge:     7,
			Compress:   false,
		}

		core := zapcore.NewTee(
			zapcore.NewCore(
				zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
				zapcore.AddSync(lumberJackLogger),
				zapConfig.Level,
			),
			zapcore.NewCore(
				zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
				zapcore.AddSync(os.Stdout),
				zapConfig.Level,
			),
		)
		logger = zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))
	} else {
		var err error
		logger, err = zapConfig.Build(zap.AddCaller(), zap.AddCallerSkip(1))
		if err != nil {
			panic(err)
		}
	}

	zap.ReplaceGlobals(logger)
}

func (a *Application) MigrateDB() error {
	return a.gormDB.Migrator().AutoMigrate(domain.Tables...)
}

func (a *Application) DropAll() {
	_ = a.gormDB.Migrator().DropTable(domain.Tables...)
}

// checkAdmin seeds the initial admin account when none exists.
func (a *Application) checkAdmin() {
	seed := a.appConfig.Admin
	if seed.Email == "" || seed.Password == "" {
		return
	}

	var admin domain.Admin
	err := a.gormDB.Where("email = ?", seed.Email).First(&admin).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		hash, herr := bcrypt.GenerateFromPassword([]byte(seed.Password), bcrypt.DefaultCost)
		if herr != nil {
			zap.L().Error("failed to hash seed admin password", zap.Error(herr))
			return
		}
		if err := a.gormDB.Create(&domain.Admin{
			ID:           common.UUIDint64(),
			Email:        seed.Email,
			PasswordHash: string(hash),
			FirstName:    "Admin",
			LastName:     "User",
		}).Error; err != nil {
			zap.L().Error("failed to create seed admin account", zap.Error(err))
			return
		}
		zap.L().Info("initialized seed admin account", zap.String("email", seed.Email))
	case err != nil:
		zap.L().Error("failed to query seed admin", zap.Error(err))
	}
}

// Release releases application resources
func (a *Application) Release() {
	if a.sched != nil {
		a.sched.Stop()
	}
	_ = metrics.Close()
	_ = zap.L().Sync()
}
