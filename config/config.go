package config

import (
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v2"
)

type SysConfig struct {
	Appid    string `yaml:"appid" json:"appid"`
	Location string `yaml:"location" json:"location"`
	Workdir  string `yaml:"workdir" json:"workdir"`
	Debug    bool   `yaml:"debug" json:"debug"`
}

type WebConfig struct {
	Host      string `yaml:"host" json:"host"`
	Port      int    `yaml:"port" json:"port"`
	JwtSecret string `yaml:"jwt_secret" json:"jwt_secret"`
	// CorsOrigin is the allowed browser origin for the map client.
	CorsOrigin string `yaml:"cors_origin" json:"cors_origin"`
}

type DBConfig struct {
	Type     string `yaml:"type" json:"type"` // postgres|sqlite
	Host     string `yaml:"host" json:"host"`
	Port     int    `yaml:"port" json:"port"`
	Name     string `yaml:"name" json:"name"`
	User     string `yaml:"user" json:"user"`
	Passwd   string `yaml:"passwd" json:"passwd"`
	MaxConn  int    `yaml:"max_conn" json:"max_conn"`
	IdleConn int    `yaml:"idle_conn" json:"idle_conn"`
	Debug    bool   `yaml:"debug" json:"debug"`
}

type LogConfig struct {
	Mode       string `yaml:"mode" json:"mode"` // development|production
	FileEnable bool   `yaml:"file_enable" json:"file_enable"`
	Filename   string `yaml:"filename" json:"filename"`
}

type SmtpConfig struct {
	Enable   bool   `yaml:"enable" json:"enable"`
	Host     string `yaml:"host" json:"host"`
	Port     int    `yaml:"port" json:"port"`
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
	From     string `yaml:"from" json:"from"`
}

type OpenDataConfig struct {
	// FetchTimeout bounds each feed request.
	FetchTimeout time.Duration `yaml:"fetch_timeout" json:"fetch_timeout"`
	// SyncEnable turns on the periodic directory snapshot job.
	SyncEnable bool `yaml:"sync_enable" json:"sync_enable"`
	// SyncCron is the snapshot schedule in cron syntax.
	SyncCron string `yaml:"sync_cron" json:"sync_cron"`
}

type AdminSeed struct {
	Email    string `yaml:"email" json:"email"`
	Password string `yaml:"password" json:"password"`
}

type AppConfig struct {
	System   SysConfig      `yaml:"system" json:"system"`
	Web      WebConfig      `yaml:"web" json:"web"`
	Database DBConfig       `yaml:"database" json:"database"`
	Logger   LogConfig      `yaml:"logger" json:"logger"`
	Smtp     SmtpConfig     `yaml:"smtp" json:"smtp"`
	OpenData OpenDataConfig `yaml:"opendata" json:"opendata"`
	Admin    AdminSeed      `yaml:"admin" json:"admin"`
}

var DefaultAppConfig = &AppConfig{
	System: SysConfig{
		Appid:    "CommunityCompass",
		Location: "America/Chicago",
		Workdir:  "/var/compass",
		Debug:    true,
	},
	Web: WebConfig{
		Host:       "0.0.0.0",
		Port:       3001,
		JwtSecret:  "9b6de5cc-compass-1ef6-4167",
		CorsOrigin: "http://localhost:5173",
	},
	Database: DBConfig{
		Type:     "postgres",
		Host:     "127.0.0.1",
		Port:     5432,
		Name:     "compass",
		User:     "postgres",
		Passwd:   "",
		MaxConn:  100,
		IdleConn: 10,
	},
	Logger: LogConfig{
		Mode:       "development",
		FileEnable: true,
		Filename:   "/var/compass/compass.log",
	},
	OpenData: OpenDataConfig{
		FetchTimeout: 15 * time.Second,
		SyncEnable:   false,
		SyncCron:     "@hourly",
	},
	Admin: AdminSeed{
		Email:    "admin@compass.chicago",
		Password: "admin123",
	},
}

func setEnvValue(name string, f func(v string)) {
	if v, ok := os.LookupEnv(name); ok {
		f(v)
	}
}

func setEnvBoolValue(name string, f func(v bool)) {
	if v, ok := os.LookupEnv(name); ok {
		f(v == "true" || v == "1" || v == "on")
	}
}

func setEnvIntValue(name string, f func(v int)) {
	if v, ok := os.LookupEnv(name); ok {
		if i, err := strconv.Atoi(v); err == nil {
			f(i)
		}
	}
}

// LoadConfig reads the YAML config file when it exists and applies
// environment overrides on top. A missing file yields the defaults.
func LoadConfig(cfile string) *AppConfig {
	cfg := DefaultAppConfig
	if cfile != "" {
		if data, err := os.ReadFile(cfile); err == nil {
			fileCfg := new(AppConfig)
			if err := yaml.Unmarshal(data, fileCfg); err == nil {
				cfg = fileCfg
			}
		}
	}

	setEnvValue("COMPASS_SYSTEM_WORKDIR", func(v string) { cfg.System.Workdir = v })
	setEnvBoolValue("COMPASS_SYSTEM_DEBUG", func(v bool) { cfg.System.Debug = v })
	setEnvValue("COMPASS_WEB_HOST", func(v string) { cfg.Web.Host = v })
	setEnvIntValue("COMPASS_WEB_PORT", func(v int) { cfg.Web.Port = v })
	setEnvValue("COMPASS_WEB_JWT_SECRET", func(v string) { cfg.Web.JwtSecret = v })
	setEnvValue("COMPASS_FRONTEND_URL", func(v string) { cfg.Web.CorsOrigin = v })
	setEnvValue("COMPASS_DB_TYPE", func(v string) { cfg.Database.Type = v })
	setEnvValue("COMPASS_DB_HOST", func(v string) { cfg.Database.Host = v })
	setEnvIntValue("COMPASS_DB_PORT", func(v int) { cfg.Database.Port = v })
	setEnvValue("COMPASS_DB_NAME", func(v string) { cfg.Database.Name = v })
	setEnvValue("COMPASS_DB_USER", func(v string) { cfg.Database.User = v })
	setEnvValue("COMPASS_DB_PWD", func(v string) { cfg.Database.Passwd = v })
	setEnvValue("COMPASS_ADMIN_EMAIL", func(v string) { cfg.Admin.Email = v })
	setEnvValue("COMPASS_ADMIN_PASSWORD", func(v string) { cfg.Admin.Password = v })

	return cfg
}
