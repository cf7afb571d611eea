package config

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone = "UTC"
	configPathEnv   = "NORDICDATAFLOW_CONFIG"

	logLevelEnv  = "LOG_LEVEL"
	logFormatEnv = "LOG_FORMAT"

	storageDriverEnv     = "STORAGE_DRIVER"
	storageConnStringEnv = "STORAGE_CONNECTION_STRING"
	storageEndpointEnv   = "STORAGE_ENDPOINT"
	storageAccessKeyEnv  = "STORAGE_ACCESS_KEY"
	storageSecretKeyEnv  = "STORAGE_SECRET_KEY"
	storageRegionEnv     = "STORAGE_REGION"

	sqlDriverEnv     = "SQL_DRIVER"
	sqlConnStringEnv = "SQL_CONNECTION_STRING"
	sqlServerEnv     = "SQL_SERVER"
	sqlPortEnv       = "SQL_PORT"
	sqlDatabaseEnv   = "SQL_DATABASE"
	sqlUserEnv       = "SQL_USER"
	sqlPasswordEnv   = "SQL_PASSWORD"

	fingridAPIKeyEnv  = "FINGRID_API_KEY"
	telegramTokenEnv  = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv = "TELEGRAM_CHAT_ID"
	apiAddrEnv        = "API_ADDR"
	scheduleCronEnv   = "SCHEDULE_CRON"
)

// Storage and database drivers understood by the application wiring.
const (
	DriverMinIO     = "minio"
	DriverS3        = "s3"
	DriverMemory    = "memory"
	DriverSQLServer = "sqlserver"
	DriverPostgres  = "postgres"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging       LoggingConfig      `yaml:"logging"`
	Storage       StorageConfig      `yaml:"storage"`
	Database      DatabaseConfig     `yaml:"database"`
	Sources       SourcesConfig      `yaml:"sources"`
	Jobs          []JobConfig        `yaml:"jobs"`
	Scheduler     SchedulerConfig    `yaml:"scheduler"`
	API           APIConfig          `yaml:"api"`
	Notifications NotificationConfig `yaml:"notifications"`
}

// LoggingConfig selects slog level and handler.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// StorageConfig describes the object store holding bronze, silver and gold.
type StorageConfig struct {
	Driver string `yaml:"driver"`
	// ConnectionString is "Endpoint=...;AccessKey=...;SecretKey=...;Region=...;UseSSL=..."
	// and fills the fields below when set.
	ConnectionString string        `yaml:"connectionString"`
	Endpoint         string        `yaml:"endpoint"`
	AccessKey        string        `yaml:"accessKey"`
	SecretKey        string        `yaml:"secretKey"`
	Region           string        `yaml:"region"`
	UseSSL           bool          `yaml:"useSSL"`
	UsePathStyle     bool          `yaml:"usePathStyle"`
	Buckets          BucketsConfig `yaml:"buckets"`
}

// BucketsConfig maps medallion tiers to bucket names.
type BucketsConfig struct {
	Bronze string `yaml:"bronze"`
	Silver string `yaml:"silver"`
	Gold   string `yaml:"gold"`
}

// DatabaseConfig describes the relational store for gold tables.
type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	// ConnectionString wins over the discrete fields when set.
	ConnectionString       string        `yaml:"connectionString"`
	Server                 string        `yaml:"server"`
	Port                   int           `yaml:"port"`
	Name                   string        `yaml:"name"`
	User                   string        `yaml:"user"`
	Password               string        `yaml:"password"`
	Encrypt                bool          `yaml:"encrypt"`
	TrustServerCertificate bool          `yaml:"trustServerCertificate"`
	ConnectionTimeout      int           `yaml:"connectionTimeout"`
	PingTimeout            time.Duration `yaml:"pingTimeout"`
	MaxOpenConns           int           `yaml:"maxOpenConns"`
	MaxIdleConns           int           `yaml:"maxIdleConns"`
}

// Configured reports whether enough is known to open a connection.
func (d DatabaseConfig) Configured() bool {
	if d.Driver == DriverMemory {
		return true
	}
	return d.ConnectionString != "" || d.Server != ""
}

// DSN renders the driver-specific data source name. Both the pipeline and the
// read API go through this, so they always agree on encryption and timeouts.
func (d DatabaseConfig) DSN() string {
	if d.ConnectionString != "" {
		return d.ConnectionString
	}

	switch d.Driver {
	case DriverPostgres:
		query := url.Values{}
		if d.Encrypt {
			query.Add("sslmode", "require")
		} else {
			query.Add("sslmode", "disable")
		}
		if d.ConnectionTimeout > 0 {
			query.Add("connect_timeout", strconv.Itoa(d.ConnectionTimeout))
		}
		u := url.URL{
			Scheme:   "postgres",
			User:     url.UserPassword(d.User, d.Password),
			Host:     fmt.Sprintf("%s:%d", d.Server, d.Port),
			Path:     "/" + d.Name,
			RawQuery: query.Encode(),
		}
		return u.String()
	default:
		query := url.Values{}
		query.Add("database", d.Name)
		if d.Encrypt {
			query.Add("encrypt", "true")
		} else {
			query.Add("encrypt", "false")
		}
		if d.TrustServerCertificate {
			query.Add("TrustServerCertificate", "true")
		}
		if d.ConnectionTimeout > 0 {
			query.Add("connection timeout", strconv.Itoa(d.ConnectionTimeout))
		}
		return fmt.Sprintf("sqlserver://%s:%s@%s:%d?%s",
			url.QueryEscape(d.User),
			url.QueryEscape(d.Password),
			d.Server,
			d.Port,
			query.Encode(),
		)
	}
}

// SourcesConfig groups settings shared by the open-data clients.
type SourcesConfig struct {
	UserAgent string         `yaml:"userAgent"`
	Timeout   time.Duration  `yaml:"timeout"`
	StatFin   EndpointConfig `yaml:"statfin"`
	PRH       EndpointConfig `yaml:"prh"`
	Eurostat  EndpointConfig `yaml:"eurostat"`
	Fingrid   EndpointConfig `yaml:"fingrid"`
}

// EndpointConfig is the base URL (and optional key) of one upstream API.
type EndpointConfig struct {
	BaseURL string `yaml:"baseUrl"`
	APIKey  string `yaml:"apiKey"`
}

// JobConfig is one ingestion: which source to call and with what parameters.
type JobConfig struct {
	Name   string            `yaml:"name"`
	Source string            `yaml:"source"`
	Params map[string]string `yaml:"params"`
}

// SchedulerConfig defines when the pipeline should run.
type SchedulerConfig struct {
	CronExpression string         `yaml:"cronExpression"`
	Timezone       string         `yaml:"timezone"`
	location       *time.Location `yaml:"-"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// APIConfig configures the read API listener.
type APIConfig struct {
	Addr string `yaml:"addr"`
}

// NotificationConfig encapsulates outbound channels (Telegram, etc.).
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
	APIBase  string `yaml:"apiBase"`
}

// Enabled reports whether run summaries should be posted.
func (t TelegramConfig) Enabled() bool {
	return t.BotToken != "" && t.ChatID != ""
}

// Load reads .env and YAML configuration (if present) and applies environment overrides.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("config: cannot load .env: %v", err)
	}

	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	cfg.applyStorageConnectionString()
	cfg.bindTimezone()

	if len(cfg.Jobs) == 0 {
		cfg.Jobs = defaultConfig().Jobs
	}

	return cfg
}

func (c *Config) applyEnvOverrides() {
	setString(&c.Logging.Level, logLevelEnv)
	setString(&c.Logging.Format, logFormatEnv)

	setString(&c.Storage.Driver, storageDriverEnv)
	setString(&c.Storage.ConnectionString, storageConnStringEnv)
	setString(&c.Storage.Endpoint, storageEndpointEnv)
	setString(&c.Storage.AccessKey, storageAccessKeyEnv)
	setString(&c.Storage.SecretKey, storageSecretKeyEnv)
	setString(&c.Storage.Region, storageRegionEnv)

	setString(&c.Database.Driver, sqlDriverEnv)
	setString(&c.Database.ConnectionString, sqlConnStringEnv)
	setString(&c.Database.Server, sqlServerEnv)
	setString(&c.Database.Name, sqlDatabaseEnv)
	setString(&c.Database.User, sqlUserEnv)
	setString(&c.Database.Password, sqlPasswordEnv)
	if v := os.Getenv(sqlPortEnv); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			log.Printf("config: invalid %s=%q, keeping %d", sqlPortEnv, v, c.Database.Port)
		} else {
			c.Database.Port = port
		}
	}

	setString(&c.Sources.Fingrid.APIKey, fingridAPIKeyEnv)
	setString(&c.Notifications.Telegram.BotToken, telegramTokenEnv)
	setString(&c.Notifications.Telegram.ChatID, telegramChatIDEnv)
	setString(&c.API.Addr, apiAddrEnv)
	setString(&c.Scheduler.CronExpression, scheduleCronEnv)
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// applyStorageConnectionString expands the semicolon separated form into fields.
// Unknown keys are ignored.
func (c *Config) applyStorageConnectionString() {
	raw := strings.TrimSpace(c.Storage.ConnectionString)
	if raw == "" {
		return
	}

	for _, part := range strings.Split(raw, ";") {
		key, value, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		switch strings.ToLower(strings.TrimSpace(key)) {
		case "endpoint":
			c.Storage.Endpoint = value
		case "accesskey":
			c.Storage.AccessKey = value
		case "secretkey":
			c.Storage.SecretKey = value
		case "region":
			c.Storage.Region = value
		case "usessl":
			useSSL, err := strconv.ParseBool(value)
			if err != nil {
				log.Printf("config: invalid UseSSL=%q in storage connection string", value)
				continue
			}
			c.Storage.UseSSL = useSSL
		case "usepathstyle":
			pathStyle, err := strconv.ParseBool(value)
			if err != nil {
				log.Printf("config: invalid UsePathStyle=%q in storage connection string", value)
				continue
			}
			c.Storage.UsePathStyle = pathStyle
		}
	}
}

func (c *Config) bindTimezone() {
	tz := c.Scheduler.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to %s", tz, defaultTimezone)
		loc, _ = time.LoadLocation(defaultTimezone)
	}
	c.Scheduler.location = loc
}

func mergeConfig(base, override Config) Config {
	mergeString(&base.Logging.Level, override.Logging.Level)
	mergeString(&base.Logging.Format, override.Logging.Format)

	mergeString(&base.Storage.Driver, override.Storage.Driver)
	mergeString(&base.Storage.ConnectionString, override.Storage.ConnectionString)
	mergeString(&base.Storage.Endpoint, override.Storage.Endpoint)
	mergeString(&base.Storage.AccessKey, override.Storage.AccessKey)
	mergeString(&base.Storage.SecretKey, override.Storage.SecretKey)
	mergeString(&base.Storage.Region, override.Storage.Region)
	mergeString(&base.Storage.Buckets.Bronze, override.Storage.Buckets.Bronze)
	mergeString(&base.Storage.Buckets.Silver, override.Storage.Buckets.Silver)
	mergeString(&base.Storage.Buckets.Gold, override.Storage.Buckets.Gold)
	if override.Storage.UseSSL {
		base.Storage.UseSSL = true
	}
	if override.Storage.UsePathStyle {
		base.Storage.UsePathStyle = true
	}

	if override.Database.Driver != "" || override.Database.ConnectionString != "" || override.Database.Server != "" {
		db := override.Database
		mergeString(&db.Driver, base.Database.Driver)
		if db.Port == 0 {
			db.Port = base.Database.Port
		}
		if db.ConnectionTimeout == 0 {
			db.ConnectionTimeout = base.Database.ConnectionTimeout
		}
		if db.PingTimeout == 0 {
			db.PingTimeout = base.Database.PingTimeout
		}
		if db.MaxOpenConns == 0 {
			db.MaxOpenConns = base.Database.MaxOpenConns
		}
		if db.MaxIdleConns == 0 {
			db.MaxIdleConns = base.Database.MaxIdleConns
		}
		base.Database = db
	}

	mergeString(&base.Sources.UserAgent, override.Sources.UserAgent)
	if override.Sources.Timeout > 0 {
		base.Sources.Timeout = override.Sources.Timeout
	}
	mergeEndpoint(&base.Sources.StatFin, override.Sources.StatFin)
	mergeEndpoint(&base.Sources.PRH, override.Sources.PRH)
	mergeEndpoint(&base.Sources.Eurostat, override.Sources.Eurostat)
	mergeEndpoint(&base.Sources.Fingrid, override.Sources.Fingrid)

	if len(override.Jobs) > 0 {
		base.Jobs = override.Jobs
	}

	mergeString(&base.Scheduler.CronExpression, override.Scheduler.CronExpression)
	mergeString(&base.Scheduler.Timezone, override.Scheduler.Timezone)
	mergeString(&base.API.Addr, override.API.Addr)

	mergeString(&base.Notifications.Telegram.BotToken, override.Notifications.Telegram.BotToken)
	mergeString(&base.Notifications.Telegram.ChatID, override.Notifications.Telegram.ChatID)
	mergeString(&base.Notifications.Telegram.APIBase, override.Notifications.Telegram.APIBase)

	return base
}

func mergeString(dst *string, value string) {
	if value != "" {
		*dst = value
	}
}

func mergeEndpoint(dst *EndpointConfig, override EndpointConfig) {
	mergeString(&dst.BaseURL, override.BaseURL)
	mergeString(&dst.APIKey, override.APIKey)
}

func defaultConfig() Config {
	tz, _ := time.LoadLocation(defaultTimezone)
	return Config{
		Logging: LoggingConfig{Level: "info", Format: "text"},
		Storage: StorageConfig{
			Driver:   DriverMinIO,
			Endpoint: "localhost:9000",
			Region:   "us-east-1",
			Buckets:  BucketsConfig{Bronze: "bronze", Silver: "silver", Gold: "gold"},
		},
		Database: DatabaseConfig{
			Driver:            DriverSQLServer,
			Port:              1433,
			Name:              "NordicDataDB",
			User:              "sqladmin",
			Encrypt:           true,
			ConnectionTimeout: 30,
			PingTimeout:       5 * time.Second,
			MaxOpenConns:      5,
			MaxIdleConns:      2,
		},
		Sources: SourcesConfig{
			UserAgent: "NordicDataFlow/1.0",
			Timeout:   30 * time.Second,
			StatFin:   EndpointConfig{BaseURL: "https://statfin.stat.fi/PxWeb/api/v1/en/StatFin/"},
			PRH:       EndpointConfig{BaseURL: "https://avoindata.prh.fi/opendata-ytj-api/v3/companies"},
			Eurostat:  EndpointConfig{BaseURL: "https://ec.europa.eu/eurostat/api/dissemination/statistics/1.0/data/"},
			Fingrid:   EndpointConfig{BaseURL: "https://data.fingrid.fi/api/datasets/"},
		},
		Jobs: []JobConfig{
			{Name: "stat_finland", Source: "stat_finland"},
			{Name: "prh_vivicta", Source: "prh", Params: map[string]string{"name": "Vivicta"}},
			{Name: "eurostat", Source: "eurostat", Params: map[string]string{"dataset": "nama_10_gdp", "lastTimePeriod": "5"}},
			{Name: "fingrid", Source: "fingrid", Params: map[string]string{"dataset_id": "192", "pageSize": "10"}},
		},
		Scheduler: SchedulerConfig{CronExpression: "0 6 * * *", Timezone: defaultTimezone, location: tz},
		API:       APIConfig{Addr: ":8080"},
		Notifications: NotificationConfig{
			Telegram: TelegramConfig{APIBase: "https://api.telegram.org"},
		},
	}
}
