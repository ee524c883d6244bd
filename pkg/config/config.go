package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	StorageDriverPostgres = "postgres"
	StorageDriverSQLite   = "sqlite"

	ExportModeSingle = "single"
	ExportModeTable  = "table"
)

// Config holds the application configuration.
type Config struct {
	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`
	AppPort   string `mapstructure:"APP_PORT"`

	StorageDriver    string `mapstructure:"STORAGE_DRIVER"`
	PostgresHost     string `mapstructure:"POSTGRES_HOST"`
	PostgresPort     string `mapstructure:"POSTGRES_PORT"`
	PostgresUser     string `mapstructure:"POSTGRES_USER"`
	PostgresPassword string `mapstructure:"POSTGRES_PASSWORD"`
	PostgresDB       string `mapstructure:"POSTGRES_DB"`
	PostgresMaxConns int    `mapstructure:"POSTGRES_MAX_CONNS"`
	SQLitePath       string `mapstructure:"SQLITE_PATH"`

	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	APIURL          string `mapstructure:"WB_API_URL"`
	APIEndpoint     string `mapstructure:"WB_API_ENDPOINT"`
	APIPingEndpoint string `mapstructure:"WB_API_PING_ENDPOINT"`
	APIToken        string `mapstructure:"WB_API_TOKEN"`
	APITimeoutMS    int    `mapstructure:"WB_API_TIMEOUT_MS"`
	APIRequestGapMS int    `mapstructure:"WB_API_REQUEST_GAP_MS"`

	RawStorageDir string `mapstructure:"RAW_STORAGE_DIR"`

	SpreadsheetID       string `mapstructure:"GOOGLE_SPREADSHEET_ID"`
	SpreadsheetIDs      string `mapstructure:"GOOGLE_SPREADSHEET_IDS"`
	SheetRange          string `mapstructure:"GOOGLE_SHEET_RANGE"`
	ServiceAccountEmail string `mapstructure:"GOOGLE_SERVICE_ACCOUNT_EMAIL"`
	ServiceAccountKey   string `mapstructure:"GOOGLE_SERVICE_ACCOUNT_PRIVATE_KEY"`
	ExportMode          string `mapstructure:"EXPORT_MODE"`
	ExportConcurrency   int    `mapstructure:"EXPORT_CONCURRENCY"`

	RefreshIntervalMS        int `mapstructure:"REFRESH_INTERVAL_MS"`
	RetentionIntervalMS      int `mapstructure:"RETENTION_INTERVAL_MS"`
	RawFileRetentionDays     int `mapstructure:"RAW_FILE_RETENTION_DAYS"`
	RawSnapshotRetentionDays int `mapstructure:"RAW_SNAPSHOT_RETENTION_DAYS"`
	PipelineRunTimeoutMS     int `mapstructure:"PIPELINE_RUN_TIMEOUT_MS"`
}

var defaults = map[string]any{
	"LOG_LEVEL":                          "info",
	"LOG_FORMAT":                         "json",
	"APP_PORT":                           "8080",
	"STORAGE_DRIVER":                     StorageDriverPostgres,
	"POSTGRES_HOST":                      "localhost",
	"POSTGRES_PORT":                      "5432",
	"POSTGRES_USER":                      "postgres",
	"POSTGRES_PASSWORD":                  "postgres",
	"POSTGRES_DB":                        "postgres",
	"POSTGRES_MAX_CONNS":                 4,
	"SQLITE_PATH":                        "storage/tariffs.db",
	"REDIS_ADDR":                         "",
	"REDIS_PASSWORD":                     "",
	"REDIS_DB":                           0,
	"WB_API_URL":                         "",
	"WB_API_ENDPOINT":                    "/api/public/v1/tariffs-box",
	"WB_API_PING_ENDPOINT":               "/ping",
	"WB_API_TOKEN":                       "",
	"WB_API_TIMEOUT_MS":                  10000,
	"WB_API_REQUEST_GAP_MS":              200,
	"RAW_STORAGE_DIR":                    "storage/raw",
	"GOOGLE_SPREADSHEET_ID":              "",
	"GOOGLE_SPREADSHEET_IDS":             "",
	"GOOGLE_SHEET_RANGE":                 "Tariffs!A1",
	"GOOGLE_SERVICE_ACCOUNT_EMAIL":       "",
	"GOOGLE_SERVICE_ACCOUNT_PRIVATE_KEY": "",
	"EXPORT_MODE":                        ExportModeTable,
	"EXPORT_CONCURRENCY":                 4,
	"REFRESH_INTERVAL_MS":                3600000,
	"RETENTION_INTERVAL_MS":              86400000,
	"RAW_FILE_RETENTION_DAYS":            7,
	"RAW_SNAPSHOT_RETENTION_DAYS":        30,
	"PIPELINE_RUN_TIMEOUT_MS":            300000,
}

// Load reads configuration from an optional .env file and the environment.
func Load(envFile string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(envFile)
	v.SetConfigType("env")
	v.AutomaticEnv()

	// A missing .env is fine, production passes everything through the environment.
	_ = v.ReadInConfig()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.ServiceAccountKey = strings.ReplaceAll(cfg.ServiceAccountKey, `\n`, "\n")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the settings that have no usable default.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.APIURL) == "" {
		errs = append(errs, errors.New("WB_API_URL is required"))
	}
	switch c.StorageDriver {
	case StorageDriverPostgres, StorageDriverSQLite:
	default:
		errs = append(errs, fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver))
	}
	switch c.ExportMode {
	case ExportModeSingle, ExportModeTable:
	default:
		errs = append(errs, fmt.Errorf("unknown EXPORT_MODE %q", c.ExportMode))
	}
	if c.ExportMode == ExportModeSingle && strings.TrimSpace(c.SpreadsheetID) == "" {
		errs = append(errs, errors.New("GOOGLE_SPREADSHEET_ID is required when EXPORT_MODE=single"))
	}
	if c.RefreshIntervalMS <= 0 || c.RetentionIntervalMS <= 0 {
		errs = append(errs, errors.New("REFRESH_INTERVAL_MS and RETENTION_INTERVAL_MS must be positive"))
	}
	if c.APITimeoutMS <= 0 {
		errs = append(errs, errors.New("WB_API_TIMEOUT_MS must be positive"))
	}
	return errors.Join(errs...)
}

// PostgresURL builds the pgx connection string.
func (c *Config) PostgresURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.PostgresUser, c.PostgresPassword, c.PostgresHost, c.PostgresPort, c.PostgresDB)
}

// SeedSpreadsheetIDs returns every spreadsheet id named in the configuration,
// de-duplicated and in declaration order.
func (c *Config) SeedSpreadsheetIDs() []string {
	seen := make(map[string]struct{})
	var ids []string
	add := func(id string) {
		id = strings.TrimSpace(id)
		if id == "" {
			return
		}
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	add(c.SpreadsheetID)
	for _, id := range strings.Split(c.SpreadsheetIDs, ",") {
		add(id)
	}
	return ids
}

func (c *Config) APITimeout() time.Duration { return ms(c.APITimeoutMS) }

func (c *Config) APIRequestGap() time.Duration { return ms(c.APIRequestGapMS) }

func (c *Config) RefreshInterval() time.Duration { return ms(c.RefreshIntervalMS) }

func (c *Config) RetentionInterval() time.Duration { return ms(c.RetentionIntervalMS) }

func (c *Config) PipelineRunTimeout() time.Duration { return ms(c.PipelineRunTimeoutMS) }

func ms(v int) time.Duration {
	return time.Duration(v) * time.Millisecond
}
