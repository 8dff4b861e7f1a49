package core

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/valter-silva-au/hooklens/internal/observability"
	"github.com/valter-silva-au/hooklens/pkg/models"
)

// ConfigFileName is the name of the configuration file, without extension.
const ConfigFileName = ".hooklens"

// ConfigurationManager loads and validates hooklens configuration from
// .hooklens.yaml and HOOKLENS_* environment variables.
type ConfigurationManager interface {
	Load() (*models.Config, error)
	Validate(cfg *models.Config) error
}

// viperConfigManager implements ConfigurationManager using Viper.
type viperConfigManager struct {
	// basePath is the directory where .hooklens.yaml resides.
	basePath string
	getenv   func(string) string
}

// NewConfigurationManager creates a ConfigurationManager that reads the
// configuration file from basePath.
func NewConfigurationManager(basePath string) ConfigurationManager {
	return &viperConfigManager{basePath: basePath, getenv: os.Getenv}
}

// DefaultLogDir returns the directory the hook logger writes to:
// WINDSURF_LOG_DIR when set, else ~/.codeium/windsurf/logs.
func DefaultLogDir(getenv func(string) string) string {
	if dir := getenv("WINDSURF_LOG_DIR"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "logs")
	}
	return filepath.Join(home, ".codeium", "windsurf", "logs")
}

// defaultConfig returns a Config populated with defaults.
func defaultConfig(getenv func(string) string) *models.Config {
	return &models.Config{
		Storage: models.StorageConfig{
			Kind: models.StorageLocal,
			Path: DefaultLogDir(getenv),
		},
		StorageTimeout: 30 * time.Second,
		Load: models.LoadConfig{
			Concurrency:  DefaultConcurrency,
			MaxLineBytes: 10 * 1024 * 1024,
		},
		Workflow: models.WorkflowConfig{PromptWindow: DefaultPromptWindow},
		Metrics: models.MetricsConfig{
			TopFiles:    DefaultTopFiles,
			TopCommands: DefaultTopCommands,
			TopTools:    DefaultTopTools,
			Timezone:    "Local",
		},
		Search:   models.SearchConfig{Limit: 100, MaxLimit: 1000},
		Alerts:   observability.DefaultAlertThresholds(),
		LogLevel: "warn",
	}
}

// Load reads .hooklens.yaml from the base path, applying HOOKLENS_*
// environment overrides. If the file does not exist, defaults are used.
func (cm *viperConfigManager) Load() (*models.Config, error) {
	cfg := defaultConfig(cm.getenv)

	v := viper.New()
	v.SetConfigName(ConfigFileName)
	v.SetConfigType("yaml")
	v.AddConfigPath(cm.basePath)
	v.SetEnvPrefix("HOOKLENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set Viper defaults so missing keys fall back gracefully.
	v.SetDefault("storage.type", string(cfg.Storage.Kind))
	v.SetDefault("storage.path", cfg.Storage.Path)
	v.SetDefault("storage.bucket", "")
	v.SetDefault("storage.prefix", "")
	v.SetDefault("storage.region", "")
	v.SetDefault("storage.endpoint", "")
	v.SetDefault("storage.account_name", "")
	v.SetDefault("storage.container", "")
	v.SetDefault("storage.extensions", []string{})
	v.SetDefault("storage.timeout", cfg.StorageTimeout.String())
	v.SetDefault("load.concurrency", cfg.Load.Concurrency)
	v.SetDefault("load.max_line_bytes", cfg.Load.MaxLineBytes)
	v.SetDefault("workflow.prompt_window", cfg.Workflow.PromptWindow.String())
	v.SetDefault("metrics.top_files", cfg.Metrics.TopFiles)
	v.SetDefault("metrics.top_commands", cfg.Metrics.TopCommands)
	v.SetDefault("metrics.top_tools", cfg.Metrics.TopTools)
	v.SetDefault("metrics.timezone", cfg.Metrics.Timezone)
	v.SetDefault("search.limit", cfg.Search.Limit)
	v.SetDefault("search.max_limit", cfg.Search.MaxLimit)
	v.SetDefault("alerts.max_parse_error_ratio", cfg.Alerts.MaxParseErrorRatio)
	v.SetDefault("alerts.max_unassigned_ratio", cfg.Alerts.MaxUnassignedRatio)
	v.SetDefault("alerts.stale_days", cfg.Alerts.StaleDays)
	v.SetDefault("log.level", cfg.LogLevel)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading %s.yaml: %w", ConfigFileName, err)
		}
	}

	cfg.Storage = models.StorageConfig{
		Kind:        models.StorageKind(v.GetString("storage.type")),
		Path:        v.GetString("storage.path"),
		Bucket:      v.GetString("storage.bucket"),
		Prefix:      v.GetString("storage.prefix"),
		Region:      v.GetString("storage.region"),
		Endpoint:    v.GetString("storage.endpoint"),
		AccountName: v.GetString("storage.account_name"),
		Container:   v.GetString("storage.container"),
		Extensions:  v.GetStringSlice("storage.extensions"),
	}
	cfg.StorageTimeout = v.GetDuration("storage.timeout")
	cfg.Load.Concurrency = v.GetInt("load.concurrency")
	cfg.Load.MaxLineBytes = v.GetInt("load.max_line_bytes")
	cfg.Workflow.PromptWindow = v.GetDuration("workflow.prompt_window")
	cfg.Metrics.TopFiles = v.GetInt("metrics.top_files")
	cfg.Metrics.TopCommands = v.GetInt("metrics.top_commands")
	cfg.Metrics.TopTools = v.GetInt("metrics.top_tools")
	cfg.Metrics.Timezone = v.GetString("metrics.timezone")
	cfg.Search.Limit = v.GetInt("search.limit")
	cfg.Search.MaxLimit = v.GetInt("search.max_limit")
	cfg.Alerts.MaxParseErrorRatio = v.GetFloat64("alerts.max_parse_error_ratio")
	cfg.Alerts.MaxUnassignedRatio = v.GetFloat64("alerts.max_unassigned_ratio")
	cfg.Alerts.StaleDays = v.GetInt("alerts.stale_days")
	cfg.LogLevel = v.GetString("log.level")

	return cfg, nil
}

var validStorageKinds = map[models.StorageKind]bool{
	models.StorageLocal: true,
	models.StorageS3:    true,
	models.StorageAzure: true,
}

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks cfg for invalid values, reporting all problems at once.
func (cm *viperConfigManager) Validate(cfg *models.Config) error {
	if cfg == nil {
		return fmt.Errorf("configuration is nil")
	}

	var errs []string

	if !validStorageKinds[cfg.Storage.Kind] {
		errs = append(errs, fmt.Sprintf("storage.type %q is invalid, must be one of: local, s3, azure", cfg.Storage.Kind))
	}
	switch cfg.Storage.Kind {
	case models.StorageLocal:
		if cfg.Storage.Path == "" {
			errs = append(errs, "storage.path must not be empty for local storage")
		}
	case models.StorageS3:
		if cfg.Storage.Bucket == "" {
			errs = append(errs, "storage.bucket must not be empty for s3 storage")
		}
	case models.StorageAzure:
		if cfg.Storage.Container == "" {
			errs = append(errs, "storage.container must not be empty for azure storage")
		}
	}
	for _, ext := range cfg.Storage.Extensions {
		if !strings.HasPrefix(ext, ".") {
			errs = append(errs, fmt.Sprintf("storage.extensions entry %q must start with a dot", ext))
		}
	}

	if cfg.StorageTimeout < 0 {
		errs = append(errs, fmt.Sprintf("storage.timeout must be non-negative, got %s", cfg.StorageTimeout))
	}
	if cfg.Load.Concurrency < 1 || cfg.Load.Concurrency > 64 {
		errs = append(errs, fmt.Sprintf("load.concurrency %d is invalid, must be between 1 and 64", cfg.Load.Concurrency))
	}
	if cfg.Load.MaxLineBytes < 1024 {
		errs = append(errs, fmt.Sprintf("load.max_line_bytes must be at least 1024, got %d", cfg.Load.MaxLineBytes))
	}
	if cfg.Workflow.PromptWindow <= 0 {
		errs = append(errs, fmt.Sprintf("workflow.prompt_window must be positive, got %s", cfg.Workflow.PromptWindow))
	}
	if cfg.Metrics.TopFiles < 1 || cfg.Metrics.TopCommands < 1 || cfg.Metrics.TopTools < 1 {
		errs = append(errs, "metrics.top_files, metrics.top_commands and metrics.top_tools must be at least 1")
	}
	if _, err := LoadLocation(cfg.Metrics.Timezone); err != nil {
		errs = append(errs, err.Error())
	}
	if cfg.Search.MaxLimit < 1 {
		errs = append(errs, fmt.Sprintf("search.max_limit must be at least 1, got %d", cfg.Search.MaxLimit))
	}
	if cfg.Search.Limit < 1 || cfg.Search.Limit > cfg.Search.MaxLimit {
		errs = append(errs, fmt.Sprintf("search.limit %d is invalid, must be between 1 and search.max_limit (%d)", cfg.Search.Limit, cfg.Search.MaxLimit))
	}
	if cfg.Alerts.MaxParseErrorRatio < 0 || cfg.Alerts.MaxParseErrorRatio > 1 {
		errs = append(errs, fmt.Sprintf("alerts.max_parse_error_ratio must be between 0 and 1, got %g", cfg.Alerts.MaxParseErrorRatio))
	}
	if cfg.Alerts.MaxUnassignedRatio < 0 || cfg.Alerts.MaxUnassignedRatio > 1 {
		errs = append(errs, fmt.Sprintf("alerts.max_unassigned_ratio must be between 0 and 1, got %g", cfg.Alerts.MaxUnassignedRatio))
	}
	if cfg.Alerts.StaleDays < 0 {
		errs = append(errs, fmt.Sprintf("alerts.stale_days must be non-negative, got %d", cfg.Alerts.StaleDays))
	}
	if !validLogLevels[strings.ToLower(cfg.LogLevel)] {
		errs = append(errs, fmt.Sprintf("log.level %q is invalid, must be one of: debug, info, warn, error", cfg.LogLevel))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// LoadLocation resolves a metrics.timezone value. Empty and "Local" select
// the process time zone.
func LoadLocation(name string) (*time.Location, error) {
	if name == "" || name == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("metrics.timezone %q is invalid: %w", name, err)
	}
	return loc, nil
}
