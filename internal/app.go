// Package internal provides the App struct that wires the components of
// hooklens together and initializes the CLI layer.
package internal

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"

	"github.com/valter-silva-au/hooklens/internal/cli"
	"github.com/valter-silva-au/hooklens/internal/core"
	"github.com/valter-silva-au/hooklens/internal/observability"
	"github.com/valter-silva-au/hooklens/pkg/models"
	"go.uber.org/zap"
)

// App holds the process-wide dependencies of hooklens. Storage adapters and
// query engines are built per command, since the location can be
// overridden by flags.
type App struct {
	BasePath string

	// Configuration
	ConfigMgr core.ConfigurationManager
	Config    *models.Config

	// Observability
	Logger      *zap.Logger
	AlertEngine observability.AlertEngine
}

// NewApp loads and validates the configuration under basePath, builds the
// logger and alert engine, and hands them to the CLI layer.
func NewApp(basePath string) (*App, error) {
	app := &App{BasePath: basePath}

	// --- Configuration ---
	app.ConfigMgr = core.NewConfigurationManager(basePath)
	cfg, err := app.ConfigMgr.Load()
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	if err := app.ConfigMgr.Validate(cfg); err != nil {
		return nil, err
	}
	app.Config = cfg

	// --- Observability ---
	app.Logger, err = observability.NewLogger(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}
	app.AlertEngine = observability.NewAlertEngine(cfg.Alerts, nil)

	app.Logger.Debug("configuration loaded",
		zap.String("base_path", basePath),
		zap.String("storage_type", string(cfg.Storage.Kind)),
		zap.Bool("inline_secrets", cfg.Storage.HasSecrets()))

	// --- Wire CLI ---
	cli.Config = app.Config
	cli.Logger = app.Logger
	cli.AlertEngine = app.AlertEngine

	return app, nil
}

// Close flushes buffered log entries.
func (a *App) Close() error {
	if a.Logger == nil {
		return nil
	}
	err := a.Logger.Sync()
	// Syncing stderr fails on terminals and pipes; that is not a lost write.
	if errors.Is(err, syscall.EINVAL) || errors.Is(err, syscall.ENOTTY) {
		return nil
	}
	return err
}

// ResolveBasePath determines the directory holding .hooklens.yaml.
// It checks the HOOKLENS_HOME env var, then walks up from the current
// directory, then falls back to the current directory.
func ResolveBasePath() string {
	if home := os.Getenv("HOOKLENS_HOME"); home != "" {
		return home
	}
	dir, err := os.Getwd()
	if err != nil {
		return "."
	}
	cwd := dir
	for {
		if _, err := os.Stat(filepath.Join(dir, core.ConfigFileName+".yaml")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return cwd
}
