package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/hooklens/internal/core"
	"github.com/valter-silva-au/hooklens/internal/storage"
	"github.com/valter-silva-au/hooklens/pkg/models"
)

// resolveStorage picks the storage config for this invocation: a request
// config file, then --location, then the configured default.
func resolveStorage() (models.StorageConfig, error) {
	switch {
	case flagStorageConfig != "":
		return storage.LoadRequestConfig(flagStorageConfig)
	case flagLocation != "":
		return storage.ParseLocation(flagLocation)
	case Config != nil:
		return Config.Storage, nil
	default:
		return models.StorageConfig{}, fmt.Errorf("no storage location configured")
	}
}

func storageOptions() storage.Options {
	opts := storage.Options{Logger: Logger}
	if Config != nil {
		opts.Extensions = Config.Storage.Extensions
		opts.MaxLineBytes = Config.Load.MaxLineBytes
	}
	return opts
}

// openEngine builds a query engine over the resolved storage location.
func openEngine(ctx context.Context) (*core.Engine, error) {
	if Config == nil {
		return nil, fmt.Errorf("configuration not initialized")
	}
	sc, err := resolveStorage()
	if err != nil {
		return nil, err
	}
	adapter, err := storage.NewAdapter(ctx, sc, storageOptions())
	if err != nil {
		return nil, fmt.Errorf("opening storage: %w", err)
	}
	return core.NewEngine(adapter, Config, nil, Logger)
}

// commandContext returns the command's context, or a background context
// when the command is run directly.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
