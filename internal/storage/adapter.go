// Package storage reads hook log corpora from local directories, S3-compatible
// object stores and Azure Blob Storage behind one Adapter interface.
package storage

import (
	"context"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"strings"

	"github.com/valter-silva-au/hooklens/pkg/models"
	"go.uber.org/zap"
)

// DefaultMaxLineBytes bounds a single JSONL record.
const DefaultMaxLineBytes = 10 * 1024 * 1024

// averageRecordBytes is the typical size of one serialized hook record and is
// used to estimate entry counts without reading files.
const averageRecordBytes = 600

// DefaultExtensions are the file suffixes listed when none are configured.
var DefaultExtensions = []string{".jsonl", ".log"}

// Adapter is the capability set shared by every storage backend.
type Adapter interface {
	// ListFiles enumerates the log files at the adapter's location, newest first.
	ListFiles(ctx context.Context) ([]models.FileDescriptor, error)
	// ReadLines lazily yields the raw lines of one file. A line over the
	// size limit yields an error wrapping ErrLineTooLong and reading goes on;
	// any other failure is yielded once and ends the sequence.
	ReadLines(ctx context.Context, path string) iter.Seq2[string, error]
	// TestConnection checks that the location is reachable and readable.
	TestConnection(ctx context.Context) models.ConnectionResult
	// Location returns the adapter's location in display form.
	Location() string
}

// Options carries the process-wide settings adapters need.
type Options struct {
	Extensions   []string
	MaxLineBytes int
	Logger       *zap.Logger
	// Getenv looks up process environment credentials. Defaults to os.Getenv.
	Getenv func(string) string
}

func (o Options) withDefaults() Options {
	if len(o.Extensions) == 0 {
		o.Extensions = DefaultExtensions
	}
	if o.MaxLineBytes <= 0 {
		o.MaxLineBytes = DefaultMaxLineBytes
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.Getenv == nil {
		o.Getenv = os.Getenv
	}
	return o
}

// NewAdapter builds the adapter selected by cfg.Kind.
func NewAdapter(ctx context.Context, cfg models.StorageConfig, opts Options) (Adapter, error) {
	opts = opts.withDefaults()
	if len(cfg.Extensions) > 0 {
		opts.Extensions = cfg.Extensions
	}

	switch cfg.Kind {
	case models.StorageLocal, "":
		return NewLocalAdapter(cfg.Path, opts), nil
	case models.StorageS3:
		return NewS3Adapter(ctx, cfg, opts)
	case models.StorageAzure:
		return NewAzureAdapter(cfg, opts)
	default:
		return nil, newError(KindInvalid, string(cfg.Kind), fmt.Errorf("unknown storage type %q", cfg.Kind))
	}
}

// TestConnection builds an adapter from cfg and tests it. Construction
// failures are reported as an unsuccessful result rather than an error.
func TestConnection(ctx context.Context, cfg models.StorageConfig, opts Options) models.ConnectionResult {
	adapter, err := NewAdapter(ctx, cfg, opts)
	if err != nil {
		return models.ConnectionResult{
			Success: false,
			Message: fmt.Sprintf("configuration failed: %v", err),
			Kind:    string(KindOf(err)),
		}
	}
	return adapter.TestConnection(ctx)
}

// ParseLocation turns a location string into a StorageConfig.
// Accepted forms are s3://bucket/prefix, azure://account/container/path and a
// local directory path.
func ParseLocation(location string) (models.StorageConfig, error) {
	location = strings.TrimSpace(location)
	scheme, rest, hasScheme := strings.Cut(location, "://")
	if !hasScheme {
		return models.StorageConfig{Kind: models.StorageLocal, Path: expandHome(location)}, nil
	}

	parts := strings.SplitN(strings.Trim(rest, "/"), "/", 3)
	switch scheme {
	case "s3":
		if parts[0] == "" {
			return models.StorageConfig{}, newError(KindInvalid, location, fmt.Errorf("missing bucket"))
		}
		cfg := models.StorageConfig{Kind: models.StorageS3, Bucket: parts[0]}
		if len(parts) > 1 {
			cfg.Prefix = strings.Join(parts[1:], "/")
		}
		return cfg, nil
	case "azure":
		if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
			return models.StorageConfig{}, newError(KindInvalid, location, fmt.Errorf("expected azure://account/container[/path]"))
		}
		cfg := models.StorageConfig{Kind: models.StorageAzure, AccountName: parts[0], Container: parts[1]}
		if len(parts) > 2 {
			cfg.Prefix = parts[2]
		}
		return cfg, nil
	case "file":
		return models.StorageConfig{Kind: models.StorageLocal, Path: expandHome("/" + strings.TrimPrefix(rest, "/"))}, nil
	default:
		return models.StorageConfig{}, newError(KindInvalid, location, fmt.Errorf("unsupported scheme %q", scheme))
	}
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}

// EstimateEntries guesses how many records a file of the given size holds.
func EstimateEntries(size int64) int {
	if size <= 0 {
		return 0
	}
	return int((size + averageRecordBytes - 1) / averageRecordBytes)
}

func fileType(name string) string {
	ext := strings.TrimPrefix(filepath.Ext(name), ".")
	if ext == "" {
		return "unknown"
	}
	return ext
}

func hasExtension(name string, extensions []string) bool {
	for _, ext := range extensions {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}
