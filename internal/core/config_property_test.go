package core

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/valter-silva-au/hooklens/pkg/models"
	"gopkg.in/yaml.v3"
	"pgregory.net/rapid"
)

// =============================================================================
// Generators
// =============================================================================

type configFileValues struct {
	Path         string
	Concurrency  int
	PromptWindow time.Duration
	TopFiles     int
	SearchLimit  int
	StaleDays    int
	ParseRatio   float64
	LogLevel     string
}

func genConfigFileValues(t *rapid.T) configFileValues {
	return configFileValues{
		Path:         "/" + rapid.StringMatching(`[a-z]{1,12}(/[a-z]{1,8}){0,2}`).Draw(t, "path"),
		Concurrency:  rapid.IntRange(1, 64).Draw(t, "concurrency"),
		PromptWindow: time.Duration(rapid.IntRange(1, 120).Draw(t, "windowMinutes")) * time.Minute,
		TopFiles:     rapid.IntRange(1, 50).Draw(t, "topFiles"),
		SearchLimit:  rapid.IntRange(1, 1000).Draw(t, "searchLimit"),
		StaleDays:    rapid.IntRange(0, 365).Draw(t, "staleDays"),
		ParseRatio:   float64(rapid.IntRange(0, 100).Draw(t, "parsePercent")) / 100,
		LogLevel:     rapid.SampledFrom([]string{"debug", "info", "warn", "error"}).Draw(t, "level"),
	}
}

func writeConfigFile(t *rapid.T, dir string, v configFileValues) {
	doc := map[string]any{
		"storage":  map[string]any{"type": "local", "path": v.Path},
		"load":     map[string]any{"concurrency": v.Concurrency},
		"workflow": map[string]any{"prompt_window": v.PromptWindow.String()},
		"metrics":  map[string]any{"top_files": v.TopFiles},
		"search":   map[string]any{"limit": v.SearchLimit},
		"alerts":   map[string]any{"stale_days": v.StaleDays, "max_parse_error_ratio": v.ParseRatio},
		"log":      map[string]any{"level": v.LogLevel},
	}
	data, err := yaml.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, ConfigFileName+".yaml"), data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

// =============================================================================
// Property 8: Configuration File Round Trip
// =============================================================================

// Feature: hooklens, Property 8: Configuration File Round Trip
// For any valid set of values written to .hooklens.yaml, Load SHALL return
// exactly those values and the result SHALL pass validation.
func TestProperty8_ConfigurationFileRoundTrip(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		v := genConfigFileValues(rt)
		dir, err := os.MkdirTemp("", "hooklens-config-*")
		if err != nil {
			rt.Fatal(err)
		}
		defer os.RemoveAll(dir)
		writeConfigFile(rt, dir, v)

		cm := NewConfigurationManager(dir)
		cfg, err := cm.Load()
		if err != nil {
			rt.Fatalf("Load: %v", err)
		}

		if cfg.Storage.Kind != models.StorageLocal || cfg.Storage.Path != v.Path {
			rt.Errorf("storage = %+v, want local at %q", cfg.Storage, v.Path)
		}
		if cfg.Load.Concurrency != v.Concurrency {
			rt.Errorf("concurrency = %d, want %d", cfg.Load.Concurrency, v.Concurrency)
		}
		if cfg.Workflow.PromptWindow != v.PromptWindow {
			rt.Errorf("prompt window = %s, want %s", cfg.Workflow.PromptWindow, v.PromptWindow)
		}
		if cfg.Metrics.TopFiles != v.TopFiles {
			rt.Errorf("top files = %d, want %d", cfg.Metrics.TopFiles, v.TopFiles)
		}
		if cfg.Search.Limit != v.SearchLimit {
			rt.Errorf("search limit = %d, want %d", cfg.Search.Limit, v.SearchLimit)
		}
		if cfg.Alerts.StaleDays != v.StaleDays || cfg.Alerts.MaxParseErrorRatio != v.ParseRatio {
			rt.Errorf("alerts = %+v, want stale %d ratio %g", cfg.Alerts, v.StaleDays, v.ParseRatio)
		}
		if cfg.LogLevel != v.LogLevel {
			rt.Errorf("log level = %q, want %q", cfg.LogLevel, v.LogLevel)
		}
		if err := cm.Validate(cfg); err != nil {
			rt.Errorf("round-tripped config should validate: %v", err)
		}
	})
}

// =============================================================================
// Property 9: Out-of-Range Concurrency Rejected
// =============================================================================

// Feature: hooklens, Property 9: Out-of-Range Concurrency Rejected
// For any load.concurrency outside [1, 64], Validate SHALL fail and name the key.
func TestProperty9_OutOfRangeConcurrencyRejected(t *testing.T) {
	cm := NewConfigurationManager(t.TempDir())
	base, err := cm.Load()
	if err != nil {
		t.Fatal(err)
	}

	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.OneOf(rapid.IntRange(-1000, 0), rapid.IntRange(65, 100000)).Draw(rt, "concurrency")
		cfg := *base
		cfg.Load.Concurrency = n

		err := cm.Validate(&cfg)
		if err == nil {
			rt.Fatalf("concurrency %d should be rejected", n)
		}
		if !strings.Contains(err.Error(), "load.concurrency") {
			rt.Errorf("error should name load.concurrency: %v", err)
		}
	})
}
