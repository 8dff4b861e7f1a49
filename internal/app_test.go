package internal

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/valter-silva-au/hooklens/internal/cli"
)

func TestResolveBasePath_HomeSet(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("HOOKLENS_HOME", tmpDir)

	if got := ResolveBasePath(); got != tmpDir {
		t.Errorf("ResolveBasePath() = %q, want %q", got, tmpDir)
	}
}

func TestResolveBasePath_FindsConfigFile(t *testing.T) {
	tmpDir := t.TempDir()
	subDir := filepath.Join(tmpDir, "sub", "nested")
	if err := os.MkdirAll(subDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(tmpDir, ".hooklens.yaml"), []byte("log:\n  level: warn\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("HOOKLENS_HOME", "")
	t.Chdir(subDir)

	got, _ := filepath.EvalSymlinks(ResolveBasePath())
	want, _ := filepath.EvalSymlinks(tmpDir)
	if got != want {
		t.Errorf("ResolveBasePath() = %q, want %q (should find .hooklens.yaml in parent)", got, want)
	}
}

func TestNewApp_WiresCLI(t *testing.T) {
	base := t.TempDir()
	logDir := t.TempDir()
	cfg := "storage:\n  type: local\n  path: " + logDir + "\nlog:\n  level: error\n"
	if err := os.WriteFile(filepath.Join(base, ".hooklens.yaml"), []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}

	app, err := NewApp(base)
	if err != nil {
		t.Fatalf("NewApp: %v", err)
	}
	defer func() { _ = app.Close() }()

	if app.Config.Storage.Path != logDir {
		t.Errorf("storage path = %q, want %q", app.Config.Storage.Path, logDir)
	}
	if cli.Config != app.Config || cli.Logger != app.Logger || cli.AlertEngine == nil {
		t.Error("CLI globals not wired")
	}
}

func TestNewApp_InvalidConfig(t *testing.T) {
	base := t.TempDir()
	cfg := "load:\n  concurrency: 0\nsearch:\n  limit: -1\n"
	if err := os.WriteFile(filepath.Join(base, ".hooklens.yaml"), []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := NewApp(base)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "config validation failed") {
		t.Errorf("unexpected error: %v", err)
	}
}
