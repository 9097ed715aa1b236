package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

var overrideVars = []string{
	"PRESSCOUNT_SOURCE_URL", "PRESSCOUNT_SOURCE_PATH", "DATA_DIR", "SQLITE_PATH",
	"LOG_LEVEL", "PRESSCOUNT_METRICS_FILE", "PRESSCOUNT_S3_BUCKET", "AWS_REGION",
	"AWS_ACCESS_KEY_ID", "AWS_SECRET_ACCESS_KEY",
}

// clearOverrides blanks every env override for the duration of the test.
func clearOverrides(t *testing.T) {
	t.Helper()
	for _, k := range overrideVars {
		t.Setenv(k, "")
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "presscount.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	return path
}

func TestLoadFile(t *testing.T) {
	clearOverrides(t)
	path := writeConfig(t, `
source:
  url: "https://example.com/counts.csv"
fetch:
  timeout: 5s
  attempts: 3
  backoff: 250ms
interpolation:
  boundary: hold
chart:
  snapshot: true
output:
  by_source: "out/by.html"
  total: "out/total.html"
storage:
  data_dir: "/tmp/presscount/data"
  sqlite_path: "/tmp/presscount/runs.db"
publish:
  bucket: "charts"
  prefix: "news/"
metrics:
  textfile: "/var/lib/node_exporter/presscount.prom"
logging:
  level: "debug"
  format: "json"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	// -- Source / Fetch --
	if cfg.Source.URL != "https://example.com/counts.csv" {
		t.Errorf("Source.URL = %q", cfg.Source.URL)
	}
	if cfg.Fetch.Timeout != 5*time.Second {
		t.Errorf("Fetch.Timeout = %v, want 5s", cfg.Fetch.Timeout)
	}
	if cfg.Fetch.Attempts != 3 {
		t.Errorf("Fetch.Attempts = %d, want 3", cfg.Fetch.Attempts)
	}
	if cfg.Fetch.Backoff != 250*time.Millisecond {
		t.Errorf("Fetch.Backoff = %v, want 250ms", cfg.Fetch.Backoff)
	}
	// Unset keys keep their defaults.
	if cfg.Fetch.UserAgent != "presscount/1.0" {
		t.Errorf("Fetch.UserAgent = %q, want default", cfg.Fetch.UserAgent)
	}

	// -- Interpolation / Chart / Output --
	if cfg.Interpolation.Boundary != "hold" {
		t.Errorf("Interpolation.Boundary = %q, want hold", cfg.Interpolation.Boundary)
	}
	if !cfg.Chart.Snapshot {
		t.Error("Chart.Snapshot = false, want true")
	}
	if cfg.Chart.PlotlyJSURL == "" {
		t.Error("Chart.PlotlyJSURL should keep its default")
	}
	if cfg.Output.BySource != "out/by.html" || cfg.Output.Total != "out/total.html" {
		t.Errorf("Output = %+v", cfg.Output)
	}

	// -- Storage / Publish / Metrics / Logging --
	if cfg.Storage.DataDir != "/tmp/presscount/data" {
		t.Errorf("Storage.DataDir = %q", cfg.Storage.DataDir)
	}
	if cfg.Storage.SQLitePath != "/tmp/presscount/runs.db" {
		t.Errorf("Storage.SQLitePath = %q", cfg.Storage.SQLitePath)
	}
	if cfg.Publish.Bucket != "charts" || cfg.Publish.Prefix != "news/" {
		t.Errorf("Publish = %+v", cfg.Publish)
	}
	if cfg.Metrics.Textfile != "/var/lib/node_exporter/presscount.prom" {
		t.Errorf("Metrics.Textfile = %q", cfg.Metrics.Textfile)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("Logging = %+v", cfg.Logging)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	clearOverrides(t)
	path := writeConfig(t, `
source:
  url: "https://example.com/yaml.csv"
storage:
  data_dir: "/original/data"
logging:
  level: "info"
`)

	t.Setenv("PRESSCOUNT_SOURCE_URL", "https://example.com/env.csv")
	t.Setenv("DATA_DIR", "/env/data")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Source.URL != "https://example.com/env.csv" {
		t.Errorf("Source.URL = %q, want env override", cfg.Source.URL)
	}
	if cfg.Storage.DataDir != "/env/data" {
		t.Errorf("Storage.DataDir = %q, want env override", cfg.Storage.DataDir)
	}
	// Level should remain from YAML since no env override was set.
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want %q (from YAML)", cfg.Logging.Level, "info")
	}
}

func TestLoadRejectsUnknownBoundary(t *testing.T) {
	clearOverrides(t)
	path := writeConfig(t, "interpolation:\n  boundary: cubic\n")
	if _, err := Load(path); err == nil {
		t.Fatal("Load() should reject an unknown boundary mode")
	}
}

func TestLoadOrDefaultMissingFile(t *testing.T) {
	clearOverrides(t)
	t.Setenv("SQLITE_PATH", "/env/runs.db")
	t.Chdir(t.TempDir()) // no .env here

	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadOrDefault() returned error: %v", err)
	}
	if cfg.Source.URL != DefaultSourceURL {
		t.Errorf("Source.URL = %q, want default", cfg.Source.URL)
	}
	if cfg.Output.BySource != "docs/news_chart_by_newspaper.html" {
		t.Errorf("Output.BySource = %q, want default", cfg.Output.BySource)
	}
	if cfg.Storage.SQLitePath != "/env/runs.db" {
		t.Errorf("Storage.SQLitePath = %q, want env override on defaults", cfg.Storage.SQLitePath)
	}
}

func TestLoadOrDefaultReadsDotEnv(t *testing.T) {
	clearOverrides(t)
	os.Unsetenv("DATA_DIR")
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("DATA_DIR=/dotenv/data\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Chdir(dir)
	t.Cleanup(func() { os.Unsetenv("DATA_DIR") })

	cfg, err := LoadOrDefault(filepath.Join(dir, "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadOrDefault() returned error: %v", err)
	}
	if cfg.Storage.DataDir != "/dotenv/data" {
		t.Errorf("Storage.DataDir = %q, want value from .env", cfg.Storage.DataDir)
	}
}
