package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Config is the top-level configuration for the presscount tools.
type Config struct {
	Source        Source        `yaml:"source"`
	Fetch         Fetch         `yaml:"fetch"`
	Interpolation Interpolation `yaml:"interpolation"`
	Chart         Chart         `yaml:"chart"`
	Output        Output        `yaml:"output"`
	Storage       Storage       `yaml:"storage"`
	Publish       Publish       `yaml:"publish"`
	Metrics       Metrics       `yaml:"metrics"`
	Logging       Logging       `yaml:"logging"`
}

// Source locates the article-count CSV. Path, when set, wins over URL.
type Source struct {
	URL  string `yaml:"url"`
	Path string `yaml:"path"`
}

// Fetch controls the HTTP download of the source CSV.
type Fetch struct {
	Timeout   time.Duration `yaml:"timeout"`
	Attempts  int           `yaml:"attempts"`
	Backoff   time.Duration `yaml:"backoff"`
	UserAgent string        `yaml:"user_agent"`
}

// Interpolation selects how gaps at the ends of a series are extrapolated.
type Interpolation struct {
	Boundary string `yaml:"boundary"` // "trend" or "hold"
}

// Chart holds presentation settings shared by both charts.
type Chart struct {
	BySourceTitle string `yaml:"by_source_title"`
	TotalTitle    string `yaml:"total_title"`
	PlotlyJSURL   string `yaml:"plotly_js_url"`
	PlotlyJSPath  string `yaml:"plotly_js_path"` // inline this file instead of the CDN
	Snapshot      bool   `yaml:"snapshot"`       // also write PNG previews
}

// Output names the files the charts are written to.
type Output struct {
	BySource string `yaml:"by_source"`
	Total    string `yaml:"total"`
}

// Storage holds paths for data persistence. Empty paths disable the
// corresponding store.
type Storage struct {
	DataDir    string `yaml:"data_dir"`
	SQLitePath string `yaml:"sqlite_path"`
}

// Publish configures optional upload of the rendered charts to S3-compatible
// object storage.
type Publish struct {
	Bucket          string `yaml:"bucket"`
	Prefix          string `yaml:"prefix"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	UsePathStyle    bool   `yaml:"use_path_style"`
}

// Metrics configures the node_exporter textfile the run metrics go to.
type Metrics struct {
	Textfile string `yaml:"textfile"`
}

// Logging configures the application logger.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DefaultSourceURL is the published archive of daily article counts.
const DefaultSourceURL = "https://raw.githubusercontent.com/itscharukadeshan/sl_news_archive_data/refs/heads/main/archive/news_article_counts.csv"

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Source: Source{URL: DefaultSourceURL},
		Fetch: Fetch{
			Timeout:   30 * time.Second,
			Attempts:  1,
			Backoff:   2 * time.Second,
			UserAgent: "presscount/1.0",
		},
		Interpolation: Interpolation{Boundary: "trend"},
		Chart: Chart{
			BySourceTitle: "📰 News Articles Archive by Newspaper",
			TotalTitle:    "📊 Total News Articles (All Newspapers Combined)",
			PlotlyJSURL:   "https://cdn.plot.ly/plotly-2.35.2.min.js",
		},
		Output: Output{
			BySource: "docs/news_chart_by_newspaper.html",
			Total:    "docs/news_chart_total_only.html",
		},
		Logging: Logging{Level: "info", Format: "text"},
	}
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Load reads the YAML configuration file at the given path on top of the
// defaults, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	applyEnvOverrides(cfg)

	return cfg, cfg.Validate()
}

// LoadOrDefault behaves like Load but falls back to Default when the file
// does not exist. A .env file in the working directory, if any, is loaded
// into the environment first; variables already set are left alone.
func LoadOrDefault(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		cfg = Default()
		applyEnvOverrides(cfg)
		return cfg, cfg.Validate()
	}
	return cfg, err
}

// Validate rejects settings the pipeline cannot act on.
func (c *Config) Validate() error {
	switch c.Interpolation.Boundary {
	case "trend", "hold":
	default:
		return fmt.Errorf("interpolation.boundary must be \"trend\" or \"hold\", got %q", c.Interpolation.Boundary)
	}
	if strings.TrimSpace(c.Output.BySource) == "" || strings.TrimSpace(c.Output.Total) == "" {
		return errors.New("output.by_source and output.total are required")
	}
	if c.Source.URL == "" && c.Source.Path == "" {
		return errors.New("one of source.url or source.path is required")
	}
	return nil
}

// applyEnvOverrides checks well-known environment variables and overrides the
// corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PRESSCOUNT_SOURCE_URL"); v != "" {
		cfg.Source.URL = v
	}
	if v := os.Getenv("PRESSCOUNT_SOURCE_PATH"); v != "" {
		cfg.Source.Path = v
	}

	if v := os.Getenv("DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Storage.SQLitePath = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	if v := os.Getenv("PRESSCOUNT_METRICS_FILE"); v != "" {
		cfg.Metrics.Textfile = v
	}

	if v := os.Getenv("PRESSCOUNT_S3_BUCKET"); v != "" {
		cfg.Publish.Bucket = v
	}
	if v := os.Getenv("AWS_REGION"); v != "" {
		cfg.Publish.Region = v
	}
	// Standard AWS env vars (canonical names used by the SDK).
	if v := os.Getenv("AWS_ACCESS_KEY_ID"); v != "" {
		cfg.Publish.AccessKeyID = v
	}
	if v := os.Getenv("AWS_SECRET_ACCESS_KEY"); v != "" {
		cfg.Publish.SecretAccessKey = v
	}
}
