package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/wyseguys/site-audit/logger"
	"github.com/wyseguys/site-audit/ratings"
	"github.com/wyseguys/site-audit/storage"
)

// DefaultPath is read when no --config flag is given. It may be absent.
const DefaultPath = "site-audit.json"

// Config holds all user-configurable settings loaded from JSON or YAML.
type Config struct {
	OutputDir     string             `json:"output_dir" yaml:"output_dir"`
	DBPath        string             `json:"db_path" yaml:"db_path"`
	SnapshotPath  string             `json:"snapshot_path" yaml:"snapshot_path"`
	LogPath       string             `json:"log_path" yaml:"log_path"`
	Verbose       bool               `json:"verbose" yaml:"verbose"`
	UserAgent     string             `json:"user_agent" yaml:"user_agent"`
	HTTPTimeout   int                `json:"http_timeout_seconds" yaml:"http_timeout_seconds"`
	RespectRobots bool               `json:"respect_robots" yaml:"respect_robots"`
	ChromeFlags   string             `json:"chrome_flags" yaml:"chrome_flags"`
	ChromePath    string             `json:"chrome_path" yaml:"chrome_path"`
	NoSandbox     bool               `json:"no_sandbox" yaml:"no_sandbox"`
	PDFTimeout    int                `json:"pdf_timeout_seconds" yaml:"pdf_timeout_seconds"`
	TemplateDir   string             `json:"template_dir" yaml:"template_dir"`
	KeepHTML      bool               `json:"keep_html" yaml:"keep_html"`
	Concurrency   int                `json:"concurrency" yaml:"concurrency"`
	MaxDepth      int                `json:"max_depth" yaml:"max_depth"`
	RateMs        int                `json:"rate_ms" yaml:"rate_ms"`
	Thresholds    ratings.Thresholds `json:"thresholds" yaml:"thresholds"`
}

// LoadConfig reads the config at path and applies defaults where needed.
// An empty path reads DefaultPath, and a missing DefaultPath is not an error.
func LoadConfig(path string) (*Config, error) {
	optional := path == ""
	if optional {
		path = DefaultPath
	}

	var cfg Config
	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := decode(path, b, &cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case optional && errors.Is(err, fs.ErrNotExist):
	default:
		return nil, err
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func decode(path string, b []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Unmarshal(b, cfg)
	}
	return json.Unmarshal(b, cfg)
}

func (cfg *Config) applyDefaults() {
	if cfg.OutputDir == "" {
		cfg.OutputDir = "output"
	}
	if cfg.DBPath == "" {
		cfg.DBPath = "site-audit.db"
	}
	if cfg.SnapshotPath == "" {
		cfg.SnapshotPath = "snapshots.db"
	}
	if cfg.LogPath == "" {
		cfg.LogPath = "site-audit.log"
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "site-audit/1.0"
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = int((30 * time.Second).Seconds())
	}
	if cfg.PDFTimeout <= 0 {
		cfg.PDFTimeout = 60
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 5
	}
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = 2
	}
	if cfg.RateMs <= 0 {
		cfg.RateMs = 200
	}
	if cfg.ChromeFlags == "" {
		cfg.ChromeFlags = "--headless"
	}
	cfg.Thresholds = cfg.Thresholds.WithDefaults()
}

// InitializeApp opens the logger and the run database.
func (cfg *Config) InitializeApp() (*logger.Logger, *storage.Storage, error) {
	appLogger, err := logger.New(cfg.LogPath, cfg.Verbose)
	if err != nil {
		return nil, nil, fmt.Errorf("open log: %w", err)
	}
	store, err := storage.New(cfg.DBPath)
	if err != nil {
		appLogger.Close()
		return nil, nil, err
	}
	return appLogger, store, nil
}
