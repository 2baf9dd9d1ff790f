// Package config handles application configuration from environment variables
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Storage backends
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Archive listing sources
const (
	SourceRclone = "rclone"
	SourceS3     = "s3"
	SourceNone   = "none"
)

// Config represents the application configuration
type Config struct {
	Passkey        string        `env:"VTHELL_PASSKEY"`
	VTHellPath     string        `env:"VTHELL_PATH" envDefault:"/data/vthell"`
	YouTubeAPIKey  string        `env:"YOUTUBE_API_KEY"`
	ServerPort     string        `env:"SERVER_PORT" envDefault:"35608"`
	LogLevel       string        `env:"LOG_LEVEL" envDefault:"info"`
	StoreBackend   string        `env:"STORE_BACKEND" envDefault:"file"`
	DatabasePath   string        `env:"DATABASE_PATH"`
	ResolveTimeout time.Duration `env:"RESOLVE_TIMEOUT" envDefault:"10s"`

	ArchiveSource     string        `env:"ARCHIVE_SOURCE" envDefault:"none"`
	RcloneBinary      string        `env:"RCLONE_BINARY" envDefault:"rclone"`
	RcloneRemote      string        `env:"RCLONE_REMOTE"`
	ArchiveCategories []string      `env:"ARCHIVE_CATEGORIES" envSeparator:"," envDefault:"Stream Archive,Member-Only Stream Archive,Archival,Cover Songs,Stream Chat Archive"`
	RebuildInterval   time.Duration `env:"REBUILD_INTERVAL" envDefault:"0"`

	S3Bucket          string `env:"S3_BUCKET"`
	S3Prefix          string `env:"S3_PREFIX"`
	S3Endpoint        string `env:"S3_ENDPOINT"`
	S3Region          string `env:"S3_REGION" envDefault:"auto"`
	S3AccessKeyID     string `env:"S3_ACCESS_KEY_ID"`
	S3SecretAccessKey string `env:"S3_SECRET_ACCESS_KEY"`
}

// Load loads configuration from environment variables and .env file
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if file doesn't exist)
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment variables: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !slices.Contains(validLogLevels, strings.ToLower(c.LogLevel)) {
		return fmt.Errorf("invalid log level %q, must be one of: %v", c.LogLevel, validLogLevels)
	}

	if c.VTHellPath == "" {
		return fmt.Errorf("VTHELL_PATH cannot be empty")
	}
	cleanPath := filepath.Clean(c.VTHellPath)
	if !filepath.IsAbs(cleanPath) {
		return fmt.Errorf("VTHELL_PATH must be an absolute path, got: %s", c.VTHellPath)
	}
	if info, err := os.Stat(cleanPath); err == nil && !info.IsDir() {
		return fmt.Errorf("VTHELL_PATH must be a directory, got file: %s", cleanPath)
	}
	c.VTHellPath = cleanPath

	c.StoreBackend = strings.ToLower(strings.TrimSpace(c.StoreBackend))
	switch c.StoreBackend {
	case BackendFile:
	case BackendSQLite:
		if c.DatabasePath == "" {
			c.DatabasePath = filepath.Join(c.VTHellPath, "vthell.db")
		}
	default:
		return fmt.Errorf("invalid STORE_BACKEND %q, must be one of: %v", c.StoreBackend, []string{BackendFile, BackendSQLite})
	}

	if c.ResolveTimeout <= 0 {
		return fmt.Errorf("RESOLVE_TIMEOUT must be positive, got: %s", c.ResolveTimeout)
	}
	if c.RebuildInterval < 0 {
		return fmt.Errorf("REBUILD_INTERVAL cannot be negative, got: %s", c.RebuildInterval)
	}

	categories := make([]string, 0, len(c.ArchiveCategories))
	for _, category := range c.ArchiveCategories {
		category = strings.Trim(strings.TrimSpace(category), "/")
		if category != "" {
			categories = append(categories, category)
		}
	}
	if len(categories) == 0 {
		return fmt.Errorf("ARCHIVE_CATEGORIES must name at least one folder")
	}
	c.ArchiveCategories = categories

	c.ArchiveSource = strings.ToLower(strings.TrimSpace(c.ArchiveSource))
	switch c.ArchiveSource {
	case SourceNone:
	case SourceRclone:
		if strings.TrimSpace(c.RcloneRemote) == "" {
			return fmt.Errorf("RCLONE_REMOTE is required when ARCHIVE_SOURCE is %s", SourceRclone)
		}
	case SourceS3:
		if c.S3Bucket == "" {
			return fmt.Errorf("S3_BUCKET is required when ARCHIVE_SOURCE is %s", SourceS3)
		}
	default:
		return fmt.Errorf("invalid ARCHIVE_SOURCE %q, must be one of: %v", c.ArchiveSource, []string{SourceRclone, SourceS3, SourceNone})
	}

	return nil
}

// ValidateServer checks the settings only the HTTP server needs
func (c *Config) ValidateServer() error {
	if strings.TrimSpace(c.Passkey) == "" {
		return fmt.Errorf("VTHELL_PASSKEY is required")
	}
	return nil
}

// JobsDir is where the file backend keeps one JSON file per job
func (c *Config) JobsDir() string {
	return filepath.Join(c.VTHellPath, "jobs")
}

// DatasetDir holds the streamer mapping files
func (c *Config) DatasetDir() string {
	return filepath.Join(c.VTHellPath, "dataset")
}

// LockPath is the file that serializes archive rebuilds
func (c *Config) LockPath() string {
	return filepath.Join(c.VTHellPath, ".archive-rebuild.lock")
}
