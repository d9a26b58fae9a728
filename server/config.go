package server

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/cyclopcam/dbh"
	"github.com/cyclopcam/tracklog/pkg/blobstore"
	"github.com/cyclopcam/tracklog/server/eventstore"
)

const DefaultListen = ":8080"

type Config struct {
	DB        dbh.DBConfig     `json:"db"`
	Listen    string           `json:"listen"`    // eg ":8080"
	Export    blobstore.Config `json:"export"`    // Destination of /api/export. Export is disabled if neither option is set.
	RateLimit RateLimitConfig  `json:"rateLimit"` // Per-IP request limits
}

type RateLimitConfig struct {
	AppendPerMinute int `json:"appendPerMinute"` // POST /api/events
	QueryPerMinute  int `json:"queryPerMinute"`  // Analytics queries
	ExportPerHour   int `json:"exportPerHour"`   // POST /api/export
}

// Environment variables that override the config file
type envOverrides struct {
	DBPath          string `env:"TRACKLOG_DB"` // Path to a Sqlite database
	Listen          string `env:"TRACKLOG_LISTEN"`
	ExportDir       string `env:"TRACKLOG_EXPORT_DIR"`
	ExportBucket    string `env:"TRACKLOG_EXPORT_BUCKET"`
	AppendPerMinute int    `env:"TRACKLOG_APPEND_PER_MINUTE"`
}

func DefaultConfig() Config {
	return Config{
		DB:     dbh.MakeSqliteConfig(eventstore.DefaultFilename),
		Listen: DefaultListen,
		RateLimit: RateLimitConfig{
			AppendPerMinute: 600,
			QueryPerMinute:  600,
			ExportPerHour:   10,
		},
	}
}

// LoadConfig reads a JSON config file, on top of the defaults, and then applies environment overrides.
// An empty configFile means "defaults and environment only".
func LoadConfig(configFile string) (*Config, error) {
	cfg := DefaultConfig()
	if configFile != "" {
		cfgB, err := os.ReadFile(configFile)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(cfgB, &cfg); err != nil {
			return nil, fmt.Errorf("Error parsing config file %v: %w", configFile, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if cfg.Listen == "" {
		cfg.Listen = DefaultListen
	}
	return &cfg, nil
}

func (c *Config) applyEnv() error {
	ov := envOverrides{}
	if err := env.Parse(&ov); err != nil {
		return fmt.Errorf("Error parsing environment: %w", err)
	}
	if ov.DBPath != "" {
		c.DB = dbh.MakeSqliteConfig(ov.DBPath)
	}
	if ov.Listen != "" {
		c.Listen = ov.Listen
	}
	if ov.ExportDir != "" {
		c.Export = blobstore.Config{Filesystem: &blobstore.ConfigFS{Root: ov.ExportDir}}
	}
	if ov.ExportBucket != "" {
		c.Export = blobstore.Config{GCS: &blobstore.ConfigGCS{Bucket: ov.ExportBucket}}
	}
	if ov.AppendPerMinute != 0 {
		c.RateLimit.AppendPerMinute = ov.AppendPerMinute
	}
	return nil
}
