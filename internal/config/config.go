package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/i474232898/geo-feature-maps/internal/imagery"
	"github.com/i474232898/geo-feature-maps/internal/imagery/earthengine"
)

type AppConfig struct {
	// Earth Engine access.
	ServiceAccountKeyFile string
	Project               string // empty = project_id from the key file
	BaseURL               string
	HTTPTimeout           time.Duration

	// AnalysisStartDate is the fixed start of every map window and monthly series.
	AnalysisStartDate time.Time

	// FeatureCatalogFile optionally overrides the built-in feature definitions.
	FeatureCatalogFile string

	// Monthly value cache.
	CacheMaxAge        time.Duration // 0 disables the cache
	CacheMaxEntries    int           // 0 = unlimited
	CacheSweepInterval time.Duration

	// Generation recorder.
	PostgresURL       string
	RecordGenerations bool

	Port string
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	cfg := &AppConfig{}

	cfg.ServiceAccountKeyFile = getenvDefault("EE_SERVICE_ACCOUNT_KEY", "service_account_key.json")
	cfg.Project = os.Getenv("EE_PROJECT")
	cfg.BaseURL = getenvDefault("EE_BASE_URL", earthengine.DefaultBaseURL)

	var err error
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", "60s"); err != nil {
		return nil, err
	}

	startStr := getenvDefault("ANALYSIS_START_DATE", "2023-01-01")
	start, err := time.Parse(imagery.DateLayout, startStr)
	if err != nil {
		return nil, fmt.Errorf("invalid ANALYSIS_START_DATE: %w", err)
	}
	if start.Day() != 1 {
		return nil, fmt.Errorf("invalid ANALYSIS_START_DATE: %s is not the first day of a month", startStr)
	}
	cfg.AnalysisStartDate = start

	cfg.FeatureCatalogFile = os.Getenv("FEATURE_CATALOG")

	if cfg.CacheMaxAge, err = getenvDuration("CACHE_MAX_AGE", "24h"); err != nil {
		return nil, err
	}
	cfg.CacheMaxEntries = getenvInt("CACHE_MAX_ENTRIES", 10000)
	if cfg.CacheSweepInterval, err = getenvDuration("CACHE_SWEEP_INTERVAL", "15m"); err != nil {
		return nil, err
	}

	cfg.PostgresURL = os.Getenv("POSTGRES_URL")
	cfg.RecordGenerations = getenvBool("RECORD_GENERATIONS", false)
	if cfg.RecordGenerations && cfg.PostgresURL == "" {
		return nil, fmt.Errorf("RECORD_GENERATIONS requires POSTGRES_URL")
	}

	cfg.Port = getenvDefault("PORT", "8080")

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
