package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{
		"EE_SERVICE_ACCOUNT_KEY", "EE_PROJECT", "EE_BASE_URL", "HTTP_TIMEOUT",
		"ANALYSIS_START_DATE", "FEATURE_CATALOG", "CACHE_MAX_AGE", "CACHE_MAX_ENTRIES",
		"CACHE_SWEEP_INTERVAL", "POSTGRES_URL", "RECORD_GENERATIONS", "PORT",
	} {
		t.Setenv(k, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ServiceAccountKeyFile != "service_account_key.json" {
		t.Errorf("unexpected key file %s", cfg.ServiceAccountKeyFile)
	}
	if !cfg.AnalysisStartDate.Equal(time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected start date %s", cfg.AnalysisStartDate)
	}
	if cfg.HTTPTimeout != time.Minute || cfg.CacheMaxAge != 24*time.Hour || cfg.CacheSweepInterval != 15*time.Minute {
		t.Errorf("unexpected durations %+v", cfg)
	}
	if cfg.CacheMaxEntries != 10000 || cfg.Port != "8080" || cfg.RecordGenerations {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if cfg.BaseURL != "https://earthengine.googleapis.com" {
		t.Errorf("unexpected base url %s", cfg.BaseURL)
	}
}

func TestLoadInvalid(t *testing.T) {
	cases := []map[string]string{
		{"ANALYSIS_START_DATE": "2023-01-15"},
		{"ANALYSIS_START_DATE": "January"},
		{"HTTP_TIMEOUT": "soon"},
		{"CACHE_MAX_AGE": "-"},
		{"RECORD_GENERATIONS": "true", "POSTGRES_URL": ""},
	}
	for _, env := range cases {
		t.Run("", func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Errorf("expected error for %v", env)
			}
		})
	}
}
