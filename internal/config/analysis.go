package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"
)

// DefaultConfigPath is the path to the canonical analysis defaults file.
const DefaultConfigPath = "config/analysis.defaults.json"

// Built-in defaults used when a field is omitted from the config file.
const (
	DefaultTargetMeanPre      = 120.0
	DefaultTargetMeanPost     = 17.5
	DefaultProfilePaddingPre  = 0.20
	DefaultProfilePaddingPost = 0.05
	DefaultListen             = ":8080"
	DefaultMaxUploadBytes     = 32 << 20
	DefaultSessionTTL         = time.Hour
	DefaultCacheEntries       = 16
	DefaultReportWorkers      = 4
)

// AnalysisConfig holds the scoring targets and service settings. Omitted
// fields fall back to the built-in defaults through the Get* accessors, so
// partial files are safe.
type AnalysisConfig struct {
	// Scoring targets, micrometres
	TargetMeanPre  *float64 `json:"target_mean_pre,omitempty"`
	TargetMeanPost *float64 `json:"target_mean_post,omitempty"`

	// Profile chart padding as a fraction of the thickness span
	ProfilePaddingPre  *float64 `json:"profile_padding_pre,omitempty"`
	ProfilePaddingPost *float64 `json:"profile_padding_post,omitempty"`

	// Service
	Listen            *string `json:"listen,omitempty"`
	MaxUploadBytes    *int64  `json:"max_upload_bytes,omitempty"`
	SessionTTL        *string `json:"session_ttl,omitempty"` // duration string like "1h"
	CacheEntries      *int    `json:"cache_entries,omitempty"`
	ReportWorkers     *int    `json:"report_workers,omitempty"`
	EChartsAssetsHost *string `json:"echarts_assets_host,omitempty"`
}

// EmptyAnalysisConfig returns a config with every field unset.
func EmptyAnalysisConfig() *AnalysisConfig {
	return &AnalysisConfig{}
}

// LoadAnalysisConfig loads an AnalysisConfig from a JSON file.
func LoadAnalysisConfig(path string) (*AnalysisConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyAnalysisConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// MustLoadDefaultConfig loads DefaultConfigPath, searching the current
// directory and its parents up to the repository root. Panics if the file
// cannot be loaded; intended for test setup.
func MustLoadDefaultConfig() *AnalysisConfig {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,
		"../../" + DefaultConfigPath,
		"../../../" + DefaultConfigPath,
	}
	for _, path := range candidates {
		if cfg, err := LoadAnalysisConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks the values that are set.
func (c *AnalysisConfig) Validate() error {
	for name, v := range map[string]*float64{
		"target_mean_pre":  c.TargetMeanPre,
		"target_mean_post": c.TargetMeanPost,
	} {
		if v != nil && (math.IsNaN(*v) || math.IsInf(*v, 0)) {
			return fmt.Errorf("%s must be finite, got %v", name, *v)
		}
	}
	for name, v := range map[string]*float64{
		"profile_padding_pre":  c.ProfilePaddingPre,
		"profile_padding_post": c.ProfilePaddingPost,
	} {
		if v != nil && (*v < 0 || *v > 1) {
			return fmt.Errorf("%s must be between 0 and 1, got %f", name, *v)
		}
	}

	if c.SessionTTL != nil && *c.SessionTTL != "" {
		d, err := time.ParseDuration(*c.SessionTTL)
		if err != nil {
			return fmt.Errorf("invalid session_ttl '%s': %w", *c.SessionTTL, err)
		}
		if d <= 0 {
			return fmt.Errorf("session_ttl must be positive, got %s", d)
		}
	}
	if c.MaxUploadBytes != nil && *c.MaxUploadBytes <= 0 {
		return fmt.Errorf("max_upload_bytes must be positive, got %d", *c.MaxUploadBytes)
	}
	if c.CacheEntries != nil && *c.CacheEntries <= 0 {
		return fmt.Errorf("cache_entries must be positive, got %d", *c.CacheEntries)
	}
	if c.ReportWorkers != nil && *c.ReportWorkers <= 0 {
		return fmt.Errorf("report_workers must be positive, got %d", *c.ReportWorkers)
	}
	return nil
}

// GetTargetMeanPre returns the Pre cohort target mean or the default.
func (c *AnalysisConfig) GetTargetMeanPre() float64 {
	if c.TargetMeanPre == nil {
		return DefaultTargetMeanPre
	}
	return *c.TargetMeanPre
}

// GetTargetMeanPost returns the Post cohort target mean or the default.
func (c *AnalysisConfig) GetTargetMeanPost() float64 {
	if c.TargetMeanPost == nil {
		return DefaultTargetMeanPost
	}
	return *c.TargetMeanPost
}

// GetProfilePaddingPre returns the Pre profile padding or the default.
func (c *AnalysisConfig) GetProfilePaddingPre() float64 {
	if c.ProfilePaddingPre == nil {
		return DefaultProfilePaddingPre
	}
	return *c.ProfilePaddingPre
}

// GetProfilePaddingPost returns the Post profile padding or the default.
func (c *AnalysisConfig) GetProfilePaddingPost() float64 {
	if c.ProfilePaddingPost == nil {
		return DefaultProfilePaddingPost
	}
	return *c.ProfilePaddingPost
}

// GetListen returns the listen address or the default.
func (c *AnalysisConfig) GetListen() string {
	if c.Listen == nil || *c.Listen == "" {
		return DefaultListen
	}
	return *c.Listen
}

// GetMaxUploadBytes returns the upload size limit or the default.
func (c *AnalysisConfig) GetMaxUploadBytes() int64 {
	if c.MaxUploadBytes == nil {
		return DefaultMaxUploadBytes
	}
	return *c.MaxUploadBytes
}

// GetSessionTTL parses and returns the session idle timeout.
func (c *AnalysisConfig) GetSessionTTL() time.Duration {
	if c.SessionTTL == nil || *c.SessionTTL == "" {
		return DefaultSessionTTL
	}
	d, err := time.ParseDuration(*c.SessionTTL)
	if err != nil || d <= 0 {
		return DefaultSessionTTL
	}
	return d
}

// GetCacheEntries returns the per-session cache size or the default.
func (c *AnalysisConfig) GetCacheEntries() int {
	if c.CacheEntries == nil {
		return DefaultCacheEntries
	}
	return *c.CacheEntries
}

// GetReportWorkers returns the chart conversion worker count or the default.
func (c *AnalysisConfig) GetReportWorkers() int {
	if c.ReportWorkers == nil {
		return DefaultReportWorkers
	}
	return *c.ReportWorkers
}

// GetEChartsAssetsHost returns the chart script host, empty for the
// library default.
func (c *AnalysisConfig) GetEChartsAssetsHost() string {
	if c.EChartsAssetsHost == nil {
		return ""
	}
	return *c.EChartsAssetsHost
}
