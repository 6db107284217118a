// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers defaults, an optional YAML file and environment variables.
// - External errors are wrapped with this package's sentinel errors.
package config

import (
	"fmt"
	"path/filepath"
	"regexp"
	"time"
)

// Entity source modes.
const (
	SourceLocal  = "local"
	SourceRemote = "remote"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// DataDir holds the CSV datasets.
	DataDir string `koanf:"data_dir"`

	// PaymentsFile and MerchantsFile name the datasets inside DataDir.
	PaymentsFile  string `koanf:"payments_file"`
	MerchantsFile string `koanf:"merchants_file"`

	// SourceMode selects where entities come from: local datasets or a remote
	// snaptrust instance.
	SourceMode string `koanf:"source_mode"`

	// RemoteBaseURL is the remote instance root, required in remote mode.
	RemoteBaseURL string `koanf:"remote_base_url"`

	// RemoteTimeoutMS bounds each remote request.
	RemoteTimeoutMS int `koanf:"remote_timeout_ms"`

	// DashboardFetchLimit caps how many entities feed a dashboard snapshot.
	DashboardFetchLimit int `koanf:"dashboard_fetch_limit"`

	// DefaultLimit applies when GET /{kind} has no limit; MaxLimit caps it.
	DefaultLimit int `koanf:"default_limit"`
	MaxLimit     int `koanf:"max_limit"`

	// ReloadIntervalS re-reads the datasets periodically; 0 disables reloads.
	ReloadIntervalS int `koanf:"reload_interval_s"`

	// TopTier is the loyalty tier counted on the customer dashboard.
	TopTier string `koanf:"top_tier"`

	// GoldThreshold and SilverThreshold are the minimum trust scores per tier.
	GoldThreshold   float64 `koanf:"gold_threshold"`
	SilverThreshold float64 `koanf:"silver_threshold"`

	// ExclusivityBonus is added to exclusive merchants' trust scores.
	ExclusivityBonus float64 `koanf:"exclusivity_bonus"`

	// GenAIAPIKey enables model-written insights; empty means rule-based only.
	GenAIAPIKey string `koanf:"genai_api_key"`

	// GenAIModel names the generative model.
	GenAIModel string `koanf:"genai_model"`

	// InsightTimeoutMS bounds a single model call before falling back to rules.
	InsightTimeoutMS int `koanf:"insight_timeout_ms"`

	// QuerySample is how many top entities a POST /query answer is based on.
	QuerySample int `koanf:"query_sample"`

	// MetricsEnabled toggles the /healthz Prometheus export.
	MetricsEnabled bool `koanf:"metrics_enabled"`

	// MetricsNamespace, MetricsSubsystem and MetricsPrefix make up metric
	// names: <namespace>_<subsystem>_<prefix>_<name>.
	MetricsNamespace string `koanf:"metrics_namespace"`
	MetricsSubsystem string `koanf:"metrics_subsystem"`
	MetricsPrefix    string `koanf:"metrics_prefix"`

	// MetricsLabels are constant labels on every metric (YAML only).
	MetricsLabels map[string]string `koanf:"metrics_labels"`

	// MetricsBuckets overrides the latency histogram buckets, in milliseconds.
	MetricsBuckets []float64 `koanf:"metrics_buckets"`

	// MetricsRefreshS is how often runtime and entity gauges are refreshed.
	MetricsRefreshS int `koanf:"metrics_refresh_s"`
}

var metricNamePart = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		LogFormat:           "text",
		Addr:                ":9080",
		DataDir:             "data",
		PaymentsFile:        "payments.csv",
		MerchantsFile:       "merchants_loyalty.csv",
		SourceMode:          SourceLocal,
		RemoteTimeoutMS:     5000,
		DashboardFetchLimit: 1000,
		DefaultLimit:        10,
		MaxLimit:            1000,
		ReloadIntervalS:     60,
		TopTier:             "Gold",
		GoldThreshold:       90,
		SilverThreshold:     80,
		ExclusivityBonus:    5,
		GenAIModel:          "gemini-2.5-flash",
		InsightTimeoutMS:    8000,
		QuerySample:         200,
		MetricsEnabled:      true,
		MetricsNamespace:    "snaptrust",
		MetricsSubsystem:    "analytics",
		MetricsRefreshS:     10,
	}
}

// PaymentsPath returns the payments dataset path.
func (c *Config) PaymentsPath() string { return filepath.Join(c.DataDir, c.PaymentsFile) }

// MerchantsPath returns the merchants dataset path.
func (c *Config) MerchantsPath() string { return filepath.Join(c.DataDir, c.MerchantsFile) }

// ReloadInterval returns the dataset reload period.
func (c *Config) ReloadInterval() time.Duration {
	return time.Duration(c.ReloadIntervalS) * time.Second
}

// RemoteTimeout returns the per-request remote timeout.
func (c *Config) RemoteTimeout() time.Duration {
	return time.Duration(c.RemoteTimeoutMS) * time.Millisecond
}

// InsightTimeout returns the model call timeout.
func (c *Config) InsightTimeout() time.Duration {
	return time.Duration(c.InsightTimeoutMS) * time.Millisecond
}

// MetricsRefresh returns the gauge refresh period.
func (c *Config) MetricsRefresh() time.Duration {
	return time.Duration(c.MetricsRefreshS) * time.Second
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.SourceMode != SourceLocal && c.SourceMode != SourceRemote:
		return fmt.Errorf("%w: source_mode must be %q or %q", ErrInvalidConfig, SourceLocal, SourceRemote)
	case c.SourceMode == SourceRemote && c.RemoteBaseURL == "":
		return fmt.Errorf("%w: remote_base_url is required in remote mode", ErrInvalidConfig)
	case c.LogFormat != "text" && c.LogFormat != "json":
		return fmt.Errorf("%w: log_format must be text or json", ErrInvalidConfig)
	case c.DefaultLimit < 1 || c.MaxLimit < c.DefaultLimit:
		return fmt.Errorf("%w: need 1 <= default_limit <= max_limit", ErrInvalidConfig)
	case c.DashboardFetchLimit < 1:
		return fmt.Errorf("%w: dashboard_fetch_limit must be positive", ErrInvalidConfig)
	case c.ReloadIntervalS < 0:
		return fmt.Errorf("%w: reload_interval_s must not be negative", ErrInvalidConfig)
	case c.SilverThreshold <= 0 || c.GoldThreshold <= c.SilverThreshold:
		return fmt.Errorf("%w: need 0 < silver_threshold < gold_threshold", ErrInvalidConfig)
	case c.TopTier == "":
		return fmt.Errorf("%w: top_tier must not be empty", ErrInvalidConfig)
	case c.QuerySample < 1:
		return fmt.Errorf("%w: query_sample must be positive", ErrInvalidConfig)
	case c.MetricsRefreshS < 1:
		return fmt.Errorf("%w: metrics_refresh_s must be positive", ErrInvalidConfig)
	}
	for key, part := range map[string]string{
		"metrics_namespace": c.MetricsNamespace,
		"metrics_subsystem": c.MetricsSubsystem,
		"metrics_prefix":    c.MetricsPrefix,
	} {
		if part != "" && !metricNamePart.MatchString(part) {
			return fmt.Errorf("%w: %s %q is not a valid metric name part", ErrInvalidConfig, key, part)
		}
	}
	for name := range c.MetricsLabels {
		if !metricNamePart.MatchString(name) {
			return fmt.Errorf("%w: metrics_labels key %q is not a valid label name", ErrInvalidConfig, name)
		}
	}
	return nil
}
