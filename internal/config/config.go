// Package config handles loading and validating the application configuration
// from YAML files with environment variable substitution.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Database      DatabaseConfig      `yaml:"database"`
	Marketplace   MarketplaceConfig   `yaml:"marketplace"`
	Scoring       ScoringConfig       `yaml:"scoring"`
	Stats         StatsConfig         `yaml:"stats"`
	Schedule      ScheduleConfig      `yaml:"schedule"`
	Alerts        AlertsConfig        `yaml:"alerts"`
	Notifications NotificationsConfig `yaml:"notifications"`
	Telemetry     TelemetryConfig     `yaml:"telemetry"`
	Logging       LoggingConfig       `yaml:"logging"`
}

// ServerConfig defines the Echo HTTP server settings.
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// DatabaseConfig defines PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
	PoolSize int    `yaml:"pool_size"`
}

// DSN returns a PostgreSQL connection string.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		d.Host, d.Port, d.Name, d.User, d.Password, d.SSLMode,
	)
}

// MarketplaceConfig defines the second-hand marketplace API settings.
type MarketplaceConfig struct {
	SearchURL   string          `yaml:"search_url"`
	ItemURL     string          `yaml:"item_url"`
	UserURL     string          `yaml:"user_url"`
	Keywords    []string        `yaml:"keywords"`
	MaxPages    int             `yaml:"max_pages"`
	DeepFetch   bool            `yaml:"deep_fetch"`
	MaxRetries  int             `yaml:"max_retries"`
	RetryDelay  time.Duration   `yaml:"retry_delay"`
	CooldownOn  []int           `yaml:"cooldown_on"` // HTTP statuses worth a long cool-down
	Cooldown    time.Duration   `yaml:"cooldown"`
	RateLimit   RateLimitConfig `yaml:"rate_limit"`
	UserAgent   string          `yaml:"user_agent"`
	HTTPTimeout time.Duration   `yaml:"http_timeout"`
}

// RateLimitConfig defines marketplace API rate limiting settings.
type RateLimitConfig struct {
	PerSecond float64 `yaml:"per_second"`
	Burst     int     `yaml:"burst"`
}

// ScoringConfig defines the anomaly scoring weights and thresholds.
type ScoringConfig struct {
	Weights          ScoringWeights `yaml:"weights"`
	SuspiciousZ      float64        `yaml:"suspicious_z"`
	EnrichReputation bool           `yaml:"enrich_reputation"`
}

// ScoringWeights defines the relative weight of each component signal.
type ScoringWeights struct {
	CPU      float64 `yaml:"cpu"`
	GPU      float64 `yaml:"gpu"`
	RAM      float64 `yaml:"ram"`
	Category float64 `yaml:"category"`
}

// StatsConfig defines where the reference price table lives.
type StatsConfig struct {
	TablePath string `yaml:"table_path"`
}

// ScheduleConfig defines cron intervals.
type ScheduleConfig struct {
	PollInterval    time.Duration `yaml:"poll_interval"`
	RebuildInterval time.Duration `yaml:"rebuild_interval"`
	StaggerOffset   time.Duration `yaml:"stagger_offset"`
}

// NotificationsConfig defines notification targets.
type NotificationsConfig struct {
	Discord DiscordConfig `yaml:"discord"`

	// ListingURLBase prefixes the listing ID to form the link embedded
	// in alert notifications.
	ListingURLBase string `yaml:"listing_url_base"`
}

// DiscordConfig defines Discord webhook settings.
type DiscordConfig struct {
	Enabled    bool   `yaml:"enabled"`
	WebhookURL string `yaml:"webhook_url"`
}

// AlertsConfig defines when a scored listing becomes an alert.
type AlertsConfig struct {
	RiskThreshold    int           `yaml:"risk_threshold"`
	ReAlertsEnabled  bool          `yaml:"re_alerts_enabled"`  // default: false
	ReAlertsCooldown time.Duration `yaml:"re_alerts_cooldown"` // default: 24h
}

// TelemetryConfig defines OpenTelemetry trace export settings.
type TelemetryConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Endpoint string `yaml:"endpoint"` // OTLP/gRPC, host:port
	Insecure bool   `yaml:"insecure"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// Load reads and parses a YAML config file, performing environment variable
// substitution and validation.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // config path from trusted CLI flag
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the YAML content.
	expanded := os.ExpandEnv(string(data))

	cfg := &Config{}
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	applyDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	applyServerDefaults(&cfg.Server)
	applyDatabaseDefaults(&cfg.Database)
	applyMarketplaceDefaults(&cfg.Marketplace)
	applyScoringDefaults(&cfg.Scoring)
	applyStatsDefaults(&cfg.Stats)
	applyScheduleDefaults(&cfg.Schedule)
	applyAlertsDefaults(&cfg.Alerts)
	applyNotificationsDefaults(&cfg.Notifications)
	applyLoggingDefaults(&cfg.Logging)
}

func applyNotificationsDefaults(n *NotificationsConfig) {
	if n.ListingURLBase == "" {
		n.ListingURLBase = "https://es.wallapop.com/item"
	}
}

func applyServerDefaults(s *ServerConfig) {
	if s.Host == "" {
		s.Host = "0.0.0.0"
	}
	if s.Port == 0 {
		s.Port = 8080
	}
	if s.ReadTimeout == 0 {
		s.ReadTimeout = 30 * time.Second
	}
	if s.WriteTimeout == 0 {
		s.WriteTimeout = 30 * time.Second
	}
}

func applyDatabaseDefaults(d *DatabaseConfig) {
	if d.Port == 0 {
		d.Port = 5432
	}
	if d.SSLMode == "" {
		d.SSLMode = "disable"
	}
	if d.PoolSize == 0 {
		d.PoolSize = 10
	}
}

func applyMarketplaceDefaults(m *MarketplaceConfig) {
	if len(m.Keywords) == 0 {
		m.Keywords = []string{"portatil", "laptop", "macbook"}
	}
	if m.MaxPages == 0 {
		m.MaxPages = 10
	}
	if m.MaxRetries == 0 {
		m.MaxRetries = 3
	}
	if m.RetryDelay == 0 {
		m.RetryDelay = 2 * time.Second
	}
	if len(m.CooldownOn) == 0 {
		m.CooldownOn = []int{429, 403}
	}
	if m.Cooldown == 0 {
		m.Cooldown = 5 * time.Minute
	}
	if m.HTTPTimeout == 0 {
		m.HTTPTimeout = 20 * time.Second
	}
	applyRateLimitDefaults(&m.RateLimit)
}

func applyRateLimitDefaults(r *RateLimitConfig) {
	if r.PerSecond == 0 {
		r.PerSecond = 2.0
	}
	if r.Burst == 0 {
		r.Burst = 4
	}
}

func applyScoringDefaults(s *ScoringConfig) {
	w := &s.Weights
	if w.CPU == 0 && w.GPU == 0 && w.RAM == 0 && w.Category == 0 {
		w.CPU, w.GPU, w.RAM, w.Category = 0.5, 0.3, 0.1, 0.1
	}
	if s.SuspiciousZ == 0 {
		s.SuspiciousZ = -1.5
	}
}

func applyStatsDefaults(s *StatsConfig) {
	if s.TablePath == "" {
		s.TablePath = "market_stats.json"
	}
}

func applyScheduleDefaults(s *ScheduleConfig) {
	if s.PollInterval == 0 {
		s.PollInterval = 15 * time.Minute
	}
	if s.RebuildInterval == 0 {
		s.RebuildInterval = 6 * time.Hour
	}
	if s.StaggerOffset == 0 {
		s.StaggerOffset = 30 * time.Second
	}
}

func applyAlertsDefaults(a *AlertsConfig) {
	if a.RiskThreshold == 0 {
		a.RiskThreshold = 50
	}
	if a.ReAlertsCooldown == 0 {
		a.ReAlertsCooldown = 24 * time.Hour
	}
}

func applyLoggingDefaults(l *LoggingConfig) {
	if l.Level == "" {
		l.Level = "info"
	}
	if l.Format == "" {
		l.Format = "text"
	}
}

func validate(cfg *Config) error {
	var errs []error

	if cfg.Database.Host == "" {
		errs = append(errs, fmt.Errorf("database.host is required"))
	}
	if cfg.Database.Name == "" {
		errs = append(errs, fmt.Errorf("database.name is required"))
	}
	if cfg.Database.User == "" {
		errs = append(errs, fmt.Errorf("database.user is required"))
	}

	if cfg.Marketplace.SearchURL == "" {
		errs = append(errs, fmt.Errorf("marketplace.search_url is required"))
	}
	if cfg.Marketplace.DeepFetch && cfg.Marketplace.ItemURL == "" {
		errs = append(errs, fmt.Errorf("marketplace.item_url is required when deep_fetch is on"))
	}
	if cfg.Scoring.EnrichReputation && cfg.Marketplace.UserURL == "" {
		errs = append(errs, fmt.Errorf("marketplace.user_url is required when scoring.enrich_reputation is on"))
	}

	if cfg.Alerts.RiskThreshold < 0 || cfg.Alerts.RiskThreshold > 100 {
		errs = append(errs, fmt.Errorf("alerts.risk_threshold must be in [0, 100] (got %d)", cfg.Alerts.RiskThreshold))
	}

	if cfg.Notifications.Discord.Enabled && cfg.Notifications.Discord.WebhookURL == "" {
		errs = append(errs, fmt.Errorf("notifications.discord.webhook_url is required when enabled"))
	}
	if cfg.Telemetry.Enabled && cfg.Telemetry.Endpoint == "" {
		errs = append(errs, fmt.Errorf("telemetry.endpoint is required when telemetry is enabled"))
	}

	return errors.Join(errs...)
}
