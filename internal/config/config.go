package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Config mirrors config/config.yaml.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Store     StoreConfig     `mapstructure:"store"`
	Scraper   ScraperConfig   `mapstructure:"scraper"`
	Timezone  TimezoneConfig  `mapstructure:"timezone"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Notifier  NotifierConfig  `mapstructure:"notifier"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Port  int    `mapstructure:"port"`
	Mode  string `mapstructure:"mode"` // gin mode: debug/release/test
	Pprof bool   `mapstructure:"pprof"`
}

// DatabaseConfig is only used when store.backend is "gorm".
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"` // postgres | sqlite
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	LogLevel        string        `mapstructure:"log_level"` // silent/error/warn/info
}

type StoreConfig struct {
	Backend string `mapstructure:"backend"` // gorm | file
	Path    string `mapstructure:"path"`    // JSON file for the file backend
}

// ScraperConfig drives the extractor.
type ScraperConfig struct {
	URL             string          `mapstructure:"url"`
	HomeTeam        string          `mapstructure:"home_team"`
	Fetcher         string          `mapstructure:"fetcher"` // browser | http
	CacheTTL        time.Duration   `mapstructure:"cache_ttl"`
	SettleDelay     time.Duration   `mapstructure:"settle_delay"` // wait after navigation for client-side rendering
	Timeout         time.Duration   `mapstructure:"timeout"`
	UserAgent       string          `mapstructure:"user_agent"`
	ChromePath      string          `mapstructure:"chrome_path"`
	Proxy           string          `mapstructure:"proxy"`
	DefaultFormat   string          `mapstructure:"default_format"`
	SourceUTCOffset string          `mapstructure:"source_utc_offset"` // zone the site prints times in
	Selectors       SelectorsConfig `mapstructure:"selectors"`
}

// SelectorsConfig holds class-name substrings. Page markup changes only need a config edit.
type SelectorsConfig struct {
	Container []string `mapstructure:"container"`
	Team      []string `mapstructure:"team"`
	Time      []string `mapstructure:"time"`
	Day       []string `mapstructure:"day"`
	Format    []string `mapstructure:"format"`
	Event     []string `mapstructure:"event"`
	Heading   []string `mapstructure:"heading"`
	NoMatches []string `mapstructure:"no_matches"` // lowercase text sentinels
}

type TimezoneConfig struct {
	UTCOffset string `mapstructure:"utc_offset"` // e.g. -03:00
	Name      string `mapstructure:"name"`
}

type SchedulerConfig struct {
	TickSpec     string        `mapstructure:"tick_spec"`
	RefreshSpec  string        `mapstructure:"refresh_spec"` // empty disables the background refresh
	Lead         time.Duration `mapstructure:"lead"`
	MissedWindow string        `mapstructure:"missed_window"` // skip | late
	MaxRetries   uint64        `mapstructure:"max_retries"`
}

type NotifierConfig struct {
	Kind      string        `mapstructure:"kind"` // telegram | discord | log
	Token     string        `mapstructure:"token"`
	BaseURL   string        `mapstructure:"base_url"`
	Timeout   time.Duration `mapstructure:"timeout"`
	Proxy     string        `mapstructure:"proxy"`
	ParseMode string        `mapstructure:"parse_mode"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"` // text | json
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

const (
	MissedWindowSkip = "skip"
	MissedWindowLate = "late"
)

// LoadConfig reads config/config.yaml; secrets are overridden from .env / environment.
func LoadConfig() (*Config, error) {
	return LoadConfigFrom("./config")
}

// LoadConfigFrom is LoadConfig with an explicit config directory.
func LoadConfigFrom(dir string) (*Config, error) {
	// 1. .env is optional
	_ = godotenv.Load()

	// 2. config.yaml, defaults when it is missing
	v := viper.New()
	setDefaults(v)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	// 3. env > yaml for secrets and deploy-specific values
	overrideFromEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Defaults returns the configuration used when no file or env overrides exist.
func Defaults() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("config defaults: %v", err))
	}
	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.pprof", false)

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "furia.db")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("database.log_level", "warn")

	v.SetDefault("store.backend", "file")
	v.SetDefault("store.path", "data/furia_data.json")

	v.SetDefault("scraper.url", "https://draft5.gg/equipe/330-FURIA/proximas-partidas")
	v.SetDefault("scraper.home_team", "FURIA")
	v.SetDefault("scraper.fetcher", "browser")
	v.SetDefault("scraper.cache_ttl", time.Hour)
	v.SetDefault("scraper.settle_delay", 3*time.Second)
	v.SetDefault("scraper.timeout", 30*time.Second)
	v.SetDefault("scraper.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36")
	v.SetDefault("scraper.default_format", "MD3")
	v.SetDefault("scraper.source_utc_offset", "-03:00")
	v.SetDefault("scraper.selectors.container", []string{"MatchCard", "match-card"})
	v.SetDefault("scraper.selectors.team", []string{"TeamName", "team-name"})
	v.SetDefault("scraper.selectors.time", []string{"MatchTime", "match-time"})
	v.SetDefault("scraper.selectors.day", []string{"MatchDate", "match-date"})
	v.SetDefault("scraper.selectors.format", []string{"MatchFormat", "Badge"})
	v.SetDefault("scraper.selectors.event", []string{"Tournament", "tournament"})
	v.SetDefault("scraper.selectors.heading", []string{"DateHeading", "date-heading"})
	v.SetDefault("scraper.selectors.no_matches", []string{"sem partidas", "nenhuma partida"})

	v.SetDefault("timezone.utc_offset", "-03:00")
	v.SetDefault("timezone.name", "BRT")

	v.SetDefault("scheduler.tick_spec", "@every 5m")
	v.SetDefault("scheduler.refresh_spec", "@every 1h")
	v.SetDefault("scheduler.lead", time.Hour)
	v.SetDefault("scheduler.missed_window", MissedWindowSkip)
	v.SetDefault("scheduler.max_retries", 3)

	v.SetDefault("notifier.kind", "log")
	v.SetDefault("notifier.base_url", "https://api.telegram.org")
	v.SetDefault("notifier.timeout", 10*time.Second)
	v.SetDefault("notifier.parse_mode", "HTML")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.file", "bot.log")
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 28)
}

// overrideFromEnv applies secrets and deploy-specific values from the environment.
func overrideFromEnv(cfg *Config) {
	if v := os.Getenv("BOT_TOKEN"); v != "" {
		cfg.Notifier.Token = v
	}
	if v := os.Getenv("DISCORD_BOT_TOKEN"); v != "" && cfg.Notifier.Kind == "discord" {
		cfg.Notifier.Token = v
	}
	if v := os.Getenv("DATABASE_DSN"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("SCRAPER_URL"); v != "" {
		cfg.Scraper.URL = v
	}
	if v := os.Getenv("CHROME_PATH"); v != "" {
		cfg.Scraper.ChromePath = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
}

// Validate rejects settings the rest of the program cannot run with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Scraper.HomeTeam) == "" {
		return errors.New("scraper.home_team is required")
	}
	if c.Scraper.URL == "" {
		return errors.New("scraper.url is required")
	}
	if c.Scheduler.Lead <= 0 {
		return fmt.Errorf("scheduler.lead must be positive, got %s", c.Scheduler.Lead)
	}
	switch c.Scheduler.MissedWindow {
	case MissedWindowSkip, MissedWindowLate:
	default:
		return fmt.Errorf("scheduler.missed_window must be %q or %q, got %q", MissedWindowSkip, MissedWindowLate, c.Scheduler.MissedWindow)
	}
	switch c.Store.Backend {
	case "gorm", "file":
	default:
		return fmt.Errorf("unknown store.backend %q", c.Store.Backend)
	}
	if _, err := ParseUTCOffset(c.Timezone.UTCOffset); err != nil {
		return fmt.Errorf("timezone.utc_offset: %w", err)
	}
	if _, err := ParseUTCOffset(c.Scraper.SourceUTCOffset); err != nil {
		return fmt.Errorf("scraper.source_utc_offset: %w", err)
	}
	return nil
}

// Location is the fixed zone every match time is normalized to.
func (c *Config) Location() *time.Location {
	return FixedZone(c.Timezone.Name, c.Timezone.UTCOffset)
}

// SourceLocation is the zone the scraped page prints its times in.
func (c *Config) SourceLocation() *time.Location {
	return FixedZone("source", c.Scraper.SourceUTCOffset)
}

// FixedZone builds a fixed-offset zone; invalid offsets fall back to UTC.
func FixedZone(name, offset string) *time.Location {
	secs, err := ParseUTCOffset(offset)
	if err != nil {
		return time.UTC
	}
	if name == "" {
		name = "UTC" + offset
	}
	return time.FixedZone(name, secs)
}

// ParseUTCOffset parses "-03:00", "+0530" or "Z" into seconds east of UTC.
func ParseUTCOffset(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "Z" || strings.EqualFold(s, "utc") {
		return 0, nil
	}
	t, err := time.Parse("-07:00", s)
	if err != nil {
		t, err = time.Parse("-0700", s)
	}
	if err != nil {
		return 0, fmt.Errorf("invalid utc offset %q", s)
	}
	_, secs := t.Zone()
	return secs, nil
}

// GetGORMConfig returns the gorm config for this database.
func (d *DatabaseConfig) GetGORMConfig() *gorm.Config {
	level := logger.Warn
	switch strings.ToLower(d.LogLevel) {
	case "silent":
		level = logger.Silent
	case "error":
		level = logger.Error
	case "info":
		level = logger.Info
	}
	return &gorm.Config{Logger: logger.Default.LogMode(level)}
}
