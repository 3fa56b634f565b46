package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	require.NoError(t, cfg.Validate())
	require.Equal(t, "FURIA", cfg.Scraper.HomeTeam)
	require.Equal(t, time.Hour, cfg.Scraper.CacheTTL)
	require.Equal(t, time.Hour, cfg.Scheduler.Lead)
	require.Equal(t, "@every 5m", cfg.Scheduler.TickSpec)
	require.Equal(t, MissedWindowSkip, cfg.Scheduler.MissedWindow)
	require.Equal(t, []string{"MatchCard", "match-card"}, cfg.Scraper.Selectors.Container)

	_, offset := time.Date(2025, 4, 30, 19, 0, 0, 0, cfg.Location()).Zone()
	require.Equal(t, -3*3600, offset)
}

func TestParseUTCOffset(t *testing.T) {
	cases := map[string]int{
		"-03:00": -3 * 3600,
		"+05:30": 5*3600 + 30*60,
		"-0300":  -3 * 3600,
		"Z":      0,
		"":       0,
	}
	for in, want := range cases {
		got, err := ParseUTCOffset(in)
		require.NoError(t, err, in)
		require.Equal(t, want, got, in)
	}

	_, err := ParseUTCOffset("America/Sao_Paulo")
	require.Error(t, err)
	require.Equal(t, time.UTC, FixedZone("x", "garbage"))
}

func TestValidate(t *testing.T) {
	cases := map[string]func(c *Config){
		"empty home team":   func(c *Config) { c.Scraper.HomeTeam = " " },
		"no url":            func(c *Config) { c.Scraper.URL = "" },
		"zero lead":         func(c *Config) { c.Scheduler.Lead = 0 },
		"bad missed window": func(c *Config) { c.Scheduler.MissedWindow = "retry" },
		"bad backend":       func(c *Config) { c.Store.Backend = "redis" },
		"bad offset":        func(c *Config) { c.Timezone.UTCOffset = "BRT" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := Defaults()
			mutate(cfg)
			require.Error(t, cfg.Validate())
		})
	}
}

func TestLoadConfigFrom(t *testing.T) {
	dir := t.TempDir()
	yaml := `
scraper:
  home_team: FURIA
  cache_ttl: 30m
scheduler:
  lead: 90m
  missed_window: late
notifier:
  kind: telegram
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))
	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("PORT", "9090")

	cfg, err := LoadConfigFrom(dir)
	require.NoError(t, err)
	require.Equal(t, 30*time.Minute, cfg.Scraper.CacheTTL)
	require.Equal(t, 90*time.Minute, cfg.Scheduler.Lead)
	require.Equal(t, MissedWindowLate, cfg.Scheduler.MissedWindow)
	require.Equal(t, "123:abc", cfg.Notifier.Token)
	require.Equal(t, 9090, cfg.Server.Port)
	// untouched keys keep their defaults
	require.Equal(t, "@every 5m", cfg.Scheduler.TickSpec)
}

func TestLoadConfigFrom_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfigFrom(t.TempDir())
	require.NoError(t, err)
	require.Equal(t, Defaults().Scraper.URL, cfg.Scraper.URL)
}
