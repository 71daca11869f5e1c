package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DiscordConfig holds the gateway credential and delivery targets.
type DiscordConfig struct {
	// Token is the bot token. Required.
	Token string `yaml:"token" json:"-"`
	// Guilds is the list of guild IDs where slash commands are registered.
	Guilds []string `yaml:"guilds" json:"guilds"`
	// Channels is the list of channel IDs that receive the daily post.
	Channels []string `yaml:"channels" json:"channels"`
}

// CalendarConfig describes the ICS subscription.
type CalendarConfig struct {
	// URL is the ICS endpoint, fetched with an unauthenticated GET. Required.
	URL string `yaml:"url" json:"url"`
	// FeedPath is where the downloaded feed blob is stored.
	FeedPath string `yaml:"feed_path" json:"feed_path"`
	// RefreshCron is a cron-style schedule for periodic refetches
	// (e.g. "0 */6 * * *"). Empty disables periodic refresh; the feed is
	// still fetched once at startup.
	RefreshCron string `yaml:"refresh" json:"refresh"`
}

// Config is the top-level application configuration.
type Config struct {
	// Timezone is the IANA timezone used for date windows, day headers and
	// the daily post trigger (e.g. "Europe/Paris").
	Timezone string `yaml:"timezone" json:"timezone"`

	// Listen is the HTTP listen address for the status server.
	// Empty disables the server.
	Listen string `yaml:"listen" json:"listen"`

	// PostCron schedules the proactive daily post. The job itself decides
	// between the single-day and the week view based on the weekday.
	PostCron string `yaml:"post_cron" json:"post_cron"`

	Discord  DiscordConfig  `yaml:"discord" json:"discord"`
	Calendar CalendarConfig `yaml:"calendar" json:"calendar"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on the
	// status server (all endpoints except /health).
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the status server.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"-"`
}

// DefaultConfig returns an in-memory default configuration. Token, guilds
// and the calendar URL have no sensible defaults and must come from the
// config file.
func DefaultConfig() *Config {
	return &Config{
		Timezone: "Europe/Paris",
		Listen:   "",
		PostCron: "0 8 * * *",
		Calendar: CalendarConfig{
			FeedPath:    "/var/lib/agendabot/calendar.ics",
			RefreshCron: "0 */6 * * *",
		},
	}
}

// Normalize fills in missing/zero values with defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.Timezone == "" {
		c.Timezone = "Europe/Paris"
	}
	if c.PostCron == "" {
		c.PostCron = "0 8 * * *"
	}
	if c.Calendar.FeedPath == "" {
		c.Calendar.FeedPath = "/var/lib/agendabot/calendar.ics"
	}
	if c.Discord.Guilds == nil {
		c.Discord.Guilds = []string{}
	}
	if c.Discord.Channels == nil {
		c.Discord.Channels = []string{}
	}
}

// Validate checks the keys the process cannot run without.
func (c *Config) Validate() error {
	if c.Discord.Token == "" {
		return errors.New("discord.token is required")
	}
	if c.Calendar.URL == "" {
		return errors.New("calendar.url is required")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return nil
}

// Location resolves the configured timezone. Normalize/Validate guarantee
// it parses; on a zero Config it falls back to the local zone.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist: write a default config with 0600 perms
//     (creating parent directories) and return it. The default config does
//     not validate; the caller is expected to fail with a clear message
//     telling the operator to fill in the file.
//   - If the file exists: read YAML, unmarshal, normalize defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the given configuration to the specified path.
//
// The write is atomic: marshal to a temp file in the target directory,
// fsync, chmod 0600, then rename over the destination.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".agendabot-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}

	return os.Rename(tmpName, path)
}
