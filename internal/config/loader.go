package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultAPIURL      = "https://api.alerts.in.ua/v1/alerts/active.json"
	DefaultTelegramURL = "https://api.telegram.org"
	DefaultCategory    = "air_raid"
)

// Default returns the built-in configuration: one region and the
// air raid / artillery categories, polled every 30 seconds.
func Default() *Config {
	return &Config{
		API: APIConfig{
			URL:      DefaultAPIURL,
			Timeout:  15 * time.Second,
			RetryMax: 2,
		},
		Poll: PollConfig{Interval: 30 * time.Second},
		Regions: map[int]string{
			9: "Дніпропетровська область",
		},
		Categories:      []string{"air_raid", "artillery_shelling"},
		TrackedCategory: DefaultCategory,
		Notifier: NotifierConfig{
			Type:     "telegram",
			Telegram: TelegramConfig{APIURL: DefaultTelegramURL},
		},
	}
}

// Load builds the configuration from an optional YAML file and the process
// environment. A .env file in the working directory is loaded first if present.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	cfg := Default()
	if path != "" {
		// yaml.v3 merges into non-nil maps; a configured region list replaces the default
		defaultRegions := cfg.Regions
		cfg.Regions = nil
		if err := loadYAML(path, cfg); err != nil {
			return nil, fmt.Errorf("loading %s: %w", path, err)
		}
		if cfg.Regions == nil {
			cfg.Regions = defaultRegions
		}
	}

	if err := cfg.applyEnv(os.Getenv); err != nil {
		return nil, err
	}
	cfg.setDefaults()

	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// loadYAML loads a YAML file into a struct
func loadYAML(path string, out interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, out)
}

// applyEnv overlays secrets and per-deployment overrides
func (c *Config) applyEnv(getenv func(string) string) error {
	if v := getenv("API_TOKEN"); v != "" {
		c.API.Token = v
	}
	if v := getenv("TELEGRAM_TOKEN"); v != "" {
		c.Notifier.Telegram.Token = v
	}
	if v := getenv("CHAT_ID"); v != "" {
		c.Notifier.Telegram.ChatID = v
	}
	if v := getenv("APPRISE_API_URL"); v != "" {
		c.Notifier.Apprise.APIURL = v
	}
	if v := getenv("APPRISE_KEY"); v != "" {
		c.Notifier.Apprise.Key = v
	}
	if v := getenv("RAIDWATCH_NOTIFIER"); v != "" {
		c.Notifier.Type = v
	}
	if v := getenv("RAIDWATCH_HTTP_LISTEN"); v != "" {
		c.HTTP.Listen = v
	}
	if v := getenv("RAIDWATCH_POLL_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			if secs, convErr := strconv.Atoi(v); convErr == nil {
				d = time.Duration(secs) * time.Second
			} else {
				return fmt.Errorf("RAIDWATCH_POLL_INTERVAL: %w", err)
			}
		}
		c.Poll.Interval = d
	}
	return nil
}

func (c *Config) setDefaults() {
	if c.API.URL == "" {
		c.API.URL = DefaultAPIURL
	}
	if c.API.Timeout == 0 {
		c.API.Timeout = 15 * time.Second
	}
	if c.TrackedCategory == "" {
		c.TrackedCategory = DefaultCategory
	}
	if c.Notifier.Type == "" {
		c.Notifier.Type = "telegram"
	}
	if c.Notifier.Telegram.APIURL == "" {
		c.Notifier.Telegram.APIURL = DefaultTelegramURL
	}
}

// ValidateConfig validates the configuration
func ValidateConfig(cfg *Config) error {
	if len(cfg.Regions) == 0 {
		return fmt.Errorf("no regions configured")
	}
	for id, name := range cfg.Regions {
		if name == "" {
			return fmt.Errorf("region %d: name is required", id)
		}
	}

	if len(cfg.Categories) == 0 {
		return fmt.Errorf("no alert categories configured")
	}
	if _, ok := cfg.CategorySet()[cfg.TrackedCategory]; !ok {
		return fmt.Errorf("tracked category %q is not in categories", cfg.TrackedCategory)
	}

	if cfg.Poll.Interval <= 0 {
		return fmt.Errorf("poll.interval must be positive")
	}
	if cfg.API.RetryMax < 0 {
		return fmt.Errorf("api.retry_max must not be negative")
	}
	if cfg.API.Token == "" {
		return fmt.Errorf("API_TOKEN is required")
	}

	switch cfg.Notifier.Type {
	case "telegram":
		if cfg.Notifier.Telegram.Token == "" || cfg.Notifier.Telegram.ChatID == "" {
			return fmt.Errorf("notifier telegram: TELEGRAM_TOKEN and CHAT_ID are required")
		}
	case "apprise":
		if cfg.Notifier.Apprise.APIURL == "" || cfg.Notifier.Apprise.Key == "" {
			return fmt.Errorf("notifier apprise: api_url and key are required")
		}
	case "log":
	default:
		return fmt.Errorf("notifier: unknown type %q (want telegram, apprise or log)", cfg.Notifier.Type)
	}

	return nil
}
