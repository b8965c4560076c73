package config

import "time"

// Config represents the complete raidwatch configuration
type Config struct {
	API             APIConfig      `yaml:"api"`
	Poll            PollConfig     `yaml:"poll"`
	Regions         map[int]string `yaml:"regions"`
	Categories      []string       `yaml:"categories"`
	TrackedCategory string         `yaml:"tracked_category"`
	Notifier        NotifierConfig `yaml:"notifier"`
	HTTP            HTTPConfig     `yaml:"http"`
}

// APIConfig describes the remote alerts endpoint
type APIConfig struct {
	URL      string        `yaml:"url"`
	Token    string        `yaml:"-"` // API_TOKEN
	Timeout  time.Duration `yaml:"timeout"`
	RetryMax int           `yaml:"retry_max"`
}

// PollConfig controls the polling cadence
type PollConfig struct {
	Interval time.Duration `yaml:"interval"`
}

// NotifierConfig selects and configures the outbound channel
type NotifierConfig struct {
	Type     string         `yaml:"type"` // "telegram", "apprise" or "log"
	Telegram TelegramConfig `yaml:"telegram"`
	Apprise  AppriseConfig  `yaml:"apprise"`
}

// TelegramConfig holds Bot API settings
type TelegramConfig struct {
	APIURL string `yaml:"api_url"`
	Token  string `yaml:"-"` // TELEGRAM_TOKEN
	ChatID string `yaml:"chat_id"`
}

// AppriseConfig holds Apprise API settings
type AppriseConfig struct {
	APIURL string `yaml:"api_url"`
	Key    string `yaml:"key"`
}

// HTTPConfig controls the status server. Empty Listen disables it.
type HTTPConfig struct {
	Listen string `yaml:"listen"`
}

// CategorySet returns the interesting categories as a set
func (c *Config) CategorySet() map[string]struct{} {
	set := make(map[string]struct{}, len(c.Categories))
	for _, cat := range c.Categories {
		set[cat] = struct{}{}
	}
	return set
}
