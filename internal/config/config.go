package config

import (
	"fmt"
	"regexp"
	"time"
)

type Config struct {
	Search        SearchConfig        `yaml:"search"`
	HTTP          HttpConfig          `yaml:"http"`
	Rod           RodConfig           `yaml:"rod"`
	Telegram      TelegramConfig      `yaml:"telegram"`
	Storage       StorageConfig       `yaml:"storage"`
	Scheduler     SchedulerConfig     `yaml:"scheduler"`
	SelectorsFile string              `yaml:"selectors_file"`
	Normalize     NormalizeConfig     `yaml:"normalize"`
	Observability ObservabilityConfig `yaml:"observability"`
}

type SearchConfig struct {
	URL     string `yaml:"url"`
	BaseURL string `yaml:"base_url"`
}

type HttpConfig struct {
	UserAgent              string            `yaml:"user_agent"`
	Headers                map[string]string `yaml:"headers"`
	TotalTimeoutMS         int               `yaml:"total_timeout_ms"`
	MaxIdleConnections     int               `yaml:"max_idle_connections"`
	IdleConnectionTimeoutS int               `yaml:"idle_connection_timeout_s"`
}

type RodConfig struct {
	Enabled          bool   `yaml:"enabled"`
	ChromePath       string `yaml:"chrome_path"`
	Headless         bool   `yaml:"headless"`
	WaitLoadTimeoutS int    `yaml:"wait_load_timeout_s"`
}

type TelegramConfig struct {
	BotToken              string `yaml:"bot_token"`
	ChatID                string `yaml:"chat_id"`
	APIBaseURL            string `yaml:"api_base_url"`
	TimeoutMS             int    `yaml:"timeout_ms"`
	PauseMS               int    `yaml:"pause_ms"`
	DisableWebPagePreview bool   `yaml:"disable_web_page_preview"`
}

type StorageConfig struct {
	SeenFile string `yaml:"seen_file"`
}

type SchedulerConfig struct {
	Mode         string `yaml:"mode"`
	MinIntervalS int    `yaml:"min_interval_s"`
	MaxIntervalS int    `yaml:"max_interval_s"`
	CronExpr     string `yaml:"cron_expr"`
}

type NormalizeConfig struct {
	TrimNBSP       bool `yaml:"trim_nbsp"`
	CollapseSpaces bool `yaml:"collapse_spaces"`
	MaxTitleChars  int  `yaml:"max_title_chars"`
}

type ObservabilityConfig struct {
	LogPath        string `yaml:"log_path"`
	LogLevel       string `yaml:"log_level"`
	LogMaxSizeMB   int    `yaml:"log_max_size_mb"`
	LogMaxBackups  int    `yaml:"log_max_backups"`
	LogMaxAgeDays  int    `yaml:"log_max_age_days"`
	ConsoleEnabled bool   `yaml:"console_enabled"`
}

const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

var chatIDPattern = regexp.MustCompile(`^-?[0-9]+$`)

// Default returns the values used for anything the YAML file leaves out.
func Default() Config {
	return Config{
		Search: SearchConfig{
			URL:     "https://www.gumtree.com/search?search_location=Glasgow&search_category=accordians&q=accordion&distance=100&sort=date&search_distance=100",
			BaseURL: "https://www.gumtree.com",
		},
		HTTP: HttpConfig{
			UserAgent:              DefaultUserAgent,
			TotalTimeoutMS:         20000,
			MaxIdleConnections:     10,
			IdleConnectionTimeoutS: 90,
		},
		Rod: RodConfig{
			Headless:         true,
			WaitLoadTimeoutS: 20,
		},
		Telegram: TelegramConfig{
			APIBaseURL:            "https://api.telegram.org",
			TimeoutMS:             10000,
			PauseMS:               1000,
			DisableWebPagePreview: true,
		},
		Storage: StorageConfig{
			SeenFile: "seen_gumtree_ads.json",
		},
		Scheduler: SchedulerConfig{
			Mode:         "random",
			MinIntervalS: 300,
			MaxIntervalS: 1000,
		},
		Normalize: NormalizeConfig{
			TrimNBSP:       true,
			CollapseSpaces: true,
			MaxTitleChars:  256,
		},
		Observability: ObservabilityConfig{
			LogPath:        "logs/gumtree-monitor.log",
			LogLevel:       "info",
			LogMaxSizeMB:   10,
			LogMaxBackups:  5,
			LogMaxAgeDays:  28,
			ConsoleEnabled: true,
		},
	}
}

// Validation
func (c *Config) Validate() error {
	if c.Search.URL == "" {
		return fmt.Errorf("search.url is required")
	}
	if c.Search.BaseURL == "" {
		return fmt.Errorf("search.base_url is required")
	}
	if c.HTTP.UserAgent == "" {
		return fmt.Errorf("http.user_agent is required")
	}
	if c.HTTP.TotalTimeoutMS <= 0 {
		return fmt.Errorf("http.total_timeout_ms must be > 0")
	}
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("telegram.bot_token is required")
	}
	if !chatIDPattern.MatchString(c.Telegram.ChatID) {
		return fmt.Errorf("telegram.chat_id must be numeric, got %q", c.Telegram.ChatID)
	}
	if c.Telegram.APIBaseURL == "" {
		return fmt.Errorf("telegram.api_base_url is required")
	}
	if c.Telegram.TimeoutMS <= 0 {
		return fmt.Errorf("telegram.timeout_ms must be > 0")
	}
	if c.Telegram.PauseMS < 0 {
		return fmt.Errorf("telegram.pause_ms must be >= 0")
	}
	if c.Storage.SeenFile == "" {
		return fmt.Errorf("storage.seen_file is required")
	}
	switch c.Scheduler.Mode {
	case "random":
		if c.Scheduler.MinIntervalS <= 0 {
			return fmt.Errorf("scheduler.min_interval_s must be > 0")
		}
		if c.Scheduler.MinIntervalS > c.Scheduler.MaxIntervalS {
			return fmt.Errorf("scheduler.min_interval_s must be <= scheduler.max_interval_s")
		}
	case "cron":
		if c.Scheduler.CronExpr == "" {
			return fmt.Errorf("scheduler.cron_expr must be set when mode is 'cron'")
		}
	case "oneshot":
	default:
		return fmt.Errorf("scheduler.mode must be 'random', 'cron' or 'oneshot'")
	}
	if c.Observability.LogLevel == "" {
		return fmt.Errorf("observability.log_level is required")
	}
	if c.Rod.Enabled && c.Rod.WaitLoadTimeoutS <= 0 {
		return fmt.Errorf("rod.wait_load_timeout_s must be > 0")
	}
	return nil
}

// Getters
func (c *Config) GetTotalTimeout() time.Duration {
	return time.Duration(c.HTTP.TotalTimeoutMS) * time.Millisecond
}

func (c *Config) GetIdleConnectionTimeout() time.Duration {
	return time.Duration(c.HTTP.IdleConnectionTimeoutS) * time.Second
}

func (c *Config) GetTelegramTimeout() time.Duration {
	return time.Duration(c.Telegram.TimeoutMS) * time.Millisecond
}

func (c *Config) GetTelegramPause() time.Duration {
	return time.Duration(c.Telegram.PauseMS) * time.Millisecond
}

func (c *Config) GetMinInterval() time.Duration {
	return time.Duration(c.Scheduler.MinIntervalS) * time.Second
}

func (c *Config) GetMaxInterval() time.Duration {
	return time.Duration(c.Scheduler.MaxIntervalS) * time.Second
}

func (c *Config) GetRodWaitLoadTimeout() time.Duration {
	return time.Duration(c.Rod.WaitLoadTimeoutS) * time.Second
}
