package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"LPSentinel/internal/model"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// Config holds all application configuration.
type Config struct {
	Preset  string        `yaml:"preset"`
	Profile model.Profile `yaml:"profile"`

	Discord struct {
		WebhookURL string `yaml:"webhook_url"`
	} `yaml:"discord"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Source struct {
		URL       string        `yaml:"url"`
		UserAgent string        `yaml:"user_agent"`
		Timeout   time.Duration `yaml:"timeout"`
		Attempts  int           `yaml:"attempts"`
		Backoff   time.Duration `yaml:"backoff"`
	} `yaml:"source"`
	Oracle struct {
		URL         string            `yaml:"url"`
		IDs         map[string]string `yaml:"ids"`
		CacheTTL    time.Duration     `yaml:"cache_ttl"`
		MinInterval time.Duration     `yaml:"min_interval"`
	} `yaml:"oracle"`
	State struct {
		Backend string `yaml:"backend"` // file | redis
		Path    string `yaml:"path"`
		Redis   struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Key      string `yaml:"key"`
		} `yaml:"redis"`
	} `yaml:"state"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Metrics struct {
		Addr string `yaml:"addr"`
	} `yaml:"metrics"`
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
	Proxy        string `yaml:"proxy"`
	ForcePostNow bool   `yaml:"force_post_now"`
}

// Load reads config from a YAML file over the selected preset, then applies
// environment variable overrides. A non-empty preset argument wins over
// both the file and LP_PRESET. A missing file is not an error.
func Load(path, preset string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var probe struct {
		Preset string `yaml:"preset"`
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, &probe); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}
	name := probe.Preset
	if v := os.Getenv("LP_PRESET"); v != "" {
		name = v
	}
	if preset != "" {
		name = preset
	}
	if name == "" {
		name = DefaultPreset
	}
	profile, ok := Preset(name)
	if !ok {
		return nil, fmt.Errorf("%w: unknown preset %q (known: %v)", ErrInvalidConfig, name, PresetNames())
	}

	cfg := &Config{Profile: profile}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}
	cfg.Preset = name

	applyEnv(cfg)
	applyDefaults(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("DISCORD_WEBHOOK_URL"); v != "" {
		cfg.Discord.WebhookURL = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("STATE_BACKEND"); v != "" {
		cfg.State.Backend = v
	}
	if v := os.Getenv("STATE_PATH"); v != "" {
		cfg.State.Path = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.State.Redis.Addr = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("METRICS_ADDR"); v != "" {
		cfg.Metrics.Addr = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("FORCE_POST_NOW"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.ForcePostNow = b
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Profile.Label == "" {
		cfg.Profile.Label = cfg.Preset
	}
	if cfg.Profile.Classify == "" {
		cfg.Profile.Classify = model.ClassifyStandard
	}
	if cfg.Source.Attempts == 0 {
		cfg.Source.Attempts = 3
	}
	if cfg.Source.Backoff == 0 {
		cfg.Source.Backoff = 2 * time.Second
	}
	if cfg.Source.Timeout == 0 {
		cfg.Source.Timeout = 20 * time.Second
	}
	if cfg.Oracle.CacheTTL == 0 {
		cfg.Oracle.CacheTTL = 15 * time.Minute
	}
	if cfg.Oracle.MinInterval == 0 {
		cfg.Oracle.MinInterval = 6 * time.Second
	}
	if cfg.State.Backend == "" {
		cfg.State.Backend = "file"
	}
	if cfg.State.Path == "" {
		cfg.State.Path = fmt.Sprintf("data/state_%s.json", cfg.Preset)
	}
	if cfg.State.Redis.Key == "" {
		cfg.State.Redis.Key = "lpsentinel:" + cfg.Preset + ":state"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/lpsentinel.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}

// Validate rejects inconsistent settings at startup.
func (c *Config) Validate() error {
	p := c.Profile
	if p.RecommendN <= 0 {
		return fmt.Errorf("%w: profile.recommend_n must be positive", ErrInvalidConfig)
	}
	if len(p.Chains) == 0 {
		return fmt.Errorf("%w: profile.chains is empty", ErrInvalidConfig)
	}
	if len(p.Tiers) == 0 {
		return fmt.Errorf("%w: profile.tiers is empty", ErrInvalidConfig)
	}
	for _, t := range p.Tiers {
		if len(t.Categories) == 0 {
			return fmt.Errorf("%w: tier %q has no allowed_types", ErrInvalidConfig, t.Name)
		}
		for _, cat := range t.Categories {
			switch cat {
			case model.CategoryStableStable, model.CategoryStableBase, model.CategoryBaseBase, model.CategoryOther:
			default:
				return fmt.Errorf("%w: tier %q has unknown type %q", ErrInvalidConfig, t.Name, cat)
			}
		}
	}
	switch p.Classify {
	case model.ClassifyStandard, model.ClassifyStableOnly:
	default:
		return fmt.Errorf("%w: unknown classify mode %q", ErrInvalidConfig, p.Classify)
	}
	if p.Haircut < 0 || p.Haircut > 1 {
		return fmt.Errorf("%w: profile.reward_haircut must be within [0,1]", ErrInvalidConfig)
	}
	if d, err := p.Cadence.Duration(); err != nil || d <= 0 {
		return fmt.Errorf("%w: profile.cadence must be positive days or hours", ErrInvalidConfig)
	}
	if p.ScanInterval <= 0 {
		return fmt.Errorf("%w: profile.scan_interval must be positive", ErrInvalidConfig)
	}
	if p.Divergence.Enabled && p.Divergence.WarnPct > p.Divergence.ExitPct && p.Divergence.ExitPct > 0 {
		return fmt.Errorf("%w: price_divergence.warn_pct exceeds exit_pct", ErrInvalidConfig)
	}
	switch c.State.Backend {
	case "file":
	case "redis":
		if c.State.Redis.Addr == "" {
			return fmt.Errorf("%w: state.redis.addr is required for the redis backend", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown state backend %q", ErrInvalidConfig, c.State.Backend)
	}
	return nil
}

// ValidateDelivery additionally requires at least one notifier, for
// commands that post.
func (c *Config) ValidateDelivery() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Discord.WebhookURL == "" && !c.TelegramEnabled() {
		return fmt.Errorf("%w: configure discord.webhook_url or telegram.bot_token/chat_id", ErrInvalidConfig)
	}
	return nil
}

// TelegramEnabled reports whether both Telegram credentials are set.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}
