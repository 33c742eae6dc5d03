package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/chanfade/chanfade/internal/core"
	"github.com/spf13/viper"
)

type Config struct {
	Strategy StrategyConfig `mapstructure:"strategy"`
	Risk     RiskConfig     `mapstructure:"risk"`
	Feed     FeedConfig     `mapstructure:"feed"`
	Journal  JournalConfig  `mapstructure:"journal"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Review   ReviewConfig   `mapstructure:"review"`
}

// StrategyConfig holds the engine parameters. The defaults are the validated
// parameter set; alternate instances are for experimentation only.
type StrategyConfig struct {
	ChannelPeriod      int     `mapstructure:"channel_period"`
	TolerancePts       float64 `mapstructure:"tolerance_pts"`
	BreakoutMinPts     float64 `mapstructure:"breakout_min_pts"`
	EnableFailedTest   bool    `mapstructure:"enable_failed_test"`
	EnableBounce       bool    `mapstructure:"enable_bounce"`
	EnableBreakout     bool    `mapstructure:"enable_breakout"`
	TrailActivationPts float64 `mapstructure:"trail_activation_pts"`
	TrailDistancePts   float64 `mapstructure:"trail_distance_pts"`
	StopPts            float64 `mapstructure:"stop_pts"`
	TargetPts          float64 `mapstructure:"target_pts"`
	MaxBars            int     `mapstructure:"max_bars"`
	PointValue         float64 `mapstructure:"point_value"` // dollars per point, ES = 50
}

// RiskConfig holds the daily limit gate settings. Zero disables a limit.
type RiskConfig struct {
	MaxTradesPerDay int     `mapstructure:"max_trades_per_day"`
	MaxDailyLossPts float64 `mapstructure:"max_daily_loss_pts"`
}

type FeedConfig struct {
	Symbol          string         `mapstructure:"symbol"`
	IntervalMinutes int            `mapstructure:"interval_minutes"`
	WarmupBars      int            `mapstructure:"warmup_bars"`
	ProjectX        ProjectXConfig `mapstructure:"projectx"`
}

type ProjectXConfig struct {
	BaseURL  string `mapstructure:"base_url"`
	Username string `mapstructure:"username"`
	APIKey   string `mapstructure:"api_key"`
}

type JournalConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Type    string   `mapstructure:"type"` // "localfs" or "s3"
	Path    string   `mapstructure:"path"` // for localfs
	S3      S3Config `mapstructure:"s3"`
}

type S3Config struct {
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Prefix    string `mapstructure:"prefix"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
	Path    string `mapstructure:"path"`
}

// ReviewConfig holds the optional LLM post-session review settings.
type ReviewConfig struct {
	Enabled  bool         `mapstructure:"enabled"`
	Provider string       `mapstructure:"provider"` // "claude" or "openai"
	Claude   ClaudeConfig `mapstructure:"claude"`
	OpenAI   OpenAIConfig `mapstructure:"openai"`
}

type ClaudeConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

type OpenAIConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

// Load reads configuration from file
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Support environment variable overrides
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	// Expand environment variables in string values
	for _, key := range v.AllKeys() {
		val := v.GetString(key)
		if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
			envKey := strings.TrimSuffix(strings.TrimPrefix(val, "${"), "}")
			v.Set(key, os.Getenv(envKey))
		}
	}

	cfg := Defaults()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return cfg, nil
}

// Defaults returns the validated configuration: failed-test entries only, with
// the early-activation tight trail.
func Defaults() *Config {
	return &Config{
		Strategy: StrategyConfig{
			ChannelPeriod:      10,
			TolerancePts:       1.0,
			BreakoutMinPts:     2.0,
			EnableFailedTest:   true,
			EnableBounce:       false,
			EnableBreakout:     false,
			TrailActivationPts: 1.0,
			TrailDistancePts:   0.5,
			StopPts:            4.0,
			TargetPts:          4.0,
			MaxBars:            5,
			PointValue:         50.0,
		},
		Risk: RiskConfig{
			MaxTradesPerDay: 10,
			MaxDailyLossPts: 12.0,
		},
		Feed: FeedConfig{
			Symbol:          "ES",
			IntervalMinutes: 5,
			WarmupBars:      50,
		},
		Journal: JournalConfig{
			Enabled: true,
			Type:    "localfs",
			Path:    "logs",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Addr:    ":9090",
			Path:    "/metrics",
		},
	}
}

// Validate checks the configuration for errors. Invalid strategy parameters
// are rejected here, before an engine is constructed, never mid-stream.
func (c *Config) Validate() error {
	if err := c.Strategy.Validate(); err != nil {
		return err
	}

	if c.Risk.MaxTradesPerDay < 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("max_trades_per_day cannot be negative, got %d", c.Risk.MaxTradesPerDay))
	}
	if c.Risk.MaxDailyLossPts < 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("max_daily_loss_pts cannot be negative, got %f", c.Risk.MaxDailyLossPts))
	}

	if c.Feed.IntervalMinutes < 1 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("interval_minutes must be at least 1, got %d", c.Feed.IntervalMinutes))
	}

	switch c.Journal.Type {
	case "", "localfs", "s3":
	default:
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("journal type must be localfs or s3, got %q", c.Journal.Type))
	}
	if c.Journal.Enabled && c.Journal.Type == "s3" && c.Journal.S3.Bucket == "" {
		return core.WrapError(core.ErrConfigMissing,
			fmt.Errorf("s3 bucket required when journal type is s3"))
	}

	if c.Review.Enabled {
		switch c.Review.Provider {
		case "claude":
			if c.Review.Claude.APIKey == "" {
				return core.WrapError(core.ErrConfigMissing,
					fmt.Errorf("claude api_key required when review provider is claude"))
			}
		case "openai":
			if c.Review.OpenAI.APIKey == "" {
				return core.WrapError(core.ErrConfigMissing,
					fmt.Errorf("openai api_key required when review provider is openai"))
			}
		default:
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("review provider must be claude or openai, got %q", c.Review.Provider))
		}
	}

	return nil
}

// Validate checks the strategy parameters.
func (s StrategyConfig) Validate() error {
	if s.ChannelPeriod < 2 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("channel_period must be at least 2, got %d", s.ChannelPeriod))
	}
	if s.TolerancePts < 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("tolerance_pts cannot be negative, got %f", s.TolerancePts))
	}
	if s.BreakoutMinPts < 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("breakout_min_pts cannot be negative, got %f", s.BreakoutMinPts))
	}
	positives := []struct {
		name  string
		value float64
	}{
		{"trail_activation_pts", s.TrailActivationPts},
		{"trail_distance_pts", s.TrailDistancePts},
		{"stop_pts", s.StopPts},
		{"target_pts", s.TargetPts},
		{"point_value", s.PointValue},
	}
	for _, p := range positives {
		if p.value <= 0 {
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("%s must be positive, got %f", p.name, p.value))
		}
	}
	if s.MaxBars < 1 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("max_bars must be at least 1, got %d", s.MaxBars))
	}
	if !s.EnableFailedTest && !s.EnableBounce && !s.EnableBreakout {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("at least one entry type must be enabled"))
	}
	return nil
}
