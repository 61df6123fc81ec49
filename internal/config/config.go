package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"market-movers-alerts/internal/logging"
)

// Config materialises application configuration.
type Config struct {
	App        AppConfig       `mapstructure:"app"`
	Logging    logging.Config  `mapstructure:"logging"`
	Source     SourceConfig    `mapstructure:"source"`
	Thresholds ThresholdConfig `mapstructure:"thresholds"`
	Filters    FilterConfig    `mapstructure:"filters"`
	Dedup      DedupConfig     `mapstructure:"dedup"`
	Delivery   DeliveryConfig  `mapstructure:"delivery"`
	Database   DatabaseConfig  `mapstructure:"database"`
	Scheduler  SchedulerConfig `mapstructure:"scheduler"`
	Export     ExportConfig    `mapstructure:"export"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// SourceConfig selects and tunes the market data provider.
type SourceConfig struct {
	Provider       string        `mapstructure:"provider"` // auto | gecko | paprika
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	UserAgent      string        `mapstructure:"user_agent"`
	Gecko          GeckoConfig   `mapstructure:"gecko"`
	Paprika        PaprikaConfig `mapstructure:"paprika"`
}

// GeckoConfig covers the CoinGecko markets endpoint.
type GeckoConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Pages   int           `mapstructure:"pages"`
	PerPage int           `mapstructure:"per_page"`
	Backoff time.Duration `mapstructure:"backoff"`
}

// PaprikaConfig covers the CoinPaprika tickers endpoint.
type PaprikaConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

// ThresholdConfig holds the 24h change trigger levels in percent.
type ThresholdConfig struct {
	UpPct   float64 `mapstructure:"up_pct"`
	DownPct float64 `mapstructure:"down_pct"`
}

// FilterConfig holds liquidity and market-cap admission limits in USD.
// Zero disables a rule; max_market_cap = 0 means unbounded.
type FilterConfig struct {
	MinVolume24h float64 `mapstructure:"min_volume_24h"`
	MinMarketCap float64 `mapstructure:"min_market_cap"`
	MaxMarketCap float64 `mapstructure:"max_market_cap"`
}

// DedupConfig governs the watermark state and re-trigger deltas.
type DedupConfig struct {
	StatePath       string  `mapstructure:"state_path"`
	ResendDeltaUp   float64 `mapstructure:"resend_delta_up"`
	ResendDeltaDown float64 `mapstructure:"resend_delta_down"`
	RetentionDays   int     `mapstructure:"retention_days"`
	Timezone        string  `mapstructure:"timezone"`
	Debug           bool    `mapstructure:"debug"`
}

// DeliveryConfig shapes notification batching and routing.
type DeliveryConfig struct {
	Mode           string         `mapstructure:"mode"` // digest | per-asset
	MaxItemsPerRun int            `mapstructure:"max_items_per_run"`
	MaxDownItems   int            `mapstructure:"max_down_items"`
	MaxUpItems     int            `mapstructure:"max_up_items"`
	UpIcon         string         `mapstructure:"up_icon"`
	DownIcon       string         `mapstructure:"down_icon"`
	ShowVolume     bool           `mapstructure:"show_volume"`
	ShowMarketCap  bool           `mapstructure:"show_market_cap"`
	SendSpacing    time.Duration  `mapstructure:"send_spacing"`
	Telegram       TelegramConfig `mapstructure:"telegram"`
}

// TelegramConfig describes the Telegram delivery channel.
type TelegramConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	BotToken       string        `mapstructure:"bot_token"`
	ChatID         string        `mapstructure:"chat_id"`
	APIBase        string        `mapstructure:"api_base"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// DatabaseConfig encapsulates the optional PostgreSQL alert audit trail.
type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AdvisoryLockKey int64         `mapstructure:"advisory_lock_key"`
}

// SchedulerConfig governs the watch-mode polling cadence.
type SchedulerConfig struct {
	Interval      time.Duration `mapstructure:"interval"`
	AlignToBucket bool          `mapstructure:"align_to_bucket"`
	StartupDelay  time.Duration `mapstructure:"startup_delay"`
}

// ExportConfig sets CLI export behaviour.
type ExportConfig struct {
	MaxDays int `mapstructure:"max_days"`
}

// Load builds configuration from file, environment, and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("MOVERSWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "moverswatch")
	v.SetDefault("app.environment", "development")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("source.provider", "auto")
	v.SetDefault("source.request_timeout", "15s")
	v.SetDefault("source.user_agent", "moverswatch/1.0")
	v.SetDefault("source.gecko.base_url", "https://api.coingecko.com/api/v3")
	v.SetDefault("source.gecko.pages", 1)
	v.SetDefault("source.gecko.per_page", 250)
	v.SetDefault("source.gecko.backoff", "1200ms")
	v.SetDefault("source.paprika.base_url", "https://api.coinpaprika.com")

	v.SetDefault("thresholds.up_pct", 100.0)
	v.SetDefault("thresholds.down_pct", -40.0)

	v.SetDefault("filters.min_volume_24h", 2000000.0)
	v.SetDefault("filters.min_market_cap", 0.0)
	v.SetDefault("filters.max_market_cap", 0.0)

	v.SetDefault("dedup.state_path", ".state/alerts_state.json")
	v.SetDefault("dedup.resend_delta_up", 5.0)
	v.SetDefault("dedup.resend_delta_down", 5.0)
	v.SetDefault("dedup.retention_days", 0)
	v.SetDefault("dedup.timezone", "Asia/Ho_Chi_Minh")
	v.SetDefault("dedup.debug", false)

	v.SetDefault("delivery.mode", "digest")
	v.SetDefault("delivery.max_items_per_run", 60)
	v.SetDefault("delivery.max_down_items", 0)
	v.SetDefault("delivery.max_up_items", 0)
	v.SetDefault("delivery.up_icon", "🟢⬆️")
	v.SetDefault("delivery.down_icon", "🔻")
	v.SetDefault("delivery.show_volume", false)
	v.SetDefault("delivery.show_market_cap", false)
	v.SetDefault("delivery.send_spacing", "200ms")
	v.SetDefault("delivery.telegram.enabled", false)
	v.SetDefault("delivery.telegram.api_base", "https://api.telegram.org")
	v.SetDefault("delivery.telegram.request_timeout", "10s")

	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("database.advisory_lock_key", int64(0x6d6f7665))

	v.SetDefault("scheduler.interval", "15m")
	v.SetDefault("scheduler.align_to_bucket", true)
	v.SetDefault("scheduler.startup_delay", "0s")

	v.SetDefault("export.max_days", 90)
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// Validate performs basic sanity checks on the configuration values.
func (c *Config) Validate() error {
	switch c.Source.Provider {
	case "auto", "gecko", "paprika":
	default:
		return fmt.Errorf("source.provider must be auto, gecko, or paprika")
	}
	if c.Dedup.ResendDeltaUp < 0 || c.Dedup.ResendDeltaDown < 0 {
		return fmt.Errorf("dedup resend deltas cannot be negative")
	}
	if c.Dedup.Timezone != "" {
		if _, err := time.LoadLocation(c.Dedup.Timezone); err != nil {
			return fmt.Errorf("dedup.timezone invalid: %w", err)
		}
	}
	switch c.Delivery.Mode {
	case "digest", "per-asset":
	default:
		return fmt.Errorf("delivery.mode must be digest or per-asset")
	}
	if c.Delivery.Telegram.Enabled {
		if c.Delivery.Telegram.BotToken == "" {
			return fmt.Errorf("delivery.telegram.bot_token is required")
		}
		if c.Delivery.Telegram.ChatID == "" {
			return fmt.Errorf("delivery.telegram.chat_id is required")
		}
	}
	if c.Scheduler.Interval <= 0 {
		return fmt.Errorf("scheduler.interval must be greater than zero")
	}
	if c.Export.MaxDays <= 0 {
		return fmt.Errorf("export.max_days must be greater than zero")
	}
	return nil
}

// Location resolves the reference timezone used for day bucketing.
func (c *Config) Location() (*time.Location, error) {
	if c.Dedup.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(c.Dedup.Timezone)
}

// ResolveMaxDownItems resolves the down-section cap, falling back to the run cap.
func (c *DeliveryConfig) ResolveMaxDownItems() int {
	if c.MaxDownItems > 0 {
		return c.MaxDownItems
	}
	return c.MaxItemsPerRun
}

// ResolveMaxUpItems resolves the up-section cap, falling back to the run cap.
func (c *DeliveryConfig) ResolveMaxUpItems() int {
	if c.MaxUpItems > 0 {
		return c.MaxUpItems
	}
	return c.MaxItemsPerRun
}
