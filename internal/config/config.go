package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Log       LoggingConfig   `yaml:"log"`
	Extended  ExtendedConfig  `yaml:"extended"`
	Pacifica  PacificaConfig  `yaml:"pacifica"`
	State     StateConfig     `yaml:"state"`
	Strategy  StrategyConfig  `yaml:"strategy"`
	Risk      RiskConfig      `yaml:"risk"`
	Pairs     []PairConfig    `yaml:"pairs"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Timescale TimescaleConfig `yaml:"timescale"`
	Telegram  TelegramConfig  `yaml:"telegram"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

type ExtendedConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

type PacificaConfig struct {
	BaseURL        string        `yaml:"base_url"`
	WSURL          string        `yaml:"ws_url"`
	Timeout        time.Duration `yaml:"timeout"`
	ReconnectDelay time.Duration `yaml:"reconnect_delay"`
	PingInterval   time.Duration `yaml:"ping_interval"`
}

type StateConfig struct {
	SQLitePath string `yaml:"sqlite_path"`
}

type StrategyConfig struct {
	NotionalUSD float64 `yaml:"notional_usd"`
	// Thresholds are percentages, matching the decision engine's units.
	FundingDiffThreshold float64       `yaml:"funding_diff_threshold"`
	PriceSpreadThreshold float64       `yaml:"price_spread_threshold"`
	PriceHaircut         float64       `yaml:"price_haircut"`
	SlippagePercent      float64       `yaml:"slippage_percent"`
	Interval             time.Duration `yaml:"interval"`
	// AlignMinute fires the cycle at a fixed minute of each hour instead of
	// the plain interval ticker. Nil disables alignment.
	AlignMinute *int `yaml:"align_minute"`
}

type RiskConfig struct {
	MaxNotionalUSD float64 `yaml:"max_notional_usd"`
}

// PairConfig maps one symbol pair across the two venues, e.g. ETH-USD / ETH.
type PairConfig struct {
	Extended string `yaml:"extended"`
	Pacifica string `yaml:"pacifica"`
}

func (p PairConfig) String() string {
	return p.Extended + "/" + p.Pacifica
}

type MetricsConfig struct {
	Enabled    bool   `yaml:"enabled"`
	ListenAddr string `yaml:"listen_addr"`
}

type TimescaleConfig struct {
	Enabled         bool          `yaml:"enabled"`
	DSN             string        `yaml:"dsn"`
	Schema          string        `yaml:"schema"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	QueueSize       int           `yaml:"queue_size"`
}

type TelegramConfig struct {
	Enabled bool   `yaml:"enabled"`
	Token   string `yaml:"token"`
	ChatID  string `yaml:"chat_id"`
}

func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	return &cfg, validate(&cfg)
}

func applyDefaults(cfg *Config) {
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Extended.BaseURL == "" {
		cfg.Extended.BaseURL = "https://api.starknet.extended.exchange"
	}
	if cfg.Extended.Timeout == 0 {
		cfg.Extended.Timeout = 10 * time.Second
	}
	if cfg.Pacifica.BaseURL == "" {
		cfg.Pacifica.BaseURL = "https://api.pacifica.fi"
	}
	if cfg.Pacifica.WSURL == "" {
		cfg.Pacifica.WSURL = "wss://ws.pacifica.fi/ws"
	}
	if cfg.Pacifica.Timeout == 0 {
		cfg.Pacifica.Timeout = 10 * time.Second
	}
	if cfg.Pacifica.ReconnectDelay == 0 {
		cfg.Pacifica.ReconnectDelay = 3 * time.Second
	}
	if cfg.Pacifica.PingInterval == 0 {
		cfg.Pacifica.PingInterval = 30 * time.Second
	}
	if cfg.State.SQLitePath == "" {
		cfg.State.SQLitePath = "data/funding-arb-bot.db"
	}
	if cfg.Strategy.FundingDiffThreshold == 0 {
		cfg.Strategy.FundingDiffThreshold = 0.001
	}
	if cfg.Strategy.PriceSpreadThreshold == 0 {
		cfg.Strategy.PriceSpreadThreshold = 0.02
	}
	if cfg.Strategy.PriceHaircut == 0 {
		cfg.Strategy.PriceHaircut = 0.99
	}
	if cfg.Strategy.SlippagePercent == 0 {
		cfg.Strategy.SlippagePercent = 0.01
	}
	if cfg.Strategy.Interval == 0 {
		cfg.Strategy.Interval = time.Hour
	}
}

func validate(cfg *Config) error {
	if cfg.Strategy.NotionalUSD <= 0 {
		return errors.New("strategy.notional_usd must be > 0")
	}
	if cfg.Risk.MaxNotionalUSD > 0 && cfg.Strategy.NotionalUSD > cfg.Risk.MaxNotionalUSD {
		return errors.New("strategy.notional_usd exceeds risk.max_notional_usd")
	}
	if len(cfg.Pairs) == 0 {
		return errors.New("at least one symbol pair is required")
	}
	for i, pair := range cfg.Pairs {
		if pair.Extended == "" || pair.Pacifica == "" {
			return fmt.Errorf("pairs[%d]: both extended and pacifica symbols are required", i)
		}
	}
	if cfg.Strategy.AlignMinute != nil {
		if m := *cfg.Strategy.AlignMinute; m < 0 || m > 59 {
			return errors.New("strategy.align_minute must be between 0 and 59")
		}
	}
	if cfg.Strategy.PriceHaircut <= 0 || cfg.Strategy.PriceHaircut > 1 {
		return errors.New("strategy.price_haircut must be in (0, 1]")
	}
	return nil
}
