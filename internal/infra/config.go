package infra

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Config holds everything the server needs at startup. Values from the yaml
// file can be overridden through environment variables for secrets and
// deploy-specific wiring.
type Config struct {
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`

	Engine struct {
		EscrowAccount      string `yaml:"escrow_account"`
		TreasuryAddress    string `yaml:"treasury_address"`
		RewardPoolAddress  string `yaml:"reward_pool_address"`
		FeeRateBps         int64  `yaml:"fee_rate_bps"`
		TreasuryFeeRateBps int64  `yaml:"treasury_fee_rate_bps"`
		MeadPerSecond      string `yaml:"mead_per_second"`
	} `yaml:"engine"`

	Storage struct {
		PostgresDSN   string `yaml:"postgres_dsn"`
		RedisAddr     string `yaml:"redis_addr"`
		RedisPassword string `yaml:"redis_password"`
		RedisDB       int    `yaml:"redis_db"`
		CacheTTLSec   int    `yaml:"cache_ttl_sec"`
		EventChannel  string `yaml:"event_channel"`
	} `yaml:"storage"`

	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	overrideWithEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server addr is required")
	}
	if c.Engine.EscrowAccount == "" {
		return fmt.Errorf("engine escrow account is required")
	}
	if c.Engine.TreasuryAddress == "" || c.Engine.RewardPoolAddress == "" {
		return fmt.Errorf("treasury and reward pool addresses are required")
	}
	if c.Engine.FeeRateBps < 0 || c.Engine.FeeRateBps > 10000 {
		return fmt.Errorf("fee_rate_bps must be within [0, 10000]")
	}
	if c.Engine.TreasuryFeeRateBps < 0 || c.Engine.TreasuryFeeRateBps > 10000 {
		return fmt.Errorf("treasury_fee_rate_bps must be within [0, 10000]")
	}
	if c.Engine.MeadPerSecond != "" {
		rate, err := decimal.NewFromString(c.Engine.MeadPerSecond)
		if err != nil {
			return fmt.Errorf("mead_per_second: %w", err)
		}
		if rate.IsNegative() {
			return fmt.Errorf("mead_per_second must not be negative")
		}
	}
	if c.Storage.CacheTTLSec < 0 {
		return fmt.Errorf("cache_ttl_sec must not be negative")
	}
	return nil
}

// MeadRate returns the configured brewery production rate; Validate has
// already checked it parses.
func (c *Config) MeadRate() decimal.Decimal {
	if c.Engine.MeadPerSecond == "" {
		return decimal.Zero
	}
	rate, err := decimal.NewFromString(c.Engine.MeadPerSecond)
	if err != nil {
		return decimal.Zero
	}
	return rate
}

func overrideWithEnv(cfg *Config) {
	if dsn := os.Getenv("ESCROW_PG_DSN"); dsn != "" {
		cfg.Storage.PostgresDSN = dsn
	}
	if addr := os.Getenv("ESCROW_REDIS_ADDR"); addr != "" {
		cfg.Storage.RedisAddr = addr
	}
	if pass := os.Getenv("ESCROW_REDIS_PASSWORD"); pass != "" {
		cfg.Storage.RedisPassword = pass
	}
	if addr := os.Getenv("ESCROW_HTTP_ADDR"); addr != "" {
		cfg.Server.Addr = addr
	}
}
