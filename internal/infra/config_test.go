package infra

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
server:
  addr: ":8080"
engine:
  escrow_account: "escrow-engine"
  treasury_address: "treasury"
  reward_pool_address: "reward-pool"
  fee_rate_bps: 500
  treasury_fee_rate_bps: 3000
  mead_per_second: "1.5"
storage:
  postgres_dsn: ""
  redis_addr: ""
  cache_ttl_sec: 60
  event_channel: "escrow.events"
logging:
  level: "info"
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "escrow-engine", cfg.Engine.EscrowAccount)
	assert.Equal(t, int64(500), cfg.Engine.FeeRateBps)
	assert.Equal(t, int64(3000), cfg.Engine.TreasuryFeeRateBps)
	assert.Equal(t, 60, cfg.Storage.CacheTTLSec)
	assert.True(t, cfg.MeadRate().Equal(decimal.RequireFromString("1.5")))
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("ESCROW_HTTP_ADDR", ":9090")
	t.Setenv("ESCROW_PG_DSN", "postgres://env/override")
	t.Setenv("ESCROW_REDIS_ADDR", "redis:6379")

	cfg, err := LoadConfig(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "postgres://env/override", cfg.Storage.PostgresDSN)
	assert.Equal(t, "redis:6379", cfg.Storage.RedisAddr)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := func() Config {
		var c Config
		c.Server.Addr = ":8080"
		c.Engine.EscrowAccount = "escrow-engine"
		c.Engine.TreasuryAddress = "treasury"
		c.Engine.RewardPoolAddress = "reward-pool"
		c.Engine.FeeRateBps = 500
		c.Engine.TreasuryFeeRateBps = 3000
		return c
	}

	t.Run("ok", func(t *testing.T) {
		c := base()
		assert.NoError(t, c.Validate())
	})
	t.Run("missing addr", func(t *testing.T) {
		c := base()
		c.Server.Addr = ""
		assert.Error(t, c.Validate())
	})
	t.Run("missing escrow account", func(t *testing.T) {
		c := base()
		c.Engine.EscrowAccount = ""
		assert.Error(t, c.Validate())
	})
	t.Run("fee rate out of range", func(t *testing.T) {
		c := base()
		c.Engine.FeeRateBps = 10001
		assert.Error(t, c.Validate())
	})
	t.Run("bad mead rate", func(t *testing.T) {
		c := base()
		c.Engine.MeadPerSecond = "not-a-number"
		assert.Error(t, c.Validate())
	})
	t.Run("negative mead rate", func(t *testing.T) {
		c := base()
		c.Engine.MeadPerSecond = "-1"
		assert.Error(t, c.Validate())
	})
	t.Run("negative cache ttl", func(t *testing.T) {
		c := base()
		c.Storage.CacheTTLSec = -1
		assert.Error(t, c.Validate())
	})
}

func TestMeadRateDefaultsToZero(t *testing.T) {
	var c Config
	assert.True(t, c.MeadRate().IsZero())
}
