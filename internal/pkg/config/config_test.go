package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("dev", t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "Asia/Kolkata", cfg.Coupon.TimeZone)
	assert.Equal(t, 8, cfg.Coupon.BatchConcurrency)
	assert.Equal(t, 10*time.Minute, cfg.Coupon.UserCacheTTL)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	content := []byte(`
server:
  port: "9090"
coupon:
  timezone: "UTC"
  session_year: 2030
  batch_concurrency: 2
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.staging.yaml"), content, 0o644))

	cfg, err := Load("staging", dir)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "UTC", cfg.Coupon.TimeZone)
	assert.Equal(t, 2030, cfg.Coupon.SessionYear)
	assert.Equal(t, 2, cfg.Coupon.BatchConcurrency)
}

func TestValidate(t *testing.T) {
	valid := Config{
		JWT:      JWTConfig{Secret: "0123456789abcdef0123456789abcdef"},
		Database: DatabaseConfig{Host: "localhost", User: "u", DBName: "coupons"},
		Redis:    RedisConfig{Addr: "localhost:6379"},
		Coupon:   CouponConfig{TimeZone: "Asia/Kolkata", BatchConcurrency: 4},
	}
	assert.NoError(t, valid.Validate())

	t.Run("short secret", func(t *testing.T) {
		c := valid
		c.JWT.Secret = "short"
		assert.Error(t, c.Validate())
	})

	t.Run("bad timezone", func(t *testing.T) {
		c := valid
		c.Coupon.TimeZone = "Mars/Olympus"
		assert.Error(t, c.Validate())
	})

	t.Run("zero batch concurrency", func(t *testing.T) {
		c := valid
		c.Coupon.BatchConcurrency = 0
		assert.Error(t, c.Validate())
	})
}

func TestCurrentSessionYear(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)

	// 2025-12-31 20:00 UTC 在印度时区已是 2026 年
	now := time.Date(2025, 12, 31, 20, 0, 0, 0, time.UTC)

	assert.Equal(t, 2026, CouponConfig{}.CurrentSessionYear(now, loc))
	assert.Equal(t, 2024, CouponConfig{SessionYear: 2024}.CurrentSessionYear(now, loc))
}
