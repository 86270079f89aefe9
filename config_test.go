package idemstore

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	for _, k := range []string{
		"IDEMSTORE_STORE_NAME", "IDEMSTORE_NAMESPACE", "IDEMSTORE_TIMEOUT", "IDEMSTORE_TTL",
		"IDEMSTORE_REDIS_ADDR", "IDEMSTORE_REDIS_PASSWORD", "IDEMSTORE_REDIS_DB",
	} {
		t.Setenv(k, "")
	}

	cfg := LoadConfig()

	assert.Equal(t, "", cfg.StoreName)
	assert.Equal(t, DefaultTimeout, cfg.Timeout)
	assert.Equal(t, time.Duration(0), cfg.TTL)
	assert.Equal(t, 0, cfg.RedisDB)
	assert.IsType(t, &Memory{}, cfg.Driver())
}

func TestLoadConfig_FromEnv(t *testing.T) {
	t.Setenv("IDEMSTORE_STORE_NAME", "orders")
	t.Setenv("IDEMSTORE_NAMESPACE", "shop")
	t.Setenv("IDEMSTORE_TIMEOUT", "250ms")
	t.Setenv("IDEMSTORE_TTL", "24h")
	t.Setenv("IDEMSTORE_REDIS_ADDR", "localhost:6379")
	t.Setenv("IDEMSTORE_REDIS_PASSWORD", "secret")
	t.Setenv("IDEMSTORE_REDIS_DB", "2")

	cfg := LoadConfig()

	assert.Equal(t, Config{
		StoreName:     "orders",
		Namespace:     "shop",
		Timeout:       250 * time.Millisecond,
		TTL:           24 * time.Hour,
		RedisAddr:     "localhost:6379",
		RedisPassword: "secret",
		RedisDB:       2,
	}, cfg)
}

func TestLoadConfig_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("IDEMSTORE_TIMEOUT", "soon")
	t.Setenv("IDEMSTORE_TTL", "-5s")
	t.Setenv("IDEMSTORE_REDIS_DB", "two")

	cfg := LoadConfig()

	assert.Equal(t, DefaultTimeout, cfg.Timeout)
	assert.Equal(t, time.Duration(0), cfg.TTL)
	assert.Equal(t, 0, cfg.RedisDB)
}

func TestNewFromConfig_Redis(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	cfg := Config{StoreName: "orders", Namespace: "shop", Timeout: time.Second, RedisAddr: mr.Addr()}
	a := NewFromConfig[string](cfg)
	require.NoError(t, a.Start())
	defer a.Stop()

	ctx := context.Background()
	added, err := a.Add(ctx, "k1")
	require.NoError(t, err)
	assert.True(t, added)

	assert.True(t, mr.Exists("shop:orders:k1"))
	assert.Equal(t, "orders", a.StoreName())
}

func TestNewFromConfig_OptionsOverride(t *testing.T) {
	cfg := Config{StoreName: "orders", Timeout: time.Second}
	a := NewFromConfig[string](cfg, WithStoreName[string]("refunds"), WithTimeout[string](0))

	assert.Equal(t, "refunds", a.StoreName())
	assert.Equal(t, time.Duration(0), a.timeout)
	assert.IsType(t, &Memory{}, a.driver)
}

func TestNewFromConfig_DriverOptionSkipsConfigDriver(t *testing.T) {
	mem := NewMemory()
	cfg := Config{StoreName: "orders", RedisAddr: "127.0.0.1:1"}
	a := NewFromConfig[string](cfg, WithDriver[string](mem))
	require.NoError(t, a.Start())
	defer a.Stop()

	assert.Same(t, mem, a.driver, "caller driver must replace the config driver")

	added, err := a.Add(context.Background(), "k1")
	require.NoError(t, err)
	assert.True(t, added)
	assert.Equal(t, 1, mem.Len())
}
