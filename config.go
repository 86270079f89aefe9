package idemstore

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

// Config holds environment-driven settings for an Adapter.
type Config struct {
	StoreName string
	Namespace string

	// Timeout bounds each backing store call; zero disables the bound.
	Timeout time.Duration

	TTL time.Duration

	// RedisAddr selects the Redis driver when set.
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// LoadConfig reads IDEMSTORE_* variables, loading a .env file first if one exists.
func LoadConfig() Config {
	// A missing .env file is not an error.
	_ = godotenv.Load()

	return Config{
		StoreName:     getString("IDEMSTORE_STORE_NAME", ""),
		Namespace:     getString("IDEMSTORE_NAMESPACE", ""),
		Timeout:       getDuration("IDEMSTORE_TIMEOUT", DefaultTimeout),
		TTL:           getDuration("IDEMSTORE_TTL", 0),
		RedisAddr:     getString("IDEMSTORE_REDIS_ADDR", ""),
		RedisPassword: getString("IDEMSTORE_REDIS_PASSWORD", ""),
		RedisDB:       getInt("IDEMSTORE_REDIS_DB", 0),
	}
}

// Driver returns a Redis driver when RedisAddr is set, otherwise a Memory driver.
func (c Config) Driver() Driver {
	if c.RedisAddr == "" {
		return NewMemory()
	}
	return DialRedis(&redis.Options{
		Addr:     c.RedisAddr,
		Password: c.RedisPassword,
		DB:       c.RedisDB,
	})
}

// NewFromConfig creates an Adapter from cfg. opts are applied after the
// config-derived options and can override them. The config driver is only
// built when opts do not supply one.
func NewFromConfig[TKey ~string](cfg Config, opts ...Option[TKey]) *Adapter[TKey] {
	base := []Option[TKey]{
		WithStoreName[TKey](cfg.StoreName),
		WithNamespace[TKey](cfg.Namespace),
		WithTimeout[TKey](cfg.Timeout),
		WithTTL[TKey](cfg.TTL),
	}
	a := New[TKey](append(base, opts...)...)
	if a.driver == nil {
		a.driver = cfg.Driver()
	}
	return a
}

func getString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil && d >= 0 {
			return d
		}
	}
	return defaultValue
}
