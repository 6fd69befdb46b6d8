// Package config loads service configuration from environment variables and
// an optional .env file.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config holds all service configuration.
type Config struct {
	Server ServerConfig
	Redis  RedisConfig
	Auth   AuthConfig
	Reward RewardConfig
}

// ServerConfig holds the HTTP listener configuration.
type ServerConfig struct {
	Addr string
}

// RedisConfig holds the Redis connection configuration. An empty URL selects
// the in-memory store, for development and tests.
type RedisConfig struct {
	URL string
}

// AuthConfig holds challenge and session lifetimes and the token signing key.
type AuthConfig struct {
	ChallengeTTL time.Duration
	SessionTTL   time.Duration

	// SigningKeyHex is an optional hex-encoded P-256 private key scalar.
	// When empty an ephemeral key is generated at startup, which invalidates
	// outstanding sessions on restart.
	SigningKeyHex string
}

// RewardConfig holds the token amounts granted by the pipeline.
type RewardConfig struct {
	CourseCompletionAmount decimal.Decimal
	QuizBonusAmount        decimal.Decimal
}

// Load reads configuration from the environment, consulting .env when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Addr: getEnv("LISTEN_ADDR", ":9000"),
		},
		Redis: RedisConfig{
			URL: os.Getenv("REDIS_URL"),
		},
		Auth: AuthConfig{
			SigningKeyHex: os.Getenv("SESSION_SIGNING_KEY"),
		},
	}

	var err error
	if cfg.Auth.ChallengeTTL, err = getDuration("CHALLENGE_TTL", 5*time.Minute); err != nil {
		return nil, err
	}
	if cfg.Auth.SessionTTL, err = getDuration("SESSION_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.Reward.CourseCompletionAmount, err = getDecimal("COURSE_COMPLETION_REWARD", "100"); err != nil {
		return nil, err
	}
	if cfg.Reward.QuizBonusAmount, err = getDecimal("QUIZ_BONUS_REWARD", "25"); err != nil {
		return nil, err
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getDecimal(key, fallback string) (decimal.Decimal, error) {
	v := os.Getenv(key)
	if v == "" {
		v = fallback
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
