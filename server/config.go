package server

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/tokenarena/poker/domain"
)

// Config holds the server configuration, read from the environment with an
// optional .env file for local development.
type Config struct {
	Port           string
	Env            string
	BigBlind       int
	DefaultBuyIn   int
	OpeningBalance int
	TurnTimeout    time.Duration
	RedisAddr      string // empty keeps snapshots in memory
	RedisPassword  string
	RedisDB        int
}

// LoadConfig reads configuration from the environment. Missing keys fall
// back to development defaults.
func LoadConfig() Config {
	_ = godotenv.Load()

	return Config{
		Port:           getEnv("SERVER_PORT", "8080"),
		Env:            getEnv("ENV", "development"),
		BigBlind:       getEnvInt("POKER_BIG_BLIND", 20),
		DefaultBuyIn:   getEnvInt("POKER_DEFAULT_BUY_IN", 1000),
		OpeningBalance: getEnvInt("POKER_OPENING_BALANCE", 10_000),
		TurnTimeout:    getEnvDuration("POKER_TURN_TIMEOUT", 0),
		RedisAddr:      getEnv("REDIS_ADDR", ""),
		RedisPassword:  getEnv("REDIS_PASSWORD", ""),
		RedisDB:        getEnvInt("REDIS_DB", 0),
	}
}

// Rules derives the table rules from the configuration. The small blind is
// always half the big blind.
func (c Config) Rules() domain.TableRules {
	rules := domain.DefaultRules()
	rules.BigBlind = c.BigBlind
	rules.SmallBlind = c.BigBlind / 2
	rules.TurnTimeout = c.TurnTimeout
	return rules
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}
