/**
 * @description
 * Configuration loader for the PriceBet Backend.
 * Responsible for reading environment variables, setting defaults, and performing strict validation.
 *
 * @dependencies
 * - github.com/joho/godotenv: For loading .env files
 * - standard "os": For reading env vars
 *
 * @notes
 * - Fails fast if critical variables (Database URL, chain RPC) are missing.
 * - Business parameters (admin, fee taker, fee rate, paying asset, oracle id)
 *   are NOT env vars; they live in the core_config row and are set via Init.
 */

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Server ServerConfig
	DB     DBConfig
	Redis  RedisConfig
	Chain  ChainConfig
	Oracle OracleConfig
	Auth   AuthConfig
	Worker WorkerConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port string
	Env  string // "development" or "production"
}

// DBConfig holds PostgreSQL settings
type DBConfig struct {
	URL string
}

// RedisConfig holds Redis settings
type RedisConfig struct {
	URL string
}

// ChainConfig holds settlement-chain settings for the escrow adapter
type ChainConfig struct {
	RPCURL          string
	TreasuryAddress string // the address holding pooled deposits
	OperatorKey     string // hex private key authorized to move treasury funds
	ChainID         int64
}

// OracleConfig holds price-feed settings
type OracleConfig struct {
	FeedURL string // websocket endpoint of the price feed
}

// AuthConfig holds JWT validation settings
type AuthConfig struct {
	JWKSURL string
}

// WorkerConfig holds background worker cadence settings
type WorkerConfig struct {
	ExecuteIntervalSec   int
	KeepAliveIntervalSec int
}

// Load reads .env file and populates the Config struct
func Load() (*Config, error) {
	// Attempt to load .env, but don't crash if it fails (prod might inject env vars directly)
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
			Env:  getEnv("GO_ENV", "development"),
		},
		DB: DBConfig{
			URL: getEnv("DATABASE_URL", ""),
		},
		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		Chain: ChainConfig{
			RPCURL:          getEnv("CHAIN_RPC_URL", ""),
			TreasuryAddress: sanitizeCredential(getEnv("TREASURY_ADDRESS", "")),
			OperatorKey:     sanitizeCredential(getEnv("TREASURY_OPERATOR_KEY", "")),
			ChainID:         int64(getEnvAsInt("CHAIN_ID", 137)),
		},
		Oracle: OracleConfig{
			FeedURL: getEnv("ORACLE_FEED_URL", ""),
		},
		Auth: AuthConfig{
			JWKSURL: getEnv("AUTH_JWKS_URL", ""),
		},
		Worker: WorkerConfig{
			ExecuteIntervalSec:   getEnvAsInt("WORKER_EXECUTE_INTERVAL", 30),
			KeepAliveIntervalSec: getEnvAsInt("WORKER_KEEPALIVE_INTERVAL", 300),
		},
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate checks for required variables
func validate(cfg *Config) error {
	if cfg.DB.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.Auth.JWKSURL == "" && cfg.Server.Env != "test" {
		// Strictly required for the auth middleware on protected routes
		fmt.Println("Warning: AUTH_JWKS_URL is missing. Auth middleware will fail.")
	}
	return nil
}

// Helper to get env var with default
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func sanitizeCredential(value string) string {
	trimmed := strings.TrimSpace(value)
	return strings.Trim(trimmed, "\"")
}

// Helper to get env var as int
func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}
