// Package config loads application configuration from the environment with
// an optional YAML overlay file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	// Application
	LogLevel string `yaml:"log_level"`
	LogFile  string `yaml:"log_file"`
	HTTPPort string `yaml:"http_port"`

	// Venue endpoints
	ClobURL  string `yaml:"clob_url"`
	WSURL    string `yaml:"ws_url"`
	GammaURL string `yaml:"gamma_url"`

	// Venue credentials
	APIKey     string `yaml:"api_key"`
	Secret     string `yaml:"secret"`
	Passphrase string `yaml:"passphrase"`

	// Wallet
	PrivateKey     string `yaml:"private_key"`
	Mnemonic       string `yaml:"mnemonic"`
	DerivationPath string `yaml:"derivation_path"`
	ProxyAddress   string `yaml:"proxy_address"`
	SignatureType  int    `yaml:"signature_type"`
	ChainID        int64  `yaml:"chain_id"`

	// Order submission
	RequestsPerSecond int           `yaml:"requests_per_second"`
	RetryMaxAttempts  int           `yaml:"retry_max_attempts"`
	RetryInitialDelay time.Duration `yaml:"retry_initial_delay"`
	FeeRateBps        int64         `yaml:"fee_rate_bps"`

	// Stream connections
	WSPoolSize              int           `yaml:"ws_pool_size"`
	WSDialTimeout           time.Duration `yaml:"ws_dial_timeout"`
	WSPongTimeout           time.Duration `yaml:"ws_pong_timeout"`
	WSPingInterval          time.Duration `yaml:"ws_ping_interval"`
	WSReconnectInitialDelay time.Duration `yaml:"ws_reconnect_initial_delay"`
	WSReconnectMaxDelay     time.Duration `yaml:"ws_reconnect_max_delay"`
	WSReconnectBackoffMult  float64       `yaml:"ws_reconnect_backoff_multiplier"`
	WSReconnectMaxAttempts  int           `yaml:"ws_reconnect_max_attempts"`
	WSMessageBufferSize     int           `yaml:"ws_message_buffer_size"`

	// Market metadata
	MarketCacheTTL time.Duration `yaml:"market_cache_ttl"`

	// Storage
	StorageMode  string `yaml:"storage_mode"` // "postgres" or "console"
	PostgresHost string `yaml:"postgres_host"`
	PostgresPort string `yaml:"postgres_port"`
	PostgresUser string `yaml:"postgres_user"`
	PostgresPass string `yaml:"postgres_password"`
	PostgresDB   string `yaml:"postgres_db"`
	PostgresSSL  string `yaml:"postgres_sslmode"`
}

// LoadFromEnv loads configuration from environment variables with defaults.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		LogLevel: getEnvOrDefault("LOG_LEVEL", "info"),
		LogFile:  os.Getenv("LOG_FILE"),
		HTTPPort: getEnvOrDefault("HTTP_PORT", "8080"),

		ClobURL:  getEnvOrDefault("CLOB_API_URL", "https://clob.polymarket.com"),
		WSURL:    getEnvOrDefault("WS_URL", "wss://ws-subscriptions-clob.polymarket.com/ws/market"),
		GammaURL: getEnvOrDefault("GAMMA_API_URL", "https://gamma-api.polymarket.com"),

		APIKey:     os.Getenv("API_KEY"),
		Secret:     os.Getenv("API_SECRET"),
		Passphrase: os.Getenv("API_PASSPHRASE"),

		PrivateKey:     os.Getenv("PRIVATE_KEY"),
		Mnemonic:       os.Getenv("MNEMONIC"),
		DerivationPath: os.Getenv("DERIVATION_PATH"),
		ProxyAddress:   os.Getenv("PROXY_ADDRESS"),
		SignatureType:  getIntOrDefault("SIGNATURE_TYPE", 0),
		ChainID:        int64(getIntOrDefault("CHAIN_ID", 137)),

		RequestsPerSecond: getIntOrDefault("REQUESTS_PER_SECOND", 10),
		RetryMaxAttempts:  getIntOrDefault("RETRY_MAX_ATTEMPTS", 3),
		RetryInitialDelay: getDurationOrDefault("RETRY_INITIAL_DELAY", 500*time.Millisecond),
		FeeRateBps:        int64(getIntOrDefault("FEE_RATE_BPS", 0)),

		WSPoolSize:              getIntOrDefault("WS_POOL_SIZE", 1),
		WSDialTimeout:           getDurationOrDefault("WS_DIAL_TIMEOUT", 10*time.Second),
		WSPongTimeout:           getDurationOrDefault("WS_PONG_TIMEOUT", 15*time.Second),
		WSPingInterval:          getDurationOrDefault("WS_PING_INTERVAL", 10*time.Second),
		WSReconnectInitialDelay: getDurationOrDefault("WS_RECONNECT_INITIAL_DELAY", time.Second),
		WSReconnectMaxDelay:     getDurationOrDefault("WS_RECONNECT_MAX_DELAY", 30*time.Second),
		WSReconnectBackoffMult:  getFloat64OrDefault("WS_RECONNECT_BACKOFF_MULTIPLIER", 2.0),
		WSReconnectMaxAttempts:  getIntOrDefault("WS_RECONNECT_MAX_ATTEMPTS", 10),
		WSMessageBufferSize:     getIntOrDefault("WS_MESSAGE_BUFFER_SIZE", 1000),

		MarketCacheTTL: getDurationOrDefault("MARKET_CACHE_TTL", 5*time.Minute),

		StorageMode:  getEnvOrDefault("STORAGE_MODE", "console"),
		PostgresHost: getEnvOrDefault("POSTGRES_HOST", "localhost"),
		PostgresPort: getEnvOrDefault("POSTGRES_PORT", "5432"),
		PostgresUser: getEnvOrDefault("POSTGRES_USER", "predictkit"),
		PostgresPass: getEnvOrDefault("POSTGRES_PASSWORD", "predictkit"),
		PostgresDB:   getEnvOrDefault("POSTGRES_DB", "predictkit"),
		PostgresSSL:  getEnvOrDefault("POSTGRES_SSLMODE", "disable"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// Load loads environment configuration and, if path is non-empty, overlays
// the YAML file on top. File values win over environment values.
func Load(path string) (*Config, error) {
	cfg, err := LoadFromEnv()
	if err != nil {
		return nil, err
	}
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// Validate checks that configuration values are valid.
func (c *Config) Validate() error {
	if c.HTTPPort == "" {
		return fmt.Errorf("HTTP_PORT cannot be empty")
	}
	if c.ClobURL == "" {
		return fmt.Errorf("CLOB_API_URL cannot be empty")
	}
	if c.WSURL == "" {
		return fmt.Errorf("WS_URL cannot be empty")
	}
	if c.RequestsPerSecond < 0 {
		return fmt.Errorf("REQUESTS_PER_SECOND cannot be negative, got %d", c.RequestsPerSecond)
	}
	if c.RetryMaxAttempts < 1 {
		return fmt.Errorf("RETRY_MAX_ATTEMPTS must be at least 1, got %d", c.RetryMaxAttempts)
	}
	if c.WSReconnectBackoffMult < 1.0 {
		return fmt.Errorf("WS_RECONNECT_BACKOFF_MULTIPLIER must be at least 1.0, got %f", c.WSReconnectBackoffMult)
	}
	if c.StorageMode != "postgres" && c.StorageMode != "console" {
		return fmt.Errorf("STORAGE_MODE must be 'postgres' or 'console', got %q", c.StorageMode)
	}
	if c.SignatureType < 0 || c.SignatureType > 2 {
		return fmt.Errorf("SIGNATURE_TYPE must be 0, 1 or 2, got %d", c.SignatureType)
	}
	return nil
}

// PostgresDSN assembles the connection string for the fills database.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.PostgresHost, c.PostgresPort, c.PostgresUser, c.PostgresPass, c.PostgresDB, c.PostgresSSL)
}

func getEnvOrDefault(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intVal, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return intVal
}

func getFloat64OrDefault(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	floatVal, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}
	return floatVal
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return duration
}
