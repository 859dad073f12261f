package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/kevin07696/ixopay-gateway/internal/adapters/ixopay"
	"github.com/kevin07696/ixopay-gateway/internal/adapters/ports"
)

// Config holds all application configuration
type Config struct {
	Server  ServerConfig
	Gateway GatewayConfig
	Secrets SecretsConfig
	Logger  LoggerConfig
}

// ServerConfig holds the callback receiver configuration
type ServerConfig struct {
	Port        int
	Host        string
	MetricsPort int
	// ShutdownTimeout bounds graceful shutdown
	ShutdownTimeout time.Duration
	// CallbackMaxSkew bounds the callback Date header age; zero disables the check
	CallbackMaxSkew time.Duration
	// Per client IP limit on the callback route; zero disables it
	CallbackRateLimitRPS   float64
	CallbackRateLimitBurst int
}

// GatewayConfig holds Ixopay credentials and tuning
type GatewayConfig struct {
	Environment     string // test or live
	BaseURL         string // overrides the environment's URL when set
	Username        string
	Password        string
	APIKey          string
	SharedSecret    string
	SuccessURL      string
	CallbackURL     string
	DefaultCurrency string
	Timeout         int // seconds
	RateLimitRPS    float64
	RateLimitBurst  int
}

// SecretsConfig selects where the password and shared secret come from
type SecretsConfig struct {
	Backend string // env, local, aws or vault

	// Paths handed to the provider; their format depends on the backend
	PasswordPath     string
	SharedSecretPath string

	LocalBasePath string

	AWSRegion   string
	AWSProfile  string
	AWSEndpoint string

	VaultAddress   string
	VaultToken     string
	VaultRoleID    string
	VaultSecretID  string
	VaultMountPath string
}

// LoggerConfig holds logging configuration
type LoggerConfig struct {
	Level       string // debug, info, warn, error
	Development bool
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnvAsInt("SERVER_PORT", 8080),
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			MetricsPort:     getEnvAsInt("METRICS_PORT", 9090),
			ShutdownTimeout: time.Duration(getEnvAsInt("SHUTDOWN_TIMEOUT", 30)) * time.Second,
			CallbackMaxSkew: time.Duration(getEnvAsInt("CALLBACK_MAX_SKEW_SECONDS", 300)) * time.Second,

			CallbackRateLimitRPS:   getEnvAsFloat("CALLBACK_RATE_LIMIT_RPS", 20),
			CallbackRateLimitBurst: getEnvAsInt("CALLBACK_RATE_LIMIT_BURST", 40),
		},
		Gateway: GatewayConfig{
			Environment:     getEnv("IXOPAY_ENVIRONMENT", "test"),
			BaseURL:         getEnv("IXOPAY_BASE_URL", ""),
			Username:        getEnv("IXOPAY_USERNAME", ""),
			Password:        getEnv("IXOPAY_PASSWORD", ""),
			APIKey:          getEnv("IXOPAY_API_KEY", ""),
			SharedSecret:    getEnv("IXOPAY_SHARED_SECRET", ""),
			SuccessURL:      getEnv("IXOPAY_SUCCESS_URL", ""),
			CallbackURL:     getEnv("IXOPAY_CALLBACK_URL", ""),
			DefaultCurrency: getEnv("IXOPAY_DEFAULT_CURRENCY", "EUR"),
			Timeout:         getEnvAsInt("IXOPAY_TIMEOUT", 30),
			RateLimitRPS:    getEnvAsFloat("IXOPAY_RATE_LIMIT_RPS", 0),
			RateLimitBurst:  getEnvAsInt("IXOPAY_RATE_LIMIT_BURST", 1),
		},
		Secrets: SecretsConfig{
			Backend:          getEnv("SECRET_BACKEND", "env"),
			PasswordPath:     getEnv("IXOPAY_PASSWORD_PATH", "ixopay/password"),
			SharedSecretPath: getEnv("IXOPAY_SHARED_SECRET_PATH", "ixopay/shared_secret"),
			LocalBasePath:    getEnv("SECRET_LOCAL_PATH", "./secrets"),
			AWSRegion:        getEnv("AWS_REGION", "eu-central-1"),
			AWSProfile:       getEnv("AWS_PROFILE", ""),
			AWSEndpoint:      getEnv("AWS_SECRETS_ENDPOINT", ""),
			VaultAddress:     getEnv("VAULT_ADDR", "http://127.0.0.1:8200"),
			VaultToken:       getEnv("VAULT_TOKEN", ""),
			VaultRoleID:      getEnv("VAULT_ROLE_ID", ""),
			VaultSecretID:    getEnv("VAULT_SECRET_ID", ""),
			VaultMountPath:   getEnv("VAULT_MOUNT_PATH", "secret"),
		},
		Logger: LoggerConfig{
			Level:       getEnv("LOG_LEVEL", "info"),
			Development: getEnvAsBool("LOG_DEVELOPMENT", false),
		},
	}

	switch cfg.Gateway.Environment {
	case "test", "live":
	default:
		return nil, fmt.Errorf("IXOPAY_ENVIRONMENT must be test or live, got %q", cfg.Gateway.Environment)
	}

	switch cfg.Secrets.Backend {
	case "env":
		if cfg.Gateway.Password == "" {
			return nil, fmt.Errorf("IXOPAY_PASSWORD is required")
		}
		if cfg.Gateway.SharedSecret == "" {
			return nil, fmt.Errorf("IXOPAY_SHARED_SECRET is required")
		}
	case "local", "aws", "vault":
	default:
		return nil, fmt.Errorf("SECRET_BACKEND must be env, local, aws or vault, got %q", cfg.Secrets.Backend)
	}

	if cfg.Gateway.Username == "" {
		return nil, fmt.Errorf("IXOPAY_USERNAME is required")
	}
	if cfg.Gateway.APIKey == "" {
		return nil, fmt.Errorf("IXOPAY_API_KEY is required")
	}

	return cfg, nil
}

// ResolveSecrets fills the password and shared secret from provider.
// Values already set from the environment are kept.
func (c *Config) ResolveSecrets(ctx context.Context, provider ports.SecretProvider) error {
	if c.Gateway.Password == "" {
		secret, err := provider.GetSecret(ctx, c.Secrets.PasswordPath)
		if err != nil {
			return fmt.Errorf("resolve gateway password: %w", err)
		}
		c.Gateway.Password = secret.Value
	}
	if c.Gateway.SharedSecret == "" {
		secret, err := provider.GetSecret(ctx, c.Secrets.SharedSecretPath)
		if err != nil {
			return fmt.Errorf("resolve shared secret: %w", err)
		}
		c.Gateway.SharedSecret = secret.Value
	}
	return nil
}

// IxopayConfig builds the adapter configuration
func (c *Config) IxopayConfig() *ixopay.Config {
	gw := c.Gateway
	cfg := ixopay.DefaultConfig(gw.Environment)

	if gw.BaseURL != "" {
		cfg.BaseURL = gw.BaseURL
	}
	cfg.Username = gw.Username
	cfg.Password = gw.Password
	cfg.APIKey = gw.APIKey
	cfg.SharedSecret = gw.SharedSecret
	if gw.SuccessURL != "" {
		cfg.SuccessURL = gw.SuccessURL
	}
	if gw.CallbackURL != "" {
		cfg.CallbackURL = gw.CallbackURL
	}
	if gw.DefaultCurrency != "" {
		cfg.DefaultCurrency = gw.DefaultCurrency
	}
	if gw.Timeout > 0 {
		cfg.Timeout = time.Duration(gw.Timeout) * time.Second
	}
	cfg.RateLimitRPS = gw.RateLimitRPS
	cfg.RateLimitBurst = gw.RateLimitBurst

	return cfg
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
