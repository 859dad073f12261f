package ixopay

import (
	"fmt"
	"net/url"
	"time"

	pkgerrors "github.com/kevin07696/ixopay-gateway/pkg/errors"
	"github.com/kevin07696/ixopay-gateway/pkg/resilience"
	"github.com/shopspring/decimal"
)

const (
	// Ixopay serves test and live traffic from the same host; the credentials
	// decide which merchant account is charged.
	testBaseURL = "https://secure.ixopay.com"
	liveBaseURL = "https://secure.ixopay.com"

	// placeholderURL is sent when neither the config nor the call supplies a URL
	placeholderURL = "http://example.com"
)

// Config contains configuration for the Ixopay gateway adapter
type Config struct {
	// BaseURL without the /transaction path
	BaseURL string

	// Credentials. Password is sent as its SHA-1 hex digest; SharedSecret
	// never leaves the process and only keys the request signature.
	Username     string
	Password     string
	APIKey       string
	SharedSecret string

	// Defaults used when a call leaves them empty
	SuccessURL      string
	CallbackURL     string
	DefaultCurrency string

	// VerifyAmount is the nominal amount authorized (and voided) by Verify
	VerifyAmount decimal.Decimal

	// HTTP client timeout
	Timeout time.Duration

	// Outbound rate limit; RateLimitRPS <= 0 disables it
	RateLimitRPS   float64
	RateLimitBurst int

	CircuitBreaker resilience.CircuitBreakerConfig
}

// DefaultConfig returns defaults for "test" or "live"
func DefaultConfig(environment string) *Config {
	baseURL := liveBaseURL
	if environment != "live" {
		baseURL = testBaseURL
	}

	return &Config{
		BaseURL:         baseURL,
		SuccessURL:      placeholderURL,
		CallbackURL:     placeholderURL,
		DefaultCurrency: "EUR",
		VerifyAmount:    decimal.NewFromInt(1),
		Timeout:         30 * time.Second,
		RateLimitBurst:  1,
		CircuitBreaker:  resilience.DefaultCircuitBreakerConfig(),
	}
}

// Validate checks the credentials and endpoint
func (c *Config) Validate() error {
	if c.Username == "" {
		return pkgerrors.NewValidationError("username", "is required")
	}
	if c.Password == "" {
		return pkgerrors.NewValidationError("password", "is required")
	}
	if c.APIKey == "" {
		return pkgerrors.NewValidationError("api_key", "is required")
	}
	if c.SharedSecret == "" {
		return pkgerrors.NewValidationError("shared_secret", "is required")
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return pkgerrors.NewValidationError("base_url", fmt.Sprintf("invalid URL %q", c.BaseURL))
	}
	return nil
}

// TransactionURL is the absolute URL of the transaction endpoint
func (c *Config) TransactionURL() string {
	return c.BaseURL + TransactionPath
}
