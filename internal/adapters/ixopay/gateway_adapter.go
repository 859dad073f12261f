package ixopay

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/kevin07696/ixopay-gateway/internal/adapters/ports"
	pkgerrors "github.com/kevin07696/ixopay-gateway/pkg/errors"
	pkghttp "github.com/kevin07696/ixopay-gateway/pkg/http"
	"github.com/kevin07696/ixopay-gateway/pkg/observability"
	"github.com/kevin07696/ixopay-gateway/pkg/resilience"
	"github.com/kevin07696/ixopay-gateway/pkg/timeutil"
	"golang.org/x/time/rate"
)

// GatewayAdapter implements ports.TransactionGateway against the Ixopay
// transactionWithCard API
type GatewayAdapter struct {
	config     *Config
	httpClient ports.HTTPClient
	logger     ports.Logger
	builder    *requestBuilder
	breaker    *resilience.CircuitBreaker
	limiter    *rate.Limiter
	now        func() time.Time
}

var _ ports.TransactionGateway = (*GatewayAdapter)(nil)

// NewGatewayAdapter creates a new Ixopay adapter with dependency injection
func NewGatewayAdapter(config *Config, httpClient ports.HTTPClient, logger ports.Logger) (*GatewayAdapter, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid ixopay config: %w", err)
	}
	if logger == nil {
		logger = nopLogger{}
	}

	var limiter *rate.Limiter
	if config.RateLimitRPS > 0 {
		burst := config.RateLimitBurst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(config.RateLimitRPS), burst)
	}

	breakerConfig := config.CircuitBreaker
	if breakerConfig.MaxFailures == 0 {
		breakerConfig = resilience.DefaultCircuitBreakerConfig()
	}

	return &GatewayAdapter{
		config:     config,
		httpClient: httpClient,
		logger:     logger,
		builder:    newRequestBuilder(config),
		breaker:    resilience.NewCircuitBreaker(breakerConfig),
		limiter:    limiter,
		now:        timeutil.Now,
	}, nil
}

// NewGatewayAdapterWithDefaults creates a new adapter with the tuned Ixopay HTTP client
func NewGatewayAdapterWithDefaults(config *Config, logger ports.Logger) (*GatewayAdapter, error) {
	clientConfig := pkghttp.IxopayClientConfig()
	if config.Timeout > 0 {
		clientConfig.Timeout = config.Timeout
	}
	return NewGatewayAdapter(config, pkghttp.NewHTTPClient(clientConfig), logger)
}

// Purchase implements TransactionGateway.Purchase
func (a *GatewayAdapter) Purchase(ctx context.Context, money ports.Money, method *ports.PaymentMethod, opts ports.TransactionOptions) (*ports.Outcome, error) {
	return a.observe(ports.OperationPurchase, func() (*ports.Outcome, error) {
		req := a.builder.newRequest(ports.OperationPurchase, money, method, opts)
		body, err := a.builder.buildPurchase(req)
		if err != nil {
			a.logger.Error("Invalid Ixopay purchase request", ports.Err(err))
			return nil, err
		}
		return a.commit(ctx, req, body)
	})
}

// Authorize implements TransactionGateway.Authorize
func (a *GatewayAdapter) Authorize(ctx context.Context, money ports.Money, method *ports.PaymentMethod, opts ports.TransactionOptions) (*ports.Outcome, error) {
	return a.observe(ports.OperationAuthorize, func() (*ports.Outcome, error) {
		return a.authorize(ctx, money, method, opts)
	})
}

func (a *GatewayAdapter) authorize(ctx context.Context, money ports.Money, method *ports.PaymentMethod, opts ports.TransactionOptions) (*ports.Outcome, error) {
	req := a.builder.newRequest(ports.OperationAuthorize, money, method, opts)
	body, err := a.builder.buildAuthorize(req)
	if err != nil {
		a.logger.Error("Invalid Ixopay authorize request", ports.Err(err))
		return nil, err
	}
	return a.commit(ctx, req, body)
}

// Capture implements TransactionGateway.Capture
func (a *GatewayAdapter) Capture(_ context.Context, _ ports.Money, authorization string, _ ports.TransactionOptions) (*ports.Outcome, error) {
	return a.notImplemented(ports.OperationCapture, authorization)
}

// Refund implements TransactionGateway.Refund
func (a *GatewayAdapter) Refund(_ context.Context, _ ports.Money, authorization string, _ ports.TransactionOptions) (*ports.Outcome, error) {
	return a.notImplemented(ports.OperationRefund, authorization)
}

// Void implements TransactionGateway.Void
func (a *GatewayAdapter) Void(_ context.Context, authorization string, _ ports.TransactionOptions) (*ports.Outcome, error) {
	return a.notImplemented(ports.OperationVoid, authorization)
}

// Verify authorizes the configured nominal amount and then voids it.
// The void runs whatever the authorize step returned; its result is only logged.
// Only the verify operation is recorded in metrics, not its two steps.
func (a *GatewayAdapter) Verify(ctx context.Context, method *ports.PaymentMethod, opts ports.TransactionOptions) (*ports.Outcome, error) {
	return a.observe(ports.OperationVerify, func() (*ports.Outcome, error) {
		outcome, err := a.authorize(ctx, ports.Money{Amount: a.config.VerifyAmount}, method, opts)

		authorization := ""
		if outcome != nil && outcome.Authorization != nil {
			authorization = *outcome.Authorization
		}
		if voidErr := a.unsupported(ports.OperationVoid, authorization); voidErr != nil {
			a.logger.Warn("Void after verification authorize did not complete",
				ports.String("authorization", authorization),
				ports.Err(voidErr),
			)
		}

		return outcome, err
	})
}

func (a *GatewayAdapter) notImplemented(op ports.Operation, authorization string) (*ports.Outcome, error) {
	err := a.unsupported(op, authorization)
	observability.RecordGatewayOperation(string(op), observability.ResultNotImplemented, 0)
	return nil, err
}

// unsupported logs and returns the not-implemented error without recording metrics
func (a *GatewayAdapter) unsupported(op ports.Operation, authorization string) error {
	a.logger.Warn("Ixopay operation not implemented",
		ports.String("operation", string(op)),
		ports.String("authorization", authorization),
	)
	return fmt.Errorf("%s: %w", op, ErrOperationNotImplemented)
}

// observe records the duration and result of one operation
func (a *GatewayAdapter) observe(op ports.Operation, fn func() (*ports.Outcome, error)) (*ports.Outcome, error) {
	start := time.Now()
	outcome, err := fn()

	result := observability.ResultError
	if err == nil && outcome != nil {
		result = observability.OutcomeResult(outcome.Success)
	}
	observability.RecordGatewayOperation(string(op), result, time.Since(start))

	return outcome, err
}

// commit signs and sends one document, then parses and classifies the answer.
// A non-2xx response that still carries a parsable document is classified like
// any other; only a failed exchange or an unreadable body becomes an error.
func (a *GatewayAdapter) commit(ctx context.Context, req *operationRequest, body []byte) (*ports.Outcome, error) {
	action := string(req.Operation)
	env := NewSignedEnvelope(body, a.config.APIKey, a.config.SharedSecret, a.now())

	a.logger.Info("Sending Ixopay transaction",
		ports.String("operation", action),
		ports.String("transaction_id", req.TransactionID),
		ports.String("amount", formatAmount(req.Money)),
		ports.String("currency", a.builder.currency(req.Money, req.Options)),
	)
	a.logger.Debug("Ixopay request", ports.String("body", Scrub(string(body))))

	raw, err := a.send(ctx, env)
	if err != nil {
		var statusErr *TransportError
		if !errors.As(err, &statusErr) {
			return nil, err
		}

		flat, parseErr := parseResponse(action, statusErr.Body)
		if parseErr != nil {
			a.logger.Error("Ixopay returned an error status without a parsable body",
				ports.Int("status_code", statusErr.StatusCode),
				ports.Err(parseErr),
			)
			return nil, pkgerrors.NewPaymentError("GATEWAY_ERROR", "Payment gateway error", pkgerrors.CategorySystemError, statusErr.StatusCode >= 500).
				WithCause(statusErr)
		}
		return a.finish(req, classify(flat)), nil
	}

	flat, err := parseResponse(action, raw)
	if err != nil {
		a.logger.Error("Failed to parse Ixopay response",
			ports.String("transaction_id", req.TransactionID),
			ports.Err(err),
		)
		return nil, fmt.Errorf("parse %s response: %w", action, err)
	}

	return a.finish(req, classify(flat)), nil
}

func (a *GatewayAdapter) finish(req *operationRequest, outcome *ports.Outcome) *ports.Outcome {
	fields := []ports.Field{
		ports.String("operation", string(req.Operation)),
		ports.String("transaction_id", req.TransactionID),
		ports.Bool("success", outcome.Success),
		ports.String("message", outcome.Message),
	}
	if outcome.ErrorCode != nil {
		fields = append(fields, ports.String("error_code", *outcome.ErrorCode))
	}
	a.logger.Info("Ixopay transaction completed", fields...)
	return outcome
}

// send performs the HTTP exchange through the rate limiter and circuit breaker.
// Only failures to complete the exchange count against the breaker.
func (a *GatewayAdapter) send(ctx context.Context, env *SignedEnvelope) ([]byte, error) {
	if a.limiter != nil {
		if err := a.limiter.Wait(ctx); err != nil {
			return nil, pkgerrors.NewPaymentError("NETWORK_ERROR", "Rate limit wait aborted", pkgerrors.CategoryNetworkError, true).
				WithCause(err)
		}
	}

	var (
		body      []byte
		statusErr *TransportError
	)
	err := a.breaker.Call(func() error {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.config.TransactionURL(), bytes.NewReader(env.Body))
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		for key, values := range env.Header {
			httpReq.Header[key] = append([]string(nil), values...)
		}

		start := time.Now()
		httpResp, err := a.httpClient.Do(httpReq)
		if err != nil {
			return err
		}
		defer httpResp.Body.Close()

		data, err := io.ReadAll(httpResp.Body)
		if err != nil {
			return fmt.Errorf("failed to read response body: %w", err)
		}

		a.logger.Debug("Ixopay response received",
			ports.Int("status_code", httpResp.StatusCode),
			ports.Duration("duration", time.Since(start)),
		)

		if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
			statusErr = &TransportError{StatusCode: httpResp.StatusCode, Body: data}
			return nil
		}
		body = data
		return nil
	})
	if err != nil {
		if errors.Is(err, resilience.ErrCircuitOpen) || errors.Is(err, resilience.ErrTooManyRequests) {
			a.logger.Warn("Ixopay circuit breaker rejected request",
				ports.String("state", a.breaker.State().String()),
			)
		} else {
			a.logger.Error("Ixopay request failed", ports.Err(err))
		}
		return nil, pkgerrors.NewPaymentError("NETWORK_ERROR", "Failed to connect to payment gateway", pkgerrors.CategoryNetworkError, true).
			WithCause(err)
	}
	if statusErr != nil {
		return nil, statusErr
	}
	return body, nil
}

type nopLogger struct{}

func (nopLogger) Info(string, ...ports.Field)  {}
func (nopLogger) Error(string, ...ports.Field) {}
func (nopLogger) Warn(string, ...ports.Field)  {}
func (nopLogger) Debug(string, ...ports.Field) {}

// CircuitState reports the breaker state, for health checks
func (a *GatewayAdapter) CircuitState() resilience.CircuitState {
	return a.breaker.State()
}
