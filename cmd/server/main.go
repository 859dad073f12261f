package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kevin07696/ixopay-gateway/internal/adapters/ixopay"
	"github.com/kevin07696/ixopay-gateway/internal/config"
	"github.com/kevin07696/ixopay-gateway/internal/handlers/callback"
	"github.com/kevin07696/ixopay-gateway/pkg/middleware"
	"github.com/kevin07696/ixopay-gateway/pkg/observability"
	"github.com/kevin07696/ixopay-gateway/pkg/resilience"
	"github.com/kevin07696/ixopay-gateway/pkg/security"
	"github.com/kevin07696/ixopay-gateway/pkg/shutdown"
)

func main() {
	if err := run(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "ixopay gateway: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logAdapter, err := security.NewZapLoggerFromLevel(cfg.Logger.Level, cfg.Logger.Development)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logAdapter.Sync() }()
	logger := logAdapter.Zap()

	logger.Info("Starting Ixopay gateway",
		zap.String("environment", cfg.Gateway.Environment),
		zap.String("secret_backend", cfg.Secrets.Backend),
	)

	if err := resolveCredentials(ctx, cfg, logger); err != nil {
		return err
	}

	gateway, err := ixopay.NewGatewayAdapterWithDefaults(cfg.IxopayConfig(), logAdapter)
	if err != nil {
		return fmt.Errorf("init gateway adapter: %w", err)
	}

	healthChecker := observability.NewHealthChecker(2 * time.Second)
	healthChecker.Register("ixopay_circuit", func(context.Context) error {
		if gateway.CircuitState() == resilience.StateOpen {
			return resilience.ErrCircuitOpen
		}
		return nil
	})

	shutdownMgr := shutdown.NewManager(logger, cfg.Server.ShutdownTimeout)

	metricsServer := observability.StartMetricsServer(strconv.Itoa(cfg.Server.MetricsPort), healthChecker, logger)
	shutdownMgr.RegisterHTTPServer("metrics_server", metricsServer)

	inFlight := shutdown.NewInFlightTracker("callbacks", logger)
	verifier := ixopay.NewCallbackVerifier(cfg.Gateway.APIKey, cfg.Gateway.SharedSecret, cfg.Server.CallbackMaxSkew)
	handler := callback.NewHandler(verifier, callback.NewLogSink(logger), inFlight, logger)

	router := chi.NewRouter()
	router.Use(middleware.NewSecurityHeaders(cfg.Logger.Development).Middleware)
	if cfg.Server.CallbackRateLimitRPS > 0 {
		limiter := middleware.NewRateLimiter(cfg.Server.CallbackRateLimitRPS, cfg.Server.CallbackRateLimitBurst)
		shutdownMgr.RegisterFunc("callback_rate_limiter", func() error {
			limiter.Shutdown()
			return nil
		})
		router.Use(limiter.Middleware)
	}
	handler.AppendRoutes(router)

	callbackServer := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// LIFO: the listener stops first, then in-flight callbacks drain
	shutdownMgr.Register("callback_inflight", inFlight.Shutdown)
	shutdownMgr.RegisterHTTPServer("callback_server", callbackServer)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Callback server listening",
			zap.String("addr", callbackServer.Addr),
			zap.String("path", callback.Path),
		)
		if err := callbackServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("callback server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return shutdownMgr.WaitForShutdown(gctx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Gateway stopped with error", zap.Error(err))
		return err
	}
	logger.Info("Gateway stopped")
	return nil
}
