package callback

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/kevin07696/ixopay-gateway/internal/adapters/ixopay"
	"github.com/kevin07696/ixopay-gateway/internal/adapters/ports"
	"github.com/kevin07696/ixopay-gateway/pkg/observability"
	"github.com/kevin07696/ixopay-gateway/pkg/shutdown"
	"go.uber.org/zap"
)

const (
	// Path is where Ixopay posts status callbacks
	Path = "/ixopay/callback"

	maxCallbackBytes = 1 << 20
	resultRejected   = "rejected"
)

// Verifier authenticates a callback request
type Verifier interface {
	Verify(method, path string, header http.Header, body []byte) error
}

// Sink receives classified callback outcomes.
// An error makes the handler answer 500 so the processor delivers again.
type Sink interface {
	HandleOutcome(ctx context.Context, transactionID string, outcome *ports.Outcome) error
}

// Handler receives Ixopay status callbacks
type Handler struct {
	verifier Verifier
	sink     Sink
	inFlight *shutdown.InFlightTracker
	logger   *zap.Logger
}

// NewHandler creates a new callback handler
func NewHandler(verifier Verifier, sink Sink, inFlight *shutdown.InFlightTracker, logger *zap.Logger) *Handler {
	return &Handler{
		verifier: verifier,
		sink:     sink,
		inFlight: inFlight,
		logger:   logger,
	}
}

// AppendRoutes mounts the callback endpoint
func (h *Handler) AppendRoutes(r chi.Router) {
	r.Post(Path, h.handleCallback)
}

// handleCallback verifies, parses and classifies one callback, then answers "OK"
func (h *Handler) handleCallback(w http.ResponseWriter, r *http.Request) {
	if !h.inFlight.Add() {
		http.Error(w, "shutting down", http.StatusServiceUnavailable)
		return
	}
	defer h.inFlight.Done()

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxCallbackBytes))
	if err != nil {
		h.reject(w, "failed to read callback body", http.StatusRequestEntityTooLarge, err)
		return
	}

	if err := h.verifier.Verify(r.Method, r.URL.Path, r.Header, body); err != nil {
		h.reject(w, "callback signature rejected", http.StatusUnauthorized, err)
		return
	}

	outcome, err := ixopay.ParseCallback(body)
	if err != nil {
		h.reject(w, "failed to parse callback", http.StatusBadRequest, err)
		return
	}

	transactionID, _ := outcome.Raw.Text("transaction_id")
	h.logger.Info("received Ixopay callback",
		zap.String("transaction_id", transactionID),
		zap.Bool("success", outcome.Success),
		zap.String("message", outcome.Message),
	)

	if err := h.sink.HandleOutcome(r.Context(), transactionID, outcome); err != nil {
		h.logger.Error("callback sink failed",
			zap.String("transaction_id", transactionID),
			zap.Error(err),
		)
		http.Error(w, "temporarily unavailable", http.StatusInternalServerError)
		return
	}

	observability.RecordCallback(observability.OutcomeResult(outcome.Success))

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (h *Handler) reject(w http.ResponseWriter, msg string, status int, err error) {
	var maxBytesErr *http.MaxBytesError
	if status == http.StatusRequestEntityTooLarge && !errors.As(err, &maxBytesErr) {
		status = http.StatusBadRequest
	}

	observability.RecordCallback(resultRejected)
	h.logger.Warn(msg, zap.Int("status", status), zap.Error(err))
	http.Error(w, http.StatusText(status), status)
}

// LogSink only logs outcomes. It is the default sink of the standalone receiver.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink creates a sink that logs every outcome
func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger}
}

// HandleOutcome implements Sink
func (s *LogSink) HandleOutcome(_ context.Context, transactionID string, outcome *ports.Outcome) error {
	fields := []zap.Field{
		zap.String("transaction_id", transactionID),
		zap.Bool("success", outcome.Success),
		zap.String("message", outcome.Message),
	}
	if outcome.Authorization != nil {
		fields = append(fields, zap.String("authorization", *outcome.Authorization))
	}
	if outcome.ErrorCode != nil {
		fields = append(fields, zap.String("error_code", *outcome.ErrorCode))
	}
	s.logger.Info("Ixopay transaction status", fields...)
	return nil
}
