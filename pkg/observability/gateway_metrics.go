package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Result labels for gateway operations
const (
	ResultApproved       = "approved"
	ResultDeclined       = "declined"
	ResultError          = "error"
	ResultNotImplemented = "not_implemented"
)

var (
	gatewayOperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ixopay_operations_total",
		Help: "Total number of Ixopay gateway operations by result",
	}, []string{
		"operation", // purchase, authorize, capture, refund, void, verify
		"result",    // approved, declined, error, not_implemented
	})

	gatewayOperationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name: "ixopay_operation_duration_seconds",
		Help: "Time from request build to classified outcome",
		// Buckets: 50ms to 30s (processor round trips)
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{
		"operation",
	})

	callbacksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ixopay_callbacks_total",
		Help: "Total processor callbacks received",
	}, []string{
		"result", // approved, declined, rejected
	})
)

// RecordGatewayOperation records one finished operation
func RecordGatewayOperation(operation, result string, duration time.Duration) {
	gatewayOperationsTotal.WithLabelValues(operation, result).Inc()
	gatewayOperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordCallback records one received callback
func RecordCallback(result string) {
	callbacksTotal.WithLabelValues(result).Inc()
}

// OutcomeResult maps an approval flag to its result label
func OutcomeResult(success bool) string {
	if success {
		return ResultApproved
	}
	return ResultDeclined
}

// GatewayOperationsCounter exposes the operations counter for assertions
func GatewayOperationsCounter() *prometheus.CounterVec {
	return gatewayOperationsTotal
}
