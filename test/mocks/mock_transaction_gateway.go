package mocks

import (
	"context"
	"sync"

	"github.com/kevin07696/ixopay-gateway/internal/adapters/ports"
)

// MockTransactionGateway is a mock implementation of TransactionGateway for testing
type MockTransactionGateway struct {
	mu sync.Mutex

	outcomes map[ports.Operation]*ports.Outcome
	errs     map[ports.Operation]error

	// Call tracking
	Calls             []ports.Operation
	LastMoney         ports.Money
	LastMethod        *ports.PaymentMethod
	LastAuthorization string
	LastOptions       ports.TransactionOptions
}

// NewMockTransactionGateway creates a new mock transaction gateway
func NewMockTransactionGateway() *MockTransactionGateway {
	return &MockTransactionGateway{
		outcomes: make(map[ports.Operation]*ports.Outcome),
		errs:     make(map[ports.Operation]error),
	}
}

// SetResponse sets what the given operation returns
func (m *MockTransactionGateway) SetResponse(op ports.Operation, outcome *ports.Outcome, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes[op] = outcome
	m.errs[op] = err
}

func (m *MockTransactionGateway) record(op ports.Operation, money ports.Money, method *ports.PaymentMethod, authorization string, opts ports.TransactionOptions) (*ports.Outcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, op)
	m.LastMoney = money
	m.LastMethod = method
	m.LastAuthorization = authorization
	m.LastOptions = opts
	return m.outcomes[op], m.errs[op]
}

// Purchase implements TransactionGateway.Purchase
func (m *MockTransactionGateway) Purchase(_ context.Context, money ports.Money, method *ports.PaymentMethod, opts ports.TransactionOptions) (*ports.Outcome, error) {
	return m.record(ports.OperationPurchase, money, method, "", opts)
}

// Authorize implements TransactionGateway.Authorize
func (m *MockTransactionGateway) Authorize(_ context.Context, money ports.Money, method *ports.PaymentMethod, opts ports.TransactionOptions) (*ports.Outcome, error) {
	return m.record(ports.OperationAuthorize, money, method, "", opts)
}

// Capture implements TransactionGateway.Capture
func (m *MockTransactionGateway) Capture(_ context.Context, money ports.Money, authorization string, opts ports.TransactionOptions) (*ports.Outcome, error) {
	return m.record(ports.OperationCapture, money, nil, authorization, opts)
}

// Refund implements TransactionGateway.Refund
func (m *MockTransactionGateway) Refund(_ context.Context, money ports.Money, authorization string, opts ports.TransactionOptions) (*ports.Outcome, error) {
	return m.record(ports.OperationRefund, money, nil, authorization, opts)
}

// Void implements TransactionGateway.Void
func (m *MockTransactionGateway) Void(_ context.Context, authorization string, opts ports.TransactionOptions) (*ports.Outcome, error) {
	return m.record(ports.OperationVoid, ports.Money{}, nil, authorization, opts)
}

// Verify implements TransactionGateway.Verify
func (m *MockTransactionGateway) Verify(_ context.Context, method *ports.PaymentMethod, opts ports.TransactionOptions) (*ports.Outcome, error) {
	return m.record(ports.OperationVerify, ports.Money{}, method, "", opts)
}

// CallCount returns how many times op was invoked
func (m *MockTransactionGateway) CallCount(op ports.Operation) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.Calls {
		if c == op {
			n++
		}
	}
	return n
}
