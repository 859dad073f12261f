package ixopay

import (
	"errors"
	"fmt"
)

var (
	// ErrOperationNotImplemented is returned by capture, refund and void.
	// TODO: build their request bodies once the transactionWithCard schema for
	// referenced transactions (capture/refund/void by referenceId) is confirmed.
	ErrOperationNotImplemented = errors.New("ixopay: operation not implemented")

	// ErrMalformedResponse wraps every response parsing failure
	ErrMalformedResponse = errors.New("ixopay: malformed XML response")

	// ErrInvalidSignature is returned when a callback signature does not verify
	ErrInvalidSignature = errors.New("ixopay: invalid signature")
)

// TransportError is an HTTP exchange that completed with a non-2xx status.
// Body holds whatever the processor returned, usually a structured XML error.
type TransportError struct {
	StatusCode int
	Body       []byte
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("ixopay: unexpected HTTP status %d (%d byte body)", e.StatusCode, len(e.Body))
}
