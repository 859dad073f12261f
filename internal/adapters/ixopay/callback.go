package ixopay

import (
	"fmt"
	"net/http"
	"time"

	"github.com/kevin07696/ixopay-gateway/internal/adapters/ports"
	"github.com/kevin07696/ixopay-gateway/pkg/timeutil"
)

// callbackAction is recorded under the "action" key of parsed callbacks
const callbackAction = "callback"

// CallbackVerifier checks the signature Ixopay puts on status callbacks.
// Callbacks are signed like requests, over the callback request's own path.
type CallbackVerifier struct {
	apiKey  string
	secret  string
	maxSkew time.Duration
	now     func() time.Time
}

// NewCallbackVerifier creates a verifier; maxSkew <= 0 disables the Date check
func NewCallbackVerifier(apiKey, secret string, maxSkew time.Duration) *CallbackVerifier {
	return &CallbackVerifier{
		apiKey:  apiKey,
		secret:  secret,
		maxSkew: maxSkew,
		now:     timeutil.Now,
	}
}

// Verify returns an error wrapping ErrInvalidSignature when the callback is not authentic
func (v *CallbackVerifier) Verify(method, path string, header http.Header, body []byte) error {
	apiKey, signature, err := ParseAuthorization(header.Get("Authorization"))
	if err != nil {
		return err
	}
	if apiKey != v.apiKey {
		return fmt.Errorf("%w: unknown api key", ErrInvalidSignature)
	}

	date := header.Get("Date")
	if date == "" {
		return fmt.Errorf("%w: missing Date header", ErrInvalidSignature)
	}
	if v.maxSkew > 0 {
		sent, err := timeutil.ParseHTTPDate(date)
		if err != nil {
			return fmt.Errorf("%w: unparsable Date header", ErrInvalidSignature)
		}
		if timeutil.Skew(v.now(), sent) > v.maxSkew {
			return fmt.Errorf("%w: Date outside allowed skew", ErrInvalidSignature)
		}
	}

	if !VerifySignature(method, body, header.Get("Content-Type"), date, path, v.secret, signature) {
		return fmt.Errorf("%w: signature mismatch", ErrInvalidSignature)
	}
	return nil
}

// ParseCallback flattens and classifies a callback document
func ParseCallback(body []byte) (*ports.Outcome, error) {
	flat, err := parseResponse(callbackAction, body)
	if err != nil {
		return nil, err
	}
	return classify(flat), nil
}
