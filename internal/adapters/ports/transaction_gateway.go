package ports

import (
	"context"

	"github.com/shopspring/decimal"
)

// Operation names the abstract action requested of the processor
type Operation string

const (
	OperationPurchase  Operation = "purchase"
	OperationAuthorize Operation = "authorize"
	OperationCapture   Operation = "capture"
	OperationRefund    Operation = "refund"
	OperationVoid      Operation = "void"
	OperationVerify    Operation = "verify"
)

// PaymentMethod is the card supplied by the caller
type PaymentMethod struct {
	HolderName        string
	Number            string
	VerificationValue string
	Month             int // 1-12
	Year              int // four digits
}

// Address is a billing or shipping address
// Name is split at the first space into first and last name on the wire
type Address struct {
	Name     string
	Company  string
	Address1 string
	Address2 string
	City     string
	Zip      string
	State    string
	Country  string
	Phone    string
}

// Money is an amount in major units with its own currency
type Money struct {
	Amount   decimal.Decimal
	Currency string // ISO 4217, may be empty
}

// TransactionOptions carries the optional per-call data
type TransactionOptions struct {
	// Currency overrides Money.Currency when set
	Currency    string
	Description string

	// SuccessURL and CallbackURL override the adapter defaults
	SuccessURL  string
	CallbackURL string

	// Customer data. A nil address omits its whole block from the request.
	BillingAddress  *Address
	ShippingAddress *Address
	Email           string
	IP              string
}

// FlatValue is one entry of a FlatResponse.
// Marker entries record that a parent element with child elements was present.
type FlatValue struct {
	Text   string
	Marker bool
}

// FlatResponse is the single-level view of a processor XML document.
// Keys keep their first insertion order; a later write to an existing key replaces
// its value (last wins), which is how repeated sibling tags collapse.
type FlatResponse struct {
	keys   []string
	values map[string]FlatValue
}

// NewFlatResponse returns an empty FlatResponse
func NewFlatResponse() FlatResponse {
	return FlatResponse{values: make(map[string]FlatValue)}
}

// Set writes a text value
func (f *FlatResponse) Set(key, text string) {
	f.put(key, FlatValue{Text: text})
}

// Mark writes a presence marker
func (f *FlatResponse) Mark(key string) {
	f.put(key, FlatValue{Marker: true})
}

func (f *FlatResponse) put(key string, v FlatValue) {
	if f.values == nil {
		f.values = make(map[string]FlatValue)
	}
	if _, exists := f.values[key]; !exists {
		f.keys = append(f.keys, key)
	}
	f.values[key] = v
}

// Get returns the raw entry for key
func (f FlatResponse) Get(key string) (FlatValue, bool) {
	v, ok := f.values[key]
	return v, ok
}

// Text returns the text stored under key. Markers are not text and report false.
func (f FlatResponse) Text(key string) (string, bool) {
	v, ok := f.values[key]
	if !ok || v.Marker {
		return "", false
	}
	return v.Text, true
}

// Has reports whether any entry exists for key
func (f FlatResponse) Has(key string) bool {
	_, ok := f.values[key]
	return ok
}

// Keys returns the keys in first insertion order
func (f FlatResponse) Keys() []string {
	out := make([]string, len(f.keys))
	copy(out, f.keys)
	return out
}

// Len returns the number of keys
func (f FlatResponse) Len() int {
	return len(f.keys)
}

// Outcome is the normalized result of one processor call
type Outcome struct {
	Success bool
	Message string

	// Authorization is "<reference_id>|<purchase_id>"; nil unless reference_id was returned
	Authorization *string

	// ErrorCode is the processor's code, only set on failure
	ErrorCode *string

	Raw FlatResponse
}

// TransactionGateway defines the port for card transactions against the processor.
//
// A returned error means no classifiable response was obtained (invalid input,
// network failure, unparsable body). Declines are reported through Outcome.Success.
type TransactionGateway interface {
	// Purchase authorizes and captures in one step
	Purchase(ctx context.Context, money Money, method *PaymentMethod, opts TransactionOptions) (*Outcome, error)

	// Authorize reserves the amount without capturing it
	Authorize(ctx context.Context, money Money, method *PaymentMethod, opts TransactionOptions) (*Outcome, error)

	// Capture captures a previous authorization
	Capture(ctx context.Context, money Money, authorization string, opts TransactionOptions) (*Outcome, error)

	// Refund refunds a captured transaction
	Refund(ctx context.Context, money Money, authorization string, opts TransactionOptions) (*Outcome, error)

	// Void releases an authorization
	Void(ctx context.Context, authorization string, opts TransactionOptions) (*Outcome, error)

	// Verify authorizes a nominal amount and voids it again.
	// The authorize outcome is returned whatever the void step does.
	Verify(ctx context.Context, method *PaymentMethod, opts TransactionOptions) (*Outcome, error)
}
