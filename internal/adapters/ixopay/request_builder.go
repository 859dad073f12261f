package ixopay

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/xml"
	"fmt"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"github.com/kevin07696/ixopay-gateway/internal/adapters/ports"
	pkgerrors "github.com/kevin07696/ixopay-gateway/pkg/errors"
)

const (
	transactionNamespace = "http://secure.ixopay.com/Schema/V2/TransactionWithCard"

	defaultDescription = "Purchase"
	defaultIPAddress   = "127.0.0.1"
)

// operationRequest is one outgoing call; TransactionID is generated once per request
type operationRequest struct {
	Operation     ports.Operation
	TransactionID string
	Money         ports.Money
	Method        *ports.PaymentMethod
	Options       ports.TransactionOptions
}

// requestBuilder renders transactionWithCard documents
type requestBuilder struct {
	username        string
	passwordDigest  string // hex SHA-1 of the plaintext password
	successURL      string
	callbackURL     string
	defaultCurrency string
	newID           func() string
}

func newRequestBuilder(cfg *Config) *requestBuilder {
	return &requestBuilder{
		username:        cfg.Username,
		passwordDigest:  sha1Hex(cfg.Password),
		successURL:      cfg.SuccessURL,
		callbackURL:     cfg.CallbackURL,
		defaultCurrency: cfg.DefaultCurrency,
		newID:           func() string { return uuid.New().String() },
	}
}

func (b *requestBuilder) newRequest(op ports.Operation, money ports.Money, method *ports.PaymentMethod, opts ports.TransactionOptions) *operationRequest {
	return &operationRequest{
		Operation:     op,
		TransactionID: b.newID(),
		Money:         money,
		Method:        method,
		Options:       opts,
	}
}

// buildPurchase renders a debit transaction
func (b *requestBuilder) buildPurchase(req *operationRequest) ([]byte, error) {
	return b.build(req, "debit")
}

// buildAuthorize renders a preauthorize transaction; same shape as debit
func (b *requestBuilder) buildAuthorize(req *operationRequest) ([]byte, error) {
	return b.build(req, "preauthorize")
}

func (b *requestBuilder) build(req *operationRequest, transactionTag string) ([]byte, error) {
	if err := validateCardRequest(req); err != nil {
		return nil, err
	}

	w := newXMLWriter()
	w.block("transactionWithCard", func() {
		w.tag("username", b.username)
		w.tag("password", b.passwordDigest)
		addCardData(w, req.Method)
		b.addTransaction(w, transactionTag, req)
	}, xml.Attr{Name: xml.Name{Local: "xmlns"}, Value: transactionNamespace})

	return w.bytes(), nil
}

func addCardData(w *xmlWriter, method *ports.PaymentMethod) {
	w.block("cardData", func() {
		w.tag("cardHolder", method.HolderName)
		w.tag("pan", method.Number)
		w.tag("cvv", method.VerificationValue)
		w.tag("expirationMonth", fmt.Sprintf("%02d", method.Month))
		w.tag("expirationYear", fmt.Sprintf("%04d", method.Year))
	})
}

func (b *requestBuilder) addTransaction(w *xmlWriter, name string, req *operationRequest) {
	opts := req.Options

	description := opts.Description
	if strings.TrimSpace(description) == "" {
		description = defaultDescription
	}
	successURL := firstNonEmpty(opts.SuccessURL, b.successURL)
	callbackURL := firstNonEmpty(opts.CallbackURL, b.callbackURL)

	w.block(name, func() {
		w.tag("transactionId", req.TransactionID)
		addCustomerData(w, opts)
		w.tag("amount", formatAmount(req.Money))
		w.tag("currency", b.currency(req.Money, opts))
		w.tag("description", description)
		w.tag("successUrl", successURL)
		w.tag("callbackUrl", callbackURL)
	})
}

// addCustomerData writes the customer block.
// The processor rejects the request unless the elements appear in this order.
func addCustomerData(w *xmlWriter, opts ports.TransactionOptions) {
	w.block("customer", func() {
		if opts.BillingAddress != nil {
			addBillingAddress(w, opts.BillingAddress)
		}
		if opts.ShippingAddress != nil {
			addShippingAddress(w, opts.ShippingAddress)
		}
		if opts.BillingAddress != nil && opts.BillingAddress.Company != "" {
			w.tag("company", opts.BillingAddress.Company)
		}
		w.tag("email", opts.Email)
		w.tag("ipAddress", firstNonEmpty(opts.IP, defaultIPAddress))
	})
}

func addBillingAddress(w *xmlWriter, addr *ports.Address) {
	if addr.Name != "" {
		first, last := splitName(addr.Name)
		w.tag("firstName", first)
		w.tag("lastName", last)
	}

	w.tag("billingAddress1", addr.Address1)
	w.tag("billingAddress2", addr.Address2)
	w.tag("billingCity", addr.City)
	w.tag("billingPostcode", addr.Zip)
	w.tag("billingState", addr.State)
	w.tag("billingCountry", addr.Country)
	w.tag("billingPhone", addr.Phone)
}

func addShippingAddress(w *xmlWriter, addr *ports.Address) {
	if addr.Name != "" {
		first, last := splitName(addr.Name)
		w.tag("shippingFirstName", first)
		w.tag("shippingLastName", last)
	}

	w.tag("shippingCompany", addr.Company)
	w.tag("shippingAddress1", addr.Address1)
	w.tag("shippingAddress2", addr.Address2)
	w.tag("shippingCity", addr.City)
	w.tag("shippingPostcode", addr.Zip)
	w.tag("shippingState", addr.State)
	w.tag("shippingCountry", addr.Country)
	w.tag("shippingPhone", addr.Phone)
}

// splitName splits at the first whitespace rune; a single word yields an empty last name
func splitName(name string) (first, last string) {
	name = strings.TrimSpace(name)
	i := strings.IndexFunc(name, unicode.IsSpace)
	if i < 0 {
		return name, ""
	}
	return name[:i], strings.TrimSpace(name[i:])
}

// currency prefers the explicit option, then the amount's own currency
func (b *requestBuilder) currency(money ports.Money, opts ports.TransactionOptions) string {
	return firstNonEmpty(opts.Currency, money.Currency, b.defaultCurrency)
}

// formatAmount renders the amount with two fraction digits ("10.00")
func formatAmount(money ports.Money) string {
	return money.Amount.StringFixed(2)
}

func validateCardRequest(req *operationRequest) error {
	if req.Method == nil {
		return pkgerrors.NewValidationError("payment_method", "payment method is required")
	}
	if req.Method.Month < 1 || req.Method.Month > 12 {
		return pkgerrors.NewValidationError("expiration_month", "must be between 1 and 12")
	}
	if req.Method.Year < 0 || req.Method.Year > 9999 {
		return pkgerrors.NewValidationError("expiration_year", "must fit in four digits")
	}
	if req.Money.Amount.IsNegative() {
		return pkgerrors.NewValidationError("amount", "must not be negative")
	}
	return nil
}

func sha1Hex(s string) string {
	sum := sha1.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
