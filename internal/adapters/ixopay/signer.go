package ixopay

import (
	"crypto/hmac"
	"crypto/md5"
	"crypto/sha512"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/kevin07696/ixopay-gateway/pkg/timeutil"
)

const (
	// ContentTypeXML is sent with every request and is part of the signed message
	ContentTypeXML = "text/xml; charset=utf-8"

	// TransactionPath is the resource path of the transaction endpoint
	TransactionPath = "/transaction"

	authScheme = "Gateway"
)

// Sign computes the request signature:
//
//	Base64(HMAC-SHA512(secret, method \n md5hex(body) \n contentType \n timestamp \n \n path))
//
// MD5 is the content fingerprint the remote API expects inside the signed string.
// StdEncoding never line-wraps, so the result carries no whitespace.
func Sign(method string, body []byte, contentType, timestamp, resourcePath, secret string) string {
	digest := md5.Sum(body)

	var msg strings.Builder
	msg.WriteString(method)
	msg.WriteByte('\n')
	msg.WriteString(hex.EncodeToString(digest[:]))
	msg.WriteByte('\n')
	msg.WriteString(contentType)
	msg.WriteByte('\n')
	msg.WriteString(timestamp)
	msg.WriteString("\n\n")
	msg.WriteString(resourcePath)

	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write([]byte(msg.String()))

	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// VerifySignature validates a signature produced by Sign (used for callbacks)
func VerifySignature(method string, body []byte, contentType, timestamp, resourcePath, secret, signature string) bool {
	expected := Sign(method, body, contentType, timestamp, resourcePath, secret)
	return hmac.Equal([]byte(expected), []byte(signature))
}

// SignedEnvelope is an outgoing body together with the headers derived from it.
// The headers are only valid for this exact body.
type SignedEnvelope struct {
	Body   []byte
	Header http.Header
}

// NewSignedEnvelope signs body for a POST to the transaction endpoint.
// The timestamp is formatted once and shared by the Date header and the signature.
func NewSignedEnvelope(body []byte, apiKey, secret string, now time.Time) *SignedEnvelope {
	timestamp := timeutil.HTTPDate(now)
	signature := Sign(http.MethodPost, body, ContentTypeXML, timestamp, TransactionPath, secret)

	header := make(http.Header, 3)
	header.Set("Authorization", fmt.Sprintf("%s %s:%s", authScheme, apiKey, signature))
	header.Set("Date", timestamp)
	header.Set("Content-Type", ContentTypeXML)

	return &SignedEnvelope{Body: body, Header: header}
}

// ParseAuthorization splits "Gateway <apiKey>:<signature>"
func ParseAuthorization(value string) (apiKey, signature string, err error) {
	scheme, credentials, ok := strings.Cut(strings.TrimSpace(value), " ")
	if !ok || scheme != authScheme {
		return "", "", fmt.Errorf("%w: unsupported authorization scheme", ErrInvalidSignature)
	}
	apiKey, signature, ok = strings.Cut(strings.TrimSpace(credentials), ":")
	if !ok || apiKey == "" || signature == "" {
		return "", "", fmt.Errorf("%w: malformed credentials", ErrInvalidSignature)
	}
	return apiKey, signature, nil
}
