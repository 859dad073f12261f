package ixopay

import (
	"github.com/kevin07696/ixopay-gateway/internal/adapters/ports"
)

// classify derives the outcome from a flattened response.
// Pure: the same FlatResponse always yields an equal Outcome.
func classify(flat ports.FlatResponse) *ports.Outcome {
	success := successFrom(flat)

	return &ports.Outcome{
		Success:       success,
		Message:       messageFrom(flat),
		Authorization: authorizationFrom(flat),
		ErrorCode:     errorCodeFrom(flat, success),
		Raw:           flat,
	}
}

// successFrom compares strings; "True" or "1" are failures
func successFrom(flat ports.FlatResponse) bool {
	v, _ := flat.Text("success")
	return v == "true"
}

func messageFrom(flat ports.FlatResponse) string {
	if msg, ok := flat.Text("message"); ok {
		return msg
	}
	msg, _ := flat.Text("return_type")
	return msg
}

// authorizationFrom joins reference_id and purchase_id with a pipe.
// A missing purchase_id still produces "<reference_id>|".
func authorizationFrom(flat ports.FlatResponse) *string {
	referenceID, ok := flat.Text("reference_id")
	if !ok || referenceID == "" {
		return nil
	}
	purchaseID, _ := flat.Text("purchase_id")
	token := referenceID + "|" + purchaseID
	return &token
}

func errorCodeFrom(flat ports.FlatResponse, success bool) *string {
	if success {
		return nil
	}
	code, ok := flat.Text("code")
	if !ok {
		return nil
	}
	return &code
}
