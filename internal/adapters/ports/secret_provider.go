package ports

import (
	"context"
)

// Secret represents a retrieved secret with metadata
type Secret struct {
	Value    string
	Version  string
	Metadata map[string]string
}

// SecretProvider resolves credentials (gateway password, shared signing secret)
// from a secret store at startup.
// Path format depends on the backend:
//   - local: file path relative to the base directory
//   - AWS:   secret name or ARN, optionally "name#jsonKey"
//   - Vault: "<path>#<field>" under the configured KV mount
type SecretProvider interface {
	// GetSecret returns an error when the secret does not exist or the backend is unreachable
	GetSecret(ctx context.Context, path string) (*Secret, error)
}
