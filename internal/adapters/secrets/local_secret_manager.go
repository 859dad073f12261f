package secrets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/kevin07696/ixopay-gateway/internal/adapters/ports"
	"go.uber.org/zap"
)

// localSecretProvider reads secrets from files under a base directory.
// WARNING: This is for development only. Use AWS Secrets Manager or Vault in production.
type localSecretProvider struct {
	basePath string
	logger   *zap.Logger
}

// NewLocalSecretProvider creates a new filesystem secret provider
func NewLocalSecretProvider(basePath string, logger *zap.Logger) ports.SecretProvider {
	return &localSecretProvider{
		basePath: basePath,
		logger:   logger,
	}
}

// GetSecret reads basePath/path. A file holding {"value": ..., "tags": {...}} is
// unwrapped; anything else is returned as plain text without the trailing newline.
func (m *localSecretProvider) GetSecret(_ context.Context, secretPath string) (*ports.Secret, error) {
	filePath := filepath.Join(m.basePath, filepath.Clean("/"+secretPath))

	m.logger.Debug("Reading secret from filesystem", zap.String("path", secretPath))

	data, err := os.ReadFile(filePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("secret not found: %s", secretPath)
		}
		return nil, fmt.Errorf("failed to read secret: %w", err)
	}

	var secretData struct {
		Value *string           `json:"value"`
		Tags  map[string]string `json:"tags"`
	}
	if err := json.Unmarshal(data, &secretData); err == nil && secretData.Value != nil {
		return &ports.Secret{
			Value:    *secretData.Value,
			Version:  "v1",
			Metadata: secretData.Tags,
		}, nil
	}

	return &ports.Secret{
		Value:   strings.TrimRight(string(data), "\r\n"),
		Version: "v1",
	}, nil
}
