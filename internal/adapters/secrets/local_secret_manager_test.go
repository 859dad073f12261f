package secrets

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLocalSecretProvider_PlainText(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "shared_secret"), []byte("s3cret\n"), 0600))

	provider := NewLocalSecretProvider(dir, zap.NewNop())
	secret, err := provider.GetSecret(context.Background(), "shared_secret")

	require.NoError(t, err)
	assert.Equal(t, "s3cret", secret.Value)
	assert.Equal(t, "v1", secret.Version)
}

func TestLocalSecretProvider_JSONEnvelope(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "ixopay"), 0700))
	content := `{"value": "hunter2", "tags": {"owner": "payments"}}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ixopay", "password"), []byte(content), 0600))

	provider := NewLocalSecretProvider(dir, zap.NewNop())
	secret, err := provider.GetSecret(context.Background(), "ixopay/password")

	require.NoError(t, err)
	assert.Equal(t, "hunter2", secret.Value)
	assert.Equal(t, map[string]string{"owner": "payments"}, secret.Metadata)
}

func TestLocalSecretProvider_JSONWithoutValueIsPlainText(t *testing.T) {
	dir := t.TempDir()
	content := `{"other": "x"}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "raw"), []byte(content), 0600))

	secret, err := NewLocalSecretProvider(dir, zap.NewNop()).GetSecret(context.Background(), "raw")

	require.NoError(t, err)
	assert.Equal(t, content, secret.Value)
}

func TestLocalSecretProvider_NotFound(t *testing.T) {
	provider := NewLocalSecretProvider(t.TempDir(), zap.NewNop())

	_, err := provider.GetSecret(context.Background(), "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "secret not found")
}

func TestLocalSecretProvider_StaysInsideBase(t *testing.T) {
	root := t.TempDir()
	base := filepath.Join(root, "secrets")
	require.NoError(t, os.MkdirAll(base, 0700))
	require.NoError(t, os.WriteFile(filepath.Join(root, "outside"), []byte("nope"), 0600))

	_, err := NewLocalSecretProvider(base, zap.NewNop()).GetSecret(context.Background(), "../outside")
	assert.Error(t, err)
}
