package secrets

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newVaultServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-token", r.Header.Get("X-Vault-Token"))
		w.Header().Set("Content-Type", "application/json")

		switch r.URL.Path {
		case "/v1/secret/data/ixopay":
			_, _ = w.Write([]byte(`{"data": {"data": {"password": "hunter2", "shared_secret": "abc"}, "metadata": {"version": 3}}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"errors": []}`))
		}
	}))
}

func TestVaultProvider_ReadsKV2Field(t *testing.T) {
	server := newVaultServer(t)
	defer server.Close()

	cfg := DefaultVaultConfig(server.URL)
	cfg.Token = "test-token"
	provider, err := NewVaultProvider(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)

	secret, err := provider.GetSecret(context.Background(), "ixopay#shared_secret")
	require.NoError(t, err)
	assert.Equal(t, "abc", secret.Value)
	assert.Equal(t, "3", secret.Version)
}

func TestVaultProvider_MissingSecret(t *testing.T) {
	server := newVaultServer(t)
	defer server.Close()

	cfg := DefaultVaultConfig(server.URL)
	cfg.Token = "test-token"
	provider, err := NewVaultProvider(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)

	_, err = provider.GetSecret(context.Background(), "other#password")
	assert.Error(t, err)
}

func TestVaultProvider_MissingField(t *testing.T) {
	server := newVaultServer(t)
	defer server.Close()

	cfg := DefaultVaultConfig(server.URL)
	cfg.Token = "test-token"
	provider, err := NewVaultProvider(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)

	_, err = provider.GetSecret(context.Background(), "ixopay")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"value"`)
}

func TestNewVaultProvider_RequiresToken(t *testing.T) {
	_, err := NewVaultProvider(context.Background(), DefaultVaultConfig("http://127.0.0.1:1"), zap.NewNop())
	assert.Error(t, err)

	cfg := DefaultVaultConfig("http://127.0.0.1:1")
	cfg.AuthMethod = "kerberos"
	cfg.Token = "x"
	_, err = NewVaultProvider(context.Background(), cfg, zap.NewNop())
	assert.Error(t, err)
}
