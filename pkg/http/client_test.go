package http

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIxopayClientConfig(t *testing.T) {
	cfg := IxopayClientConfig()

	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, cfg.MaxIdleConns, cfg.MaxIdleConnsPerHost, "single host keeps the whole pool")
	assert.False(t, cfg.FollowRedirects)
	assert.Equal(t, uint16(tls.VersionTLS12), cfg.MinTLSVersion)
}

func TestNewHTTPClient_AppliesTransportSettings(t *testing.T) {
	cfg := DefaultClientConfig()
	cfg.Timeout = 5 * time.Second

	client := NewHTTPClient(cfg)

	assert.Equal(t, 5*time.Second, client.Timeout)
	transport, ok := client.Transport.(*http.Transport)
	require.True(t, ok)
	assert.Equal(t, cfg.MaxIdleConnsPerHost, transport.MaxIdleConnsPerHost)
	assert.Equal(t, cfg.ResponseHeaderTimeout, transport.ResponseHeaderTimeout)
	assert.Nil(t, client.CheckRedirect)
}

func TestNewHTTPClient_DoesNotFollowRedirects(t *testing.T) {
	target := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("redirect target must not be reached")
	}))
	defer target.Close()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, target.URL, http.StatusFound)
	}))
	defer server.Close()

	client := NewHTTPClient(IxopayClientConfig())
	resp, err := client.Post(server.URL, "text/xml", nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusFound, resp.StatusCode)
}
