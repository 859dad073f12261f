package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSecurityHeaders(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("OK"))
	})

	t.Run("production sets HSTS", func(t *testing.T) {
		rec := httptest.NewRecorder()
		NewSecurityHeaders(false).Middleware(ok).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))

		assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
		assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
		assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
		assert.Contains(t, rec.Header().Get("Strict-Transport-Security"), "max-age=31536000")
		assert.Equal(t, "OK", rec.Body.String())
	})

	t.Run("development skips HSTS", func(t *testing.T) {
		rec := httptest.NewRecorder()
		NewSecurityHeaders(true).Middleware(ok).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))

		assert.Empty(t, rec.Header().Get("Strict-Transport-Security"))
		assert.Equal(t, "default-src 'none'; frame-ancestors 'none'; base-uri 'none'; form-action 'none'", rec.Header().Get("Content-Security-Policy"))
	})
}
