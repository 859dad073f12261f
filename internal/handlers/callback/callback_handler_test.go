package callback

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/kevin07696/ixopay-gateway/internal/adapters/ixopay"
	"github.com/kevin07696/ixopay-gateway/internal/adapters/ports"
	"github.com/kevin07696/ixopay-gateway/pkg/shutdown"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const callbackXML = `<?xml version="1.0" encoding="utf-8"?>
<callback>
  <result>OK</result>
  <referenceId>ref-1</referenceId>
  <transactionId>txn-1</transactionId>
  <purchaseId>pur-1</purchaseId>
  <success>true</success>
</callback>`

type mockSink struct {
	mock.Mock
}

func (m *mockSink) HandleOutcome(ctx context.Context, transactionID string, outcome *ports.Outcome) error {
	return m.Called(ctx, transactionID, outcome).Error(0)
}

type testEnv struct {
	router  chi.Router
	sink    *mockSink
	tracker *shutdown.InFlightTracker
}

func newTestEnv() *testEnv {
	sink := &mockSink{}
	tracker := shutdown.NewInFlightTracker("callbacks", zap.NewNop())
	verifier := ixopay.NewCallbackVerifier("api-key", "shared-secret", 0)

	router := chi.NewRouter()
	NewHandler(verifier, sink, tracker, zap.NewNop()).AppendRoutes(router)

	return &testEnv{router: router, sink: sink, tracker: tracker}
}

func signedRequest(body, secret string) *http.Request {
	date := time.Now().UTC().Format(http.TimeFormat)
	req := httptest.NewRequest(http.MethodPost, Path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", ixopay.ContentTypeXML)
	req.Header.Set("Date", date)
	sig := ixopay.Sign(http.MethodPost, []byte(body), ixopay.ContentTypeXML, date, Path, secret)
	req.Header.Set("Authorization", "Gateway api-key:"+sig)
	return req
}

func TestCallback_Accepted(t *testing.T) {
	env := newTestEnv()
	env.sink.On("HandleOutcome", mock.Anything, "txn-1", mock.MatchedBy(func(o *ports.Outcome) bool {
		return o.Success && o.Authorization != nil && *o.Authorization == "ref-1|pur-1"
	})).Return(nil)

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, signedRequest(callbackXML, "shared-secret"))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", w.Body.String())
	env.sink.AssertExpectations(t)
}

func TestCallback_BadSignature(t *testing.T) {
	env := newTestEnv()

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, signedRequest(callbackXML, "wrong-secret"))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	env.sink.AssertNotCalled(t, "HandleOutcome", mock.Anything, mock.Anything, mock.Anything)
}

func TestCallback_MalformedBody(t *testing.T) {
	env := newTestEnv()

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, signedRequest("<callback><success>true</callback>", "shared-secret"))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	env.sink.AssertNotCalled(t, "HandleOutcome", mock.Anything, mock.Anything, mock.Anything)
}

func TestCallback_SinkErrorAsksForRedelivery(t *testing.T) {
	env := newTestEnv()
	env.sink.On("HandleOutcome", mock.Anything, "txn-1", mock.Anything).Return(errors.New("queue full"))

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, signedRequest(callbackXML, "shared-secret"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestCallback_TooLarge(t *testing.T) {
	env := newTestEnv()
	body := "<callback>" + strings.Repeat("a", maxCallbackBytes) + "</callback>"

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, signedRequest(body, "shared-secret"))

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestCallback_RejectedWhileShuttingDown(t *testing.T) {
	env := newTestEnv()
	require.NoError(t, env.tracker.Shutdown(context.Background()))

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, signedRequest(callbackXML, "shared-secret"))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestCallback_OnlyPost(t *testing.T) {
	env := newTestEnv()

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, Path, nil))

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestLogSink(t *testing.T) {
	outcome, err := ixopay.ParseCallback([]byte(callbackXML))
	require.NoError(t, err)

	assert.NoError(t, NewLogSink(zap.NewNop()).HandleOutcome(context.Background(), "txn-1", outcome))
}
