package ratelimit

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGuardedHandler(cfg Config) http.Handler {
	limiter := NewLimiter(cfg)
	return Middleware(limiter, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

func TestMiddleware_AdmittedRequestCarriesHeaders(t *testing.T) {
	handler := newGuardedHandler(Config{MaxRequests: 3, Window: time.Minute})

	req := httptest.NewRequest(http.MethodPost, "/api/query", nil)
	req.Header.Set("X-Real-IP", "198.51.100.4")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "3", rec.Header().Get(HeaderRateLimit))
	assert.Equal(t, "2", rec.Header().Get(HeaderRateRemaining))
	assert.NotEmpty(t, rec.Header().Get(HeaderRateReset))
}

func TestMiddleware_DenialIs429WithRetryDelay(t *testing.T) {
	handler := newGuardedHandler(Config{MaxRequests: 1, Window: time.Minute})

	send := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/query", nil)
		req.Header.Set("X-Forwarded-For", ip)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	require.Equal(t, http.StatusOK, send("203.0.113.7").Code)

	rec := send("203.0.113.7")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "0", rec.Header().Get(HeaderRateRemaining))
	assert.NotEmpty(t, rec.Header().Get(HeaderRetryAfter))
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body deniedResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Too Many Requests", body.Error)
	assert.Equal(t, 60, body.RetryAfter)
}

func TestMiddleware_DeniedClientDoesNotStarveOthers(t *testing.T) {
	handler := newGuardedHandler(Config{MaxRequests: 1, Window: time.Minute})

	first := httptest.NewRequest(http.MethodPost, "/api/query", nil)
	first.Header.Set("X-Real-IP", "203.0.113.7")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, first)
	require.Equal(t, http.StatusOK, rec.Code)

	again := httptest.NewRequest(http.MethodPost, "/api/query", nil)
	again.Header.Set("X-Real-IP", "203.0.113.7")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, again)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)

	other := httptest.NewRequest(http.MethodPost, "/api/query", nil)
	other.Header.Set("X-Real-IP", "198.51.100.4")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, other)
	assert.Equal(t, http.StatusOK, rec.Code)
}
