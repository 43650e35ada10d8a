package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trander-25/23521801-vuthevinh-lab06/internal/core/domain"
	"github.com/trander-25/23521801-vuthevinh-lab06/internal/ratelimit"
)

// mockQueryService returns canned context and results.
type mockQueryService struct {
	contextBlock string
	results      []domain.SimilarityResult
	err          error
	lastQuery    string
}

func (m *mockQueryService) Context(ctx context.Context, query string) (string, []domain.SimilarityResult, error) {
	m.lastQuery = query
	return m.contextBlock, m.results, m.err
}

func postQuery(t *testing.T, handler http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/query", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHandleHealth(t *testing.T) {
	server := NewServer(&mockQueryService{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestHandleQuery_Success(t *testing.T) {
	queries := &mockQueryService{
		contextBlock: "[Source 1: Guide]\nUse channels.",
		results: []domain.SimilarityResult{
			{Content: "Use channels.", DocumentTitle: "Guide", Similarity: 0.93},
		},
	}
	server := NewServer(queries)

	rec := postQuery(t, server.Handler(), `{"query": "how do goroutines talk?"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "how do goroutines talk?", queries.lastQuery)

	var resp queryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "[Source 1: Guide]\nUse channels.", resp.Context)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "Guide", resp.Results[0].DocumentTitle)
	assert.InDelta(t, 0.93, resp.Results[0].Similarity, 1e-9)
}

func TestHandleQuery_EmptyQuery(t *testing.T) {
	server := NewServer(&mockQueryService{})

	rec := postQuery(t, server.Handler(), `{"query": "   "}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "query must not be empty")
}

func TestHandleQuery_MalformedBody(t *testing.T) {
	server := NewServer(&mockQueryService{})

	rec := postQuery(t, server.Handler(), `{"query": `)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleQuery_ServiceError(t *testing.T) {
	server := NewServer(&mockQueryService{err: errors.New("boom")})

	rec := postQuery(t, server.Handler(), `{"query": "anything"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Internal Server Error")
}

func TestHandleQuery_RateLimited(t *testing.T) {
	limiter := ratelimit.NewLimiter(ratelimit.Config{MaxRequests: 2, Window: ratelimit.DefaultWindow})
	server := NewServer(&mockQueryService{}, WithLimiter(limiter))

	for i := 0; i < 2; i++ {
		rec := postQuery(t, server.Handler(), `{"query": "q"}`)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := postQuery(t, server.Handler(), `{"query": "q"}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
}

func TestHandleQuery_RateLimitHeadersOnSuccess(t *testing.T) {
	server := NewServer(&mockQueryService{})

	rec := postQuery(t, server.Handler(), `{"query": "q"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "10", rec.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "9", rec.Header().Get("X-RateLimit-Remaining"))
}

func TestHealthEndpointNotRateLimited(t *testing.T) {
	limiter := ratelimit.NewLimiter(ratelimit.Config{MaxRequests: 1, Window: ratelimit.DefaultWindow})
	server := NewServer(&mockQueryService{}, WithLimiter(limiter))

	rec := postQuery(t, server.Handler(), `{"query": "q"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = postQuery(t, server.Handler(), `{"query": "q"}`)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	health := httptest.NewRecorder()
	server.Handler().ServeHTTP(health, req)
	assert.Equal(t, http.StatusOK, health.Code)
}

func TestListenAndServe_StopsOnCancel(t *testing.T) {
	server := NewServer(&mockQueryService{}, WithAddr("127.0.0.1:0"))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- server.ListenAndServe(ctx)
	}()

	cancel()
	err := <-done
	assert.NoError(t, err)
}
