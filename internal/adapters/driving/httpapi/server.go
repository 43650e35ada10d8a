// Package httpapi exposes the retrieval pipeline over HTTP. The query
// endpoint sits behind the fixed-window rate limiter; health checks do not.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/trander-25/23521801-vuthevinh-lab06/internal/core/ports/driving"
	"github.com/trander-25/23521801-vuthevinh-lab06/internal/logger"
	"github.com/trander-25/23521801-vuthevinh-lab06/internal/ratelimit"
)

// Default server timeouts.
const (
	DefaultAddr            = ":8080"
	DefaultReadTimeout     = 10 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultShutdownTimeout = 10 * time.Second
)

// maxQueryBody caps the request body size for the query endpoint.
const maxQueryBody = 64 * 1024

// Server serves the retrieval API.
type Server struct {
	httpServer *http.Server
	queries    driving.QueryService
	limiter    *ratelimit.Limiter
}

// Option configures a Server.
type Option func(*Server)

// WithAddr overrides the listen address.
func WithAddr(addr string) Option {
	return func(s *Server) {
		s.httpServer.Addr = addr
	}
}

// WithLimiter overrides the rate limiter.
func WithLimiter(l *ratelimit.Limiter) Option {
	return func(s *Server) {
		s.limiter = l
	}
}

// NewServer creates an API server over the query service.
func NewServer(queries driving.QueryService, opts ...Option) *Server {
	s := &Server{
		httpServer: &http.Server{
			Addr:         DefaultAddr,
			ReadTimeout:  DefaultReadTimeout,
			WriteTimeout: DefaultWriteTimeout,
		},
		queries: queries,
		limiter: ratelimit.NewLimiter(ratelimit.DefaultConfig),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.httpServer.Handler = s.routes()
	return s
}

// Handler returns the HTTP handler, wired for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("API server listening on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
	defer cancel()

	logger.Info("Shutting down API server")
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

// routes assembles the mux. Only the query endpoint is rate limited.
func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("POST /api/query", ratelimit.Middleware(s.limiter, http.HandlerFunc(s.handleQuery)))
	return mux
}

// queryRequest is the query endpoint request body.
type queryRequest struct {
	Query string `json:"query"`
}

// queryResult is one search hit in the response.
type queryResult struct {
	Content       string  `json:"content"`
	DocumentTitle string  `json:"documentTitle"`
	Similarity    float64 `json:"similarity"`
}

// queryResponse is the query endpoint response body.
type queryResponse struct {
	Context string        `json:"context"`
	Results []queryResult `json:"results"`
}

// errorResponse is the shared error body shape.
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	body := http.MaxBytesReader(w, r.Body, maxQueryBody)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:   "Bad Request",
			Message: "body must be JSON with a \"query\" field",
		})
		return
	}

	if strings.TrimSpace(req.Query) == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:   "Bad Request",
			Message: "query must not be empty",
		})
		return
	}

	contextBlock, results, err := s.queries.Context(r.Context(), req.Query)
	if err != nil {
		logger.Error("Query failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Internal Server Error"})
		return
	}

	resp := queryResponse{
		Context: contextBlock,
		Results: make([]queryResult, len(results)),
	}
	for i, res := range results {
		resp.Results[i] = queryResult{
			Content:       res.Content,
			DocumentTitle: res.DocumentTitle,
			Similarity:    res.Similarity,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Debug("Writing response: %v", err)
	}
}
