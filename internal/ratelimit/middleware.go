package ratelimit

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/trander-25/23521801-vuthevinh-lab06/internal/logger"
)

// Rate limit response headers.
const (
	HeaderRateLimit     = "X-RateLimit-Limit"
	HeaderRateRemaining = "X-RateLimit-Remaining"
	HeaderRateReset     = "X-RateLimit-Reset"
	HeaderRetryAfter    = "Retry-After"
)

// deniedResponse is the 429 body. RetryAfter is in whole seconds so clients
// can schedule a retry without parsing durations.
type deniedResponse struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	RetryAfter int    `json:"retryAfter"`
}

// Middleware guards next with the admission gate. Admitted requests carry
// limit/remaining/reset headers; denied requests get a 429 with a
// machine-readable retry delay and never reach next. Denial is always
// surfaced, never degraded.
func Middleware(l *Limiter, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientID := ClientIdentifier(r.Header)
		result := l.Check(clientID)

		limit := strconv.Itoa(l.cfg.MaxRequests)
		resetAt := time.Now().Add(result.ResetIn)

		w.Header().Set(HeaderRateLimit, limit)
		w.Header().Set(HeaderRateRemaining, strconv.Itoa(result.Remaining))
		w.Header().Set(HeaderRateReset, strconv.FormatInt(resetAt.Unix(), 10))

		if err := result.Err(); err != nil {
			retryAfter := int(math.Ceil(result.ResetIn.Seconds()))
			logger.Info("%v for %s, retry in %ds", err, clientID, retryAfter)

			w.Header().Set(HeaderRetryAfter, strconv.Itoa(retryAfter))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(deniedResponse{
				Error:      "Too Many Requests",
				Message:    fmt.Sprintf("Request quota exhausted. Try again in %d seconds.", retryAfter),
				RetryAfter: retryAfter,
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}
