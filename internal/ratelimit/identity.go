package ratelimit

import (
	"net/http"
	"strings"
)

// Headers consulted to resolve a client identity behind proxies and load
// balancers.
const (
	headerForwardedFor = "X-Forwarded-For"
	headerRealIP       = "X-Real-IP"
)

// AnonymousClient is the fallback identity used when no forwarding header is
// present. All such clients share one bucket: any single anonymous client is
// under-restricted while the aggregate of them is over-restricted. This
// matches the source behaviour; deployments that terminate TLS at a proxy
// always carry a forwarding header and never hit the fallback.
const AnonymousClient = "anonymous"

// ClientIdentifier resolves a client identity from request headers: the
// first X-Forwarded-For entry if present, else X-Real-IP, else
// AnonymousClient.
func ClientIdentifier(h http.Header) string {
	if forwarded := h.Get(headerForwardedFor); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}

	if realIP := h.Get(headerRealIP); realIP != "" {
		return realIP
	}

	return AnonymousClient
}
