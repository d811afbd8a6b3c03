// Package httputil has small HTTP helpers shared by the API and the SSE
// stream.
package httputil

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP returns the originating client address for r. RemoteAddr is
// authoritative unless trustProxy is set, in which case forwarding headers
// set by a fronting reverse proxy win. Never enable trustProxy on a server
// reachable directly, since the headers are client-controlled.
func ClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if ip := forwardedClient(r.Header); ip != "" {
			return ip
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		// RemoteAddr without a port, as seen in hand-built requests.
		return r.RemoteAddr
	}
	return host
}

// forwardedClient reads the proxy headers: X-Forwarded-For first, leftmost
// hop being the original client, then X-Real-IP.
func forwardedClient(h http.Header) string {
	first, _, _ := strings.Cut(h.Get("X-Forwarded-For"), ",")
	if ip := strings.TrimSpace(first); ip != "" {
		return ip
	}
	return strings.TrimSpace(h.Get("X-Real-IP"))
}
