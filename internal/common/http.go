package common

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP returns the caller address without its port. chi's RealIP
// middleware has already folded X-Forwarded-For and X-Real-IP into
// RemoteAddr when it runs first; the headers are consulted here for handlers
// mounted without it.
func ClientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	for _, header := range []string{"X-Forwarded-For", "X-Real-IP"} {
		if first, _, _ := strings.Cut(r.Header.Get(header), ","); strings.TrimSpace(first) != "" {
			return strings.TrimSpace(first)
		}
	}
	addr := strings.TrimSpace(r.RemoteAddr)
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}
