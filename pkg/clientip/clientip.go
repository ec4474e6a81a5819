// Package clientip resolves the client address used as a rate-limit and log key.
package clientip

import (
	"net"
	"net/http"
	"strings"
)

// Unknown is returned when no usable address is present.
const Unknown = "unknown"

// RealClientIP returns the client IP from r.RemoteAddr. Behind a proxy the
// router's RealIP middleware has already rewritten RemoteAddr from
// X-Forwarded-For / X-Real-IP, so headers are not consulted here.
func RealClientIP(r *http.Request) string {
	addr := strings.TrimSpace(r.RemoteAddr)
	if host, _, err := net.SplitHostPort(addr); err == nil {
		addr = host
	}
	addr = strings.Trim(addr, "[]")
	if addr == "" {
		return Unknown
	}
	if ip := net.ParseIP(addr); ip != nil {
		return ip.String()
	}
	return addr
}
