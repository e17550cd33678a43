package utils

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// Proxy headers consulted by ClientIP, most specific first.
var clientIPHeaders = []string{"X-Forwarded-For", "CF-Connecting-IP", "X-Real-IP"}

// ClientIP returns the address the guest rate limit is keyed on: the first
// valid entry of the proxy headers, else the connection's remote address.
// IPv4-mapped IPv6 addresses are unmapped so both forms share one bucket.
// An empty string means no usable address was found.
func ClientIP(r *http.Request) string {
	for _, h := range clientIPHeaders {
		for _, candidate := range strings.Split(r.Header.Get(h), ",") {
			if ip, ok := parseClientIP(candidate); ok {
				return ip
			}
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if ip, ok := parseClientIP(host); ok {
		return ip
	}
	return ""
}

func parseClientIP(s string) (string, bool) {
	addr, err := netip.ParseAddr(strings.TrimSpace(s))
	if err != nil {
		return "", false
	}
	return addr.Unmap().String(), true
}
