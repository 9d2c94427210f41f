package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"net/netip"
	"strings"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/admingrid/internal/core"
)

// ClientIP resolves the client address and stores it, with the user agent
// and chi's request id, in the request context for the audit trail.
//
// X-Real-IP and X-Forwarded-For are honoured ONLY when the connection comes
// from one of the trusted proxy prefixes. Anything else keeps RemoteAddr, so
// clients cannot spoof their address past the rate limiter or audit log.
func ClientIP(trustedCIDRs []string) func(http.Handler) http.Handler {
	trusted := parsePrefixes(trustedCIDRs)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := resolveIP(r, trusted)
			if ip.IsValid() {
				r.RemoteAddr = ip.String()
			}

			ctx := core.WithRequestMeta(r.Context(), core.RequestMeta{
				IPAddress: r.RemoteAddr,
				UserAgent: r.UserAgent(),
				RequestID: chimw.GetReqID(r.Context()),
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// parsePrefixes accepts CIDRs and bare addresses ("127.0.0.1" is 127.0.0.1/32).
func parsePrefixes(cidrs []string) []netip.Prefix {
	var out []netip.Prefix
	for _, cidr := range cidrs {
		cidr = strings.TrimSpace(cidr)
		if cidr == "" {
			continue
		}
		if p, err := netip.ParsePrefix(cidr); err == nil {
			out = append(out, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(cidr)
		if err != nil {
			slog.Warn("realip: invalid trusted proxy, skipping", "cidr", cidr, "error", err)
			continue
		}
		out = append(out, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return out
}

// resolveIP returns the client address, or the zero Addr when RemoteAddr
// cannot be parsed.
func resolveIP(r *http.Request, trusted []netip.Prefix) netip.Addr {
	remote := parseAddr(r.RemoteAddr)
	if !remote.IsValid() || !isTrusted(remote, trusted) {
		return remote
	}

	if rip := parseAddr(r.Header.Get("X-Real-IP")); rip.IsValid() {
		return rip
	}
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := parseAddr(first); ip.IsValid() {
			return ip
		}
	}
	return remote
}

// parseAddr parses "host:port" or a plain address.
func parseAddr(s string) netip.Addr {
	s = strings.TrimSpace(s)
	if host, _, err := net.SplitHostPort(s); err == nil {
		s = host
	}
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return netip.Addr{}
	}
	return addr.Unmap()
}

func isTrusted(ip netip.Addr, trusted []netip.Prefix) bool {
	for _, p := range trusted {
		if p.Contains(ip) {
			return true
		}
	}
	return false
}
