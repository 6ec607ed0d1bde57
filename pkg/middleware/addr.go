package middleware

import (
	"log/slog"
	"net/http"
	"net/netip"
	"strings"
)

// parseAddr accepts "ip", "ip:port" and "[ipv6]:port". IPv4-mapped IPv6
// addresses are reduced to IPv4.
func parseAddr(s string) (netip.Addr, bool) {
	s = strings.TrimSpace(s)
	if ap, err := netip.ParseAddrPort(s); err == nil {
		return ap.Addr().Unmap(), true
	}
	if a, err := netip.ParseAddr(s); err == nil {
		return a.Unmap(), true
	}
	return netip.Addr{}, false
}

// forwardedAddr returns the originating client named by a proxy, preferring
// the first X-Forwarded-For entry over X-Real-IP.
func forwardedAddr(r *http.Request) (netip.Addr, bool) {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if a, ok := parseAddr(first); ok {
			return a, true
		}
	}
	return parseAddr(r.Header.Get("X-Real-IP"))
}

// prefixSet is a list of allowed networks.
type prefixSet []netip.Prefix

// parsePrefixes parses CIDRs, logging and skipping invalid ones.
func parsePrefixes(cidrs []string, logger *slog.Logger) prefixSet {
	set := make(prefixSet, 0, len(cidrs))
	for _, cidr := range cidrs {
		p, err := netip.ParsePrefix(strings.TrimSpace(cidr))
		if err != nil {
			logger.Warn("invalid allowlist CIDR, skipping",
				slog.String("cidr", cidr),
				slog.String("error", err.Error()),
			)
			continue
		}
		set = append(set, p.Masked())
	}
	return set
}

func (s prefixSet) contains(a netip.Addr) bool {
	for _, p := range s {
		if p.Contains(a) {
			return true
		}
	}
	return false
}
