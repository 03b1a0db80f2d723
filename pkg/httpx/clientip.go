package httpx

import (
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"strings"
	"sync/atomic"
)

// ProxyList is the set of peers allowed to report the client address through
// X-Forwarded-For or X-Real-IP.
type ProxyList []netip.Prefix

// ParseProxies accepts CIDRs ("10.0.0.0/8") and bare addresses ("10.0.0.1").
func ParseProxies(entries []string) (ProxyList, error) {
	out := make(ProxyList, 0, len(entries))
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		if p, err := netip.ParsePrefix(e); err == nil {
			out = append(out, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(e)
		if err != nil {
			return nil, fmt.Errorf("httpx: trusted proxy %q: not an address or CIDR", e)
		}
		addr = addr.Unmap()
		out = append(out, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return out, nil
}

// Contains reports whether addr is one of the trusted proxies.
func (p ProxyList) Contains(addr netip.Addr) bool {
	addr = addr.Unmap()
	for _, prefix := range p {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}

// ClientIP returns the address of the caller. Forwarding headers count only
// when the direct peer is trusted; X-Forwarded-For is then walked from the
// right and the first untrusted hop wins, so a client cannot choose its own
// key by prepending entries.
func (p ProxyList) ClientIP(r *http.Request) string {
	peer := remoteHost(r)
	addr, err := netip.ParseAddr(peer)
	if err != nil || !p.Contains(addr) {
		return peer
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		hops := strings.Split(xff, ",")
		for i := len(hops) - 1; i >= 0; i-- {
			hop, err := netip.ParseAddr(strings.TrimSpace(hops[i]))
			if err != nil {
				break
			}
			if !p.Contains(hop) {
				return hop.Unmap().String()
			}
		}
	}
	if xri, err := netip.ParseAddr(strings.TrimSpace(r.Header.Get("X-Real-IP"))); err == nil {
		return xri.Unmap().String()
	}
	return peer
}

func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

var trustedProxies atomic.Pointer[ProxyList]

// SetTrustedProxies replaces the proxies ClientIP trusts. It is called once at
// startup from RATELIMIT_TRUSTED_PROXIES; by default nothing is trusted.
func SetTrustedProxies(p ProxyList) {
	trustedProxies.Store(&p)
}

// TrustedProxies returns the list installed by SetTrustedProxies.
func TrustedProxies() ProxyList {
	if p := trustedProxies.Load(); p != nil {
		return *p
	}
	return nil
}

// ClientIP keys by the caller address using the process-wide trusted proxies.
func ClientIP(r *http.Request) string {
	return TrustedProxies().ClientIP(r)
}
