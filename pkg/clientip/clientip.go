// Package clientip resolves the caller's address for rate limiting and
// logging.
package clientip

import (
	"fmt"
	"net"
	"net/http"
	"strings"
)

// Resolver reads X-Forwarded-For only when the direct peer is one of the
// trusted proxies. The zero value and nil trust nobody and use RemoteAddr.
type Resolver struct {
	trusted []*net.IPNet
}

// New parses proxies as CIDRs or bare IPs, e.g. "10.0.0.0/8" or "127.0.0.1".
func New(proxies []string) (*Resolver, error) {
	r := &Resolver{}
	for _, p := range proxies {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if !strings.Contains(p, "/") {
			ip := net.ParseIP(p)
			if ip == nil {
				return nil, fmt.Errorf("clientip: invalid proxy %q", p)
			}
			bits := 128
			if ip.To4() != nil {
				bits = 32
			}
			r.trusted = append(r.trusted, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
			continue
		}
		_, n, err := net.ParseCIDR(p)
		if err != nil {
			return nil, fmt.Errorf("clientip: invalid proxy %q: %w", p, err)
		}
		r.trusted = append(r.trusted, n)
	}
	return r, nil
}

func (r *Resolver) isTrusted(ip net.IP) bool {
	if r == nil || ip == nil {
		return false
	}
	for _, n := range r.trusted {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

// ClientIP walks X-Forwarded-For from the right past trusted hops and
// returns the first address a trusted proxy vouched for. Without a trusted
// peer, or on a malformed header, it returns the peer address.
func (r *Resolver) ClientIP(req *http.Request) string {
	peer := RealClientIP(req)
	if !r.isTrusted(net.ParseIP(peer)) {
		return peer
	}
	header := req.Header.Get("X-Forwarded-For")
	if header == "" {
		return peer
	}
	hops := strings.Split(header, ",")
	client := peer
	for i := len(hops) - 1; i >= 0; i-- {
		hop := strings.TrimSpace(hops[i])
		ip := net.ParseIP(hop)
		if ip == nil {
			return client
		}
		client = hop
		if !r.isTrusted(ip) {
			break
		}
	}
	return client
}

// RealClientIP returns the host part of r.RemoteAddr, ignoring proxy headers.
func RealClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return strings.TrimSpace(r.RemoteAddr)
	}
	return strings.TrimSpace(host)
}
