// internal/requestinfo/middleware.go
//
// Enrich: attach *RequestInfo to every request.
//
// Context
// -------
// cmd/web installs Enrich after chi's RequestID and RealIP middleware, so
// the request id is known by the time it runs.  The booking process
// endpoint reads the bot flag and the country from the result, tags its
// log lines with LogFields, and the templates pick the page language.
//
// Client address
// --------------
// The first public address in X-Forwarded-For wins.  Private, loopback,
// and link-local hops are proxies, not visitors.  When every hop is
// private the first parseable one is used, then X-Real-Ip, then the peer
// address.
//
// Notes
// -----
// • Geo lookups are a no-op until InitGeo succeeds.
// • Oxford commas, two spaces after periods.
package requestinfo

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

// Enrich parses the request once and stores the result in its context.
func Enrich(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		info := &RequestInfo{
			RequestID: middleware.GetReqID(r.Context()),
			UA:        ParseUA(r.UserAgent(), r.Header.Get("Accept-Language")),
			Geo:       lookupGeo(clientIP(r)),
			URL:       r.URL,
			Timestamp: time.Now().UTC(),
		}
		next.ServeHTTP(w, r.WithContext(WithInfo(r.Context(), info)))
	})
}

// LogFields returns key/value pairs for a request-scoped logger.  A nil
// receiver yields nil.
func (ri *RequestInfo) LogFields() []any {
	if ri == nil {
		return nil
	}
	out := []any{"ip", ri.Geo.IP.String()}
	if ri.RequestID != "" {
		out = append(out, "request_id", ri.RequestID)
	}
	if ri.Geo.CountryISO != "" {
		out = append(out, "country", ri.Geo.CountryISO)
	}
	if ri.UA.IsBot {
		out = append(out, "bot", true)
	}
	return out
}

// clientIP picks the visitor address; see the file comment for the order.
func clientIP(r *http.Request) net.IP {
	var fallback netip.Addr
	for _, part := range strings.Split(r.Header.Get("X-Forwarded-For"), ",") {
		a, err := netip.ParseAddr(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		if isPublic(a) {
			return net.IP(a.AsSlice())
		}
		if !fallback.IsValid() {
			fallback = a
		}
	}
	if fallback.IsValid() {
		return net.IP(fallback.AsSlice())
	}
	if a, err := netip.ParseAddr(strings.TrimSpace(r.Header.Get("X-Real-Ip"))); err == nil {
		return net.IP(a.AsSlice())
	}
	if ap, err := netip.ParseAddrPort(r.RemoteAddr); err == nil {
		return net.IP(ap.Addr().Unmap().AsSlice())
	}
	return nil
}

func isPublic(a netip.Addr) bool {
	a = a.Unmap()
	return !(a.IsPrivate() || a.IsLoopback() || a.IsLinkLocalUnicast() || a.IsUnspecified())
}
