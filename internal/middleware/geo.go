package middleware

import (
	"context"
	"net/http"
	"strings"
)

type countryContextKey struct{}

// CountryLookup resolves ISO country codes for an IP address.
type CountryLookup func(ip string) (string, error)

// ClientCountry stores a best-effort client country code in the request
// context so request and audit log lines can carry it. A nil lookup keeps
// header hints working and skips database resolution.
func ClientCountry(lookup CountryLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if country := resolveCountry(r, lookup); country != "" {
				ctx := context.WithValue(r.Context(), countryContextKey{}, country)
				r = r.WithContext(ctx)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// CountryFromContext returns the ISO country code stored by ClientCountry.
func CountryFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(countryContextKey{}).(string); ok {
		return v
	}
	return ""
}

func resolveCountry(r *http.Request, lookup CountryLookup) string {
	// CDN and platform headers are authoritative when present.
	for _, key := range []string{"CF-IPCountry", "X-Country-Code", "X-Appengine-Country"} {
		if val := strings.TrimSpace(r.Header.Get(key)); val != "" {
			return strings.ToUpper(val)
		}
	}
	if lookup == nil {
		return ""
	}
	ip := ClientIP(r)
	if ip == "" {
		return ""
	}
	country, err := lookup(ip)
	if err != nil {
		return ""
	}
	return strings.ToUpper(country)
}
