package ports

import (
	"fmt"
	"net/http"
	"slices"
	"strings"
)

type AllowedOrigins struct {
	allowAll bool
	domains  []string
}

// NewAllowedOrigins accepts bare domains (example.com). Any https subdomain of a
// domain is allowed as well. The single entry "*" allows every origin.
func NewAllowedOrigins(domains ...string) (*AllowedOrigins, error) {
	if slices.Contains(domains, "*") {
		return &AllowedOrigins{allowAll: true}, nil
	}

	for _, domain := range domains {
		if strings.HasPrefix(domain, ".") {
			return nil, fmt.Errorf("domain %s should not start with a dot", domain)
		}
		if strings.Contains(domain, "://") {
			return nil, fmt.Errorf("domain %s should not contain a scheme", domain)
		}
	}
	return &AllowedOrigins{domains: domains}, nil
}

func (o *AllowedOrigins) Allows(origin string) bool {
	if origin == "" {
		return false
	}
	if o.allowAll {
		return true
	}

	host, ok := strings.CutPrefix(origin, "https://")
	if !ok {
		return false
	}
	for _, domain := range o.domains {
		if host == domain || strings.HasSuffix(host, "."+domain) {
			return true
		}
	}
	return false
}

func BuildCORSMiddleware(allowedOrigins *AllowedOrigins) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			if allowedOrigins.Allows(origin) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Add("Vary", "Origin")

				if r.Method == http.MethodOptions {
					w.Header().Set("Access-Control-Allow-Methods", "GET")
					w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-User-Id")
					w.WriteHeader(http.StatusNoContent)
					return
				}
			}

			next(w, r)
		}
	}
}
