package middleware

import (
	"net/http"
	"strings"
)

const (
	corsAllowedHeaders = "Authorization, Content-Type, X-Tenant-Id, X-Request-ID"
	corsAllowedMethods = "GET, POST, PUT, DELETE, OPTIONS"
)

type corsPolicy struct {
	allowAny bool
	origins  map[string]struct{}
}

func newCORSPolicy(allowedOrigins []string) corsPolicy {
	p := corsPolicy{origins: map[string]struct{}{}}
	for _, origin := range allowedOrigins {
		origin = strings.TrimRight(strings.TrimSpace(origin), "/")
		switch origin {
		case "":
		case "*":
			p.allowAny = true
		default:
			p.origins[origin] = struct{}{}
		}
	}
	return p
}

func (p corsPolicy) allows(origin string) bool {
	if p.allowAny {
		return true
	}
	_, ok := p.origins[origin]
	return ok
}

// CORS answers browser requests from the assistant UI origins.
// A "*" entry echoes any Origin back. Preflights from other origins get 403.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	policy := newCORSPolicy(allowedOrigins)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := strings.TrimSpace(r.Header.Get("Origin"))
			allowed := origin != "" && policy.allows(origin)
			if allowed {
				h := w.Header()
				h.Set("Access-Control-Allow-Origin", origin)
				h.Add("Vary", "Origin")
				h.Set("Access-Control-Allow-Headers", corsAllowedHeaders)
				h.Set("Access-Control-Allow-Methods", corsAllowedMethods)
				h.Set("Access-Control-Max-Age", "600")
			}

			if r.Method == http.MethodOptions && origin != "" && r.Header.Get("Access-Control-Request-Method") != "" {
				if !allowed {
					writeError(w, http.StatusForbidden, "origin not allowed")
					return
				}
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
