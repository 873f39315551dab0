package router

import (
	"net/http"
	"regexp"
	"strings"
)

const tenantHeader = "X-Tenant-Id"

var tenantIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.:-]{0,63}$`)

// validateTenantHeader rejects malformed X-Tenant-Id hints before they reach
// tenant resolution. An absent header passes through.
func validateTenantHeader(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, present := r.Header[http.CanonicalHeaderKey(tenantHeader)]
		if present {
			tenantID := strings.TrimSpace(strings.Join(raw, ""))
			if !tenantIDPattern.MatchString(tenantID) {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid X-Tenant-Id"})
				return
			}
			r.Header.Set(tenantHeader, tenantID)
		}
		next.ServeHTTP(w, r)
	})
}
