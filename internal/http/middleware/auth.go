package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/wolfman30/crm-assistant/internal/tenancy"
)

type contextKey string

const callerClaimsKey contextKey = "callerClaims"

// CallerClaims are the claims the assistant reads from a session token.
type CallerClaims struct {
	jwt.RegisteredClaims
	Email    string `json:"email"`
	Role     string `json:"role"`
	TenantID string `json:"tenant_id"`
}

// Caller converts the claims into a tenancy.Caller. The subject stands in for a
// missing email claim.
func (c CallerClaims) Caller() tenancy.Caller {
	email := strings.ToLower(strings.TrimSpace(c.Email))
	if email == "" {
		email = strings.ToLower(strings.TrimSpace(c.Subject))
	}
	return tenancy.Caller{
		Email:    email,
		Role:     tenancy.ParseRole(c.Role),
		TenantID: strings.TrimSpace(c.TenantID),
	}
}

// CallerJWT validates an HMAC-signed bearer token and stores the caller in the
// request context. Tokens must carry an expiry.
func CallerJWT(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				writeAuthError(w, "auth disabled")
				return
			}
			auth := r.Header.Get("Authorization")
			if auth == "" || !strings.HasPrefix(auth, "Bearer ") {
				writeAuthError(w, "missing authorization header")
				return
			}
			tokenString := strings.TrimPrefix(auth, "Bearer ")
			claims := &CallerClaims{}
			token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return []byte(secret), nil
			}, jwt.WithExpirationRequired())
			if err != nil || !token.Valid {
				writeAuthError(w, "invalid token")
				return
			}
			caller := claims.Caller()
			if caller.Email == "" {
				writeAuthError(w, "token has no email")
				return
			}

			ctx := context.WithValue(r.Context(), callerClaimsKey, *claims)
			ctx = tenancy.WithCaller(ctx, caller)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// CallerClaimsFromContext returns the verified token claims if present.
func CallerClaimsFromContext(ctx context.Context) (CallerClaims, bool) {
	claims, ok := ctx.Value(callerClaimsKey).(CallerClaims)
	return claims, ok
}

func writeAuthError(w http.ResponseWriter, msg string) {
	writeError(w, http.StatusUnauthorized, msg)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
