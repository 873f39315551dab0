package tenancy

import (
	"context"
	"strings"
)

type ctxKey string

const callerKey ctxKey = "crm.caller"

// Role is the caller's authorization level.
type Role string

const (
	RoleUser       Role = "user"
	RoleAdmin      Role = "admin"
	RoleSuperadmin Role = "superadmin"
)

// ParseRole maps a claim value to a Role. Unknown values are treated as ordinary users.
func ParseRole(raw string) Role {
	switch Role(strings.ToLower(strings.TrimSpace(raw))) {
	case RoleAdmin:
		return RoleAdmin
	case RoleSuperadmin:
		return RoleSuperadmin
	default:
		return RoleUser
	}
}

// AdminLike reports whether the role may act across tenants.
func (r Role) AdminLike() bool {
	return r == RoleAdmin || r == RoleSuperadmin
}

// Caller is the authenticated identity resolved by the auth layer.
type Caller struct {
	Email    string
	Role     Role
	TenantID string
}

// WithCaller stores the authenticated caller in context.
func WithCaller(ctx context.Context, caller Caller) context.Context {
	return context.WithValue(ctx, callerKey, caller)
}

// CallerFromContext returns the caller; ok is false when no caller with an email is present.
func CallerFromContext(ctx context.Context) (Caller, bool) {
	caller, ok := ctx.Value(callerKey).(Caller)
	return caller, ok && caller.Email != ""
}
