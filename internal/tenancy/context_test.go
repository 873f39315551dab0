package tenancy

import (
	"context"
	"testing"
)

func TestCallerFromContext(t *testing.T) {
	if _, ok := CallerFromContext(context.Background()); ok {
		t.Fatal("expected no caller in empty context")
	}
	if _, ok := CallerFromContext(WithCaller(context.Background(), Caller{Role: RoleAdmin})); ok {
		t.Fatal("expected caller without email to be rejected")
	}

	ctx := WithCaller(context.Background(), Caller{Email: "ana@example.com", Role: RoleSuperadmin})
	caller, ok := CallerFromContext(ctx)
	if !ok {
		t.Fatal("expected caller")
	}
	if caller.Email != "ana@example.com" || caller.Role != RoleSuperadmin {
		t.Fatalf("unexpected caller %+v", caller)
	}
}

func TestParseRoleAndAdminLike(t *testing.T) {
	cases := map[string]Role{
		"admin":       RoleAdmin,
		" SuperAdmin": RoleSuperadmin,
		"user":        RoleUser,
		"":            RoleUser,
		"owner":       RoleUser,
	}
	for raw, want := range cases {
		if got := ParseRole(raw); got != want {
			t.Errorf("ParseRole(%q) = %q, want %q", raw, got, want)
		}
	}
	if RoleUser.AdminLike() {
		t.Error("user must not be admin-like")
	}
	if !RoleAdmin.AdminLike() || !RoleSuperadmin.AdminLike() {
		t.Error("admin and superadmin must be admin-like")
	}
}
