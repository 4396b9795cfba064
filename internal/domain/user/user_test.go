package user

import "testing"

func TestRoleOneOf(t *testing.T) {
	if !RoleAdmin.OneOf(RoleAdmin) {
		t.Fatalf("admin should match an admin allow-list")
	}

	if RoleUser.OneOf(RoleAdmin) {
		t.Fatalf("user must not match an admin-only allow-list")
	}

	if !RoleUser.OneOf(RoleAdmin, RoleUser) {
		t.Fatalf("user should match a list containing user")
	}

	if RoleUser.OneOf() {
		t.Fatalf("an empty allow-list permits nobody")
	}
}

func TestRoleAndStatusValid(t *testing.T) {
	for _, r := range []Role{RoleUser, RoleAdmin} {
		if !r.Valid() {
			t.Fatalf("role %q should be valid", r)
		}
	}

	if Role("superuser").Valid() {
		t.Fatalf("unknown role must be invalid")
	}

	for _, s := range []Status{StatusActive, StatusInactive} {
		if !s.Valid() {
			t.Fatalf("status %q should be valid", s)
		}
	}

	if Status("banned").Valid() {
		t.Fatalf("unknown status must be invalid")
	}
}

func TestNormalizeEmail(t *testing.T) {
	cases := map[string]string{
		"Alice@X.com":        "alice@x.com",
		"  bob@example.com ": "bob@example.com",
		"carol@example.com":  "carol@example.com",
	}

	for in, want := range cases {
		if got := NormalizeEmail(in); got != want {
			t.Fatalf("NormalizeEmail(%q) = %q, want %q", in, got, want)
		}
	}
}
