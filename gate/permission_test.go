package gate_test

import (
	"testing"

	"github.com/diewo77/go-bistro/gate"
)

func TestNewPermission(t *testing.T) {
	if got := gate.NewPermission("order", gate.ActionCreate); got != "order:create" {
		t.Fatalf("expected order:create, got %q", got)
	}
}

func TestPermissionParse(t *testing.T) {
	res, act := gate.Permission("dish:view").Parse()
	if res != "dish" || act != gate.ActionView {
		t.Fatalf("unexpected parse result %q %q", res, act)
	}
	for _, bad := range []gate.Permission{"dish", ":view", "dish:", ""} {
		if bad.Valid() {
			t.Errorf("%q should be invalid", bad)
		}
	}
}

func TestPermissionMatches(t *testing.T) {
	cases := []struct {
		granted   gate.Permission
		requested gate.Permission
		want      bool
	}{
		{"order:create", "order:create", true},
		{"order:create", "order:delete", false},
		{"order:create", "staff:create", false},
		{"order:*", "order:pay", true},
		{"order:*", "dish:view", false},
		{"*:view", "finance:view", true},
		{"*:view", "finance:update", false},
		{gate.PermissionSuperAdmin, "staff:delete", true},
		{"broken", "order:create", false},
	}
	for _, tc := range cases {
		if got := tc.granted.Matches(tc.requested); got != tc.want {
			t.Errorf("%s matches %s: expected %v got %v", tc.granted, tc.requested, tc.want, got)
		}
	}
}

func TestActionReadOnly(t *testing.T) {
	if !gate.ActionExport.ReadOnly() || gate.ActionPay.ReadOnly() {
		t.Fatal("unexpected read-only classification")
	}
}
