package rbac

import "testing"

func TestRouteAllowed(t *testing.T) {
	cases := []struct {
		role RoleName
		path string
		want bool
	}{
		{RoleSalesPerson, "/projects/P-001/sales-control", true},
		{RoleSalesPerson, "/projects/P-001/withdrawals", false},
		{RoleSalesManager, "/projects/P-001/withdrawals", true},
		{RoleSalesManager, "/projects/P-001/sales-control", true}, // inherited
		{RoleSalesManager, "/menus", false},
		{RoleAdmin, "/menus", true},
		{RoleAdmin, "/projects/P-001/sales-control", true}, // inherited via chain
		{RoleFinance, "/projects/P-001/budgets", true},
		{RoleFinance, "/projects/P-001/sales-control", false},
		{RoleCustomerService, "/projects/P-001/appointments", true},
		{RoleCustomerService, "/projects/P-001/budgets", false},
		{RoleUser, "/dashboard", true},
		{RoleUser, "/projects", false},
		{RoleSuperAdmin, "/anything/at/all", true},
	}
	for _, tc := range cases {
		if got := RouteAllowed(tc.role, tc.path); got != tc.want {
			t.Errorf("RouteAllowed(%s, %q) = %v, want %v", tc.role, tc.path, got, tc.want)
		}
	}
}

func TestPublicRoute(t *testing.T) {
	for _, path := range []string{"/", "/healthz", "/login", "/denied", "/auth/login", "/auth/logout"} {
		if !PublicRoute(path) {
			t.Errorf("PublicRoute(%q) = false", path)
		}
	}
	for _, path := range []string{"/me", "/menus", "/projects", "/admin/roles"} {
		if PublicRoute(path) {
			t.Errorf("PublicRoute(%q) = true", path)
		}
	}
}
