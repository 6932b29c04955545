package rbac

import "testing"

func chainContains(chain []RoleName, role RoleName) bool {
	for _, r := range chain {
		if r == role {
			return true
		}
	}
	return false
}

func TestInheritanceChain(t *testing.T) {
	chain := InheritanceChain(RoleSuperAdmin)
	for _, want := range []RoleName{RoleSuperAdmin, RoleAdmin, RoleSalesManager, RoleSalesPerson} {
		if !chainContains(chain, want) {
			t.Fatalf("SUPER_ADMIN chain missing %s", want)
		}
	}
	if chainContains(chain, RoleFinance) || chainContains(chain, RoleCustomerService) {
		t.Fatal("sales chain must not include disjoint roles")
	}
}

func TestInheritanceIsMonotonic(t *testing.T) {
	// Everything a junior role can do, its seniors can do too.
	juniors := InheritanceChain(RoleSalesManager)
	seniors := InheritanceChain(RoleAdmin)
	for _, r := range juniors {
		if !chainContains(seniors, r) {
			t.Fatalf("ADMIN chain missing inherited role %s", r)
		}
	}
}

func TestDisjointRoles(t *testing.T) {
	for _, role := range []RoleName{RoleFinance, RoleCustomerService, RoleUser} {
		chain := InheritanceChain(role)
		if len(chain) != 1 || chain[0] != role {
			t.Fatalf("%s must not inherit, got %v", role, chain)
		}
	}
}

func TestInherits(t *testing.T) {
	if !Inherits(RoleSuperAdmin, RoleSalesPerson) {
		t.Fatal("SUPER_ADMIN inherits SALES_PERSON")
	}
	if Inherits(RoleSalesPerson, RoleSalesManager) {
		t.Fatal("SALES_PERSON must not inherit upward")
	}
	if Inherits(RoleFinance, RoleSalesPerson) {
		t.Fatal("FINANCE is disjoint from the sales chain")
	}
}

func TestParseRoleFailsClosed(t *testing.T) {
	if _, err := ParseRole("INTERN"); err == nil {
		t.Fatal("unknown role must be rejected")
	}
	role, err := ParseRole("SALES_MANAGER")
	if err != nil || role != RoleSalesManager {
		t.Fatalf("ParseRole(SALES_MANAGER) = %v, %v", role, err)
	}
}
