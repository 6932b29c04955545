package rbac

// inheritanceTable declares which roles each role inherits from. Kept
// declarative so the monotonicity of inherited access stays mechanically
// checkable: a role's effective set is always a superset of every role it
// inherits.
var inheritanceTable = map[RoleName][]RoleName{
	RoleSuperAdmin:   {RoleAdmin},
	RoleAdmin:        {RoleSalesManager},
	RoleSalesManager: {RoleSalesPerson},
}

// InheritanceChain returns the role followed by every role it transitively
// inherits from. The walk is visited-bounded, so a miswired table cannot
// loop.
func InheritanceChain(role RoleName) []RoleName {
	seen := map[RoleName]bool{}
	var chain []RoleName
	stack := []RoleName{role}
	for len(stack) > 0 {
		r := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[r] {
			continue
		}
		seen[r] = true
		chain = append(chain, r)
		stack = append(stack, inheritanceTable[r]...)
	}
	return chain
}

// Inherits reports whether role transitively inherits from other.
func Inherits(role, other RoleName) bool {
	for _, r := range InheritanceChain(role) {
		if r == other {
			return true
		}
	}
	return false
}
