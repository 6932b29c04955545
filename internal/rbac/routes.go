package rbac

// Static route allow-lists per role. A role's effective set is its own
// patterns plus every inherited role's patterns; FINANCE and
// CUSTOMER_SERVICE stand apart from the sales chain. SUPER_ADMIN never
// consults these tables.
var routePatterns = map[RoleName][]string{
	RoleSalesPerson: {
		"/dashboard",
		"/me",
		"/me/*",
		"/projects",
		"/projects/*",
		"/projects/*/sales-control",
		"/projects/*/sales-control/*",
		"/projects/*/appointments",
		"/projects/*/appointments/*",
		"/projects/*/customers",
		"/projects/*/customers/*",
	},
	RoleSalesManager: {
		"/projects/*/parking",
		"/projects/*/parking/*",
		"/projects/*/personnel",
		"/projects/*/personnel/*",
		"/projects/*/withdrawals",
		"/projects/*/withdrawals/*",
		"/reports",
		"/reports/*",
	},
	RoleAdmin: {
		"/menus",
		"/menus/*",
	},
	RoleFinance: {
		"/dashboard",
		"/me",
		"/me/*",
		"/projects",
		"/projects/*",
		"/projects/*/budgets",
		"/projects/*/budgets/*",
		"/projects/*/expenses",
		"/projects/*/expenses/*",
		"/projects/*/commissions",
		"/projects/*/commissions/*",
		"/projects/*/deposits",
		"/projects/*/deposits/*",
	},
	RoleCustomerService: {
		"/dashboard",
		"/me",
		"/me/*",
		"/projects",
		"/projects/*",
		"/projects/*/appointments",
		"/projects/*/appointments/*",
		"/projects/*/customers",
		"/projects/*/customers/*",
	},
	RoleUser: {
		"/dashboard",
		"/me",
		"/me/*",
	},
}

// publicRoutePatterns bypass identity resolution entirely.
var publicRoutePatterns = []string{
	"/",
	"/healthz",
	"/login",
	"/denied",
	"/auth/login",
	"/auth/logout",
}

// RouteAllowed reports whether the role's effective (inheritance-expanded)
// pattern set matches the path. SUPER_ADMIN is always allowed. A role with
// no patterns denies by default.
func RouteAllowed(role RoleName, path string) bool {
	if role == RoleSuperAdmin {
		return true
	}
	for _, r := range InheritanceChain(role) {
		if MatchAny(routePatterns[r], path) {
			return true
		}
	}
	return false
}

// PublicRoute reports whether the path is reachable without identity.
func PublicRoute(path string) bool {
	return MatchAny(publicRoutePatterns, path)
}

// RoutePatterns returns the role's effective pattern list, inheritance
// expanded, mainly for diagnostics.
func RoutePatterns(role RoleName) []string {
	var patterns []string
	for _, r := range InheritanceChain(role) {
		patterns = append(patterns, routePatterns[r]...)
	}
	return patterns
}
