// Package rbac owns the role, grant and authorization model: the closed role
// set, role inheritance, route allow-lists, project scoping and the request
// authorization middleware.
package rbac

import (
	"fmt"
	"time"

	"github.com/meridian-homes/meridian/internal/shared"
)

// RoleName identifies a role from the closed set seeded at setup.
type RoleName string

const (
	RoleSuperAdmin      RoleName = "SUPER_ADMIN"
	RoleAdmin           RoleName = "ADMIN"
	RoleSalesManager    RoleName = "SALES_MANAGER"
	RoleSalesPerson     RoleName = "SALES_PERSON"
	RoleFinance         RoleName = "FINANCE"
	RoleCustomerService RoleName = "CUSTOMER_SERVICE"
	RoleUser            RoleName = "USER"
)

// AllRoles lists the closed role set in seniority order.
func AllRoles() []RoleName {
	return []RoleName{
		RoleSuperAdmin,
		RoleAdmin,
		RoleSalesManager,
		RoleSalesPerson,
		RoleFinance,
		RoleCustomerService,
		RoleUser,
	}
}

// ParseRole validates a raw role value against the closed set. Unknown values
// fail closed.
func ParseRole(raw string) (RoleName, error) {
	for _, r := range AllRoles() {
		if RoleName(raw) == r {
			return r, nil
		}
	}
	return "", fmt.Errorf("%w: unknown role %q", shared.ErrAccessDenied, raw)
}

// Role is reference data describing one member of the closed set.
type Role struct {
	ID          int64    `json:"id"`
	Name        RoleName `json:"name"`
	DisplayName string   `json:"display_name"`
}

// ButtonPermission is a named, menu-scoped action grantable independently of
// menu visibility. Identifier is unique; scanner-generated catalog rows keep
// their route method and path and may lack a resolved menu.
type ButtonPermission struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Identifier  string    `json:"identifier"`
	Description string    `json:"description,omitempty"`
	MenuID      *int64    `json:"menu_id,omitempty"`
	Method      string    `json:"method,omitempty"`
	Path        string    `json:"path,omitempty"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Identity describes the authenticated actor as the middleware sees it.
type Identity struct {
	ID       int64
	Email    string
	Role     RoleName
	IsActive bool
	Scope    ProjectScope
}
