// Package audit owns the append-only permission audit log.
package audit

import "time"

// Actions recorded against the permission subsystem.
const (
	ActionGrant   = "grant"
	ActionRevoke  = "revoke"
	ActionCreate  = "create"
	ActionUpdate  = "update"
	ActionDelete  = "delete"
	ActionCleanup = "cleanup"
	ActionScan    = "scan"
)

// Resource types referenced by audit entries.
const (
	ResourceMenu              = "menu"
	ResourceButtonPermission  = "button_permission"
	ResourceRoleGrant         = "role_grant"
	ResourceAuditLog          = "audit_log"
	ResourcePermissionCatalog = "permission_catalog"
)

// Entry is one append-only audit record. Entries are never updated and only
// removed through explicit retention cleanup.
type Entry struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"user_id"`
	Action       string    `json:"action"`
	ResourceType string    `json:"resource_type"`
	ResourceID   string    `json:"resource_id"`
	Description  string    `json:"description,omitempty"`
	IPAddress    string    `json:"ip_address,omitempty"`
	UserAgent    string    `json:"user_agent,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Actor captures who performed a mutation and from where.
type Actor struct {
	UserID    int64
	IPAddress string
	UserAgent string
}

// Entry builds an audit entry for this actor.
func (a Actor) Entry(action, resourceType, resourceID, description string) Entry {
	return Entry{
		UserID:       a.UserID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Description:  description,
		IPAddress:    a.IPAddress,
		UserAgent:    a.UserAgent,
	}
}

// ActionCount is one bucket of the trailing action breakdown.
type ActionCount struct {
	Action string `json:"action"`
	Count  int64  `json:"count"`
}

// ListFilters narrows audit listings.
type ListFilters struct {
	Action       string
	ResourceType string
	UserID       int64
	From         time.Time
	To           time.Time
	// Search matches description and IP address, case-insensitively.
	Search  string
	Page    int
	PerPage int
}
