package menu

import "time"

// Node is a navigable or grouping entry in the hierarchical application menu.
// Path is empty for pure grouping nodes. ParentID is a weak back-reference;
// nil marks a root.
type Node struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	DisplayName string    `json:"display_name"`
	Path        string    `json:"path,omitempty"`
	Icon        string    `json:"icon,omitempty"`
	ParentID    *int64    `json:"parent_id,omitempty"`
	SortOrder   int       `json:"sort_order"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TreeNode wraps a Node with its resolved children.
type TreeNode struct {
	Node
	Children []*TreeNode `json:"children,omitempty"`
}
