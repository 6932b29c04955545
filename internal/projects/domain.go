// Package projects serves the project directory and the per-project
// sales-control summary. Requests reach it only after the authorization
// middleware has verified the actor's project scope.
package projects

import "time"

// Project is one development the back office manages.
type Project struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	City      string    `json:"city"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Unit statuses tracked on the sales-control board.
const (
	UnitAvailable = "available"
	UnitReserved  = "reserved"
	UnitSold      = "sold"
)

// Unit is one sellable unit inside a project.
type Unit struct {
	ID         int64     `json:"id"`
	ProjectID  string    `json:"project_id"`
	UnitNo     string    `json:"unit_no"`
	Status     string    `json:"status"`
	PriceCents int64     `json:"price_cents"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// SalesControl summarises a project's unit inventory by status.
type SalesControl struct {
	ProjectID string           `json:"project_id"`
	Counts    map[string]int64 `json:"counts"`
	Units     []Unit           `json:"units"`
}
