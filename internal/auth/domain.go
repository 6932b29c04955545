package auth

import "time"

// User represents a back-office account. ProjectIDs carries the raw
// comma-separated project scope as stored; parsing happens when the
// identity is resolved.
type User struct {
	ID           int64
	Email        string
	Name         string
	PasswordHash string
	Role         string
	ProjectIDs   string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
