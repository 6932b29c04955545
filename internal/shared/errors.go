package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrValidation indicates malformed or conflicting input.
	ErrValidation = errors.New("validation failed")
	// ErrConflict indicates the operation would violate a uniqueness or dependency rule.
	ErrConflict = errors.New("conflict")
	// ErrAuthenticationRequired indicates the request carries no identity.
	ErrAuthenticationRequired = errors.New("authentication required")
	// ErrAccountDisabled indicates the identity exists but is deactivated.
	ErrAccountDisabled = errors.New("account disabled")
	// ErrAccessDenied indicates the role lacks route or action permission.
	ErrAccessDenied = errors.New("access denied")
	// ErrProjectAccessDenied indicates the project scope does not contain the target project.
	ErrProjectAccessDenied = errors.New("project access denied")
	// ErrIntegrity indicates a data inconsistency observed on a read path.
	ErrIntegrity = errors.New("data integrity fault")
	// ErrCSRFTokenMissing occurs when CSRF token missing.
	ErrCSRFTokenMissing = errors.New("csrf token missing")
	// ErrCSRFTokenMismatch occurs when CSRF tokens do not match.
	ErrCSRFTokenMismatch = errors.New("csrf token mismatch")
)
