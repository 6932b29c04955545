package httpx

import (
	"errors"
	"net/http"

	"github.com/meridian-homes/meridian/internal/shared"
)

// ReasonCode returns the machine-readable reason carried on denial responses
// and redirect query parameters. It never leaks which specific rule matched,
// only the category.
func ReasonCode(err error) string {
	switch {
	case errors.Is(err, shared.ErrAuthenticationRequired):
		return "authentication_required"
	case errors.Is(err, shared.ErrAccountDisabled):
		return "account_disabled"
	case errors.Is(err, shared.ErrProjectAccessDenied):
		return "project_access_denied"
	case errors.Is(err, shared.ErrAccessDenied):
		return "access_denied"
	default:
		return "internal_error"
	}
}

// RespondError maps domain errors to HTTP responses using RFC7807.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, shared.ErrConflict):
		Problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, shared.ErrValidation):
		Problem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
	case errors.Is(err, shared.ErrAuthenticationRequired), errors.Is(err, shared.ErrInvalidCredentials):
		Problem(w, http.StatusUnauthorized, "Unauthorized", err.Error())
	case errors.Is(err, shared.ErrAccountDisabled),
		errors.Is(err, shared.ErrAccessDenied),
		errors.Is(err, shared.ErrProjectAccessDenied):
		Problem(w, http.StatusForbidden, "Forbidden", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
