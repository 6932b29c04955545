package rbac

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/meridian-homes/meridian/internal/audit"
	"github.com/meridian-homes/meridian/internal/platform/httpx"
	"github.com/meridian-homes/meridian/internal/shared"
)

// IdentityStore resolves the authenticated actor for a session user id.
type IdentityStore interface {
	IdentityByID(ctx context.Context, id int64) (Identity, error)
}

// Middleware intercepts every request and applies the role and project-scope
// checks before the domain handler runs.
type Middleware struct {
	Identities IdentityStore
	Service    *Service
	Logger     *slog.Logger
}

type identityContextKey struct{}

// ContextWithIdentity stores the resolved identity in context.
func ContextWithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, id)
}

// IdentityFromContext extracts the identity placed by Authorize.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityContextKey{}).(Identity)
	return id, ok
}

// Authorize runs the request authorization state machine. Public routes pass
// without identity; everything else needs a session, an active account, a
// role route match and, for project paths, scope containment.
func (m Middleware) Authorize(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		if PublicRoute(path) {
			next.ServeHTTP(w, r)
			return
		}

		identity, err := m.resolveIdentity(r)
		if err != nil {
			m.deny(w, r, err)
			return
		}

		if !identity.IsActive {
			m.deny(w, r, shared.ErrAccountDisabled)
			return
		}
		if _, err := ParseRole(string(identity.Role)); err != nil {
			// Unknown role values fail closed.
			m.deny(w, r, shared.ErrAccessDenied)
			return
		}

		if identity.Role != RoleSuperAdmin {
			if !RouteAllowed(identity.Role, path) {
				m.deny(w, r, shared.ErrAccessDenied)
				return
			}
			if projectID, ok := ExtractProjectID(path); ok {
				if !identity.Scope.Allows(projectID) {
					m.deny(w, r, shared.ErrProjectAccessDenied)
					return
				}
			}
		}

		next.ServeHTTP(w, r.WithContext(ContextWithIdentity(r.Context(), identity)))
	})
}

// RequireRole guards a subtree for the listed roles. SUPER_ADMIN always
// passes.
func (m Middleware) RequireRole(roles ...RoleName) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := IdentityFromContext(r.Context())
			if !ok {
				m.deny(w, r, shared.ErrAuthenticationRequired)
				return
			}
			if identity.Role == RoleSuperAdmin {
				next.ServeHTTP(w, r)
				return
			}
			for _, role := range roles {
				if Inherits(identity.Role, role) {
					next.ServeHTTP(w, r)
					return
				}
			}
			m.deny(w, r, shared.ErrAccessDenied)
		})
	}
}

// RequirePermission guards a handler behind a button permission identifier.
func (m Middleware) RequirePermission(identifier string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := IdentityFromContext(r.Context())
			if !ok {
				m.deny(w, r, shared.ErrAuthenticationRequired)
				return
			}
			allowed, err := m.Service.HasPermission(r.Context(), identity.Role, identifier)
			if err != nil {
				if m.Logger != nil {
					m.Logger.Error("resolve permission", slog.String("identifier", identifier), slog.Any("error", err))
				}
				httpx.RespondError(w, err)
				return
			}
			if !allowed {
				m.deny(w, r, shared.ErrAccessDenied)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (m Middleware) resolveIdentity(r *http.Request) (Identity, error) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil || sess.User() == "" {
		return Identity{}, shared.ErrAuthenticationRequired
	}
	userID, err := strconv.ParseInt(sess.User(), 10, 64)
	if err != nil {
		return Identity{}, shared.ErrAuthenticationRequired
	}
	identity, err := m.Identities.IdentityByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return Identity{}, shared.ErrAuthenticationRequired
		}
		return Identity{}, err
	}
	return identity, nil
}

func (m Middleware) deny(w http.ResponseWriter, r *http.Request, err error) {
	reason := httpx.ReasonCode(err)
	if m.Logger != nil {
		m.Logger.Info("request denied",
			slog.String("path", r.URL.Path),
			slog.String("reason", reason))
	}
	if wantsHTML(r) {
		if errors.Is(err, shared.ErrAuthenticationRequired) {
			callback := r.URL.Path
			if r.URL.RawQuery != "" {
				callback += "?" + r.URL.RawQuery
			}
			http.Redirect(w, r, "/login?callback="+url.QueryEscape(callback), http.StatusSeeOther)
			return
		}
		http.Redirect(w, r, "/denied?reason="+url.QueryEscape(reason), http.StatusSeeOther)
		return
	}
	status := http.StatusForbidden
	switch {
	case errors.Is(err, shared.ErrAuthenticationRequired):
		status = http.StatusUnauthorized
	case errors.Is(err, shared.ErrAccountDisabled),
		errors.Is(err, shared.ErrAccessDenied),
		errors.Is(err, shared.ErrProjectAccessDenied):
		status = http.StatusForbidden
	default:
		status = http.StatusInternalServerError
	}
	httpx.Deny(w, status, reason)
}

// CurrentActor builds the audit actor for the request's identity.
func CurrentActor(r *http.Request) audit.Actor {
	actor := audit.Actor{IPAddress: r.RemoteAddr, UserAgent: r.UserAgent()}
	if identity, ok := IdentityFromContext(r.Context()); ok {
		actor.UserID = identity.ID
	}
	return actor
}

func wantsHTML(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}
