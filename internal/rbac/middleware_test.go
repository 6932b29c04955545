package rbac

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/meridian-homes/meridian/internal/shared"
)

type stubIdentities struct {
	identity Identity
	err      error
}

func (s stubIdentities) IdentityByID(ctx context.Context, id int64) (Identity, error) {
	if s.err != nil {
		return Identity{}, s.err
	}
	return s.identity, nil
}

func testMiddleware(identity Identity, err error) Middleware {
	return Middleware{
		Identities: stubIdentities{identity: identity, err: err},
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func doRequest(t *testing.T, mw Middleware, path, accept string, sess *shared.Session) (*httptest.ResponseRecorder, bool) {
	t.Helper()
	var reached bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
		w.WriteHeader(http.StatusOK)
	})
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	if sess != nil {
		req = req.WithContext(shared.ContextWithSession(req.Context(), sess))
	}
	rec := httptest.NewRecorder()
	mw.Authorize(next).ServeHTTP(rec, req)
	return rec, reached
}

func sessionFor(userID string) *shared.Session {
	sess := &shared.Session{}
	sess.SetUser(userID)
	return sess
}

func TestAuthorizePublicRouteBypassesIdentity(t *testing.T) {
	mw := testMiddleware(Identity{}, shared.ErrNotFound)
	rec, reached := doRequest(t, mw, "/healthz", "", nil)
	if !reached || rec.Code != http.StatusOK {
		t.Fatalf("public route should pass, code=%d reached=%v", rec.Code, reached)
	}
}

func TestAuthorizeUnauthenticatedAPI(t *testing.T) {
	mw := testMiddleware(Identity{}, nil)
	rec, reached := doRequest(t, mw, "/me", "application/json", nil)
	if reached {
		t.Fatal("handler must not run")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("code = %d, want 401", rec.Code)
	}
}

func TestAuthorizeUnauthenticatedBrowserRedirects(t *testing.T) {
	mw := testMiddleware(Identity{}, nil)
	rec, _ := doRequest(t, mw, "/me/menus", "text/html", nil)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("code = %d, want 303", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/login?callback=%2Fme%2Fmenus" {
		t.Fatalf("location = %q", loc)
	}
}

func TestAuthorizeDisabledAccount(t *testing.T) {
	identity := Identity{ID: 7, Role: RoleSalesPerson, IsActive: false, Scope: ParseProjectScope("*")}
	mw := testMiddleware(identity, nil)
	rec, reached := doRequest(t, mw, "/dashboard", "", sessionFor("7"))
	if reached {
		t.Fatal("disabled account must be denied")
	}
	if rec.Code != http.StatusForbidden {
		t.Fatalf("code = %d, want 403", rec.Code)
	}
}

func TestAuthorizeUnknownRoleFailsClosed(t *testing.T) {
	identity := Identity{ID: 7, Role: "INTERN", IsActive: true, Scope: ParseProjectScope("*")}
	mw := testMiddleware(identity, nil)
	rec, reached := doRequest(t, mw, "/dashboard", "", sessionFor("7"))
	if reached || rec.Code != http.StatusForbidden {
		t.Fatalf("unknown role must deny, code=%d reached=%v", rec.Code, reached)
	}
}

func TestAuthorizeRouteDenied(t *testing.T) {
	identity := Identity{ID: 7, Role: RoleSalesPerson, IsActive: true, Scope: ParseProjectScope("*")}
	mw := testMiddleware(identity, nil)
	rec, reached := doRequest(t, mw, "/projects/P-001/withdrawals", "", sessionFor("7"))
	if reached || rec.Code != http.StatusForbidden {
		t.Fatalf("route outside allow-list must deny, code=%d reached=%v", rec.Code, reached)
	}
}

func TestAuthorizeScopeDenied(t *testing.T) {
	identity := Identity{ID: 7, Role: RoleSalesPerson, IsActive: true, Scope: ParseProjectScope("P-002")}
	mw := testMiddleware(identity, nil)
	rec, reached := doRequest(t, mw, "/projects/P-001/sales-control", "", sessionFor("7"))
	if reached || rec.Code != http.StatusForbidden {
		t.Fatalf("out-of-scope project must deny, code=%d reached=%v", rec.Code, reached)
	}
}

func TestAuthorizeAllowedWithinScope(t *testing.T) {
	identity := Identity{ID: 7, Role: RoleSalesPerson, IsActive: true, Scope: ParseProjectScope("P-001,P-002")}
	mw := testMiddleware(identity, nil)
	rec, reached := doRequest(t, mw, "/projects/P-001/sales-control", "", sessionFor("7"))
	if !reached || rec.Code != http.StatusOK {
		t.Fatalf("in-scope request must pass, code=%d reached=%v", rec.Code, reached)
	}
}

func TestAuthorizeEmptyScopeFailsClosed(t *testing.T) {
	identity := Identity{ID: 7, Role: RoleSalesPerson, IsActive: true, Scope: ParseProjectScope("")}
	mw := testMiddleware(identity, nil)
	rec, reached := doRequest(t, mw, "/projects/P-001/sales-control", "", sessionFor("7"))
	if reached || rec.Code != http.StatusForbidden {
		t.Fatalf("empty scope must deny, code=%d reached=%v", rec.Code, reached)
	}
}

func TestAuthorizeSuperAdminBypassesRouteAndScope(t *testing.T) {
	identity := Identity{ID: 1, Role: RoleSuperAdmin, IsActive: true, Scope: ParseProjectScope("")}
	mw := testMiddleware(identity, nil)
	rec, reached := doRequest(t, mw, "/projects/P-999/withdrawals", "", sessionFor("1"))
	if !reached || rec.Code != http.StatusOK {
		t.Fatalf("SUPER_ADMIN must bypass checks, code=%d reached=%v", rec.Code, reached)
	}
}

func TestAuthorizeIdentityLookupMissing(t *testing.T) {
	mw := testMiddleware(Identity{}, shared.ErrNotFound)
	rec, reached := doRequest(t, mw, "/dashboard", "", sessionFor("42"))
	if reached || rec.Code != http.StatusUnauthorized {
		t.Fatalf("stale session must look unauthenticated, code=%d reached=%v", rec.Code, reached)
	}
}

func TestRequireRole(t *testing.T) {
	mw := testMiddleware(Identity{}, nil)
	guard := mw.RequireRole(RoleAdmin)

	var reached bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { reached = true })

	req := httptest.NewRequest(http.MethodGet, "/admin/roles", nil)
	ctx := ContextWithIdentity(req.Context(), Identity{ID: 3, Role: RoleSalesPerson, IsActive: true})
	rec := httptest.NewRecorder()
	guard(next).ServeHTTP(rec, req.WithContext(ctx))
	if reached || rec.Code != http.StatusForbidden {
		t.Fatalf("junior role must be denied, code=%d", rec.Code)
	}

	reached = false
	ctx = ContextWithIdentity(req.Context(), Identity{ID: 2, Role: RoleSuperAdmin, IsActive: true})
	rec = httptest.NewRecorder()
	guard(next).ServeHTTP(rec, req.WithContext(ctx))
	if !reached {
		t.Fatal("SUPER_ADMIN must pass the guard")
	}
}
