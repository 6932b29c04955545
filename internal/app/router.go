package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"

	audithttp "github.com/meridian-homes/meridian/internal/audit/http"
	"github.com/meridian-homes/meridian/internal/auth"
	"github.com/meridian-homes/meridian/internal/menu"
	"github.com/meridian-homes/meridian/internal/platform/httpx"
	"github.com/meridian-homes/meridian/internal/projects"
	"github.com/meridian-homes/meridian/internal/rbac"
	"github.com/meridian-homes/meridian/internal/scanner"
	"github.com/meridian-homes/meridian/internal/shared"
	"github.com/meridian-homes/meridian/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger          *slog.Logger
	Config          *Config
	SessionManager  *shared.SessionManager
	CSRFManager     *shared.CSRFManager
	AuthHandler     *auth.Handler
	MenuHandler     *menu.Handler
	RBACHandler     *rbac.Handler
	ScannerHandler  *scanner.Handler
	AuditHandler    *audithttp.Handler
	ProjectsHandler *projects.Handler
	JobHandler      *jobs.Handler
	Pool            *pgxpool.Pool
	RBACMiddleware  rbac.Middleware
}

// NewRouter constructs the chi.Router with Meridian defaults. Every route
// below the middleware stack passes the authorization state machine; the
// /admin and /jobs subtrees additionally demand SUPER_ADMIN.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)
	r.Use(params.RBACMiddleware.Authorize)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if params.Pool != nil {
			if err := params.Pool.Ping(r.Context()); err != nil {
				httpx.JSON(w, http.StatusServiceUnavailable, map[string]any{"status": "degraded"})
				return
			}
		}
		httpx.JSON(w, http.StatusOK, map[string]any{"status": "ok"})
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]any{"service": "meridian"})
	})

	// Browser denial targets. API clients receive problem documents instead.
	// /login also hands out the CSRF token a fresh session needs before it
	// can POST /auth/login.
	r.Get("/login", func(w http.ResponseWriter, r *http.Request) {
		var csrfToken string
		if sess := shared.SessionFromContext(r.Context()); sess != nil {
			if token, err := params.CSRFManager.EnsureToken(sess); err == nil {
				csrfToken = token
			}
		}
		httpx.JSON(w, http.StatusOK, map[string]any{
			"login":      "POST /auth/login",
			"callback":   r.URL.Query().Get("callback"),
			"csrf_token": csrfToken,
		})
	})
	r.Get("/denied", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusForbidden, map[string]any{
			"reason": r.URL.Query().Get("reason"),
		})
	})

	r.Get("/dashboard", func(w http.ResponseWriter, r *http.Request) {
		identity, ok := rbac.IdentityFromContext(r.Context())
		if !ok {
			httpx.RespondError(w, shared.ErrAuthenticationRequired)
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]any{
			"email":         identity.Email,
			"role":          identity.Role,
			"project_scope": identity.Scope.String(),
		})
	})

	r.Route("/auth", params.AuthHandler.MountRoutes)
	r.Route("/me", params.RBACHandler.MountMeRoutes)
	r.Route("/menus", params.MenuHandler.MountRoutes)
	r.Route("/projects", params.ProjectsHandler.MountRoutes)

	r.Route("/admin", func(ar chi.Router) {
		ar.Use(params.RBACMiddleware.RequireRole(rbac.RoleSuperAdmin))
		params.RBACHandler.MountAdminRoutes(ar)
		params.AuditHandler.MountRoutes(ar)
		ar.Route("/permissions", params.ScannerHandler.MountRoutes)
	})

	r.Route("/jobs", func(jr chi.Router) {
		jr.Use(params.RBACMiddleware.RequireRole(rbac.RoleSuperAdmin))
		params.JobHandler.MountRoutes(jr)
	})

	params.ScannerHandler.SetRoutes(r)

	return r
}
