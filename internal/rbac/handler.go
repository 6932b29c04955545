package rbac

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/meridian-homes/meridian/internal/platform/httpx"
	"github.com/meridian-homes/meridian/internal/shared"
)

// Handler exposes the grant administration API and the per-user
// /me surface.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountAdminRoutes registers the grant management routes. The caller is
// expected to gate the subtree with RequireRole.
func (h *Handler) MountAdminRoutes(r chi.Router) {
	r.Get("/roles", h.listRoles)
	r.Route("/roles/{role}", func(r chi.Router) {
		r.Get("/menus", h.roleMenus)
		r.Post("/menus", h.grantMenu)
		r.Delete("/menus/{menuID}", h.revokeMenu)
		r.Get("/permissions", h.rolePermissions)
		r.Post("/buttons", h.grantButton)
		r.Delete("/buttons/{buttonID}", h.revokeButton)
	})
	r.Get("/menus/{menuID}/roles", h.menuRoles)
	r.Route("/buttons/{buttonID}", func(r chi.Router) {
		r.Get("/", h.getButton)
		r.Put("/", h.updateButton)
		r.Delete("/", h.deleteButton)
	})
}

// MountMeRoutes registers the authenticated self-service routes.
func (h *Handler) MountMeRoutes(r chi.Router) {
	r.Get("/", h.me)
	r.Get("/menus", h.myMenus)
	r.Get("/permissions", h.myPermissions)
}

type roleSummary struct {
	Name     RoleName `json:"name"`
	Inherits []string `json:"inherits"`
}

func (h *Handler) listRoles(w http.ResponseWriter, r *http.Request) {
	roles := AllRoles()
	summaries := make([]roleSummary, 0, len(roles))
	for _, role := range roles {
		chain := InheritanceChain(role)
		inherits := make([]string, 0, len(chain)-1)
		for _, inherited := range chain[1:] {
			inherits = append(inherits, string(inherited))
		}
		summaries = append(summaries, roleSummary{Name: role, Inherits: inherits})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"roles": summaries})
}

func (h *Handler) roleMenus(w http.ResponseWriter, r *http.Request) {
	role, err := roleParam(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	tree, err := h.service.EffectiveMenuTree(r.Context(), role)
	if err != nil {
		h.logger.Error("load role menus", slog.String("role", string(role)), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"role": role, "menus": tree})
}

func (h *Handler) rolePermissions(w http.ResponseWriter, r *http.Request) {
	role, err := roleParam(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	perms, err := h.service.EffectivePermissions(r.Context(), role)
	if err != nil {
		h.logger.Error("load role permissions", slog.String("role", string(role)), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if perms == nil {
		perms = []string{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"role": role, "permissions": perms})
}

type grantMenuRequest struct {
	MenuID int64 `json:"menu_id" validate:"required,gt=0"`
}

func (h *Handler) grantMenu(w http.ResponseWriter, r *http.Request) {
	role, err := roleParam(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req grantMenuRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %s", shared.ErrValidation, err))
		return
	}
	if err := h.service.GrantMenu(r.Context(), CurrentActor(r), role, req.MenuID); err != nil {
		h.logger.Error("grant menu", slog.String("role", string(role)), slog.Int64("menu_id", req.MenuID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) revokeMenu(w http.ResponseWriter, r *http.Request) {
	role, err := roleParam(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	menuID, err := idParam(r, "menuID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.RevokeMenu(r.Context(), CurrentActor(r), role, menuID); err != nil {
		h.logger.Error("revoke menu", slog.String("role", string(role)), slog.Int64("menu_id", menuID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type grantButtonRequest struct {
	ButtonID int64 `json:"button_id" validate:"required,gt=0"`
}

func (h *Handler) grantButton(w http.ResponseWriter, r *http.Request) {
	role, err := roleParam(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req grantButtonRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %s", shared.ErrValidation, err))
		return
	}
	if err := h.service.GrantButton(r.Context(), CurrentActor(r), role, req.ButtonID); err != nil {
		h.logger.Error("grant button", slog.String("role", string(role)), slog.Int64("button_id", req.ButtonID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) revokeButton(w http.ResponseWriter, r *http.Request) {
	role, err := roleParam(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	buttonID, err := idParam(r, "buttonID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.RevokeButton(r.Context(), CurrentActor(r), role, buttonID); err != nil {
		h.logger.Error("revoke button", slog.String("role", string(role)), slog.Int64("button_id", buttonID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) menuRoles(w http.ResponseWriter, r *http.Request) {
	menuID, err := idParam(r, "menuID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	roles, err := h.service.RolesGranted(r.Context(), menuID)
	if err != nil {
		h.logger.Error("load menu roles", slog.Int64("menu_id", menuID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if roles == nil {
		roles = []Role{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"menu_id": menuID, "roles": roles})
}

func (h *Handler) getButton(w http.ResponseWriter, r *http.Request) {
	buttonID, err := idParam(r, "buttonID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	bp, err := h.service.GetButton(r.Context(), buttonID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, bp)
}

type updateButtonRequest struct {
	Name        string `json:"name" validate:"required"`
	Identifier  string `json:"identifier" validate:"required"`
	Description string `json:"description"`
	MenuID      *int64 `json:"menu_id"`
	Method      string `json:"method"`
	Path        string `json:"path"`
	IsActive    bool   `json:"is_active"`
}

func (h *Handler) updateButton(w http.ResponseWriter, r *http.Request) {
	buttonID, err := idParam(r, "buttonID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req updateButtonRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %s", shared.ErrValidation, err))
		return
	}
	bp := ButtonPermission{
		ID:          buttonID,
		Name:        req.Name,
		Identifier:  req.Identifier,
		Description: req.Description,
		MenuID:      req.MenuID,
		Method:      req.Method,
		Path:        req.Path,
		IsActive:    req.IsActive,
	}
	updated, err := h.service.UpdateButton(r.Context(), CurrentActor(r), bp)
	if err != nil {
		h.logger.Error("update button", slog.Int64("button_id", buttonID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, updated)
}

func (h *Handler) deleteButton(w http.ResponseWriter, r *http.Request) {
	buttonID, err := idParam(r, "buttonID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.DeleteButton(r.Context(), CurrentActor(r), buttonID); err != nil {
		h.logger.Error("delete button", slog.Int64("button_id", buttonID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrAuthenticationRequired)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"id":            identity.ID,
		"email":         identity.Email,
		"role":          identity.Role,
		"project_scope": identity.Scope.String(),
		"all_projects":  identity.Scope.AllProjects(),
	})
}

func (h *Handler) myMenus(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrAuthenticationRequired)
		return
	}
	tree, err := h.service.EffectiveMenuTree(r.Context(), identity.Role)
	if err != nil {
		h.logger.Error("load my menus", slog.Int64("user_id", identity.ID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"menus": tree})
}

func (h *Handler) myPermissions(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrAuthenticationRequired)
		return
	}
	perms, err := h.service.EffectivePermissions(r.Context(), identity.Role)
	if err != nil {
		h.logger.Error("load my permissions", slog.Int64("user_id", identity.ID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if perms == nil {
		perms = []string{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"permissions": perms})
}

func roleParam(r *http.Request) (RoleName, error) {
	raw := chi.URLParam(r, "role")
	role, err := ParseRole(raw)
	if err != nil {
		return "", fmt.Errorf("%w: unknown role %q", shared.ErrValidation, raw)
	}
	return role, nil
}

func idParam(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid %s", shared.ErrValidation, name)
	}
	return id, nil
}
