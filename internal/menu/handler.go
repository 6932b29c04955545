package menu

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/meridian-homes/meridian/internal/audit"
	"github.com/meridian-homes/meridian/internal/platform/httpx"
	"github.com/meridian-homes/meridian/internal/shared"
)

// ActorResolver derives the audit actor for the current request.
type ActorResolver func(r *http.Request) audit.Actor

// Handler manages the menu administration endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	actor    ActorResolver
	validate *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, actor ActorResolver) *Handler {
	return &Handler{logger: logger, service: service, actor: actor, validate: validator.New()}
}

// MountRoutes registers menu routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/tree", h.tree)
	r.Post("/", h.create)
	r.Route("/{menuID}", func(r chi.Router) {
		r.Get("/", h.get)
		r.Put("/", h.update)
		r.Delete("/", h.delete)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	nodes, err := h.service.ListAll(r.Context())
	if err != nil {
		h.logger.Error("list menus", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if nodes == nil {
		nodes = []Node{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"menus": nodes})
}

func (h *Handler) tree(w http.ResponseWriter, r *http.Request) {
	roots, err := h.service.Tree(r.Context())
	if err != nil {
		h.logger.Error("build menu tree", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if roots == nil {
		roots = []*TreeNode{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"tree": roots})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := h.menuID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	node, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, node)
}

type menuRequest struct {
	Name        string `json:"name" validate:"required"`
	DisplayName string `json:"display_name"`
	Path        string `json:"path"`
	Icon        string `json:"icon"`
	ParentID    *int64 `json:"parent_id"`
	SortOrder   int    `json:"sort_order"`
	IsActive    bool   `json:"is_active"`
}

func (req menuRequest) node() Node {
	return Node{
		Name:        req.Name,
		DisplayName: req.DisplayName,
		Path:        req.Path,
		Icon:        req.Icon,
		ParentID:    req.ParentID,
		SortOrder:   req.SortOrder,
		IsActive:    req.IsActive,
	}
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req menuRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %s", shared.ErrValidation, err))
		return
	}
	created, err := h.service.Create(r.Context(), h.actor(r), req.node())
	if err != nil {
		h.logger.Error("create menu", slog.String("name", req.Name), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := h.menuID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req menuRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %s", shared.ErrValidation, err))
		return
	}
	node := req.node()
	node.ID = id
	updated, err := h.service.Update(r.Context(), h.actor(r), node)
	if err != nil {
		h.logger.Error("update menu", slog.Int64("menu_id", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, updated)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := h.menuID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.Delete(r.Context(), h.actor(r), id); err != nil {
		h.logger.Error("delete menu", slog.Int64("menu_id", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) menuID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "menuID")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid menu id", shared.ErrValidation)
	}
	return id, nil
}
