package scanner

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/meridian-homes/meridian/internal/platform/httpx"
	"github.com/meridian-homes/meridian/internal/rbac"
	"github.com/meridian-homes/meridian/internal/shared"
)

// Handler exposes the catalog scan endpoints. The router it scans is the
// application's own router, injected after mounting via SetRoutes.
type Handler struct {
	logger  *slog.Logger
	service *Service
	routes  chi.Routes
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// SetRoutes injects the router to scan. Must happen before the first scan
// request; the router is fully mounted by then.
func (h *Handler) SetRoutes(routes chi.Routes) {
	h.routes = routes
}

// MountRoutes registers scan routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/scan/preview", h.preview)
	r.Post("/scan", h.scan)
}

func (h *Handler) preview(w http.ResponseWriter, r *http.Request) {
	if h.routes == nil {
		httpx.RespondError(w, shared.ErrNotFound)
		return
	}
	descriptors, err := h.service.Preview(r.Context(), h.routes)
	if err != nil {
		h.logger.Error("preview scan", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if descriptors == nil {
		descriptors = []RouteDescriptor{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"routes": descriptors})
}

func (h *Handler) scan(w http.ResponseWriter, r *http.Request) {
	if h.routes == nil {
		httpx.RespondError(w, shared.ErrNotFound)
		return
	}
	summary, err := h.service.ScanAndSave(r.Context(), rbac.CurrentActor(r), h.routes)
	if err != nil {
		h.logger.Error("scan routes", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}
