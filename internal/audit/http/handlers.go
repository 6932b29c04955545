package audithttp

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/meridian-homes/meridian/internal/audit"
	"github.com/meridian-homes/meridian/internal/platform/httpx"
	"github.com/meridian-homes/meridian/internal/rbac"
	"github.com/meridian-homes/meridian/internal/shared"
)

const maxDateRange = 90 * 24 * time.Hour

// LogService defines the business contract for audit log reads and
// retention.
type LogService interface {
	List(ctx context.Context, f audit.ListFilters) (audit.Result, error)
	Export(ctx context.Context, f audit.ListFilters) ([]audit.Entry, error)
	Purge(ctx context.Context, actor audit.Actor, before time.Time, keepDays int) (int64, error)
}

// Handler serves the audit log administration endpoints.
type Handler struct {
	logger  *slog.Logger
	service LogService
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service LogService) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service}
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	filters, err := h.parseFilters(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	result, err := h.service.List(r.Context(), filters)
	if err != nil {
		h.logger.Error("list audit entries", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if result.Entries == nil {
		result.Entries = []audit.Entry{}
	}
	if result.Breakdown == nil {
		result.Breakdown = []audit.ActionCount{}
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	filters, err := h.parseFilters(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	entries, err := h.service.Export(r.Context(), filters)
	if err != nil {
		h.logger.Error("export audit entries", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	csvBytes, err := audit.WriteCSV(entries)
	if err != nil {
		h.logger.Error("encode csv", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="permission-audit.csv"`)
	if _, err := w.Write(csvBytes); err != nil {
		h.logger.Warn("write csv", slog.Any("error", err))
	}
}

type purgeRequest struct {
	Before   *time.Time `json:"before"`
	KeepDays int        `json:"keep_days"`
}

func (h *Handler) handlePurge(w http.ResponseWriter, r *http.Request) {
	var req purgeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	var before time.Time
	if req.Before != nil {
		before = *req.Before
	}
	purged, err := h.service.Purge(r.Context(), rbac.CurrentActor(r), before, req.KeepDays)
	if err != nil {
		h.logger.Error("purge audit entries", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"purged": purged})
}

func (h *Handler) parseFilters(r *http.Request) (audit.ListFilters, error) {
	q := r.URL.Query()
	filters := audit.ListFilters{
		Action:       strings.TrimSpace(q.Get("action")),
		ResourceType: strings.TrimSpace(q.Get("resource_type")),
		Search:       strings.TrimSpace(q.Get("q")),
	}

	if v := strings.TrimSpace(q.Get("user_id")); v != "" {
		userID, err := strconv.ParseInt(v, 10, 64)
		if err != nil || userID <= 0 {
			return audit.ListFilters{}, fmt.Errorf("%w: invalid user_id", shared.ErrValidation)
		}
		filters.UserID = userID
	}

	var err error
	if filters.From, err = parseDate(q.Get("from")); err != nil {
		return audit.ListFilters{}, fmt.Errorf("%w: invalid from date", shared.ErrValidation)
	}
	if filters.To, err = parseDate(q.Get("to")); err != nil {
		return audit.ListFilters{}, fmt.Errorf("%w: invalid to date", shared.ErrValidation)
	}
	if !filters.From.IsZero() && !filters.To.IsZero() {
		if filters.From.After(filters.To) {
			return audit.ListFilters{}, fmt.Errorf("%w: from is after to", shared.ErrValidation)
		}
		if filters.To.Sub(filters.From) > maxDateRange {
			return audit.ListFilters{}, fmt.Errorf("%w: date range exceeds 90 days", shared.ErrValidation)
		}
	}

	if v := strings.TrimSpace(q.Get("page")); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil || page <= 0 {
			return audit.ListFilters{}, fmt.Errorf("%w: invalid page", shared.ErrValidation)
		}
		filters.Page = page
	}
	if v := strings.TrimSpace(q.Get("per_page")); v != "" {
		perPage, err := strconv.Atoi(v)
		if err != nil || perPage <= 0 {
			return audit.ListFilters{}, fmt.Errorf("%w: invalid per_page", shared.ErrValidation)
		}
		filters.PerPage = perPage
	}
	return filters, nil
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", raw)
}
