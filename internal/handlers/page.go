package handlers

import (
	"context"
	stderrors "errors"
	"log/slog"
	"net/http"
	"time"

	"sales-dashboard/internal/errors"
	"sales-dashboard/internal/observability"
	"sales-dashboard/internal/services"
	"sales-dashboard/internal/ui/templates"
)

const (
	renderTimeout = 10 * time.Second
	pageTitle     = "Global Sales Dashboard"
)

type PageHandlers struct {
	analytics *services.Analytics
	logger    *slog.Logger
}

func NewPageHandlers(analytics *services.Analytics, logger *slog.Logger) *PageHandlers {
	return &PageHandlers{
		analytics: analytics,
		logger:    logger,
	}
}

// HandleDashboard renders the page for the default selection.
func (h *PageHandlers) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), renderTimeout)
	defer cancel()

	opts, err := h.analytics.FilterOptions(ctx)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	d, err := h.analytics.Dashboard(ctx, opts.Defaults)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	if err := templates.Dashboard(pageTitle, opts, d, newPageSignals(d)).Render(ctx, w); err != nil {
		h.logger.Error("render dashboard", "error", err)
		http.Error(w, "render error", http.StatusInternalServerError)
	}
}

func (h *PageHandlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	var appErr *errors.AppError
	if stderrors.As(toAppError(err), &appErr) {
		status = appErr.StatusCode
	}
	h.logger.Error("dashboard unavailable",
		"error", err,
		"status", status,
		"request_id", observability.GetRequestID(r.Context()),
	)
	http.Error(w, bannerMessage(err), status)
}
