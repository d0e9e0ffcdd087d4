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
)

const cacheMaxAge = "private, max-age=60"

type APIHandlers struct {
	analytics *services.Analytics
	logger    *slog.Logger
	startedAt time.Time
}

func NewAPIHandlers(analytics *services.Analytics, logger *slog.Logger) *APIHandlers {
	return &APIHandlers{
		analytics: analytics,
		logger:    logger,
		startedAt: time.Now(),
	}
}

// toAppError maps service failures onto the error envelope's codes.
func toAppError(err error) error {
	var appErr *errors.AppError
	switch {
	case stderrors.As(err, &appErr):
		return appErr
	case stderrors.Is(err, services.ErrInvalidSelection):
		return errors.ValidationWrap(err, "Invalid filter selection")
	case stderrors.Is(err, services.ErrMissingColumn),
		stderrors.Is(err, services.ErrAmbiguousColumn),
		stderrors.Is(err, services.ErrUnparseableDate),
		stderrors.Is(err, services.ErrInvalidNumber),
		stderrors.Is(err, services.ErrEmptyDataset):
		return errors.ConfigurationWrap(err, "Sales data could not be loaded")
	default:
		return errors.ServiceUnavailableWrap(err, "Sales data is unavailable")
	}
}

func (h *APIHandlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	errors.WriteError(w, h.logger, toAppError(err), observability.GetRequestID(r.Context()))
}

// selection resolves the request's filter from its query string on top of
// the default selection.
func (h *APIHandlers) selection(r *http.Request) (services.Selection, error) {
	def, err := h.analytics.DefaultSelection(r.Context())
	if err != nil {
		return services.Selection{}, err
	}
	return selectionFromQuery(r.URL.Query(), def)
}

func (h *APIHandlers) dashboard(r *http.Request) (*services.Dashboard, error) {
	sel, err := h.selection(r)
	if err != nil {
		return nil, err
	}
	return h.analytics.Dashboard(r.Context(), sel)
}

// serveDashboard computes a render pass for the request and writes the part
// pick selects.
func (h *APIHandlers) serveDashboard(pick func(*services.Dashboard) any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, err := h.dashboard(r)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		errors.WriteSuccessWithHeaders(w, pick(d), map[string]string{
			"Cache-Control": cacheMaxAge,
		})
	}
}

func (h *APIHandlers) HandleFilters(w http.ResponseWriter, r *http.Request) {
	opts, err := h.analytics.FilterOptions(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	errors.WriteSuccessWithHeaders(w, opts, map[string]string{
		"Cache-Control": cacheMaxAge,
	})
}

func (h *APIHandlers) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	h.serveDashboard(func(d *services.Dashboard) any { return d })(w, r)
}

func (h *APIHandlers) HandleSummary(w http.ResponseWriter, r *http.Request) {
	h.serveDashboard(func(d *services.Dashboard) any { return d.Summary })(w, r)
}

func (h *APIHandlers) HandleSalesByYear(w http.ResponseWriter, r *http.Request) {
	h.serveDashboard(func(d *services.Dashboard) any { return d.SalesByYear })(w, r)
}

func (h *APIHandlers) HandleTopCountries(w http.ResponseWriter, r *http.Request) {
	h.serveDashboard(func(d *services.Dashboard) any { return d.TopCountries })(w, r)
}

func (h *APIHandlers) HandleSalesByMonth(w http.ResponseWriter, r *http.Request) {
	h.serveDashboard(func(d *services.Dashboard) any { return d.SalesByMonth })(w, r)
}

func (h *APIHandlers) HandleCountryPerformance(w http.ResponseWriter, r *http.Request) {
	h.serveDashboard(func(d *services.Dashboard) any { return d.CountryPerformance })(w, r)
}

func (h *APIHandlers) HandleAOVByCountry(w http.ResponseWriter, r *http.Request) {
	h.serveDashboard(func(d *services.Dashboard) any { return d.AOVByCountry })(w, r)
}

func (h *APIHandlers) HandlePreview(w http.ResponseWriter, r *http.Request) {
	h.serveDashboard(func(d *services.Dashboard) any {
		return map[string]any{
			"rows":  d.Preview,
			"total": d.Summary.Rows,
		}
	})(w, r)
}

func (h *APIHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if _, err := h.analytics.Table(ctx); err != nil {
		h.writeError(w, r, err)
		return
	}

	errors.WriteSuccess(w, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(h.startedAt).Round(time.Second).String(),
		"version":   "1.0.0",
	})
}

func (h *APIHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.analytics.Stats(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	errors.WriteSuccess(w, stats)
}
