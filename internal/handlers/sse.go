package handlers

import (
	stderrors "errors"
	"log/slog"
	"net/http"

	"github.com/starfederation/datastar-go/datastar"

	"sales-dashboard/internal/errors"
	"sales-dashboard/internal/observability"
	"sales-dashboard/internal/services"
	"sales-dashboard/internal/ui/templates"
)

type part uint8

const (
	partMetrics part = 1 << iota
	partPreview
	partCharts

	partAll = partMetrics | partPreview | partCharts
)

type SSEHandlers struct {
	analytics *services.Analytics
	logger    *slog.Logger
}

func NewSSEHandlers(analytics *services.Analytics, logger *slog.Logger) *SSEHandlers {
	return &SSEHandlers{
		analytics: analytics,
		logger:    logger,
	}
}

func (h *SSEHandlers) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, partAll)
}

func (h *SSEHandlers) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, partMetrics)
}

func (h *SSEHandlers) HandlePreview(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, partPreview)
}

func (h *SSEHandlers) HandleCharts(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, partCharts)
}

// selection reads the filter signals sent with the request.
func (h *SSEHandlers) selection(r *http.Request) (services.Selection, error) {
	var signals dashboardSignals
	if err := datastar.ReadSignals(r, &signals); err != nil {
		if stderrors.Is(err, services.ErrInvalidSelection) {
			return services.Selection{}, err
		}
		return services.Selection{}, errors.ValidationWrap(err, "Invalid filter signals")
	}

	def, err := h.analytics.DefaultSelection(r.Context())
	if err != nil {
		return services.Selection{}, err
	}
	return signals.selection(def)
}

func (h *SSEHandlers) serve(w http.ResponseWriter, r *http.Request, parts part) {
	sel, err := h.selection(r)

	var d *services.Dashboard
	if err == nil {
		d, err = h.analytics.Dashboard(r.Context(), sel)
	}

	sse := datastar.NewSSE(w, r)

	if err != nil {
		h.logger.Warn("dashboard update rejected",
			"error", err,
			"request_id", observability.GetRequestID(r.Context()),
		)
		if perr := sse.PatchElementTempl(templates.ErrorBanner(bannerMessage(err))); perr != nil {
			h.logger.Error("patch error banner", "error", perr)
		}
		return
	}

	if err := sse.PatchElementTempl(templates.ErrorBanner("")); err != nil {
		h.logger.Error("clear error banner", "error", err)
		return
	}

	if parts&partMetrics != 0 {
		if err := sse.PatchElementTempl(templates.Metrics(d.Summary)); err != nil {
			h.logger.Error("patch metrics", "error", err)
			return
		}
	}

	if parts&partPreview != 0 {
		if err := sse.PatchElementTempl(templates.Preview(d.Preview, d.Summary.Rows)); err != nil {
			h.logger.Error("patch preview", "error", err)
			return
		}
	}

	if parts&partCharts != 0 {
		if err := sse.MarshalAndPatchSignals(NewChartSignals(d)); err != nil {
			h.logger.Error("patch chart signals", "error", err)
			return
		}
	}
}

// bannerMessage is the text shown to the user for a failed update.
func bannerMessage(err error) string {
	var appErr *errors.AppError
	if stderrors.As(toAppError(err), &appErr) {
		if appErr.Details != "" {
			return appErr.Message + ": " + appErr.Details
		}
		if appErr.Cause != nil {
			return appErr.Message + ": " + appErr.Cause.Error()
		}
		return appErr.Message
	}
	return err.Error()
}
