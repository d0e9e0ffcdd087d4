package services

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"sales-dashboard/internal/models"
	"sales-dashboard/internal/observability"
)

const (
	defaultTopN        = 10
	defaultPreviewRows = 100
	defaultCountries   = 5
)

type Options struct {
	DefaultCountries int
	TopN             int
	PreviewRows      int
}

// Dashboard is everything one render pass shows for a selection.
type Dashboard struct {
	Selection          Selection                   `json:"selection"`
	Summary            models.Summary              `json:"summary"`
	SalesByYear        []models.YearSales          `json:"sales_by_year"`
	TopCountries       []models.CountrySales       `json:"top_countries"`
	SalesByMonth       []models.MonthSales         `json:"sales_by_month"`
	CountryPerformance []models.CountryPerformance `json:"country_performance"`
	AOVByCountry       []models.CountryOrderValue  `json:"aov_by_country"`
	Preview            []models.Transaction        `json:"preview"`
}

// FilterOptions describes the choices the dashboard controls offer.
type FilterOptions struct {
	Countries []string  `json:"countries"`
	MinYear   int       `json:"min_year"`
	MaxYear   int       `json:"max_year"`
	Months    []int     `json:"months"`
	Defaults  Selection `json:"defaults"`
}

// Analytics serves render passes over the cached table.
type Analytics struct {
	store  *Store
	opts   Options
	logger *slog.Logger
}

func NewAnalytics(store *Store, opts Options, logger *slog.Logger) *Analytics {
	if opts.TopN <= 0 {
		opts.TopN = defaultTopN
	}
	if opts.PreviewRows <= 0 {
		opts.PreviewRows = defaultPreviewRows
	}
	if opts.DefaultCountries <= 0 {
		opts.DefaultCountries = defaultCountries
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Analytics{
		store:  store,
		opts:   opts,
		logger: logger,
	}
}

func (a *Analytics) Options() Options {
	return a.opts
}

func (a *Analytics) Table(ctx context.Context) (*Table, error) {
	return a.store.Table(ctx)
}

func (a *Analytics) FilterOptions(ctx context.Context) (FilterOptions, error) {
	t, err := a.store.Table(ctx)
	if err != nil {
		return FilterOptions{}, err
	}
	return FilterOptions{
		Countries: t.Countries,
		MinYear:   t.MinYear,
		MaxYear:   t.MaxYear,
		Months:    AllMonths(),
		Defaults:  DefaultSelection(t, a.opts.DefaultCountries),
	}, nil
}

func (a *Analytics) DefaultSelection(ctx context.Context) (Selection, error) {
	t, err := a.store.Table(ctx)
	if err != nil {
		return Selection{}, err
	}
	return DefaultSelection(t, a.opts.DefaultCountries), nil
}

// Rows returns the full filtered view for sel.
func (a *Analytics) Rows(ctx context.Context, sel Selection) ([]models.Transaction, error) {
	if err := sel.Validate(); err != nil {
		return nil, err
	}
	t, err := a.store.Table(ctx)
	if err != nil {
		return nil, err
	}
	return Filter(t, sel), nil
}

// Dashboard filters the table and computes every metric and chart series.
func (a *Analytics) Dashboard(ctx context.Context, sel Selection) (*Dashboard, error) {
	ctx, span := observability.StartSpan(ctx, "analytics.dashboard")
	defer span.Finish()

	rows, err := a.Rows(ctx, sel)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	start := time.Now()
	d := BuildDashboard(rows, sel, a.opts)

	span.SetTag("rows", strconv.Itoa(len(rows)))
	a.logger.Debug("dashboard computed",
		"rows", len(rows),
		"countries", len(sel.Countries),
		"years", fmt.Sprintf("%d-%d", sel.YearFrom, sel.YearTo),
		"duration", time.Since(start),
		"trace_id", span.TraceID,
		"request_id", observability.GetRequestID(ctx),
	)

	return d, nil
}

// BuildDashboard computes a render pass over an already filtered view.
func BuildDashboard(rows []models.Transaction, sel Selection, opts Options) *Dashboard {
	preview := rows
	if opts.PreviewRows > 0 && len(preview) > opts.PreviewRows {
		preview = preview[:opts.PreviewRows]
	}

	return &Dashboard{
		Selection:          sel,
		Summary:            Summarize(rows),
		SalesByYear:        SalesByYear(rows),
		TopCountries:       TopCountriesBySales(rows, opts.TopN),
		SalesByMonth:       SalesByMonth(rows),
		CountryPerformance: CountryPerformance(rows, opts.TopN),
		AOVByCountry:       AvgOrderValueByCountry(rows, opts.TopN),
		Preview:            preview,
	}
}

// Stats reports what was loaded, for the admin endpoint.
func (a *Analytics) Stats(ctx context.Context) (map[string]any, error) {
	t, err := a.store.Table(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"source":       t.Source,
		"source_rows":  t.SourceRows,
		"record_count": len(t.Rows),
		"dropped_rows": t.DroppedRows,
		"countries":    len(t.Countries),
		"min_year":     t.MinYear,
		"max_year":     t.MaxYear,
		"columns":      t.Columns.Names,
		"loaded_at":    t.LoadedAt,
	}, nil
}
