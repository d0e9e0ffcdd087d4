// Package templates renders the dashboard page and the fragments the SSE
// endpoints patch into it.
package templates

import (
	"context"
	"encoding/json"
	"html/template"
	"io"
	"time"

	"github.com/a-h/templ"
	"github.com/shopspring/decimal"

	"sales-dashboard/internal/models"
	"sales-dashboard/internal/services"
	"sales-dashboard/internal/ui/format"
)

const (
	MetricsID = "metrics"
	PreviewID = "preview"
	ErrorID   = "dashboard-error"
)

var monthNames = [...]string{"", "Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

var funcs = template.FuncMap{
	"money":  func(d decimal.Decimal) string { return format.Money(d, 0) },
	"price":  func(d decimal.Decimal) string { return format.Money(d, 2) },
	"count":  format.Count,
	"aov":    format.OrderValue,
	"month":  MonthName,
	"date":   func(t time.Time) string { return t.Format("2006-01-02") },
	"inList": contains[string],
	"inInts": contains[int],
}

var pages = template.Must(template.New("pages").Funcs(funcs).Parse(`
{{define "metrics"}}<div id="metrics" class="metrics">
<div class="card"><span class="label">Total Sales</span><span class="value">{{money .TotalSales}}</span></div>
<div class="card"><span class="label">Total Customers</span><span class="value">{{count .TotalCustomers}}</span></div>
<div class="card"><span class="label">Total Orders</span><span class="value">{{count .TotalOrders}}</span></div>
<div class="card"><span class="label">Avg Order Value</span><span class="value">{{aov .AvgOrderValue}}</span></div>
</div>{{end}}

{{define "preview"}}<div id="preview" class="preview">
<p class="caption">Showing {{count (len .Rows)}} of {{count .Total}} rows</p>
<table class="modern-table">
<thead><tr><th>Invoice</th><th>Customer</th><th>Country</th><th>Date</th><th>Quantity</th><th>Unit Price</th><th>Sales</th></tr></thead>
<tbody>
{{range .Rows}}<tr><td>{{.InvoiceID}}</td><td>{{.CustomerID}}</td><td>{{.Country}}</td><td>{{date .Date}}</td><td>{{.Quantity}}</td><td>{{price .UnitPrice}}</td><td>{{price .Sales}}</td></tr>
{{else}}<tr><td colspan="7" class="empty">No rows match the current filters</td></tr>
{{end}}</tbody>
</table>
</div>{{end}}

{{define "error"}}<div id="dashboard-error"{{if .}} class="error-banner" role="alert"{{end}}>{{.}}</div>{{end}}

{{define "page"}}<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<script type="module" src="https://cdn.jsdelivr.net/gh/starfederation/datastar@1.0.0/bundles/datastar.js"></script>
<script src="https://cdn.jsdelivr.net/npm/chart.js@4.4.1/dist/chart.umd.min.js"></script>
<style>
body{font-family:system-ui,sans-serif;margin:0;background:#f5f6f8;color:#222}
header{background:#1f2937;color:#fff;padding:1rem 2rem}
main{display:grid;grid-template-columns:260px 1fr;gap:1.5rem;padding:1.5rem 2rem}
aside label{display:block;font-weight:600;margin:.75rem 0 .25rem}
aside select,aside input{width:100%}
.metrics{display:grid;grid-template-columns:repeat(4,1fr);gap:1rem}
.card{background:#fff;border-radius:8px;padding:1rem;box-shadow:0 1px 3px rgba(0,0,0,.1)}
.card .label{display:block;font-size:.85rem;color:#666}
.card .value{display:block;font-size:1.6rem;font-weight:700}
.charts{display:grid;grid-template-columns:repeat(2,1fr);gap:1rem;margin:1rem 0}
.charts div{background:#fff;border-radius:8px;padding:1rem}
.modern-table{width:100%;border-collapse:collapse;background:#fff}
.modern-table th,.modern-table td{padding:.4rem .6rem;border-bottom:1px solid #eee;text-align:left}
.error-banner{background:#fde8e8;color:#9b1c1c;padding:.75rem 1rem;border-radius:6px;margin-bottom:1rem}
</style>
</head>
<body>
<header><h1>{{.Title}}</h1></header>
<main data-signals="{{.Signals}}">
<aside>
<form data-on:change="@get('/sse/dashboard')">
<label for="countries">Countries</label>
<select id="countries" multiple size="10" data-bind:countries>
{{range .Options.Countries}}<option value="{{.}}"{{if inList $.Dashboard.Selection.Countries .}} selected{{end}}>{{.}}</option>
{{end}}</select>
<label for="year-from">From year</label>
<input id="year-from" type="number" min="{{.Options.MinYear}}" max="{{.Options.MaxYear}}" value="{{.Dashboard.Selection.YearFrom}}" data-bind:year-from>
<label for="year-to">To year</label>
<input id="year-to" type="number" min="{{.Options.MinYear}}" max="{{.Options.MaxYear}}" value="{{.Dashboard.Selection.YearTo}}" data-bind:year-to>
<label for="months">Months</label>
<select id="months" multiple size="12" data-bind:months>
{{range .Options.Months}}<option value="{{.}}"{{if inInts $.Dashboard.Selection.Months .}} selected{{end}}>{{month .}}</option>
{{end}}</select>
</form>
<p><a href="/export.xlsx">Download filtered view</a></p>
</aside>
<section>
{{template "error" ""}}
{{template "metrics" .Dashboard.Summary}}
<div class="charts" data-effect="window.renderCharts && window.renderCharts($trendData, $topCountries, $seasonality, $countryPerformance, $aovByCountry)">
<div><h3>Sales Trend by Year</h3><canvas id="trend-chart"></canvas></div>
<div><h3>Top 10 Countries by Sales</h3><canvas id="countries-chart"></canvas></div>
<div><h3>Monthly Seasonality</h3><canvas id="seasonality-chart"></canvas></div>
<div><h3>Country Performance</h3><canvas id="performance-chart"></canvas></div>
<div><h3>Average Order Value by Country</h3><canvas id="aov-chart"></canvas></div>
</div>
<h3>Data Preview</h3>
{{template "preview" .Preview}}
</section>
</main>
<script>
window.charts = {};
function draw(id, type, series, label, dataset) {
  if (!series) return;
  if (window.charts[id]) window.charts[id].destroy();
  window.charts[id] = new Chart(document.getElementById(id), {
    type: type,
    data: {labels: series.labels, datasets: [Object.assign({label: label, data: series.values}, dataset)]},
    options: {animation: false, indexAxis: type === 'bar' ? 'y' : 'x'}
  });
}
function shadeByOrders(orders) {
  const most = Math.max(1, ...orders);
  return orders.map(o => 'rgba(54, 162, 235, ' + (0.25 + 0.75 * o / most).toFixed(2) + ')');
}
window.renderCharts = function(trend, top, season, perf, aov) {
  draw('trend-chart', 'line', trend, 'Sales');
  draw('countries-chart', 'bar', top, 'Sales');
  draw('seasonality-chart', 'line', season, 'Sales', {fill: true});
  draw('performance-chart', 'bar', perf, 'Sales', perf && {backgroundColor: shadeByOrders(perf.orders || [])});
  draw('aov-chart', 'bar', aov, 'Average order value');
};
</script>
</body>
</html>{{end}}
`))

// PageData feeds the full dashboard page.
type PageData struct {
	Title     string
	Options   services.FilterOptions
	Dashboard *services.Dashboard
	Signals   string
	Preview   PreviewData
}

type PreviewData struct {
	Rows  []models.Transaction
	Total int
}

func MonthName(m int) string {
	if m < 1 || m > 12 {
		return ""
	}
	return monthNames[m]
}

// Dashboard renders the full page. signals seeds the client-side state and
// must be a JSON-encodable value.
func Dashboard(title string, opts services.FilterOptions, d *services.Dashboard, signals any) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		b, err := json.Marshal(signals)
		if err != nil {
			return err
		}
		return pages.ExecuteTemplate(w, "page", PageData{
			Title:     title,
			Options:   opts,
			Dashboard: d,
			Signals:   string(b),
			Preview:   PreviewData{Rows: d.Preview, Total: d.Summary.Rows},
		})
	})
}

func Metrics(s models.Summary) templ.Component {
	return render("metrics", s)
}

// Preview renders the first rows of a view of total rows.
func Preview(rows []models.Transaction, total int) templ.Component {
	return render("preview", PreviewData{Rows: rows, Total: total})
}

// ErrorBanner renders the error slot. An empty message clears it.
func ErrorBanner(msg string) templ.Component {
	return render("error", msg)
}

func render(name string, data any) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		return pages.ExecuteTemplate(w, name, data)
	})
}

func contains[T comparable](list []T, v T) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
