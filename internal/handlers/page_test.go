package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestPageHandlers_HandleDashboard(t *testing.T) {
	handlers := NewPageHandlers(createTestAnalytics(), testLogger())

	w := httptest.NewRecorder()
	handlers.HandleDashboard(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("expected html content type, got %q", ct)
	}

	body := w.Body.String()
	expected := []string{
		"<title>Global Sales Dashboard</title>",
		`<option value="Australia" selected>Australia</option>`,
		`<option value="France" selected>France</option>`,
		`<option value="Germany">Germany</option>`,
		`<option value="12" selected>Dec</option>`,
		"data-signals=",
		"trendData",
		"@get('/sse/dashboard')",
		"$49",
		"Showing 3 of 3 rows",
		`href="/export.xlsx"`,
		"draw('seasonality-chart', 'line', season, 'Sales', {fill: true})",
		"{backgroundColor: shadeByOrders(perf.orders || [])}",
	}
	for _, content := range expected {
		if !strings.Contains(body, content) {
			t.Errorf("expected page to contain %q", content)
		}
	}
}

func TestPageHandlers_LoadFailure(t *testing.T) {
	handlers := NewPageHandlers(createUnloadableAnalytics(t, "country\nUK\n"), testLogger())

	w := httptest.NewRecorder()
	handlers.HandleDashboard(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status 503, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Sales data could not be loaded") {
		t.Errorf("unexpected body %q", w.Body.String())
	}
}
