package handlers

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"sales-dashboard/internal/config"
	"sales-dashboard/internal/models"
	"sales-dashboard/internal/services"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func txn(invoice, customer, country, date string, qty int, price string) models.Transaction {
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		panic(err)
	}
	p := decimal.RequireFromString(price)
	return models.Transaction{
		InvoiceID:  invoice,
		CustomerID: customer,
		Country:    country,
		Date:       d,
		Quantity:   qty,
		UnitPrice:  p,
		Sales:      p.Mul(decimal.NewFromInt(int64(qty))),
	}
}

// testRows covers four countries over 2010-2011. The default selection of
// two countries is Australia and France: three orders worth 48.5.
func testRows() []models.Transaction {
	return []models.Transaction{
		txn("536365", "17850", "United Kingdom", "2010-12-01", 6, "2.55"),
		txn("536366", "17850", "United Kingdom", "2010-12-01", 6, "1.85"),
		txn("536367", "13047", "France", "2011-01-05", 8, "3.75"),
		txn("536368", "13047", "France", "2011-02-07", 2, "4.25"),
		txn("536369", "12583", "Germany", "2011-03-10", 24, "0.85"),
		txn("536370", "", "Australia", "2011-03-11", 1, "10"),
	}
}

func createTestAnalytics() *services.Analytics {
	logger := testLogger()
	store := services.NewStore(services.NewLoader(config.DataConfig{}, logger), "unused.csv", logger)
	store.Set(services.NewTable(testRows(), services.Columns{}))
	return services.NewAnalytics(store, services.Options{DefaultCountries: 2}, logger)
}

// createUnloadableAnalytics returns an Analytics whose source file fails to
// load with the given content, or is missing when content is empty.
func createUnloadableAnalytics(t *testing.T, content string) *services.Analytics {
	t.Helper()
	logger := testLogger()
	path := filepath.Join(t.TempDir(), "sales.csv")
	if content != "" {
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	store := services.NewStore(services.NewLoader(config.DataConfig{}, logger), path, logger)
	return services.NewAnalytics(store, services.Options{}, logger)
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Details string `json:"details"`
	} `json:"error"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("failed to decode response %q: %v", w.Body.String(), err)
	}
	return env
}
