package services

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"sales-dashboard/internal/models"
)

func createTempCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sales.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func tx(invoice, customer, country, date string, qty int, price string) models.Transaction {
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		panic(err)
	}
	p := dec(price)
	return models.Transaction{
		InvoiceID:  invoice,
		CustomerID: customer,
		Country:    country,
		Date:       d,
		Quantity:   qty,
		UnitPrice:  p,
		Sales:      decimal.NewFromInt(int64(qty)).Mul(p),
	}
}

// exampleRows is the three-row example used throughout the tests.
func exampleRows() []models.Transaction {
	return []models.Transaction{
		tx("536365", "17850", "US", "2010-01-05", 2, "10"),
		tx("536366", "17850", "US", "2010-02-01", 1, "5"),
		tx("536367", "13047", "FR", "2010-01-10", 3, "4"),
	}
}

func sampleTable() *Table {
	return NewTable([]models.Transaction{
		tx("A1", "C1", "United Kingdom", "2010-12-01", 6, "2.55"),
		tx("A1", "C1", "United Kingdom", "2010-12-01", 6, "3.39"),
		tx("A2", "C2", "France", "2011-01-04", 24, "0.85"),
		tx("A3", "C3", "Germany", "2011-03-15", 12, "1.65"),
		tx("A4", "C2", "France", "2011-06-20", 4, "7.95"),
		tx("A5", "C4", "Australia", "2011-07-11", 48, "1.25"),
		tx("A6", "C5", "Spain", "2011-09-30", 10, "2.10"),
		tx("A7", "C6", "Belgium", "2011-11-02", 2, "12.75"),
		tx("A8", "", "United Kingdom", "2011-12-09", 1, "4.95"),
		tx("A9", "C7", "Netherlands", "2011-12-09", 96, "0.42"),
	}, Columns{})
}
