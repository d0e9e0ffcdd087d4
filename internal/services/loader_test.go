package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"sales-dashboard/internal/config"
)

func newTestLoader(batchSize int) *Loader {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewLoader(config.DataConfig{BatchSize: batchSize}, logger)
}

const retailHeader = "InvoiceNo,StockCode,Description,Quantity,InvoiceDate,UnitPrice,CustomerID,Country\n"

func TestLoader_LoadFile_ValidData(t *testing.T) {
	csv := retailHeader +
		"536365,85123A,WHITE HANGING HEART,6,2010-12-01 08:26:00,2.55,17850.0,United Kingdom\n" +
		"536365,71053,WHITE METAL LANTERN,6,2010-12-01 08:26:00,3.39,17850.0,United Kingdom\n" +
		"536366,22633,HAND WARMER UNION JACK,6.0,12/1/2010 8:28,1.85,17850,United Kingdom\n" +
		"C536379,D,Discount,-1,2010-12-01 09:41:00,27.50,14527,United Kingdom\n" +
		"536381,22139,RETROSPOT TEA SET,2,2011-01-05,0,15311,France\n" +
		"536382,22139,\"SET, OF 3\",4,2011-02-10T10:00:00,4.25,,Germany\n"

	path := createTempCSV(t, csv)

	table, err := newTestLoader(100).LoadFile(context.Background(), path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}

	if len(table.Rows) != 4 {
		t.Fatalf("rows = %d, want 4", len(table.Rows))
	}
	if table.SourceRows != 6 || table.DroppedRows != 2 {
		t.Errorf("source/dropped = %d/%d, want 6/2", table.SourceRows, table.DroppedRows)
	}
	if table.Source != path {
		t.Errorf("Source = %q, want %q", table.Source, path)
	}

	for _, row := range table.Rows {
		if !row.Sales.IsPositive() {
			t.Errorf("row %+v has non-positive sales", row)
		}
	}

	first := table.Rows[0]
	if !first.Sales.Equal(dec("15.30")) {
		t.Errorf("first sales = %s, want 15.30", first.Sales)
	}
	if first.CustomerID != "17850" {
		t.Errorf("customer id = %q, want 17850", first.CustomerID)
	}
	if want := time.Date(2010, 12, 1, 8, 26, 0, 0, time.UTC); !first.Date.Equal(want) {
		t.Errorf("date = %v, want %v", first.Date, want)
	}
	if table.Rows[2].Quantity != 6 {
		t.Errorf("quantity 6.0 should parse as 6, got %d", table.Rows[2].Quantity)
	}
	if table.Rows[3].CustomerID != "" {
		t.Errorf("empty customer should stay empty, got %q", table.Rows[3].CustomerID)
	}

	if got := strings.Join(table.Countries, ","); got != "Germany,United Kingdom" {
		t.Errorf("Countries = %q", got)
	}
	if table.MinYear != 2010 || table.MaxYear != 2011 {
		t.Errorf("years = %d-%d, want 2010-2011", table.MinYear, table.MaxYear)
	}
}

func TestLoader_Load_InvalidData(t *testing.T) {
	tests := []struct {
		name string
		csv  string
		want error
	}{
		{
			name: "empty file",
			csv:  "",
			want: ErrEmptyDataset,
		},
		{
			name: "header only",
			csv:  retailHeader,
			want: ErrEmptyDataset,
		},
		{
			name: "missing column",
			csv:  "invoice,date,quantity,price,country\n1,2011-01-01,1,1.0,US\n",
			want: ErrMissingColumn,
		},
		{
			name: "ambiguous column",
			csv:  "invoice,order_date,ship_date,quantity,price,country,customer\n1,2011-01-01,2011-01-02,1,1.0,US,c\n",
			want: ErrAmbiguousColumn,
		},
		{
			name: "invalid date",
			csv:  retailHeader + "1,s,d,2,not-a-date,1.50,c1,US\n",
			want: ErrUnparseableDate,
		},
		{
			name: "invalid quantity",
			csv:  retailHeader + "1,s,d,two,2011-01-01,1.50,c1,US\n",
			want: ErrInvalidNumber,
		},
		{
			name: "fractional quantity",
			csv:  retailHeader + "1,s,d,1.5,2011-01-01,1.50,c1,US\n",
			want: ErrInvalidNumber,
		},
		{
			name: "invalid price",
			csv:  retailHeader + "1,s,d,2,2011-01-01,abc,c1,US\n",
			want: ErrInvalidNumber,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newTestLoader(10).Load(context.Background(), strings.NewReader(tt.csv))
			if !errors.Is(err, tt.want) {
				t.Errorf("Load() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestLoader_Load_ReportsLine(t *testing.T) {
	csv := retailHeader +
		"1,s,d,2,2011-01-01,1.50,c1,US\n" +
		"2,s,d,2,2011-13-45,1.50,c1,US\n"

	_, err := newTestLoader(10).Load(context.Background(), strings.NewReader(csv))
	if err == nil || !strings.Contains(err.Error(), "line 3") {
		t.Errorf("error should name line 3, got %v", err)
	}
}

func TestLoader_Load_WrongFieldCount(t *testing.T) {
	csv := retailHeader + "1,s,d,2,2011-01-01,1.50,c1\n"

	if _, err := newTestLoader(10).Load(context.Background(), strings.NewReader(csv)); err == nil {
		t.Error("expected error for short record")
	}
}

func TestLoader_Load_PreservesOrderAcrossBatches(t *testing.T) {
	var b strings.Builder
	b.WriteString("invoice,date,quantity,price,country,customer\n")
	for i := range 250 {
		fmt.Fprintf(&b, "INV%03d,2011-%02d-01,1,%d.00,C%d,cust%d\n", i, i%12+1, i+1, i%7, i%13)
	}

	table, err := newTestLoader(17).Load(context.Background(), strings.NewReader(b.String()))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(table.Rows) != 250 {
		t.Fatalf("rows = %d, want 250", len(table.Rows))
	}
	for i, row := range table.Rows {
		if want := fmt.Sprintf("INV%03d", i); row.InvoiceID != want {
			t.Fatalf("row %d invoice = %s, want %s", i, row.InvoiceID, want)
		}
	}
}

func TestLoader_Load_AllRowsDropped(t *testing.T) {
	csv := retailHeader + "1,s,d,-2,2011-01-01,1.50,c1,US\n"

	table, err := newTestLoader(10).Load(context.Background(), strings.NewReader(csv))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(table.Rows) != 0 || table.DroppedRows != 1 {
		t.Errorf("rows/dropped = %d/%d, want 0/1", len(table.Rows), table.DroppedRows)
	}
}

func TestLoader_Load_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	csv := retailHeader + "1,s,d,2,2011-01-01,1.50,c1,US\n"
	_, err := newTestLoader(10).Load(ctx, strings.NewReader(csv))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestLoader_LoadFile_Missing(t *testing.T) {
	_, err := newTestLoader(10).LoadFile(context.Background(), "/nonexistent/sales.csv")
	if err == nil {
		t.Error("expected error for missing file")
	}
}

func TestNormalizeID(t *testing.T) {
	tests := map[string]string{
		"17850.0": "17850",
		"17850":   "17850",
		"A12.0":   "A12.0",
		"":        "",
	}
	for in, want := range tests {
		if got := normalizeID(in); got != want {
			t.Errorf("normalizeID(%q) = %q, want %q", in, got, want)
		}
	}
}
