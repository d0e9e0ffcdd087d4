package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"sales-dashboard/internal/services"
)

const retailCSV = `InvoiceNo,StockCode,Description,Quantity,InvoiceDate,UnitPrice,CustomerID,Country
536365,85123A,WHITE HANGING HEART T-LIGHT HOLDER,6,12/1/2010 8:26,2.55,17850.0,United Kingdom
536365,71053,WHITE METAL LANTERN,6,12/1/2010 8:26,3.39,17850.0,United Kingdom
536370,22728,ALARM CLOCK BAKELIKE PINK,24,12/1/2010 8:45,3.75,12583.0,France
536381,22719,GUMBALL MONOCHROME COAT RACK,1,1/4/2011 9:41,1.25,,Australia
536389,35004C,SET OF 3 COLOURED FLYING DUCKS,6,2/10/2011 10:03,5.45,12431.0,Australia
`

func writeCSV(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sales.csv")
	if err := os.WriteFile(path, []byte(retailCSV), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("LOG_LEVEL", "error")

	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(&stdout, &stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), err
}

func TestReport_AllCountries(t *testing.T) {
	out, err := runCmd(t, "--file", writeCSV(t), "--all-countries", "--preview", "2")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	expected := []string{
		"Countries: Australia, France, United Kingdom",
		"Years: 2010-2011",
		"Months: all",
		"Key Metrics",
		"$160",
		"Sales Trend by Year",
		"Top Countries by Sales",
		"Monthly Seasonality",
		"Country Performance",
		"Average Order Value by Country",
		"Data Preview (2 of 5 rows)",
		"536365",
	}
	for _, want := range expected {
		if !strings.Contains(out, want) {
			t.Errorf("expected report to contain %q\n%s", want, out)
		}
	}
}

func TestReport_Filters(t *testing.T) {
	out, err := runCmd(t, "--file", writeCSV(t), "--country", "France,Australia", "--year-from", "2011", "--month", "1", "--month", "2")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if !strings.Contains(out, "Months: Jan, Feb") {
		t.Errorf("expected month label, got\n%s", out)
	}
	// Only the two Australian orders remain: 1.25 + 32.70.
	if !strings.Contains(out, "$34") || strings.Contains(out, "Data Preview") {
		t.Errorf("unexpected report\n%s", out)
	}
}

func TestReport_EmptySelection(t *testing.T) {
	out, err := runCmd(t, "--file", writeCSV(t), "--country=")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.Contains(out, "$0") || !strings.Contains(out, "no data") {
		t.Errorf("expected empty metrics, got\n%s", out)
	}
}

func TestReport_Errors(t *testing.T) {
	path := writeCSV(t)

	tests := []struct {
		name string
		args []string
		want error
	}{
		{"reversed years", []string{"--file", path, "--year-from", "2012", "--year-to", "2010"}, services.ErrInvalidSelection},
		{"bad month", []string{"--file", path, "--month", "june"}, services.ErrInvalidSelection},
		{"month out of range", []string{"--file", path, "--month", "13"}, services.ErrInvalidSelection},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := runCmd(t, tt.args...); !errors.Is(err, tt.want) {
				t.Errorf("Execute() error = %v, want %v", err, tt.want)
			}
		})
	}

	if _, err := runCmd(t, "--file", filepath.Join(t.TempDir(), "missing.csv")); err == nil {
		t.Error("missing file should fail")
	}
	if _, err := runCmd(t, "--file", path, "--country", "France", "--all-countries"); err == nil {
		t.Error("--country and --all-countries should be mutually exclusive")
	}
}
