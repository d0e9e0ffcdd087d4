// Command salesreport prints the dashboard's metrics and rankings for a CSV
// file as text tables.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"sales-dashboard/internal/config"
	"sales-dashboard/internal/observability"
	"sales-dashboard/internal/services"
	"sales-dashboard/internal/ui/format"
	"sales-dashboard/internal/ui/templates"
)

var titleStyle = lipgloss.NewStyle().Bold(true)

type reportOptions struct {
	file         string
	countries    []string
	allCountries bool
	yearFrom     int
	yearTo       int
	months       []string
	top          int
	preview      int
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var opts reportOptions

	cmd := &cobra.Command{
		Use:           "salesreport",
		Short:         "Summarize a sales CSV as text tables",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if opts.file != "" {
				cfg.Data.CSVFile = opts.file
			}
			if opts.top > 0 {
				cfg.Dashboard.TopN = opts.top
			}

			logger := observability.NewLoggerTo(stderr, cfg.Logger)
			return runReport(cmd, stdout, cfg, opts, logger)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.file, "file", "f", "", "sales CSV file (default $CSV_FILE)")
	flags.StringSliceVarP(&opts.countries, "country", "c", nil, "countries to include, repeatable or comma separated")
	flags.BoolVar(&opts.allCountries, "all-countries", false, "include every country")
	flags.IntVar(&opts.yearFrom, "year-from", 0, "first year to include (default earliest)")
	flags.IntVar(&opts.yearTo, "year-to", 0, "last year to include (default latest)")
	flags.StringSliceVarP(&opts.months, "month", "m", nil, "months 1-12 to include, repeatable or comma separated")
	flags.IntVar(&opts.top, "top", 0, "rows in each ranking (default $DASHBOARD_TOP_N)")
	flags.IntVar(&opts.preview, "preview", 0, "transactions to print after the rankings")
	cmd.MarkFlagsMutuallyExclusive("country", "all-countries")

	return cmd
}

func runReport(cmd *cobra.Command, out io.Writer, cfg *config.Config, opts reportOptions, logger *slog.Logger) error {
	ctx := cmd.Context()

	store := services.NewStore(services.NewLoader(cfg.Data, logger), cfg.Data.CSVFile, logger)
	analytics := services.NewAnalytics(store, services.Options{
		DefaultCountries: cfg.Dashboard.DefaultCountries,
		TopN:             cfg.Dashboard.TopN,
		PreviewRows:      max(opts.preview, 1),
	}, logger)

	t, err := analytics.Table(ctx)
	if err != nil {
		return err
	}

	sel := services.DefaultSelection(t, analytics.Options().DefaultCountries)
	flags := cmd.Flags()
	switch {
	case opts.allCountries:
		sel = services.FullSelection(t)
	case flags.Changed("country"):
		sel.Countries = trimAll(opts.countries)
	}
	if flags.Changed("year-from") {
		sel.YearFrom = opts.yearFrom
	}
	if flags.Changed("year-to") {
		sel.YearTo = opts.yearTo
	}
	if flags.Changed("month") {
		if sel.Months, err = parseMonths(opts.months); err != nil {
			return err
		}
	}

	d, err := analytics.Dashboard(ctx, sel)
	if err != nil {
		return err
	}

	printReport(out, t.Source, d, opts.preview)
	return nil
}

func printReport(out io.Writer, source string, d *services.Dashboard, preview int) {
	fmt.Fprintln(out, titleStyle.Render("Sales report: "+source))
	fmt.Fprintf(out, "Countries: %s\nYears: %d-%d\nMonths: %s\n",
		strings.Join(d.Selection.Countries, ", "), d.Selection.YearFrom, d.Selection.YearTo, monthLabel(d.Selection.Months))

	s := d.Summary
	printTable(out, "Key Metrics", []string{"Metric", "Value"}, [][]string{
		{"Total Sales", format.Money(s.TotalSales, 0)},
		{"Total Customers", format.Count(s.TotalCustomers)},
		{"Total Orders", format.Count(s.TotalOrders)},
		{"Avg Order Value", format.OrderValue(s.AvgOrderValue)},
	})

	rows := make([][]string, 0, len(d.SalesByYear))
	for _, y := range d.SalesByYear {
		rows = append(rows, []string{strconv.Itoa(y.Year), format.Money(y.Sales, 0)})
	}
	printTable(out, "Sales Trend by Year", []string{"Year", "Sales"}, rows)

	rows = make([][]string, 0, len(d.TopCountries))
	for i, c := range d.TopCountries {
		rows = append(rows, []string{strconv.Itoa(i + 1), c.Country, format.Money(c.Sales, 0)})
	}
	printTable(out, "Top Countries by Sales", []string{"#", "Country", "Sales"}, rows)

	rows = make([][]string, 0, len(d.SalesByMonth))
	for _, m := range d.SalesByMonth {
		rows = append(rows, []string{templates.MonthName(m.Month), format.Money(m.Sales, 0)})
	}
	printTable(out, "Monthly Seasonality", []string{"Month", "Sales"}, rows)

	rows = make([][]string, 0, len(d.CountryPerformance))
	for _, p := range d.CountryPerformance {
		rows = append(rows, []string{p.Country, format.Money(p.Sales, 0), format.Count(p.Orders)})
	}
	printTable(out, "Country Performance", []string{"Country", "Sales", "Orders"}, rows)

	rows = make([][]string, 0, len(d.AOVByCountry))
	for _, c := range d.AOVByCountry {
		rows = append(rows, []string{c.Country, format.OrderValue(c.AvgOrderValue)})
	}
	printTable(out, "Average Order Value by Country", []string{"Country", "Avg Order Value"}, rows)

	if preview > 0 {
		rows = make([][]string, 0, len(d.Preview))
		for _, r := range d.Preview {
			rows = append(rows, []string{
				r.InvoiceID, r.CustomerID, r.Country, r.Date.Format("2006-01-02"),
				strconv.Itoa(r.Quantity), format.Money(r.UnitPrice, 2), format.Money(r.Sales, 2),
			})
		}
		printTable(out, fmt.Sprintf("Data Preview (%s of %s rows)", format.Count(len(d.Preview)), format.Count(s.Rows)),
			[]string{"Invoice", "Customer", "Country", "Date", "Quantity", "Unit Price", "Sales"}, rows)
	}
}

func printTable(out io.Writer, title string, headers []string, rows [][]string) {
	fmt.Fprintln(out)
	fmt.Fprintln(out, titleStyle.Render(title))
	if len(rows) == 0 {
		fmt.Fprintln(out, format.NoData)
		return
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...)
	fmt.Fprintln(out, t.Render())
}

func monthLabel(months []int) string {
	if len(months) == 12 {
		return "all"
	}
	names := make([]string, len(months))
	for i, m := range months {
		names[i] = templates.MonthName(m)
	}
	return strings.Join(names, ", ")
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func parseMonths(values []string) ([]int, error) {
	months := make([]int, 0, len(values))
	for _, v := range trimAll(values) {
		m, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("%w: month %q is not an integer", services.ErrInvalidSelection, v)
		}
		months = append(months, m)
	}
	return months, nil
}

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "salesreport:", err)
		os.Exit(1)
	}
}
