package services

import (
	"cmp"
	"slices"

	"github.com/shopspring/decimal"

	"sales-dashboard/internal/models"
)

// Aggregations are pure functions of a filtered view. Groups are collected in
// order of first appearance and sorted stably, so equal values keep source
// order. Empty identifiers are not counted as customers or orders.

func TotalSales(rows []models.Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, tx := range rows {
		total = total.Add(tx.Sales)
	}
	return total
}

func TotalCustomers(rows []models.Transaction) int {
	return countDistinct(rows, func(tx models.Transaction) string { return tx.CustomerID })
}

func TotalOrders(rows []models.Transaction) int {
	return countDistinct(rows, func(tx models.Transaction) string { return tx.InvoiceID })
}

// AvgOrderValue is the mean of per-invoice sales sums. It is undefined when
// the view has no orders.
func AvgOrderValue(rows []models.Transaction) models.OrderValue {
	return meanOrderValue(invoiceTotals(rows))
}

func SalesByYear(rows []models.Transaction) []models.YearSales {
	sums := make(map[int]decimal.Decimal)
	for _, tx := range rows {
		y := tx.Date.Year()
		sums[y] = sums[y].Add(tx.Sales)
	}

	out := make([]models.YearSales, 0, len(sums))
	for y, s := range sums {
		out = append(out, models.YearSales{Year: y, Sales: s})
	}
	slices.SortFunc(out, func(a, b models.YearSales) int { return cmp.Compare(a.Year, b.Year) })
	return out
}

func SalesByMonth(rows []models.Transaction) []models.MonthSales {
	var sums [13]decimal.Decimal
	var present [13]bool
	for _, tx := range rows {
		m := int(tx.Date.Month())
		sums[m] = sums[m].Add(tx.Sales)
		present[m] = true
	}

	out := make([]models.MonthSales, 0, 12)
	for m := 1; m <= 12; m++ {
		if present[m] {
			out = append(out, models.MonthSales{Month: m, Sales: sums[m]})
		}
	}
	return out
}

// TopCountriesBySales sums sales per country, descending. A limit of zero or
// less returns every country.
func TopCountriesBySales(rows []models.Transaction, limit int) []models.CountrySales {
	groups := groupByCountry(rows)

	out := make([]models.CountrySales, len(groups))
	for i, g := range groups {
		out[i] = models.CountrySales{Country: g.country, Sales: TotalSales(g.rows)}
	}
	slices.SortStableFunc(out, func(a, b models.CountrySales) int { return b.Sales.Cmp(a.Sales) })
	return truncate(out, limit)
}

func CountryPerformance(rows []models.Transaction, limit int) []models.CountryPerformance {
	groups := groupByCountry(rows)

	out := make([]models.CountryPerformance, len(groups))
	for i, g := range groups {
		out[i] = models.CountryPerformance{
			Country: g.country,
			Sales:   TotalSales(g.rows),
			Orders:  TotalOrders(g.rows),
		}
	}
	slices.SortStableFunc(out, func(a, b models.CountryPerformance) int { return b.Sales.Cmp(a.Sales) })
	return truncate(out, limit)
}

// AvgOrderValueByCountry ranks countries by the mean of their per-invoice
// sales sums. Countries without any invoice sort last.
func AvgOrderValueByCountry(rows []models.Transaction, limit int) []models.CountryOrderValue {
	groups := groupByCountry(rows)

	out := make([]models.CountryOrderValue, len(groups))
	for i, g := range groups {
		out[i] = models.CountryOrderValue{
			Country:       g.country,
			AvgOrderValue: meanOrderValue(invoiceTotals(g.rows)),
		}
	}
	slices.SortStableFunc(out, func(a, b models.CountryOrderValue) int {
		av, bv := a.AvgOrderValue, b.AvgOrderValue
		switch {
		case av.Valid && bv.Valid:
			return bv.Value.Cmp(av.Value)
		case av.Valid:
			return -1
		case bv.Valid:
			return 1
		default:
			return 0
		}
	})
	return truncate(out, limit)
}

func Summarize(rows []models.Transaction) models.Summary {
	return models.Summary{
		TotalSales:     TotalSales(rows),
		TotalCustomers: TotalCustomers(rows),
		TotalOrders:    TotalOrders(rows),
		AvgOrderValue:  AvgOrderValue(rows),
		Rows:           len(rows),
	}
}

type countryGroup struct {
	country string
	rows    []models.Transaction
}

func groupByCountry(rows []models.Transaction) []countryGroup {
	index := make(map[string]int)
	var groups []countryGroup
	for _, tx := range rows {
		i, ok := index[tx.Country]
		if !ok {
			i = len(groups)
			index[tx.Country] = i
			groups = append(groups, countryGroup{country: tx.Country})
		}
		groups[i].rows = append(groups[i].rows, tx)
	}
	return groups
}

func invoiceTotals(rows []models.Transaction) []decimal.Decimal {
	index := make(map[string]int)
	var totals []decimal.Decimal
	for _, tx := range rows {
		if tx.InvoiceID == "" {
			continue
		}
		i, ok := index[tx.InvoiceID]
		if !ok {
			i = len(totals)
			index[tx.InvoiceID] = i
			totals = append(totals, decimal.Zero)
		}
		totals[i] = totals[i].Add(tx.Sales)
	}
	return totals
}

func meanOrderValue(totals []decimal.Decimal) models.OrderValue {
	if len(totals) == 0 {
		return models.OrderValue{}
	}
	sum := decimal.Sum(decimal.Zero, totals...)
	return models.OrderValue{
		Value: sum.Div(decimal.NewFromInt(int64(len(totals)))),
		Valid: true,
	}
}

func countDistinct(rows []models.Transaction, key func(models.Transaction) string) int {
	seen := make(map[string]struct{})
	for _, tx := range rows {
		if k := key(tx); k != "" {
			seen[k] = struct{}{}
		}
	}
	return len(seen)
}

func truncate[T any](s []T, limit int) []T {
	if limit > 0 && len(s) > limit {
		return s[:limit]
	}
	return s
}
