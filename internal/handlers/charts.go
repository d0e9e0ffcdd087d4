package handlers

import (
	"strconv"

	"sales-dashboard/internal/services"
	"sales-dashboard/internal/ui/templates"
)

// Series is one chart's labels and values. A nil value is a gap, used for
// countries whose average order value is undefined.
type Series struct {
	Labels []string   `json:"labels"`
	Values []*float64 `json:"values"`
}

type PerformanceSeries struct {
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
	Orders []int     `json:"orders"`
}

// ChartSignals carries every chart's data to the browser. Money becomes
// float64 here and nowhere earlier.
type ChartSignals struct {
	TrendData          Series            `json:"trendData"`
	TopCountries       Series            `json:"topCountries"`
	Seasonality        Series            `json:"seasonality"`
	CountryPerformance PerformanceSeries `json:"countryPerformance"`
	AOVByCountry       Series            `json:"aovByCountry"`
}

func NewChartSignals(d *services.Dashboard) ChartSignals {
	var cs ChartSignals

	cs.TrendData = newSeries(len(d.SalesByYear))
	for _, y := range d.SalesByYear {
		cs.TrendData.add(strconv.Itoa(y.Year), y.Sales.InexactFloat64(), true)
	}

	cs.TopCountries = newSeries(len(d.TopCountries))
	for _, c := range d.TopCountries {
		cs.TopCountries.add(c.Country, c.Sales.InexactFloat64(), true)
	}

	cs.Seasonality = newSeries(len(d.SalesByMonth))
	for _, m := range d.SalesByMonth {
		cs.Seasonality.add(templates.MonthName(m.Month), m.Sales.InexactFloat64(), true)
	}

	cs.CountryPerformance = PerformanceSeries{
		Labels: make([]string, 0, len(d.CountryPerformance)),
		Values: make([]float64, 0, len(d.CountryPerformance)),
		Orders: make([]int, 0, len(d.CountryPerformance)),
	}
	for _, p := range d.CountryPerformance {
		cs.CountryPerformance.Labels = append(cs.CountryPerformance.Labels, p.Country)
		cs.CountryPerformance.Values = append(cs.CountryPerformance.Values, p.Sales.InexactFloat64())
		cs.CountryPerformance.Orders = append(cs.CountryPerformance.Orders, p.Orders)
	}

	cs.AOVByCountry = newSeries(len(d.AOVByCountry))
	for _, c := range d.AOVByCountry {
		v, ok := c.AvgOrderValue.Float()
		cs.AOVByCountry.add(c.Country, v, ok)
	}

	return cs
}

func newSeries(n int) Series {
	return Series{
		Labels: make([]string, 0, n),
		Values: make([]*float64, 0, n),
	}
}

func (s *Series) add(label string, v float64, ok bool) {
	s.Labels = append(s.Labels, label)
	if !ok {
		s.Values = append(s.Values, nil)
		return
	}
	s.Values = append(s.Values, &v)
}
