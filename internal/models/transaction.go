package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is one retained line item of the source CSV. Sales is always
// Quantity * UnitPrice and is strictly positive.
type Transaction struct {
	InvoiceID  string          `json:"invoice_id"`
	CustomerID string          `json:"customer_id"`
	Country    string          `json:"country"`
	Date       time.Time       `json:"date"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	Sales      decimal.Decimal `json:"sales"`
}

type YearSales struct {
	Year  int             `json:"year"`
	Sales decimal.Decimal `json:"total_sales"`
}

type MonthSales struct {
	Month int             `json:"month"`
	Sales decimal.Decimal `json:"total_sales"`
}

type CountrySales struct {
	Country string          `json:"country"`
	Sales   decimal.Decimal `json:"sales"`
}

type CountryPerformance struct {
	Country string          `json:"country"`
	Sales   decimal.Decimal `json:"total_sales"`
	Orders  int             `json:"total_orders"`
}

type CountryOrderValue struct {
	Country       string     `json:"country"`
	AvgOrderValue OrderValue `json:"avg_order_value"`
}

// OrderValue is an average order value that is undefined when there are no
// orders. An undefined value encodes as JSON null.
type OrderValue struct {
	Value decimal.Decimal
	Valid bool
}

func (v OrderValue) MarshalJSON() ([]byte, error) {
	if !v.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(v.Value)
}

func (v *OrderValue) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*v = OrderValue{}
		return nil
	}
	if err := json.Unmarshal(data, &v.Value); err != nil {
		return err
	}
	v.Valid = true
	return nil
}

// Float returns the value as a float64 and whether it is defined.
func (v OrderValue) Float() (float64, bool) {
	if !v.Valid {
		return 0, false
	}
	return v.Value.InexactFloat64(), true
}

type Summary struct {
	TotalSales     decimal.Decimal `json:"total_sales"`
	TotalCustomers int             `json:"total_customers"`
	TotalOrders    int             `json:"total_orders"`
	AvgOrderValue  OrderValue      `json:"avg_order_value"`
	Rows           int             `json:"rows"`
}
