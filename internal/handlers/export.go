package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/xuri/excelize/v2"

	"sales-dashboard/internal/errors"
	"sales-dashboard/internal/models"
	"sales-dashboard/internal/observability"
	"sales-dashboard/internal/services"
	"sales-dashboard/internal/ui/format"
)

const (
	transactionsSheet = "Transactions"
	summarySheet      = "Summary"
	xlsxContentType   = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var transactionHeaders = []any{"Invoice", "Customer", "Country", "Date", "Quantity", "Unit Price", "Sales"}

type ExportHandlers struct {
	api    *APIHandlers
	logger *slog.Logger
}

func NewExportHandlers(api *APIHandlers, logger *slog.Logger) *ExportHandlers {
	return &ExportHandlers{api: api, logger: logger}
}

// HandleXLSX writes the full filtered view, not just the preview, as a
// workbook.
func (h *ExportHandlers) HandleXLSX(w http.ResponseWriter, r *http.Request) {
	sel, err := h.api.selection(r)
	if err != nil {
		h.api.writeError(w, r, err)
		return
	}
	rows, err := h.api.analytics.Rows(r.Context(), sel)
	if err != nil {
		h.api.writeError(w, r, err)
		return
	}

	f, err := BuildWorkbook(rows)
	if err != nil {
		h.api.writeError(w, r, errors.InternalWrap(err, "Failed to build export"))
		return
	}
	defer f.Close()

	buf, err := f.WriteToBuffer()
	if err != nil {
		h.api.writeError(w, r, errors.InternalWrap(err, "Failed to write export"))
		return
	}

	h.logger.Info("export written",
		"rows", len(rows),
		"bytes", buf.Len(),
		"request_id", observability.GetRequestID(r.Context()),
	)

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="sales.xlsx"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.Warn("export write interrupted", "error", err)
	}
}

// BuildWorkbook lays out rows on a Transactions sheet and their metrics on a
// Summary sheet. The caller closes the file.
func BuildWorkbook(rows []models.Transaction) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", transactionsSheet); err != nil {
		f.Close()
		return nil, err
	}

	if err := writeTransactions(f, rows); err != nil {
		f.Close()
		return nil, fmt.Errorf("write %s sheet: %w", transactionsSheet, err)
	}
	if err := writeSummary(f, services.Summarize(rows)); err != nil {
		f.Close()
		return nil, fmt.Errorf("write %s sheet: %w", summarySheet, err)
	}
	return f, nil
}

func writeTransactions(f *excelize.File, rows []models.Transaction) error {
	sw, err := f.NewStreamWriter(transactionsSheet)
	if err != nil {
		return err
	}
	if err := sw.SetColWidth(1, 7, 14); err != nil {
		return err
	}
	if err := sw.SetRow("A1", transactionHeaders); err != nil {
		return err
	}

	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, []any{
			r.InvoiceID,
			r.CustomerID,
			r.Country,
			r.Date.Format("2006-01-02"),
			r.Quantity,
			r.UnitPrice.InexactFloat64(),
			r.Sales.InexactFloat64(),
		}); err != nil {
			return err
		}
	}
	return sw.Flush()
}

func writeSummary(f *excelize.File, s models.Summary) error {
	if _, err := f.NewSheet(summarySheet); err != nil {
		return err
	}

	aov := any(format.NoData)
	if v, ok := s.AvgOrderValue.Float(); ok {
		aov = v
	}
	lines := [][]any{
		{"Metric", "Value"},
		{"Total Sales", s.TotalSales.InexactFloat64()},
		{"Total Customers", s.TotalCustomers},
		{"Total Orders", s.TotalOrders},
		{"Avg Order Value", aov},
		{"Rows", s.Rows},
	}
	for i, line := range lines {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(summarySheet, cell, &line); err != nil {
			return err
		}
	}
	return f.SetColWidth(summarySheet, "A", "A", 18)
}
