package services

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"sales-dashboard/internal/config"
	"sales-dashboard/internal/models"
)

const (
	defaultBatchSize = 10000
	maxWorkers       = 8
)

var (
	ErrEmptyDataset    = errors.New("dataset has no rows")
	ErrUnparseableDate = errors.New("unparseable date")
	ErrInvalidNumber   = errors.New("invalid number")
)

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02 15:04:05Z07:00",
	"1/2/2006",
	"1/2/2006 15:04",
	"1/2/2006 15:04:05",
	"2006/01/02",
	"2006/01/02 15:04:05",
}

// Table is the loaded, normalized dataset. It is never modified after
// construction and may be shared between requests.
type Table struct {
	Rows        []models.Transaction
	Columns     Columns
	Countries   []string
	MinYear     int
	MaxYear     int
	SourceRows  int
	DroppedRows int
	Source      string
	LoadedAt    time.Time
}

// NewTable builds a table from already-derived transactions, computing the
// country list and year bounds.
func NewTable(rows []models.Transaction, cols Columns) *Table {
	t := &Table{
		Rows:       rows,
		Columns:    cols,
		SourceRows: len(rows),
		LoadedAt:   time.Now(),
	}

	seen := make(map[string]struct{})
	for i, tx := range rows {
		if _, ok := seen[tx.Country]; !ok && tx.Country != "" {
			seen[tx.Country] = struct{}{}
			t.Countries = append(t.Countries, tx.Country)
		}
		year := tx.Date.Year()
		if i == 0 || year < t.MinYear {
			t.MinYear = year
		}
		if i == 0 || year > t.MaxYear {
			t.MaxYear = year
		}
	}
	slices.Sort(t.Countries)

	return t
}

type Loader struct {
	columns   config.ColumnConfig
	batchSize int
	timeout   time.Duration
	logger    *slog.Logger
}

func NewLoader(cfg config.DataConfig, logger *slog.Logger) *Loader {
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		columns:   cfg.Columns,
		batchSize: batchSize,
		timeout:   cfg.LoadTimeout,
		logger:    logger,
	}
}

func (l *Loader) LoadFile(ctx context.Context, path string) (*Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer file.Close()

	t, err := l.Load(ctx, file)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	t.Source = path
	return t, nil
}

type rawRecord struct {
	line   int
	fields []string
}

type parsedRow struct {
	tx   models.Transaction
	keep bool
}

// Load reads a CSV stream, resolves the required columns, and derives the
// sales amount of every row. Rows whose sales are not positive, or that lack
// a date, country, quantity, or price, are dropped and counted.
func (l *Loader) Load(ctx context.Context, r io.Reader) (*Table, error) {
	start := time.Now()

	reader := csv.NewReader(bufio.NewReaderSize(r, 1024*1024))
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: empty file", ErrEmptyDataset)
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	cols, err := ResolveColumns(header, l.columns)
	if err != nil {
		return nil, err
	}

	var (
		rows    []models.Transaction
		source  int
		dropped int
	)

	batch := make([]rawRecord, 0, l.batchSize)
	flush := func() error {
		parsed, err := parseBatch(ctx, batch, cols)
		if err != nil {
			return err
		}
		for _, p := range parsed {
			if p.keep {
				rows = append(rows, p.tx)
			} else {
				dropped++
			}
		}
		batch = batch[:0]
		return nil
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}

		line, _ := reader.FieldPos(0)
		batch = append(batch, rawRecord{line: line, fields: record})
		source++

		if len(batch) >= l.batchSize {
			if err := flush(); err != nil {
				return nil, err
			}
		}
	}

	if len(batch) > 0 {
		if err := flush(); err != nil {
			return nil, err
		}
	}

	if source == 0 {
		return nil, fmt.Errorf("%w: header only", ErrEmptyDataset)
	}

	t := NewTable(rows, cols)
	t.SourceRows = source
	t.DroppedRows = dropped

	l.logger.Info("csv loaded",
		"rows", len(rows),
		"dropped", dropped,
		"countries", len(t.Countries),
		"years", fmt.Sprintf("%d-%d", t.MinYear, t.MaxYear),
		"duration", time.Since(start),
	)

	return t, nil
}

// parseBatch parses records on a bounded worker pool. Each worker owns a
// contiguous chunk and writes into its own slots, so output order matches
// input order.
func parseBatch(ctx context.Context, batch []rawRecord, cols Columns) ([]parsedRow, error) {
	out := make([]parsedRow, len(batch))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxWorkers)

	chunk := (len(batch) + maxWorkers - 1) / maxWorkers
	for start := 0; start < len(batch); start += chunk {
		end := min(start+chunk, len(batch))
		g.Go(func() error {
			for i := start; i < end; i++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				tx, keep, err := parseRecord(batch[i], cols)
				if err != nil {
					return err
				}
				out[i] = parsedRow{tx: tx, keep: keep}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func parseRecord(rec rawRecord, cols Columns) (models.Transaction, bool, error) {
	field := func(role Role) string {
		return strings.TrimSpace(rec.fields[cols.Index(role)])
	}

	rawDate := field(RoleDate)
	rawQty := field(RoleQuantity)
	rawPrice := field(RolePrice)
	country := field(RoleCountry)
	if rawDate == "" || rawQty == "" || rawPrice == "" || country == "" {
		return models.Transaction{}, false, nil
	}

	date, err := parseDate(rawDate)
	if err != nil {
		return models.Transaction{}, false, fmt.Errorf("line %d: %w: %q", rec.line, ErrUnparseableDate, rawDate)
	}

	qty, err := parseQuantity(rawQty)
	if err != nil {
		return models.Transaction{}, false, fmt.Errorf("line %d: %w: quantity %q", rec.line, ErrInvalidNumber, rawQty)
	}

	price, err := decimal.NewFromString(rawPrice)
	if err != nil {
		return models.Transaction{}, false, fmt.Errorf("line %d: %w: price %q", rec.line, ErrInvalidNumber, rawPrice)
	}

	sales := decimal.NewFromInt(int64(qty)).Mul(price)
	tx := models.Transaction{
		InvoiceID:  field(RoleInvoice),
		CustomerID: normalizeID(field(RoleCustomer)),
		Country:    country,
		Date:       date,
		Quantity:   qty,
		UnitPrice:  price,
		Sales:      sales,
	}

	return tx, sales.IsPositive(), nil
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("no layout matches %q", s)
}

func parseQuantity(s string) (int, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, fmt.Errorf("quantity %q is not a whole number", s)
	}
	return int(f), nil
}

// normalizeID strips the ".0" suffix pandas exports leave on numeric IDs, so
// "17850.0" and "17850" count as one customer.
func normalizeID(s string) string {
	if head, ok := strings.CutSuffix(s, ".0"); ok {
		if _, err := strconv.ParseUint(head, 10, 64); err == nil {
			return head
		}
	}
	return s
}
