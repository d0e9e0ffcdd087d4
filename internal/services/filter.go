package services

import (
	"errors"
	"fmt"

	"sales-dashboard/internal/models"
)

var ErrInvalidSelection = errors.New("invalid selection")

// Selection is the set of user filter choices. Countries and Months are
// allow-lists: an empty list matches nothing. The year range is inclusive.
type Selection struct {
	Countries []string `json:"countries"`
	YearFrom  int      `json:"year_from"`
	YearTo    int      `json:"year_to"`
	Months    []int    `json:"months"`
}

func (s Selection) Validate() error {
	if s.YearFrom > s.YearTo {
		return fmt.Errorf("%w: year range %d-%d is reversed", ErrInvalidSelection, s.YearFrom, s.YearTo)
	}
	for _, m := range s.Months {
		if m < 1 || m > 12 {
			return fmt.Errorf("%w: month %d is outside 1-12", ErrInvalidSelection, m)
		}
	}
	return nil
}

func AllMonths() []int {
	return []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}
}

// DefaultSelection is the dashboard's initial state: the first n countries
// alphabetically, the full year range, and every month.
func DefaultSelection(t *Table, n int) Selection {
	n = min(max(n, 0), len(t.Countries))
	return Selection{
		Countries: append([]string(nil), t.Countries[:n]...),
		YearFrom:  t.MinYear,
		YearTo:    t.MaxYear,
		Months:    AllMonths(),
	}
}

// FullSelection matches every row of the table.
func FullSelection(t *Table) Selection {
	return Selection{
		Countries: append([]string(nil), t.Countries...),
		YearFrom:  t.MinYear,
		YearTo:    t.MaxYear,
		Months:    AllMonths(),
	}
}

// Filter returns the rows of t matching sel, in source order. The table is
// not modified.
func Filter(t *Table, sel Selection) []models.Transaction {
	if len(sel.Countries) == 0 || len(sel.Months) == 0 {
		return []models.Transaction{}
	}

	countries := make(map[string]struct{}, len(sel.Countries))
	for _, c := range sel.Countries {
		countries[c] = struct{}{}
	}
	var months [13]bool
	for _, m := range sel.Months {
		if m >= 1 && m <= 12 {
			months[m] = true
		}
	}

	out := make([]models.Transaction, 0, len(t.Rows))
	for _, tx := range t.Rows {
		if _, ok := countries[tx.Country]; !ok {
			continue
		}
		year := tx.Date.Year()
		if year < sel.YearFrom || year > sel.YearTo {
			continue
		}
		if !months[tx.Date.Month()] {
			continue
		}
		out = append(out, tx)
	}

	return out
}
