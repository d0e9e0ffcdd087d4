package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"sales-dashboard/internal/services"
)

// selectionFromQuery overlays query parameters on def. An absent parameter
// keeps the default; a present but empty list parameter selects nothing.
func selectionFromQuery(q url.Values, def services.Selection) (services.Selection, error) {
	sel := def

	if values, ok := q["country"]; ok {
		sel.Countries = splitList(values)
	}
	if values, ok := q["month"]; ok {
		months := make([]int, 0, 12)
		for _, v := range splitList(values) {
			m, err := strconv.Atoi(v)
			if err != nil {
				return services.Selection{}, fmt.Errorf("%w: month %q is not an integer", services.ErrInvalidSelection, v)
			}
			months = append(months, m)
		}
		sel.Months = months
	}

	var err error
	if sel.YearFrom, err = intParam(q, "year_from", def.YearFrom); err != nil {
		return services.Selection{}, err
	}
	if sel.YearTo, err = intParam(q, "year_to", def.YearTo); err != nil {
		return services.Selection{}, err
	}

	return sel, sel.Validate()
}

func intParam(q url.Values, name string, def int) (int, error) {
	v := strings.TrimSpace(q.Get(name))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q is not an integer", services.ErrInvalidSelection, name, v)
	}
	return n, nil
}

// splitList accepts both repeated parameters and comma separated values.
func splitList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		for part := range strings.SplitSeq(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// flexInt decodes a JSON number or a numeric string. Bound form inputs send
// either depending on the control.
type flexInt int

func (n *flexInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		v, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return fmt.Errorf("%w: %q is not an integer", services.ErrInvalidSelection, s)
		}
		*n = flexInt(v)
		return nil
	}

	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("%w: %s is not an integer", services.ErrInvalidSelection, data)
	}
	if f != float64(int(f)) {
		return fmt.Errorf("%w: %s is not an integer", services.ErrInvalidSelection, data)
	}
	*n = flexInt(f)
	return nil
}

// dashboardSignals is the filter state the browser sends with each SSE
// request. Nil fields were not sent and fall back to the defaults.
type dashboardSignals struct {
	Countries *[]string  `json:"countries"`
	YearFrom  *flexInt   `json:"yearFrom"`
	YearTo    *flexInt   `json:"yearTo"`
	Months    *[]flexInt `json:"months"`
}

func (s dashboardSignals) selection(def services.Selection) (services.Selection, error) {
	sel := def
	if s.Countries != nil {
		sel.Countries = make([]string, 0, len(*s.Countries))
		for _, c := range *s.Countries {
			if c = strings.TrimSpace(c); c != "" {
				sel.Countries = append(sel.Countries, c)
			}
		}
	}
	if s.YearFrom != nil {
		sel.YearFrom = int(*s.YearFrom)
	}
	if s.YearTo != nil {
		sel.YearTo = int(*s.YearTo)
	}
	if s.Months != nil {
		sel.Months = make([]int, 0, len(*s.Months))
		for _, m := range *s.Months {
			sel.Months = append(sel.Months, int(m))
		}
	}
	return sel, sel.Validate()
}

// pageSignals seeds the client state on first render.
type pageSignals struct {
	Countries []string `json:"countries"`
	YearFrom  int      `json:"yearFrom"`
	YearTo    int      `json:"yearTo"`
	Months    []int    `json:"months"`
	ChartSignals
}

func newPageSignals(d *services.Dashboard) pageSignals {
	return pageSignals{
		Countries:    d.Selection.Countries,
		YearFrom:     d.Selection.YearFrom,
		YearTo:       d.Selection.YearTo,
		Months:       d.Selection.Months,
		ChartSignals: NewChartSignals(d),
	}
}
