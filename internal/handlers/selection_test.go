package handlers

import (
	"encoding/json"
	"errors"
	"net/url"
	"testing"

	"github.com/google/go-cmp/cmp"

	"sales-dashboard/internal/services"
)

func defaultTestSelection() services.Selection {
	return services.Selection{
		Countries: []string{"Australia", "France"},
		YearFrom:  2010,
		YearTo:    2011,
		Months:    services.AllMonths(),
	}
}

func TestSelectionFromQuery(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  services.Selection
	}{
		{
			name:  "absent keeps defaults",
			query: "",
			want:  defaultTestSelection(),
		},
		{
			name:  "repeated and comma separated",
			query: "country=Spain&country=Japan,+Norway&month=3&month=4,5",
			want: services.Selection{
				Countries: []string{"Spain", "Japan", "Norway"},
				YearFrom:  2010,
				YearTo:    2011,
				Months:    []int{3, 4, 5},
			},
		},
		{
			name:  "present but empty",
			query: "country=&month=",
			want: services.Selection{
				Countries: []string{},
				YearFrom:  2010,
				YearTo:    2011,
				Months:    []int{},
			},
		},
		{
			name:  "year bounds",
			query: "year_from=2011&year_to=2011",
			want: services.Selection{
				Countries: []string{"Australia", "France"},
				YearFrom:  2011,
				YearTo:    2011,
				Months:    services.AllMonths(),
			},
		},
		{
			name:  "empty year keeps default",
			query: "year_from=",
			want:  defaultTestSelection(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := url.ParseQuery(tt.query)
			if err != nil {
				t.Fatal(err)
			}

			got, err := selectionFromQuery(q, defaultTestSelection())
			if err != nil {
				t.Fatalf("selectionFromQuery() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("selection mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSelectionFromQuery_Invalid(t *testing.T) {
	for _, query := range []string{
		"year_from=abc",
		"year_to=2011.5",
		"year_from=2012&year_to=2010",
		"month=0",
		"month=13",
		"month=feb",
	} {
		t.Run(query, func(t *testing.T) {
			q, err := url.ParseQuery(query)
			if err != nil {
				t.Fatal(err)
			}
			if _, err := selectionFromQuery(q, defaultTestSelection()); !errors.Is(err, services.ErrInvalidSelection) {
				t.Errorf("error = %v, want ErrInvalidSelection", err)
			}
		})
	}
}

func TestDashboardSignals_Selection(t *testing.T) {
	tests := []struct {
		name    string
		signals string
		want    services.Selection
	}{
		{
			name:    "nothing sent",
			signals: `{}`,
			want:    defaultTestSelection(),
		},
		{
			name:    "numbers",
			signals: `{"countries":["Spain"],"yearFrom":2011,"yearTo":2011,"months":[6,7]}`,
			want: services.Selection{
				Countries: []string{"Spain"},
				YearFrom:  2011,
				YearTo:    2011,
				Months:    []int{6, 7},
			},
		},
		{
			name:    "strings from form controls",
			signals: `{"countries":["Spain"," "],"yearFrom":"2010","yearTo":" 2011","months":["1","12"]}`,
			want: services.Selection{
				Countries: []string{"Spain"},
				YearFrom:  2010,
				YearTo:    2011,
				Months:    []int{1, 12},
			},
		},
		{
			name:    "empty lists",
			signals: `{"countries":[],"months":[]}`,
			want: services.Selection{
				Countries: []string{},
				YearFrom:  2010,
				YearTo:    2011,
				Months:    []int{},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s dashboardSignals
			if err := json.Unmarshal([]byte(tt.signals), &s); err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}
			got, err := s.selection(defaultTestSelection())
			if err != nil {
				t.Fatalf("selection() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("selection mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFlexInt_Rejects(t *testing.T) {
	for _, raw := range []string{`"abc"`, `2011.5`, `true`} {
		var n flexInt
		if err := json.Unmarshal([]byte(raw), &n); err == nil {
			t.Errorf("Unmarshal(%s) should fail, got %d", raw, n)
		}
	}
}
