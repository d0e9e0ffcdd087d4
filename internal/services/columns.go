package services

import (
	"errors"
	"fmt"
	"strings"

	"sales-dashboard/internal/config"
)

var (
	ErrMissingColumn   = errors.New("required column not found")
	ErrAmbiguousColumn = errors.New("column is ambiguous")
)

// Role identifies one of the six columns the dashboard needs.
type Role string

const (
	RoleDate     Role = "date"
	RoleQuantity Role = "quantity"
	RolePrice    Role = "price"
	RoleCountry  Role = "country"
	RoleInvoice  Role = "invoice"
	RoleCustomer Role = "customer"
)

var roles = []Role{RoleDate, RoleQuantity, RolePrice, RoleCountry, RoleInvoice, RoleCustomer}

// keywords used when no explicit column name is configured for a role.
var roleKeywords = map[Role]string{
	RoleDate:     "date",
	RoleQuantity: "quant",
	RolePrice:    "price",
	RoleCountry:  "country",
	RoleInvoice:  "invoice",
	RoleCustomer: "customer",
}

// Columns holds the resolved header name and field index of every role.
type Columns struct {
	Names   map[Role]string `json:"names"`
	indexes map[Role]int
}

func (c Columns) Index(role Role) int {
	return c.indexes[role]
}

func NormalizeHeader(h string) string {
	return strings.ToLower(strings.TrimSpace(h))
}

// ResolveColumns maps every role to exactly one header.
//
// Explicitly configured names must match a normalized header exactly. Other
// roles are matched by keyword substring against the headers not already
// claimed by another role; resolution repeats until no role makes progress,
// so "invoicedate" claimed by date leaves "invoiceno" as the only invoice
// candidate. A role left with several candidates is ErrAmbiguousColumn.
func ResolveColumns(headers []string, explicit config.ColumnConfig) (Columns, error) {
	normalized := make([]string, len(headers))
	for i, h := range headers {
		normalized[i] = NormalizeHeader(strings.TrimPrefix(h, "\ufeff"))
	}

	configured := map[Role]string{
		RoleDate:     explicit.Date,
		RoleQuantity: explicit.Quantity,
		RolePrice:    explicit.Price,
		RoleCountry:  explicit.Country,
		RoleInvoice:  explicit.Invoice,
		RoleCustomer: explicit.Customer,
	}

	cols := Columns{
		Names:   make(map[Role]string, len(roles)),
		indexes: make(map[Role]int, len(roles)),
	}
	claimed := make(map[int]Role, len(roles))

	claim := func(role Role, idx int) error {
		if other, ok := claimed[idx]; ok {
			return fmt.Errorf("%w: %q resolves to both %s and %s", ErrAmbiguousColumn, normalized[idx], other, role)
		}
		claimed[idx] = role
		cols.Names[role] = normalized[idx]
		cols.indexes[role] = idx
		return nil
	}

	var pending []Role
	for _, role := range roles {
		name := NormalizeHeader(configured[role])
		if name == "" {
			pending = append(pending, role)
			continue
		}
		idx := indexOf(normalized, name)
		if idx < 0 {
			return Columns{}, fmt.Errorf("%w: %s column %q (headers: %s)", ErrMissingColumn, role, name, strings.Join(normalized, ", "))
		}
		if err := claim(role, idx); err != nil {
			return Columns{}, err
		}
	}

	for progress := true; progress && len(pending) > 0; {
		progress = false
		remaining := pending[:0]
		for _, role := range pending {
			candidates := keywordCandidates(normalized, roleKeywords[role], claimed)
			if len(candidates) == 1 {
				if err := claim(role, candidates[0]); err != nil {
					return Columns{}, err
				}
				progress = true
				continue
			}
			remaining = append(remaining, role)
		}
		pending = remaining
	}

	for _, role := range pending {
		keyword := roleKeywords[role]
		candidates := keywordCandidates(normalized, keyword, claimed)
		if len(candidates) == 0 {
			return Columns{}, fmt.Errorf("%w: no header contains %q for %s (headers: %s)", ErrMissingColumn, keyword, role, strings.Join(normalized, ", "))
		}
		names := make([]string, len(candidates))
		for i, c := range candidates {
			names[i] = normalized[c]
		}
		return Columns{}, fmt.Errorf("%w: %s matches %s; set COLUMN_%s explicitly", ErrAmbiguousColumn, role, strings.Join(names, ", "), strings.ToUpper(string(role)))
	}

	return cols, nil
}

func keywordCandidates(headers []string, keyword string, claimed map[int]Role) []int {
	var out []int
	for i, h := range headers {
		if _, taken := claimed[i]; taken {
			continue
		}
		if strings.Contains(h, keyword) {
			out = append(out, i)
		}
	}
	return out
}

func indexOf(headers []string, name string) int {
	for i, h := range headers {
		if h == name {
			return i
		}
	}
	return -1
}
