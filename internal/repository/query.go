package repository

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	DefaultLimit = 25
	MaxLimit     = 200
)

// Ordering is one ORDER BY term.
type Ordering struct {
	Field      string
	Descending bool
}

func (o Ordering) String() string {
	if o.Descending {
		return "-" + o.Field
	}
	return o.Field
}

// ParseOrdering parses a comma separated list such as "-deadline,title".
// allowed maps API field names to column names; unknown fields are an error.
func ParseOrdering(raw string, allowed map[string]string) ([]Ordering, error) {
	var out []Ordering
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		desc := strings.HasPrefix(part, "-")
		name := strings.TrimPrefix(part, "-")
		column, ok := allowed[name]
		if !ok {
			return nil, fmt.Errorf("%w: cannot order by %q", ErrInvalidInput, name)
		}
		out = append(out, Ordering{Field: column, Descending: desc})
	}
	return out, nil
}

// applyOrdering adds ORDER BY terms, then id as a tiebreaker so pages are stable.
func applyOrdering(q *gorm.DB, orderings []Ordering, fallback Ordering) *gorm.DB {
	if len(orderings) == 0 {
		orderings = []Ordering{fallback}
	}
	for _, o := range orderings {
		q = q.Order(clause.OrderByColumn{Column: clause.Column{Name: o.Field}, Desc: o.Descending})
	}
	return q.Order("id")
}

// Page is a limit/offset window.
type Page struct {
	Limit  int
	Offset int
}

// Normalize clamps the window to sane bounds.
func (p Page) Normalize() Page {
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func likePattern(s string) string {
	s = likeEscaper.Replace(strings.ToLower(s))
	return "%" + s + "%"
}
