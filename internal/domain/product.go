package domain

import "time"

// RawRow is one record as read from the source file, before any typing.
// Its field count may differ from the header width when a text value
// carried unescaped delimiters.
type RawRow struct {
	Line   int      `json:"line"` // 1-based line in the source file, 0 if unknown
	Fields []string `json:"fields"`
}

// Len returns the number of fields in the row.
func (r RawRow) Len() int { return len(r.Fields) }

// Field returns the i-th field, or "" when the row is too short.
func (r RawRow) Field(i int) string {
	if i < 0 || i >= len(r.Fields) {
		return ""
	}
	return r.Fields[i]
}

// Product is a fully typed catalog row ready for persistence.
type Product struct {
	Line         int     `json:"line"`
	Code         string  `json:"code"`
	Name         string  `json:"name"`
	Description  string  `json:"description"`
	Stock        int     `json:"stock"`
	Cost         float64 `json:"cost"`
	Discontinued bool    `json:"discontinued"`
}

// DiscontinuedAt returns the value stored in the discontinued timestamp
// column: now for discontinued products, nil (NULL) otherwise.
func (p Product) DiscontinuedAt(now time.Time) any {
	if p.Discontinued {
		return now
	}
	return nil
}

// Outcome is the result of handing one product to the persistence gateway.
type Outcome string

const (
	OutcomeInserted  Outcome = "inserted"
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeFailed    Outcome = "failed"
)
