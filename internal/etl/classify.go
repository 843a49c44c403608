package etl

import "catalog/internal/domain"

// Classify partitions rows by field count. Rows of exactly width fields are
// coerced into products; every other row is returned untouched.
func Classify(width int, rows []domain.RawRow, c *Coercer) (wellFormed []domain.Product, malformed []domain.RawRow) {
	for _, row := range rows {
		if row.Len() != width {
			malformed = append(malformed, row)
			continue
		}
		wellFormed = append(wellFormed, c.Coerce(row))
	}
	return wellFormed, malformed
}
