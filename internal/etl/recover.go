package etl

import (
	"strings"

	"catalog/internal/domain"
)

// ── Row Recovery ───────────────────────────────────────────
// A description such as `Great, cheap, fun` written without quotes splits
// into several fields, each continuation starting with a space. Recovery
// re-quotes those runs and re-parses the row.

// LineParser parses one comma-delimited, double-quote-escaped line.
type LineParser func(line string) ([]string, error)

// RecoverLongRows repairs rows with more than width fields. Rows with fewer
// fields cannot be repaired and come back in tooShort. Each candidate is
// either the repaired row or the original one when repair was rejected, so
// candidates still need a length check.
func RecoverLongRows(width int, malformed []domain.RawRow, parse LineParser) (candidates, tooShort []domain.RawRow) {
	for _, row := range malformed {
		if row.Len() > width {
			candidates = append(candidates, QuoteSplit(row, row.Len()-width, parse))
		} else {
			tooShort = append(tooShort, row)
		}
	}
	return candidates, tooShort
}

// QuoteSplit quotes runs of space-led fields together with the field before
// them, re-joins the row and re-parses it. The repair is accepted only when
// the re-joined line holds exactly excess ", " separators; otherwise the
// original row is returned.
func QuoteSplit(row domain.RawRow, excess int, parse LineParser) domain.RawRow {
	fields := make([]string, len(row.Fields))
	copy(fields, row.Fields)

	for i := 1; i < len(fields); i++ {
		if !startsWithSpace(fields[i]) {
			continue
		}
		// Field i-1 opens the block unless it is itself a continuation.
		if i == 1 || !startsWithSpace(fields[i-1]) {
			fields[i-1] = `"` + fields[i-1]
		}
		// Field i closes the block unless the next one continues it.
		// There is no next field at the end of the row.
		if i+1 >= len(fields) || !startsWithSpace(fields[i+1]) {
			fields[i] = fields[i] + `"`
		}
	}

	line := strings.Join(fields, ",")
	if strings.Count(line, ", ") != excess {
		return row
	}
	repaired, err := parse(line)
	if err != nil {
		return row
	}
	return domain.RawRow{Line: row.Line, Fields: repaired}
}

func startsWithSpace(s string) bool {
	return strings.HasPrefix(s, " ")
}
