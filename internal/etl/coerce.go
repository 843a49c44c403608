package etl

import (
	"math"
	"strconv"
	"strings"

	"catalog/internal/domain"
	"catalog/internal/textenc"
)

// ── Type Coercion ──────────────────────────────────────────
// Coercion is total: malformed numbers degrade to zero and unknown
// discontinued markers read as false. It never returns an error.

// discontinuedMarkers are the exact values that flag a product as discontinued.
var discontinuedMarkers = map[string]struct{}{
	"yes": {}, "Yes": {}, "YES": {}, "Y": {}, "y": {},
	"Discontinued": {}, "discontinued": {}, "DISCONTINUED": {}, "1": {},
}

// Coercer converts raw rows into typed products.
type Coercer struct {
	Translit textenc.Transliterator
	Src      textenc.Charset // encoding of the source file
	Dst      textenc.Charset // character set of the target store
}

// NewCoercer returns a Coercer that restricts text to ISO-8859-1.
func NewCoercer() *Coercer {
	return &Coercer{Translit: textenc.Default, Src: textenc.UTF8, Dst: textenc.Latin1}
}

// Coerce types every field of row by its column position.
func (c *Coercer) Coerce(row domain.RawRow) domain.Product {
	return domain.Product{
		Line:         row.Line,
		Code:         c.Text(row.Field(ColCode)),
		Name:         c.Text(row.Field(ColName)),
		Description:  c.Text(row.Field(ColDescription)),
		Stock:        ParseInteger(row.Field(ColStock)),
		Cost:         ParseCurrency(row.Field(ColCost)),
		Discontinued: ParseBoolean(row.Field(ColDiscontinued)),
	}
}

// Text transliterates s into the destination character set. The result is
// returned as a UTF-8 Go string restricted to characters the destination
// set can hold.
func (c *Coercer) Text(s string) string {
	tr := c.Translit
	if tr == nil {
		tr = textenc.Default
	}
	return textenc.Decode(c.Dst, tr.Transliterate(c.Src, c.Dst, s))
}

// ParseInteger returns the value of the leading base-10 integer in s,
// ignoring leading whitespace, or 0 when there is none.
// Values outside the int range are clamped.
func ParseInteger(s string) int {
	s = strings.TrimLeft(s, " \t\n\r\v\f")
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0
	}
	n, err := strconv.ParseInt(s[:end], 10, 0)
	if err != nil {
		if s[0] == '-' {
			return math.MinInt
		}
		return math.MaxInt
	}
	return int(n)
}

// ParseCurrency keeps only digits and '.', then reads the longest leading
// decimal number ("£1,299.99" -> 1299.99, "1.2.3" -> 1.2). Empty input is 0.
func ParseCurrency(s string) float64 {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if (s[i] >= '0' && s[i] <= '9') || s[i] == '.' {
			b.WriteByte(s[i])
		}
	}
	kept := b.String()

	end := 0
	for end < len(kept) && kept[end] != '.' {
		end++
	}
	if end < len(kept) {
		end++
		for end < len(kept) && kept[end] != '.' {
			end++
		}
	}
	num := strings.TrimSuffix(kept[:end], ".")
	if num == "" || num == "." {
		return 0
	}
	f, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0
	}
	return f
}

// ParseBoolean reports whether s exactly matches a discontinued marker.
func ParseBoolean(s string) bool {
	_, ok := discontinuedMarkers[s]
	return ok
}
