// Package report renders the fixed-width text summary printed at the end
// of an import run.
package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"catalog/internal/domain"
	"catalog/internal/etl"
)

// Width is the width of banner and section title lines.
const Width = 79

// TestModeBanner announces a dry run before any processing happens.
func TestModeBanner(w io.Writer) error {
	_, err := fmt.Fprintln(w, Center("RUNNING IN TEST MODE", Width, '*'))
	return err
}

// Center pads s on both sides with pad up to width. When the padding is
// uneven the extra character goes on the right.
func Center(s string, width int, pad byte) string {
	n := width - len(s)
	if n <= 0 {
		return s
	}
	left := n / 2
	return strings.Repeat(string(pad), left) + s + strings.Repeat(string(pad), n-left)
}

// Write prints the counters followed by one section per non-empty bucket.
// Dry runs also list every row that was handed to the store.
func Write(w io.Writer, r *etl.Result) error {
	rw := &writer{w: w}
	c := r.Counts()

	rw.printf("Items Processed:  %d\n", c.Processed)
	rw.printf("Items Successful: %d\n", c.Successful)
	rw.printf("Items Skipped:    %d\n", c.Skipped)
	rw.printf("Items Failed:     %d\n", c.Failed)

	if len(r.Unrecoverable) > 0 {
		rw.title("Skipped Items (Error)")
		for _, row := range r.Unrecoverable {
			rw.printf("|%s |%s|%s|\n",
				row.Field(etl.ColCode), padRight(row.Field(etl.ColName), 13), padRight(row.Field(etl.ColDescription), 38))
		}
	}

	rw.products("Skipped Items (Import Rules)", r.RuleExcluded)
	rw.products("Skipped Items (Item already in DB)", r.Duplicate)
	rw.products("Skipped Items (Item insertion failed)", r.InsertFailed)

	if r.DryRun {
		rw.title("Successful Rows")
		for _, p := range r.Eligible {
			rw.product(p)
		}
	}

	if r.PersistErr != "" {
		rw.printf("Persistence error: %s\n", r.PersistErr)
	}
	return rw.err
}

// FormatProduct renders one product as a fixed-width report line.
func FormatProduct(p domain.Product) string {
	status := "Active"
	if p.Discontinued {
		status = "      "
	}
	return fmt.Sprintf("|%s |%s|%s|%s|%s|%s|",
		p.Code,
		padRight(p.Name, 13),
		padRight(p.Description, 38),
		padRight(strconv.Itoa(p.Stock), 2),
		padRight(strconv.FormatFloat(p.Cost, 'f', -1, 64), 7),
		status,
	)
}

// padRight pads to n runes and never truncates.
func padRight(s string, n int) string {
	if l := len([]rune(s)); l < n {
		return s + strings.Repeat(" ", n-l)
	}
	return s
}

// writer keeps the first write error so callers can print unconditionally.
type writer struct {
	w   io.Writer
	err error
}

func (rw *writer) printf(format string, args ...any) {
	if rw.err != nil {
		return
	}
	_, rw.err = fmt.Fprintf(rw.w, format, args...)
}

func (rw *writer) title(s string) {
	rw.printf("%s\n", Center(s, Width, '-'))
}

func (rw *writer) product(p domain.Product) {
	rw.printf("%s\n", FormatProduct(p))
}

func (rw *writer) products(title string, ps []domain.Product) {
	if len(ps) == 0 {
		return
	}
	rw.title(title)
	for _, p := range ps {
		rw.product(p)
	}
}
