package sources

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"catalog/internal/domain"
	"catalog/internal/etl"
)

// ── CSV File Source ─────────────────────────────────────────
// Reads rows from a local comma-separated file. Rows keep whatever field
// count they were written with; the pipeline decides what to do with them.

type csvFileSource struct{}

func init() { etl.RegisterSource(&csvFileSource{}) }

// CSVFile returns the registered CSV file source.
func CSVFile() etl.Source { return &csvFileSource{} }

func (s *csvFileSource) Spec() etl.SourceSpec {
	return etl.SourceSpec{
		Type:  etl.DefaultSourceType,
		Label: "CSV File",
	}
}

func (s *csvFileSource) Read(ctx context.Context, path string) (*etl.Dataset, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: no input file given", etl.ErrFatalIO)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", etl.ErrFatalIO, err)
	}
	defer f.Close()

	return readCSV(ctx, f)
}

func readCSV(ctx context.Context, r io.Reader) (*etl.Dataset, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", etl.ErrFatalIO, err)
	}
	reader := newReader(bytes.NewReader(data))
	ds := &etl.Dataset{}
	var offset int64

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		record, err := reader.Read()
		if ds.Header != nil {
			// encoding/csv drops empty lines; they still count as one-field rows.
			ds.Rows = append(ds.Rows, blankRows(data, offset)...)
		}
		offset = reader.InputOffset()
		if err == io.EOF {
			break
		}
		var parseErr *csv.ParseError
		if err != nil && !errors.As(err, &parseErr) {
			return nil, fmt.Errorf("%w: %s", etl.ErrFatalIO, err)
		}

		line := 0
		if parseErr != nil {
			// Keep what was parsed; it will not have the right width and is
			// reported with the other bad rows.
			line = parseErr.StartLine
		} else if len(record) > 0 {
			line, _ = reader.FieldPos(0)
		}

		if ds.Header == nil {
			if len(record) > 0 {
				record[0] = strings.TrimPrefix(record[0], "\ufeff")
			}
			ds.Header = record
			continue
		}
		ds.Rows = append(ds.Rows, domain.RawRow{Line: line, Fields: record})
	}

	if ds.Header == nil {
		return nil, fmt.Errorf("%w: empty csv file", etl.ErrFatalIO)
	}
	return ds, nil
}

// blankRows returns a single empty field for every empty line starting at
// offset in data.
func blankRows(data []byte, offset int64) []domain.RawRow {
	if offset < 0 || offset > int64(len(data)) {
		return nil
	}
	rest := data[offset:]
	line := 1 + bytes.Count(data[:offset], []byte{'\n'})

	var rows []domain.RawRow
	for {
		var n int
		switch {
		case bytes.HasPrefix(rest, []byte("\n")):
			n = 1
		case bytes.HasPrefix(rest, []byte("\r\n")):
			n = 2
		default:
			return rows
		}
		rows = append(rows, domain.RawRow{Line: line, Fields: []string{""}})
		rest = rest[n:]
		line++
	}
}

// ParseLine parses one line with the same dialect as Read.
func (s *csvFileSource) ParseLine(line string) ([]string, error) {
	return ParseLine(line)
}

// ParseLine parses one comma-delimited, double-quote-escaped line.
func ParseLine(line string) ([]string, error) {
	record, err := newReader(strings.NewReader(line)).Read()
	if err != nil {
		return nil, fmt.Errorf("parse line: %w", err)
	}
	return record, nil
}

func newReader(r io.Reader) *csv.Reader {
	reader := csv.NewReader(r)
	// Field counts vary by row and leading spaces carry meaning for recovery.
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = false
	return reader
}
