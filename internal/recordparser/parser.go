// =============================================================================
// Order Export Converter - Record Parser Module
// =============================================================================
//
// This module parses the tab-delimited order exports produced by the seller
// portal. Every export starts with a single header row naming the fields;
// each following row is one order line.
//
// PARSING RULES:
//   - Fields are passed through as strings, exactly as they appear in the
//     file. Booleans, quantities and monetary amounts are interpreted by the
//     downstream consumers, never here.
//   - The purchase-date field is the one exception: it is parsed as an
//     ISO-8601 date-time and carried alongside the raw fields so the store
//     can filter on it. A row whose purchase-date does not parse is a fatal
//     error for the whole file; partial files are never handed downstream.
//
// Two entry points are provided: Parse reads a whole export eagerly, and
// StreamingParser iterates rows one at a time for large files.
//
// =============================================================================

package recordparser

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/orderforge/order-export-conversion/internal/types"
)

// =============================================================================
// PARSE ERROR
// =============================================================================

// ParseError describes a malformed row or an unparseable purchase-date. It
// aborts processing of the current file only; the orchestrator moves on to
// the next file.
type ParseError struct {
	// Source is the file (or stream name) being parsed.
	Source string

	// Row is the 1-based row number in the source, counting the header row.
	Row int

	// Field is the field that failed to parse, if the error is field-level.
	Field string

	// Err is the underlying cause.
	Err error
}

func (e *ParseError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: row %d: field %q: %v", e.Source, e.Row, e.Field, e.Err)
	}
	return fmt.Sprintf("%s: row %d: %v", e.Source, e.Row, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// =============================================================================
// DATE PARSING
// =============================================================================

// orderDateLayouts are the date-time shapes seen in real exports. The portal
// emits RFC 3339 with an offset, but older exports drop the offset or use a
// space separator.
var orderDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05.999999999Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseOrderDate parses an ISO-8601-like date-time from the purchase-date
// field. It tries each known layout in order.
func ParseOrderDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range orderDateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date-time %q", value)
}

// =============================================================================
// EAGER PARSER
// =============================================================================

// ParseFile opens and parses a tab-delimited export file.
func ParseFile(path string) ([]types.RawRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open export: %w", err)
	}
	defer file.Close()

	return Parse(file, path)
}

// Parse reads a tab-delimited export from r and returns one RawRecord per
// data row, preserving row order.
//
// PARAMETERS:
//   - r: the export stream, positioned at the header row.
//   - source: a name for the stream, used in error messages.
//
// RETURNS:
//   - The parsed records in row order.
//   - A *ParseError on a malformed row or unparseable purchase-date.
func Parse(r io.Reader, source string) ([]types.RawRecord, error) {
	parser, err := NewStreamingParser(r, source)
	if err != nil {
		return nil, err
	}

	var records []types.RawRecord
	for parser.Next() {
		records = append(records, parser.Record())
	}
	if err := parser.Err(); err != nil {
		return nil, err
	}

	return records, nil
}

// FromRow converts one raw data row into a RawRecord using the given headers.
// Rows shorter than the header are padded with empty fields; surplus cells
// are dropped. This is shared with the XLSX parser so both input formats
// produce identical records.
func FromRow(headers, row []string, source string, rowNum int) (types.RawRecord, error) {
	fields := make(map[string]string, len(headers))
	for i, header := range headers {
		if i < len(row) {
			fields[header] = row[i]
		} else {
			fields[header] = ""
		}
	}

	raw, ok := fields[types.FieldPurchaseDate]
	if !ok {
		return types.RawRecord{}, &ParseError{
			Source: source,
			Row:    rowNum,
			Field:  types.FieldPurchaseDate,
			Err:    fmt.Errorf("field missing from export header"),
		}
	}

	orderDate, err := ParseOrderDate(raw)
	if err != nil {
		return types.RawRecord{}, &ParseError{
			Source: source,
			Row:    rowNum,
			Field:  types.FieldPurchaseDate,
			Err:    err,
		}
	}

	return types.RawRecord{Fields: fields, OrderDate: orderDate}, nil
}

// =============================================================================
// STREAMING PARSER
// =============================================================================

// StreamingParser iterates an export row by row. It is finite and not
// restartable; re-open the source to parse again.
//
// USAGE:
//   parser, err := NewStreamingParser(r, "orders.txt")
//   if err != nil { ... }
//   for parser.Next() {
//       rec := parser.Record()
//       ...
//   }
//   if err := parser.Err(); err != nil { ... }
type StreamingParser struct {
	reader  *csv.Reader
	source  string
	headers []string
	current types.RawRecord
	rowNum  int
	err     error
}

// NewStreamingParser wraps r and reads the header row immediately.
func NewStreamingParser(r io.Reader, source string) (*StreamingParser, error) {
	reader := csv.NewReader(bufio.NewReader(r))
	reader.Comma = '\t'
	// Exports are not quote-escaped; product titles may contain stray quotes.
	reader.LazyQuotes = true
	// Tolerate trailing columns on individual rows.
	reader.FieldsPerRecord = -1

	parser := &StreamingParser{reader: reader, source: source}

	headers, err := reader.Read()
	if err == io.EOF {
		parser.err = &ParseError{Source: source, Row: 1, Err: fmt.Errorf("export is empty")}
		return nil, parser.err
	}
	if err != nil {
		parser.err = &ParseError{Source: source, Row: 1, Err: err}
		return nil, parser.err
	}

	for i := range headers {
		headers[i] = strings.TrimSpace(headers[i])
	}
	parser.headers = headers
	parser.rowNum = 1

	return parser, nil
}

// Next advances to the next data row. It returns false at end of input or on
// the first error; check Err afterwards.
func (p *StreamingParser) Next() bool {
	if p.err != nil {
		return false
	}

	row, err := p.reader.Read()
	if err == io.EOF {
		return false
	}
	if err != nil {
		p.err = &ParseError{Source: p.source, Row: p.rowNum + 1, Err: err}
		return false
	}
	p.rowNum++

	// Skip rows that are entirely empty, e.g. a trailing newline.
	if isRowEmpty(row) {
		return p.Next()
	}

	record, err := FromRow(p.headers, row, p.source, p.rowNum)
	if err != nil {
		p.err = err
		return false
	}

	p.current = record
	return true
}

// Record returns the record produced by the last successful Next.
func (p *StreamingParser) Record() types.RawRecord {
	return p.current
}

// Headers returns the export's header row.
func (p *StreamingParser) Headers() []string {
	return p.headers
}

// RowNumber returns the current row number (1-based, counting the header).
func (p *StreamingParser) RowNumber() int {
	return p.rowNum
}

// Err returns the error that stopped iteration, if any.
func (p *StreamingParser) Err() error {
	return p.err
}

// isRowEmpty checks if a row contains only empty values.
func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
