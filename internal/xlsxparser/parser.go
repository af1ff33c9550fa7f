// =============================================================================
// Order Export Converter - XLSX Export Parser Module
// =============================================================================
//
// Some merchants hand over order exports re-saved as XLSX workbooks instead
// of the portal's tab-delimited text. This module reads such a workbook and
// produces the same RawRecord stream the text parser does, so the rest of
// the pipeline does not care which format the export arrived in.
//
// ASSUMPTIONS:
//   - The export lives on the first sheet of the workbook.
//   - Row 1 is the header row, using the portal's field names.
//   - Cell values are read as displayed strings; no numeric or date cell
//     conversion is applied beyond what the spreadsheet stored.
//
// =============================================================================

package xlsxparser

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/orderforge/order-export-conversion/internal/recordparser"
	"github.com/orderforge/order-export-conversion/internal/types"
)

// ParseFile reads an XLSX order export and returns one RawRecord per data
// row, preserving row order. Errors follow the text parser's contract: a row
// with an unparseable purchase-date aborts the whole file.
func ParseFile(path string) ([]types.RawRecord, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("%s: workbook has no sheets", path)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read sheet %q: %w", path, sheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s: sheet %q is empty", path, sheet)
	}

	headers := rows[0]
	for i := range headers {
		headers[i] = strings.TrimSpace(headers[i])
	}

	var records []types.RawRecord
	for i, row := range rows[1:] {
		if isRowEmpty(row) {
			continue
		}

		// Row numbers match what a user sees in the spreadsheet.
		record, err := recordparser.FromRow(headers, row, path, i+2)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	return records, nil
}

func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
