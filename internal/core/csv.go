package core

// csv.go holds the parsing helpers behind ImportCustomersCSV: byte
// sanitation, tolerant CSV reading, header discovery, and cell cleanup for
// spreadsheet-exported files.

import (
	"bytes"
	"encoding/csv"
	"strings"
	"unicode/utf8"
)

// maxHeaderSearchRows bounds how deep into a file the header row may sit.
// Spreadsheet exports often carry title or note rows above the real header.
const maxHeaderSearchRows = 20

// headerIndex maps a lowercased, cleaned header name to its column position.
type headerIndex map[string]int

// makeHeaderIndex builds a lookup from the discovered header row. Later
// duplicates of the same header name win, matching how spreadsheet users
// expect a re-added column to behave.
func makeHeaderIndex(header []string) headerIndex {
	idx := make(headerIndex, len(header))
	for i, h := range header {
		idx[strings.ToLower(cleanCell(h))] = i
	}
	return idx
}

// cellAt returns the cleaned value of the named column in row, or "" when
// the column is absent or the row is too short.
func cellAt(row []string, idx headerIndex, name string) string {
	i, ok := idx[name]
	if !ok || i >= len(row) {
		return ""
	}
	return cleanCell(row[i])
}

// cleanCell strips the noise spreadsheet tools wrap around values: outer
// whitespace, Excel's ="..." literal guard, and stray quote characters.
func cleanCell(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, `="`) && strings.HasSuffix(s, `"`) && len(s) >= 3 {
		s = s[2 : len(s)-1]
	} else {
		s = strings.TrimPrefix(s, "=")
	}
	return strings.Trim(s, `"'`)
}

// utf8BOM is the byte order mark Windows tools prepend to UTF-8 exports.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// stripBOM removes a leading UTF-8 BOM. Left in place it survives
// sanitizeUTF8 (it is valid UTF-8) and glues itself to the first header
// name, so header detection would reject every Windows-exported file.
func stripBOM(data []byte) []byte {
	return bytes.TrimPrefix(data, utf8BOM)
}

// sanitizeUTF8 replaces invalid byte sequences with the Unicode replacement
// character so the CSV reader never chokes on a bad export encoding.
func sanitizeUTF8(data []byte) []byte {
	if utf8.Valid(data) {
		return data
	}
	var buf bytes.Buffer
	buf.Grow(len(data))
	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		if r == utf8.RuneError && size == 1 {
			buf.WriteRune(utf8.RuneError)
		} else {
			buf.Write(data[:size])
		}
		data = data[size:]
	}
	return buf.Bytes()
}

// parseCSV reads every record, tolerating ragged row widths and bare quotes
// the way spreadsheet exports produce them.
func parseCSV(data []byte) ([][]string, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	return r.ReadAll()
}

// findHeaderInRecords scans the first maxHeaderSearchRows records for the
// row carrying every required column and returns its index, or -1.
func findHeaderInRecords(records [][]string, required []string) int {
	limit := len(records)
	if limit > maxHeaderSearchRows {
		limit = maxHeaderSearchRows
	}
	for i := 0; i < limit; i++ {
		if equalHeaders(records[i], required) {
			return i
		}
	}
	return -1
}

// equalHeaders reports whether row starts with the required column names,
// compared case-insensitively after cell cleanup. Extra trailing columns
// are allowed.
func equalHeaders(row, required []string) bool {
	if len(row) < len(required) {
		return false
	}
	for i, want := range required {
		if !strings.EqualFold(cleanCell(row[i]), want) {
			return false
		}
	}
	return true
}

// isEmptyRow reports whether every cell is blank.
func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
