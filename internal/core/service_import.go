package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

// MaxImportBytes caps the size of an uploaded CSV file. Variable so tests
// can shrink it.
var MaxImportBytes int64 = 10 * 1024 * 1024

// importColumns are the required CSV header columns, in order.
var importColumns = []string{"name", "email", "phone"}

// ImportCustomersCSV parses an uploaded CSV and creates its customers as one
// batch. Rows failing validation are reported per line; the rest commit
// together. Concurrent imports are bounded by the service limiter, so this
// returns ErrTooManyImports under load.
func (s *Service) ImportCustomersCSV(ctx context.Context, r io.Reader) (res ImportResult, err error) {
	if err = s.limiter.Acquire(ctx); err != nil {
		return ImportResult{}, err
	}
	defer s.limiter.Release()

	s.metrics.ImportStarted()
	defer s.metrics.ImportFinished()

	start := time.Now()
	defer s.observe("import_customers_csv", start, &err)

	data, err := io.ReadAll(io.LimitReader(r, MaxImportBytes+1))
	if err != nil {
		return ImportResult{}, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > MaxImportBytes {
		return ImportResult{}, fmt.Errorf("file too large: imports are capped at %dMB", MaxImportBytes/(1024*1024))
	}

	records, err := parseCSV(sanitizeUTF8(stripBOM(data)))
	if err != nil {
		return ImportResult{}, fmt.Errorf("invalid csv: %w", err)
	}
	if len(records) == 0 {
		return ImportResult{}, errors.New("empty file")
	}

	headerIdx := findHeaderInRecords(records, importColumns)
	if headerIdx < 0 {
		return ImportResult{}, fmt.Errorf("header row not found (expected columns: %s)", strings.Join(importColumns, ", "))
	}
	idx := makeHeaderIndex(records[headerIdx])

	var (
		inputs []CustomerInput
		lines  []int
	)
	for i, row := range records[headerIdx+1:] {
		if isEmptyRow(row) {
			continue
		}
		inputs = append(inputs, CustomerInput{
			Name:  cellAt(row, idx, "name"),
			Email: cellAt(row, idx, "email"),
			Phone: cellAt(row, idx, "phone"),
		})
		// 1-based file line: records are 0-based and the header itself
		// occupies one line.
		lines = append(lines, headerIdx+i+2)
	}
	if len(inputs) == 0 {
		return ImportResult{}, errors.New("no data rows after header")
	}

	created, batchErrs, err := s.BulkCreateCustomers(ctx, inputs)
	if err != nil {
		return ImportResult{}, err
	}

	res = ImportResult{
		TotalRows: len(inputs),
		Imported:  len(created),
		Failed:    len(batchErrs),
		Created:   created,
		Duration:  time.Since(start),
	}
	for _, be := range batchErrs {
		res.FailedLines = append(res.FailedLines, FailedLine{
			LineNumber: lines[be.Index],
			Email:      be.Email,
			Kind:       be.Kind,
			Reason:     be.Message,
		})
	}

	s.log.InfoContext(ctx, "csv import finished",
		"rows", res.TotalRows, "imported", res.Imported, "failed", res.Failed,
		"duration", res.Duration)
	return res, nil
}
