// Package tabular turns delimited text into typed records.
package tabular

import (
	"encoding/csv"
	"errors"
	"io"
	"log/slog"
	"math"
	"strings"

	"geoscatter/internal/model"

	"github.com/spf13/cast"
)

// column is a resolved header entry
type column struct {
	name string
	kind model.FieldKind
}

// Parse reads a header row and the data rows that follow it.
// Input without a header yields an empty slice. A row that cannot be read
// ends parsing and the rows read so far are returned.
func Parse(r io.Reader, schema model.Schema) []model.GeoRecord {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	if schema.Delimiter != 0 {
		reader.Comma = schema.Delimiter
	}

	header, err := reader.Read()
	if err != nil {
		if !errors.Is(err, io.EOF) {
			slog.Warn("tabular: unreadable header", "error", err)
		}
		return []model.GeoRecord{}
	}

	columns := resolveColumns(header, schema)
	records := make([]model.GeoRecord, 0, 64)

	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			slog.Warn("tabular: stopped at malformed row", "row", len(records)+2, "error", err)
			break
		}

		records = append(records, toRecord(row, columns))
	}

	return records
}

// ParseString is Parse over an in-memory string
func ParseString(text string, schema model.Schema) []model.GeoRecord {
	return Parse(strings.NewReader(text), schema)
}

// resolveColumns maps header positions to output fields, nil entries are skipped
func resolveColumns(header []string, schema model.Schema) []*column {
	columns := make([]*column, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}

		if field, ok := schema.Lookup(h); ok {
			columns[i] = &column{name: field.Name(), kind: field.Kind}
			continue
		}
		if schema.KeepUndeclared {
			columns[i] = &column{name: h, kind: model.FieldString}
		}
	}
	return columns
}

func toRecord(row []string, columns []*column) model.GeoRecord {
	record := make(model.GeoRecord, len(columns))
	for i, col := range columns {
		if col == nil || i >= len(row) {
			continue
		}

		switch col.kind {
		case model.FieldNumeric:
			record[col.name] = coerceNumber(row[i])
		default:
			record[col.name] = row[i]
		}
	}
	return record
}

// coerceNumber returns a finite float64 or nil
func coerceNumber(raw string) any {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}

	v, err := cast.ToFloat64E(s)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return v
}
