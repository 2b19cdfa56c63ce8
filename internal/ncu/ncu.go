// Package ncu parses Nsight Compute CSV reports into normalized per-report
// throughput (TFLOP) and data movement (GB) figures.
package ncu

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"perfsum/internal/catalog"
	"perfsum/internal/table"
)

// TableName names the table produced from ncu reports.
const TableName = "ncu"

// OutputBase is the file name, without extension, of the ncu summary.
const OutputBase = "ncu_rep_summary"

const utf8BOM = "\ufeff"

// ncu groups digits with commas, e.g. "1,234,567"
var rxGroupedNumber = regexp.MustCompile(`^[+-]?\d{1,3}(,\d{3})+(\.\d+)?$`)

// Parser parses ncu reports using a metric catalog.
type Parser struct {
	catalog catalog.Ncu
}

// NewParser creates a parser for the given catalog.
func NewParser(c catalog.Ncu) *Parser {
	return &Parser{catalog: c}
}

// NewTable returns an empty ncu table with every catalog column declared.
func (p *Parser) NewTable() *table.Table {
	return table.New(TableName, p.catalog.Names()...)
}

// ParseReports parses the reports in order and collects one row per readable,
// non-empty report. A file system error aborts the batch.
func (p *Parser) ParseReports(paths []string) (*table.Result, error) {
	result := &table.Result{Table: p.NewTable()}
	for _, path := range paths {
		row, outcome, err := p.ParseReport(path)
		if err != nil {
			return nil, err
		}
		if row != nil {
			result.Table.Append(row)
		}
		result.Outcomes = append(result.Outcomes, outcome)
	}
	return result, nil
}

// ParseReport parses one report file. The returned row is nil when the file
// was skipped; the outcome says why.
func (p *Parser) ParseReport(path string) (*table.Row, table.Outcome, error) {
	f, err := os.Open(path) // #nosec G304
	if err != nil {
		return nil, table.Outcome{}, fmt.Errorf("failed to open ncu report: %w", err)
	}
	defer f.Close()
	return p.Parse(filepath.Base(path), f)
}

// Parse parses a report read from r. name identifies the report in the row
// and in diagnostics. Only errors reading r are returned as errors.
func (p *Parser) Parse(name string, r io.Reader) (*table.Row, table.Outcome, error) {
	outcome := table.Outcome{File: name, Status: table.StatusOK}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, outcome, fmt.Errorf("failed to read ncu report %s: %w", name, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		outcome.Skip("file is empty")
		return nil, outcome, nil
	}
	data = bytes.TrimPrefix(data, []byte(utf8BOM))
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			outcome.Skip("not a valid CSV file: %v", parseErr)
			return nil, outcome, nil
		}
		return nil, outcome, fmt.Errorf("failed to read ncu report %s: %w", name, err)
	}
	if len(records) == 0 {
		outcome.Skip("file is empty")
		return nil, outcome, nil
	}
	header := records[0]
	columnIdx := make(map[string]int, len(header))
	for i, col := range header {
		if _, ok := columnIdx[col]; !ok { // first occurrence wins
			columnIdx[col] = i
		}
	}
	rows := records[1:]
	row := table.NewRow(name)
	for _, metric := range p.catalog.Metrics() {
		idx, ok := columnIdx[metric.Raw]
		if !ok {
			outcome.Diagnose(metric.Raw, "metric not found")
			continue
		}
		cells := column(rows, idx)
		value, ok := p.normalize(metric, cells, &outcome)
		if !ok {
			continue
		}
		row.Set(metric.Name, value)
	}
	slog.Debug("parsed ncu report", slog.String("file", name), slog.Int("rows", len(rows)), slog.Int("metrics", len(row.Columns())), slog.String("status", outcome.Status.String()))
	return row, outcome, nil
}

// normalize reduces a metric column to a single value in the metric's output
// unit. It returns false when no value can be produced.
func (p *Parser) normalize(metric catalog.MetricPair, cells []string, outcome *table.Outcome) (float64, bool) {
	sum := sumNumeric(cells)
	switch metric.Kind {
	case catalog.KindFMA:
		return sum * 2 / catalog.TeraScale, true
	case catalog.KindBytes:
		if len(cells) == 0 {
			outcome.Diagnose(metric.Raw, "no values, byte unit unknown")
			return 0, false
		}
		unit := strings.TrimSpace(cells[0])
		multiplier, ok := p.catalog.ByteMultiplier(unit)
		if !ok {
			outcome.Diagnose(metric.Raw, "byte unit %q not recognized, value left unconverted", unit)
			return sum, true
		}
		for _, cell := range cells[1:] {
			other := strings.TrimSpace(cell)
			if other == unit {
				continue
			}
			if _, isUnit := p.catalog.ByteMultiplier(other); isUnit {
				outcome.Diagnose(metric.Raw, "mixed byte units %q and %q, all values converted as %q", unit, other, unit)
				break
			}
		}
		return sum * multiplier / p.catalog.GbyteMultiplier(), true
	default:
		return sum / catalog.TeraScale, true
	}
}

// column returns the cells of column idx, one per row. Short rows yield an
// empty (missing) cell.
func column(rows [][]string, idx int) []string {
	cells := make([]string, len(rows))
	for i, r := range rows {
		if idx < len(r) {
			cells[i] = r[idx]
		}
	}
	return cells
}

// sumNumeric sums the cells that parse as finite numbers. Anything else,
// including NaN and infinities, counts as missing.
func sumNumeric(cells []string) float64 {
	sum := 0.0
	for _, cell := range cells {
		if v, ok := parseNumber(cell); ok {
			sum += v
		}
	}
	return sum
}

func parseNumber(cell string) (float64, bool) {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return 0, false
	}
	if rxGroupedNumber.MatchString(cell) {
		cell = strings.ReplaceAll(cell, ",", "")
	}
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
