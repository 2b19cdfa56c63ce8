// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

// Package likwid scans likwid-perfctr CSV output for floating point retirement
// and memory data volume statistics and normalizes them to TFLOP and GB.
//
// Statistics lines look like:
//
//	FP_ARITH_INST_RETIRED_256B_PACKED_DOUBLE STAT,PMC2,1000,250,250,250
//	Memory data volume [GBytes] STAT,12.5,3.1,3.2,3.125
//
// The event name is used as the output column as is. For retirement events the
// width/precision tag between the prefix and the STAT marker selects the SIMD
// lane count.
package likwid

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"perfsum/internal/catalog"
	"perfsum/internal/table"
)

// TableName names the table produced from likwid reports.
const TableName = "likwid"

// OutputBase is the file name, without extension, of the likwid summary.
const OutputBase = "likwid_rep_summary"

const (
	fpCountField     = 2 // Sum column of an event STAT line
	memoryValueField = 1 // Sum column of a metric STAT line
)

// Parser scans likwid reports.
type Parser struct {
	catalog     catalog.Likwid
	fmaFraction float64
}

// NewParser creates a parser. fmaFraction is the estimated share of retired
// floating point instructions that were fused multiply-adds; each retired
// instruction is scaled by 1+fmaFraction to count logical operations.
func NewParser(c catalog.Likwid, fmaFraction float64) *Parser {
	return &Parser{catalog: c, fmaFraction: fmaFraction}
}

// NewTable returns an empty likwid table.
func (p *Parser) NewTable() *table.Table {
	return table.New(TableName)
}

// ParseReports parses the reports in order, one row per report. A file system
// error aborts the batch.
func (p *Parser) ParseReports(paths []string) (*table.Result, error) {
	result := &table.Result{Table: p.NewTable()}
	for _, path := range paths {
		row, outcome, err := p.ParseReport(path)
		if err != nil {
			return nil, err
		}
		result.Table.Append(row)
		result.Outcomes = append(result.Outcomes, outcome)
	}
	return result, nil
}

// ParseReport parses one report file.
func (p *Parser) ParseReport(path string) (*table.Row, table.Outcome, error) {
	f, err := os.Open(path) // #nosec G304
	if err != nil {
		return nil, table.Outcome{}, fmt.Errorf("failed to open likwid report: %w", err)
	}
	defer f.Close()
	return p.Parse(filepath.Base(path), f)
}

// Parse scans a report read from r. name identifies the report in the row and
// in diagnostics. Malformed statistics lines are skipped and diagnosed; only
// errors reading r are returned as errors.
func (p *Parser) Parse(name string, r io.Reader) (*table.Row, table.Outcome, error) {
	outcome := table.Outcome{File: name, Status: table.StatusOK}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, outcome, fmt.Errorf("failed to read likwid report %s: %w", name, err)
	}
	row := table.NewRow(name)
	// match the bare event family so that a malformed tag is reported instead of ignored
	fpFamily := strings.TrimSuffix(p.catalog.FPEventPrefix(), "_")
	marker := p.catalog.StatMarker()
	for lineIdx, line := range strings.Split(string(data), "\n") {
		line = strings.TrimRight(line, "\r")
		if !strings.Contains(line, marker) {
			continue
		}
		subject := fmt.Sprintf("line %d", lineIdx+1)
		if strings.HasPrefix(line, fpFamily) {
			event, value, err := p.fpValue(line)
			if err != nil {
				outcome.Diagnose(subject, "%v", err)
				continue
			}
			row.Set(event, value)
		} else if strings.HasPrefix(line, p.catalog.MemoryVolumeLabel()) {
			label, value, err := memoryValue(line)
			if err != nil {
				outcome.Diagnose(subject, "%v", err)
				continue
			}
			row.Set(label, value)
		}
	}
	slog.Debug("parsed likwid report", slog.String("file", name), slog.Int("values", len(row.Columns())), slog.String("status", outcome.Status.String()))
	return row, outcome, nil
}

// fpValue decodes a retirement event STAT line into its event name and TFLOP.
func (p *Parser) fpValue(line string) (string, float64, error) {
	fields := splitFields(line)
	event := fields[0]
	tag := p.Tag(event)
	lanes, ok := p.catalog.Lanes(tag)
	if !ok {
		return "", 0, fmt.Errorf("unknown width/precision tag %q in event %s, known tags: %s", tag, event, strings.Join(p.catalog.Tags(), ", "))
	}
	if len(fields) <= fpCountField {
		return "", 0, fmt.Errorf("event %s: expected at least %d fields, found %d", event, fpCountField+1, len(fields))
	}
	count, err := parseValue(fields[fpCountField])
	if err != nil {
		return "", 0, fmt.Errorf("event %s: %w", event, err)
	}
	return event, p.FLOP(count, lanes) / catalog.TeraScale, nil
}

// Tag extracts the width/precision tag from an event name,
// e.g. "128B_PACKED_SINGLE" from "FP_ARITH_INST_RETIRED_128B_PACKED_SINGLE STAT".
func (p *Parser) Tag(event string) string {
	tag := strings.TrimPrefix(event, p.catalog.FPEventPrefix())
	tag = strings.TrimSuffix(tag, " "+p.catalog.StatMarker())
	return strings.TrimSpace(tag)
}

// FLOP converts a retired instruction count to floating point operations.
func (p *Parser) FLOP(count float64, lanes int) float64 {
	return count * float64(lanes) * (1 + p.fmaFraction)
}

func memoryValue(line string) (string, float64, error) {
	fields := splitFields(line)
	label := fields[0]
	if len(fields) <= memoryValueField {
		return "", 0, fmt.Errorf("%s: no value", label)
	}
	value, err := parseValue(fields[memoryValueField])
	if err != nil {
		return "", 0, fmt.Errorf("%s: %w", label, err)
	}
	return label, value, nil
}

// splitFields splits a line on runs of commas and trims each field.
func splitFields(line string) []string {
	fields := strings.FieldsFunc(strings.TrimSpace(line), func(r rune) bool { return r == ',' })
	if len(fields) == 0 {
		return []string{""}
	}
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}
	return fields
}

func parseValue(field string) (float64, error) {
	v, err := strconv.ParseFloat(field, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("invalid value %q", field)
	}
	return v, nil
}
