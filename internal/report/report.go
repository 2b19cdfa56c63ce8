// Package report renders result tables in the supported output formats: csv,
// xlsx, json, txt and prom.
package report

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"fmt"
	"slices"
	"strings"

	"perfsum/internal/table"
)

const (
	FormatCsv  = "csv"
	FormatXlsx = "xlsx"
	FormatJson = "json"
	FormatTxt  = "txt"
	FormatProm = "prom"
	FormatAll  = "all"
)

const NoDataFound = "No data found."

var FormatOptions = []string{FormatCsv, FormatXlsx, FormatJson, FormatTxt, FormatProm}

// Create renders the table in the specified format.
//
// Parameters:
// - format: one of FormatOptions.
// - tbl: the table to render. Missing values render as empty cells (csv, xlsx,
// txt), null (json), or no sample (prom).
//
// Returns:
// - out: the rendered table.
// - err: an error, if any occurred during rendering.
func Create(format string, tbl *table.Table) (out []byte, err error) {
	switch format {
	case FormatCsv:
		return createCsvReport(tbl)
	case FormatXlsx:
		return createXlsxReport(tbl)
	case FormatJson:
		return createJsonReport(tbl)
	case FormatTxt:
		return createTextReport(tbl)
	case FormatProm:
		return createPromReport(tbl)
	}
	return nil, fmt.Errorf("expected one of %s, got %s", strings.Join(FormatOptions, ", "), format)
}

// ExpandFormats validates the requested formats and expands FormatAll. The
// result is in FormatOptions order with duplicates removed.
func ExpandFormats(requested []string) ([]string, error) {
	var formats []string
	for _, format := range requested {
		format = strings.ToLower(strings.TrimSpace(format))
		if format == FormatAll {
			return slices.Clone(FormatOptions), nil
		}
		if !slices.Contains(FormatOptions, format) {
			return nil, fmt.Errorf("format options are: %s", strings.Join(append(slices.Clone(FormatOptions), FormatAll), ", "))
		}
		if !slices.Contains(formats, format) {
			formats = append(formats, format)
		}
	}
	if len(formats) == 0 {
		return nil, fmt.Errorf("no format specified")
	}
	slices.SortFunc(formats, func(a, b string) int {
		return slices.Index(FormatOptions, a) - slices.Index(FormatOptions, b)
	})
	return formats, nil
}

// cellValues returns the table as rows of strings, header first. Missing values
// are empty strings.
func cellValues(tbl *table.Table) [][]string {
	columns := tbl.Columns()
	records := [][]string{tbl.Header()}
	for _, row := range tbl.Rows() {
		record := make([]string, 0, len(columns)+1)
		record = append(record, row.File)
		for _, column := range columns {
			value, ok := row.Get(column)
			if !ok {
				record = append(record, "")
				continue
			}
			record = append(record, FormatValue(value))
		}
		records = append(records, record)
	}
	return records
}
