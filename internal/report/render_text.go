package report

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"fmt"
	"math"
	"strings"

	"perfsum/internal/table"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const columnSpacing = 3

func createTextReport(tbl *table.Table) (out []byte, err error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s\n", tbl.Name)
	sb.WriteString(strings.Repeat("=", len(tbl.Name)))
	sb.WriteString("\n")
	if tbl.Len() == 0 {
		sb.WriteString(NoDataFound + "\n")
		out = []byte(sb.String())
		return
	}
	sb.WriteString(renderTextTable(tbl))
	out = []byte(sb.String())
	return
}

// renderTextTable prints the column names across the top and one line per row,
// each column as wide as its longest item.
func renderTextTable(tbl *table.Table) string {
	p := message.NewPrinter(language.English) // use printer to get commas at thousands, e.g., 258,691,376.8
	header := tbl.Header()
	columns := tbl.Columns()
	rows := make([][]string, 0, tbl.Len())
	for _, r := range tbl.Rows() {
		cells := []string{r.File}
		for _, column := range columns {
			value, ok := r.Get(column)
			if !ok {
				cells = append(cells, "")
				continue
			}
			cells = append(cells, textValue(p, value))
		}
		rows = append(rows, cells)
	}
	// find the longest item per column -- can be the column name or a value
	width := make([]int, len(header))
	for i, name := range header {
		// the last column shouldn't occupy more space than the value
		if i == len(header)-1 {
			continue
		}
		width[i] = len(name)
		for _, cells := range rows {
			width[i] = max(width[i], len(cells[i]))
		}
	}
	var sb strings.Builder
	writeLine := func(cells []string) {
		for i, cell := range cells {
			if i == len(cells)-1 {
				sb.WriteString(cell)
				continue
			}
			fmt.Fprintf(&sb, "%-*s", width[i]+columnSpacing, cell)
		}
		sb.WriteString("\n")
	}
	writeLine(header)
	underline := make([]string, len(header))
	for i, name := range header {
		underline[i] = strings.Repeat("-", len(name))
	}
	writeLine(underline)
	for _, cells := range rows {
		writeLine(cells)
	}
	return sb.String()
}

// textValue groups thousands for large values and falls back to the round-trip
// form for everything else so that small TFLOP figures are not rounded away.
func textValue(p *message.Printer, value float64) string {
	if math.Abs(value) >= 1000 && math.Abs(value) < 1e15 {
		return p.Sprintf("%.2f", value)
	}
	return FormatValue(value)
}
