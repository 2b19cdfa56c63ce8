// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

// Package table provides the result table that report parsers fill, one row per
// report file, and the per-file outcomes that go with it.
package table

import (
	"fmt"
	"slices"

	mapset "github.com/deckarep/golang-set/v2"
)

// KeyColumn is the name of the column that identifies a row's report file.
const KeyColumn = "report_file"

// Row holds the normalized values extracted from one report file.
type Row struct {
	File    string
	columns []string
	values  map[string]float64
}

// NewRow creates an empty row for the named report file.
func NewRow(file string) *Row {
	return &Row{File: file, values: make(map[string]float64)}
}

// Set stores a value. Setting an existing column overwrites its value but keeps
// its original position.
func (r *Row) Set(column string, value float64) {
	if _, ok := r.values[column]; !ok {
		r.columns = append(r.columns, column)
	}
	r.values[column] = value
}

// Get returns the value of a column and whether the row has it.
func (r *Row) Get(column string) (float64, bool) {
	v, ok := r.values[column]
	return v, ok
}

// Columns returns the row's columns in the order they were first set.
func (r *Row) Columns() []string { return slices.Clone(r.columns) }

// Table is an ordered set of rows. Its columns are the union of the row
// columns in first-seen order, after any columns declared up front.
type Table struct {
	Name    string
	columns []string
	known   mapset.Set[string]
	rows    []*Row
}

// New creates a table with the given columns declared in order. Declared
// columns are always present in the output, even when no row sets them.
func New(name string, columns ...string) *Table {
	t := &Table{Name: name, known: mapset.NewThreadUnsafeSet[string]()}
	t.AddColumns(columns...)
	return t
}

// AddColumns declares columns that are not yet part of the table.
func (t *Table) AddColumns(columns ...string) {
	for _, c := range columns {
		if t.known.Add(c) {
			t.columns = append(t.columns, c)
		}
	}
}

// Append adds a row and any of its columns the table has not seen yet.
func (t *Table) Append(row *Row) {
	t.AddColumns(row.columns...)
	t.rows = append(t.rows, row)
}

// Columns returns the value columns, excluding KeyColumn.
func (t *Table) Columns() []string { return slices.Clone(t.columns) }

// Header returns KeyColumn followed by the value columns.
func (t *Table) Header() []string {
	return append([]string{KeyColumn}, t.columns...)
}

// Rows returns the rows in the order they were appended.
func (t *Table) Rows() []*Row { return slices.Clone(t.rows) }

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.rows) }

// Status tags how a report file was processed.
type Status int

const (
	StatusOK      Status = iota // every expected value was extracted and converted
	StatusPartial               // a row was produced but some values are missing or unconverted
	StatusSkipped               // no row was produced
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusPartial:
		return "partial"
	case StatusSkipped:
		return "skipped"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// Diagnostic is a non-fatal problem found while processing a report file.
// Subject names the metric, column or line the problem relates to, if any.
type Diagnostic struct {
	File    string
	Subject string
	Message string
}

func (d Diagnostic) String() string {
	if d.Subject == "" {
		return fmt.Sprintf("%s: %s", d.File, d.Message)
	}
	return fmt.Sprintf("%s: %s: %s", d.File, d.Subject, d.Message)
}

// Outcome records how one report file was processed.
type Outcome struct {
	File        string
	Status      Status
	Diagnostics []Diagnostic
}

// Diagnose appends a diagnostic and downgrades an OK outcome to partial.
func (o *Outcome) Diagnose(subject string, format string, args ...any) {
	o.Diagnostics = append(o.Diagnostics, Diagnostic{File: o.File, Subject: subject, Message: fmt.Sprintf(format, args...)})
	if o.Status == StatusOK {
		o.Status = StatusPartial
	}
}

// Skip marks the file as producing no row.
func (o *Outcome) Skip(format string, args ...any) {
	o.Diagnostics = append(o.Diagnostics, Diagnostic{File: o.File, Message: fmt.Sprintf(format, args...)})
	o.Status = StatusSkipped
}

// Result is a populated table plus the outcome of every file considered for it.
type Result struct {
	Table    *Table
	Outcomes []Outcome
}

// Diagnostics returns all diagnostics in file order.
func (r *Result) Diagnostics() []Diagnostic {
	var diags []Diagnostic
	for _, o := range r.Outcomes {
		diags = append(diags, o.Diagnostics...)
	}
	return diags
}

// Count returns the number of files with the given status.
func (r *Result) Count(status Status) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == status {
			n++
		}
	}
	return n
}
