// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

// Package derived computes per-row metrics from expressions over the
// normalized columns of a result table.
package derived

import (
	"fmt"
	"log/slog"
	"math"

	"perfsum/internal/catalog"
	"perfsum/internal/table"

	"github.com/casbin/govaluate"
)

// Metric is a compiled derived metric definition.
type Metric struct {
	Name        string
	Expression  string
	ZeroMissing bool
	Evaluable   *govaluate.EvaluableExpression // parse expression once, store here for use in evaluation
	variables   []string
}

// Variables returns the column names the expression refers to.
func (m Metric) Variables() []string { return append([]string(nil), m.variables...) }

// Set is an ordered list of compiled metrics.
type Set struct {
	metrics []Metric
}

// Compile parses every definition. An expression that does not parse is an
// error so that a broken catalog is reported before any report is read.
func Compile(defs []catalog.DerivedDefinition) (*Set, error) {
	functions := evaluatorFunctions()
	set := &Set{}
	for _, def := range defs {
		evaluable, err := govaluate.NewEvaluableExpressionWithFunctions(def.Expression, functions)
		if err != nil {
			return nil, fmt.Errorf("failed to compile derived metric %s: %w", def.Name, err)
		}
		set.metrics = append(set.metrics, Metric{
			Name:        def.Name,
			Expression:  def.Expression,
			ZeroMissing: def.ZeroMissing,
			Evaluable:   evaluable,
			variables:   evaluable.Vars(),
		})
	}
	return set, nil
}

// Names returns the metric names in definition order.
func (s *Set) Names() []string {
	names := make([]string, 0, len(s.metrics))
	for _, m := range s.metrics {
		names = append(names, m.Name)
	}
	return names
}

// Metrics returns the compiled metrics in definition order.
func (s *Set) Metrics() []Metric { return append([]Metric(nil), s.metrics...) }

// Apply declares the derived columns after the table's current columns and
// fills them for every row where a value can be computed.
func (s *Set) Apply(t *table.Table) {
	if len(s.metrics) == 0 {
		return
	}
	t.AddColumns(s.Names()...)
	for _, row := range t.Rows() {
		for _, m := range s.metrics {
			value, ok := m.Evaluate(row)
			if ok {
				row.Set(m.Name, value)
			}
		}
	}
}

// Evaluate computes the metric for one row. It returns false when a variable
// is missing and the metric does not treat missing values as zero, when the
// expression fails, or when the result is not a finite number.
func (m Metric) Evaluate(row *table.Row) (float64, bool) {
	params := make(map[string]any, len(m.variables))
	for _, name := range m.variables {
		value, ok := row.Get(name)
		if !ok {
			if !m.ZeroMissing {
				return 0, false
			}
			value = 0
		}
		params[name] = value
	}
	result, err := m.Evaluable.Evaluate(params)
	if err != nil {
		slog.Warn("failed to evaluate derived metric", slog.String("metric", m.Name), slog.String("file", row.File), slog.String("error", err.Error()))
		return 0, false
	}
	value, ok := result.(float64)
	if !ok {
		slog.Warn("derived metric is not a number", slog.String("metric", m.Name), slog.String("file", row.File), slog.Any("result", result))
		return 0, false
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, false
	}
	return value, true
}

// evaluatorFunctions defines functions that can be called in metric expressions
func evaluatorFunctions() map[string]govaluate.ExpressionFunction {
	functions := make(map[string]govaluate.ExpressionFunction)
	functions["max"] = func(args ...any) (any, error) {
		left, right, err := twoNumbers("max", args)
		if err != nil {
			return nil, err
		}
		return max(left, right), nil
	}
	functions["min"] = func(args ...any) (any, error) {
		left, right, err := twoNumbers("min", args)
		if err != nil {
			return nil, err
		}
		return min(left, right), nil
	}
	return functions
}

func twoNumbers(function string, args []any) (float64, float64, error) {
	if len(args) != 2 {
		return 0, 0, fmt.Errorf("%s expects 2 arguments, got %d", function, len(args))
	}
	var vals [2]float64
	for i, arg := range args {
		switch t := arg.(type) {
		case int:
			vals[i] = float64(t)
		case float64:
			vals[i] = t
		default:
			return 0, 0, fmt.Errorf("%s: argument %d is not a number", function, i+1)
		}
	}
	return vals[0], vals[1], nil
}
