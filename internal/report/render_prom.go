package report

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"bytes"
	"fmt"
	"regexp"

	"perfsum/internal/table"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

const promMetricPrefix = "perfsum_"

var rxInvalidPromChars = regexp.MustCompile(`[^a-zA-Z0-9_]`)

// createPromReport renders the table in the Prometheus text exposition format,
// suitable for the node exporter textfile collector. Each populated cell is one
// sample of the perfsum_<table> gauge labeled with the report file and metric.
func createPromReport(tbl *table.Table) (out []byte, err error) {
	registry := prometheus.NewRegistry()
	gauge := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: promMetricPrefix + rxInvalidPromChars.ReplaceAllString(tbl.Name, "_"),
			Help: fmt.Sprintf("perfsum %s report summary", tbl.Name),
		},
		[]string{table.KeyColumn, "metric"},
	)
	if err = registry.Register(gauge); err != nil {
		err = fmt.Errorf("failed to register prometheus gauge: %v", err)
		return
	}
	columns := tbl.Columns()
	for _, row := range tbl.Rows() {
		for _, column := range columns {
			if value, ok := row.Get(column); ok {
				gauge.WithLabelValues(row.File, column).Set(value)
			}
		}
	}
	families, err := registry.Gather()
	if err != nil {
		err = fmt.Errorf("failed to gather prometheus metrics: %v", err)
		return
	}
	var buf bytes.Buffer
	for _, family := range families {
		if _, err = expfmt.MetricFamilyToText(&buf, family); err != nil {
			err = fmt.Errorf("failed to write prom report to buffer: %v", err)
			return
		}
	}
	out = buf.Bytes()
	return
}
