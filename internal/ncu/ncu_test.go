package ncu

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"perfsum/internal/catalog"
	"perfsum/internal/table"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	rawHadd = "smsp__sass_thread_inst_executed_op_hadd_pred_on.sum"
	rawFfma = "smsp__sass_thread_inst_executed_op_ffma_pred_on.sum"
	rawDram = "dram__bytes.sum"
	rawPcie = "pcie__read_bytes.sum"
)

func newTestParser(t *testing.T) *Parser {
	c, err := catalog.Load("")
	require.NoError(t, err)
	return NewParser(c.Ncu())
}

func parseString(t *testing.T, p *Parser, content string) (*table.Row, table.Outcome) {
	row, outcome, err := p.Parse("report.csv", strings.NewReader(content))
	require.NoError(t, err)
	return row, outcome
}

func TestNormalization(t *testing.T) {
	tests := []struct {
		name     string
		report   string
		column   string
		expected float64
	}{
		{
			name:     "fma doubled and scaled to TFLOP",
			report:   rawFfma + "\n1000000000000\n500000000000\n",
			column:   "f32_fma_TFLOP",
			expected: 3.0,
		},
		{
			name:     "plain ops scaled to TFLOP",
			report:   rawHadd + "\n3000000000000\n",
			column:   "f16_add_TFLOP",
			expected: 3.0,
		},
		{
			name:     "Mbyte converted to GB",
			report:   rawDram + "\nMbyte\n512\n1536\n",
			column:   "dram_Gbytes",
			expected: 2048.0 * 1024 * 1024 / (1024 * 1024 * 1024),
		},
		{
			name:     "Gbyte passes through",
			report:   rawPcie + "\nGbyte\n100\n",
			column:   "pcie_read_Gbytes",
			expected: 100.0,
		},
		{
			name:     "Kbyte converted to GB",
			report:   rawDram + "\nKbyte\n1048576\n",
			column:   "dram_Gbytes",
			expected: 1.0,
		},
		{
			name:     "value before unit is left unconverted",
			report:   rawDram + "\n100\nGbyte\n",
			column:   "dram_Gbytes",
			expected: 100.0,
		},
		{
			name:     "non numeric cells are ignored",
			report:   rawHadd + "\ninst\nn/a\n\n1000000000000\nNaN\n",
			column:   "f16_add_TFLOP",
			expected: 1.0,
		},
		{
			name:     "grouped digits",
			report:   rawHadd + "\n\"1,000,000,000,000\"\n",
			column:   "f16_add_TFLOP",
			expected: 1.0,
		},
		{
			name:     "header only sums to zero",
			report:   rawFfma + "\n",
			column:   "f32_fma_TFLOP",
			expected: 0.0,
		},
	}
	p := newTestParser(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row, _ := parseString(t, p, tt.report)
			require.NotNil(t, row)
			value, ok := row.Get(tt.column)
			require.True(t, ok, "column %s not set", tt.column)
			assert.InDelta(t, tt.expected, value, 1e-12)
		})
	}
}

func TestUnrecognizedUnitIsTagged(t *testing.T) {
	p := newTestParser(t)
	row, outcome := parseString(t, p, rawDram+"\nPbyte\n7\n")
	value, ok := row.Get("dram_Gbytes")
	require.True(t, ok)
	assert.Equal(t, 7.0, value)
	assert.Equal(t, table.StatusPartial, outcome.Status)
	found := false
	for _, d := range outcome.Diagnostics {
		if d.Subject == rawDram {
			found = true
			assert.Contains(t, d.Message, `"Pbyte" not recognized`)
		}
	}
	assert.True(t, found)
}

func TestMixedUnitsDiagnosed(t *testing.T) {
	p := newTestParser(t)
	row, outcome := parseString(t, p, rawDram+"\nGbyte\n1\nMbyte\n2\n")
	value, ok := row.Get("dram_Gbytes")
	require.True(t, ok)
	assert.Equal(t, 3.0, value)
	var messages []string
	for _, d := range outcome.Diagnostics {
		if d.Subject == rawDram {
			messages = append(messages, d.Message)
		}
	}
	require.Len(t, messages, 1)
	assert.Contains(t, messages[0], "mixed byte units")
}

func TestMissingColumnsStillProduceRow(t *testing.T) {
	p := newTestParser(t)
	c, err := catalog.Load("")
	require.NoError(t, err)
	var header, units, values []string
	for _, m := range c.Ncu().Metrics() {
		if m.Raw == rawHadd {
			continue
		}
		header = append(header, m.Raw)
		if m.Kind == catalog.KindBytes {
			units = append(units, "Gbyte")
		} else {
			units = append(units, "inst")
		}
		values = append(values, "1")
	}
	report := strings.Join(header, ",") + "\n" + strings.Join(units, ",") + "\n" + strings.Join(values, ",") + "\n"
	row, outcome := parseString(t, p, report)
	require.NotNil(t, row)
	assert.Len(t, row.Columns(), 12)
	_, ok := row.Get("f16_add_TFLOP")
	assert.False(t, ok)
	v, ok := row.Get("dram_Gbytes")
	assert.True(t, ok)
	assert.Equal(t, 1.0, v)
	assert.Equal(t, table.StatusPartial, outcome.Status)
	require.Len(t, outcome.Diagnostics, 1)
	assert.Equal(t, rawHadd, outcome.Diagnostics[0].Subject)
	assert.Equal(t, "metric not found", outcome.Diagnostics[0].Message)
}

func TestNoCatalogMetricsStillProducesRow(t *testing.T) {
	p := newTestParser(t)
	row, outcome := parseString(t, p, "ID,Kernel Name\n0,kernel\n")
	require.NotNil(t, row)
	assert.Equal(t, "report.csv", row.File)
	assert.Empty(t, row.Columns())
	assert.Len(t, outcome.Diagnostics, 13)
}

func TestEmptyAndInvalidFilesAreSkipped(t *testing.T) {
	p := newTestParser(t)
	for _, content := range []string{"", "  \n\n", "\"unterminated\n"} {
		row, outcome := parseString(t, p, content)
		assert.Nil(t, row, "content %q", content)
		assert.Equal(t, table.StatusSkipped, outcome.Status, "content %q", content)
		require.Len(t, outcome.Diagnostics, 1)
	}
}

func TestBOMAndQuotedHeader(t *testing.T) {
	p := newTestParser(t)
	row, _ := parseString(t, p, "\ufeff\""+rawHadd+"\",\"ID\"\n\"2000000000000\",\"0\"\n")
	value, ok := row.Get("f16_add_TFLOP")
	require.True(t, ok)
	assert.Equal(t, 2.0, value)
}

func TestParseReports(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
		return path
	}
	paths := []string{
		write("a.csv", rawFfma+","+rawDram+"\ninst,Gbyte\n500000000000,100\n"),
		write("empty.csv", ""),
		write("b.csv", rawHadd+"\n1000000000000\n"),
	}
	p := newTestParser(t)
	result, err := p.ParseReports(paths)
	require.NoError(t, err)

	require.Equal(t, 2, result.Table.Len())
	rows := result.Table.Rows()
	assert.Equal(t, "a.csv", rows[0].File)
	assert.Equal(t, "b.csv", rows[1].File)
	v, _ := rows[0].Get("f32_fma_TFLOP")
	assert.Equal(t, 1.0, v)
	v, _ = rows[0].Get("dram_Gbytes")
	assert.Equal(t, 100.0, v)
	assert.Len(t, result.Table.Columns(), 13)
	assert.Equal(t, "f16_add_TFLOP", result.Table.Columns()[0])

	require.Len(t, result.Outcomes, 3)
	assert.Equal(t, table.StatusSkipped, result.Outcomes[1].Status)
	assert.Equal(t, "empty.csv", result.Outcomes[1].File)
	assert.Equal(t, 1, result.Count(table.StatusSkipped))
}

func TestParseReportsMissingFileIsFatal(t *testing.T) {
	p := newTestParser(t)
	_, err := p.ParseReports([]string{filepath.Join(t.TempDir(), "missing.csv")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open ncu report")
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		cell     string
		expected float64
		ok       bool
	}{
		{"12", 12, true},
		{" 1.5 ", 1.5, true},
		{"1e3", 1000, true},
		{"1,234", 1234, true},
		{"-1,234,567.5", -1234567.5, true},
		{"12,34", 0, false},
		{"Gbyte", 0, false},
		{"", 0, false},
		{"nan", 0, false},
		{"inf", 0, false},
		{"-Infinity", 0, false},
	}
	for _, tt := range tests {
		v, ok := parseNumber(tt.cell)
		assert.Equal(t, tt.ok, ok, tt.cell)
		if tt.ok {
			assert.Equal(t, tt.expected, v, tt.cell)
		}
	}
}
