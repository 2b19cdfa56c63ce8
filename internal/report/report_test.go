package report

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"
	"testing"

	"perfsum/internal/table"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestFormatValue(t *testing.T) {
	tests := []struct {
		value    float64
		expected string
	}{
		{0, "0.0"},
		{math.Copysign(0, -1), "-0.0"},
		{2, "2.0"},
		{100, "100.0"},
		{-3.5, "-3.5"},
		{0.1, "0.1"},
		{0.0001, "0.0001"},
		{0.00001, "1e-05"},
		{1.5e-9, "1.5e-09"},
		{2.56e-10, "2.56e-10"},
		{123456789.125, "123456789.125"},
		{1e15, "1000000000000000.0"},
		{1e16, "1e+16"},
		{1.2345e20, "1.2345e+20"},
		{1.0 / 3, "0.3333333333333333"},
		{math.NaN(), ""},
		{math.Inf(1), "inf"},
		{math.Inf(-1), "-inf"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, FormatValue(tt.value), "value %v", tt.value)
	}
}

func TestExpandFormats(t *testing.T) {
	tests := []struct {
		requested []string
		expected  []string
		wantErr   bool
	}{
		{[]string{"csv"}, []string{"csv"}, false},
		{[]string{"json", "CSV", "json"}, []string{"csv", "json"}, false},
		{[]string{"prom", "all"}, FormatOptions, false},
		{[]string{"html"}, nil, true},
		{nil, nil, true},
	}
	for _, tt := range tests {
		formats, err := ExpandFormats(tt.requested)
		if tt.wantErr {
			assert.Error(t, err, "%v", tt.requested)
			continue
		}
		require.NoError(t, err, "%v", tt.requested)
		assert.Equal(t, tt.expected, formats)
	}
}

func sampleTable() *table.Table {
	tbl := table.New("ncu", "f32_fma_TFLOP", "dram_Gbytes")
	r1 := table.NewRow("run1.csv")
	r1.Set("f32_fma_TFLOP", 3)
	r1.Set("dram_Gbytes", 1.5e-9)
	r2 := table.NewRow("run,2.csv")
	r2.Set("dram_Gbytes", 2048)
	tbl.Append(r1)
	tbl.Append(r2)
	return tbl
}

func TestCreateCsv(t *testing.T) {
	out, err := Create(FormatCsv, sampleTable())
	require.NoError(t, err)
	expected := "report_file,f32_fma_TFLOP,dram_Gbytes\n" +
		"run1.csv,3.0,1.5e-09\n" +
		"\"run,2.csv\",,2048.0\n"
	assert.Equal(t, expected, string(out))
}

func TestCreateCsvHeaderOnly(t *testing.T) {
	out, err := Create(FormatCsv, table.New("ncu", "a", "b"))
	require.NoError(t, err)
	assert.Equal(t, "report_file,a,b\n", string(out))
}

func TestCreateIsDeterministic(t *testing.T) {
	for _, format := range []string{FormatCsv, FormatJson, FormatTxt, FormatProm} {
		first, err := Create(format, sampleTable())
		require.NoError(t, err, format)
		second, err := Create(format, sampleTable())
		require.NoError(t, err, format)
		assert.Equal(t, first, second, format)
	}
}

func TestCreateJson(t *testing.T) {
	out, err := Create(FormatJson, sampleTable())
	require.NoError(t, err)
	var rows []map[string]any
	require.NoError(t, json.Unmarshal(out, &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, "run1.csv", rows[0]["report_file"])
	assert.Equal(t, 3.0, rows[0]["f32_fma_TFLOP"])
	assert.Nil(t, rows[1]["f32_fma_TFLOP"])
	assert.Contains(t, rows[1], "f32_fma_TFLOP")
	// column order is preserved
	text := string(out)
	assert.Less(t, strings.Index(text, "report_file"), strings.Index(text, "f32_fma_TFLOP"))
	assert.Less(t, strings.Index(text, "f32_fma_TFLOP"), strings.Index(text, "dram_Gbytes"))

	out, err = Create(FormatJson, table.New("likwid"))
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(out))
}

func TestCreateJsonNonFinite(t *testing.T) {
	tbl := table.New("likwid")
	row := table.NewRow("cpu.csv")
	row.Set("a", math.Inf(1))
	row.Set("b", math.NaN())
	row.Set("c", 2)
	tbl.Append(row)
	out, err := Create(FormatJson, tbl)
	require.NoError(t, err)
	var rows []map[string]any
	require.NoError(t, json.Unmarshal(out, &rows))
	require.Len(t, rows, 1)
	assert.Nil(t, rows[0]["a"])
	assert.Nil(t, rows[0]["b"])
	assert.Equal(t, 2.0, rows[0]["c"])
}

func TestCreateText(t *testing.T) {
	out, err := Create(FormatTxt, sampleTable())
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(out), "\n"), "\n")
	require.Len(t, lines, 6)
	assert.Equal(t, "ncu", lines[0])
	assert.Equal(t, "===", lines[1])
	assert.True(t, strings.HasPrefix(lines[2], "report_file"))
	assert.True(t, strings.HasPrefix(lines[3], "-----------"))
	assert.Contains(t, lines[4], "1.5e-09")
	assert.Contains(t, lines[5], "2,048.00")
	// columns line up
	assert.Equal(t, strings.Index(lines[2], "f32_fma_TFLOP"), strings.Index(lines[4], "3.0"))

	out, err = Create(FormatTxt, table.New("likwid"))
	require.NoError(t, err)
	assert.Equal(t, "likwid\n======\n"+NoDataFound+"\n", string(out))
}

func TestCreateXlsx(t *testing.T) {
	out, err := Create(FormatXlsx, sampleTable())
	require.NoError(t, err)
	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"ncu"}, f.GetSheetList())
	header, err := f.GetCellValue("ncu", "A1")
	require.NoError(t, err)
	assert.Equal(t, "report_file", header)
	file, err := f.GetCellValue("ncu", "A3")
	require.NoError(t, err)
	assert.Equal(t, "run,2.csv", file)
	missing, err := f.GetCellValue("ncu", "B3")
	require.NoError(t, err)
	assert.Equal(t, "", missing)
	value, err := f.GetCellValue("ncu", "C3")
	require.NoError(t, err)
	assert.Equal(t, "2048", value)
}

func TestCreateProm(t *testing.T) {
	out, err := Create(FormatProm, sampleTable())
	require.NoError(t, err)
	text := string(out)
	assert.Contains(t, text, "# TYPE perfsum_ncu gauge")
	assert.Contains(t, text, `perfsum_ncu{metric="f32_fma_TFLOP",report_file="run1.csv"} 3`)
	assert.Contains(t, text, `perfsum_ncu{metric="dram_Gbytes",report_file="run,2.csv"} 2048`)
	assert.NotContains(t, text, `metric="f32_fma_TFLOP",report_file="run,2.csv"`)
}

func TestCreateUnknownFormat(t *testing.T) {
	_, err := Create("html", sampleTable())
	assert.Error(t, err)
}
