package report

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"bufio"
	"bytes"
	"fmt"

	"perfsum/internal/table"

	"github.com/xuri/excelize/v2"
)

const (
	xlsxDefaultSheetName = "Sheet1"
	xlsxColumnWidth      = 25
)

func cellName(col int, row int) (name string) {
	columnName, err := excelize.ColumnNumberToName(col)
	if err != nil {
		return
	}
	name, err = excelize.JoinCellName(columnName, row)
	if err != nil {
		return
	}
	return
}

// renderXlsxTable writes the header in bold followed by one line per row.
// Values are written as numbers, missing values are left blank.
func renderXlsxTable(tbl *table.Table, f *excelize.File, sheetName string) {
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold: true,
		},
	})
	alignLeft, _ := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{
			Horizontal: "left",
		},
	})
	row := 1
	for col, name := range tbl.Header() {
		_ = f.SetCellValue(sheetName, cellName(col+1, row), name)
		_ = f.SetCellStyle(sheetName, cellName(col+1, row), cellName(col+1, row), headerStyle)
	}
	row++
	if tbl.Len() == 0 {
		_ = f.SetCellValue(sheetName, cellName(1, row), NoDataFound)
		return
	}
	columns := tbl.Columns()
	for _, r := range tbl.Rows() {
		_ = f.SetCellValue(sheetName, cellName(1, row), r.File)
		for colIdx, column := range columns {
			value, ok := r.Get(column)
			if !ok {
				continue
			}
			_ = f.SetCellValue(sheetName, cellName(colIdx+2, row), value)
			_ = f.SetCellStyle(sheetName, cellName(colIdx+2, row), cellName(colIdx+2, row), alignLeft)
		}
		row++
	}
}

func createXlsxReport(tbl *table.Table) (out []byte, err error) {
	f := excelize.NewFile()
	defer f.Close()
	sheetName := tbl.Name
	if sheetName == "" {
		sheetName = xlsxDefaultSheetName
	}
	_ = f.SetSheetName(xlsxDefaultSheetName, sheetName)
	lastColumn, _ := excelize.ColumnNumberToName(len(tbl.Header()))
	_ = f.SetColWidth(sheetName, "A", lastColumn, xlsxColumnWidth)
	_ = f.SetPanes(sheetName, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})
	renderXlsxTable(tbl, f, sheetName)
	var buf bytes.Buffer
	w := bufio.NewWriter(&buf)
	_, err = f.WriteTo(w)
	if err != nil {
		err = fmt.Errorf("failed to write xlsx report to buffer: %v", err)
		return
	}
	if err = w.Flush(); err != nil {
		err = fmt.Errorf("failed to flush xlsx report: %v", err)
		return
	}
	out = buf.Bytes()
	return
}
