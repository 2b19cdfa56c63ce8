package report

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"bytes"
	"encoding/json"
	"math"

	"perfsum/internal/table"
)

// createJsonReport renders an array of row objects. Keys keep the table's
// column order; missing and non-finite values are null.
func createJsonReport(tbl *table.Table) (out []byte, err error) {
	columns := tbl.Columns()
	var buf bytes.Buffer
	buf.WriteString("[")
	for rowIdx, row := range tbl.Rows() {
		if rowIdx > 0 {
			buf.WriteString(",")
		}
		buf.WriteString("\n {")
		if err = writeJsonMember(&buf, table.KeyColumn, row.File, false); err != nil {
			return
		}
		for _, column := range columns {
			var value any
			if v, ok := row.Get(column); ok && !math.IsNaN(v) && !math.IsInf(v, 0) {
				value = v
			}
			if err = writeJsonMember(&buf, column, value, true); err != nil {
				return
			}
		}
		buf.WriteString("\n }")
	}
	if tbl.Len() > 0 {
		buf.WriteString("\n")
	}
	buf.WriteString("]\n")
	out = buf.Bytes()
	return
}

func writeJsonMember(buf *bytes.Buffer, key string, value any, comma bool) error {
	k, err := json.Marshal(key)
	if err != nil {
		return err
	}
	v, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if comma {
		buf.WriteString(",")
	}
	buf.WriteString("\n  ")
	buf.Write(k)
	buf.WriteString(": ")
	buf.Write(v)
	return nil
}
