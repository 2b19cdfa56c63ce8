package report

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"perfsum/internal/table"
)

func createCsvReport(tbl *table.Table) (out []byte, err error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err = w.WriteAll(cellValues(tbl)); err != nil {
		err = fmt.Errorf("failed to write csv report to buffer: %v", err)
		return
	}
	out = buf.Bytes()
	return
}
