package report

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"math"
	"strconv"
	"strings"
)

// scientific notation is used for decimal exponents outside [minFixedExp, maxFixedExp)
const (
	minFixedExp = -4
	maxFixedExp = 16
)

// FormatValue formats a float in shortest round-trip form. Integral values keep
// a trailing ".0" and very large or very small magnitudes use scientific
// notation, e.g. 2.0, 0.0001, 1.5e-09, 1e+16. NaN formats as an empty string.
func FormatValue(v float64) string {
	switch {
	case math.IsNaN(v):
		return ""
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	case v == 0:
		if math.Signbit(v) {
			return "-0.0"
		}
		return "0.0"
	}
	sci := strconv.FormatFloat(v, 'e', -1, 64)
	exp, err := strconv.Atoi(sci[strings.IndexByte(sci, 'e')+1:])
	if err == nil && (exp < minFixedExp || exp >= maxFixedExp) {
		return sci
	}
	fixed := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(fixed, ".") {
		fixed += ".0"
	}
	return fixed
}
