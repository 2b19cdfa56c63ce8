// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

package workflow

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"perfsum/internal/report"
	"perfsum/internal/table"
)

// renderReports renders the table once per format. Nothing is written until
// every format rendered successfully.
func renderReports(tbl *table.Table, formats []string) (map[string][]byte, error) {
	reports := make(map[string][]byte, len(formats))
	for _, format := range formats {
		reportBytes, err := report.Create(format, tbl)
		if err != nil {
			return nil, fmt.Errorf("failed to create %s report: %w", format, err)
		}
		reports[format] = reportBytes
	}
	return reports, nil
}

// writeReports writes the rendered reports to outputDir/base.<format> in
// format order and returns the paths written.
func writeReports(reports map[string][]byte, formats []string, outputDir string, base string) ([]string, error) {
	reportFilePaths := make([]string, 0, len(formats))
	for _, format := range formats {
		reportPath := filepath.Join(outputDir, fmt.Sprintf("%s.%s", base, format))
		if err := writeReport(reports[format], reportPath); err != nil {
			return reportFilePaths, fmt.Errorf("failed to write report: %w", err)
		}
		reportFilePaths = append(reportFilePaths, reportPath)
	}
	return reportFilePaths, nil
}

// writeReport writes the report bytes to the specified path.
func writeReport(reportBytes []byte, reportPath string) error {
	err := os.WriteFile(reportPath, reportBytes, 0644) // #nosec G306
	if err != nil {
		err = fmt.Errorf("failed to write report file: %v", err)
		slog.Error(err.Error())
		return err
	}
	return nil
}

// printReports lists the report files written and, when logging to a file, the
// log file. When txt is the only format the text reports are also printed.
func printReports(w io.Writer, results []*PipelineResult, formats []string, logFilePath string) {
	if len(formats) == 1 && formats[0] == report.FormatTxt {
		for _, result := range results {
			fmt.Fprint(w, string(result.Reports[report.FormatTxt]))
			fmt.Fprintln(w)
		}
	}
	var reportFilePaths []string
	for _, result := range results {
		reportFilePaths = append(reportFilePaths, result.ReportFiles...)
	}
	if len(reportFilePaths) > 0 {
		fmt.Fprintln(w, "Report files:")
	}
	for _, reportFilePath := range reportFilePaths {
		fmt.Fprintf(w, "  %s\n", reportFilePath)
	}
	if logFilePath != "" {
		fmt.Fprintf(w, "Log file: %s\n", logFilePath)
	}
}
