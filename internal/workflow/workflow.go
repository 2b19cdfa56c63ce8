// Package workflow implements the common flow/logic for summarizing profiler
// reports: file discovery, parsing, optional derived metrics, and report
// generation, once per profiler pipeline.
package workflow

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"perfsum/internal/app"
	"perfsum/internal/derived"
	"perfsum/internal/progress"
	"perfsum/internal/table"
	"perfsum/internal/util"

	"github.com/spf13/cobra"
)

// ReportPattern selects the report files in a pipeline's input directory.
const ReportPattern = "*.csv"

// ParseFunc parses the discovered report files, in order, into a result table.
type ParseFunc func(paths []string) (*table.Result, error)

// Pipeline describes one profiler pipeline.
type Pipeline struct {
	Name       string       // Name labels the pipeline in progress output and logs, e.g., "ncu".
	InputDir   string       // InputDir is the directory searched for report files.
	OutputBase string       // OutputBase is the report file name without extension.
	Parse      ParseFunc    // Parse turns report files into a table.
	Derived    *derived.Set // Derived, when not nil, adds derived metric columns to the table.
}

// PipelineResult is what a successful pipeline produced.
type PipelineResult struct {
	Name        string
	Inputs      []string
	Result      *table.Result
	ReportFiles []string
	Reports     map[string][]byte // rendered reports by format
}

// RunPipeline discovers, parses, and writes one pipeline's reports to
// outputDir. A file system error, i.e., a missing input directory or an
// unreadable file, fails the pipeline and nothing is written for it.
func RunPipeline(p Pipeline, outputDir string, formats []string, statusUpdate progress.UpdateFunc) (*PipelineResult, error) {
	update := func(status string) {
		if statusUpdate != nil {
			_ = statusUpdate(p.Name, status)
		}
	}
	update("discovering reports")
	inputs, err := util.GlobFiles(p.InputDir, ReportPattern)
	if err != nil {
		update("failed")
		return nil, fmt.Errorf("%s: failed to discover reports: %w", p.Name, err)
	}
	slog.Info("discovered reports", slog.String("pipeline", p.Name), slog.String("dir", p.InputDir), slog.Int("count", len(inputs)))
	if len(inputs) == 0 {
		slog.Warn("no reports found", slog.String("pipeline", p.Name), slog.String("dir", p.InputDir))
	}
	update(fmt.Sprintf("parsing %d report(s)", len(inputs)))
	result, err := p.Parse(inputs)
	if err != nil {
		update("failed")
		return nil, fmt.Errorf("%s: %w", p.Name, err)
	}
	if p.Derived != nil {
		p.Derived.Apply(result.Table)
	}
	update("writing reports")
	reports, err := renderReports(result.Table, formats)
	if err != nil {
		update("failed")
		return nil, fmt.Errorf("%s: %w", p.Name, err)
	}
	reportFiles, err := writeReports(reports, formats, outputDir, p.OutputBase)
	if err != nil {
		update("failed")
		return nil, fmt.Errorf("%s: %w", p.Name, err)
	}
	update(fmt.Sprintf("%d row(s), %d partial, %d skipped", result.Table.Len(), result.Count(table.StatusPartial), result.Count(table.StatusSkipped)))
	slog.Info("pipeline complete", slog.String("pipeline", p.Name), slog.Int("rows", result.Table.Len()), slog.Int("partial", result.Count(table.StatusPartial)), slog.Int("skipped", result.Count(table.StatusSkipped)))
	return &PipelineResult{
		Name:        p.Name,
		Inputs:      inputs,
		Result:      result,
		ReportFiles: reportFiles,
		Reports:     reports,
	}, nil
}

// SummarizeCommand runs a set of independent pipelines on behalf of a command.
type SummarizeCommand struct {
	Cmd        *cobra.Command
	Pipelines  []Pipeline
	Formats    []string
	NoProgress bool
}

// Run executes every pipeline in order. A failed pipeline does not stop the
// others; its error is reported and included in the returned error.
func (sc *SummarizeCommand) Run() error {
	// appContext is the application context that holds common data and resources.
	appContext := sc.Cmd.Parent().Context().Value(app.Context{}).(app.Context)
	outputDir := appContext.OutputDir
	// create output directory
	err := util.CreateDirectoryIfNotExists(outputDir, 0755) // #nosec G301
	if err != nil {
		err = fmt.Errorf("failed to create output directory: %w", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		slog.Error(err.Error())
		sc.Cmd.SilenceUsage = true
		return err
	}
	// setup and start the progress indicator
	var statusUpdate progress.UpdateFunc
	var multiSpinner *progress.MultiSpinner
	if !sc.NoProgress {
		multiSpinner = progress.NewMultiSpinner()
		for _, p := range sc.Pipelines {
			if err := multiSpinner.AddSpinner(p.Name); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				slog.Error(err.Error())
				sc.Cmd.SilenceUsage = true
				return err
			}
		}
		multiSpinner.Start()
		statusUpdate = multiSpinner.Status
	}
	var results []*PipelineResult
	var errs []error
	for _, p := range sc.Pipelines {
		result, err := RunPipeline(p, outputDir, sc.Formats, statusUpdate)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		results = append(results, result)
	}
	// stop the progress indicator
	if multiSpinner != nil {
		multiSpinner.Finish()
	}
	for _, result := range results {
		for _, diag := range result.Result.Diagnostics() {
			fmt.Fprintf(os.Stderr, "Warning: %s\n", diag)
			slog.Warn(diag.String(), slog.String("pipeline", result.Name))
		}
	}
	for _, err := range errs {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		slog.Error(err.Error())
	}
	printReports(os.Stdout, results, sc.Formats, appContext.LogFilePath)
	if len(errs) > 0 {
		sc.Cmd.SilenceUsage = true
		return errors.Join(errs...)
	}
	return nil
}

// FlagValidationError is used to report an error with a flag
func FlagValidationError(cmd *cobra.Command, msg string) error {
	err := fmt.Errorf("%s", msg)
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	fmt.Fprintf(os.Stderr, "See '%s --help' for usage details.\n", cmd.CommandPath())
	cmd.SilenceUsage = true
	return err
}
