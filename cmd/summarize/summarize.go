// Package summarize is a subcommand of the root command. It summarizes GPU
// (ncu) and CPU (likwid) profiler reports into per-run tables.
package summarize

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"fmt"
	"log/slog"
	"math"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"perfsum/internal/app"
	"perfsum/internal/catalog"
	"perfsum/internal/derived"
	"perfsum/internal/likwid"
	"perfsum/internal/ncu"
	"perfsum/internal/report"
	"perfsum/internal/util"
	"perfsum/internal/workflow"
)

const cmdName = "summarize"

var examples = []string{
	fmt.Sprintf("  Summarize reports to csv:            $ %s %s --ncu-path ./ncu --likwid-path ./likwid", app.Name, cmdName),
	fmt.Sprintf("  Assume half of FP ops are FMA:       $ %s %s --ncu-path ./ncu --likwid-path ./likwid --fma-frac 0.5", app.Name, cmdName),
	fmt.Sprintf("  All formats with derived metrics:    $ %s %s --ncu-path ./ncu --likwid-path ./likwid --format all --derived", app.Name, cmdName),
	fmt.Sprintf("  Use a custom metric catalog:         $ %s %s --ncu-path ./ncu --likwid-path ./likwid --catalog my_catalog.yaml", app.Name, cmdName),
}

var Cmd = &cobra.Command{
	Use:           cmdName,
	Short:         "Summarize ncu and likwid profiler reports",
	Example:       strings.Join(examples, "\n"),
	RunE:          runCmd,
	PreRunE:       validateFlags,
	GroupID:       "primary",
	Args:          cobra.NoArgs,
	SilenceErrors: true,
}

// flag vars
var (
	flagNcuPath    string
	flagLikwidPath string
	flagFmaFrac    float64
	flagFormat     []string
	flagDerived    bool
	flagCatalog    string
	flagNoProgress bool
)

// flag names
const (
	flagNcuPathName    = "ncu-path"
	flagLikwidPathName = "likwid-path"
	flagFmaFracName    = "fma-frac"
	flagFormatName     = "format"
	flagDerivedName    = "derived"
	flagNoProgressName = "no-progress"
)

const defaultFmaFrac = 1.0

func init() {
	Cmd.Flags().SetNormalizeFunc(app.NormalizeFlagName)
	Cmd.Flags().StringVar(&flagNcuPath, flagNcuPathName, "", "")
	Cmd.Flags().StringVar(&flagLikwidPath, flagLikwidPathName, "", "")
	Cmd.Flags().Float64Var(&flagFmaFrac, flagFmaFracName, defaultFmaFrac, "")
	Cmd.Flags().StringSliceVar(&flagFormat, flagFormatName, []string{report.FormatCsv}, "")
	Cmd.Flags().BoolVar(&flagDerived, flagDerivedName, false, "")
	Cmd.Flags().StringVar(&flagCatalog, app.FlagCatalogName, "", "")
	Cmd.Flags().BoolVar(&flagNoProgress, flagNoProgressName, false, "")

	Cmd.SetUsageFunc(usageFunc)
}

func usageFunc(cmd *cobra.Command) error {
	cmd.Printf("Usage: %s [flags]\n\n", cmd.CommandPath())
	cmd.Printf("Examples:\n%s\n\n", cmd.Example)
	cmd.Println("Flags:")
	for _, group := range getFlagGroups() {
		cmd.Printf("  %s:\n", group.GroupName)
		for _, flag := range group.Flags {
			flagDefault := ""
			if cmd.Flags().Lookup(flag.Name).DefValue != "" {
				flagDefault = fmt.Sprintf(" (default: %s)", cmd.Flags().Lookup(flag.Name).DefValue)
			}
			cmd.Printf("    --%-20s %s%s\n", flag.Name, flag.Help, flagDefault)
		}
	}
	if cmd.Parent() != nil {
		cmd.Println("\nGlobal Flags:")
		cmd.Parent().PersistentFlags().VisitAll(func(pf *pflag.Flag) {
			flagDefault := ""
			if pf.DefValue != "" {
				flagDefault = fmt.Sprintf(" (default: %s)", pf.DefValue)
			}
			cmd.Printf("  --%-20s %s%s\n", pf.Name, pf.Usage, flagDefault)
		})
	}
	return nil
}

func getFlagGroups() []app.FlagGroup {
	var groups []app.FlagGroup
	flags := []app.Flag{
		{
			Name: flagNcuPathName,
			Help: "directory containing ncu (Nsight Compute) csv reports (required)",
		},
		{
			Name: flagLikwidPathName,
			Help: "directory containing likwid-perfctr csv reports (required)",
		},
	}
	groups = append(groups, app.FlagGroup{
		GroupName: "Input Options",
		Flags:     flags,
	})
	flags = []app.Flag{
		{
			Name: flagFmaFracName,
			Help: "estimated fraction of retired CPU floating point instructions that are FMA, must be >= 0",
		},
		{
			Name: flagFormatName,
			Help: fmt.Sprintf("choose output format(s) from: %s", strings.Join(append([]string{report.FormatAll}, report.FormatOptions...), ", ")),
		},
		{
			Name: flagDerivedName,
			Help: "add the catalog's derived metrics, e.g., total f32 TFLOP, to the summaries",
		},
		{
			Name: flagNoProgressName,
			Help: "do not show the progress indicator",
		},
	}
	groups = append(groups, app.FlagGroup{
		GroupName: "Other Options",
		Flags:     flags,
	})
	flags = []app.Flag{
		{
			Name: app.FlagCatalogName,
			Help: "metric catalog file (YAML) to use instead of the built-in catalog, see 'catalog' command",
		},
	}
	groups = append(groups, app.FlagGroup{
		GroupName: "Advanced Options",
		Flags:     flags,
	})
	return groups
}

// validateFlags checks the required input paths itself so that a missing one is
// reported like any other flag error, before the catalog or any report is read.
func validateFlags(cmd *cobra.Command, args []string) error {
	if flagNcuPath == "" || flagLikwidPath == "" {
		return workflow.FlagValidationError(cmd, fmt.Sprintf("both --%s and --%s are required", flagNcuPathName, flagLikwidPathName))
	}
	if math.IsNaN(flagFmaFrac) || math.IsInf(flagFmaFrac, 0) || flagFmaFrac < 0 {
		return workflow.FlagValidationError(cmd, fmt.Sprintf("--%s must be a number >= 0, got %v", flagFmaFracName, flagFmaFrac))
	}
	formats, err := report.ExpandFormats(flagFormat)
	if err != nil {
		return workflow.FlagValidationError(cmd, err.Error())
	}
	flagFormat = formats
	return nil
}

func runCmd(cmd *cobra.Command, args []string) error {
	metricCatalog, err := catalog.Load(flagCatalog)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		slog.Error(err.Error())
		cmd.SilenceUsage = true
		return err
	}
	pipelines, err := buildPipelines(metricCatalog)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		slog.Error(err.Error())
		cmd.SilenceUsage = true
		return err
	}
	slog.Info("summarizing reports", slog.String("ncu", flagNcuPath), slog.String("likwid", flagLikwidPath), slog.Float64("fma_frac", flagFmaFrac), slog.String("formats", strings.Join(flagFormat, ",")), slog.Bool("derived", flagDerived))
	summarizeCommand := workflow.SummarizeCommand{
		Cmd:        cmd,
		Pipelines:  pipelines,
		Formats:    flagFormat,
		NoProgress: flagNoProgress,
	}
	return summarizeCommand.Run()
}

// buildPipelines creates the ncu and likwid pipelines, in that order.
func buildPipelines(metricCatalog *catalog.Catalog) ([]workflow.Pipeline, error) {
	ncuParser := ncu.NewParser(metricCatalog.Ncu())
	likwidParser := likwid.NewParser(metricCatalog.Likwid(), flagFmaFrac)
	pipelines := []workflow.Pipeline{
		{
			Name:       ncu.TableName,
			InputDir:   util.ExpandUser(flagNcuPath),
			OutputBase: ncu.OutputBase,
			Parse:      ncuParser.ParseReports,
		},
		{
			Name:       likwid.TableName,
			InputDir:   util.ExpandUser(flagLikwidPath),
			OutputBase: likwid.OutputBase,
			Parse:      likwidParser.ParseReports,
		},
	}
	if !flagDerived {
		return pipelines, nil
	}
	ncuDerived, err := derived.Compile(metricCatalog.Ncu().Derived())
	if err != nil {
		return nil, err
	}
	likwidDerived, err := derived.Compile(metricCatalog.Likwid().Derived())
	if err != nil {
		return nil, err
	}
	pipelines[0].Derived = ncuDerived
	pipelines[1].Derived = likwidDerived
	return pipelines, nil
}
