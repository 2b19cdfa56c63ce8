// Package catalog is a subcommand of the root command. It prints the effective
// metric catalog so that it can be copied, edited, and passed back with --catalog.
package catalog

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"perfsum/internal/app"
	metrics "perfsum/internal/catalog"
)

const cmdName = "catalog"

var examples = []string{
	fmt.Sprintf("  Print the built-in catalog:        $ %s %s", app.Name, cmdName),
	fmt.Sprintf("  Validate and print a custom one:   $ %s %s --catalog my_catalog.yaml", app.Name, cmdName),
}

var Cmd = &cobra.Command{
	Use:           cmdName,
	Short:         "Print the metric catalog",
	Long:          "Prints the metric catalog used to select, rename, and convert profiler metrics, in the YAML format accepted by --catalog.",
	Example:       strings.Join(examples, "\n"),
	RunE:          runCmd,
	GroupID:       "primary",
	Args:          cobra.NoArgs,
	SilenceErrors: true,
}

var flagCatalog string

func init() {
	Cmd.Flags().StringVar(&flagCatalog, app.FlagCatalogName, "", "metric catalog file (YAML) to validate and print instead of the built-in catalog")
}

func runCmd(cmd *cobra.Command, args []string) error {
	c, err := metrics.Load(flagCatalog)
	if err == nil {
		var out []byte
		if out, err = c.YAML(); err == nil {
			_, err = cmd.OutOrStdout().Write(out)
		}
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		slog.Error(err.Error())
		cmd.SilenceUsage = true
		return err
	}
	return nil
}
