package summarize

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"perfsum/internal/app"
	"perfsum/internal/report"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resetFlags restores the flag variables to their defaults after a test.
func resetFlags(t *testing.T) {
	t.Cleanup(func() {
		flagNcuPath = ""
		flagLikwidPath = ""
		flagFmaFrac = defaultFmaFrac
		flagFormat = []string{report.FormatCsv}
		flagDerived = false
		flagCatalog = ""
		flagNoProgress = false
	})
}

func newTestCommand(outputDir string) *cobra.Command {
	root := &cobra.Command{Use: "perfsum"}
	cmd := &cobra.Command{Use: cmdName}
	root.AddCommand(cmd)
	root.SetContext(context.WithValue(context.Background(), app.Context{}, app.Context{OutputDir: outputDir}))
	return cmd
}

func TestFlagDefinitions(t *testing.T) {
	for _, name := range []string{flagNcuPathName, flagLikwidPathName} {
		flag := Cmd.Flags().Lookup(name)
		require.NotNil(t, flag, name)
		assert.Empty(t, flag.DefValue, name)
	}
	assert.Equal(t, "1", Cmd.Flags().Lookup(flagFmaFracName).DefValue)
	assert.NotNil(t, Cmd.Flags().Lookup("likwid_path"))
}

func TestValidateFlags(t *testing.T) {
	tests := []struct {
		name     string
		ncuPath  string
		fmaFrac  float64
		formats  []string
		wantErr  bool
		wantFmts []string
	}{
		{name: "defaults", ncuPath: "ncu", fmaFrac: 1, formats: []string{"csv"}, wantFmts: []string{"csv"}},
		{name: "zero fma", ncuPath: "ncu", fmaFrac: 0, formats: []string{"csv"}, wantFmts: []string{"csv"}},
		{name: "all formats", ncuPath: "ncu", fmaFrac: 2.5, formats: []string{"all"}, wantFmts: report.FormatOptions},
		{name: "negative fma", ncuPath: "ncu", fmaFrac: -0.1, formats: []string{"csv"}, wantErr: true},
		{name: "nan fma", ncuPath: "ncu", fmaFrac: math.NaN(), formats: []string{"csv"}, wantErr: true},
		{name: "bad format", ncuPath: "ncu", fmaFrac: 1, formats: []string{"html"}, wantErr: true},
		{name: "missing path", ncuPath: "", fmaFrac: 1, formats: []string{"csv"}, wantErr: true},
		{name: "missing path with bad fma", ncuPath: "", fmaFrac: -1, formats: []string{"csv"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetFlags(t)
			flagNcuPath = tt.ncuPath
			flagLikwidPath = "likwid"
			flagFmaFrac = tt.fmaFrac
			flagFormat = tt.formats
			cmd := newTestCommand(t.TempDir())
			err := validateFlags(cmd, nil)
			if tt.wantErr {
				assert.Error(t, err)
				assert.True(t, cmd.SilenceUsage)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantFmts, flagFormat)
		})
	}
}

func TestRunCmd(t *testing.T) {
	resetFlags(t)
	root := t.TempDir()
	ncuDir := filepath.Join(root, "ncu")
	likwidDir := filepath.Join(root, "likwid")
	outDir := filepath.Join(root, "out")
	require.NoError(t, os.MkdirAll(ncuDir, 0755))
	require.NoError(t, os.MkdirAll(likwidDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(ncuDir, "gpu.csv"),
		[]byte("dram__bytes.sum\nGbyte\n100\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(likwidDir, "cpu.csv"),
		[]byte("FP_ARITH_INST_RETIRED_SCALAR_DOUBLE STAT, x, 1000\n"), 0644))

	flagNcuPath = ncuDir
	flagLikwidPath = likwidDir
	flagFmaFrac = 0.5
	flagFormat = []string{report.FormatCsv}
	flagDerived = true
	flagNoProgress = true
	cmd := newTestCommand(outDir)
	require.NoError(t, validateFlags(cmd, nil))
	require.NoError(t, runCmd(cmd, nil))

	out, err := os.ReadFile(filepath.Join(outDir, "likwid_rep_summary.csv"))
	require.NoError(t, err)
	assert.Equal(t, "report_file,FP_ARITH_INST_RETIRED_SCALAR_DOUBLE STAT,SP_TFLOP,DP_TFLOP\ncpu.csv,1.5e-09,0.0,1.5e-09\n", string(out))
	out, err = os.ReadFile(filepath.Join(outDir, "ncu_rep_summary.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(out), "\ngpu.csv,,,,,,,,,,,100.0,,,0.0,0.0,0.0,0.0,\n")
}

func TestRunCmdBadCatalog(t *testing.T) {
	resetFlags(t)
	root := t.TempDir()
	flagNcuPath = root
	flagLikwidPath = root
	flagCatalog = filepath.Join(root, "missing.yaml")
	flagNoProgress = true
	cmd := newTestCommand(root)
	err := runCmd(cmd, nil)
	require.Error(t, err)
	assert.True(t, cmd.SilenceUsage)
	assert.NoFileExists(t, filepath.Join(root, "ncu_rep_summary.csv"))
}
