package catalog

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	metrics "perfsum/internal/catalog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintBuiltInCatalog(t *testing.T) {
	t.Cleanup(func() { flagCatalog = "" })
	var out bytes.Buffer
	Cmd.SetOut(&out)
	t.Cleanup(func() { Cmd.SetOut(nil) })

	require.NoError(t, runCmd(Cmd, nil))
	assert.Contains(t, out.String(), "dram__bytes.sum")
	assert.Contains(t, out.String(), "SCALAR_SINGLE")

	// the printed catalog must load back unchanged
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, out.Bytes(), 0644))
	reloaded, err := metrics.Load(path)
	require.NoError(t, err)
	builtIn, err := metrics.Load("")
	require.NoError(t, err)
	assert.Equal(t, builtIn.Ncu().Names(), reloaded.Ncu().Names())
}

func TestPrintMissingCatalog(t *testing.T) {
	flagCatalog = filepath.Join(t.TempDir(), "missing.yaml")
	t.Cleanup(func() { flagCatalog = "" })
	err := runCmd(Cmd, nil)
	require.Error(t, err)
	assert.True(t, Cmd.SilenceUsage)
}
