package app

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeFlagName(t *testing.T) {
	var ncuPath, fmaFrac string
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.SetNormalizeFunc(NormalizeFlagName)
	flags.StringVar(&ncuPath, "ncu-path", "", "")
	flags.StringVar(&fmaFrac, "fma-frac", "", "")
	require.NoError(t, flags.Parse([]string{"--ncu_path", "/data/ncu", "--fma-frac", "0.5"}))
	assert.Equal(t, "/data/ncu", ncuPath)
	assert.Equal(t, "0.5", fmaFrac)
	assert.NotNil(t, flags.Lookup("ncu_path"))
}
