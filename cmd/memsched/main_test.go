// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/gomlx/memsched/costmodel"
	"github.com/gomlx/memsched/graph"
	"github.com/gomlx/memsched/graph/graphfile"
	"github.com/gomlx/memsched/schedules"
	"github.com/janpfeifer/must"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the command line with the given args and returns its standard output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	rootCmd := newRootCmd()
	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(append([]string{"--no-color"}, args...))
	err := rootCmd.Execute()
	return stdout.String(), err
}

func TestRun(t *testing.T) {
	out, err := execute(t, "run", "--hardware=1MiB")
	require.NoError(t, err)
	assert.Contains(t, out, "Chosen: naive")

	out, err = execute(t, "run", "--hardware=8mib_sram", "--breakdown")
	require.NoError(t, err)
	assert.Contains(t, out, "Chosen: memory_aware")
	assert.Contains(t, out, "intermediate_resident")

	out, err = execute(t, "run", "--hardware=1MiB", "--tile=64x32")
	require.NoError(t, err)
	assert.Contains(t, out, "Chosen: memory_aware_tile_64x32")

	out, err = execute(t, "run", "--hardware=1MiB", "--set=sram=8MiB")
	require.NoError(t, err)
	assert.Contains(t, out, "Chosen: memory_aware")

	_, err = execute(t, "run", "--hardware=lots")
	require.Error(t, err)
	_, err = execute(t, "run", "--tile=64x0")
	require.Error(t, err)
	_, err = execute(t, "run", "--tile=64xa")
	require.Error(t, err)
	_, err = execute(t, "run", "--hidden=0")
	require.Error(t, err)
	_, err = execute(t, "run", "--penalty=9223372036853775807")
	require.ErrorIs(t, err, costmodel.ErrInvalidPenalty)
}

func TestRunGraphFile(t *testing.T) {
	out, err := execute(t, "graph", "--batch=2", "--hidden=4", "--ff=4")
	require.NoError(t, err)
	assert.Contains(t, out, "type: GELU")

	graphPath := filepath.Join(t.TempDir(), "ffn.yaml")
	must.M(os.WriteFile(graphPath, []byte(out), 0o644))
	out, err = execute(t, "run", "--graph="+graphPath, "--hardware=1KiB")
	require.NoError(t, err)
	assert.Contains(t, out, "Chosen: memory_aware")

	badPath := filepath.Join(t.TempDir(), "bad.yaml")
	must.M(os.WriteFile(badPath, []byte("inputs: [{name: x, shape: [2]}]\nops: [{name: s, type: Softmax, inputs: [x], outputs: [y]}]\noutputs: [y]\n"), 0o644))
	_, err = execute(t, "run", "--graph="+badPath)
	require.ErrorIs(t, err, graph.ErrNotImplemented)
}

func TestSweep(t *testing.T) {
	out, err := execute(t, "sweep", "--progress=false", "256KiB", "1mib_sram", "8MiB")
	require.NoError(t, err)
	assert.Contains(t, out, "all_infeasible")
	assert.Contains(t, out, "alternatives_infeasible")
	assert.Contains(t, out, "lower_dram")

	_, err = execute(t, "sweep", "--progress=false", "nowhere")
	require.Error(t, err)
}

func TestPresets(t *testing.T) {
	out, err := execute(t, "presets")
	require.NoError(t, err)
	assert.Contains(t, out, "tiny_sram")
	assert.Contains(t, out, "big_sram")

	hwPath := filepath.Join(t.TempDir(), "hw.yaml")
	must.M(os.WriteFile(hwPath, []byte("hardware:\n  - name: edge_npu\n    sram: 8MiB\n"), 0o644))
	out, err = execute(t, "presets", "--hardware-file="+hwPath)
	require.NoError(t, err)
	assert.Contains(t, out, "edge_npu")
	out, err = execute(t, "run", "--hardware-file="+hwPath, "--hardware=edge_npu")
	require.NoError(t, err)
	assert.Contains(t, out, "Chosen: memory_aware")

	// Presets loaded by one command are not seen by the next one.
	_, err = execute(t, "run", "--hardware=edge_npu")
	require.Error(t, err)
}

func TestParseTiledSchedule(t *testing.T) {
	s, err := parseTiledSchedule("16x8")
	require.NoError(t, err)
	assert.True(t, s.Equal(schedules.MemoryAwareTiled(16, 8)))
	_, err = parseTiledSchedule("16x-8")
	require.Error(t, err)
	_, err = parseTiledSchedule("")
	require.Error(t, err)
}

func TestGraphRoundTrip(t *testing.T) {
	out, err := execute(t, "graph", "--layers=2", "--batch=1", "--hidden=8", "--ff=32")
	require.NoError(t, err)
	g := must.M1(graphfile.Parse([]byte(out)))
	assert.Equal(t, []string{"block1/linear2"}, g.Outputs)
}
