// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package hardware

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	require.NoError(t, New("zero", 0).Validate())
	require.NoError(t, Config{SRAMBytes: 1024}.Validate())
	require.ErrorIs(t, New("negative", -1).Validate(), ErrInvalidConfig)
	require.ErrorIs(t, Config{Name: "bw", SRAMBytes: 1, DRAMBandwidthGBps: -3}.Validate(), ErrInvalidConfig)
}

func TestParseCapacity(t *testing.T) {
	for spec, want := range map[string]int64{
		"1MiB":    1 << 20,
		"8 MiB":   8 << 20,
		"256KiB":  256 << 10,
		"1024":    1024,
		"1MB":     1_000_000,
		" 2 KiB ": 2048,
	} {
		got, err := ParseCapacity(spec)
		require.NoErrorf(t, err, "spec %q", spec)
		assert.Equalf(t, want, got, "spec %q", spec)
	}
	_, err := ParseCapacity("lots")
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestPresets(t *testing.T) {
	c, err := Preset("tiny_sram")
	require.NoError(t, err)
	assert.Equal(t, int64(256*1024), c.SRAMBytes)
	assert.Equal(t, DefaultDRAMBandwidthGBps, c.DRAMBandwidthGBps)

	_, err = Preset("huge_sram")
	require.ErrorIs(t, err, ErrInvalidConfig)
	assert.Contains(t, err.Error(), "big_sram")

	names := PresetNames()
	assert.Contains(t, names, "big_sram")
	assert.IsIncreasing(t, names)
}

func TestResolve(t *testing.T) {
	c, err := Resolve("big_sram")
	require.NoError(t, err)
	assert.Equal(t, int64(8<<20), c.SRAMBytes)

	c, err = Resolve("2MiB")
	require.NoError(t, err)
	assert.Equal(t, "2MiB", c.Name)
	assert.Equal(t, int64(2<<20), c.SRAMBytes)

	_, err = Resolve("nope")
	require.Error(t, err)
}

func TestString(t *testing.T) {
	assert.Equal(t, "tiny_sram(sram=256 KiB, dram_bw=200GB/s)", New("tiny_sram", 256*1024).String())
	assert.Equal(t, "<unnamed>(sram=16 B)", Config{SRAMBytes: 16}.String())
}

func TestParsePresets(t *testing.T) {
	configs, err := ParsePresets([]byte(`
hardware:
  - name: edge_npu
    sram: 2MiB
    dram_bandwidth_gbps: 50
  - name: big
    sram_bytes: 8388608
    compute_tflops: 100
`))
	require.NoError(t, err)
	require.Len(t, configs, 2)
	assert.Equal(t, Config{Name: "edge_npu", SRAMBytes: 2 << 20, DRAMBandwidthGBps: 50}, configs[0])
	assert.Equal(t, Config{Name: "big", SRAMBytes: 8 << 20, ComputeTFLOPS: 100}, configs[1])

	for _, bad := range []string{
		"hardware:\n  - sram_bytes: 10\n",
		"hardware:\n  - name: a\n    sram_bytes: -10\n",
		"hardware:\n  - name: a\n    sram: plenty\n",
		"hardware:\n  - name: a\n  - name: a\n",
		"hardware: [",
	} {
		_, err = ParsePresets([]byte(bad))
		require.Errorf(t, err, "contents %q", bad)
	}
}

func TestLoadPresets(t *testing.T) {
	filePath := filepath.Join(t.TempDir(), "hw.yaml")
	require.NoError(t, os.WriteFile(filePath, []byte("hardware:\n  - name: test_loaded_npu\n    sram: 3KiB\n  - name: tiny_sram\n    sram: 1KiB\n"), 0o644))

	configs, err := LoadPresets(filePath)
	require.NoError(t, err)
	require.Len(t, configs, 2)

	// Built-in presets are not changed by loading a file.
	_, err = Preset("test_loaded_npu")
	require.ErrorIs(t, err, ErrInvalidConfig)
	c, err := Resolve("tiny_sram")
	require.NoError(t, err)
	assert.Equal(t, int64(256*1024), c.SRAMBytes)

	presets := DefaultPresets().Add(configs...)
	c, err = presets.Get("test_loaded_npu")
	require.NoError(t, err)
	assert.Equal(t, int64(3*1024), c.SRAMBytes)
	c, err = presets.Resolve("tiny_sram")
	require.NoError(t, err)
	assert.Equal(t, int64(1024), c.SRAMBytes)
	assert.Contains(t, presets.Names(), "test_loaded_npu")
	assert.NotContains(t, PresetNames(), "test_loaded_npu")

	// Changing a copy doesn't change the built-in presets.
	delete(presets, "big_sram")
	_, err = Preset("big_sram")
	require.NoError(t, err)

	_, err = LoadPresets(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
