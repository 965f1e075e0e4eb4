// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package hardware describes the target device of the schedule pass: how much fast on-chip
// memory (SRAM) it has, plus informational bandwidth and compute figures.
//
// Only SRAMBytes is consumed by the cost model.
package hardware

import (
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is returned by Config.Validate and by the loaders for configurations that
// can't describe a device.
var ErrInvalidConfig = errors.New("invalid hardware config")

// DefaultDRAMBandwidthGBps is the bulk-memory bandwidth assumed by the presets.
const DefaultDRAMBandwidthGBps = 200.0

// Config of the target hardware.
type Config struct {
	Name string `yaml:"name"`

	// SRAMBytes is the fast-memory capacity in bytes. Required, must be >= 0.
	SRAMBytes int64 `yaml:"sram_bytes"`

	// DRAMBandwidthGBps is the bulk-memory bandwidth in GB/s, 0 if unknown. Informational.
	DRAMBandwidthGBps float64 `yaml:"dram_bandwidth_gbps,omitempty"`

	// ComputeTFLOPS is the peak compute throughput, 0 if unknown. Informational.
	ComputeTFLOPS float64 `yaml:"compute_tflops,omitempty"`
}

// New returns a Config with the given name and fast-memory capacity, and the default bandwidth.
func New(name string, sramBytes int64) Config {
	return Config{Name: name, SRAMBytes: sramBytes, DRAMBandwidthGBps: DefaultDRAMBandwidthGBps}
}

// Validate returns an error wrapping ErrInvalidConfig if the config is not usable.
func (c Config) Validate() error {
	if c.SRAMBytes < 0 {
		return errors.Wrapf(ErrInvalidConfig, "hardware %q: sram_bytes must be >= 0, got %d", c.Name, c.SRAMBytes)
	}
	if c.DRAMBandwidthGBps < 0 || c.ComputeTFLOPS < 0 {
		return errors.Wrapf(ErrInvalidConfig, "hardware %q: bandwidth and compute figures must be >= 0", c.Name)
	}
	return nil
}

// String implements fmt.Stringer.
func (c Config) String() string {
	name := c.Name
	if name == "" {
		name = "<unnamed>"
	}
	s := fmt.Sprintf("%s(sram=%s", name, humanize.IBytes(uint64(max(c.SRAMBytes, 0))))
	if c.DRAMBandwidthGBps > 0 {
		s += fmt.Sprintf(", dram_bw=%gGB/s", c.DRAMBandwidthGBps)
	}
	if c.ComputeTFLOPS > 0 {
		s += fmt.Sprintf(", compute=%gTFLOPS", c.ComputeTFLOPS)
	}
	return s + ")"
}

// ParseCapacity parses a human-readable byte count, like "1MiB", "256 KiB", "8MB" or "1024".
// Notice "MB" is 10^6 bytes and "MiB" is 2^20 bytes.
func ParseCapacity(s string) (int64, error) {
	n, err := humanize.ParseBytes(strings.TrimSpace(s))
	if err != nil {
		return 0, errors.Wrapf(ErrInvalidConfig, "can't parse capacity %q: %v", s, err)
	}
	if n > 1<<62 {
		return 0, errors.Wrapf(ErrInvalidConfig, "capacity %q too large", s)
	}
	return int64(n), nil
}

// Presets maps names to hardware configurations, usable from the command line.
type Presets map[string]Config

// builtinPresets are never modified: DefaultPresets hands out copies.
var builtinPresets = Presets{
	"tiny_sram": New("tiny_sram", 256*1024),
	"1mib_sram": New("1mib_sram", 1024*1024),
	"8mib_sram": New("8mib_sram", 8*1024*1024),
	"big_sram":  New("big_sram", 8*1024*1024),
}

// DefaultPresets returns a copy of the built-in presets, that the caller owns and can extend
// with Presets.Add.
func DefaultPresets() Presets {
	return maps.Clone(builtinPresets)
}

// Add the configs to the presets, replacing existing ones with the same name.
// It returns the Presets itself, so calls can be chained.
func (p Presets) Add(configs ...Config) Presets {
	for _, c := range configs {
		p[c.Name] = c
	}
	return p
}

// Get returns the preset with the given name.
func (p Presets) Get(name string) (Config, error) {
	c, found := p[name]
	if !found {
		return Config{}, errors.Wrapf(ErrInvalidConfig, "unknown hardware preset %q, known presets: %s",
			name, strings.Join(p.Names(), ", "))
	}
	return c, nil
}

// Names of the presets, sorted.
func (p Presets) Names() []string {
	return slices.Sorted(maps.Keys(p))
}

// Resolve interprets nameOrSize either as a preset name or as a capacity (see ParseCapacity).
// A capacity creates a config named after nameOrSize.
func (p Presets) Resolve(nameOrSize string) (Config, error) {
	if c, found := p[nameOrSize]; found {
		return c, nil
	}
	sramBytes, err := ParseCapacity(nameOrSize)
	if err != nil {
		return Config{}, errors.WithMessagef(err, "%q is neither a hardware preset nor a capacity", nameOrSize)
	}
	return New(nameOrSize, sramBytes), nil
}

// Preset returns the built-in preset with the given name.
func Preset(name string) (Config, error) { return builtinPresets.Get(name) }

// PresetNames returns the names of the built-in presets, sorted.
func PresetNames() []string { return builtinPresets.Names() }

// Resolve is Presets.Resolve using only the built-in presets.
func Resolve(nameOrSize string) (Config, error) { return builtinPresets.Resolve(nameOrSize) }

// presetFile is the YAML layout of a hardware presets file.
type presetFile struct {
	Hardware []struct {
		Config `yaml:",inline"`

		// SRAM is a human-readable alternative to sram_bytes, e.g. "1MiB".
		SRAM string `yaml:"sram,omitempty"`
	} `yaml:"hardware"`
}

// ParsePresets parses YAML contents listing hardware configs:
//
//	hardware:
//	  - name: edge_npu
//	    sram: 2MiB
//	    dram_bandwidth_gbps: 50
//	  - name: big
//	    sram_bytes: 8388608
//
// Configs are validated and returned in file order.
func ParsePresets(contents []byte) ([]Config, error) {
	var file presetFile
	if err := yaml.Unmarshal(contents, &file); err != nil {
		return nil, errors.Wrap(err, "failed to parse hardware presets")
	}
	configs := make([]Config, 0, len(file.Hardware))
	seen := make(map[string]bool, len(file.Hardware))
	for ii, entry := range file.Hardware {
		c := entry.Config
		if c.Name == "" {
			return nil, errors.Wrapf(ErrInvalidConfig, "hardware entry #%d has no name", ii)
		}
		if seen[c.Name] {
			return nil, errors.Wrapf(ErrInvalidConfig, "hardware %q defined more than once", c.Name)
		}
		seen[c.Name] = true
		if entry.SRAM != "" {
			sramBytes, err := ParseCapacity(entry.SRAM)
			if err != nil {
				return nil, errors.WithMessagef(err, "hardware %q", c.Name)
			}
			c.SRAMBytes = sramBytes
		}
		if err := c.Validate(); err != nil {
			return nil, err
		}
		configs = append(configs, c)
	}
	return configs, nil
}

// LoadPresets reads a YAML hardware presets file, see ParsePresets. It doesn't change the
// built-in presets: use DefaultPresets().Add(configs...) to combine them.
func LoadPresets(filePath string) ([]Config, error) {
	contents, err := os.ReadFile(filePath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read hardware presets from %q", filePath)
	}
	configs, err := ParsePresets(contents)
	if err != nil {
		return nil, errors.WithMessagef(err, "file %q", filePath)
	}
	return configs, nil
}
