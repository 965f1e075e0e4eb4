// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package main

import (
	"strconv"
	"strings"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/memsched/costmodel"
	"github.com/gomlx/memsched/graph"
	"github.com/gomlx/memsched/graph/graphfile"
	"github.com/gomlx/memsched/hardware"
	"github.com/gomlx/memsched/models/mlp"
	"github.com/gomlx/memsched/pass"
	"github.com/gomlx/memsched/schedules"
	"github.com/gomlx/memsched/types/shapes"
	"github.com/gomlx/memsched/ui/commandline"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"k8s.io/klog/v2"
)

// graphFlags select the graph to schedule: a YAML file, or the built-in feed-forward model.
type graphFlags struct {
	path                      string
	batch, hidden, ff, layers int
	dtype                     string
}

func (f *graphFlags) register(fs *pflag.FlagSet) {
	defaults := mlp.DefaultConfig()
	fs.StringVar(&f.path, "graph", "", "YAML graph file. If empty, the built-in feed-forward model is used.")
	fs.IntVar(&f.batch, "batch", defaults.Batch, "Batch size of the built-in feed-forward model.")
	fs.IntVar(&f.hidden, "hidden", defaults.Hidden, "Hidden dimension of the built-in feed-forward model.")
	fs.IntVar(&f.ff, "ff", defaults.FF, "Inner dimension of the built-in feed-forward model.")
	fs.IntVar(&f.layers, "layers", defaults.Layers, "Number of blocks of the built-in feed-forward model.")
	fs.StringVar(&f.dtype, "dtype", "float16", "DType of the built-in feed-forward model.")
}

func (f *graphFlags) build() (*graph.Graph, error) {
	if f.path != "" {
		return graphfile.Load(f.path)
	}
	dtype, err := shapes.DTypeForName(f.dtype)
	if err != nil {
		return nil, err
	}
	return mlp.FeedForward(mlp.Config{Batch: f.batch, Hidden: f.hidden, FF: f.ff, Layers: f.layers, DType: dtype})
}

// hardwareFlags configure the target devices.
type hardwareFlags struct {
	file     string
	settings string
}

func (f *hardwareFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.file, "hardware-file", "", "YAML file with extra hardware presets.")
	fs.StringVar(&f.settings, "set", "", commandline.HardwareSettingsUsage)
}

// presets returns the built-in presets plus the ones in the hardware file, if one was given.
func (f *hardwareFlags) presets() (hardware.Presets, error) {
	presets := hardware.DefaultPresets()
	if f.file == "" {
		return presets, nil
	}
	configs, err := hardware.LoadPresets(f.file)
	if err != nil {
		return nil, err
	}
	klog.V(1).Infof("loaded %d hardware presets from %q", len(configs), f.file)
	return presets.Add(configs...), nil
}

// resolve a preset name or capacity, and applies the settings overrides.
func (f *hardwareFlags) resolve(presets hardware.Presets, nameOrSize string) (hardware.Config, error) {
	hw, err := presets.Resolve(nameOrSize)
	if err != nil {
		return hw, err
	}
	if f.settings == "" {
		return hw, nil
	}
	hw, paramsSet, err := commandline.ParseHardwareSettings(hw, f.settings)
	if err != nil {
		return hw, err
	}
	klog.V(1).Infof("hardware %q parameters set: %q", hw.Name, paramsSet)
	return hw, nil
}

// passFlags configure the pass.
type passFlags struct {
	tile        string
	penalty     int64
	parallelism int
}

func (f *passFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.tile, "tile", "", `If set, also consider a memory-aware schedule with the given tile shape, e.g. "64x32".`)
	fs.Int64Var(&f.penalty, "penalty", costmodel.DefaultInfeasiblePenalty, "Cost added to schedules that don't fit the SRAM.")
}

func (f *passFlags) newPass() (*pass.Pass, error) {
	candidates := schedules.Catalog()
	if f.tile != "" {
		tiled, err := parseTiledSchedule(f.tile)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, tiled)
	}
	return pass.New().
		WithCandidates(candidates...).
		WithInfeasiblePenalty(f.penalty).
		WithParallelism(f.parallelism), nil
}

// parseTiledSchedule parses a tile shape like "64x32" and creates the corresponding schedule.
func parseTiledSchedule(spec string) (s schedules.Schedule, err error) {
	var tile []int
	for _, part := range strings.Split(spec, "x") {
		dim, convErr := strconv.Atoi(strings.TrimSpace(part))
		if convErr != nil {
			return s, errors.Wrapf(convErr, "invalid tile shape %q, it should be like \"64x32\"", spec)
		}
		tile = append(tile, dim)
	}
	err = exceptions.TryCatch[error](func() { s = schedules.MemoryAwareTiled(tile...) })
	if err != nil {
		return s, errors.WithMessagef(err, "invalid tile shape %q", spec)
	}
	return s, nil
}
