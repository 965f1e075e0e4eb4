// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package mlp builds feed-forward (multi-layer perceptron) graphs, the standard workload for the
// schedule pass.
//
// Each block is Linear(hidden -> ff) -> GELU -> Linear(ff -> hidden), so blocks can be stacked.
// The first block names its tensors "linear1", "gelu" and "linear2"; the following ones
// prefix them with the block number, e.g. "block1/gelu".
package mlp

import (
	"fmt"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/gomlx/memsched/graph"
	"github.com/gomlx/memsched/types/shapes"
	"github.com/pkg/errors"
)

// InputName is the name of the graph input.
const InputName = "x"

// Config of the feed-forward graph.
type Config struct {
	// Batch size, the first dimension of every tensor. It can be 0.
	Batch int

	// Hidden is the model dimension: input and output features of each block.
	Hidden int

	// FF is the inner dimension of the blocks, usually 4 x Hidden.
	FF int

	// Layers is the number of stacked blocks. If 0, one block is built.
	Layers int

	// DType of the input, and therefore of every tensor. If invalid, Float16 is used.
	DType dtypes.DType
}

// DefaultConfig is a transformer-sized block: batch=32, hidden=4096, ff=16384, in float16.
func DefaultConfig() Config {
	return Config{Batch: 32, Hidden: 4096, FF: 16384, Layers: 1, DType: dtypes.Float16}
}

// Validate returns an error if the configuration can't build a graph.
func (c Config) Validate() error {
	if c.Batch < 0 {
		return errors.Errorf("mlp: batch must be >= 0, got %d", c.Batch)
	}
	if c.Hidden <= 0 || c.FF <= 0 {
		return errors.Errorf("mlp: hidden and ff must be > 0, got hidden=%d, ff=%d", c.Hidden, c.FF)
	}
	if c.Layers < 0 {
		return errors.Errorf("mlp: layers must be >= 0, got %d", c.Layers)
	}
	return nil
}

// blockPrefix for the names of the tensors of a block.
func blockPrefix(block int) string {
	if block == 0 {
		return ""
	}
	return fmt.Sprintf("block%d/", block)
}

// FeedForward builds the graph described by config. Its only input is InputName, and its only
// output is the last "linear2" tensor.
func FeedForward(config Config) (*graph.Graph, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	dtype := config.DType
	if dtype == dtypes.InvalidDType {
		dtype = dtypes.Float16
	}
	widest := shapes.Shape{DType: dtype, Dimensions: []int{config.Batch, max(config.Hidden, config.FF)}}
	if _, err := widest.CheckMemory(); err != nil {
		return nil, errors.WithMessage(err, "mlp")
	}
	numLayers := max(config.Layers, 1)

	var ops []*graph.Op
	current := InputName
	for block := range numLayers {
		prefix := blockPrefix(block)
		linear1, gelu, linear2 := prefix+"linear1", prefix+"gelu", prefix+"linear2"
		ops = append(ops,
			graph.Linear(linear1, current, linear1, config.Hidden, config.FF),
			graph.GELU(gelu, linear1, gelu),
			graph.Linear(linear2, gelu, linear2, config.FF, config.Hidden))
		current = linear2
	}
	inputs := map[string]shapes.Shape{InputName: shapes.Make(dtype, config.Batch, config.Hidden)}
	return graph.New(inputs, []string{current}, ops...), nil
}
