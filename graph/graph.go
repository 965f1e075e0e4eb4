// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package graph models the computation graph the schedule pass reasons about: named tensors
// connected by ops.
//
// The main elements in the package are:
//
//   - Op: one operator instance, with an OpType, named inputs and outputs, and static attributes.
//
//   - Graph: an ordered list of ops, the external inputs (with their shapes) and the names of
//     the tensors that are the outputs of the graph.
//
// Graph.InferShapes resolves the shape of every tensor. The graph is trusted to be given
// in topological order: no reordering or cycle detection is done. Errors are structural,
// they mean the graph was built wrong, and they wrap one of the sentinel errors (ErrMissingInput,
// ErrOutputCountMismatch, ErrNotImplemented, ...).
//
// Any tensor produced by an op that is not a graph output is an "intermediate" tensor.
package graph

import (
	"fmt"
	"iter"
	"strings"

	"github.com/gomlx/memsched/types"
	"github.com/gomlx/memsched/types/shapes"
	"github.com/pkg/errors"
)

// Graph of ops, in topological order.
type Graph struct {
	// Ops in execution order: every op input must be a graph input or an output of an earlier op.
	Ops []*Op

	// Inputs are the free variables of the graph, with their shapes.
	Inputs map[string]shapes.Shape

	// Outputs lists the names of the tensors returned by the graph. Each must be produced by some op.
	Outputs []string
}

// New creates a Graph with the given inputs, outputs and ops.
func New(inputs map[string]shapes.Shape, outputs []string, ops ...*Op) *Graph {
	return &Graph{Ops: ops, Inputs: inputs, Outputs: outputs}
}

// InferShapes returns the shape of every tensor in the graph, including its inputs.
//
// Ops are processed in the given order. It fails if an op input can't be resolved, if an op
// output reuses an existing tensor name, if the number of outputs of an op doesn't match
// what its shape inference produces, if a graph output is not produced by any op, or if the
// size of a tensor in bytes overflows an int64 (shapes.ErrTooLarge).
func (g *Graph) InferShapes() (map[string]shapes.Shape, error) {
	tensors := make(map[string]shapes.Shape, len(g.Inputs)+len(g.Ops))
	for _, name := range g.InputNames() {
		shape := g.Inputs[name]
		if _, err := shape.CheckMemory(); err != nil {
			return nil, errors.WithMessagef(err, "graph input %q", name)
		}
		tensors[name] = shape
	}
	produced := types.MakeSet[string](len(g.Ops))
	for _, op := range g.Ops {
		inputs := make([]shapes.Shape, 0, len(op.Inputs))
		for _, inputName := range op.Inputs {
			shape, found := tensors[inputName]
			if !found {
				return nil, errors.Wrapf(ErrMissingInput, "op %q (%s) input %q", op.Name, op.Type, inputName)
			}
			inputs = append(inputs, shape)
		}
		outputs, err := op.inferShapes(inputs)
		if err != nil {
			return nil, err
		}
		if len(outputs) != len(op.Outputs) {
			return nil, errors.Wrapf(ErrOutputCountMismatch, "op %q (%s) declares %d output name(s) but produces %d tensor(s)",
				op.Name, op.Type, len(op.Outputs), len(outputs))
		}
		for ii, outputName := range op.Outputs {
			if _, found := tensors[outputName]; found {
				return nil, errors.Wrapf(ErrNameCollision, "op %q (%s) output %q is already defined", op.Name, op.Type, outputName)
			}
			tensors[outputName] = outputs[ii]
			produced.Insert(outputName)
		}
	}
	for _, outputName := range g.Outputs {
		if !produced.Has(outputName) {
			return nil, errors.Wrapf(ErrUnknownOutput, "graph output %q is not produced by any op", outputName)
		}
	}
	return tensors, nil
}

// WalkOps iterates over the ops in order, yielding their index and a copy of the op.
// Changes to the yielded ops don't affect the graph.
func (g *Graph) WalkOps() iter.Seq2[int, Op] {
	return func(yield func(int, Op) bool) {
		for ii, op := range g.Ops {
			if !yield(ii, op.Clone()) {
				return
			}
		}
	}
}

// IsOutput returns whether name is one of the graph outputs.
func (g *Graph) IsOutput(name string) bool {
	for _, output := range g.Outputs {
		if output == name {
			return true
		}
	}
	return false
}

// Intermediates returns the names of the op outputs that are not graph outputs, in the order
// they are produced.
func (g *Graph) Intermediates() []string {
	outputs := types.SetWith(g.Outputs...)
	var intermediates []string
	for _, op := range g.Ops {
		for _, name := range op.Outputs {
			if !outputs.Has(name) {
				intermediates = append(intermediates, name)
			}
		}
	}
	return intermediates
}

// InputNames returns the names of the graph inputs, sorted.
func (g *Graph) InputNames() []string {
	names := types.MakeSet[string](len(g.Inputs))
	for name := range g.Inputs {
		names.Insert(name)
	}
	return types.Sorted(names)
}

// String implements fmt.Stringer, listing inputs, ops and outputs one per line.
func (g *Graph) String() string {
	var sb strings.Builder
	sb.WriteString("Graph:\n")
	for _, name := range g.InputNames() {
		_, _ = fmt.Fprintf(&sb, "\tinput %q: %s\n", name, g.Inputs[name])
	}
	for _, op := range g.Ops {
		_, _ = fmt.Fprintf(&sb, "\t%s\n", op)
	}
	_, _ = fmt.Fprintf(&sb, "\toutputs: %s\n", strings.Join(g.Outputs, ", "))
	return sb.String()
}
