// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package graphfile reads and writes graph.Graph descriptions in YAML.
//
// Example of a file:
//
//	inputs:
//	  - name: x
//	    shape: [32, 4096]
//	    dtype: float16
//	ops:
//	  - name: linear1
//	    type: Linear
//	    inputs: [x]
//	    outputs: [linear1]
//	    attrs: {in_features: 4096, out_features: 16384}
//	  - name: gelu
//	    type: GELU
//	    inputs: [linear1]
//	    outputs: [gelu]
//	outputs: [gelu]
//
// Inputs take either a dtype (any name known to gopjrt's dtypes, case-insensitive) or an
// explicit element_bytes. If neither is given, float16 is used.
package graphfile

import (
	"bytes"
	"io"
	"os"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/gomlx/memsched/graph"
	"github.com/gomlx/memsched/types"
	"github.com/gomlx/memsched/types/shapes"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// DefaultDType of inputs that don't specify one.
const DefaultDType = dtypes.Float16

// File is the YAML representation of a graph.
type File struct {
	Inputs  []Input  `yaml:"inputs"`
	Ops     []Op     `yaml:"ops"`
	Outputs []string `yaml:"outputs"`
}

// Input is a graph input declaration.
type Input struct {
	Name         string `yaml:"name"`
	Shape        []int  `yaml:"shape,flow"`
	DType        string `yaml:"dtype,omitempty"`
	ElementBytes int    `yaml:"element_bytes,omitempty"`
}

// Op is one op declaration.
type Op struct {
	Name    string         `yaml:"name"`
	Type    string         `yaml:"type"`
	Inputs  []string       `yaml:"inputs,flow"`
	Outputs []string       `yaml:"outputs,flow"`
	Attrs   map[string]any `yaml:"attrs,omitempty,flow"`
}

// Parse a YAML graph description and build the graph.
//
// Besides syntax errors and unknown fields, it fails with a wrapped graph.ErrNotImplemented if an
// op type is not known, and with any of the graph.InferShapes errors if the graph is malformed.
func Parse(contents []byte) (*graph.Graph, error) {
	var f File
	decoder := yaml.NewDecoder(bytes.NewReader(contents))
	decoder.KnownFields(true)
	if err := decoder.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty graph file")
		}
		return nil, errors.Wrap(err, "failed to parse graph file")
	}
	return f.Build()
}

// Load reads and parses the graph file in filePath. See Parse.
func Load(filePath string) (*graph.Graph, error) {
	contents, err := os.ReadFile(filePath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read graph file")
	}
	g, err := Parse(contents)
	if err != nil {
		return nil, errors.WithMessagef(err, "graph file %q", filePath)
	}
	return g, nil
}

// Build the graph described in f, and checks that its shapes can be inferred.
func (f *File) Build() (*graph.Graph, error) {
	inputs := make(map[string]shapes.Shape, len(f.Inputs))
	for ii, input := range f.Inputs {
		if input.Name == "" {
			return nil, errors.Errorf("input #%d has no name", ii)
		}
		if _, found := inputs[input.Name]; found {
			return nil, errors.Wrapf(graph.ErrNameCollision, "input %q declared more than once", input.Name)
		}
		shape, err := input.shape()
		if err != nil {
			return nil, err
		}
		inputs[input.Name] = shape
	}

	ops := make([]*graph.Op, 0, len(f.Ops))
	names := types.MakeSet[string](len(f.Ops))
	for ii, op := range f.Ops {
		if op.Name == "" {
			return nil, errors.Errorf("op #%d (%s) has no name", ii, op.Type)
		}
		if !names.InsertIfAbsent(op.Name) {
			return nil, errors.Errorf("op name %q used more than once", op.Name)
		}
		opType, err := graph.OpTypeString(op.Type)
		if err != nil || opType == graph.OpTypeInvalid {
			return nil, errors.Wrapf(graph.ErrNotImplemented, "op %q has unknown type %q, known types are %q",
				op.Name, op.Type, graph.OpTypeStrings()[1:])
		}
		ops = append(ops, &graph.Op{
			Name:    op.Name,
			Type:    opType,
			Inputs:  op.Inputs,
			Outputs: op.Outputs,
			Attrs:   op.Attrs,
		})
	}

	g := graph.New(inputs, f.Outputs, ops...)
	if _, err := g.InferShapes(); err != nil {
		return nil, err
	}
	return g, nil
}

func (input Input) shape() (shapes.Shape, error) {
	for _, dim := range input.Shape {
		if dim < 0 {
			return shapes.Shape{}, errors.Errorf("input %q has negative dimensions %v", input.Name, input.Shape)
		}
	}
	if input.ElementBytes != 0 {
		if input.DType != "" {
			return shapes.Shape{}, errors.Errorf("input %q sets both dtype and element_bytes, only one is allowed", input.Name)
		}
		if input.ElementBytes < 0 {
			return shapes.Shape{}, errors.Errorf("input %q element_bytes must be > 0, got %d", input.Name, input.ElementBytes)
		}
		if err := checkMemory(input.Name, shapes.Shape{Dimensions: input.Shape, ElementBytes: input.ElementBytes}); err != nil {
			return shapes.Shape{}, err
		}
		return shapes.MakeWithElementBytes(input.ElementBytes, input.Shape...), nil
	}
	dtype := DefaultDType
	if input.DType != "" {
		var err error
		dtype, err = shapes.DTypeForName(input.DType)
		if err != nil {
			return shapes.Shape{}, errors.WithMessagef(err, "input %q", input.Name)
		}
	}
	if err := checkMemory(input.Name, shapes.Shape{DType: dtype, Dimensions: input.Shape}); err != nil {
		return shapes.Shape{}, err
	}
	return shapes.Make(dtype, input.Shape...), nil
}

// checkMemory fails for inputs too large to be measured, before shapes.Make panics on them.
func checkMemory(name string, shape shapes.Shape) error {
	if _, err := shape.CheckMemory(); err != nil {
		return errors.WithMessagef(err, "input %q", name)
	}
	return nil
}

// FromGraph converts a graph to its file representation. Inputs are sorted by name.
func FromGraph(g *graph.Graph) *File {
	f := &File{Outputs: g.Outputs}
	for _, name := range g.InputNames() {
		shape := g.Inputs[name]
		input := Input{Name: name, Shape: shape.Dimensions}
		if shape.ElementBytes > 0 {
			input.ElementBytes = shape.ElementBytes
		} else {
			input.DType = shape.DType.String()
		}
		f.Inputs = append(f.Inputs, input)
	}
	for _, op := range g.WalkOps() {
		var attrs map[string]any
		if len(op.Attrs) > 0 {
			attrs = make(map[string]any, len(op.Attrs))
			for key, value := range op.Attrs {
				if dtype, ok := value.(dtypes.DType); ok {
					value = dtype.String()
				}
				attrs[key] = value
			}
		}
		f.Ops = append(f.Ops, Op{
			Name:    op.Name,
			Type:    op.Type.String(),
			Inputs:  op.Inputs,
			Outputs: op.Outputs,
			Attrs:   attrs,
		})
	}
	return f
}

// Marshal the graph to YAML, in the format read by Parse.
func Marshal(g *graph.Graph) ([]byte, error) {
	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(FromGraph(g)); err != nil {
		return nil, errors.Wrap(err, "failed to encode graph")
	}
	if err := encoder.Close(); err != nil {
		return nil, errors.Wrap(err, "failed to encode graph")
	}
	return buf.Bytes(), nil
}
