// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package graph

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/gomlx/memsched/shapeinference"
	"github.com/gomlx/memsched/types/shapes"
	"github.com/pkg/errors"
)

// Attribute names used by the supported op types.
const (
	AttrInFeatures  = "in_features"
	AttrOutFeatures = "out_features"
	AttrDType       = "dtype"
)

// Op is one operator instance in the Graph: it consumes the tensors named in Inputs and
// produces the tensors named in Outputs.
type Op struct {
	Name    string
	Type    OpType
	Inputs  []string
	Outputs []string

	// Attrs holds static parameters of the op: numeric or string values.
	Attrs map[string]any
}

// Linear creates a Linear op reading input and writing output.
func Linear(name, input, output string, inFeatures, outFeatures int) *Op {
	return &Op{
		Name:    name,
		Type:    OpTypeLinear,
		Inputs:  []string{input},
		Outputs: []string{output},
		Attrs: map[string]any{
			AttrInFeatures:  inFeatures,
			AttrOutFeatures: outFeatures,
		},
	}
}

// GELU creates a GELU activation op reading input and writing output.
func GELU(name, input, output string) *Op {
	return &Op{
		Name:    name,
		Type:    OpTypeGELU,
		Inputs:  []string{input},
		Outputs: []string{output},
	}
}

// String implements fmt.Stringer.
func (op *Op) String() string {
	return fmt.Sprintf("%s %q(%s) -> (%s)", op.Type, op.Name,
		strings.Join(op.Inputs, ", "), strings.Join(op.Outputs, ", "))
}

// Clone returns a copy of the op that doesn't share slices or attributes with it.
func (op *Op) Clone() Op {
	newOp := *op
	newOp.Inputs = slices.Clone(op.Inputs)
	newOp.Outputs = slices.Clone(op.Outputs)
	if op.Attrs != nil {
		newOp.Attrs = make(map[string]any, len(op.Attrs))
		for k, v := range op.Attrs {
			newOp.Attrs[k] = v
		}
	}
	return newOp
}

// IntAttr returns the integer attribute with the given name.
//
// Any Go integer type is accepted, as well as integral float values, which is what
// JSON or YAML decoders may produce.
func (op *Op) IntAttr(name string) (int, error) {
	value, found := op.Attrs[name]
	if !found {
		return 0, errors.Wrapf(ErrInvalidAttribute, "op %q (%s): missing required attribute %q", op.Name, op.Type, name)
	}
	switch v := value.(type) {
	case int:
		return v, nil
	case int8:
		return int(v), nil
	case int16:
		return int(v), nil
	case int32:
		return int(v), nil
	case int64:
		return int(v), nil
	case uint:
		if uint64(v) <= math.MaxInt {
			return int(v), nil
		}
	case uint8:
		return int(v), nil
	case uint16:
		return int(v), nil
	case uint32:
		if uint64(v) <= math.MaxInt {
			return int(v), nil
		}
	case uint64:
		if v <= math.MaxInt {
			return int(v), nil
		}
	case float32:
		if f := float64(v); isIntegral(f) {
			return int(f), nil
		}
	case float64:
		if isIntegral(v) {
			return int(v), nil
		}
	}
	return 0, errors.Wrapf(ErrInvalidAttribute, "op %q (%s): attribute %q must be an integer, got %T(%v)",
		op.Name, op.Type, name, value, value)
}

// isIntegral returns whether f is a whole number within the range of int.
// The upper bound is -MinInt: MaxInt is not exactly representable as a float64.
func isIntegral(f float64) bool {
	return f == math.Trunc(f) && f >= math.MinInt && f < -float64(math.MinInt)
}

// DTypeAttr returns the dtype attribute with the given name, if present. The value can be a
// dtypes.DType or the name of one.
func (op *Op) DTypeAttr(name string) (dtype dtypes.DType, found bool, err error) {
	value, found := op.Attrs[name]
	if !found {
		return dtypes.InvalidDType, false, nil
	}
	switch v := value.(type) {
	case dtypes.DType:
		dtype = v
	case string:
		dtype, err = shapes.DTypeForName(v)
		if err != nil {
			err = errors.Wrapf(ErrInvalidAttribute, "op %q (%s): attribute %q: %v", op.Name, op.Type, name, err)
			return
		}
	default:
		err = errors.Wrapf(ErrInvalidAttribute, "op %q (%s): attribute %q must be a dtype or dtype name, got %T(%v)",
			op.Name, op.Type, name, value, value)
	}
	return
}

// positiveIntAttr is IntAttr that also requires the value to be > 0.
func (op *Op) positiveIntAttr(name string) (int, error) {
	value, err := op.IntAttr(name)
	if err != nil {
		return 0, err
	}
	if value <= 0 {
		return 0, errors.Wrapf(ErrInvalidAttribute, "op %q (%s): attribute %q must be > 0, got %d",
			op.Name, op.Type, name, value)
	}
	return value, nil
}

// inferShapes returns the shapes of the outputs of the op, given the shapes of its inputs.
func (op *Op) inferShapes(inputs []shapes.Shape) ([]shapes.Shape, error) {
	switch op.Type {
	case OpTypeLinear:
		if err := op.checkNumInputs(inputs, 1); err != nil {
			return nil, err
		}
		inFeatures, err := op.positiveIntAttr(AttrInFeatures)
		if err != nil {
			return nil, err
		}
		outFeatures, err := op.positiveIntAttr(AttrOutFeatures)
		if err != nil {
			return nil, err
		}
		outputDType, _, err := op.DTypeAttr(AttrDType)
		if err != nil {
			return nil, err
		}
		output, err := shapeinference.LinearOp(inputs[0], inFeatures, outFeatures, outputDType)
		if err != nil {
			return nil, errors.WithMessagef(err, "op %q", op.Name)
		}
		return []shapes.Shape{output}, nil

	case OpTypeGELU:
		if err := op.checkNumInputs(inputs, 1); err != nil {
			return nil, err
		}
		output, err := shapeinference.ActivationOp(inputs[0])
		if err != nil {
			return nil, errors.WithMessagef(err, "op %q", op.Name)
		}
		return []shapes.Shape{output}, nil

	default:
		return nil, errors.Wrapf(ErrNotImplemented, "shape inference for op type %s (op %q)", op.Type, op.Name)
	}
}

func (op *Op) checkNumInputs(inputs []shapes.Shape, want int) error {
	if len(inputs) != want {
		return errors.Wrapf(ErrInvalidAttribute, "op %q (%s) takes %d input(s), got %d",
			op.Name, op.Type, want, len(inputs))
	}
	return nil
}
