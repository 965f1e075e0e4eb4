// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package shapeinference calculates the shape resulting from operations and validates its inputs.
//
// There is one function per supported operation. They take the operand shapes and the
// static parameters of the op, and return the output shape or an error describing why the
// operands are not acceptable.
package shapeinference

import (
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/gomlx/memsched/types/shapes"
	"github.com/pkg/errors"
)

// LinearOp returns the output shape of a dense (fully connected) layer applied on the last
// axis of operand: the output is the operand shape with its last dimension replaced by outFeatures.
//
// If outputDType is dtypes.InvalidDType the output keeps the element type of the operand.
func LinearOp(operand shapes.Shape, inFeatures, outFeatures int, outputDType dtypes.DType) (output shapes.Shape, err error) {
	if !operand.Ok() {
		err = errors.Errorf("invalid operand shape %s for Linear", operand)
		return
	}
	if inFeatures <= 0 || outFeatures <= 0 {
		err = errors.Errorf("Linear requires in_features and out_features > 0, got in_features=%d, out_features=%d",
			inFeatures, outFeatures)
		return
	}
	if operand.IsScalar() {
		err = errors.Errorf("Linear requires an operand with at least one axis, got scalar %s", operand)
		return
	}
	if lastDim := operand.Dim(-1); lastDim != inFeatures {
		err = errors.Errorf("Linear operand %s has last dimension %d, but in_features=%d", operand, lastDim, inFeatures)
		return
	}
	output = operand.WithLastDim(outFeatures)
	if outputDType != dtypes.InvalidDType {
		output.DType = outputDType
		output.ElementBytes = 0
	}
	if _, err = output.CheckMemory(); err != nil {
		err = errors.WithMessage(err, "Linear output")
		output = shapes.Shape{}
	}
	return
}

// ActivationOp returns the output shape of an elementwise activation (GELU, ReLU, ...):
// it is the same as the operand.
func ActivationOp(operand shapes.Shape) (output shapes.Shape, err error) {
	if !operand.Ok() {
		err = errors.Errorf("invalid operand shape %s for elementwise activation", operand)
		return
	}
	output = operand.Clone()
	return
}
