// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package shapeinference

import (
	"testing"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/gomlx/memsched/types/shapes"
	"github.com/stretchr/testify/require"
)

// Aliases
var (
	F16 = dtypes.Float16
	F32 = dtypes.Float32

	MS = shapes.Make
)

// must1 panics if there is an error.
func must1[T any](value T, err error) T {
	if err != nil {
		panic(err)
	}
	return value
}

func TestLinearOp(t *testing.T) {
	// Last axis is replaced, dtype kept.
	output := must1(LinearOp(MS(F16, 2, 4), 4, 2, dtypes.InvalidDType))
	require.True(t, MS(F16, 2, 2).Equal(output))

	// Higher rank operands only touch the last axis.
	output = must1(LinearOp(MS(F16, 3, 7, 8), 8, 16, dtypes.InvalidDType))
	require.True(t, MS(F16, 3, 7, 16).Equal(output))

	// Explicit output dtype.
	output = must1(LinearOp(MS(F16, 2, 4), 4, 4, F32))
	require.True(t, MS(F32, 2, 4).Equal(output))

	// Explicit output dtype drops an explicit element width.
	output = must1(LinearOp(shapes.MakeWithElementBytes(3, 2, 4), 4, 4, F32))
	require.Equal(t, 4, output.ElementSize())

	// Mismatched in_features.
	_, err := LinearOp(MS(F16, 2, 4), 8, 2, dtypes.InvalidDType)
	require.ErrorContains(t, err, "in_features=8")

	// Invalid features and operands.
	_, err = LinearOp(MS(F16, 2, 4), 4, 0, dtypes.InvalidDType)
	require.Error(t, err)
	_, err = LinearOp(MS(F16), 1, 1, dtypes.InvalidDType)
	require.Error(t, err)
	_, err = LinearOp(shapes.Shape{}, 1, 1, dtypes.InvalidDType)
	require.Error(t, err)
}

func TestActivationOp(t *testing.T) {
	operand := MS(F16, 2, 16)
	output := must1(ActivationOp(operand))
	require.True(t, operand.Equal(output))

	_, err := ActivationOp(shapes.Shape{})
	require.Error(t, err)
}
