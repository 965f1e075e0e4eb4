// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package graph

import "github.com/pkg/errors"

// Structural graph errors. They are returned wrapped with the name of the offending op and
// tensor, use errors.Is to test for them.
var (
	// ErrMissingInput is returned when an op input doesn't resolve to a graph input or
	// to the output of an earlier op.
	ErrMissingInput = errors.New("missing input tensor")

	// ErrOutputCountMismatch is returned when the number of output names of an op differs from
	// the number of tensors its shape inference produces.
	ErrOutputCountMismatch = errors.New("output count mismatch")

	// ErrNotImplemented is returned for op types without a shape inference rule.
	ErrNotImplemented = errors.New("not implemented")

	// ErrNameCollision is returned when an op output reuses the name of a graph input or of
	// an earlier op output.
	ErrNameCollision = errors.New("tensor name collision")

	// ErrInvalidAttribute is returned for missing or malformed op attributes, and for ops with
	// the wrong number of inputs.
	ErrInvalidAttribute = errors.New("invalid op attribute")

	// ErrUnknownOutput is returned when a graph output is not produced by any op.
	ErrUnknownOutput = errors.New("unknown graph output")
)
