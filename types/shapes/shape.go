// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package shapes defines Shape, the static description of a tensor flowing through a
// computation graph: its dimensions and its element type.
//
// The element type is usually a DType (see github.com/gomlx/gopjrt/dtypes), but an
// explicit element width in bytes can be given instead, for storage formats that
// don't have a DType (e.g. packed or quantized blocks).
//
// ## Glossary
//
//   - Rank: number of axes (dimensions) of a tensor.
//   - Dimension: the size of a tensor in one of its axes.
//   - Size: number of elements, the product of all dimensions (1 for a scalar).
//   - Memory: bytes used to store the tensor, Size times the element width.
//   - Scalar: a shape with no axes, holding a single element.
//
// Example: `shapes.Make(dtypes.Float16, 2, 4)` is a rank-2 float16 tensor with 8 elements
// that takes 16 bytes.
package shapes

import (
	"fmt"
	"math"
	"math/bits"
	"slices"
	"strings"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/pkg/errors"
)

// ErrTooLarge is returned when the number of elements or bytes of a shape doesn't fit an int64.
var ErrTooLarge = errors.New("shape too large")

// Shape represents the shape of a tensor in the graph.
//
// Use Make or MakeWithElementBytes to create a new shape.
type Shape struct {
	DType      dtypes.DType
	Dimensions []int

	// ElementBytes, if > 0, overrides the element width given by DType.
	ElementBytes int
}

// Make returns a Shape structure filled with the values given.
//
// A dimension of 0 is accepted and yields an empty tensor (Memory() == 0). Negative
// dimensions, or shapes whose memory doesn't fit an int64 (see CheckMemory), panic.
func Make(dtype dtypes.DType, dimensions ...int) Shape {
	s := Shape{Dimensions: slices.Clone(dimensions), DType: dtype}
	for _, dim := range dimensions {
		if dim < 0 {
			exceptions.Panicf("shapes.Make(%s): cannot create a shape with an axis with negative dimension", s)
		}
	}
	if _, err := s.CheckMemory(); err != nil {
		exceptions.Panicf("shapes.Make(%s): %v", s, err)
	}
	return s
}

// MakeWithElementBytes returns a Shape whose elements take elementBytes bytes each, without
// an associated DType.
func MakeWithElementBytes(elementBytes int, dimensions ...int) Shape {
	if elementBytes <= 0 {
		exceptions.Panicf("shapes.MakeWithElementBytes(%d, %v): element width must be > 0", elementBytes, dimensions)
	}
	s := Make(dtypes.InvalidDType, dimensions...)
	s.ElementBytes = elementBytes
	if _, err := s.CheckMemory(); err != nil {
		exceptions.Panicf("shapes.MakeWithElementBytes(%d, %v): %v", elementBytes, dimensions, err)
	}
	return s
}

// Scalar returns a scalar Shape for the given dtype.
func Scalar(dtype dtypes.DType) Shape {
	return Shape{DType: dtype}
}

// Ok returns whether this is a valid Shape: it needs either a DType or an explicit element width.
func (s Shape) Ok() bool { return s.DType != dtypes.InvalidDType || s.ElementBytes > 0 }

// Rank of the shape, that is, the number of dimensions.
func (s Shape) Rank() int { return len(s.Dimensions) }

// IsScalar returns whether the shape represents a scalar, that is there are no dimensions (rank==0).
func (s Shape) IsScalar() bool { return s.Ok() && s.Rank() == 0 }

// Dim returns the dimension of the given axis. axis can take negative numbers, in which
// case it counts as starting from the end -- so axis=-1 refers to the last axis.
// Like with a slice indexing, it panics for an out-of-bound axis.
func (s Shape) Dim(axis int) int {
	adjustedAxis := axis
	if adjustedAxis < 0 {
		adjustedAxis += s.Rank()
	}
	if adjustedAxis < 0 || adjustedAxis >= s.Rank() {
		exceptions.Panicf("Shape.Dim(%d) out-of-bounds for rank %d (shape=%s)", axis, s.Rank(), s)
	}
	return s.Dimensions[adjustedAxis]
}

// Shape returns a shallow copy of itself.
func (s Shape) Shape() Shape { return s }

// String implements stringer, pretty-prints the shape.
func (s Shape) String() string {
	elem := s.DType.String()
	if s.ElementBytes > 0 {
		elem = fmt.Sprintf("%dB", s.ElementBytes)
	}
	if s.Rank() == 0 {
		return fmt.Sprintf("(%s)", elem)
	}
	return fmt.Sprintf("(%s)%v", elem, s.Dimensions)
}

// Size returns the number of elements of the shape: the product of all dimensions.
// It panics if the product overflows, which shapes created with Make never do.
func (s Shape) Size() int {
	size, err := s.checkedSize()
	if err != nil {
		exceptions.Panicf("Shape.Size(): %v", err)
	}
	return int(size)
}

// checkedSize returns the product of the dimensions, or an error wrapping ErrTooLarge.
func (s Shape) checkedSize() (int64, error) {
	for _, d := range s.Dimensions {
		if d < 0 {
			return 0, errors.Errorf("shape %s has a negative dimension", s)
		}
	}
	if slices.Contains(s.Dimensions, 0) {
		return 0, nil
	}
	size := uint64(1)
	for _, d := range s.Dimensions {
		hi, lo := bits.Mul64(size, uint64(d))
		if hi != 0 || lo > math.MaxInt {
			return 0, errors.Wrapf(ErrTooLarge, "number of elements of %s overflows", s)
		}
		size = lo
	}
	return int64(size), nil
}

// CheckMemory returns Memory(), or an error wrapping ErrTooLarge if the number of elements
// or the number of bytes overflows an int64.
func (s Shape) CheckMemory() (int64, error) {
	size, err := s.checkedSize()
	if err != nil {
		return 0, err
	}
	hi, lo := bits.Mul64(uint64(size), uint64(s.ElementSize()))
	if hi != 0 || lo > math.MaxInt64 {
		return 0, errors.Wrapf(ErrTooLarge, "memory of %s (%d elements of %d bytes) overflows int64",
			s, size, s.ElementSize())
	}
	return int64(lo), nil
}

// ElementSize returns the number of bytes of one element.
func (s Shape) ElementSize() int {
	if s.ElementBytes > 0 {
		return s.ElementBytes
	}
	if s.DType == dtypes.InvalidDType {
		return 0
	}
	return s.DType.Size()
}

// Memory returns the number of bytes needed to store a tensor of this shape.
// It panics if it overflows an int64, which shapes created with Make never do. See CheckMemory.
func (s Shape) Memory() int64 {
	memory, err := s.CheckMemory()
	if err != nil {
		exceptions.Panicf("Shape.Memory(): %v", err)
	}
	return memory
}

// WithLastDim returns a copy of the shape with its last axis set to dim.
// It panics for scalars.
func (s Shape) WithLastDim(dim int) Shape {
	if s.Rank() == 0 {
		exceptions.Panicf("Shape.WithLastDim(%d) called on scalar shape %s", dim, s)
	}
	s2 := s.Clone()
	s2.Dimensions[s2.Rank()-1] = dim
	return s2
}

// Equal compares two shapes for equality: element type and dimensions are compared.
func (s Shape) Equal(s2 Shape) bool {
	if s.DType != s2.DType || s.ElementBytes != s2.ElementBytes {
		return false
	}
	return slices.Equal(s.Dimensions, s2.Dimensions)
}

// Clone returns a new deep copy of the shape.
func (s Shape) Clone() (s2 Shape) {
	s2 = s
	s2.Dimensions = slices.Clone(s.Dimensions)
	return
}

// DTypeForName returns the DType with the given name, e.g. "Float16", "float32" or "BF16".
// Matching is case-insensitive.
func DTypeForName(name string) (dtypes.DType, error) {
	dtype, found := dtypes.MapOfNames[name]
	if !found {
		for key, candidate := range dtypes.MapOfNames {
			if strings.EqualFold(key, name) {
				dtype, found = candidate, true
				break
			}
		}
	}
	if !found || dtype == dtypes.InvalidDType {
		return dtypes.InvalidDType, errors.Errorf("unknown dtype name %q", name)
	}
	return dtype, nil
}
