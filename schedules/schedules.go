// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package schedules holds the catalog of candidate execution strategies ("schedules") the
// schedule pass chooses from.
//
// A Schedule is an immutable descriptor: its Kind selects how the cost model estimates it, its
// Name identifies it among the candidates, and an optional tile shape bounds the fast-memory
// footprint charged for each intermediate tensor.
//
// The catalog has exactly two entries: Naive() and MemoryAware().
package schedules

import (
	"fmt"
	"math"
	"math/bits"
	"slices"

	"github.com/gomlx/exceptions"
	"github.com/pkg/errors"
)

// Schedule describes one candidate execution strategy. Use the constructors to create it.
type Schedule struct {
	kind        Kind
	name        string
	description string
	tileShape   []int
}

// New creates a Schedule of the given kind. If name is empty, the kind's name is used.
//
// It panics if a tile shape is given for a naive schedule, if a tile dimension is not positive, or
// if the number of elements of the tile overflows an int64.
// The kind is not validated here: the cost model rejects kinds it doesn't know.
func New(kind Kind, name, description string, tileShape ...int) Schedule {
	if name == "" {
		name = kind.String()
	}
	if kind == KindNaive && len(tileShape) > 0 {
		exceptions.Panicf("schedules.New(%q): naive schedules can't have a tile shape, got %v", name, tileShape)
	}
	elements := uint64(1)
	for _, dim := range tileShape {
		if dim <= 0 {
			exceptions.Panicf("schedules.New(%q): tile dimensions must be > 0, got %v", name, tileShape)
		}
		hi, lo := bits.Mul64(elements, uint64(dim))
		if hi != 0 || lo > math.MaxInt64 {
			exceptions.Panicf("schedules.New(%q): number of elements of tile %v overflows int64", name, tileShape)
		}
		elements = lo
	}
	return Schedule{
		kind:        kind,
		name:        name,
		description: description,
		tileShape:   slices.Clone(tileShape),
	}
}

// Naive schedule: every intermediate is written to bulk memory after it is produced and read back
// before it is consumed.
func Naive() Schedule {
	return New(KindNaive, "", "materialize every intermediate tensor to DRAM")
}

// MemoryAware schedule: intermediates stay resident in fast memory during their whole lifetime.
func MemoryAware() Schedule {
	return New(KindMemoryAware, "", "keep intermediate tensors resident in SRAM")
}

// MemoryAwareTiled is a memory-aware schedule that only keeps a tile of each intermediate resident.
// Its name includes the tile shape, e.g. "memory_aware_tile_64x64".
func MemoryAwareTiled(tileShape ...int) Schedule {
	if len(tileShape) == 0 {
		exceptions.Panicf("schedules.MemoryAwareTiled() requires a tile shape")
	}
	name := KindMemoryAware.String() + "_tile"
	for ii, dim := range tileShape {
		if ii == 0 {
			name += fmt.Sprintf("_%d", dim)
		} else {
			name += fmt.Sprintf("x%d", dim)
		}
	}
	return New(KindMemoryAware, name, fmt.Sprintf("keep %v tiles of intermediate tensors resident in SRAM", tileShape), tileShape...)
}

// Catalog returns the default candidate schedules: naive and memory_aware.
func Catalog() []Schedule {
	return []Schedule{Naive(), MemoryAware()}
}

// ByName returns the catalog schedule with the given name.
func ByName(name string) (Schedule, error) {
	for _, s := range Catalog() {
		if s.Name() == name {
			return s, nil
		}
	}
	return Schedule{}, errors.Errorf("unknown schedule %q, the catalog has %q", name, CatalogNames())
}

// CatalogNames returns the names of the schedules in Catalog.
func CatalogNames() []string {
	var names []string
	for _, s := range Catalog() {
		names = append(names, s.Name())
	}
	return names
}

// Kind of the schedule.
func (s Schedule) Kind() Kind { return s.kind }

// Name of the schedule, unique among candidates.
func (s Schedule) Name() string { return s.name }

// Description is a human-readable summary of the strategy.
func (s Schedule) Description() string { return s.description }

// TileShape returns a copy of the tile shape, or nil if the schedule is not tiled.
func (s Schedule) TileShape() []int { return slices.Clone(s.tileShape) }

// IsTiled returns whether the schedule has a tile shape.
func (s Schedule) IsTiled() bool { return len(s.tileShape) > 0 }

// TileElements returns the number of elements in a tile, or 0 if the schedule is not tiled.
func (s Schedule) TileElements() int64 {
	if !s.IsTiled() {
		return 0
	}
	n := int64(1)
	for _, dim := range s.tileShape {
		n *= int64(dim)
	}
	return n
}

// String implements fmt.Stringer.
func (s Schedule) String() string {
	if s.IsTiled() {
		return fmt.Sprintf("%s(%s, tile=%v)", s.name, s.kind, s.tileShape)
	}
	if s.name == s.kind.String() {
		return s.name
	}
	return fmt.Sprintf("%s(%s)", s.name, s.kind)
}

// Equal returns whether both schedules have the same kind, name and tile shape.
func (s Schedule) Equal(s2 Schedule) bool {
	return s.kind == s2.kind && s.name == s2.name && slices.Equal(s.tileShape, s2.tileShape)
}
