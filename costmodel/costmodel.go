// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package costmodel estimates, for a graph and a schedule, how many bytes move through bulk
// memory (DRAM) and the peak number of bytes held in fast memory (SRAM).
//
// The estimates depend only on the tensor sizes found by graph.Graph.InferShapes:
//
//   - Naive schedules write every intermediate tensor to DRAM and read it back, and hold at most
//     one tensor at a time in SRAM.
//   - Memory-aware schedules keep all intermediates resident in SRAM at once (or a tile of each
//     of them, if the schedule is tiled) and never move them through DRAM.
//
// Both always read the graph inputs from DRAM and write the graph outputs to DRAM.
//
// EvaluateSchedule combines both estimates with the hardware capacity into a ScheduleCost,
// whose PenalizedCost is used to rank candidates.
package costmodel

import (
	"fmt"
	"math"
	"strings"

	"github.com/gomlx/memsched/graph"
	"github.com/gomlx/memsched/hardware"
	"github.com/gomlx/memsched/schedules"
	"github.com/gomlx/memsched/types/shapes"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// ErrUnknownSchedule is returned when asked to estimate a schedule whose kind the cost model
// doesn't know. It indicates a bug in how candidates were created.
var ErrUnknownSchedule = errors.New("unknown schedule")

// ErrInvalidPenalty is returned for infeasible penalties that are negative, or that overflow an
// int64 when added to the DRAM traffic of a candidate.
var ErrInvalidPenalty = errors.New("invalid infeasible penalty")

// DefaultInfeasiblePenalty is the usual value for the infeasiblePenalty parameter: larger than
// any realistic DRAM traffic, so that feasible schedules always rank first.
const DefaultInfeasiblePenalty int64 = 1_000_000_000_000_000

// Names of the terms in the estimates breakdowns.
const (
	TermInputRead            = "input_read"
	TermIntermediateWrite    = "intermediate_write"
	TermIntermediateRead     = "intermediate_read"
	TermOutputWrite          = "output_write"
	TermPeakSingleTensor     = "peak_single_tensor"
	TermIntermediateResident = "intermediate_resident"
	TermTileShapeElements    = "tile_shape_elems"
)

// Term is one named component of an estimate.
type Term struct {
	Name  string
	Value int64
}

// Breakdown of an estimate in named terms, in a fixed order.
type Breakdown []Term

// Get returns the value of the term with the given name.
func (b Breakdown) Get(name string) (value int64, found bool) {
	for _, term := range b {
		if term.Name == name {
			return term.Value, true
		}
	}
	return 0, false
}

// String implements fmt.Stringer.
func (b Breakdown) String() string {
	parts := make([]string, 0, len(b))
	for _, term := range b {
		parts = append(parts, fmt.Sprintf("%s=%d", term.Name, term.Value))
	}
	return strings.Join(parts, ", ")
}

// DRAMEstimate is the bulk-memory traffic of a schedule. The Breakdown has the terms
// TermInputRead, TermIntermediateWrite, TermIntermediateRead and TermOutputWrite, which
// add up to TotalBytes.
type DRAMEstimate struct {
	TotalBytes int64
	Breakdown  Breakdown
}

// String implements fmt.Stringer.
func (e DRAMEstimate) String() string {
	return fmt.Sprintf("DRAM(total=%d, %s)", e.TotalBytes, e.Breakdown)
}

// SRAMEstimate is the peak fast-memory occupancy of a schedule.
// The Breakdown terms depend on the schedule kind.
type SRAMEstimate struct {
	PeakBytes int64
	Breakdown Breakdown
}

// String implements fmt.Stringer.
func (e SRAMEstimate) String() string {
	return fmt.Sprintf("SRAM(peak=%d, %s)", e.PeakBytes, e.Breakdown)
}

// ScheduleCost is the evaluation of one schedule on a graph and hardware.
type ScheduleCost struct {
	Schedule schedules.Schedule
	DRAM     DRAMEstimate
	SRAM     SRAMEstimate

	// Feasible is whether SRAM.PeakBytes fits the hardware fast-memory capacity.
	Feasible bool

	// PenalizedCost is DRAM.TotalBytes, plus the infeasible penalty if not Feasible.
	PenalizedCost int64
}

// String implements fmt.Stringer.
func (c ScheduleCost) String() string {
	feasibility := "feasible"
	if !c.Feasible {
		feasibility = "infeasible"
	}
	return fmt.Sprintf("%s: %s, dram=%d, peak_sram=%d", c.Schedule.Name(), feasibility, c.DRAM.TotalBytes, c.SRAM.PeakBytes)
}

// analysis holds what the estimates need to know about a graph.
type analysis struct {
	g             *graph.Graph
	tensors       map[string]shapes.Shape
	intermediates []string
}

func analyze(g *graph.Graph) (*analysis, error) {
	tensors, err := g.InferShapes()
	if err != nil {
		return nil, err
	}
	return &analysis{g: g, tensors: tensors, intermediates: g.Intermediates()}, nil
}

func unknownScheduleError(s schedules.Schedule) error {
	return errors.Wrapf(ErrUnknownSchedule, "schedule %q has kind %s, the cost model only knows %q",
		s.Name(), s.Kind(), []string{schedules.KindNaive.String(), schedules.KindMemoryAware.String()})
}

// EstimateDRAMBytes returns the bulk-memory traffic of running g with schedule s.
//
// It fails if the graph is malformed (see graph.Graph.InferShapes) or with ErrUnknownSchedule.
func EstimateDRAMBytes(g *graph.Graph, s schedules.Schedule) (DRAMEstimate, error) {
	a, err := analyze(g)
	if err != nil {
		return DRAMEstimate{}, err
	}
	return a.dram(s)
}

// EstimatePeakSRAMBytes returns the peak fast-memory occupancy of running g with schedule s.
//
// It fails if the graph is malformed (see graph.Graph.InferShapes) or with ErrUnknownSchedule.
func EstimatePeakSRAMBytes(g *graph.Graph, s schedules.Schedule) (SRAMEstimate, error) {
	a, err := analyze(g)
	if err != nil {
		return SRAMEstimate{}, err
	}
	return a.sram(s)
}

// byteCounter sums non-negative byte counts, remembering if the sum overflowed an int64.
type byteCounter struct {
	total    int64
	overflow bool
}

func (c *byteCounter) add(n int64) {
	if c.overflow || n > math.MaxInt64-c.total {
		c.overflow = true
		return
	}
	c.total += n
}

func overflowError(s schedules.Schedule, what string) error {
	return errors.Wrapf(shapes.ErrTooLarge, "schedule %q: %s overflows int64", s.Name(), what)
}

func (a *analysis) dram(s schedules.Schedule) (DRAMEstimate, error) {
	var inputRead, outputWrite, intermediates byteCounter
	for _, shape := range a.g.Inputs {
		inputRead.add(shape.Memory())
	}
	for _, name := range a.g.Outputs {
		outputWrite.add(a.tensors[name].Memory())
	}

	switch s.Kind() {
	case schedules.KindNaive:
		// Every intermediate is written once and read back once.
		for _, name := range a.intermediates {
			intermediates.add(a.tensors[name].Memory())
		}
	case schedules.KindMemoryAware:
		// Intermediates never leave SRAM.
	default:
		return DRAMEstimate{}, unknownScheduleError(s)
	}
	var total byteCounter
	for _, term := range []byteCounter{inputRead, outputWrite, intermediates, intermediates} {
		total.add(term.total)
		total.overflow = total.overflow || term.overflow
	}
	if total.overflow {
		return DRAMEstimate{}, overflowError(s, "DRAM traffic")
	}
	estimate := DRAMEstimate{
		TotalBytes: total.total,
		Breakdown: Breakdown{
			{TermInputRead, inputRead.total},
			{TermIntermediateWrite, intermediates.total},
			{TermIntermediateRead, intermediates.total},
			{TermOutputWrite, outputWrite.total},
		},
	}
	if klog.V(2).Enabled() {
		klog.Infof("costmodel: schedule %q: %s", s.Name(), estimate)
	}
	return estimate, nil
}

func (a *analysis) sram(s schedules.Schedule) (SRAMEstimate, error) {
	var estimate SRAMEstimate
	switch s.Kind() {
	case schedules.KindNaive:
		// Only one tensor at a time: the peak is the largest tensor, graph inputs included.
		var peak int64
		for _, shape := range a.tensors {
			peak = max(peak, shape.Memory())
		}
		estimate = SRAMEstimate{PeakBytes: peak, Breakdown: Breakdown{{TermPeakSingleTensor, peak}}}

	case schedules.KindMemoryAware:
		// All intermediates are resident at the same time.
		var resident byteCounter
		for _, name := range a.intermediates {
			resident.add(effectiveBytes(a.tensors[name], s))
		}
		if resident.overflow {
			return SRAMEstimate{}, overflowError(s, "SRAM occupancy")
		}
		estimate = SRAMEstimate{PeakBytes: resident.total, Breakdown: Breakdown{{TermIntermediateResident, resident.total}}}
		if s.IsTiled() {
			estimate.Breakdown = append(estimate.Breakdown, Term{TermTileShapeElements, s.TileElements()})
		}

	default:
		return SRAMEstimate{}, unknownScheduleError(s)
	}
	if klog.V(2).Enabled() {
		klog.Infof("costmodel: schedule %q: %s", s.Name(), estimate)
	}
	return estimate, nil
}

// effectiveBytes is the fast-memory footprint charged for a tensor: its full size, or the size of
// one tile of it if the schedule is tiled. Tiling never increases the footprint.
func effectiveBytes(shape shapes.Shape, s schedules.Schedule) int64 {
	fullBytes := shape.Memory()
	if !s.IsTiled() {
		return fullBytes
	}
	numElements := int64(shape.Size())
	if numElements == 0 {
		return 0
	}
	if s.TileElements() >= numElements {
		return fullBytes
	}
	return s.TileElements() * (fullBytes / numElements)
}

// EvaluateSchedule estimates schedule s for graph g on hardware hw.
//
// The schedule is feasible if its peak SRAM occupancy is <= hw.SRAMBytes. Its PenalizedCost is
// its DRAM traffic, plus infeasiblePenalty if it is not feasible. Usually DefaultInfeasiblePenalty
// is used.
func EvaluateSchedule(g *graph.Graph, s schedules.Schedule, hw hardware.Config, infeasiblePenalty int64) (ScheduleCost, error) {
	costs, err := Evaluate(g, hw, infeasiblePenalty, s)
	if err != nil {
		return ScheduleCost{}, err
	}
	return costs[0], nil
}

// Evaluate is like EvaluateSchedule for several candidates at once: shape inference runs only once.
// The costs are returned in the order of the candidates.
func Evaluate(g *graph.Graph, hw hardware.Config, infeasiblePenalty int64, candidates ...schedules.Schedule) ([]ScheduleCost, error) {
	if err := hw.Validate(); err != nil {
		return nil, err
	}
	if infeasiblePenalty < 0 {
		return nil, errors.Wrapf(ErrInvalidPenalty, "infeasible penalty must be >= 0, got %d", infeasiblePenalty)
	}
	a, err := analyze(g)
	if err != nil {
		return nil, err
	}
	costs := make([]ScheduleCost, 0, len(candidates))
	for _, s := range candidates {
		cost, err := a.evaluate(s, hw)
		if err != nil {
			return nil, err
		}
		costs = append(costs, cost)
	}
	// The penalty must fit on top of the DRAM traffic of every candidate, feasible or not.
	for _, cost := range costs {
		if infeasiblePenalty > math.MaxInt64-cost.DRAM.TotalBytes {
			return nil, errors.Wrapf(ErrInvalidPenalty,
				"infeasible penalty %d plus the DRAM traffic %d of schedule %q overflows int64",
				infeasiblePenalty, cost.DRAM.TotalBytes, cost.Schedule.Name())
		}
	}
	for ii := range costs {
		if !costs[ii].Feasible {
			costs[ii].PenalizedCost += infeasiblePenalty
		}
	}
	return costs, nil
}

// evaluate returns the cost of s, with PenalizedCost not yet penalized.
func (a *analysis) evaluate(s schedules.Schedule, hw hardware.Config) (ScheduleCost, error) {
	dram, err := a.dram(s)
	if err != nil {
		return ScheduleCost{}, err
	}
	sram, err := a.sram(s)
	if err != nil {
		return ScheduleCost{}, err
	}
	cost := ScheduleCost{
		Schedule:      s,
		DRAM:          dram,
		SRAM:          sram,
		Feasible:      sram.PeakBytes <= hw.SRAMBytes,
		PenalizedCost: dram.TotalBytes,
	}
	return cost, nil
}

// EvaluateCandidates evaluates the catalog schedules (see schedules.Catalog), and returns the
// costs keyed by schedule name ("naive" and "memory_aware").
func EvaluateCandidates(g *graph.Graph, hw hardware.Config, infeasiblePenalty int64) (map[string]ScheduleCost, error) {
	costs, err := Evaluate(g, hw, infeasiblePenalty, schedules.Catalog()...)
	if err != nil {
		return nil, err
	}
	costsMap := make(map[string]ScheduleCost, len(costs))
	for _, cost := range costs {
		costsMap[cost.Schedule.Name()] = cost
	}
	return costsMap, nil
}
