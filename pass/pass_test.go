// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package pass

import (
	"math"
	"testing"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/gomlx/memsched/costmodel"
	"github.com/gomlx/memsched/graph"
	"github.com/gomlx/memsched/hardware"
	"github.com/gomlx/memsched/schedules"
	"github.com/gomlx/memsched/types/shapes"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	KiB = 1024
	MiB = 1024 * KiB
)

func feedForward(batch, hidden, ff int) *graph.Graph {
	return graph.New(
		map[string]shapes.Shape{"x": shapes.Make(dtypes.Float16, batch, hidden)},
		[]string{"linear2"},
		graph.Linear("linear1", "x", "linear1", hidden, ff),
		graph.GELU("gelu", "linear1", "gelu"),
		graph.Linear("linear2", "gelu", "linear2", ff, hidden),
	)
}

var scheduleComparer = cmp.Comparer(func(a, b schedules.Schedule) bool { return a.Equal(b) })

func TestSmallChain(t *testing.T) {
	g := graph.New(
		map[string]shapes.Shape{"x": shapes.Make(dtypes.Float16, 2, 4)},
		[]string{"linear2"},
		graph.Linear("linear1", "x", "linear1", 4, 4),
		graph.GELU("gelu", "linear1", "gelu"),
		graph.Linear("linear2", "gelu", "linear2", 4, 2),
	)
	tensors, err := g.InferShapes()
	require.NoError(t, err)
	assert.Equal(t, []int{2, 2}, tensors["linear2"].Dimensions)

	result, err := Run(g, hardware.New("1kib", KiB))
	require.NoError(t, err)
	assert.Contains(t, []string{"naive", "memory_aware"}, result.Chosen.Name())
	assert.True(t, result.ChosenCost().Feasible)
	assert.Len(t, result.Costs, 2)

	// Both fit: memory_aware moves fewer bytes.
	assert.Equal(t, "memory_aware", result.Chosen.Name())
	assert.Equal(t, ReasonLowerDRAM, result.Reason.Kind)
	assert.Equal(t, int64(16+8), result.Costs["memory_aware"].DRAM.TotalBytes)
	assert.Equal(t, int64(16+8+2*(16+16)), result.Costs["naive"].DRAM.TotalBytes)
}

func TestScaledChain(t *testing.T) {
	g := feedForward(32, 4096, 16384)

	// memory_aware needs 2 MiB of SRAM for the intermediates.
	result, err := Run(g, hardware.New("1mib_sram", MiB))
	require.NoError(t, err)
	assert.Equal(t, "naive", result.Chosen.Name())
	assert.Equal(t, schedules.KindNaive, result.Chosen.Kind())
	assert.True(t, result.ChosenCost().Feasible)
	assert.False(t, result.Costs["memory_aware"].Feasible)
	reason := result.Reason
	assert.Equal(t, ReasonAlternativesInfeasible, reason.Kind)
	assert.Nil(t, reason.Alternative)
	require.Len(t, reason.Violations, 1)
	assert.Equal(t, "memory_aware", reason.Violations[0].Name)
	assert.Equal(t, int64(2*MiB), reason.Violations[0].PeakSRAMBytes)
	assert.Equal(t, int64(MiB), reason.SRAMCapacity)
	assert.Equal(t,
		`chose "naive": it is the only candidate that fits in 1.0 MiB of SRAM (peak 1.0 MiB, DRAM traffic 4.5 MiB), `+
			`"memory_aware" needs a peak of 2.0 MiB > 1.0 MiB`,
		reason.String())

	result, err = Run(g, hardware.New("8mib_sram", 8*MiB))
	require.NoError(t, err)
	assert.Equal(t, "memory_aware", result.Chosen.Name())
	reason = result.Reason
	assert.Equal(t, ReasonLowerDRAM, reason.Kind)
	require.NotNil(t, reason.Alternative)
	assert.Equal(t, "naive", reason.Alternative.Name)
	assert.Empty(t, reason.Violations)
	assert.Equal(t,
		`chose "memory_aware": DRAM traffic 512 KiB < 4.5 MiB for "naive", and both fit in 8.0 MiB of SRAM (peaks 2.0 MiB and 1.0 MiB)`,
		reason.String())
}

func TestAllInfeasible(t *testing.T) {
	g := feedForward(32, 4096, 16384)
	result, err := Run(g, hardware.New("tiny_sram", 256*KiB))
	require.NoError(t, err)
	assert.Equal(t, "memory_aware", result.Chosen.Name())
	assert.False(t, result.ChosenCost().Feasible)
	reason := result.Reason
	assert.Equal(t, ReasonAllInfeasible, reason.Kind)
	require.Len(t, reason.Violations, 2)
	assert.Equal(t, "memory_aware", reason.Violations[0].Name)
	assert.Equal(t, "naive", reason.Violations[1].Name)
	assert.Contains(t, reason.String(), `"naive" needs a peak of 1.0 MiB > 256 KiB`)
	assert.Contains(t, reason.String(), `"memory_aware" needs a peak of 2.0 MiB > 256 KiB`)
	assert.Contains(t, reason.String(), `falling back to "memory_aware"`)

	// With no penalty the choice is the same: all candidates are penalized equally.
	result, err = New().WithInfeasiblePenalty(0).Run(g, hardware.New("tiny_sram", 256*KiB))
	require.NoError(t, err)
	assert.Equal(t, "memory_aware", result.Chosen.Name())
	assert.Equal(t, result.ChosenCost().DRAM.TotalBytes, result.ChosenCost().PenalizedCost)

	// A single infeasible candidate is still chosen.
	result, err = Run(g, hardware.New("empty", 0), schedules.Naive())
	require.NoError(t, err)
	assert.Equal(t, "naive", result.Chosen.Name())
	assert.Equal(t, ReasonAllInfeasible, result.Reason.Kind)
}

func TestLargePenalty(t *testing.T) {
	g := feedForward(32, 4096, 16384)
	tiny := hardware.New("tiny_sram", 256*KiB)

	// A penalty that would wrap around for naive is rejected, instead of flipping the choice.
	_, err := New().WithInfeasiblePenalty(math.MaxInt64 - 1_000_000).Run(g, tiny)
	require.ErrorIs(t, err, costmodel.ErrInvalidPenalty)

	// The largest accepted penalty keeps the ranking by DRAM traffic.
	result, err := New().WithInfeasiblePenalty(math.MaxInt64 - 4718592).Run(g, tiny)
	require.NoError(t, err)
	assert.Equal(t, "memory_aware", result.Chosen.Name())
	assert.Equal(t, ReasonAllInfeasible, result.Reason.Kind)
	assert.Equal(t, int64(math.MaxInt64), result.Costs["naive"].PenalizedCost)
}

func TestOnlyCandidate(t *testing.T) {
	g := feedForward(2, 4, 4)
	result, err := Run(g, hardware.New("1kib", KiB), schedules.Naive())
	require.NoError(t, err)
	assert.Equal(t, "naive", result.Chosen.Name())
	assert.Equal(t, ReasonOnlyCandidate, result.Reason.Kind)
	assert.Len(t, result.Costs, 1)
	assert.Contains(t, result.Reason.String(), "only candidate")
}

func TestTieBreaks(t *testing.T) {
	// Without intermediates, both schedules move the same number of bytes.
	g := graph.New(
		map[string]shapes.Shape{"x": shapes.Make(dtypes.Float32, 4, 4)},
		[]string{"y"},
		graph.Linear("linear", "x", "y", 4, 4),
	)
	result, err := Run(g, hardware.New("1kib", KiB), schedules.Naive(), schedules.MemoryAware())
	require.NoError(t, err)
	assert.Equal(t, result.Costs["naive"].DRAM.TotalBytes, result.Costs["memory_aware"].DRAM.TotalBytes)
	assert.Equal(t, "memory_aware", result.Chosen.Name())
	assert.Equal(t, ReasonLowerDRAM, result.Reason.Kind)
	assert.Contains(t, result.Reason.String(), "DRAM traffic 128 B <= 128 B")

	// Between schedules of the same kind, the first candidate wins.
	first := schedules.New(schedules.KindNaive, "first", "")
	second := schedules.New(schedules.KindNaive, "second", "")
	result, err = Run(g, hardware.New("1kib", KiB), second, first)
	require.NoError(t, err)
	assert.Equal(t, "second", result.Chosen.Name())
	result, err = Run(g, hardware.New("1kib", KiB), first, second)
	require.NoError(t, err)
	assert.Equal(t, "first", result.Chosen.Name())
	assert.Equal(t, []string{"first", "second"}, []string{result.Reason.Ranking[0].Name, result.Reason.Ranking[1].Name})
}

func TestTiledCandidate(t *testing.T) {
	g := feedForward(32, 4096, 16384)
	candidates := append(schedules.Catalog(), schedules.MemoryAwareTiled(64, 32))
	result, err := Run(g, hardware.New("1mib_sram", MiB), candidates...)
	require.NoError(t, err)
	assert.Equal(t, "memory_aware_tile_64x32", result.Chosen.Name())
	assert.Equal(t, ReasonLowerDRAM, result.Reason.Kind)
	assert.Equal(t, "naive", result.Reason.Alternative.Name)
	require.Len(t, result.Reason.Violations, 1)
	assert.Equal(t, "memory_aware", result.Reason.Violations[0].Name)
	assert.Equal(t, int64(2*64*32*2), result.ChosenCost().SRAM.PeakBytes)
}

func TestErrors(t *testing.T) {
	g := feedForward(2, 4, 4)
	_, err := Run(g, hardware.New("1kib", KiB), schedules.Naive(), schedules.New(schedules.KindMemoryAware, "naive", ""))
	require.ErrorIs(t, err, ErrDuplicateCandidate)
	assert.Contains(t, err.Error(), `"naive"`)

	_, err = Run(g, hardware.New("broken", -1))
	require.ErrorIs(t, err, hardware.ErrInvalidConfig)

	_, err = Run(g, hardware.New("1kib", KiB), schedules.New(schedules.Kind(7), "fused", ""))
	require.ErrorIs(t, err, costmodel.ErrUnknownSchedule)

	g.Ops[1].Type = graph.OpType(42)
	_, err = Run(g, hardware.New("1kib", KiB))
	require.ErrorIs(t, err, graph.ErrNotImplemented)
	assert.Contains(t, err.Error(), "OpType(42)")
}

func TestIdempotence(t *testing.T) {
	g := feedForward(32, 4096, 16384)
	for _, hw := range []hardware.Config{hardware.New("tiny", 256*KiB), hardware.New("mid", MiB), hardware.New("big", 8*MiB)} {
		first, err := Run(g, hw)
		require.NoError(t, err)
		second, err := Run(g, hw)
		require.NoError(t, err)
		assert.True(t, first.Chosen.Equal(second.Chosen))
		if diff := cmp.Diff(first.Costs, second.Costs, scheduleComparer); diff != "" {
			t.Errorf("costs differ for %s (-first +second):\n%s", hw, diff)
		}
		assert.Equal(t, first.Reason.String(), second.Reason.String())
	}
}

func TestCapacityMonotonicity(t *testing.T) {
	g := feedForward(32, 4096, 16384)
	chosenMemoryAware := false
	for capacity := int64(0); capacity <= 16*MiB; capacity += 128 * KiB {
		result, err := Run(g, hardware.New("sweep", capacity))
		require.NoError(t, err)
		cost := result.ChosenCost()
		if chosenMemoryAware {
			require.Equalf(t, schedules.KindMemoryAware, result.Chosen.Kind(), "capacity=%d", capacity)
		}
		if cost.Feasible && result.Chosen.Kind() == schedules.KindMemoryAware {
			chosenMemoryAware = true
		}
	}
	assert.True(t, chosenMemoryAware)
}

func TestConfiguration(t *testing.T) {
	p := New()
	assert.Equal(t, costmodel.DefaultInfeasiblePenalty, p.InfeasiblePenalty())
	assert.Len(t, p.Candidates(), 2)

	candidates := []schedules.Schedule{schedules.MemoryAware()}
	p = New().WithCandidates(candidates...).WithInfeasiblePenalty(10)
	candidates[0] = schedules.Naive()
	require.Len(t, p.Candidates(), 1)
	assert.Equal(t, "memory_aware", p.Candidates()[0].Name())
	assert.Equal(t, int64(10), p.InfeasiblePenalty())
}

func TestReasonKindString(t *testing.T) {
	assert.Equal(t, "lower_dram", ReasonLowerDRAM.String())
	assert.Equal(t, "alternatives_infeasible", ReasonAlternativesInfeasible.String())
	assert.Equal(t, "only_candidate", ReasonOnlyCandidate.String())
	assert.Equal(t, "all_infeasible", ReasonAllInfeasible.String())
	kind, err := ReasonKindString("all_infeasible")
	require.NoError(t, err)
	assert.Equal(t, ReasonAllInfeasible, kind)
}
