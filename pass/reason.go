// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package pass

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/gomlx/memsched/costmodel"
	"github.com/gomlx/memsched/schedules"
)

// Candidate summarizes the cost of one candidate schedule, as cited by a Reason.
type Candidate struct {
	Name          string
	Kind          schedules.Kind
	DRAMBytes     int64
	PeakSRAMBytes int64
	Feasible      bool
	PenalizedCost int64
}

func candidateFromCost(cost costmodel.ScheduleCost) Candidate {
	return Candidate{
		Name:          cost.Schedule.Name(),
		Kind:          cost.Schedule.Kind(),
		DRAMBytes:     cost.DRAM.TotalBytes,
		PeakSRAMBytes: cost.SRAM.PeakBytes,
		Feasible:      cost.Feasible,
		PenalizedCost: cost.PenalizedCost,
	}
}

// Reason explains why a schedule was chosen. It holds the numbers the decision was based on,
// and is only rendered to text by String.
type Reason struct {
	Kind ReasonKind

	// Chosen candidate.
	Chosen Candidate

	// SRAMCapacity of the hardware the pass ran for.
	SRAMCapacity int64

	// Ranking lists every candidate in selection order: feasible ones first, by DRAM traffic,
	// then infeasible ones by penalized cost. Ranking[0] is the chosen one.
	Ranking []Candidate

	// Alternative is the best feasible candidate that was not chosen. Only set for ReasonLowerDRAM.
	Alternative *Candidate

	// Violations lists the candidates that don't fit SRAMCapacity. For ReasonAllInfeasible it
	// includes the chosen one.
	Violations []Candidate
}

func humanBytes(n int64) string {
	if n < 0 {
		return fmt.Sprintf("%d B", n)
	}
	return humanize.IBytes(uint64(n))
}

// String renders the reason in a human-readable sentence, citing the competing numbers.
func (r Reason) String() string {
	switch r.Kind {
	case ReasonLowerDRAM:
		alt := r.Alternative
		comparison := "<"
		if r.Chosen.DRAMBytes == alt.DRAMBytes {
			comparison = "<="
		}
		return fmt.Sprintf("chose %q: DRAM traffic %s %s %s for %q, and both fit in %s of SRAM (peaks %s and %s)",
			r.Chosen.Name, humanBytes(r.Chosen.DRAMBytes), comparison, humanBytes(alt.DRAMBytes), alt.Name,
			humanBytes(r.SRAMCapacity), humanBytes(r.Chosen.PeakSRAMBytes), humanBytes(alt.PeakSRAMBytes))

	case ReasonAlternativesInfeasible:
		return fmt.Sprintf("chose %q: it is the only candidate that fits in %s of SRAM (peak %s, DRAM traffic %s), %s",
			r.Chosen.Name, humanBytes(r.SRAMCapacity), humanBytes(r.Chosen.PeakSRAMBytes), humanBytes(r.Chosen.DRAMBytes),
			r.violationsText())

	case ReasonOnlyCandidate:
		return fmt.Sprintf("chose %q: it is the only candidate, it fits in %s of SRAM (peak %s, DRAM traffic %s)",
			r.Chosen.Name, humanBytes(r.SRAMCapacity), humanBytes(r.Chosen.PeakSRAMBytes), humanBytes(r.Chosen.DRAMBytes))

	case ReasonAllInfeasible:
		return fmt.Sprintf("no candidate fits in %s of SRAM: %s; falling back to %q, with the lowest penalized DRAM traffic %s",
			humanBytes(r.SRAMCapacity), r.violationsText(), r.Chosen.Name, humanBytes(r.Chosen.DRAMBytes))

	default:
		return fmt.Sprintf("chose %q (%s)", r.Chosen.Name, r.Kind)
	}
}

func (r Reason) violationsText() string {
	parts := make([]string, 0, len(r.Violations))
	for _, v := range r.Violations {
		parts = append(parts, fmt.Sprintf("%q needs a peak of %s > %s", v.Name, humanBytes(v.PeakSRAMBytes), humanBytes(r.SRAMCapacity)))
	}
	return strings.Join(parts, "; ")
}
