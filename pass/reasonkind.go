// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package pass

// ReasonKind enumerates why the pass chose a schedule.
type ReasonKind int

//go:generate go tool enumer -type=ReasonKind -trimprefix=Reason -transform=snake -output=gen_reasonkind_enumer.go reasonkind.go

const (
	ReasonInvalid ReasonKind = iota

	// ReasonLowerDRAM means the chosen schedule moves the fewest bytes through DRAM among the
	// feasible candidates, and at least one other candidate was feasible.
	ReasonLowerDRAM

	// ReasonAlternativesInfeasible means the chosen schedule is the only feasible one.
	ReasonAlternativesInfeasible

	// ReasonOnlyCandidate means there was only one candidate, and it was feasible.
	ReasonOnlyCandidate

	// ReasonAllInfeasible means no candidate fits the fast memory, and the one with the lowest
	// penalized cost was chosen as a fallback.
	ReasonAllInfeasible
)
