// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package pass implements the memory-aware schedule selection pass: it evaluates candidate
// schedules for a graph on a given hardware with the cost model, and chooses the one that
// moves the fewest bytes through DRAM among those that fit the hardware fast memory (SRAM).
//
// Example:
//
//	result, err := pass.Run(g, hardware.New("edge", 1<<20))
//	if err != nil { ... }
//	fmt.Printf("%s: %s\n", result.Chosen.Name(), result.Reason)
//
// Use New() to configure the candidates or the penalty given to infeasible schedules, and
// Pass.Sweep to run the pass for many hardware configurations at once.
//
// Infeasibility is not an error: if no candidate fits, the pass still chooses one (the one with
// the lowest penalized cost) and Result.Reason says so.
package pass

import (
	"cmp"
	"slices"

	"github.com/gomlx/memsched/costmodel"
	"github.com/gomlx/memsched/graph"
	"github.com/gomlx/memsched/hardware"
	"github.com/gomlx/memsched/schedules"
	"github.com/gomlx/memsched/types"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// ErrDuplicateCandidate is returned when two candidate schedules have the same name.
var ErrDuplicateCandidate = errors.New("duplicate candidate schedule")

// Result of running the pass.
type Result struct {
	// Chosen schedule.
	Chosen schedules.Schedule

	// Costs of every candidate, keyed by schedule name.
	Costs map[string]costmodel.ScheduleCost

	// Reason for the choice.
	Reason Reason
}

// ChosenCost returns the cost of the chosen schedule.
func (r *Result) ChosenCost() costmodel.ScheduleCost {
	return r.Costs[r.Chosen.Name()]
}

// Pass holds the configuration of the schedule selection pass. Create it with New.
//
// Once configured it can be used concurrently.
type Pass struct {
	candidates        []schedules.Schedule
	infeasiblePenalty int64

	// Sweep configuration.
	parallelism int
	progress    func()
}

// New creates a Pass configured with the catalog candidates (schedules.Catalog) and
// costmodel.DefaultInfeasiblePenalty.
func New() *Pass {
	return &Pass{
		infeasiblePenalty: costmodel.DefaultInfeasiblePenalty,
	}
}

// WithCandidates sets the candidate schedules, in order of preference for exact ties.
// If none are given, the catalog (schedules.Catalog) is used.
//
// It returns the Pass itself, so calls can be chained.
func (p *Pass) WithCandidates(candidates ...schedules.Schedule) *Pass {
	p.candidates = slices.Clone(candidates)
	return p
}

// WithInfeasiblePenalty sets the penalty added to the cost of schedules that don't fit the
// hardware SRAM. It should be larger than any DRAM traffic considered, so that feasible
// schedules always rank first.
//
// It returns the Pass itself, so calls can be chained.
func (p *Pass) WithInfeasiblePenalty(penalty int64) *Pass {
	p.infeasiblePenalty = penalty
	return p
}

// Candidates returns the candidate schedules the pass evaluates.
func (p *Pass) Candidates() []schedules.Schedule {
	if len(p.candidates) == 0 {
		return schedules.Catalog()
	}
	return slices.Clone(p.candidates)
}

// InfeasiblePenalty configured, see WithInfeasiblePenalty.
func (p *Pass) InfeasiblePenalty() int64 { return p.infeasiblePenalty }

// Run the pass with the catalog candidates (or the given ones) and the default penalty.
// See Pass.Run.
func Run(g *graph.Graph, hw hardware.Config, candidates ...schedules.Schedule) (*Result, error) {
	return New().WithCandidates(candidates...).Run(g, hw)
}

// Run evaluates every candidate on graph g and hardware hw, and chooses one:
//
//   - If any candidate is feasible, the feasible one with the lowest DRAM traffic. Exact ties
//     prefer memory-aware schedules, and then the candidates order.
//   - Otherwise, the one with the lowest penalized cost, ties broken by the candidates order.
//
// It fails on malformed graphs, invalid hardware configurations, unknown schedule kinds or
// duplicate candidate names. It never fails because of infeasibility.
func (p *Pass) Run(g *graph.Graph, hw hardware.Config) (*Result, error) {
	candidates := p.Candidates()
	names := types.MakeSet[string](len(candidates))
	for _, s := range candidates {
		if !names.InsertIfAbsent(s.Name()) {
			return nil, errors.Wrapf(ErrDuplicateCandidate, "candidate name %q used more than once", s.Name())
		}
	}
	if err := hw.Validate(); err != nil {
		return nil, err
	}
	costs, err := costmodel.Evaluate(g, hw, p.infeasiblePenalty, candidates...)
	if err != nil {
		return nil, err
	}

	reason := selectSchedule(costs, hw.SRAMBytes)
	result := &Result{
		Costs:  make(map[string]costmodel.ScheduleCost, len(costs)),
		Reason: reason,
	}
	for _, cost := range costs {
		result.Costs[cost.Schedule.Name()] = cost
		if cost.Schedule.Name() == reason.Chosen.Name {
			result.Chosen = cost.Schedule
		}
	}
	if reason.Kind == ReasonAllInfeasible {
		klog.Warningf("schedule pass on %s: %s", hw, reason)
	} else if klog.V(1).Enabled() {
		klog.Infof("schedule pass on %s: %s", hw, reason)
	}
	return result, nil
}

// tieBreakRank prefers memory-aware schedules when DRAM traffic is the same.
func tieBreakRank(kind schedules.Kind) int {
	if kind == schedules.KindMemoryAware {
		return 0
	}
	return 1
}

// selectSchedule ranks the costs, given in candidate order, and builds the Reason for the
// best one. There must be at least one cost.
func selectSchedule(costs []costmodel.ScheduleCost, capacity int64) Reason {
	ranking := make([]Candidate, 0, len(costs))
	for _, cost := range costs {
		ranking = append(ranking, candidateFromCost(cost))
	}
	// Stable sort: ties are kept in candidate order.
	slices.SortStableFunc(ranking, func(a, b Candidate) int {
		if a.Feasible != b.Feasible {
			if a.Feasible {
				return -1
			}
			return 1
		}
		if a.Feasible {
			return cmp.Or(
				cmp.Compare(a.DRAMBytes, b.DRAMBytes),
				cmp.Compare(tieBreakRank(a.Kind), tieBreakRank(b.Kind)))
		}
		return cmp.Compare(a.PenalizedCost, b.PenalizedCost)
	})

	reason := Reason{
		Chosen:       ranking[0],
		SRAMCapacity: capacity,
		Ranking:      ranking,
	}
	for _, c := range ranking {
		if !c.Feasible {
			reason.Violations = append(reason.Violations, c)
		}
	}
	switch {
	case !reason.Chosen.Feasible:
		reason.Kind = ReasonAllInfeasible
	case len(ranking) == 1:
		reason.Kind = ReasonOnlyCandidate
	case ranking[1].Feasible:
		reason.Kind = ReasonLowerDRAM
		alternative := ranking[1]
		reason.Alternative = &alternative
	default:
		reason.Kind = ReasonAlternativesInfeasible
	}
	return reason
}
