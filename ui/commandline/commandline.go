// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package commandline renders the schedule pass results for the command line: cost tables,
// per-term breakdowns and the reason for the choice, with byte counts in human units.
package commandline

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/gomlx/memsched/costmodel"
	"github.com/gomlx/memsched/hardware"
	"github.com/gomlx/memsched/pass"
	"github.com/pkg/errors"
)

// HumanBytes formats a byte count in binary units, e.g. "1.0 MiB".
func HumanBytes(n int64) string {
	if n < 0 {
		return fmt.Sprintf("%d B", n)
	}
	return humanize.IBytes(uint64(n))
}

// ReportResult writes the costs of every candidate, in ranking order, the chosen schedule and the
// reason for the choice.
func ReportResult(w io.Writer, result *pass.Result, hw hardware.Config) error {
	table := newTable(
		[]string{"", "Schedule", "Kind", "DRAM traffic", "Est. DRAM time", "Peak SRAM", "Feasible"},
		lipgloss.Center, lipgloss.Left, lipgloss.Left, lipgloss.Right, lipgloss.Right, lipgloss.Right, lipgloss.Center)
	for _, candidate := range result.Reason.Ranking {
		marker := ""
		if candidate.Name == result.Chosen.Name() {
			marker = "*"
		}
		table.Row(!candidate.Feasible,
			marker,
			candidate.Name,
			candidate.Kind.String(),
			HumanBytes(candidate.DRAMBytes),
			FormatDuration(DRAMTime(candidate.DRAMBytes, hw)),
			HumanBytes(candidate.PeakSRAMBytes),
			yesNo(candidate.Feasible))
	}
	_, err := fmt.Fprintf(w, "%s\n%s\n%s %s\n%s %s\n",
		titleStyle.Render("Schedule pass on "+hw.String()),
		table,
		titleStyle.Render("Chosen:"), result.Chosen.Name(),
		titleStyle.Render("Reason:"), result.Reason)
	return err
}

// ReportBreakdown writes the terms of the DRAM and SRAM estimates of a schedule, with exact byte counts.
func ReportBreakdown(w io.Writer, cost costmodel.ScheduleCost) error {
	table := newTable([]string{"Estimate", "Term", "Bytes", "Exact"},
		lipgloss.Left, lipgloss.Left, lipgloss.Right)
	addTerms := func(estimate string, breakdown costmodel.Breakdown) {
		for _, term := range breakdown {
			if term.Name == costmodel.TermTileShapeElements {
				table.Row(false, estimate, term.Name, humanizeInt(term.Value)+" elems", "")
				continue
			}
			table.Row(false, estimate, term.Name, HumanBytes(term.Value), humanizeInt(term.Value))
		}
	}
	addTerms("DRAM", cost.DRAM.Breakdown)
	table.Row(false, "DRAM", "total", HumanBytes(cost.DRAM.TotalBytes), humanizeInt(cost.DRAM.TotalBytes))
	addTerms("SRAM", cost.SRAM.Breakdown)
	table.Row(!cost.Feasible, "SRAM", "peak", HumanBytes(cost.SRAM.PeakBytes), humanizeInt(cost.SRAM.PeakBytes))
	_, err := fmt.Fprintf(w, "%s\n%s\n", titleStyle.Render("Estimates of "+cost.Schedule.String()), table)
	return err
}

// ReportSweep writes one row per hardware configuration with the chosen schedule.
// results[i] must be the result for hws[i].
func ReportSweep(w io.Writer, hws []hardware.Config, results []*pass.Result) error {
	if len(hws) != len(results) {
		return errors.Errorf("ReportSweep: got %d hardware configurations but %d results", len(hws), len(results))
	}
	table := newTable([]string{"Hardware", "SRAM", "Chosen", "DRAM traffic", "Peak SRAM", "Reason"},
		lipgloss.Left, lipgloss.Right, lipgloss.Left, lipgloss.Right, lipgloss.Right, lipgloss.Left)
	var reasons []string
	for ii, result := range results {
		cost := result.ChosenCost()
		table.Row(!cost.Feasible,
			hws[ii].Name,
			HumanBytes(hws[ii].SRAMBytes),
			result.Chosen.Name(),
			HumanBytes(cost.DRAM.TotalBytes),
			HumanBytes(cost.SRAM.PeakBytes),
			result.Reason.Kind.String())
		reasons = append(reasons, fmt.Sprintf("  %s: %s", hws[ii].Name, result.Reason))
	}
	_, err := fmt.Fprintf(w, "%s\n%s\n%s\n", titleStyle.Render("Schedule sweep"), table, strings.Join(reasons, "\n"))
	return err
}

// ReportPresets writes the given hardware presets, sorted by name.
func ReportPresets(w io.Writer, presets hardware.Presets) error {
	table := newTable([]string{"Preset", "SRAM", "DRAM bandwidth", "Compute"},
		lipgloss.Left, lipgloss.Right)
	for _, name := range presets.Names() {
		hw := presets[name]
		bandwidth, compute := "-", "-"
		if hw.DRAMBandwidthGBps > 0 {
			bandwidth = fmt.Sprintf("%g GB/s", hw.DRAMBandwidthGBps)
		}
		if hw.ComputeTFLOPS > 0 {
			compute = fmt.Sprintf("%g TFLOPS", hw.ComputeTFLOPS)
		}
		table.Row(false, name, HumanBytes(hw.SRAMBytes), bandwidth, compute)
	}
	_, err := fmt.Fprintln(w, table)
	return err
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
