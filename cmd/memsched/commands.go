// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"time"

	"github.com/gomlx/memsched/graph/graphfile"
	"github.com/gomlx/memsched/hardware"
	"github.com/gomlx/memsched/ui/commandline"
	"github.com/janpfeifer/must"
	"github.com/spf13/cobra"
	"k8s.io/klog/v2"
)

func newRunCmd() *cobra.Command {
	var (
		gFlags    graphFlags
		hwFlags   hardwareFlags
		pFlags    passFlags
		hwSpec    string
		breakdown bool
	)
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the schedule pass for one graph and one device",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			presets, err := hwFlags.presets()
			if err != nil {
				return err
			}
			hw, err := hwFlags.resolve(presets, hwSpec)
			if err != nil {
				return err
			}
			g, err := gFlags.build()
			if err != nil {
				return err
			}
			p, err := pFlags.newPass()
			if err != nil {
				return err
			}
			result, err := p.Run(g, hw)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if err = commandline.ReportResult(out, result, hw); err != nil {
				return err
			}
			if breakdown {
				for _, candidate := range result.Reason.Ranking {
					if err = commandline.ReportBreakdown(out, result.Costs[candidate.Name]); err != nil {
						return err
					}
				}
			}
			return nil
		},
	}
	gFlags.register(runCmd.Flags())
	hwFlags.register(runCmd.Flags())
	pFlags.register(runCmd.Flags())
	runCmd.Flags().StringVar(&hwSpec, "hardware", "tiny_sram",
		`Target device: a preset name (see "memsched presets") or an SRAM capacity like "1MiB".`)
	runCmd.Flags().BoolVar(&breakdown, "breakdown", false, "Also print the terms of the estimates of every candidate.")
	return runCmd
}

func newSweepCmd() *cobra.Command {
	var (
		gFlags   graphFlags
		hwFlags  hardwareFlags
		pFlags   passFlags
		progress bool
	)
	sweepCmd := &cobra.Command{
		Use:   "sweep [HARDWARE...]",
		Short: "Run the schedule pass for one graph on several devices",
		Long: "Run the schedule pass for one graph on several devices, given as preset names or SRAM capacities.\n" +
			"If none are given, all presets are used.",
		RunE: func(cmd *cobra.Command, args []string) error {
			presets, err := hwFlags.presets()
			if err != nil {
				return err
			}
			devices := args
			if len(devices) == 0 {
				devices = presets.Names()
			}
			hws := make([]hardware.Config, 0, len(devices))
			for _, device := range devices {
				hw, err := hwFlags.resolve(presets, device)
				if err != nil {
					return err
				}
				hws = append(hws, hw)
			}
			g, err := gFlags.build()
			if err != nil {
				return err
			}
			p, err := pFlags.newPass()
			if err != nil {
				return err
			}
			if progress {
				bar := commandline.NewSweepProgressBar(cmd.ErrOrStderr(), len(hws))
				p.WithProgress(func() { _ = bar.Add(1) })
			}
			start := time.Now()
			results, err := p.Sweep(cmd.Context(), g, hws)
			if err != nil {
				return err
			}
			klog.V(1).Infof("sweep over %d devices took %s", len(hws), commandline.FormatDuration(time.Since(start)))
			return commandline.ReportSweep(cmd.OutOrStdout(), hws, results)
		},
	}
	gFlags.register(sweepCmd.Flags())
	hwFlags.register(sweepCmd.Flags())
	pFlags.register(sweepCmd.Flags())
	sweepCmd.Flags().IntVar(&pFlags.parallelism, "parallelism", 0, "Maximum number of devices evaluated concurrently. If 0, the number of CPUs.")
	sweepCmd.Flags().BoolVar(&progress, "progress", true, "Display a progress bar on stderr.")
	return sweepCmd
}

func newPresetsCmd() *cobra.Command {
	var hwFlags hardwareFlags
	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "List the hardware presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			presets, err := hwFlags.presets()
			if err != nil {
				return err
			}
			return commandline.ReportPresets(cmd.OutOrStdout(), presets)
		},
	}
	presetsCmd.Flags().StringVar(&hwFlags.file, "hardware-file", "", "YAML file with extra hardware presets.")
	return presetsCmd
}

func newGraphCmd() *cobra.Command {
	var gFlags graphFlags
	graphCmd := &cobra.Command{
		Use:   "graph",
		Short: "Print the graph in YAML, in the format accepted by --graph",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := gFlags.build()
			if err != nil {
				return err
			}
			// A graph that was built can always be encoded.
			_, err = fmt.Fprint(cmd.OutOrStdout(), string(must.M1(graphfile.Marshal(g))))
			return err
		},
	}
	gFlags.register(graphCmd.Flags())
	return graphCmd
}
