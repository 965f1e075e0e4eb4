// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// memsched runs the memory-aware schedule selection pass from the command line.
//
// Examples:
//
//	# Built-in feed-forward block on a 1MiB SRAM device.
//	memsched run --hardware=1MiB
//
//	# A graph from a file, also considering a tiled memory-aware schedule.
//	memsched run --graph=ffn.yaml --hardware=tiny_sram --tile=64x64 --breakdown
//
//	# Compare the choice across devices.
//	memsched sweep tiny_sram 1mib_sram 8mib_sram 512KiB
//
// Use -v=1 to log the decisions and -v=2 to log every estimate.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/gomlx/memsched/ui/commandline"
	"github.com/spf13/cobra"
	"k8s.io/klog/v2"
)

func newRootCmd() *cobra.Command {
	var noColor bool
	rootCmd := &cobra.Command{
		Use:           "memsched",
		Short:         "Choose between naive and memory-aware schedules for a graph, given the device SRAM",
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if noColor {
				commandline.DisableColors()
			}
		},
	}
	goFlags := flag.NewFlagSet("klog", flag.ContinueOnError)
	klog.InitFlags(goFlags)
	rootCmd.PersistentFlags().AddGoFlagSet(goFlags)
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colors in the output.")

	rootCmd.AddCommand(
		newRunCmd(),
		newSweepCmd(),
		newPresetsCmd(),
		newGraphCmd(),
	)
	return rootCmd
}

func main() {
	defer klog.Flush()
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %+v\n", err)
		klog.Flush()
		os.Exit(1)
	}
}
