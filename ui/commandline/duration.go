// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package commandline

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"time"

	"github.com/gomlx/memsched/hardware"
)

var durationRegexp = regexp.MustCompile(`(\d+\.?\d*)([µa-z]+)`)

// FormatDuration pretty prints duration without a long list of decimal points.
// A negative duration is printed as "-", it stands for "unknown".
func FormatDuration(d time.Duration) string {
	if d < 0 {
		return "-"
	}
	s := d.String()
	matches := durationRegexp.FindStringSubmatch(s)
	if len(matches) != 3 {
		return s
	}
	num, err := strconv.ParseFloat(matches[1], 64)
	if err != nil {
		return s
	}
	return fmt.Sprintf("%.2f%s", num, matches[2])
}

// DRAMTime estimates how long it takes to move numBytes through the hardware bulk memory.
// It returns -1 if the hardware bandwidth is unknown.
func DRAMTime(numBytes int64, hw hardware.Config) time.Duration {
	if hw.DRAMBandwidthGBps <= 0 {
		return -1
	}
	seconds := float64(numBytes) / (hw.DRAMBandwidthGBps * 1e9)
	return time.Duration(math.Round(seconds * float64(time.Second)))
}
