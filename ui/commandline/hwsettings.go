// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package commandline

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/gomlx/memsched/hardware"
	"github.com/pkg/errors"
)

// Hardware settings keys accepted by ParseHardwareSettings.
const (
	SettingName              = "name"
	SettingSRAM              = "sram"
	SettingDRAMBandwidthGBps = "dram_bandwidth_gbps"
	SettingComputeTFLOPS     = "compute_tflops"
)

// HardwareSettingsUsage describes the format of the settings, to be used in flag descriptions.
var HardwareSettingsUsage = fmt.Sprintf(
	`Override hardware parameters. `+
		`It should be a list of elements "param=value" separated by ";". `+
		`It can also be given an entry like: "file:settings_file.txt", in `+
		`which case the file will be read and the settings will be parsed, `+
		`with new-lines working as ";" to separate settings and lines starting with "#" are considered comments. `+
		`Parameters that can be set: %q, %q (e.g. "512KiB"), %q and %q.`,
	SettingName, SettingSRAM, SettingDRAMBandwidthGBps, SettingComputeTFLOPS)

// ParseHardwareSettings applies the settings to hw and returns the updated config, along with the
// keys that were set, in order. The settings are a list separated by ";": e.g.:
// "sram=2MiB;dram_bandwidth_gbps=400".
//
// For numbers, "_" is removed: it allows one to enter large numbers using it as a separator, like
// in Go. E.g.: sram=1_048_576.
//
// The resulting config is validated.
func ParseHardwareSettings(hw hardware.Config, settings string) (hardware.Config, []string, error) {
	var paramsSet []string
	var err error
	for _, setting := range strings.Split(settings, ";") {
		paramsSet, err = parseHardwareSetting(&hw, setting, paramsSet)
		if err != nil {
			return hw, paramsSet, err
		}
	}
	if err = hw.Validate(); err != nil {
		return hw, paramsSet, err
	}
	return hw, paramsSet, nil
}

func parseHardwareSetting(hw *hardware.Config, setting string, paramsSet []string) (newParamsSet []string, err error) {
	newParamsSet = paramsSet
	setting = strings.TrimSpace(setting)
	if setting == "" {
		return
	}
	if strings.HasPrefix(setting, "file:") {
		// Read parameters from a file.
		filePath := strings.TrimPrefix(setting, "file:")
		var contents []byte
		contents, err = os.ReadFile(filePath)
		if err != nil {
			err = errors.Wrapf(err, "failed to read settings from file %q", filePath)
			return
		}
		for _, line := range strings.Split(string(contents), "\n") {
			line = strings.TrimSpace(line)
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			for _, setting := range strings.Split(line, ";") {
				newParamsSet, err = parseHardwareSetting(hw, setting, newParamsSet)
				if err != nil {
					return
				}
			}
		}
		return
	}

	parts := strings.Split(setting, "=")
	if len(parts) != 2 {
		err = errors.Errorf("can't parse settings %q: each setting requires the format \"<param>=<value>\"", setting)
		return
	}
	key, valueStr := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
	switch key {
	case SettingName:
		hw.Name = valueStr
	case SettingSRAM:
		hw.SRAMBytes, err = hardware.ParseCapacity(strings.ReplaceAll(valueStr, "_", ""))
	case SettingDRAMBandwidthGBps:
		err = json.Unmarshal([]byte(strings.ReplaceAll(valueStr, "_", "")), &hw.DRAMBandwidthGBps)
	case SettingComputeTFLOPS:
		err = json.Unmarshal([]byte(strings.ReplaceAll(valueStr, "_", "")), &hw.ComputeTFLOPS)
	default:
		err = errors.Errorf("unknown hardware parameter %q, known parameters are %q", key,
			[]string{SettingName, SettingSRAM, SettingDRAMBandwidthGBps, SettingComputeTFLOPS})
		return
	}
	if err != nil {
		err = errors.Wrapf(err, "failed to parse value %q for hardware parameter %q", valueStr, key)
		return
	}
	newParamsSet = append(newParamsSet, key)
	return
}

// SprintHardwareSettings pretty-prints the hardware parameters, one per line.
func SprintHardwareSettings(hw hardware.Config) string {
	parts := []string{
		fmt.Sprintf("\t%q: %q", SettingName, hw.Name),
		fmt.Sprintf("\t%q: %s (%s bytes)", SettingSRAM, HumanBytes(hw.SRAMBytes), humanizeInt(hw.SRAMBytes)),
		fmt.Sprintf("\t%q: %g", SettingDRAMBandwidthGBps, hw.DRAMBandwidthGBps),
		fmt.Sprintf("\t%q: %g", SettingComputeTFLOPS, hw.ComputeTFLOPS),
	}
	return strings.Join(parts, "\n")
}
