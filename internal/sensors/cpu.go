package sensors

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/nasfand/nasfand/internal/util"
)

var (
	// labels the common CPU temperature lines of `sensors` output carry,
	// covering Intel (Package id, Core 0) and AMD (Tctl, Tdie)
	cpuTempLabels = []string{"Package id", "Tctl", "Tdie", "Core 0"}

	tempValueRegex = regexp.MustCompile(`[+]?(\d+(?:\.\d+)?)°?C`)
	fanLineRegex   = regexp.MustCompile(`(?i)^fan\d+:`)
	fanRpmRegex    = regexp.MustCompile(`(\d+)\s*RPM`)
)

func (p *CmdPort) CpuTemperature() (int, error) {
	output, err := util.CmdOutput("sensors", nil, sensorsTimeout)
	if err != nil {
		return 0, err
	}
	return parseCpuTemperature(output)
}

func (p *CmdPort) FanRpm() (int, error) {
	output, err := util.CmdOutput("sensors", nil, sensorsTimeout)
	if err != nil {
		return 0, err
	}
	return parseFanRpm(output)
}

func parseCpuTemperature(output string) (int, error) {
	for _, line := range strings.Split(output, "\n") {
		if !containsAny(line, cpuTempLabels) {
			continue
		}
		match := tempValueRegex.FindStringSubmatch(line)
		if match == nil {
			continue
		}
		value, err := strconv.ParseFloat(match[1], 64)
		if err != nil {
			continue
		}
		return int(value), nil
	}
	return 0, fmt.Errorf("no cpu temperature found in sensors output")
}

// parseFanRpm returns the first non-zero fan speed. Fans reported with
// 0 RPM are usually unconnected headers, skip those.
func parseFanRpm(output string) (int, error) {
	for _, line := range strings.Split(output, "\n") {
		if !fanLineRegex.MatchString(line) {
			continue
		}
		match := fanRpmRegex.FindStringSubmatch(line)
		if match == nil {
			continue
		}
		rpm, err := strconv.Atoi(match[1])
		if err != nil || rpm <= 0 {
			continue
		}
		return rpm, nil
	}
	return 0, fmt.Errorf("no spinning fan found in sensors output")
}

func containsAny(line string, labels []string) bool {
	for _, label := range labels {
		if strings.Contains(line, label) {
			return true
		}
	}
	return false
}
