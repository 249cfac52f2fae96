package configuration

import (
	"errors"
	"fmt"
	"time"
)

// MinCheckInterval is the lower bound for the control loop interval.
// Anything below it would make the ticker spin flat-out.
const MinCheckInterval = 100 * time.Millisecond

func validateConfig(config *Configuration, path string) error {
	if config.Api.Enabled {
		if config.Api.Port <= 0 || config.Api.Port >= 65536 {
			return fmt.Errorf("api: invalid port %d", config.Api.Port)
		}
	}
	if config.Statistics.Enabled {
		if config.Statistics.Port <= 0 || config.Statistics.Port >= 65536 {
			return fmt.Errorf("statistics: invalid port %d", config.Statistics.Port)
		}
	}

	return validateFanControlConfig(&config.FanControl)
}

func validateFanControlConfig(config *FanControlConfig) error {
	if config.CheckInterval < MinCheckInterval {
		return fmt.Errorf("fancontrol: check interval must be >= %s", MinCheckInterval)
	}
	if config.TempHistorySize <= 0 {
		return errors.New("fancontrol: temp history size must be > 0")
	}
	if config.PwmChangeThreshold < 0 {
		return errors.New("fancontrol: pwm change threshold must be >= 0")
	}
	if config.AlertInterval < 0 {
		return errors.New("fancontrol: alert interval must be >= 0")
	}
	if len(config.PwmControlFile) <= 0 {
		return errors.New("fancontrol: pwm control file is missing")
	}

	if err := validateCurve("cpu_curve", config.CpuCurve); err != nil {
		return err
	}
	return validateCurve("disk_curve", config.DiskCurve)
}

func validateCurve(name string, points []CurvePoint) error {
	if len(points) <= 0 {
		return fmt.Errorf("%s: a curve needs at least one point", name)
	}

	seen := map[int]bool{}
	for _, point := range points {
		if seen[point.Temp] {
			return fmt.Errorf("%s: duplicate temperature %d°C", name, point.Temp)
		}
		seen[point.Temp] = true

		if point.Pwm < 0 || point.Pwm > 255 {
			return fmt.Errorf("%s: pwm value %d at %d°C is outside [0..255]", name, point.Pwm, point.Temp)
		}
	}

	return nil
}
