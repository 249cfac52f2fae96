package curve

import (
	"golang.org/x/exp/slices"

	"github.com/nasfand/nasfand/internal/configuration"
	"github.com/nasfand/nasfand/internal/util"
)

// Stage describes how hard the fan is being driven. It is advisory
// metadata for status reporting and alert messages, control decisions
// are made on the PWM value alone.
type Stage string

const (
	StageIdle      Stage = "idle"
	StageWork      Stage = "work"
	StageWarning   Stage = "warning"
	StageCritical  Stage = "critical"
	StageEmergency Stage = "emergency"
	StageUnknown   Stage = "unknown"
)

// FallbackPwm is returned for a degenerate (empty) curve. A broken
// curve configuration must not take the fan down with it.
const FallbackPwm = 100

// Stage bands derived from the resulting PWM value of an interpolated point.
const (
	stageWorkMinPwm     = 60
	stageWarningMinPwm  = 120
	stageCriticalMinPwm = 200
)

// Evaluate maps a temperature to a PWM value using the given curve
// points. Points may be passed in any order, they are sorted by
// temperature before use. Temperatures at or outside the curve ends are
// clamped to the end points, there is no extrapolation: the hot end of
// the curve is the safety ceiling.
//
// Evaluate is a pure function, identical inputs always yield identical
// outputs.
func Evaluate(temp int, points []configuration.CurvePoint) (pwm int, stage Stage) {
	if len(points) <= 0 {
		return FallbackPwm, StageUnknown
	}

	sorted := slices.Clone(points)
	slices.SortFunc(sorted, func(a, b configuration.CurvePoint) int {
		return a.Temp - b.Temp
	})

	if temp <= sorted[0].Temp {
		return sorted[0].Pwm, StageIdle
	}
	if temp >= sorted[len(sorted)-1].Temp {
		return sorted[len(sorted)-1].Pwm, StageCritical
	}

	for i := 0; i < len(sorted)-1; i++ {
		p1 := sorted[i]
		p2 := sorted[i+1]
		if p1.Temp <= temp && temp <= p2.Temp {
			pwm = linearMap(temp, p1.Temp, p2.Temp, p1.Pwm, p2.Pwm)
			return pwm, stageForPwm(pwm)
		}
	}

	return FallbackPwm, StageUnknown
}

// linearMap interpolates value from [inMin..inMax] to [outMin..outMax],
// truncating (not rounding) to an integer and clamping to the output range.
func linearMap(value int, inMin int, inMax int, outMin int, outMax int) int {
	if inMax <= inMin {
		return outMin
	}
	ratio := util.Ratio(float64(value), float64(inMin), float64(inMax))
	result := int(float64(outMin) + ratio*float64(outMax-outMin))

	if result > outMax {
		result = outMax
	}
	if result < outMin {
		result = outMin
	}
	return result
}

func stageForPwm(pwm int) Stage {
	switch {
	case pwm < stageWorkMinPwm:
		return StageIdle
	case pwm < stageWarningMinPwm:
		return StageWork
	case pwm < stageCriticalMinPwm:
		return StageWarning
	default:
		return StageCritical
	}
}
