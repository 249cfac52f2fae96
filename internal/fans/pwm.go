package fans

import (
	"fmt"

	"github.com/nasfand/nasfand/internal/ui"
	"github.com/nasfand/nasfand/internal/util"
)

const (
	MaxPwmValue = 255
	MinPwmValue = 0
)

// manual pwm control, as opposed to letting the motherboard decide
const pwmEnableManual = 1

// Actuator is the write side of the control loop: a single PWM output
// driving the chassis fans.
type Actuator interface {
	// GetPwm returns the PWM value currently set on the hardware
	GetPwm() (int, error)

	// SetPwm writes the given value to the hardware, clamped to [0..255]
	SetPwm(pwm int) error

	// EnableManualControl switches the PWM output to manual mode so
	// that SetPwm takes effect
	EnableManualControl() error
}

// HwMonPwm drives a sysfs hwmon pwm control file (e.g.
// /sys/class/hwmon/hwmon4/pwm3).
type HwMonPwm struct {
	ControlFile string `json:"controlFile"`
	EnableFile  string `json:"enableFile"`
}

func NewHwMonPwm(controlFile string, enableFile string) *HwMonPwm {
	return &HwMonPwm{
		ControlFile: controlFile,
		EnableFile:  enableFile,
	}
}

func (p *HwMonPwm) GetPwm() (int, error) {
	return util.ReadIntFromFile(p.ControlFile)
}

func (p *HwMonPwm) SetPwm(pwm int) error {
	pwm = util.Coerce(pwm, MinPwmValue, MaxPwmValue)
	ui.Debug("Setting %s to %d ...", p.ControlFile, pwm)
	// sysfs attribute files cannot be replaced by a temp-file rename,
	// so the control file must be written in place
	return util.WriteIntToFile(pwm, p.ControlFile)
}

// EnableManualControl writes 1 to the pwmX_enable file and verifies the
// mode actually changed. Some boards silently refuse the switch.
func (p *HwMonPwm) EnableManualControl() error {
	if len(p.EnableFile) <= 0 {
		return nil
	}

	err := util.WriteIntToFile(pwmEnableManual, p.EnableFile)
	if err != nil {
		return err
	}

	currentValue, err := util.ReadIntFromFile(p.EnableFile)
	if err == nil && currentValue != pwmEnableManual {
		return fmt.Errorf("PWM mode stuck to %d", currentValue)
	}
	return nil
}
