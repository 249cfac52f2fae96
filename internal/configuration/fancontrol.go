package configuration

import (
	"fmt"
	"time"

	"github.com/go-viper/mapstructure/v2"
)

// CurvePoint is a single control point of a temperature -> PWM curve.
type CurvePoint struct {
	// Temp is the temperature of this control point in °C
	Temp int `json:"temp" mapstructure:"temp"`
	// Pwm is the PWM value [0..255] applied at Temp
	Pwm int `json:"pwm" mapstructure:"pwm"`
}

// FanControlConfig is the mutable configuration document of the fan
// control engine. It is persisted as an opaque JSON document and only
// ever modified through ApplyUpdate.
type FanControlConfig struct {
	Enabled bool `json:"enabled" mapstructure:"enabled"`

	CheckInterval      time.Duration `json:"check_interval" mapstructure:"check_interval"`
	TempHistorySize    int           `json:"temp_history_size" mapstructure:"temp_history_size"`
	PwmChangeThreshold int           `json:"pwm_change_threshold" mapstructure:"pwm_change_threshold"`

	AlertEnabled  bool          `json:"alert_enabled" mapstructure:"alert_enabled"`
	CpuAlertTemp  int           `json:"cpu_alert_temp" mapstructure:"cpu_alert_temp"`
	DiskAlertTemp int           `json:"disk_alert_temp" mapstructure:"disk_alert_temp"`
	AlertInterval time.Duration `json:"alert_interval" mapstructure:"alert_interval"`
	AlertHostname string        `json:"alert_hostname" mapstructure:"alert_hostname"`

	PwmControlFile string `json:"pwm_control_file" mapstructure:"pwm_control_file"`
	PwmEnableFile  string `json:"pwm_enable_file" mapstructure:"pwm_enable_file"`

	CpuCurve  []CurvePoint `json:"cpu_curve" mapstructure:"cpu_curve"`
	DiskCurve []CurvePoint `json:"disk_curve" mapstructure:"disk_curve"`

	// ActiveDisks lists the ids of the disks whose temperature
	// participates in the fan speed decision.
	ActiveDisks []string `json:"active_disks" mapstructure:"active_disks"`
}

// DefaultCpuCurve covers 20-80°C with steeper ramping above 60°C.
func DefaultCpuCurve() []CurvePoint {
	return []CurvePoint{
		{Temp: 20, Pwm: 20},
		{Temp: 30, Pwm: 30},
		{Temp: 40, Pwm: 50},
		{Temp: 50, Pwm: 80},
		{Temp: 60, Pwm: 120},
		{Temp: 65, Pwm: 160},
		{Temp: 70, Pwm: 210},
		{Temp: 80, Pwm: 255},
	}
}

// DefaultDiskCurve covers 20-60°C, spinning rust prefers it cool.
func DefaultDiskCurve() []CurvePoint {
	return []CurvePoint{
		{Temp: 20, Pwm: 20},
		{Temp: 26, Pwm: 35},
		{Temp: 32, Pwm: 55},
		{Temp: 38, Pwm: 85},
		{Temp: 44, Pwm: 130},
		{Temp: 50, Pwm: 175},
		{Temp: 55, Pwm: 220},
		{Temp: 60, Pwm: 255},
	}
}

// ApplyUpdate applies the given key -> value map onto this configuration.
// Only the enumerated, exported fields of FanControlConfig can be set,
// unknown keys are rejected with an error and leave the configuration
// untouched.
func (c *FanControlConfig) ApplyUpdate(data map[string]interface{}) error {
	updated := *c

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      &updated,
		ErrorUnused: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			secondsToDurationHookFunc(),
			curvePointsHookFunc(),
		),
	})
	if err != nil {
		return err
	}

	if err := decoder.Decode(data); err != nil {
		return fmt.Errorf("invalid configuration update: %w", err)
	}

	if err := validateFanControlConfig(&updated); err != nil {
		return err
	}

	*c = updated
	return nil
}
