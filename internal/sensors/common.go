package sensors

import "time"

// Port bundles the temperature and rpm readings the fan control engine
// needs. Every method is independently failable and expected to return
// within a short bounded time; all implementations here guard their
// external tool calls with hard timeouts.
type Port interface {
	// CpuTemperature returns the current CPU package temperature in °C
	CpuTemperature() (int, error)

	// DiskTemperature returns the current temperature of the given
	// block device (e.g. "sda", "nvme0n1") in °C. A disk in standby
	// yields an error, it is deliberately not woken up for a reading.
	DiskTemperature(device string) (int, error)

	// FanRpm returns the first non-zero fan speed reported by the system
	FanRpm() (int, error)
}

const (
	sensorsTimeout  = 5 * time.Second
	smartctlTimeout = 10 * time.Second
)

// CmdPort reads temperatures by shelling out to the vendor tools
// ("sensors" from lm-sensors and "smartctl" from smartmontools), the
// same way an admin would on the commandline.
type CmdPort struct{}

func NewCmdPort() *CmdPort {
	return &CmdPort{}
}
