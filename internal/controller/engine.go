package controller

import (
	"sync"

	"golang.org/x/exp/slices"

	"github.com/nasfand/nasfand/internal/alert"
	"github.com/nasfand/nasfand/internal/configuration"
	"github.com/nasfand/nasfand/internal/disks"
	"github.com/nasfand/nasfand/internal/fans"
	"github.com/nasfand/nasfand/internal/history"
	"github.com/nasfand/nasfand/internal/persistence"
	"github.com/nasfand/nasfand/internal/sensors"
	"github.com/nasfand/nasfand/internal/ui"
)

// Engine is the closed control loop tying sensors, temperature
// histories, fan curves and the PWM actuator together. All exported
// methods are safe for concurrent use; sensor and actuator I/O always
// happens outside the lock.
type Engine struct {
	mu sync.Mutex

	config      configuration.FanControlConfig
	persistence persistence.Persistence

	sensors  sensors.Port
	actuator fans.Actuator
	notifier alert.Notifier

	tracker  *history.Tracker
	throttle *alert.Throttle

	disks []*disks.Disk

	warmupCycles int
	warmedUp     bool
	// lastApplied is the hysteresis reference, the last value this
	// engine decided on (as opposed to what the hardware reports)
	lastApplied *int

	status Status
}

func NewEngine(
	config configuration.FanControlConfig,
	pers persistence.Persistence,
	port sensors.Port,
	actuator fans.Actuator,
	notifier alert.Notifier,
) *Engine {
	return &Engine{
		config:      config,
		persistence: pers,
		sensors:     port,
		actuator:    actuator,
		notifier:    notifier,
		tracker:     history.NewTracker(config.TempHistorySize),
		throttle:    alert.NewThrottle(),
		status: Status{
			DiskTemps:    map[string]*int{},
			DiskAvgTemps: map[string]*int{},
		},
	}
}

// Status returns a deep copy of the current engine snapshot.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()

	status := e.status
	status.CpuTemp = copyIntPtr(e.status.CpuTemp)
	status.CpuAvgTemp = copyIntPtr(e.status.CpuAvgTemp)
	status.MaxDiskTemp = copyIntPtr(e.status.MaxDiskTemp)
	status.FanRpm = copyIntPtr(e.status.FanRpm)
	status.CurrentPwm = copyIntPtr(e.status.CurrentPwm)
	status.TargetPwm = copyIntPtr(e.status.TargetPwm)

	status.DiskTemps = make(map[string]*int, len(e.status.DiskTemps))
	for id, temp := range e.status.DiskTemps {
		status.DiskTemps[id] = copyIntPtr(temp)
	}
	status.DiskAvgTemps = make(map[string]*int, len(e.status.DiskAvgTemps))
	for id, avg := range e.status.DiskAvgTemps {
		status.DiskAvgTemps[id] = copyIntPtr(avg)
	}

	return status
}

// Config returns a deep copy of the active configuration.
func (e *Engine) Config() configuration.FanControlConfig {
	e.mu.Lock()
	defer e.mu.Unlock()
	return cloneConfig(e.config)
}

// UpdateConfig applies a partial configuration update. Unknown keys and
// invalid values are rejected as a whole, the running configuration is
// only replaced once the merged result validates.
func (e *Engine) UpdateConfig(data map[string]interface{}) error {
	e.mu.Lock()
	updated := cloneConfig(e.config)
	if err := updated.ApplyUpdate(data); err != nil {
		e.mu.Unlock()
		return err
	}
	e.config = updated
	e.tracker.SetCapacity(updated.TempHistorySize)
	e.applyActiveFlagsLocked()
	e.mu.Unlock()

	e.persist()
	return nil
}

// Disks returns a copy of the last detected disk inventory.
func (e *Engine) Disks() []disks.Disk {
	e.mu.Lock()
	defer e.mu.Unlock()

	result := make([]disks.Disk, 0, len(e.disks))
	for _, disk := range e.disks {
		copied := *disk
		copied.Temp = copyIntPtr(disk.Temp)
		result = append(result, copied)
	}
	return result
}

// DetectDisks re-scans the system for block devices and replaces the
// inventory. Active flags are re-derived from the configured ids, so a
// disk keeps its active state across rescans and reboots.
func (e *Engine) DetectDisks() {
	detected := disks.DetectAll()

	e.mu.Lock()
	e.disks = detected
	e.applyActiveFlagsLocked()
	e.mu.Unlock()

	ui.Info("Detected %d disk(s)", len(detected))
}

// SetActiveDisks replaces the set of disks whose temperatures drive the
// fan speed decision and persists it.
func (e *Engine) SetActiveDisks(ids []string) {
	e.mu.Lock()
	e.config.ActiveDisks = slices.Clone(ids)
	e.applyActiveFlagsLocked()
	e.mu.Unlock()

	e.persist()
}

// SetEnabled turns automatic fan control on or off and persists the
// choice. Sampling continues either way.
func (e *Engine) SetEnabled(enabled bool) {
	e.mu.Lock()
	e.config.Enabled = enabled
	e.mu.Unlock()

	if enabled {
		ui.Info("Fan control enabled")
	} else {
		ui.Info("Fan control disabled")
	}
	e.persist()
}

func (e *Engine) IsEnabled() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.config.Enabled
}

// SetManualPwm writes a PWM value directly to the actuator. The next
// cycle of an enabled engine will override it, disable the engine first
// for a lasting effect.
func (e *Engine) SetManualPwm(pwm int) error {
	return e.actuator.SetPwm(pwm)
}

// RefreshNow runs a full control cycle synchronously and returns the
// resulting snapshot.
func (e *Engine) RefreshNow() Status {
	e.runCycle()
	return e.Status()
}

func (e *Engine) applyActiveFlagsLocked() {
	for _, disk := range e.disks {
		disk.Active = slices.Contains(e.config.ActiveDisks, disk.ID)
	}
}

func (e *Engine) persist() {
	if e.persistence == nil {
		return
	}
	if err := e.persistence.SaveFanControlConfig(e.Config()); err != nil {
		ui.Warning("Unable to persist fan control configuration: %v", err)
	}
}

func cloneConfig(config configuration.FanControlConfig) configuration.FanControlConfig {
	cloned := config
	cloned.CpuCurve = slices.Clone(config.CpuCurve)
	cloned.DiskCurve = slices.Clone(config.DiskCurve)
	cloned.ActiveDisks = slices.Clone(config.ActiveDisks)
	return cloned
}
