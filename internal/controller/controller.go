package controller

import (
	"context"
	"time"

	"github.com/nasfand/nasfand/internal/curve"
	"github.com/nasfand/nasfand/internal/ui"
	"github.com/nasfand/nasfand/internal/util"
)

// TriggerSource names the subsystem whose temperature won the last
// control decision.
type TriggerSource string

const (
	TriggerSourceCpu    TriggerSource = "CPU"
	TriggerSourceDisk   TriggerSource = "Disk"
	TriggerSourceSafety TriggerSource = "Safety"
	TriggerSourceNone   TriggerSource = ""
)

// SafetyFallbackPwm is forced onto the actuator when no temperature
// source is readable at all: half scale, regardless of curve
// configuration. Total sensor loss must never stop the fan.
const SafetyFallbackPwm = 128

const cpuSourceKey = "cpu"

// Status is the engine's current snapshot, rebuilt every cycle and
// exposed read-only to the API layer. Nil pointers mean "no data".
type Status struct {
	CpuTemp    *int `json:"cpu_temp"`
	CpuAvgTemp *int `json:"cpu_avg_temp"`

	DiskTemps    map[string]*int `json:"disk_temps"`
	DiskAvgTemps map[string]*int `json:"disk_avg_temps"`
	// MaxDiskTemp is the maximum averaged temperature among active disks
	MaxDiskTemp *int `json:"max_disk_temp"`

	FanRpm     *int `json:"fan_rpm"`
	CurrentPwm *int `json:"current_pwm"`
	TargetPwm  *int `json:"target_pwm"`

	TriggerSource TriggerSource `json:"trigger_source"`
	TriggerStage  curve.Stage   `json:"trigger_stage"`

	IsWarmedUp     bool `json:"is_warmed_up"`
	WarmupProgress int  `json:"warmup_progress"`

	LastUpdate time.Time `json:"last_update"`
}

// Run executes the control cycle on a fixed interval until the context
// is cancelled. Sampling and actuation failures are absorbed per cycle,
// nothing here ever escalates past the loop.
func (e *Engine) Run(ctx context.Context) error {
	if err := e.actuator.EnableManualControl(); err != nil {
		ui.Warning("Could not enable manual fan control, trying to continue anyway: %v", err)
	}

	e.DetectDisks()

	e.mu.Lock()
	interval := e.config.CheckInterval
	e.mu.Unlock()

	ui.Info("Starting fan control loop (interval %s)", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			ui.Info("Stopping fan control loop...")
			return nil
		case <-ticker.C:
			e.runCycle()

			// an interval change takes effect on the next tick
			e.mu.Lock()
			newInterval := e.config.CheckInterval
			e.mu.Unlock()
			if newInterval != interval {
				interval = newInterval
				ticker.Reset(interval)
			}
		}
	}
}

// runCycle performs one full control cycle:
// sample -> warm-up gate -> disabled check -> validity check ->
// compute target -> hysteresis -> actuate -> alert.
func (e *Engine) runCycle() {
	e.sample()

	e.mu.Lock()
	cfg := e.config

	if !e.warmedUp {
		e.warmupCycles++
		e.status.WarmupProgress = util.Coerce(e.warmupCycles*100/cfg.TempHistorySize, 0, 100)

		if e.warmupCycles >= cfg.TempHistorySize {
			e.warmedUp = true
			e.status.IsWarmedUp = true
			ui.Info("Warm-up complete, fan control active")
		} else {
			warmupCycles := e.warmupCycles
			e.mu.Unlock()
			ui.Debug("Warming up %d/%d", warmupCycles, cfg.TempHistorySize)
			return
		}
	}

	cpuAvg := copyIntPtr(e.status.CpuAvgTemp)
	maxDisk := copyIntPtr(e.status.MaxDiskTemp)
	currentPwm := copyIntPtr(e.status.CurrentPwm)
	lastApplied := copyIntPtr(e.lastApplied)
	e.mu.Unlock()

	// administratively disabled: sampling and status continue, the
	// actuator is left alone
	if !cfg.Enabled {
		return
	}

	hasCpu := cpuAvg != nil && *cpuAvg > 0
	hasDisk := maxDisk != nil && *maxDisk > 0

	if !hasCpu && !hasDisk {
		ui.Warning("No temperature data available, falling back to safety PWM")
		e.applyTarget(SafetyFallbackPwm, TriggerSourceSafety, curve.StageWarning, currentPwm)
		return
	}

	var cpuPwm, diskPwm int
	var cpuStage, diskStage curve.Stage
	if hasCpu {
		cpuPwm, cpuStage = curve.Evaluate(*cpuAvg, cfg.CpuCurve)
	}
	if hasDisk {
		diskPwm, diskStage = curve.Evaluate(*maxDisk, cfg.DiskCurve)
	}

	// whichever subsystem demands more cooling wins, ties go to the CPU
	var target int
	var source TriggerSource
	var stage curve.Stage
	if hasCpu && (!hasDisk || cpuPwm >= diskPwm) {
		target, source, stage = cpuPwm, TriggerSourceCpu, cpuStage
	} else {
		target, source, stage = diskPwm, TriggerSourceDisk, diskStage
	}

	// hysteresis: suppress chatter from noisy sensors near curve
	// inflection points
	if threshold := cfg.PwmChangeThreshold; threshold > 0 && lastApplied != nil {
		if abs(target-*lastApplied) < threshold {
			target = *lastApplied
		}
	}

	e.applyTarget(target, source, stage, currentPwm)

	e.checkAlerts(cfg)
}

// applyTarget writes the target to the actuator if it differs from the
// current hardware value and publishes the decision into the status.
func (e *Engine) applyTarget(target int, source TriggerSource, stage curve.Stage, currentPwm *int) {
	if currentPwm == nil || *currentPwm != target {
		if err := e.actuator.SetPwm(target); err != nil {
			// status still reports the intended target, the write is
			// retried next cycle as long as the values differ
			ui.Error("Error setting PWM to %d: %v", target, err)
		}
	}

	e.mu.Lock()
	applied := target
	e.status.TargetPwm = &applied
	e.status.TriggerSource = source
	e.status.TriggerStage = stage
	e.lastApplied = &applied
	e.mu.Unlock()
}

// sample reads all sensors and the actuator outside the lock, feeds the
// rolling histories and publishes the raw values into the status.
func (e *Engine) sample() {
	type diskRef struct {
		id     string
		device string
	}

	e.mu.Lock()
	refs := make([]diskRef, 0, len(e.disks))
	for _, disk := range e.disks {
		refs = append(refs, diskRef{id: disk.ID, device: disk.Device})
	}
	e.mu.Unlock()

	cpuTemp, cpuErr := e.sensors.CpuTemperature()
	if cpuErr == nil {
		e.tracker.Record(cpuSourceKey, cpuTemp)
	} else {
		ui.Debug("Unable to read cpu temperature: %v", cpuErr)
		e.tracker.RecordFailure(cpuSourceKey)
	}
	cpuAvg, cpuAvgOk := e.tracker.Average(cpuSourceKey)

	diskTemps := make(map[string]*int, len(refs))
	diskAvgs := make(map[string]*int, len(refs))
	for _, ref := range refs {
		temp, err := e.sensors.DiskTemperature(ref.device)
		if err == nil {
			value := temp
			diskTemps[ref.id] = &value
			e.tracker.Record(ref.id, temp)
		} else {
			ui.Debug("Unable to read temperature of %s: %v", ref.device, err)
			diskTemps[ref.id] = nil
			e.tracker.RecordFailure(ref.id)
		}

		if avg, ok := e.tracker.Average(ref.id); ok {
			value := avg
			diskAvgs[ref.id] = &value
		} else {
			diskAvgs[ref.id] = nil
		}
	}

	fanRpm, rpmErr := e.sensors.FanRpm()
	currentPwm, pwmErr := e.actuator.GetPwm()

	now := time.Now()

	e.mu.Lock()
	defer e.mu.Unlock()

	e.status.CpuTemp = nil
	if cpuErr == nil {
		value := cpuTemp
		e.status.CpuTemp = &value
	}
	e.status.CpuAvgTemp = nil
	if cpuAvgOk {
		value := cpuAvg
		e.status.CpuAvgTemp = &value
	}

	e.status.DiskTemps = diskTemps
	e.status.DiskAvgTemps = diskAvgs

	var maxDisk *int
	for _, disk := range e.disks {
		if temp := diskTemps[disk.ID]; temp != nil {
			value := *temp
			disk.Temp = &value
		} else {
			disk.Temp = nil
		}

		// only active disks drive the fan speed decision
		if !disk.Active {
			continue
		}
		if avg := diskAvgs[disk.ID]; avg != nil {
			if maxDisk == nil || *avg > *maxDisk {
				value := *avg
				maxDisk = &value
			}
		}
	}
	e.status.MaxDiskTemp = maxDisk

	e.status.FanRpm = nil
	if rpmErr == nil {
		value := fanRpm
		e.status.FanRpm = &value
	}
	e.status.CurrentPwm = nil
	if pwmErr == nil {
		value := currentPwm
		e.status.CurrentPwm = &value
	}

	e.status.LastUpdate = now
}

func copyIntPtr(value *int) *int {
	if value == nil {
		return nil
	}
	copied := *value
	return &copied
}

func abs(value int) int {
	if value < 0 {
		return -value
	}
	return value
}
