package controller

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/nasfand/nasfand/internal/configuration"
)

// checkAlerts fires push notifications for sustained over-temperature
// conditions. Thresholds compare against the rolling averages, a single
// hot read never alerts. Each source has its own cooldown so an
// unrelated disk breaching later is not swallowed by an earlier alert.
func (e *Engine) checkAlerts(cfg configuration.FanControlConfig) {
	if !cfg.AlertEnabled {
		return
	}

	now := time.Now()

	type hotDisk struct {
		id  string
		avg int
	}

	e.mu.Lock()
	cpuAvg := copyIntPtr(e.status.CpuAvgTemp)
	fanRpm := copyIntPtr(e.status.FanRpm)
	var hot []hotDisk
	for _, disk := range e.disks {
		if !disk.Active {
			continue
		}
		if avg := e.status.DiskAvgTemps[disk.ID]; avg != nil && *avg >= cfg.DiskAlertTemp {
			hot = append(hot, hotDisk{id: disk.ID, avg: *avg})
		}
	}
	e.mu.Unlock()

	rpmText := "N/A"
	if fanRpm != nil {
		rpmText = strconv.Itoa(*fanRpm)
	}

	if cpuAvg != nil && *cpuAvg >= cfg.CpuAlertTemp &&
		e.throttle.ShouldFire(cpuSourceKey, now, cfg.AlertInterval) {
		e.notifier.Send(fmt.Sprintf(
			"[%s]: 🔥 CPU: %d°C | RPM: %s",
			cfg.AlertHostname, *cpuAvg, rpmText,
		))
	}

	// disks that cleared their cooldown are coalesced into one message
	var parts []string
	for _, disk := range hot {
		if e.throttle.ShouldFire(disk.id, now, cfg.AlertInterval) {
			parts = append(parts, fmt.Sprintf("%s: %d°C", disk.id, disk.avg))
		}
	}
	if len(parts) > 0 {
		e.notifier.Send(fmt.Sprintf(
			"[%s]: 🔥 %s | RPM: %s",
			cfg.AlertHostname, strings.Join(parts, ", "), rpmText,
		))
	}
}
