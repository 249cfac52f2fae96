package disks

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/nasfand/nasfand/internal/ui"
	"github.com/nasfand/nasfand/internal/util"
)

const (
	lsblkTimeout    = 5 * time.Second
	smartctlTimeout = 10 * time.Second
)

type smartctlInfo struct {
	ModelName    string `json:"model_name"`
	SerialNumber string `json:"serial_number"`
}

// fetchDiskInfo looks up model, serial and size of a block device.
// lsblk delivers the basics, smartctl refines model and serial when it
// is available. All failures degrade to empty fields.
func fetchDiskInfo(device string) (model string, serial string, size string) {
	output, err := util.CmdOutput("lsblk", []string{"-d", "-o", "MODEL,SERIAL,SIZE", "-n", "/dev/" + device}, lsblkTimeout)
	if err == nil {
		model, size = parseLsblkLine(output)
	} else {
		ui.Debug("lsblk on %s: %v", device, err)
	}

	output, err = util.CmdOutput("smartctl", []string{"-i", "/dev/" + device, "-j"}, smartctlTimeout)
	if err == nil {
		var info smartctlInfo
		if jsonErr := json.Unmarshal([]byte(output), &info); jsonErr == nil {
			if len(info.ModelName) > 0 {
				model = info.ModelName
			}
			if len(info.SerialNumber) > 0 {
				serial = info.SerialNumber
			}
		}
	} else {
		ui.Debug("smartctl on %s: %v", device, err)
	}

	return strings.TrimSpace(model), strings.TrimSpace(serial), strings.TrimSpace(size)
}

// parseLsblkLine splits a "MODEL SERIAL SIZE" line. The model may
// contain spaces, the size is always the last column.
func parseLsblkLine(line string) (model string, size string) {
	parts := strings.Fields(line)
	if len(parts) <= 0 {
		return "", ""
	}
	if len(parts) == 1 {
		return parts[0], ""
	}
	return strings.Join(parts[:len(parts)-1], " "), parts[len(parts)-1]
}
