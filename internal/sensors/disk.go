package sensors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
)

// smartctl exit code 2 means "device is in a low-power mode", which is
// expected for sleeping disks and must not be treated as a failure of
// the tool itself.
const smartctlExitStandby = 2

const (
	smartAttrAirflowTemp = "Airflow_Temperature_Cel"
	smartAttrDriveTemp   = "Temperature_Celsius"
)

type smartctlOutput struct {
	Temperature *struct {
		Current *int `json:"current"`
	} `json:"temperature"`

	AtaSmartAttributes *struct {
		Table []smartctlAttribute `json:"table"`
	} `json:"ata_smart_attributes"`

	NvmeSmartHealthInformationLog *struct {
		Temperature *int `json:"temperature"`
	} `json:"nvme_smart_health_information_log"`
}

type smartctlAttribute struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Raw  struct {
		Value int64 `json:"value"`
	} `json:"raw"`
}

func (p *CmdPort) DiskTemperature(device string) (int, error) {
	if len(device) <= 0 {
		return 0, errors.New("no device given")
	}

	ctx, cancel := context.WithTimeout(context.Background(), smartctlTimeout)
	defer cancel()

	// "-n standby" avoids waking up disks that have spun down
	cmd := exec.CommandContext(ctx, "smartctl", "-n", "standby", "-A", "/dev/"+device, "-j")
	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) || exitErr.ExitCode() != smartctlExitStandby {
			return 0, fmt.Errorf("smartctl on %s: %w", device, err)
		}
	}

	return parseSmartctlTemperature(output, device)
}

func parseSmartctlTemperature(output []byte, device string) (int, error) {
	var data smartctlOutput
	if err := json.Unmarshal(output, &data); err != nil {
		return 0, fmt.Errorf("smartctl output for %s: %w", device, err)
	}

	// SATA disks report temperature as a SMART attribute. The raw value
	// packs additional data (min/max) into the upper bytes, the lowest
	// byte is the current temperature.
	if data.AtaSmartAttributes != nil {
		for _, attr := range data.AtaSmartAttributes.Table {
			if attr.Name == smartAttrDriveTemp || attr.Name == smartAttrAirflowTemp {
				return int(attr.Raw.Value % 256), nil
			}
		}
	}

	// NVMe drives
	if data.Temperature != nil && data.Temperature.Current != nil {
		return *data.Temperature.Current, nil
	}
	if data.NvmeSmartHealthInformationLog != nil && data.NvmeSmartHealthInformationLog.Temperature != nil {
		return *data.NvmeSmartHealthInformationLog.Temperature, nil
	}

	return 0, fmt.Errorf("no temperature reported for %s", device)
}
