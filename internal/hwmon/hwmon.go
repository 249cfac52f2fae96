package hwmon

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/md14454/gosensors"
	"github.com/nasfand/nasfand/internal/ui"
	"github.com/nasfand/nasfand/internal/util"
)

const (
	BusTypeIsa  = 1
	BusTypePci  = 2
	BusTypeAcpi = 5
)

type TempSensor struct {
	Label string
	Input string
	Value int
}

// HwMonController describes one hwmon chip: its temperature inputs and
// the pwm control files it exposes. Used by the detect command to help
// pick the pwm_control_file for the configuration.
type HwMonController struct {
	Name string
	Path string

	Sensors    []TempSensor
	PwmOutputs []string
}

// GetChips enumerates all hwmon chips via libsensors.
func GetChips() []*HwMonController {
	gosensors.Init()
	defer gosensors.Cleanup()
	chips := gosensors.GetDetectedChips()

	var list []*HwMonController

	for i := 0; i < len(chips); i++ {
		chip := chips[i]

		sensorList := getTempSensors(chip)
		pwmOutputs := findPwmOutputs(chip.Path)

		if len(sensorList) <= 0 && len(pwmOutputs) <= 0 {
			continue
		}

		c := &HwMonController{
			Name:       computeIdentifier(chip),
			Path:       chip.Path,
			Sensors:    sensorList,
			PwmOutputs: pwmOutputs,
		}
		list = append(list, c)
	}

	return list
}

func getTempSensors(chip gosensors.Chip) []TempSensor {
	var sensorList []TempSensor

	features := chip.GetFeatures()
	for j := 0; j < len(features); j++ {
		feature := features[j]

		if feature.Type != gosensors.FeatureTypeTemp {
			continue
		}

		subfeatures := feature.GetSubFeatures()
		for _, subfeature := range subfeatures {
			if subfeature.Type != gosensors.SubFeatureTypeTempInput {
				continue
			}

			input := fmt.Sprintf("%s/%s", chip.Path, subfeature.Name)
			sensorList = append(sensorList, TempSensor{
				Label: getLabel(chip.Path, subfeature.Name),
				Input: input,
				Value: int(subfeature.GetValue()),
			})
		}
	}

	return sensorList
}

// findPwmOutputs lists the writable pwm control files of a chip
// (pwm1, pwm2, ... but not pwm1_enable or pwm1_mode).
func findPwmOutputs(chipPath string) []string {
	matches, err := filepath.Glob(chipPath + "/pwm[0-9]*")
	if err != nil {
		return nil
	}

	var outputs []string
	for _, match := range matches {
		base := filepath.Base(match)
		if strings.ContainsRune(base, '_') {
			continue
		}
		outputs = append(outputs, match)
	}
	return outputs
}

// getLabel reads the label of an in/output of a device
func getLabel(devicePath string, input string) string {
	labelPath := strings.TrimSuffix(devicePath+"/"+input, "input") + "label"

	content, _ := os.ReadFile(labelPath)
	label := string(content)
	if len(label) <= 0 {
		_, label = filepath.Split(devicePath)
	}
	return strings.TrimSpace(label)
}

func computeIdentifier(chip gosensors.Chip) (name string) {
	name = chip.Prefix

	if len(name) <= 0 {
		_, name = filepath.Split(chip.Path)
	}

	identifier := name
	switch chip.Bus.Type {
	case BusTypeIsa:
		identifier = fmt.Sprintf("%s-isa-%d", identifier, chip.Bus.Nr)
	case BusTypePci:
		identifier = fmt.Sprintf("%s-pci-%d", identifier, chip.Bus.Nr)
	case BusTypeAcpi:
		identifier = fmt.Sprintf("%s-acpi-%d", identifier, chip.Bus.Nr)
	}

	return identifier
}

// LoadIt87Module loads the it87 kernel module that exposes the fan
// controller of the supported boards. Failure is not fatal: the module
// may be built in, already loaded, or the board may use another driver.
func LoadIt87Module() {
	_, err := util.CmdOutput("modprobe", []string{"it87", "force_id=0x8620"}, 10*time.Second)
	if err != nil {
		ui.Warning("Unable to load it87 kernel module: %v", err)
		return
	}
	ui.Info("Loaded it87 kernel module (force_id=0x8620)")
}
