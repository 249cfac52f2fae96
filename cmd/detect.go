package cmd

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/mgutz/ansi"
	"github.com/spf13/cobra"
	"github.com/tomlazar/table"

	"github.com/nasfand/nasfand/cmd/global"
	"github.com/nasfand/nasfand/internal/disks"
	"github.com/nasfand/nasfand/internal/hwmon"
	"github.com/nasfand/nasfand/internal/sensors"
	"github.com/nasfand/nasfand/internal/ui"
)

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Detect devices",
	Long:  `Detects all disks and hwmon chips and prints them as a list`,
	Run: func(cmd *cobra.Command, args []string) {
		tableConfig := &table.Config{
			ShowIndex:       false,
			Color:           !global.NoColor,
			AlternateColors: true,
			TitleColorCode:  ansi.ColorCode("white+buf"),
			AltColorCodes: []string{
				ansi.ColorCode("white"),
				ansi.ColorCode("white:236"),
			},
		}

		printDiskTable(tableConfig)
		printChipTables(tableConfig)
	},
}

func printDiskTable(tableConfig *table.Config) {
	diskList := disks.DetectAll()
	if len(diskList) <= 0 {
		ui.Printfln("No disks found.")
		return
	}

	port := sensors.NewCmdPort()

	ui.Printfln("> Disks")
	var rows [][]string
	for _, disk := range diskList {
		tempText := "N/A"
		temp, err := port.DiskTemperature(disk.Device)
		if err == nil {
			tempText = strconv.Itoa(temp) + "°C"
		}

		rows = append(rows, []string{
			disk.ID, disk.Device, string(disk.Type), disk.Model, disk.Serial, disk.Size, tempText,
		})
	}

	diskTable := table.Table{
		Headers: []string{"ID", "Device", "Type", "Model", "Serial", "Size", "Temp"},
		Rows:    rows,
	}
	writeTable(diskTable, tableConfig)
}

func printChipTables(tableConfig *table.Config) {
	chips := hwmon.GetChips()

	for _, chip := range chips {
		if len(chip.Name) <= 0 {
			continue
		}
		if len(chip.Sensors) <= 0 && len(chip.PwmOutputs) <= 0 {
			continue
		}

		ui.Printfln("> %s", chip.Name)

		var sensorRows [][]string
		for _, sensor := range chip.Sensors {
			_, file := filepath.Split(sensor.Input)
			labelAndFile := fmt.Sprintf("%s (%s)", sensor.Label, file)

			sensorRows = append(sensorRows, []string{
				"", labelAndFile, strconv.Itoa(sensor.Value) + "°C",
			})
		}
		sensorTable := table.Table{
			Headers: []string{"Sensors", "Label", "Value"},
			Rows:    sensorRows,
		}

		var pwmRows [][]string
		for _, output := range chip.PwmOutputs {
			pwmRows = append(pwmRows, []string{"", output})
		}
		pwmTable := table.Table{
			Headers: []string{"PWM    ", "Control File"},
			Rows:    pwmRows,
		}

		for _, tab := range []table.Table{sensorTable, pwmTable} {
			if tab.Rows == nil {
				continue
			}
			writeTable(tab, tableConfig)
		}
	}
}

func writeTable(tab table.Table, tableConfig *table.Config) {
	var buf bytes.Buffer
	if err := tab.WriteTable(&buf, tableConfig); err != nil {
		ui.Fatal("Error printing table: %v", err)
	}
	ui.Printfln(buf.String())
}

func init() {
	rootCmd.AddCommand(detectCmd)
}
