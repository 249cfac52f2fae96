package cmd

import (
	"bytes"
	"strconv"

	"github.com/guptarohit/asciigraph"
	"github.com/mgutz/ansi"
	"github.com/spf13/cobra"
	"github.com/tomlazar/table"

	"github.com/nasfand/nasfand/cmd/global"
	"github.com/nasfand/nasfand/internal/configuration"
	"github.com/nasfand/nasfand/internal/curve"
	"github.com/nasfand/nasfand/internal/persistence"
	"github.com/nasfand/nasfand/internal/ui"
)

var curveCmd = &cobra.Command{
	Use:   "curve",
	Short: "Print the configured fan curve(s) to console",
	Run: func(cmd *cobra.Command, args []string) {
		configuration.DetectAndReadConfigFile()
		configuration.LoadConfig()

		config := configuration.CurrentConfig.FanControl

		// show what the daemon would actually use
		pers := persistence.NewPersistence(configuration.CurrentConfig.DbPath)
		stored, err := pers.LoadFanControlConfig()
		if err == nil && stored != nil {
			config = *stored
		}

		printCurve("CPU", config.CpuCurve)
		ui.Printfln("")
		ui.Printfln("")
		printCurve("Disk", config.DiskCurve)
	},
}

func printCurve(name string, points []configuration.CurvePoint) {
	ui.Printfln(name)

	var rows [][]string
	for _, point := range points {
		rows = append(rows, []string{
			strconv.Itoa(point.Temp) + "°C", strconv.Itoa(point.Pwm),
		})
	}
	tab := table.Table{
		Headers: []string{"Temp", "PWM"},
		Rows:    rows,
	}
	var buf bytes.Buffer
	tableErr := tab.WriteTable(&buf, &table.Config{
		ShowIndex:       false,
		Color:           !global.NoColor,
		AlternateColors: true,
		TitleColorCode:  ansi.ColorCode("white+buf"),
		AltColorCodes: []string{
			ansi.ColorCode("white"),
			ansi.ColorCode("white:236"),
		},
	})
	if tableErr != nil {
		ui.Fatal("Error printing table: %v", tableErr)
	}
	ui.Printfln(buf.String())

	if len(points) <= 0 {
		ui.Printfln("No curve points configured...")
		return
	}

	minTemp := points[0].Temp
	maxTemp := points[0].Temp
	for _, point := range points {
		if point.Temp < minTemp {
			minTemp = point.Temp
		}
		if point.Temp > maxTemp {
			maxTemp = point.Temp
		}
	}

	values := make([]float64, 0, maxTemp-minTemp+1)
	for temp := minTemp; temp <= maxTemp; temp++ {
		pwm, _ := curve.Evaluate(temp, points)
		values = append(values, float64(pwm))
	}

	caption := "PWM / Temp"
	graph := asciigraph.Plot(values, asciigraph.Height(15), asciigraph.Width(100), asciigraph.Caption(caption))
	ui.Printfln(graph)
}

func init() {
	rootCmd.AddCommand(curveCmd)
}
