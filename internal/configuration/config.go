package configuration

import (
	"os"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/nasfand/nasfand/internal/ui"
	"github.com/spf13/viper"
)

type Configuration struct {
	DbPath string `json:"dbPath"`

	Api        ApiConfig        `json:"api"`
	Statistics StatisticsConfig `json:"statistics"`

	FanControl FanControlConfig `json:"fanControl"`
}

type ApiConfig struct {
	Enabled bool   `json:"enabled"`
	Host    string `json:"host"`
	Port    int    `json:"port"`
}

type StatisticsConfig struct {
	Enabled bool `json:"enabled"`
	Port    int  `json:"port"`
}

var CurrentConfig Configuration

// InitConfig reads in config file and ENV variables if set.
func InitConfig(cfgFile string) {
	viper.SetConfigName("nasfand")

	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := homedir.Dir()
		if err != nil {
			ui.Error("Couldn't detect home directory: %v", err)
			os.Exit(1)
		}

		viper.AddConfigPath(".")
		viper.AddConfigPath(home)
		viper.AddConfigPath("/etc/nasfand/")
	}

	viper.AutomaticEnv() // read in environment variables that match

	setDefaultValues()
}

func setDefaultValues() {
	viper.SetDefault("dbpath", "/etc/nasfand/nasfand.db")

	viper.SetDefault("api.enabled", true)
	viper.SetDefault("api.host", "0.0.0.0")
	viper.SetDefault("api.port", 28257)

	viper.SetDefault("statistics.enabled", false)
	viper.SetDefault("statistics.port", 9000)

	viper.SetDefault("fancontrol.enabled", true)
	viper.SetDefault("fancontrol.check_interval", 2500*time.Millisecond)
	viper.SetDefault("fancontrol.temp_history_size", 4)
	viper.SetDefault("fancontrol.pwm_change_threshold", 0)

	viper.SetDefault("fancontrol.alert_enabled", true)
	viper.SetDefault("fancontrol.cpu_alert_temp", 62)
	viper.SetDefault("fancontrol.disk_alert_temp", 42)
	viper.SetDefault("fancontrol.alert_interval", 60*time.Second)
	viper.SetDefault("fancontrol.alert_hostname", "MainNAS")

	viper.SetDefault("fancontrol.pwm_control_file", "/sys/class/hwmon/hwmon4/pwm3")
	viper.SetDefault("fancontrol.pwm_enable_file", "/sys/class/hwmon/hwmon4/pwm3_enable")

	viper.SetDefault("fancontrol.active_disks", []string{})
}

// DetectConfigFile returns the path of the config file that will be used
func DetectConfigFile() string {
	return viper.ConfigFileUsed()
}

// DetectAndReadConfigFile detects the path of the first existing config file
// and reads it into viper. A missing config file is fine, defaults apply.
func DetectAndReadConfigFile() string {
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			ui.Info("No config file found, using defaults")
		} else {
			ui.Fatal("Error reading config file: %v", err)
		}
	}
	return DetectConfigFile()
}

// LoadConfig loads the configuration from viper into CurrentConfig
func LoadConfig() {
	err := viper.Unmarshal(&CurrentConfig, viper.DecodeHook(decodeHook()))
	if err != nil {
		ui.Fatal("unable to decode into struct, %v", err)
	}

	if len(CurrentConfig.FanControl.CpuCurve) <= 0 {
		CurrentConfig.FanControl.CpuCurve = DefaultCpuCurve()
	}
	if len(CurrentConfig.FanControl.DiskCurve) <= 0 {
		CurrentConfig.FanControl.DiskCurve = DefaultDiskCurve()
	}
}

// Validate checks the current configuration for semantic errors
func Validate(configPath string) error {
	return validateConfig(&CurrentConfig, configPath)
}
