package statistics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/nasfand/nasfand/internal/controller"
)

const controllerSubsystem = "controller"

type ControllerCollector struct {
	engine *controller.Engine

	cpuTemp     *prometheus.Desc
	cpuAvgTemp  *prometheus.Desc
	diskTemp    *prometheus.Desc
	diskAvgTemp *prometheus.Desc
	maxDiskTemp *prometheus.Desc
	fanRpm      *prometheus.Desc
	currentPwm  *prometheus.Desc
	targetPwm   *prometheus.Desc
	warmedUp    *prometheus.Desc
}

func NewControllerCollector(engine *controller.Engine) *ControllerCollector {
	return &ControllerCollector{
		engine: engine,
		cpuTemp: prometheus.NewDesc(prometheus.BuildFQName(namespace, controllerSubsystem, "cpu_temp"),
			"Last raw CPU temperature reading in °C",
			nil, nil,
		),
		cpuAvgTemp: prometheus.NewDesc(prometheus.BuildFQName(namespace, controllerSubsystem, "cpu_avg_temp"),
			"Rolling average CPU temperature in °C",
			nil, nil,
		),
		diskTemp: prometheus.NewDesc(prometheus.BuildFQName(namespace, controllerSubsystem, "disk_temp"),
			"Last raw disk temperature reading in °C",
			[]string{"id"}, nil,
		),
		diskAvgTemp: prometheus.NewDesc(prometheus.BuildFQName(namespace, controllerSubsystem, "disk_avg_temp"),
			"Rolling average disk temperature in °C",
			[]string{"id"}, nil,
		),
		maxDiskTemp: prometheus.NewDesc(prometheus.BuildFQName(namespace, controllerSubsystem, "max_disk_temp"),
			"Maximum rolling average temperature among active disks in °C",
			nil, nil,
		),
		fanRpm: prometheus.NewDesc(prometheus.BuildFQName(namespace, controllerSubsystem, "fan_rpm"),
			"Fan speed as reported by the fan tachometer",
			nil, nil,
		),
		currentPwm: prometheus.NewDesc(prometheus.BuildFQName(namespace, controllerSubsystem, "current_pwm"),
			"PWM value as reported by the hardware",
			nil, nil,
		),
		targetPwm: prometheus.NewDesc(prometheus.BuildFQName(namespace, controllerSubsystem, "target_pwm"),
			"PWM value last decided on by the control loop",
			nil, nil,
		),
		warmedUp: prometheus.NewDesc(prometheus.BuildFQName(namespace, controllerSubsystem, "warmed_up"),
			"Whether the control loop has finished warming up (0/1)",
			nil, nil,
		),
	}
}

func (collector *ControllerCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- collector.cpuTemp
	ch <- collector.cpuAvgTemp
	ch <- collector.diskTemp
	ch <- collector.diskAvgTemp
	ch <- collector.maxDiskTemp
	ch <- collector.fanRpm
	ch <- collector.currentPwm
	ch <- collector.targetPwm
	ch <- collector.warmedUp
}

// Collect implements required collect function for all prometheus collectors
func (collector *ControllerCollector) Collect(ch chan<- prometheus.Metric) {
	status := collector.engine.Status()

	if status.CpuTemp != nil {
		ch <- prometheus.MustNewConstMetric(collector.cpuTemp, prometheus.GaugeValue, float64(*status.CpuTemp))
	}
	if status.CpuAvgTemp != nil {
		ch <- prometheus.MustNewConstMetric(collector.cpuAvgTemp, prometheus.GaugeValue, float64(*status.CpuAvgTemp))
	}
	for id, temp := range status.DiskTemps {
		if temp != nil {
			ch <- prometheus.MustNewConstMetric(collector.diskTemp, prometheus.GaugeValue, float64(*temp), id)
		}
	}
	for id, avg := range status.DiskAvgTemps {
		if avg != nil {
			ch <- prometheus.MustNewConstMetric(collector.diskAvgTemp, prometheus.GaugeValue, float64(*avg), id)
		}
	}
	if status.MaxDiskTemp != nil {
		ch <- prometheus.MustNewConstMetric(collector.maxDiskTemp, prometheus.GaugeValue, float64(*status.MaxDiskTemp))
	}
	if status.FanRpm != nil {
		ch <- prometheus.MustNewConstMetric(collector.fanRpm, prometheus.GaugeValue, float64(*status.FanRpm))
	}
	if status.CurrentPwm != nil {
		ch <- prometheus.MustNewConstMetric(collector.currentPwm, prometheus.GaugeValue, float64(*status.CurrentPwm))
	}
	if status.TargetPwm != nil {
		ch <- prometheus.MustNewConstMetric(collector.targetPwm, prometheus.GaugeValue, float64(*status.TargetPwm))
	}

	warmedUp := 0.0
	if status.IsWarmedUp {
		warmedUp = 1.0
	}
	ch <- prometheus.MustNewConstMetric(collector.warmedUp, prometheus.GaugeValue, warmedUp)
}
