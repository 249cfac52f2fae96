package controller

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/nasfand/nasfand/internal/configuration"
	"github.com/nasfand/nasfand/internal/curve"
	"github.com/nasfand/nasfand/internal/disks"
)

type mockPort struct {
	cpuTemp   int
	cpuErr    error
	diskTemps map[string]int
	diskErr   error
	fanRpm    int
	rpmErr    error
}

func (m *mockPort) CpuTemperature() (int, error) {
	return m.cpuTemp, m.cpuErr
}

func (m *mockPort) DiskTemperature(device string) (int, error) {
	if m.diskErr != nil {
		return 0, m.diskErr
	}
	temp, ok := m.diskTemps[device]
	if !ok {
		return 0, errors.New("no such device")
	}
	return temp, nil
}

func (m *mockPort) FanRpm() (int, error) {
	return m.fanRpm, m.rpmErr
}

type mockActuator struct {
	pwm      int
	setCalls []int
	setErr   error
}

func (m *mockActuator) GetPwm() (int, error) {
	return m.pwm, nil
}

func (m *mockActuator) SetPwm(pwm int) error {
	m.setCalls = append(m.setCalls, pwm)
	if m.setErr != nil {
		return m.setErr
	}
	m.pwm = pwm
	return nil
}

func (m *mockActuator) EnableManualControl() error {
	return nil
}

type mockNotifier struct {
	messages []string
}

func (m *mockNotifier) Send(message string) {
	m.messages = append(m.messages, message)
}

func testConfig() configuration.FanControlConfig {
	return configuration.FanControlConfig{
		Enabled:            true,
		CheckInterval:      2500 * time.Millisecond,
		TempHistorySize:    1,
		PwmChangeThreshold: 0,
		AlertEnabled:       false,
		CpuAlertTemp:       62,
		DiskAlertTemp:      42,
		AlertInterval:      time.Minute,
		AlertHostname:      "TestNAS",
		PwmControlFile:     "/dev/null",
		CpuCurve:           configuration.DefaultCpuCurve(),
		DiskCurve:          configuration.DefaultDiskCurve(),
	}
}

func newTestEngine(config configuration.FanControlConfig, port *mockPort, actuator *mockActuator, notifier *mockNotifier) *Engine {
	engine := NewEngine(config, nil, port, actuator, notifier)
	return engine
}

func attachDisks(engine *Engine, active bool, ids ...string) {
	diskList := make([]*disks.Disk, 0, len(ids))
	for _, id := range ids {
		diskList = append(diskList, &disks.Disk{
			ID:     id,
			Device: "sd" + id,
			Active: active,
		})
	}
	engine.mu.Lock()
	engine.disks = diskList
	engine.mu.Unlock()
	if active {
		engine.SetActiveDisks(ids)
	}
}

func TestEngineWarmupSuppressesActuation(t *testing.T) {
	// GIVEN
	config := testConfig()
	config.TempHistorySize = 3
	actuator := &mockActuator{pwm: 0}
	engine := newTestEngine(config, &mockPort{cpuTemp: 70}, actuator, &mockNotifier{})

	// WHEN
	engine.runCycle()
	engine.runCycle()

	// THEN
	status := engine.Status()
	assert.Empty(t, actuator.setCalls)
	assert.False(t, status.IsWarmedUp)
	assert.Equal(t, 66, status.WarmupProgress)

	// WHEN the history is full
	engine.runCycle()

	// THEN the engine starts actuating
	status = engine.Status()
	assert.True(t, status.IsWarmedUp)
	assert.Equal(t, 100, status.WarmupProgress)
	assert.NotEmpty(t, actuator.setCalls)
}

func TestEngineCpuDrivesFanSpeed(t *testing.T) {
	// GIVEN a hot cpu and a cool disk
	config := testConfig()
	port := &mockPort{
		cpuTemp:   70,
		diskTemps: map[string]int{"sdDisk1": 25},
		fanRpm:    1200,
	}
	actuator := &mockActuator{pwm: 0}
	engine := newTestEngine(config, port, actuator, &mockNotifier{})
	attachDisks(engine, true, "Disk1")

	// WHEN
	engine.runCycle()

	// THEN the cpu curve wins
	status := engine.Status()
	assert.Equal(t, TriggerSourceCpu, status.TriggerSource)
	assert.Equal(t, curve.StageCritical, status.TriggerStage)
	assert.Equal(t, []int{210}, actuator.setCalls)
	assert.Equal(t, 210, *status.TargetPwm)
}

func TestEngineDiskDrivesFanSpeed(t *testing.T) {
	// GIVEN a cool cpu and a hot disk
	config := testConfig()
	port := &mockPort{
		cpuTemp:   30,
		diskTemps: map[string]int{"sdDisk1": 50},
	}
	actuator := &mockActuator{pwm: 0}
	engine := newTestEngine(config, port, actuator, &mockNotifier{})
	attachDisks(engine, true, "Disk1")

	// WHEN
	engine.runCycle()

	// THEN
	status := engine.Status()
	assert.Equal(t, TriggerSourceDisk, status.TriggerSource)
	assert.Equal(t, []int{175}, actuator.setCalls)
	assert.Equal(t, 50, *status.MaxDiskTemp)
}

func TestEngineTieGoesToCpu(t *testing.T) {
	// GIVEN temperatures whose curves produce the same pwm
	config := testConfig()
	config.CpuCurve = []configuration.CurvePoint{{Temp: 0, Pwm: 100}}
	config.DiskCurve = []configuration.CurvePoint{{Temp: 0, Pwm: 100}}
	port := &mockPort{
		cpuTemp:   40,
		diskTemps: map[string]int{"sdDisk1": 40},
	}
	engine := newTestEngine(config, port, &mockActuator{}, &mockNotifier{})
	attachDisks(engine, true, "Disk1")

	// WHEN
	engine.runCycle()

	// THEN
	assert.Equal(t, TriggerSourceCpu, engine.Status().TriggerSource)
}

func TestEngineSafetyFallback(t *testing.T) {
	// GIVEN no readable temperature source at all
	config := testConfig()
	port := &mockPort{
		cpuErr:  errors.New("sensors unavailable"),
		diskErr: errors.New("smartctl unavailable"),
	}
	actuator := &mockActuator{pwm: 0}
	engine := newTestEngine(config, port, actuator, &mockNotifier{})
	attachDisks(engine, true, "Disk1")

	// WHEN
	engine.runCycle()

	// THEN the fan is forced to half scale
	status := engine.Status()
	assert.Equal(t, []int{SafetyFallbackPwm}, actuator.setCalls)
	assert.Equal(t, TriggerSourceSafety, status.TriggerSource)
	assert.Equal(t, curve.StageWarning, status.TriggerStage)
	assert.Nil(t, status.CpuAvgTemp)
	assert.Nil(t, status.MaxDiskTemp)
}

func TestEngineSensorFailureClearsHistory(t *testing.T) {
	// GIVEN a cpu that was readable for a while
	config := testConfig()
	config.TempHistorySize = 4
	port := &mockPort{cpuTemp: 50}
	engine := newTestEngine(config, port, &mockActuator{}, &mockNotifier{})
	for i := 0; i < 4; i++ {
		engine.runCycle()
	}
	assert.Equal(t, 50, *engine.Status().CpuAvgTemp)

	// WHEN a read fails
	port.cpuErr = errors.New("transient failure")
	engine.runCycle()

	// THEN the rolling average is discarded, not diluted
	assert.Nil(t, engine.Status().CpuAvgTemp)

	// WHEN the sensor recovers
	port.cpuErr = nil
	engine.runCycle()

	// THEN the average restarts from fresh samples only
	assert.Equal(t, 50, *engine.Status().CpuAvgTemp)
}

func TestEngineHysteresisSuppressesSmallChanges(t *testing.T) {
	// GIVEN
	config := testConfig()
	config.PwmChangeThreshold = 10
	port := &mockPort{cpuTemp: 50}
	actuator := &mockActuator{pwm: 0}
	engine := newTestEngine(config, port, actuator, &mockNotifier{})

	engine.runCycle()
	assert.Equal(t, []int{80}, actuator.setCalls)

	// WHEN the temperature moves the target by less than the threshold
	port.cpuTemp = 52
	engine.runCycle()

	// THEN the previous value is kept and the hardware is not touched
	assert.Equal(t, []int{80}, actuator.setCalls)
	assert.Equal(t, 80, *engine.Status().TargetPwm)

	// WHEN the target moves past the threshold
	port.cpuTemp = 60
	engine.runCycle()

	// THEN the new value is applied
	assert.Equal(t, []int{80, 120}, actuator.setCalls)
}

func TestEngineDisabledSkipsActuation(t *testing.T) {
	// GIVEN
	config := testConfig()
	config.Enabled = false
	port := &mockPort{cpuTemp: 70, fanRpm: 900}
	actuator := &mockActuator{pwm: 42}
	engine := newTestEngine(config, port, actuator, &mockNotifier{})

	// WHEN
	engine.runCycle()

	// THEN sampling continues but the actuator is left alone
	status := engine.Status()
	assert.Empty(t, actuator.setCalls)
	assert.Equal(t, 70, *status.CpuAvgTemp)
	assert.Equal(t, 900, *status.FanRpm)
	assert.Equal(t, 42, *status.CurrentPwm)
	assert.Nil(t, status.TargetPwm)
}

func TestEngineInactiveDiskDoesNotDriveFanSpeed(t *testing.T) {
	// GIVEN a very hot disk that is not marked active
	config := testConfig()
	port := &mockPort{
		cpuTemp:   30,
		diskTemps: map[string]int{"sdDisk1": 58},
	}
	actuator := &mockActuator{pwm: 0}
	engine := newTestEngine(config, port, actuator, &mockNotifier{})
	attachDisks(engine, false, "Disk1")

	// WHEN
	engine.runCycle()

	// THEN the cool cpu decides, the disk is only monitored
	status := engine.Status()
	assert.Equal(t, TriggerSourceCpu, status.TriggerSource)
	assert.Equal(t, []int{30}, actuator.setCalls)
	assert.Nil(t, status.MaxDiskTemp)
	assert.Equal(t, 58, *status.DiskAvgTemps["Disk1"])
}

func TestEngineAlertsAreCoalescedAndThrottled(t *testing.T) {
	// GIVEN two active disks above the alert threshold
	config := testConfig()
	config.AlertEnabled = true
	port := &mockPort{
		cpuTemp: 30,
		diskTemps: map[string]int{
			"sdDisk1": 45,
			"sdDisk2": 46,
		},
		fanRpm: 1200,
	}
	notifier := &mockNotifier{}
	engine := newTestEngine(config, port, &mockActuator{}, notifier)
	attachDisks(engine, true, "Disk1", "Disk2")

	// WHEN
	engine.runCycle()

	// THEN both disks share a single message
	assert.Equal(t, []string{"[TestNAS]: 🔥 Disk1: 45°C, Disk2: 46°C | RPM: 1200"}, notifier.messages)

	// WHEN the next cycle runs within the cooldown
	engine.runCycle()

	// THEN no further alert is sent
	assert.Len(t, notifier.messages, 1)
}

func TestEngineCpuAlert(t *testing.T) {
	// GIVEN a cpu above the alert threshold
	config := testConfig()
	config.AlertEnabled = true
	port := &mockPort{cpuTemp: 70, fanRpm: 1500}
	notifier := &mockNotifier{}
	engine := newTestEngine(config, port, &mockActuator{}, notifier)

	// WHEN
	engine.runCycle()

	// THEN
	assert.Equal(t, []string{"[TestNAS]: 🔥 CPU: 70°C | RPM: 1500"}, notifier.messages)
}

func TestEngineUpdateConfigRejectsUnknownKeys(t *testing.T) {
	// GIVEN
	engine := newTestEngine(testConfig(), &mockPort{cpuTemp: 40}, &mockActuator{}, &mockNotifier{})

	// WHEN
	err := engine.UpdateConfig(map[string]interface{}{
		"does_not_exist": 1,
	})

	// THEN the configuration is untouched
	assert.Error(t, err)
	assert.Equal(t, testConfig().CheckInterval, engine.Config().CheckInterval)
}

func TestEngineUpdateConfigResizesHistory(t *testing.T) {
	// GIVEN
	engine := newTestEngine(testConfig(), &mockPort{cpuTemp: 40}, &mockActuator{}, &mockNotifier{})

	// WHEN
	err := engine.UpdateConfig(map[string]interface{}{
		"temp_history_size": 8,
	})

	// THEN
	assert.NoError(t, err)
	assert.Equal(t, 8, engine.Config().TempHistorySize)
	assert.Equal(t, 8, engine.tracker.Capacity())
}

func TestEngineSetActiveDisksUpdatesFlags(t *testing.T) {
	// GIVEN
	engine := newTestEngine(testConfig(), &mockPort{}, &mockActuator{}, &mockNotifier{})
	attachDisks(engine, false, "Disk1", "Disk2")

	// WHEN
	engine.SetActiveDisks([]string{"Disk2"})

	// THEN
	diskList := engine.Disks()
	assert.False(t, diskList[0].Active)
	assert.True(t, diskList[1].Active)
	assert.Equal(t, []string{"Disk2"}, engine.Config().ActiveDisks)
}

func TestEngineManualPwmPassesThrough(t *testing.T) {
	// GIVEN
	actuator := &mockActuator{}
	engine := newTestEngine(testConfig(), &mockPort{}, actuator, &mockNotifier{})

	// WHEN
	err := engine.SetManualPwm(200)

	// THEN
	assert.NoError(t, err)
	assert.Equal(t, []int{200}, actuator.setCalls)
}
