package fans

import (
	"os"
	"path/filepath"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nasfand/nasfand/internal/util"
)

func createPwmFiles(t *testing.T) (controlFile string, enableFile string) {
	t.Helper()
	dir := t.TempDir()
	controlFile = filepath.Join(dir, "pwm3")
	enableFile = filepath.Join(dir, "pwm3_enable")
	require.NoError(t, os.WriteFile(controlFile, []byte("0"), 0644))
	require.NoError(t, os.WriteFile(enableFile, []byte("0"), 0644))
	return controlFile, enableFile
}

func TestSetAndGetPwm(t *testing.T) {
	// GIVEN
	controlFile, enableFile := createPwmFiles(t)
	pwm := NewHwMonPwm(controlFile, enableFile)

	// WHEN
	err := pwm.SetPwm(180)

	// THEN
	assert.NoError(t, err)
	value, err := pwm.GetPwm()
	assert.NoError(t, err)
	assert.Equal(t, 180, value)
}

func TestSetPwmClampsOutOfRangeValues(t *testing.T) {
	// GIVEN
	controlFile, enableFile := createPwmFiles(t)
	pwm := NewHwMonPwm(controlFile, enableFile)

	// WHEN
	require.NoError(t, pwm.SetPwm(300))
	value, _ := pwm.GetPwm()
	assert.Equal(t, MaxPwmValue, value)

	require.NoError(t, pwm.SetPwm(-5))
	value, _ = pwm.GetPwm()
	assert.Equal(t, MinPwmValue, value)
}

func TestSetPwmWritesControlFileInPlace(t *testing.T) {
	// GIVEN sysfs rejects temp file creation in its directories, so the
	// control file must keep its inode across writes
	controlFile, enableFile := createPwmFiles(t)
	pwm := NewHwMonPwm(controlFile, enableFile)
	before, err := os.Stat(controlFile)
	require.NoError(t, err)

	// WHEN
	require.NoError(t, pwm.SetPwm(128))

	// THEN no rename happened
	after, err := os.Stat(controlFile)
	require.NoError(t, err)
	assert.Equal(t,
		before.Sys().(*syscall.Stat_t).Ino,
		after.Sys().(*syscall.Stat_t).Ino)
}

func TestEnableManualControl(t *testing.T) {
	// GIVEN
	controlFile, enableFile := createPwmFiles(t)
	pwm := NewHwMonPwm(controlFile, enableFile)

	// WHEN
	err := pwm.EnableManualControl()

	// THEN
	assert.NoError(t, err)
	value, err := util.ReadIntFromFile(enableFile)
	assert.NoError(t, err)
	assert.Equal(t, 1, value)
}

func TestEnableManualControlWithoutEnableFile(t *testing.T) {
	// GIVEN a board without a pwm enable switch
	controlFile, _ := createPwmFiles(t)
	pwm := NewHwMonPwm(controlFile, "")

	// WHEN
	err := pwm.EnableManualControl()

	// THEN
	assert.NoError(t, err)
}
