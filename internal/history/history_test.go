package history

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAverageIsFloored(t *testing.T) {
	// GIVEN
	tracker := NewTracker(4)
	tracker.Record("cpu", 40)
	tracker.Record("cpu", 42)
	tracker.Record("cpu", 45)

	// WHEN
	avg, ok := tracker.Average("cpu")

	// THEN 127/3 floors to 42
	assert.True(t, ok)
	assert.Equal(t, 42, avg)
}

func TestAverageWithoutDataReportsMissing(t *testing.T) {
	// GIVEN
	tracker := NewTracker(4)

	// WHEN
	avg, ok := tracker.Average("cpu")

	// THEN
	assert.False(t, ok)
	assert.Equal(t, 0, avg)
}

func TestOldSamplesAreEvicted(t *testing.T) {
	// GIVEN a full window
	tracker := NewTracker(2)
	tracker.Record("cpu", 10)
	tracker.Record("cpu", 20)

	// WHEN another sample arrives
	tracker.Record("cpu", 30)

	// THEN the oldest sample no longer contributes
	avg, ok := tracker.Average("cpu")
	assert.True(t, ok)
	assert.Equal(t, 25, avg)
}

func TestInvalidSamplesAreIgnored(t *testing.T) {
	// GIVEN readings of 0 and below, which mean "unreadable"
	tracker := NewTracker(4)
	tracker.Record("cpu", 0)
	tracker.Record("cpu", -5)
	tracker.Record("cpu", 40)

	// WHEN
	avg, ok := tracker.Average("cpu")

	// THEN only the valid sample counts
	assert.True(t, ok)
	assert.Equal(t, 40, avg)
}

func TestFailureClearsWindow(t *testing.T) {
	// GIVEN
	tracker := NewTracker(4)
	tracker.Record("Disk1", 40)
	tracker.Record("Disk1", 42)

	// WHEN the source fails to read
	tracker.RecordFailure("Disk1")

	// THEN the stale average is gone entirely
	_, ok := tracker.Average("Disk1")
	assert.False(t, ok)

	// AND a fresh sample restarts the window from scratch
	tracker.Record("Disk1", 44)
	avg, ok := tracker.Average("Disk1")
	assert.True(t, ok)
	assert.Equal(t, 44, avg)
}

func TestAverageAfterMidStreamFailure(t *testing.T) {
	// GIVEN a window that saw a failure between valid samples
	tracker := NewTracker(4)
	tracker.Record("Disk1", 40)
	tracker.RecordFailure("Disk1")
	tracker.Record("Disk1", 42)
	tracker.Record("Disk1", 44)

	// WHEN
	avg, ok := tracker.Average("Disk1")

	// THEN only the post-failure samples contribute
	assert.True(t, ok)
	assert.Equal(t, 43, avg)
}

func TestSourcesAreIndependent(t *testing.T) {
	// GIVEN
	tracker := NewTracker(4)
	tracker.Record("cpu", 60)
	tracker.Record("Disk1", 40)

	// WHEN one source fails
	tracker.RecordFailure("Disk1")

	// THEN the other is unaffected
	avg, ok := tracker.Average("cpu")
	assert.True(t, ok)
	assert.Equal(t, 60, avg)
}

func TestSetCapacityResetsWindows(t *testing.T) {
	// GIVEN
	tracker := NewTracker(4)
	tracker.Record("cpu", 60)

	// WHEN
	tracker.SetCapacity(8)

	// THEN
	assert.Equal(t, 8, tracker.Capacity())
	_, ok := tracker.Average("cpu")
	assert.False(t, ok)
}

func TestSetCapacityWithSameValueKeepsData(t *testing.T) {
	// GIVEN
	tracker := NewTracker(4)
	tracker.Record("cpu", 60)

	// WHEN
	tracker.SetCapacity(4)

	// THEN
	avg, ok := tracker.Average("cpu")
	assert.True(t, ok)
	assert.Equal(t, 60, avg)
}
