package history

import (
	"github.com/asecurityteam/rolling"
	cmap "github.com/orcaman/concurrent-map/v2"
)

// Tracker keeps a fixed-depth rolling window of the most recent valid
// temperature samples per source ("cpu" or a disk id) and produces a
// smoothed integer average per source.
//
// Validity follows the hardware convention of the temperature tools:
// only samples > 0 count, a reading of 0 or below means "unreadable",
// not "cold". A genuine 0°C reading is therefore indistinguishable from
// a missing one. This matches the behavior the alert thresholds and
// averages were tuned against, do not "fix" it.
type Tracker struct {
	capacity int
	windows  cmap.ConcurrentMap[string, *rolling.PointPolicy]
}

func NewTracker(capacity int) *Tracker {
	return &Tracker{
		capacity: capacity,
		windows:  cmap.New[*rolling.PointPolicy](),
	}
}

// Record appends a valid (> 0) sample to the window of the given
// source, evicting the oldest entry once the window is full. Samples
// <= 0 are ignored entirely.
func (t *Tracker) Record(source string, temp int) {
	if temp <= 0 {
		return
	}

	window, ok := t.windows.Get(source)
	if !ok {
		window = rolling.NewPointPolicy(rolling.NewWindow(t.capacity))
		t.windows.Set(source, window)
	}
	window.Append(float64(temp))
}

// RecordFailure clears the entire window of the given source. A disk
// that enters standby and briefly fails to report must not retain a
// falsely-low average once it is readable again.
func (t *Tracker) RecordFailure(source string) {
	t.windows.Remove(source)
}

// Average returns the floored integer mean of the window of the given
// source. The second return value is false if there is no data.
func (t *Tracker) Average(source string) (int, bool) {
	window, ok := t.windows.Get(source)
	if !ok {
		return 0, false
	}

	count := window.Reduce(rolling.Count)
	if count <= 0 {
		return 0, false
	}
	sum := window.Reduce(rolling.Sum)

	return int(sum) / int(count), true
}

// SetCapacity changes the window depth. All windows are discarded, the
// averages rebuild over the following samples.
func (t *Tracker) SetCapacity(capacity int) {
	if capacity == t.capacity {
		return
	}
	t.capacity = capacity
	t.Reset()
}

func (t *Tracker) Capacity() int {
	return t.capacity
}

// Reset drops the windows of all sources.
func (t *Tracker) Reset() {
	t.windows.Clear()
}
