package alert

import (
	"time"

	cmap "github.com/orcaman/concurrent-map/v2"
)

// Notifier delivers a message to the user, fire-and-forget.
type Notifier interface {
	Send(message string)
}

// Throttle rate-limits alerts per source key. Every source has its own
// cooldown clock: a disk that stays hot is re-alerted on its own
// schedule and is not silenced by another disk's recent alert.
type Throttle struct {
	lastFired cmap.ConcurrentMap[string, time.Time]
}

func NewThrottle() *Throttle {
	return &Throttle{
		lastFired: cmap.New[time.Time](),
	}
}

// ShouldFire reports whether an alert for the given source key may be
// emitted at the given time. The first breach of a key always fires.
// If it returns true, now is recorded as the key's last-fired time.
func (t *Throttle) ShouldFire(key string, now time.Time, cooldown time.Duration) bool {
	last, ok := t.lastFired.Get(key)
	if ok && now.Sub(last) < cooldown {
		return false
	}
	t.lastFired.Set(key, now)
	return true
}

// Reset forgets all cooldown clocks.
func (t *Throttle) Reset() {
	t.lastFired.Clear()
}
