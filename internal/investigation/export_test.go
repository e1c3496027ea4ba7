package investigation

import "time"

// SetClock replaces the forwarder's clock.
func SetClock(f *Forwarder, now func() time.Time) {
	f.now = now
}
