package clock

import (
	"fmt"
	"sync"
	"time"
)

// Stamp layout: fixed-width UTC so lexicographic order equals chronological
// order. Every synced timestamp in the system uses this layout.
const Layout = "2006-01-02T15:04:05.000000000Z"

// Epoch is the zero watermark; a pull with this value returns everything.
const Epoch = "1970-01-01T00:00:00.000000000Z"

// Clock issues strictly increasing timestamps. If the wall clock has not
// advanced past the last issued stamp (coarse OS timers, clock steps
// backwards), the next stamp is the previous one plus 1ns. This removes the
// same-instant ambiguity at pull/push watermark boundaries for a single
// device.
type Clock struct {
	mu   sync.Mutex
	last time.Time
}

func New() *Clock {
	return &Clock{}
}

// Now returns the next timestamp as a Layout-formatted string.
func (c *Clock) Now() string {
	return Format(c.NowTime())
}

// NowTime returns the next timestamp as a time.Time in UTC.
func (c *Clock) NowTime() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now().UTC()
	if !now.After(c.last) {
		now = c.last.Add(time.Nanosecond)
	}
	c.last = now
	return now
}

// Format renders t in the canonical stamp layout.
func Format(t time.Time) string {
	return t.UTC().Format(Layout)
}

// Parse accepts only the canonical fixed-width layout. The engine compares
// stamps as strings, which equals time comparison only when every stamp has
// the same width: a lower-resolution stamp like "...:53Z" sorts after
// "...:53.500000000Z" despite being older. Anything non-canonical is rejected
// here so it surfaces as a malformed row instead of a silently inverted merge.
func Parse(s string) (time.Time, error) {
	if len(s) != len(Layout) {
		return time.Time{}, fmt.Errorf("timestamp %q is not in canonical form", s)
	}
	return time.Parse(Layout, s)
}

// Valid reports whether s is a canonical timestamp.
func Valid(s string) bool {
	_, err := Parse(s)
	return err == nil
}
