package domain

import (
	"maps"
	"slices"
	"time"
)

// DayKeyLayout is the calendar-day bucket format: 4-digit year, 1-based
// zero-padded month and day
const DayKeyLayout = "2006-01-02"

// DayKey returns the statistics bucket for t in the server's local calendar.
// The write path and every reporting path must use this function.
func DayKey(t time.Time) string {
	return t.In(time.Local).Format(DayKeyLayout)
}

// DailyClicks maps a day key to the number of redirects observed that day
// Keys are never removed and values only grow
type DailyClicks map[string]int64

// Get returns the count for day, zero when the day has no clicks yet
func (c DailyClicks) Get(day string) int64 {
	return c[day]
}

// Increment adds exactly one click to day and returns the new count.
// The caller owns synchronization; storage layers use their own atomic
// primitive instead of this method.
func (c DailyClicks) Increment(day string) int64 {
	c[day]++
	return c[day]
}

// Total sums all days
func (c DailyClicks) Total() int64 {
	var total int64
	for _, n := range c {
		total += n
	}
	return total
}

// Days returns the recorded day keys, oldest first
func (c DailyClicks) Days() []string {
	return slices.Sorted(maps.Keys(c))
}

// Clone returns an independent copy (never nil)
func (c DailyClicks) Clone() DailyClicks {
	out := make(DailyClicks, len(c))
	for day, n := range c {
		out[day] = n
	}
	return out
}

// Today returns the day key for the current instant of now
func Today(now func() time.Time) string {
	return DayKey(now())
}
