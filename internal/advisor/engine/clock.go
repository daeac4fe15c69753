package engine

import "time"

// Clock supplies "today" so analyses are reproducible against a fixed date.
type Clock interface {
	Today() time.Time
}

// SystemClock reports the current date in Location (UTC when nil).
type SystemClock struct {
	Location *time.Location
}

func (c SystemClock) Today() time.Time {
	now := time.Now()
	if c.Location != nil {
		now = now.In(c.Location)
	}
	return midnight(now)
}

// FixedClock always reports the same date.
type FixedClock struct {
	Date time.Time
}

func (c FixedClock) Today() time.Time {
	return midnight(c.Date)
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
