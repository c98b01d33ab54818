package schedule

import "time"

// Clock provides the current instant. Tests inject fixed clocks.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// FixedClock always returns t.
func FixedClock(t time.Time) Clock {
	return ClockFunc(func() time.Time { return t })
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }
