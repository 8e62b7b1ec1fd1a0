package session

import "time"

// Clock returns the current time. Tests substitute a fixed clock.
type Clock func() time.Time

func systemClock() time.Time { return time.Now() }

func orSystem(c Clock) Clock {
	if c == nil {
		return systemClock
	}
	return c
}
