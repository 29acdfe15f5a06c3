package dashboard

import "time"

// Clock schedules deferred transitions. Tests swap in a manual clock.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is a handle to a scheduled callback.
type Timer interface {
	Stop() bool
}

type systemClock struct{}

func (systemClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

func normalizeClock(c Clock) Clock {
	if c == nil {
		return systemClock{}
	}
	return c
}
