package match

import "time"

// Timer is a cancel handle for a callback scheduled on a Clock.
type Timer interface {
	Stop() bool
}

// Clock is the only source of wall-clock time and scheduling for the
// runtime loop.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func RealClock() Clock {
	return realClock{}
}

func (realClock) Now() time.Time {
	return time.Now()
}

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
