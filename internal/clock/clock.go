// Package clock abstracts the wall clock so time-dependent logic can be
// tested with a controllable source.
package clock

import "time"

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// System reads the real wall clock.
type System struct{}

func (System) Now() time.Time { return time.Now() }

// Fixed always returns the same instant. Useful as a test double where a
// full Fake is overkill.
type Fixed time.Time

func (f Fixed) Now() time.Time { return time.Time(f) }
