package clock

import "time"

// Clock provides time operations that can be mocked for testing
type Clock interface {
	Now() time.Time
}

// RealClock reads the system clock
type RealClock struct{}

func New() *RealClock {
	return &RealClock{}
}

// Now returns the current time in UTC, the zone stored in session documents
func (c *RealClock) Now() time.Time {
	return time.Now().UTC()
}

// Since returns the time elapsed on c since t
func Since(c Clock, t time.Time) time.Duration {
	return c.Now().Sub(t)
}
