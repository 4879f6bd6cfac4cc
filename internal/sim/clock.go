package sim

import "time"

// Clock maps wall-clock time onto simulated seconds.
type Clock struct {
	speed float64
	now   float64
	last  time.Time
}

// NewClock starts at start simulated seconds. speed is simulated seconds per
// wall-clock second and may be negative.
func NewClock(start, speed float64) *Clock {
	return &Clock{speed: speed, now: start}
}

func (c *Clock) Now() float64   { return c.now }
func (c *Clock) Speed() float64 { return c.speed }

// Advance moves the clock by the wall time elapsed since the previous call.
// The first call only anchors the clock. Simulated time never drops below 0.
func (c *Clock) Advance(wall time.Time) float64 {
	if !c.last.IsZero() {
		c.now += wall.Sub(c.last).Seconds() * c.speed
		if c.now < 0 {
			c.now = 0
		}
	}
	c.last = wall
	return c.now
}
