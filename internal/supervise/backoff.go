package supervise

import "time"

// expBackoff doubles the delay for each consecutive short-lived run, capped
// at max. A run that survives at least max is treated as healthy and clears
// the streak, so an isolated failure hours later waits only min again.
type expBackoff struct {
	min  time.Duration
	max  time.Duration
	next time.Duration
}

func newBackoff(floor, ceil time.Duration) *expBackoff {
	if ceil < floor {
		ceil = floor
	}
	return &expBackoff{min: floor, max: ceil, next: floor}
}

// delay returns the wait before the next attempt, given how long the run
// that just failed lasted.
func (b *expBackoff) delay(ran time.Duration) time.Duration {
	if ran >= b.max {
		b.next = b.min
	}
	d := b.next
	b.next = min(b.next*2, b.max)
	return d
}
