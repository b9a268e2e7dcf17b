package scheduler

import "time"

// Clock provides time for slice budgets. Tests inject a fake clock to make
// yielding deterministic.
type Clock interface {
	Now() time.Time
}

// SystemClock uses system time.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }
