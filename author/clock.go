package author

import (
	"errors"
	"fmt"
	"time"
)

var ErrClock = errors.New("author: clock unavailable")

// Clock tells the session what time it is. Everything that compares against
// an expiry reads the time through one.
type Clock interface {
	Now() (time.Time, error)
}

type SystemClock struct{}

func (SystemClock) Now() (time.Time, error) { return time.Now(), nil }

// FixedClock always returns T, or fails with Err when it is set.
type FixedClock struct {
	T   time.Time
	Err error
}

func (c FixedClock) Now() (time.Time, error) {
	if c.Err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrClock, c.Err)
	}
	return c.T, nil
}
