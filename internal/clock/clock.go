// Package clock provides an injectable time source so billing arithmetic
// can be tested against fixed instants.
package clock

import (
	"context"
	"time"
)

type Clock interface {
	Now(ctx context.Context) time.Time
}

// SystemClock reads the wall clock in UTC.
type SystemClock struct{}

func (SystemClock) Now(context.Context) time.Time { return time.Now().UTC() }

// Fixed is a clock pinned to one instant, for tests.
type Fixed struct {
	At time.Time
}

func (f Fixed) Now(context.Context) time.Time { return f.At.UTC() }
