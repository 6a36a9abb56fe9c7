package stream

import (
	"context"
	"time"
)

// Pacer spaces out staged reveals. Wait is called before the i-th event
// (0-based) of a sequence.
type Pacer interface {
	Wait(ctx context.Context, i int) error
}

// DelayPacer sends the first event at once and sleeps Delay before each
// following one.
type DelayPacer struct {
	Delay time.Duration
}

func (p DelayPacer) Wait(ctx context.Context, i int) error {
	if i == 0 || p.Delay <= 0 {
		return nil
	}
	t := time.NewTimer(p.Delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// NoDelay never waits.
type NoDelay struct{}

func (NoDelay) Wait(context.Context, int) error { return nil }
