package worker

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/ppiankov/medusecase/internal/model"
)

// Pacer sleeps for random durations inside a configured range.
// Randomness and sleeping are swappable so tests never wait.
type Pacer struct {
	// Rand returns a value in [0, 1)
	Rand func() float64
	// Sleep waits for d or until ctx is done
	Sleep func(ctx context.Context, d time.Duration) error
}

// NewPacer returns a pacer backed by math/rand and a real timer
func NewPacer() *Pacer {
	return &Pacer{
		Rand:  rand.Float64,
		Sleep: Sleep,
	}
}

// NoDelay returns a pacer that never sleeps
func NoDelay() *Pacer {
	return &Pacer{
		Rand:  func() float64 { return 0 },
		Sleep: func(ctx context.Context, d time.Duration) error { return ctx.Err() },
	}
}

// Duration picks a uniform duration in [r.Min, r.Max]
func (p *Pacer) Duration(r model.DelayRange) time.Duration {
	if r.Max <= r.Min {
		return max(r.Min, 0)
	}
	return r.Min + time.Duration(p.Rand()*float64(r.Max-r.Min))
}

// Pause sleeps for a random duration in r and returns how long it chose
func (p *Pacer) Pause(ctx context.Context, r model.DelayRange) (time.Duration, error) {
	d := p.Duration(r)
	return d, p.Sleep(ctx, d)
}

// Sleep waits for d, returning early with ctx.Err() on cancellation
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
