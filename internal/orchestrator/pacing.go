package orchestrator

import (
	"context"
	"math/rand"
	"time"
)

// Pacer inserts a randomized human-ish delay between postings after any live
// network action, so the run never hits the board on a metronome.
type Pacer struct {
	Min time.Duration
	Max time.Duration

	rng   *rand.Rand
	sleep func(ctx context.Context, d time.Duration) error
}

func NewPacer(min, max time.Duration) *Pacer {
	if max < min {
		max = min
	}
	return &Pacer{
		Min: min,
		Max: max,
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (p *Pacer) Wait(ctx context.Context) error {
	d := p.Min
	if span := p.Max - p.Min; span > 0 {
		d += time.Duration(p.rng.Int63n(int64(span)))
	}
	sleep := p.sleep
	if sleep == nil {
		sleep = sleepCtx
	}
	return sleep(ctx, d)
}
