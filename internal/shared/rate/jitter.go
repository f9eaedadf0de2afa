// Package rate adapts a leaky-bucket limiter into a channel that background
// workers can select on alongside their context.
package rate

import (
	"context"

	"go.uber.org/ratelimit"
)

type Jitter struct {
	ch    chan struct{}
	l     ratelimit.Limiter
	limit int
}

// NewJitter emits up to limit ticks per second on Chan. A small burst buffer
// smooths scheduling hiccups without letting consumers run far ahead.
func NewJitter(ctx context.Context, limit int) *Jitter {
	burst := limit / 10
	if burst < 1 {
		burst = 1
	}
	j := &Jitter{
		limit: limit,
		ch:    make(chan struct{}, burst),
		l:     ratelimit.New(limit),
	}
	go j.provider(ctx)
	return j
}

func (j *Jitter) provider(ctx context.Context) {
	defer close(j.ch)
	for {
		j.l.Take()
		select {
		case <-ctx.Done():
			return
		case j.ch <- struct{}{}:
		}
	}
}

func (j *Jitter) Take() {
	<-j.ch
}

func (j *Jitter) Chan() <-chan struct{} {
	return j.ch
}
