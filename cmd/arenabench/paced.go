package main

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/joshuapare/arenakit/internal/workload"
)

// paced issues operations at a fixed rate and records the latency of each,
// measuring the allocator the way an open-loop client would see it.
type paced[H any] struct {
	ctx     context.Context
	inner   workload.Target[H]
	limiter *rate.Limiter
	samples []time.Duration
}

func newPaced[H any](ctx context.Context, inner workload.Target[H], perSecond float64, burst int) *paced[H] {
	return &paced[H]{
		ctx:     ctx,
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(perSecond), max(burst, 1)),
	}
}

func (p *paced[H]) Allocate(size int64) (H, error) {
	if err := p.limiter.Wait(p.ctx); err != nil {
		var zero H
		return zero, err
	}
	start := time.Now()
	h, err := p.inner.Allocate(size)
	p.samples = append(p.samples, time.Since(start))
	return h, err
}

func (p *paced[H]) Deallocate(h H) error {
	if err := p.limiter.Wait(p.ctx); err != nil {
		return err
	}
	start := time.Now()
	err := p.inner.Deallocate(h)
	p.samples = append(p.samples, time.Since(start))
	return err
}

func (p *paced[H]) Reset() { p.inner.Reset() }
