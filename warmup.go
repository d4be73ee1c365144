package minimax

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Warmup eagerly constructs every singleton selected by an identifier, with at
// most concurrency factories running at once (no limit when concurrency is not
// positive).
//
// Shadowed descriptors are left alone. Warmup stops scheduling new
// constructions once ctx is done or a construction failed, and returns every
// error it saw.
func (p *Provider) Warmup(ctx context.Context, concurrency int) error {
	if p.closed.Load() {
		return ErrProviderClosed
	}

	var singletons []*Descriptor
	for _, id := range p.registry.order {
		if d := p.registry.descriptors[id][0]; d.lifetime == Singleton {
			singletons = append(singletons, d)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	if concurrency > 0 {
		g.SetLimit(concurrency)
	}

	var (
		mu       sync.Mutex
		failures []error
	)
	fail := func(err error) error {
		mu.Lock()
		defer mu.Unlock()
		failures = append(failures, err)
		return err
	}

	for _, d := range singletons {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			h, err := p.instantiate(d)
			if err != nil {
				return fail(err)
			}
			if err := h.Release(); err != nil {
				return fail(err)
			}
			return nil
		})
	}

	err := g.Wait()
	if len(failures) > 0 {
		return errors.Join(failures...)
	}
	if err != nil {
		return err
	}

	p.logger.Debug().Int("singletons", len(singletons)).Msg("provider warmed up")
	return nil
}
