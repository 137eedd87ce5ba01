// Package parallel provides a bounded, context aware parallel map over
// iterators.
package parallel

import (
	"context"
	"iter"

	"golang.org/x/sync/errgroup"
)

type result[D any] struct {
	d D
	e error
}

// Map runs mapFunc for every element of an input iterator, at most limit at
// a time, and yields the results in completion order.
//
//	for d, err := range parallel.NewMap(ctx, 4, f).Iter(input) {}
//
// Errors of the input iterator are yielded as they are, without calling
// mapFunc. Canceled context or a break out of the loop stops the processing
// and releases all the goroutines.
type Map[E, D any] struct {
	limit   int
	mapFunc func(context.Context, E) (D, error)
	ctx     context.Context
}

func NewMap[E, D any](ctx context.Context, limit int, mapFunc func(context.Context, E) (D, error)) *Map[E, D] {
	if limit <= 0 {
		limit = 1
	}
	return &Map[E, D]{
		limit:   limit,
		mapFunc: mapFunc,
		ctx:     ctx,
	}
}

func (m *Map[E, D]) Iter(seq iter.Seq2[E, error]) iter.Seq2[D, error] {
	return func(yield func(D, error) bool) {
		ctx, cancel := context.WithCancel(m.ctx)
		defer cancel()

		g, gctx := errgroup.WithContext(ctx)
		// +1 for the feeder
		g.SetLimit(m.limit + 1)
		mapped := make(chan result[D], m.limit)

		send := func(r result[D]) {
			select {
			case <-gctx.Done():
			case mapped <- r:
			}
		}

		g.Go(func() error {
			for entry, err := range seq {
				if gctx.Err() != nil {
					return nil
				}
				if err != nil {
					send(result[D]{e: err})
					continue
				}
				g.Go(func() error {
					d, err := m.mapFunc(gctx, entry)
					send(result[D]{d: d, e: err})
					return nil
				})
			}
			return nil
		})

		go func() {
			_ = g.Wait()
			close(mapped)
		}()
		defer func() {
			cancel()
			for range mapped {
			}
		}()

		for r := range mapped {
			if m.ctx.Err() != nil {
				return
			}
			if !yield(r.d, r.e) {
				return
			}
		}
	}
}
