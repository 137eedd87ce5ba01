// Package compile drives the compilation of declared services into the
// emitted set.
//
// Overview
// The enabled set is resolved once, from the declared dependency graph.
// Then services are processed in generations. Generation 0 holds every
// declared service. For each generation, services which are enabled or
// derived are expanded (in parallel), classified for the user bundle and
// passed to the Emitter in name order. Derived services produced by the
// expansion form the next generation. The loop ends with the first
// generation producing no derived services.
//
// Services which are neither enabled nor derived are skipped, which is
// reported on Options.Stdout, not an error.
//
// Any error aborts the run; services emitted so far are not rolled back.
package compile

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/CZERTAINLY/s6compile/internal/bundle"
	"github.com/CZERTAINLY/s6compile/internal/expand"
	"github.com/CZERTAINLY/s6compile/internal/log"
	"github.com/CZERTAINLY/s6compile/internal/model"
	"github.com/CZERTAINLY/s6compile/internal/resolve"

	"golang.org/x/sync/errgroup"
)

// Emitter writes out a final service.
type Emitter interface {
	Emit(ctx context.Context, name string, svc *model.Service, decision bundle.Decision) error
}

type Options struct {
	// Requested are the explicitly enabled services, empty means all.
	Requested []string
	// Expander applies the extensions.
	Expander expand.Expander
	// Parallelism limits the number of concurrent expansions, <= 0 is unlimited.
	Parallelism int
	// Stdout receives the skip messages, nil discards them.
	Stdout io.Writer
}

// Emitted is a service passed to the Emitter.
type Emitted struct {
	Name     string
	Service  *model.Service
	Derived  bool
	Decision bundle.Decision
}

type Result struct {
	// Enabled is the sorted enabled set.
	Enabled []string
	// Emitted in emission order.
	Emitted []Emitted
	// LogDirs maps service names to the directory of its log extension.
	LogDirs     map[string]string
	Generations int
}

type entry struct {
	name    string
	svc     *model.Service
	derived bool
}

// Run compiles services and passes every final service to emitter.
func Run(ctx context.Context, services map[string]*model.Service, emitter Emitter, opts Options) (Result, error) {
	enabled, err := resolve.Enabled(services, opts.Requested)
	if err != nil {
		return Result{}, err
	}
	stdout := opts.Stdout
	if stdout == nil {
		stdout = io.Discard
	}

	res := Result{
		Enabled: enabled.Sorted(),
		LogDirs: make(map[string]string),
	}
	slog.DebugContext(ctx, "enabled set resolved", "enabled", res.Enabled)

	gen := make([]entry, 0, len(services))
	for name, svc := range services {
		gen = append(gen, entry{name: name, svc: svc})
	}
	emitted := make(map[string]struct{}, len(services))

	for len(gen) > 0 {
		ctx := log.ContextAttrs(ctx, slog.Int("generation", res.Generations))
		slices.SortFunc(gen, func(a, b entry) int { return cmp.Compare(a.name, b.name) })

		active := gen[:0:0]
		for _, e := range gen {
			if !e.derived && !enabled.Has(e.name) {
				_, _ = fmt.Fprintf(stdout, "skipping %s because it's not enabled\n", e.name)
				slog.DebugContext(ctx, "service not enabled: skipping", "service", e.name)
				continue
			}
			active = append(active, e)
		}

		results, err := expandAll(ctx, opts.Expander, opts.Parallelism, active)
		if err != nil {
			return res, err
		}

		var next []entry
		for i, e := range active {
			r := results[i]
			if r.LogDir != "" {
				res.LogDirs[e.name] = r.LogDir
			}

			decision := bundle.Classify(e.name, r.Service)
			if decision.Visibility == bundle.Warn {
				_, _ = fmt.Fprintf(stdout, "skipping %s: %s\n", e.name, decision.Reason)
				slog.WarnContext(ctx, "service left out of the bundle", "service", e.name, "reason", decision.Reason)
			}
			if err := emitter.Emit(ctx, e.name, r.Service, decision); err != nil {
				return res, fmt.Errorf("emitting service %s: %w", e.name, err)
			}
			emitted[e.name] = struct{}{}
			res.Emitted = append(res.Emitted, Emitted{
				Name:     e.name,
				Service:  r.Service,
				Derived:  e.derived,
				Decision: decision,
			})

			for _, d := range r.Derived {
				// A declared service which is not enabled is replaced by the derived one.
				_, seen := emitted[d.Name]
				if seen || enabled.Has(d.Name) {
					return res, fmt.Errorf("service %s derived from %s: %w", d.Name, e.name, model.ErrDuplicateService)
				}
				next = append(next, entry{name: d.Name, svc: d.Service, derived: true})
			}
		}

		slog.DebugContext(ctx, "generation done", "emitted", len(active), "derived", len(next))
		res.Generations++
		gen = next
	}
	return res, nil
}

func expandAll(ctx context.Context, x expand.Expander, limit int, entries []entry) ([]expand.Result, error) {
	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	results := make([]expand.Result, len(entries))
	for i, e := range entries {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			r, err := x.Expand(e.name, e.svc)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("expanding services: %w", err)
	}
	return results, nil
}
