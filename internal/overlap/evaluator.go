package overlap

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/danielpatrickdp/prototype-diagnostics/internal/prototype"
)

// #region evaluator
// Evaluator drives the Monte Carlo comparison of two prototypes through
// the injected collaborators.
type Evaluator struct {
	cfg     Config
	collab  Collaborators
	factory func(worker int) Collaborators
}

// NewEvaluator creates a sequential evaluator.
func NewEvaluator(cfg Config, collab Collaborators) *Evaluator {
	return &Evaluator{cfg: cfg, collab: collab}
}

// NewParallelEvaluator creates an evaluator that splits trials across
// cfg.Workers goroutines. The factory must return an independent
// collaborator set per worker; generators are usually stateful PRNGs and
// must not be shared.
func NewParallelEvaluator(cfg Config, factory func(worker int) Collaborators) *Evaluator {
	return &Evaluator{cfg: cfg, collab: factory(0), factory: factory}
}

// Evaluate runs cfg.SampleCount trials comparing a and b.
// Trial order does not affect the aggregates; cancellation simply stops
// scheduling further trials.
func (e *Evaluator) Evaluate(ctx context.Context, a, b prototype.Prototype) (Result, error) {
	if e.cfg.SampleCount <= 0 {
		return Result{}, fmt.Errorf("overlap: sample count must be positive, got %d", e.cfg.SampleCount)
	}

	var calc *Calculator
	var err error
	if e.cfg.Workers > 1 && e.factory != nil {
		calc, err = e.runParallel(ctx, a, b)
	} else {
		calc, err = e.runTrials(ctx, e.collab, a, b, 0, e.cfg.SampleCount)
	}
	if err != nil {
		return Result{}, err
	}

	res := calc.Result(a.ID, b.ID)
	if e.collab.Implication != nil {
		rel := e.collab.Implication.Evaluate(a, b)
		res.Implication = &rel
	}
	return res, nil
}

// runTrials executes trials [start, start+count) on one collaborator set.
func (e *Evaluator) runTrials(ctx context.Context, collab Collaborators, a, b prototype.Prototype, start, count int) (*Calculator, error) {
	calc := NewCalculator(e.cfg)
	gatesA := a.Constraints()
	gatesB := b.Constraints()

	for i := 0; i < count; i++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("overlap: %w", err)
		}

		state := collab.Generator.Generate()
		evalCtx := collab.Builder.BuildContext(state.Current, state.Previous, state.Traits)

		passA := collab.Gates.CheckAllGatesPass(gatesA, evalCtx)
		passB := collab.Gates.CheckAllGatesPass(gatesB, evalCtx)

		var rawA, rawB float64
		if passA {
			rawA = collab.Intensity.ComputeIntensity(a.Weights, evalCtx)
		}
		if passB {
			rawB = collab.Intensity.ComputeIntensity(b.Weights, evalCtx)
		}

		calc.Observe(start+i, passA, passB, rawA, rawB, evalCtx)
	}
	return calc, nil
}

// runParallel splits the sample count into per-worker chunks and merges
// the per-worker calculators. Aggregates are commutative sums, so the
// merge order is irrelevant.
func (e *Evaluator) runParallel(ctx context.Context, a, b prototype.Prototype) (*Calculator, error) {
	workers := e.cfg.Workers
	if workers > e.cfg.SampleCount {
		workers = e.cfg.SampleCount
	}

	chunks := make([]*Calculator, workers)
	g, gctx := errgroup.WithContext(ctx)
	per := e.cfg.SampleCount / workers
	extra := e.cfg.SampleCount % workers

	start := 0
	for w := 0; w < workers; w++ {
		count := per
		if w < extra {
			count++
		}
		w, start, count := w, start, count
		collab := e.factory(w)
		g.Go(func() error {
			calc, err := e.runTrials(gctx, collab, a, b, start, count)
			if err != nil {
				return err
			}
			chunks[w] = calc
			return nil
		})
		start += count
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := chunks[0]
	for _, c := range chunks[1:] {
		total.Merge(c)
	}
	return total, nil
}

// #endregion evaluator
