package replay

import (
	"context"
	"fmt"

	"github.com/danielpatrickdp/prototype-diagnostics/internal/overlap"
	"github.com/danielpatrickdp/prototype-diagnostics/internal/reachability"
	"github.com/danielpatrickdp/prototype-diagnostics/internal/simstate"
)

// #region types

// ReplayConfig bundles the engine configs for a replay run.
type ReplayConfig struct {
	Overlap      overlap.Config
	Reachability reachability.Config
}

// DefaultReplayConfig returns defaults for both pipeline stages.
func DefaultReplayConfig() ReplayConfig {
	return ReplayConfig{
		Overlap:      overlap.DefaultConfig(),
		Reachability: reachability.DefaultConfig(),
	}
}

// PairResult is the outcome of replaying one fixture pair.
type PairResult struct {
	A      string
	B      string
	Result overlap.Result
	Checks []Check
}

// BranchResult is the outcome of checking one branch expectation.
type BranchResult struct {
	PrototypeID string
	BranchID    string
	Expected    string
	Actual      string
	Passed      bool
}

// Check is one verified aggregate.
type Check struct {
	Name     string
	Expected float64
	Actual   float64
	Passed   bool
}

// ReplaySummary provides aggregate stats from a replay run.
type ReplaySummary struct {
	Pairs         int
	Branches      int
	ChecksPassed  int
	ChecksFailed  int
	AllVerdictsOK bool
}

// #endregion types

// #region replay

// Replay runs the overlap engine over each fixture pair using the
// recorded trace as the sampling source, then verifies the fixture's
// expected aggregates. One trace pass equals one full cycle of samples.
func Replay(ctx context.Context, f *Fixture, config ReplayConfig) ([]PairResult, error) {
	cfg := config.Overlap
	cfg.SampleCount = len(f.Trace)
	cfg.Workers = 1 // trace order must be preserved

	results := make([]PairResult, 0, len(f.Pairs))
	for _, pair := range f.Pairs {
		a, _ := f.Get(pair.A)
		b, _ := f.Get(pair.B)

		collab := overlap.Collaborators{
			Generator: NewTraceGenerator(f.Trace),
			Builder:   simstate.Builder{},
			Gates:     simstate.Checker{},
			Intensity: simstate.Intensity{},
		}
		res, err := overlap.NewEvaluator(cfg, collab).Evaluate(ctx, a, b)
		if err != nil {
			return nil, fmt.Errorf("replay pair %s/%s: %w", pair.A, pair.B, err)
		}
		results = append(results, PairResult{
			A:      pair.A,
			B:      pair.B,
			Result: res,
			Checks: verifyPair(pair.Expected, res),
		})
	}
	return results, nil
}

// verifyPair compares the expected aggregates against the computed ones.
func verifyPair(exp PairExpectation, res overlap.Result) []Check {
	tol := exp.Tolerance
	if tol == 0 {
		tol = 1e-9
	}
	var checks []Check
	add := func(name string, want *float64, got float64) {
		if want == nil {
			return
		}
		diff := got - *want
		if diff < 0 {
			diff = -diff
		}
		checks = append(checks, Check{
			Name:     name,
			Expected: *want,
			Actual:   got,
			Passed:   diff <= tol,
		})
	}
	add("on_both_rate", exp.OnBothRate, res.GateOverlap.OnBothRate)
	add("on_either_rate", exp.OnEitherRate, res.GateOverlap.OnEitherRate)
	add("pass_a_rate", exp.PassARate, res.PassRates.PassARate)
	add("pass_b_rate", exp.PassBRate, res.PassRates.PassBRate)
	return checks
}

// ReplayBranches checks the fixture's branch reachability expectations.
func ReplayBranches(f *Fixture, config ReplayConfig) []BranchResult {
	analyzer := reachability.NewAnalyzer(config.Reachability)

	var out []BranchResult
	for _, exp := range f.Branches {
		p, _ := f.Get(exp.PrototypeID)
		actual := "missing"
		for _, br := range analyzer.Analyze(p) {
			if br.BranchID == exp.BranchID {
				actual = string(br.Status)
				break
			}
		}
		out = append(out, BranchResult{
			PrototypeID: exp.PrototypeID,
			BranchID:    exp.BranchID,
			Expected:    exp.Status,
			Actual:      actual,
			Passed:      actual == exp.Status,
		})
	}
	return out
}

// Summarize computes aggregate stats from replay results.
func Summarize(pairs []PairResult, branches []BranchResult) ReplaySummary {
	s := ReplaySummary{
		Pairs:         len(pairs),
		Branches:      len(branches),
		AllVerdictsOK: true,
	}
	for _, p := range pairs {
		for _, c := range p.Checks {
			if c.Passed {
				s.ChecksPassed++
			} else {
				s.ChecksFailed++
				s.AllVerdictsOK = false
			}
		}
	}
	for _, b := range branches {
		if b.Passed {
			s.ChecksPassed++
		} else {
			s.ChecksFailed++
			s.AllVerdictsOK = false
		}
	}
	return s
}

// #endregion replay
