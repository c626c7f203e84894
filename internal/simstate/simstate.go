// Package simstate supplies deterministic reference implementations of
// the overlap collaborator roles: a seedable synthetic-state generator, a
// context builder, a constraint gate checker, and a weighted-sum
// intensity calculator. The statistics engine itself depends only on the
// interfaces; these implementations exist for the CLI tools, fixtures,
// and end-to-end tests.
package simstate

import (
	"math/rand"

	"github.com/danielpatrickdp/prototype-diagnostics/internal/gate"
	"github.com/danielpatrickdp/prototype-diagnostics/internal/interval"
	"github.com/danielpatrickdp/prototype-diagnostics/internal/overlap"
)

// #region config

// GeneratorConfig describes the sampling space.
type GeneratorConfig struct {
	// Axes lists the axis names to sample, each over its domain.
	Axes map[string]interval.Interval
	// TraitAxes are sampled once per state into the traits map.
	TraitAxes []string
	// Momentum blends the previous sample into the next one, so
	// consecutive states drift instead of jumping. 0 disables.
	Momentum float64
}

// DefaultGeneratorConfig samples the given axes over the mood domain.
func DefaultGeneratorConfig(axes []string) GeneratorConfig {
	m := make(map[string]interval.Interval, len(axes))
	for _, a := range axes {
		m[a] = interval.MoodDomain
	}
	return GeneratorConfig{Axes: m, Momentum: 0.2}
}

// #endregion config

// #region generator

// Generator produces uniform synthetic states over the configured axis
// domains. Seedable for reproducible diagnostic runs; not safe for
// concurrent use, so parallel evaluators take one Generator per worker.
type Generator struct {
	cfg  GeneratorConfig
	rng  *rand.Rand
	prev map[string]float64
}

// NewGenerator creates a generator with the given seed.
func NewGenerator(cfg GeneratorConfig, seed int64) *Generator {
	return &Generator{cfg: cfg, rng: rand.New(rand.NewSource(seed))}
}

// Generate implements overlap.StateGenerator.
func (g *Generator) Generate() overlap.SampleState {
	current := make(map[string]float64, len(g.cfg.Axes))
	for axis, dom := range g.cfg.Axes {
		v := dom.Min + g.rng.Float64()*(dom.Max-dom.Min)
		if g.cfg.Momentum > 0 && g.prev != nil {
			v = g.cfg.Momentum*g.prev[axis] + (1-g.cfg.Momentum)*v
		}
		current[axis] = v
	}

	traits := make(map[string]float64, len(g.cfg.TraitAxes))
	for _, axis := range g.cfg.TraitAxes {
		traits[axis] = g.rng.Float64()
	}

	prev := g.prev
	if prev == nil {
		prev = current
	}
	g.prev = current

	return overlap.SampleState{Current: current, Previous: prev, Traits: traits}
}

// #endregion generator

// #region builder

// Builder derives the evaluation context from a sampled state: current
// axis values, per-axis deltas against the previous state, and traits
// under a prefix.
type Builder struct{}

// BuildContext implements overlap.ContextBuilder.
func (Builder) BuildContext(current, previous, traits map[string]float64) overlap.Context {
	ctx := make(overlap.Context, 2*len(current)+len(traits))
	for axis, v := range current {
		ctx[axis] = v
		ctx["delta_"+axis] = v - previous[axis]
	}
	for axis, v := range traits {
		ctx["trait_"+axis] = v
	}
	return ctx
}

// #endregion builder

// #region checker

// Checker evaluates parsed gate constraints against the context. An axis
// missing from the context reads as 0.
type Checker struct{}

// CheckAllGatesPass implements overlap.GateChecker.
func (Checker) CheckAllGatesPass(gates []gate.Constraint, ctx overlap.Context) bool {
	for _, c := range gates {
		if !c.SatisfiedBy(ctx[c.Axis]) {
			return false
		}
	}
	return true
}

// #endregion checker

// #region intensity

// Intensity is the weighted-sum intensity formula clamped to [0, 1].
type Intensity struct{}

// ComputeIntensity implements overlap.IntensityCalculator.
func (Intensity) ComputeIntensity(weights map[string]float64, ctx overlap.Context) float64 {
	var sum float64
	for axis, w := range weights {
		sum += w * ctx[axis]
	}
	if sum < 0 {
		return 0
	}
	if sum > 1 {
		return 1
	}
	return sum
}

// #endregion intensity

// #region wiring

// Collaborators wires the reference implementations for one worker seed.
func Collaborators(cfg GeneratorConfig, seed int64) overlap.Collaborators {
	return overlap.Collaborators{
		Generator: NewGenerator(cfg, seed),
		Builder:   Builder{},
		Gates:     Checker{},
		Intensity: Intensity{},
		Implication: overlap.StructuralImplication{
			Domains:       cfg.Axes,
			DefaultDomain: interval.MoodDomain,
		},
	}
}

// #endregion wiring
