package overlap

import (
	"github.com/danielpatrickdp/prototype-diagnostics/internal/gate"
	"github.com/danielpatrickdp/prototype-diagnostics/internal/interval"
	"github.com/danielpatrickdp/prototype-diagnostics/internal/prototype"
)

// #region collaborator-contracts
// Context is the evaluation context handed to the gate checker and the
// intensity calculator. The engine treats it as opaque and only passes it
// through.
type Context map[string]float64

// SampleState is one synthetic character state.
type SampleState struct {
	Current  map[string]float64
	Previous map[string]float64
	Traits   map[string]float64
}

// StateGenerator produces synthetic states. The sampling distribution is a
// collaborator concern, not the engine's.
type StateGenerator interface {
	Generate() SampleState
}

// ContextBuilder derives the evaluation context from a sampled state.
type ContextBuilder interface {
	BuildContext(current, previous, traits map[string]float64) Context
}

// GateChecker decides whether every gate of a prototype passes in a
// context.
type GateChecker interface {
	CheckAllGatesPass(gates []gate.Constraint, ctx Context) bool
}

// IntensityCalculator turns a weight vector and a context into an
// intensity in the modeled range.
type IntensityCalculator interface {
	ComputeIntensity(weights map[string]float64, ctx Context) float64
}

// ImplicationEvaluator annotates a comparison with the structural
// implication relation between the two gate sets.
type ImplicationEvaluator interface {
	Evaluate(a, b prototype.Prototype) gate.Relation
}

// Collaborators bundles the injected roles for one evaluation.
// Implication may be nil; the annotation is then omitted.
type Collaborators struct {
	Generator   StateGenerator
	Builder     ContextBuilder
	Gates       GateChecker
	Intensity   IntensityCalculator
	Implication ImplicationEvaluator
}

// #endregion collaborator-contracts

// #region structural-implication
// StructuralImplication is the default ImplicationEvaluator: interval
// containment of the two gate-narrowed regions over the axis domains.
type StructuralImplication struct {
	Domains       map[string]interval.Interval
	DefaultDomain interval.Interval
}

// Evaluate implements ImplicationEvaluator.
func (s StructuralImplication) Evaluate(a, b prototype.Prototype) gate.Relation {
	return gate.Implication(a.Constraints(), b.Constraints(), s.Domains, s.DefaultDomain)
}

// #endregion structural-implication
