package gate

import (
	"fmt"

	"github.com/danielpatrickdp/prototype-diagnostics/internal/interval"
)

// #region implication-types
// Relation describes the structural implication between two gate sets.
type Relation struct {
	AImpliesB bool
	BImpliesA bool

	// CounterExamples holds per-axis evidence against an implication that
	// does not hold, e.g. "joy: [0.5, 1] not within [0.7, 1]".
	CounterExamples []string
}

// Equivalent reports mutual implication.
func (r Relation) Equivalent() bool {
	return r.AImpliesB && r.BImpliesA
}

// Disjoint reports that no implication holds either way.
func (r Relation) Disjoint() bool {
	return !r.AImpliesB && !r.BImpliesA
}

// #endregion implication-types

// #region implication
// Implication computes the structural implication between two gate sets by
// interval containment over the shared axis domains: A implies B when every
// axis region admitted by A's gates fits inside the region admitted by B's.
//
// This over-approximates strict operators the same way ApplyTo does, so it
// is a structural relation, not a proof.
func Implication(a, b []Constraint, domains map[string]interval.Interval, def interval.Interval) Relation {
	ivA := NarrowedIntervals(a, domains, def)
	ivB := NarrowedIntervals(b, domains, def)

	rel := Relation{AImpliesB: true, BImpliesA: true}

	check := func(narrow, wide map[string]interval.Interval, label string) bool {
		holds := true
		for axis, w := range wide {
			n, ok := narrow[axis]
			if !ok {
				// The narrow set leaves the axis unconstrained; use its domain.
				n, ok = domains[axis]
				if !ok {
					n = def
				}
			}
			if n.IsEmpty() {
				// An empty admitted region implies anything.
				continue
			}
			if n.Min < w.Min-containsEpsilon || n.Max > w.Max+containsEpsilon {
				holds = false
				rel.CounterExamples = append(rel.CounterExamples,
					fmt.Sprintf("%s: %s %s not within %s", label, axis, n, w))
			}
		}
		return holds
	}

	rel.AImpliesB = check(ivA, ivB, "A=>B")
	rel.BImpliesA = check(ivB, ivA, "B=>A")
	return rel
}

// containsEpsilon absorbs float noise in containment comparisons.
const containsEpsilon = 1e-9

// #endregion implication
