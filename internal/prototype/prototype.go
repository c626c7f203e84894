package prototype

import (
	"fmt"

	"github.com/danielpatrickdp/prototype-diagnostics/internal/gate"
)

// #region types
// Type distinguishes the two prototype families.
type Type string

const (
	TypeEmotion Type = "emotion"
	TypeSexual  Type = "sexual"
)

// Branch is one activation branch of a prototype: the response fires on
// this branch when the weighted sum reaches Threshold.
type Branch struct {
	ID          string  `yaml:"id" json:"id"`
	Description string  `yaml:"description" json:"description"`
	Threshold   float64 `yaml:"threshold" json:"threshold"`
}

// Prototype is a declarative gated behavioral response definition.
// Loaded once per diagnostic run and never mutated by the analyses.
type Prototype struct {
	ID          string             `yaml:"id" json:"id"`
	Description string             `yaml:"description" json:"description"`
	Type        Type               `yaml:"type" json:"type"`
	Weights     map[string]float64 `yaml:"weights" json:"weights"`
	Gates       []string           `yaml:"gates" json:"gates"`
	Branches    []Branch           `yaml:"branches" json:"branches"`

	constraints []gate.Constraint
}

// #endregion types

// #region validate
// Validate checks structural invariants and parses the gate texts.
// A prototype with a nil weight map is tolerated (structural analyses
// degrade to empty results for it), but malformed gates fail fast.
func (p *Prototype) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("prototype: empty id")
	}
	if p.Type != TypeEmotion && p.Type != TypeSexual {
		return fmt.Errorf("prototype %s: unknown type %q", p.ID, string(p.Type))
	}
	parsed, err := gate.ParseAll(p.Gates)
	if err != nil {
		return fmt.Errorf("prototype %s: %w", p.ID, err)
	}
	p.constraints = parsed

	seen := make(map[string]bool, len(p.Branches))
	for _, b := range p.Branches {
		if b.ID == "" {
			return fmt.Errorf("prototype %s: branch with empty id", p.ID)
		}
		if seen[b.ID] {
			return fmt.Errorf("prototype %s: duplicate branch id %q", p.ID, b.ID)
		}
		seen[b.ID] = true
	}
	return nil
}

// Constraints returns the parsed gate constraints. Valid only after a
// successful Validate (the catalog loader validates every entry).
func (p *Prototype) Constraints() []gate.Constraint {
	return p.constraints
}

// #endregion validate
