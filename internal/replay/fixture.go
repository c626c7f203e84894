package replay

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/danielpatrickdp/prototype-diagnostics/internal/overlap"
	"github.com/danielpatrickdp/prototype-diagnostics/internal/prototype"
)

// #region fixture-types

// Fixture is the top-level JSON structure for a diagnostic replay fixture:
// a prototype set, a recorded state trace, and the verdicts a correct
// engine must reproduce over that trace.
type Fixture struct {
	Description string                `json:"description"`
	Prototypes  []prototype.Prototype `json:"prototypes"`
	Trace       []FixtureSample       `json:"trace"`
	Pairs       []FixturePair         `json:"pairs"`
	Branches    []FixtureBranch       `json:"branches"`
}

// FixtureSample is one recorded character state.
type FixtureSample struct {
	Current  map[string]float64 `json:"current"`
	Previous map[string]float64 `json:"previous,omitempty"`
	Traits   map[string]float64 `json:"traits,omitempty"`
}

// FixturePair names two prototypes to compare and the expected aggregates.
type FixturePair struct {
	A        string          `json:"a"`
	B        string          `json:"b"`
	Expected PairExpectation `json:"expected"`
}

// PairExpectation lists the aggregate rates the replay must reproduce.
// Nil fields are not checked. Tolerance defaults to 1e-9 when zero.
type PairExpectation struct {
	OnBothRate   *float64 `json:"on_both_rate,omitempty"`
	OnEitherRate *float64 `json:"on_either_rate,omitempty"`
	PassARate    *float64 `json:"pass_a_rate,omitempty"`
	PassBRate    *float64 `json:"pass_b_rate,omitempty"`
	Tolerance    float64  `json:"tolerance,omitempty"`
}

// FixtureBranch is an expected reachability status for one branch.
type FixtureBranch struct {
	PrototypeID string `json:"prototype_id"`
	BranchID    string `json:"branch_id"`
	Status      string `json:"status"`
}

// #endregion fixture-types

// #region fixture-loader

// LoadFixture reads and parses a JSON fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	f, err := ParseFixture(data)
	if err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	return f, nil
}

// ParseFixture parses fixture JSON and validates the embedded prototypes.
func ParseFixture(data []byte) (*Fixture, error) {
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	if len(f.Trace) == 0 {
		return nil, fmt.Errorf("fixture has no trace samples")
	}
	ids := make(map[string]bool, len(f.Prototypes))
	for i := range f.Prototypes {
		if err := f.Prototypes[i].Validate(); err != nil {
			return nil, fmt.Errorf("prototype %q: %w", f.Prototypes[i].ID, err)
		}
		if ids[f.Prototypes[i].ID] {
			return nil, fmt.Errorf("duplicate prototype ID %q", f.Prototypes[i].ID)
		}
		ids[f.Prototypes[i].ID] = true
	}
	for _, p := range f.Pairs {
		if !ids[p.A] || !ids[p.B] {
			return nil, fmt.Errorf("pair %s/%s references unknown prototype", p.A, p.B)
		}
	}
	for _, b := range f.Branches {
		if !ids[b.PrototypeID] {
			return nil, fmt.Errorf("branch expectation references unknown prototype %q", b.PrototypeID)
		}
	}
	return &f, nil
}

// Get returns the prototype with the given ID.
func (f *Fixture) Get(id string) (prototype.Prototype, bool) {
	for i := range f.Prototypes {
		if f.Prototypes[i].ID == id {
			return f.Prototypes[i], true
		}
	}
	return prototype.Prototype{}, false
}

// #endregion fixture-loader

// #region trace-generator

// TraceGenerator replays a recorded trace as the sampling source. It
// cycles when asked for more samples than the trace holds.
type TraceGenerator struct {
	trace []FixtureSample
	next  int
}

// NewTraceGenerator creates a generator over the fixture's trace.
func NewTraceGenerator(trace []FixtureSample) *TraceGenerator {
	return &TraceGenerator{trace: trace}
}

// Generate implements overlap.StateGenerator.
func (tg *TraceGenerator) Generate() overlap.SampleState {
	s := tg.trace[tg.next%len(tg.trace)]
	tg.next++
	return overlap.SampleState{
		Current:  s.Current,
		Previous: s.Previous,
		Traits:   s.Traits,
	}
}

// #endregion trace-generator
