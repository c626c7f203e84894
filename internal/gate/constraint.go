package gate

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/danielpatrickdp/prototype-diagnostics/internal/interval"
)

// #region operator
// Op is a threshold comparison operator.
type Op string

const (
	OpGTE Op = ">="
	OpLTE Op = "<="
	OpGT  Op = ">"
	OpLT  Op = "<"
	OpEQ  Op = "=="
)

// equalityEpsilon is the tolerance for == satisfaction checks. Exact float
// equality would make == gates nearly impossible to satisfy at runtime.
const equalityEpsilon = 1e-6

func validOp(op Op) bool {
	switch op {
	case OpGTE, OpLTE, OpGT, OpLT, OpEQ:
		return true
	}
	return false
}

// #endregion operator

// #region constraint
// Constraint is an immutable parsed `axis OP value` predicate on one axis.
type Constraint struct {
	Axis  string
	Op    Op
	Value float64
	Raw   string // original text when parsed, empty when constructed directly
}

// New validates and constructs a constraint.
func New(axis string, op Op, value float64) (Constraint, error) {
	if strings.TrimSpace(axis) == "" {
		return Constraint{}, fmt.Errorf("gate constraint: empty axis name")
	}
	if !validOp(op) {
		return Constraint{}, fmt.Errorf("gate constraint: invalid operator %q", string(op))
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return Constraint{}, fmt.Errorf("gate constraint: non-finite value %f for axis %q", value, axis)
	}
	return Constraint{Axis: axis, Op: op, Value: value}, nil
}

// constraintPattern matches "<axis> <op> <value>" with tolerant whitespace.
// Axis names may contain underscores; values may be signed decimals.
var constraintPattern = regexp.MustCompile(`^\s*([A-Za-z][A-Za-z0-9_]*)\s*(>=|<=|==|>|<)\s*([+-]?\d+(?:\.\d+)?)\s*$`)

// Parse parses the textual form "<axis> <op> <value>".
func Parse(text string) (Constraint, error) {
	m := constraintPattern.FindStringSubmatch(text)
	if m == nil {
		return Constraint{}, fmt.Errorf("gate constraint: cannot parse %q", text)
	}
	value, err := strconv.ParseFloat(m[3], 64)
	if err != nil {
		return Constraint{}, fmt.Errorf("gate constraint: bad value in %q: %w", text, err)
	}
	c, err := New(m[1], Op(m[2]), value)
	if err != nil {
		return Constraint{}, err
	}
	c.Raw = text
	return c, nil
}

// MustParse is a test/fixture helper that panics on parse failure.
func MustParse(text string) Constraint {
	c, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return c
}

func (c Constraint) String() string {
	return fmt.Sprintf("%s %s %g", c.Axis, c.Op, c.Value)
}

// #endregion constraint

// #region apply
// ApplyTo narrows iv according to the operator.
//
// Strict operators share the non-strict narrowing: ">" narrows the lower
// bound exactly like ">=". This slightly overstates reachability at exact
// boundary values; downstream classification depends on the lenient
// behavior, so it stays.
func (c Constraint) ApplyTo(iv interval.Interval) interval.Interval {
	switch c.Op {
	case OpGTE, OpGT:
		return iv.Narrow(c.Value, math.Inf(1))
	case OpLTE, OpLT:
		return iv.Narrow(math.Inf(-1), c.Value)
	case OpEQ:
		return iv.Narrow(c.Value, c.Value)
	}
	return iv
}

// #endregion apply

// #region satisfy
// SatisfiedBy evaluates the predicate at x. Equality uses a small epsilon.
func (c Constraint) SatisfiedBy(x float64) bool {
	switch c.Op {
	case OpGTE:
		return x >= c.Value
	case OpLTE:
		return x <= c.Value
	case OpGT:
		return x > c.Value
	case OpLT:
		return x < c.Value
	case OpEQ:
		return math.Abs(x-c.Value) <= equalityEpsilon
	}
	return false
}

// ViolationAmount returns 0 when satisfied, otherwise the nonnegative
// distance from x to the nearest satisfying value.
func (c Constraint) ViolationAmount(x float64) float64 {
	if c.SatisfiedBy(x) {
		return 0
	}
	switch c.Op {
	case OpGTE:
		return c.Value - x
	case OpGT:
		// nearest satisfying value is the next float above the threshold,
		// so the violation stays positive at x == Value
		return math.Nextafter(c.Value, math.Inf(1)) - x
	case OpLTE:
		return x - c.Value
	case OpLT:
		return x - math.Nextafter(c.Value, math.Inf(-1))
	case OpEQ:
		return math.Abs(x - c.Value)
	}
	return 0
}

// #endregion satisfy

// #region parse-all
// ParseAll parses a gate list, failing on the first malformed entry.
func ParseAll(texts []string) ([]Constraint, error) {
	out := make([]Constraint, 0, len(texts))
	for _, t := range texts {
		c, err := Parse(t)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// NarrowedIntervals folds every constraint over its axis's domain and
// returns the gate-narrowed interval per axis. Axes without a configured
// domain fall back to def.
func NarrowedIntervals(constraints []Constraint, domains map[string]interval.Interval, def interval.Interval) map[string]interval.Interval {
	out := make(map[string]interval.Interval)
	for _, c := range constraints {
		iv, ok := out[c.Axis]
		if !ok {
			iv, ok = domains[c.Axis]
			if !ok {
				iv = def
			}
		}
		out[c.Axis] = c.ApplyTo(iv)
	}
	return out
}

// #endregion parse-all
