package interval

import "fmt"

// #region interval
// Interval is a closed interval [Min, Max] on one state axis.
// It is a value type; every transform returns a new Interval.
// An empty interval (Min > Max) is a valid terminal state, not an error:
// it represents a contradictory gate set on that axis.
type Interval struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// New returns the interval [min, max].
func New(min, max float64) Interval {
	return Interval{Min: min, Max: max}
}

// Narrow intersects the interval with [min, max].
// The result may be empty; emptiness propagates through later analysis.
func (iv Interval) Narrow(min, max float64) Interval {
	out := iv
	if min > out.Min {
		out.Min = min
	}
	if max < out.Max {
		out.Max = max
	}
	return out
}

// IsEmpty reports whether the interval contains no values.
func (iv Interval) IsEmpty() bool {
	return iv.Min > iv.Max
}

// Width returns Max - Min. Negative for empty intervals.
func (iv Interval) Width() float64 {
	return iv.Max - iv.Min
}

// Contains reports whether x lies inside the interval.
func (iv Interval) Contains(x float64) bool {
	return x >= iv.Min && x <= iv.Max
}

func (iv Interval) String() string {
	if iv.IsEmpty() {
		return fmt.Sprintf("[%.4g, %.4g] (empty)", iv.Min, iv.Max)
	}
	return fmt.Sprintf("[%.4g, %.4g]", iv.Min, iv.Max)
}

// #endregion interval

// #region domains
// Axis domains before any gate narrowing. Mood axes swing negative to
// positive; response axes are unipolar.
var (
	MoodDomain     = Interval{Min: -1, Max: 1}
	ResponseDomain = Interval{Min: 0, Max: 1}
)

// #endregion domains
