package conflict

import (
	"fmt"
	"math"
	"sort"

	"github.com/danielpatrickdp/prototype-diagnostics/internal/prototype"
	"github.com/danielpatrickdp/prototype-diagnostics/internal/stats"
)

// #region detector
// Detector is the static structural pass over a catalog snapshot. It never
// samples and never errors: suspicious definitions come back as findings,
// degenerate input comes back as empty findings.
type Detector struct {
	cfg Config
}

// NewDetector creates a detector with the given thresholds.
func NewDetector(cfg Config) *Detector {
	return &Detector{cfg: cfg}
}

// Detect runs the high-axis-loading outlier test and the sign-tension test
// over the snapshot. Findings are deduplicated by prototype ID.
func (d *Detector) Detect(snapshot []prototype.Prototype) Result {
	res := Result{
		Conflicts:        []Conflict{},
		HighAxisLoadings: []HighAxisLoading{},
		SignTensions:     []SignTension{},
	}

	usable := make([]prototype.Prototype, 0, len(snapshot))
	for _, p := range snapshot {
		if p.Weights != nil {
			usable = append(usable, p)
		}
	}
	if len(usable) < 2 {
		return res
	}

	d.detectHighAxisLoading(usable, &res)
	d.detectSignTension(usable, &res)
	return res
}

// #endregion detector

// #region high-axis-loading
// detectHighAxisLoading flags prototypes whose active-axis count exceeds
// the Tukey fence Q3 + k*max(IQR, floor) over the snapshot distribution.
func (d *Detector) detectHighAxisLoading(protos []prototype.Prototype, res *Result) {
	counts := make([]float64, len(protos))
	for i, p := range protos {
		counts[i] = float64(d.activeAxisCount(p))
	}

	q1, q3 := stats.Quartiles(counts)
	iqr := q3 - q1
	effectiveIQR := math.Max(iqr, d.cfg.MinIQRFloor)
	fence := q3 + d.cfg.FenceMultiplier*effectiveIQR

	seen := make(map[string]bool, len(protos))
	for i, p := range protos {
		if counts[i] <= fence || seen[p.ID] {
			continue
		}
		seen[p.ID] = true

		loading := d.loadingBreakdown(p)
		loading.ActiveAxisCount = int(counts[i])
		res.HighAxisLoadings = append(res.HighAxisLoadings, loading)
		res.Conflicts = append(res.Conflicts, Conflict{
			PrototypeID: p.ID,
			FlagReason:  ReasonHighAxisLoading,
			Detail: fmt.Sprintf("%d active axes exceeds fence %.2f (Q3 %.2f, IQR %.2f)",
				int(counts[i]), fence, q3, effectiveIQR),
		})
	}
}

// activeAxisCount counts axes with |weight| above the active epsilon.
func (d *Detector) activeAxisCount(p prototype.Prototype) int {
	n := 0
	for _, w := range p.Weights {
		if math.Abs(w) > d.cfg.ActiveAxisEpsilon {
			n++
		}
	}
	return n
}

// loadingBreakdown computes the strong/positive/negative axis report for a
// flagged prototype. Axis lists are sorted for deterministic output.
func (d *Detector) loadingBreakdown(p prototype.Prototype) HighAxisLoading {
	var strong, positive, negative []string
	for axis, w := range p.Weights {
		if math.Abs(w) <= d.cfg.ActiveAxisEpsilon {
			continue
		}
		if math.Abs(w) >= d.cfg.StrongAxisThreshold {
			strong = append(strong, axis)
		}
		if w > 0 {
			positive = append(positive, axis)
		} else {
			negative = append(negative, axis)
		}
	}
	sort.Strings(strong)
	sort.Strings(positive)
	sort.Strings(negative)

	return HighAxisLoading{
		PrototypeID:     p.ID,
		FlagReason:      ReasonHighAxisLoading,
		StrongAxisCount: len(strong),
		StrongAxes:      strong,
		PositiveAxes:    positive,
		NegativeAxes:    negative,
		SignBalance:     signBalance(len(positive), len(negative)),
	}
}

// #endregion high-axis-loading

// #region sign-tension
// detectSignTension flags prototypes with strong loadings in both
// directions and a roughly even positive/negative split.
func (d *Detector) detectSignTension(protos []prototype.Prototype, res *Result) {
	seen := make(map[string]bool, len(protos))
	for _, p := range protos {
		if seen[p.ID] {
			continue
		}
		var pos, neg []string
		for axis, w := range p.Weights {
			switch {
			case w >= d.cfg.SignTensionMinMagnitude:
				pos = append(pos, axis)
			case w <= -d.cfg.SignTensionMinMagnitude:
				neg = append(neg, axis)
			}
		}
		if len(pos) == 0 || len(neg) == 0 {
			continue
		}
		if len(pos)+len(neg) < d.cfg.SignTensionMinHighAxes {
			continue
		}
		balance := signBalance(len(pos), len(neg))
		if balance > d.cfg.SignBalanceThreshold {
			continue
		}
		seen[p.ID] = true
		sort.Strings(pos)
		sort.Strings(neg)

		res.SignTensions = append(res.SignTensions, SignTension{
			PrototypeID:           p.ID,
			FlagReason:            ReasonSignTension,
			HighMagnitudePositive: pos,
			HighMagnitudeNegative: neg,
			SignBalance:           balance,
		})
		res.Conflicts = append(res.Conflicts, Conflict{
			PrototypeID: p.ID,
			FlagReason:  ReasonSignTension,
			Detail: fmt.Sprintf("%d strong positive vs %d strong negative axes (balance %.2f)",
				len(pos), len(neg), balance),
		})
	}
}

// #endregion sign-tension

// #region helpers
// signBalance is |pos - neg| / total: 0 for an even split, approaching 1
// when one sign dominates.
func signBalance(pos, neg int) float64 {
	total := pos + neg
	if total == 0 {
		return 0
	}
	return math.Abs(float64(pos-neg)) / float64(total)
}

// #endregion helpers
