package overlap

import (
	"math"
	"sort"

	"github.com/danielpatrickdp/prototype-diagnostics/internal/stats"
)

// #region calculator
// Calculator aggregates agreement metrics across Monte Carlo trials.
// All state is commutative sums plus a bounded top-K list, so calculators
// for disjoint trial ranges merge cleanly.
type Calculator struct {
	cfg Config

	trials     int
	passA      int
	passB      int
	coPass     int
	onEither   int
	pOnly      int
	qOnly      int
	sumAbsAll  float64
	sumSqAll   float64
	coPassCorr stats.PearsonSums
	sumAbsCo   float64
	sumSqCo    float64
	domP       int
	domQ       int

	thresholds []thresholdCounts
	divergence []DivergenceExample
}

type thresholdCounts struct {
	threshold  float64
	highA      int
	highB      int
	highBoth   int
	eitherHigh int
	agreement  int
}

// NewCalculator creates an aggregator for the given configuration.
func NewCalculator(cfg Config) *Calculator {
	th := make([]thresholdCounts, len(cfg.HighThresholds))
	for i, t := range cfg.HighThresholds {
		th[i] = thresholdCounts{threshold: t}
	}
	return &Calculator{cfg: cfg, thresholds: th}
}

// #endregion calculator

// #region observe
// Observe records one trial. A prototype whose gates failed contributes
// intensity 0 to every aggregate, which keeps intensity comparisons
// defined even when activation differs.
func (c *Calculator) Observe(trial int, passA, passB bool, rawA, rawB float64, ctx Context) {
	iA, iB := 0.0, 0.0
	if passA {
		iA = rawA
	}
	if passB {
		iB = rawB
	}

	c.trials++
	if passA {
		c.passA++
	}
	if passB {
		c.passB++
	}
	either := passA || passB
	switch {
	case passA && passB:
		c.coPass++
	case passA:
		c.pOnly++
	case passB:
		c.qOnly++
	}
	if either {
		c.onEither++
	}

	diff := iA - iB
	c.sumAbsAll += math.Abs(diff)
	c.sumSqAll += diff * diff

	if passA && passB {
		c.coPassCorr.Add(iA, iB)
		c.sumAbsCo += math.Abs(diff)
		c.sumSqCo += diff * diff
		if iA > iB+c.cfg.DominanceDelta {
			c.domP++
		}
		if iB > iA+c.cfg.DominanceDelta {
			c.domQ++
		}
	}

	if either {
		for i := range c.thresholds {
			tc := &c.thresholds[i]
			hA := iA >= tc.threshold
			hB := iB >= tc.threshold
			if hA {
				tc.highA++
			}
			if hB {
				tc.highB++
			}
			if hA && hB {
				tc.highBoth++
			}
			if hA || hB {
				tc.eitherHigh++
			}
			if hA == hB {
				tc.agreement++
			}
		}
	}

	c.recordDivergence(DivergenceExample{
		Trial:      trial,
		IntensityA: iA,
		IntensityB: iB,
		Diff:       math.Abs(diff),
		PassA:      passA,
		PassB:      passB,
		Context:    ctx,
	})
}

// recordDivergence keeps the top-K examples by |intensityA - intensityB|.
func (c *Calculator) recordDivergence(ex DivergenceExample) {
	k := c.cfg.DivergenceExamplesK
	if k <= 0 {
		return
	}
	if len(c.divergence) < k {
		c.divergence = append(c.divergence, ex)
		sortDivergence(c.divergence)
		return
	}
	if ex.Diff <= c.divergence[len(c.divergence)-1].Diff {
		return
	}
	c.divergence[len(c.divergence)-1] = ex
	sortDivergence(c.divergence)
}

func sortDivergence(d []DivergenceExample) {
	sort.SliceStable(d, func(i, j int) bool { return d[i].Diff > d[j].Diff })
}

// #endregion observe

// #region merge
// Merge folds another calculator into this one. Both must share the same
// configuration.
func (c *Calculator) Merge(o *Calculator) {
	c.trials += o.trials
	c.passA += o.passA
	c.passB += o.passB
	c.coPass += o.coPass
	c.onEither += o.onEither
	c.pOnly += o.pOnly
	c.qOnly += o.qOnly
	c.sumAbsAll += o.sumAbsAll
	c.sumSqAll += o.sumSqAll
	c.coPassCorr.Merge(o.coPassCorr)
	c.sumAbsCo += o.sumAbsCo
	c.sumSqCo += o.sumSqCo
	c.domP += o.domP
	c.domQ += o.domQ
	for i := range c.thresholds {
		c.thresholds[i].highA += o.thresholds[i].highA
		c.thresholds[i].highB += o.thresholds[i].highB
		c.thresholds[i].highBoth += o.thresholds[i].highBoth
		c.thresholds[i].eitherHigh += o.thresholds[i].eitherHigh
		c.thresholds[i].agreement += o.thresholds[i].agreement
	}
	c.divergence = append(c.divergence, o.divergence...)
	sortDivergence(c.divergence)
	if len(c.divergence) > c.cfg.DivergenceExamplesK {
		c.divergence = c.divergence[:c.cfg.DivergenceExamplesK]
	}
}

// #endregion merge

// #region result
// Result finalizes the aggregates into a Result. Ratio metrics default to
// 0 under no evidence; distributional metrics become undefined. That
// asymmetry is deliberate and must not be unified silently.
func (c *Calculator) Result(protoA, protoB string) Result {
	n := c.trials

	res := Result{
		PrototypeA:  protoA,
		PrototypeB:  protoB,
		SampleCount: n,
		GateOverlap: GateOverlap{
			OnEitherRate:  stats.SafeRatio(c.onEither, n),
			OnBothRate:    stats.SafeRatio(c.coPass, n),
			POnlyRate:     stats.SafeRatio(c.pOnly, n),
			QOnlyRate:     stats.SafeRatio(c.qOnly, n),
			OnEitherCount: c.onEither,
			OnBothCount:   c.coPass,
		},
		ActivationJaccard: stats.SafeRatio(c.coPass, c.onEither),
		Divergence:        c.divergence,
	}

	res.PassRates = PassRates{
		PassARate:   stats.SafeRatio(c.passA, n),
		PassBRate:   stats.SafeRatio(c.passB, n),
		PassACount:  c.passA,
		PassBCount:  c.passB,
		CoPassCount: c.coPass,
		PAGivenB:    c.conditional(c.passB),
		PBGivenA:    c.conditional(c.passA),
	}

	res.Intensity = c.intensityStats(n)

	res.HighCoactivation = make([]ThresholdStats, len(c.thresholds))
	for i, tc := range c.thresholds {
		res.HighCoactivation[i] = ThresholdStats{
			Threshold:     tc.threshold,
			PHighA:        stats.SafeRatio(tc.highA, c.onEither),
			PHighB:        stats.SafeRatio(tc.highB, c.onEither),
			PHighBoth:     stats.SafeRatio(tc.highBoth, c.onEither),
			HighJaccard:   stats.SafeRatio(tc.highBoth, tc.eitherHigh),
			HighAgreement: stats.SafeRatio(tc.agreement, c.onEither),
		}
	}

	return res
}

// conditional computes P(other passes | this passes) over denom trials,
// guarded by the minimum-evidence floor.
func (c *Calculator) conditional(denom int) ConditionalRate {
	if denom < c.cfg.MinPassSamplesForConditional || denom == 0 {
		return ConditionalRate{}
	}
	return ConditionalRate{
		Rate: DefinedMetric(stats.SafeRatio(c.coPass, denom)),
		CI:   stats.Wilson(c.coPass, denom, c.cfg.ZScore),
	}
}

func (c *Calculator) intensityStats(n int) IntensityStats {
	out := IntensityStats{
		GlobalMAE:  safeDiv(c.sumAbsAll, float64(n)),
		GlobalRMSE: safeSqrtDiv(c.sumSqAll, float64(n)),
		DominanceP: stats.SafeRatio(c.domP, c.coPass),
		DominanceQ: stats.SafeRatio(c.domQ, c.coPass),
	}

	if c.coPass >= c.cfg.MinCoPassSamples && c.coPass > 0 {
		out.MAECoPass = DefinedMetric(c.sumAbsCo / float64(c.coPass))
		out.RMSECoPass = DefinedMetric(math.Sqrt(c.sumSqCo / float64(c.coPass)))
		if r, ok := c.coPassCorr.Correlation(); ok {
			out.PearsonCorrelation = DefinedMetric(r)
		}
	}
	return out
}

func safeDiv(num, denom float64) float64 {
	if denom == 0 {
		return 0
	}
	return num / denom
}

func safeSqrtDiv(num, denom float64) float64 {
	if denom == 0 {
		return 0
	}
	return math.Sqrt(num / denom)
}

// #endregion result
