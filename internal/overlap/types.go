package overlap

import (
	"encoding/json"
	"math"

	"github.com/danielpatrickdp/prototype-diagnostics/internal/gate"
	"github.com/danielpatrickdp/prototype-diagnostics/internal/stats"
)

// #region config
// Config holds the Monte Carlo comparison knobs.
type Config struct {
	// SampleCount is the number of synthetic-state trials per pair.
	SampleCount int
	// HighThresholds are the intensity cutoffs for the coactivation table.
	HighThresholds []float64
	// DominanceDelta: one intensity must exceed the other by more than
	// this before a co-pass sample counts as dominated.
	DominanceDelta float64
	// DivergenceExamplesK bounds the kept worst-divergence samples.
	DivergenceExamplesK int
	// MinCoPassSamples guards correlation-like metrics: below this many
	// co-pass trials they are undefined, not zero.
	MinCoPassSamples int
	// MinPassSamplesForConditional guards the conditional probabilities:
	// a ratio over too few trials must not be reported as a confident
	// number.
	MinPassSamplesForConditional int
	// ZScore sets the Wilson interval confidence level.
	ZScore float64
	// Workers > 1 splits trials across goroutines.
	Workers int
}

// DefaultConfig returns the documented evaluator defaults.
func DefaultConfig() Config {
	return Config{
		SampleCount:                  2000,
		HighThresholds:               []float64{0.4, 0.6, 0.75},
		DominanceDelta:               0.15,
		DivergenceExamplesK:          5,
		MinCoPassSamples:             1,
		MinPassSamplesForConditional: 200,
		ZScore:                       1.96,
		Workers:                      1,
	}
}

// #endregion config

// #region metric
// Metric is a statistic that may be undefined under insufficient evidence.
// Undefined is not an error: callers render "insufficient data" instead of
// a number that looks measured.
type Metric struct {
	Value   float64
	Defined bool
}

// Defined wraps a computed value.
func DefinedMetric(v float64) Metric {
	return Metric{Value: v, Defined: true}
}

// MarshalJSON emits null for undefined metrics so no NaN reaches a report.
func (m Metric) MarshalJSON() ([]byte, error) {
	if !m.Defined || math.IsNaN(m.Value) || math.IsInf(m.Value, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(m.Value)
}

func (m Metric) String() string {
	if !m.Defined {
		return "undefined"
	}
	b, _ := json.Marshal(m.Value)
	return string(b)
}

// #endregion metric

// #region result-types
// GateOverlap reports activation co-occurrence as fractions of the trial
// count.
type GateOverlap struct {
	OnEitherRate  float64 `json:"on_either_rate"`
	OnBothRate    float64 `json:"on_both_rate"`
	POnlyRate     float64 `json:"p_only_rate"`
	QOnlyRate     float64 `json:"q_only_rate"`
	OnEitherCount int     `json:"on_either_count"`
	OnBothCount   int     `json:"on_both_count"`
}

// ConditionalRate is a guarded conditional probability with its Wilson
// bracket. Rate is undefined below the configured evidence floor.
type ConditionalRate struct {
	Rate Metric             `json:"rate"`
	CI   stats.WilsonBounds `json:"ci"`
}

// PassRates reports per-prototype pass statistics.
type PassRates struct {
	PassARate   float64         `json:"pass_a_rate"`
	PassBRate   float64         `json:"pass_b_rate"`
	PassACount  int             `json:"pass_a_count"`
	PassBCount  int             `json:"pass_b_count"`
	CoPassCount int             `json:"co_pass_count"`
	PAGivenB    ConditionalRate `json:"p_a_given_b"`
	PBGivenA    ConditionalRate `json:"p_b_given_a"`
}

// IntensityStats reports agreement between the two intensity series.
// Gated samples contribute intensity 0 so the global metrics stay defined
// even when activation differs.
type IntensityStats struct {
	PearsonCorrelation Metric  `json:"pearson_correlation"`
	MAECoPass          Metric  `json:"mae_co_pass"`
	RMSECoPass         Metric  `json:"rmse_co_pass"`
	GlobalMAE          float64 `json:"global_mae"`
	GlobalRMSE         float64 `json:"global_rmse"`

	// Dominance rates default to exactly 0 under no co-pass evidence:
	// "no evidence of dominance" is a meaningful zero, unlike correlation.
	DominanceP float64 `json:"dominance_p"`
	DominanceQ float64 `json:"dominance_q"`
}

// ThresholdStats is one row of the high-coactivation table.
type ThresholdStats struct {
	Threshold     float64 `json:"threshold"`
	PHighA        float64 `json:"p_high_a"`
	PHighB        float64 `json:"p_high_b"`
	PHighBoth     float64 `json:"p_high_both"`
	HighJaccard   float64 `json:"high_jaccard"`
	HighAgreement float64 `json:"high_agreement"`
}

// DivergenceExample is one retained worst-divergence trial for manual
// inspection.
type DivergenceExample struct {
	Trial      int     `json:"trial"`
	IntensityA float64 `json:"intensity_a"`
	IntensityB float64 `json:"intensity_b"`
	Diff       float64 `json:"diff"`
	PassA      bool    `json:"pass_a"`
	PassB      bool    `json:"pass_b"`
	Context    Context `json:"context,omitempty"`
}

// Result is the full behavioral comparison of two prototypes. It is a pure
// function of the inputs and the sample count; nothing is persisted or
// trusted across runs.
type Result struct {
	PrototypeA        string              `json:"prototype_a"`
	PrototypeB        string              `json:"prototype_b"`
	SampleCount       int                 `json:"sample_count"`
	GateOverlap       GateOverlap         `json:"gate_overlap"`
	PassRates         PassRates           `json:"pass_rates"`
	Intensity         IntensityStats      `json:"intensity"`
	ActivationJaccard float64             `json:"activation_jaccard"`
	HighCoactivation  []ThresholdStats    `json:"high_coactivation"`
	Divergence        []DivergenceExample `json:"divergence_examples"`
	Implication       *gate.Relation      `json:"implication,omitempty"`
}

// #endregion result-types
