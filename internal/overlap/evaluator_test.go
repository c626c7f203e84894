package overlap

import (
	"context"
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/danielpatrickdp/prototype-diagnostics/internal/gate"
	"github.com/danielpatrickdp/prototype-diagnostics/internal/interval"
	"github.com/danielpatrickdp/prototype-diagnostics/internal/prototype"
)

func interval01() interval.Interval {
	return interval.New(0, 1)
}

// #region stubs
// scriptedGenerator replays a fixed state sequence, cycling when the
// sample count exceeds the script.
type scriptedGenerator struct {
	states []SampleState
	next   int
}

func (g *scriptedGenerator) Generate() SampleState {
	s := g.states[g.next%len(g.states)]
	g.next++
	return s
}

// currentOnlyBuilder exposes the current axis map as the context.
type currentOnlyBuilder struct{}

func (currentOnlyBuilder) BuildContext(current, previous, traits map[string]float64) Context {
	return Context(current)
}

// constraintChecker evaluates parsed constraints against the context.
type constraintChecker struct{}

func (constraintChecker) CheckAllGatesPass(gates []gate.Constraint, ctx Context) bool {
	for _, g := range gates {
		if !g.SatisfiedBy(ctx[g.Axis]) {
			return false
		}
	}
	return true
}

// weightedSum computes sum(w * ctx[axis]) with no clamping, so tests can
// script exact intensities through synthetic axes.
type weightedSum struct{}

func (weightedSum) ComputeIntensity(weights map[string]float64, ctx Context) float64 {
	var sum float64
	for axis, w := range weights {
		sum += w * ctx[axis]
	}
	return sum
}

func stubCollaborators(states []SampleState) Collaborators {
	return Collaborators{
		Generator: &scriptedGenerator{states: states},
		Builder:   currentOnlyBuilder{},
		Gates:     constraintChecker{},
		Intensity: weightedSum{},
	}
}

func mustProto(t *testing.T, id string, weights map[string]float64, gates []string) prototype.Prototype {
	t.Helper()
	p := prototype.Prototype{ID: id, Type: prototype.TypeEmotion, Weights: weights, Gates: gates}
	require.NoError(t, p.Validate())
	return p
}

// state scripts one trial: gate axes a/b control passing, ia/ib carry the
// intensities.
func state(a, b float64, ia, ib float64) SampleState {
	return SampleState{Current: map[string]float64{"a": a, "b": b, "ia": ia, "ib": ib}}
}

// #endregion stubs

func evaluate(t *testing.T, cfg Config, states []SampleState, a, b prototype.Prototype) Result {
	t.Helper()
	cfg.SampleCount = len(states)
	ev := NewEvaluator(cfg, stubCollaborators(states))
	res, err := ev.Evaluate(context.Background(), a, b)
	require.NoError(t, err)
	return res
}

func TestSelfComparisonIdentities(t *testing.T) {
	// Gates always pass; intensity varies across trials.
	p := mustProto(t, "self", map[string]float64{"ia": 1}, []string{"a >= 0"})
	states := []SampleState{
		state(1, 0, 0.2, 0), state(1, 0, 0.5, 0), state(1, 0, 0.8, 0), state(1, 0, 0.9, 0),
	}
	cfg := DefaultConfig()
	cfg.MinPassSamplesForConditional = 1
	res := evaluate(t, cfg, states, p, p)

	require.Equal(t, 1.0, res.GateOverlap.OnBothRate)
	require.Equal(t, 1.0, res.ActivationJaccard)
	require.True(t, res.Intensity.PearsonCorrelation.Defined)
	require.InDelta(t, 1.0, res.Intensity.PearsonCorrelation.Value, 1e-12)
	require.True(t, res.Intensity.MAECoPass.Defined)
	require.Equal(t, 0.0, res.Intensity.MAECoPass.Value)
	for _, th := range res.HighCoactivation {
		require.Equal(t, 1.0, th.HighAgreement, "threshold %.2f", th.Threshold)
		if th.PHighA > 0 {
			require.Equal(t, 1.0, th.HighJaccard, "threshold %.2f", th.Threshold)
		}
	}
}

func TestGateOverlapRates(t *testing.T) {
	a := mustProto(t, "a", map[string]float64{"ia": 1}, []string{"a >= 0.5"})
	b := mustProto(t, "b", map[string]float64{"ib": 1}, []string{"b >= 0.5"})
	states := []SampleState{
		state(1, 1, 0.5, 0.5), // both
		state(1, 0, 0.5, 0.5), // a only
		state(0, 1, 0.5, 0.5), // b only
		state(0, 0, 0.5, 0.5), // neither
	}
	res := evaluate(t, DefaultConfig(), states, a, b)

	require.Equal(t, 0.75, res.GateOverlap.OnEitherRate)
	require.Equal(t, 0.25, res.GateOverlap.OnBothRate)
	require.Equal(t, 0.25, res.GateOverlap.POnlyRate)
	require.Equal(t, 0.25, res.GateOverlap.QOnlyRate)
	require.Equal(t, 3, res.GateOverlap.OnEitherCount)
	require.InDelta(t, 1.0/3.0, res.ActivationJaccard, 1e-12)
}

func TestGatedIntensityContributesZero(t *testing.T) {
	a := mustProto(t, "a", map[string]float64{"ia": 1}, []string{"a >= 0.5"})
	b := mustProto(t, "b", map[string]float64{"ib": 1}, []string{"b >= 0.5"})
	// A passes with intensity 0.8, B is gated: global MAE sees |0.8 - 0|.
	states := []SampleState{state(1, 0, 0.8, 0.9)}
	res := evaluate(t, DefaultConfig(), states, a, b)

	require.InDelta(t, 0.8, res.Intensity.GlobalMAE, 1e-12)
	require.InDelta(t, 0.8, res.Intensity.GlobalRMSE, 1e-12)
}

func TestNoCoPassAsymmetry(t *testing.T) {
	a := mustProto(t, "a", map[string]float64{"ia": 1}, []string{"a >= 0.5"})
	b := mustProto(t, "b", map[string]float64{"ib": 1}, []string{"b >= 0.5"})
	states := []SampleState{
		state(1, 0, 0.9, 0), state(0, 1, 0, 0.8), state(0, 0, 0, 0),
	}
	res := evaluate(t, DefaultConfig(), states, a, b)

	require.Equal(t, 0, res.PassRates.CoPassCount)
	require.False(t, res.Intensity.PearsonCorrelation.Defined, "correlation without evidence must be undefined")
	require.False(t, res.Intensity.MAECoPass.Defined)
	require.False(t, res.Intensity.RMSECoPass.Defined)
	require.Equal(t, 0.0, res.Intensity.DominanceP, "no evidence of dominance is a meaningful zero")
	require.Equal(t, 0.0, res.Intensity.DominanceQ)
}

func TestConditionalGuardrailBoundary(t *testing.T) {
	a := mustProto(t, "a", map[string]float64{"ia": 1}, []string{"a >= 0.5"})
	b := mustProto(t, "b", map[string]float64{"ib": 1}, []string{"b >= 0"})

	// A passes 199 of 200, B always: pB_given_A undefined at 199 < 200.
	states := make([]SampleState, 200)
	for i := range states {
		aVal := 1.0
		if i == 0 {
			aVal = 0
		}
		states[i] = state(aVal, 1, 0.5, 0.5)
	}
	res := evaluate(t, DefaultConfig(), states, a, b)
	require.Equal(t, 199, res.PassRates.PassACount)
	require.False(t, res.PassRates.PBGivenA.Rate.Defined)
	require.True(t, res.PassRates.PAGivenB.Rate.Defined, "passBCount=200 meets the floor exactly")

	// A passes exactly 200: boundary is inclusive.
	states[0] = state(1, 1, 0.5, 0.5)
	res = evaluate(t, DefaultConfig(), states, a, b)
	require.Equal(t, 200, res.PassRates.PassACount)
	require.True(t, res.PassRates.PBGivenA.Rate.Defined)
	require.Equal(t, 1.0, res.PassRates.PBGivenA.Rate.Value)
	require.Greater(t, res.PassRates.PBGivenA.CI.Lower, 0.9)
	require.Equal(t, 1.0, res.PassRates.PBGivenA.CI.Upper)
}

func TestDominanceDelta(t *testing.T) {
	a := mustProto(t, "a", map[string]float64{"ia": 1}, []string{"a >= 0"})
	b := mustProto(t, "b", map[string]float64{"ib": 1}, []string{"b >= 0"})
	states := []SampleState{
		state(1, 1, 0.9, 0.2),  // A dominates: diff 0.7 > 0.15
		state(1, 1, 0.5, 0.45), // within delta, neither
		state(1, 1, 0.1, 0.6),  // B dominates
		state(1, 1, 0.3, 0.3),  // tie
	}
	cfg := DefaultConfig()
	cfg.MinPassSamplesForConditional = 1
	res := evaluate(t, cfg, states, a, b)

	require.Equal(t, 0.25, res.Intensity.DominanceP)
	require.Equal(t, 0.25, res.Intensity.DominanceQ)
}

func TestHighCoactivationTable(t *testing.T) {
	a := mustProto(t, "a", map[string]float64{"ia": 1}, []string{"a >= 0.5"})
	b := mustProto(t, "b", map[string]float64{"ib": 1}, []string{"b >= 0.5"})
	cfg := DefaultConfig()
	cfg.HighThresholds = []float64{0.6}
	states := []SampleState{
		state(1, 1, 0.8, 0.7), // both high
		state(1, 1, 0.8, 0.1), // only A high
		state(1, 1, 0.2, 0.1), // neither high, agreement
		state(1, 0, 0.9, 0.9), // B gated to 0: only A high
		state(0, 0, 0.9, 0.9), // neither passes: excluded from onEither
	}
	res := evaluate(t, cfg, states, a, b)
	require.Len(t, res.HighCoactivation, 1)
	th := res.HighCoactivation[0]

	// onEither = 4.
	require.Equal(t, 0.75, th.PHighA)       // trials 1, 2, 4
	require.Equal(t, 0.25, th.PHighB)       // trial 1
	require.Equal(t, 0.25, th.PHighBoth)    // trial 1
	require.InDelta(t, 1.0/3.0, th.HighJaccard, 1e-12)
	require.Equal(t, 0.5, th.HighAgreement) // trials 1 and 3

	for _, v := range []float64{th.PHighA, th.PHighB, th.PHighBoth, th.HighJaccard, th.HighAgreement} {
		require.GreaterOrEqual(t, v, 0.0)
		require.LessOrEqual(t, v, 1.0)
	}
}

func TestDivergenceExamplesTopK(t *testing.T) {
	a := mustProto(t, "a", map[string]float64{"ia": 1}, []string{"a >= 0"})
	b := mustProto(t, "b", map[string]float64{"ib": 1}, []string{"b >= 0"})
	cfg := DefaultConfig()
	cfg.DivergenceExamplesK = 2
	states := []SampleState{
		state(1, 1, 0.5, 0.5), // diff 0
		state(1, 1, 0.9, 0.1), // diff 0.8
		state(1, 1, 0.6, 0.3), // diff 0.3
		state(1, 1, 0.1, 0.6), // diff 0.5
	}
	res := evaluate(t, cfg, states, a, b)

	require.Len(t, res.Divergence, 2)
	require.InDelta(t, 0.8, res.Divergence[0].Diff, 1e-12)
	require.InDelta(t, 0.5, res.Divergence[1].Diff, 1e-12)
	require.Equal(t, 1, res.Divergence[0].Trial)
}

func TestImplicationAnnotation(t *testing.T) {
	narrow := mustProto(t, "narrow", map[string]float64{"ia": 1}, []string{"a >= 0.7"})
	wide := mustProto(t, "wide", map[string]float64{"ib": 1}, []string{"a >= 0.2"})

	collab := stubCollaborators([]SampleState{state(1, 1, 0.5, 0.5)})
	collab.Implication = StructuralImplication{DefaultDomain: interval01()}
	cfg := DefaultConfig()
	cfg.SampleCount = 1
	ev := NewEvaluator(cfg, collab)
	res, err := ev.Evaluate(context.Background(), narrow, wide)
	require.NoError(t, err)

	require.NotNil(t, res.Implication)
	require.True(t, res.Implication.AImpliesB)
	require.False(t, res.Implication.BImpliesA)
}

func TestParallelMatchesSequential(t *testing.T) {
	a := mustProto(t, "a", map[string]float64{"ia": 1}, []string{"a >= 0.5"})
	b := mustProto(t, "b", map[string]float64{"ib": 1}, []string{"b >= 0.5"})

	states := make([]SampleState, 40)
	for i := range states {
		states[i] = state(float64(i%2), float64((i/2)%2), float64(i)/40, float64(40-i)/40)
	}

	cfg := DefaultConfig()
	cfg.SampleCount = len(states)
	cfg.MinPassSamplesForConditional = 1

	seq := NewEvaluator(cfg, stubCollaborators(states))
	seqRes, err := seq.Evaluate(context.Background(), a, b)
	require.NoError(t, err)

	// Partition the same script across workers so the union of trials is
	// identical to the sequential run.
	parCfg := cfg
	parCfg.Workers = 4
	per := len(states) / 4
	par := NewParallelEvaluator(parCfg, func(w int) Collaborators {
		return stubCollaborators(states[w*per : (w+1)*per])
	})
	parRes, err := par.Evaluate(context.Background(), a, b)
	require.NoError(t, err)

	require.Equal(t, seqRes.GateOverlap, parRes.GateOverlap)
	require.Equal(t, seqRes.PassRates, parRes.PassRates)
	require.InDelta(t, seqRes.Intensity.GlobalMAE, parRes.Intensity.GlobalMAE, 1e-12)
	require.InDelta(t, seqRes.Intensity.GlobalRMSE, parRes.Intensity.GlobalRMSE, 1e-12)
	require.Equal(t, seqRes.HighCoactivation, parRes.HighCoactivation)
}

func TestCancellationStopsTrials(t *testing.T) {
	a := mustProto(t, "a", map[string]float64{"ia": 1}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ev := NewEvaluator(DefaultConfig(), stubCollaborators([]SampleState{state(1, 1, 0.5, 0.5)}))
	_, err := ev.Evaluate(ctx, a, a)
	require.Error(t, err)
}

func TestMetricJSONRendersNullWhenUndefined(t *testing.T) {
	data, err := json.Marshal(struct {
		U Metric `json:"u"`
		D Metric `json:"d"`
		N Metric `json:"n"`
	}{
		U: Metric{},
		D: DefinedMetric(0.5),
		N: Metric{Value: math.NaN(), Defined: true},
	})
	require.NoError(t, err)
	require.JSONEq(t, `{"u": null, "d": 0.5, "n": null}`, string(data))
}
