package replay

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

const goldenFixture = `{
	"description": "two joy-gated prototypes over a four-sample trace",
	"prototypes": [
		{
			"id": "warmth",
			"description": "warm affection",
			"type": "emotion",
			"weights": {"joy": 1.0},
			"gates": ["joy >= 0.5"],
			"branches": [
				{"id": "main", "description": "expressed warmth", "threshold": 0.6}
			]
		},
		{
			"id": "delight",
			"description": "open delight",
			"type": "emotion",
			"weights": {"joy": 0.5},
			"gates": ["joy >= 0.7"],
			"branches": [
				{"id": "main", "description": "visible delight", "threshold": 0.9}
			]
		}
	],
	"trace": [
		{"current": {"joy": 0.8}},
		{"current": {"joy": 0.6}},
		{"current": {"joy": 0.4}},
		{"current": {"joy": 0.2}}
	],
	"pairs": [
		{
			"a": "warmth",
			"b": "delight",
			"expected": {
				"on_both_rate": 0.25,
				"on_either_rate": 0.5,
				"pass_a_rate": 0.5,
				"pass_b_rate": 0.25
			}
		}
	],
	"branches": [
		{"prototype_id": "warmth", "branch_id": "main", "status": "reachable"},
		{"prototype_id": "delight", "branch_id": "main", "status": "unreachable"}
	]
}`

func writeGolden(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fixture.json")
	if err := os.WriteFile(path, []byte(goldenFixture), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func TestLoadFixtureValidates(t *testing.T) {
	f, err := LoadFixture(writeGolden(t))
	if err != nil {
		t.Fatalf("LoadFixture: %v", err)
	}
	if len(f.Prototypes) != 2 || len(f.Trace) != 4 || len(f.Pairs) != 1 {
		t.Fatalf("unexpected fixture shape: %d prototypes, %d trace, %d pairs",
			len(f.Prototypes), len(f.Trace), len(f.Pairs))
	}
}

func TestParseFixtureRejectsUnknownPair(t *testing.T) {
	bad := `{
		"prototypes": [],
		"trace": [{"current": {"joy": 0.5}}],
		"pairs": [{"a": "ghost", "b": "ghost"}]
	}`
	if _, err := ParseFixture([]byte(bad)); err == nil {
		t.Fatal("expected error for pair referencing unknown prototype")
	}
}

func TestParseFixtureRejectsEmptyTrace(t *testing.T) {
	if _, err := ParseFixture([]byte(`{"prototypes": [], "trace": []}`)); err == nil {
		t.Fatal("expected error for empty trace")
	}
}

func TestTraceGeneratorCycles(t *testing.T) {
	tg := NewTraceGenerator([]FixtureSample{
		{Current: map[string]float64{"joy": 0.1}},
		{Current: map[string]float64{"joy": 0.2}},
	})
	first := tg.Generate().Current["joy"]
	tg.Generate()
	third := tg.Generate().Current["joy"]
	if first != third {
		t.Errorf("expected trace to cycle: first %v, third %v", first, third)
	}
}

func TestReplayGoldenVerdicts(t *testing.T) {
	f, err := LoadFixture(writeGolden(t))
	if err != nil {
		t.Fatalf("LoadFixture: %v", err)
	}

	pairs, err := Replay(context.Background(), f, DefaultReplayConfig())
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if len(pairs) != 1 {
		t.Fatalf("expected 1 pair result, got %d", len(pairs))
	}
	if len(pairs[0].Checks) != 4 {
		t.Fatalf("expected 4 checks, got %d", len(pairs[0].Checks))
	}
	for _, c := range pairs[0].Checks {
		if !c.Passed {
			t.Errorf("check %s failed: expected %v, got %v", c.Name, c.Expected, c.Actual)
		}
	}
	if pairs[0].Result.SampleCount != len(f.Trace) {
		t.Errorf("expected one full trace pass, got %d samples", pairs[0].Result.SampleCount)
	}
}

func TestReplayBranchesGolden(t *testing.T) {
	f, err := LoadFixture(writeGolden(t))
	if err != nil {
		t.Fatalf("LoadFixture: %v", err)
	}

	branches := ReplayBranches(f, DefaultReplayConfig())
	if len(branches) != 2 {
		t.Fatalf("expected 2 branch results, got %d", len(branches))
	}
	for _, b := range branches {
		if !b.Passed {
			t.Errorf("branch %s/%s: expected %s, got %s", b.PrototypeID, b.BranchID, b.Expected, b.Actual)
		}
	}
}

func TestSummarize(t *testing.T) {
	pairs := []PairResult{{
		Checks: []Check{
			{Name: "on_both_rate", Passed: true},
			{Name: "pass_a_rate", Passed: false},
		},
	}}
	branches := []BranchResult{{Passed: true}}

	s := Summarize(pairs, branches)
	if s.ChecksPassed != 2 || s.ChecksFailed != 1 {
		t.Errorf("unexpected counts: %+v", s)
	}
	if s.AllVerdictsOK {
		t.Error("a failed check should clear AllVerdictsOK")
	}
}
