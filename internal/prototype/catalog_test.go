package prototype

import (
	"strings"
	"testing"
)

const sampleCatalog = `
prototypes:
  - id: quiet_withdrawal
    description: pulls back from interaction
    type: emotion
    weights:
      sadness: 0.6
      fatigue: 0.3
      joy: -0.4
    gates:
      - "sadness >= 0.4"
      - "joy <= 0.1"
    branches:
      - id: main
        description: default withdrawal response
        threshold: 0.5
  - id: eager_display
    description: seeks attention
    type: sexual
    weights:
      arousal: 0.8
      confidence: 0.5
    gates:
      - "arousal >= 0.6"
    branches:
      - id: main
        description: display response
        threshold: 0.7
`

func TestParseCatalog(t *testing.T) {
	cat, err := ParseCatalog([]byte(sampleCatalog))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(cat.Prototypes) != 2 {
		t.Fatalf("expected 2 prototypes, got %d", len(cat.Prototypes))
	}
	p, ok := cat.Get("quiet_withdrawal")
	if !ok {
		t.Fatal("missing quiet_withdrawal")
	}
	if len(p.Constraints()) != 2 {
		t.Fatalf("expected 2 parsed gates, got %d", len(p.Constraints()))
	}
	if cat.Hash() == "" {
		t.Fatal("catalog hash must be set")
	}
}

func TestParseCatalogRejectsBadGate(t *testing.T) {
	bad := strings.Replace(sampleCatalog, "sadness >= 0.4", "sadness >> 0.4", 1)
	_, err := ParseCatalog([]byte(bad))
	if err == nil {
		t.Fatal("expected parse failure")
	}
	if !strings.Contains(err.Error(), "sadness >> 0.4") {
		t.Fatalf("error must echo the offending gate: %v", err)
	}
}

func TestParseCatalogRejectsDuplicateID(t *testing.T) {
	dup := strings.Replace(sampleCatalog, "eager_display", "quiet_withdrawal", 1)
	_, err := ParseCatalog([]byte(dup))
	if err == nil || !strings.Contains(err.Error(), "quiet_withdrawal") {
		t.Fatalf("expected duplicate id error, got %v", err)
	}
}

func TestParseCatalogRejectsUnknownType(t *testing.T) {
	bad := strings.Replace(sampleCatalog, "type: emotion", "type: mystery", 1)
	_, err := ParseCatalog([]byte(bad))
	if err == nil || !strings.Contains(err.Error(), "mystery") {
		t.Fatalf("expected unknown type error, got %v", err)
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	cat, err := ParseCatalog([]byte(sampleCatalog))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	snap := cat.Snapshot()
	snap[0].ID = "mutated"
	if cat.Prototypes[0].ID == "mutated" {
		t.Fatal("snapshot must not alias catalog storage")
	}
}

func TestAxesUnion(t *testing.T) {
	cat, err := ParseCatalog([]byte(sampleCatalog))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	axes := cat.Axes()
	want := []string{"arousal", "confidence", "fatigue", "joy", "sadness"}
	if len(axes) != len(want) {
		t.Fatalf("axes = %v, want %v", axes, want)
	}
	for i := range want {
		if axes[i] != want[i] {
			t.Fatalf("axes = %v, want %v", axes, want)
		}
	}
}
