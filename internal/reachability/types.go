package reachability

import (
	"encoding/json"
	"fmt"

	"github.com/danielpatrickdp/prototype-diagnostics/internal/prototype"
)

// #region status
// Status classifies a branch after reachability analysis.
type Status string

const (
	StatusReachable   Status = "reachable"
	StatusKnifeEdge   Status = "knife-edge"
	StatusUnreachable Status = "unreachable"
)

// Severity grades a knife-edge finding.
type Severity string

const (
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// #endregion status

// #region knife-edge
// KnifeEdge flags a gate-narrowed interval so thin that formal
// reachability is practically unreliable.
type KnifeEdge struct {
	Axis       string   `json:"axis"`
	Min        float64  `json:"min"`
	Max        float64  `json:"max"`
	Prototypes []string `json:"contributing_prototypes"`
	Gates      []string `json:"contributing_gates"`
	Severity   Severity `json:"severity"`
}

// #endregion knife-edge

// #region branch-reachability
// BranchReachability is the analysis result for one (branch, prototype)
// pair. IsReachable, Gap and Status are derived from Threshold and
// MaxPossible; they are recomputed on construction and on deserialization
// and never trusted from persisted input.
type BranchReachability struct {
	BranchID          string         `json:"branch_id"`
	BranchDescription string         `json:"branch_description"`
	PrototypeID       string         `json:"prototype_id"`
	Type              prototype.Type `json:"type"`
	Threshold         float64        `json:"threshold"`
	MaxPossible       float64        `json:"max_possible"`
	KnifeEdges        []KnifeEdge    `json:"knife_edges,omitempty"`

	// Derived fields, present in JSON for readability only.
	IsReachable bool    `json:"is_reachable"`
	Gap         float64 `json:"gap"`
	Status      Status  `json:"status"`
}

// NewBranchReachability constructs a result from primary fields and
// computes the derived ones. This is the only way derived fields are set.
func NewBranchReachability(branchID, branchDesc, protoID string, typ prototype.Type, threshold, maxPossible float64, edges []KnifeEdge) BranchReachability {
	b := BranchReachability{
		BranchID:          branchID,
		BranchDescription: branchDesc,
		PrototypeID:       protoID,
		Type:              typ,
		Threshold:         threshold,
		MaxPossible:       maxPossible,
		KnifeEdges:        edges,
	}
	b.finalize()
	return b
}

// finalize recomputes the derived fields from the primary ones.
func (b *BranchReachability) finalize() {
	b.IsReachable = b.MaxPossible >= b.Threshold
	if b.IsReachable {
		b.Gap = 0
	} else {
		b.Gap = b.Threshold - b.MaxPossible
	}
	switch {
	case !b.IsReachable:
		b.Status = StatusUnreachable
	case len(b.KnifeEdges) > 0:
		b.Status = StatusKnifeEdge
	default:
		b.Status = StatusReachable
	}
}

// UnmarshalJSON decodes primary fields and recomputes the derived ones,
// discarding whatever the serialized form claimed. Guards against stale
// or tampered persisted diagnostics.
func (b *BranchReachability) UnmarshalJSON(data []byte) error {
	type plain BranchReachability
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*b = BranchReachability(p)
	b.finalize()
	return nil
}

// Summary renders the result deterministically for terminal output.
func (b BranchReachability) Summary() string {
	verdict := string(b.Status)
	switch b.Status {
	case StatusUnreachable:
		verdict = fmt.Sprintf("unreachable (gap %.2f)", b.Gap)
	case StatusKnifeEdge:
		verdict = fmt.Sprintf("knife-edge [%d]", len(b.KnifeEdges))
	}
	return fmt.Sprintf("%s/%s: activation >= %.2f, max possible %.2f: %s (%s)",
		b.PrototypeID, b.BranchID, b.Threshold, b.MaxPossible, verdict, b.BranchDescription)
}

// #endregion branch-reachability
