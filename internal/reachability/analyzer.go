package reachability

import (
	"sort"

	"github.com/danielpatrickdp/prototype-diagnostics/internal/gate"
	"github.com/danielpatrickdp/prototype-diagnostics/internal/interval"
	"github.com/danielpatrickdp/prototype-diagnostics/internal/prototype"
)

// #region config
// Config holds axis domains and knife-edge thresholds.
type Config struct {
	// Domains maps axis name to its full domain before gate narrowing.
	// Axes not listed fall back to DefaultDomain.
	Domains       map[string]interval.Interval
	DefaultDomain interval.Interval

	// KnifeEdgeEpsilon is the narrowed-interval width below which an axis
	// is flagged. CriticalWidth grades the finding critical; empty
	// intervals (negative width) always grade critical.
	KnifeEdgeEpsilon float64
	CriticalWidth    float64

	// DefaultThreshold is used for prototypes authored without explicit
	// branches.
	DefaultThreshold float64
}

// DefaultConfig returns the standard analysis configuration.
func DefaultConfig() Config {
	return Config{
		DefaultDomain:    interval.MoodDomain,
		KnifeEdgeEpsilon: 1e-3,
		CriticalWidth:    1e-6,
		DefaultThreshold: 0.5,
	}
}

// #endregion config

// #region extractor
// ParseStatus reports how much of a prototype's gate text the extractor
// understood.
type ParseStatus string

const (
	ParseOK      ParseStatus = "ok"
	ParsePartial ParseStatus = "partial"
	ParseFailed  ParseStatus = "failed"
)

// Extraction is the gate-narrowed view of one prototype.
type Extraction struct {
	Status    ParseStatus
	Intervals map[string]interval.Interval

	// GatesByAxis records which gate texts narrowed each axis.
	GatesByAxis map[string][]string
}

// Extractor turns a prototype's gates into per-axis narrowed intervals.
// Injected so the analyzer also works when gates arrive as free text from
// an external authoring pipeline.
type Extractor interface {
	Extract(p prototype.Prototype) Extraction
}

// DomainExtractor is the default Extractor: it parses each gate text and
// folds it over the axis domain. Unparsable gates are skipped and the
// status degrades to partial (failed when nothing parsed).
type DomainExtractor struct {
	cfg Config
}

// NewDomainExtractor returns the default extractor for the given config.
func NewDomainExtractor(cfg Config) *DomainExtractor {
	return &DomainExtractor{cfg: cfg}
}

// Extract implements Extractor.
func (e *DomainExtractor) Extract(p prototype.Prototype) Extraction {
	constraints := p.Constraints()
	parsed := len(constraints)
	failed := 0
	if parsed == 0 && len(p.Gates) > 0 {
		// The prototype was not validated through the catalog loader;
		// parse leniently here.
		for _, text := range p.Gates {
			c, err := gate.Parse(text)
			if err != nil {
				failed++
				continue
			}
			constraints = append(constraints, c)
		}
		parsed = len(constraints)
	}

	status := ParseOK
	switch {
	case len(p.Gates) > 0 && parsed == 0:
		status = ParseFailed
	case failed > 0:
		status = ParsePartial
	}

	gatesByAxis := make(map[string][]string, len(constraints))
	for _, c := range constraints {
		text := c.Raw
		if text == "" {
			text = c.String()
		}
		gatesByAxis[c.Axis] = append(gatesByAxis[c.Axis], text)
	}

	return Extraction{
		Status:      status,
		Intervals:   gate.NarrowedIntervals(constraints, e.cfg.Domains, e.cfg.DefaultDomain),
		GatesByAxis: gatesByAxis,
	}
}

// #endregion extractor

// #region analyzer
// Analyzer classifies every activation branch of a prototype as reachable,
// knife-edge, or unreachable.
type Analyzer struct {
	cfg       Config
	extractor Extractor
}

// NewAnalyzer creates an analyzer with the default extractor.
func NewAnalyzer(cfg Config) *Analyzer {
	return &Analyzer{cfg: cfg, extractor: NewDomainExtractor(cfg)}
}

// NewAnalyzerWithExtractor injects a custom extractor.
func NewAnalyzerWithExtractor(cfg Config, ex Extractor) *Analyzer {
	return &Analyzer{cfg: cfg, extractor: ex}
}

// Analyze computes reachability for every branch of one prototype.
//
// MaxPossible is the box-constrained linear program corner solution: per
// axis, the narrowed interval's Max when the coefficient is non-negative,
// Min otherwise. Axes absent from the weight map contribute 0 regardless
// of their interval. O(axes), no search.
func (a *Analyzer) Analyze(p prototype.Prototype) []BranchReachability {
	ex := a.extractor.Extract(p)

	maxPossible := 0.0
	for axis, w := range p.Weights {
		iv, ok := ex.Intervals[axis]
		if !ok {
			iv, ok = a.cfg.Domains[axis]
			if !ok {
				iv = a.cfg.DefaultDomain
			}
		}
		if w >= 0 {
			maxPossible += w * iv.Max
		} else {
			maxPossible += w * iv.Min
		}
	}

	edges := a.knifeEdges(p, ex)

	branches := p.Branches
	if len(branches) == 0 {
		branches = []prototype.Branch{{
			ID:          "default",
			Description: p.Description,
			Threshold:   a.cfg.DefaultThreshold,
		}}
	}

	out := make([]BranchReachability, 0, len(branches))
	for _, br := range branches {
		out = append(out, NewBranchReachability(
			br.ID, br.Description, p.ID, p.Type, br.Threshold, maxPossible, edges))
	}
	return out
}

// AnalyzeAll runs Analyze over a catalog snapshot in order.
func (a *Analyzer) AnalyzeAll(snapshot []prototype.Prototype) []BranchReachability {
	var out []BranchReachability
	for _, p := range snapshot {
		out = append(out, a.Analyze(p)...)
	}
	return out
}

// knifeEdges flags gate-narrowed axes whose interval width falls below the
// epsilon. An empty interval (contradictory gates) is a critical finding:
// formally it makes the branch unreachable only if a weighted axis pins
// it, but it always signals an authoring error.
func (a *Analyzer) knifeEdges(p prototype.Prototype, ex Extraction) []KnifeEdge {
	var edges []KnifeEdge
	for axis, iv := range ex.Intervals {
		if iv.Width() >= a.cfg.KnifeEdgeEpsilon {
			continue
		}
		sev := SeverityWarning
		if iv.Width() < a.cfg.CriticalWidth {
			sev = SeverityCritical
		}
		edges = append(edges, KnifeEdge{
			Axis:       axis,
			Min:        iv.Min,
			Max:        iv.Max,
			Prototypes: []string{p.ID},
			Gates:      ex.GatesByAxis[axis],
			Severity:   sev,
		})
	}
	sort.Slice(edges, func(i, j int) bool { return edges[i].Axis < edges[j].Axis })
	return edges
}

// #endregion analyzer
