package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/danielpatrickdp/prototype-diagnostics/internal/config"
	"github.com/danielpatrickdp/prototype-diagnostics/internal/overlap"
	"github.com/danielpatrickdp/prototype-diagnostics/internal/prototype"
	"github.com/danielpatrickdp/prototype-diagnostics/internal/reachability"
	"github.com/danielpatrickdp/prototype-diagnostics/internal/replay"
	"github.com/danielpatrickdp/prototype-diagnostics/internal/simstate"
)

// #region main

func main() {
	catalogPath := flag.String("catalog", "", "path to prototype catalog YAML")
	outPath := flag.String("out", "", "output fixture JSON path")
	pairsArg := flag.String("pairs", "", "comma-separated id:id pairs to record (default: all adjacent pairs)")
	samples := flag.Int("samples", 64, "trace length to record")
	seed := flag.Int64("seed", 1, "generator seed")
	flag.Parse()

	if *catalogPath == "" || *outPath == "" {
		fmt.Fprintln(os.Stderr, "usage: fixture-export --catalog path/to/prototypes.yaml --out path/to/fixture.json [--pairs a:b,c:d] [--samples N] [--seed S]")
		os.Exit(2)
	}

	if err := run(*catalogPath, *outPath, *pairsArg, *samples, *seed); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region export

func run(catalogPath, outPath, pairsArg string, samples int, seed int64) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	catalog, err := prototype.LoadCatalog(catalogPath)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}

	pairs, err := resolvePairs(catalog, pairsArg)
	if err != nil {
		return err
	}

	trace := recordTrace(catalog, samples, seed)

	fixture := &replay.Fixture{
		Description: fmt.Sprintf("generated fixture: %d prototypes, %d samples, seed %d",
			len(catalog.Snapshot()), samples, seed),
		Prototypes: catalog.Snapshot(),
		Trace:      trace,
	}

	// replay the trace once and bake the computed aggregates in as the
	// expected verdicts
	if err := bakeExpectations(fixture, pairs, cfg); err != nil {
		return err
	}
	bakeBranchStatuses(fixture, cfg)

	return writeFixture(fixture, outPath)
}

// resolvePairs parses "a:b,c:d" or falls back to adjacent catalog pairs.
func resolvePairs(catalog *prototype.Catalog, arg string) ([][2]string, error) {
	if arg == "" {
		snap := catalog.Snapshot()
		var pairs [][2]string
		for i := 0; i+1 < len(snap); i += 2 {
			pairs = append(pairs, [2]string{snap[i].ID, snap[i+1].ID})
		}
		return pairs, nil
	}

	var pairs [][2]string
	for _, part := range strings.Split(arg, ",") {
		ids := strings.SplitN(strings.TrimSpace(part), ":", 2)
		if len(ids) != 2 || ids[0] == "" || ids[1] == "" {
			return nil, fmt.Errorf("malformed pair %q, want id:id", part)
		}
		for _, id := range ids {
			if _, ok := catalog.Get(id); !ok {
				return nil, fmt.Errorf("prototype %q not in catalog", id)
			}
		}
		pairs = append(pairs, [2]string{ids[0], ids[1]})
	}
	return pairs, nil
}

func recordTrace(catalog *prototype.Catalog, samples int, seed int64) []replay.FixtureSample {
	gen := simstate.NewGenerator(simstate.DefaultGeneratorConfig(catalog.Axes()), seed)
	trace := make([]replay.FixtureSample, samples)
	for i := range trace {
		s := gen.Generate()
		trace[i] = replay.FixtureSample{
			Current:  s.Current,
			Previous: s.Previous,
			Traits:   s.Traits,
		}
	}
	return trace
}

func bakeExpectations(fixture *replay.Fixture, pairs [][2]string, cfg config.Config) error {
	for _, p := range pairs {
		fixture.Pairs = append(fixture.Pairs, replay.FixturePair{A: p[0], B: p[1]})
	}

	rc := replay.ReplayConfig{
		Overlap:      cfg.OverlapConfig(),
		Reachability: cfg.ReachabilityConfig(),
	}
	results, err := replay.Replay(context.Background(), fixture, rc)
	if err != nil {
		return fmt.Errorf("record expectations: %w", err)
	}
	for i, r := range results {
		fixture.Pairs[i].Expected = expectation(r.Result)
	}
	return nil
}

func expectation(res overlap.Result) replay.PairExpectation {
	onBoth := res.GateOverlap.OnBothRate
	onEither := res.GateOverlap.OnEitherRate
	passA := res.PassRates.PassARate
	passB := res.PassRates.PassBRate
	return replay.PairExpectation{
		OnBothRate:   &onBoth,
		OnEitherRate: &onEither,
		PassARate:    &passA,
		PassBRate:    &passB,
	}
}

func bakeBranchStatuses(fixture *replay.Fixture, cfg config.Config) {
	analyzer := reachability.NewAnalyzer(cfg.ReachabilityConfig())
	for _, p := range fixture.Prototypes {
		for _, br := range analyzer.Analyze(p) {
			fixture.Branches = append(fixture.Branches, replay.FixtureBranch{
				PrototypeID: br.PrototypeID,
				BranchID:    br.BranchID,
				Status:      string(br.Status),
			})
		}
	}
}

// #endregion export

// #region output

func writeFixture(fixture *replay.Fixture, outPath string) error {
	data, err := json.MarshalIndent(fixture, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal fixture: %w", err)
	}

	if err := os.WriteFile(outPath, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", outPath, err)
	}

	fmt.Printf("Wrote fixture to %s (%d bytes, %d samples, %d pairs, %d branch checks)\n",
		outPath, len(data), len(fixture.Trace), len(fixture.Pairs), len(fixture.Branches))
	return nil
}

// #endregion output
