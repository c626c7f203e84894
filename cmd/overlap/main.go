package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/danielpatrickdp/prototype-diagnostics/internal/config"
	"github.com/danielpatrickdp/prototype-diagnostics/internal/overlap"
	"github.com/danielpatrickdp/prototype-diagnostics/internal/prototype"
	"github.com/danielpatrickdp/prototype-diagnostics/internal/report"
	"github.com/danielpatrickdp/prototype-diagnostics/internal/simstate"
)

// #region main

func main() {
	catalogPath := flag.String("catalog", "", "path to prototype catalog YAML")
	protoA := flag.String("a", "", "first prototype ID")
	protoB := flag.String("b", "", "second prototype ID")
	dbPath := flag.String("db", "", "persist overlap edges to this SQLite database")
	jsonOut := flag.Bool("json", false, "output as JSON instead of summary")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if *catalogPath == "" {
		*catalogPath = cfg.CatalogPath
	}
	if *catalogPath == "" || *protoA == "" || *protoB == "" {
		fmt.Fprintln(os.Stderr, "usage: overlap --catalog path/to/prototypes.yaml --a id --b id [--db path] [--json]")
		os.Exit(2)
	}

	if err := run(*catalogPath, *protoA, *protoB, *dbPath, cfg, *jsonOut); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region run

func run(catalogPath, idA, idB, dbPath string, cfg config.Config, jsonOut bool) error {
	catalog, err := prototype.LoadCatalog(catalogPath)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	a, ok := catalog.Get(idA)
	if !ok {
		return fmt.Errorf("prototype %q not in catalog", idA)
	}
	b, ok := catalog.Get(idB)
	if !ok {
		return fmt.Errorf("prototype %q not in catalog", idB)
	}

	oc := cfg.OverlapConfig()
	gen := simstate.DefaultGeneratorConfig(catalog.Axes())

	var evaluator *overlap.Evaluator
	if oc.Workers > 1 {
		evaluator = overlap.NewParallelEvaluator(oc, func(worker int) overlap.Collaborators {
			return simstate.Collaborators(gen, cfg.Seed+int64(worker))
		})
	} else {
		evaluator = overlap.NewEvaluator(oc, simstate.Collaborators(gen, cfg.Seed))
	}

	res, err := evaluator.Evaluate(context.Background(), a, b)
	if err != nil {
		return fmt.Errorf("evaluate %s/%s: %w", idA, idB, err)
	}

	if dbPath != "" {
		if err := persist(dbPath, catalog.Hash(), oc, res); err != nil {
			return err
		}
	}

	if jsonOut {
		data, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal result: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}
	printSummary(res)
	return nil
}

func persist(dbPath, catalogHash string, oc overlap.Config, res overlap.Result) error {
	store, err := report.NewStore(dbPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer store.Close()

	runID, err := store.BeginRun("overlap", catalogHash, oc)
	if err != nil {
		return err
	}
	edges := []report.Edge{
		{SourceID: res.PrototypeA, TargetID: res.PrototypeB, Metric: "on_both", Weight: res.GateOverlap.OnBothRate},
		{SourceID: res.PrototypeA, TargetID: res.PrototypeB, Metric: "jaccard", Weight: res.ActivationJaccard},
	}
	if res.Intensity.PearsonCorrelation.Defined {
		edges = append(edges, report.Edge{
			SourceID: res.PrototypeA, TargetID: res.PrototypeB,
			Metric: "pearson", Weight: res.Intensity.PearsonCorrelation.Value,
		})
	}
	for _, e := range edges {
		if err := store.UpsertEdge(e); err != nil {
			return err
		}
	}
	fmt.Fprintf(os.Stderr, "saved %d edges under run %s\n", len(edges), runID)
	return nil
}

// #endregion run

// #region output

func fmtMetric(m overlap.Metric) string {
	if !m.Defined {
		return "insufficient data"
	}
	return fmt.Sprintf("%.4f", m.Value)
}

func printSummary(res overlap.Result) {
	fmt.Printf("Pair:        %s vs %s (%d samples)\n", res.PrototypeA, res.PrototypeB, res.SampleCount)
	fmt.Printf("Gate on:     both %.4f  either %.4f  a-only %.4f  b-only %.4f\n",
		res.GateOverlap.OnBothRate, res.GateOverlap.OnEitherRate,
		res.GateOverlap.POnlyRate, res.GateOverlap.QOnlyRate)
	fmt.Printf("Pass rates:  a %.4f  b %.4f  co-pass %d\n",
		res.PassRates.PassARate, res.PassRates.PassBRate, res.PassRates.CoPassCount)
	fmt.Printf("P(a|b):      %s\n", fmtMetric(res.PassRates.PAGivenB.Rate))
	fmt.Printf("P(b|a):      %s\n", fmtMetric(res.PassRates.PBGivenA.Rate))
	fmt.Printf("Pearson:     %s\n", fmtMetric(res.Intensity.PearsonCorrelation))
	fmt.Printf("MAE co-pass: %s\n", fmtMetric(res.Intensity.MAECoPass))
	fmt.Printf("Dominance:   a %.4f  b %.4f\n", res.Intensity.DominanceP, res.Intensity.DominanceQ)
	fmt.Printf("Jaccard:     %.4f\n", res.ActivationJaccard)

	if len(res.HighCoactivation) > 0 {
		fmt.Printf("\nHigh coactivation:\n")
		for _, ts := range res.HighCoactivation {
			fmt.Printf("  >= %.2f: a %.4f  b %.4f  both %.4f  agreement %.4f\n",
				ts.Threshold, ts.PHighA, ts.PHighB, ts.PHighBoth, ts.HighAgreement)
		}
	}

	if len(res.Divergence) > 0 {
		fmt.Printf("\nWorst divergence:\n")
		for _, d := range res.Divergence {
			fmt.Printf("  trial %-6d a=%.4f b=%.4f diff=%.4f\n", d.Trial, d.IntensityA, d.IntensityB, d.Diff)
		}
	}

	if res.Implication != nil {
		fmt.Printf("\nImplication: a=>b %v  b=>a %v  equivalent %v  disjoint %v\n",
			res.Implication.AImpliesB, res.Implication.BImpliesA,
			res.Implication.Equivalent(), res.Implication.Disjoint())
	}
}

// #endregion output
