package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/danielpatrickdp/prototype-diagnostics/internal/config"
	"github.com/danielpatrickdp/prototype-diagnostics/internal/prototype"
	"github.com/danielpatrickdp/prototype-diagnostics/internal/reachability"
	"github.com/danielpatrickdp/prototype-diagnostics/internal/report"
)

// #region main

func main() {
	catalogPath := flag.String("catalog", "", "path to prototype catalog YAML")
	dbPath := flag.String("db", "", "persist results to this SQLite database")
	jsonOut := flag.Bool("json", false, "output as JSON instead of table")
	strict := flag.Bool("strict", false, "exit 1 when any branch is unreachable or critically knife-edged")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if *catalogPath == "" {
		*catalogPath = cfg.CatalogPath
	}
	if *catalogPath == "" {
		fmt.Fprintln(os.Stderr, "usage: reachcheck --catalog path/to/prototypes.yaml [--db path] [--json] [--strict]")
		os.Exit(2)
	}

	if err := run(*catalogPath, *dbPath, cfg, *jsonOut, *strict); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region run

func run(catalogPath, dbPath string, cfg config.Config, jsonOut, strict bool) error {
	catalog, err := prototype.LoadCatalog(catalogPath)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}

	rc := cfg.ReachabilityConfig()
	analyzer := reachability.NewAnalyzer(rc)
	results := analyzer.AnalyzeAll(catalog.Snapshot())

	if dbPath != "" {
		if err := persist(dbPath, catalog.Hash(), rc, results); err != nil {
			return err
		}
	}

	if jsonOut {
		data, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal results: %w", err)
		}
		fmt.Println(string(data))
	} else {
		printTable(results)
	}

	if strict && hasCriticalFindings(results) {
		os.Exit(1)
	}
	return nil
}

func persist(dbPath, catalogHash string, rc reachability.Config, results []reachability.BranchReachability) error {
	store, err := report.NewStore(dbPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer store.Close()

	runID, err := store.BeginRun("reachcheck", catalogHash, rc)
	if err != nil {
		return err
	}
	for _, br := range results {
		if err := store.SaveReachability(runID, br); err != nil {
			return err
		}
	}
	fmt.Fprintf(os.Stderr, "saved %d reports under run %s\n", len(results), runID)
	return nil
}

func hasCriticalFindings(results []reachability.BranchReachability) bool {
	for _, br := range results {
		if !br.IsReachable {
			return true
		}
		for _, ke := range br.KnifeEdges {
			if ke.Severity == reachability.SeverityCritical {
				return true
			}
		}
	}
	return false
}

// #endregion run

// #region output

func printTable(results []reachability.BranchReachability) {
	fmt.Printf("%-24s  %-12s  %9s  %9s  %-11s  %s\n",
		"Prototype/Branch", "Type", "Threshold", "Max", "Status", "Knife Edges")
	fmt.Printf("%-24s+-%-12s+-%9s+-%9s+-%-11s+-%s\n",
		"------------------------", "------------", "---------", "---------", "-----------", "-----------")

	unreachable := 0
	knifeEdged := 0
	for _, br := range results {
		edges := "-"
		if n := len(br.KnifeEdges); n > 0 {
			edges = fmt.Sprintf("%d", n)
			knifeEdged++
		}
		if !br.IsReachable {
			unreachable++
		}
		fmt.Printf("%-24s  %-12s  %9.3f  %9.3f  %-11s  %s\n",
			br.PrototypeID+"/"+br.BranchID, br.Type, br.Threshold, br.MaxPossible, br.Status, edges)
	}

	fmt.Printf("\n%d branches, %d unreachable, %d with knife edges\n",
		len(results), unreachable, knifeEdged)
}

// #endregion output
