package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/danielpatrickdp/prototype-diagnostics/internal/report"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to protodiag.db")
	last := flag.Int("last", 20, "show N most recent runs")
	runID := flag.String("run", "", "show reports for a single run")
	clusters := flag.Bool("clusters", false, "show overlap clusters instead of runs")
	metric := flag.String("metric", "on_both", "edge metric for --clusters")
	minWeight := flag.Float64("min-weight", 0.5, "minimum edge weight for --clusters")
	jsonOut := flag.Bool("json", false, "output as JSON instead of table")
	flag.Parse()

	if *dbPath == "" {
		fmt.Fprintln(os.Stderr, "usage: inspect --db path/to/protodiag.db [--last N] [--run id] [--clusters [--metric m] [--min-weight w]] [--json]")
		os.Exit(2)
	}

	store, err := report.NewStore(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	switch {
	case *clusters:
		err = runClusterMode(store, *metric, *minWeight, *jsonOut)
	case *runID != "":
		err = runDetailMode(store, *runID, *jsonOut)
	default:
		err = runListMode(store, *last, *jsonOut)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region list-mode

type runRow struct {
	RunID       string `json:"run_id"`
	Tool        string `json:"tool"`
	CatalogHash string `json:"catalog_hash,omitempty"`
	CreatedAt   string `json:"created_at"`
}

func runListMode(store *report.Store, last int, jsonOut bool) error {
	runs, err := store.ListRuns(last)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(os.Stderr, "no runs found")
		return nil
	}

	rows := make([]runRow, len(runs))
	for i, r := range runs {
		rows[i] = runRow{
			RunID:       r.RunID,
			Tool:        r.Tool,
			CatalogHash: shortID(r.CatalogHash),
			CreatedAt:   r.CreatedAt.Format("2006-01-02T15:04:05Z"),
		}
	}

	if jsonOut {
		return printJSON(rows)
	}

	fmt.Printf("%-36s  %-12s  %-8s  %s\n", "Run", "Tool", "Catalog", "Time")
	fmt.Printf("%-36s+-%-12s+-%-8s+-%s\n",
		strings.Repeat("-", 36), "------------", "--------", "--------------------")
	for _, r := range rows {
		hash := r.CatalogHash
		if hash == "" {
			hash = "-"
		}
		fmt.Printf("%-36s  %-12s  %-8s  %s\n", r.RunID, r.Tool, hash, r.CreatedAt)
	}
	return nil
}

// #endregion list-mode

// #region detail-mode

func runDetailMode(store *report.Store, runID string, jsonOut bool) error {
	reports, err := store.ListReachability(runID)
	if err != nil {
		return err
	}
	if len(reports) == 0 {
		fmt.Fprintf(os.Stderr, "no reports for run %s\n", runID)
		return nil
	}

	if jsonOut {
		return printJSON(reports)
	}
	for _, br := range reports {
		fmt.Println(br.Summary())
	}
	return nil
}

// #endregion detail-mode

// #region cluster-mode

func runClusterMode(store *report.Store, metric string, minWeight float64, jsonOut bool) error {
	clusters, err := store.Clusters(metric, minWeight)
	if err != nil {
		return err
	}
	if len(clusters) == 0 {
		fmt.Fprintf(os.Stderr, "no clusters for metric %s at weight >= %.2f\n", metric, minWeight)
		return nil
	}

	if jsonOut {
		return printJSON(clusters)
	}
	for i, c := range clusters {
		fmt.Printf("cluster %d (%d members): %s\n", i+1, len(c), strings.Join(c, ", "))
	}
	return nil
}

// #endregion cluster-mode

// #region output

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// #endregion output
