package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/danielpatrickdp/prototype-diagnostics/internal/config"
	"github.com/danielpatrickdp/prototype-diagnostics/internal/conflict"
	"github.com/danielpatrickdp/prototype-diagnostics/internal/prototype"
)

// #region main

func main() {
	catalogPath := flag.String("catalog", "", "path to prototype catalog YAML")
	jsonOut := flag.Bool("json", false, "output as JSON instead of table")
	strict := flag.Bool("strict", false, "exit 1 when any prototype is flagged")
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
		fmt.Fprintln(os.Stderr, "usage: conflictscan --catalog path/to/prototypes.yaml [--json] [--strict]")
		os.Exit(2)
	}

	if err := run(*catalogPath, cfg, *jsonOut, *strict); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region run

func run(catalogPath string, cfg config.Config, jsonOut, strict bool) error {
	catalog, err := prototype.LoadCatalog(catalogPath)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}

	detector := conflict.NewDetector(cfg.ConflictConfig())
	result := detector.Detect(catalog.Snapshot())

	if jsonOut {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal result: %w", err)
		}
		fmt.Println(string(data))
	} else {
		printResult(result)
	}

	flagged := len(result.HighAxisLoadings) + len(result.SignTensions)
	if strict && flagged > 0 {
		os.Exit(1)
	}
	return nil
}

// #endregion run

// #region output

func printResult(result conflict.Result) {
	if len(result.HighAxisLoadings) == 0 && len(result.SignTensions) == 0 {
		fmt.Println("no structural conflicts detected")
		return
	}

	if len(result.HighAxisLoadings) > 0 {
		fmt.Printf("High axis loading (%d):\n", len(result.HighAxisLoadings))
		for _, h := range result.HighAxisLoadings {
			fmt.Printf("  %-20s  active=%d strong=%d balance=%.2f\n",
				h.PrototypeID, h.ActiveAxisCount, h.StrongAxisCount, h.SignBalance)
			if len(h.StrongAxes) > 0 {
				fmt.Printf("    strong axes: %s\n", strings.Join(h.StrongAxes, ", "))
			}
		}
	}

	if len(result.SignTensions) > 0 {
		fmt.Printf("Sign tension (%d):\n", len(result.SignTensions))
		for _, st := range result.SignTensions {
			fmt.Printf("  %-20s  +[%s] vs -[%s] balance=%.2f\n",
				st.PrototypeID,
				strings.Join(st.HighMagnitudePositive, ", "),
				strings.Join(st.HighMagnitudeNegative, ", "),
				st.SignBalance)
		}
	}
}

// #endregion output
