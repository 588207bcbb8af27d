package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/danielpatrickdp/activity-classifier/internal/config"
	"github.com/danielpatrickdp/activity-classifier/internal/ledger"
	"github.com/danielpatrickdp/activity-classifier/internal/pipeline"
	"github.com/danielpatrickdp/activity-classifier/internal/toolkit"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to the run ledger database")
	runID := flag.String("run", "", "replay a single run")
	last := flag.Int("last", 5, "replay the N most recent successful runs when --run is not set")
	tol := flag.Float64("tol", 1e-9, "accepted accuracy difference")
	flag.Parse()

	if *dbPath == "" {
		fmt.Fprintln(os.Stderr, "usage: replay --db path/to/runs.db [--run id | --last N] [--tol x]")
		os.Exit(2)
	}
	os.Exit(runReplay(*dbPath, *runID, *last, *tol))
}

// #endregion main

// #region replay

func runReplay(dbPath, runID string, last int, tol float64) int {
	store, err := ledger.NewStore(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		return 2
	}
	defer store.Close()

	var runs []ledger.RunRecord
	if runID != "" {
		rec, err := store.GetRun(runID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "get run: %v\n", err)
			return 2
		}
		runs = append(runs, rec)
	} else {
		recent, err := store.ListRuns(last)
		if err != nil {
			fmt.Fprintf(os.Stderr, "list runs: %v\n", err)
			return 2
		}
		for _, r := range recent {
			if r.Status == ledger.StatusOK {
				runs = append(runs, r)
			}
		}
	}
	if len(runs) == 0 {
		fmt.Fprintln(os.Stderr, "no successful runs found in ledger")
		return 2
	}

	// replays are not written back to the ledger
	tk := toolkit.NewLocal()
	comparisons := make([]pipeline.Comparison, 0, len(runs))
	for _, rec := range runs {
		if rec.Status != ledger.StatusOK {
			fmt.Fprintf(os.Stderr, "run %s did not succeed, nothing to compare\n", rec.RunID)
			return 2
		}
		cfg, err := pipeline.ConfigFromRun(rec)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			return 2
		}
		if cfg.Toolkit != config.ToolkitLocal {
			fmt.Fprintf(os.Stderr, "run %s used the %s toolkit, only local runs can be replayed\n", rec.RunID, cfg.Toolkit)
			return 2
		}
		res, err := pipeline.Run(context.Background(), cfg, tk, nil)
		if err != nil {
			fmt.Fprintf(os.Stderr, "replay %s: %v\n", rec.RunID, err)
			return 2
		}
		comparisons = append(comparisons, pipeline.Compare(rec, res))
	}
	return printComparison(comparisons, tol)
}

// #endregion replay

// #region output

// printComparison outputs a comparison table and returns the exit code.
func printComparison(cmps []pipeline.Comparison, tol float64) int {
	fmt.Printf("%-10s| %-9s| %-9s| %-10s| %-6s| %s\n", "Run", "Recorded", "Replayed", "Delta", "Split", "Match")
	fmt.Printf("%-10s+%-10s+%-10s+%-11s+%-7s+%s\n",
		"----------", "----------", "----------", "-----------", "-------", "------")

	matches := 0
	for _, c := range cmps {
		split := "same"
		if !c.SameSplit {
			split = "diff"
		}
		match := "DIFF"
		if c.Match(tol) {
			match = "OK"
			matches++
		}
		id := c.RunID
		if len(id) > 8 {
			id = id[:8]
		}
		fmt.Printf("%-10s| %-9.4f| %-9.4f| %+-10.4f| %-6s| %s\n",
			id, c.RecordedAccuracy, c.ReplayAccuracy, c.AccuracyDelta, split, match)
	}

	diverge := len(cmps) - matches
	fmt.Printf("\nSummary: %d total, %d match, %d diverge\n", len(cmps), matches, diverge)
	if diverge > 0 {
		return 1
	}
	return 0
}

// #endregion output
