package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/danielpatrickdp/activity-classifier/internal/ledger"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to the run ledger database")
	last := flag.Int("last", 20, "show N most recent runs")
	runID := flag.String("run", "", "show single run detail")
	jsonOut := flag.Bool("json", false, "output as JSON instead of table")
	flag.Parse()

	if *dbPath == "" {
		fmt.Fprintln(os.Stderr, "usage: inspect --db path/to/runs.db [--last N] [--run id] [--json]")
		os.Exit(2)
	}

	store, err := ledger.NewStore(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	if *runID != "" {
		err = runDetailMode(store, *runID, *jsonOut)
	} else {
		err = runListMode(store, *last, *jsonOut)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region list-mode

type listRow struct {
	RunID     string  `json:"run_id"`
	Status    string  `json:"status"`
	Accuracy  float64 `json:"accuracy"`
	Train     int     `json:"train_sessions"`
	Test      int     `json:"test_sessions"`
	DataPath  string  `json:"data_path"`
	CreatedAt string  `json:"created_at"`
}

func runListMode(store *ledger.Store, last int, jsonOut bool) error {
	runs, err := store.ListRuns(last)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(os.Stderr, "no runs found")
		return nil
	}

	// store returns newest first, print chronologically
	rows := make([]listRow, len(runs))
	for i, r := range runs {
		rows[len(runs)-1-i] = listRow{
			RunID:     r.RunID,
			Status:    r.Status,
			Accuracy:  r.Accuracy,
			Train:     len(r.TrainSessions),
			Test:      len(r.TestSessions),
			DataPath:  r.DataPath,
			CreatedAt: r.CreatedAt.Format("2006-01-02T15:04:05Z"),
		}
	}

	if jsonOut {
		return printJSON(rows)
	}

	fmt.Printf("%-10s  %-6s  %8s  %5s  %4s  %-20s  %s\n",
		"Run", "Status", "Accuracy", "Train", "Test", "Time", "Data")
	fmt.Printf("%-10s+-%-6s+-%8s+-%5s+-%4s+-%-20s+-%s\n",
		"----------", "------", "--------", "-----", "----", "--------------------", "----")
	for _, r := range rows {
		acc := "-"
		if r.Status == ledger.StatusOK {
			acc = fmt.Sprintf("%.4f", r.Accuracy)
		}
		fmt.Printf("%-10s  %-6s  %8s  %5d  %4d  %-20s  %s\n",
			shortID(r.RunID), r.Status, acc, r.Train, r.Test, r.CreatedAt, r.DataPath)
	}
	return nil
}

// #endregion list-mode

// #region detail-mode

type stageRow struct {
	Stage      string  `json:"stage"`
	Status     string  `json:"status"`
	DurationMS float64 `json:"duration_ms"`
	Detail     string  `json:"detail,omitempty"`
}

type detailOutput struct {
	RunID         string             `json:"run_id"`
	Status        string             `json:"status"`
	Error         string             `json:"error,omitempty"`
	CreatedAt     string             `json:"created_at"`
	DataPath      string             `json:"data_path"`
	Model         string             `json:"model,omitempty"`
	TrainSessions []string           `json:"train_sessions"`
	TestSessions  []string           `json:"test_sessions"`
	Metrics       map[string]float64 `json:"metrics,omitempty"`
	Config        json.RawMessage    `json:"config"`
	Stages        []stageRow         `json:"stages"`
}

func runDetailMode(store *ledger.Store, runID string, jsonOut bool) error {
	rec, err := store.GetRun(runID)
	if err != nil {
		return err
	}
	stages, err := store.StagesForRun(runID)
	if err != nil {
		return err
	}

	out := detailOutput{
		RunID:         rec.RunID,
		Status:        rec.Status,
		Error:         rec.Error,
		CreatedAt:     rec.CreatedAt.Format("2006-01-02T15:04:05Z"),
		DataPath:      rec.DataPath,
		Model:         rec.ModelSummary,
		TrainSessions: rec.TrainSessions,
		TestSessions:  rec.TestSessions,
		Config:        json.RawMessage(rec.ConfigJSON),
	}
	if rec.MetricsJSON != "" {
		if err := json.Unmarshal([]byte(rec.MetricsJSON), &out.Metrics); err != nil {
			return fmt.Errorf("decode metrics: %w", err)
		}
	}
	for _, s := range stages {
		out.Stages = append(out.Stages, stageRow{
			Stage:      s.Stage,
			Status:     s.Status,
			DurationMS: float64(s.Duration) / float64(time.Millisecond),
			Detail:     s.Detail,
		})
	}

	if jsonOut {
		return printJSON(out)
	}

	fmt.Printf("Run:     %s\n", out.RunID)
	fmt.Printf("Status:  %s\n", out.Status)
	if out.Error != "" {
		fmt.Printf("Error:   %s\n", out.Error)
	}
	fmt.Printf("Created: %s\n", out.CreatedAt)
	fmt.Printf("Data:    %s\n", out.DataPath)
	fmt.Printf("Model:   %s\n", out.Model)
	fmt.Printf("Train:   %s\n", strings.Join(out.TrainSessions, ","))
	fmt.Printf("Test:    %s\n", strings.Join(out.TestSessions, ","))

	if len(out.Metrics) > 0 {
		fmt.Printf("\nMetrics:\n")
		for _, name := range sortedKeys(out.Metrics) {
			fmt.Printf("  %-24s %.4f\n", name, out.Metrics[name])
		}
	}

	fmt.Printf("\nStages:\n")
	for _, s := range out.Stages {
		fmt.Printf("  %-10s %-6s %10.2fms  %s\n", s.Stage, s.Status, s.DurationMS, s.Detail)
	}
	return nil
}

// #endregion detail-mode

// #region output

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

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
