package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/danielpatrickdp/activity-classifier/internal/dataset"
	"github.com/danielpatrickdp/activity-classifier/internal/synth"
)

// #region main

func main() {
	def := synth.DefaultConfig()
	outPath := flag.String("out", "activity_data.csv.gz", "output path (.csv, .csv.gz or .csv.xz)")
	sessions := flag.Int("sessions", def.Sessions, "number of sessions")
	rows := flag.Int("rows", def.RowsPerSession, "rows per session")
	labels := flag.String("labels", strings.Join(def.Labels, ","), "comma-separated activity labels")
	sensors := flag.Int("sensors", def.Sensors, "number of sensor columns")
	noise := flag.Float64("noise", def.Noise, "std-dev of reading noise")
	seed := flag.Int64("seed", def.Seed, "generator seed")
	flag.Parse()

	cfg := def
	cfg.Sessions = *sessions
	cfg.RowsPerSession = *rows
	cfg.Labels = splitList(*labels)
	cfg.Sensors = *sensors
	cfg.Noise = *noise
	cfg.Seed = *seed

	if err := run(cfg, *outPath); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region generate

func run(cfg synth.Config, outPath string) error {
	t, err := synth.Generate(cfg)
	if err != nil {
		return err
	}
	if err := dataset.Write(outPath, t); err != nil {
		return err
	}
	fmt.Printf("wrote %d rows, %d sessions, columns %s to %s\n",
		t.Len(), cfg.Sessions, strings.Join(t.Columns, ","), outPath)
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// #endregion generate
