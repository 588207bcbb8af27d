package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/danielpatrickdp/activity-classifier/internal/config"
	"github.com/danielpatrickdp/activity-classifier/internal/ledger"
	"github.com/danielpatrickdp/activity-classifier/internal/pipeline"
	"github.com/danielpatrickdp/activity-classifier/internal/remote"
	"github.com/danielpatrickdp/activity-classifier/internal/toolkit"
)

// #region main
func main() {
	cfgPath := flag.String("config", "", "optional YAML config file")
	flag.Parse()

	if err := run(*cfgPath); err != nil {
		log.Printf("activity-classifier: %v", err)
		os.Exit(1)
	}
}

func run(cfgPath string) error {
	cfg := config.DefaultConfig()
	if cfgPath != "" {
		loaded, err := config.LoadFile(cfgPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if err := cfg.ApplyEnv(); err != nil {
		return err
	}

	tk, closeTK, err := newToolkit(cfg)
	if err != nil {
		return err
	}
	defer closeTK()

	var rec pipeline.Recorder
	if cfg.LedgerPath != "" {
		store, err := ledger.NewStore(cfg.LedgerPath)
		if err != nil {
			return fmt.Errorf("open ledger: %w", err)
		}
		defer store.Close()
		rec = store
	}

	res, err := pipeline.Run(context.Background(), cfg, tk, rec)
	if err != nil {
		return err
	}

	fmt.Printf("run %s: %d train / %d test sessions\n", res.RunID, len(res.TrainSessions), len(res.TestSessions))
	fmt.Println(res.ModelSummary)
	for _, m := range res.Metrics.List() {
		fmt.Printf("  %-24s %.4f\n", m.Name, m.Value)
	}
	return nil
}

// #endregion main

// #region toolkit
func newToolkit(cfg config.Config) (toolkit.Toolkit, func(), error) {
	if cfg.Toolkit != config.ToolkitRemote {
		return toolkit.NewLocal(), func() {}, nil
	}
	c, err := remote.NewClient(cfg.RemoteAddr, cfg.RemoteTimeout)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to toolkit service at %s: %w", cfg.RemoteAddr, err)
	}
	return c, func() { c.Close() }, nil
}

// #endregion toolkit
