// One-shot collector: samples total booked hours for every location and
// folds the results into the observation log and daily-max table.
//
// Usage:
//
//	go run cmd/b9-collect/main.go
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jwclark94/backninescrape/internal/b9api"
	"github.com/jwclark94/backninescrape/internal/collect"
	"github.com/jwclark94/backninescrape/internal/config"
	"github.com/jwclark94/backninescrape/internal/store"
	"github.com/jwclark94/backninescrape/internal/util"
)

func main() {
	cfg := loadConfig()

	logger := util.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	util.SetDefault(logger)

	st, err := store.Open(cfg.Storage.Backend, cfg.Storage.DataDir,
		cfg.Storage.RawCSV, cfg.Storage.DailyMaxCSV, cfg.Storage.SQLitePath)
	if err != nil {
		log.Fatalf("opening store: %v", err)
	}
	defer st.Close()

	var archive store.EventArchive
	if cfg.Storage.ArchiveEvents {
		archive = store.NewParquetArchive(cfg.Storage.DataDir)
	}

	client := b9api.NewClient(cfg.Source.BaseURL, cfg.Source.Timeout())
	collector := collect.New(client, st, st, archive, cfg.Collect)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	report, err := collector.Run(ctx, time.Now())
	if err != nil {
		log.Fatalf("run failed: %v", err)
	}

	logger.Info("run finished",
		"succeeded", report.Succeeded(),
		"failed", report.Failed(),
		"skipped", report.Skipped,
		"elapsed", report.Elapsed)

	// Partial failure is normal (a location may be down); exit non-zero
	// only when nothing was collected at all.
	if report.Succeeded() == 0 && report.Failed() > 0 {
		os.Exit(1)
	}
}

func loadConfig() *config.Config {
	cfgPath := "config/backninescrape.yaml"
	if p := os.Getenv("B9SCRAPE_CONFIG"); p != "" {
		cfgPath = p
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		if os.IsNotExist(err) && os.Getenv("B9SCRAPE_CONFIG") == "" {
			return config.Default()
		}
		log.Fatalf("loading config: %v", err)
	}
	return cfg
}
