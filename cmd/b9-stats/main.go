// One-shot tool: summarize the daily-max history into per-location
// overall and per-weekday averages, written as a CSV table.
//
// Usage:
//
//	go run cmd/b9-stats/main.go [output.csv]
package main

import (
	"context"
	"log"
	"os"
	"path/filepath"

	"github.com/jwclark94/backninescrape/internal/config"
	"github.com/jwclark94/backninescrape/internal/stats"
	"github.com/jwclark94/backninescrape/internal/store"
	"github.com/jwclark94/backninescrape/internal/util"
)

func main() {
	cfgPath := "config/backninescrape.yaml"
	if p := os.Getenv("B9SCRAPE_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		if os.IsNotExist(err) && os.Getenv("B9SCRAPE_CONFIG") == "" {
			cfg = config.Default()
		} else {
			log.Fatalf("loading config: %v", err)
		}
	}

	logger := util.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	util.SetDefault(logger)

	st, err := store.Open(cfg.Storage.Backend, cfg.Storage.DataDir,
		cfg.Storage.RawCSV, cfg.Storage.DailyMaxCSV, cfg.Storage.SQLitePath)
	if err != nil {
		log.Fatalf("opening store: %v", err)
	}
	defer st.Close()

	records, err := st.List(context.Background())
	if err != nil {
		log.Fatalf("listing daily maxes: %v", err)
	}
	if len(records) == 0 {
		logger.Info("no daily-max records; nothing to summarize")
		return
	}

	outPath := filepath.Join(cfg.Storage.DataDir, "location_stats.csv")
	if len(os.Args) > 1 {
		outPath = os.Args[1]
	}

	summary := stats.Summarize(records)
	if err := stats.WriteCSV(outPath, summary); err != nil {
		log.Fatalf("writing stats: %v", err)
	}

	logger.Info("stats written", "path", outPath, "locations", len(summary), "records", len(records))
}
