// Long-running collector daemon: runs the collection cycle on a cron
// schedule. The per-location time gate decides which locations each
// cycle actually samples, so the cron expression can fire often.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/jwclark94/backninescrape/internal/b9api"
	"github.com/jwclark94/backninescrape/internal/collect"
	"github.com/jwclark94/backninescrape/internal/config"
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

	var archive store.EventArchive
	if cfg.Storage.ArchiveEvents {
		archive = store.NewParquetArchive(cfg.Storage.DataDir)
	}

	client := b9api.NewClient(cfg.Source.BaseURL, cfg.Source.Timeout())
	collector := collect.New(client, st, st, archive, cfg.Collect)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	c := cron.New()
	_, err = c.AddFunc(cfg.Schedule.Cron, func() {
		report, err := collector.Run(ctx, time.Now())
		if err != nil {
			logger.Error("run failed", "error", err)
			return
		}
		logger.Info("run finished",
			"succeeded", report.Succeeded(),
			"failed", report.Failed(),
			"skipped", report.Skipped,
			"elapsed", report.Elapsed)
	})
	if err != nil {
		log.Fatalf("invalid cron expression %q: %v", cfg.Schedule.Cron, err)
	}

	logger.Info("daemon started", "cron", cfg.Schedule.Cron)
	c.Start()

	<-ctx.Done()
	logger.Info("shutting down daemon")

	// Wait for an in-flight run to finish before exiting.
	stopCtx := c.Stop()
	select {
	case <-stopCtx.Done():
	case <-time.After(30 * time.Second):
		logger.Warn("timed out waiting for running job")
	}
}
