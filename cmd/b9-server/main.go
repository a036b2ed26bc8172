// Read-only HTTP API over the collected booking data.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jwclark94/backninescrape/internal/config"
	"github.com/jwclark94/backninescrape/internal/httpapi"
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

	srv := httpapi.NewServer(st, st, logger)

	httpServer := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: srv.Handler(),
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go func() {
		logger.Info("API server listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down API server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}
