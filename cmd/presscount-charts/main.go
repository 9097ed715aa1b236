// One-shot tool: download the daily article-count CSV, fill gaps in every
// newspaper's series and write the two interactive HTML charts.
//
// Usage:
//
//	go run cmd/presscount-charts/main.go
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"presscount/internal/config"
	"presscount/internal/pipeline"
	"presscount/internal/publish"
	"presscount/internal/store"
	"presscount/internal/util"
)

func main() {
	cfgPath := "config/presscount.yaml"
	if p := os.Getenv("PRESSCOUNT_CONFIG"); p != "" {
		cfgPath = p
	}

	cfg, err := config.LoadOrDefault(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := util.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	util.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	deps := pipeline.Deps{Logger: logger}
	var ledger *store.SQLiteStore

	if cfg.Storage.DataDir != "" {
		deps.Series = store.NewParquetStore(cfg.Storage.DataDir)
	}
	if cfg.Storage.SQLitePath != "" {
		ledger, err = store.NewSQLiteStore(cfg.Storage.SQLitePath)
		if err != nil {
			log.Fatalf("failed to open run ledger: %v", err)
		}
		defer ledger.Close()
		deps.Runs = ledger
	}
	if cfg.Publish.Bucket != "" {
		uploader, err := publish.NewUploader(ctx, publish.Config{
			Bucket:          cfg.Publish.Bucket,
			Prefix:          cfg.Publish.Prefix,
			Region:          cfg.Publish.Region,
			Endpoint:        cfg.Publish.Endpoint,
			AccessKeyID:     cfg.Publish.AccessKeyID,
			SecretAccessKey: cfg.Publish.SecretAccessKey,
			UsePathStyle:    cfg.Publish.UsePathStyle,
		})
		if err != nil {
			log.Fatalf("failed to create uploader: %v", err)
		}
		deps.Uploader = uploader
	}

	p := pipeline.New(cfg, deps)
	slog.Info("starting", "pipeline", p.Name(), "boundary", cfg.Interpolation.Boundary)

	rep, err := p.Run(ctx)
	if err != nil {
		// log.Fatalf skips deferred calls; close the ledger first.
		if ledger != nil {
			ledger.Close()
		}
		log.Fatalf("error: %v", err)
	}

	for _, path := range rep.Outputs {
		fmt.Printf("✅ Chart saved to %s\n", path)
	}
}
