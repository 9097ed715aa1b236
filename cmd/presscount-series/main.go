// One-shot tool: print a stored series snapshot as CSV, or the recent run
// ledger.
//
// Usage:
//
//	go run cmd/presscount-series/main.go [-day 2024-06-30 | -file path.parquet] [-series name]
//	go run cmd/presscount-series/main.go -runs [-n 20]
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"presscount/internal/config"
	"presscount/internal/domain"
	"presscount/internal/store"
	"presscount/internal/util"
)

func main() {
	day := flag.String("day", "", "last day of the snapshot to print (YYYY-MM-DD, default: latest)")
	file := flag.String("file", "", "read this parquet snapshot instead of one under the data dir")
	only := flag.String("series", "", "print only this series")
	showRuns := flag.Bool("runs", false, "print the run ledger instead of a snapshot")
	n := flag.Int("n", 20, "number of runs to print with -runs")
	flag.Parse()

	cfgPath := "config/presscount.yaml"
	if p := os.Getenv("PRESSCOUNT_CONFIG"); p != "" {
		cfgPath = p
	}

	cfg, err := config.LoadOrDefault(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	ctx := context.Background()

	if *showRuns {
		if cfg.Storage.SQLitePath == "" {
			log.Fatalf("storage.sqlite_path is not configured")
		}
		runs, err := store.NewSQLiteStore(cfg.Storage.SQLitePath)
		if err != nil {
			log.Fatalf("failed to open run ledger: %v", err)
		}
		defer runs.Close()

		list, err := runs.ListRuns(ctx, *n)
		if err != nil {
			log.Fatalf("listing runs: %v", err)
		}
		printRuns(list)
		return
	}

	series, err := loadSnapshot(ctx, cfg, *day, *file)
	if err != nil {
		log.Fatalf("error: %v", err)
	}
	if err := writeCSV(series, *only); err != nil {
		log.Fatalf("error: %v", err)
	}
}

func loadSnapshot(ctx context.Context, cfg *config.Config, day, file string) ([]domain.DailySeries, error) {
	if file != "" {
		return store.ReadSeriesFile(file)
	}
	if cfg.Storage.DataDir == "" {
		return nil, fmt.Errorf("storage.data_dir is not configured")
	}
	ps := store.NewParquetStore(cfg.Storage.DataDir)

	if day == "" {
		days, err := ps.ListSnapshots(ctx)
		if err != nil {
			return nil, err
		}
		if len(days) == 0 {
			return nil, fmt.Errorf("no snapshots under %s", cfg.Storage.DataDir)
		}
		return ps.ReadSeries(ctx, days[len(days)-1])
	}

	last, err := time.Parse(util.DateLayout, day)
	if err != nil {
		return nil, fmt.Errorf("invalid -day %q: %w", day, err)
	}
	return ps.ReadSeries(ctx, last)
}

func writeCSV(series []domain.DailySeries, only string) error {
	w := csv.NewWriter(os.Stdout)
	if err := w.Write([]string{"Date", "Newspaper", "ArticleCount", "Observed"}); err != nil {
		return err
	}
	for _, s := range series {
		if only != "" && !strings.EqualFold(s.Name, only) {
			continue
		}
		for _, p := range s.Points {
			rec := []string{
				p.Day.Format(util.DateLayout),
				s.Name,
				strconv.FormatFloat(p.Value, 'f', -1, 64),
				strconv.FormatBool(p.Observed),
			}
			if err := w.Write(rec); err != nil {
				return err
			}
		}
	}
	w.Flush()
	return w.Error()
}

func printRuns(runs []store.Run) {
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTARTED\tSTATUS\tROWS\tPAPERS\tRANGE\tFILLED\tERROR")
	for _, r := range runs {
		rng := "-"
		if !r.FirstDay.IsZero() {
			rng = r.FirstDay.Format(util.DateLayout) + ".." + r.LastDay.Format(util.DateLayout)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\t%d\t%s\n",
			shortID(r.ID), r.StartedAt.Local().Format("2006-01-02 15:04:05"), r.Status,
			r.Observations, r.Groups, rng, r.Synthesized, r.Error)
	}
	tw.Flush()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
