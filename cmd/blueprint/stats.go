package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	metricsbun "github.com/HMC-Makerspace/BLUEPRINT/adapters/metrics/bun"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func newStatsCmd() *cobra.Command {
	var (
		dbPath string
		since  string
	)

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarize render metrics",
		Long: `Summarizes the render metrics the kiosk records when metrics.enabled
is set: one row per event name with counts, bytes moved, and average
duration. render.cache_hit against render.completed gives the preview
cache hit rate.`,
		Example: `  # Everything the station has recorded
  blueprint stats

  # Just this week
  blueprint stats --since 2026-08-17T00:00:00Z`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var cutoff time.Time
			if since != "" {
				t, err := parseTimeFlag(since)
				if err != nil {
					return err
				}
				cutoff = t
			}

			tracker, db, err := openMetrics(ctx, dbPath)
			if err != nil {
				return err
			}
			defer db.Close()

			summaries, err := tracker.Summary(ctx, cutoff)
			if err != nil {
				return err
			}
			if len(summaries) == 0 {
				fmt.Println("no metrics recorded")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "EVENT\tCOUNT\tBYTES\tAVG MS")
			var hits, renders int64
			for _, s := range summaries {
				fmt.Fprintf(w, "%s\t%d\t%d\t%.1f\n", s.Name, s.Count, s.Bytes, s.AvgDurationMS)
				switch s.Name {
				case "render.cache_hit":
					hits = s.Count
				case "render.completed":
					renders = s.Count
				}
			}
			if err := w.Flush(); err != nil {
				return err
			}

			if total := hits + renders; total > 0 {
				fmt.Printf("\ncache hit rate: %.0f%% (%d of %d previews)\n",
					float64(hits)/float64(total)*100, hits, total)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "blueprint.db", "Path to the station sqlite database")
	cmd.Flags().StringVar(&since, "since", "", "Only events at or after this time (unix seconds or RFC3339)")

	return cmd
}

// openMetrics opens the metrics tracker on the station database. The caller
// owns the returned DB handle and must close it.
func openMetrics(ctx context.Context, path string) (*metricsbun.Tracker, *bun.DB, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, path)
	if err != nil {
		return nil, nil, fmt.Errorf("open station database: %w", err)
	}
	db := bun.NewDB(sqldb, sqlitedialect.New())
	tracker := metricsbun.NewTracker(db)
	if err := tracker.Init(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("init metrics table: %w", err)
	}
	return tracker, db, nil
}
