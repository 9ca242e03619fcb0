package main

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	auditbun "github.com/HMC-Makerspace/BLUEPRINT/adapters/audit/bun"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "blueprint",
		Short: "Operator tools for the large format print station",
		Long: `Blueprint bundles operator commands for the makerspace print station.

It reads the same audit database the kiosk writes, so the history and
report commands work against a live station. The print command submits
a one-shot job through the full authorize/log/render/spool sequence
without the kiosk UI.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
		},
	}

	// Add subcommands
	cmd.AddCommand(newHistoryCmd())
	cmd.AddCommand(newReportCmd())
	cmd.AddCommand(newStatsCmd())
	cmd.AddCommand(newPrintCmd())

	return cmd
}

// openAuditLog opens the sqlite audit database the kiosk maintains. The
// caller owns the returned DB handle and must close it.
func openAuditLog(ctx context.Context, path string) (*auditbun.AuditLog, *bun.DB, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, path)
	if err != nil {
		return nil, nil, fmt.Errorf("open audit database: %w", err)
	}
	db := bun.NewDB(sqldb, sqlitedialect.New())
	audit := auditbun.NewAuditLog(db)
	if err := audit.Init(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("init audit database: %w", err)
	}
	return audit, db, nil
}

// parseTimeFlag accepts unix seconds or RFC3339.
func parseTimeFlag(raw string) (time.Time, error) {
	if ts, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return time.Unix(ts, 0).UTC(), nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q (want unix seconds or RFC3339)", raw)
}
