package main

import (
	"fmt"
	"os"

	auditbun "github.com/HMC-Makerspace/BLUEPRINT/adapters/audit/bun"
	reportsqlite "github.com/HMC-Makerspace/BLUEPRINT/adapters/sqlite"
	"github.com/HMC-Makerspace/BLUEPRINT/blueprint"
	"github.com/spf13/cobra"
)

func newReportCmd() *cobra.Command {
	var (
		dbPath string
		format string
		out    string
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Export the audit log as a usage report",
		Long: `Exports the print audit log to a report file.

Formats: csv, json, xlsx, sqlite. Records are ordered newest first,
matching the kiosk history view. The sqlite format writes a standalone
database staff tooling can query directly.`,
		Example: `  # CSV next to the database
  blueprint report

  # Spreadsheet for the budget meeting
  blueprint report --format xlsx --out usage-2026.xlsx

  # Queryable snapshot of the log
  blueprint report --format sqlite --out usage.sqlite`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			renderers := blueprint.NewReportRegistry()
			_ = renderers.Register(reportsqlite.Format, reportsqlite.Renderer{})

			renderer, err := renderers.RendererFor(blueprint.ReportFormat(format))
			if err != nil {
				return err
			}
			if out == "" {
				out = "print-audit." + renderer.Ext()
			}

			audit, db, err := openAuditLog(ctx, dbPath)
			if err != nil {
				return err
			}
			defer db.Close()

			records, err := audit.ListRange(ctx, auditbun.Filter{})
			if err != nil {
				return err
			}

			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("create report file: %w", err)
			}
			stats, err := renderer.Render(ctx, records, f)
			if cerr := f.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				return err
			}

			fmt.Printf("wrote %d record(s), %d bytes to %s\n", stats.Rows, stats.Bytes, out)
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "blueprint.db", "Path to the audit sqlite database")
	cmd.Flags().StringVarP(&format, "format", "f", "csv", "Report format: csv, json, xlsx, or sqlite")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (default print-audit.<ext>)")

	return cmd
}
