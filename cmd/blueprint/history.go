package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	auditbun "github.com/HMC-Makerspace/BLUEPRINT/adapters/audit/bun"
	"github.com/HMC-Makerspace/BLUEPRINT/blueprint"
	"github.com/spf13/cobra"
)

func newHistoryCmd() *cobra.Command {
	var (
		dbPath string
		token  string
		since  string
		until  string
		count  int
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List print audit records",
		Long: `Lists records from the print audit log, newest first.

The log is append-only; every authorized print lands here with the
badge token, the resolved identity, and the exact options used.`,
		Example: `  # Last ten prints
  blueprint history --count 10

  # Everything one badge holder printed this semester
  blueprint history --token 54321 --since 2026-01-20T00:00:00Z`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			filter := auditbun.Filter{}
			if token != "" {
				id, err := blueprint.ParseIdentityToken(token)
				if err != nil {
					return err
				}
				filter.Token = id
			}
			if since != "" {
				t, err := parseTimeFlag(since)
				if err != nil {
					return err
				}
				filter.Since = t
			}
			if until != "" {
				t, err := parseTimeFlag(until)
				if err != nil {
					return err
				}
				filter.Until = t
			}

			audit, db, err := openAuditLog(ctx, dbPath)
			if err != nil {
				return err
			}
			defer db.Close()

			records, err := audit.ListRange(ctx, filter)
			if err != nil {
				return err
			}
			if count > 0 && len(records) > count {
				records = records[:count]
			}

			if len(records) == 0 {
				fmt.Println("no records")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "TIMESTAMP\tTOKEN\tNAME\tPAPER\tSIDE\tSIZING")
			for _, r := range records {
				name := r.Identity.Name
				if name == "" {
					name = "-"
				}
				fmt.Fprintf(w, "%s\t%d\t%s\t%d\t%s\t%s\n",
					r.Timestamp.UTC().Format(time.RFC3339), r.Token, name,
					r.Options.PaperWidth, r.Options.Side, r.Options.SizingMode)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Printf("\n%d record(s)\n", len(records))
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "blueprint.db", "Path to the audit sqlite database")
	cmd.Flags().StringVar(&token, "token", "", "Only records for this badge token")
	cmd.Flags().StringVar(&since, "since", "", "Only records at or after this time (unix seconds or RFC3339)")
	cmd.Flags().StringVar(&until, "until", "", "Only records at or before this time (unix seconds or RFC3339)")
	cmd.Flags().IntVarP(&count, "count", "n", 0, "Limit output to the newest N records")

	return cmd
}
