package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/HMC-Makerspace/BLUEPRINT/adapters/identity"
	"github.com/HMC-Makerspace/BLUEPRINT/adapters/pdfinfo"
	"github.com/HMC-Makerspace/BLUEPRINT/adapters/printer"
	"github.com/HMC-Makerspace/BLUEPRINT/adapters/renderapi"
	storefs "github.com/HMC-Makerspace/BLUEPRINT/adapters/store/fs"
	"github.com/HMC-Makerspace/BLUEPRINT/blueprint"
	sourcefs "github.com/HMC-Makerspace/BLUEPRINT/sources/fs"
	"github.com/spf13/cobra"
)

func newPrintCmd() *cobra.Command {
	var (
		filePath    string
		token       string
		renderURL   string
		identityURL string
		apiKey      string
		dbPath      string
		spoolDir    string
		side        string
		sizing      string
		paperWidth  int
		widthIn     float64
		heightIn    float64
		dpi         float64
		timeout     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "print",
		Short: "Submit a one-shot print without the kiosk",
		Long: `Loads a file, renders it at print fidelity, and spools the artifact.

The print is authorized and audited exactly like a kiosk submission:
the badge token is verified (remotely when --identity-url is set), the
audit record is appended before rendering, and the artifact lands in
the spool directory.`,
		Example: `  # Print a poster across the 36 inch roll
  blueprint print --file poster.pdf --token 54321

  # Landscape on the 44 inch roll at 600 dpi
  blueprint print --file plot.png --token 54321 --paper-width 44 --side short --sizing specificDpi --dpi 600`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}

			source, err := sourcefs.NewProvider(filePath).Load(ctx)
			if err != nil {
				return err
			}

			audit, db, err := openAuditLog(ctx, dbPath)
			if err != nil {
				return err
			}
			defer db.Close()

			renderer := renderapi.New(renderURL)
			renderer.Client = &http.Client{Timeout: 60 * time.Second}

			store := storefs.NewStore(spoolDir)

			authorizer := &blueprint.Authorizer{Mode: blueprint.AuthorizationLocal}
			if identityURL != "" {
				verifier := identity.New(identityURL)
				verifier.APIKey = apiKey
				authorizer = &blueprint.Authorizer{
					Mode:     blueprint.AuthorizationRemote,
					Verifier: verifier,
				}
			}

			panel := blueprint.DefaultPanelState()
			if side != "" {
				panel.Side = blueprint.Side(side)
			}
			if sizing != "" {
				panel.SizingMode = blueprint.SizingMode(sizing)
			}
			if paperWidth > 0 {
				panel.PaperWidth = paperWidth
			}
			panel.WidthInches = widthIn
			panel.HeightInches = heightIn
			if dpi > 0 {
				panel.DPI = dpi
			}
			opts := blueprint.BuildOptions(panel)

			svc, err := blueprint.NewService(blueprint.ServiceConfig{
				Renderer:   renderer,
				Authorizer: authorizer,
				Audit:      audit,
				Printer:    printer.NewSpoolPrinter(renderer, store),
				Inspector:  pdfinfo.New(),
			})
			if err != nil {
				return err
			}

			info, err := svc.LoadFile(ctx, source)
			if err != nil {
				return err
			}
			fmt.Printf("loaded %s (%s, %d bytes)\n", info.Name, info.ContentType, info.Bytes)

			record, err := svc.Print(ctx, token, &opts)
			if err != nil {
				if !record.Timestamp.IsZero() {
					// The audit entry is committed even when a later step
					// fails, so point the operator at it.
					fmt.Printf("audit record %d was appended before the failure\n", record.TimestampKey())
				}
				return err
			}

			fmt.Printf("printed for token %d at %s\n", record.Token, record.Timestamp.UTC().Format(time.RFC3339))
			fmt.Printf("options: paper=%d side=%s sizing=%s\n",
				record.Options.PaperWidth, record.Options.Side, record.Options.SizingMode)
			return nil
		},
	}

	cmd.Flags().StringVar(&filePath, "file", "", "Source file to print (required)")
	cmd.Flags().StringVar(&token, "token", "", "Badge token of the person printing (required)")
	cmd.Flags().StringVar(&renderURL, "render-url", "http://localhost:8701", "Render service base URL")
	cmd.Flags().StringVar(&identityURL, "identity-url", "", "Identity service base URL (enables remote authorization)")
	cmd.Flags().StringVar(&apiKey, "api-key", "", "Identity service API key")
	cmd.Flags().StringVar(&dbPath, "db", "blueprint.db", "Path to the audit sqlite database")
	cmd.Flags().StringVar(&spoolDir, "spool-dir", "artifacts", "Directory the spooled artifact is written to")
	cmd.Flags().StringVar(&side, "side", "", "Image side placed across the roll: long or short")
	cmd.Flags().StringVar(&sizing, "sizing", "", "Sizing mode: maxSize, specificSize, or specificDpi")
	cmd.Flags().IntVar(&paperWidth, "paper-width", 0, "Roll width in inches (17, 24, 36, or 44)")
	cmd.Flags().Float64Var(&widthIn, "width", 0, "Output width in inches (specificSize)")
	cmd.Flags().Float64Var(&heightIn, "height", 0, "Output height in inches (specificSize)")
	cmd.Flags().Float64Var(&dpi, "dpi", 0, "Output resolution (specificDpi)")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "Overall deadline for the print")
	_ = cmd.MarkFlagRequired("file")
	_ = cmd.MarkFlagRequired("token")

	return cmd
}
