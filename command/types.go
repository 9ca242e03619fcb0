package command

import (
	"io"
	"strings"
	"time"

	"github.com/HMC-Makerspace/BLUEPRINT/blueprint"
	"github.com/goliatone/go-errors"
)

// LoadFile replaces the session's source file.
type LoadFile struct {
	File   blueprint.SourceFile
	Result *blueprint.FileInfo
}

func (LoadFile) Type() string { return "print:load" }

func (msg LoadFile) Validate() error {
	if msg.File.Empty() {
		return errors.New("source file is required", errors.CategoryValidation).
			WithTextCode("FILE_REQUIRED")
	}
	return nil
}

// RenderPreview renders a preview for the given options. Nil options are
// resolved from the host's panel state.
type RenderPreview struct {
	Options *blueprint.PrintOptions
	Result  *blueprint.RenderedImage
}

func (RenderPreview) Type() string { return "print:preview" }

func (RenderPreview) Validate() error { return nil }

// WarmCache speculatively renders option sets into the session cache.
type WarmCache struct {
	Options []blueprint.PrintOptions
}

func (WarmCache) Type() string { return "print:warm" }

func (WarmCache) Validate() error { return nil }

// SubmitPrint runs the full authorize, log, render, print sequence.
type SubmitPrint struct {
	Token   string
	Options *blueprint.PrintOptions
	Result  *blueprint.AuditRecord
}

func (SubmitPrint) Type() string { return "print:submit" }

func (msg SubmitPrint) Validate() error {
	if strings.TrimSpace(msg.Token) == "" {
		return errors.New("badge token is required", errors.CategoryValidation).
			WithTextCode("TOKEN_REQUIRED")
	}
	return nil
}

// ExportAuditReport renders the audit history to Output.
type ExportAuditReport struct {
	Format blueprint.ReportFormat
	Output io.Writer
	Result *blueprint.ReportStats
}

func (ExportAuditReport) Type() string { return "print:report" }

func (msg ExportAuditReport) Validate() error {
	if msg.Format == "" {
		return errors.New("report format is required", errors.CategoryValidation).
			WithTextCode("FORMAT_REQUIRED")
	}
	if msg.Output == nil {
		return errors.New("report output is required", errors.CategoryValidation).
			WithTextCode("OUTPUT_REQUIRED")
	}
	return nil
}

// CleanupArtifacts removes expired render artifacts.
type CleanupArtifacts struct {
	Now    time.Time
	Result *int
}

func (CleanupArtifacts) Type() string { return "print:cleanup" }

func (CleanupArtifacts) Validate() error { return nil }
