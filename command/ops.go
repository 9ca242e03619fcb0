package command

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/HMC-Makerspace/BLUEPRINT/blueprint"
	gcmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-errors"
)

// ReportRequest names one audit report to render: the encoding and the
// file it lands in.
type ReportRequest struct {
	Format blueprint.ReportFormat `json:"format"`
	Path   string                 `json:"path"`
}

// ReportLoader loads report requests from a source.
type ReportLoader func(ctx context.Context) ([]ReportRequest, error)

// ReportExecutor renders one audit report to w.
type ReportExecutor interface {
	ExecuteReport(ctx context.Context, format blueprint.ReportFormat, w io.Writer) (blueprint.ReportStats, error)
}

// ReportExecutorFunc adapts a function to a ReportExecutor.
type ReportExecutorFunc func(ctx context.Context, format blueprint.ReportFormat, w io.Writer) (blueprint.ReportStats, error)

func (f ReportExecutorFunc) ExecuteReport(ctx context.Context, format blueprint.ReportFormat, w io.Writer) (blueprint.ReportStats, error) {
	if f == nil {
		return blueprint.ReportStats{}, errors.New("report executor is required", errors.CategoryInternal).
			WithTextCode("REPORT_EXECUTOR_NIL")
	}
	return f(ctx, format, w)
}

// Executor adapts the handler for scheduled report runs.
func (h *ExportAuditReportHandler) Executor() ReportExecutorFunc {
	return func(ctx context.Context, format blueprint.ReportFormat, w io.Writer) (blueprint.ReportStats, error) {
		var stats blueprint.ReportStats
		err := h.Execute(ctx, ExportAuditReport{Format: format, Output: w, Result: &stats})
		return stats, err
	}
}

// ReportCommand wires CLI/Cron execution for scheduled audit reports.
type ReportCommand struct {
	executor   ReportExecutor
	loader     ReportLoader
	cliConfig  gcmd.CLIConfig
	cronConfig gcmd.HandlerConfig
	limits     ReportLimits
	sleep      func(time.Duration)
}

// ReportOption customizes report commands.
type ReportOption func(*ReportCommand)

// ReportLimits bounds scheduled report throughput.
type ReportLimits struct {
	MaxReports  int
	MinInterval time.Duration
}

// WithReportCLIConfig overrides CLI configuration.
func WithReportCLIConfig(cfg gcmd.CLIConfig) ReportOption {
	return func(cmd *ReportCommand) {
		cmd.cliConfig = cfg
	}
}

// WithReportCronConfig overrides cron configuration.
func WithReportCronConfig(cfg gcmd.HandlerConfig) ReportOption {
	return func(cmd *ReportCommand) {
		cmd.cronConfig = cfg
	}
}

// WithReportLimits overrides report execution limits.
func WithReportLimits(limits ReportLimits) ReportOption {
	return func(cmd *ReportCommand) {
		cmd.limits = limits
	}
}

// NewScheduledReportsCommand creates a scheduled reports CLI/Cron command.
// The default cron expression renders staff reports before opening hours.
func NewScheduledReportsCommand(executor ReportExecutor, loader ReportLoader, opts ...ReportOption) *ReportCommand {
	cmd := &ReportCommand{
		executor: executor,
		loader:   loader,
		cliConfig: gcmd.CLIConfig{
			Path:        []string{"reports-scheduled"},
			Description: "Render scheduled audit reports",
			Group:       "print",
		},
		cronConfig: gcmd.HandlerConfig{Expression: "0 6 * * *"},
		sleep:      time.Sleep,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(cmd)
		}
	}
	return cmd
}

// CronHandler executes scheduled reports.
func (c *ReportCommand) CronHandler() func() error {
	return func() error {
		_, err := c.run(context.Background(), "")
		return err
	}
}

// CronOptions returns cron configuration.
func (c *ReportCommand) CronOptions() gcmd.HandlerConfig {
	if c == nil {
		return gcmd.HandlerConfig{}
	}
	return c.cronConfig
}

// CLIHandler exposes the CLI handler.
func (c *ReportCommand) CLIHandler() any {
	return &reportsCLI{cmd: c}
}

// CLIOptions returns CLI configuration.
func (c *ReportCommand) CLIOptions() gcmd.CLIConfig {
	if c == nil {
		return gcmd.CLIConfig{}
	}
	return c.cliConfig
}

func (c *ReportCommand) run(ctx context.Context, from string) (int, error) {
	if c == nil {
		return 0, errors.New("report command is nil", errors.CategoryInternal).
			WithTextCode("REPORT_CMD_NIL")
	}
	if c.executor == nil {
		return 0, errors.New("report executor is required", errors.CategoryValidation).
			WithTextCode("EXECUTOR_REQUIRED")
	}

	requests, err := c.loadRequests(ctx, from)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, item := range requests {
		if c.limits.MaxReports > 0 && count >= c.limits.MaxReports {
			break
		}
		if err := c.renderOne(ctx, item); err != nil {
			return count, err
		}
		count++
		if c.limits.MinInterval > 0 && c.sleep != nil {
			c.sleep(c.limits.MinInterval)
		}
	}
	return count, nil
}

func (c *ReportCommand) renderOne(ctx context.Context, item ReportRequest) error {
	if strings.TrimSpace(item.Path) == "" {
		return errors.New("report path is required", errors.CategoryValidation).
			WithTextCode("REPORT_PATH_REQUIRED")
	}
	out, err := os.Create(filepath.Clean(item.Path))
	if err != nil {
		return errors.Wrap(err, errors.CategoryExternal, "create report file failed").
			WithTextCode("REPORT_FILE_CREATE")
	}
	_, renderErr := c.executor.ExecuteReport(ctx, item.Format, out)
	closeErr := out.Close()
	if renderErr != nil {
		return renderErr
	}
	if closeErr != nil {
		return errors.Wrap(closeErr, errors.CategoryExternal, "close report file failed").
			WithTextCode("REPORT_FILE_CLOSE")
	}
	return nil
}

func (c *ReportCommand) loadRequests(ctx context.Context, from string) ([]ReportRequest, error) {
	if strings.TrimSpace(from) != "" {
		return loadReportRequestsFromFile(from)
	}
	if c.loader == nil {
		return nil, errors.New("report loader not configured", errors.CategoryValidation).
			WithTextCode("LOADER_REQUIRED")
	}
	return c.loader(ctx)
}

type reportsCLI struct {
	cmd  *ReportCommand
	From string `kong:"name='from',help='Path to JSON report requests'"`
}

func (c *reportsCLI) Run() error {
	if c == nil || c.cmd == nil {
		return errors.New("report command is required", errors.CategoryInternal).
			WithTextCode("REPORT_CMD_NIL")
	}
	_, err := c.cmd.run(context.Background(), c.From)
	return err
}

func loadReportRequestsFromFile(path string) ([]ReportRequest, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryExternal, "read report requests failed").
			WithTextCode("REPORT_FILE_READ")
	}

	var requests []ReportRequest
	if err := json.Unmarshal(content, &requests); err != nil {
		return nil, errors.Wrap(err, errors.CategoryValidation, "report requests invalid JSON").
			WithTextCode("REPORT_FILE_INVALID")
	}
	return requests, nil
}

// BuildReportRequests returns one request per format, landing files in dir.
// Formats that resolve to no renderer are skipped.
func BuildReportRequests(dir string, formats ...blueprint.ReportFormat) []ReportRequest {
	if len(formats) == 0 {
		return nil
	}
	requests := make([]ReportRequest, 0, len(formats))
	for _, format := range formats {
		renderer, err := blueprint.ReportRendererFor(format)
		if err != nil {
			continue
		}
		requests = append(requests, ReportRequest{
			Format: format,
			Path:   filepath.Join(dir, "print-audit."+renderer.Ext()),
		})
	}
	return requests
}

// CLIHandler exposes cleanup via CLI.
func (h *CleanupArtifactsHandler) CLIHandler() any {
	return &cleanupCLI{handler: h}
}

// CLIOptions describes cleanup CLI metadata.
func (h *CleanupArtifactsHandler) CLIOptions() gcmd.CLIConfig {
	return gcmd.CLIConfig{
		Path:        []string{"prints-cleanup"},
		Description: "Remove expired render artifacts",
		Group:       "print",
	}
}

type cleanupCLI struct {
	handler *CleanupArtifactsHandler
}

func (c *cleanupCLI) Run() error {
	if c == nil || c.handler == nil {
		return errors.New("cleanup handler is required", errors.CategoryInternal).
			WithTextCode("CLEANUP_HANDLER_REQUIRED")
	}
	return c.handler.Execute(context.Background(), CleanupArtifacts{})
}
