package audit

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/mikey/catalog-auditor/internal/alert"
	"github.com/mikey/catalog-auditor/internal/config"
	"github.com/mikey/catalog-auditor/internal/core"
	"go.uber.org/zap"
)

// Engine drives one audit run: load the catalog, run the checks, flush the
// alert digests and print the summary
type Engine struct {
	reader      core.CatalogReader
	writer      core.CatalogWriter
	runner      *Runner
	alerts      *alert.Aggregator
	remediation config.RemediationConfig
	checks      config.ChecksConfig
	out         io.Writer
	logger      *zap.Logger
	now         func() time.Time
}

// NewEngine creates a new audit engine
func NewEngine(
	reader core.CatalogReader,
	writer core.CatalogWriter,
	runner *Runner,
	alerts *alert.Aggregator,
	remediation config.RemediationConfig,
	checks config.ChecksConfig,
	out io.Writer,
	logger *zap.Logger,
) *Engine {
	return &Engine{
		reader:      reader,
		writer:      writer,
		runner:      runner,
		alerts:      alerts,
		remediation: remediation,
		checks:      checks,
		out:         out,
		logger:      logger,
		now:         time.Now,
	}
}

// Run performs one audit. Alerts gathered so far are flushed and the summary is
// printed even when the run fails.
func (e *Engine) Run(ctx context.Context) (err error) {
	runID := uuid.New()
	logger := e.logger.With(zap.String("run_id", runID.String()))
	now := e.now()
	started := time.Now()

	logger.Info("Audit starting",
		zap.Bool("remediation_price_rounding", e.remediation.PriceRounding),
		zap.Bool("remediation_discounts", e.remediation.Discounts),
		zap.Bool("remediation_sale_tags", e.remediation.SaleTags),
		zap.Bool("remediation_status_transitions", e.remediation.StatusTransitions))

	defer func() {
		e.finish(context.WithoutCancel(ctx), logger, err, time.Since(started))
	}()

	snap, err := LoadSnapshot(ctx, e.reader, now, logger)
	if err != nil {
		return err
	}

	rc := &RunContext{
		ID:          runID,
		Now:         now,
		Remediation: e.remediation,
		Checks:      e.checks,
		Snapshot:    snap,
		Alerts:      e.alerts,
		Writer:      e.writer,
		Logger:      logger,
	}
	return e.runner.Run(ctx, rc)
}

func (e *Engine) finish(ctx context.Context, logger *zap.Logger, runErr error, elapsed time.Duration) {
	if err := e.alerts.Flush(ctx); err != nil {
		logger.Error("Failed to flush alerts", zap.Error(err))
	}

	if err := e.alerts.WriteSummary(e.out); err != nil {
		logger.Error("Failed to write summary", zap.Error(err))
	}

	fields := []zap.Field{zap.Any("counts", e.alerts.Counts()), zap.Duration("elapsed", elapsed)}
	if runErr != nil {
		logger.Error("Audit failed", append(fields, zap.Error(runErr))...)
		return
	}
	logger.Info("Audit finished", fields...)
}

// WithDeadline bounds a run when timeout is positive
func WithDeadline(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

// Describe renders a run error for the terminal
func Describe(err error) string {
	if core.IsFatalAudit(err) {
		return fmt.Sprintf("audit aborted: %v", err)
	}
	return fmt.Sprintf("audit failed: %v", err)
}
