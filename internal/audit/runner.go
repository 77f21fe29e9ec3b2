package audit

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"

	"github.com/mikey/catalog-auditor/internal/alert"
	"github.com/mikey/catalog-auditor/internal/core"
	"go.uber.org/zap"
)

// Runner executes the checks in order. Each product check sees every product
// before the next check starts. A failing or panicking check is recorded under
// the check_failure category and the run goes on; only a FatalAuditError or a
// cancelled context stops it.
type Runner struct {
	productChecks []ProductCheck
	catalogChecks []CatalogCheck
}

// NewRunner creates a runner for the given checks
func NewRunner(productChecks []ProductCheck, catalogChecks []CatalogCheck) *Runner {
	return &Runner{productChecks: productChecks, catalogChecks: catalogChecks}
}

// Run executes every check against rc
func (r *Runner) Run(ctx context.Context, rc *RunContext) error {
	for _, check := range r.productChecks {
		err := r.runProductCheck(ctx, rc, check)
		r.finish(ctx, rc, check.Name(), check)
		if err != nil {
			return err
		}
	}

	for _, check := range r.catalogChecks {
		rc.Logger.Debug("Running check", zap.String("check", check.Name()))
		err := r.handle(ctx, rc, check.Name(), "catalog", safely(func() error {
			return check.CheckCatalog(ctx, rc)
		}))
		r.finish(ctx, rc, check.Name(), check)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) runProductCheck(ctx context.Context, rc *RunContext, check ProductCheck) error {
	rc.Logger.Debug("Running check", zap.String("check", check.Name()))
	for i := range rc.Snapshot.Products {
		p := &rc.Snapshot.Products[i]
		if skipped(rc, p) {
			continue
		}
		subject := fmt.Sprintf("product %d", p.ID)
		err := r.handle(ctx, rc, check.Name(), subject, safely(func() error {
			return check.CheckProduct(ctx, rc, p)
		}))
		if err != nil {
			return err
		}
	}
	return nil
}

// handle decides whether a check error stops the run
func (r *Runner) handle(ctx context.Context, rc *RunContext, name, subject string, err error) error {
	if err == nil {
		return nil
	}
	if core.IsFatalAudit(err) {
		rc.Logger.Error("Fatal audit error", zap.String("check", name), zap.Error(err))
		return err
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("run interrupted during %s: %w", name, ctxErr)
	}

	fields := []zap.Field{zap.String("check", name), zap.String("subject", subject), zap.Error(err)}
	var pe *panicError
	if errors.As(err, &pe) {
		fields = append(fields, zap.ByteString("stack", pe.stack))
	}
	rc.Logger.Warn("Check failed", fields...)
	rc.Violation(alert.CheckFailureCategory, fmt.Sprintf("%s failed on %s: %v", name, subject, err), true)
	return nil
}

// finish lets a check persist its state. It runs even when the run was cancelled
// or aborted; a failure is recorded but never stops the run.
func (r *Runner) finish(ctx context.Context, rc *RunContext, name string, check any) {
	f, ok := check.(Finisher)
	if !ok {
		return
	}
	err := safely(func() error { return f.Finish(context.WithoutCancel(ctx)) })
	if err != nil {
		rc.Logger.Error("Failed to finish check", zap.String("check", name), zap.Error(err))
		rc.Violation(alert.CheckFailureCategory, fmt.Sprintf("%s could not persist its state: %v", name, err), true)
	}
}

type panicError struct {
	value any
	stack []byte
}

func (e *panicError) Error() string {
	return fmt.Sprintf("panic: %v", e.value)
}

// safely turns a panic inside fn into an error
func safely(fn func() error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = &panicError{value: rec, stack: debug.Stack()}
		}
	}()
	return fn()
}

func skipped(rc *RunContext, p *core.Product) bool {
	for _, slug := range rc.Checks.SkipCategories {
		if p.InCategory(slug) {
			return true
		}
	}
	return false
}
