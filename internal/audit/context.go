package audit

import (
	"time"

	"github.com/google/uuid"
	"github.com/mikey/catalog-auditor/internal/alert"
	"github.com/mikey/catalog-auditor/internal/config"
	"github.com/mikey/catalog-auditor/internal/core"
	"go.uber.org/zap"
)

// RunContext is everything a check may read or act on during one run
type RunContext struct {
	ID          uuid.UUID
	Now         time.Time
	Remediation config.RemediationConfig
	Checks      config.ChecksConfig
	Snapshot    *core.Snapshot
	Alerts      *alert.Aggregator
	Writer      core.CatalogWriter
	Logger      *zap.Logger
}

// Violation records a rule violation under category
func (rc *RunContext) Violation(category, message string, alsoEmail bool) {
	rc.Alerts.LogViolation(category, message, alsoEmail)
}
