package alert

import (
	"context"
	"fmt"
	"time"

	"github.com/mikey/catalog-auditor/internal/core"
	"go.uber.org/zap"
)

// DefaultCooldownDays is the minimum number of days between two digests of a category
const DefaultCooldownDays = 9

// Throttle tracks when each category was last emailed
type Throttle struct {
	store        core.ThrottleStore
	cooldownDays int
	state        map[string]time.Time
	logger       *zap.Logger
}

// NewThrottle loads the persisted throttle state
func NewThrottle(ctx context.Context, store core.ThrottleStore, cooldownDays int, logger *zap.Logger) (*Throttle, error) {
	if cooldownDays <= 0 {
		cooldownDays = DefaultCooldownDays
	}
	state, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load throttle: %w", err)
	}
	if state == nil {
		state = make(map[string]time.Time)
	}
	return &Throttle{
		store:        store,
		cooldownDays: cooldownDays,
		state:        state,
		logger:       logger,
	}, nil
}

// ShouldSend reports whether category may be emailed on now's date
func (t *Throttle) ShouldSend(category string, now time.Time) bool {
	last, ok := t.state[category]
	if !ok {
		return true
	}
	return daysBetween(last, now) >= t.cooldownDays
}

// MarkSent records a send on now's date
func (t *Throttle) MarkSent(category string, now time.Time) {
	t.state[category] = now
}

// Persist saves the state, whether or not anything was sent
func (t *Throttle) Persist(ctx context.Context) error {
	if err := t.store.Save(ctx, t.state); err != nil {
		return fmt.Errorf("failed to persist throttle: %w", err)
	}
	return nil
}

// daysBetween counts calendar days from a to b in local time
func daysBetween(a, b time.Time) int {
	a, b = a.Local(), b.Local()
	da := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	db := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(db.Sub(da).Hours() / 24)
}
