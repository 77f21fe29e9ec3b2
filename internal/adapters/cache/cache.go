package cache

import (
	"time"

	"github.com/mikey/catalog-auditor/internal/core"
)

// sqlTimeLayout is how the SQL backends store last_checked
const sqlTimeLayout = "2006-01-02 15:04:05"

// evaluate applies the TTL to a stored entry
func evaluate(entry core.CacheEntry, ttl core.TTL, now time.Time) (*core.CacheEntry, error) {
	if ttl.Expired(entry.LastChecked, now) {
		return nil, core.ErrExpired
	}
	return &entry, nil
}

// cutoff returns the oldest last_checked that is still fresh
func cutoff(ttl core.TTL, now time.Time) time.Time {
	return now.AddDate(0, -ttl.Months, -ttl.Days)
}
