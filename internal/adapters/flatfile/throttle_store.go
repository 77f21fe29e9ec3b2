package flatfile

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
)

// ThrottleStore persists the last send date of each alert category as
// category,YYYY-MM-DD lines
type ThrottleStore struct {
	path   string
	logger *zap.Logger
}

// NewThrottleStore creates a store backed by the file at path
func NewThrottleStore(path string, logger *zap.Logger) *ThrottleStore {
	return &ThrottleStore{path: path, logger: logger}
}

// Load reads the throttle state. A missing file yields an empty state.
func (s *ThrottleStore) Load(ctx context.Context) (map[string]time.Time, error) {
	records, err := ReadRecords(s.path, 2, s.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to load throttle state: %w", err)
	}

	state := make(map[string]time.Time, len(records))
	for _, rec := range records {
		sent, err := time.ParseInLocation(DateLayout, rec[1], time.Local)
		if err != nil {
			s.logger.Warn("Skipping throttle line with invalid date",
				zap.String("category", rec[0]),
				zap.String("date", rec[1]))
			continue
		}
		state[rec[0]] = sent
	}
	return state, nil
}

// Save replaces the throttle file with state
func (s *ThrottleStore) Save(ctx context.Context, state map[string]time.Time) error {
	categories := make([]string, 0, len(state))
	for category := range state {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	records := make([][]string, 0, len(categories))
	for _, category := range categories {
		records = append(records, []string{category, state[category].Format(DateLayout)})
	}
	if err := WriteRecords(s.path, records); err != nil {
		return fmt.Errorf("failed to save throttle state: %w", err)
	}
	return nil
}
