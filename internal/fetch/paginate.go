package fetch

import (
	"context"
	"fmt"
)

// DefaultMaxPages bounds a listing walk when the caller gives no limit
const DefaultMaxPages = 1000

// PageFunc fetches one page of a listing, starting at page 1
type PageFunc[T any] func(ctx context.Context, page int) ([]T, error)

// Paginate calls fetchPage with page 1, 2, 3, ... and concatenates the results
// until a page comes back empty. Walking past maxPages is an error.
func Paginate[T any](ctx context.Context, fetchPage PageFunc[T], maxPages int) ([]T, error) {
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}

	var all []T
	for page := 1; ; page++ {
		if page > maxPages {
			return all, fmt.Errorf("listing did not end within %d pages", maxPages)
		}
		items, err := fetchPage(ctx, page)
		if err != nil {
			return all, fmt.Errorf("failed to fetch page %d: %w", page, err)
		}
		if len(items) == 0 {
			return all, nil
		}
		all = append(all, items...)
	}
}
