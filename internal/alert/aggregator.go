package alert

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/mikey/catalog-auditor/internal/core"
	"github.com/mikey/catalog-auditor/internal/utils"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	// DefaultMaxMessages caps the messages of one category in a digest
	DefaultMaxMessages = 40

	// CheckFailureCategory counts checks that failed or panicked on an entity
	CheckFailureCategory = "check_failure"

	maxMessageBytes = 2000
)

// Options tunes digest composition
type Options struct {
	MaxMessages   int
	SubjectPrefix string
}

// Aggregator counts violations per category and buffers the ones that should be
// emailed. Flush turns the buffers into at most one digest per category.
type Aggregator struct {
	notifier core.Notifier
	throttle *Throttle
	text     *utils.TextProcessor
	opts     Options
	logger   *zap.Logger
	now      func() time.Time
	titler   cases.Caser

	counts   map[string]int
	messages map[string][]string
}

// NewAggregator creates a new alert aggregator
func NewAggregator(notifier core.Notifier, throttle *Throttle, text *utils.TextProcessor, opts Options, logger *zap.Logger) *Aggregator {
	if opts.MaxMessages <= 0 {
		opts.MaxMessages = DefaultMaxMessages
	}
	return &Aggregator{
		notifier: notifier,
		throttle: throttle,
		text:     text,
		opts:     opts,
		logger:   logger,
		now:      time.Now,
		titler:   cases.Title(language.English),
		counts:   make(map[string]int),
		messages: make(map[string][]string),
	}
}

// LogViolation records one violation. Every call is counted; the message is
// buffered for the category digest only when alsoEmail is set.
func (a *Aggregator) LogViolation(category, message string, alsoEmail bool) {
	a.counts[category]++
	message = a.text.ProcessText(message, maxMessageBytes)
	a.logger.Info("Violation",
		zap.String("category", category),
		zap.String("message", message),
		zap.Bool("email", alsoEmail))
	if alsoEmail {
		a.messages[category] = append(a.messages[category], message)
	}
}

// Counts returns a copy of the per-category violation counts
func (a *Aggregator) Counts() map[string]int {
	out := make(map[string]int, len(a.counts))
	for k, v := range a.counts {
		out[k] = v
	}
	return out
}

// Flush emails one digest per eligible category and persists the throttle state.
// A failed send is logged and does not stop the remaining categories.
func (a *Aggregator) Flush(ctx context.Context) error {
	now := a.now()

	categories := make([]string, 0, len(a.messages))
	for category := range a.messages {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	for _, category := range categories {
		msgs := a.messages[category]
		if len(msgs) > a.opts.MaxMessages {
			msgs = msgs[:a.opts.MaxMessages]
		}
		if len(msgs) == 0 {
			continue
		}
		if !a.throttle.ShouldSend(category, now) {
			a.logger.Info("Digest throttled", zap.String("category", category), zap.Int("messages", len(msgs)))
			continue
		}

		subject := a.Subject(category)
		body := strings.Join(msgs, "\n\n")
		if err := a.notifier.Notify(ctx, subject, body); err != nil {
			if errors.Is(err, core.ErrNotDelivered) {
				a.logger.Info("Digest not delivered, throttle left unchanged", zap.String("category", category))
				continue
			}
			a.logger.Error("Failed to send digest", zap.String("category", category), zap.Error(err))
			continue
		}
		a.throttle.MarkSent(category, now)
		a.logger.Info("Digest sent", zap.String("category", category), zap.Int("messages", len(msgs)))
	}

	a.messages = make(map[string][]string)
	return a.throttle.Persist(ctx)
}

// Subject derives the digest subject from a category name,
// e.g. missing_image becomes "Missing Image"
func (a *Aggregator) Subject(category string) string {
	name := a.titler.String(strings.ReplaceAll(category, "_", " "))
	return fmt.Sprintf("%s%s (%d)", a.opts.SubjectPrefix, name, a.counts[category])
}

// WriteSummary writes the per-category counts as a table. It is never throttled.
func (a *Aggregator) WriteSummary(w io.Writer) error {
	categories := make([]string, 0, len(a.counts))
	total := 0
	for category, n := range a.counts {
		categories = append(categories, category)
		total += n
	}
	sort.Strings(categories)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CATEGORY\tCOUNT")
	for _, category := range categories {
		fmt.Fprintf(tw, "%s\t%d\n", category, a.counts[category])
	}
	fmt.Fprintf(tw, "total\t%d\n", total)
	return tw.Flush()
}
