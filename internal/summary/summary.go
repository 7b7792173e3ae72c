// Package summary builds category-scoped window summaries of the journal.
package summary

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/ryosukesatoh/journalbot/internal/aggregate"
	"github.com/ryosukesatoh/journalbot/internal/category"
	"github.com/ryosukesatoh/journalbot/internal/store"
	"github.com/ryosukesatoh/journalbot/internal/summarizer"
)

// Kind selects the lookback window of a summary run.
type Kind string

const (
	Daily   Kind = "daily"
	Weekly  Kind = "weekly"
	Monthly Kind = "monthly"
)

// Kinds lists every window kind.
var Kinds = []Kind{Daily, Weekly, Monthly}

// ParseKind validates a user-supplied window kind.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case Daily, Weekly, Monthly:
		return Kind(s), nil
	}
	return "", fmt.Errorf("summary: unknown window kind %q (expected daily, weekly or monthly)", s)
}

// start maps a window kind to its lookback start time: daily covers the
// current calendar day, weekly the last 7 days, monthly the last 30.
func (k Kind) start(now time.Time) time.Time {
	switch k {
	case Daily:
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	case Weekly:
		return now.AddDate(0, 0, -7)
	default:
		return now.AddDate(0, 0, -30)
	}
}

// WindowSummary is the output of one builder run. It is created fresh on
// every invocation and never mutated after creation; runs over overlapping
// periods are independent records.
type WindowSummary struct {
	RunID       string
	Kind        Kind
	GeneratedAt time.Time
	// PerCategory holds exactly the vocabulary's categories, never more,
	// never fewer. Render in category.All order.
	PerCategory map[category.Category]string
	// Degraded is set when the entry query failed and the window was
	// treated as empty.
	Degraded bool
}

// EntrySource yields the journal entries for a window.
type EntrySource interface {
	EntriesSince(ctx context.Context, start time.Time) ([]store.Entry, error)
}

// Driver produces the summary text for one category pool.
type Driver interface {
	SummarizeCategory(ctx context.Context, c category.Category, texts []string) (string, error)
}

// Builder composes the entry source, the aggregator and the driver into
// window summary runs.
type Builder struct {
	source EntrySource
	driver Driver
	now    func() time.Time
}

func NewBuilder(source EntrySource, driver Driver) *Builder {
	return &Builder{source: source, driver: driver, now: time.Now}
}

// Build produces the summary for one window. It never fails: a store error
// degrades the run to an all-"no entries" summary, and a driver error for
// one category falls back to the fixed failure text without touching the
// other categories.
func (b *Builder) Build(ctx context.Context, kind Kind) *WindowSummary {
	now := b.now()
	ws := &WindowSummary{
		RunID:       uuid.NewString(),
		Kind:        kind,
		GeneratedAt: now,
		PerCategory: make(map[category.Category]string, len(category.All)),
	}

	entries, err := b.source.EntriesSince(ctx, kind.start(now))
	if err != nil {
		log.Printf("summary: %s window entry query failed, continuing with empty window: %v", kind, err)
		ws.Degraded = true
		entries = nil
	}

	pools := aggregate.Group(entries)

	for _, c := range category.All {
		text, err := b.driver.SummarizeCategory(ctx, c, pools[c])
		if err != nil {
			log.Printf("summary: %s window, category %s failed: %v", kind, c, err)
			text = summarizer.Fallback
		}
		ws.PerCategory[c] = text
	}

	return ws
}
