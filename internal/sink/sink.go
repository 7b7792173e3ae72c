// Package sink persists window summaries to durable destinations.
package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ryosukesatoh/journalbot/internal/category"
	"github.com/ryosukesatoh/journalbot/internal/summary"
)

// Sink writes one summary document per run. Writes are all-or-nothing at
// document granularity; a failed write never corrupts an earlier one.
type Sink interface {
	Persist(ctx context.Context, ws *summary.WindowSummary) error
}

// document is the persisted summary shape.
type document struct {
	WindowKind  string            `json:"window_kind"`
	GeneratedAt string            `json:"generated_at"`
	RunID       string            `json:"run_id"`
	Degraded    bool              `json:"degraded,omitempty"`
	Categories  map[string]string `json:"categories"`
}

// Marshal serializes a window summary to its persisted JSON form.
func Marshal(ws *summary.WindowSummary) ([]byte, error) {
	doc := document{
		WindowKind:  string(ws.Kind),
		GeneratedAt: ws.GeneratedAt.Format(time.RFC3339),
		RunID:       ws.RunID,
		Degraded:    ws.Degraded,
		Categories:  make(map[string]string, len(category.All)),
	}
	for _, c := range category.All {
		doc.Categories[string(c)] = ws.PerCategory[c]
	}

	data, err := json.MarshalIndent(doc, "", "    ")
	if err != nil {
		return nil, fmt.Errorf("sink: marshal %s summary: %w", ws.Kind, err)
	}
	return data, nil
}

// Filename returns the destination name for a run, keyed by window kind and
// generation date so later runs of other dates never overwrite it.
func Filename(ws *summary.WindowSummary) string {
	return fmt.Sprintf("%s_summary_%s.json", ws.Kind, ws.GeneratedAt.Format("20060102"))
}
