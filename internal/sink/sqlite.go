package sink

import (
	"context"

	"github.com/ryosukesatoh/journalbot/internal/store"
	"github.com/ryosukesatoh/journalbot/internal/summary"
)

// SQLiteSink appends summary documents as rows in the journal database.
type SQLiteSink struct {
	store *store.Store
}

var _ Sink = (*SQLiteSink)(nil)

func NewSQLiteSink(s *store.Store) *SQLiteSink {
	return &SQLiteSink{store: s}
}

func (s *SQLiteSink) Persist(ctx context.Context, ws *summary.WindowSummary) error {
	data, err := Marshal(ws)
	if err != nil {
		return err
	}
	return s.store.SaveSummary(ctx, store.SummaryRow{
		RunID:       ws.RunID,
		WindowKind:  string(ws.Kind),
		GeneratedAt: ws.GeneratedAt,
		Document:    string(data),
	})
}
