package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"
)

// ErrUnavailable marks entry-store query failures. Callers recover by
// treating the window as having zero entries; the run continues degraded.
var ErrUnavailable = errors.New("entry store unavailable")

// Entry is one journal entry as persisted. The summary engine reads entries
// and never mutates them; writes come from the ingestion path.
type Entry struct {
	ID         int64
	UserID     string
	MessageID  string
	Timestamp  time.Time
	Text       string
	Categories string // delimited category tokens, possibly empty
	Keywords   string // free-form labels, display only
}

// SummaryRow is one persisted summary document, written by the sqlite sink.
type SummaryRow struct {
	RunID       string
	WindowKind  string
	GeneratedAt time.Time
	Document    string // serialized summary JSON
}

// Store provides SQLite-backed persistence for journal entries and summaries.
type Store struct {
	db *sql.DB
}

const createTablesSQL = `
CREATE TABLE IF NOT EXISTS entries (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id TEXT NOT NULL,
	message_id TEXT NOT NULL,
	timestamp TEXT NOT NULL,
	text TEXT NOT NULL,
	categories TEXT,
	keywords TEXT
);

CREATE INDEX IF NOT EXISTS idx_entries_timestamp ON entries (timestamp);

CREATE TABLE IF NOT EXISTS summaries (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id TEXT NOT NULL,
	window_kind TEXT NOT NULL,
	generated_at TEXT NOT NULL,
	document TEXT NOT NULL
);
`

// Open opens the SQLite database at path, creates tables if they don't
// exist, and returns a Store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}

	// WAL keeps scheduled reads from blocking ingestion writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: set WAL mode: %w", err)
	}

	if _, err := db.Exec(createTablesSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: create tables: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Insert stores a new journal entry. The timestamp is stored as RFC 3339 so
// range queries compare the same representation insertion used.
func (s *Store) Insert(ctx context.Context, e Entry) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO entries (user_id, message_id, timestamp, text, categories, keywords)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		e.UserID, e.MessageID, e.Timestamp.Format(time.RFC3339), e.Text, e.Categories, e.Keywords,
	)
	if err != nil {
		return 0, fmt.Errorf("store: insert entry: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("store: insert entry id: %w", err)
	}
	return id, nil
}

// EntriesSince returns all entries recorded at or after start, oldest first.
// Failures wrap ErrUnavailable; a single failed query must not abort the
// wider summary run.
func (s *Store) EntriesSince(ctx context.Context, start time.Time) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, message_id, timestamp, text, categories, keywords
		 FROM entries WHERE timestamp >= ? ORDER BY timestamp ASC`,
		start.Format(time.RFC3339),
	)
	if err != nil {
		return nil, fmt.Errorf("store: query entries since %s: %w (%w)", start.Format(time.RFC3339), err, ErrUnavailable)
	}
	defer rows.Close()

	return scanEntries(rows)
}

// ListFilter narrows the entry listing. Zero values mean "no filter".
type ListFilter struct {
	Category string // matched case-insensitively inside the stored field
	Search   string // substring match on entry text
	Limit    int
	Offset   int
}

// List returns entries newest first, filtered per f.
func (s *Store) List(ctx context.Context, f ListFilter) ([]Entry, error) {
	q := sq.Select("id", "user_id", "message_id", "timestamp", "text", "categories", "keywords").
		From("entries").
		OrderBy("timestamp DESC")

	if f.Category != "" {
		q = q.Where(sq.Like{"LOWER(categories)": "%" + strings.ToLower(f.Category) + "%"})
	}
	if f.Search != "" {
		q = q.Where(sq.Like{"text": "%" + f.Search + "%"})
	}
	if f.Limit > 0 {
		q = q.Limit(uint64(f.Limit))
	}
	if f.Offset > 0 {
		q = q.Offset(uint64(f.Offset))
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("store: build list query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: list entries: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

// UpdateText replaces an entry's text, the only mutation the edit surface
// performs.
func (s *Store) UpdateText(ctx context.Context, id int64, text string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE entries SET text = ? WHERE id = ?`, text, id)
	if err != nil {
		return fmt.Errorf("store: update entry %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("store: update entry %d: no such entry", id)
	}
	return nil
}

// Delete removes an entry by id.
func (s *Store) Delete(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM entries WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("store: delete entry %d: %w", id, err)
	}
	return nil
}

// DeleteLastFor removes the most recent entry for a user and returns its
// text, or sql.ErrNoRows via the wrapped error when the user has no entries.
func (s *Store) DeleteLastFor(ctx context.Context, userID string) (string, error) {
	var id int64
	var text string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, text FROM entries WHERE user_id = ? ORDER BY timestamp DESC, id DESC LIMIT 1`,
		userID,
	).Scan(&id, &text)
	if err != nil {
		return "", fmt.Errorf("store: find last entry for %s: %w", userID, err)
	}
	if err := s.Delete(ctx, id); err != nil {
		return "", err
	}
	return text, nil
}

// SaveSummary appends one summary document row. Each run writes exactly one
// row; rows are never updated afterwards.
func (s *Store) SaveSummary(ctx context.Context, row SummaryRow) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO summaries (run_id, window_kind, generated_at, document) VALUES (?, ?, ?, ?)`,
		row.RunID, row.WindowKind, row.GeneratedAt.Format(time.RFC3339), row.Document,
	)
	if err != nil {
		return fmt.Errorf("store: save %s summary: %w", row.WindowKind, err)
	}
	return nil
}

// SummariesByKind returns persisted summary rows for one window kind, newest
// first.
func (s *Store) SummariesByKind(ctx context.Context, kind string) ([]SummaryRow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, window_kind, generated_at, document
		 FROM summaries WHERE window_kind = ? ORDER BY generated_at DESC`,
		kind,
	)
	if err != nil {
		return nil, fmt.Errorf("store: query %s summaries: %w", kind, err)
	}
	defer rows.Close()

	var result []SummaryRow
	for rows.Next() {
		var r SummaryRow
		var generated string
		if err := rows.Scan(&r.RunID, &r.WindowKind, &generated, &r.Document); err != nil {
			return nil, fmt.Errorf("store: scan summary row: %w", err)
		}
		if t, err := time.Parse(time.RFC3339, generated); err == nil {
			r.GeneratedAt = t
		}
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate summary rows: %w", err)
	}
	return result, nil
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	var entries []Entry
	for rows.Next() {
		var e Entry
		var ts string
		var cats, kws sql.NullString
		if err := rows.Scan(&e.ID, &e.UserID, &e.MessageID, &ts, &e.Text, &cats, &kws); err != nil {
			return nil, fmt.Errorf("store: scan entry: %w", err)
		}
		t, err := time.Parse(time.RFC3339, ts)
		if err != nil {
			return nil, fmt.Errorf("store: parse entry timestamp %q: %w", ts, err)
		}
		e.Timestamp = t
		e.Categories = cats.String
		e.Keywords = kws.String
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate entries: %w", err)
	}
	return entries, nil
}
