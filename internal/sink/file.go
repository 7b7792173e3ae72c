package sink

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ryosukesatoh/journalbot/internal/summary"
)

// FileSink writes summary documents as JSON files in a directory.
type FileSink struct {
	dir string
}

var _ Sink = (*FileSink)(nil)

func NewFileSink(dir string) *FileSink {
	return &FileSink{dir: dir}
}

// Persist writes the document via a temp file and rename, so readers never
// observe a partially written summary.
func (s *FileSink) Persist(_ context.Context, ws *summary.WindowSummary) error {
	data, err := Marshal(ws)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("sink: create directory %s: %w", s.dir, err)
	}

	dest := filepath.Join(s.dir, Filename(ws))
	tmp, err := os.CreateTemp(s.dir, "."+Filename(ws)+".tmp-*")
	if err != nil {
		return fmt.Errorf("sink: create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("sink: write %s: %w", dest, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("sink: close %s: %w", dest, err)
	}
	if err := os.Rename(tmpName, dest); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("sink: rename into place %s: %w", dest, err)
	}
	return nil
}
