package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ryosukesatoh/journalbot/internal/jobs"
	"github.com/ryosukesatoh/journalbot/internal/sink"
	"github.com/ryosukesatoh/journalbot/internal/store"
	"github.com/ryosukesatoh/journalbot/internal/summarizer"
	"github.com/ryosukesatoh/journalbot/internal/summary"
)

// TestDailyPipeline exercises store -> aggregate -> summarize -> sink with a
// fake summarization endpoint.
func TestDailyPipeline(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("Bad request to fake endpoint: %v", err)
		}
		reply := `{"summary": "A calm, productive day."}`
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": reply}},
			},
		})
	}))
	defer server.Close()

	dir := t.TempDir()
	st, err := store.Open(filepath.Join(dir, "journal.db"))
	if err != nil {
		t.Fatalf("Open store: %v", err)
	}
	defer st.Close()

	now := time.Now()
	for _, e := range []store.Entry{
		{UserID: "u", MessageID: "1", Timestamp: now, Text: "Had a great workout today", Categories: "Health"},
		{UserID: "u", MessageID: "2", Timestamp: now, Text: "Finished the project report", Categories: "Work"},
		{UserID: "u", MessageID: "3", Timestamp: now, Text: "Talked with mom", Categories: "Relationships, Purpose"},
	} {
		if _, err := st.Insert(context.Background(), e); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}

	client := summarizer.NewOpenAIClient(server.URL, "test-model", "test-key", 300)
	driver := summarizer.NewDriver(client, 10*time.Second)
	builder := summary.NewBuilder(st, driver)
	runner := jobs.NewRunner(builder, sink.NewFileSink(dir))

	ws, err := runner.Run(context.Background(), summary.Daily)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if ws.Degraded {
		t.Error("Run should not be degraded")
	}

	data, err := os.ReadFile(filepath.Join(dir, sink.Filename(ws)))
	if err != nil {
		t.Fatalf("Summary file not written: %v", err)
	}

	var doc struct {
		WindowKind string            `json:"window_kind"`
		Categories map[string]string `json:"categories"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("Summary document is not valid JSON: %v", err)
	}
	if doc.WindowKind != "daily" {
		t.Errorf("WindowKind = %q", doc.WindowKind)
	}
	for _, c := range []string{"Work", "Health", "Relationships", "Purpose"} {
		if doc.Categories[c] != "A calm, productive day." {
			t.Errorf("Category %s = %q", c, doc.Categories[c])
		}
	}
}

// TestDailyPipelineServiceFailure checks that a dead summarization service
// degrades to fallback text without failing the run.
func TestDailyPipelineServiceFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadRequest)
	}))
	defer server.Close()

	dir := t.TempDir()
	st, err := store.Open(filepath.Join(dir, "journal.db"))
	if err != nil {
		t.Fatalf("Open store: %v", err)
	}
	defer st.Close()

	if _, err := st.Insert(context.Background(), store.Entry{
		UserID: "u", MessageID: "1", Timestamp: time.Now(),
		Text: "An entry", Categories: "Work",
	}); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	client := summarizer.NewOpenAIClient(server.URL, "test-model", "test-key", 300)
	driver := summarizer.NewDriver(client, 10*time.Second)
	builder := summary.NewBuilder(st, driver)
	runner := jobs.NewRunner(builder, sink.NewFileSink(dir))

	ws, err := runner.Run(context.Background(), summary.Daily)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, sink.Filename(ws)))
	if err != nil {
		t.Fatalf("Summary file not written: %v", err)
	}
	if !strings.Contains(string(data), summarizer.Fallback) {
		t.Error("Expected fallback text for the failed category")
	}
	if !strings.Contains(string(data), "No entries for Health.") {
		t.Error("Expected no-entries text for empty categories")
	}
}
