package summarizer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ryosukesatoh/journalbot/internal/category"
)

// Fallback is the fixed text a category shows when its summary could not be
// generated. A single bad category must not sink the rest of the window.
const Fallback = "Summary generation failed."

// NoEntries is the canned text for a category with an empty pool. It is
// produced locally; the summarization service is never called for it.
func NoEntries(c category.Category) string {
	return fmt.Sprintf("No entries for %s.", c)
}

// Client is the narrative summarization backend: one prompt in, prose out.
type Client interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Driver turns one category's pool into summary text. It owns the prompt,
// the reply envelope, and the per-call timeout; it keeps no state between
// calls.
type Driver struct {
	client  Client
	timeout time.Duration
}

// NewDriver builds a Driver with a per-call timeout ceiling. A service call
// that never returns must not stall the window build.
func NewDriver(client Client, timeout time.Duration) *Driver {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Driver{client: client, timeout: timeout}
}

const systemPrompt = "You are an assistant that summarizes personal diary entries. " +
	"Generate a concise summary highlighting key events, emotions, and recurring themes."

// envelope is the single-field structured reply the service must produce.
type envelope struct {
	Summary string `json:"summary"`
}

// SummarizeCategory returns the summary for one category pool. An empty pool
// short-circuits to the NoEntries text without any service call. Transport,
// timeout, and malformed-reply failures are returned as errors; mapping them
// to Fallback is the caller's decision.
func (d *Driver) SummarizeCategory(ctx context.Context, c category.Category, texts []string) (string, error) {
	if len(texts) == 0 {
		return NoEntries(c), nil
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	reply, err := d.client.Complete(ctx, systemPrompt, buildPrompt(c, texts))
	if err != nil {
		return "", fmt.Errorf("summarizer: %s: %w", c, err)
	}

	return parseEnvelope(c, reply)
}

func buildPrompt(c category.Category, texts []string) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Summarize the following diary entries for the category %q.\n", c))
	sb.WriteString(fmt.Sprintf("Category definition: %s\n\n", category.Definition(c)))
	sb.WriteString("Some entries touch several life areas; ignore any content not relevant to this category.\n\n")
	sb.WriteString("Entries, oldest first, one per line:\n")
	for _, t := range texts {
		sb.WriteString(t)
		sb.WriteString("\n")
	}
	sb.WriteString("\nRespond in JSON with this exact structure:\n")
	sb.WriteString(`{"summary": "the summary text"}` + "\n")
	sb.WriteString("Respond ONLY with valid JSON, no markdown fences or additional text.")
	return sb.String()
}

func parseEnvelope(c category.Category, body string) (string, error) {
	// Strip markdown fences if present
	body = strings.TrimSpace(body)
	body = strings.TrimPrefix(body, "```json")
	body = strings.TrimPrefix(body, "```")
	body = strings.TrimSuffix(body, "```")
	body = strings.TrimSpace(body)

	var env envelope
	if err := json.Unmarshal([]byte(body), &env); err != nil {
		return "", fmt.Errorf("summarizer: %s: malformed reply: %w", c, err)
	}
	if strings.TrimSpace(env.Summary) == "" {
		return "", fmt.Errorf("summarizer: %s: reply has empty summary field", c)
	}
	return strings.TrimSpace(env.Summary), nil
}
