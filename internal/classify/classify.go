// Package classify labels journal entries with vocabulary categories and
// free-form keywords. Classification runs on the ingestion path only; the
// summary engine trusts whatever the store holds.
package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ryosukesatoh/journalbot/internal/category"
	"github.com/ryosukesatoh/journalbot/internal/summarizer"
)

const systemPrompt = "You are an assistant that files personal diary entries into life categories."

// Classifier asks the language model to label one entry. Results are not
// deterministic; a failure leaves the entry uncategorized rather than lost.
type Classifier struct {
	client summarizer.Client
}

func New(client summarizer.Client) *Classifier {
	return &Classifier{client: client}
}

type labelReply struct {
	Categories []string `json:"categories"`
	Keywords   []string `json:"keywords"`
}

// Classify returns the vocabulary categories and keywords for an entry text.
// Labels outside the vocabulary are dropped through the shared normalization,
// so the stored category field only ever narrows to the closed set.
func (c *Classifier) Classify(ctx context.Context, text string) ([]category.Category, []string, error) {
	prompt := buildPrompt(text)

	reply, err := c.client.Complete(ctx, systemPrompt, prompt)
	if err != nil {
		return nil, nil, fmt.Errorf("classify: %w", err)
	}

	reply = strings.TrimSpace(reply)
	reply = strings.TrimPrefix(reply, "```json")
	reply = strings.TrimPrefix(reply, "```")
	reply = strings.TrimSuffix(reply, "```")

	var parsed labelReply
	if err := json.Unmarshal([]byte(strings.TrimSpace(reply)), &parsed); err != nil {
		return nil, nil, fmt.Errorf("classify: malformed reply: %w", err)
	}

	var cats []category.Category
	seen := make(map[category.Category]bool)
	for _, raw := range parsed.Categories {
		if c, ok := category.Lookup(raw); ok && !seen[c] {
			seen[c] = true
			cats = append(cats, c)
		}
	}

	var keywords []string
	for _, kw := range parsed.Keywords {
		if kw = strings.TrimSpace(kw); kw != "" {
			keywords = append(keywords, kw)
		}
	}

	return cats, keywords, nil
}

func buildPrompt(text string) string {
	var sb strings.Builder
	sb.WriteString("Classify this journal entry into zero or more of these categories:\n")
	for _, c := range category.All {
		sb.WriteString(fmt.Sprintf("- %s: %s\n", c, category.Definition(c)))
	}
	sb.WriteString("\nAlso extract a few short keywords describing the entry.\n\n")
	sb.WriteString("Journal entry:\n")
	sb.WriteString(text)
	sb.WriteString("\n\nRespond in JSON with this exact structure:\n")
	sb.WriteString(`{"categories": ["Work"], "keywords": ["deadline", "report"]}` + "\n")
	sb.WriteString("Respond ONLY with valid JSON, no markdown fences or additional text.")
	return sb.String()
}
