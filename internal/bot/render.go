package bot

import (
	"fmt"
	"strings"

	"github.com/ryosukesatoh/journalbot/internal/category"
	"github.com/ryosukesatoh/journalbot/internal/store"
	"github.com/ryosukesatoh/journalbot/internal/summary"
)

// RenderSummary formats a window summary as a Telegram message, categories
// in vocabulary order.
func RenderSummary(ws *summary.WindowSummary) string {
	var sb strings.Builder
	kind := string(ws.Kind)
	sb.WriteString(strings.ToUpper(kind[:1]) + kind[1:] + " Summary\n")
	sb.WriteString(ws.GeneratedAt.Format("Mon, 2 Jan 2006 15:04") + "\n")
	if ws.Degraded {
		sb.WriteString("(journal storage was unreachable; showing an empty window)\n")
	}
	for _, c := range category.All {
		sb.WriteString("\n" + string(c) + "\n")
		sb.WriteString(ws.PerCategory[c] + "\n")
	}
	return sb.String()
}

// RenderEntries formats an entry listing, newest first.
func RenderEntries(entries []store.Entry) string {
	if len(entries) == 0 {
		return "No journal entries yet. Send me a message to create one!"
	}
	var sb strings.Builder
	sb.WriteString("Your latest entries:\n")
	for _, e := range entries {
		sb.WriteString(fmt.Sprintf("\n%s", e.Timestamp.Format("2 Jan 15:04")))
		if e.Categories != "" {
			sb.WriteString(" [" + e.Categories + "]")
		}
		sb.WriteString("\n" + truncate(e.Text, 120) + "\n")
	}
	return sb.String()
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
