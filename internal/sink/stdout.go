package sink

import (
	"context"
	"fmt"
	"strings"

	"github.com/ryosukesatoh/journalbot/internal/category"
	"github.com/ryosukesatoh/journalbot/internal/summary"
)

// StdoutSink prints the summary to stdout, mostly useful with -once.
type StdoutSink struct{}

var _ Sink = (*StdoutSink)(nil)

func NewStdoutSink() *StdoutSink {
	return &StdoutSink{}
}

func (StdoutSink) Persist(_ context.Context, ws *summary.WindowSummary) error {
	kind := string(ws.Kind)
	if kind != "" {
		kind = strings.ToUpper(kind[:1]) + kind[1:]
	}
	fmt.Println(strings.Repeat("=", 72))
	fmt.Printf("%s journal summary\n", kind)
	fmt.Printf("Generated: %s\n", ws.GeneratedAt.Format("2006-01-02 15:04"))
	if ws.Degraded {
		fmt.Println("NOTE: entry store was unavailable; window treated as empty")
	}
	fmt.Println(strings.Repeat("=", 72))
	fmt.Println()

	for _, c := range category.All {
		fmt.Println(strings.Repeat("-", 72))
		fmt.Printf("%s\n\n", c)
		fmt.Printf("%s\n\n", ws.PerCategory[c])
	}

	fmt.Println(strings.Repeat("=", 72))
	return nil
}
