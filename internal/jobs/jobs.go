// Package jobs binds window summary runs to wall-clock triggers and guards
// each window kind against re-entrant invocation.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/ryosukesatoh/journalbot/internal/config"
	"github.com/ryosukesatoh/journalbot/internal/sink"
	"github.com/ryosukesatoh/journalbot/internal/summary"
)

// ErrBusy rejects a trigger arriving while the same window kind is already
// running. The caller gets an immediate busy signal; triggers never queue.
var ErrBusy = errors.New("jobs: summary job already running")

// Builder produces a window summary.
type Builder interface {
	Build(ctx context.Context, kind summary.Kind) *summary.WindowSummary
}

// Runner executes the build-then-persist pipeline for one window kind at a
// time per kind. Different kinds may run concurrently; they read independent
// windows and write disjoint destinations.
type Runner struct {
	builder Builder
	sink    sink.Sink

	mu      sync.Mutex
	running map[summary.Kind]bool
}

func NewRunner(builder Builder, s sink.Sink) *Runner {
	return &Runner{
		builder: builder,
		sink:    s,
		running: make(map[summary.Kind]bool),
	}
}

func (r *Runner) begin(kind summary.Kind) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running[kind] {
		return ErrBusy
	}
	r.running[kind] = true
	return nil
}

func (r *Runner) end(kind summary.Kind) {
	r.mu.Lock()
	r.running[kind] = false
	r.mu.Unlock()
}

// Run builds and persists one window summary. It returns ErrBusy when the
// same kind is mid-run, and the sink error when persisting fails; either
// way the job returns to idle and the next trigger runs normally.
func (r *Runner) Run(ctx context.Context, kind summary.Kind) (ws *summary.WindowSummary, err error) {
	if err := r.begin(kind); err != nil {
		return nil, err
	}
	defer r.end(kind)

	defer func() {
		if rec := recover(); rec != nil {
			ws = nil
			err = fmt.Errorf("jobs: %s run panicked: %v", kind, rec)
		}
	}()

	log.Printf("jobs: %s summary run started", kind)
	ws = r.builder.Build(ctx, kind)

	if err := r.sink.Persist(ctx, ws); err != nil {
		return nil, fmt.Errorf("jobs: persist %s summary: %w", kind, err)
	}

	log.Printf("jobs: %s summary run finished (run_id=%s degraded=%v)", kind, ws.RunID, ws.Degraded)
	return ws, nil
}

// Schedule registers the daily, weekly and monthly jobs with the cron
// instance. The caller starts and stops the cron.
func (r *Runner) Schedule(ctx context.Context, c *cron.Cron, cfg config.ScheduleConfig) error {
	specs := []struct {
		kind summary.Kind
		expr string
	}{
		{summary.Daily, cronExpr(cfg.DailyAt, "*", "*")},
		{summary.Weekly, cronExpr(cfg.WeeklyAt, "*", strings.ToUpper(cfg.WeeklyDay))},
		{summary.Monthly, cronExpr(cfg.MonthlyAt, fmt.Sprint(cfg.MonthlyOnDay), "*")},
	}

	for _, s := range specs {
		kind := s.kind
		if _, err := c.AddFunc(s.expr, func() {
			if _, err := r.Run(ctx, kind); err != nil {
				if errors.Is(err, ErrBusy) {
					log.Printf("jobs: scheduled %s run skipped, previous run still active", kind)
					return
				}
				log.Printf("jobs: scheduled %s run failed: %v", kind, err)
			}
		}); err != nil {
			return fmt.Errorf("jobs: schedule %s job %q: %w", s.kind, s.expr, err)
		}
		log.Printf("jobs: scheduled %s summary with cron expression %q", s.kind, s.expr)
	}
	return nil
}

// cronExpr builds a standard 5-field cron expression from an HH:MM time, a
// day-of-month and a day-of-week.
func cronExpr(at, dayOfMonth, dayOfWeek string) string {
	hh, mm, _ := strings.Cut(at, ":")
	hh = strings.TrimPrefix(hh, "0")
	mm = strings.TrimPrefix(mm, "0")
	if hh == "" {
		hh = "0"
	}
	if mm == "" {
		mm = "0"
	}
	return fmt.Sprintf("%s %s %s * %s", mm, hh, dayOfMonth, dayOfWeek)
}
