package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/ryosukesatoh/journalbot/internal/category"
	"github.com/ryosukesatoh/journalbot/internal/config"
	"github.com/ryosukesatoh/journalbot/internal/summary"
)

type mockBuilder struct {
	block chan struct{} // if set, Build waits until closed
	panic bool
}

func (m *mockBuilder) Build(ctx context.Context, kind summary.Kind) *summary.WindowSummary {
	if m.panic {
		panic("builder exploded")
	}
	if m.block != nil {
		<-m.block
	}
	return &summary.WindowSummary{
		RunID:       "run-" + string(kind),
		Kind:        kind,
		GeneratedAt: time.Now(),
		PerCategory: map[category.Category]string{},
	}
}

type mockSink struct {
	mu        sync.Mutex
	persisted []*summary.WindowSummary
	err       error
}

func (m *mockSink) Persist(ctx context.Context, ws *summary.WindowSummary) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.persisted = append(m.persisted, ws)
	return nil
}

func (m *mockSink) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.persisted)
}

func TestRunSuccess(t *testing.T) {
	s := &mockSink{}
	r := NewRunner(&mockBuilder{}, s)

	ws, err := r.Run(context.Background(), summary.Daily)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if ws == nil || ws.Kind != summary.Daily {
		t.Fatalf("Run returned %+v", ws)
	}
	if s.count() != 1 {
		t.Errorf("Expected 1 persisted summary, got %d", s.count())
	}
}

func TestRunRejectsReentrantInvocation(t *testing.T) {
	block := make(chan struct{})
	s := &mockSink{}
	r := NewRunner(&mockBuilder{block: block}, s)

	done := make(chan error, 1)
	go func() {
		_, err := r.Run(context.Background(), summary.Daily)
		done <- err
	}()

	// Wait for the first run to hold the guard.
	deadline := time.After(time.Second)
	for {
		r.mu.Lock()
		active := r.running[summary.Daily]
		r.mu.Unlock()
		if active {
			break
		}
		select {
		case <-deadline:
			t.Fatal("First run never started")
		default:
			time.Sleep(time.Millisecond)
		}
	}

	if _, err := r.Run(context.Background(), summary.Daily); !errors.Is(err, ErrBusy) {
		t.Errorf("Expected ErrBusy for re-entrant run, got %v", err)
	}

	close(block)
	if err := <-done; err != nil {
		t.Fatalf("First run returned error: %v", err)
	}
	if s.count() != 1 {
		t.Errorf("Expected exactly 1 persisted summary, got %d", s.count())
	}
}

func TestRunDifferentKindsMayRunConcurrently(t *testing.T) {
	block := make(chan struct{})
	s := &mockSink{}
	r := NewRunner(&mockBuilder{block: block}, s)

	done := make(chan error, 1)
	go func() {
		_, err := r.Run(context.Background(), summary.Daily)
		done <- err
	}()

	deadline := time.After(time.Second)
	for {
		r.mu.Lock()
		active := r.running[summary.Daily]
		r.mu.Unlock()
		if active {
			break
		}
		select {
		case <-deadline:
			t.Fatal("Daily run never started")
		default:
			time.Sleep(time.Millisecond)
		}
	}

	// Weekly must not be blocked by the daily guard. Unblock the shared
	// builder first so the weekly build can complete.
	close(block)
	if _, err := r.Run(context.Background(), summary.Weekly); err != nil {
		t.Errorf("Weekly run returned error: %v", err)
	}
	if err := <-done; err != nil {
		t.Fatalf("Daily run returned error: %v", err)
	}
}

func TestRunSinkFailureReturnsToIdle(t *testing.T) {
	s := &mockSink{err: errors.New("disk full")}
	r := NewRunner(&mockBuilder{}, s)

	if _, err := r.Run(context.Background(), summary.Monthly); err == nil {
		t.Fatal("Expected sink failure to surface")
	}

	// The failed run must not leave the job stuck in Running.
	s.err = nil
	if _, err := r.Run(context.Background(), summary.Monthly); err != nil {
		t.Fatalf("Run after sink failure returned error: %v", err)
	}
}

func TestRunRecoversPanics(t *testing.T) {
	r := NewRunner(&mockBuilder{panic: true}, &mockSink{})

	if _, err := r.Run(context.Background(), summary.Daily); err == nil {
		t.Fatal("Expected error from panicking builder")
	}

	r.builder = &mockBuilder{}
	if _, err := r.Run(context.Background(), summary.Daily); err != nil {
		t.Fatalf("Run after panic returned error: %v", err)
	}
}

func TestScheduleRegistersAllJobs(t *testing.T) {
	r := NewRunner(&mockBuilder{}, &mockSink{})
	c := cron.New()

	cfg := config.ScheduleConfig{
		DailyAt:      "09:00",
		WeeklyAt:     "09:00",
		WeeklyDay:    "MON",
		MonthlyAt:    "09:00",
		MonthlyOnDay: 1,
	}
	if err := r.Schedule(context.Background(), c, cfg); err != nil {
		t.Fatalf("Schedule returned error: %v", err)
	}
	if got := len(c.Entries()); got != 3 {
		t.Errorf("Expected 3 cron entries, got %d", got)
	}
}

func TestCronExpr(t *testing.T) {
	cases := []struct {
		at, dom, dow string
		want         string
	}{
		{"09:00", "*", "*", "0 9 * * *"},
		{"21:30", "*", "MON", "30 21 * * MON"},
		{"09:00", "1", "*", "0 9 1 * *"},
		{"00:05", "*", "*", "5 0 * * *"},
	}
	for _, c := range cases {
		if got := cronExpr(c.at, c.dom, c.dow); got != c.want {
			t.Errorf("cronExpr(%q, %q, %q) = %q, want %q", c.at, c.dom, c.dow, got, c.want)
		}
	}
}
