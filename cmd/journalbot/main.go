package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/robfig/cron/v3"

	"github.com/ryosukesatoh/journalbot/internal/bot"
	"github.com/ryosukesatoh/journalbot/internal/classify"
	"github.com/ryosukesatoh/journalbot/internal/config"
	"github.com/ryosukesatoh/journalbot/internal/jobs"
	"github.com/ryosukesatoh/journalbot/internal/sink"
	"github.com/ryosukesatoh/journalbot/internal/store"
	"github.com/ryosukesatoh/journalbot/internal/summarizer"
	"github.com/ryosukesatoh/journalbot/internal/summary"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	once := flag.String("once", "", "build one summary (daily, weekly or monthly) and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		log.Fatalf("Unknown timezone %q: %v", cfg.Timezone, err)
	}

	st, err := store.Open(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to open journal database: %v", err)
	}
	defer st.Close()

	client := summarizer.NewOpenAIClient(
		cfg.Summarizer.Endpoint,
		cfg.Summarizer.Model,
		cfg.Summarizer.APIKey,
		cfg.Summarizer.MaxTokens,
	)
	driver := summarizer.NewDriver(client, time.Duration(cfg.Summarizer.TimeoutSeconds)*time.Second)
	builder := summary.NewBuilder(st, driver)

	// Build sink
	var dest sink.Sink
	switch cfg.Sink.Type {
	case "file":
		dest = sink.NewFileSink(cfg.Sink.Dir)
	case "sqlite":
		dest = sink.NewSQLiteSink(st)
	case "stdout":
		dest = sink.NewStdoutSink()
	default:
		log.Fatalf("Unknown sink type: %s", cfg.Sink.Type)
	}

	runner := jobs.NewRunner(builder, dest)

	// Single-run mode: build one window summary and exit
	if *once != "" {
		kind, err := summary.ParseKind(*once)
		if err != nil {
			log.Fatalf("Invalid -once value: %v", err)
		}
		log.Printf("Building %s summary (once mode)...", kind)
		if _, err := runner.Run(context.Background(), kind); err != nil {
			log.Fatalf("Summary run failed: %v", err)
		}
		log.Println("Done")
		return
	}

	// Set up context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Run an initial daily summary on startup if configured
	if cfg.RunOnStart {
		log.Println("Running initial daily summary...")
		if _, err := runner.Run(ctx, summary.Daily); err != nil {
			log.Printf("Initial run failed: %v", err)
		}
	}

	// Set up cron scheduler
	c := cron.New(cron.WithLocation(loc))
	if err := runner.Schedule(ctx, c, cfg.Schedule); err != nil {
		log.Fatalf("Failed to set up schedule: %v", err)
	}
	c.Start()

	// Start the Telegram bot if configured
	if cfg.Telegram.Token != "" {
		api, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
		if err != nil {
			log.Fatalf("Failed to start Telegram bot: %v", err)
		}
		classifier := classify.New(client)
		b := bot.New(api, st, classifier, runner, cfg.Telegram.AuthorizedUsers)
		go b.Run(ctx)
	} else {
		log.Println("No Telegram token configured; running scheduled jobs only")
	}

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Printf("Received signal %v, shutting down...", sig)

	// Graceful shutdown
	cancel()
	stopCtx := c.Stop()
	select {
	case <-stopCtx.Done():
	case <-time.After(5 * time.Second):
		log.Println("Timed out waiting for running jobs")
	}

	log.Println("Shutdown complete")
}
