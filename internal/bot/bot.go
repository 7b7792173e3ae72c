// Package bot is the Telegram surface: journal entries come in as plain
// text messages, and the summary jobs can be triggered manually with
// /daily, /weekly and /monthly.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/ryosukesatoh/journalbot/internal/category"
	"github.com/ryosukesatoh/journalbot/internal/classify"
	"github.com/ryosukesatoh/journalbot/internal/jobs"
	"github.com/ryosukesatoh/journalbot/internal/store"
	"github.com/ryosukesatoh/journalbot/internal/summary"
)

const helpText = `Hello, I'm your journaling bot!

Send me a plain text message and I'll file it in your journal.

Commands:
/daily - summary of today's entries
/weekly - summary of the last 7 days
/monthly - summary of the last 30 days
/recent - your latest entries
/deletelast - remove your last entry`

// Bot runs the Telegram long-polling loop.
type Bot struct {
	api        *tgbotapi.BotAPI
	store      *store.Store
	classifier *classify.Classifier
	runner     *jobs.Runner
	authorized map[int64]bool
}

func New(api *tgbotapi.BotAPI, st *store.Store, cl *classify.Classifier, runner *jobs.Runner, authorizedUsers []int64) *Bot {
	authorized := make(map[int64]bool, len(authorizedUsers))
	for _, id := range authorizedUsers {
		authorized[id] = true
	}
	return &Bot{
		api:        api,
		store:      st,
		classifier: cl,
		runner:     runner,
		authorized: authorized,
	}
}

// Run polls for updates until the context is cancelled.
func (b *Bot) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := b.api.GetUpdatesChan(u)

	log.Printf("bot: listening as @%s", b.api.Self.UserName)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message == nil {
				continue
			}
			b.handleMessage(ctx, update.Message)
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if !b.isAuthorized(msg.From.ID) {
		b.reply(msg.Chat.ID, "Sorry, you are not authorized to use this bot.")
		return
	}

	switch {
	case msg.IsCommand():
		b.handleCommand(ctx, msg)
	case msg.Voice != nil || msg.Audio != nil:
		b.reply(msg.Chat.ID, "Voice notes are not supported here; please type your entry.")
	case strings.TrimSpace(msg.Text) != "":
		b.reply(msg.Chat.ID, b.ingestText(ctx, msg))
	}
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	switch msg.Command() {
	case "start", "help":
		b.reply(msg.Chat.ID, helpText)
	case "daily", "weekly", "monthly":
		kind, _ := summary.ParseKind(msg.Command())
		b.reply(msg.Chat.ID, fmt.Sprintf("Analyzing your %s journal entries, this may take a minute...", kind))
		// Summarization can take a while; don't hold up the update loop.
		go func() {
			b.reply(msg.Chat.ID, b.runSummary(ctx, kind))
		}()
	case "recent":
		b.reply(msg.Chat.ID, b.recentEntries(ctx))
	case "deletelast":
		b.reply(msg.Chat.ID, b.deleteLast(ctx, msg.From.ID))
	default:
		b.reply(msg.Chat.ID, "Unknown command. Try /help.")
	}
}

// ingestText classifies and stores one journal entry. A classification
// failure stores the entry uncategorized; text is never dropped.
func (b *Bot) ingestText(ctx context.Context, msg *tgbotapi.Message) string {
	text := strings.TrimSpace(msg.Text)

	classifyCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	cats, keywords, err := b.classifier.Classify(classifyCtx, text)
	if err != nil {
		log.Printf("bot: classification failed, storing entry uncategorized: %v", err)
	}

	entry := store.Entry{
		UserID:     fmt.Sprint(msg.From.ID),
		MessageID:  fmt.Sprint(msg.MessageID),
		Timestamp:  time.Now(),
		Text:       text,
		Categories: category.FormatList(cats),
		Keywords:   strings.Join(keywords, ", "),
	}
	if _, err := b.store.Insert(ctx, entry); err != nil {
		log.Printf("bot: insert entry failed: %v", err)
		return "Sorry, I couldn't save that entry. Please try again."
	}

	if len(cats) == 0 {
		return "Entry saved (no category matched)."
	}
	return fmt.Sprintf("Entry saved!\nCategories: %s", entry.Categories)
}

func (b *Bot) runSummary(ctx context.Context, kind summary.Kind) string {
	ws, err := b.runner.Run(ctx, kind)
	if err != nil {
		if errors.Is(err, jobs.ErrBusy) {
			return fmt.Sprintf("A %s summary is already running, please wait for it to finish.", kind)
		}
		log.Printf("bot: manual %s run failed: %v", kind, err)
		return fmt.Sprintf("Sorry, I couldn't generate the %s summary. Please try again later.", kind)
	}
	return RenderSummary(ws)
}

func (b *Bot) recentEntries(ctx context.Context) string {
	entries, err := b.store.List(ctx, store.ListFilter{Limit: 5})
	if err != nil {
		log.Printf("bot: list entries failed: %v", err)
		return "Sorry, I couldn't load your entries."
	}
	return RenderEntries(entries)
}

func (b *Bot) deleteLast(ctx context.Context, userID int64) string {
	text, err := b.store.DeleteLastFor(ctx, fmt.Sprint(userID))
	if err != nil {
		log.Printf("bot: delete last entry failed: %v", err)
		return "Nothing to delete."
	}
	return fmt.Sprintf("Deleted your last entry: %s", truncate(text, 80))
}

func (b *Bot) isAuthorized(userID int64) bool {
	// An empty allowlist means the bot is open; set authorized_users in the
	// config to lock it down.
	if len(b.authorized) == 0 {
		return true
	}
	return b.authorized[userID]
}

func (b *Bot) reply(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		log.Printf("bot: send message failed: %v", err)
	}
}
